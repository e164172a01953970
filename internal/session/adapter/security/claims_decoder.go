package security

import (
	"fmt"

	"reservation-client/internal/session/domain/model"
	"reservation-client/internal/session/domain/repository"

	"github.com/golang-jwt/jwt/v5"
)

// JWTClaimsDecoder decodes bearer tokens issued by the remote auth API without
// verifying the signature. Expiry is reported through the claims and judged by
// the caller so that "structurally valid but time-invalid" stays a distinct
// condition from "malformed".
type JWTClaimsDecoder struct {
	parser *jwt.Parser
}

// NewJWTClaimsDecoder creates a decoder for unverified claim extraction.
func NewJWTClaimsDecoder() *JWTClaimsDecoder {
	return &JWTClaimsDecoder{
		parser: jwt.NewParser(jwt.WithoutClaimsValidation()),
	}
}

// Decode parses the token and returns its claims. The role claim is validated
// and case-normalized here: a token carrying anything outside {ADMIN, USER}
// is rejected as a whole, and a missing exp claim is treated as malformed.
func (d *JWTClaimsDecoder) Decode(tokenString string) (*repository.Claims, error) {
	if tokenString == "" {
		return nil, model.ErrTokenMalformed
	}

	claims := &repository.Claims{}
	if _, _, err := d.parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrTokenMalformed, err)
	}

	if claims.ExpiresAt == nil || claims.ExpiresAt.IsZero() {
		return nil, fmt.Errorf("%w: missing exp claim", model.ErrTokenMalformed)
	}

	role, err := model.ParseRole(claims.Role)
	if err != nil {
		return nil, err
	}
	claims.Role = string(role)

	return claims, nil
}
