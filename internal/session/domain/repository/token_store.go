package repository

import (
	"context"

	"github.com/golang-jwt/jwt/v5"
)

// TokenStore is the persisted-storage port for the bearer token. Only the
// token is ever persisted; role and expiry are re-derived from it on every
// load so the two can never diverge.
type TokenStore interface {
	// Load returns the persisted token, or "" when nothing is stored.
	Load(ctx context.Context) (string, error)
	// Save persists the token, replacing any previous one.
	Save(ctx context.Context, token string) error
	// Clear removes the persisted token. Clearing an empty store is a no-op.
	Clear(ctx context.Context) error
}

// Claims are the fields the client consumes from the externally issued token.
type Claims struct {
	UserID string `json:"userId,omitempty"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// ClaimsDecoder extracts claims from a bearer token string. Implementations do
// not verify the signature: the client never holds the signing key, and the
// remote API re-checks the token on every call anyway.
type ClaimsDecoder interface {
	Decode(tokenString string) (*Claims, error)
}
