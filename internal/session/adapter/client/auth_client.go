package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"reservation-client/internal/shared/contextkeys"
	apperrors "reservation-client/internal/shared/errors"
	"reservation-client/internal/shared/logger"

	"github.com/google/uuid"
)

// Auth API errors surfaced to the login/register flows.
var (
	ErrEmailTaken         = errors.New("email is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// AuthClient calls the remote authentication API. It is independent of the
// session store: callers pass the issued token to the store themselves.
type AuthClient struct {
	baseURL    string
	httpClient *http.Client
	log        logger.Logger
}

// NewAuthClient creates a client for the auth endpoints under baseURL.
func NewAuthClient(baseURL string, timeout time.Duration, log logger.Logger) *AuthClient {
	if log == nil {
		log = logger.NewLogger()
	}
	return &AuthClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.WithComponent("auth-client"),
	}
}

// LoginRequest is the POST /auth/login payload.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the POST /auth/register payload.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// loginResponse carries the issued bearer token.
type loginResponse struct {
	Token string `json:"token"`
}

// errorResponse is the API's error payload shape.
type errorResponse struct {
	Message string `json:"message"`
}

// Login exchanges credentials for a bearer token.
func (c *AuthClient) Login(ctx context.Context, email, password string) (string, error) {
	var out loginResponse
	status, err := c.post(ctx, "/auth/login", LoginRequest{Email: email, Password: password}, &out)
	if err != nil {
		if status == http.StatusUnauthorized {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if out.Token == "" {
		return "", apperrors.NewRemoteAPIError("login response carried no token", status)
	}
	return out.Token, nil
}

// Register creates an account. A 409 means the email already exists and is
// reported as ErrEmailTaken so the caller can steer the user to login instead.
func (c *AuthClient) Register(ctx context.Context, req RegisterRequest) error {
	status, err := c.post(ctx, "/auth/register", req, nil)
	if err != nil {
		if status == http.StatusConflict {
			return ErrEmailTaken
		}
		return err
	}
	return nil
}

// post issues a JSON POST and decodes the response into out when non-nil.
// API error payloads become RemoteAPIError with the payload message when
// present, a generic message otherwise; transport failures become NetworkError.
func (c *AuthClient) post(ctx context.Context, path string, body, out interface{}) (int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	requestID, ok := contextkeys.RequestID(ctx)
	if !ok {
		requestID = uuid.NewString()
	}
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, apperrors.NewNetworkError("auth API unreachable").WithCause(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("read response: %w", err)
	}

	c.log.WithContext(ctx).Debugf("POST %s -> %d", path, resp.StatusCode)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr errorResponse
		message := fmt.Sprintf("auth API returned status %d", resp.StatusCode)
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			message = apiErr.Message
		}
		return resp.StatusCode, apperrors.NewRemoteAPIError(message, resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return resp.StatusCode, fmt.Errorf("parse response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
