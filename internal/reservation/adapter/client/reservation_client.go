package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"reservation-client/internal/reservation/domain/model"
	"reservation-client/internal/shared/contextkeys"
	apperrors "reservation-client/internal/shared/errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ReservationAPI is the outbound port for the remote reservation service.
type ReservationAPI interface {
	ListMine(ctx context.Context, token string, status model.Status) ([]model.Reservation, error)
	Create(ctx context.Context, token string, req CreateRequest) (*model.Reservation, error)
	Cancel(ctx context.Context, token, id string) error
	ListAll(ctx context.Context, token string, page, limit int, status model.Status) (*model.Page, error)
	AdminCancel(ctx context.Context, token, id string) error
	AdminRestore(ctx context.Context, token, id string) error
}

// CreateRequest is the POST /reservations payload.
type CreateRequest struct {
	Date     string `json:"date"`
	TimeSlot string `json:"timeSlot"`
	Guests   int    `json:"guests"`
}

// ReservationClient calls the remote reservation API with a bearer token
// supplied per call, so the client itself never caches identity.
type ReservationClient struct {
	baseURL    string
	httpClient *http.Client
	log        *zap.Logger
}

// NewReservationClient creates a client for the reservation endpoints under
// baseURL.
func NewReservationClient(baseURL string, timeout time.Duration, log *zap.Logger) *ReservationClient {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReservationClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		log:        log.Named("reservation-client"),
	}
}

// ListMine fetches the caller's own reservations, optionally filtered by
// status (StatusAll fetches everything).
func (c *ReservationClient) ListMine(ctx context.Context, token string, status model.Status) ([]model.Reservation, error) {
	path := "/reservations/my"
	if status != "" {
		path += "?status=" + url.QueryEscape(string(status))
	}

	var out []model.Reservation
	if err := c.do(ctx, http.MethodGet, path, token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create books a new reservation.
func (c *ReservationClient) Create(ctx context.Context, token string, req CreateRequest) (*model.Reservation, error) {
	var out model.Reservation
	if err := c.do(ctx, http.MethodPost, "/reservations", token, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Cancel cancels one of the caller's own reservations.
func (c *ReservationClient) Cancel(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodPatch, "/reservations/"+url.PathEscape(id)+"/cancel", token, nil, nil)
}

// ListAll fetches a page of all reservations (admin only).
func (c *ReservationClient) ListAll(ctx context.Context, token string, page, limit int, status model.Status) (*model.Page, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	if status != "" {
		q.Set("status", string(status))
	}

	var out model.Page
	if err := c.do(ctx, http.MethodGet, "/reservations/all?"+q.Encode(), token, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// AdminCancel cancels any reservation by id (admin only).
func (c *ReservationClient) AdminCancel(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodPatch, "/reservations/admin-cancel/"+url.PathEscape(id), token, nil, nil)
}

// AdminRestore restores a cancelled reservation to ACTIVE (admin only).
func (c *ReservationClient) AdminRestore(ctx context.Context, token, id string) error {
	return c.do(ctx, http.MethodPatch, "/reservations/admin-restore/"+url.PathEscape(id), token, nil, nil)
}

// errorResponse is the API's error payload shape.
type errorResponse struct {
	Message string `json:"message"`
}

// do performs one API call: marshal body, attach bearer token and correlation
// id, decode the response into out when non-nil. No retries — a failed call
// surfaces its error and leaves caller state untouched.
func (c *ReservationClient) do(ctx context.Context, method, path, token string, body, out interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	requestID, ok := contextkeys.RequestID(ctx)
	if !ok {
		requestID = uuid.NewString()
	}
	req.Header.Set("X-Request-ID", requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.NewNetworkError("reservation API unreachable").WithCause(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	c.log.Debug("api call",
		zap.String("method", method),
		zap.String("path", path),
		zap.String("request_id", requestID),
		zap.Int("status", resp.StatusCode),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr errorResponse
		message := fmt.Sprintf("reservation API returned status %d", resp.StatusCode)
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Message != "" {
			message = apiErr.Message
		}
		return apperrors.NewRemoteAPIError(message, resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}
