package usecase

import (
	"context"
	"fmt"
	"time"

	"reservation-client/internal/reservation/adapter/client"
	"reservation-client/internal/reservation/domain/model"
	apperrors "reservation-client/internal/shared/errors"
	"reservation-client/internal/shared/eventbus"
	sessionuc "reservation-client/internal/session/usecase"

	"go.uber.org/zap"
)

const dateLayout = "2006-01-02"

// ReservationUsecaseInterface exposes the data operations behind the guest and
// admin dashboards.
type ReservationUsecaseInterface interface {
	MyReservations(ctx context.Context, status model.Status) ([]model.Reservation, error)
	Create(ctx context.Context, req client.CreateRequest) (*model.Reservation, error)
	CancelMine(ctx context.Context, id string) error
	AllReservations(ctx context.Context, page, limit int, status model.Status) (*model.Page, error)
	AdminCancel(ctx context.Context, id string) error
	AdminRestore(ctx context.Context, id string) error
}

// ReservationUsecase wires the dashboards to the remote API through the
// session store. Every call captures the session epoch first and discards the
// response if a login/logout happened while the call was in flight, so a view
// can never apply data that belongs to a previous identity.
type ReservationUsecase struct {
	api      client.ReservationAPI
	sessions sessionuc.SessionUsecaseInterface
	bus      eventbus.EventBusInterface
	log      *zap.Logger
	now      func() time.Time
}

// NewReservationUsecase creates the dashboard usecase.
func NewReservationUsecase(
	api client.ReservationAPI,
	sessions sessionuc.SessionUsecaseInterface,
	bus eventbus.EventBusInterface,
	log *zap.Logger,
) *ReservationUsecase {
	if log == nil {
		log = zap.NewNop()
	}
	return &ReservationUsecase{
		api:      api,
		sessions: sessions,
		bus:      bus,
		log:      log.Named("reservation"),
		now:      time.Now,
	}
}

// MyReservations lists the current user's reservations filtered by status.
func (uc *ReservationUsecase) MyReservations(ctx context.Context, status model.Status) ([]model.Reservation, error) {
	if status != "" && !status.ValidFilter() {
		return nil, apperrors.NewValidationError("unknown status filter")
	}

	token, epoch, err := uc.activeSession()
	if err != nil {
		return nil, err
	}

	items, err := uc.api.ListMine(ctx, token, status)
	if err != nil {
		return nil, err
	}
	if err := uc.stillCurrent(epoch); err != nil {
		return nil, err
	}
	return items, nil
}

// Create books a reservation after validating the request locally: the date
// must not be in the past, the slot must be one of the offered slots, and at
// least one guest is required.
func (uc *ReservationUsecase) Create(ctx context.Context, req client.CreateRequest) (*model.Reservation, error) {
	if err := uc.validateCreate(req); err != nil {
		return nil, err
	}

	token, epoch, err := uc.activeSession()
	if err != nil {
		return nil, err
	}

	created, err := uc.api.Create(ctx, token, req)
	if err != nil {
		return nil, err
	}
	if err := uc.stillCurrent(epoch); err != nil {
		return nil, err
	}

	uc.publishChanged(ctx, "create")
	uc.log.Info("reservation created",
		zap.String("date", req.Date),
		zap.String("time_slot", req.TimeSlot),
		zap.Int("guests", req.Guests),
	)
	return created, nil
}

// CancelMine cancels one of the current user's reservations.
func (uc *ReservationUsecase) CancelMine(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.NewValidationError("reservation id is required")
	}

	token, epoch, err := uc.activeSession()
	if err != nil {
		return err
	}

	if err := uc.api.Cancel(ctx, token, id); err != nil {
		return err
	}
	if err := uc.stillCurrent(epoch); err != nil {
		return err
	}

	uc.publishChanged(ctx, "cancel")
	return nil
}

// AllReservations lists a page of every user's reservations (admin view).
func (uc *ReservationUsecase) AllReservations(ctx context.Context, page, limit int, status model.Status) (*model.Page, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 5
	}
	if status != "" && !status.ValidFilter() {
		return nil, apperrors.NewValidationError("unknown status filter")
	}

	token, epoch, err := uc.activeSession()
	if err != nil {
		return nil, err
	}

	result, err := uc.api.ListAll(ctx, token, page, limit, status)
	if err != nil {
		return nil, err
	}
	if err := uc.stillCurrent(epoch); err != nil {
		return nil, err
	}
	return result, nil
}

// AdminCancel cancels any reservation by id (admin view).
func (uc *ReservationUsecase) AdminCancel(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.NewValidationError("reservation id is required")
	}

	token, epoch, err := uc.activeSession()
	if err != nil {
		return err
	}

	if err := uc.api.AdminCancel(ctx, token, id); err != nil {
		return err
	}
	if err := uc.stillCurrent(epoch); err != nil {
		return err
	}

	uc.publishChanged(ctx, "admin-cancel")
	return nil
}

// AdminRestore restores a cancelled reservation to ACTIVE (admin view). The
// CANCELLED precondition is owned by the API; the client only surfaces its
// verdict.
func (uc *ReservationUsecase) AdminRestore(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.NewValidationError("reservation id is required")
	}

	token, epoch, err := uc.activeSession()
	if err != nil {
		return err
	}

	if err := uc.api.AdminRestore(ctx, token, id); err != nil {
		return err
	}
	if err := uc.stillCurrent(epoch); err != nil {
		return err
	}

	uc.publishChanged(ctx, "admin-restore")
	return nil
}

// activeSession returns the current bearer token and session epoch, or
// ErrNotAuthenticated when there is no populated session.
func (uc *ReservationUsecase) activeSession() (string, uint64, error) {
	snap := uc.sessions.Current()
	if !snap.Authenticated() {
		return "", 0, apperrors.ErrNotAuthenticated
	}
	return snap.Session.Token, snap.Epoch, nil
}

// stillCurrent discards a response when the session changed mid-flight.
func (uc *ReservationUsecase) stillCurrent(epoch uint64) error {
	if uc.sessions.Current().Epoch != epoch {
		return apperrors.ErrStaleSession
	}
	return nil
}

func (uc *ReservationUsecase) validateCreate(req client.CreateRequest) error {
	if req.Guests < 1 {
		return apperrors.NewValidationError("at least one guest is required")
	}
	if !model.ValidTimeSlot(req.TimeSlot) {
		return apperrors.NewValidationError(fmt.Sprintf("unknown time slot %q", req.TimeSlot))
	}
	if _, err := time.Parse(dateLayout, req.Date); err != nil {
		return apperrors.NewValidationError("date must be YYYY-MM-DD")
	}
	// Calendar dates in this layout compare lexicographically. Comparing
	// parsed instants would pin the request to UTC midnight and reject a
	// local "today" in zones behind UTC.
	if req.Date < uc.now().Format(dateLayout) {
		return apperrors.NewValidationError("date must not be in the past")
	}
	return nil
}

func (uc *ReservationUsecase) publishChanged(ctx context.Context, action string) {
	if uc.bus == nil {
		return
	}
	_ = uc.bus.Publish(ctx, eventbus.NewBasicEvent(
		eventbus.EventReservationChanged,
		map[string]interface{}{"action": action},
		"reservation",
	))
}
