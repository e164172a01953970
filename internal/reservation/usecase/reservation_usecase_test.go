package usecase_test

import (
	"context"
	"testing"
	"time"

	"reservation-client/internal/reservation/adapter/client"
	"reservation-client/internal/reservation/domain/model"
	"reservation-client/internal/reservation/usecase"
	"reservation-client/internal/session/adapter/persistence"
	"reservation-client/internal/session/adapter/security"
	sessionuc "reservation-client/internal/session/usecase"
	apperrors "reservation-client/internal/shared/errors"
	"reservation-client/internal/shared/eventbus"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAPI records calls and can run a hook mid-call to simulate a session
// change while a request is in flight.
type fakeAPI struct {
	listMine   []model.Reservation
	page       *model.Page
	err        error
	duringCall func()
	calls      []string
	gotToken   string
}

func (f *fakeAPI) hook() {
	if f.duringCall != nil {
		f.duringCall()
	}
}

func (f *fakeAPI) ListMine(ctx context.Context, token string, status model.Status) ([]model.Reservation, error) {
	f.calls = append(f.calls, "ListMine")
	f.gotToken = token
	f.hook()
	return f.listMine, f.err
}

func (f *fakeAPI) Create(ctx context.Context, token string, req client.CreateRequest) (*model.Reservation, error) {
	f.calls = append(f.calls, "Create")
	f.gotToken = token
	f.hook()
	if f.err != nil {
		return nil, f.err
	}
	return &model.Reservation{ID: "new", Date: req.Date, TimeSlot: req.TimeSlot, Guests: req.Guests, Status: model.StatusActive}, nil
}

func (f *fakeAPI) Cancel(ctx context.Context, token, id string) error {
	f.calls = append(f.calls, "Cancel")
	f.hook()
	return f.err
}

func (f *fakeAPI) ListAll(ctx context.Context, token string, page, limit int, status model.Status) (*model.Page, error) {
	f.calls = append(f.calls, "ListAll")
	f.gotToken = token
	f.hook()
	return f.page, f.err
}

func (f *fakeAPI) AdminCancel(ctx context.Context, token, id string) error {
	f.calls = append(f.calls, "AdminCancel")
	f.hook()
	return f.err
}

func (f *fakeAPI) AdminRestore(ctx context.Context, token, id string) error {
	f.calls = append(f.calls, "AdminRestore")
	f.hook()
	return f.err
}

func mintToken(t *testing.T, role string) string {
	t.Helper()
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("key"))
	require.NoError(t, err)
	return signed
}

// newFixture returns a usecase wired to a fake API and a logged-in session.
func newFixture(t *testing.T, api *fakeAPI, role string) (*usecase.ReservationUsecase, *sessionuc.SessionUsecase) {
	t.Helper()
	sessions := sessionuc.NewSessionUsecase(
		persistence.NewMemoryTokenStore(),
		security.NewJWTClaimsDecoder(),
		eventbus.NewEventBus(nil),
		nil,
	)
	require.NoError(t, sessions.Restore(context.Background()))
	if role != "" {
		_, err := sessions.Login(context.Background(), mintToken(t, role))
		require.NoError(t, err)
	}
	return usecase.NewReservationUsecase(api, sessions, eventbus.NewEventBus(nil), nil), sessions
}

func TestMyReservations_PassesBearerToken(t *testing.T) {
	api := &fakeAPI{listMine: []model.Reservation{{ID: "r1"}}}
	uc, sessions := newFixture(t, api, "USER")

	items, err := uc.MyReservations(context.Background(), model.StatusActive)
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, sessions.Current().Session.Token, api.gotToken)
}

func TestMyReservations_RequiresSession(t *testing.T) {
	api := &fakeAPI{}
	uc, _ := newFixture(t, api, "")

	_, err := uc.MyReservations(context.Background(), model.StatusActive)
	assert.ErrorIs(t, err, apperrors.ErrNotAuthenticated)
	assert.Empty(t, api.calls)
}

func TestMyReservations_DiscardsResponseAfterLogout(t *testing.T) {
	api := &fakeAPI{listMine: []model.Reservation{{ID: "r1"}}}
	uc, sessions := newFixture(t, api, "USER")

	// Logout lands while the request is in flight; the response must be
	// ignored rather than applied to the new (absent) session.
	api.duringCall = func() {
		require.NoError(t, sessions.Logout(context.Background()))
	}

	items, err := uc.MyReservations(context.Background(), model.StatusActive)
	assert.ErrorIs(t, err, apperrors.ErrStaleSession)
	assert.Nil(t, items)
}

func TestCreate_DiscardsResponseAfterRelogin(t *testing.T) {
	api := &fakeAPI{}
	uc, sessions := newFixture(t, api, "USER")

	api.duringCall = func() {
		require.NoError(t, sessions.Logout(context.Background()))
		_, err := sessions.Login(context.Background(), mintToken(t, "ADMIN"))
		require.NoError(t, err)
	}

	_, err := uc.Create(context.Background(), client.CreateRequest{
		Date: "2099-05-01", TimeSlot: "18:00-19:00", Guests: 2,
	})
	assert.ErrorIs(t, err, apperrors.ErrStaleSession)
}

func TestCreate_Validation(t *testing.T) {
	api := &fakeAPI{}
	uc, _ := newFixture(t, api, "USER")

	testCases := []struct {
		name string
		req  client.CreateRequest
	}{
		{"zero guests", client.CreateRequest{Date: "2099-05-01", TimeSlot: "18:00-19:00", Guests: 0}},
		{"unknown slot", client.CreateRequest{Date: "2099-05-01", TimeSlot: "03:00-04:00", Guests: 2}},
		{"bad date format", client.CreateRequest{Date: "01/05/2099", TimeSlot: "18:00-19:00", Guests: 2}},
		{"past date", client.CreateRequest{Date: "2000-01-01", TimeSlot: "18:00-19:00", Guests: 2}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := uc.Create(context.Background(), tc.req)
			require.Error(t, err)
			assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
		})
	}
	// Validation failures never reach the API.
	assert.Empty(t, api.calls)
}

func TestCreate_PublishesChangeEvent(t *testing.T) {
	api := &fakeAPI{}
	sessions := sessionuc.NewSessionUsecase(
		persistence.NewMemoryTokenStore(),
		security.NewJWTClaimsDecoder(),
		eventbus.NewEventBus(nil),
		nil,
	)
	require.NoError(t, sessions.Restore(context.Background()))
	_, err := sessions.Login(context.Background(), mintToken(t, "USER"))
	require.NoError(t, err)

	bus := eventbus.NewEventBus(nil)
	var changed int
	bus.Subscribe(eventbus.EventReservationChanged, func(ctx context.Context, event eventbus.Event) error {
		changed++
		return nil
	})

	uc := usecase.NewReservationUsecase(api, sessions, bus, nil)
	_, err = uc.Create(context.Background(), client.CreateRequest{
		Date: "2099-05-01", TimeSlot: "17:00-18:00", Guests: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, changed)
}

func TestAllReservations_NormalizesPaging(t *testing.T) {
	api := &fakeAPI{page: &model.Page{Page: 1, Pages: 1}}
	uc, _ := newFixture(t, api, "ADMIN")

	_, err := uc.AllReservations(context.Background(), 0, 0, model.StatusActive)
	require.NoError(t, err)
	assert.Equal(t, []string{"ListAll"}, api.calls)
}

func TestAllReservations_RejectsUnknownFilter(t *testing.T) {
	api := &fakeAPI{}
	uc, _ := newFixture(t, api, "ADMIN")

	_, err := uc.AllReservations(context.Background(), 1, 5, model.Status("BOGUS"))
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	assert.Empty(t, api.calls)
}

func TestAdminRestore_SurfacesAPIError(t *testing.T) {
	api := &fakeAPI{err: apperrors.NewRemoteAPIError("Only CANCELLED reservations can be restored", 400)}
	uc, _ := newFixture(t, api, "ADMIN")

	err := uc.AdminRestore(context.Background(), "res-1")
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeRemoteAPI))
}
