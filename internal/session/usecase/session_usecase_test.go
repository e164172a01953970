package usecase_test

import (
	"context"
	"testing"
	"time"

	"reservation-client/internal/session/adapter/persistence"
	"reservation-client/internal/session/adapter/security"
	"reservation-client/internal/session/domain/model"
	"reservation-client/internal/session/usecase"
	"reservation-client/internal/shared/eventbus"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// mintToken issues a signed token with the given role and expiry. The client
// never verifies signatures, so any key works.
func mintToken(t *testing.T, role string, exp time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"role":   role,
		"exp":    exp.Unix(),
		"userId": "user-123",
		"email":  "test@example.com",
	})
	signed, err := token.SignedString([]byte("test-secret-key"))
	require.NoError(t, err)
	return signed
}

type SessionUsecaseTestSuite struct {
	suite.Suite
	tokens *persistence.MemoryTokenStore
	store  *usecase.SessionUsecase
}

func (suite *SessionUsecaseTestSuite) SetupTest() {
	suite.tokens = persistence.NewMemoryTokenStore()
	suite.store = usecase.NewSessionUsecase(
		suite.tokens,
		security.NewJWTClaimsDecoder(),
		eventbus.NewEventBus(nil),
		nil,
	)
}

func (suite *SessionUsecaseTestSuite) persistedToken() string {
	token, err := suite.tokens.Load(context.Background())
	require.NoError(suite.T(), err)
	return token
}

func (suite *SessionUsecaseTestSuite) TestLoadingBeforeRestore() {
	snap := suite.store.Current()
	assert.True(suite.T(), snap.Loading)
	assert.False(suite.T(), snap.Authenticated())
}

func (suite *SessionUsecaseTestSuite) TestRestore_NoPersistedToken() {
	err := suite.store.Restore(context.Background())
	require.NoError(suite.T(), err)

	snap := suite.store.Current()
	assert.False(suite.T(), snap.Loading)
	assert.False(suite.T(), snap.Authenticated())
}

func (suite *SessionUsecaseTestSuite) TestRestore_ValidToken() {
	token := mintToken(suite.T(), "admin", time.Now().Add(time.Hour))
	require.NoError(suite.T(), suite.tokens.Save(context.Background(), token))

	require.NoError(suite.T(), suite.store.Restore(context.Background()))

	snap := suite.store.Current()
	require.True(suite.T(), snap.Authenticated())
	assert.False(suite.T(), snap.Loading)
	assert.Equal(suite.T(), model.RoleAdmin, snap.Session.Role)
	assert.Equal(suite.T(), token, snap.Session.Token)
	assert.Equal(suite.T(), "user-123", snap.Session.UserID)
}

func (suite *SessionUsecaseTestSuite) TestRestore_ExpiredTokenPurges() {
	token := mintToken(suite.T(), "USER", time.Now().Add(-time.Second))
	require.NoError(suite.T(), suite.tokens.Save(context.Background(), token))

	require.NoError(suite.T(), suite.store.Restore(context.Background()))

	snap := suite.store.Current()
	assert.False(suite.T(), snap.Authenticated())
	assert.False(suite.T(), snap.Loading)
	assert.Empty(suite.T(), suite.persistedToken())
}

func (suite *SessionUsecaseTestSuite) TestRestore_MalformedTokenPurges() {
	require.NoError(suite.T(), suite.tokens.Save(context.Background(), "not-a-jwt"))

	require.NoError(suite.T(), suite.store.Restore(context.Background()))

	snap := suite.store.Current()
	assert.False(suite.T(), snap.Authenticated())
	assert.Empty(suite.T(), suite.persistedToken())
}

func (suite *SessionUsecaseTestSuite) TestRestore_UnknownRolePurges() {
	token := mintToken(suite.T(), "SUPERVISOR", time.Now().Add(time.Hour))
	require.NoError(suite.T(), suite.tokens.Save(context.Background(), token))

	require.NoError(suite.T(), suite.store.Restore(context.Background()))

	assert.False(suite.T(), suite.store.Current().Authenticated())
	assert.Empty(suite.T(), suite.persistedToken())
}

func (suite *SessionUsecaseTestSuite) TestRestore_IsOneShot() {
	require.NoError(suite.T(), suite.store.Restore(context.Background()))

	// A token persisted after restore settles is not picked up by a second
	// Restore call; only Login installs it.
	token := mintToken(suite.T(), "USER", time.Now().Add(time.Hour))
	require.NoError(suite.T(), suite.tokens.Save(context.Background(), token))
	require.NoError(suite.T(), suite.store.Restore(context.Background()))

	assert.False(suite.T(), suite.store.Current().Authenticated())
}

func (suite *SessionUsecaseTestSuite) TestLogin_NormalizesRoleCase() {
	require.NoError(suite.T(), suite.store.Restore(context.Background()))

	token := mintToken(suite.T(), "admin", time.Now().Add(time.Hour))
	sess, err := suite.store.Login(context.Background(), token)
	require.NoError(suite.T(), err)

	assert.Equal(suite.T(), model.RoleAdmin, sess.Role)
	assert.Equal(suite.T(), token, suite.persistedToken())

	// New session is visible synchronously after Login returns.
	snap := suite.store.Current()
	require.True(suite.T(), snap.Authenticated())
	assert.Equal(suite.T(), model.RoleAdmin, snap.Session.Role)
}

func (suite *SessionUsecaseTestSuite) TestLogin_ExpiredTokenResolvesAbsent() {
	require.NoError(suite.T(), suite.store.Restore(context.Background()))

	token := mintToken(suite.T(), "USER", time.Now().Add(-time.Minute))
	sess, err := suite.store.Login(context.Background(), token)

	require.Error(suite.T(), err)
	assert.ErrorIs(suite.T(), err, model.ErrTokenExpired)
	assert.Nil(suite.T(), sess)
	assert.False(suite.T(), suite.store.Current().Authenticated())
	assert.Empty(suite.T(), suite.persistedToken())
}

func (suite *SessionUsecaseTestSuite) TestLogin_MalformedTokenFailsSafely() {
	require.NoError(suite.T(), suite.store.Restore(context.Background()))

	sess, err := suite.store.Login(context.Background(), "garbage")

	require.Error(suite.T(), err)
	assert.ErrorIs(suite.T(), err, model.ErrTokenMalformed)
	assert.Nil(suite.T(), sess)
	assert.False(suite.T(), suite.store.Current().Authenticated())
	assert.Empty(suite.T(), suite.persistedToken())
}

func (suite *SessionUsecaseTestSuite) TestLogout_Idempotent() {
	require.NoError(suite.T(), suite.store.Restore(context.Background()))

	token := mintToken(suite.T(), "USER", time.Now().Add(time.Hour))
	_, err := suite.store.Login(context.Background(), token)
	require.NoError(suite.T(), err)

	require.NoError(suite.T(), suite.store.Logout(context.Background()))
	afterFirst := suite.store.Current()

	require.NoError(suite.T(), suite.store.Logout(context.Background()))
	afterSecond := suite.store.Current()

	assert.False(suite.T(), afterFirst.Authenticated())
	assert.False(suite.T(), afterSecond.Authenticated())
	assert.Equal(suite.T(), afterFirst.Epoch, afterSecond.Epoch)
	assert.Empty(suite.T(), suite.persistedToken())
}

func (suite *SessionUsecaseTestSuite) TestEpochBumpsOnLoginAndLogout() {
	require.NoError(suite.T(), suite.store.Restore(context.Background()))
	start := suite.store.Current().Epoch

	token := mintToken(suite.T(), "USER", time.Now().Add(time.Hour))
	_, err := suite.store.Login(context.Background(), token)
	require.NoError(suite.T(), err)
	afterLogin := suite.store.Current().Epoch
	assert.Greater(suite.T(), afterLogin, start)

	require.NoError(suite.T(), suite.store.Logout(context.Background()))
	assert.Greater(suite.T(), suite.store.Current().Epoch, afterLogin)
}

func (suite *SessionUsecaseTestSuite) TestSessionChangedEventsPublished() {
	bus := eventbus.NewEventBus(nil)
	var events []string
	bus.Subscribe(eventbus.EventSessionChanged, func(ctx context.Context, event eventbus.Event) error {
		events = append(events, event.Type())
		return nil
	})

	store := usecase.NewSessionUsecase(
		persistence.NewMemoryTokenStore(),
		security.NewJWTClaimsDecoder(),
		bus,
		nil,
	)

	require.NoError(suite.T(), store.Restore(context.Background()))
	token := mintToken(suite.T(), "USER", time.Now().Add(time.Hour))
	_, err := store.Login(context.Background(), token)
	require.NoError(suite.T(), err)
	require.NoError(suite.T(), store.Logout(context.Background()))

	// restore + login + logout
	assert.Len(suite.T(), events, 3)
}

func (suite *SessionUsecaseTestSuite) TestCurrentReturnsCopy() {
	require.NoError(suite.T(), suite.store.Restore(context.Background()))
	token := mintToken(suite.T(), "USER", time.Now().Add(time.Hour))
	_, err := suite.store.Login(context.Background(), token)
	require.NoError(suite.T(), err)

	snap := suite.store.Current()
	snap.Session.Role = model.RoleAdmin

	assert.Equal(suite.T(), model.RoleUser, suite.store.Current().Session.Role)
}

func TestSessionUsecaseTestSuite(t *testing.T) {
	suite.Run(t, new(SessionUsecaseTestSuite))
}
