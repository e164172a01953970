package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"reservation-client/internal/session/domain/model"
	"reservation-client/internal/session/domain/repository"
	"reservation-client/internal/shared/eventbus"
	"reservation-client/internal/shared/logger"
)

// Snapshot is an immutable view of the session state at one instant. Consumers
// must treat Loading=true as "decision deferred", not as "unauthenticated".
type Snapshot struct {
	Session *model.Session
	Loading bool
	Epoch   uint64
}

// Authenticated reports whether the snapshot carries a populated session.
func (s Snapshot) Authenticated() bool {
	return s.Session != nil
}

// SessionUsecaseInterface is the single source of truth for "am I logged in,
// as whom, until when". All persisted-state access goes through it; view code
// never reads storage directly.
type SessionUsecaseInterface interface {
	Restore(ctx context.Context) error
	Login(ctx context.Context, token string) (*model.Session, error)
	Logout(ctx context.Context) error
	Current() Snapshot
}

// SessionUsecase implements the session lifecycle over a TokenStore and a
// ClaimsDecoder. Each operation runs to completion under one mutex, so
// consumers observe transitions atomically.
type SessionUsecase struct {
	mu      sync.Mutex
	tokens  repository.TokenStore
	decoder repository.ClaimsDecoder
	bus     eventbus.EventBusInterface
	log     logger.Logger
	now     func() time.Time

	session  *model.Session
	loading  bool
	restored bool
	epoch    uint64
}

// NewSessionUsecase creates a session store in the pre-restore state:
// loading=true until Restore has run once.
func NewSessionUsecase(
	tokens repository.TokenStore,
	decoder repository.ClaimsDecoder,
	bus eventbus.EventBusInterface,
	log logger.Logger,
) *SessionUsecase {
	if log == nil {
		log = logger.NewLogger()
	}
	return &SessionUsecase{
		tokens:  tokens,
		decoder: decoder,
		bus:     bus,
		log:     log.WithComponent("session"),
		loading: true,
		now:     time.Now,
	}
}

// Restore rebuilds the session from persisted storage. Invoked once at process
// start; later calls are no-ops. Every failure path (missing, malformed,
// expired) resolves to an absent session, and the malformed and expired paths
// purge persisted state as a side effect. The loading flag settles to false
// exactly once, whatever the outcome.
func (uc *SessionUsecase) Restore(ctx context.Context) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if uc.restored {
		return nil
	}
	defer func() {
		uc.loading = false
		uc.restored = true
		uc.publishLocked(ctx)
	}()

	token, err := uc.tokens.Load(ctx)
	if err != nil {
		uc.log.Warnf("Could not read persisted token, starting unauthenticated: %v", err)
		return nil
	}
	if token == "" {
		return nil
	}

	sess, err := uc.deriveSession(token)
	if err != nil {
		uc.log.Infof("Persisted token rejected (%v), purging", err)
		uc.purgeLocked(ctx)
		return nil
	}

	uc.session = sess
	uc.log.Infof("Session restored, role=%s", sess.Role)
	return nil
}

// Login accepts a freshly issued token, persists it, and makes the new session
// visible synchronously. A token that fails to decode (or is already expired)
// never yields a half-populated session: state degrades to absent, persisted
// storage is purged, and the error is surfaced to the caller.
func (uc *SessionUsecase) Login(ctx context.Context, token string) (*model.Session, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	sess, err := uc.deriveSession(token)
	if err != nil {
		uc.purgeLocked(ctx)
		uc.session = nil
		uc.loading = false
		uc.epoch++
		uc.publishLocked(ctx)
		return nil, fmt.Errorf("login with undecodable token: %w", err)
	}

	if err := uc.tokens.Save(ctx, token); err != nil {
		// Session state is untouched: a persistence failure must not leave a
		// session that would vanish on the next restart.
		return nil, fmt.Errorf("persist token: %w", err)
	}

	uc.session = sess
	uc.loading = false
	uc.epoch++
	uc.publishLocked(ctx)
	uc.log.Infof("Login succeeded, role=%s", sess.Role)

	out := *sess
	return &out, nil
}

// Logout purges persisted state and resets the in-memory session to absent.
// Calling it when already logged out is a no-op.
func (uc *SessionUsecase) Logout(ctx context.Context) error {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	uc.purgeLocked(ctx)
	if uc.session == nil {
		return nil
	}

	uc.session = nil
	uc.loading = false
	uc.epoch++
	uc.publishLocked(ctx)
	uc.log.Info("Logged out")
	return nil
}

// Current returns a snapshot of the session state. The contained session is a
// copy; callers cannot mutate store state through it.
func (uc *SessionUsecase) Current() Snapshot {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	snap := Snapshot{Loading: uc.loading, Epoch: uc.epoch}
	if uc.session != nil {
		sess := *uc.session
		snap.Session = &sess
	}
	return snap
}

// deriveSession decodes a token into a fully populated session, enforcing the
// role and expiry invariants.
func (uc *SessionUsecase) deriveSession(token string) (*model.Session, error) {
	claims, err := uc.decoder.Decode(token)
	if err != nil {
		return nil, err
	}

	role, err := model.ParseRole(claims.Role)
	if err != nil {
		return nil, err
	}

	sess := &model.Session{
		Token:     token,
		Role:      role,
		ExpiresAt: claims.ExpiresAt.Time,
		UserID:    claims.UserID,
		Email:     claims.Email,
	}
	if sess.IsExpired(uc.now()) {
		return nil, model.ErrTokenExpired
	}
	return sess, nil
}

// purgeLocked clears persisted storage, logging rather than failing: a purge
// that cannot reach storage must still leave the in-memory state safe.
func (uc *SessionUsecase) purgeLocked(ctx context.Context) {
	if err := uc.tokens.Clear(ctx); err != nil && !errors.Is(err, context.Canceled) {
		uc.log.Errorf("Failed to clear persisted token: %v", err)
	}
}

// publishLocked notifies subscribers that session state may have changed.
// Dispatch is synchronous and runs under the store mutex: handlers must read
// the event payload, never call back into the store.
func (uc *SessionUsecase) publishLocked(ctx context.Context) {
	if uc.bus == nil {
		return
	}
	data := map[string]interface{}{
		"authenticated": uc.session != nil,
		"loading":       uc.loading,
		"epoch":         uc.epoch,
	}
	if uc.session != nil {
		data["role"] = string(uc.session.Role)
	}
	_ = uc.bus.Publish(ctx, eventbus.NewBasicEvent(eventbus.EventSessionChanged, data, "session"))
}
