package di

import (
	"fmt"
	"os"
	"sync"

	"reservation-client/internal/app"
	reservationclient "reservation-client/internal/reservation/adapter/client"
	reservationuc "reservation-client/internal/reservation/usecase"
	authclient "reservation-client/internal/session/adapter/client"
	"reservation-client/internal/session/adapter/persistence"
	"reservation-client/internal/session/adapter/security"
	"reservation-client/internal/session/config"
	"reservation-client/internal/session/domain/repository"
	sessionuc "reservation-client/internal/session/usecase"
	"reservation-client/internal/shared/eventbus"
	"reservation-client/internal/shared/logger"

	"go.uber.org/zap"
)

// Container wires the client's modules together with proper lifecycle
// management.
type Container struct {
	mu sync.Mutex

	Config *config.Config
	Logger logger.Logger
	Bus    *eventbus.EventBus

	TokenStore   repository.TokenStore
	Sessions     *sessionuc.SessionUsecase
	AuthClient   *authclient.AuthClient
	Reservations *reservationuc.ReservationUsecase
	App          *app.App
	Hub          *app.UpdateHub

	zapLogger  *zap.Logger
	redisStore *persistence.RedisTokenStore
}

// NewContainer creates an empty DI container.
func NewContainer(log logger.Logger) *Container {
	if log == nil {
		log = logger.NewLogger()
	}
	return &Container{Logger: log}
}

// InitializeSession builds the token store, claims decoder, auth client, and
// session store.
func (c *Container) InitializeSession(cfg *config.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.Config = cfg
	c.Bus = eventbus.NewEventBus(c.Logger)

	if cfg.UseRedis() {
		store := persistence.NewRedisTokenStore(persistence.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Key:      cfg.RedisKey,
		})
		c.redisStore = store
		c.TokenStore = store
		c.Logger.Infof("Using redis token store at %s", cfg.RedisAddr)
	} else {
		c.TokenStore = persistence.NewFileTokenStore(cfg.TokenFile)
		c.Logger.Infof("Using file token store at %s", cfg.TokenFile)
	}

	decoder := security.NewJWTClaimsDecoder()
	c.Sessions = sessionuc.NewSessionUsecase(c.TokenStore, decoder, c.Bus, c.Logger)
	c.AuthClient = authclient.NewAuthClient(cfg.APIBaseURL, cfg.HTTPTimeout, c.Logger)
	return nil
}

// InitializeReservations builds the reservation API client and dashboard
// usecase. The session module must be initialized first.
func (c *Container) InitializeReservations() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Sessions == nil {
		return fmt.Errorf("session module must be initialized before reservations")
	}

	zapLogger, err := newZapLogger()
	if err != nil {
		return fmt.Errorf("create zap logger: %w", err)
	}
	c.zapLogger = zapLogger

	apiClient := reservationclient.NewReservationClient(c.Config.APIBaseURL, c.Config.HTTPTimeout, zapLogger)
	c.Reservations = reservationuc.NewReservationUsecase(apiClient, c.Sessions, c.Bus, zapLogger)
	return nil
}

// InitializeApp builds the HTTP surface. Session and reservation modules must
// be initialized first.
func (c *Container) InitializeApp() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.Sessions == nil || c.Reservations == nil {
		return fmt.Errorf("session and reservation modules must be initialized before the app")
	}

	c.Hub = app.NewUpdateHub(c.Bus, c.Logger)
	c.App = app.New(c.Sessions, c.AuthClient, c.Reservations, c.Hub, c.Logger)
	return nil
}

// Close releases held resources.
func (c *Container) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var firstErr error
	if c.redisStore != nil {
		if err := c.redisStore.Close(); err != nil {
			firstErr = err
		}
	}
	if c.zapLogger != nil {
		_ = c.zapLogger.Sync()
	}
	return firstErr
}

func newZapLogger() (*zap.Logger, error) {
	env := os.Getenv("ENVIRONMENT")
	if env == "production" || env == "prod" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
