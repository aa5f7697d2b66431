package auth

import (
	"fmt"
	"strings"

	"github.com/brokeradda/portal/internal/modules/auth/application"
	"github.com/brokeradda/portal/internal/modules/auth/domain"
	"github.com/brokeradda/portal/internal/modules/auth/infrastructure/backend"
	"github.com/brokeradda/portal/internal/modules/auth/infrastructure/jwt"
	"github.com/brokeradda/portal/internal/modules/auth/infrastructure/persistence/memory"
	"github.com/brokeradda/portal/internal/modules/auth/infrastructure/persistence/postgres"
	redisstore "github.com/brokeradda/portal/internal/modules/auth/infrastructure/persistence/redis"
	auth_http "github.com/brokeradda/portal/internal/modules/auth/interfaces/http"
	notifApp "github.com/brokeradda/portal/internal/modules/notification/application"
	"github.com/brokeradda/portal/internal/shared/clock"
	"github.com/brokeradda/portal/internal/shared/infrastructure/config"
	"github.com/brokeradda/portal/internal/shared/timer"
	"github.com/brokeradda/portal/internal/shared/utils"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Storage drivers accepted by NewSessionStore.
const (
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Module represents the Auth module
type Module struct {
	manager *application.Manager
	timers  *timer.Registry
	handler *auth_http.AuthHandler
}

// Dependencies are the collaborators the auth module does not build itself.
type Dependencies struct {
	Backend  domain.OTPBackend
	Sessions domain.SessionStore
	Toasts   *notifApp.Store
	Clock    clock.Clock
	Registry prometheus.Registerer
	Validate *utils.Validator
	Logger   *zap.Logger
}

// NewModule wires the OTP flow manager and its HTTP handler. A nil
// Backend talks to cfg.Backend; a nil Registry skips metrics.
func NewModule(cfg *config.Config, deps Dependencies) *Module {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("auth")

	otpBackend := deps.Backend
	if otpBackend == nil {
		otpBackend = backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout)
	}
	c := deps.Clock
	if c == nil {
		c = clock.Real()
	}

	var metrics *application.Metrics
	if deps.Registry != nil {
		metrics = application.NewMetrics(deps.Registry)
	}

	timers := timer.NewRegistry(c)
	manager := application.NewManager(
		otpBackend,
		deps.Sessions,
		jwt.NewInspector(c.Now),
		deps.Toasts,
		timers,
		application.ManagerConfig{
			ResendCooldown: cfg.OTP.ResendCooldown,
			Redirects: domain.Redirects{
				BrokerHome:      cfg.OTP.BrokerHome,
				CustomerProfile: cfg.OTP.CustomerProfile,
			},
		},
		metrics,
		logger,
	)

	return &Module{
		manager: manager,
		timers:  timers,
		handler: auth_http.NewAuthHandler(manager, deps.Validate, logger),
	}
}

// NewSessionStore builds the session storage selected by cfg.Driver. db
// and rdb are only required by the driver that uses them.
func NewSessionStore(cfg config.StorageConfig, db *sqlx.DB, rdb *redis.Client) (domain.SessionStore, error) {
	switch strings.ToLower(cfg.Driver) {
	case DriverRedis:
		if rdb == nil {
			return nil, fmt.Errorf("redis session storage requires a redis client")
		}
		return redisstore.NewSessionStore(rdb, cfg.SessionTTL), nil
	case DriverPostgres:
		if db == nil {
			return nil, fmt.Errorf("postgres session storage requires a database")
		}
		return postgres.NewSessionStore(db, cfg.SessionTTL), nil
	case DriverMemory, "":
		return memory.NewSessionStore(), nil
	default:
		return nil, fmt.Errorf("unknown session storage driver %q", cfg.Driver)
	}
}

// Manager returns the flow manager for use by other modules
func (m *Module) Manager() *application.Manager {
	return m.manager
}

// HTTPHandler returns the HTTP handler for the auth module
func (m *Module) HTTPHandler() *auth_http.AuthHandler {
	return m.handler
}

// Shutdown ends every open flow and stops pending cooldowns.
func (m *Module) Shutdown() {
	m.manager.Close()
	m.timers.CancelAll()
}
