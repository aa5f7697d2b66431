package notification

import (
	"github.com/brokeradda/portal/internal/modules/notification/application"
	"github.com/brokeradda/portal/internal/modules/notification/domain"
	"github.com/brokeradda/portal/internal/modules/notification/infrastructure/websocket"
	notification_http "github.com/brokeradda/portal/internal/modules/notification/interfaces/http"
	"github.com/brokeradda/portal/internal/shared/clock"
	"github.com/brokeradda/portal/internal/shared/infrastructure/config"
	"github.com/brokeradda/portal/internal/shared/timer"
	"github.com/brokeradda/portal/internal/shared/utils"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type Module struct {
	store     *application.Store
	scheduler *application.Scheduler
	hub       *websocket.Hub
	handler   *notification_http.ToastHandler
}

// NewModule wires the toast store, its scheduler and the websocket hub.
// reg may be nil to skip metrics.
func NewModule(cfg config.NotificationConfig, c clock.Clock, reg prometheus.Registerer, v *utils.Validator, logger *zap.Logger) *Module {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("notification")

	var metrics *application.Metrics
	if reg != nil {
		metrics = application.NewMetrics(reg)
	}

	store := application.NewStore(cfg.ToastLimit, c, metrics)
	if cfg.RemoveDelay > 0 {
		store.SetRemoveDelay(cfg.RemoveDelay)
	}
	scheduler := application.NewScheduler(store, timer.NewRegistry(c), logger)

	layout := domain.LayoutOptions{}
	if cfg.Gutter > 0 {
		gutter := cfg.Gutter
		layout.Gutter = &gutter
	}

	hub := websocket.NewHub(store, layout, logger)
	hub.OnIdle(func(surface string) { scheduler.Release(surface) })
	go hub.Run()

	return &Module{
		store:     store,
		scheduler: scheduler,
		hub:       hub,
		handler:   notification_http.NewToastHandler(store, hub, v, layout, logger),
	}
}

func (m *Module) HTTPHandler() *notification_http.ToastHandler {
	return m.handler
}

func (m *Module) Store() *application.Store {
	return m.store
}

// Notifier returns the toast API bound to surface.
func (m *Module) Notifier(surface string) *application.Notifier {
	return application.NewNotifier(m.store, surface)
}

func (m *Module) Scheduler() *application.Scheduler {
	return m.scheduler
}

func (m *Module) Shutdown() {
	m.scheduler.Close()
	m.hub.Stop()
}
