package application

import (
	"context"
	"sync"
	"time"

	"github.com/brokeradda/portal/internal/modules/auth/domain"
	notifApp "github.com/brokeradda/portal/internal/modules/notification/application"
	"github.com/brokeradda/portal/internal/shared/timer"
	"github.com/brokeradda/portal/internal/shared/utils"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Defaults for the zero ManagerConfig fields.
const (
	DefaultResendCooldown = 60 * time.Second
	DefaultIdleTimeout    = 15 * time.Minute
	DefaultMaxFlows       = 5
)

type ManagerConfig struct {
	ResendCooldown time.Duration
	// IdleTimeout ends a flow nobody has touched for that long.
	IdleTimeout time.Duration
	// MaxFlowsPerOwner bounds the open flows of one client; starting one
	// more ends the oldest.
	MaxFlowsPerOwner int
	Redirects        domain.Redirects
}

// Manager owns the open verification flows. A flow is only visible to
// the client that started it.
type Manager struct {
	mu       sync.Mutex
	flows    map[string]*Flow
	byOwner  map[string][]*Flow
	maxFlows int
	deps     *flowDeps
}

func NewManager(
	backend domain.OTPBackend,
	sessions domain.SessionStore,
	inspector TokenInspector,
	toasts *notifApp.Store,
	timers *timer.Registry,
	cfg ManagerConfig,
	metrics *Metrics,
	logger *zap.Logger,
) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	cooldown := cfg.ResendCooldown
	if cooldown <= 0 {
		cooldown = DefaultResendCooldown
	}
	idle := cfg.IdleTimeout
	if idle <= 0 {
		idle = DefaultIdleTimeout
	}
	maxFlows := cfg.MaxFlowsPerOwner
	if maxFlows <= 0 {
		maxFlows = DefaultMaxFlows
	}
	m := &Manager{
		flows:    make(map[string]*Flow),
		byOwner:  make(map[string][]*Flow),
		maxFlows: maxFlows,
		deps: &flowDeps{
			backend:   backend,
			sessions:  sessions,
			inspector: inspector,
			toasts:    toasts,
			timers:    timers,
			redirects: cfg.Redirects,
			cooldown:  int(cooldown / time.Second),
			idle:      idle,
			metrics:   metrics,
			logger:    logger,
		},
	}
	m.deps.expire = m.expire
	return m
}

// Start opens a flow for phone on behalf of owner. The code is assumed
// to have just been sent, so the resend cooldown starts immediately.
func (m *Manager) Start(owner, phone string) (*Flow, error) {
	phone = utils.NormalizePhone(phone)
	if !utils.IsValidPhone(phone) {
		return nil, domain.ErrInvalidPhone
	}

	f := newFlow(uuid.NewString(), owner, phone, m.deps, func(f *Flow) { m.release(f) })

	m.mu.Lock()
	var evicted []*Flow
	for len(m.byOwner[owner]) >= m.maxFlows {
		oldest := m.byOwner[owner][0]
		m.removeLocked(oldest)
		evicted = append(evicted, oldest)
	}
	m.flows[f.id] = f
	m.byOwner[owner] = append(m.byOwner[owner], f)
	m.mu.Unlock()

	for _, old := range evicted {
		old.close()
		m.deps.metrics.flowClosed()
		m.deps.logger.Debug("otp flow evicted", zap.String("flow_id", old.id), zap.String("owner", owner))
	}
	m.deps.metrics.flowOpened()
	m.deps.logger.Debug("otp flow started", zap.String("flow_id", f.id), zap.String("owner", owner))
	return f, nil
}

// Get returns the flow id of owner and restarts its idle timeout.
func (m *Manager) Get(owner, id string) (*Flow, error) {
	m.mu.Lock()
	f, ok := m.flows[id]
	m.mu.Unlock()
	if !ok || f.owner != owner {
		return nil, domain.ErrFlowNotFound
	}
	f.touch()
	return f, nil
}

// End discards a flow and its timers.
func (m *Manager) End(owner, id string) error {
	m.mu.Lock()
	f, ok := m.flows[id]
	if !ok || f.owner != owner {
		m.mu.Unlock()
		return domain.ErrFlowNotFound
	}
	m.removeLocked(f)
	m.mu.Unlock()

	f.close()
	m.deps.metrics.flowClosed()
	return nil
}

// Len reports the number of open flows.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.flows)
}

// Close ends every flow.
func (m *Manager) Close() {
	m.mu.Lock()
	flows := m.flows
	m.flows = make(map[string]*Flow)
	m.byOwner = make(map[string][]*Flow)
	m.mu.Unlock()

	for _, f := range flows {
		f.close()
		m.deps.metrics.flowClosed()
	}
}

// Session returns the session persisted for owner.
func (m *Manager) Session(ctx context.Context, owner string) (domain.Session, error) {
	return m.deps.sessions.Load(ctx, owner)
}

// Logout clears the session persisted for owner.
func (m *Manager) Logout(ctx context.Context, owner string) error {
	return m.deps.sessions.Clear(ctx, owner)
}

// Redirect returns the landing page for role.
func (m *Manager) Redirect(role string) string {
	return m.deps.redirects.For(role)
}

// release drops a verified flow. Callers still holding it can read its
// final view. It reports whether f was still open.
func (m *Manager) release(f *Flow) bool {
	m.mu.Lock()
	current, ok := m.flows[f.id]
	open := ok && current == f
	if open {
		m.removeLocked(f)
	}
	m.mu.Unlock()

	if open {
		f.close()
		m.deps.metrics.flowClosed()
	}
	return open
}

// expire ends a flow whose idle timeout ran out.
func (m *Manager) expire(f *Flow) {
	if m.release(f) {
		m.deps.logger.Debug("otp flow expired", zap.String("flow_id", f.id), zap.String("owner", f.owner))
	}
}

func (m *Manager) removeLocked(f *Flow) {
	delete(m.flows, f.id)
	owned := m.byOwner[f.owner]
	for i, o := range owned {
		if o == f {
			owned = append(owned[:i:i], owned[i+1:]...)
			break
		}
	}
	if len(owned) == 0 {
		delete(m.byOwner, f.owner)
	} else {
		m.byOwner[f.owner] = owned
	}
}
