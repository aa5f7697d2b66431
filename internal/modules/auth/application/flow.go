package application

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/brokeradda/portal/internal/modules/auth/domain"
	"github.com/brokeradda/portal/internal/modules/auth/infrastructure/jwt"
	notifApp "github.com/brokeradda/portal/internal/modules/notification/application"
	notifDomain "github.com/brokeradda/portal/internal/modules/notification/domain"
	"github.com/brokeradda/portal/internal/shared/timer"
	"go.uber.org/zap"
)

var codePattern = regexp.MustCompile(`^\d{6}$`)

const (
	msgInvalidCode = "Please enter a valid 6-digit OTP"
	msgVerifying   = "Verifying OTP..."
	msgVerified    = "OTP verified successfully"
	msgResent      = "OTP resent successfully"
)

// TokenInspector checks a session token before it is persisted.
type TokenInspector interface {
	Inspect(token string) (*jwt.Claims, error)
}

// View is the state a client renders for a flow.
type View struct {
	ID             string                    `json:"id"`
	Phone          string                    `json:"phone"`
	Cells          [domain.CodeLength]string `json:"cells"`
	Focus          int                       `json:"focus"`
	Phase          domain.Phase              `json:"phase"`
	ResendCooldown int                       `json:"resendCooldownSeconds"`
	CanResend      bool                      `json:"canResend"`
	Error          string                    `json:"error,omitempty"`
	Redirect       string                    `json:"redirect,omitempty"`
	Role           string                    `json:"role,omitempty"`
}

type flowDeps struct {
	backend   domain.OTPBackend
	sessions  domain.SessionStore
	inspector TokenInspector
	toasts    *notifApp.Store
	timers    *timer.Registry
	redirects domain.Redirects
	cooldown  int
	idle      time.Duration
	expire    func(*Flow)
	metrics   *Metrics
	logger    *zap.Logger
}

// Flow is one OTP verification attempt for a phone number. Toasts it
// raises go to the surface named after its owner.
type Flow struct {
	mu sync.Mutex

	id       string
	owner    string
	phone    string
	input    domain.CodeInput
	phase    domain.Phase
	cooldown int
	lastErr  string
	redirect string
	session  *domain.Session
	closed   bool

	deps     *flowDeps
	notifier *notifApp.Notifier
	done     func(*Flow)
}

func newFlow(id, owner, phone string, deps *flowDeps, done func(*Flow)) *Flow {
	f := &Flow{
		id:       id,
		owner:    owner,
		phone:    phone,
		phase:    domain.PhaseEnteringCode,
		deps:     deps,
		notifier: notifApp.NewNotifier(deps.toasts, owner),
		done:     done,
	}
	f.mu.Lock()
	f.startCooldownLocked()
	f.touchLocked()
	f.mu.Unlock()
	return f
}

func (f *Flow) ID() string    { return f.id }
func (f *Flow) Owner() string { return f.owner }

func (f *Flow) View() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.viewLocked()
}

func (f *Flow) viewLocked() View {
	v := View{
		ID:             f.id,
		Phone:          f.phone,
		Cells:          f.input.Cells,
		Focus:          f.input.Focus,
		Phase:          f.phase,
		ResendCooldown: f.cooldown,
		CanResend:      f.cooldown == 0 && f.phase != domain.PhaseSuccess && !f.closed,
		Error:          f.lastErr,
		Redirect:       f.redirect,
	}
	if f.session != nil {
		v.Role = f.session.Role
	}
	return v
}

// SetDigit writes one cell. Input is ignored unless the flow is waiting
// for a code. Filling the last empty cell submits the code.
func (f *Flow) SetDigit(ctx context.Context, index int, value string) (View, error) {
	return f.edit(ctx, func(in *domain.CodeInput) bool {
		return in.SetDigit(index, value)
	})
}

func (f *Flow) Backspace(ctx context.Context, index int) (View, error) {
	return f.edit(ctx, func(in *domain.CodeInput) bool {
		in.Backspace(index)
		return false
	})
}

// Paste spreads the digits of text over the cells and submits when they
// are all filled.
func (f *Flow) Paste(ctx context.Context, text string) (View, error) {
	return f.edit(ctx, func(in *domain.CodeInput) bool {
		return in.Paste(text) > 0
	})
}

func (f *Flow) edit(ctx context.Context, apply func(*domain.CodeInput) bool) (View, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return View{}, domain.ErrFlowClosed
	}
	f.touchLocked()
	if f.phase != domain.PhaseEnteringCode {
		v := f.viewLocked()
		f.mu.Unlock()
		return v, nil
	}
	changed := apply(&f.input)
	if !changed || !f.input.Complete() {
		v := f.viewLocked()
		f.mu.Unlock()
		return v, nil
	}
	code := f.input.Code()
	f.mu.Unlock()
	return f.Submit(ctx, code)
}

// Submit verifies code with the backend. An empty code submits the cells.
// Only one submission runs at a time; the flow lock is not held during
// the upstream call.
func (f *Flow) Submit(ctx context.Context, code string) (View, error) {
	f.mu.Lock()
	if err := f.submittableLocked(); err != nil {
		f.mu.Unlock()
		return View{}, err
	}
	f.touchLocked()
	if code == "" {
		code = f.input.Code()
	}
	if !codePattern.MatchString(code) {
		err := &domain.ValidationError{Message: msgInvalidCode}
		f.lastErr = err.Message
		v := f.viewLocked()
		f.mu.Unlock()

		f.notifier.Error(err.Message, notifDomain.Options{})
		f.deps.metrics.verified(err)
		return v, err
	}
	f.phase = domain.PhaseSubmitting
	f.lastErr = ""
	f.mu.Unlock()

	session, err := notifApp.Promise(ctx, f.notifier, f.verify(code), notifApp.PromiseMessages[domain.Session]{
		Loading: msgVerifying,
		Success: msgVerified,
		ErrorOf: domain.UserMessage,
	}, notifDomain.Options{})
	f.deps.metrics.verified(err)

	f.mu.Lock()
	if err != nil {
		f.phase = domain.PhaseEnteringCode
		f.lastErr = domain.UserMessage(err)
		v := f.viewLocked()
		f.mu.Unlock()
		f.deps.logger.Info("otp verification failed",
			zap.String("flow_id", f.id),
			zap.String("outcome", outcome(err)),
			zap.Error(err),
		)
		return v, err
	}
	f.phase = domain.PhaseSuccess
	f.session = &session
	f.redirect = f.deps.redirects.For(session.Role)
	f.cooldown = 0
	f.deps.timers.Cancel(f.cooldownKey())
	v := f.viewLocked()
	f.mu.Unlock()

	f.deps.logger.Info("otp verified",
		zap.String("flow_id", f.id),
		zap.String("role", session.Role),
		zap.String("redirect", v.Redirect),
	)
	if f.done != nil {
		f.done(f)
	}
	return v, nil
}

func (f *Flow) submittableLocked() error {
	switch {
	case f.closed:
		return domain.ErrFlowClosed
	case f.phase == domain.PhaseSubmitting:
		return domain.ErrSubmissionInProgress
	case f.phase == domain.PhaseSuccess:
		return domain.ErrAlreadyVerified
	}
	return nil
}

// verify checks the code upstream, inspects the returned token and
// persists the session. Nothing is persisted unless the token passes.
func (f *Flow) verify(code string) func(context.Context) (domain.Session, error) {
	return func(ctx context.Context) (domain.Session, error) {
		result, err := f.deps.backend.VerifyOTP(ctx, f.phone, code)
		if err != nil {
			return domain.Session{}, err
		}
		if _, err := f.deps.inspector.Inspect(result.Token); err != nil {
			return domain.Session{}, err
		}

		session := domain.Session{
			Token:  result.Token,
			Role:   result.Role,
			UserID: result.UserID,
			Phone:  result.Phone,
		}
		if session.Phone == "" {
			session.Phone = f.phone
		}
		if err := f.deps.sessions.Save(ctx, f.owner, session); err != nil {
			return domain.Session{}, fmt.Errorf("failed to persist session: %w", err)
		}
		return session, nil
	}
}

// Resend asks the backend for a new code. It is a no-op returning false
// while the cooldown runs. The cooldown restarts before the request is
// sent and is kept when the request fails.
func (f *Flow) Resend(ctx context.Context) (bool, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return false, domain.ErrFlowClosed
	}
	f.touchLocked()
	if f.cooldown > 0 || f.phase == domain.PhaseSuccess {
		f.mu.Unlock()
		f.deps.metrics.resent("skipped")
		return false, nil
	}
	f.startCooldownLocked()
	f.mu.Unlock()

	message, err := f.deps.backend.ResendOTP(ctx, f.phone)
	if err != nil {
		msg := domain.UserMessage(err)
		f.mu.Lock()
		f.lastErr = msg
		f.mu.Unlock()

		f.notifier.Error(msg, notifDomain.Options{})
		f.deps.metrics.resent("failure")
		f.deps.logger.Warn("otp resend failed", zap.String("flow_id", f.id), zap.Error(err))
		return true, err
	}

	if message == "" {
		message = msgResent
	}
	f.mu.Lock()
	f.lastErr = ""
	f.mu.Unlock()

	f.notifier.Success(message, notifDomain.Options{})
	f.deps.metrics.resent("success")
	return true, nil
}

func (f *Flow) cooldownKey() string {
	return "cooldown/" + f.id
}

func (f *Flow) startCooldownLocked() {
	f.cooldown = f.deps.cooldown
	if f.cooldown > 0 {
		f.deps.timers.Schedule(f.cooldownKey(), time.Second, f.tick)
	}
}

func (f *Flow) tick() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || f.cooldown == 0 {
		return
	}
	f.cooldown--
	if f.cooldown > 0 {
		f.deps.timers.Schedule(f.cooldownKey(), time.Second, f.tick)
	}
}

func (f *Flow) expireKey() string {
	return "expire/" + f.id
}

// touch restarts the idle timeout of an open flow.
func (f *Flow) touch() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.touchLocked()
	}
}

func (f *Flow) touchLocked() {
	if f.deps.idle > 0 && f.deps.expire != nil {
		f.deps.timers.Schedule(f.expireKey(), f.deps.idle, func() { f.deps.expire(f) })
	}
}

// close stops the cooldown and the idle timeout; later calls fail with
// ErrFlowClosed.
func (f *Flow) close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	f.deps.timers.Cancel(f.cooldownKey())
	f.deps.timers.Cancel(f.expireKey())
}
