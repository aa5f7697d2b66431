package domain

import (
	"context"
	"strings"
)

// Phase is the state of an OTP verification flow.
type Phase string

const (
	PhaseEnteringCode Phase = "ENTERING_CODE"
	PhaseSubmitting   Phase = "SUBMITTING"
	PhaseSuccess      Phase = "SUCCESS"
)

const (
	RoleBroker   = "broker"
	RoleCustomer = "customer"
)

// Storage keys of a persisted session.
const (
	KeyToken  = "token"
	KeyRole   = "role"
	KeyUserID = "userId"
	KeyPhone  = "phone"
)

// SessionKeys lists the storage keys in write order.
var SessionKeys = []string{KeyToken, KeyRole, KeyUserID, KeyPhone}

// Session is the result of a successful verification.
type Session struct {
	Token  string `json:"token"`
	Role   string `json:"role"`
	UserID string `json:"userId"`
	Phone  string `json:"phone"`
}

// Values maps the session to its storage keys.
func (s Session) Values() map[string]string {
	return map[string]string{
		KeyToken:  s.Token,
		KeyRole:   s.Role,
		KeyUserID: s.UserID,
		KeyPhone:  s.Phone,
	}
}

// SessionFromValues is the inverse of Values.
func SessionFromValues(values map[string]string) Session {
	return Session{
		Token:  values[KeyToken],
		Role:   values[KeyRole],
		UserID: values[KeyUserID],
		Phone:  values[KeyPhone],
	}
}

// VerifyResult is what the backend returned for an accepted code.
type VerifyResult struct {
	Token   string
	Role    string
	UserID  string
	Phone   string
	Message string
}

// Redirects are the landing pages after a successful login.
type Redirects struct {
	BrokerHome      string
	CustomerProfile string
}

// For returns the landing page of role; unknown roles go to the customer profile.
func (r Redirects) For(role string) string {
	if strings.EqualFold(strings.TrimSpace(role), RoleBroker) {
		return r.BrokerHome
	}
	return r.CustomerProfile
}

// SessionStore persists verified sessions per client. Save writes every
// key or none.
type SessionStore interface {
	Save(ctx context.Context, clientID string, s Session) error
	Load(ctx context.Context, clientID string) (Session, error)
	Clear(ctx context.Context, clientID string) error
}

// OTPBackend is the upstream API that sends and checks codes.
type OTPBackend interface {
	VerifyOTP(ctx context.Context, phone, otp string) (VerifyResult, error)
	ResendOTP(ctx context.Context, phone string) (string, error)
}
