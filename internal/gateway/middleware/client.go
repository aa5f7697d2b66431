package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/google/uuid"
)

type contextKey string

const ContextKeyClientID contextKey = "client_id"

const (
	ClientIDHeader = "X-Client-ID"
	ClientIDCookie = "client_id"
)

var clientIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ClientIdentity names the browser a request comes from. The id keys the
// persisted session and the client's toast surface.
type ClientIdentity struct {
	maxAge time.Duration
	secure bool
}

// NewClientIdentity returns the middleware. maxAge is the lifetime of a
// generated client_id cookie.
func NewClientIdentity(maxAge time.Duration, secure bool) *ClientIdentity {
	return &ClientIdentity{maxAge: maxAge, secure: secure}
}

// Identify reads the client id from the X-Client-ID header or the
// client_id cookie. Requests carrying neither, or a malformed one, get a
// new id set as a cookie. The id is echoed in the X-Client-ID response
// header.
func (m *ClientIdentity) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(ClientIDHeader)
		if !clientIDPattern.MatchString(id) {
			id = ""
			if c, err := r.Cookie(ClientIDCookie); err == nil && clientIDPattern.MatchString(c.Value) {
				id = c.Value
			}
		}

		if id == "" {
			id = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     ClientIDCookie,
				Value:    id,
				Path:     "/",
				MaxAge:   int(m.maxAge / time.Second),
				HttpOnly: true,
				Secure:   m.secure,
				SameSite: http.SameSiteLaxMode,
			})
		}
		w.Header().Set(ClientIDHeader, id)

		ctx := context.WithValue(r.Context(), ContextKeyClientID, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIDFromContext returns the id set by Identify, or "".
func ClientIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(ContextKeyClientID).(string)
	return id
}

// WithClientID returns ctx carrying id, as Identify would.
func WithClientID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextKeyClientID, id)
}
