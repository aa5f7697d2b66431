package jwt

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/brokeradda/portal/internal/modules/auth/domain"
	"github.com/golang-jwt/jwt/v5"
)

// Claims are the fields read from an upstream session token.
type Claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Inspector checks that a token is well formed and not expired. The
// signature is not verified: the backend remains the authority on token
// validity, this only rejects tokens that are obviously unusable.
type Inspector struct {
	now    func() time.Time
	parser *jwt.Parser
}

// NewInspector returns an Inspector reading the time from now. A nil now
// uses time.Now.
func NewInspector(now func() time.Time) *Inspector {
	if now == nil {
		now = time.Now
	}
	return &Inspector{now: now, parser: jwt.NewParser()}
}

// Inspect returns the claims of token or a *domain.TokenIntegrityError.
// Only the payload segment is decoded; the header is not read. Tokens
// without an exp claim are accepted.
func (i *Inspector) Inspect(token string) (*Claims, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, &domain.TokenIntegrityError{Reason: "token must have three parts"}
	}
	for _, part := range parts {
		if part == "" {
			return nil, &domain.TokenIntegrityError{Reason: "token has an empty part"}
		}
	}

	payload, err := i.parser.DecodeSegment(parts[1])
	if err != nil {
		return nil, &domain.TokenIntegrityError{Reason: "token cannot be decoded", Err: err}
	}
	claims := &Claims{}
	if err := json.Unmarshal(payload, claims); err != nil {
		return nil, &domain.TokenIntegrityError{Reason: "token payload is not valid", Err: err}
	}

	if claims.ExpiresAt != nil && claims.ExpiresAt.Time.Before(i.now()) {
		return nil, &domain.TokenIntegrityError{Reason: "token expired"}
	}
	return claims, nil
}
