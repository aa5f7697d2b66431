package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/brokeradda/portal/internal/modules/auth/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func upstream(t *testing.T, status int, reply string, seen *map[string]string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			body := map[string]string{}
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			body["path"] = r.URL.Path
			body["content-type"] = r.Header.Get("Content-Type")
			*seen = body
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(reply))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestVerifyOTP_TopLevelShape(t *testing.T) {
	var seen map[string]string
	srv := upstream(t, http.StatusOK, `{"success":true,"token":"a.b.c","role":"broker","userId":"u1","phone":"9876543210"}`, &seen)

	res, err := NewClient(srv.URL+"/api/", time.Second).VerifyOTP(context.Background(), "9876543210", "123456")
	require.NoError(t, err)
	assert.Equal(t, domain.VerifyResult{Token: "a.b.c", Role: "broker", UserID: "u1", Phone: "9876543210"}, res)
	assert.Equal(t, "/api/auth/verify-otp", seen["path"])
	assert.Equal(t, "9876543210", seen["phone"])
	assert.Equal(t, "123456", seen["otp"])
	assert.Equal(t, "application/json", seen["content-type"])
}

func TestVerifyOTP_NestedShapes(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		want  domain.VerifyResult
	}{
		{
			name:  "data",
			reply: `{"data":{"token":"t.o.k","role":"customer","userId":"u2","phone":"1"}}`,
			want:  domain.VerifyResult{Token: "t.o.k", Role: "customer", UserID: "u2", Phone: "1"},
		},
		{
			name:  "data user",
			reply: `{"data":{"token":"t.o.k","user":{"_id":"mongo-id","role":"broker","phone":"2"}}}`,
			want:  domain.VerifyResult{Token: "t.o.k", Role: "broker", UserID: "mongo-id", Phone: "2"},
		},
		{
			name:  "user",
			reply: `{"token":"t.o.k","user":{"id":42,"role":"broker"},"message":"Welcome"}`,
			want:  domain.VerifyResult{Token: "t.o.k", Role: "broker", UserID: "42", Message: "Welcome"},
		},
		{
			name:  "data wins over top level",
			reply: `{"role":"customer","data":{"token":"t.o.k","role":"broker"}}`,
			want:  domain.VerifyResult{Token: "t.o.k", Role: "broker"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := upstream(t, http.StatusOK, tt.reply, nil)
			res, err := NewClient(srv.URL, 0).VerifyOTP(context.Background(), "p", "123456")
			require.NoError(t, err)
			assert.Equal(t, tt.want, res)
		})
	}
}

func TestVerifyOTP_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		reply   string
		message string
	}{
		{"success false", http.StatusOK, `{"success":false,"message":"Invalid OTP"}`, "Invalid OTP"},
		{"non 2xx with message", http.StatusBadRequest, `{"message":"OTP expired"}`, "OTP expired"},
		{"non 2xx without body", http.StatusInternalServerError, ``, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := upstream(t, tt.status, tt.reply, nil)
			_, err := NewClient(srv.URL, time.Second).VerifyOTP(context.Background(), "p", "123456")

			require.ErrorIs(t, err, domain.ErrServerRejected)
			var rejection *domain.ServerRejection
			require.ErrorAs(t, err, &rejection)
			assert.Equal(t, tt.status, rejection.Status)
			assert.Equal(t, tt.message, rejection.Message)
		})
	}
}

func TestVerifyOTP_TransportErrors(t *testing.T) {
	srv := upstream(t, http.StatusOK, `not json`, nil)
	_, err := NewClient(srv.URL, time.Second).VerifyOTP(context.Background(), "p", "123456")
	assert.ErrorIs(t, err, domain.ErrTransport)

	closed := httptest.NewServer(http.NotFoundHandler())
	url := closed.URL
	closed.Close()
	_, err = NewClient(url, time.Second).VerifyOTP(context.Background(), "p", "123456")
	assert.ErrorIs(t, err, domain.ErrTransport)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewClient(srv.URL, time.Second).VerifyOTP(ctx, "p", "123456")
	assert.ErrorIs(t, err, domain.ErrTransport)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestResendOTP(t *testing.T) {
	var seen map[string]string
	srv := upstream(t, http.StatusOK, `{"message":"OTP sent"}`, &seen)

	msg, err := NewClient(srv.URL, time.Second).ResendOTP(context.Background(), "9876543210")
	require.NoError(t, err)
	assert.Equal(t, "OTP sent", msg)
	assert.Equal(t, "/auth/resend-otp", seen["path"])
	assert.Equal(t, "9876543210", seen["phone"])

	failing := upstream(t, http.StatusTooManyRequests, `{"message":"Too many requests"}`, nil)
	_, err = NewClient(failing.URL, time.Second).ResendOTP(context.Background(), "9876543210")
	assert.ErrorIs(t, err, domain.ErrServerRejected)
	assert.Equal(t, "Too many requests", domain.UserMessage(err))
}
