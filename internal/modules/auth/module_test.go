package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/brokeradda/portal/internal/modules/auth"
	"github.com/brokeradda/portal/internal/modules/auth/domain"
	"github.com/brokeradda/portal/internal/modules/notification"
	notifDomain "github.com/brokeradda/portal/internal/modules/notification/domain"
	"github.com/brokeradda/portal/internal/shared/clock"
	"github.com/brokeradda/portal/internal/shared/infrastructure/config"
	gojwt "github.com/golang-jwt/jwt/v5"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testConfig(baseURL string) *config.Config {
	return &config.Config{
		Backend: config.BackendConfig{BaseURL: baseURL, Timeout: 5 * time.Second},
		OTP: config.OTPConfig{
			ResendCooldown:  60 * time.Second,
			BrokerHome:      "/broker-dashboard",
			CustomerProfile: "/profile",
		},
		Notification: config.NotificationConfig{ToastLimit: 20, RemoveDelay: time.Second},
	}
}

func TestModule_VerifiesAgainstUpstream(t *testing.T) {
	fake := clock.NewFake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	token, err := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.MapClaims{
		"exp": fake.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/verify-otp", r.URL.Path)
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "9876543210", body["phone"])
		assert.Equal(t, "123456", body["otp"])
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"data": map[string]any{
				"token": token,
				"user":  map[string]any{"role": "customer", "_id": "u42"},
			},
		})
	}))
	defer upstream.Close()

	cfg := testConfig(upstream.URL)
	notif := notification.NewModule(cfg.Notification, fake, nil, nil, zap.NewNop())
	defer notif.Shutdown()

	sessions, err := auth.NewSessionStore(config.StorageConfig{Driver: auth.DriverMemory}, nil, nil)
	require.NoError(t, err)

	m := auth.NewModule(cfg, auth.Dependencies{
		Sessions: sessions,
		Toasts:   notif.Store(),
		Clock:    fake,
		Registry: prometheus.NewRegistry(),
		Logger:   zap.NewNop(),
	})
	defer m.Shutdown()
	require.NotNil(t, m.HTTPHandler())

	flow, err := m.Manager().Start("client-7", "9876543210")
	require.NoError(t, err)

	v, err := flow.Paste(context.Background(), "123456")
	require.NoError(t, err)
	assert.Equal(t, domain.PhaseSuccess, v.Phase)
	assert.Equal(t, "/profile", v.Redirect)

	session, err := sessions.Load(context.Background(), "client-7")
	require.NoError(t, err)
	assert.Equal(t, "u42", session.UserID)
	assert.Equal(t, "customer", session.Role)

	toasts := notif.Store().State("client-7").Toasts
	require.Len(t, toasts, 1)
	assert.Equal(t, notifDomain.TypeSuccess, toasts[0].Type)

	fake.Advance(3 * time.Second)
	assert.Empty(t, notif.Store().State("client-7").Toasts)
}

func TestNewSessionStore_Drivers(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	store, err := auth.NewSessionStore(config.StorageConfig{Driver: "Redis", SessionTTL: time.Hour}, nil, rdb)
	require.NoError(t, err)
	require.NoError(t, store.Save(context.Background(), "c", domain.Session{Token: "a.b.c"}))
	assert.True(t, mr.Exists("portal:session:c"))

	_, err = auth.NewSessionStore(config.StorageConfig{Driver: auth.DriverRedis}, nil, nil)
	assert.Error(t, err)

	_, err = auth.NewSessionStore(config.StorageConfig{Driver: auth.DriverPostgres}, nil, nil)
	assert.Error(t, err)

	store, err = auth.NewSessionStore(config.StorageConfig{Driver: auth.DriverPostgres}, sqlx.NewDb(nil, "postgres"), nil)
	require.NoError(t, err)
	assert.NotNil(t, store)

	_, err = auth.NewSessionStore(config.StorageConfig{Driver: "mongo"}, nil, nil)
	assert.Error(t, err)
}
