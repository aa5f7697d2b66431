package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPMetrics_RecordsByRoute(t *testing.T) {
	metrics := NewHTTPMetrics(prometheus.NewRegistry())

	handler := metrics.Instrument("GET /auth/otp/flows/{id}", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for _, id := range []string{"a", "b", "c"} {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/auth/otp/flows/"+id, nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	}

	assert.Equal(t, 3.0, testutil.ToFloat64(metrics.requests.WithLabelValues("GET", "GET /auth/otp/flows/{id}", "200")))
	assert.Equal(t, 1, testutil.CollectAndCount(metrics.requests))
}

func TestHTTPMetrics_DifferentStatusCodes(t *testing.T) {
	metrics := NewHTTPMetrics(prometheus.NewRegistry())

	testCases := []struct {
		name       string
		statusCode int
	}{
		{"success_200", http.StatusOK},
		{"created_201", http.StatusCreated},
		{"bad_request_400", http.StatusBadRequest},
		{"unauthorized_401", http.StatusUnauthorized},
		{"bad_gateway_502", http.StatusBadGateway},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := metrics.Instrument("POST /test", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.statusCode)
			}))

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest("POST", "/test", nil))

			assert.Equal(t, tc.statusCode, rec.Code)
			assert.Equal(t, 1.0, testutil.ToFloat64(metrics.requests.WithLabelValues("POST", "POST /test", strconv.Itoa(tc.statusCode))))
		})
	}
}

func TestHTTPMetrics_HijackUnsupported(t *testing.T) {
	rw := &responseWriter{ResponseWriter: httptest.NewRecorder(), status: http.StatusOK}
	_, _, err := rw.Hijack()
	require.Error(t, err)
	rw.Flush()
}
