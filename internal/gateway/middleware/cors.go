package middleware

import (
	"net/http"
	"strings"
)

// CORSMiddleware allows the listed origins, or any origin for "*", to call
// the API with credentials and the client id header.
func CORSMiddleware(next http.Handler, allowedOrigins string) http.Handler {
	allowAll := strings.TrimSpace(allowedOrigins) == "*"
	origins := make(map[string]bool)
	for _, o := range strings.Split(allowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins[o] = true
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")

		allowed := allowAll || origins[origin]
		if allowed {
			if allowAll {
				w.Header().Set("Access-Control-Allow-Origin", "*")
			} else {
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+ClientIDHeader)
			w.Header().Set("Access-Control-Expose-Headers", ClientIDHeader)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
