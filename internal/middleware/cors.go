package middleware

import (
	"net/http"
)

// CORS allows a browser-based rule-tuning dashboard (spec.md §6's
// /debug/stream consumer) to call the admin API from a different origin.
// internal/api/router.go only ever exposes GET and POST routes, so that's
// all this advertises; Authorization carries the admin bearer token
// checked by AdminAuth, there's no teacher-style internal auth header here.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
