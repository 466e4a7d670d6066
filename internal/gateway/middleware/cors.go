package middleware

import (
	"net/http"
	"strings"
)

// OriginAllowed reports whether an Origin header value is in allowed; "*"
// allows any.
func OriginAllowed(allowed []string) func(origin string) bool {
	wildcard := false
	set := make(map[string]struct{}, len(allowed))
	for _, o := range allowed {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			wildcard = true
		}
		set[o] = struct{}{}
	}
	return func(origin string) bool {
		if wildcard {
			return true
		}
		_, ok := set[strings.TrimRight(strings.TrimSpace(origin), "/")]
		return ok
	}
}

// CORS allows the listed origins. Requests from other origins are served
// without CORS headers, so browsers reject them.
func CORS(allowed []string) func(http.Handler) http.Handler {
	ok := OriginAllowed(allowed)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin != "" {
				w.Header().Add("Vary", "Origin")
				if ok(origin) {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
					w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
				}
			}
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
