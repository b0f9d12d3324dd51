package middleware

import "net/http"

// RequireTenant rejects actors without a Tenant Scope, i.e. the platform
// owner, on routes that only make sense inside one company.
func RequireTenant() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ScopeFromContext(r.Context()).IsNone() {
				http.Error(w, `{"title":"Forbidden","status":403,"detail":"valid tenant required"}`, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
