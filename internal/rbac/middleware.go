package rbac

import (
	"log/slog"
	"net/http"

	"github.com/stockline/stockline/internal/shared"
)

// Middleware wires authorization helpers for HTTP handlers.
type Middleware struct {
	Registry *Registry
	Logger   *slog.Logger
}

// RequireAny ensures the current principal holds at least one of the
// required permissions.
func (m Middleware) RequireAny(perms ...Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(perms) == 0 {
				next.ServeHTTP(w, r)
				return
			}
			role, ok := m.currentRole(r)
			if !ok {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			for _, p := range perms {
				if m.Registry.Authorize(role, p) {
					next.ServeHTTP(w, r)
					return
				}
			}
			m.deny(w, r, role)
		})
	}
}

// RequireAll ensures the current principal holds all required permissions.
func (m Middleware) RequireAll(perms ...Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := m.currentRole(r)
			if !ok {
				http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
				return
			}
			for _, p := range perms {
				if !m.Registry.Authorize(role, p) {
					m.deny(w, r, role)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAuthenticated only checks that a principal is present; used for
// cart and checkout routes which are scoped per customer, not per role.
func (m Middleware) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if shared.PrincipalFromContext(r.Context()) == nil {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m Middleware) currentRole(r *http.Request) (Role, bool) {
	p := shared.PrincipalFromContext(r.Context())
	if p == nil {
		return "", false
	}
	return ParseRole(p.Role), true
}

func (m Middleware) deny(w http.ResponseWriter, r *http.Request, role Role) {
	if m.Logger != nil {
		m.Logger.Warn("permission denied",
			slog.String("role", string(role)),
			slog.String("path", r.URL.Path))
	}
	http.Error(w, http.StatusText(http.StatusForbidden), http.StatusForbidden)
}
