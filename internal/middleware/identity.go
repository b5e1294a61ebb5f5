package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dungeun/codeB-core-engine/internal/domain"
)

type contextKey string

const (
	// IdentityContextKey is the context key for the resolved caller identity
	IdentityContextKey contextKey = "identity"

	// RoleContextKey is the context key for the caller's role
	RoleContextKey contextKey = "role"

	// SessionCookieName carries the anonymous cart session
	SessionCookieName = "cart_session"

	// UserIDHeader is set by the upstream auth layer for signed-in callers
	UserIDHeader = "X-User-ID"

	// RoleHeader is set by the upstream auth layer ("customer" or "admin")
	RoleHeader = "X-User-Role"

	sessionCookieMaxAge = 30 * 24 * time.Hour
)

// WithIdentity resolves the caller identity for every request: the user ID
// from the auth header when signed in, otherwise the anonymous session
// cookie. A session cookie is issued on first contact so guest carts work
// without any signup.
// This middleware is optional - it resolves identity if present but doesn't
// require authentication.
func WithIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := domain.Identity{
			UserID: r.Header.Get(UserIDHeader),
		}

		if cookie, err := r.Cookie(SessionCookieName); err == nil && cookie.Value != "" {
			identity.SessionID = cookie.Value
		} else if identity.UserID == "" {
			// First contact from an anonymous caller: issue a session.
			identity.SessionID = uuid.New().String()
			http.SetCookie(w, &http.Cookie{
				Name:     SessionCookieName,
				Value:    identity.SessionID,
				Path:     "/",
				MaxAge:   int(sessionCookieMaxAge.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), IdentityContextKey, identity)
		ctx = context.WithValue(ctx, RoleContextKey, r.Header.Get(RoleHeader))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// GetIdentity retrieves the resolved identity from the context.
func GetIdentity(ctx context.Context) domain.Identity {
	if identity, ok := ctx.Value(IdentityContextKey).(domain.Identity); ok {
		return identity
	}
	return domain.Identity{}
}

// IsAdmin reports whether the caller carries the admin role.
func IsAdmin(ctx context.Context) bool {
	role, _ := ctx.Value(RoleContextKey).(string)
	return role == "admin"
}

// RequireUser ensures the caller is a signed-in user.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !GetIdentity(r.Context()).IsUser() {
			respondUnauthorized(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin ensures the caller is a signed-in admin.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !GetIdentity(r.Context()).IsUser() {
			respondUnauthorized(w, r)
			return
		}
		if !IsAdmin(r.Context()) {
			respondForbidden(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
