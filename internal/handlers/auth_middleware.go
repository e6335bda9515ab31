package handlers

import (
	"log"
	"net/http"

	"github.com/chepyr/go-task-tracker/internal/access"
	"github.com/chepyr/go-task-tracker/internal/apperr"
	"github.com/chepyr/go-task-tracker/internal/auth"
)

/*
Authenticate resolves the bearer token to a user and stores it in the request context.
A missing or bad token, or one for an unknown email, leaves the request anonymous;
protected routes reject it later with RequireAuthenticated.
*/
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := auth.ExtractBearerToken(r.Header.Get("Authorization"))
		if !ok {
			next.ServeHTTP(w, r)
			return
		}

		user, ok := h.Auth.ResolvePrincipal(r.Context(), token)
		if !ok {
			log.Printf("Ignoring unusable bearer token from %s", clientIP(r))
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(auth.WithPrincipal(r.Context(), user)))
	})
}

func (h *Handler) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsAuthenticated(r.Context()) {
			writeError(w, r, apperr.ErrUnauthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin gates admin-only routes before any resource lookup.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, err := auth.CurrentUser(r.Context())
		if err != nil {
			writeError(w, r, err)
			return
		}
		if !access.IsAdmin(user) {
			writeError(w, r, apperr.Unauthorized("you do not have permission to access this resource"))
			return
		}
		next.ServeHTTP(w, r)
	})
}
