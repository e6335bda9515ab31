package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/chepyr/go-task-tracker/internal/auth"
	"github.com/chepyr/go-task-tracker/internal/db/dbtest"
	"github.com/chepyr/go-task-tracker/internal/models"
)

// runs the request through Authenticate and RequireAuthenticated and reports whether next ran
func throughAuth(t *testing.T, env *testEnv, authz string) (*httptest.ResponseRecorder, *models.User) {
	t.Helper()
	var seen *models.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = auth.PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/any", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()
	env.h.Authenticate(env.h.RequireAuthenticated(next)).ServeHTTP(rec, req)
	return rec, seen
}

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(strings.Repeat("a", 32)))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return "Bearer " + token
}

func TestAuthMiddleware_RejectsAnonymous(t *testing.T) {
	env := setupHTTP(t)
	dbtest.CreateUser(t, env.conn, "known@example.com", models.RoleUser)

	tests := []struct {
		name  string
		authz string
	}{
		{"missing header", ""},
		{"not bearer", "Basic dXNlcjpwYXNz"},
		{"invalid token", "Bearer obviously.invalid.token"},
		{"missing exp", signed(t, jwt.MapClaims{"sub": "known@example.com"})},
		{"missing sub", signed(t, jwt.MapClaims{"exp": time.Now().Add(time.Hour).Unix()})},
		{"expired", signed(t, jwt.MapClaims{"sub": "known@example.com", "exp": time.Now().Add(-time.Minute).Unix()})},
		{"unknown email", signed(t, jwt.MapClaims{"sub": "ghost@example.com", "exp": time.Now().Add(time.Hour).Unix()})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, seen := throughAuth(t, env, tt.authz)
			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("want 401, got %d body=%s", rec.Code, rec.Body.String())
			}
			if seen != nil {
				t.Fatalf("next must not be called")
			}
		})
	}
}

func TestAuthMiddleware_ResolvesPrincipal(t *testing.T) {
	env := setupHTTP(t)
	user := dbtest.CreateUser(t, env.conn, "known@example.com", models.RoleUser)

	rec, seen := throughAuth(t, env, env.bearerFor(t, user))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("want 204, got %d body=%s", rec.Code, rec.Body.String())
	}
	if seen == nil || seen.ID != user.ID {
		t.Fatalf("principal = %+v, want user %d", seen, user.ID)
	}
}

func TestRequireAdmin(t *testing.T) {
	env := setupHTTP(t)
	admin := dbtest.CreateUser(t, env.conn, "admin@example.com", models.RoleAdmin)
	user := dbtest.CreateUser(t, env.conn, "user@example.com", models.RoleUser)

	tests := []struct {
		name  string
		authz string
		want  int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"user", env.bearerFor(t, user), http.StatusUnauthorized},
		{"admin", env.bearerFor(t, admin), http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/task", tt.authz, nil)
			if rec.Code != tt.want {
				t.Fatalf("GET /task status=%d want %d body=%s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}
