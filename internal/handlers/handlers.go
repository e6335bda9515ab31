package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	gorillahandlers "github.com/gorilla/handlers"

	"github.com/chepyr/go-task-tracker/internal/apperr"
	"github.com/chepyr/go-task-tracker/internal/service"
)

type Handler struct {
	Auth           *service.AuthService
	Tasks          *service.TaskService
	Comments       *service.CommentService
	RateLimiter    *RateLimiter
	WSHub          *WSHub
	AllowedOrigins []string
	RequestTimeout time.Duration
}

/*
Router wires every route:
  - /auth/**: register and login are anonymous and rate limited
  - /task/**, /comment/**: authenticated, admin-only where noted
  - /ws: task event stream, outside the request timeout
*/
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(h.Authenticate)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		sendError(w, "resource not found", http.StatusNotFound)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		sendError(w, "method not allowed", http.StatusMethodNotAllowed)
	})

	r.Get("/health", h.Health)
	r.With(h.RequireAuthenticated).Get("/ws", h.HandleWebSocket)

	r.Group(func(r chi.Router) {
		if h.RequestTimeout > 0 {
			r.Use(middleware.Timeout(h.RequestTimeout))
		}

		r.Route("/auth", func(r chi.Router) {
			r.With(h.RateLimit).Post("/register", h.Register)
			r.With(h.RateLimit).Post("/login", h.Login)
			r.With(h.RequireAuthenticated).Patch("/upgrade-to-admin", h.UpgradeToAdmin)
		})

		r.Route("/task", func(r chi.Router) {
			r.Use(h.RequireAuthenticated)
			r.With(h.RequireAdmin).Get("/", h.ListTasks)
			r.With(h.RequireAdmin).Post("/create", h.CreateTask)
			r.With(h.RequireAdmin).Patch("/edit/{id}", h.EditTask)
			r.With(h.RequireAdmin).Delete("/delete/{id}", h.DeleteTask)
			r.With(h.RequireAdmin).Get("/author", h.ListTasksByAuthor)
			r.Get("/assignee", h.ListTasksByAssignee)
			r.Patch("/status/{id}", h.UpdateTaskStatus)
			r.Get("/{id}", h.GetTask)
		})

		r.Route("/comment", func(r chi.Router) {
			r.Use(h.RequireAuthenticated)
			r.Get("/{taskId}", h.ListComments)
			r.Post("/create/{taskId}", h.CreateComment)
			r.Patch("/edit/{id}", h.EditComment)
			r.Delete("/delete/{id}", h.DeleteComment)
		})
	})

	return h.cors(r)
}

func (h *Handler) cors(next http.Handler) http.Handler {
	origins := h.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return gorillahandlers.CORS(
		gorillahandlers.AllowedHeaders([]string{"X-Requested-With", "Content-Type", "Authorization"}),
		gorillahandlers.AllowedMethods([]string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}),
		gorillahandlers.AllowedOrigins(origins),
	)(next)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type errorResponse struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

type messageResponse struct {
	Message string `json:"message"`
}

func sendJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

func sendMessage(w http.ResponseWriter, status int, message string) {
	sendJSON(w, status, messageResponse{Message: message})
}

func sendError(w http.ResponseWriter, message string, status int) {
	sendJSON(w, status, errorResponse{Error: message})
}

// writeError maps an error kind to its status code. Errors without a kind are
// logged and reported as a generic 500.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ve *validationError
	if errors.As(err, &ve) {
		sendJSON(w, http.StatusBadRequest, errorResponse{Error: apperr.ErrValidation.Message, Fields: ve.fields})
		return
	}

	status := statusFor(apperr.KindOf(err))
	if status == http.StatusInternalServerError {
		log.Printf("[%s] %s %s: %v", middleware.GetReqID(r.Context()), r.Method, r.URL.Path, err)
		sendError(w, "internal server error", status)
		return
	}
	sendError(w, err.Error(), status)
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindEmailAlreadyTaken, apperr.KindInvalidCredentials, apperr.KindTaskCreation:
		return http.StatusBadRequest
	case apperr.KindAlreadyAuthenticated:
		return http.StatusConflict
	case apperr.KindUserNotFound, apperr.KindTaskNotFound, apperr.KindCommentNotFound:
		return http.StatusNotFound
	case apperr.KindUserIsNotAdmin:
		return http.StatusForbidden
	case apperr.KindUnauthorized, apperr.KindUnauthenticated:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// pathID parses a positive integer URL parameter.
func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, newValidationError(map[string]string{name: "must be a positive integer"})
	}
	return id, nil
}
