package handlers

import (
	"log"
	"net/http"
)

type credentialsRequest struct {
	Email    string `json:"email" validate:"required,max=70"`
	Password string `json:"password" validate:"required"`
}

// registerRequest bounds the password by bcrypt's byte limit; login does not,
// so an over-long password there is just a wrong password.
type registerRequest struct {
	Email    string `json:"email" validate:"required,max=70"`
	Password string `json:"password" validate:"required,maxbytes=72"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// POST /auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var input registerRequest
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	if _, err := h.Auth.Register(r.Context(), input.Email, input.Password); err != nil {
		writeError(w, r, err)
		return
	}
	sendMessage(w, http.StatusOK, "registration successful")
}

// POST /auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var input credentialsRequest
	if err := decodeJSON(w, r, &input); err != nil {
		writeError(w, r, err)
		return
	}

	token, err := h.Auth.Login(r.Context(), input.Email, input.Password)
	if err != nil {
		log.Printf("Login failed from %s: %v", clientIP(r), err)
		writeError(w, r, err)
		return
	}
	sendJSON(w, http.StatusOK, tokenResponse{Token: token})
}

// PATCH /auth/upgrade-to-admin
func (h *Handler) UpgradeToAdmin(w http.ResponseWriter, r *http.Request) {
	if err := h.Auth.UpgradeToAdmin(r.Context()); err != nil {
		writeError(w, r, err)
		return
	}
	sendMessage(w, http.StatusOK, "role upgraded to ADMIN")
}
