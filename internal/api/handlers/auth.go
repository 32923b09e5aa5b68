package handlers

import (
	"errors"
	"net/http"

	"github.com/dom/blog-api/internal/api/middleware"
	"github.com/dom/blog-api/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
}

func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type RegisterRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type TokenResponse struct {
	Token string `json:"token"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	_, err := h.authService.Register(r.Context(), service.RegisterInput{
		Name:                 req.Name,
		Email:                req.Email,
		Password:             req.Password,
		PasswordConfirmation: req.PasswordConfirmation,
	})
	if err != nil {
		writeServiceError(w, "AuthHandler.Register", err)
		return
	}

	writeMessage(w, http.StatusCreated, "User registered successfully")
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.authService.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeServiceError(w, "AuthHandler.Login", err)
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{Token: result.Token})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	requester, ok := middleware.GetRequester(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, middleware.UnauthenticatedMessage)
		return
	}

	if err := h.authService.Logout(r.Context(), requester); err != nil {
		if errors.Is(err, service.ErrSessionRevoked) {
			writeMessage(w, http.StatusUnauthorized, middleware.UnauthenticatedMessage)
			return
		}
		writeServiceError(w, "AuthHandler.Logout", err)
		return
	}

	writeMessage(w, http.StatusOK, "Logged out successfully")
}
