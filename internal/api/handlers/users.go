package handlers

import (
	"net/http"

	"github.com/dom/blog-api/internal/domain"
	"github.com/dom/blog-api/internal/service"
)

type UserHandler struct {
	authService *service.AuthService
}

func NewUserHandler(authService *service.AuthService) *UserHandler {
	return &UserHandler{authService: authService}
}

func (h *UserHandler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeServiceError(w, "UserHandler.Show", domain.ErrUserNotFound)
		return
	}

	user, err := h.authService.GetUserByID(r.Context(), id)
	if err != nil {
		writeServiceError(w, "UserHandler.Show", err)
		return
	}

	writeJSON(w, http.StatusOK, user)
}
