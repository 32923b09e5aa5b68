package handlers

import (
	"net/http"
	"strconv"

	"github.com/dom/blog-api/internal/api/middleware"
	"github.com/dom/blog-api/internal/domain"
	"github.com/dom/blog-api/internal/service"
)

type PostHandler struct {
	postService *service.PostService
}

func NewPostHandler(postService *service.PostService) *PostHandler {
	return &PostHandler{postService: postService}
}

// CreatePostRequest has no user_id: the owner is always the requester.
type CreatePostRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// UpdatePostRequest distinguishes absent (or null) fields from supplied ones.
type UpdatePostRequest struct {
	Title   *string `json:"title"`
	Content *string `json:"content"`
}

func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		page = 1
	}

	result, err := h.postService.List(r.Context(), page)
	if err != nil {
		writeServiceError(w, "PostHandler.List", err)
		return
	}

	writeJSON(w, http.StatusOK, NewPaginator(result, requestPath(r)))
}

func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		writeServiceError(w, "PostHandler.Get", domain.ErrPostNotFound)
		return
	}

	post, err := h.postService.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, "PostHandler.Get", err)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	requester, ok := middleware.GetRequester(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, middleware.UnauthenticatedMessage)
		return
	}

	var req CreatePostRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	post, err := h.postService.Create(r.Context(), requester, service.CreatePostInput{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		writeServiceError(w, "PostHandler.Create", err)
		return
	}

	writeJSON(w, http.StatusCreated, post)
}

func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	requester, ok := middleware.GetRequester(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, middleware.UnauthenticatedMessage)
		return
	}

	id, ok := idParam(r, "id")
	if !ok {
		writeServiceError(w, "PostHandler.Update", domain.ErrPostNotFound)
		return
	}

	// The body is only looked at once the requester is known to own the post.
	if _, err := h.postService.EditablePost(r.Context(), requester, id); err != nil {
		writeServiceError(w, "PostHandler.Update", err)
		return
	}

	var req UpdatePostRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	post, err := h.postService.Update(r.Context(), requester, id, service.UpdatePostInput{
		Title:   req.Title,
		Content: req.Content,
	})
	if err != nil {
		writeServiceError(w, "PostHandler.Update", err)
		return
	}

	writeJSON(w, http.StatusOK, post)
}

func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requester, ok := middleware.GetRequester(r.Context())
	if !ok {
		writeMessage(w, http.StatusUnauthorized, middleware.UnauthenticatedMessage)
		return
	}

	id, ok := idParam(r, "id")
	if !ok {
		writeServiceError(w, "PostHandler.Delete", domain.ErrPostNotFound)
		return
	}

	if err := h.postService.Delete(r.Context(), requester, id); err != nil {
		writeServiceError(w, "PostHandler.Delete", err)
		return
	}

	writeMessage(w, http.StatusOK, "Post deleted")
}
