package apikeys

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/kukiwrite/kukiwrite/internal/api"
	"github.com/kukiwrite/kukiwrite/internal/auth"
)

const createWarning = "Save this key now. You won't be able to see it again!"

type Handler struct {
	svc      *Service
	validate *validator.Validate
}

func NewHandler(svc *Service) *Handler {
	return &Handler{
		svc:      svc,
		validate: validator.New(),
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CurrentUserID(w, r)
	if !ok {
		return
	}

	keys, err := h.svc.List(r.Context(), userID)
	if err != nil {
		h.handleErr(w, "listing api keys", "Failed to fetch API keys", err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"apiKeys": keys})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CurrentUserID(w, r)
	if !ok {
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.NewBadRequestError("invalid request body"))
		return
	}
	if req.Name == "" {
		api.HandleError(w, api.NewValidationError("API key name is required"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	key, err := h.svc.Create(r.Context(), userID, req)
	if err != nil {
		h.handleErr(w, "creating api key", "Failed to create API key", err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{
		"apiKey":  key,
		"warning": createWarning,
	})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CurrentUserID(w, r)
	if !ok {
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "keyID"))
	if err != nil {
		api.HandleError(w, api.NewNotFoundError("API key not found"))
		return
	}

	if err := h.svc.Delete(r.Context(), userID, id); err != nil {
		h.handleErr(w, "deleting api key", "Failed to delete API key", err)
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (h *Handler) handleErr(w http.ResponseWriter, op, msg string, err error) {
	var appErr *api.AppError
	switch {
	case errors.Is(err, ErrNotFound):
		api.HandleError(w, api.NewNotFoundError("API key not found"))
	case errors.As(err, &appErr):
		api.HandleError(w, appErr)
	default:
		slog.Error(op, "error", err)
		api.HandleError(w, api.NewInternalError(msg))
	}
}
