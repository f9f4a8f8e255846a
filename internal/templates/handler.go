package templates

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/kukiwrite/kukiwrite/internal/api"
	"github.com/kukiwrite/kukiwrite/internal/auth"
)

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

// List serves both anonymous and signed-in callers.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	var userID *uuid.UUID
	if claims := auth.GetUserClaims(r.Context()); claims != nil {
		if id, err := uuid.Parse(claims.UserID); err == nil {
			userID = &id
		}
	}

	q := r.URL.Query()
	list, err := h.svc.List(r.Context(), userID, q.Get("public") == "true", q.Get("category"))
	if err != nil {
		slog.Error("listing templates", "error", err)
		api.HandleError(w, api.NewInternalError("Failed to fetch templates"))
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"templates": list})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CurrentUserID(w, r)
	if !ok {
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if req.Name == "" || req.Category == "" || req.Content == "" {
		api.HandleError(w, api.NewValidationError("Name, category, and content are required"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	t, err := h.svc.Create(r.Context(), userID, &req)
	if err != nil {
		slog.Error("creating template", "error", err)
		api.HandleError(w, api.NewInternalError("Failed to create template"))
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"template": t})
}
