package generations

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
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

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CurrentUserID(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	f := ListFilter{
		Type:   Type(q.Get("type")),
		Search: q.Get("search"),
	}
	if f.Type != "" && !f.Type.Valid() {
		api.HandleError(w, api.NewBadRequestError("invalid generation type"))
		return
	}
	if l, err := strconv.Atoi(q.Get("limit")); err == nil {
		f.Limit = l
	}
	if o, err := strconv.Atoi(q.Get("offset")); err == nil {
		f.Offset = o
	}

	list, total, err := h.svc.List(r.Context(), userID, f)
	if err != nil {
		slog.Error("listing generations", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}

	f = f.normalize()
	api.JSONPaginated(w, http.StatusOK, list, total, f.Offset/f.Limit+1, f.Limit)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CurrentUserID(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	g, err := h.svc.Get(r.Context(), userID, id)
	if err != nil {
		h.handleErr(w, "getting generation", err)
		return
	}
	api.JSON(w, http.StatusOK, g)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CurrentUserID(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var req Patch
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	g, err := h.svc.Update(r.Context(), userID, id, req)
	if err != nil {
		h.handleErr(w, "updating generation", err)
		return
	}
	api.JSON(w, http.StatusOK, g)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CurrentUserID(w, r)
	if !ok {
		return
	}
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Delete(r.Context(), userID, id); err != nil {
		h.handleErr(w, "deleting generation", err)
		return
	}
	api.JSONMessage(w, http.StatusOK, "generation deleted successfully")
}

func (h *Handler) handleErr(w http.ResponseWriter, action string, err error) {
	if errors.Is(err, ErrNotFound) {
		api.HandleError(w, api.NewNotFoundError("Generation not found"))
		return
	}
	slog.Error(action, "error", err)
	api.HandleError(w, api.ErrInternalServer)
}

func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "generationID"))
	if err != nil {
		api.HandleError(w, api.NewBadRequestError("invalid generation ID"))
		return uuid.Nil, false
	}
	return id, true
}
