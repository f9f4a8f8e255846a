package teams

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

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

	teams, err := h.svc.List(r.Context(), userID)
	if err != nil {
		slog.Error("listing teams", "error", err, "user_id", userID)
		api.HandleError(w, api.NewInternalError("Failed to fetch teams"))
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"teams": teams})
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
	if strings.TrimSpace(req.Name) == "" {
		api.HandleError(w, api.NewValidationError("Team name is required"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	team, err := h.svc.Create(r.Context(), userID, &req)
	if err != nil {
		slog.Error("creating team", "error", err, "user_id", userID)
		api.HandleError(w, api.NewInternalError("Failed to create team"))
		return
	}
	slog.Info("team created", "team_id", team.ID, "owner_id", userID)
	api.WriteJSON(w, http.StatusOK, map[string]any{"team": team})
}

func (h *Handler) Invite(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CurrentUserID(w, r)
	if !ok {
		return
	}

	// Malformed ids cannot name a team the caller administers.
	teamID, err := uuid.Parse(chi.URLParam(r, "teamID"))
	if err != nil {
		api.HandleError(w, api.NewForbiddenError("You do not have permission to invite members"))
		return
	}

	var req InviteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if req.Email == "" {
		api.HandleError(w, api.NewValidationError("Email is required"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	member, err := h.svc.Invite(r.Context(), teamID, userID, &req)
	switch {
	case errors.Is(err, ErrForbidden):
		slog.Warn("team invite denied", "team_id", teamID, "requester", userID)
		api.HandleError(w, api.NewForbiddenError("You do not have permission to invite members"))
	case errors.Is(err, ErrUserNotFound):
		api.HandleError(w, api.NewNotFoundError("User not found"))
	case errors.Is(err, ErrAlreadyMember):
		api.HandleError(w, api.NewBadRequestError("User is already a team member"))
	case err != nil:
		slog.Error("inviting team member", "error", err, "team_id", teamID)
		api.HandleError(w, api.NewInternalError("Failed to invite member"))
	default:
		api.WriteJSON(w, http.StatusOK, map[string]any{"member": member})
	}
}
