package brandvoices

import (
	"encoding/json"
	"log/slog"
	"net/http"

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

	voices, err := h.svc.List(r.Context(), userID)
	if err != nil {
		slog.Error("listing brand voices", "error", err)
		api.HandleError(w, api.NewInternalError("Failed to fetch brand voices"))
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"voices": voices})
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
	if req.Name == "" || req.Guidelines == "" {
		api.HandleError(w, api.NewValidationError("Name and guidelines are required"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	voice, err := h.svc.Create(r.Context(), userID, &req)
	if err != nil {
		slog.Error("creating brand voice", "error", err)
		api.HandleError(w, api.NewInternalError("Failed to create brand voice"))
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"voice": voice})
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	voice := GetVoiceFromContext(r.Context())
	if voice == nil {
		api.HandleError(w, api.NewNotFoundError("Brand voice not found"))
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.ErrBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		api.HandleError(w, api.NewValidationError(err.Error()))
		return
	}

	updated, err := h.svc.Update(r.Context(), voice, &req)
	if err != nil {
		slog.Error("updating brand voice", "error", err)
		api.HandleError(w, api.NewInternalError("Failed to update brand voice"))
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"voice": updated})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	voice := GetVoiceFromContext(r.Context())
	if voice == nil {
		api.HandleError(w, api.NewNotFoundError("Brand voice not found"))
		return
	}

	if err := h.svc.Delete(r.Context(), voice.ID); err != nil {
		slog.Error("deleting brand voice", "error", err)
		api.HandleError(w, api.NewInternalError("Failed to delete brand voice"))
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]any{"success": true})
}

// OwnershipMiddleware loads the voice named in the path and rejects anyone but
// its owner. Foreign voices answer 404 so their existence is not disclosed.
func (h *Handler) OwnershipMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := auth.GetUserClaims(r.Context())
		if claims == nil {
			api.HandleError(w, api.ErrUnauthorized)
			return
		}

		voiceID, err := uuid.Parse(chi.URLParam(r, "voiceID"))
		if err != nil {
			api.HandleError(w, api.NewNotFoundError("Brand voice not found"))
			return
		}

		voice, err := h.svc.GetByID(r.Context(), voiceID)
		if err != nil {
			slog.Error("fetching brand voice for ownership check", "error", err)
			api.HandleError(w, api.ErrInternalServer)
			return
		}
		if voice == nil {
			api.HandleError(w, api.NewNotFoundError("Brand voice not found"))
			return
		}

		if voice.UserID.String() != claims.UserID {
			slog.Warn("brand voice ownership violation attempt",
				"voice_id", voiceID,
				"voice_owner", voice.UserID,
				"requester", claims.UserID,
				"method", r.Method,
			)
			api.HandleError(w, api.NewNotFoundError("Brand voice not found"))
			return
		}

		next.ServeHTTP(w, r.WithContext(SetVoiceInContext(r.Context(), voice)))
	})
}
