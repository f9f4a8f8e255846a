package referrals

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/kukiwrite/kukiwrite/internal/api"
	"github.com/kukiwrite/kukiwrite/internal/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CurrentUserID(w, r)
	if !ok {
		return
	}

	summary, err := h.svc.Summary(r.Context(), userID)
	switch {
	case errors.Is(err, ErrUserNotFound):
		api.HandleError(w, api.NewNotFoundError("User not found"))
	case err != nil:
		slog.Error("loading referral summary", "error", err, "user_id", userID)
		api.HandleError(w, api.NewInternalError("Failed to fetch referral info"))
	default:
		api.WriteJSON(w, http.StatusOK, summary)
	}
}
