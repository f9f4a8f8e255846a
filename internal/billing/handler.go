package billing

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/kukiwrite/kukiwrite/internal/api"
	"github.com/kukiwrite/kukiwrite/internal/auth"
)

const maxWebhookBytes = int64(65536)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CurrentUserID(w, r)
	if !ok {
		return
	}

	url, err := h.svc.Checkout(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, ErrPriceNotConfigured):
			api.HandleError(w, api.NewInternalError(err.Error()))
		case errors.Is(err, ErrUserNotFound):
			api.HandleError(w, api.NewNotFoundError(err.Error()))
		default:
			slog.Error("creating checkout session", "error", err)
			api.HandleError(w, api.NewInternalError("Failed to create checkout session"))
		}
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]string{"url": url})
}

func (h *Handler) Portal(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CurrentUserID(w, r)
	if !ok {
		return
	}

	url, err := h.svc.Portal(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNoCustomer) {
			api.HandleError(w, api.NewNotFoundError(err.Error()))
			return
		}
		slog.Error("creating portal session", "error", err)
		api.HandleError(w, api.NewInternalError("Failed to create portal session"))
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]string{"url": url})
}

// Webhook receives Stripe events. It is mounted without authentication; the
// Stripe-Signature header is the only credential.
func (h *Handler) Webhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		api.HandleError(w, api.NewBadRequestError("invalid payload"))
		return
	}

	event, err := h.svc.ConstructEvent(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, ErrWebhookNotConfigured) {
			api.HandleError(w, api.NewBadRequestError(err.Error()))
			return
		}
		slog.Warn("webhook signature verification failed", "error", err)
		api.HandleError(w, api.NewBadRequestError("Webhook Error: "+err.Error()))
		return
	}

	if err := h.svc.HandleEvent(r.Context(), event); err != nil {
		slog.Error("handling stripe webhook", "error", err, "type", event.Type)
		api.HandleError(w, api.NewInternalError("Webhook handler failed"))
		return
	}
	api.WriteJSON(w, http.StatusOK, map[string]bool{"received": true})
}
