package ai

import (
	"net/http"

	"github.com/kukiwrite/kukiwrite/internal/api"
)

type Handler struct {
	dispatcher *Dispatcher
}

func NewHandler(dispatcher *Dispatcher) *Handler {
	return &Handler{dispatcher: dispatcher}
}

// Models lists the models the configured providers can serve.
func (h *Handler) Models(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, map[string]any{"models": h.dispatcher.AvailableModels()})
}
