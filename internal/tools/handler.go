package tools

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/kukiwrite/kukiwrite/internal/api"
	"github.com/kukiwrite/kukiwrite/internal/auth"
	"github.com/kukiwrite/kukiwrite/internal/generations"
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

// decode reads and validates a tool request. A missing required field answers
// with the request's own message.
func decode[T requiredMessager](h *Handler, w http.ResponseWriter, r *http.Request) (T, bool) {
	var req T
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.HandleError(w, api.NewBadRequestError("invalid request body"))
		return req, false
	}
	if err := h.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 && verrs[0].Tag() == "required" {
			api.HandleError(w, api.NewValidationError(req.requiredMessage()))
			return req, false
		}
		api.HandleError(w, api.NewValidationError(err.Error()))
		return req, false
	}
	return req, true
}

// gated builds the handler for a quota-gated tool.
func gated[T requiredMessager](h *Handler, fn func(context.Context, uuid.UUID, T) (*Outcome, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := auth.CurrentUserID(w, r)
		if !ok {
			return
		}
		req, ok := decode[T](h, w, r)
		if !ok {
			return
		}

		out, err := fn(r.Context(), userID, req)
		if err != nil {
			writeToolError(w, err)
			return
		}

		body := map[string]any{
			"output":    out.Output,
			"model":     out.Model,
			"remaining": out.Remaining,
			"limit":     out.Limit,
		}
		for k, v := range out.Extra {
			body[k] = v
		}
		api.WriteJSON(w, http.StatusOK, body)
	}
}

func writeToolError(w http.ResponseWriter, err error) {
	var denied *DeniedError
	var genErr *GenerationError
	switch {
	case errors.As(err, &denied):
		api.WriteJSON(w, http.StatusForbidden, map[string]any{
			"error":     denied.Error(),
			"remaining": denied.Decision.Remaining,
			"limit":     denied.Decision.Limit,
			"plan":      denied.Decision.Plan,
		})
	case errors.As(err, &genErr):
		slog.Error("tool generation failed", "error", err)
		api.HandleError(w, api.NewInternalError(genErr.Error()))
	default:
		slog.Error("tool call failed", "error", err)
		api.HandleError(w, api.ErrInternalServer)
	}
}

func (h *Handler) Blog() http.HandlerFunc      { return gated(h, h.svc.Blog) }
func (h *Handler) YouTube() http.HandlerFunc   { return gated(h, h.svc.YouTube) }
func (h *Handler) SEO() http.HandlerFunc       { return gated(h, h.svc.SEO) }
func (h *Handler) Rewrite() http.HandlerFunc   { return gated(h, h.svc.Rewrite) }
func (h *Handler) Instagram() http.HandlerFunc { return gated(h, h.svc.Instagram) }
func (h *Handler) Brief() http.HandlerFunc     { return gated(h, h.svc.Brief) }
func (h *Handler) Translate() http.HandlerFunc { return gated(h, h.svc.Translate) }
func (h *Handler) Grammar() http.HandlerFunc   { return gated(h, h.svc.GrammarCheck) }
func (h *Handler) Hashtags() http.HandlerFunc  { return gated(h, h.svc.Hashtags) }
func (h *Handler) Compare() http.HandlerFunc   { return gated(h, h.svc.Compare) }

// Languages lists the supported translation languages.
func (h *Handler) Languages(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, map[string]any{"languages": SupportedLanguages})
}

func (h *Handler) Sentiment(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.CurrentUserID(w, r); !ok {
		return
	}
	req, ok := decode[ContentRequest](h, w, r)
	if !ok {
		return
	}
	api.WriteJSON(w, http.StatusOK, h.svc.Sentiment(r.Context(), req))
}

func (h *Handler) Plagiarism(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.CurrentUserID(w, r); !ok {
		return
	}
	req, ok := decode[ContentRequest](h, w, r)
	if !ok {
		return
	}
	api.WriteJSON(w, http.StatusOK, h.svc.Plagiarism(r.Context(), req))
}

func (h *Handler) Score(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CurrentUserID(w, r)
	if !ok {
		return
	}
	req, ok := decode[ScoreRequest](h, w, r)
	if !ok {
		return
	}

	score, err := h.svc.Score(r.Context(), userID, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrVoiceNotFound):
			api.HandleError(w, api.NewNotFoundError("Brand voice not found"))
		case errors.Is(err, generations.ErrNotFound):
			api.HandleError(w, api.NewNotFoundError("Generation not found"))
		default:
			slog.Error("scoring content", "error", err)
			api.HandleError(w, api.NewInternalError("Failed to score content"))
		}
		return
	}
	api.WriteJSON(w, http.StatusOK, score)
}
