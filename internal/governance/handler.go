package governance

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/kukiwrite/kukiwrite/internal/api"
	"github.com/kukiwrite/kukiwrite/internal/auth"
	"github.com/kukiwrite/kukiwrite/internal/governance/audit"
	"github.com/kukiwrite/kukiwrite/internal/governance/quota"
)

// Handler provides HTTP handlers for usage, rate window and audit endpoints.
type Handler struct {
	quotaSvc   *quota.Service
	auditStore audit.Store
}

// NewHandler creates a new governance Handler.
func NewHandler(quotaSvc *quota.Service, auditStore audit.Store) *Handler {
	return &Handler{
		quotaSvc:   quotaSvc,
		auditStore: auditStore,
	}
}

// Usage returns the caller's generation count for the current month, limit and plan.
func (h *Handler) Usage(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CurrentUserID(w, r)
	if !ok {
		return
	}

	usage, err := h.quotaSvc.Usage(r.Context(), userID)
	if err != nil {
		slog.Error("getting usage", "error", err, "user_id", userID)
		api.HandleError(w, api.NewInternalError("Failed to fetch usage"))
		return
	}

	api.WriteJSON(w, http.StatusOK, usage)
}

// RateLimit reports the caller's short rate window.
func (h *Handler) RateLimit(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CurrentUserID(w, r)
	if !ok {
		return
	}

	status, err := h.quotaSvc.RateStatus(r.Context(), userID)
	if err != nil {
		slog.Error("getting rate limit status", "error", err, "user_id", userID)
		api.HandleError(w, api.NewInternalError("Failed to check rate limit"))
		return
	}

	api.WriteJSON(w, http.StatusOK, status)
}

// ListAuditLogs returns paginated audit logs for the authenticated user.
func (h *Handler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.CurrentUserID(w, r)
	if !ok {
		return
	}

	params := parseAuditParams(r)

	logs, total, err := h.auditStore.ListByOwner(r.Context(), userID, params)
	if err != nil {
		slog.Error("listing audit logs", "error", err)
		api.HandleError(w, api.ErrInternalServer)
		return
	}
	if logs == nil {
		logs = []audit.AuditLog{}
	}

	api.JSONPaginated(w, http.StatusOK, logs, total, params.Page, params.PageSize)
}

func parseAuditParams(r *http.Request) audit.ListParams {
	params := audit.DefaultListParams()
	q := r.URL.Query()

	if et := q.Get("event_type"); et != "" {
		params.EventType = et
	}
	if sev := q.Get("severity"); sev != "" {
		params.Severity = sev
	}
	if rid := q.Get("resource_id"); rid != "" {
		if id, err := uuid.Parse(rid); err == nil {
			params.ResourceID = &id
		}
	}
	if p := q.Get("page"); p != "" {
		if page, err := strconv.Atoi(p); err == nil {
			params.Page = page
		}
	}
	if ps := q.Get("page_size"); ps != "" {
		if pageSize, err := strconv.Atoi(ps); err == nil {
			params.PageSize = pageSize
		}
	}
	if from := q.Get("from"); from != "" {
		if t, err := time.Parse(time.RFC3339, from); err == nil {
			params.From = &t
		}
	}
	if to := q.Get("to"); to != "" {
		if t, err := time.Parse(time.RFC3339, to); err == nil {
			params.To = &t
		}
	}

	return params.Clamped()
}
