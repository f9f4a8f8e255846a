package governance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kukiwrite/kukiwrite/internal/auth"
	"github.com/kukiwrite/kukiwrite/internal/governance/audit"
	"github.com/kukiwrite/kukiwrite/internal/governance/quota"
)

type stubStore struct {
	used int
	pro  bool
}

func (s stubStore) HasActiveSubscription(context.Context, uuid.UUID, time.Time) (bool, error) {
	return s.pro, nil
}

func (s stubStore) CountGenerationsSince(context.Context, uuid.UUID, time.Time) (int, error) {
	return s.used, nil
}

func (s stubStore) InUserLock(_ context.Context, _ uuid.UUID, fn func(quota.Reader, pgx.Tx) error) error {
	return fn(s, nil)
}

type stubAudit struct {
	params audit.ListParams
	logs   []audit.AuditLog
}

func (s *stubAudit) Insert(context.Context, *audit.AuditLog) error { return nil }

func (s *stubAudit) ListByOwner(_ context.Context, _ uuid.UUID, p audit.ListParams) ([]audit.AuditLog, int64, error) {
	s.params = p
	return s.logs, int64(len(s.logs)), nil
}

func withUser(r *http.Request, id uuid.UUID) *http.Request {
	return r.WithContext(auth.WithUserClaims(r.Context(), &auth.AccessClaims{UserID: id.String()}))
}

func TestHandler_Usage(t *testing.T) {
	svc := quota.NewService(stubStore{used: 12}, quota.DefaultLimits(), nil)
	h := NewHandler(svc, &stubAudit{})

	rec := httptest.NewRecorder()
	h.Usage(rec, withUser(httptest.NewRequest(http.MethodGet, "/api/v1/user/usage", nil), uuid.New()))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"usage":12,"limit":50,"plan":"FREE"}`, rec.Body.String())
}

func TestHandler_UsageUnauthenticated(t *testing.T) {
	h := NewHandler(quota.NewService(stubStore{}, quota.DefaultLimits(), nil), &stubAudit{})
	rec := httptest.NewRecorder()
	h.Usage(rec, httptest.NewRequest(http.MethodGet, "/api/v1/user/usage", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandler_RateLimit(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	svc := quota.NewService(stubStore{pro: true}, quota.DefaultLimits(), quota.NewRateWindow(rdb))
	h := NewHandler(svc, &stubAudit{})
	userID := uuid.New()

	svc.RecordCall(context.Background(), userID, quota.PlanPro)

	rec := httptest.NewRecorder()
	h.RateLimit(rec, withUser(httptest.NewRequest(http.MethodGet, "/api/v1/rate-limit", nil), userID))
	require.Equal(t, http.StatusOK, rec.Code)

	var body quota.RateStatus
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, 999, body.Remaining)
	assert.Equal(t, 1000, body.Limit)
	assert.Equal(t, "hour", body.Window)
	assert.False(t, body.ResetAt.IsZero())
}

func TestHandler_ListAuditLogsParsesFilters(t *testing.T) {
	store := &stubAudit{}
	h := NewHandler(quota.NewService(stubStore{}, quota.DefaultLimits(), nil), store)
	rid := uuid.New()

	req := httptest.NewRequest(http.MethodGet,
		"/api/v1/audit?event_type=quota_exceeded&severity=warn&page=2&page_size=5&resource_id="+rid.String()+"&from=2026-01-01T00:00:00Z",
		nil)
	rec := httptest.NewRecorder()
	h.ListAuditLogs(rec, withUser(req, uuid.New()))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "quota_exceeded", store.params.EventType)
	assert.Equal(t, "warn", store.params.Severity)
	assert.Equal(t, 2, store.params.Page)
	assert.Equal(t, 5, store.params.PageSize)
	require.NotNil(t, store.params.ResourceID)
	assert.Equal(t, rid, *store.params.ResourceID)
	require.NotNil(t, store.params.From)
	assert.Nil(t, store.params.To)
	assert.Contains(t, rec.Body.String(), `"data":[]`)
}

func TestHandler_ListAuditLogsClampsPaging(t *testing.T) {
	tests := []struct {
		query    string
		page     int
		pageSize int
	}{
		{"page=9223372036854775807", audit.MaxPage, 20},
		{"page=10001&page_size=100", audit.MaxPage, 100},
		{"page=-3&page_size=0", 1, 20},
		{"page=abc&page_size=500", 1, 20},
		{"page=99999999999999999999", 1, 20},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			store := &stubAudit{}
			h := NewHandler(quota.NewService(stubStore{}, quota.DefaultLimits(), nil), store)

			rec := httptest.NewRecorder()
			h.ListAuditLogs(rec, withUser(httptest.NewRequest(http.MethodGet, "/api/v1/audit?"+tt.query, nil), uuid.New()))

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.page, store.params.Page)
			assert.Equal(t, tt.pageSize, store.params.PageSize)
		})
	}
}
