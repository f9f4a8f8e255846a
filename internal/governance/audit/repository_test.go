package audit

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestOwnerFilter_OwnerOnly(t *testing.T) {
	owner := uuid.New()
	f := ownerFilter(owner, DefaultListParams())

	assert.Equal(t, "owner_user_id = $1", f.where())
	assert.Equal(t, []any{owner}, f.args)
}

func TestOwnerFilter_AllFilters(t *testing.T) {
	owner := uuid.New()
	resource := uuid.New()
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	f := ownerFilter(owner, ListParams{
		EventType:  EventQuotaExceeded,
		Severity:   SeverityWarn,
		ResourceID: &resource,
		From:       &from,
		To:         &to,
	})

	assert.Equal(t,
		"owner_user_id = $1 AND resource_id = $2 AND event_type = $3 AND severity = $4 AND created_at >= $5 AND created_at <= $6",
		f.where())
	assert.Equal(t, []any{owner, resource, EventQuotaExceeded, SeverityWarn, from, to}, f.args)
}

func TestListParams_Clamped(t *testing.T) {
	huge := ListParams{Page: int(^uint(0) >> 1), PageSize: MaxPageSize}.Clamped()
	assert.Equal(t, MaxPage, huge.Page)
	assert.Equal(t, MaxPageSize, huge.PageSize)

	offset := (huge.Page - 1) * huge.PageSize
	assert.Positive(t, offset)

	low := ListParams{Page: 0, PageSize: MaxPageSize + 1}.Clamped()
	assert.Equal(t, DefaultListParams(), low)
}
