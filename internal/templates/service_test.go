package templates

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kukiwrite/kukiwrite/internal/auth"
)

type fakeRepo struct {
	created []*Template
	filters []Filter
	list    []Template
}

func (f *fakeRepo) Create(_ context.Context, t *Template) error {
	t.ID = uuid.New()
	f.created = append(f.created, t)
	return nil
}

func (f *fakeRepo) List(_ context.Context, filter Filter) ([]Template, error) {
	f.filters = append(f.filters, filter)
	return f.list, nil
}

func TestTags_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want Tags
	}{
		{"array", `["seo","blog"]`, Tags{"seo", "blog"}},
		{"comma string", `" seo, blog ,,email "`, Tags{"seo", "blog", "email"}},
		{"empty string", `""`, Tags{}},
		{"number", `42`, Tags{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got Tags
			require.NoError(t, json.Unmarshal([]byte(tt.in), &got))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestService_ListScope(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)
	userID := uuid.New()

	list, err := svc.List(context.Background(), nil, false, "")
	require.NoError(t, err)
	assert.NotNil(t, list)

	_, err = svc.List(context.Background(), &userID, false, "email")
	require.NoError(t, err)
	_, err = svc.List(context.Background(), &userID, true, "")
	require.NoError(t, err)

	require.Len(t, repo.filters, 3)
	assert.Nil(t, repo.filters[0].OwnerID, "anonymous sees public")
	require.NotNil(t, repo.filters[1].OwnerID)
	assert.Equal(t, userID, *repo.filters[1].OwnerID)
	assert.Equal(t, "email", repo.filters[1].Category)
	assert.Nil(t, repo.filters[2].OwnerID, "public=true overrides ownership")
}

func TestService_CreatePriceOnlyForPremium(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo)
	price := 9.99

	free, err := svc.Create(context.Background(), uuid.New(), &CreateRequest{Name: "n", Category: "c", Content: "x", Price: &price})
	require.NoError(t, err)
	assert.Zero(t, free.Price)
	assert.Equal(t, []string{}, free.Tags)

	premium, err := svc.Create(context.Background(), uuid.New(), &CreateRequest{Name: "n", Category: "c", Content: "x", IsPremium: true, Price: &price})
	require.NoError(t, err)
	assert.InDelta(t, 9.99, premium.Price, 0.0001)
}

func TestHandler_Create(t *testing.T) {
	repo := &fakeRepo{}
	h := NewHandler(NewService(repo))
	userID := uuid.New()

	req := httptest.NewRequest(http.MethodPost, "/templates",
		strings.NewReader(`{"name":"Launch","category":"email","content":"Hi {{name}}","tags":"launch, email"}`))
	req = req.WithContext(auth.WithUserClaims(req.Context(), &auth.AccessClaims{UserID: userID.String()}))
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, repo.created, 1)
	assert.Equal(t, userID, repo.created[0].UserID)
	assert.Equal(t, []string{"launch", "email"}, repo.created[0].Tags)

	req = httptest.NewRequest(http.MethodPost, "/templates", strings.NewReader(`{"name":"Launch"}`))
	req = req.WithContext(auth.WithUserClaims(req.Context(), &auth.AccessClaims{UserID: userID.String()}))
	rec = httptest.NewRecorder()
	h.Create(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Name, category, and content are required"}`, rec.Body.String())
}

func TestHandler_ListAnonymous(t *testing.T) {
	repo := &fakeRepo{list: []Template{{Name: "Public one", IsPublic: true}}}
	h := NewHandler(NewService(repo))

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/templates?category=blog", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Templates []Template `json:"templates"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Templates, 1)
	assert.Equal(t, "Public one", resp.Templates[0].Name)
	assert.Nil(t, repo.filters[0].OwnerID)
	assert.Equal(t, "blog", repo.filters[0].Category)
}
