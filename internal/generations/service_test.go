package generations

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kukiwrite/kukiwrite/internal/auth"
)

type memRepo struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*Generation
}

func newMemRepo() *memRepo {
	return &memRepo{rows: make(map[uuid.UUID]*Generation)}
}

func (m *memRepo) InsertPending(_ context.Context, _ pgx.Tx, g *Generation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g.ID = uuid.New()
	g.Status = StatusPending
	g.CreatedAt = time.Now()
	cp := *g
	m.rows[g.ID] = &cp
	return nil
}

func (m *memRepo) Complete(_ context.Context, id uuid.UUID, output, model string, tokens int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g := m.rows[id]
	g.Output, g.Model, g.TokensUsed, g.Status = output, model, tokens, StatusCompleted
	return nil
}

func (m *memRepo) DeletePending(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok := m.rows[id]; ok && g.Status == StatusPending {
		delete(m.rows, id)
	}
	return nil
}

func (m *memRepo) owned(userID, id uuid.UUID) *Generation {
	g, ok := m.rows[id]
	if !ok || g.UserID != userID || g.Status != StatusCompleted {
		return nil
	}
	return g
}

func (m *memRepo) GetByID(_ context.Context, userID, id uuid.UUID) (*Generation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.owned(userID, id), nil
}

func (m *memRepo) List(_ context.Context, userID uuid.UUID, f ListFilter) ([]Generation, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var all []Generation
	for _, g := range m.rows {
		if g.UserID != userID || g.Status != StatusCompleted {
			continue
		}
		if f.Type != "" && g.Type != f.Type {
			continue
		}
		if f.Search != "" {
			s := strings.ToLower(f.Search)
			if !strings.Contains(strings.ToLower(g.Input), s) && !strings.Contains(strings.ToLower(g.Output), s) {
				continue
			}
		}
		all = append(all, *g)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	total := int64(len(all))
	if f.Offset >= len(all) {
		return nil, total, nil
	}
	end := min(f.Offset+f.Limit, len(all))
	return all[f.Offset:end], total, nil
}

func (m *memRepo) Update(_ context.Context, userID, id uuid.UUID, p Patch) (*Generation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g := m.owned(userID, id)
	if g == nil {
		return nil, nil
	}
	if p.IsFavorite != nil {
		g.IsFavorite = *p.IsFavorite
	}
	if p.Tags != nil {
		g.Tags = p.Tags
	}
	if p.Category != nil {
		g.Category = *p.Category
	}
	cp := *g
	return &cp, nil
}

func (m *memRepo) SetScore(_ context.Context, userID, id uuid.UUID, score int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.rows[id]
	if !ok || g.UserID != userID {
		return false, nil
	}
	g.Score = &score
	return true, nil
}

func (m *memRepo) Delete(_ context.Context, userID, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.rows[id]
	if !ok || g.UserID != userID {
		return false, nil
	}
	delete(m.rows, id)
	return true, nil
}

func seed(t *testing.T, svc *Service, userID uuid.UUID, typ Type, input, output string) *Generation {
	t.Helper()
	g := &Generation{UserID: userID, Type: typ, Input: input}
	require.NoError(t, svc.InsertPending(context.Background(), nil, g))
	require.NoError(t, svc.Complete(context.Background(), g.ID, output, "gpt-4o-mini", 10))
	time.Sleep(time.Millisecond)
	return g
}

func TestService_ReserveCompleteRelease(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	ctx := context.Background()
	userID := uuid.New()

	pending := &Generation{UserID: userID, Type: TypeBlog, Input: `{"title":"x"}`}
	require.NoError(t, svc.InsertPending(ctx, nil, pending))
	assert.NotEqual(t, uuid.Nil, pending.ID)

	list, total, err := svc.List(ctx, userID, ListFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.Zero(t, total)

	require.NoError(t, svc.Release(ctx, pending.ID))
	assert.Empty(t, repo.rows)

	done := seed(t, svc, userID, TypeBlog, "in", "out")
	got, err := svc.Get(ctx, userID, done.ID)
	require.NoError(t, err)
	assert.Equal(t, "out", got.Output)
	assert.Equal(t, StatusCompleted, got.Status)

	require.NoError(t, svc.Release(ctx, done.ID))
	_, err = svc.Get(ctx, userID, done.ID)
	assert.NoError(t, err)
}

func TestService_ListFiltersAndOrder(t *testing.T) {
	svc := NewService(newMemRepo())
	ctx := context.Background()
	userID := uuid.New()

	first := seed(t, svc, userID, TypeBlog, "golang tips", "body")
	second := seed(t, svc, userID, TypeSEO, "keyword", "Golang SEO plan")
	seed(t, svc, uuid.New(), TypeBlog, "golang", "someone else")

	list, total, err := svc.List(ctx, userID, ListFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	list, _, err = svc.List(ctx, userID, ListFilter{Type: TypeSEO})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, second.ID, list[0].ID)

	list, _, err = svc.List(ctx, userID, ListFilter{Search: "GOLANG"})
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, total, err = svc.List(ctx, userID, ListFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, list, 1)
	assert.Equal(t, first.ID, list[0].ID)
}

func TestService_OwnershipScoped(t *testing.T) {
	svc := NewService(newMemRepo())
	ctx := context.Background()
	owner, other := uuid.New(), uuid.New()
	g := seed(t, svc, owner, TypeBlog, "in", "out")

	_, err := svc.Get(ctx, other, g.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	fav := true
	_, err = svc.Update(ctx, other, g.ID, Patch{IsFavorite: &fav})
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, svc.SetScore(ctx, other, g.ID, 90), ErrNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, other, g.ID), ErrNotFound)

	require.NoError(t, svc.SetScore(ctx, owner, g.ID, 88))
	got, err := svc.Get(ctx, owner, g.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Score)
	assert.Equal(t, 88, *got.Score)

	require.NoError(t, svc.Delete(ctx, owner, g.ID))
	_, err = svc.Get(ctx, owner, g.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func newTestRouter(h *Handler, userID uuid.UUID) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := auth.WithUserClaims(req.Context(), &auth.AccessClaims{UserID: userID.String()})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Get("/generations", h.List)
	r.Get("/generations/{generationID}", h.Get)
	r.Patch("/generations/{generationID}", h.Update)
	r.Delete("/generations/{generationID}", h.Delete)
	return r
}

func TestHandler_ListPaginated(t *testing.T) {
	svc := NewService(newMemRepo())
	userID := uuid.New()
	for i := 0; i < 3; i++ {
		seed(t, svc, userID, TypeHashtags, "topic", "#go")
	}
	router := newTestRouter(NewHandler(svc), userID)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/generations?limit=2&offset=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data       []Generation `json:"data"`
		TotalCount int64        `json:"total_count"`
		Page       int          `json:"page"`
		PageSize   int          `json:"page_size"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Len(t, body.Data, 1)
	assert.EqualValues(t, 3, body.TotalCount)
	assert.Equal(t, 2, body.Page)
	assert.Equal(t, 2, body.PageSize)
}

func TestHandler_ListRejectsUnknownType(t *testing.T) {
	router := newTestRouter(NewHandler(NewService(newMemRepo())), uuid.New())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/generations?type=POEM", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_UpdateFavorite(t *testing.T) {
	svc := NewService(newMemRepo())
	userID := uuid.New()
	g := seed(t, svc, userID, TypeBlog, "in", "out")
	router := newTestRouter(NewHandler(svc), userID)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPatch, "/generations/"+g.ID.String(),
		strings.NewReader(`{"isFavorite":true,"tags":["launch"]}`))
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Data Generation `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.True(t, body.Data.IsFavorite)
	assert.Equal(t, []string{"launch"}, body.Data.Tags)
}

func TestHandler_DeleteForeignIs404(t *testing.T) {
	svc := NewService(newMemRepo())
	g := seed(t, svc, uuid.New(), TypeBlog, "in", "out")
	router := newTestRouter(NewHandler(svc), uuid.New())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/generations/"+g.ID.String(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Generation not found")
}

func TestHandler_InvalidID(t *testing.T) {
	router := newTestRouter(NewHandler(NewService(newMemRepo())), uuid.New())
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/generations/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
