package brandvoices

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kukiwrite/kukiwrite/internal/auth"
)

const testKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

type memRepo struct {
	mu     sync.Mutex
	voices map[uuid.UUID]*Voice
}

func newMemRepo() *memRepo {
	return &memRepo{voices: make(map[uuid.UUID]*Voice)}
}

func (m *memRepo) unsetDefaults(userID, keep uuid.UUID) {
	for id, v := range m.voices {
		if v.UserID == userID && id != keep {
			v.IsDefault = false
		}
	}
}

func (m *memRepo) Create(_ context.Context, v *Voice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v.ID = uuid.New()
	v.CreatedAt = time.Now()
	v.UpdatedAt = v.CreatedAt
	if v.IsDefault {
		m.unsetDefaults(v.UserID, v.ID)
	}
	cp := *v
	m.voices[v.ID] = &cp
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id uuid.UUID) (*Voice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.voices[id]
	if !ok {
		return nil, nil
	}
	cp := *v
	return &cp, nil
}

func (m *memRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]Voice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Voice
	for _, v := range m.voices {
		if v.UserID == userID {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (m *memRepo) Update(_ context.Context, v *Voice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v.IsDefault {
		m.unsetDefaults(v.UserID, v.ID)
	}
	cp := *v
	m.voices[v.ID] = &cp
	return nil
}

func (m *memRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.voices, id)
	return nil
}

func (m *memRepo) defaults(userID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, v := range m.voices {
		if v.UserID == userID && v.IsDefault {
			n++
		}
	}
	return n
}

func newTestService(t *testing.T) (*Service, *memRepo) {
	t.Helper()
	enc, err := auth.NewEncryptor(testKey)
	require.NoError(t, err)
	repo := newMemRepo()
	return NewService(repo, enc), repo
}

func TestCreate_EncryptsGuidelinesAtRest(t *testing.T) {
	svc, repo := newTestService(t)
	userID := uuid.New()

	v, err := svc.Create(context.Background(), userID, &CreateRequest{Name: "Acme", Guidelines: "Short sentences."})
	require.NoError(t, err)
	assert.Equal(t, "Short sentences.", v.Guidelines)
	assert.Equal(t, []string{}, v.Examples)

	stored := repo.voices[v.ID]
	assert.NotEqual(t, "Short sentences.", stored.Guidelines)
	assert.NotContains(t, stored.Guidelines, "Short")

	got, err := svc.GetByID(context.Background(), v.ID)
	require.NoError(t, err)
	assert.Equal(t, "Short sentences.", got.Guidelines)
}

func TestDefault_IsExclusivePerUser(t *testing.T) {
	svc, repo := newTestService(t)
	userID, other := uuid.New(), uuid.New()

	first, err := svc.Create(context.Background(), userID, &CreateRequest{Name: "A", Guidelines: "a", IsDefault: true})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), other, &CreateRequest{Name: "O", Guidelines: "o", IsDefault: true})
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), userID, &CreateRequest{Name: "B", Guidelines: "b", IsDefault: true})
	require.NoError(t, err)

	assert.Equal(t, 1, repo.defaults(userID))
	assert.Equal(t, 1, repo.defaults(other))
	assert.False(t, repo.voices[first.ID].IsDefault)
	assert.True(t, repo.voices[second.ID].IsDefault)

	isDefault := true
	_, err = svc.Update(context.Background(), first, &UpdateRequest{IsDefault: &isDefault})
	require.NoError(t, err)
	assert.Equal(t, 1, repo.defaults(userID))
	assert.True(t, repo.voices[first.ID].IsDefault)
}

func TestUpdate_ReencryptsGuidelines(t *testing.T) {
	svc, repo := newTestService(t)
	v, err := svc.Create(context.Background(), uuid.New(), &CreateRequest{Name: "A", Guidelines: "old"})
	require.NoError(t, err)

	g := "new rules"
	updated, err := svc.Update(context.Background(), v, &UpdateRequest{Guidelines: &g})
	require.NoError(t, err)
	assert.Equal(t, "new rules", updated.Guidelines)
	assert.Equal(t, "A", updated.Name)
	assert.NotEqual(t, "new rules", repo.voices[v.ID].Guidelines)
}

func TestGuidelines_OwnerOnly(t *testing.T) {
	svc, _ := newTestService(t)
	owner := uuid.New()
	v, err := svc.Create(context.Background(), owner, &CreateRequest{Name: "A", Guidelines: "be bold"})
	require.NoError(t, err)

	g, found, err := svc.Guidelines(context.Background(), owner, v.ID)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "be bold", g)

	_, found, err = svc.Guidelines(context.Background(), uuid.New(), v.ID)
	require.NoError(t, err)
	assert.False(t, found)

	_, found, err = svc.Guidelines(context.Background(), owner, uuid.New())
	require.NoError(t, err)
	assert.False(t, found)
}

func newTestRouter(h *Handler, userID uuid.UUID) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := auth.WithUserClaims(req.Context(), &auth.AccessClaims{UserID: userID.String()})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Get("/brand-voices", h.List)
	r.Post("/brand-voices", h.Create)
	r.Route("/brand-voices/{voiceID}", func(r chi.Router) {
		r.Use(h.OwnershipMiddleware)
		r.Patch("/", h.Update)
		r.Delete("/", h.Delete)
	})
	return r
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(method, path, strings.NewReader(body)))
	return rec
}

func TestHandler_CreateRequiresNameAndGuidelines(t *testing.T) {
	svc, _ := newTestService(t)
	router := newTestRouter(NewHandler(svc), uuid.New())

	rec := do(router, http.MethodPost, "/brand-voices", `{"name":"only name"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"error":"Name and guidelines are required"}`, rec.Body.String())
}

func TestHandler_Lifecycle(t *testing.T) {
	svc, _ := newTestService(t)
	userID := uuid.New()
	router := newTestRouter(NewHandler(svc), userID)

	rec := do(router, http.MethodPost, "/brand-voices", `{"name":"Acme","guidelines":"Warm.","examples":["Hi!"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var created struct {
		Voice Voice `json:"voice"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Warm.", created.Voice.Guidelines)

	rec = do(router, http.MethodPatch, "/brand-voices/"+created.Voice.ID.String(), `{"name":"Acme 2"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"Acme 2"`)

	rec = do(router, http.MethodGet, "/brand-voices", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Voices []Voice `json:"voices"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed.Voices, 1)
	assert.Equal(t, "Warm.", listed.Voices[0].Guidelines)

	rec = do(router, http.MethodDelete, "/brand-voices/"+created.Voice.ID.String(), "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())
}

func TestHandler_ForeignVoiceIsNotFound(t *testing.T) {
	svc, _ := newTestService(t)
	v, err := svc.Create(context.Background(), uuid.New(), &CreateRequest{Name: "A", Guidelines: "g"})
	require.NoError(t, err)

	router := newTestRouter(NewHandler(svc), uuid.New())
	for _, method := range []string{http.MethodPatch, http.MethodDelete} {
		rec := do(router, method, "/brand-voices/"+v.ID.String(), `{}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.JSONEq(t, `{"error":"Brand voice not found"}`, rec.Body.String())
	}
}
