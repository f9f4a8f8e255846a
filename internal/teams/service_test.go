package teams

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kukiwrite/kukiwrite/internal/auth"
	"github.com/kukiwrite/kukiwrite/internal/users"
)

type membership struct {
	teamID, userID uuid.UUID
	role           Role
}

type memRepo struct {
	mu      sync.Mutex
	teams   map[uuid.UUID]Team
	members []membership
	people  map[uuid.UUID]users.User
}

func (m *memRepo) Create(_ context.Context, t *Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t.ID = uuid.New()
	t.CreatedAt = time.Now()
	m.teams[t.ID] = *t
	m.members = append(m.members, membership{t.ID, t.OwnerID, RoleOwner})
	return nil
}

func (m *memRepo) ListForUser(_ context.Context, userID uuid.UUID) ([]Team, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Team
	for _, ms := range m.members {
		if ms.userID == userID {
			t := m.teams[ms.teamID]
			t.Role = ms.role
			out = append(out, t)
		}
	}
	return out, nil
}

func (m *memRepo) Members(_ context.Context, teamIDs []uuid.UUID) (map[uuid.UUID][]Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[uuid.UUID][]Member{}
	for _, id := range teamIDs {
		for _, ms := range m.members {
			if ms.teamID == id {
				u := m.people[ms.userID]
				out[id] = append(out[id], Member{ID: u.ID, Name: u.Name, Email: u.Email, Role: ms.role})
			}
		}
	}
	return out, nil
}

func (m *memRepo) MemberRole(_ context.Context, teamID, userID uuid.UUID) (Role, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ms := range m.members {
		if ms.teamID == teamID && ms.userID == userID {
			return ms.role, true, nil
		}
	}
	return "", false, nil
}

func (m *memRepo) AddMember(_ context.Context, teamID, userID uuid.UUID, role Role) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ms := range m.members {
		if ms.teamID == teamID && ms.userID == userID {
			return ErrAlreadyMember
		}
	}
	m.members = append(m.members, membership{teamID, userID, role})
	return nil
}

func (m *memRepo) GetByEmail(_ context.Context, email string) (*users.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.people {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, nil
}

func (m *memRepo) person(name string) uuid.UUID {
	u := users.User{ID: uuid.New(), Name: name, Email: name + "@kukiwrite.test"}
	m.people[u.ID] = u
	return u.ID
}

func newTestService() (*Service, *memRepo) {
	repo := &memRepo{teams: map[uuid.UUID]Team{}, people: map[uuid.UUID]users.User{}}
	return NewService(repo, repo), repo
}

func TestCreate_OwnerIsFirstMember(t *testing.T) {
	svc, repo := newTestService()
	owner := repo.person("ana")

	team, err := svc.Create(context.Background(), owner, &CreateRequest{Name: " Growth ", Description: "Launch squad"})
	require.NoError(t, err)
	assert.Equal(t, "Growth", team.Name)
	assert.Equal(t, RoleOwner, team.Role)
	assert.Equal(t, 1, team.MemberCount)
	require.Len(t, team.Members, 1)
	assert.Equal(t, owner, team.Members[0].ID)
	assert.Equal(t, RoleOwner, team.Members[0].Role)
}

func TestList_ShowsCallerRole(t *testing.T) {
	svc, repo := newTestService()
	owner, editor, outsider := repo.person("ana"), repo.person("bea"), repo.person("caio")

	team, err := svc.Create(context.Background(), owner, &CreateRequest{Name: "Growth"})
	require.NoError(t, err)
	_, err = svc.Invite(context.Background(), team.ID, owner, &InviteRequest{Email: "bea@kukiwrite.test"})
	require.NoError(t, err)

	list, err := svc.List(context.Background(), editor)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, RoleEditor, list[0].Role)
	assert.Equal(t, 2, list[0].MemberCount)

	list, err = svc.List(context.Background(), outsider)
	require.NoError(t, err)
	assert.Equal(t, []Team{}, list)
}

func TestInvite(t *testing.T) {
	svc, repo := newTestService()
	owner := repo.person("ana")
	admin, viewer, outsider := repo.person("bea"), repo.person("caio"), repo.person("dani")
	repo.person("eva")

	team, err := svc.Create(context.Background(), owner, &CreateRequest{Name: "Growth"})
	require.NoError(t, err)
	_, err = svc.Invite(context.Background(), team.ID, owner, &InviteRequest{Email: "bea@kukiwrite.test", Role: RoleAdmin})
	require.NoError(t, err)
	_, err = svc.Invite(context.Background(), team.ID, owner, &InviteRequest{Email: "caio@kukiwrite.test", Role: RoleViewer})
	require.NoError(t, err)

	tests := []struct {
		name    string
		inviter uuid.UUID
		teamID  uuid.UUID
		email   string
		wantErr error
	}{
		{"viewer cannot invite", viewer, team.ID, "eva@kukiwrite.test", ErrForbidden},
		{"outsider cannot invite", outsider, team.ID, "eva@kukiwrite.test", ErrForbidden},
		{"unknown team", owner, uuid.New(), "eva@kukiwrite.test", ErrForbidden},
		{"unknown email", owner, team.ID, "ghost@kukiwrite.test", ErrUserNotFound},
		{"existing member", admin, team.ID, "caio@kukiwrite.test", ErrAlreadyMember},
		{"admin invites", admin, team.ID, "eva@kukiwrite.test", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := svc.Invite(context.Background(), tt.teamID, tt.inviter, &InviteRequest{Email: tt.email})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, m)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.email, m.Email)
			assert.Equal(t, RoleEditor, m.Role)
		})
	}
}

func newRouter(h *Handler, userID uuid.UUID) http.Handler {
	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ctx := auth.WithUserClaims(req.Context(), &auth.AccessClaims{UserID: userID.String()})
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Get("/teams", h.List)
	r.Post("/teams", h.Create)
	r.Post("/teams/{teamID}/invite", h.Invite)
	return r
}

func send(t *testing.T, r http.Handler, method, path string, body any) (int, map[string]any) {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(method, path, bytes.NewReader(b)))
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return rec.Code, out
}

func TestHandler_CreateAndInvite(t *testing.T) {
	svc, repo := newTestService()
	owner := repo.person("ana")
	repo.person("bea")
	r := newRouter(NewHandler(svc), owner)

	status, body := send(t, r, http.MethodPost, "/teams", map[string]string{"name": "  "})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Team name is required", body["error"])

	status, body = send(t, r, http.MethodPost, "/teams", map[string]string{"name": "Growth"})
	require.Equal(t, http.StatusOK, status)
	team := body["team"].(map[string]any)
	assert.EqualValues(t, 1, team["memberCount"])
	invite := "/teams/" + team["id"].(string) + "/invite"

	status, body = send(t, r, http.MethodPost, invite, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Email is required", body["error"])

	status, _ = send(t, r, http.MethodPost, invite, map[string]string{"email": "bea@kukiwrite.test", "role": "owner"})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = send(t, r, http.MethodPost, invite, map[string]string{"email": "ghost@kukiwrite.test"})
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "User not found", body["error"])

	status, body = send(t, r, http.MethodPost, invite, map[string]string{"email": "bea@kukiwrite.test", "role": "viewer"})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "viewer", body["member"].(map[string]any)["role"])

	status, body = send(t, r, http.MethodPost, invite, map[string]string{"email": "bea@kukiwrite.test"})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "User is already a team member", body["error"])

	status, _ = send(t, r, http.MethodPost, "/teams/not-a-uuid/invite", map[string]string{"email": "bea@kukiwrite.test"})
	assert.Equal(t, http.StatusForbidden, status)

	status, body = send(t, r, http.MethodGet, "/teams", nil)
	require.Equal(t, http.StatusOK, status)
	list := body["teams"].([]any)
	require.Len(t, list, 1)
	assert.EqualValues(t, 2, list[0].(map[string]any)["memberCount"])
}
