package teams

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/kukiwrite/kukiwrite/internal/users"
)

var (
	ErrForbidden     = errors.New("not allowed to invite members")
	ErrUserNotFound  = errors.New("user not found")
	ErrAlreadyMember = errors.New("user is already a team member")
)

// UserLookup resolves invitees. users.Service satisfies it.
type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (*users.User, error)
}

type Service struct {
	repo  Repository
	users UserLookup
}

func NewService(repo Repository, lookup UserLookup) *Service {
	return &Service{repo: repo, users: lookup}
}

// List returns every team userID belongs to, members included.
func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]Team, error) {
	teams, err := s.repo.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(teams) == 0 {
		return []Team{}, nil
	}
	if err := s.attachMembers(ctx, teams); err != nil {
		return nil, err
	}
	return teams, nil
}

func (s *Service) Create(ctx context.Context, ownerID uuid.UUID, req *CreateRequest) (*Team, error) {
	t := &Team{
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		OwnerID:     ownerID,
		Role:        RoleOwner,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	created := []Team{*t}
	if err := s.attachMembers(ctx, created); err != nil {
		return nil, err
	}
	return &created[0], nil
}

func (s *Service) attachMembers(ctx context.Context, teams []Team) error {
	ids := make([]uuid.UUID, len(teams))
	for i, t := range teams {
		ids[i] = t.ID
	}
	members, err := s.repo.Members(ctx, ids)
	if err != nil {
		return err
	}
	for i := range teams {
		m := members[teams[i].ID]
		if m == nil {
			m = []Member{}
		}
		teams[i].Members = m
		teams[i].MemberCount = len(m)
	}
	return nil
}

// Invite adds the account registered under req.Email to the team. Only owners
// and admins may invite; a team the inviter is not on answers ErrForbidden.
func (s *Service) Invite(ctx context.Context, teamID, inviterID uuid.UUID, req *InviteRequest) (*Member, error) {
	role, ok, err := s.repo.MemberRole(ctx, teamID, inviterID)
	if err != nil {
		return nil, err
	}
	if !ok || !role.CanInvite() {
		return nil, ErrForbidden
	}

	invitee, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if invitee == nil {
		return nil, ErrUserNotFound
	}

	if _, ok, err := s.repo.MemberRole(ctx, teamID, invitee.ID); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrAlreadyMember
	}

	newRole := req.Role
	if newRole == "" {
		newRole = RoleEditor
	}
	if err := s.repo.AddMember(ctx, teamID, invitee.ID, newRole); err != nil {
		return nil, err
	}
	return &Member{
		ID:    invitee.ID,
		Name:  invitee.Name,
		Email: invitee.Email,
		Image: invitee.Image,
		Role:  newRole,
	}, nil
}
