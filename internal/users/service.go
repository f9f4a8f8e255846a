package users

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// NormalizeEmail is the form emails are stored and looked up in.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Service) Create(ctx context.Context, email, name, passwordHash string) (*User, error) {
	now := s.now().UTC()
	user := &User{
		ID:           uuid.New(),
		Email:        NormalizeEmail(email),
		Name:         strings.TrimSpace(name),
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// GetByEmail returns nil, nil when no user has the address.
func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.GetByEmail(ctx, NormalizeEmail(email))
}

// GetByID returns nil, nil for an unknown id. Billing uses it to read the
// email a Stripe customer is created with.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return s.repo.ExistsByEmail(ctx, NormalizeEmail(email))
}

// UpdateProfile trims every supplied field before storing it.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, p ProfileUpdate) (*User, error) {
	return s.repo.UpdateProfile(ctx, id, ProfileUpdate{
		Name:     trimmed(p.Name),
		Image:    trimmed(p.Image),
		Phone:    trimmed(p.Phone),
		Headline: trimmed(p.Headline),
		Bio:      trimmed(p.Bio),
	})
}

func trimmed(f *string) *string {
	if f == nil {
		return nil
	}
	t := strings.TrimSpace(*f)
	return &t
}
