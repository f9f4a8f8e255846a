package apikeys

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kukiwrite/kukiwrite/internal/api"
	"github.com/kukiwrite/kukiwrite/internal/governance/audit"
	"github.com/kukiwrite/kukiwrite/internal/governance/quota"
	inats "github.com/kukiwrite/kukiwrite/internal/nats"
)

// ErrNotFound is returned when a key does not exist or belongs to another user.
var ErrNotFound = errors.New("api key not found")

// PlanResolver tells whether a user is on the paid plan.
type PlanResolver interface {
	ResolvePlan(ctx context.Context, userID uuid.UUID) (quota.Plan, error)
}

type Service struct {
	repo  Repository
	plans PlanResolver
	audit *audit.Recorder
	now   func() time.Time
}

func NewService(repo Repository, plans PlanResolver, auditor *audit.Recorder) *Service {
	return &Service{
		repo:  repo,
		plans: plans,
		audit: auditor,
		now:   time.Now,
	}
}

// generateKey returns kuki_ followed by 32 URL-safe random characters.
func generateKey() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating api key: %w", err)
	}
	return KeyPrefix + base64.RawURLEncoding.EncodeToString(b), nil
}

func hashKey(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func mask(k APIKey) MaskedKey {
	return MaskedKey{APIKey: k, Key: KeyPrefix + k.KeyHash[max(len(k.KeyHash)-8, 0):]}
}

func (s *Service) requirePro(ctx context.Context, userID uuid.UUID) error {
	plan, err := s.plans.ResolvePlan(ctx, userID)
	if err != nil {
		return err
	}
	if plan != quota.PlanPro {
		return api.ErrProRequired
	}
	return nil
}

func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]MaskedKey, error) {
	if err := s.requirePro(ctx, userID); err != nil {
		return nil, err
	}
	keys, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	masked := make([]MaskedKey, 0, len(keys))
	for _, k := range keys {
		masked = append(masked, mask(k))
	}
	return masked, nil
}

func (s *Service) Create(ctx context.Context, userID uuid.UUID, req CreateRequest) (*CreatedKey, error) {
	if err := s.requirePro(ctx, userID); err != nil {
		return nil, err
	}

	raw, err := generateKey()
	if err != nil {
		return nil, err
	}

	k := &APIKey{
		UserID:  userID,
		Name:    req.Name,
		KeyHash: hashKey(raw),
	}
	if req.ExpiresInDays != nil {
		exp := s.now().Add(time.Duration(*req.ExpiresInDays) * 24 * time.Hour)
		k.ExpiresAt = &exp
	}
	if err := s.repo.Create(ctx, k); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, inats.AuditEvent{
		OwnerUserID:  userID,
		EventType:    audit.EventAPIKeyCreated,
		ResourceType: "api_key",
		ResourceID:   k.ID.String(),
		Details:      k.Name,
	})

	return &CreatedKey{
		ID:        k.ID,
		Name:      k.Name,
		Key:       raw,
		CreatedAt: k.CreatedAt,
		ExpiresAt: k.ExpiresAt,
	}, nil
}

func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	ok, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	s.audit.Record(ctx, inats.AuditEvent{
		OwnerUserID:  userID,
		EventType:    audit.EventAPIKeyRevoked,
		ResourceType: "api_key",
		ResourceID:   id.String(),
	})
	return nil
}

// AuthenticateKey returns the owner's user ID for a valid, unexpired key,
// or an empty string when the key is unknown.
func (s *Service) AuthenticateKey(ctx context.Context, raw string) (string, error) {
	if !strings.HasPrefix(raw, KeyPrefix) {
		return "", nil
	}
	k, err := s.repo.GetByHash(ctx, hashKey(raw))
	if err != nil {
		return "", err
	}
	now := s.now()
	if k == nil || k.Expired(now) {
		return "", nil
	}
	if err := s.repo.TouchLastUsed(ctx, k.ID, now); err != nil {
		slog.Warn("recording api key use", "error", err, "key_id", k.ID)
	}
	return k.UserID.String(), nil
}
