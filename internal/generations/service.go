package generations

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// ErrNotFound is returned when a generation does not exist or belongs to another user.
var ErrNotFound = errors.New("generation not found")

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// InsertPending writes a reservation row inside the caller's transaction.
func (s *Service) InsertPending(ctx context.Context, tx pgx.Tx, g *Generation) error {
	return s.repo.InsertPending(ctx, tx, g)
}

// Complete fills a reserved row with the model output.
func (s *Service) Complete(ctx context.Context, id uuid.UUID, output, model string, tokensUsed int) error {
	return s.repo.Complete(ctx, id, output, model, tokensUsed)
}

// Release drops a reservation whose provider call failed, returning the quota slot.
func (s *Service) Release(ctx context.Context, id uuid.UUID) error {
	return s.repo.DeletePending(ctx, id)
}

func (s *Service) Get(ctx context.Context, userID, id uuid.UUID) (*Generation, error) {
	g, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrNotFound
	}
	return g, nil
}

func (s *Service) List(ctx context.Context, userID uuid.UUID, f ListFilter) ([]Generation, int64, error) {
	f = f.normalize()
	list, total, err := s.repo.List(ctx, userID, f)
	if err != nil {
		return nil, 0, err
	}
	if list == nil {
		list = []Generation{}
	}
	return list, total, nil
}

func (s *Service) Update(ctx context.Context, userID, id uuid.UUID, p Patch) (*Generation, error) {
	g, err := s.repo.Update(ctx, userID, id, p)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, ErrNotFound
	}
	return g, nil
}

func (s *Service) SetScore(ctx context.Context, userID, id uuid.UUID, score int) error {
	ok, err := s.repo.SetScore(ctx, userID, id, score)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	ok, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return fmt.Errorf("deleting generation: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return nil
}
