package templates

import (
	"context"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns public templates when public is set or the caller is anonymous,
// otherwise the caller's own templates.
func (s *Service) List(ctx context.Context, userID *uuid.UUID, public bool, category string) ([]Template, error) {
	f := Filter{Category: category}
	if !public && userID != nil {
		f.OwnerID = userID
	}
	list, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []Template{}
	}
	return list, nil
}

func (s *Service) Create(ctx context.Context, userID uuid.UUID, req *CreateRequest) (*Template, error) {
	t := &Template{
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Content:     req.Content,
		IsPublic:    req.IsPublic,
		IsPremium:   req.IsPremium,
		Tags:        []string(req.Tags),
	}
	if t.Tags == nil {
		t.Tags = []string{}
	}
	if req.IsPremium && req.Price != nil {
		t.Price = *req.Price
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}
