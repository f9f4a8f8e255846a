package brandvoices

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/kukiwrite/kukiwrite/internal/auth"
)

type Service struct {
	repo      Repository
	encryptor *auth.Encryptor
}

func NewService(repo Repository, encryptor *auth.Encryptor) *Service {
	return &Service{
		repo:      repo,
		encryptor: encryptor,
	}
}

func (s *Service) Create(ctx context.Context, userID uuid.UUID, req *CreateRequest) (*Voice, error) {
	examples := req.Examples
	if examples == nil {
		examples = []string{}
	}
	v := &Voice{
		UserID:      userID,
		Name:        req.Name,
		Description: req.Description,
		Guidelines:  req.Guidelines,
		Examples:    examples,
		IsDefault:   req.IsDefault,
	}
	if err := s.store(ctx, v, s.repo.Create); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Voice, error) {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	if err := s.decrypt(v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Service) List(ctx context.Context, userID uuid.UUID) ([]Voice, error) {
	voices, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if voices == nil {
		voices = []Voice{}
	}
	for i := range voices {
		if err := s.decrypt(&voices[i]); err != nil {
			return nil, err
		}
	}
	return voices, nil
}

func (s *Service) Update(ctx context.Context, voice *Voice, req *UpdateRequest) (*Voice, error) {
	v := *voice
	if req.Name != nil {
		v.Name = *req.Name
	}
	if req.Description != nil {
		v.Description = *req.Description
	}
	if req.Guidelines != nil {
		v.Guidelines = *req.Guidelines
	}
	if req.Examples != nil {
		v.Examples = *req.Examples
	}
	if req.IsDefault != nil {
		v.IsDefault = *req.IsDefault
	}
	if err := s.store(ctx, &v, s.repo.Update); err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// Guidelines returns the decrypted guidelines of a voice owned by userID.
func (s *Service) Guidelines(ctx context.Context, userID, voiceID uuid.UUID) (string, bool, error) {
	v, err := s.GetByID(ctx, voiceID)
	if err != nil {
		return "", false, err
	}
	if v == nil || v.UserID != userID {
		return "", false, nil
	}
	return v.Guidelines, true, nil
}

// store writes v with its guidelines encrypted, leaving v holding plaintext.
func (s *Service) store(ctx context.Context, v *Voice, write func(context.Context, *Voice) error) error {
	plain := v.Guidelines
	encrypted, err := s.encryptor.Seal(plain, v.UserID)
	if err != nil {
		return fmt.Errorf("encrypting guidelines: %w", err)
	}
	v.Guidelines = encrypted
	err = write(ctx, v)
	v.Guidelines = plain
	return err
}

func (s *Service) decrypt(v *Voice) error {
	plain, err := s.encryptor.Open(v.Guidelines, v.UserID)
	if err != nil {
		return fmt.Errorf("decrypting guidelines: %w", err)
	}
	v.Guidelines = plain
	return nil
}
