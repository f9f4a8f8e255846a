package referrals

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

const (
	CodePrefix   = "KUKI-"
	codeLength   = 8
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeAttempts = 5
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUnknownCode  = errors.New("unknown referral code")
	ErrSelfReferral = errors.New("cannot refer yourself")
)

type Service struct {
	repo        Repository
	frontendURL string
	newCode     func() (string, error)
}

func NewService(repo Repository, frontendURL string) *Service {
	return &Service{
		repo:        repo,
		frontendURL: strings.TrimRight(frontendURL, "/"),
		newCode:     generateCode,
	}
}

// generateCode returns KUKI- followed by 8 random uppercase letters or digits.
func generateCode() (string, error) {
	b := make([]byte, codeLength)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generating referral code: %w", err)
	}
	for i := range b {
		b[i] = codeAlphabet[int(b[i])%len(codeAlphabet)]
	}
	return CodePrefix + string(b), nil
}

// Summary returns the caller's referral code, creating it on first use, with
// every account they referred.
func (s *Service) Summary(ctx context.Context, userID uuid.UUID) (*Summary, error) {
	account, err := s.repo.Account(ctx, userID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrUserNotFound
	}

	code := ""
	if account.Code != nil {
		code = *account.Code
	} else if code, err = s.assignCode(ctx, userID); err != nil {
		return nil, err
	}

	refs, err := s.repo.ListByReferrer(ctx, userID)
	if err != nil {
		return nil, err
	}
	if refs == nil {
		refs = []Referral{}
	}

	return &Summary{
		ReferralCode: code,
		Earnings:     account.Earnings,
		Referrals:    refs,
		ReferralLink: s.link(code),
	}, nil
}

func (s *Service) assignCode(ctx context.Context, userID uuid.UUID) (string, error) {
	for range codeAttempts {
		code, err := s.newCode()
		if err != nil {
			return "", err
		}
		assigned, err := s.repo.AssignCode(ctx, userID, code)
		if errors.Is(err, ErrCodeTaken) {
			continue
		}
		return assigned, err
	}
	return "", fmt.Errorf("assigning referral code: %w", ErrCodeTaken)
}

func (s *Service) link(code string) string {
	return s.frontendURL + "/register?ref=" + url.QueryEscape(code)
}

// Attribute records that referredID signed up with code.
func (s *Service) Attribute(ctx context.Context, code string, referredID uuid.UUID) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	referrerID, ok, err := s.repo.OwnerOfCode(ctx, code)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCode, code)
	}
	if referrerID == referredID {
		return ErrSelfReferral
	}
	return s.repo.Create(ctx, referrerID, referredID)
}
