package apikeys

import (
	"time"

	"github.com/google/uuid"
)

// KeyPrefix starts every issued key.
const KeyPrefix = "kuki_"

// APIKey is the stored form of a key. KeyHash is the sha256 hex of the raw key.
type APIKey struct {
	ID         uuid.UUID  `json:"id"`
	UserID     uuid.UUID  `json:"-"`
	Name       string     `json:"name"`
	KeyHash    string     `json:"-"`
	LastUsedAt *time.Time `json:"lastUsed"`
	ExpiresAt  *time.Time `json:"expiresAt"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// Expired reports whether the key has an expiry at or before now.
func (k *APIKey) Expired(now time.Time) bool {
	return k.ExpiresAt != nil && !k.ExpiresAt.After(now)
}

// MaskedKey is how a key is shown after creation.
type MaskedKey struct {
	APIKey
	Key string `json:"key"`
}

// CreatedKey carries the raw key. It is returned exactly once.
type CreatedKey struct {
	ID        uuid.UUID  `json:"id"`
	Name      string     `json:"name"`
	Key       string     `json:"key"`
	CreatedAt time.Time  `json:"createdAt"`
	ExpiresAt *time.Time `json:"expiresAt"`
}

type CreateRequest struct {
	Name          string `json:"name" validate:"required,max=255"`
	ExpiresInDays *int   `json:"expiresInDays,omitempty" validate:"omitempty,min=1,max=3650"`
}
