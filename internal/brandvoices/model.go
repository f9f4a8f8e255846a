package brandvoices

import (
	"time"

	"github.com/google/uuid"
)

// Voice is a user's brand voice. Guidelines are stored encrypted and
// decrypted on read.
type Voice struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"userId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Guidelines  string    `json:"guidelines"`
	Examples    []string  `json:"examples"`
	IsDefault   bool      `json:"isDefault"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CreateRequest struct {
	Name        string   `json:"name" validate:"required,max=255"`
	Description string   `json:"description" validate:"max=2000"`
	Guidelines  string   `json:"guidelines" validate:"required,max=20000"`
	Examples    []string `json:"examples" validate:"max=20,dive,max=5000"`
	IsDefault   bool     `json:"isDefault"`
}

type UpdateRequest struct {
	Name        *string   `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string   `json:"description" validate:"omitempty,max=2000"`
	Guidelines  *string   `json:"guidelines" validate:"omitempty,min=1,max=20000"`
	Examples    *[]string `json:"examples" validate:"omitempty,max=20,dive,max=5000"`
	IsDefault   *bool     `json:"isDefault"`
}
