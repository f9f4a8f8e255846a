package templates

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ListLimit caps the template listing.
const ListLimit = 50

type Author struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type Template struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"userId"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Content     string    `json:"content"`
	IsPublic    bool      `json:"isPublic"`
	IsPremium   bool      `json:"isPremium"`
	Price       float64   `json:"price"`
	Tags        []string  `json:"tags"`
	Downloads   int       `json:"downloads"`
	Rating      float32   `json:"rating"`
	CreatedAt   time.Time `json:"createdAt"`
	User        *Author   `json:"user,omitempty"`
}

// Filter selects templates. A nil OwnerID lists public templates.
type Filter struct {
	OwnerID  *uuid.UUID
	Category string
}

// Tags accepts either a JSON array or a comma separated string.
type Tags []string

func (t *Tags) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*t = list
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		*t = Tags{}
		return nil
	}
	out := Tags{}
	for _, tag := range strings.Split(s, ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	*t = out
	return nil
}

type CreateRequest struct {
	Name        string   `json:"name" validate:"max=255"`
	Description string   `json:"description" validate:"max=2000"`
	Category    string   `json:"category" validate:"max=100"`
	Content     string   `json:"content" validate:"max=50000"`
	IsPublic    bool     `json:"isPublic"`
	IsPremium   bool     `json:"isPremium"`
	Price       *float64 `json:"price" validate:"omitempty,min=0,max=10000"`
	Tags        Tags     `json:"tags" validate:"max=20,dive,max=50"`
}
