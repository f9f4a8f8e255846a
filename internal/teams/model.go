package teams

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// CanInvite reports whether members with this role may add others.
func (r Role) CanInvite() bool {
	return r == RoleOwner || r == RoleAdmin
}

type Member struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
	Image string    `json:"image"`
	Role  Role      `json:"role"`
}

// Team is a team as seen by one of its members; Role is that member's role.
type Team struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	OwnerID     uuid.UUID `json:"ownerId"`
	Role        Role      `json:"role"`
	MemberCount int       `json:"memberCount"`
	CreatedAt   time.Time `json:"createdAt"`
	Members     []Member  `json:"members"`
}

type CreateRequest struct {
	Name        string `json:"name" validate:"max=255"`
	Description string `json:"description" validate:"max=2000"`
}

// InviteRequest adds an existing account to a team. Role defaults to editor;
// ownership cannot be granted by invitation.
type InviteRequest struct {
	Email string `json:"email" validate:"omitempty,email"`
	Role  Role   `json:"role" validate:"omitempty,oneof=admin editor viewer"`
}
