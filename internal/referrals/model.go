package referrals

import (
	"time"

	"github.com/google/uuid"
)

// Referral statuses. A referral is pending until the referred account pays.
const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusPaid      = "paid"
)

type Referral struct {
	ID         uuid.UUID     `json:"id"`
	ReferrerID uuid.UUID     `json:"referrerId"`
	ReferredID uuid.UUID     `json:"referredId"`
	Status     string        `json:"status"`
	Earnings   float64       `json:"earnings"`
	CreatedAt  time.Time     `json:"createdAt"`
	Referred   *ReferredUser `json:"referred"`
}

type ReferredUser struct {
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// Account is the affiliate side of a user row.
type Account struct {
	Code     *string
	Earnings float64
}

type Summary struct {
	ReferralCode string     `json:"referralCode"`
	Earnings     float64    `json:"earnings"`
	Referrals    []Referral `json:"referrals"`
	ReferralLink string     `json:"referralLink"`
}
