package quota

import "time"

// Plan is the subscription tier that decides a user's monthly limit.
type Plan string

const (
	PlanFree Plan = "FREE"
	PlanPro  Plan = "PRO"
)

// Limits maps each plan to its monthly generation allowance.
type Limits struct {
	Free int
	Pro  int
}

// DefaultLimits returns the stock monthly allowances.
func DefaultLimits() Limits {
	return Limits{Free: 50, Pro: 10000}
}

// For returns the monthly limit for plan. Unknown plans get the free limit.
func (l Limits) For(plan Plan) int {
	if plan == PlanPro {
		return l.Pro
	}
	return l.Free
}

// Decision is the outcome of a quota check.
type Decision struct {
	Allowed   bool `json:"allowed"`
	Remaining int  `json:"remaining"`
	Limit     int  `json:"limit"`
	Plan      Plan `json:"plan"`
}

// Usage is the API view of a user's consumption in the current period.
type Usage struct {
	Usage int  `json:"usage"`
	Limit int  `json:"limit"`
	Plan  Plan `json:"plan"`
}

// RateStatus reports the plan's short rate window.
type RateStatus struct {
	Remaining int       `json:"remaining"`
	Limit     int       `json:"limit"`
	ResetAt   time.Time `json:"resetAt"`
	Window    string    `json:"window"`
}

// MonthStart returns local midnight on the first day of t's month, in t's location.
func MonthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func decide(plan Plan, limit, used int) Decision {
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   remaining > 0,
		Remaining: remaining,
		Limit:     limit,
		Plan:      plan,
	}
}
