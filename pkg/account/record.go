package account

import "time"

// Plan is the symbolic subscription plan name shown to the user.
// It is distinct from the billing provider's price id; the mapping between
// the two lives in the billing package.
type Plan string

const (
	PlanFree    Plan = "free"
	PlanWeekly  Plan = "weekly"
	PlanMonthly Plan = "monthly"
	PlanYearly  Plan = "yearly"
)

// Valid reports whether the plan is one of the known plan names.
func (p Plan) Valid() bool {
	switch p {
	case PlanFree, PlanWeekly, PlanMonthly, PlanYearly:
		return true
	}
	return false
}

// Status is the subscription status that drives access gating.
type Status string

const (
	StatusInactive      Status = "inactive"
	StatusActive        Status = "active"
	StatusCanceled      Status = "canceled"
	StatusPaymentFailed Status = "payment_failed"
)

// Usage is the daily quota counter for free-tier AI calls.
// Date is a calendar-day key; the count is meaningless once Date is stale.
type Usage struct {
	Date  string `bson:"date" json:"date"`
	Count int    `bson:"count" json:"count"`
}

// DayKey formats a time as the calendar-day key used by the usage counter.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// Record is the per-user subscription document.
//
// UserID comes from the identity provider and is immutable. BillingCustomerID
// and SubscriptionID belong to the payment provider's identifier space and
// must never be used as the document key; webhook events carrying only a
// billing-customer id are resolved to the UserID through GetByCustomerID.
type Record struct {
	UserID            string     `bson:"_id" json:"userId"`
	Email             string     `bson:"email" json:"email"`
	Plan              Plan       `bson:"plan" json:"plan"`
	Status            Status     `bson:"status" json:"status"`
	BillingCustomerID string     `bson:"billingCustomerId,omitempty" json:"billingCustomerId,omitempty"`
	SubscriptionID    string     `bson:"subscriptionId,omitempty" json:"subscriptionId,omitempty"`
	SubscriptionStart *time.Time `bson:"subscriptionStartDate,omitempty" json:"subscriptionStartDate,omitempty"`
	SubscriptionEnd   *time.Time `bson:"subscriptionEndDate,omitempty" json:"subscriptionEndDate,omitempty"`
	InvoiceID         string     `bson:"invoiceId,omitempty" json:"invoiceId,omitempty"`
	Usage             Usage      `bson:"usage" json:"usage"`
	CreatedAt         time.Time  `bson:"createdAt" json:"createdAt"`
	UpdatedAt         time.Time  `bson:"updatedAt" json:"updatedAt"`
}

// NewRecord returns the record created at first sign-in: free plan, inactive
// status, usage counter reset to the given day.
func NewRecord(userID, email string, now time.Time) *Record {
	return &Record{
		UserID:    userID,
		Email:     email,
		Plan:      PlanFree,
		Status:    StatusInactive,
		Usage:     Usage{Date: DayKey(now), Count: 0},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// HasActiveAccess reports whether the record grants paid access at the given
// time. Canceled subscriptions keep access until the period end.
func (r *Record) HasActiveAccess(now time.Time) bool {
	switch r.Status {
	case StatusActive:
		return true
	case StatusCanceled:
		return r.SubscriptionEnd != nil && r.SubscriptionEnd.After(now)
	}
	return false
}

// Update is a merge write: only non-nil fields are applied. Writes must not
// erase fields they do not intend to change.
type Update struct {
	Email             *string
	Plan              *Plan
	Status            *Status
	BillingCustomerID *string
	SubscriptionID    *string
	SubscriptionStart *time.Time
	SubscriptionEnd   *time.Time
	InvoiceID         *string
	Usage             *Usage
}

// IsEmpty reports whether the update carries no fields.
func (u Update) IsEmpty() bool {
	return u.Email == nil && u.Plan == nil && u.Status == nil &&
		u.BillingCustomerID == nil && u.SubscriptionID == nil &&
		u.SubscriptionStart == nil && u.SubscriptionEnd == nil &&
		u.InvoiceID == nil && u.Usage == nil
}
