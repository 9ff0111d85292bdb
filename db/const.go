package db

const (
	// subscription tiers
	TierFree     Tier = "free"
	TierWeekly   Tier = "weekly"
	TierLifetime Tier = "lifetime"
	// subscription statuses
	StatusNone     Status = "none"
	StatusTrial    Status = "trial"
	StatusActive   Status = "active"
	StatusPastDue  Status = "past_due"
	StatusCanceled Status = "canceled"
	// payment types
	PaymentTypeOneTime      PaymentType = "one_time"
	PaymentTypeSubscription PaymentType = "subscription"
	// payment statuses
	PaymentStatusSucceeded = "succeeded"
)

// purchasableTiers is a map that contains the tiers a checkout session can
// be opened for. The free tier is only reachable through cancellation.
var purchasableTiers = map[Tier]bool{
	TierWeekly:   true,
	TierLifetime: true,
}

// IsPurchasableTier function checks if the given plan can be bought
func IsPurchasableTier(t Tier) bool {
	return purchasableTiers[t]
}

// validStatuses is a map that contains the valid subscription statuses
var validStatuses = map[Status]bool{
	StatusNone:     true,
	StatusTrial:    true,
	StatusActive:   true,
	StatusPastDue:  true,
	StatusCanceled: true,
}

// IsValidStatus function checks if the subscription status is valid
func IsValidStatus(s Status) bool {
	return validStatuses[s]
}
