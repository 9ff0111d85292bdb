package stripe

import (
	"fmt"
)

// StripeError represents a Stripe-specific error
type StripeError struct {
	Code    string
	Message string
	Err     error
}

func (e *StripeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("stripe error [%s]: %s - %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("stripe error [%s]: %s", e.Code, e.Message)
}

func (e *StripeError) Unwrap() error {
	return e.Err
}

// Error codes used across the package. The webhook handler maps them to
// HTTP statuses: validation and invalid-event codes reject the delivery,
// not-found codes acknowledge it, store failures request a redelivery.
const (
	CodeWebhookValidation    = "webhook_validation"
	CodeInvalidEvent         = "invalid_event"
	CodeSubscriptionNotFound = "subscription_not_found"
	CodeStoreFailed          = "store_failed"
	CodeAPICallFailed        = "api_call_failed"
)

// NewStripeError creates a new StripeError with the given code, message, and underlying error
func NewStripeError(code, message string, err error) *StripeError {
	return &StripeError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// ErrorCode returns the StripeError code carried by err, or an empty string
// if err is not a StripeError.
func ErrorCode(err error) string {
	if stripeErr, ok := err.(*StripeError); ok {
		return stripeErr.Code
	}
	return ""
}
