package stripe

import (
	"testing"

	qt "github.com/frankban/quicktest"
	stripeapi "github.com/stripe/stripe-go/v81"

	"github.com/lumeapp/payments-backend/db"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	config, err := NewConfig("sk_test_key", testSecret, "http://localhost:3000", "price_weekly", "price_lifetime")
	qt.Assert(t, err, qt.IsNil)
	return config
}

func TestBuildCheckoutSessionParamsWeekly(t *testing.T) {
	c := qt.New(t)
	params := buildCheckoutSessionParams(testConfig(t), &CheckoutSessionRequest{
		UserID:        testUserID,
		Plan:          db.TierWeekly,
		CustomerEmail: "user@example.com",
	})

	c.Assert(*params.Mode, qt.Equals, string(stripeapi.CheckoutSessionModeSubscription))
	c.Assert(params.LineItems, qt.HasLen, 1)
	c.Assert(*params.LineItems[0].Price, qt.Equals, "price_weekly")
	c.Assert(*params.CustomerEmail, qt.Equals, "user@example.com")

	// trial attached by default
	c.Assert(params.SubscriptionData, qt.Not(qt.IsNil))
	c.Assert(*params.SubscriptionData.TrialPeriodDays, qt.Equals, int64(7))
	c.Assert(params.SubscriptionData.Metadata["userId"], qt.Equals, testUserID)
	c.Assert(params.SubscriptionData.Metadata["plan"], qt.Equals, string(db.TierWeekly))

	// session metadata stamped for the webhook reconciler
	c.Assert(params.Metadata["userId"], qt.Equals, testUserID)
	c.Assert(params.Metadata["plan"], qt.Equals, string(db.TierWeekly))

	c.Assert(*params.SuccessURL, qt.Contains, "http://localhost:3000")
	c.Assert(*params.CancelURL, qt.Contains, "http://localhost:3000")
}

func TestBuildCheckoutSessionParamsSkipTrial(t *testing.T) {
	c := qt.New(t)
	params := buildCheckoutSessionParams(testConfig(t), &CheckoutSessionRequest{
		UserID:    testUserID,
		Plan:      db.TierWeekly,
		SkipTrial: true,
	})

	c.Assert(*params.Mode, qt.Equals, string(stripeapi.CheckoutSessionModeSubscription))
	c.Assert(params.SubscriptionData, qt.Not(qt.IsNil))
	c.Assert(params.SubscriptionData.TrialPeriodDays, qt.IsNil)
}

func TestBuildCheckoutSessionParamsLifetime(t *testing.T) {
	c := qt.New(t)
	// skipTrial must be irrelevant for one-time payments
	for _, skipTrial := range []bool{false, true} {
		params := buildCheckoutSessionParams(testConfig(t), &CheckoutSessionRequest{
			UserID:    testUserID,
			Plan:      db.TierLifetime,
			SkipTrial: skipTrial,
		})

		c.Assert(*params.Mode, qt.Equals, string(stripeapi.CheckoutSessionModePayment))
		c.Assert(*params.LineItems[0].Price, qt.Equals, "price_lifetime")
		c.Assert(params.SubscriptionData, qt.IsNil)
		c.Assert(params.Metadata["plan"], qt.Equals, string(db.TierLifetime))
	}
}

func TestCreateCheckoutSessionRejectsUnknownPlan(t *testing.T) {
	c := qt.New(t)
	service := newTestService(t, newMockRepository())

	_, err := service.CreateCheckoutSession(&CheckoutSessionRequest{
		UserID: testUserID,
		Plan:   "monthly",
	})
	c.Assert(err, qt.Not(qt.IsNil))
	c.Assert(ErrorCode(err), qt.Equals, CodeInvalidEvent)

	_, err = service.CreateCheckoutSession(&CheckoutSessionRequest{
		UserID: testUserID,
		Plan:   db.TierFree,
	})
	c.Assert(err, qt.Not(qt.IsNil))
}
