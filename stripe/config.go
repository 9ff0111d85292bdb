package stripe

import (
	"fmt"

	"github.com/lumeapp/payments-backend/db"
)

// DefaultTrialPeriodDays is the trial length attached to recurring checkout
// sessions unless the caller opts out.
const DefaultTrialPeriodDays = 7

// Config holds the complete Stripe configuration.
type Config struct {
	APIKey          string             `yaml:"api_key" json:"api_key"`
	WebhookSecret   string             `yaml:"webhook_secret" json:"webhook_secret"`
	WebAppURL       string             `yaml:"web_app_url" json:"web_app_url"`
	TrialPeriodDays int64              `yaml:"trial_period_days" json:"trial_period_days"`
	Prices          map[db.Tier]string `yaml:"prices" json:"prices"`
}

// NewConfig creates a new Stripe configuration, validating that every
// required value is present.
func NewConfig(apiKey, webhookSecret, webAppURL, weeklyPriceID, lifetimePriceID string) (*Config, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("stripe API secret is required")
	}
	if webhookSecret == "" {
		return nil, fmt.Errorf("stripe webhook secret is required")
	}
	if webAppURL == "" {
		return nil, fmt.Errorf("web app URL is required")
	}
	if weeklyPriceID == "" || lifetimePriceID == "" {
		return nil, fmt.Errorf("weekly and lifetime price IDs are required")
	}
	return &Config{
		APIKey:          apiKey,
		WebhookSecret:   webhookSecret,
		WebAppURL:       webAppURL,
		TrialPeriodDays: DefaultTrialPeriodDays,
		Prices: map[db.Tier]string{
			db.TierWeekly:   weeklyPriceID,
			db.TierLifetime: lifetimePriceID,
		},
	}, nil
}

// PriceID returns the Stripe price ID configured for the given plan, or an
// empty string if the plan is not purchasable.
func (c *Config) PriceID(plan db.Tier) string {
	return c.Prices[plan]
}
