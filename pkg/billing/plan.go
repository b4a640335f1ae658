package billing

// PriceMap binds the application's symbolic plan names to the provider's
// price ids. The free plan has no price and never reaches the provider.
type PriceMap struct {
	Weekly  string `env:"PADDLE_PRICE_WEEKLY,required"`
	Monthly string `env:"PADDLE_PRICE_MONTHLY,required"`
	Yearly  string `env:"PADDLE_PRICE_YEARLY,required"`
}

// PlanFor returns the plan name for a provider price id.
func (m PriceMap) PlanFor(priceID string) (string, error) {
	switch priceID {
	case m.Weekly:
		return "weekly", nil
	case m.Monthly:
		return "monthly", nil
	case m.Yearly:
		return "yearly", nil
	}
	return "", ErrUnknownPlan
}
