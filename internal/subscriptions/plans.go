package subscriptions

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Currency is the ISO code every plan is billed in.
const Currency = "gbp"

// TrialDays is the length of the free trial offered at signup.
const TrialDays = 14

// Billing cycles.
const (
	Monthly = "monthly"
	Annual  = "annual"
)

// planAmounts are the list prices shown on the pricing page. Annual prices are
// the discounted per-month figure.
var planAmounts = map[string]map[string]decimal.Decimal{
	"starter": {Monthly: decimal.RequireFromString("399"), Annual: decimal.RequireFromString("319.20")},
	"growth":  {Monthly: decimal.RequireFromString("1199"), Annual: decimal.RequireFromString("959.20")},
	"scale":   {Monthly: decimal.RequireFromString("2899"), Annual: decimal.RequireFromString("2319.20")},
}

// PriceBook resolves plan and cycle to a Stripe price id.
type PriceBook struct {
	overrides map[string]string
}

// NewPriceBook builds a price book. Overrides are keyed "<plan>_<cycle>".
func NewPriceBook(overrides map[string]string) *PriceBook {
	o := make(map[string]string, len(overrides))
	for k, v := range overrides {
		o[strings.ToLower(k)] = v
	}
	return &PriceBook{overrides: o}
}

// PriceID returns the price for a plan and cycle. Unknown combinations report false.
func (p *PriceBook) PriceID(plan, cycle string) (string, bool) {
	plan, cycle = NormalizeKey(plan), NormalizeKey(cycle)
	cycles, ok := planAmounts[plan]
	if !ok {
		return "", false
	}
	if _, ok := cycles[cycle]; !ok {
		return "", false
	}
	key := plan + "_" + cycle
	if id := p.overrides[key]; id != "" {
		return id, true
	}
	return "price_" + key, true
}

// Amount is the locally recorded price for a plan and cycle, zero when unknown.
func Amount(plan, cycle string) decimal.Decimal {
	if cycles, ok := planAmounts[NormalizeKey(plan)]; ok {
		if amount, ok := cycles[NormalizeKey(cycle)]; ok {
			return amount
		}
	}
	return decimal.Zero
}

// NormalizeKey is the canonical form of a plan or billing cycle name.
func NormalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
