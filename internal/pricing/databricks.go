package pricing

import "github.com/shopspring/decimal"

// Per-DBU rates for all-purpose compute by workspace tier.
var dbuAllPurposeRates = map[string]decimal.Decimal{
	"standard": usd("0.40"),
	"premium":  usd("0.55"),
	"trial":    usd("0.00"),
}

// Per-DBU rates for automated jobs compute by workspace tier.
var dbuJobsRates = map[string]decimal.Decimal{
	"standard": usd("0.15"),
	"premium":  usd("0.30"),
	"trial":    usd("0.00"),
}

// DefaultMonthlyDBUBaseline is the DBU consumption assumed for a workspace
// when no usage signal is available. Roughly one interactive m-size cluster
// running business hours. Overridable per rule through policy params.
const DefaultMonthlyDBUBaseline = 750.0

// DBURate returns the all-purpose per-DBU rate for a workspace tier.
// Unknown tiers rate as standard.
func DBURate(tier string) float64 {
	if r, ok := dbuAllPurposeRates[tier]; ok {
		return r.InexactFloat64()
	}
	return dbuAllPurposeRates["standard"].InexactFloat64()
}

// DBUJobsRate returns the automated-jobs per-DBU rate for a workspace tier.
func DBUJobsRate(tier string) float64 {
	if r, ok := dbuJobsRates[tier]; ok {
		return r.InexactFloat64()
	}
	return dbuJobsRates["standard"].InexactFloat64()
}

// PremiumTierMonthlyPremium returns the monthly DBU cost delta between the
// premium and standard tiers at the given monthly DBU consumption.
func PremiumTierMonthlyPremium(monthlyDBUs float64) float64 {
	delta := dbuAllPurposeRates["premium"].Sub(dbuAllPurposeRates["standard"])
	return delta.Mul(decimal.NewFromFloat(monthlyDBUs)).InexactFloat64()
}

// DatabricksWorkspaceMonthlyCost estimates the monthly DBU spend of a
// workspace at the baseline consumption for its tier.
func DatabricksWorkspaceMonthlyCost(tier string, monthlyDBUs float64) float64 {
	rate, ok := dbuAllPurposeRates[tier]
	if !ok {
		rate = dbuAllPurposeRates["standard"]
	}
	return rate.Mul(decimal.NewFromFloat(monthlyDBUs)).InexactFloat64()
}
