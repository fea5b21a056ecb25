// Package pricing holds the static USD price tables used to estimate monthly
// spend and savings. Prices are pay-as-you-go East US list prices; they are
// deliberately static so audits never depend on a billing API.
//
// All table arithmetic uses shopspring/decimal; findings receive float64
// values at the package boundary.
package pricing

import "github.com/shopspring/decimal"

// AppServiceSKU describes one App Service Plan SKU row.
type AppServiceSKU struct {
	// Name is the SKU short name as reported by ARM (e.g. "P2v3").
	Name string

	// Tier is the SKU tier (e.g. "PremiumV3").
	Tier string

	Cores    int
	MemoryGB float64

	// ComputeUnits is the relative compute capability of one instance
	// (ACU x cores). Rightsizing projects utilisation by unit ratio.
	ComputeUnits int

	// MonthlyUSD is the per-instance monthly price.
	MonthlyUSD decimal.Decimal
}

// usd is a shorthand constructor for price literals.
func usd(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// appServiceLadder lists every priced SKU grouped by tier, cheapest first
// within each tier. Order matters: rightsizing walks each family downwards.
var appServiceLadder = []AppServiceSKU{
	// Basic
	{Name: "B1", Tier: "Basic", Cores: 1, MemoryGB: 1.75, ComputeUnits: 100, MonthlyUSD: usd("54.75")},
	{Name: "B2", Tier: "Basic", Cores: 2, MemoryGB: 3.5, ComputeUnits: 200, MonthlyUSD: usd("109.50")},
	{Name: "B3", Tier: "Basic", Cores: 4, MemoryGB: 7, ComputeUnits: 400, MonthlyUSD: usd("219.00")},
	// Standard
	{Name: "S1", Tier: "Standard", Cores: 1, MemoryGB: 1.75, ComputeUnits: 100, MonthlyUSD: usd("73.00")},
	{Name: "S2", Tier: "Standard", Cores: 2, MemoryGB: 3.5, ComputeUnits: 200, MonthlyUSD: usd("146.00")},
	{Name: "S3", Tier: "Standard", Cores: 4, MemoryGB: 7, ComputeUnits: 400, MonthlyUSD: usd("292.00")},
	// PremiumV2
	{Name: "P1v2", Tier: "PremiumV2", Cores: 1, MemoryGB: 3.5, ComputeUnits: 210, MonthlyUSD: usd("146.00")},
	{Name: "P2v2", Tier: "PremiumV2", Cores: 2, MemoryGB: 7, ComputeUnits: 420, MonthlyUSD: usd("292.00")},
	{Name: "P3v2", Tier: "PremiumV2", Cores: 4, MemoryGB: 14, ComputeUnits: 840, MonthlyUSD: usd("584.00")},
	// PremiumV3
	{Name: "P1v3", Tier: "PremiumV3", Cores: 2, MemoryGB: 8, ComputeUnits: 390, MonthlyUSD: usd("124.83")},
	{Name: "P2v3", Tier: "PremiumV3", Cores: 4, MemoryGB: 16, ComputeUnits: 780, MonthlyUSD: usd("249.66")},
	{Name: "P3v3", Tier: "PremiumV3", Cores: 8, MemoryGB: 32, ComputeUnits: 1560, MonthlyUSD: usd("499.32")},
	// ElasticPremium (Function Apps)
	{Name: "EP1", Tier: "ElasticPremium", Cores: 1, MemoryGB: 3.5, ComputeUnits: 210, MonthlyUSD: usd("166.17")},
	{Name: "EP2", Tier: "ElasticPremium", Cores: 2, MemoryGB: 7, ComputeUnits: 420, MonthlyUSD: usd("332.34")},
	{Name: "EP3", Tier: "ElasticPremium", Cores: 4, MemoryGB: 14, ComputeUnits: 840, MonthlyUSD: usd("664.68")},
}

var appServiceByName = func() map[string]AppServiceSKU {
	m := make(map[string]AppServiceSKU, len(appServiceLadder))
	for _, s := range appServiceLadder {
		m[s.Name] = s
	}
	return m
}()

// LookupAppServiceSKU returns the priced SKU row for the given SKU name.
// The second return is false for unpriced SKUs (Free, Shared, Isolated).
func LookupAppServiceSKU(name string) (AppServiceSKU, bool) {
	s, ok := appServiceByName[name]
	return s, ok
}

// AppServiceSKUs returns a copy of the full SKU ladder in table order.
func AppServiceSKUs() []AppServiceSKU {
	out := make([]AppServiceSKU, len(appServiceLadder))
	copy(out, appServiceLadder)
	return out
}

// AppServiceFamily returns all priced SKUs of the given tier, cheapest first.
func AppServiceFamily(tier string) []AppServiceSKU {
	var out []AppServiceSKU
	for _, s := range appServiceLadder {
		if s.Tier == tier {
			out = append(out, s)
		}
	}
	return out
}

// AppServicePlanMonthlyCost returns the monthly price for capacity instances
// of the named SKU. Unknown SKUs price as 0.
func AppServicePlanMonthlyCost(skuName string, capacity int32) float64 {
	sku, ok := appServiceByName[skuName]
	if !ok {
		return 0
	}
	if capacity < 1 {
		capacity = 1
	}
	total := sku.MonthlyUSD.Mul(decimal.NewFromInt32(capacity))
	return total.InexactFloat64()
}
