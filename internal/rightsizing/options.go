// Package rightsizing implements the App Service Plan rightsizing decision
// engine: candidate option generation, per-option risk and confidence
// scoring, and strategy-based selection. The package is pure; it never
// performs I/O and is safe to call concurrently.
package rightsizing

import (
	"math"

	"github.com/azwaste/azwaste/internal/pricing"
)

// Risk classifies how much utilisation headroom an option leaves.
type Risk string

const (
	RiskLow    Risk = "LOW"
	RiskMedium Risk = "MEDIUM"
	RiskHigh   Risk = "HIGH"
)

// riskRank orders risks for comparisons (lower = safer).
var riskRank = map[Risk]int{
	RiskLow:    0,
	RiskMedium: 1,
	RiskHigh:   2,
}

const (
	// riskLowCeiling / riskMediumCeiling / riskHighCeiling bound the
	// projected average utilisation for each risk class. Options whose
	// projection exceeds riskHighCeiling are discarded.
	riskLowCeiling    = 50.0
	riskMediumCeiling = 70.0
	riskHighCeiling   = 85.0

	// peakCeiling discards options whose projected peak utilisation would
	// leave no burst headroom at all.
	peakCeiling = 95.0
)

// PlanProfile is the observed state of one App Service Plan: its SKU,
// capacity, and utilisation averages over the metric window. Metric value 0
// means "no data", never "idle".
type PlanProfile struct {
	SKUName  string
	Capacity int32

	AvgCPUPercent float64
	MaxCPUPercent float64

	AvgMemoryPercent float64
	MaxMemoryPercent float64

	// MetricWindowDays is the lookback the averages cover. Short windows
	// reduce option confidence.
	MetricWindowDays int

	// AppCount is the number of sites on the plan. Dense plans reduce
	// confidence slightly: per-app behavior is less predictable.
	AppCount int
}

// Option is one candidate (SKU, capacity) target with its projected
// utilisation, savings, and scores.
type Option struct {
	TargetSKU      string  `json:"target_sku"`
	TargetCapacity int32   `json:"target_capacity"`
	MonthlyUSD     float64 `json:"monthly_usd"`
	MonthlySavings float64 `json:"monthly_savings_usd"`

	ProjectedCPUPercent    float64 `json:"projected_cpu_percent"`
	ProjectedMemoryPercent float64 `json:"projected_memory_percent"`

	Risk       Risk    `json:"risk"`
	Confidence float64 `json:"confidence"`
}

// GenerateOptions enumerates every viable cheaper (SKU, capacity) target for
// the profile and scores each one. Candidates come from the same SKU family;
// PremiumV2 plans additionally consider the PremiumV3 family, which is both
// newer and cheaper per compute unit.
//
// Returns nil when the profile's SKU is unpriced, CPU data is missing, or no
// candidate survives the utilisation ceilings.
func GenerateOptions(p PlanProfile) []Option {
	current, ok := pricing.LookupAppServiceSKU(p.SKUName)
	if !ok {
		return nil
	}
	if p.AvgCPUPercent <= 0 {
		// No metric data; projecting from zero would recommend the floor
		// of every family.
		return nil
	}
	capacity := p.Capacity
	if capacity < 1 {
		capacity = 1
	}

	currentUnits := float64(current.ComputeUnits) * float64(capacity)
	currentMonthly := pricing.AppServicePlanMonthlyCost(current.Name, capacity)

	candidates := pricing.AppServiceFamily(current.Tier)
	if current.Tier == "PremiumV2" {
		candidates = append(candidates, pricing.AppServiceFamily("PremiumV3")...)
	}

	var options []Option
	for _, sku := range candidates {
		// Capacity is bounded by the current instance count on purpose: a
		// downsize never adds instances, even where a smaller SKU at a higher
		// count would be cheaper per compute unit.
		for cap := int32(1); cap <= capacity; cap++ {
			if sku.Name == current.Name && cap == capacity {
				continue
			}
			monthly := pricing.AppServicePlanMonthlyCost(sku.Name, cap)
			if monthly >= currentMonthly {
				continue
			}

			ratio := currentUnits / (float64(sku.ComputeUnits) * float64(cap))
			opt := Option{
				TargetSKU:              sku.Name,
				TargetCapacity:         cap,
				MonthlyUSD:             round2(monthly),
				MonthlySavings:         round2(currentMonthly - monthly),
				ProjectedCPUPercent:    round1(p.AvgCPUPercent * ratio),
				ProjectedMemoryPercent: round1(p.AvgMemoryPercent * ratio),
			}

			if opt.ProjectedCPUPercent > riskHighCeiling || opt.ProjectedMemoryPercent > riskHighCeiling {
				continue
			}
			if p.MaxCPUPercent*ratio > peakCeiling || p.MaxMemoryPercent*ratio > peakCeiling {
				continue
			}

			opt.Risk = riskFor(opt.ProjectedCPUPercent, opt.ProjectedMemoryPercent)
			opt.Confidence = confidenceFor(p, opt)
			options = append(options, opt)
		}
	}
	return options
}

// riskFor classifies the higher of the two projected utilisations.
func riskFor(projCPU, projMem float64) Risk {
	worst := math.Max(projCPU, projMem)
	switch {
	case worst < riskLowCeiling:
		return RiskLow
	case worst < riskMediumCeiling:
		return RiskMedium
	default:
		return RiskHigh
	}
}

// confidenceFor scores how trustworthy an option's projection is.
// Starts at 0.95 and deducts for short metric windows, missing memory data,
// tight projections, and dense plans. Floor 0.30.
func confidenceFor(p PlanProfile, opt Option) float64 {
	c := 0.95
	if p.MetricWindowDays < 14 {
		c -= 0.25
	}
	if p.AvgMemoryPercent <= 0 {
		c -= 0.15
	}
	if opt.ProjectedCPUPercent >= riskMediumCeiling || opt.ProjectedMemoryPercent >= riskMediumCeiling {
		c -= 0.10
	}
	if p.AppCount > 10 {
		c -= 0.05
	}
	if c < 0.30 {
		c = 0.30
	}
	return round2(c)
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
