package rightsizing

// Strategy names an optimization posture. It bounds the risk a selected
// option may carry.
type Strategy string

const (
	// StrategyAggressive accepts any option that survived the utilisation
	// ceilings, including high-risk ones.
	StrategyAggressive Strategy = "aggressive"

	// StrategyBalanced accepts low- and medium-risk options.
	StrategyBalanced Strategy = "balanced"

	// StrategyConservative accepts low-risk options only.
	StrategyConservative Strategy = "conservative"
)

// maxRiskForStrategy is the strategy decision table: the worst risk class a
// strategy will select.
var maxRiskForStrategy = map[Strategy]Risk{
	StrategyAggressive:   RiskHigh,
	StrategyBalanced:     RiskMedium,
	StrategyConservative: RiskLow,
}

// ParseStrategy maps a flag/config string to a Strategy.
// Empty and unrecognised values default to balanced.
func ParseStrategy(s string) Strategy {
	switch Strategy(s) {
	case StrategyAggressive, StrategyBalanced, StrategyConservative:
		return Strategy(s)
	default:
		return StrategyBalanced
	}
}

// Recommendation is the selected option plus the strategy that chose it.
type Recommendation struct {
	Option
	Strategy Strategy `json:"strategy"`
}

// SelectOption picks the best option the strategy permits: maximum savings
// among options at or below the strategy's risk bound, ties broken by lower
// risk, then by higher confidence. Returns false when no option qualifies.
func SelectOption(options []Option, s Strategy) (Option, bool) {
	maxRisk, ok := maxRiskForStrategy[s]
	if !ok {
		maxRisk = maxRiskForStrategy[StrategyBalanced]
	}

	var best Option
	found := false
	for _, opt := range options {
		if riskRank[opt.Risk] > riskRank[maxRisk] {
			continue
		}
		if !found || better(opt, best) {
			best = opt
			found = true
		}
	}
	return best, found
}

// better reports whether a should be preferred over b.
func better(a, b Option) bool {
	if a.MonthlySavings != b.MonthlySavings {
		return a.MonthlySavings > b.MonthlySavings
	}
	if riskRank[a.Risk] != riskRank[b.Risk] {
		return riskRank[a.Risk] < riskRank[b.Risk]
	}
	return a.Confidence > b.Confidence
}

// Recommend generates options for the profile and selects one under the
// strategy. Returns false when no viable option exists.
func Recommend(p PlanProfile, s Strategy) (Recommendation, bool) {
	opt, ok := SelectOption(GenerateOptions(p), s)
	if !ok {
		return Recommendation{}, false
	}
	return Recommendation{Option: opt, Strategy: s}, true
}

// RecommendStrategy suggests a strategy from the observed utilisation alone:
// clearly idle and peak-stable plans can be resized aggressively, moderately
// loaded plans get the balanced posture, and everything else stays
// conservative.
func RecommendStrategy(p PlanProfile) Strategy {
	if p.AvgCPUPercent <= 0 {
		return StrategyConservative
	}
	cpuOK := p.AvgCPUPercent < 20 && p.MaxCPUPercent < 50
	memOK := p.AvgMemoryPercent < 40 && p.MaxMemoryPercent < 60
	if cpuOK && (p.AvgMemoryPercent <= 0 || memOK) {
		return StrategyAggressive
	}
	if p.AvgCPUPercent < 40 && p.MaxCPUPercent < 70 {
		return StrategyBalanced
	}
	return StrategyConservative
}
