package pricing

import "github.com/azwaste/azwaste/internal/models"

// Static dollar thresholds for bucketing monthly savings into severities.
// A $3000/month opportunity classifies as MEDIUM.
const (
	severityCriticalUSD = 10000.0
	severityHighUSD     = 5000.0
	severityMediumUSD   = 1000.0
)

// SeverityForMonthlySavings buckets an estimated monthly saving into a
// finding severity. Anything below the MEDIUM threshold is LOW; zero or
// negative savings are INFO.
func SeverityForMonthlySavings(usd float64) models.Severity {
	switch {
	case usd <= 0:
		return models.SeverityInfo
	case usd >= severityCriticalUSD:
		return models.SeverityCritical
	case usd >= severityHighUSD:
		return models.SeverityHigh
	case usd >= severityMediumUSD:
		return models.SeverityMedium
	default:
		return models.SeverityLow
	}
}
