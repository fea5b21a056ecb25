package policy

import (
	"strings"

	"github.com/azwaste/azwaste/internal/models"
)

// severityRank orders severities for comparisons (higher = more severe).
var severityRank = map[models.Severity]int{
	models.SeverityCritical: 5,
	models.SeverityHigh:     4,
	models.SeverityMedium:   3,
	models.SeverityLow:      2,
	models.SeverityInfo:     1,
}

// ApplyPolicy filters and re-stamps findings according to cfg:
//   - a domain block with enabled: false drops every finding
//   - a rule-level enabled: false drops that rule's findings
//   - a rule-level severity override replaces the finding severity
//   - a domain-level min_severity drops findings below the floor
//
// cfg == nil returns findings unchanged.
func ApplyPolicy(findings []models.Finding, domain string, cfg *PolicyConfig) []models.Finding {
	if cfg == nil {
		return findings
	}

	var minRank int
	if d, ok := cfg.Domains[domain]; ok {
		if !d.Enabled {
			return []models.Finding{}
		}
		if d.MinSeverity != "" {
			if r, ok := severityRank[models.Severity(strings.ToUpper(d.MinSeverity))]; ok {
				minRank = r
			}
		}
	}

	var result []models.Finding
	for _, f := range findings {
		ruleCfg, hasRule := cfg.Rules[f.RuleID]

		if hasRule && ruleCfg.Enabled != nil && !*ruleCfg.Enabled {
			continue
		}
		if hasRule && ruleCfg.Severity != "" {
			f.Severity = models.Severity(strings.ToUpper(ruleCfg.Severity))
		}
		if minRank > 0 && severityRank[f.Severity] < minRank {
			continue
		}
		result = append(result, f)
	}
	return result
}
