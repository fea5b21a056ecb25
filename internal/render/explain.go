// Package render provides presentation-layer helpers for azwaste CLI output.
// It is a pure rendering package — no pricing, no rule logic, no Azure or
// Kubernetes API calls.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/azwaste/azwaste/internal/models"
)

// FindFindingByResource returns a pointer to the first Finding in findings
// whose ResourceID equals resourceID, or nil when no match is found. The
// caller owns the returned pointer — it points into the slice element directly.
func FindFindingByResource(findings []models.Finding, resourceID string) *models.Finding {
	for i := range findings {
		if findings[i].ResourceID == resourceID {
			return &findings[i]
		}
	}
	return nil
}

// RenderFindingExplanation writes a structured breakdown of a single finding
// to w: identification header, savings, the explanation and recommendation
// texts, the concrete next step, the rules that fired on the resource, and
// the metadata detail sorted by key for stable output.
//
// Example output:
//
//	FINDING prod-plan (APP_SERVICE_PLAN, eastus)
//	Severity: HIGH
//	Est. Savings: $584.00/mo ($7008.00/yr)
//
//	Explanation: Plan prod-plan (P3v2 x2) averages 4.2% CPU; ...
//	Recommendation: Resize to P1v3 with 1 instance(s) ...
//	Next step: az appservice plan update -g rg -n prod-plan --sku P1v3 ...
//
//	Rules fired (2):
//	  ✓ ASP_PREMIUM_V2_LEGACY
//	  ✓ ASP_RIGHTSIZE
//
//	Detail:
//	  confidence: 0.85
//	  current_sku: P3v2
func RenderFindingExplanation(w io.Writer, f models.Finding) {
	// Header.
	fmt.Fprintf(w, "FINDING %s (%s, %s)\n", f.ResourceID, f.ResourceType, f.Location)
	fmt.Fprintf(w, "Severity: %s\n", f.Severity)
	if f.EstimatedMonthlySavings > 0 {
		fmt.Fprintf(w, "Est. Savings: $%.2f/mo ($%.2f/yr)\n", f.EstimatedMonthlySavings, f.EstimatedAnnualSavings)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Explanation: %s\n", f.Explanation)
	fmt.Fprintf(w, "Recommendation: %s\n", f.Recommendation)
	if f.NextStep != "" {
		fmt.Fprintf(w, "Next step: %s\n", f.NextStep)
	}

	// Rules that fired on this resource. Merged findings carry the full list
	// in Metadata["rules"]; unmerged findings fall back to RuleID.
	ruleIDs := firedRules(f)
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Rules fired (%d):\n", len(ruleIDs))
	for _, id := range ruleIDs {
		fmt.Fprintf(w, "  ✓ %s\n", id)
	}

	// Metadata detail, sorted by key for stable output.
	keys := make([]string, 0, len(f.Metadata))
	for k := range f.Metadata {
		if k == "rules" {
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		return
	}
	sort.Strings(keys)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Detail:")
	for _, k := range keys {
		fmt.Fprintf(w, "  %s: %v\n", k, f.Metadata[k])
	}
}

// firedRules returns the sorted rule IDs recorded on the finding.
func firedRules(f models.Finding) []string {
	if f.Metadata != nil {
		if ids, ok := f.Metadata["rules"].([]string); ok && len(ids) > 0 {
			sorted := make([]string, len(ids))
			copy(sorted, ids)
			sort.Strings(sorted)
			return sorted
		}
	}
	if f.RuleID != "" {
		return []string{f.RuleID}
	}
	return nil
}

// WriteExplainJSON writes the finding explanation as indented JSON to w.
//
// When f is non-nil, the output is:
//
//	{"finding": { ...finding fields... }}
//
// When f is nil (resource not present in the report), the output is:
//
//	{"error": "No finding for resource ID"}
func WriteExplainJSON(w io.Writer, f *models.Finding, resourceID string) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	if f == nil {
		return enc.Encode(map[string]string{
			"error": fmt.Sprintf("No finding for resource %s", resourceID),
		})
	}
	return enc.Encode(map[string]any{
		"finding": f,
	})
}
