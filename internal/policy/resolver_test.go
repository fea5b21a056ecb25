package policy

import (
	"testing"

	"github.com/azwaste/azwaste/internal/models"
)

func boolPtr(b bool) *bool { return &b }

func TestApplyPolicy_DomainDisabled(t *testing.T) {
	cfg := &PolicyConfig{
		Domains: map[string]DomainConfig{
			"azure-cost": {Enabled: false},
		},
	}

	findings := []models.Finding{
		{RuleID: "ASP_EMPTY"},
	}

	result := ApplyPolicy(findings, "azure-cost", cfg)

	if len(result) != 0 {
		t.Fatalf("expected all findings dropped")
	}
}

func TestApplyPolicy_RuleDisabled(t *testing.T) {
	cfg := &PolicyConfig{
		Rules: map[string]RuleConfig{
			"ASP_EMPTY": {Enabled: boolPtr(false)},
		},
	}

	findings := []models.Finding{
		{RuleID: "ASP_EMPTY"},
		{RuleID: "ASP_RIGHTSIZE"},
	}

	result := ApplyPolicy(findings, "azure-cost", cfg)

	if len(result) != 1 {
		t.Fatalf("expected one finding remaining")
	}
	if result[0].RuleID != "ASP_RIGHTSIZE" {
		t.Fatalf("wrong finding kept")
	}
}

func TestApplyPolicy_SeverityOverride(t *testing.T) {
	cfg := &PolicyConfig{
		Rules: map[string]RuleConfig{
			"PVC_UNUSED": {Severity: "CRITICAL"},
		},
	}

	findings := []models.Finding{
		{RuleID: "PVC_UNUSED", Severity: models.SeverityLow},
	}

	result := ApplyPolicy(findings, "pvc-health", cfg)

	if result[0].Severity != models.SeverityCritical {
		t.Fatalf("severity override failed")
	}
}

func TestApplyPolicy_NoPolicy(t *testing.T) {
	findings := []models.Finding{
		{RuleID: "ASP_EMPTY"},
	}

	result := ApplyPolicy(findings, "azure-cost", nil)

	if len(result) != 1 {
		t.Fatalf("nil policy should not modify findings")
	}
}

func TestApplyPolicy_MinSeverityNotSet(t *testing.T) {
	// No min_severity means all findings pass through regardless of severity.
	cfg := &PolicyConfig{
		Domains: map[string]DomainConfig{
			"azure-cost": {Enabled: true},
		},
	}
	findings := []models.Finding{
		{RuleID: "A", Severity: models.SeverityCritical},
		{RuleID: "B", Severity: models.SeverityHigh},
		{RuleID: "C", Severity: models.SeverityMedium},
		{RuleID: "D", Severity: models.SeverityLow},
		{RuleID: "E", Severity: models.SeverityInfo},
	}
	result := ApplyPolicy(findings, "azure-cost", cfg)
	if len(result) != 5 {
		t.Fatalf("want 5 findings (no min_severity), got %d", len(result))
	}
}

func TestApplyPolicy_MinSeverityHigh(t *testing.T) {
	cfg := &PolicyConfig{
		Domains: map[string]DomainConfig{
			"azure-cost": {Enabled: true, MinSeverity: "HIGH"},
		},
	}
	findings := []models.Finding{
		{RuleID: "A", Severity: models.SeverityCritical},
		{RuleID: "B", Severity: models.SeverityHigh},
		{RuleID: "C", Severity: models.SeverityMedium},
		{RuleID: "D", Severity: models.SeverityLow},
		{RuleID: "E", Severity: models.SeverityInfo},
	}
	result := ApplyPolicy(findings, "azure-cost", cfg)
	if len(result) != 2 {
		t.Fatalf("want 2 findings (CRITICAL + HIGH), got %d", len(result))
	}
	for _, f := range result {
		if f.Severity != models.SeverityCritical && f.Severity != models.SeverityHigh {
			t.Errorf("unexpected severity %q survived min_severity=HIGH filter", f.Severity)
		}
	}
}

func TestApplyPolicy_MinSeverityCritical(t *testing.T) {
	cfg := &PolicyConfig{
		Domains: map[string]DomainConfig{
			"pvc-health": {Enabled: true, MinSeverity: "CRITICAL"},
		},
	}
	findings := []models.Finding{
		{RuleID: "A", Severity: models.SeverityCritical},
		{RuleID: "B", Severity: models.SeverityHigh},
		{RuleID: "C", Severity: models.SeverityMedium},
	}
	result := ApplyPolicy(findings, "pvc-health", cfg)
	if len(result) != 1 {
		t.Fatalf("want 1 finding (CRITICAL only), got %d", len(result))
	}
	if result[0].Severity != models.SeverityCritical {
		t.Errorf("want CRITICAL, got %q", result[0].Severity)
	}
}

func TestApplyPolicy_SeverityOverrideThenMinSeverity(t *testing.T) {
	// Override elevates LOW to CRITICAL; min_severity=HIGH then keeps it.
	cfg := &PolicyConfig{
		Domains: map[string]DomainConfig{
			"azure-cost": {Enabled: true, MinSeverity: "HIGH"},
		},
		Rules: map[string]RuleConfig{
			"ASP_PREMIUM_V2_LEGACY": {Severity: "CRITICAL"},
		},
	}
	findings := []models.Finding{
		{RuleID: "ASP_PREMIUM_V2_LEGACY", Severity: models.SeverityLow},
		{RuleID: "ASP_RIGHTSIZE", Severity: models.SeverityLow},
	}
	result := ApplyPolicy(findings, "azure-cost", cfg)
	if len(result) != 1 {
		t.Fatalf("want 1 finding after override+min_severity filter, got %d", len(result))
	}
	if result[0].RuleID != "ASP_PREMIUM_V2_LEGACY" {
		t.Errorf("wrong finding kept: %q", result[0].RuleID)
	}
	if result[0].Severity != models.SeverityCritical {
		t.Errorf("want CRITICAL after override, got %q", result[0].Severity)
	}
}

func TestApplyPolicy_MinSeverityInvalidValue(t *testing.T) {
	// An unrecognised min_severity string is ignored safely.
	cfg := &PolicyConfig{
		Domains: map[string]DomainConfig{
			"azure-cost": {Enabled: true, MinSeverity: "BOGUS"},
		},
	}
	findings := []models.Finding{
		{RuleID: "A", Severity: models.SeverityLow},
		{RuleID: "B", Severity: models.SeverityInfo},
	}
	result := ApplyPolicy(findings, "azure-cost", cfg)
	if len(result) != 2 {
		t.Fatalf("invalid min_severity must not filter findings; got %d", len(result))
	}
}
