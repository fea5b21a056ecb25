package rules

import (
	"math"
	"testing"

	"github.com/azwaste/azwaste/internal/models"
)

func TestASPPremiumV2LegacyRule_IDAndName(t *testing.T) {
	r := ASPPremiumV2LegacyRule{}
	if r.ID() != "ASP_PREMIUM_V2_LEGACY" {
		t.Errorf("ID = %q; want ASP_PREMIUM_V2_LEGACY", r.ID())
	}
	if r.Name() == "" {
		t.Error("Name must not be empty")
	}
}

func TestASPPremiumV2LegacyRule_NilSubscription(t *testing.T) {
	if got := (ASPPremiumV2LegacyRule{}).Evaluate(RuleContext{}); got != nil {
		t.Errorf("expected nil for nil Subscription, got len=%d", len(got))
	}
}

func TestASPPremiumV2LegacyRule_Evaluate(t *testing.T) {
	makeCtx := func(plans ...models.AppServicePlan) RuleContext {
		return RuleContext{
			SubscriptionID: "sub-1",
			Subscription: &models.SubscriptionData{
				AppServicePlans: plans,
			},
		}
	}

	t.Run("non-v2 SKUs are not flagged", func(t *testing.T) {
		for _, sku := range []string{"B1", "S2", "P1v3", "EP1"} {
			sku := sku
			t.Run(sku, func(t *testing.T) {
				ctx := makeCtx(models.AppServicePlan{Name: "p", SKUName: sku, Capacity: 1})
				if got := (ASPPremiumV2LegacyRule{}).Evaluate(ctx); len(got) != 0 {
					t.Errorf("sku=%q: expected 0 findings, got %d", sku, len(got))
				}
			})
		}
	})

	t.Run("P1v2 plan is flagged with v3 delta", func(t *testing.T) {
		plan := models.AppServicePlan{
			Name:          "legacy-plan",
			ResourceGroup: "rg-1",
			Location:      "eastus",
			SKUName:       "P1v2",
			Tier:          "PremiumV2",
			Capacity:      1,
		}
		findings := (ASPPremiumV2LegacyRule{}).Evaluate(makeCtx(plan))
		if len(findings) != 1 {
			t.Fatalf("want 1 finding, got %d", len(findings))
		}
		f := findings[0]

		if want := "ASP_PREMIUM_V2_LEGACY-legacy-plan"; f.ID != want {
			t.Errorf("ID = %q; want %q", f.ID, want)
		}
		if f.Severity != models.SeverityLow {
			t.Errorf("Severity = %q; want LOW", f.Severity)
		}
		// P1v2 $146.00 vs P1v3 $124.83.
		if math.Abs(f.EstimatedMonthlySavings-21.17) > 0.001 {
			t.Errorf("EstimatedMonthlySavings = %.4f; want 21.17", f.EstimatedMonthlySavings)
		}
		if f.Metadata["current_sku"] != "P1v2" {
			t.Errorf("Metadata[current_sku] = %v; want P1v2", f.Metadata["current_sku"])
		}
		if f.Metadata["target_sku"] != "P1v3" {
			t.Errorf("Metadata[target_sku] = %v; want P1v3", f.Metadata["target_sku"])
		}
	})

	t.Run("savings scale with capacity", func(t *testing.T) {
		ctx := makeCtx(models.AppServicePlan{Name: "p", SKUName: "P3v2", Capacity: 3})
		findings := (ASPPremiumV2LegacyRule{}).Evaluate(ctx)
		if len(findings) != 1 {
			t.Fatalf("want 1 finding, got %d", len(findings))
		}
		// (584.00 - 499.32) x3.
		if math.Abs(findings[0].EstimatedMonthlySavings-254.04) > 0.001 {
			t.Errorf("EstimatedMonthlySavings = %.4f; want 254.04", findings[0].EstimatedMonthlySavings)
		}
	})
}
