package rules

import (
	"fmt"
	"time"

	"github.com/azwaste/azwaste/internal/models"
	"github.com/azwaste/azwaste/internal/pricing"
)

const aspPremiumV2LegacyRuleID = "ASP_PREMIUM_V2_LEGACY"

// ASPPremiumV2LegacyRule flags PremiumV2 plans. PremiumV3 offers roughly
// twice the cores and memory per instance at a lower list price, so a v2
// plan is paying a legacy premium for less hardware.
//
// Savings are computed against the v3 SKU at the same ladder position
// (P1v2 → P1v3 and so on) with unchanged capacity. The rightsizing rule may
// independently find a deeper cut; merge handles the overlap.
type ASPPremiumV2LegacyRule struct{}

func (r ASPPremiumV2LegacyRule) ID() string   { return aspPremiumV2LegacyRuleID }
func (r ASPPremiumV2LegacyRule) Name() string { return "Legacy PremiumV2 Plan" }

// v2ToV3 maps each PremiumV2 SKU to its PremiumV3 successor.
var v2ToV3 = map[string]string{
	"P1v2": "P1v3",
	"P2v2": "P2v3",
	"P3v2": "P3v3",
}

func (r ASPPremiumV2LegacyRule) Evaluate(ctx RuleContext) []models.Finding {
	if ctx.Subscription == nil {
		return nil
	}

	var findings []models.Finding
	for _, plan := range ctx.Subscription.AppServicePlans {
		target, ok := v2ToV3[plan.SKUName]
		if !ok {
			continue
		}

		current := pricing.AppServicePlanMonthlyCost(plan.SKUName, plan.Capacity)
		proposed := pricing.AppServicePlanMonthlyCost(target, plan.Capacity)
		savings := current - proposed
		if savings <= 0 {
			continue
		}

		findings = append(findings, models.Finding{
			ID:                      fmt.Sprintf("%s-%s", aspPremiumV2LegacyRuleID, plan.Name),
			RuleID:                  aspPremiumV2LegacyRuleID,
			ResourceID:              plan.Name,
			ResourceType:            models.ResourceAppServicePlan,
			ResourceGroup:           plan.ResourceGroup,
			Location:                plan.Location,
			SubscriptionID:          ctx.SubscriptionID,
			SubscriptionName:        ctx.SubscriptionName,
			Severity:                models.SeverityLow,
			EstimatedMonthlySavings: savings,
			Explanation:             fmt.Sprintf("Plan %s runs on legacy %s; %s is cheaper with double the cores and memory.", plan.Name, plan.SKUName, target),
			Recommendation:          fmt.Sprintf("Migrate to %s. Check regional PremiumV3 availability first.", target),
			NextStep:                fmt.Sprintf("az appservice plan update -g %s -n %s --sku %s", plan.ResourceGroup, plan.Name, target),
			DetectedAt:              time.Now().UTC(),
			Metadata: map[string]any{
				"current_sku": plan.SKUName,
				"target_sku":  target,
				"capacity":    plan.Capacity,
			},
		})
	}
	return findings
}
