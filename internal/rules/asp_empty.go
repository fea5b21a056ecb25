package rules

import (
	"fmt"
	"time"

	"github.com/azwaste/azwaste/internal/models"
	"github.com/azwaste/azwaste/internal/pricing"
)

const aspEmptyRuleID = "ASP_EMPTY"

// ASPEmptyRule flags App Service Plans that host no apps at all.
// An empty plan bills its full SKU price for nothing; the entire monthly
// cost is recoverable by deleting the plan.
type ASPEmptyRule struct{}

func (r ASPEmptyRule) ID() string   { return aspEmptyRuleID }
func (r ASPEmptyRule) Name() string { return "Empty App Service Plan" }

func (r ASPEmptyRule) Evaluate(ctx RuleContext) []models.Finding {
	if ctx.Subscription == nil {
		return nil
	}

	var findings []models.Finding
	for _, plan := range ctx.Subscription.AppServicePlans {
		if plan.AppCount() > 0 {
			continue
		}
		monthly := pricing.AppServicePlanMonthlyCost(plan.SKUName, plan.Capacity)
		if monthly == 0 {
			// Free/unpriced tier; nothing to save.
			continue
		}

		severity := pricing.SeverityForMonthlySavings(monthly)
		if severity == models.SeverityLow {
			// An empty plan is pure waste regardless of size.
			severity = models.SeverityMedium
		}

		findings = append(findings, models.Finding{
			ID:                      fmt.Sprintf("%s-%s", aspEmptyRuleID, plan.Name),
			RuleID:                  aspEmptyRuleID,
			ResourceID:              plan.Name,
			ResourceType:            models.ResourceAppServicePlan,
			ResourceGroup:           plan.ResourceGroup,
			Location:                plan.Location,
			SubscriptionID:          ctx.SubscriptionID,
			SubscriptionName:        ctx.SubscriptionName,
			Severity:                severity,
			EstimatedMonthlySavings: monthly,
			Explanation:             fmt.Sprintf("Plan %s (%s x%d) hosts no apps.", plan.Name, plan.SKUName, plan.Capacity),
			Recommendation:          "Delete the plan, or move it to Free tier if it is a placeholder.",
			NextStep:                fmt.Sprintf("az appservice plan delete -g %s -n %s", plan.ResourceGroup, plan.Name),
			DetectedAt:              time.Now().UTC(),
			Metadata: map[string]any{
				"sku":      plan.SKUName,
				"capacity": plan.Capacity,
			},
		})
	}
	return findings
}
