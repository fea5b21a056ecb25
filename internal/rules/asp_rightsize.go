package rules

import (
	"fmt"
	"time"

	"github.com/azwaste/azwaste/internal/models"
	"github.com/azwaste/azwaste/internal/policy"
	"github.com/azwaste/azwaste/internal/pricing"
	"github.com/azwaste/azwaste/internal/rightsizing"
)

const (
	aspRightsizeRuleID = "ASP_RIGHTSIZE"

	// aspRightsizeMinSavingsUSD suppresses recommendations whose monthly
	// saving would not justify the change management effort.
	aspRightsizeMinSavingsUSD = 20.0
)

// ASPRightsizeRule runs the rightsizing decision engine over every App
// Service Plan with metric data and emits one finding per plan that has a
// viable cheaper (SKU, capacity) target under the active strategy.
//
// Plans with AvgCPUPercent == 0 are skipped: 0 means Azure Monitor data was
// unavailable, not that the plan is idle. Plans hosting zero apps are also
// skipped; ASPEmptyRule owns that case entirely.
type ASPRightsizeRule struct{}

func (r ASPRightsizeRule) ID() string   { return aspRightsizeRuleID }
func (r ASPRightsizeRule) Name() string { return "App Service Plan Rightsizing" }

// Evaluate projects each plan onto cheaper SKU/capacity targets and selects
// an option per the strategy in ctx. When ctx.Strategy is empty the
// rightsizing package recommends a strategy per plan from its utilisation.
func (r ASPRightsizeRule) Evaluate(ctx RuleContext) []models.Finding {
	if ctx.Subscription == nil {
		return nil
	}

	minSavings := policy.GetThreshold(aspRightsizeRuleID, "min_savings_usd", aspRightsizeMinSavingsUSD, ctx.Policy)

	var findings []models.Finding
	for _, plan := range ctx.Subscription.AppServicePlans {
		if plan.AppCount() == 0 {
			continue
		}
		if plan.AvgCPUPercent == 0 {
			continue
		}

		profile := rightsizing.PlanProfile{
			SKUName:          plan.SKUName,
			Capacity:         plan.Capacity,
			AvgCPUPercent:    plan.AvgCPUPercent,
			MaxCPUPercent:    plan.MaxCPUPercent,
			AvgMemoryPercent: plan.AvgMemoryPercent,
			MaxMemoryPercent: plan.MaxMemoryPercent,
			MetricWindowDays: plan.MetricWindowDays,
			AppCount:         plan.AppCount(),
		}

		strategy := rightsizing.ParseStrategy(ctx.Strategy)
		if ctx.Strategy == "" {
			strategy = rightsizing.RecommendStrategy(profile)
		}

		rec, ok := rightsizing.Recommend(profile, strategy)
		if !ok || rec.MonthlySavings < minSavings {
			continue
		}

		findings = append(findings, models.Finding{
			ID:                      fmt.Sprintf("%s-%s", aspRightsizeRuleID, plan.Name),
			RuleID:                  aspRightsizeRuleID,
			ResourceID:              plan.Name,
			ResourceType:            models.ResourceAppServicePlan,
			ResourceGroup:           plan.ResourceGroup,
			Location:                plan.Location,
			SubscriptionID:          ctx.SubscriptionID,
			SubscriptionName:        ctx.SubscriptionName,
			Severity:                pricing.SeverityForMonthlySavings(rec.MonthlySavings),
			EstimatedMonthlySavings: rec.MonthlySavings,
			Explanation: fmt.Sprintf(
				"Plan %s (%s x%d) averages %.1f%% CPU; %s x%d would run at a projected %.1f%%.",
				plan.Name, plan.SKUName, plan.Capacity,
				plan.AvgCPUPercent, rec.TargetSKU, rec.TargetCapacity, rec.ProjectedCPUPercent,
			),
			Recommendation: fmt.Sprintf(
				"Resize to %s with %d instance(s) (%s strategy, %s risk, %.2f confidence).",
				rec.TargetSKU, rec.TargetCapacity, rec.Strategy, rec.Risk, rec.Confidence,
			),
			NextStep: fmt.Sprintf(
				"az appservice plan update -g %s -n %s --sku %s --number-of-workers %d",
				plan.ResourceGroup, plan.Name, rec.TargetSKU, rec.TargetCapacity,
			),
			DetectedAt: time.Now().UTC(),
			Metadata: map[string]any{
				"current_sku":              plan.SKUName,
				"current_capacity":         plan.Capacity,
				"target_sku":               rec.TargetSKU,
				"target_capacity":          rec.TargetCapacity,
				"strategy":                 string(rec.Strategy),
				"risk":                     string(rec.Risk),
				"confidence":               rec.Confidence,
				"projected_cpu_percent":    rec.ProjectedCPUPercent,
				"projected_memory_percent": rec.ProjectedMemoryPercent,
				"avg_cpu_percent":          plan.AvgCPUPercent,
				"app_count":                plan.AppCount(),
			},
		})
	}
	return findings
}
