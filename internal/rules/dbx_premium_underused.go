package rules

import (
	"fmt"
	"strings"
	"time"

	"github.com/azwaste/azwaste/internal/models"
	"github.com/azwaste/azwaste/internal/policy"
	"github.com/azwaste/azwaste/internal/pricing"
)

const dbxPremiumUnderusedRuleID = "DBX_PREMIUM_UNDERUSED"

// premiumMarkerTags are workspace tag keys whose presence suggests premium
// features are deliberately in use; flagging such workspaces would be noise.
var premiumMarkerTags = []string{
	"unity-catalog",
	"rbac",
	"credential-passthrough",
	"compliance",
}

// DBXPremiumUnderusedRule flags premium-tier Databricks workspaces with no
// tag marker indicating premium features are in use. The premium tier bills
// a higher per-DBU rate for every workload; a workspace that only runs
// notebooks and jobs pays the delta for nothing.
//
// ARM exposes no DBU consumption metric, so savings use a baseline monthly
// DBU estimate, overridable via the monthly_dbu_baseline policy param.
type DBXPremiumUnderusedRule struct{}

func (r DBXPremiumUnderusedRule) ID() string   { return dbxPremiumUnderusedRuleID }
func (r DBXPremiumUnderusedRule) Name() string { return "Underused Premium Databricks Workspace" }

func (r DBXPremiumUnderusedRule) Evaluate(ctx RuleContext) []models.Finding {
	if ctx.Subscription == nil {
		return nil
	}

	baseline := policy.GetThreshold(dbxPremiumUnderusedRuleID, "monthly_dbu_baseline", pricing.DefaultMonthlyDBUBaseline, ctx.Policy)

	var findings []models.Finding
	for _, ws := range ctx.Subscription.DatabricksWorkspaces {
		if !strings.EqualFold(ws.SKUTier, "premium") {
			continue
		}
		if hasPremiumMarker(ws.Tags) {
			continue
		}

		savings := pricing.PremiumTierMonthlyPremium(baseline)

		findings = append(findings, models.Finding{
			ID:                      fmt.Sprintf("%s-%s", dbxPremiumUnderusedRuleID, ws.Name),
			RuleID:                  dbxPremiumUnderusedRuleID,
			ResourceID:              ws.Name,
			ResourceType:            models.ResourceDatabricksWorkspace,
			ResourceGroup:           ws.ResourceGroup,
			Location:                ws.Location,
			SubscriptionID:          ctx.SubscriptionID,
			SubscriptionName:        ctx.SubscriptionName,
			Severity:                pricing.SeverityForMonthlySavings(savings),
			EstimatedMonthlySavings: savings,
			Explanation:             fmt.Sprintf("Workspace %s is on the premium tier with no marker of premium-feature use.", ws.Name),
			Recommendation:          "Confirm whether Unity Catalog, RBAC, or credential passthrough are required; downgrade to standard otherwise.",
			NextStep:                fmt.Sprintf("az databricks workspace update -g %s -n %s --sku standard", ws.ResourceGroup, ws.Name),
			DetectedAt:              time.Now().UTC(),
			Metadata: map[string]any{
				"sku_tier":             ws.SKUTier,
				"monthly_dbu_baseline": baseline,
			},
		})
	}
	return findings
}

// hasPremiumMarker matches tag keys case-insensitively; "Unity-Catalog" and
// "unity-catalog" both exempt the workspace.
func hasPremiumMarker(tags map[string]string) bool {
	for key := range tags {
		for _, marker := range premiumMarkerTags {
			if strings.EqualFold(key, marker) {
				return true
			}
		}
	}
	return false
}
