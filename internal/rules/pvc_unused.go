package rules

import (
	"fmt"
	"time"

	"github.com/azwaste/azwaste/internal/models"
	"github.com/azwaste/azwaste/internal/pricing"
)

const pvcUnusedRuleID = "PVC_UNUSED"

// PVCUnusedRule flags bound claims that no pod mounts. The backing disk
// bills for its full provisioned capacity whether or not anything reads it;
// savings are the provisioned size priced at the claim's storage class rate.
type PVCUnusedRule struct{}

func (r PVCUnusedRule) ID() string   { return pvcUnusedRuleID }
func (r PVCUnusedRule) Name() string { return "Unused PersistentVolumeClaim" }

func (r PVCUnusedRule) Evaluate(ctx RuleContext) []models.Finding {
	if ctx.Cluster == nil {
		return nil
	}

	var findings []models.Finding
	for _, claim := range ctx.Cluster.Claims {
		if claim.Phase != "Bound" || len(claim.MountedBy) > 0 {
			continue
		}

		savings := pricing.DiskMonthlyCost(claim.StorageClassName, claim.RequestedGiB)
		severity := pricing.SeverityForMonthlySavings(savings)
		if severity == models.SeverityInfo {
			severity = models.SeverityLow
		}

		findings = append(findings, models.Finding{
			ID:                      fmt.Sprintf("%s-%s-%s", pvcUnusedRuleID, claim.Namespace, claim.Name),
			RuleID:                  pvcUnusedRuleID,
			ResourceID:              claim.Name,
			ResourceType:            models.ResourceK8sPVC,
			Location:                claim.Namespace,
			Severity:                severity,
			EstimatedMonthlySavings: savings,
			Explanation:             fmt.Sprintf("Claim %s/%s (%.0f GiB) is bound but mounted by no pod.", claim.Namespace, claim.Name, claim.RequestedGiB),
			Recommendation:          "Confirm the data is no longer needed, snapshot if unsure, then delete the claim.",
			NextStep:                fmt.Sprintf("kubectl delete pvc %s -n %s", claim.Name, claim.Namespace),
			DetectedAt:              time.Now().UTC(),
			Metadata: map[string]any{
				"requested_gib": claim.RequestedGiB,
				"storage_class": claim.StorageClassName,
				"volume":        claim.VolumeName,
			},
		})
	}
	return findings
}
