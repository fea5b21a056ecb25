package rules

import (
	"fmt"
	"time"

	"github.com/azwaste/azwaste/internal/models"
	"github.com/azwaste/azwaste/internal/pricing"
)

const pvReleasedRuleID = "PV_RELEASED"

// PVReleasedRule flags persistent volumes stuck in the Released or Failed
// phase. With a Retain reclaim policy the backing disk keeps billing after
// the claim is gone; Failed volumes additionally indicate a reclaim error
// that needs operator attention.
type PVReleasedRule struct{}

func (r PVReleasedRule) ID() string   { return pvReleasedRuleID }
func (r PVReleasedRule) Name() string { return "Released PersistentVolume" }

func (r PVReleasedRule) Evaluate(ctx RuleContext) []models.Finding {
	if ctx.Cluster == nil {
		return nil
	}

	var findings []models.Finding
	for _, vol := range ctx.Cluster.Volumes {
		if vol.Phase != "Released" && vol.Phase != "Failed" {
			continue
		}

		savings := pricing.DiskMonthlyCost(vol.StorageClassName, vol.CapacityGiB)
		severity := models.SeverityMedium
		if vol.Phase == "Failed" {
			severity = models.SeverityHigh
		}

		findings = append(findings, models.Finding{
			ID:                      fmt.Sprintf("%s-%s", pvReleasedRuleID, vol.Name),
			RuleID:                  pvReleasedRuleID,
			ResourceID:              vol.Name,
			ResourceType:            models.ResourceK8sPV,
			Location:                "", // PVs are cluster-scoped
			Severity:                severity,
			EstimatedMonthlySavings: savings,
			Explanation:             fmt.Sprintf("Volume %s (%.0f GiB) is %s; its former claim was %s.", vol.Name, vol.CapacityGiB, vol.Phase, vol.ClaimRef),
			Recommendation:          "Reclaim or delete the volume after confirming the data is no longer needed.",
			NextStep:                fmt.Sprintf("kubectl delete pv %s", vol.Name),
			DetectedAt:              time.Now().UTC(),
			Metadata: map[string]any{
				"phase":          vol.Phase,
				"capacity_gib":   vol.CapacityGiB,
				"reclaim_policy": vol.ReclaimPolicy,
				"claim_ref":      vol.ClaimRef,
			},
		})
	}
	return findings
}
