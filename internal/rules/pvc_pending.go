package rules

import (
	"fmt"
	"time"

	"github.com/azwaste/azwaste/internal/models"
	"github.com/azwaste/azwaste/internal/policy"
)

const (
	pvcPendingRuleID = "PVC_PENDING"

	// pvcPendingAgeMinutes is how long a claim may sit unbound before it is
	// considered stuck rather than merely new.
	pvcPendingAgeMinutes = 15.0
)

// PVCPendingRule flags claims stuck in the Pending phase longer than the
// age threshold. A pending claim blocks every pod that mounts it, so this
// is a health issue, not a cost one. Lost claims are flagged unconditionally.
type PVCPendingRule struct{}

func (r PVCPendingRule) ID() string   { return pvcPendingRuleID }
func (r PVCPendingRule) Name() string { return "Pending PersistentVolumeClaim" }

func (r PVCPendingRule) Evaluate(ctx RuleContext) []models.Finding {
	if ctx.Cluster == nil {
		return nil
	}

	ageMinutes := policy.GetThreshold(pvcPendingRuleID, "pending_age_minutes", pvcPendingAgeMinutes, ctx.Policy)
	now := time.Now().UTC()

	var findings []models.Finding
	for _, claim := range ctx.Cluster.Claims {
		var explanation string
		severity := models.SeverityHigh

		switch claim.Phase {
		case "Pending":
			age := now.Sub(claim.CreatedAt)
			if age < time.Duration(ageMinutes*float64(time.Minute)) {
				continue
			}
			explanation = fmt.Sprintf("Claim %s/%s has been Pending for %s.", claim.Namespace, claim.Name, age.Round(time.Minute))
		case "Lost":
			severity = models.SeverityCritical
			explanation = fmt.Sprintf("Claim %s/%s lost its bound volume.", claim.Namespace, claim.Name)
		default:
			continue
		}

		findings = append(findings, models.Finding{
			ID:             fmt.Sprintf("%s-%s-%s", pvcPendingRuleID, claim.Namespace, claim.Name),
			RuleID:         pvcPendingRuleID,
			ResourceID:     claim.Name,
			ResourceType:   models.ResourceK8sPVC,
			Location:       claim.Namespace,
			Severity:       severity,
			Explanation:    explanation,
			Recommendation: "Check the claim's events and the provisioner for the requested storage class.",
			NextStep:       fmt.Sprintf("kubectl describe pvc %s -n %s", claim.Name, claim.Namespace),
			DetectedAt:     time.Now().UTC(),
			Metadata: map[string]any{
				"phase":         claim.Phase,
				"storage_class": claim.StorageClassName,
				"requested_gib": claim.RequestedGiB,
			},
		})
	}
	return findings
}
