package rules

import (
	"fmt"
	"time"

	"github.com/azwaste/azwaste/internal/models"
)

const pvcProvisionFailureRuleID = "PVC_PROVISION_FAILURE"

// failureReasons are the event reasons that indicate a provisioning problem.
var failureReasons = map[string]struct{}{
	"ProvisioningFailed": {},
	"VolumeFailedDelete": {},
	"FailedBinding":      {},
}

// PVCProvisionFailureRule surfaces warning events with provisioning failure
// reasons against claims. One finding is emitted per (claim, reason) pair;
// the event count and last message are carried in metadata.
type PVCProvisionFailureRule struct{}

func (r PVCProvisionFailureRule) ID() string   { return pvcProvisionFailureRuleID }
func (r PVCProvisionFailureRule) Name() string { return "PVC Provisioning Failure Events" }

func (r PVCProvisionFailureRule) Evaluate(ctx RuleContext) []models.Finding {
	if ctx.Cluster == nil {
		return nil
	}

	var findings []models.Finding
	seen := make(map[string]struct{})

	for _, ev := range ctx.Cluster.Events {
		if ev.Type != "Warning" || ev.InvolvedKind != "PersistentVolumeClaim" {
			continue
		}
		if _, ok := failureReasons[ev.Reason]; !ok {
			continue
		}

		key := ev.Namespace + "/" + ev.InvolvedName + "/" + ev.Reason
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		findings = append(findings, models.Finding{
			ID:             fmt.Sprintf("%s-%s-%s-%s", pvcProvisionFailureRuleID, ev.Namespace, ev.InvolvedName, ev.Reason),
			RuleID:         pvcProvisionFailureRuleID,
			ResourceID:     ev.InvolvedName,
			ResourceType:   models.ResourceK8sPVC,
			Location:       ev.Namespace,
			Severity:       models.SeverityMedium,
			Explanation:    fmt.Sprintf("Claim %s/%s has %s events (x%d): %s", ev.Namespace, ev.InvolvedName, ev.Reason, ev.Count, ev.Message),
			Recommendation: "Inspect the CSI driver / provisioner logs for the storage class in use.",
			NextStep:       fmt.Sprintf("kubectl get events -n %s --field-selector involvedObject.name=%s", ev.Namespace, ev.InvolvedName),
			DetectedAt:     time.Now().UTC(),
			Metadata: map[string]any{
				"reason":    ev.Reason,
				"count":     ev.Count,
				"last_seen": ev.LastSeen,
			},
		})
	}
	return findings
}
