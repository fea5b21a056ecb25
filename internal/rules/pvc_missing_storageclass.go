package rules

import (
	"fmt"
	"time"

	"github.com/azwaste/azwaste/internal/models"
)

const pvcMissingStorageClassRuleID = "PVC_MISSING_STORAGECLASS"

// PVCMissingStorageClassRule flags claims that request a StorageClass which
// does not exist in the cluster. Such claims can never bind; the provisioner
// silently ignores them. Claims with an empty class name rely on the default
// class and are flagged only when no default class exists.
type PVCMissingStorageClassRule struct{}

func (r PVCMissingStorageClassRule) ID() string   { return pvcMissingStorageClassRuleID }
func (r PVCMissingStorageClassRule) Name() string { return "PVC With Missing StorageClass" }

func (r PVCMissingStorageClassRule) Evaluate(ctx RuleContext) []models.Finding {
	if ctx.Cluster == nil {
		return nil
	}

	classes := make(map[string]struct{}, len(ctx.Cluster.StorageClasses))
	hasDefault := false
	for _, sc := range ctx.Cluster.StorageClasses {
		classes[sc.Name] = struct{}{}
		if sc.IsDefault {
			hasDefault = true
		}
	}

	var findings []models.Finding
	for _, claim := range ctx.Cluster.Claims {
		if claim.Phase == "Bound" {
			// Already provisioned; a later class deletion does not affect it.
			continue
		}

		var explanation string
		switch {
		case claim.StorageClassName == "" && !hasDefault:
			explanation = fmt.Sprintf("Claim %s/%s relies on the default StorageClass, but the cluster has none.", claim.Namespace, claim.Name)
		case claim.StorageClassName != "":
			if _, ok := classes[claim.StorageClassName]; ok {
				continue
			}
			explanation = fmt.Sprintf("Claim %s/%s requests StorageClass %q, which does not exist.", claim.Namespace, claim.Name, claim.StorageClassName)
		default:
			continue
		}

		findings = append(findings, models.Finding{
			ID:             fmt.Sprintf("%s-%s-%s", pvcMissingStorageClassRuleID, claim.Namespace, claim.Name),
			RuleID:         pvcMissingStorageClassRuleID,
			ResourceID:     claim.Name,
			ResourceType:   models.ResourceK8sPVC,
			Location:       claim.Namespace,
			Severity:       models.SeverityHigh,
			Explanation:    explanation,
			Recommendation: "Create the missing StorageClass or point the claim at an existing one.",
			NextStep:       "kubectl get storageclass",
			DetectedAt:     time.Now().UTC(),
			Metadata: map[string]any{
				"requested_class": claim.StorageClassName,
				"phase":           claim.Phase,
			},
		})
	}
	return findings
}
