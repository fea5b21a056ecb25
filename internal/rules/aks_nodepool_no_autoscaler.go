package rules

import (
	"fmt"
	"time"

	"github.com/azwaste/azwaste/internal/models"
)

const aksNodePoolNoAutoscalerRuleID = "AKS_NODEPOOL_NO_AUTOSCALER"

// AKSNodePoolNoAutoscalerRule flags user node pools running a fixed node
// count with the cluster autoscaler disabled. Fixed pools bill for their
// peak size around the clock; enabling the autoscaler lets the pool follow
// load. Single-node pools and system pools are exempt.
//
// No savings estimate is attached: the recoverable amount depends on the
// workload's daily shape, which a point-in-time inventory cannot see.
type AKSNodePoolNoAutoscalerRule struct{}

func (r AKSNodePoolNoAutoscalerRule) ID() string   { return aksNodePoolNoAutoscalerRuleID }
func (r AKSNodePoolNoAutoscalerRule) Name() string { return "AKS Node Pool Without Autoscaler" }

func (r AKSNodePoolNoAutoscalerRule) Evaluate(ctx RuleContext) []models.Finding {
	if ctx.Subscription == nil {
		return nil
	}

	var findings []models.Finding
	for _, cluster := range ctx.Subscription.AKSClusters {
		for _, pool := range cluster.NodePools {
			if pool.AutoscalingEnabled || pool.Mode == "System" || pool.Count <= 1 {
				continue
			}

			findings = append(findings, models.Finding{
				ID:               fmt.Sprintf("%s-%s-%s", aksNodePoolNoAutoscalerRuleID, cluster.Name, pool.Name),
				RuleID:           aksNodePoolNoAutoscalerRuleID,
				ResourceID:       fmt.Sprintf("%s/%s", cluster.Name, pool.Name),
				ResourceType:     models.ResourceAKSNodePool,
				ResourceGroup:    cluster.ResourceGroup,
				Location:         cluster.Location,
				SubscriptionID:   ctx.SubscriptionID,
				SubscriptionName: ctx.SubscriptionName,
				Severity:         models.SeverityLow,
				Explanation:      fmt.Sprintf("User pool %s runs a fixed %d nodes with the autoscaler disabled.", pool.Name, pool.Count),
				Recommendation:   "Enable the cluster autoscaler with min/max bounds sized to the workload.",
				NextStep: fmt.Sprintf(
					"az aks nodepool update -g %s --cluster-name %s -n %s --enable-cluster-autoscaler --min-count 1 --max-count %d",
					cluster.ResourceGroup, cluster.Name, pool.Name, pool.Count,
				),
				DetectedAt: time.Now().UTC(),
				Metadata: map[string]any{
					"cluster":    cluster.Name,
					"pool":       pool.Name,
					"node_count": pool.Count,
					"vm_size":    pool.VMSize,
				},
			})
		}
	}
	return findings
}
