package rules

import (
	"fmt"
	"math"
	"time"

	"github.com/azwaste/azwaste/internal/models"
	"github.com/azwaste/azwaste/internal/policy"
	"github.com/azwaste/azwaste/internal/pricing"
)

const (
	aksNodePoolLowCPURuleID = "AKS_NODEPOOL_LOW_CPU"

	// aksLowCPUThresholdPercent is the average node CPU below which a pool
	// is considered overprovisioned.
	aksLowCPUThresholdPercent = 25.0

	// aksTargetCPUPercent is the utilisation the shrunken pool should land
	// at; removable nodes are computed against it.
	aksTargetCPUPercent = 60.0
)

// AKSNodePoolLowCPURule flags node pools whose average node CPU utilisation
// over the lookback window is below the threshold and estimates how many
// nodes could be removed while staying under the target utilisation.
//
// Pools with AvgCPUPercent == 0 are skipped: 0 means Azure Monitor had no
// data for the cluster, not that the nodes are idle. Autoscaled pools are
// floored at MinCount; system pools always keep at least one node.
type AKSNodePoolLowCPURule struct{}

func (r AKSNodePoolLowCPURule) ID() string   { return aksNodePoolLowCPURuleID }
func (r AKSNodePoolLowCPURule) Name() string { return "Low CPU AKS Node Pool" }

func (r AKSNodePoolLowCPURule) Evaluate(ctx RuleContext) []models.Finding {
	if ctx.Subscription == nil {
		return nil
	}

	threshold := policy.GetThreshold(aksNodePoolLowCPURuleID, "cpu_threshold_percent", aksLowCPUThresholdPercent, ctx.Policy)
	target := policy.GetThreshold(aksNodePoolLowCPURuleID, "target_cpu_percent", aksTargetCPUPercent, ctx.Policy)

	var findings []models.Finding
	for _, cluster := range ctx.Subscription.AKSClusters {
		for _, pool := range cluster.NodePools {
			if pool.AvgCPUPercent == 0 || pool.AvgCPUPercent >= threshold {
				continue
			}

			removable := removableNodes(pool, target)
			if removable < 1 {
				continue
			}

			savings := pricing.AKSNodePoolMonthlyCost(pool.VMSize, removable)
			resourceID := fmt.Sprintf("%s/%s", cluster.Name, pool.Name)

			findings = append(findings, models.Finding{
				ID:                      fmt.Sprintf("%s-%s-%s", aksNodePoolLowCPURuleID, cluster.Name, pool.Name),
				RuleID:                  aksNodePoolLowCPURuleID,
				ResourceID:              resourceID,
				ResourceType:            models.ResourceAKSNodePool,
				ResourceGroup:           cluster.ResourceGroup,
				Location:                cluster.Location,
				SubscriptionID:          ctx.SubscriptionID,
				SubscriptionName:        ctx.SubscriptionName,
				Severity:                pricing.SeverityForMonthlySavings(savings),
				EstimatedMonthlySavings: savings,
				Explanation: fmt.Sprintf(
					"Pool %s (%d x %s) averages %.1f%% node CPU; %d node(s) could be removed.",
					pool.Name, pool.Count, pool.VMSize, pool.AvgCPUPercent, removable,
				),
				Recommendation: fmt.Sprintf("Scale the pool down to %d node(s) or tighten autoscaler bounds.", pool.Count-removable),
				NextStep: fmt.Sprintf(
					"az aks nodepool scale -g %s --cluster-name %s -n %s --node-count %d",
					cluster.ResourceGroup, cluster.Name, pool.Name, pool.Count-removable,
				),
				DetectedAt: time.Now().UTC(),
				Metadata: map[string]any{
					"cluster":             cluster.Name,
					"pool":                pool.Name,
					"vm_size":             pool.VMSize,
					"node_count":          pool.Count,
					"removable_nodes":     removable,
					"avg_cpu_percent":     pool.AvgCPUPercent,
					"autoscaling_enabled": pool.AutoscalingEnabled,
				},
			})
		}
	}
	return findings
}

// removableNodes returns how many nodes can leave the pool while keeping
// projected CPU at or under target. Floors: autoscaler MinCount when
// autoscaling is on, 1 node for system pools, 1 node always.
func removableNodes(pool models.AKSNodePool, target float64) int32 {
	if pool.Count <= 1 {
		return 0
	}

	// currentLoad in node-units: count * avg%. keep = ceil(load / target).
	keep := int32(math.Ceil(float64(pool.Count) * pool.AvgCPUPercent / target))
	if keep < 1 {
		keep = 1
	}
	if pool.AutoscalingEnabled && keep < pool.MinCount {
		keep = pool.MinCount
	}
	if pool.Mode == "System" && keep < 1 {
		keep = 1
	}
	if keep >= pool.Count {
		return 0
	}
	return pool.Count - keep
}
