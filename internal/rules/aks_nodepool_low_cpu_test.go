package rules

import (
	"testing"

	"github.com/azwaste/azwaste/internal/models"
	"github.com/azwaste/azwaste/internal/policy"
)

func TestAKSNodePoolLowCPURule_IDAndName(t *testing.T) {
	r := AKSNodePoolLowCPURule{}
	if r.ID() != "AKS_NODEPOOL_LOW_CPU" {
		t.Errorf("ID = %q; want AKS_NODEPOOL_LOW_CPU", r.ID())
	}
	if r.Name() == "" {
		t.Error("Name must not be empty")
	}
}

func TestAKSNodePoolLowCPURule_NilSubscription(t *testing.T) {
	if got := (AKSNodePoolLowCPURule{}).Evaluate(RuleContext{}); got != nil {
		t.Errorf("expected nil for nil Subscription, got len=%d", len(got))
	}
}

func TestAKSNodePoolLowCPURule_Evaluate(t *testing.T) {
	makeCtx := func(pools ...models.AKSNodePool) RuleContext {
		return RuleContext{
			SubscriptionID: "sub-1",
			Subscription: &models.SubscriptionData{
				AKSClusters: []models.AKSCluster{{
					Name:          "aks-prod",
					ResourceGroup: "rg-1",
					Location:      "northeurope",
					NodePools:     pools,
				}},
			},
		}
	}

	t.Run("zero AvgCPUPercent is skipped (no metric data)", func(t *testing.T) {
		ctx := makeCtx(models.AKSNodePool{Name: "np1", VMSize: "Standard_D4s_v3", Count: 5, AvgCPUPercent: 0.0})
		if got := (AKSNodePoolLowCPURule{}).Evaluate(ctx); len(got) != 0 {
			t.Errorf("expected 0 findings for zero CPU (no data), got %d", len(got))
		}
	})

	t.Run("CPU at threshold is not flagged", func(t *testing.T) {
		ctx := makeCtx(models.AKSNodePool{Name: "np1", VMSize: "Standard_D4s_v3", Count: 5, AvgCPUPercent: 25.0})
		if got := (AKSNodePoolLowCPURule{}).Evaluate(ctx); len(got) != 0 {
			t.Errorf("CPU=25.0 (at threshold): expected 0 findings, got %d", len(got))
		}
	})

	t.Run("single-node pool is not flagged", func(t *testing.T) {
		ctx := makeCtx(models.AKSNodePool{Name: "np1", VMSize: "Standard_D4s_v3", Count: 1, AvgCPUPercent: 5.0})
		if got := (AKSNodePoolLowCPURule{}).Evaluate(ctx); len(got) != 0 {
			t.Errorf("expected 0 findings for single-node pool, got %d", len(got))
		}
	})

	t.Run("idle pool is flagged with removable node savings", func(t *testing.T) {
		pool := models.AKSNodePool{
			Name:          "workers",
			VMSize:        "Standard_D4s_v3",
			Mode:          "User",
			Count:         5,
			AvgCPUPercent: 10.0,
		}
		findings := (AKSNodePoolLowCPURule{}).Evaluate(makeCtx(pool))
		if len(findings) != 1 {
			t.Fatalf("want 1 finding, got %d", len(findings))
		}
		f := findings[0]

		if want := "AKS_NODEPOOL_LOW_CPU-aks-prod-workers"; f.ID != want {
			t.Errorf("ID = %q; want %q", f.ID, want)
		}
		if f.ResourceID != "aks-prod/workers" {
			t.Errorf("ResourceID = %q; want aks-prod/workers", f.ResourceID)
		}
		if f.ResourceType != models.ResourceAKSNodePool {
			t.Errorf("ResourceType = %q; want %q", f.ResourceType, models.ResourceAKSNodePool)
		}
		if f.Location != "northeurope" {
			t.Errorf("Location = %q; want northeurope", f.Location)
		}
		// keep = ceil(5 * 10 / 60) = 1, so 4 nodes at $140.16 each.
		if f.EstimatedMonthlySavings != 560.64 {
			t.Errorf("EstimatedMonthlySavings = %.4f; want 560.64", f.EstimatedMonthlySavings)
		}
		if f.Severity != models.SeverityLow {
			t.Errorf("Severity = %q; want LOW", f.Severity)
		}
		if f.Metadata["removable_nodes"] != int32(4) {
			t.Errorf("Metadata[removable_nodes] = %v; want 4", f.Metadata["removable_nodes"])
		}
		if f.Metadata["cluster"] != "aks-prod" {
			t.Errorf("Metadata[cluster] = %v; want aks-prod", f.Metadata["cluster"])
		}
		if f.DetectedAt.IsZero() {
			t.Error("DetectedAt must not be zero")
		}
	})

	t.Run("autoscaled pool keeps at least MinCount nodes", func(t *testing.T) {
		pool := models.AKSNodePool{
			Name:               "autoscaled",
			VMSize:             "Standard_D4s_v3",
			Count:              5,
			MinCount:           4,
			MaxCount:           10,
			AutoscalingEnabled: true,
			AvgCPUPercent:      10.0,
		}
		findings := (AKSNodePoolLowCPURule{}).Evaluate(makeCtx(pool))
		if len(findings) != 1 {
			t.Fatalf("want 1 finding, got %d", len(findings))
		}
		if findings[0].Metadata["removable_nodes"] != int32(1) {
			t.Errorf("Metadata[removable_nodes] = %v; want 1 (floored at MinCount)", findings[0].Metadata["removable_nodes"])
		}
	})

	t.Run("policy threshold override widens the net", func(t *testing.T) {
		ctx := makeCtx(models.AKSNodePool{Name: "np1", VMSize: "Standard_D4s_v3", Count: 5, AvgCPUPercent: 30.0})
		ctx.Policy = &policy.PolicyConfig{
			Rules: map[string]policy.RuleConfig{
				"AKS_NODEPOOL_LOW_CPU": {Params: map[string]float64{"cpu_threshold_percent": 40.0}},
			},
		}
		if got := (AKSNodePoolLowCPURule{}).Evaluate(ctx); len(got) != 1 {
			t.Errorf("CPU=30.0 with threshold 40: want 1 finding, got %d", len(got))
		}
	})
}

func TestRemovableNodes(t *testing.T) {
	tests := []struct {
		name   string
		pool   models.AKSNodePool
		target float64
		want   int32
	}{
		{
			name:   "single node pool",
			pool:   models.AKSNodePool{Count: 1, AvgCPUPercent: 2.0},
			target: 60.0,
			want:   0,
		},
		{
			name:   "idle five node pool keeps one",
			pool:   models.AKSNodePool{Count: 5, AvgCPUPercent: 10.0},
			target: 60.0,
			want:   4,
		},
		{
			name:   "moderate load keeps two",
			pool:   models.AKSNodePool{Count: 5, AvgCPUPercent: 24.0},
			target: 60.0,
			want:   3,
		},
		{
			name:   "autoscaler min count floors the keep",
			pool:   models.AKSNodePool{Count: 5, MinCount: 4, AutoscalingEnabled: true, AvgCPUPercent: 10.0},
			target: 60.0,
			want:   1,
		},
		{
			name:   "keep reaching count removes nothing",
			pool:   models.AKSNodePool{Count: 2, AvgCPUPercent: 55.0},
			target: 60.0,
			want:   0,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := removableNodes(tt.pool, tt.target); got != tt.want {
				t.Errorf("removableNodes() = %d; want %d", got, tt.want)
			}
		})
	}
}
