package rules

import (
	"testing"

	"github.com/azwaste/azwaste/internal/models"
)

func TestPVCUnusedRule_IDAndName(t *testing.T) {
	r := PVCUnusedRule{}
	if r.ID() != "PVC_UNUSED" {
		t.Errorf("ID = %q; want PVC_UNUSED", r.ID())
	}
	if r.Name() == "" {
		t.Error("Name must not be empty")
	}
}

func TestPVCUnusedRule_NilCluster(t *testing.T) {
	if got := (PVCUnusedRule{}).Evaluate(RuleContext{}); got != nil {
		t.Errorf("expected nil for nil Cluster, got len=%d", len(got))
	}
}

func TestPVCUnusedRule_Evaluate(t *testing.T) {
	makeCtx := func(claims ...models.ClaimInfo) RuleContext {
		return RuleContext{
			Cluster: &models.PVCClusterData{Claims: claims},
		}
	}

	t.Run("mounted claim is not flagged", func(t *testing.T) {
		ctx := makeCtx(models.ClaimInfo{
			Name:      "data",
			Namespace: "default",
			Phase:     "Bound",
			MountedBy: []string{"web-0"},
		})
		if got := (PVCUnusedRule{}).Evaluate(ctx); len(got) != 0 {
			t.Errorf("expected 0 findings for mounted claim, got %d", len(got))
		}
	})

	t.Run("pending claim is not flagged", func(t *testing.T) {
		ctx := makeCtx(models.ClaimInfo{Name: "data", Namespace: "default", Phase: "Pending"})
		if got := (PVCUnusedRule{}).Evaluate(ctx); len(got) != 0 {
			t.Errorf("expected 0 findings for pending claim, got %d", len(got))
		}
	})

	t.Run("bound unmounted claim is flagged with disk cost", func(t *testing.T) {
		claim := models.ClaimInfo{
			Name:             "orphan",
			Namespace:        "batch",
			Phase:            "Bound",
			StorageClassName: "default",
			VolumeName:       "pv-123",
			RequestedGiB:     100,
		}
		findings := (PVCUnusedRule{}).Evaluate(makeCtx(claim))
		if len(findings) != 1 {
			t.Fatalf("want 1 finding, got %d", len(findings))
		}
		f := findings[0]

		if want := "PVC_UNUSED-batch-orphan"; f.ID != want {
			t.Errorf("ID = %q; want %q", f.ID, want)
		}
		if f.Location != "batch" {
			t.Errorf("Location = %q; want batch (namespace)", f.Location)
		}
		// 100 GiB at the standard SSD rate.
		if f.EstimatedMonthlySavings != 7.68 {
			t.Errorf("EstimatedMonthlySavings = %.4f; want 7.68", f.EstimatedMonthlySavings)
		}
		if f.Severity != models.SeverityLow {
			t.Errorf("Severity = %q; want LOW", f.Severity)
		}
		if f.Metadata["volume"] != "pv-123" {
			t.Errorf("Metadata[volume] = %v; want pv-123", f.Metadata["volume"])
		}
	})

	t.Run("premium storage class prices higher", func(t *testing.T) {
		ctx := makeCtx(models.ClaimInfo{
			Name:             "orphan",
			Namespace:        "batch",
			Phase:            "Bound",
			StorageClassName: "managed-premium",
			RequestedGiB:     100,
		})
		findings := (PVCUnusedRule{}).Evaluate(ctx)
		if len(findings) != 1 {
			t.Fatalf("want 1 finding, got %d", len(findings))
		}
		if findings[0].EstimatedMonthlySavings != 13.20 {
			t.Errorf("EstimatedMonthlySavings = %.4f; want 13.20", findings[0].EstimatedMonthlySavings)
		}
	})

	t.Run("zero requested capacity still reports at least LOW", func(t *testing.T) {
		ctx := makeCtx(models.ClaimInfo{Name: "empty", Namespace: "default", Phase: "Bound"})
		findings := (PVCUnusedRule{}).Evaluate(ctx)
		if len(findings) != 1 {
			t.Fatalf("want 1 finding, got %d", len(findings))
		}
		if findings[0].Severity != models.SeverityLow {
			t.Errorf("Severity = %q; want LOW (upgraded from INFO)", findings[0].Severity)
		}
	})
}
