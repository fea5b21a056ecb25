package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"

	"github.com/azwaste/azwaste/internal/models"
	"github.com/azwaste/azwaste/internal/providers/azure/aks"
	"github.com/azwaste/azwaste/internal/providers/azure/appservice"
	"github.com/azwaste/azwaste/internal/providers/azure/common"
	"github.com/azwaste/azwaste/internal/providers/azure/databricks"
	"github.com/azwaste/azwaste/internal/rulepacks/azurecost"
	"github.com/azwaste/azwaste/internal/rules"
)

// fakeClientProvider implements common.ClientProvider without touching Azure.
type fakeClientProvider struct {
	subs       []common.SubscriptionInfo
	resolveErr error
	listErr    error
}

func (f *fakeClientProvider) Credential() azcore.TokenCredential { return nil }

func (f *fakeClientProvider) ResolveSubscription(ctx context.Context, id string) (common.SubscriptionInfo, error) {
	if f.resolveErr != nil {
		return common.SubscriptionInfo{}, f.resolveErr
	}
	for _, s := range f.subs {
		if s.ID == id || id == "" {
			return s, nil
		}
	}
	return common.SubscriptionInfo{}, fmt.Errorf("subscription %q not found", id)
}

func (f *fakeClientProvider) ListSubscriptions(ctx context.Context) ([]common.SubscriptionInfo, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.subs, nil
}

// fakeAppServiceCollector returns canned plans keyed by subscription ID.
type fakeAppServiceCollector struct {
	plans map[string][]models.AppServicePlan
	err   error
}

func (f fakeAppServiceCollector) Collect(ctx context.Context, sub common.SubscriptionInfo, opts appservice.CollectOptions) ([]models.AppServicePlan, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.plans[sub.ID], nil
}

type fakeAKSCollector struct {
	clusters map[string][]models.AKSCluster
	err      error
}

func (f fakeAKSCollector) Collect(ctx context.Context, sub common.SubscriptionInfo, opts aks.CollectOptions) ([]models.AKSCluster, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.clusters[sub.ID], nil
}

type fakeDatabricksCollector struct {
	workspaces map[string][]models.DatabricksWorkspace
	err        error
}

func (f fakeDatabricksCollector) Collect(ctx context.Context, sub common.SubscriptionInfo, opts databricks.CollectOptions) ([]models.DatabricksWorkspace, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.workspaces[sub.ID], nil
}

func newCostRegistry() rules.RuleRegistry {
	reg := rules.NewDefaultRuleRegistry()
	for _, r := range azurecost.New() {
		reg.Register(r)
	}
	return reg
}

func TestAzureCostEngine_RejectsWrongAuditType(t *testing.T) {
	e := NewAzureCostEngine(&fakeClientProvider{}, Collectors{}, newCostRegistry(), nil)
	_, err := e.RunAudit(context.Background(), AuditOptions{AuditType: AuditTypePVCHealth})
	if err == nil {
		t.Fatal("expected error for wrong audit type")
	}
}

func TestAzureCostEngine_SingleSubscription(t *testing.T) {
	provider := &fakeClientProvider{
		subs: []common.SubscriptionInfo{{ID: "sub-1", Name: "prod"}},
	}
	collectors := Collectors{
		AppService: fakeAppServiceCollector{plans: map[string][]models.AppServicePlan{
			"sub-1": {{Name: "plan-empty", SKUName: "S1", Capacity: 1, Location: "eastus"}},
		}},
		AKS:        fakeAKSCollector{},
		Databricks: fakeDatabricksCollector{},
	}

	e := NewAzureCostEngine(provider, collectors, newCostRegistry(), nil)
	report, err := e.RunAudit(context.Background(), AuditOptions{
		AuditType:      AuditTypeAzureCost,
		SubscriptionID: "sub-1",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.AuditType != "azure-cost" {
		t.Errorf("AuditType = %q; want azure-cost", report.AuditType)
	}
	if report.SubscriptionID != "sub-1" {
		t.Errorf("SubscriptionID = %q; want sub-1", report.SubscriptionID)
	}
	if report.SubscriptionName != "prod" {
		t.Errorf("SubscriptionName = %q; want prod", report.SubscriptionName)
	}
	if len(report.Findings) != 1 {
		t.Fatalf("want 1 finding (empty plan), got %d", len(report.Findings))
	}

	f := report.Findings[0]
	if f.RuleID != "ASP_EMPTY" {
		t.Errorf("RuleID = %q; want ASP_EMPTY", f.RuleID)
	}
	if f.Domain != "azure-cost" {
		t.Errorf("Domain = %q; want azure-cost", f.Domain)
	}
	if f.EstimatedMonthlySavings != 73.00 {
		t.Errorf("EstimatedMonthlySavings = %.2f; want 73.00", f.EstimatedMonthlySavings)
	}
	if f.EstimatedAnnualSavings != 876.00 {
		t.Errorf("EstimatedAnnualSavings = %.2f; want 876.00 (12x monthly)", f.EstimatedAnnualSavings)
	}

	if len(report.Locations) != 1 || report.Locations[0] != "eastus" {
		t.Errorf("Locations = %v; want [eastus]", report.Locations)
	}
	if report.Summary.TotalFindings != 1 {
		t.Errorf("Summary.TotalFindings = %d; want 1", report.Summary.TotalFindings)
	}
	if report.CostSummary == nil {
		t.Fatal("CostSummary must be populated")
	}
	if report.CostSummary.TotalMonthlyUSD != 73.00 {
		t.Errorf("CostSummary.TotalMonthlyUSD = %.2f; want 73.00", report.CostSummary.TotalMonthlyUSD)
	}
	if report.Metadata != nil {
		t.Errorf("Metadata = %v; want nil (no collection warnings)", report.Metadata)
	}
}

func TestAzureCostEngine_ResolveError(t *testing.T) {
	provider := &fakeClientProvider{resolveErr: errors.New("no credential")}
	e := NewAzureCostEngine(provider, Collectors{}, newCostRegistry(), nil)

	_, err := e.RunAudit(context.Background(), AuditOptions{AuditType: AuditTypeAzureCost})
	if err == nil {
		t.Fatal("expected resolve error to propagate")
	}
}

func TestAzureCostEngine_PartialCollectorFailureDegrades(t *testing.T) {
	provider := &fakeClientProvider{
		subs: []common.SubscriptionInfo{{ID: "sub-1", Name: "prod"}},
	}
	collectors := Collectors{
		AppService: fakeAppServiceCollector{plans: map[string][]models.AppServicePlan{
			"sub-1": {{Name: "plan-empty", SKUName: "S1", Capacity: 1, Location: "eastus"}},
		}},
		AKS:        fakeAKSCollector{err: errors.New("throttled")},
		Databricks: fakeDatabricksCollector{},
	}

	e := NewAzureCostEngine(provider, collectors, newCostRegistry(), nil)
	report, err := e.RunAudit(context.Background(), AuditOptions{
		AuditType:      AuditTypeAzureCost,
		SubscriptionID: "sub-1",
	})
	if err != nil {
		t.Fatalf("one failing collector must not abort the audit: %v", err)
	}

	if len(report.Findings) != 1 {
		t.Errorf("want 1 finding from the surviving collectors, got %d", len(report.Findings))
	}

	warnings, ok := report.Metadata["collection_warnings"].([]string)
	if !ok {
		t.Fatalf("Metadata[collection_warnings] type = %T; want []string", report.Metadata["collection_warnings"])
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0], "aks clusters") {
		t.Errorf("collection_warnings = %v; want one aks warning", warnings)
	}
}

func TestAzureCostEngine_AllCollectorsFailing(t *testing.T) {
	provider := &fakeClientProvider{
		subs: []common.SubscriptionInfo{{ID: "sub-1", Name: "prod"}},
	}
	collectors := Collectors{
		AppService: fakeAppServiceCollector{err: errors.New("down")},
		AKS:        fakeAKSCollector{err: errors.New("down")},
		Databricks: fakeDatabricksCollector{err: errors.New("down")},
	}

	e := NewAzureCostEngine(provider, collectors, newCostRegistry(), nil)
	_, err := e.RunAudit(context.Background(), AuditOptions{
		AuditType:      AuditTypeAzureCost,
		SubscriptionID: "sub-1",
	})
	if err == nil {
		t.Fatal("expected error when every collector fails")
	}
	if !strings.Contains(err.Error(), "all collectors failed") {
		t.Errorf("error = %v; want 'all collectors failed'", err)
	}
}

func TestAzureCostEngine_AllSubscriptions(t *testing.T) {
	provider := &fakeClientProvider{
		subs: []common.SubscriptionInfo{
			{ID: "sub-1", Name: "prod"},
			{ID: "sub-2", Name: "dev"},
		},
	}
	collectors := Collectors{
		AppService: fakeAppServiceCollector{plans: map[string][]models.AppServicePlan{
			"sub-1": {{Name: "plan-a", SKUName: "S1", Capacity: 1, Location: "eastus"}},
			"sub-2": {{Name: "plan-b", SKUName: "B1", Capacity: 1, Location: "westeurope"}},
		}},
		AKS:        fakeAKSCollector{},
		Databricks: fakeDatabricksCollector{},
	}

	e := NewAzureCostEngine(provider, collectors, newCostRegistry(), nil)
	report, err := e.RunAudit(context.Background(), AuditOptions{
		AuditType:        AuditTypeAzureCost,
		AllSubscriptions: true,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.SubscriptionID != "multi" {
		t.Errorf("SubscriptionID = %q; want multi", report.SubscriptionID)
	}
	if len(report.Findings) != 2 {
		t.Fatalf("want 2 findings (one per subscription), got %d", len(report.Findings))
	}

	seen := map[string]bool{}
	for _, f := range report.Findings {
		seen[f.SubscriptionID] = true
	}
	if !seen["sub-1"] || !seen["sub-2"] {
		t.Errorf("findings must carry their own subscription IDs; got %v", seen)
	}

	if len(report.Locations) != 2 || report.Locations[0] != "eastus" || report.Locations[1] != "westeurope" {
		t.Errorf("Locations = %v; want [eastus westeurope]", report.Locations)
	}
}

func TestAzureCostEngine_AllSubscriptions_ListError(t *testing.T) {
	provider := &fakeClientProvider{listErr: errors.New("forbidden")}
	e := NewAzureCostEngine(provider, Collectors{}, newCostRegistry(), nil)

	_, err := e.RunAudit(context.Background(), AuditOptions{
		AuditType:        AuditTypeAzureCost,
		AllSubscriptions: true,
	})
	if err == nil {
		t.Fatal("expected list error to propagate")
	}
}

func TestAzureCostEngine_AllSubscriptions_NoneVisible(t *testing.T) {
	provider := &fakeClientProvider{}
	e := NewAzureCostEngine(provider, Collectors{}, newCostRegistry(), nil)

	_, err := e.RunAudit(context.Background(), AuditOptions{
		AuditType:        AuditTypeAzureCost,
		AllSubscriptions: true,
	})
	if err == nil {
		t.Fatal("expected error when no subscriptions are visible")
	}
}
