package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/azwaste/azwaste/internal/models"
	"github.com/azwaste/azwaste/internal/policy"
	"github.com/azwaste/azwaste/internal/pricing"
	"github.com/azwaste/azwaste/internal/providers/azure/aks"
	"github.com/azwaste/azwaste/internal/providers/azure/appservice"
	"github.com/azwaste/azwaste/internal/providers/azure/common"
	"github.com/azwaste/azwaste/internal/providers/azure/databricks"
	"github.com/azwaste/azwaste/internal/rules"
)

// Collectors bundles the per-service Azure collectors the cost engine drives.
// Tests inject fakes; production wires the Default collectors.
type Collectors struct {
	AppService appservice.Collector
	AKS        aks.Collector
	Databricks databricks.Collector
}

// AzureCostEngine is the production implementation of Engine for azure-cost.
// It coordinates data collection, rule evaluation, and report assembly.
// It never calls the Azure SDK directly.
type AzureCostEngine struct {
	provider   common.ClientProvider
	collectors Collectors
	registry   rules.RuleRegistry
	policy     *policy.PolicyConfig
}

// NewAzureCostEngine constructs an AzureCostEngine wired to the supplied
// provider, collectors, and rule registry.
func NewAzureCostEngine(
	provider common.ClientProvider,
	collectors Collectors,
	registry rules.RuleRegistry,
	policyCfg *policy.PolicyConfig,
) *AzureCostEngine {
	return &AzureCostEngine{
		provider:   provider,
		collectors: collectors,
		registry:   registry,
		policy:     policyCfg,
	}
}

// RunAudit implements Engine. It resolves the requested subscription(s),
// collects inventory and metrics, evaluates all registered rules, and returns
// a fully populated AuditReport.
func (e *AzureCostEngine) RunAudit(ctx context.Context, opts AuditOptions) (*models.AuditReport, error) {
	if opts.AuditType != AuditTypeAzureCost {
		return nil, fmt.Errorf("unsupported audit type: %q", opts.AuditType)
	}

	daysBack := opts.DaysBack
	if daysBack <= 0 {
		daysBack = 30
	}

	if opts.AllSubscriptions {
		return e.runAllSubscriptions(ctx, opts, daysBack)
	}
	return e.runSingleSubscription(ctx, opts, daysBack)
}

// runSingleSubscription executes a cost audit for one subscription and
// returns the resulting report.
func (e *AzureCostEngine) runSingleSubscription(
	ctx context.Context,
	opts AuditOptions,
	daysBack int,
) (*models.AuditReport, error) {
	sub, err := e.provider.ResolveSubscription(ctx, opts.SubscriptionID)
	if err != nil {
		return nil, fmt.Errorf("resolve subscription: %w", err)
	}

	data, err := e.collectSubscription(ctx, sub, opts, daysBack)
	if err != nil {
		return nil, fmt.Errorf("collect data for subscription %q: %w", sub.ID, err)
	}

	findings := e.evaluate(data, opts.Strategy)
	report := buildCostReportFrom(findings, []*models.SubscriptionData{data}, e.policy)
	report.SubscriptionID = sub.ID
	report.SubscriptionName = sub.Name
	report.Locations = data.Locations
	return report, nil
}

// maxConcurrentSubscriptions caps the number of subscriptions audited in
// parallel. Keeps outbound ARM API concurrency predictable on large tenants.
const maxConcurrentSubscriptions = 3

// runAllSubscriptions lists every visible subscription, audits each one in
// parallel (max maxConcurrentSubscriptions at a time), and merges all findings
// into a single report. The report-level SubscriptionID is set to "multi";
// each individual Finding carries its own SubscriptionID.
// Fail-fast: the first subscription error cancels all remaining goroutines.
func (e *AzureCostEngine) runAllSubscriptions(
	ctx context.Context,
	opts AuditOptions,
	daysBack int,
) (*models.AuditReport, error) {
	subs, err := e.provider.ListSubscriptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	if len(subs) == 0 {
		return nil, fmt.Errorf("no Azure subscriptions visible to the credential")
	}

	sem := make(chan struct{}, maxConcurrentSubscriptions)
	var (
		mu          sync.Mutex
		allFindings []models.Finding
		allData     []*models.SubscriptionData
	)

	g, gctx := errgroup.WithContext(ctx)

SUBSCRIPTIONS:
	for _, sub := range subs {
		sub := sub // capture loop variable for goroutine closure
		select {
		case sem <- struct{}{}: // acquire semaphore slot; blocks when at capacity
		case <-gctx.Done():
			break SUBSCRIPTIONS // context cancelled by a prior goroutine error
		}

		g.Go(func() error {
			defer func() { <-sem }() // release semaphore slot on return

			data, err := e.collectSubscription(gctx, sub, opts, daysBack)
			if err != nil {
				return fmt.Errorf("collect data for subscription %q: %w", sub.ID, err)
			}

			findings := e.evaluate(data, opts.Strategy)

			mu.Lock()
			allFindings = append(allFindings, findings...)
			allData = append(allData, data)
			mu.Unlock()

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := buildCostReportFrom(allFindings, allData, e.policy)
	report.SubscriptionID = "multi"
	report.Locations = mergeLocations(allData)
	return report, nil
}

// collectSubscription runs the three service collectors for one subscription
// in parallel. A collector failure is degraded to a CollectionWarning and an
// empty inventory for that service; losing one service must not abort the
// whole audit.
func (e *AzureCostEngine) collectSubscription(
	ctx context.Context,
	sub common.SubscriptionInfo,
	opts AuditOptions,
	daysBack int,
) (*models.SubscriptionData, error) {
	data := &models.SubscriptionData{
		SubscriptionID:   sub.ID,
		SubscriptionName: sub.Name,
	}

	var mu sync.Mutex
	warn := func(service string, err error) {
		mu.Lock()
		data.CollectionWarnings = append(data.CollectionWarnings,
			fmt.Sprintf("%s: %v", service, err))
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		plans, err := e.collectors.AppService.Collect(gctx, sub, appservice.CollectOptions{
			Locations: opts.Locations,
			DaysBack:  daysBack,
		})
		if err != nil {
			warn("app service plans", err)
			return nil
		}
		mu.Lock()
		data.AppServicePlans = plans
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		clusters, err := e.collectors.AKS.Collect(gctx, sub, aks.CollectOptions{
			Locations: opts.Locations,
			DaysBack:  daysBack,
		})
		if err != nil {
			warn("aks clusters", err)
			return nil
		}
		mu.Lock()
		data.AKSClusters = clusters
		mu.Unlock()
		return nil
	})

	g.Go(func() error {
		workspaces, err := e.collectors.Databricks.Collect(gctx, sub, databricks.CollectOptions{
			Locations: opts.Locations,
		})
		if err != nil {
			warn("databricks workspaces", err)
			return nil
		}
		mu.Lock()
		data.DatabricksWorkspaces = workspaces
		mu.Unlock()
		return nil
	})

	// Workers never return errors; failures already degraded to warnings.
	_ = g.Wait()

	if len(data.CollectionWarnings) == 3 {
		return nil, fmt.Errorf("all collectors failed: %s", strings.Join(data.CollectionWarnings, "; "))
	}

	data.Locations = inventoryLocations(data)
	return data, nil
}

// evaluate applies every registered rule to one subscription's collected data
// and returns the findings with Domain stamped.
func (e *AzureCostEngine) evaluate(data *models.SubscriptionData, strategy string) []models.Finding {
	rctx := rules.RuleContext{
		SubscriptionID:   data.SubscriptionID,
		SubscriptionName: data.SubscriptionName,
		Subscription:     data,
		Strategy:         strategy,
		Policy:           e.policy,
	}
	findings := e.registry.EvaluateAll(rctx)
	stampDomain(findings, string(AuditTypeAzureCost))
	return findings
}

// buildCostReportFrom assembles the final AuditReport from findings and the
// collected subscription data. Raw findings are merged per resource (same
// subscription, resource group, resource ID, and location), policy-filtered,
// annual-stamped, then sorted:
// CRITICAL first, ties broken by EstimatedMonthlySavings descending.
func buildCostReportFrom(
	findings []models.Finding,
	data []*models.SubscriptionData,
	policyCfg *policy.PolicyConfig,
) *models.AuditReport {
	merged := mergeFindings(findings)
	merged = policy.ApplyPolicy(merged, string(AuditTypeAzureCost), policyCfg)
	stampAnnualSavings(merged)
	sortFindings(merged)

	report := &models.AuditReport{
		ReportID:    fmt.Sprintf("audit-%d", time.Now().UnixNano()),
		GeneratedAt: time.Now().UTC(),
		AuditType:   string(AuditTypeAzureCost),
		Summary:     computeSummary(merged),
		Findings:    merged,
		CostSummary: computeCostSummary(data),
	}
	if warnings := collectWarnings(data); len(warnings) > 0 {
		report.Metadata = map[string]any{"collection_warnings": warnings}
	}
	return report
}

// computeCostSummary estimates the monthly spend of the inventoried resources
// from the static pricing tables. It is an estimate for prioritisation, not a
// billing figure. Returns nil when no data was collected.
func computeCostSummary(data []*models.SubscriptionData) *models.CostSummary {
	if len(data) == 0 {
		return nil
	}

	svcTotals := make(map[string]float64)
	for _, d := range data {
		if d == nil {
			continue
		}
		for _, plan := range d.AppServicePlans {
			svcTotals["App Service"] += pricing.AppServicePlanMonthlyCost(plan.SKUName, plan.Capacity)
		}
		for _, cluster := range d.AKSClusters {
			for _, pool := range cluster.NodePools {
				svcTotals["AKS"] += pricing.AKSNodePoolMonthlyCost(pool.VMSize, pool.Count)
			}
		}
		for _, ws := range d.DatabricksWorkspaces {
			svcTotals["Databricks"] += pricing.DatabricksWorkspaceMonthlyCost(ws.SKUTier, pricing.DefaultMonthlyDBUBaseline)
		}
	}

	summary := &models.CostSummary{}
	services := make([]string, 0, len(svcTotals))
	for svc := range svcTotals {
		services = append(services, svc)
	}
	sort.Strings(services)
	for _, svc := range services {
		summary.TotalMonthlyUSD += svcTotals[svc]
		summary.ServiceBreakdown = append(summary.ServiceBreakdown, models.ServiceCost{
			Service:    svc,
			MonthlyUSD: svcTotals[svc],
		})
	}
	return summary
}

// inventoryLocations returns the distinct, sorted set of locations seen in
// one subscription's inventory.
func inventoryLocations(data *models.SubscriptionData) []string {
	seen := make(map[string]struct{})
	for _, p := range data.AppServicePlans {
		seen[p.Location] = struct{}{}
	}
	for _, c := range data.AKSClusters {
		seen[c.Location] = struct{}{}
	}
	for _, w := range data.DatabricksWorkspaces {
		seen[w.Location] = struct{}{}
	}
	delete(seen, "")

	out := make([]string, 0, len(seen))
	for loc := range seen {
		out = append(out, loc)
	}
	sort.Strings(out)
	return out
}

// mergeLocations unions the location sets of multiple subscriptions.
func mergeLocations(data []*models.SubscriptionData) []string {
	seen := make(map[string]struct{})
	for _, d := range data {
		if d == nil {
			continue
		}
		for _, loc := range d.Locations {
			seen[loc] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for loc := range seen {
		out = append(out, loc)
	}
	sort.Strings(out)
	return out
}

// collectWarnings gathers CollectionWarnings across subscriptions, prefixed
// with the subscription ID when more than one was audited.
func collectWarnings(data []*models.SubscriptionData) []string {
	var out []string
	for _, d := range data {
		if d == nil {
			continue
		}
		for _, w := range d.CollectionWarnings {
			if len(data) > 1 {
				w = d.SubscriptionID + ": " + w
			}
			out = append(out, w)
		}
	}
	return out
}
