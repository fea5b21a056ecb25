// Package appservice collects App Service Plan inventory and utilisation
// metrics. It must not apply business rules; rule evaluation happens in
// internal/rules against the returned models.
package appservice

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/monitor/azquery"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/appservice/armappservice/v2"
	"golang.org/x/sync/errgroup"

	"github.com/azwaste/azwaste/internal/models"
	"github.com/azwaste/azwaste/internal/providers/azure/common"
)

// CollectOptions carries per-subscription collection parameters.
type CollectOptions struct {
	// Locations filters plans to these Azure locations. Empty means all.
	Locations []string

	// DaysBack is the metric lookback window in days. Defaults to 30 when zero.
	DaysBack int
}

// Collector gathers App Service Plan data from one subscription.
type Collector interface {
	Collect(ctx context.Context, sub common.SubscriptionInfo, opts CollectOptions) ([]models.AppServicePlan, error)
}

// maxConcurrentMetricQueries caps parallel Azure Monitor calls per
// collection so large subscriptions do not trip API throttling.
const maxConcurrentMetricQueries = 5

// DefaultCollector is the production Collector backed by the real ARM and
// Azure Monitor clients.
type DefaultCollector struct {
	provider common.ClientProvider
}

// NewDefaultCollector returns a collector using the provider's credential.
func NewDefaultCollector(provider common.ClientProvider) *DefaultCollector {
	return &DefaultCollector{provider: provider}
}

// Collect pages through every App Service Plan in the subscription, lists
// the apps hosted on each, and enriches non-empty plans with CpuPercentage
// and MemoryPercentage averages fetched in parallel.
//
// Metric failures are non-fatal: affected plans retain AvgCPUPercent == 0,
// which rules treat as "no data available" rather than "idle".
func (c *DefaultCollector) Collect(ctx context.Context, sub common.SubscriptionInfo, opts CollectOptions) ([]models.AppServicePlan, error) {
	cred := c.provider.Credential()

	plansClient, err := armappservice.NewPlansClient(sub.ID, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("build plans client: %w", err)
	}
	metricsClient, err := azquery.NewMetricsClient(cred, nil)
	if err != nil {
		return nil, fmt.Errorf("build metrics client: %w", err)
	}

	plans, err := collectPlans(ctx, plansClient, opts.Locations)
	if err != nil {
		return nil, err
	}

	enrichPlanMetrics(ctx, metricsClient, plans, opts.DaysBack)
	return plans, nil
}

// collectPlans pages through all plans, converts each to the internal model,
// and lists the sites hosted on it.
func collectPlans(ctx context.Context, client *armappservice.PlansClient, locations []string) ([]models.AppServicePlan, error) {
	wanted := locationSet(locations)

	var plans []models.AppServicePlan
	pager := client.NewListPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list app service plans page: %w", err)
		}
		for _, p := range page.Value {
			if p == nil {
				continue
			}
			plan := toAppServicePlan(p)
			if len(wanted) > 0 {
				if _, ok := wanted[strings.ToLower(plan.Location)]; !ok {
					continue
				}
			}
			plan.Apps = collectPlanApps(ctx, client, plan.ResourceGroup, plan.Name)
			plans = append(plans, plan)
		}
	}
	return plans, nil
}

// collectPlanApps lists the sites hosted on one plan. Failures degrade to an
// empty app list; the empty-plan rule tolerates the resulting false negative
// better than an aborted audit.
func collectPlanApps(ctx context.Context, client *armappservice.PlansClient, resourceGroup, name string) []models.SiteApp {
	var apps []models.SiteApp
	pager := client.NewListWebAppsPager(resourceGroup, name, nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return apps
		}
		for _, site := range page.Value {
			if site == nil {
				continue
			}
			app := models.SiteApp{}
			if site.Name != nil {
				app.Name = *site.Name
			}
			if site.Kind != nil {
				app.Kind = *site.Kind
			}
			if site.Properties != nil && site.Properties.State != nil {
				app.State = *site.Properties.State
			}
			apps = append(apps, app)
		}
	}
	return apps
}

// enrichPlanMetrics fetches CPU and memory percentage stats for every plan
// that hosts at least one app, at most maxConcurrentMetricQueries at a time.
// Empty plans are skipped; they have no meaningful utilisation signal.
func enrichPlanMetrics(ctx context.Context, client common.MetricsAPI, plans []models.AppServicePlan, daysBack int) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentMetricQueries)

	var mu sync.Mutex
	for i := range plans {
		if plans[i].AppCount() == 0 || plans[i].ID == "" {
			continue
		}
		i := i
		g.Go(func() error {
			cpu := common.FetchMetricStats(gctx, client, plans[i].ID, "CpuPercentage", daysBack)
			mem := common.FetchMetricStats(gctx, client, plans[i].ID, "MemoryPercentage", daysBack)

			mu.Lock()
			plans[i].AvgCPUPercent = cpu.Avg
			plans[i].MaxCPUPercent = cpu.Max
			plans[i].AvgMemoryPercent = mem.Avg
			plans[i].MaxMemoryPercent = mem.Max
			plans[i].MetricWindowDays = daysBack
			mu.Unlock()
			return nil
		})
	}
	// Workers never return errors; metric failures already degraded to zero.
	_ = g.Wait()
}

// toAppServicePlan converts an SDK plan to the internal model.
func toAppServicePlan(p *armappservice.Plan) models.AppServicePlan {
	plan := models.AppServicePlan{}
	if p.ID != nil {
		plan.ID = *p.ID
		if rid, err := arm.ParseResourceID(*p.ID); err == nil {
			plan.ResourceGroup = rid.ResourceGroupName
		}
	}
	if p.Name != nil {
		plan.Name = *p.Name
	}
	if p.Location != nil {
		plan.Location = *p.Location
	}
	if p.SKU != nil {
		if p.SKU.Name != nil {
			plan.SKUName = *p.SKU.Name
		}
		if p.SKU.Tier != nil {
			plan.Tier = *p.SKU.Tier
		}
		if p.SKU.Capacity != nil {
			plan.Capacity = *p.SKU.Capacity
		}
	}
	if plan.Capacity < 1 {
		plan.Capacity = 1
	}
	plan.Tags = fromTagMap(p.Tags)
	return plan
}

// fromTagMap converts ARM's map[string]*string tags to a plain string map.
func fromTagMap(tags map[string]*string) map[string]string {
	if len(tags) == 0 {
		return nil
	}
	m := make(map[string]string, len(tags))
	for k, v := range tags {
		if v != nil {
			m[k] = *v
		}
	}
	return m
}

// locationSet lowercases a location filter into a membership set.
func locationSet(locations []string) map[string]struct{} {
	if len(locations) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(locations))
	for _, l := range locations {
		set[strings.ToLower(l)] = struct{}{}
	}
	return set
}
