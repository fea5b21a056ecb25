// Package databricks collects Azure Databricks workspace inventory.
package databricks

import (
	"context"
	"fmt"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/arm"
	"github.com/Azure/azure-sdk-for-go/sdk/resourcemanager/databricks/armdatabricks"

	"github.com/azwaste/azwaste/internal/models"
	"github.com/azwaste/azwaste/internal/providers/azure/common"
)

// CollectOptions carries per-subscription collection parameters.
type CollectOptions struct {
	// Locations filters workspaces to these Azure locations. Empty means all.
	Locations []string
}

// Collector gathers Databricks workspaces from one subscription.
type Collector interface {
	Collect(ctx context.Context, sub common.SubscriptionInfo, opts CollectOptions) ([]models.DatabricksWorkspace, error)
}

// DefaultCollector is the production Collector backed by the real ARM client.
type DefaultCollector struct {
	provider common.ClientProvider
}

// NewDefaultCollector returns a collector using the provider's credential.
func NewDefaultCollector(provider common.ClientProvider) *DefaultCollector {
	return &DefaultCollector{provider: provider}
}

// Collect pages through every Databricks workspace in the subscription.
// DBU consumption is not an ARM platform metric, so workspaces carry only
// inventory data; rules estimate usage from the configured baseline.
func (c *DefaultCollector) Collect(ctx context.Context, sub common.SubscriptionInfo, opts CollectOptions) ([]models.DatabricksWorkspace, error) {
	client, err := armdatabricks.NewWorkspacesClient(sub.ID, c.provider.Credential(), nil)
	if err != nil {
		return nil, fmt.Errorf("build databricks workspaces client: %w", err)
	}

	wanted := locationSet(opts.Locations)

	var workspaces []models.DatabricksWorkspace
	pager := client.NewListBySubscriptionPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list databricks workspaces page: %w", err)
		}
		for _, ws := range page.Value {
			if ws == nil {
				continue
			}
			workspace := toWorkspace(ws)
			if len(wanted) > 0 {
				if _, ok := wanted[strings.ToLower(workspace.Location)]; !ok {
					continue
				}
			}
			workspaces = append(workspaces, workspace)
		}
	}
	return workspaces, nil
}

// toWorkspace converts an SDK workspace to the internal model.
func toWorkspace(ws *armdatabricks.Workspace) models.DatabricksWorkspace {
	workspace := models.DatabricksWorkspace{}
	if ws.ID != nil {
		workspace.ID = *ws.ID
		if rid, err := arm.ParseResourceID(*ws.ID); err == nil {
			workspace.ResourceGroup = rid.ResourceGroupName
		}
	}
	if ws.Name != nil {
		workspace.Name = *ws.Name
	}
	if ws.Location != nil {
		workspace.Location = *ws.Location
	}
	if ws.SKU != nil && ws.SKU.Name != nil {
		workspace.SKUTier = strings.ToLower(*ws.SKU.Name)
	}
	workspace.Tags = fromTagMap(ws.Tags)
	return workspace
}

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
