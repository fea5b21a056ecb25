package models

// SiteApp is a Function App or Web App hosted on an App Service Plan.
type SiteApp struct {
	// Name is the app resource name.
	Name string

	// Kind is the ARM kind string (e.g. "app", "functionapp", "app,linux").
	Kind string

	// State is the runtime state reported by ARM ("Running", "Stopped").
	State string
}

// AppServicePlan is the inventory record for a single App Service Plan,
// enriched with Azure Monitor utilisation averages over the lookback window.
type AppServicePlan struct {
	// ID is the full ARM resource ID.
	ID string

	// Name is the plan resource name.
	Name string

	// ResourceGroup is the owning resource group, parsed from ID.
	ResourceGroup string

	// Location is the Azure location (e.g. "eastus").
	Location string

	// SKUName is the SKU short name (e.g. "P2v3", "EP1").
	SKUName string

	// Tier is the SKU tier (e.g. "PremiumV3", "ElasticPremium").
	Tier string

	// Capacity is the configured instance count.
	Capacity int32

	// Apps are the sites hosted on this plan.
	Apps []SiteApp

	// AvgCPUPercent and MaxCPUPercent are the CpuPercentage averages/peaks
	// over the lookback window. 0 means no metric data was available,
	// never "truly idle"; rules must skip 0.
	AvgCPUPercent float64
	MaxCPUPercent float64

	// AvgMemoryPercent and MaxMemoryPercent mirror MemoryPercentage.
	AvgMemoryPercent float64
	MaxMemoryPercent float64

	// MetricWindowDays is the lookback window the metrics cover.
	MetricWindowDays int

	Tags map[string]string
}

// AppCount returns the number of apps hosted on the plan.
func (p AppServicePlan) AppCount() int { return len(p.Apps) }

// AKSNodePool is a single agent pool within a managed AKS cluster.
type AKSNodePool struct {
	// Name is the agent pool name.
	Name string

	// VMSize is the node VM size (e.g. "Standard_D4s_v3").
	VMSize string

	// Mode is "System" or "User".
	Mode string

	// Count is the current node count.
	Count int32

	// MinCount and MaxCount bound the cluster autoscaler. Both are 0 when
	// autoscaling is disabled.
	MinCount int32
	MaxCount int32

	// AutoscalingEnabled reports whether the cluster autoscaler manages
	// this pool.
	AutoscalingEnabled bool

	// AvgCPUPercent is the cluster-level node CPU average applied to this
	// pool. Per-pool CPU is not exposed as a platform metric, so all pools
	// in a cluster share the cluster average. 0 means no data.
	AvgCPUPercent float64
}

// AKSCluster is the inventory record for one managed AKS cluster.
type AKSCluster struct {
	ID                string
	Name              string
	ResourceGroup     string
	Location          string
	KubernetesVersion string
	NodePools         []AKSNodePool
	Tags              map[string]string
}

// DatabricksWorkspace is the inventory record for one Databricks workspace.
type DatabricksWorkspace struct {
	ID            string
	Name          string
	ResourceGroup string
	Location      string

	// SKUTier is the workspace pricing tier: "standard", "premium", or "trial".
	SKUTier string

	Tags map[string]string
}

// SubscriptionData holds everything collected from a single subscription.
// It is the Azure equivalent of a per-region dataset and is the input to
// the azure-cost rules.
type SubscriptionData struct {
	SubscriptionID   string
	SubscriptionName string

	// Locations is the distinct set of locations seen in the inventory.
	Locations []string

	AppServicePlans      []AppServicePlan
	AKSClusters          []AKSCluster
	DatabricksWorkspaces []DatabricksWorkspace

	// CollectionWarnings records per-service collector failures that were
	// degraded to empty inventories instead of aborting the audit.
	CollectionWarnings []string
}
