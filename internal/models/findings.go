package models

import "time"

// Severity represents the impact level of a finding.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
	SeverityInfo     Severity = "INFO"
)

// ResourceType identifies the kind of resource a finding refers to.
type ResourceType string

const (
	// Azure resource types
	ResourceAppServicePlan      ResourceType = "APP_SERVICE_PLAN"
	ResourceAKSNodePool         ResourceType = "AKS_NODE_POOL"
	ResourceDatabricksWorkspace ResourceType = "DATABRICKS_WORKSPACE"

	// Kubernetes resource types
	ResourceK8sPVC          ResourceType = "K8S_PVC"
	ResourceK8sPV           ResourceType = "K8S_PV"
	ResourceK8sStorageClass ResourceType = "K8S_STORAGECLASS"
)

// Finding is a single detected waste or health issue.
// It is the atomic output unit of the rule engine.
type Finding struct {
	ID           string       `json:"id"`
	RuleID       string       `json:"rule_id"`
	ResourceID   string       `json:"resource_id"`
	ResourceType ResourceType `json:"resource_type"`

	// ResourceGroup is the Azure resource group of the flagged resource.
	// Azure resource names are unique only within a resource group, so it is
	// part of the merge identity. Empty for Kubernetes findings, where the
	// namespace in Location plays the same role.
	ResourceGroup string `json:"resource_group,omitempty"`

	// Location is the Azure location for cost findings and the namespace
	// for Kubernetes findings.
	Location         string   `json:"location"`
	SubscriptionID   string   `json:"subscription_id,omitempty"`
	SubscriptionName string   `json:"subscription_name,omitempty"`
	Domain           string   `json:"domain"`
	Severity         Severity `json:"severity"`

	EstimatedMonthlySavings float64 `json:"estimated_monthly_savings_usd"`

	// EstimatedAnnualSavings is 12x the merged monthly savings, stamped
	// during report assembly (rules leave it zero).
	EstimatedAnnualSavings float64 `json:"estimated_annual_savings_usd"`

	Explanation    string `json:"explanation"`
	Recommendation string `json:"recommendation"`

	// NextStep is the concrete operator action (portal blade, az command).
	NextStep string `json:"next_step,omitempty"`

	DetectedAt time.Time      `json:"detected_at"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// AuditSummary aggregates counts and totals across all findings.
type AuditSummary struct {
	TotalFindings                int     `json:"total_findings"`
	CriticalFindings             int     `json:"critical_findings"`
	HighFindings                 int     `json:"high_findings"`
	MediumFindings               int     `json:"medium_findings"`
	LowFindings                  int     `json:"low_findings"`
	TotalEstimatedMonthlySavings float64 `json:"total_estimated_monthly_savings_usd"`
	TotalEstimatedAnnualSavings  float64 `json:"total_estimated_annual_savings_usd"`
}

// ServiceCost is one service line in a CostSummary breakdown.
type ServiceCost struct {
	Service    string  `json:"service"`
	MonthlyUSD float64 `json:"monthly_usd"`
}

// CostSummary is the estimated monthly spend of the inventoried resources,
// computed from the static pricing tables (not a billing API).
type CostSummary struct {
	TotalMonthlyUSD  float64       `json:"total_monthly_usd"`
	ServiceBreakdown []ServiceCost `json:"service_breakdown,omitempty"`
}

// AuditReport is the top-level output of any audit run.
type AuditReport struct {
	ReportID         string       `json:"report_id"`
	GeneratedAt      time.Time    `json:"generated_at"`
	AuditType        string       `json:"audit_type"`
	SubscriptionID   string       `json:"subscription_id,omitempty"`
	SubscriptionName string       `json:"subscription_name,omitempty"`
	Locations        []string     `json:"locations,omitempty"`
	Summary          AuditSummary `json:"summary"`
	Findings         []Finding    `json:"findings"`
	CostSummary      *CostSummary `json:"cost_summary,omitempty"`
	// Metadata carries optional, audit-type-specific key/value pairs.
	// For PVC audits this includes "context" and "namespace".
	Metadata map[string]any `json:"metadata,omitempty"`
}
