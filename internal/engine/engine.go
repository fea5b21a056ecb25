package engine

import (
	"context"

	"github.com/azwaste/azwaste/internal/models"
)

// AuditType identifies the category of audit to run.
type AuditType string

const (
	AuditTypeAzureCost AuditType = "azure-cost"
	AuditTypePVCHealth AuditType = "pvc-health"
)

// ReportFormat controls the CLI output format.
type ReportFormat string

const (
	ReportFormatJSON  ReportFormat = "json"
	ReportFormatTable ReportFormat = "table"
)

// AuditOptions configures a single audit run.
// It is the sole input to Engine.RunAudit.
type AuditOptions struct {
	// AuditType selects the audit module (e.g. "azure-cost").
	AuditType AuditType

	// SubscriptionID is the Azure subscription to audit. Empty resolves
	// $AZURE_SUBSCRIPTION_ID or the sole visible subscription.
	SubscriptionID string

	// AllSubscriptions, when true, runs the audit across every subscription
	// the credential can see.
	AllSubscriptions bool

	// Locations filters Azure resources to these locations.
	// When empty every location is audited.
	Locations []string

	// DaysBack is the metric lookback window in days. Defaults to 30 when zero.
	DaysBack int

	// Strategy is the rightsizing posture ("aggressive", "balanced",
	// "conservative"). Empty lets the engine pick per resource from observed
	// utilisation.
	Strategy string

	// KubeContext is the kubeconfig context for PVC audits.
	// Empty means the current context.
	KubeContext string

	// Namespace restricts PVC audits to one namespace. Empty means all.
	Namespace string

	// ReportFormat controls how the CLI renders the returned report.
	ReportFormat ReportFormat
}

// Engine is the central orchestration interface.
// It coordinates provider collection, rule evaluation, and report assembly,
// returning a fully populated AuditReport.
//
// Engine must not call the Azure SDK or Kubernetes API directly; it delegates
// to the appropriate provider and rule interfaces.
type Engine interface {
	RunAudit(ctx context.Context, opts AuditOptions) (*models.AuditReport, error)
}
