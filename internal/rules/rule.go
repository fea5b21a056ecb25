package rules

import (
	"github.com/azwaste/azwaste/internal/models"
	"github.com/azwaste/azwaste/internal/policy"
)

// RuleContext carries all collected data for a single evaluation run.
// It is the sole input to Rule.Evaluate and must contain everything a rule
// needs; rules must never make network calls or read external state.
type RuleContext struct {
	// SubscriptionID and SubscriptionName identify the audited Azure
	// subscription. Empty for Kubernetes audits.
	SubscriptionID   string
	SubscriptionName string

	// Subscription holds the Azure inventory for azure-cost rules.
	// Nil when running PVC audits; cost rules must check for nil before use.
	Subscription *models.SubscriptionData

	// Cluster holds the storage inventory for pvc-health rules.
	// Nil when running Azure audits; PVC rules must check for nil before use.
	Cluster *models.PVCClusterData

	// Strategy is the rightsizing posture selected by flag or config
	// ("aggressive", "balanced", "conservative"). Empty means the engine
	// lets the rightsizing package pick per plan.
	Strategy string

	// Policy holds the active PolicyConfig for threshold overrides. May be nil
	// when no policy file is loaded; rules must treat nil as "use defaults".
	Policy *policy.PolicyConfig
}

// Rule is a single deterministic detection rule.
// Rules must be stateless and safe to call concurrently.
// They must never call the Azure SDK, Kubernetes API, or any external service.
type Rule interface {
	// ID returns the unique, stable identifier for this rule (e.g. "ASP_RIGHTSIZE").
	ID() string

	// Name returns a short human-readable rule name.
	Name() string

	// Evaluate inspects the provided context and returns zero or more findings.
	// An empty slice means no issue was detected.
	Evaluate(ctx RuleContext) []models.Finding
}

// RuleRegistry manages the set of active rules and drives evaluation.
type RuleRegistry interface {
	// Register adds a rule to the registry. Panics on duplicate ID.
	Register(rule Rule)

	// All returns all registered rules in registration order.
	All() []Rule

	// EvaluateAll runs every registered rule against ctx and merges results.
	EvaluateAll(ctx RuleContext) []models.Finding
}
