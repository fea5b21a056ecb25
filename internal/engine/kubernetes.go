package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/azwaste/azwaste/internal/models"
	"github.com/azwaste/azwaste/internal/policy"
	k8sprovider "github.com/azwaste/azwaste/internal/providers/kubernetes"
	"github.com/azwaste/azwaste/internal/rules"
)

// PVCHealthEngine is the production implementation of Engine for pvc-health.
// It connects to one cluster per run, collects the storage inventory, and
// evaluates the registered PVC rules against it.
type PVCHealthEngine struct {
	kubeProvider k8sprovider.KubeClientProvider
	registry     rules.RuleRegistry
	policy       *policy.PolicyConfig
}

// NewPVCHealthEngine constructs a PVCHealthEngine wired to the supplied
// kubeconfig provider and rule registry.
func NewPVCHealthEngine(
	kubeProvider k8sprovider.KubeClientProvider,
	registry rules.RuleRegistry,
	policyCfg *policy.PolicyConfig,
) *PVCHealthEngine {
	return &PVCHealthEngine{
		kubeProvider: kubeProvider,
		registry:     registry,
		policy:       policyCfg,
	}
}

// RunAudit implements Engine. It builds a clientset for the requested
// kubeconfig context, collects claims, volumes, storage classes, and warning
// events, evaluates all registered rules, and returns the report.
func (e *PVCHealthEngine) RunAudit(ctx context.Context, opts AuditOptions) (*models.AuditReport, error) {
	if opts.AuditType != AuditTypePVCHealth {
		return nil, fmt.Errorf("unsupported audit type: %q", opts.AuditType)
	}

	clientset, info, err := e.kubeProvider.ClientsetForContext(opts.KubeContext)
	if err != nil {
		return nil, fmt.Errorf("connect to cluster: %w", err)
	}

	data, err := k8sprovider.CollectPVCData(ctx, clientset, info, opts.Namespace)
	if err != nil {
		return nil, fmt.Errorf("collect storage inventory for context %q: %w", info.ContextName, err)
	}

	findings := e.registry.EvaluateAll(rules.RuleContext{
		Cluster: data,
		Policy:  e.policy,
	})
	stampDomain(findings, string(AuditTypePVCHealth))

	merged := mergeFindings(findings)
	merged = policy.ApplyPolicy(merged, string(AuditTypePVCHealth), e.policy)
	stampAnnualSavings(merged)
	sortFindings(merged)

	return &models.AuditReport{
		ReportID:    fmt.Sprintf("audit-%d", time.Now().UnixNano()),
		GeneratedAt: time.Now().UTC(),
		AuditType:   string(AuditTypePVCHealth),
		Summary:     computeSummary(merged),
		Findings:    merged,
		Metadata: map[string]any{
			"context":   info.ContextName,
			"server":    info.Server,
			"namespace": opts.Namespace,
		},
	}, nil
}
