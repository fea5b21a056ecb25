// Package pvchealth provides the rule pack for the PVC health audit.
// It follows the same convention as azurecost: a single New() returning
// every rule in evaluation order.
package pvchealth

import "github.com/azwaste/azwaste/internal/rules"

// New returns all PVC health rules in the order they should be evaluated.
func New() []rules.Rule {
	return []rules.Rule{
		rules.PVCPendingRule{},
		rules.PVCMissingStorageClassRule{},
		rules.PVCProvisionFailureRule{},
		rules.PVCUnusedRule{},
		rules.PVReleasedRule{},
	}
}
