// Package azurecost provides the rule pack for the Azure cost audit.
// New returns every cost rule in evaluation order; callers register them
// into a RuleRegistry via a loop rather than listing each rule explicitly.
//
// Adding a new cost rule:
//  1. Implement the rule in internal/rules/ following the Rule interface.
//  2. Append it to the slice returned by New().
//  3. No other files need to change.
package azurecost

import "github.com/azwaste/azwaste/internal/rules"

// New returns all Azure cost rules in the order they should be evaluated.
func New() []rules.Rule {
	return []rules.Rule{
		rules.ASPEmptyRule{},
		rules.ASPRightsizeRule{},
		rules.ASPPremiumV2LegacyRule{},
		rules.AKSNodePoolLowCPURule{},
		rules.AKSNodePoolNoAutoscalerRule{},
		rules.DBXPremiumUnderusedRule{},
	}
}
