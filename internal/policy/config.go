package policy

// PolicyConfig is the parsed policy file. It overrides rule thresholds,
// severities, and enablement per domain without rebuilding the binary.
type PolicyConfig struct {
	Version     int                          `yaml:"version"`
	Domains     map[string]DomainConfig      `yaml:"domains"`
	Rules       map[string]RuleConfig        `yaml:"rules"`
	Enforcement map[string]EnforcementConfig `yaml:"enforcement"`
}

// DomainConfig configures one audit domain ("azure-cost", "pvc-health").
type DomainConfig struct {
	Enabled bool `yaml:"enabled"`

	// MinSeverity drops findings below this severity for the domain.
	// Empty means no floor.
	MinSeverity string `yaml:"min_severity,omitempty"`
}

// RuleConfig overrides one rule's behavior.
type RuleConfig struct {
	Enabled  *bool  `yaml:"enabled,omitempty"`
	Severity string `yaml:"severity,omitempty"`

	// Params holds named float64 threshold overrides consumed through
	// GetThreshold (e.g. cpu_threshold_percent, min_savings_usd).
	Params map[string]float64 `yaml:"params,omitempty"`
}

// EnforcementConfig configures CI gating for one domain.
type EnforcementConfig struct {
	// FailOnSeverity makes the CLI exit non-zero when any finding is at or
	// above this severity.
	FailOnSeverity string `yaml:"fail_on_severity,omitempty"`
}
