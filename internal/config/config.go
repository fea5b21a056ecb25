package config

// Config is the top-level application configuration.
// It is loaded from ~/.config/azwaste/config.yaml; every value is a default
// that the matching CLI flag overrides.
type Config struct {
	Azure      AzureConfig      `mapstructure:"azure"      yaml:"azure"      json:"azure"`
	Kubernetes KubernetesConfig `mapstructure:"kubernetes" yaml:"kubernetes" json:"kubernetes"`

	// PolicyPath points to a policy YAML applied when --policy is not given.
	PolicyPath string `mapstructure:"policy_path" yaml:"policy_path" json:"policy_path"`

	// Color enables ANSI severity colouring in table output.
	Color bool `mapstructure:"color" yaml:"color" json:"color"`
}

// AzureConfig holds Azure-specific defaults used when flags are not provided.
type AzureConfig struct {
	// DefaultSubscription is used when no --subscription flag is provided.
	DefaultSubscription string `mapstructure:"default_subscription" yaml:"default_subscription" json:"default_subscription"`

	// DefaultStrategy is the rightsizing posture used when --strategy is not
	// provided: "aggressive", "balanced", or "conservative". Empty lets the
	// engine pick per resource.
	DefaultStrategy string `mapstructure:"default_strategy" yaml:"default_strategy" json:"default_strategy"`

	// DaysBack is the default metric lookback window in days.
	DaysBack int `mapstructure:"days_back" yaml:"days_back" json:"days_back"`
}

// KubernetesConfig holds kubeconfig defaults for PVC audits.
type KubernetesConfig struct {
	// DefaultContext is used when no --context flag is provided.
	// Empty means the kubeconfig current context.
	DefaultContext string `mapstructure:"default_context" yaml:"default_context" json:"default_context"`

	// DefaultNamespace restricts PVC audits when --namespace is not provided.
	// Empty means all namespaces.
	DefaultNamespace string `mapstructure:"default_namespace" yaml:"default_namespace" json:"default_namespace"`
}

// Loader is the interface for reading Config from disk.
// Default implementation reads from ~/.config/azwaste/config.yaml.
type Loader interface {
	// Load reads, parses, and validates the configuration file.
	Load() (*Config, error)

	// ConfigPath returns the absolute path to the configuration file.
	ConfigPath() string
}
