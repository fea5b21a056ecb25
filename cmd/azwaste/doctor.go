package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/azwaste/azwaste/internal/policy"
	"github.com/azwaste/azwaste/internal/providers/azure/common"
	kube "github.com/azwaste/azwaste/internal/providers/kubernetes"
)

// defaultPolicyFile is the policy path doctor probes when no flag is given.
const defaultPolicyFile = "./azwaste.yaml"

// DoctorResult is the structured output of azwaste doctor. It can be
// serialised to JSON via --format=json or rendered as a human-readable
// table (default).
type DoctorResult struct {
	Azure struct {
		Credentials     bool   `json:"credentials_ok"`
		Subscriptions   int    `json:"subscriptions_visible"`
		SubscriptionsOK bool   `json:"subscriptions_ok"`
		Error           string `json:"error,omitempty"`
	} `json:"azure"`

	Kubernetes struct {
		KubeconfigOK bool   `json:"kubeconfig_ok"`
		Context      string `json:"context,omitempty"`
		APIReachable bool   `json:"api_reachable"`
		Error        string `json:"error,omitempty"`
	} `json:"kubernetes"`

	Policy struct {
		Present bool     `json:"present"`
		Valid   bool     `json:"valid"`
		Errors  []string `json:"errors,omitempty"`
	} `json:"policy"`

	OverallHealthy bool `json:"overall_healthy"`
}

// azureDoctorProvider is the slice of ClientProvider doctor needs; tests
// inject a fake or nil constructor error.
type azureDoctorProvider interface {
	ListSubscriptions(ctx context.Context) ([]common.SubscriptionInfo, error)
}

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "doctor",
		Short:         "Run environment diagnostics",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")

			provider, azErr := common.NewDefaultClientProvider()
			var azProvider azureDoctorProvider
			if azErr == nil {
				azProvider = provider
			}

			result, err := runDoctor(
				context.Background(),
				azProvider,
				azErr,
				kube.NewDefaultKubeClientProvider(),
				cmd.OutOrStdout(),
				format,
			)
			if err != nil {
				// Rendering failure — let Cobra/main handle it.
				return err
			}
			if !result.OverallHealthy {
				// Exit directly so no error text reaches main.go's
				// fmt.Fprintln(os.Stderr, err) path.
				os.Exit(1)
			}
			return nil
		},
	}
	cmd.Flags().String("format", "table", `Output format: "table" or "json"`)
	return cmd
}

// runDoctor collects all diagnostic results, renders them to w in the
// requested format, and returns the result.
// The returned error covers only rendering failures (e.g. JSON encode error).
// Callers must inspect result.OverallHealthy to determine whether the
// environment is healthy; runDoctor itself never returns an error for an
// unhealthy result so that no error text leaks to callers (such as main).
func runDoctor(ctx context.Context, azProvider azureDoctorProvider, azErr error, kubeProvider kube.KubeClientProvider, w io.Writer, format string) (DoctorResult, error) {
	result := collectDoctorResult(ctx, azProvider, azErr, kubeProvider)

	switch format {
	case "json":
		if err := json.NewEncoder(w).Encode(result); err != nil {
			return result, fmt.Errorf("encode doctor result: %w", err)
		}
	default:
		renderDoctorTable(result, w)
	}

	return result, nil
}

// collectDoctorResult runs all environment checks and populates a DoctorResult.
// It performs no rendering; callers decide how to present the result.
func collectDoctorResult(ctx context.Context, azProvider azureDoctorProvider, azErr error, kubeProvider kube.KubeClientProvider) DoctorResult {
	var result DoctorResult

	// Azure: credential chain → subscription list.
	if azErr != nil {
		result.Azure.Error = azErr.Error()
	} else {
		result.Azure.Credentials = true
		subs, err := azProvider.ListSubscriptions(ctx)
		if err != nil {
			result.Azure.Error = err.Error()
		} else {
			result.Azure.SubscriptionsOK = true
			result.Azure.Subscriptions = len(subs)
		}
	}

	// Kubernetes: kubeconfig load → context → API reachability probe.
	clientset, info, err := kubeProvider.ClientsetForContext("")
	if err != nil {
		result.Kubernetes.Error = err.Error()
	} else {
		result.Kubernetes.KubeconfigOK = true
		result.Kubernetes.Context = info.ContextName
		_, err = clientset.CoreV1().Namespaces().List(ctx, metav1.ListOptions{Limit: 1})
		if err != nil {
			result.Kubernetes.Error = err.Error()
		} else {
			result.Kubernetes.APIReachable = true
		}
	}

	// Policy: stat → load → validate (file is optional).
	_, statErr := os.Stat(defaultPolicyFile)
	if statErr == nil {
		result.Policy.Present = true
		cfg, loadErr := policy.LoadPolicy(defaultPolicyFile)
		if loadErr != nil {
			result.Policy.Errors = []string{loadErr.Error()}
		} else {
			errs := policy.Validate(cfg, allRuleIDs())
			if len(errs) == 0 {
				result.Policy.Valid = true
			} else {
				for _, e := range errs {
					result.Policy.Errors = append(result.Policy.Errors, e.Error())
				}
			}
		}
	} else if !os.IsNotExist(statErr) {
		// Stat error other than "not found" — treat as present but unreadable.
		result.Policy.Present = true
		result.Policy.Errors = []string{statErr.Error()}
	}

	result.OverallHealthy = result.Azure.Credentials &&
		result.Azure.SubscriptionsOK &&
		result.Kubernetes.KubeconfigOK &&
		result.Kubernetes.APIReachable &&
		(!result.Policy.Present || result.Policy.Valid)

	return result
}

// renderDoctorTable writes the human-readable diagnostic output from result to w.
func renderDoctorTable(result DoctorResult, w io.Writer) {
	fmt.Fprintln(w, "Environment Diagnostics")

	fmt.Fprintln(w, "\nAzure:")
	if !result.Azure.Credentials {
		doctorPrint(w, "Credentials", "FAIL", result.Azure.Error)
		doctorPrint(w, "Subscriptions API", "FAIL", "skipped")
	} else {
		doctorPrint(w, "Credentials", "OK", "")
		if result.Azure.SubscriptionsOK {
			doctorPrint(w, "Subscriptions API", "OK", fmt.Sprintf("%d visible", result.Azure.Subscriptions))
		} else {
			doctorPrint(w, "Subscriptions API", "FAIL", result.Azure.Error)
		}
	}

	fmt.Fprintln(w, "\nKubernetes:")
	if !result.Kubernetes.KubeconfigOK {
		doctorPrint(w, "Kubeconfig", "FAIL", result.Kubernetes.Error)
		doctorPrint(w, "Current Context", "FAIL", "skipped")
		doctorPrint(w, "API Reachable", "FAIL", "skipped")
	} else {
		doctorPrint(w, "Kubeconfig", "OK", "")
		doctorPrint(w, "Current Context", "OK", result.Kubernetes.Context)
		if result.Kubernetes.APIReachable {
			doctorPrint(w, "API Reachable", "OK", "")
		} else {
			doctorPrint(w, "API Reachable", "FAIL", result.Kubernetes.Error)
		}
	}

	fmt.Fprintln(w, "\nPolicy:")
	if !result.Policy.Present {
		doctorPrint(w, "azwaste.yaml present", "Not found (optional)", "")
	} else {
		doctorPrint(w, "azwaste.yaml present", "YES", "")
		if result.Policy.Valid {
			doctorPrint(w, "Policy valid", "OK", "")
		} else {
			for _, e := range result.Policy.Errors {
				doctorPrint(w, "Policy valid", "FAIL", e)
			}
		}
	}
}

// doctorPrint writes a single diagnostic check line to w.
// When detail is non-empty it is appended in parentheses.
func doctorPrint(w io.Writer, label, status, detail string) {
	if detail != "" {
		fmt.Fprintf(w, "  %s: %s (%s)\n", label, status, detail)
	} else {
		fmt.Fprintf(w, "  %s: %s\n", label, status)
	}
}
