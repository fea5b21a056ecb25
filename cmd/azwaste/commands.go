package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/azwaste/azwaste/internal/config"
	"github.com/azwaste/azwaste/internal/engine"
	"github.com/azwaste/azwaste/internal/models"
	"github.com/azwaste/azwaste/internal/output"
	"github.com/azwaste/azwaste/internal/policy"
	"github.com/azwaste/azwaste/internal/providers/azure/aks"
	"github.com/azwaste/azwaste/internal/providers/azure/appservice"
	"github.com/azwaste/azwaste/internal/providers/azure/common"
	"github.com/azwaste/azwaste/internal/providers/azure/databricks"
	kube "github.com/azwaste/azwaste/internal/providers/kubernetes"
	"github.com/azwaste/azwaste/internal/render"
	"github.com/azwaste/azwaste/internal/rulepacks/azurecost"
	"github.com/azwaste/azwaste/internal/rulepacks/pvchealth"
	"github.com/azwaste/azwaste/internal/rules"
	"github.com/azwaste/azwaste/internal/version"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "azwaste",
		Short: "azwaste — Azure waste auditor and Kubernetes PVC health toolkit",
	}
	root.AddCommand(newAzureCmd())
	root.AddCommand(newKubernetesCmd())
	root.AddCommand(newDoctorCmd())
	root.AddCommand(newVersionCmd())
	return root
}

func newAzureCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "azure",
		Short: "Azure provider commands",
	}
	audit := &cobra.Command{
		Use:   "audit",
		Short: "Run an audit against an Azure subscription",
	}
	audit.AddCommand(newCostCmd())
	cmd.AddCommand(audit)
	return cmd
}

func newKubernetesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "kubernetes",
		Short: "Kubernetes commands",
	}
	audit := &cobra.Command{
		Use:   "audit",
		Short: "Run an audit against a Kubernetes cluster",
	}
	audit.AddCommand(newPVCCmd())
	cmd.AddCommand(audit)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), version.Info())
		},
	}
}

func newCostCmd() *cobra.Command {
	var (
		subscription string
		allSubs      bool
		locations    []string
		days         int
		strategy     string
		reportFmt    string
		summary      bool
		outputPath   string
		policyPath   string
		colored      bool
		explain      string
	)

	cmd := &cobra.Command{
		Use:   "cost",
		Short: "Audit Azure cost and identify wasted spend",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			if subscription == "" {
				subscription = cfg.Azure.DefaultSubscription
			}
			if strategy == "" {
				strategy = cfg.Azure.DefaultStrategy
			}
			if !cmd.Flags().Changed("days") && cfg.Azure.DaysBack > 0 {
				days = cfg.Azure.DaysBack
			}
			if !cmd.Flags().Changed("color") {
				colored = cfg.Color
			}
			if err := validateStrategy(strategy); err != nil {
				return err
			}

			policyCfg, err := loadPolicyFlag(policyPath, cfg)
			if err != nil {
				return err
			}

			provider, err := common.NewDefaultClientProvider()
			if err != nil {
				return fmt.Errorf("initialise Azure credential: %w", err)
			}

			registry := rules.NewDefaultRuleRegistry()
			for _, r := range azurecost.New() {
				registry.Register(r)
			}

			eng := engine.NewAzureCostEngine(provider, engine.Collectors{
				AppService: appservice.NewDefaultCollector(provider),
				AKS:        aks.NewDefaultCollector(provider),
				Databricks: databricks.NewDefaultCollector(provider),
			}, registry, policyCfg)

			opts := engine.AuditOptions{
				AuditType:        engine.AuditTypeAzureCost,
				SubscriptionID:   subscription,
				AllSubscriptions: allSubs,
				Locations:        locations,
				DaysBack:         days,
				Strategy:         strategy,
				ReportFormat:     engine.ReportFormat(reportFmt),
			}

			var spinner interface{ Stop() error }
			if colored && reportFmt != "json" && !summary {
				spinner = output.StartSpinner("Collecting Azure inventory and metrics")
			}
			report, err := eng.RunAudit(cmd.Context(), opts)
			if spinner != nil {
				_ = spinner.Stop()
			}
			if err != nil {
				return fmt.Errorf("audit failed: %w", err)
			}

			if err := renderReport(report, reportFmt, summary, outputPath, explain, colored, output.TableOptions{
				Colored:             colored,
				IncludeSavings:      true,
				IncludeSubscription: allSubs,
			}); err != nil {
				return err
			}

			if policy.ShouldFail(string(engine.AuditTypeAzureCost), report.Findings, policyCfg) {
				os.Exit(2)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&subscription, "subscription", "", "Azure subscription ID (default: $AZURE_SUBSCRIPTION_ID or sole visible subscription)")
	cmd.Flags().BoolVar(&allSubs, "all-subscriptions", false, "Audit every subscription the credential can see")
	cmd.Flags().StringSliceVar(&locations, "location", nil, "Azure location(s) to audit (default: all locations)")
	cmd.Flags().IntVar(&days, "days", 30, "Lookback window in days for metric queries")
	cmd.Flags().StringVar(&strategy, "strategy", "", "Rightsizing posture: aggressive, balanced, or conservative (default: per plan from observed utilisation)")
	cmd.Flags().StringVar(&reportFmt, "report", "table", "Output format: json or table")
	cmd.Flags().BoolVar(&summary, "summary", false, "Print compact summary: totals, severity breakdown, top-5 findings by savings")
	cmd.Flags().StringVar(&outputPath, "output", "", "Write full JSON report to this file path (in addition to stdout output)")
	cmd.Flags().StringVar(&policyPath, "policy", "", "Policy YAML for threshold and severity overrides")
	cmd.Flags().BoolVar(&colored, "color", false, "Colour severity labels and show progress spinners")
	cmd.Flags().StringVar(&explain, "explain", "", "Print the full breakdown for one finding by resource ID instead of the table")

	return cmd
}

func newPVCCmd() *cobra.Command {
	var (
		kubeContext string
		namespace   string
		reportFmt   string
		summary     bool
		outputPath  string
		policyPath  string
		colored     bool
		explain     string
	)

	cmd := &cobra.Command{
		Use:   "pvc",
		Short: "Audit PersistentVolumeClaim health and orphaned storage",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			if kubeContext == "" {
				kubeContext = cfg.Kubernetes.DefaultContext
			}
			if namespace == "" {
				namespace = cfg.Kubernetes.DefaultNamespace
			}
			if !cmd.Flags().Changed("color") {
				colored = cfg.Color
			}

			policyCfg, err := loadPolicyFlag(policyPath, cfg)
			if err != nil {
				return err
			}

			registry := rules.NewDefaultRuleRegistry()
			for _, r := range pvchealth.New() {
				registry.Register(r)
			}

			eng := engine.NewPVCHealthEngine(kube.NewDefaultKubeClientProvider(), registry, policyCfg)

			opts := engine.AuditOptions{
				AuditType:    engine.AuditTypePVCHealth,
				KubeContext:  kubeContext,
				Namespace:    namespace,
				ReportFormat: engine.ReportFormat(reportFmt),
			}

			var spinner interface{ Stop() error }
			if colored && reportFmt != "json" && !summary {
				spinner = output.StartSpinner("Collecting cluster storage inventory")
			}
			report, err := eng.RunAudit(cmd.Context(), opts)
			if spinner != nil {
				_ = spinner.Stop()
			}
			if err != nil {
				return fmt.Errorf("audit failed: %w", err)
			}

			if err := renderReport(report, reportFmt, summary, outputPath, explain, colored, output.TableOptions{
				Colored:        colored,
				IncludeSavings: true,
				LocationLabel:  "NAMESPACE",
			}); err != nil {
				return err
			}

			if policy.ShouldFail(string(engine.AuditTypePVCHealth), report.Findings, policyCfg) {
				os.Exit(2)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&kubeContext, "context", "", "Kubeconfig context (default: current context)")
	cmd.Flags().StringVar(&namespace, "namespace", "", "Restrict the audit to one namespace (default: all namespaces)")
	cmd.Flags().StringVar(&reportFmt, "report", "table", "Output format: json or table")
	cmd.Flags().BoolVar(&summary, "summary", false, "Print compact summary: totals, severity breakdown, top-5 findings by savings")
	cmd.Flags().StringVar(&outputPath, "output", "", "Write full JSON report to this file path (in addition to stdout output)")
	cmd.Flags().StringVar(&policyPath, "policy", "", "Policy YAML for threshold and severity overrides")
	cmd.Flags().BoolVar(&colored, "color", false, "Colour severity labels and show progress spinners")
	cmd.Flags().StringVar(&explain, "explain", "", "Print the full breakdown for one finding by resource ID instead of the table")

	return cmd
}

// loadConfig reads the optional defaults file. A broken file degrades to
// zero-value defaults with a warning; flags still work without it.
func loadConfig() *config.Config {
	loader := &config.DefaultLoader{}
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		return &config.Config{}
	}
	return cfg
}

// loadPolicyFlag resolves the policy file from the --policy flag, falling back
// to the config file default. Empty means no policy.
func loadPolicyFlag(path string, cfg *config.Config) (*policy.PolicyConfig, error) {
	if path == "" {
		path = cfg.PolicyPath
	}
	if path == "" {
		return nil, nil
	}
	policyCfg, err := policy.LoadPolicy(path)
	if err != nil {
		return nil, fmt.Errorf("load policy %q: %w", path, err)
	}
	if errs := policy.Validate(policyCfg, allRuleIDs()); len(errs) > 0 {
		msgs := make([]string, 0, len(errs))
		for _, e := range errs {
			msgs = append(msgs, e.Error())
		}
		return nil, fmt.Errorf("invalid policy %q: %s", path, strings.Join(msgs, "; "))
	}
	return policyCfg, nil
}

// allRuleIDs returns the union of all known rule IDs from every rule pack.
func allRuleIDs() []string {
	var ids []string
	for _, r := range azurecost.New() {
		ids = append(ids, r.ID())
	}
	for _, r := range pvchealth.New() {
		ids = append(ids, r.ID())
	}
	return ids
}

// validateStrategy rejects unknown --strategy values before any network call.
func validateStrategy(s string) error {
	switch s {
	case "", "aggressive", "balanced", "conservative":
		return nil
	default:
		return fmt.Errorf("unknown strategy %q: must be aggressive, balanced, or conservative", s)
	}
}

// renderReport writes the report in the requested shape: optional file output,
// then exactly one of explain, summary, JSON, or table on stdout.
func renderReport(report *models.AuditReport, reportFmt string, summary bool, outputPath, explain string, colored bool, tableOpts output.TableOptions) error {
	if outputPath != "" {
		if err := writeReportToFile(outputPath, report); err != nil {
			return err
		}
	}
	if explain != "" {
		f := render.FindFindingByResource(report.Findings, explain)
		if reportFmt == "json" {
			return render.WriteExplainJSON(os.Stdout, f, explain)
		}
		if f == nil {
			return fmt.Errorf("no finding for resource %q", explain)
		}
		render.RenderFindingExplanation(os.Stdout, *f)
		return nil
	}
	if summary {
		printSummary(os.Stdout, report)
		return nil
	}
	if reportFmt == "json" {
		return printJSON(report)
	}
	printTable(report, colored, tableOpts)
	return nil
}

// printJSON writes the report as indented JSON to stdout.
func printJSON(report *models.AuditReport) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// writeReportToFile serialises report as indented JSON and writes it to path,
// creating or overwriting the file. It does not affect stdout output.
func writeReportToFile(path string, report *models.AuditReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write report file %q: %w", path, err)
	}
	return nil
}

// printSummary renders a compact summary view to w:
//   - Subscription / location header
//   - Total findings and total estimated monthly + annual savings
//   - Per-severity finding counts
//   - Top 5 findings ranked by EstimatedMonthlySavings
//
// It reuses the already-computed AuditReport; no engine logic is duplicated.
func printSummary(w io.Writer, report *models.AuditReport) {
	s := report.Summary

	if report.SubscriptionID != "" {
		fmt.Fprintf(w, "Subscription:  %s\n", report.SubscriptionID)
	}
	if report.SubscriptionName != "" {
		fmt.Fprintf(w, "Name:          %s\n", report.SubscriptionName)
	}
	fmt.Fprintf(w, "Locations:     %d\n", len(report.Locations))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Total Findings:        %d\n", s.TotalFindings)
	fmt.Fprintf(w, "Est. Monthly Savings:  $%.2f\n", s.TotalEstimatedMonthlySavings)
	fmt.Fprintf(w, "Est. Annual Savings:   $%.2f\n", s.TotalEstimatedAnnualSavings)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Severity Breakdown")
	fmt.Fprintf(w, "  %-10s  %d\n", "CRITICAL", s.CriticalFindings)
	fmt.Fprintf(w, "  %-10s  %d\n", "HIGH", s.HighFindings)
	fmt.Fprintf(w, "  %-10s  %d\n", "MEDIUM", s.MediumFindings)
	fmt.Fprintf(w, "  %-10s  %d\n", "LOW", s.LowFindings)

	top := topFindingsBySavings(report.Findings, 5)
	if len(top) == 0 {
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Top Findings by Savings")
	fmt.Fprintf(w, "  %-42s  %-15s  %-10s  %s\n", "RESOURCE ID", "LOCATION", "SEVERITY", "SAVINGS/MO")
	fmt.Fprintf(w, "  %s\n", strings.Repeat("-", 82))
	for _, f := range top {
		fmt.Fprintf(w, "  %-42s  %-15s  %-10s  $%.2f\n",
			f.ResourceID, f.Location, string(f.Severity), f.EstimatedMonthlySavings)
	}
}

// topFindingsBySavings returns up to n findings from the provided slice,
// ordered by EstimatedMonthlySavings descending.
// The original slice is not modified.
func topFindingsBySavings(findings []models.Finding, n int) []models.Finding {
	sorted := make([]models.Finding, len(findings))
	copy(sorted, findings)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].EstimatedMonthlySavings > sorted[j].EstimatedMonthlySavings
	})
	if n > len(sorted) {
		n = len(sorted)
	}
	return sorted[:n]
}

// printTable renders a one-line report header followed by the findings table.
// With --color the summary panel is rendered through the terminal UI layer.
func printTable(report *models.AuditReport, colored bool, tableOpts output.TableOptions) {
	s := report.Summary
	fmt.Printf(
		"Audit: %-12s  Subscription: %-14s  Findings: %d  Est. Savings: $%.2f/mo\n",
		report.AuditType,
		report.SubscriptionID,
		s.TotalFindings,
		s.TotalEstimatedMonthlySavings,
	)
	fmt.Println()

	output.RenderTable(os.Stdout, report.Findings, tableOpts)

	if colored {
		fmt.Println()
		output.PrintSummaryPanel(report)
	}

	if warnings, ok := report.Metadata["collection_warnings"].([]string); ok && len(warnings) > 0 {
		fmt.Println()
		for _, w := range warnings {
			fmt.Printf("warning: %s\n", w)
		}
	}
}
