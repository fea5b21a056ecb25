package output

import (
	"fmt"

	"github.com/pterm/pterm"

	"github.com/azwaste/azwaste/internal/models"
)

// StartSpinner starts a terminal spinner with the given text. Callers must
// stop it (Success/Fail) before printing the report.
func StartSpinner(text string) *pterm.SpinnerPrinter {
	spinner, _ := pterm.DefaultSpinner.Start(text)
	return spinner
}

// PrintSummaryPanel renders the audit summary as a colored panel.
// Intended for interactive terminals; the plain summary and table renderers
// stay ANSI-free for CI.
func PrintSummaryPanel(report *models.AuditReport) {
	s := report.Summary
	if s.TotalFindings == 0 {
		pterm.Success.Println("No findings. Nothing to clean up.")
		return
	}

	pterm.Warning.Printf("Found %d findings:\n", s.TotalFindings)

	data := [][]string{
		{"Severity", "Count"},
	}
	rows := []struct {
		label string
		count int
		style pterm.Color
	}{
		{"CRITICAL", s.CriticalFindings, pterm.FgRed},
		{"HIGH", s.HighFindings, pterm.FgRed},
		{"MEDIUM", s.MediumFindings, pterm.FgYellow},
		{"LOW", s.LowFindings, pterm.FgBlue},
	}
	for _, r := range rows {
		if r.count == 0 {
			continue
		}
		data = append(data, []string{r.style.Sprint(r.label), fmt.Sprintf("%d", r.count)})
	}
	_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()

	if s.TotalEstimatedMonthlySavings > 0 {
		pterm.Info.Printf("Estimated savings: $%.2f/month ($%.2f/year)\n",
			s.TotalEstimatedMonthlySavings, s.TotalEstimatedAnnualSavings)
	}
}
