package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/clubledger/reconcile/internal/application/reconcile"
	"github.com/clubledger/reconcile/internal/domain/repair"
)

// PrintHeader prints the command header
func PrintHeader(w io.Writer, command string, dryRun bool) {
	mode := "PRODUCTION"
	if dryRun {
		mode = "DRY-RUN"
	}
	fmt.Fprintf(w, "reconcile: %s (%s mode)\n", command, mode)
}

// PrintAutoMatchSummary prints the plan and what was written
func PrintAutoMatchSummary(w io.Writer, report *reconcile.AutoMatchReport) {
	plan := report.Plan

	for _, m := range plan.Matches {
		fmt.Fprintf(w, "  %-8s %-30s -> %s %s (%s, %d%%)\n",
			m.Payable.EntityType(), m.Payable.DisplayName(),
			m.Transaction.ID, m.Transaction.Amount.StringFixed(2), m.Tier, m.Confidence)
		for _, warning := range m.Quality.Warnings {
			fmt.Fprintf(w, "           ! %s\n", warning)
		}
	}
	for _, c := range plan.NeedsSplit {
		fmt.Fprintf(w, "  split?   %s %s looks like %d x %s\n",
			c.Transaction.ID, c.Transaction.Amount.StringFixed(2), c.SuggestedCount, c.UnitPrice.StringFixed(2))
	}
	for _, p := range plan.Unmatched {
		fmt.Fprintf(w, "  open     %-30s %s\n", p.DisplayName(), p.AmountDue().StringFixed(2))
	}

	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "Summary: Matches=%d Split=%d Open=%d Matched=%s/%s\n",
		len(plan.Matches), len(plan.NeedsSplit), len(plan.Unmatched)+len(plan.CashSuggested),
		plan.MatchedAmount.StringFixed(2), plan.TotalAmount.StringFixed(2))
	if !report.DryRun {
		fmt.Fprintf(w, "Written: Linked=%d Cash=%d Failed=%d\n", report.Linked, report.MarkedCash, report.Failed)
	}

	if len(report.Errors) > 0 {
		fmt.Fprintln(w, "\nErrors:")
		for _, err := range report.Errors {
			fmt.Fprintf(w, "  - %s\n", err)
		}
	}
}

// PrintRepairSummary prints an integrity report
func PrintRepairSummary(w io.Writer, title string, report *repair.Report) {
	fmt.Fprintln(w, strings.Repeat("-", 60))
	fmt.Fprintf(w, "%s: Scanned=%d Updated=%d\n", title, report.TransactionsScanned, report.TransactionsUpdated)
	fmt.Fprintf(w, "  Links removed:        %d\n", report.LinksRemoved)
	fmt.Fprintf(w, "  Legacy refs cleared:  %d\n", report.LegacyRefsCleared)
	fmt.Fprintf(w, "  Reconciled fixed:     %d\n", report.ReconciledFixed)
	fmt.Fprintf(w, "  Payables freed:       %d\n", report.PayablesCleared)

	if len(report.Errors) > 0 {
		fmt.Fprintln(w, "\nErrors:")
		for _, err := range report.Errors {
			fmt.Fprintf(w, "  - %s\n", err)
		}
	}
}
