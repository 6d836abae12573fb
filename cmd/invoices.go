package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/syncro-import/internal/importer"
	"github.com/Tiliavir/syncro-import/internal/model"
)

var invoicesCmd = &cobra.Command{
	Use:   "invoices <file.csv>",
	Short: "Create invoices grouped by invoice number",
	Long: `Create one invoice per invoice number; every row is a line item.
All rows of an invoice must name the same customer. Invoice numbers that
already exist in Syncro are skipped.`,
	Args: exactArgs(1),
	RunE: runInvoices,
}

func runInvoices(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	table, err := a.table(args[0])
	if err != nil {
		return err
	}
	rows, err := table.InvoiceRows()
	if err != nil {
		return err
	}

	run, err := a.importRun(cmd, model.TicketDefaults{}, importer.Options{})
	if err != nil {
		return err
	}
	banner(cmd, fmt.Sprintf("%d invoice lines", len(rows)), args[0])
	sum, err := run.Invoices(cmd.Context(), rows)
	return report(cmd, sum, err)
}
