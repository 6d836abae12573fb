package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/syncro-import/internal/importer"
	"github.com/Tiliavir/syncro-import/internal/model"
)

var (
	laborCharge bool
	laborLimit  int
)

var laborCmd = &cobra.Command{
	Use:   "labor <file.csv>",
	Short: "Create timer entries on existing tickets",
	Long: `Create one timer entry per CSV row, ordered by ticket number and entry
sequence. An entry is skipped when the ticket already has one with the
same notes, tech and start minute, so the import can be re-run safely.`,
	Args: exactArgs(1),
	RunE: runLabor,
}

func init() {
	laborCmd.Flags().BoolVar(&laborCharge, "charge", false, "Charge created entries unless the row is marked non-billable")
	laborCmd.Flags().IntVar(&laborLimit, "limit", 0, "Process at most N rows (0 = all)")
}

func runLabor(cmd *cobra.Command, args []string) error {
	if laborLimit < 0 {
		return usageError{fmt.Errorf("--limit must not be negative, got %d", laborLimit)}
	}
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	table, err := a.table(args[0])
	if err != nil {
		return err
	}
	rows, err := table.LaborRows()
	if err != nil {
		return err
	}

	run, err := a.importRun(cmd, model.TicketDefaults{}, importer.Options{Charge: laborCharge, Limit: laborLimit})
	if err != nil {
		return err
	}
	banner(cmd, fmt.Sprintf("%d labor entries", len(rows)), args[0])
	sum, err := run.Labor(cmd.Context(), rows)
	return report(cmd, sum, err)
}
