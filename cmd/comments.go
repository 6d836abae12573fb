package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/syncro-import/internal/importer"
	"github.com/Tiliavir/syncro-import/internal/model"
)

var commentsCmd = &cobra.Command{
	Use:   "comments <file.csv>",
	Short: "Append comments to existing tickets",
	Long: `Append each CSV row as a private comment on the ticket with the given
number. Comments of one ticket keep their file order and get strictly
increasing timestamps. A body the ticket already carries is skipped.`,
	Args: exactArgs(1),
	RunE: runComments,
}

func runComments(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	table, err := a.table(args[0])
	if err != nil {
		return err
	}
	rows, err := table.CommentRows()
	if err != nil {
		return err
	}

	run, err := a.importRun(cmd, model.TicketDefaults{}, importer.Options{})
	if err != nil {
		return err
	}
	banner(cmd, fmt.Sprintf("%d comments", len(rows)), args[0])
	sum, err := run.Comments(cmd.Context(), rows)
	return report(cmd, sum, err)
}
