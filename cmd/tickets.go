package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/syncro-import/internal/importer"
	"github.com/Tiliavir/syncro-import/internal/model"
	"github.com/Tiliavir/syncro-import/internal/prompt"
)

var (
	ticketDefaults       model.TicketDefaults
	ticketPromptDefaults bool
)

var ticketsCmd = &cobra.Command{
	Use:   "tickets <file.csv>",
	Short: "Create tickets with their description, change plan and comments",
	Long: `Create one ticket per ticket number found in the CSV. Rows sharing a
number are merged; the description, change plan and every comment column
are posted as private comments in strictly increasing time order.
Ticket numbers that already exist in Syncro are skipped.`,
	Args: exactArgs(1),
	RunE: runTickets,
}

func init() {
	f := ticketsCmd.Flags()
	f.StringVar(&ticketDefaults.Customer, "customer", "", "Customer for rows without one")
	f.StringVar(&ticketDefaults.Contact, "contact", "", "Contact for rows without one")
	f.StringVar(&ticketDefaults.Status, "status", "", "Status for rows without one")
	f.StringVar(&ticketDefaults.IssueType, "issue-type", "", "Issue type for rows without one")
	f.StringVar(&ticketDefaults.Priority, "priority", "", "Priority for rows without one (urgent, high, normal, low)")
	f.StringVar(&ticketDefaults.Assignee, "assignee", "", "Assignee for rows without one")
	f.StringVar(&ticketDefaults.CreatedAt, "created", "", "Created date for rows without one")
	f.BoolVar(&ticketPromptDefaults, "prompt-defaults", false, "Choose the defaults above in an interactive form")
}

func runTickets(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	table, err := a.table(args[0])
	if err != nil {
		return err
	}
	groups, err := table.TicketGroups()
	if err != nil {
		return err
	}

	defaults := ticketDefaults
	ctx := cmd.Context()
	if ticketPromptDefaults {
		ref, err := a.reference(ctx)
		if err != nil {
			return err
		}
		if err := prompt.TicketDefaults(&defaults, ref); err != nil {
			return fmt.Errorf("reading ticket defaults: %w", err)
		}
	}

	run, err := a.importRun(cmd, defaults, importer.Options{})
	if err != nil {
		return err
	}
	banner(cmd, fmt.Sprintf("%d tickets", len(groups)), args[0])
	sum, err := run.Tickets(ctx, groups)
	return report(cmd, sum, err)
}
