package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

var (
	configPath      string
	dryRun          bool
	logLevel        string
	timezone        string
	timestampFormat string
	naturalDates    bool
)

var rootCmd = &cobra.Command{
	Use:   "syncro-import",
	Short: "Import tickets, comments, labor and invoices from CSV into Syncro",
	Long: `syncro-import migrates CSV exports into a Syncro MSP account.
Settings live in ~/.syncro-import/config.yaml and can be overridden with
SYNCRO_* environment variables or the flags below.

Every import is idempotent: records that already exist in Syncro are
skipped, so a failed run can simply be repeated.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// usageError marks errors caused by how the command was invoked.
type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// exitCode maps an error to the process status: 1 for usage, 2 for
// runtime failures.
func exitCode(err error) int {
	var ue usageError
	if errors.As(err, &ue) {
		return 1
	}
	return 2
}

// exactArgs is cobra.ExactArgs reporting a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	}
}

// Execute is the entry point called from main.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		code := exitCode(err)
		if code == 1 {
			fmt.Fprintln(os.Stderr, "Run 'syncro-import --help' for usage.")
		}
		stop()
		os.Exit(code)
	}
}

func init() {
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError{err}
	})

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configPath, "config", "", "Config file (default ~/.syncro-import/config.yaml)")
	pf.BoolVar(&dryRun, "dry-run", false, "Build and validate everything without writing to Syncro")
	pf.StringVar(&logLevel, "log-level", "", "Log level: trace, debug, info, warn, error")
	pf.StringVar(&timezone, "timezone", "", "IANA timezone for naive CSV dates (e.g. America/New_York)")
	pf.StringVar(&timestampFormat, "timestamp-format", "", "Ambiguous date order: US (month first) or INTL (day first)")
	pf.BoolVar(&naturalDates, "natural-dates", false, "Also accept natural-language dates such as \"yesterday 5pm\"")

	rootCmd.AddCommand(ticketsCmd)
	rootCmd.AddCommand(commentsCmd)
	rootCmd.AddCommand(laborCmd)
	rootCmd.AddCommand(invoicesCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(parseCmd)
}
