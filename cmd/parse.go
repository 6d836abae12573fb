package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Tiliavir/syncro-import/internal/timestamp"
)

var parseCmd = &cobra.Command{
	Use:   "parse <value>...",
	Short: "Show how date values would be interpreted",
	Long: `Parse each argument with the configured timezone and date order and
print the resulting timestamp. Useful to check a CSV's date column before
importing it.`,
	Args: func(cmd *cobra.Command, args []string) error {
		if err := cobra.MinimumNArgs(1)(cmd, args); err != nil {
			return usageError{err}
		}
		return nil
	},
	RunE: runParse,
}

func runParse(cmd *cobra.Command, args []string) error {
	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	failed := 0
	for _, raw := range args {
		in, err := a.parser.Parse(raw)
		if err != nil {
			failed++
			fmt.Fprintf(out, "  ! %-24q %v\n", raw, err)
			continue
		}
		kind := "naive, " + a.parser.Location().String()
		if in.Zoned {
			kind = "zoned"
		}
		if in.Midnight() {
			kind += ", midnight"
		}
		fmt.Fprintf(out, "  ✓ %-24q %s (%s)\n", raw, timestamp.FormatISO(a.parser.Localize(in)), kind)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d values could not be parsed", failed, len(args))
	}
	return nil
}
