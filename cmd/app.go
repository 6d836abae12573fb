package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Tiliavir/syncro-import/internal/config"
	"github.com/Tiliavir/syncro-import/internal/csvload"
	"github.com/Tiliavir/syncro-import/internal/importer"
	"github.com/Tiliavir/syncro-import/internal/logging"
	"github.com/Tiliavir/syncro-import/internal/model"
	"github.com/Tiliavir/syncro-import/internal/payload"
	"github.com/Tiliavir/syncro-import/internal/prompt"
	"github.com/Tiliavir/syncro-import/internal/refcache"
	"github.com/Tiliavir/syncro-import/internal/syncro"
	"github.com/Tiliavir/syncro-import/internal/timestamp"
	"github.com/Tiliavir/syncro-import/internal/ui"
)

// flagKeys maps command-line flags onto config keys.
var flagKeys = map[string]string{
	"log-level":        "log.level",
	"timezone":         "timezone",
	"timestamp-format": "timestamp_format",
	"natural-dates":    "natural_dates",
}

// app carries what every command needs once configuration is resolved.
type app struct {
	cfg    *config.Config
	log    *zerolog.Logger
	closer io.Closer
	parser *timestamp.Parser
	client *syncro.Client
}

func bindFlags(v *viper.Viper, cmd *cobra.Command) error {
	for name, key := range flagKeys {
		f := cmd.Flags().Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return err
		}
	}
	return nil
}

func setup(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(config.Options{
		Path:   configPath,
		Bind:   func(v *viper.Viper) error { return bindFlags(v, cmd) },
		Stderr: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, err
	}

	closer, err := logging.Init(logging.Options{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Dir:     cfg.Log.Dir,
		Console: cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:    cfg,
		log:    logging.Named("cli"),
		closer: closer,
		parser: timestamp.NewParser(timestamp.Options{
			DayFirst: cfg.DayFirst(),
			Natural:  cfg.NaturalDates,
			Location: cfg.Location(),
			Logger:   logging.Get(),
		}),
	}
	a.log.Debug().
		Str("config", cfg.Path()).
		Str("timezone", cfg.Location().String()).
		Bool("day_first", cfg.DayFirst()).
		Msg("configuration loaded")
	return a, nil
}

func (a *app) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// api returns the Syncro client, asking for credentials when they are
// missing and a terminal is attached.
func (a *app) api(ctx context.Context) (*syncro.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	if !a.cfg.HasCredentials() {
		if !prompt.Interactive() {
			return nil, a.cfg.RequireCredentials()
		}
		if err := prompt.Credentials(&a.cfg.Subdomain, &a.cfg.APIKey); err != nil {
			return nil, fmt.Errorf("reading credentials: %w", err)
		}
	}

	delay := a.cfg.RequestDelay
	if delay == 0 {
		delay = -1
	}
	c, err := syncro.NewClient(ctx, syncro.Options{
		BaseURL:   a.cfg.BaseURL,
		Subdomain: a.cfg.Subdomain,
		APIKey:    a.cfg.APIKey,
		Delay:     delay,
		Logger:    logging.Get(),
	})
	if err != nil {
		return nil, err
	}
	a.client = c
	return c, nil
}

func (a *app) cache() *refcache.Store {
	return refcache.New(a.cfg.CacheFile, logging.Get())
}

// reference loads lookup data from the cache, fetching it on a miss.
func (a *app) reference(ctx context.Context) (*model.Reference, error) {
	c, err := a.api(ctx)
	if err != nil {
		return nil, err
	}
	ref, err := a.cache().LoadOrFetch(ctx, c.FetchReference)
	if err != nil {
		return nil, fmt.Errorf("loading reference data: %w", err)
	}
	return ref, nil
}

func (a *app) builder(ref *model.Reference, defaults model.TicketDefaults) *payload.Builder {
	return payload.NewBuilder(payload.Options{
		Parser:             a.parser,
		Lookup:             payload.NewLookup(ref, a.cfg.Defaults.IssueType),
		TicketDefaults:     defaults,
		DefaultDescription: a.cfg.Defaults.TicketDescription,
		Logger:             logging.Get(),
	})
}

func (a *app) table(path string) (*csvload.Table, error) {
	return csvload.Load(path, csvload.Options{
		Defaults: a.cfg.Defaults.Columns,
		Logger:   logging.Get(),
	})
}

// importRun wires a run for one command. Reference data is loaded first
// so setup failures abort before any row is touched.
func (a *app) importRun(cmd *cobra.Command, defaults model.TicketDefaults, opts importer.Options) (*importer.Run, error) {
	ref, err := a.reference(cmd.Context())
	if err != nil {
		return nil, err
	}
	opts.DryRun = dryRun
	opts.Out = cmd.OutOrStdout()
	opts.Logger = logging.Get()
	return importer.New(a.client, a.builder(ref, defaults), opts), nil
}

// report prints the summary and turns failed rows into a runtime error.
func report(cmd *cobra.Command, sum *importer.Summary, runErr error) error {
	fmt.Fprintln(cmd.OutOrStdout())
	fmt.Fprint(cmd.OutOrStdout(), ui.Summary(sum))
	if runErr != nil {
		return runErr
	}
	if sum.Failed > 0 {
		return fmt.Errorf("%d rows failed", sum.Failed)
	}
	return nil
}

func banner(cmd *cobra.Command, what, path string) {
	dryTag := ""
	if dryRun {
		dryTag = " [dry-run]"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Importing %s from %s%s (%s)...\n\n", what, path, dryTag, time.Now().Format("2006-01-02 15:04"))
}
