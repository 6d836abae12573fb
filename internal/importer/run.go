// Package importer drives an import: it walks grouped CSV rows in a fixed
// order, builds payloads, skips what already exists and creates the rest.
package importer

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/Tiliavir/syncro-import/internal/model"
	"github.com/Tiliavir/syncro-import/internal/payload"
	"github.com/Tiliavir/syncro-import/internal/signature"
	"github.com/Tiliavir/syncro-import/internal/timecalc"
)

// API is the subset of Syncro the importer talks to.
type API interface {
	TicketByNumber(ctx context.Context, number string) (*model.TicketRef, error)
	TimerEntries(ctx context.Context, ticketID int64) ([]model.TimerRecord, error)
	CreateTicket(ctx context.Context, t payload.Ticket) (*model.TicketRef, error)
	CreateComment(ctx context.Context, ticketID int64, c payload.Comment) error
	CreateTimerEntry(ctx context.Context, ticketID int64, l payload.Labor) (int64, error)
	ChargeTimerEntry(ctx context.Context, ticketID, timerID int64) error
	Invoices(ctx context.Context) ([]model.InvoiceRef, error)
	CreateInvoice(ctx context.Context, inv payload.Invoice) (*model.InvoiceRef, error)
}

// Options configures a run.
type Options struct {
	// DryRun builds and validates everything and performs read calls, but
	// never writes.
	DryRun bool
	// Limit caps the number of labor rows processed. Zero means no limit.
	Limit int
	// Charge converts created timer entries into charges unless the row is
	// explicitly non-billable.
	Charge bool
	// Out receives one progress line per row.
	Out    io.Writer
	Logger *zerolog.Logger
}

// Summary is the outcome of a run.
type Summary struct {
	Kind           string
	DryRun         bool
	Created        int
	Duplicates     int
	Skipped        int
	Failed         int
	Comments       int
	CommentsFailed int
	Charged        int
	Uncharged      int
	ChargeFailed   int
	APICalls       int
	Elapsed        time.Duration
	Errors         []*RowError
}

// Run holds the per-invocation caches. Create one per command.
type Run struct {
	api     API
	builder *payload.Builder
	sigs    *signature.Builder
	remote  *signature.Cache
	opts    Options
	out     io.Writer
	log     zerolog.Logger

	tickets map[string]*model.TicketRef
	lookups map[string]error
	seen    map[string]struct{}
	summary Summary
	started time.Time
}

// New returns a run over api.
func New(api API, builder *payload.Builder, opts Options) *Run {
	r := &Run{
		api:     api,
		builder: builder,
		opts:    opts,
		out:     opts.Out,
		log:     zerolog.Nop(),
		tickets: make(map[string]*model.TicketRef),
		lookups: make(map[string]error),
		seen:    make(map[string]struct{}),
	}
	if r.out == nil {
		r.out = io.Discard
	}
	if opts.Logger != nil {
		r.log = opts.Logger.With().Str("component", "importer").Logger()
	}
	r.sigs = signature.NewBuilder(builder.Parser(), builder.Lookup().Reference(), opts.Logger)
	r.remote = signature.NewCache(r.sigs, api.TimerEntries, opts.Logger)
	return r
}

func (r *Run) begin(kind string) {
	r.summary = Summary{Kind: kind, DryRun: r.opts.DryRun}
	r.started = time.Now()
}

func (r *Run) finish() *Summary {
	s := r.summary
	s.Elapsed = time.Since(r.started)
	if c, ok := r.api.(interface{ Calls() int }); ok {
		s.APICalls = c.Calls()
	}
	r.log.Info().
		Str("kind", s.Kind).
		Bool("dry_run", s.DryRun).
		Int("created", s.Created).
		Int("duplicates", s.Duplicates).
		Int("skipped", s.Skipped).
		Int("failed", s.Failed).
		Int("comments", s.Comments).
		Int("charged", s.Charged).
		Int("charge_failed", s.ChargeFailed).
		Int("api_calls", s.APICalls).
		Dur("elapsed", s.Elapsed).
		Msg("import finished")
	return &s
}

func (r *Run) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format, args...)
}

// ticket resolves a ticket by cleaned number. Misses and failed lookups
// are remembered for the rest of the run.
func (r *Run) ticket(ctx context.Context, number string) (*model.TicketRef, error) {
	if ref, ok := r.tickets[number]; ok {
		return ref, nil
	}
	if err, ok := r.lookups[number]; ok {
		return nil, err
	}
	ref, err := r.api.TicketByNumber(ctx, number)
	if err != nil {
		if ctx.Err() == nil {
			r.lookups[number] = err
		}
		return nil, err
	}
	r.tickets[number] = ref
	return ref, nil
}

func (r *Run) record(kind Kind, line int, ticket string, err error) *RowError {
	re := &RowError{Kind: kind, Line: line, Ticket: ticket, Err: err}
	r.summary.Errors = append(r.summary.Errors, re)
	return re
}

func (r *Run) skip(kind Kind, line int, ticket string, err error) {
	re := r.record(kind, line, ticket, err)
	r.summary.Skipped++
	r.log.Warn().Err(re.Err).Str("kind", kind.String()).Int("line", line).Str("ticket", ticket).Msg("row skipped")
	r.printf("  – Skipped:  %v\n", re)
}

func (r *Run) fail(kind Kind, line int, ticket string, err error) {
	re := r.record(kind, line, ticket, err)
	r.summary.Failed++
	r.log.Error().Err(err).Str("kind", kind.String()).Int("line", line).Str("ticket", ticket).Msg("row failed")
	r.printf("  ! Error:    %v\n", re)
}

func minutes(n int) string {
	return timecalc.FormatDuration(int64(n) * 60)
}
