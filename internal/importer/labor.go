package importer

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/Tiliavir/syncro-import/internal/model"
	"github.com/Tiliavir/syncro-import/internal/payload"
	"github.com/Tiliavir/syncro-import/internal/signature"
)

// LaborState is where a labor row ended up.
type LaborState string

const (
	SkippedInvalid   LaborState = "SKIPPED_INVALID"
	SkippedDuplicate LaborState = "SKIPPED_DUPLICATE"
	Failed           LaborState = "FAILED"
	Submitted        LaborState = "SUBMITTED"
	Charged          LaborState = "CHARGED"
	Uncharged        LaborState = "UNCHARGED"
	ChargeFailed     LaborState = "CHARGE_FAILED"
)

// Labor creates timer entries, sorted by ticket number then entry
// sequence. Entries whose signature already exists on the ticket, or that
// repeat an earlier row of this run, are skipped.
func (r *Run) Labor(ctx context.Context, rows []model.LaborRow) (*Summary, error) {
	r.begin("labor")

	sorted := make([]model.LaborRow, len(rows))
	copy(sorted, rows)
	sort.SliceStable(sorted, func(i, j int) bool {
		a, b := payload.CleanTicketNumber(sorted[i].TicketNumber), payload.CleanTicketNumber(sorted[j].TicketNumber)
		if c := payload.CompareTicketNumbers(a, b); c != 0 {
			return c < 0
		}
		return payload.SequenceNumber(sorted[i].Sequence) < payload.SequenceNumber(sorted[j].Sequence)
	})
	if r.opts.Limit > 0 && len(sorted) > r.opts.Limit {
		sorted = sorted[:r.opts.Limit]
	}

	for _, row := range sorted {
		if err := ctx.Err(); err != nil {
			return r.finish(), err
		}
		state := r.LaborRow(ctx, row)
		r.log.Debug().Int("line", row.Line).Str("ticket", row.TicketNumber).Str("state", string(state)).Msg("labor row processed")
	}
	return r.finish(), nil
}

// LaborRow processes a single labor row and reports its final state.
func (r *Run) LaborRow(ctx context.Context, row model.LaborRow) LaborState {
	number := payload.CleanTicketNumber(row.TicketNumber)
	if number == "" {
		r.skip(ValidationFailure, row.Line, "", fmt.Errorf("%w: ticket number is empty", payload.ErrInvalid))
		return SkippedInvalid
	}

	l, err := r.builder.Labor(row)
	if err != nil {
		r.skip(classify(err), row.Line, number, err)
		return SkippedInvalid
	}

	key := signature.RowKey(row)
	if _, ok := r.seen[key]; ok {
		r.summary.Duplicates++
		r.printf("  – Skipped:  labor line %d on ticket %s (repeated in file)\n", row.Line, number)
		return SkippedDuplicate
	}

	ref, err := r.ticket(ctx, number)
	if err != nil {
		r.fail(ExternalCallFailure, row.Line, number, err)
		return Failed
	}
	if ref == nil {
		r.skip(LookupMiss, row.Line, number, errTicketNotFound)
		return SkippedInvalid
	}

	sig := r.sigs.Local(row)
	if r.remote.Get(ctx, ref.ID).Contains(sig) {
		r.seen[key] = struct{}{}
		r.summary.Duplicates++
		r.printf("  – Skipped:  labor line %d on ticket %s (already exists)\n", row.Line, number)
		return SkippedDuplicate
	}

	if r.opts.DryRun {
		r.seen[key] = struct{}{}
		r.summary.Created++
		r.printf("  ✓ Would create: labor line %d on ticket %s (%s)\n", row.Line, number, minutes(l.DurationMinutes))
		return Submitted
	}

	timerID, err := r.api.CreateTimerEntry(ctx, ref.ID, l)
	if err != nil {
		r.fail(ExternalCallFailure, row.Line, number, err)
		return Failed
	}
	r.seen[key] = struct{}{}
	r.remote.Add(ref.ID, sig)
	r.summary.Created++
	r.printf("  ✓ Created:  labor line %d on ticket %s (%s)\n", row.Line, number, minutes(l.DurationMinutes))

	if !r.opts.Charge || (l.BillableOverride != nil && !*l.BillableOverride) {
		r.summary.Uncharged++
		return Uncharged
	}
	if timerID == 0 {
		err = errors.New("timer entry id missing from response")
	} else {
		err = r.api.ChargeTimerEntry(ctx, ref.ID, timerID)
	}
	if err != nil {
		r.summary.ChargeFailed++
		r.record(ExternalCallFailure, row.Line, number, fmt.Errorf("charge: %w", err))
		r.log.Error().Err(err).Int("line", row.Line).Str("ticket", number).Msg("charging timer entry failed")
		r.printf("  ! Charge failed: labor line %d on ticket %s: %v\n", row.Line, number, err)
		return ChargeFailed
	}
	r.summary.Charged++
	return Charged
}
