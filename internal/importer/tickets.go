package importer

import (
	"context"
	"fmt"
	"sort"

	"github.com/Tiliavir/syncro-import/internal/model"
	"github.com/Tiliavir/syncro-import/internal/payload"
)

// Tickets creates one ticket per group followed by its comments, in
// ascending ticket number order. Numbers that already exist in Syncro are
// skipped as duplicates.
func (r *Run) Tickets(ctx context.Context, groups []model.TicketGroup) (*Summary, error) {
	r.begin("tickets")

	sorted := make([]model.TicketGroup, len(groups))
	copy(sorted, groups)
	sort.SliceStable(sorted, func(i, j int) bool {
		return payload.CompareTicketNumbers(payload.CleanTicketNumber(sorted[i].Number), payload.CleanTicketNumber(sorted[j].Number)) < 0
	})

	for _, g := range sorted {
		if err := ctx.Err(); err != nil {
			return r.finish(), err
		}
		r.ticketGroup(ctx, r.builder.ApplyDefaults(g))
	}
	return r.finish(), nil
}

func (r *Run) ticketGroup(ctx context.Context, g model.TicketGroup) {
	number := payload.CleanTicketNumber(g.Number)

	t, events, err := r.builder.Ticket(g)
	if err != nil {
		r.skip(classify(err), 0, number, err)
		return
	}

	existing, err := r.ticket(ctx, number)
	if err != nil {
		r.fail(ExternalCallFailure, 0, number, err)
		return
	}
	if existing != nil {
		r.summary.Duplicates++
		r.log.Info().Str("ticket", number).Int64("ticket_id", existing.ID).Msg("ticket already exists")
		r.printf("  – Skipped:  ticket %s (already exists)\n", number)
		return
	}

	if r.opts.DryRun {
		r.summary.Created++
		r.summary.Comments += len(events)
		r.printf("  ✓ Would create: ticket %s %q with %d comments\n", number, t.Subject, len(events))
		return
	}

	ref, err := r.api.CreateTicket(ctx, t)
	if err != nil {
		r.fail(ExternalCallFailure, 0, number, err)
		return
	}
	r.tickets[number] = ref
	r.summary.Created++
	r.log.Info().Str("ticket", number).Int64("ticket_id", ref.ID).Msg("ticket created")

	posted := r.postEvents(ctx, ref, events)
	r.printf("  ✓ Created:  ticket %s %q (%d/%d comments)\n", number, t.Subject, posted, len(events))
}

// postEvents submits every event of a freshly created ticket in order and
// returns how many were created. Repeated bodies are posted again.
func (r *Run) postEvents(ctx context.Context, ref *model.TicketRef, events model.EventSequence) int {
	posted := 0
	for _, ev := range events {
		if ctx.Err() != nil {
			return posted
		}
		c := r.builder.Comment(ev)
		if err := r.api.CreateComment(ctx, ref.ID, c); err != nil {
			r.summary.CommentsFailed++
			r.record(ExternalCallFailure, 0, ref.Number, fmt.Errorf("comment %q: %w", c.Subject, err))
			r.log.Error().Err(err).Str("ticket", ref.Number).Str("subject", c.Subject).Msg("comment failed")
			continue
		}
		ref.Comments = append(ref.Comments, model.Comment{Subject: c.Subject, Body: c.Body, CreatedAt: c.CreatedAt})
		r.summary.Comments++
		posted++
	}
	return posted
}
