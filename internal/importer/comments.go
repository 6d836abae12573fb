package importer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Tiliavir/syncro-import/internal/model"
	"github.com/Tiliavir/syncro-import/internal/payload"
	"github.com/Tiliavir/syncro-import/internal/timestamp"
)

var errTicketNotFound = errors.New("ticket not found in Syncro")

// Comments appends comments to existing tickets. Comments of one ticket
// keep their CSV order; a body the ticket carried before the run is skipped.
func (r *Run) Comments(ctx context.Context, rows []model.CommentImportRow) (*Summary, error) {
	r.begin("comments")

	var order []string
	byTicket := make(map[string][]model.CommentImportRow)
	for _, row := range rows {
		number := payload.CleanTicketNumber(row.TicketNumber)
		if number == "" {
			r.skip(ValidationFailure, row.Line, "", fmt.Errorf("%w: ticket number is empty", payload.ErrInvalid))
			continue
		}
		if _, ok := byTicket[number]; !ok {
			order = append(order, number)
		}
		byTicket[number] = append(byTicket[number], row)
	}
	sort.SliceStable(order, func(i, j int) bool {
		return payload.CompareTicketNumbers(order[i], order[j]) < 0
	})

	for _, number := range order {
		if err := ctx.Err(); err != nil {
			return r.finish(), err
		}
		r.ticketComments(ctx, number, byTicket[number])
	}
	return r.finish(), nil
}

func (r *Run) ticketComments(ctx context.Context, number string, rows []model.CommentImportRow) {
	ref, err := r.ticket(ctx, number)
	if err != nil {
		for _, row := range rows {
			r.fail(ExternalCallFailure, row.Line, number, err)
		}
		return
	}
	if ref == nil {
		for _, row := range rows {
			r.skip(LookupMiss, row.Line, number, errTicketNotFound)
		}
		return
	}

	existing := ref.CommentBodies()
	parser := r.builder.Parser()
	var seq *timestamp.Sequencer
	for _, row := range rows {
		if ctx.Err() != nil {
			return
		}
		body := strings.TrimSpace(row.Body)
		if body == "" {
			r.skip(ValidationFailure, row.Line, number, fmt.Errorf("%w: comment body is empty", payload.ErrInvalid))
			continue
		}
		if _, ok := existing[body]; ok {
			r.summary.Duplicates++
			r.printf("  – Skipped:  comment on ticket %s line %d (already exists)\n", number, row.Line)
			continue
		}

		var candidate time.Time
		if row.Timestamp != "" {
			t, err := parser.ParseLocal(row.Timestamp)
			if err != nil {
				r.log.Warn().Err(err).Int("line", row.Line).Str("raw", row.Timestamp).Msg("comment timestamp unusable, sequencing after previous")
			} else {
				candidate = t
			}
		}
		var at time.Time
		if seq == nil {
			at = candidate
			if at.IsZero() {
				at = parser.Now().Truncate(time.Second)
			}
			seq = timestamp.NewSequencer(at)
		} else {
			at = seq.Next(candidate)
		}

		c := r.builder.Comment(model.Event{
			Subject: strings.TrimSpace(row.Subject),
			Body:    body,
			Author:  strings.TrimSpace(firstNonEmpty(row.Tech, row.Owner)),
			At:      at,
		})
		if c.Subject == "" {
			c.Subject = "API Import"
		}

		if r.opts.DryRun {
			r.summary.Created++
			r.printf("  ✓ Would add: comment on ticket %s at %s\n", number, c.CreatedAt)
			continue
		}
		if err := r.api.CreateComment(ctx, ref.ID, c); err != nil {
			r.fail(ExternalCallFailure, row.Line, number, err)
			continue
		}
		ref.Comments = append(ref.Comments, model.Comment{Subject: c.Subject, Body: c.Body, CreatedAt: c.CreatedAt})
		r.summary.Created++
		r.printf("  ✓ Added:    comment on ticket %s at %s\n", number, c.CreatedAt)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
