package importer

import (
	"context"
	"fmt"

	"github.com/Tiliavir/syncro-import/internal/model"
	"github.com/Tiliavir/syncro-import/internal/payload"
)

// Invoices creates one invoice per invoice number, in first-appearance
// order. Numbers already present in Syncro are skipped as duplicates.
func (r *Run) Invoices(ctx context.Context, rows []model.InvoiceRow) (*Summary, error) {
	r.begin("invoices")

	var order []string
	groups := make(map[string][]model.InvoiceRow)
	for _, row := range rows {
		number := payload.CleanTicketNumber(row.InvoiceNumber)
		if number == "" {
			r.skip(ValidationFailure, row.Line, "", fmt.Errorf("%w: invoice number is empty", payload.ErrInvalid))
			continue
		}
		if _, ok := groups[number]; !ok {
			order = append(order, number)
		}
		groups[number] = append(groups[number], row)
	}

	existing, err := r.api.Invoices(ctx)
	if err != nil {
		return r.finish(), fmt.Errorf("loading existing invoices: %w", err)
	}
	known := make(map[string]struct{}, len(existing))
	for _, inv := range existing {
		known[payload.CleanTicketNumber(inv.Number)] = struct{}{}
	}

	for _, number := range order {
		if err := ctx.Err(); err != nil {
			return r.finish(), err
		}
		group := groups[number]
		line := group[0].Line

		if _, ok := known[number]; ok {
			r.summary.Duplicates++
			r.printf("  – Skipped:  invoice %s (already exists)\n", number)
			continue
		}

		inv, err := r.builder.Invoice(group)
		if err != nil {
			r.fail(classify(err), line, number, err)
			continue
		}

		if r.opts.DryRun {
			known[number] = struct{}{}
			r.summary.Created++
			r.printf("  ✓ Would create: invoice %s (%d lines, %s)\n", number, len(inv.LineItems), inv.Total().StringFixed(2))
			continue
		}
		if _, err := r.api.CreateInvoice(ctx, inv); err != nil {
			r.fail(ExternalCallFailure, line, number, err)
			continue
		}
		known[number] = struct{}{}
		r.summary.Created++
		r.printf("  ✓ Created:  invoice %s (%d lines, %s)\n", number, len(inv.LineItems), inv.Total().StringFixed(2))
	}
	return r.finish(), nil
}
