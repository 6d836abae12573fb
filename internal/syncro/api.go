package syncro

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/Tiliavir/syncro-import/internal/model"
	"github.com/Tiliavir/syncro-import/internal/payload"
)

// TicketByNumber looks a ticket up by its number. A miss returns nil, nil.
func (c *Client) TicketByNumber(ctx context.Context, number string) (*model.TicketRef, error) {
	var resp struct {
		Tickets []json.RawMessage `json:"tickets"`
	}
	if err := c.do(ctx, http.MethodGet, "/tickets", url.Values{"number": {number}}, nil, &resp); err != nil {
		return nil, fmt.Errorf("looking up ticket %s: %w", number, err)
	}

	var fallback *model.TicketRef
	for _, raw := range resp.Tickets {
		o, err := decodeObject(raw)
		if err != nil {
			return nil, fmt.Errorf("decoding ticket %s: %w", number, err)
		}
		ref := ticketRef(o)
		if ref.Number != "" && payload.CompareTicketNumbers(ref.Number, number) == 0 {
			return &ref, nil
		}
		if fallback == nil && ref.Number == "" {
			fallback = &ref
		}
	}
	return fallback, nil
}

// TimerEntries returns the timer entries recorded on a ticket.
func (c *Client) TimerEntries(ctx context.Context, ticketID int64) ([]model.TimerRecord, error) {
	var resp struct {
		Ticket json.RawMessage `json:"ticket"`
	}
	path := "/tickets/" + strconv.FormatInt(ticketID, 10)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &resp); err != nil {
		return nil, fmt.Errorf("fetching timer entries of ticket %d: %w", ticketID, err)
	}
	if len(resp.Ticket) == 0 {
		return nil, nil
	}
	o, err := decodeObject(resp.Ticket)
	if err != nil {
		return nil, fmt.Errorf("decoding ticket %d: %w", ticketID, err)
	}

	var out []model.TimerRecord
	for _, key := range []string{"ticket_timers", "timer_entries"} {
		for _, t := range o.objects(key) {
			out = append(out, timerRecord(t))
		}
	}
	return out, nil
}

// CreateTicket creates a ticket and returns its reference.
func (c *Client) CreateTicket(ctx context.Context, t payload.Ticket) (*model.TicketRef, error) {
	var resp struct {
		Ticket json.RawMessage `json:"ticket"`
	}
	if err := c.do(ctx, http.MethodPost, "/tickets", nil, t, &resp); err != nil {
		return nil, fmt.Errorf("creating ticket %s: %w", t.Number, err)
	}
	ref := model.TicketRef{Number: t.Number}
	if len(resp.Ticket) > 0 {
		o, err := decodeObject(resp.Ticket)
		if err != nil {
			return nil, fmt.Errorf("decoding created ticket %s: %w", t.Number, err)
		}
		ref = ticketRef(o)
		if ref.Number == "" {
			ref.Number = t.Number
		}
	}
	if ref.ID == 0 {
		return nil, fmt.Errorf("creating ticket %s: response carried no id", t.Number)
	}
	return &ref, nil
}

// CreateComment adds a comment to a ticket.
func (c *Client) CreateComment(ctx context.Context, ticketID int64, cm payload.Comment) error {
	path := fmt.Sprintf("/tickets/%d/comment", ticketID)
	if err := c.do(ctx, http.MethodPost, path, nil, cm, nil); err != nil {
		return fmt.Errorf("creating comment %q on ticket %d: %w", cm.Subject, ticketID, err)
	}
	return nil
}

// CreateTimerEntry records labor on a ticket and returns the timer id.
func (c *Client) CreateTimerEntry(ctx context.Context, ticketID int64, l payload.Labor) (int64, error) {
	var resp map[string]json.RawMessage
	path := fmt.Sprintf("/tickets/%d/timer_entry", ticketID)
	if err := c.do(ctx, http.MethodPost, path, nil, l, &resp); err != nil {
		return 0, fmt.Errorf("creating timer entry on ticket %d: %w", ticketID, err)
	}
	for _, key := range []string{"ticket_timer", "timer_entry"} {
		if raw, ok := resp[key]; ok {
			if o, err := decodeObject(raw); err == nil && o.id() != 0 {
				return o.id(), nil
			}
		}
	}
	if raw, ok := resp["id"]; ok {
		if v, err := decodeAny(raw); err == nil {
			if id, ok := integer(v); ok {
				return id, nil
			}
		}
	}
	return 0, nil
}

// ChargeTimerEntry turns a timer entry into a billable line item.
func (c *Client) ChargeTimerEntry(ctx context.Context, ticketID, timerID int64) error {
	path := fmt.Sprintf("/tickets/%d/charge_timer_entry", ticketID)
	body := map[string]int64{"timer_entry_id": timerID}
	if err := c.do(ctx, http.MethodPost, path, nil, body, nil); err != nil {
		return fmt.Errorf("charging timer entry %d on ticket %d: %w", timerID, ticketID, err)
	}
	return nil
}

// Invoices lists every invoice.
func (c *Client) Invoices(ctx context.Context) ([]model.InvoiceRef, error) {
	items, err := c.getAll(ctx, "/invoices", "invoices", nil)
	if err != nil {
		return nil, fmt.Errorf("listing invoices: %w", err)
	}
	out := make([]model.InvoiceRef, 0, len(items))
	for _, raw := range items {
		o, err := decodeObject(raw)
		if err != nil {
			return nil, fmt.Errorf("decoding invoice: %w", err)
		}
		out = append(out, invoiceRef(o))
	}
	return out, nil
}

// CreateInvoice creates an invoice.
func (c *Client) CreateInvoice(ctx context.Context, inv payload.Invoice) (*model.InvoiceRef, error) {
	var resp struct {
		Invoice json.RawMessage `json:"invoice"`
	}
	if err := c.do(ctx, http.MethodPost, "/invoices", nil, inv, &resp); err != nil {
		return nil, fmt.Errorf("creating invoice %s: %w", inv.Number, err)
	}
	ref := model.InvoiceRef{Number: inv.Number}
	if len(resp.Invoice) > 0 {
		if o, err := decodeObject(resp.Invoice); err == nil {
			ref.ID = o.id()
			if n := o.first("number"); n != "" {
				ref.Number = n
			}
		}
	}
	return &ref, nil
}
