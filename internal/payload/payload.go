// Package payload turns grouped CSV rows into validated Syncro request
// bodies. Date handling is delegated to the timestamp package.
package payload

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/Tiliavir/syncro-import/internal/model"
	"github.com/Tiliavir/syncro-import/internal/timestamp"
)

var (
	// ErrInvalid marks rows that cannot produce a valid payload.
	ErrInvalid = errors.New("invalid row")
	// ErrUnknownCustomer is returned when a customer name has no match.
	ErrUnknownCustomer = errors.New("customer not found")
	// ErrMixedCustomers is returned for invoices whose rows disagree on the customer.
	ErrMixedCustomers = errors.New("invoice references more than one customer")
)

// DefaultDescription is the ticket description used when neither the CSV
// nor the configuration provides one.
const DefaultDescription = "Description not provided"

// Ticket is the body of POST /tickets.
type Ticket struct {
	Number      string `json:"number" validate:"required"`
	Subject     string `json:"subject" validate:"required"`
	CreatedAt   string `json:"created_at,omitempty"`
	Status      string `json:"status,omitempty"`
	ProblemType string `json:"problem_type,omitempty"`
	Priority    string `json:"priority,omitempty"`
	UserID      int64  `json:"user_id,omitempty"`
	CustomerID  int64  `json:"customer_id" validate:"required"`
	ContactID   int64  `json:"contact_id,omitempty"`
}

// Comment is the body of POST /tickets/{id}/comment.
type Comment struct {
	Subject    string `json:"subject" validate:"required"`
	Body       string `json:"body" validate:"required"`
	Hidden     bool   `json:"hidden"`
	DoNotEmail bool   `json:"do_not_email"`
	Tech       string `json:"tech,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// Labor is the body of POST /tickets/{id}/timer_entry.
type Labor struct {
	StartAt          string `json:"start_at" validate:"required"`
	EndAt            string `json:"end_at" validate:"required"`
	Notes            string `json:"notes,omitempty"`
	UserID           int64  `json:"user_id,omitempty"`
	ProductID        int64  `json:"product_id,omitempty"`
	BillableOverride *bool  `json:"billable_override,omitempty"`
	Hidden           *bool  `json:"hidden,omitempty"`
	DurationMinutes  int    `json:"-" validate:"gt=0"`
}

// InvoiceLine is one line item of an invoice.
type InvoiceLine struct {
	ProductID int64           `json:"product_id,omitempty"`
	Item      string          `json:"item" validate:"required"`
	Name      string          `json:"name,omitempty"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Taxable   bool            `json:"taxable"`
}

// Invoice is the body of POST /invoices.
type Invoice struct {
	CustomerID int64         `json:"customer_id" validate:"required"`
	ContactID  int64         `json:"contact_id,omitempty"`
	Number     string        `json:"number" validate:"required"`
	Date       string        `json:"date,omitempty"`
	DueDate    string        `json:"due_date,omitempty"`
	LineItems  []InvoiceLine `json:"line_items" validate:"required,min=1,dive"`
}

// Total returns the sum of quantity times price over all lines.
func (inv Invoice) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range inv.LineItems {
		total = total.Add(l.Quantity.Mul(l.Price))
	}
	return total
}

// Options configures a Builder.
type Options struct {
	Parser             *timestamp.Parser
	Lookup             *Lookup
	TicketDefaults     model.TicketDefaults
	DefaultDescription string
	Logger             *zerolog.Logger
}

// Builder composes request bodies.
type Builder struct {
	parser      *timestamp.Parser
	lookup      *Lookup
	defaults    model.TicketDefaults
	description string
	validate    *validator.Validate
	log         zerolog.Logger
}

// NewBuilder returns a Builder.
func NewBuilder(opts Options) *Builder {
	b := &Builder{
		parser:      opts.Parser,
		lookup:      opts.Lookup,
		defaults:    opts.TicketDefaults,
		description: strings.TrimSpace(opts.DefaultDescription),
		validate:    newValidator(),
		log:         zerolog.Nop(),
	}
	if b.parser == nil {
		b.parser = timestamp.NewParser(timestamp.Options{})
	}
	if b.lookup == nil {
		b.lookup = NewLookup(nil, "")
	}
	if b.description == "" {
		b.description = DefaultDescription
	}
	if opts.Logger != nil {
		b.log = opts.Logger.With().Str("component", "payload").Logger()
	}
	return b
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		tag := fld.Tag.Get("json")
		if tag == "-" || tag == "" {
			return fld.Name
		}
		if idx := strings.Index(tag, ","); idx >= 0 {
			tag = tag[:idx]
		}
		return tag
	})
	return v
}

// Validate checks v against its struct tags.
func (b *Builder) Validate(v any) error {
	if err := b.validate.Struct(v); err != nil {
		var fields validator.ValidationErrors
		if errors.As(err, &fields) {
			msgs := make([]string, 0, len(fields))
			for _, f := range fields {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", f.Namespace(), f.Tag()))
			}
			return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
		}
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}

// Lookup returns the builder's lookup tables.
func (b *Builder) Lookup() *Lookup { return b.lookup }

// Parser returns the builder's timestamp parser.
func (b *Builder) Parser() *timestamp.Parser { return b.parser }

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}

// ApplyDefaults fills blank fields of g from the configured ticket defaults.
func (b *Builder) ApplyDefaults(g model.TicketGroup) model.TicketGroup {
	d := b.defaults
	g.Customer = firstNonEmpty(g.Customer, d.Customer)
	g.Contact = firstNonEmpty(g.Contact, d.Contact)
	g.Status = firstNonEmpty(g.Status, d.Status)
	g.IssueType = firstNonEmpty(g.IssueType, d.IssueType)
	g.Priority = firstNonEmpty(g.Priority, d.Priority)
	g.Assignee = firstNonEmpty(g.Assignee, d.Assignee)
	g.CreatedAt = firstNonEmpty(g.CreatedAt, d.CreatedAt)
	return g
}

// BaseTime returns the localized creation time of g, or now when it is
// missing or unparseable.
func (b *Builder) BaseTime(g model.TicketGroup) time.Time {
	if strings.TrimSpace(g.CreatedAt) == "" {
		return b.parser.Now().Truncate(time.Second)
	}
	t, err := b.parser.ParseLocal(g.CreatedAt)
	if err != nil {
		b.log.Warn().Err(err).Str("ticket", g.Number).Str("raw", g.CreatedAt).Msg("ticket created date unusable, using now")
		return b.parser.Now().Truncate(time.Second)
	}
	return t
}

// Ticket builds the create-ticket body and the ordered comment sequence
// for g. Defaults must already be applied.
func (b *Builder) Ticket(g model.TicketGroup) (Ticket, model.EventSequence, error) {
	number := CleanTicketNumber(g.Number)
	if number == "" {
		return Ticket{}, nil, fmt.Errorf("%w: ticket number is empty", ErrInvalid)
	}

	customerID, ok := b.lookup.CustomerID(g.Customer)
	if !ok {
		return Ticket{}, nil, fmt.Errorf("%w: %q", ErrUnknownCustomer, g.Customer)
	}

	base := b.BaseTime(g)
	t := Ticket{
		Number:      number,
		Subject:     firstNonEmpty(g.Subject, "Imported Ticket "+number),
		CreatedAt:   timestamp.FormatISO(base),
		Status:      b.lookup.Status(g.Status),
		ProblemType: b.lookup.IssueType(g.IssueType),
		Priority:    Priority(g.Priority),
		CustomerID:  customerID,
	}

	if g.Contact != "" {
		if id, ok := b.lookup.Contact(customerID, g.Contact); ok {
			t.ContactID = id
		} else {
			b.log.Warn().Str("ticket", number).Str("contact", g.Contact).Msg("contact not found for customer")
		}
	}
	if g.Assignee != "" {
		if id, ok := b.lookup.TechID(g.Assignee); ok {
			t.UserID = id
		} else {
			b.log.Warn().Str("ticket", number).Str("assignee", g.Assignee).Msg("assignee not found")
		}
	}

	if err := b.Validate(t); err != nil {
		return Ticket{}, nil, err
	}
	return t, b.EventSequence(g, base), nil
}

// EventSequence orders the description, change plan and CSV comments of g
// so that every event is strictly after the one before.
func (b *Builder) EventSequence(g model.TicketGroup, base time.Time) model.EventSequence {
	author := firstNonEmpty(g.Assignee, b.defaults.Assignee)
	seq := timestamp.NewSequencer(base)

	events := model.EventSequence{
		{
			Subject: "Description",
			Body:    firstNonEmpty(g.Description, b.description),
			Author:  author,
			At:      base,
		},
		{
			Subject: "Change Plan",
			Body:    firstNonEmpty(g.ChangePlan, "none"),
			Author:  author,
			At:      seq.Next(base.Add(time.Second)),
		},
	}

	for i, c := range g.Comments {
		body := strings.TrimSpace(c.Body)
		if body == "" {
			continue
		}
		events = append(events, model.Event{
			Subject: firstNonEmpty(c.Subject, fmt.Sprintf("Comment %d", i+2)),
			Body:    body,
			Author:  firstNonEmpty(c.Author, author),
			At:      seq.Next(b.candidate(g.Number, c.CreatedAt)),
		})
	}
	return events
}

// candidate parses a comment timestamp; failures yield the zero time,
// which the sequencer treats as absent.
func (b *Builder) candidate(ticket, raw string) time.Time {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}
	}
	t, err := b.parser.ParseLocal(raw)
	if err != nil {
		b.log.Warn().Err(err).Str("ticket", ticket).Str("raw", raw).Msg("comment timestamp unusable, sequencing after previous")
		return time.Time{}
	}
	return t
}

// Comment renders one event as a private, non-emailed comment.
func (b *Builder) Comment(ev model.Event) Comment {
	tech := ev.Author
	if name, ok := b.lookup.TechName(ev.Author); ok {
		tech = name
	}
	return Comment{
		Subject:    ev.Subject,
		Body:       ev.Body,
		Hidden:     true,
		DoNotEmail: true,
		Tech:       tech,
		CreatedAt:  timestamp.FormatISO(ev.At),
	}
}

// Labor builds a timer entry body. Only row-local data is checked; the
// ticket is resolved by the caller.
func (b *Builder) Labor(row model.LaborRow) (Labor, error) {
	minutes, err := ParseDuration(row.DurationMinutes)
	if err != nil {
		return Labor{}, err
	}
	start, err := b.parser.ParseLocal(row.CreatedAt)
	if err != nil {
		return Labor{}, fmt.Errorf("created at %q: %w", row.CreatedAt, err)
	}

	l := Labor{
		StartAt:         timestamp.FormatISO(start),
		EndAt:           timestamp.FormatISO(start.Add(time.Duration(minutes) * time.Minute)),
		Notes:           strings.TrimSpace(row.Notes),
		DurationMinutes: minutes,
	}
	if row.Tech != "" {
		if id, ok := b.lookup.TechID(row.Tech); ok {
			l.UserID = id
		} else {
			b.log.Warn().Int("line", row.Line).Str("tech", row.Tech).Msg("tech not found, entry will use the API user")
		}
	}
	if row.LaborType != "" {
		if id, ok := b.lookup.ProductID(row.LaborType); ok {
			l.ProductID = id
		} else {
			b.log.Warn().Int("line", row.Line).Str("labor_type", row.LaborType).Msg("labor type has no matching product")
		}
	}
	if v, ok := Billable(row.BillableStatus); ok {
		l.BillableOverride = &v
	}
	if v, ok := Visibility(row.Visibility); ok {
		l.Hidden = &v
	}

	if err := b.Validate(l); err != nil {
		return Labor{}, err
	}
	return l, nil
}

// Invoice builds an invoice from the rows sharing one invoice number.
func (b *Builder) Invoice(rows []model.InvoiceRow) (Invoice, error) {
	if len(rows) == 0 {
		return Invoice{}, fmt.Errorf("%w: no rows", ErrInvalid)
	}

	customer := ""
	for _, r := range rows {
		name := strings.TrimSpace(r.Customer)
		if name == "" {
			continue
		}
		if customer != "" && !same(customer, name) {
			return Invoice{}, fmt.Errorf("%w: %q and %q", ErrMixedCustomers, customer, name)
		}
		customer = name
	}
	customerID, ok := b.lookup.CustomerID(customer)
	if !ok {
		return Invoice{}, fmt.Errorf("%w: %q", ErrUnknownCustomer, customer)
	}

	first := rows[0]
	inv := Invoice{
		CustomerID: customerID,
		Number:     CleanTicketNumber(first.InvoiceNumber),
	}
	if contact := firstNonEmpty(first.Contact); contact != "" {
		if id, ok := b.lookup.Contact(customerID, contact); ok {
			inv.ContactID = id
		}
	}
	if first.Date != "" {
		d, err := b.parser.CreatedDate(first.Date)
		if err != nil {
			return Invoice{}, fmt.Errorf("invoice date %q: %w", first.Date, err)
		}
		inv.Date = d
	}
	if first.DueDate != "" {
		d, err := b.parser.CreatedDate(first.DueDate)
		if err != nil {
			b.log.Warn().Err(err).Str("invoice", inv.Number).Msg("due date unusable, omitted")
		} else {
			inv.DueDate = d
		}
	}

	for _, r := range rows {
		line, err := b.invoiceLine(r)
		if err != nil {
			return Invoice{}, err
		}
		inv.LineItems = append(inv.LineItems, line)
	}

	if err := b.Validate(inv); err != nil {
		return Invoice{}, err
	}
	return inv, nil
}

func (b *Builder) invoiceLine(r model.InvoiceRow) (InvoiceLine, error) {
	qty := decimal.NewFromInt(1)
	if s := strings.TrimSpace(r.Quantity); s != "" {
		q, err := decimal.NewFromString(s)
		if err != nil {
			return InvoiceLine{}, fmt.Errorf("%w: line %d quantity %q", ErrInvalid, r.Line, r.Quantity)
		}
		qty = q
	}
	price := decimal.Zero
	if s := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(r.Price), "$")); s != "" {
		p, err := decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
		if err != nil {
			return InvoiceLine{}, fmt.Errorf("%w: line %d price %q", ErrInvalid, r.Line, r.Price)
		}
		price = p
	}
	if !qty.IsPositive() || price.IsNegative() {
		return InvoiceLine{}, fmt.Errorf("%w: line %d quantity must be positive and price not negative", ErrInvalid, r.Line)
	}

	line := InvoiceLine{
		Item:     firstNonEmpty(r.Product, r.Description),
		Name:     strings.TrimSpace(r.Description),
		Quantity: qty,
		Price:    price.Round(2),
	}
	if id, ok := b.lookup.ProductID(r.Product); ok {
		line.ProductID = id
	}
	switch strings.ToLower(strings.TrimSpace(r.Taxable)) {
	case "yes", "y", "true", "1", "taxable":
		line.Taxable = true
	}
	return line, nil
}
