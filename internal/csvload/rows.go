package csvload

import (
	"github.com/Tiliavir/syncro-import/internal/model"
	"github.com/Tiliavir/syncro-import/internal/payload"
)

// TicketGroups groups rows by cleaned ticket number in first-appearance
// order, so "#123" and "123" land in the same group.
// Scalar fields keep the last non-empty value; every row with a comment
// body contributes one comment, in row order.
func (t *Table) TicketGroups() ([]model.TicketGroup, error) {
	kNum, err := t.require("ticket number", "ticket number", "number")
	if err != nil {
		return nil, err
	}
	var (
		kTitle    = t.Column("title", "subject")
		kDesc     = t.Column("description", "ticket description")
		kChange   = t.Column("change plan", "change description")
		kCreated  = t.Column("created at", "created", "ticket created")
		kAssignee = t.Column("assignee name", "assignee", "tech")
		kCustomer = t.Column("customer", "customer name", "business name")
		kContact  = t.Column("contact", "contact name", "ticket contact")
		kStatus   = t.Column("status", "ticket status")
		kIssue    = t.Column("issue type", "ticket issue type", "problem type")
		kPriority = t.Column("priority", "ticket priority")
		kCBody    = t.Column("comment body", "comment", "email body")
		kCCreated = t.Column("comment created", "comment timestamp", "timestamp")
		kCAuthor  = t.Column("comment author", "commented by", "comment contact", "comment user", "user")
		kCSubject = t.Column("comment subject", "comment title")
	)

	var order []string
	groups := make(map[string]*model.TicketGroup)
	for _, row := range t.Rows {
		number := row.Get(kNum)
		key := payload.CleanTicketNumber(number)
		if key == "" {
			continue
		}
		g, ok := groups[key]
		if !ok {
			g = &model.TicketGroup{Number: number}
			groups[key] = g
			order = append(order, key)
		}

		set(&g.Subject, row.Get(kTitle))
		set(&g.Description, row.Get(kDesc))
		set(&g.ChangePlan, row.Get(kChange))
		set(&g.CreatedAt, row.Get(kCreated))
		set(&g.Assignee, row.Get(kAssignee))
		set(&g.Customer, row.Get(kCustomer))
		set(&g.Contact, row.Get(kContact))
		set(&g.Status, row.Get(kStatus))
		set(&g.IssueType, row.Get(kIssue))
		set(&g.Priority, row.Get(kPriority))

		if body := row.Get(kCBody); body != "" {
			g.Comments = append(g.Comments, model.CommentRow{
				Order:     row.Line,
				Body:      body,
				CreatedAt: row.Get(kCCreated),
				Author:    row.Get(kCAuthor),
				Subject:   row.Get(kCSubject),
			})
		}
	}

	out := make([]model.TicketGroup, 0, len(order))
	for _, n := range order {
		out = append(out, *groups[n])
	}
	return out, nil
}

func set(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// LaborRows reads the labor CSV.
func (t *Table) LaborRows() ([]model.LaborRow, error) {
	kNum, err := t.require("ticket number", "ticket number", "ticket")
	if err != nil {
		return nil, err
	}
	kDuration, err := t.require("duration", "duration minutes", "duration", "minutes")
	if err != nil {
		return nil, err
	}
	var (
		kCustomer   = t.Column("customer", "customer name", "business name")
		kSequence   = t.Column("entry sequence", "sequence")
		kTech       = t.Column("tech", "technician", "user")
		kVisibility = t.Column("visibility", "hidden")
		kBillable   = t.Column("billable status", "billable")
		kLaborType  = t.Column("labor type", "product")
		kCreated    = t.Column("created at", "start at", "start time", "timestamp", "date")
		kNotes      = t.Column("notes", "description")
	)

	out := make([]model.LaborRow, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, model.LaborRow{
			Line:            row.Line,
			Customer:        row.Get(kCustomer),
			TicketNumber:    row.Get(kNum),
			Sequence:        row.Get(kSequence),
			Tech:            row.Get(kTech),
			DurationMinutes: row.Get(kDuration),
			Visibility:      row.Get(kVisibility),
			BillableStatus:  row.Get(kBillable),
			LaborType:       row.Get(kLaborType),
			CreatedAt:       row.Get(kCreated),
			Notes:           row.Get(kNotes),
		})
	}
	return out, nil
}

// InvoiceRows reads the invoice CSV.
func (t *Table) InvoiceRows() ([]model.InvoiceRow, error) {
	kNum, err := t.require("invoice number", "invoice number", "invoice")
	if err != nil {
		return nil, err
	}
	var (
		kCustomer = t.Column("customer", "customer name", "business name")
		kContact  = t.Column("contact", "contact name")
		kDate     = t.Column("invoice date", "date")
		kDue      = t.Column("due date", "due")
		kProduct  = t.Column("product", "item")
		kDesc     = t.Column("description", "line description")
		kQty      = t.Column("quantity", "qty")
		kPrice    = t.Column("price", "rate", "unit price", "amount")
		kTaxable  = t.Column("taxable", "tax")
	)
	// "date" also matches "due date" through the word match.
	if kDate == kDue {
		kDate = t.Column("invoice date")
	}

	out := make([]model.InvoiceRow, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, model.InvoiceRow{
			Line:          row.Line,
			InvoiceNumber: row.Get(kNum),
			Customer:      row.Get(kCustomer),
			Contact:       row.Get(kContact),
			Date:          row.Get(kDate),
			DueDate:       row.Get(kDue),
			Product:       row.Get(kProduct),
			Description:   row.Get(kDesc),
			Quantity:      row.Get(kQty),
			Price:         row.Get(kPrice),
			Taxable:       row.Get(kTaxable),
		})
	}
	return out, nil
}

// CommentRows reads the comment CSV used to append to existing tickets.
func (t *Table) CommentRows() ([]model.CommentImportRow, error) {
	kNum, err := t.require("ticket number", "ticket number", "number")
	if err != nil {
		return nil, err
	}
	kBody, err := t.require("comment body", "comment body", "comment", "body", "email body")
	if err != nil {
		return nil, err
	}
	var (
		kCustomer  = t.Column("customer", "customer name", "business name")
		kOwner     = t.Column("owner", "ticket owner")
		kTech      = t.Column("tech", "author", "commented by", "user")
		kTimestamp = t.Column("timestamp", "created at", "comment created", "date")
		kSubject   = t.Column("comment subject", "subject")
	)

	out := make([]model.CommentImportRow, 0, len(t.Rows))
	for _, row := range t.Rows {
		out = append(out, model.CommentImportRow{
			Line:         row.Line,
			TicketNumber: row.Get(kNum),
			Customer:     row.Get(kCustomer),
			Owner:        row.Get(kOwner),
			Tech:         row.Get(kTech),
			Timestamp:    row.Get(kTimestamp),
			Body:         row.Get(kBody),
			Subject:      row.Get(kSubject),
		})
	}
	return out, nil
}
