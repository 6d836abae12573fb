package model

// CommentRow is a raw comment harvested from a ticket CSV.
type CommentRow struct {
	Order     int
	Body      string
	CreatedAt string
	Author    string
	Subject   string
}

// TicketGroup collects every CSV row that shares a ticket number. Scalar
// fields keep the last non-empty value seen.
type TicketGroup struct {
	Number      string
	Subject     string
	Description string
	ChangePlan  string
	CreatedAt   string
	Assignee    string
	Customer    string
	Contact     string
	Status      string
	IssueType   string
	Priority    string
	Comments    []CommentRow
}

// TicketDefaults fill fields a ticket CSV leaves blank.
type TicketDefaults struct {
	Customer  string
	Contact   string
	Status    string
	IssueType string
	Priority  string
	Assignee  string
	CreatedAt string
}

// LaborRow is one labor (timer) entry from the labor CSV.
type LaborRow struct {
	Line            int
	Customer        string
	TicketNumber    string
	Sequence        string
	Tech            string
	DurationMinutes string
	Visibility      string
	BillableStatus  string
	LaborType       string
	CreatedAt       string
	Notes           string
}

// InvoiceRow is one line item of the invoice CSV.
type InvoiceRow struct {
	Line          int
	InvoiceNumber string
	Customer      string
	Contact       string
	Date          string
	DueDate       string
	Product       string
	Description   string
	Quantity      string
	Price         string
	Taxable       string
}

// CommentImportRow is one comment appended to an existing ticket.
type CommentImportRow struct {
	Line         int
	TicketNumber string
	Customer     string
	Owner        string
	Tech         string
	Timestamp    string
	Body         string
	Subject      string
}
