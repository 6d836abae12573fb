package model

import "time"

// Comment is an existing comment on a remote ticket.
type Comment struct {
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
}

// TicketRef is the minimal projection of a remote ticket.
type TicketRef struct {
	ID       int64     `json:"id"`
	Number   string    `json:"number"`
	Comments []Comment `json:"comments"`
}

// HasCommentBody reports whether the ticket already carries a comment with
// exactly the given body.
func (t *TicketRef) HasCommentBody(body string) bool {
	if t == nil {
		return false
	}
	for _, c := range t.Comments {
		if c.Body == body {
			return true
		}
	}
	return false
}

// CommentBodies returns the set of comment bodies the ticket carries now.
// Later appends to Comments do not affect the returned set.
func (t *TicketRef) CommentBodies() map[string]struct{} {
	set := make(map[string]struct{})
	if t == nil {
		return set
	}
	for _, c := range t.Comments {
		set[c.Body] = struct{}{}
	}
	return set
}

// TimerRecord is a remote timer/labor entry after field-name normalization.
type TimerRecord struct {
	ID       int64
	Notes    string
	TechName string
	TechID   string
	Start    string
}

// InvoiceRef is the minimal projection of a remote invoice.
type InvoiceRef struct {
	ID     int64  `json:"id"`
	Number string `json:"number"`
}

// Event is one entry of a ticket's ordered comment sequence.
type Event struct {
	Subject string
	Body    string
	Author  string
	At      time.Time
}

// EventSequence is the strictly time-ordered list of comments for a ticket:
// description, change plan, then CSV comments.
type EventSequence []Event
