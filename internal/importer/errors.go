package importer

import (
	"errors"
	"fmt"

	"github.com/Tiliavir/syncro-import/internal/payload"
	"github.com/Tiliavir/syncro-import/internal/timestamp"
)

// Kind classifies why a row was not imported.
type Kind int

const (
	ParseFailure Kind = iota + 1
	ValidationFailure
	LookupMiss
	ExternalCallFailure
)

func (k Kind) String() string {
	switch k {
	case ParseFailure:
		return "parse"
	case ValidationFailure:
		return "validation"
	case LookupMiss:
		return "lookup"
	case ExternalCallFailure:
		return "api"
	}
	return "unknown"
}

// RowError records a row that was skipped or failed.
type RowError struct {
	Kind   Kind
	Line   int
	Ticket string
	Err    error
}

func (e *RowError) Error() string {
	where := ""
	switch {
	case e.Ticket != "" && e.Line > 0:
		where = fmt.Sprintf("ticket %s (line %d)", e.Ticket, e.Line)
	case e.Ticket != "":
		where = "ticket " + e.Ticket
	case e.Line > 0:
		where = fmt.Sprintf("line %d", e.Line)
	default:
		where = "row"
	}
	return fmt.Sprintf("%s: %s error: %v", where, e.Kind, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }

// classify maps builder errors onto kinds. API errors are classified at
// the call site.
func classify(err error) Kind {
	switch {
	case errors.Is(err, timestamp.ErrEmpty), errors.Is(err, timestamp.ErrUnparseable):
		return ParseFailure
	case errors.Is(err, payload.ErrUnknownCustomer):
		return LookupMiss
	default:
		return ValidationFailure
	}
}
