package timestamp

import (
	"fmt"
	"time"
)

// ISOLayout is the wire format Syncro accepts for created_at/start_at.
const ISOLayout = "2006-01-02T15:04:05-07:00"

// LoadZone resolves an IANA zone name. An empty name means UTC.
func LoadZone(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}

// Localize places in into loc. Naive instants keep their wall clock and get
// loc attached; zoned instants are converted.
func Localize(in Instant, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	if in.Zoned {
		return in.T.In(loc)
	}
	y, mo, d := in.T.Date()
	h, mi, s := in.T.Clock()
	return time.Date(y, mo, d, h, mi, s, in.T.Nanosecond(), loc)
}

// FormatISO renders t with an explicit numeric offset.
func FormatISO(t time.Time) string {
	return t.Format(ISOLayout)
}

// Localize places in into the parser's zone.
func (p *Parser) Localize(in Instant) time.Time {
	return Localize(in, p.loc)
}

// ParseLocal parses v and localizes the result.
func (p *Parser) ParseLocal(v any) (time.Time, error) {
	in, err := p.ParseValue(v)
	if err != nil {
		return time.Time{}, err
	}
	return p.Localize(in), nil
}

// CreatedDate parses v and renders it the way Syncro expects created_at.
func (p *Parser) CreatedDate(v any) (string, error) {
	t, err := p.ParseLocal(v)
	if err != nil {
		return "", err
	}
	return FormatISO(t), nil
}
