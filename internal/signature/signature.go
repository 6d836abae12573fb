// Package signature decides whether a labor entry already exists in Syncro
// by comparing normalized (notes, tech, minute) tuples.
package signature

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/Tiliavir/syncro-import/internal/model"
	"github.com/Tiliavir/syncro-import/internal/timestamp"
)

// Signature identifies a labor entry independently of where it came from.
type Signature struct {
	Notes     string
	Tech      string
	Timestamp string
}

// Set is a set of signatures.
type Set map[Signature]struct{}

// Add inserts sig.
func (s Set) Add(sig Signature) { s[sig] = struct{}{} }

// Contains reports whether sig is in the set.
func (s Set) Contains(sig Signature) bool {
	_, ok := s[sig]
	return ok
}

// TechDirectory resolves a tech id to a display name.
type TechDirectory interface {
	TechName(id int64) (string, bool)
}

// Builder produces signatures from CSV rows and remote timer records.
type Builder struct {
	parser *timestamp.Parser
	techs  TechDirectory
	lower  cases.Caser
	log    zerolog.Logger
}

// NewBuilder returns a Builder. techs may be nil.
func NewBuilder(parser *timestamp.Parser, techs TechDirectory, logger *zerolog.Logger) *Builder {
	b := &Builder{
		parser: parser,
		techs:  techs,
		lower:  cases.Lower(language.Und),
		log:    zerolog.Nop(),
	}
	if logger != nil {
		b.log = logger.With().Str("component", "signature").Logger()
	}
	return b
}

// Local builds the signature of a labor CSV row.
func (b *Builder) Local(row model.LaborRow) Signature {
	return Signature{
		Notes:     strings.TrimSpace(row.Notes),
		Tech:      b.tech("", row.Tech),
		Timestamp: b.stamp(row.CreatedAt),
	}
}

// Remote builds the signature of a timer entry fetched from Syncro.
func (b *Builder) Remote(rec model.TimerRecord) Signature {
	return Signature{
		Notes:     strings.TrimSpace(rec.Notes),
		Tech:      b.tech(rec.TechName, rec.TechID),
		Timestamp: b.stamp(rec.Start),
	}
}

// tech prefers an explicit name, then resolves a numeric id through the
// directory, then falls back to the raw value.
func (b *Builder) tech(name, id string) string {
	name = strings.TrimSpace(name)
	id = strings.TrimSpace(id)
	if name != "" && !isNumeric(name) {
		return b.lower.String(name)
	}
	if id == "" {
		id = name
	}
	if b.techs != nil && isNumeric(id) {
		n, err := strconv.ParseInt(id, 10, 64)
		if err == nil {
			if resolved, ok := b.techs.TechName(n); ok {
				return b.lower.String(strings.TrimSpace(resolved))
			}
		}
	}
	return b.lower.String(id)
}

// stamp renders raw as a UTC minute. Unparseable values are kept verbatim so
// that identical garbage on both sides still matches.
func (b *Builder) stamp(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	t, err := b.parser.ParseLocal(raw)
	if err != nil {
		b.log.Warn().Err(err).Str("raw", raw).Msg("timestamp not usable for signature")
		return raw
	}
	return timestamp.FormatISO(t.UTC().Truncate(time.Minute))
}

// RowKey identifies a CSV row for suppression within a single run.
func RowKey(row model.LaborRow) string {
	parts := []string{row.TicketNumber, row.Sequence, row.CreatedAt, row.DurationMinutes, row.Tech, row.Notes}
	for i, p := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return strings.Join(parts, "\x1f")
}

// Fetcher returns the timer entries of a ticket.
type Fetcher func(ctx context.Context, ticketID int64) ([]model.TimerRecord, error)

// Cache memoizes the remote signature set of each ticket for one run.
type Cache struct {
	builder *Builder
	fetch   Fetcher
	sets    map[int64]Set
	log     zerolog.Logger
}

// NewCache returns an empty cache.
func NewCache(builder *Builder, fetch Fetcher, logger *zerolog.Logger) *Cache {
	c := &Cache{
		builder: builder,
		fetch:   fetch,
		sets:    make(map[int64]Set),
		log:     zerolog.Nop(),
	}
	if logger != nil {
		c.log = logger.With().Str("component", "signature").Logger()
	}
	return c
}

// Get returns the signatures of ticketID, fetching them on first use. A
// failed fetch yields an empty set that is remembered for the rest of the run.
func (c *Cache) Get(ctx context.Context, ticketID int64) Set {
	if set, ok := c.sets[ticketID]; ok {
		return set
	}
	set := make(Set)
	records, err := c.fetch(ctx, ticketID)
	if err != nil {
		c.log.Warn().Err(err).Int64("ticket_id", ticketID).Msg("could not fetch timer entries, duplicate check disabled for ticket")
	}
	for _, rec := range records {
		set.Add(c.builder.Remote(rec))
	}
	c.sets[ticketID] = set
	return set
}

// Add records a signature created during this run.
func (c *Cache) Add(ticketID int64, sig Signature) {
	set, ok := c.sets[ticketID]
	if !ok {
		set = make(Set)
		c.sets[ticketID] = set
	}
	set.Add(sig)
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
