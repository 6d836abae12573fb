// Package timestamp turns the timestamps found in CSV exports and API
// payloads into instants in the configured Syncro timezone, and keeps
// comment timestamps strictly increasing so Syncro displays them in order.
package timestamp

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/rs/zerolog"
)

var (
	// ErrEmpty is returned for nil or blank input.
	ErrEmpty = errors.New("timestamp is empty")
	// ErrUnparseable is returned when no known format matches.
	ErrUnparseable = errors.New("unrecognized timestamp format")
)

// Instant is a parsed timestamp. When Zoned is false, T only carries
// wall-clock fields (stored in UTC) and must be localized before use.
type Instant struct {
	T     time.Time
	Zoned bool
}

// IsZero reports whether the instant is unset.
func (i Instant) IsZero() bool { return i.T.IsZero() }

// Midnight reports whether the wall-clock time is exactly 00:00:00.
func (i Instant) Midnight() bool {
	h, m, s := i.T.Clock()
	return h == 0 && m == 0 && s == 0 && i.T.Nanosecond() == 0
}

// Options configures a Parser.
type Options struct {
	// DayFirst reads ambiguous numeric dates as D/M/Y instead of M/D/Y.
	DayFirst bool
	// Natural enables a last-resort natural language pass ("yesterday 5pm").
	Natural bool
	// Location is the zone naive timestamps are interpreted in. Nil means UTC.
	Location *time.Location
	// Now is the clock used for natural language parsing and defaults.
	Now    func() time.Time
	Logger *zerolog.Logger
}

// Parser parses heterogeneous timestamps. It is not safe for concurrent use
// when Natural is enabled.
type Parser struct {
	dayFirst bool
	natural  bool
	loc      *time.Location
	now      func() time.Time
	log      zerolog.Logger
	layouts  []string
	nl       *when.Parser
}

// NewParser builds a Parser from opts.
func NewParser(opts Options) *Parser {
	p := &Parser{
		dayFirst: opts.DayFirst,
		natural:  opts.Natural,
		loc:      opts.Location,
		now:      opts.Now,
		log:      zerolog.Nop(),
		layouts:  Layouts(opts.DayFirst),
	}
	if p.loc == nil {
		p.loc = time.UTC
	}
	if p.now == nil {
		p.now = time.Now
	}
	if opts.Logger != nil {
		p.log = opts.Logger.With().Str("component", "timestamp").Logger()
	}
	if p.natural {
		p.nl = when.New(nil)
		p.nl.Add(en.All...)
		p.nl.Add(common.All...)
	}
	return p
}

// DayFirst reports how the parser reads ambiguous numeric dates.
func (p *Parser) DayFirst() bool { return p.dayFirst }

// Location returns the zone naive timestamps are localized to.
func (p *Parser) Location() *time.Location { return p.loc }

// Now returns the parser's clock reading in its location.
func (p *Parser) Now() time.Time { return p.now().In(p.loc) }

// ParseValue accepts the shapes a timestamp takes at the edges of the
// program: strings, string pointers, time.Time and already parsed Instants.
func (p *Parser) ParseValue(v any) (Instant, error) {
	switch x := v.(type) {
	case nil:
		return Instant{}, ErrEmpty
	case Instant:
		if x.IsZero() {
			return Instant{}, ErrEmpty
		}
		return x, nil
	case time.Time:
		if x.IsZero() {
			return Instant{}, ErrEmpty
		}
		return Instant{T: x, Zoned: true}, nil
	case *time.Time:
		if x == nil {
			return Instant{}, ErrEmpty
		}
		return p.ParseValue(*x)
	case string:
		return p.Parse(x)
	case *string:
		if x == nil {
			return Instant{}, ErrEmpty
		}
		return p.Parse(*x)
	default:
		return Instant{}, fmt.Errorf("%w: unsupported type %T", ErrUnparseable, v)
	}
}

// Parse reads raw as a timestamp. It tries exact zoned layouts, then a
// fuzzy scan for a date and time amid other text, then the explicit layout
// list, and finally (if enabled) natural language.
func (p *Parser) Parse(raw string) (Instant, error) {
	s := strings.TrimSpace(strings.ReplaceAll(raw, "\ufeff", ""))
	if s == "" {
		return Instant{}, ErrEmpty
	}

	if in, ok := parseZoned(s); ok {
		return p.accept(raw, in, "iso"), nil
	}
	if in, ok := p.parseFuzzy(s); ok {
		return p.accept(raw, in, "fuzzy"), nil
	}
	if in, ok := p.parseLayouts(s); ok {
		return p.accept(raw, in, "layout"), nil
	}
	if p.natural {
		if in, ok := p.parseNatural(s); ok {
			return p.accept(raw, in, "natural"), nil
		}
	}

	p.log.Debug().Str("raw", raw).Msg("unrecognized date format")
	return Instant{}, fmt.Errorf("%w: %q", ErrUnparseable, raw)
}

func (p *Parser) accept(raw string, in Instant, how string) Instant {
	ev := p.log.Debug().Str("raw", raw).Str("via", how).Time("parsed", in.T)
	if in.Midnight() {
		ev.Bool("midnight", true).Msg("time missing, using midnight")
		return in
	}
	ev.Msg("parsed timestamp")
	return in
}

var zonedLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05 -0700",
	"2006-01-02 15:04:05 -07:00",
	"20060102T150405Z0700",
	time.RFC1123Z,
}

func parseZoned(s string) (Instant, bool) {
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Instant{T: t, Zoned: true}, true
		}
	}
	return Instant{}, false
}

// Layouts returns the explicit fallback layouts in the order they are tried:
// a few fixed ISO-like and ctime layouts, then every base ordering for each
// of the separators "/", "-" and ".".
func Layouts(dayFirst bool) []string {
	layouts := []string{
		"2006-1-2 15:04:05",
		"2006-1-2 15:04",
		"2006-1-2",
		"2006/1/2",
		"2006/1/2 15:04",
		"2006-1-2T15:04:05",
		"2006-1-2T15:04",
		"20060102T150405",
		"20060102T1504",
		"20060102",
		time.ANSIC,
	}

	m, d := "1", "2"
	if dayFirst {
		m, d = "2", "1"
	}
	base := []string{
		"%[1]s%[3]s%[2]s%[3]s2006 15:04:05",
		"%[1]s%[3]s%[2]s%[3]s2006 15:04",
		"%[1]s%[3]s%[2]s%[3]s2006 3:04 PM",
		"%[1]s%[3]s%[2]s%[3]s06 15:04:05",
		"%[1]s%[3]s%[2]s%[3]s06 15:04",
		"%[1]s%[3]s%[2]s%[3]s06 3:04 PM",
		"%[1]s%[3]s%[2]s%[3]s2006",
		"%[1]s%[3]s%[2]s%[3]s06",
	}
	for _, sep := range []string{"/", "-", "."} {
		for _, pattern := range base {
			layouts = append(layouts, fmt.Sprintf(pattern, m, d, sep))
		}
	}
	return layouts
}

func (p *Parser) parseLayouts(s string) (Instant, bool) {
	// Go only accepts upper-case AM/PM for the PM layout element.
	s = strings.ToUpper(s)
	for _, layout := range p.layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Instant{T: t}, true
		}
	}
	return Instant{}, false
}

func (p *Parser) parseNatural(s string) (in Instant, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Warn().Interface("panic", r).Str("raw", s).Msg("natural language parser failed")
			in, ok = Instant{}, false
		}
	}()
	r, err := p.nl.Parse(s, p.Now())
	if err != nil || r == nil {
		return Instant{}, false
	}
	return Instant{T: wallClock(r.Time)}, true
}

var (
	isoDateRe     = regexp.MustCompile(`(?:^|[^0-9])(\d{4})([-/.])(\d{1,2})([-/.])(\d{1,2})(?:[^0-9]|$)`)
	numericDateRe = regexp.MustCompile(`(?:^|[^0-9])(\d{1,2})([-/.])(\d{1,2})([-/.])(\d{4}|\d{2})(?:[^0-9]|$)`)
	dayMonthRe    = regexp.MustCompile(`(?i)(?:^|[^0-9a-z])(\d{1,2})(?:st|nd|rd|th)?[\s-]+` + monthNames + `\.?,?[\s-]+(\d{4})(?:[^0-9]|$)`)
	monthDayRe    = regexp.MustCompile(`(?i)(?:^|[^a-z])` + monthNames + `\.?\s+(\d{1,2})(?:st|nd|rd|th)?,?\s+(\d{4})(?:[^0-9]|$)`)
	clockRe       = regexp.MustCompile(`(?i)(?:^|[^0-9:])(\d{1,2}):(\d{2})(?::(\d{2})(?:[.,](\d{1,9}))?)?(?:\s*([ap])\.?m\.?)?`)
	hourMeridRe   = regexp.MustCompile(`(?i)(?:^|[^0-9:])(\d{1,2})\s*([ap])\.?m\.?(?:[^a-z]|$)`)
	offsetRe      = regexp.MustCompile(`^\s*(?:(Z)|(UTC|GMT)|([+-])(\d{2}):?(\d{2}))(?:[^0-9a-zA-Z]|$)`)
)

const monthNames = `(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)`

// parseFuzzy extracts a date, an optional clock time and an optional UTC
// offset from anywhere in s.
func (p *Parser) parseFuzzy(s string) (Instant, bool) {
	year, month, day, span, ok := p.findDate(s)
	if !ok {
		return Instant{}, false
	}

	// Blank out the date so its digits cannot be mistaken for a time.
	rest := s[:span[0]] + strings.Repeat(" ", span[1]-span[0]) + s[span[1]:]

	hour, minute, sec, nsec := 0, 0, 0, 0
	loc := time.UTC
	zoned := false

	if m := clockRe.FindStringSubmatchIndex(rest); m != nil {
		g := groups(rest, m)
		hour, _ = strconv.Atoi(g[1])
		minute, _ = strconv.Atoi(g[2])
		if g[3] != "" {
			sec, _ = strconv.Atoi(g[3])
		}
		if g[4] != "" {
			nsec = fraction(g[4])
		}
		if hour, ok = meridiem(hour, g[5]); !ok {
			return Instant{}, false
		}
		if minute > 59 || sec > 59 {
			return Instant{}, false
		}
		if l, found := offsetAt(rest[m[1]:]); found {
			loc, zoned = l, true
		}
	} else if m := hourMeridRe.FindStringSubmatch(rest); m != nil {
		hour, _ = strconv.Atoi(m[1])
		if hour, ok = meridiem(hour, m[2]); !ok {
			return Instant{}, false
		}
	}

	t := time.Date(year, time.Month(month), day, hour, minute, sec, nsec, loc)
	return Instant{T: t, Zoned: zoned}, true
}

// findDate returns the year, month and day of the first date in s together
// with the byte span it occupies.
func (p *Parser) findDate(s string) (int, int, int, [2]int, bool) {
	if m := isoDateRe.FindStringSubmatchIndex(s); m != nil {
		g := groups(s, m)
		if g[2] == g[4] {
			y, _ := strconv.Atoi(g[1])
			mo, _ := strconv.Atoi(g[3])
			d, _ := strconv.Atoi(g[5])
			if validDate(y, mo, d) {
				return y, mo, d, [2]int{m[2], m[11]}, true
			}
		}
	}

	if m := numericDateRe.FindStringSubmatchIndex(s); m != nil {
		g := groups(s, m)
		if g[2] == g[4] {
			a, _ := strconv.Atoi(g[1])
			b, _ := strconv.Atoi(g[3])
			y := expandYear(g[5])
			mo, d := a, b
			if p.dayFirst {
				mo, d = b, a
			}
			if mo > 12 && d <= 12 {
				mo, d = d, mo
			}
			if validDate(y, mo, d) {
				return y, mo, d, [2]int{m[2], m[11]}, true
			}
		}
	}

	if m := dayMonthRe.FindStringSubmatchIndex(s); m != nil {
		g := groups(s, m)
		d, _ := strconv.Atoi(g[1])
		mo := monthNumber(g[2])
		y, _ := strconv.Atoi(g[3])
		if validDate(y, mo, d) {
			return y, mo, d, [2]int{m[2], m[7]}, true
		}
	}

	if m := monthDayRe.FindStringSubmatchIndex(s); m != nil {
		g := groups(s, m)
		mo := monthNumber(g[1])
		d, _ := strconv.Atoi(g[2])
		y, _ := strconv.Atoi(g[3])
		if validDate(y, mo, d) {
			return y, mo, d, [2]int{m[2], m[7]}, true
		}
	}

	return 0, 0, 0, [2]int{}, false
}

func groups(s string, idx []int) []string {
	out := make([]string, len(idx)/2)
	for i := range out {
		if idx[2*i] >= 0 {
			out[i] = s[idx[2*i]:idx[2*i+1]]
		}
	}
	return out
}

func validDate(y, m, d int) bool {
	if m < 1 || m > 12 || d < 1 || y < 1 {
		return false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	return t.Day() == d && int(t.Month()) == m
}

// expandYear maps two-digit years the way strptime does: 69-99 are 19xx,
// 00-68 are 20xx.
func expandYear(s string) int {
	y, _ := strconv.Atoi(s)
	if len(s) > 2 {
		return y
	}
	if y < 69 {
		return 2000 + y
	}
	return 1900 + y
}

func meridiem(hour int, marker string) (int, bool) {
	switch strings.ToLower(marker) {
	case "":
		return hour, hour <= 23
	case "a":
		if hour < 1 || hour > 12 {
			return 0, false
		}
		if hour == 12 {
			return 0, true
		}
		return hour, true
	default:
		if hour < 1 || hour > 12 {
			return 0, false
		}
		if hour == 12 {
			return 12, true
		}
		return hour + 12, true
	}
}

func fraction(digits string) int {
	for len(digits) < 9 {
		digits += "0"
	}
	n, _ := strconv.Atoi(digits[:9])
	return n
}

func offsetAt(s string) (*time.Location, bool) {
	m := offsetRe.FindStringSubmatch(s)
	if m == nil {
		return nil, false
	}
	if m[1] != "" || m[2] != "" {
		return time.UTC, true
	}
	h, _ := strconv.Atoi(m[4])
	mins, _ := strconv.Atoi(m[5])
	secs := h*3600 + mins*60
	if m[3] == "-" {
		secs = -secs
	}
	return time.FixedZone("", secs), true
}

func monthNumber(name string) int {
	switch strings.ToLower(name)[:3] {
	case "jan":
		return 1
	case "feb":
		return 2
	case "mar":
		return 3
	case "apr":
		return 4
	case "may":
		return 5
	case "jun":
		return 6
	case "jul":
		return 7
	case "aug":
		return 8
	case "sep":
		return 9
	case "oct":
		return 10
	case "nov":
		return 11
	case "dec":
		return 12
	}
	return 0
}

func wallClock(t time.Time) time.Time {
	y, mo, d := t.Date()
	h, mi, s := t.Clock()
	return time.Date(y, mo, d, h, mi, s, t.Nanosecond(), time.UTC)
}
