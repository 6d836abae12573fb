package payload

import (
	"strconv"
	"strings"

	"github.com/Tiliavir/syncro-import/internal/model"
)

// DefaultIssueType is used when neither the row nor the configuration
// names an issue type Syncro knows.
const DefaultIssueType = "Other"

// Lookup resolves names from CSV files to Syncro ids using cached
// reference data. All matches are exact and case-insensitive.
type Lookup struct {
	ref              *model.Reference
	defaultIssueType string
}

// NewLookup wraps ref. An empty defaultIssueType means DefaultIssueType.
func NewLookup(ref *model.Reference, defaultIssueType string) *Lookup {
	if ref == nil {
		ref = &model.Reference{}
	}
	if strings.TrimSpace(defaultIssueType) == "" {
		defaultIssueType = DefaultIssueType
	}
	return &Lookup{ref: ref, defaultIssueType: defaultIssueType}
}

// Reference returns the wrapped reference data.
func (l *Lookup) Reference() *model.Reference { return l.ref }

func same(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// CustomerID finds a customer by business name.
func (l *Lookup) CustomerID(name string) (int64, bool) {
	if strings.TrimSpace(name) == "" {
		return 0, false
	}
	for _, c := range l.ref.Customers {
		if same(c.BusinessName, name) {
			return c.ID, true
		}
	}
	return 0, false
}

// Contact finds a contact by name among the contacts of customerID.
func (l *Lookup) Contact(customerID int64, name string) (int64, bool) {
	if customerID == 0 || strings.TrimSpace(name) == "" {
		return 0, false
	}
	for _, c := range l.ref.Contacts {
		if c.CustomerID == customerID && same(c.Name, name) {
			return c.ID, true
		}
	}
	return 0, false
}

// TechID finds a tech by name. A numeric value is accepted when it is the
// id of a known tech.
func (l *Lookup) TechID(name string) (int64, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, false
	}
	if id, err := strconv.ParseInt(name, 10, 64); err == nil {
		if _, ok := l.ref.TechName(id); ok {
			return id, true
		}
	}
	for _, t := range l.ref.Techs {
		if same(t.Name, name) {
			return t.ID, true
		}
	}
	return 0, false
}

// TechName returns the display name for a tech given by name or id.
func (l *Lookup) TechName(name string) (string, bool) {
	id, ok := l.TechID(name)
	if !ok {
		return "", false
	}
	return l.ref.TechName(id)
}

// ProductID finds a product by name, preferring active products.
func (l *Lookup) ProductID(name string) (int64, bool) {
	if strings.TrimSpace(name) == "" {
		return 0, false
	}
	var archived int64
	for _, p := range l.ref.Products {
		if !same(p.Name, name) {
			continue
		}
		if !p.Archived {
			return p.ID, true
		}
		if archived == 0 {
			archived = p.ID
		}
	}
	return archived, archived != 0
}

// IssueType returns the canonical spelling of raw, or the default.
func (l *Lookup) IssueType(raw string) string {
	for _, it := range l.ref.IssueTypes {
		if strings.TrimSpace(raw) != "" && same(it, raw) {
			return it
		}
	}
	return l.defaultIssueType
}

// Status returns the canonical spelling of raw. Unknown statuses pass
// through so Syncro can reject them.
func (l *Lookup) Status(raw string) string {
	for _, s := range l.ref.Statuses {
		if same(s, raw) {
			return s
		}
	}
	return strings.TrimSpace(raw)
}
