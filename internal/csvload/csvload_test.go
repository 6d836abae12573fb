package csvload_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/syncro-import/internal/csvload"
)

func TestCleanText(t *testing.T) {
	tests := []struct{ in, want string }{
		{"\ufeffTicket Number", "Ticket Number"},
		{"  a \t b\n c  ", "a b c"},
		{"zero\u200bwidth", "zerowidth"},
		{"\uff21\uff22\uff23", "ABC"},
		{"José", "José"},
	}
	for _, tt := range tests {
		if got := csvload.CleanText(tt.in); got != tt.want {
			t.Errorf("CleanText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPickKey(t *testing.T) {
	headers := []string{"\ufeffTicket  Number", "Comment Created", "Comment Body", "Assignee Name"}

	tests := []struct {
		target string
		want   string
		ok     bool
	}{
		{"ticket number", "\ufeffTicket  Number", true},
		{"number", "\ufeffTicket  Number", true},
		{"comment body", "Comment Body", true},
		{"assignee", "Assignee Name", true},
		{"created", "Comment Created", true},
		{"priority", "", false},
	}
	for _, tt := range tests {
		got, ok := csvload.PickKey(headers, tt.target)
		assert.Equal(t, tt.ok, ok, tt.target)
		assert.Equal(t, tt.want, got, tt.target)
	}

	got, ok := csvload.PickFirst(headers, "priority", "comment created", "comment")
	assert.True(t, ok)
	assert.Equal(t, "Comment Created", got)
}

func TestReadAppliesDefaults(t *testing.T) {
	data := "\ufeffTicket Number,Status,Priority\n100,,\n\n101,Resolved,\n"
	tbl, err := csvload.Read(strings.NewReader(data), csvload.Options{
		Defaults: map[string]string{"status": "New"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"Ticket Number", "Status", "Priority"}, tbl.Headers)
	require.Len(t, tbl.Rows, 2)
	assert.Equal(t, "New", tbl.Rows[0].Get("Status"))
	assert.Equal(t, "", tbl.Rows[0].Get("Priority"))
	assert.Equal(t, "Resolved", tbl.Rows[1].Get("Status"))
	assert.Equal(t, 2, tbl.Rows[0].Line)
	assert.Equal(t, 4, tbl.Rows[1].Line)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := csvload.Load(filepath.Join(t.TempDir(), "nope.csv"), csvload.Options{})
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadEmpty(t *testing.T) {
	_, err := csvload.Read(strings.NewReader(""), csvload.Options{})
	assert.ErrorIs(t, err, csvload.ErrMissingColumns)
}
