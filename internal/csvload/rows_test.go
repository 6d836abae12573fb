package csvload_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/syncro-import/internal/csvload"
)

func read(t *testing.T, data string) *csvload.Table {
	t.Helper()
	tbl, err := csvload.Read(strings.NewReader(data), csvload.Options{})
	require.NoError(t, err)
	return tbl
}

func TestTicketGroups(t *testing.T) {
	tbl := read(t, strings.Join([]string{
		"Ticket Number,Subject,Customer,Created At,Comment Body,Comment Created,Comment Author",
		"200,Printer,Acme,6/12/2024 10:00,first,6/12/2024 11:00,Jane",
		"100,Email,Globex,6/1/2024,,,",
		"200,,,,second,,",
		"200,Printer jam,,,,,",
		",,,,orphan,,",
	}, "\n"))

	groups, err := tbl.TicketGroups()
	require.NoError(t, err)
	require.Len(t, groups, 2)

	g := groups[0]
	assert.Equal(t, "200", g.Number)
	assert.Equal(t, "Printer jam", g.Subject)
	assert.Equal(t, "Acme", g.Customer)
	assert.Equal(t, "6/12/2024 10:00", g.CreatedAt)
	require.Len(t, g.Comments, 2)
	assert.Equal(t, "first", g.Comments[0].Body)
	assert.Equal(t, "Jane", g.Comments[0].Author)
	assert.Equal(t, "second", g.Comments[1].Body)
	assert.Less(t, g.Comments[0].Order, g.Comments[1].Order)

	assert.Equal(t, "100", groups[1].Number)
	assert.Empty(t, groups[1].Comments)
}

func TestTicketGroupsByCleanNumber(t *testing.T) {
	tbl := read(t, strings.Join([]string{
		"Ticket Number,Subject,Comment Body",
		"#123,Router down,first",
		"123,,second",
		"T-123,,third",
	}, "\n"))

	groups, err := tbl.TicketGroups()
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "#123", groups[0].Number)
	assert.Equal(t, "Router down", groups[0].Subject)
	require.Len(t, groups[0].Comments, 3)
	assert.Equal(t, "third", groups[0].Comments[2].Body)
}

func TestTicketGroupsRequiresNumber(t *testing.T) {
	tbl := read(t, "Subject,Customer\nx,y\n")
	_, err := tbl.TicketGroups()
	assert.ErrorIs(t, err, csvload.ErrMissingColumns)
}

func TestLaborRows(t *testing.T) {
	tbl := read(t, strings.Join([]string{
		"Customer,Ticket Number,Entry Sequence,Tech,Duration Minutes,Visibility,Billable Status,Labor Type,Created At,Notes",
		`Acme,100,1,Jane Doe,30.0,Internal,Billable,Labor,6/12/2024 15:00,"Replaced fan, tested"`,
	}, "\n"))

	rows, err := tbl.LaborRows()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	r := rows[0]
	assert.Equal(t, "100", r.TicketNumber)
	assert.Equal(t, "1", r.Sequence)
	assert.Equal(t, "30.0", r.DurationMinutes)
	assert.Equal(t, "Internal", r.Visibility)
	assert.Equal(t, "Billable", r.BillableStatus)
	assert.Equal(t, "6/12/2024 15:00", r.CreatedAt)
	assert.Equal(t, "Replaced fan, tested", r.Notes)

	_, err = read(t, "Ticket Number,Notes\n1,x\n").LaborRows()
	assert.ErrorIs(t, err, csvload.ErrMissingColumns)
}

func TestInvoiceRows(t *testing.T) {
	tbl := read(t, strings.Join([]string{
		"Invoice Number,Customer,Due Date,Invoice Date,Product,Qty,Price",
		"1001,Acme,7/12/2024,6/12/2024,Router,2,10.00",
	}, "\n"))

	rows, err := tbl.InvoiceRows()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "6/12/2024", rows[0].Date)
	assert.Equal(t, "7/12/2024", rows[0].DueDate)
	assert.Equal(t, "2", rows[0].Quantity)
}

func TestCommentRows(t *testing.T) {
	tbl := read(t, "Ticket Number,Tech,Timestamp,Comment\n100,Bob,6/12/2024 09:00,Called customer\n")

	rows, err := tbl.CommentRows()
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Bob", rows[0].Tech)
	assert.Equal(t, "Called customer", rows[0].Body)
	assert.Equal(t, "6/12/2024 09:00", rows[0].Timestamp)
}
