package syncro_test

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchReference(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"users":[[42,"Jane Doe"],{"id":7,"full_name":"Bob"},["bad"]],"meta":{"next_page":null}}`)
	})
	mux.HandleFunc("/settings", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ticket":{"problem_types":["Hardware","Network"]}}`)
	})
	mux.HandleFunc("/customers", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"customers":[{"id":1,"business_name":"Acme Corp"}],"meta":{}}`)
	})
	mux.HandleFunc("/contacts", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"contacts":[{"id":10,"customer_id":1,"name":"Wile E"}]}`)
	})
	mux.HandleFunc("/tickets/settings", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"ticket_status_list":["New","In Progress","Resolved"]}`)
	})
	mux.HandleFunc("/products", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"products":[{"id":501,"name":"Labor","disabled":false},{"id":500,"name":"Labor","disabled":true}]}`)
	})
	c := newTestClient(t, mux)

	ref, err := c.FetchReference(context.Background())
	require.NoError(t, err)
	require.Len(t, ref.Techs, 2)
	name, ok := ref.TechName(42)
	assert.True(t, ok)
	assert.Equal(t, "Jane Doe", name)
	assert.Equal(t, []string{"Hardware", "Network"}, ref.IssueTypes)
	assert.Equal(t, "Acme Corp", ref.Customers[0].BusinessName)
	assert.Equal(t, int64(1), ref.Contacts[0].CustomerID)
	assert.Equal(t, []string{"New", "In Progress", "Resolved"}, ref.Statuses)
	assert.True(t, ref.Products[1].Archived)
	assert.Equal(t, 6, c.Calls())
}
