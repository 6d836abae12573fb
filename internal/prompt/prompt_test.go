package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions(t *testing.T) {
	opts := Options([]string{"Globex", " acme corp ", "", "Acme Corp", "Initech"})

	require.Len(t, opts, 4)
	assert.Equal(t, "(none)", opts[0].Key)
	assert.Equal(t, "", opts[0].Value)

	var values []string
	for _, o := range opts[1:] {
		values = append(values, o.Value)
	}
	assert.Equal(t, []string{"acme corp", "Globex", "Initech"}, values)
}

func TestOptionsEmpty(t *testing.T) {
	opts := Options(nil)
	require.Len(t, opts, 1)
	assert.Equal(t, "", opts[0].Value)
}

func TestNotBlank(t *testing.T) {
	check := notBlank("API key")
	assert.EqualError(t, check("  "), "API key is required")
	assert.NoError(t, check("abc"))
}
