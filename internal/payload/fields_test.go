package payload_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Tiliavir/syncro-import/internal/payload"
)

func TestCleanTicketNumber(t *testing.T) {
	tests := []struct{ raw, want string }{
		{"12345", "12345"},
		{"#12-345 ", "12345"},
		{"T-0042", "0042"},
		{" ABC ", "ABC"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := payload.CleanTicketNumber(tt.raw); got != tt.want {
			t.Errorf("CleanTicketNumber(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestPriority(t *testing.T) {
	tests := []struct{ raw, want string }{
		{"Urgent", "0 Urgent"},
		{" HIGH ", "1 High"},
		{"normal", "2 Normal"},
		{"low", "3 Low"},
		{"", "2 Normal"},
		{"whenever", "2 Normal"},
	}
	for _, tt := range tests {
		if got := payload.Priority(tt.raw); got != tt.want {
			t.Errorf("Priority(%q) = %q, want %q", tt.raw, got, tt.want)
		}
	}
}

func TestVisibilityAndBillable(t *testing.T) {
	for _, raw := range []string{"Private", "internal", "HIDDEN"} {
		hidden, ok := payload.Visibility(raw)
		assert.True(t, ok, raw)
		assert.True(t, hidden, raw)
	}
	for _, raw := range []string{"public", "Customer", "external"} {
		hidden, ok := payload.Visibility(raw)
		assert.True(t, ok, raw)
		assert.False(t, hidden, raw)
	}
	_, ok := payload.Visibility("maybe")
	assert.False(t, ok)

	for _, raw := range []string{"Billable", "billed"} {
		v, ok := payload.Billable(raw)
		assert.True(t, ok && v, raw)
	}
	for _, raw := range []string{"Non-Billable", "non billable", "not billable", "unbillable"} {
		v, ok := payload.Billable(raw)
		assert.True(t, ok && !v, raw)
	}
	_, ok = payload.Billable("")
	assert.False(t, ok)
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{"30", 30, false},
		{"30.0", 30, false},
		{" 45.9 ", 45, false},
		{"0", 0, true},
		{"0.5", 0, true},
		{"-5", 0, true},
		{"", 0, true},
		{"half an hour", 0, true},
	}
	for _, tt := range tests {
		got, err := payload.ParseDuration(tt.raw)
		if tt.wantErr {
			assert.ErrorIs(t, err, payload.ErrInvalid, tt.raw)
			continue
		}
		assert.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got, tt.raw)
	}
}

func TestCompareTicketNumbers(t *testing.T) {
	assert.Equal(t, -1, payload.CompareTicketNumbers("9", "10"))
	assert.Equal(t, 1, payload.CompareTicketNumbers("100", "20"))
	assert.Equal(t, 0, payload.CompareTicketNumbers("7", "7"))
	assert.Equal(t, 1, payload.CompareTicketNumbers("9", "10a"))
}

func TestSequenceNumber(t *testing.T) {
	assert.Equal(t, 3, payload.SequenceNumber("3.0"))
	assert.Equal(t, 0, payload.SequenceNumber(""))
	assert.Equal(t, 0, payload.SequenceNumber("n/a"))
}
