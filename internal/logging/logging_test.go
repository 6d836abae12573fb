package logging_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Tiliavir/syncro-import/internal/logging"
)

func TestParseLevel(t *testing.T) {
	cases := []struct {
		in   string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"INFO", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"", zerolog.InfoLevel},
		{"  nonsense  ", zerolog.InfoLevel},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, logging.ParseLevel(c.in), "ParseLevel(%q)", c.in)
	}
}

func TestInitWritesConsoleAndDailyFile(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer
	day := time.Date(2024, 6, 2, 12, 0, 0, 0, time.UTC)

	closer, err := logging.Init(logging.Options{
		Level:   "info",
		Format:  "json",
		Dir:     dir,
		Console: &console,
		Now:     func() time.Time { return day },
	})
	require.NoError(t, err)

	logging.Named("importer").Info().Str("ticket", "1001").Msg("ticket created")
	logging.Get().Debug().Msg("hidden")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(filepath.Join(dir, "app_20240602.log"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "importer", entry["component"])
	assert.Equal(t, "1001", entry["ticket"])
	assert.Equal(t, logging.RunID(), entry["run_id"])
	assert.NotEmpty(t, logging.RunID())

	assert.Equal(t, strings.TrimSpace(string(data)), strings.TrimSpace(console.String()))
}

func TestInitConsoleOnly(t *testing.T) {
	var console bytes.Buffer
	closer, err := logging.Init(logging.Options{Level: "warn", Console: &console})
	require.NoError(t, err)
	defer closer.Close()

	first := logging.RunID()
	logging.Named("").Warn().Msg("careful")
	logging.Get().Info().Msg("quiet")

	out := console.String()
	assert.Contains(t, out, "careful")
	assert.NotContains(t, out, "quiet")

	_, err = logging.Init(logging.Options{Console: &console})
	require.NoError(t, err)
	assert.NotEqual(t, first, logging.RunID())
}
