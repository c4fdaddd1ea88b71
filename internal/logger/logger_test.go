package logger

import (
	"bytes"
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeeWritesJSONRecords(t *testing.T) {
	var console, file bytes.Buffer
	errorLog := log.New(&console, "ERROR\t", 0)
	Tee(errorLog, New(&file))

	errorLog.Println("ERROR_01_GetTeacher: boom")

	assert.Contains(t, console.String(), "ERROR_01_GetTeacher: boom")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(file.Bytes(), &rec))
	assert.Equal(t, "error", rec["level"])
	assert.Equal(t, "ERROR\tERROR_01_GetTeacher: boom", rec["message"])
	assert.Equal(t, "tutorhub-api", rec["service"])
}

func TestOpenAppends(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	ef, err := Open(dir)
	require.NoError(t, err)
	ef.Error().Str("path", "/api/lesson").Int("status", 500).Msg("first")
	require.NoError(t, ef.Close())

	ef, err = Open(dir)
	require.NoError(t, err)
	ef.Error().Msg("second")
	require.NoError(t, ef.Close())

	data, err := os.ReadFile(filepath.Join(dir, "error.json"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Len(t, lines, 2)
}
