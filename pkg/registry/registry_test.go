// pkg/registry/registry_test.go
package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validRegistry = `{
  "version": "1.0",
  "lastUpdated": "2025-06-01",
  "sources": [
    {"id": "work", "displayName": "Work calendar", "url": "https://example.com/work.ics", "timezone": "America/New_York", "enabled": true},
    {"id": "personal", "url": "https://example.com/me.ics", "enabled": false}
  ]
}`

func TestParseRegistry_Valid(t *testing.T) {
	reg, err := ParseRegistry([]byte(validRegistry))
	require.NoError(t, err)

	assert.Equal(t, "1.0", reg.Version)
	require.Len(t, reg.Sources, 2)
	assert.Equal(t, "work", reg.Sources[0].ID)
	assert.Equal(t, "America/New_York", reg.Sources[0].Timezone)

	enabled := reg.EnabledSources()
	require.Len(t, enabled, 1)
	assert.Equal(t, "work", enabled[0].ID)
}

func TestParseRegistry_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"missing version", `{"sources": []}`},
		{"source missing url", `{"version": "1.0", "sources": [{"id": "work"}]}`},
		{"source missing id", `{"version": "1.0", "sources": [{"url": "https://x.ics"}]}`},
		{"unknown field", `{"version": "1.0", "sources": [], "extra": true}`},
		{"wrong type", `{"version": 1, "sources": []}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRegistry([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestLoadRegistry_FromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.json")
	require.NoError(t, os.WriteFile(path, []byte(validRegistry), 0o644))

	reg, err := LoadRegistry(path)
	require.NoError(t, err)
	assert.Len(t, reg.Sources, 2)
}

func TestLoadRegistry_MissingFile(t *testing.T) {
	_, err := LoadRegistry(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}
