// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	apperrors "proactive-notify/internal/common/errors"
)

// LoadRegistry reads and validates a source registry file. Validation runs
// against the embedded JSON Schema before unmarshalling, so a malformed
// file is rejected with field-level details instead of silently loading
// half a registry.
func LoadRegistry(path string) (*SourceRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read registry: %w", err)
	}
	return ParseRegistry(data)
}

// ParseRegistry validates and unmarshals raw registry JSON.
func ParseRegistry(data []byte) (*SourceRegistry, error) {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(registrySchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, apperrors.NewRegistryInvalidError(err.Error())
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			details = append(details, desc.String())
		}
		return nil, apperrors.NewRegistryInvalidError(strings.Join(details, "; "))
	}

	var reg SourceRegistry
	if err := json.Unmarshal(data, &reg); err != nil {
		return nil, apperrors.NewRegistryInvalidError(err.Error())
	}
	return &reg, nil
}

// EnabledSources filters the registry down to the feeds that should be
// fetched.
func (r *SourceRegistry) EnabledSources() []CalendarSource {
	out := make([]CalendarSource, 0, len(r.Sources))
	for _, src := range r.Sources {
		if src.Enabled {
			out = append(out, src)
		}
	}
	return out
}
