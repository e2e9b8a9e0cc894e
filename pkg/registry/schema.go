// pkg/registry/schema.go
package registry

// SourceRegistry lists the calendar feeds the engine watches.
type SourceRegistry struct {
	Version     string           `json:"version"`
	LastUpdated string           `json:"lastUpdated"`
	Sources     []CalendarSource `json:"sources"`
}

// CalendarSource is one ICS subscription.
type CalendarSource struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"displayName"`
	URL         string   `json:"url"`
	Timezone    string   `json:"timezone,omitempty"`
	Enabled     bool     `json:"enabled"`
	Tags        []string `json:"tags,omitempty"`
}

// registrySchema is the JSON Schema every registry file must satisfy
// before the engine will load it.
const registrySchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["version", "sources"],
  "properties": {
    "version": {"type": "string"},
    "lastUpdated": {"type": "string"},
    "sources": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["id", "url"],
        "properties": {
          "id": {"type": "string", "minLength": 1},
          "displayName": {"type": "string"},
          "url": {"type": "string", "minLength": 1},
          "timezone": {"type": "string"},
          "enabled": {"type": "boolean"},
          "tags": {"type": "array", "items": {"type": "string"}}
        },
        "additionalProperties": false
      }
    }
  },
  "additionalProperties": false
}`
