package config

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed schema/settings-v1.json
var settingsSchemaV1 []byte

// SettingsSchema returns the JSON Schema that settings files must satisfy.
func SettingsSchema() []byte {
	return settingsSchemaV1
}

// ValidateSettings validates a YAML or JSON settings document against the
// embedded schema.
func ValidateSettings(data []byte) error {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse settings: %w", err)
	}
	if doc == nil {
		// An empty file only carries defaults.
		return nil
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(settingsSchemaV1),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}

	if !result.Valid() {
		var problems []string
		for _, desc := range result.Errors() {
			problems = append(problems, desc.String())
		}
		return fmt.Errorf("settings validation failed:\n%s", strings.Join(problems, "\n"))
	}
	return nil
}
