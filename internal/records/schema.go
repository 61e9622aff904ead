package records

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// IntegrationSchema describes how one upstream integration's webhook
// payloads map onto pipeline records.
type IntegrationSchema struct {
	Name            string   `yaml:"name"`
	AllowedActions  []string `yaml:"allowed_actions"`
	ActionField     string   `yaml:"action_field"`
	PrimaryKeyField string   `yaml:"primary_key_field"`
	TextField       string   `yaml:"text_field"`
	RequiredFields  []string `yaml:"required_fields"`
}

type registryFile struct {
	Integrations []IntegrationSchema `yaml:"integrations"`
}

// Registry holds the integration schemas keyed by integration name.
type Registry struct {
	schemas map[string]IntegrationSchema
}

// LoadRegistry reads the integration schema registry from a yaml file.
func LoadRegistry(path string) (*Registry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open schema registry %s: %w", path, err)
	}
	defer f.Close()
	return NewRegistryFromReader(f)
}

// NewRegistryFromReader parses a yaml schema registry from a reader.
func NewRegistryFromReader(r io.Reader) (*Registry, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	var file registryFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse schema registry: %w", err)
	}
	schemas := make(map[string]IntegrationSchema, len(file.Integrations))
	for _, s := range file.Integrations {
		if s.Name == "" {
			return nil, fmt.Errorf("schema registry entry missing name")
		}
		if s.PrimaryKeyField == "" || s.TextField == "" {
			return nil, fmt.Errorf("schema %s must set primary_key_field and text_field", s.Name)
		}
		schemas[s.Name] = s
	}
	return &Registry{schemas: schemas}, nil
}

// Get returns the schema for an integration name.
func (reg *Registry) Get(name string) (IntegrationSchema, bool) {
	s, ok := reg.schemas[name]
	return s, ok
}

// Names returns the registered integration names.
func (reg *Registry) Names() []string {
	names := make([]string, 0, len(reg.schemas))
	for name := range reg.schemas {
		names = append(names, name)
	}
	return names
}

// ActionAllowed reports whether the webhook action is in the schema's
// allow-list. An empty allow-list accepts every action.
func (s IntegrationSchema) ActionAllowed(action string) bool {
	if len(s.AllowedActions) == 0 {
		return true
	}
	for _, a := range s.AllowedActions {
		if a == action {
			return true
		}
	}
	return false
}

// Validate checks one record against the schema. The primary key and text
// fields must be present and non-empty, along with any required fields.
func (s IntegrationSchema) Validate(rec Record) error {
	if _, err := rec.PrimaryKey(s.PrimaryKeyField); err != nil {
		return err
	}
	if _, err := rec.Text(s.TextField); err != nil {
		return err
	}
	for _, field := range s.RequiredFields {
		if v, ok := rec.StringField(field); !ok || v == "" {
			return fmt.Errorf("%w: missing required field %q", ErrValidation, field)
		}
	}
	if s.ActionField != "" {
		action, ok := rec.StringField(s.ActionField)
		if !ok {
			return fmt.Errorf("%w: missing action field %q", ErrValidation, s.ActionField)
		}
		if !s.ActionAllowed(action) {
			return fmt.Errorf("%w: action %q not allowed for integration %s", ErrValidation, action, s.Name)
		}
	}
	return nil
}

// ValidateAll validates every record; the first failure aborts the batch.
func (s IntegrationSchema) ValidateAll(recs []Record) error {
	for i, rec := range recs {
		if err := s.Validate(rec); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
	}
	return nil
}
