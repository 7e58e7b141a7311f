package rule

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// Parse decodes a YAML rule table. Unknown fields are rejected.
func Parse(data []byte) (*Table, error) {
	t := &Table{}
	if err := yaml.UnmarshalWithOptions(data, t, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBadRule, err)
	}
	if t.Name == "" {
		return nil, fmt.Errorf("%w: table has no name", ErrBadRule)
	}
	return t, nil
}

func Load(path string) (*Table, error) {
	d, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read rule table: %w", err)
	}
	t, err := Parse(d)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Marshal renders t as YAML.
func Marshal(t *Table) ([]byte, error) {
	return yaml.Marshal(t)
}
