package vocabulary

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed data/vocabulary.yaml
var defaultData []byte

// Default returns the registry built from the embedded training vocabulary.
func Default() (*Registry, error) {
	return Parse(defaultData)
}

// Load builds a registry from a YAML or JSON vocabulary file. An empty path
// selects the embedded vocabulary.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, &RegistryInitializationError{Reason: fmt.Sprintf("read %s: %v", path, err)}
	}
	return Parse(raw)
}

// Parse decodes vocabulary data and builds a registry from it. YAML is a
// superset of JSON so both formats are accepted.
func Parse(raw []byte) (*Registry, error) {
	var data Data
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, &RegistryInitializationError{Reason: fmt.Sprintf("decode: %v", err)}
	}
	return NewRegistry(data)
}
