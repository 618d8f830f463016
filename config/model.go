package config

import (
	"fmt"

	"github.com/kilianp07/bikeprice/core/factory"
)

// ModelConfig selects the regressor.
type ModelConfig struct {
	Type string         `json:"type"`
	Conf map[string]any `json:"conf"`
	// Serialize runs one prediction at a time.
	Serialize bool `json:"serialize"`
	// Optional lets the service start without a model and answer 503.
	Optional bool `json:"optional"`
}

// Module returns the factory selector for the regressor registry.
func (c ModelConfig) Module() factory.ModuleConfig {
	return factory.ModuleConfig{Type: c.Type, Conf: c.Conf}
}

// Validate checks mandatory fields.
func (c ModelConfig) Validate() error {
	if c.Type == "" && !c.Optional {
		return fmt.Errorf("type is required unless optional is set")
	}
	return nil
}
