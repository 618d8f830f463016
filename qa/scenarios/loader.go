package scenarios

import (
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Step is one request sent to POST /predict.
type Step struct {
	Name string `yaml:"name"`
	// Request is re-encoded as JSON. RawBody wins when set.
	Request map[string]any `yaml:"request"`
	RawBody string         `yaml:"raw_body,omitempty"`
	Expect  Expected       `yaml:"expect"`
}

// Body returns the request payload.
func (s Step) Body() ([]byte, error) {
	if s.RawBody != "" {
		return []byte(s.RawBody), nil
	}
	return json.Marshal(s.Request)
}

type Expected struct {
	Status int    `yaml:"status"`
	Field  string `yaml:"field,omitempty"`
	// Location is the location feature the model must receive.
	Location *float64 `yaml:"location,omitempty"`
	// Vector is the full feature vector the model must receive.
	Vector []float64 `yaml:"vector,omitempty"`
}

type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
	// Price is what the scenario model returns.
	Price float64 `yaml:"price"`
	Steps []Step  `yaml:"steps"`
	// Outcomes are the expected prediction_requests_total counts.
	Outcomes map[string]int `yaml:"outcomes"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if len(sc.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps", path)
	}
	return &sc, nil
}
