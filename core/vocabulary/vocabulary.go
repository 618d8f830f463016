package vocabulary

import (
	"fmt"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"
)

// Table identifies one of the categorical vocabularies.
type Table string

const (
	Brand    Table = "brand"
	Model    Table = "model"
	Location Table = "location"
)

// Tables lists the vocabularies in a stable order.
var Tables = []Table{Brand, Model, Location}

// ParseTable accepts the singular or plural table name.
func ParseTable(s string) (Table, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "brand", "brands":
		return Brand, nil
	case "model", "models":
		return Model, nil
	case "location", "locations":
		return Location, nil
	}
	return "", fmt.Errorf("unknown vocabulary table %q", s)
}

// RegistryInitializationError reports vocabulary data that cannot back a
// registry. It is fatal at startup.
type RegistryInitializationError struct {
	Table  Table
	Reason string
}

func (e *RegistryInitializationError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("vocabulary: %s", e.Reason)
	}
	return fmt.Sprintf("vocabulary %s: %s", e.Table, e.Reason)
}

// CategoryMapping maps lower-cased labels to the code assigned at training
// time. Codes are the label positions, so they are unique and contiguous.
type CategoryMapping struct {
	labels []string
	codes  map[string]int
}

// NewCategoryMapping builds a mapping where labels[i] has code i. A label
// listed twice keeps both codes; lookups resolve to the later one.
func NewCategoryMapping(labels []string) (CategoryMapping, error) {
	m := CategoryMapping{
		labels: make([]string, len(labels)),
		codes:  make(map[string]int, len(labels)),
	}
	for i, l := range labels {
		norm := normalize(l)
		if norm == "" {
			return CategoryMapping{}, fmt.Errorf("blank label at code %d", i)
		}
		m.labels[i] = norm
		m.codes[norm] = i
	}
	return m, nil
}

// Code returns the code for label.
func (m CategoryMapping) Code(label string) (int, bool) {
	c, ok := m.codes[normalize(label)]
	return c, ok
}

// Label returns the label stored at code.
func (m CategoryMapping) Label(code int) (string, bool) {
	if code < 0 || code >= len(m.labels) {
		return "", false
	}
	return m.labels[code], true
}

// Len is the number of codes in the mapping.
func (m CategoryMapping) Len() int { return len(m.labels) }

// Codes returns every code in ascending order.
func (m CategoryMapping) Codes() []float64 {
	out := make([]float64, len(m.labels))
	for i := range m.labels {
		out[i] = float64(i)
	}
	return out
}

// Map returns a copy of the label to code lookup.
func (m CategoryMapping) Map() map[string]int {
	out := make(map[string]int, len(m.codes))
	for k, v := range m.codes {
		out[k] = v
	}
	return out
}

// Data is the raw content of a vocabulary file.
type Data struct {
	Brands           []string `yaml:"brands" json:"brands"`
	Models           []string `yaml:"models" json:"models"`
	Locations        []string `yaml:"locations" json:"locations"`
	DisplayLocations []string `yaml:"display_locations" json:"display_locations"`
}

// Registry holds the vocabularies and the location fallback. It is never
// mutated after NewRegistry returns and is safe for concurrent use.
type Registry struct {
	tables   map[Table]CategoryMapping
	display  map[string]int
	fallback float64
}

// NewRegistry validates data and precomputes the location fallback.
func NewRegistry(data Data) (*Registry, error) {
	raw := map[Table][]string{
		Brand:    data.Brands,
		Model:    data.Models,
		Location: data.Locations,
	}
	r := &Registry{tables: make(map[Table]CategoryMapping, len(raw))}
	for _, t := range Tables {
		if len(raw[t]) == 0 {
			return nil, &RegistryInitializationError{Table: t, Reason: "table is empty"}
		}
		m, err := NewCategoryMapping(raw[t])
		if err != nil {
			return nil, &RegistryInitializationError{Table: t, Reason: err.Error()}
		}
		r.tables[t] = m
	}

	locations := r.tables[Location]
	r.fallback = stat.Mean(locations.Codes(), nil)

	r.display = make(map[string]int, len(data.DisplayLocations))
	for _, l := range data.DisplayLocations {
		code, ok := locations.Code(l)
		if !ok {
			return nil, &RegistryInitializationError{
				Table:  Location,
				Reason: fmt.Sprintf("display location %q is not in the location table", l),
			}
		}
		r.display[normalize(l)] = code
	}
	return r, nil
}

// CodeFor looks up the code of label in table.
func (r *Registry) CodeFor(t Table, label string) (int, bool) {
	m, ok := r.tables[t]
	if !ok {
		return 0, false
	}
	return m.Code(label)
}

// LabelFor looks up the label stored at code in table.
func (r *Registry) LabelFor(t Table, code int) (string, bool) {
	m, ok := r.tables[t]
	if !ok {
		return "", false
	}
	return m.Label(code)
}

// Mapping returns the full mapping for table.
func (r *Registry) Mapping(t Table) (CategoryMapping, bool) {
	m, ok := r.tables[t]
	return m, ok
}

// LocationFallback is the mean of every code in the full location table. It
// replaces the location feature when a request leaves the location out.
func (r *Registry) LocationFallback() float64 { return r.fallback }

// DisplayMappings is the vocabulary exposed to clients.
type DisplayMappings struct {
	Brands    map[string]int `json:"brands"`
	Models    map[string]int `json:"models"`
	Locations map[string]int `json:"locations"`
}

// Display returns the client-facing view: full brand and model tables and
// the curated subset of locations. With no curated subset configured every
// location is returned.
func (r *Registry) Display() DisplayMappings {
	locs := make(map[string]int, len(r.display))
	for k, v := range r.display {
		locs[k] = v
	}
	if len(locs) == 0 {
		locs = r.tables[Location].Map()
	}
	return DisplayMappings{
		Brands:    r.tables[Brand].Map(),
		Models:    r.tables[Model].Map(),
		Locations: locs,
	}
}

// SortedLabels returns the labels of a mapping ordered by code.
func SortedLabels(m map[string]int) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool {
		if m[out[i]] == m[out[j]] {
			return out[i] < out[j]
		}
		return m[out[i]] < m[out[j]]
	})
	return out
}

func normalize(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}
