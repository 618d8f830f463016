package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/kilianp07/bikeprice/core/encoder"
)

// Vector is the JSON form of an encoded request.
type Vector struct {
	Vector   []float64          `json:"vector"`
	Features map[string]float64 `json:"features"`
}

// NewVector pairs each value of v with its feature name.
func NewVector(v encoder.FeatureVector) Vector {
	out := Vector{Vector: v.Slice(), Features: make(map[string]float64, encoder.VectorLen)}
	for i, name := range encoder.FeatureNames {
		out.Features[name] = v[i]
	}
	return out
}

// WriteJSON writes the feature vectors to w in JSON format, one per line.
func WriteJSON(w io.Writer, vectors ...encoder.FeatureVector) error {
	enc := json.NewEncoder(w)
	for _, v := range vectors {
		if err := enc.Encode(NewVector(v)); err != nil {
			return err
		}
	}
	return nil
}

// WriteCSV writes the feature vectors to w in CSV format with the feature
// names as header, in vector order.
func WriteCSV(w io.Writer, vectors ...encoder.FeatureVector) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(encoder.FeatureNames[:]); err != nil {
		return err
	}
	for _, v := range vectors {
		rec := make([]string, encoder.VectorLen)
		for i, f := range v {
			rec[i] = strconv.FormatFloat(f, 'f', -1, 64)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
