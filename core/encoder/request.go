package encoder

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Wire names of the request fields.
const (
	FieldBrand             = "brand"
	FieldModel             = "model"
	FieldYear              = "year"
	FieldKilometers        = "kilometers"
	FieldLocation          = "location"
	FieldPower             = "power"
	FieldOwnerFourthOrMore = "owner_Fourth Owner Or More"
	FieldOwnerSecond       = "owner_Second Owner"
	FieldOwnerThird        = "owner_Third Owner"
	FieldOwnerUnknown      = "owner_Unknown"

	// FieldBody is used in MalformedInputError when the payload is unusable.
	FieldBody = "body"
)

// LocationSentinel is the wire value meaning "location not listed".
const LocationSentinel = -1

// Location is either a known location code or unspecified.
type Location struct {
	code  float64
	known bool
}

// KnownLocation wraps a location code. The code is not checked against the
// vocabulary and reaches the model as given.
func KnownLocation(code float64) Location { return Location{code: code, known: true} }

// UnspecifiedLocation is the location of a request that did not pick one.
func UnspecifiedLocation() Location { return Location{} }

// Code returns the location code and whether one was given.
func (l Location) Code() (float64, bool) { return l.code, l.known }

func (l Location) String() string {
	if !l.known {
		return "unspecified"
	}
	return strconv.FormatFloat(l.code, 'g', -1, 64)
}

// PredictionRequest is a validated prediction request.
type PredictionRequest struct {
	Brand      float64
	Model      float64
	Year       float64
	Kilometers float64
	Location   Location
	Power      float64

	OwnerSecond       bool
	OwnerThird        bool
	OwnerFourthOrMore bool
	OwnerUnknown      bool
}

// ParseRequest validates a raw JSON request body. Fields are checked in
// feature vector order so the first missing or malformed field is reported.
func ParseRequest(body []byte) (PredictionRequest, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return PredictionRequest{}, &MalformedInputError{Field: FieldBody, Err: err}
	}
	if raw == nil {
		return PredictionRequest{}, &MalformedInputError{Field: FieldBody, Err: errors.New("expected a JSON object")}
	}

	p := fieldParser{raw: raw}
	var req PredictionRequest
	req.Brand = p.number(FieldBrand)
	req.Model = p.number(FieldModel)
	req.Year = p.number(FieldYear)
	req.Kilometers = p.number(FieldKilometers)
	req.Location = p.location(FieldLocation)
	req.Power = p.number(FieldPower)
	req.OwnerFourthOrMore = p.flag(FieldOwnerFourthOrMore)
	req.OwnerSecond = p.flag(FieldOwnerSecond)
	req.OwnerThird = p.flag(FieldOwnerThird)
	req.OwnerUnknown = p.flag(FieldOwnerUnknown)
	if p.err != nil {
		return PredictionRequest{}, p.err
	}
	return req, nil
}

// fieldParser records the first error and skips the remaining fields.
type fieldParser struct {
	raw map[string]json.RawMessage
	err error
}

func (p *fieldParser) value(field string) (any, bool) {
	if p.err != nil {
		return nil, false
	}
	msg, ok := p.raw[field]
	if !ok || bytes.Equal(bytes.TrimSpace(msg), []byte("null")) {
		p.err = &MissingFieldError{Field: field}
		return nil, false
	}
	dec := json.NewDecoder(bytes.NewReader(msg))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		p.err = &MalformedInputError{Field: field, Err: err}
		return nil, false
	}
	return v, true
}

func (p *fieldParser) number(field string) float64 {
	v, ok := p.value(field)
	if !ok {
		return 0
	}
	f, err := toFloat(v)
	if err != nil {
		p.err = &MalformedInputError{Field: field, Err: err}
		return 0
	}
	return f
}

func (p *fieldParser) location(field string) Location {
	v, ok := p.value(field)
	if !ok {
		return Location{}
	}
	f, err := toFloat(v)
	if err != nil {
		p.err = &MalformedInputError{Field: field, Err: err}
		return Location{}
	}
	// The sentinel check truncates toward zero, so -1.5 is unspecified too.
	if math.Trunc(f) == LocationSentinel {
		return UnspecifiedLocation()
	}
	return KnownLocation(f)
}

func (p *fieldParser) flag(field string) bool {
	v, ok := p.value(field)
	if !ok {
		return false
	}
	if b, isBool := v.(bool); isBool {
		return b
	}
	if s, isStr := v.(string); isStr {
		switch strings.ToLower(strings.TrimSpace(s)) {
		case "true":
			return true
		case "false":
			return false
		}
	}
	f, err := toFloat(v)
	switch {
	case err != nil:
	case f == 0:
		return false
	case f == 1:
		return true
	default:
		err = fmt.Errorf("indicator must be 0 or 1, got %v", f)
	}
	p.err = &MalformedInputError{Field: field, Err: err}
	return false
}

func toFloat(v any) (float64, error) {
	var (
		f   float64
		err error
	)
	switch x := v.(type) {
	case json.Number:
		f, err = strconv.ParseFloat(x.String(), 64)
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(x), 64)
	default:
		return 0, fmt.Errorf("expected a number, got %T", v)
	}
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("value %v is not finite", f)
	}
	return f, nil
}
