package encoder

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/bikeprice/core/vocabulary"
)

const sentinelBody = `{
	"brand": 9, "model": 36, "year": 2020, "kilometers": 5000, "location": -1,
	"power": 12, "owner_Second Owner": 1, "owner_Third Owner": 0,
	"owner_Fourth Owner Or More": 0, "owner_Unknown": 0
}`

func baseRequest() map[string]any {
	return map[string]any{
		"brand": 9, "model": 36, "year": 2020, "kilometers": 5000, "location": -1,
		"power": 12, "owner_Second Owner": 1, "owner_Third Owner": 0,
		"owner_Fourth Owner Or More": 0, "owner_Unknown": 0,
	}
}

func body(t *testing.T, m map[string]any) []byte {
	t.Helper()
	b, err := json.Marshal(m)
	require.NoError(t, err)
	return b
}

func defaultEncoder(t *testing.T) (*Encoder, *vocabulary.Registry) {
	t.Helper()
	reg, err := vocabulary.Default()
	require.NoError(t, err)
	return New(reg), reg
}

type fixedFallback float64

func (f fixedFallback) LocationFallback() float64 { return float64(f) }

func TestEncodeJSON_Sentinel(t *testing.T) {
	enc, reg := defaultEncoder(t)

	vec, err := enc.EncodeJSON([]byte(sentinelBody))
	require.NoError(t, err)

	locs, _ := reg.Mapping(vocabulary.Location)
	var sum float64
	for i := 0; i < locs.Len(); i++ {
		sum += float64(i)
	}
	mean := sum / float64(locs.Len())

	assert.Equal(t, FeatureVector{9, 36, 2020, 5000, mean, 12, 0, 1, 0, 0}, vec)
	assert.InDelta(t, 231.0, vec[IdxLocation], 1e-9)
	assert.Equal(t, reg.LocationFallback(), vec[IdxLocation])
}

func TestEncodeJSON_KnownLocationPassesThrough(t *testing.T) {
	enc, _ := defaultEncoder(t)
	for _, code := range []float64{0, 55, 462, 1000, -7, 55.5, 3000000000, -0.5} {
		m := baseRequest()
		m["location"] = code
		vec, err := enc.EncodeJSON(body(t, m))
		require.NoError(t, err)
		assert.Equal(t, code, vec[IdxLocation], "code %v", code)
	}
}

func TestEncodeJSON_TruncatedSentinelImputes(t *testing.T) {
	enc, reg := defaultEncoder(t)
	for _, loc := range []any{-1.5, -1.0, "-1.9"} {
		m := baseRequest()
		m["location"] = loc
		vec, err := enc.EncodeJSON(body(t, m))
		require.NoError(t, err)
		assert.Equal(t, reg.LocationFallback(), vec[IdxLocation], "location %v", loc)
	}
}

func TestEncode_Order(t *testing.T) {
	enc := New(fixedFallback(1.5))
	req := PredictionRequest{
		Brand: 1, Model: 2, Year: 3, Kilometers: 4, Location: KnownLocation(5), Power: 6,
		OwnerFourthOrMore: true, OwnerSecond: false, OwnerThird: true, OwnerUnknown: false,
	}
	assert.Equal(t, FeatureVector{1, 2, 3, 4, 5, 6, 1, 0, 1, 0}, enc.Encode(req))

	req.Location = UnspecifiedLocation()
	assert.Equal(t, 1.5, enc.Encode(req)[IdxLocation])
	assert.Len(t, enc.Encode(req).Slice(), VectorLen)
}

func TestEncode_Idempotent(t *testing.T) {
	enc, _ := defaultEncoder(t)
	a, err := enc.EncodeJSON([]byte(sentinelBody))
	require.NoError(t, err)
	b, err := enc.EncodeJSON([]byte(sentinelBody))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestEncode_ConcurrentUse(t *testing.T) {
	enc, _ := defaultEncoder(t)
	want, err := enc.EncodeJSON([]byte(sentinelBody))
	require.NoError(t, err)

	errs := make(chan error, 16)
	for i := 0; i < cap(errs); i++ {
		go func() {
			got, err := enc.EncodeJSON([]byte(sentinelBody))
			if err == nil && got != want {
				err = fmt.Errorf("vector mismatch %v", got)
			}
			errs <- err
		}()
	}
	for i := 0; i < cap(errs); i++ {
		assert.NoError(t, <-errs)
	}
}

func TestParseRequest_MissingFields(t *testing.T) {
	for _, field := range FeatureNames {
		t.Run(field, func(t *testing.T) {
			m := baseRequest()
			delete(m, field)
			_, err := ParseRequest(body(t, m))
			var merr *MissingFieldError
			require.True(t, errors.As(err, &merr), "got %v", err)
			assert.Equal(t, field, merr.Field)
		})
	}
}

func TestParseRequest_MissingPower(t *testing.T) {
	m := baseRequest()
	delete(m, "power")
	_, err := ParseRequest(body(t, m))
	assert.Equal(t, &MissingFieldError{Field: "power"}, err)
}

func TestParseRequest_NullIsMissing(t *testing.T) {
	m := baseRequest()
	m["year"] = nil
	_, err := ParseRequest(body(t, m))
	assert.Equal(t, &MissingFieldError{Field: "year"}, err)
}

func TestParseRequest_FirstMissingInVectorOrder(t *testing.T) {
	m := baseRequest()
	delete(m, "owner_Unknown")
	delete(m, "model")
	_, err := ParseRequest(body(t, m))
	assert.Equal(t, &MissingFieldError{Field: "model"}, err)
}

func TestParseRequest_Malformed(t *testing.T) {
	cases := []struct {
		field string
		value any
	}{
		{"kilometers", "five thousand"},
		{"brand", true},
		{"year", []int{2020}},
		{"power", map[string]int{"hp": 12}},
		{"location", "north"},
		{"owner_Second Owner", 2},
		{"owner_Third Owner", "maybe"},
		{"power", "NaN"},
	}
	for _, c := range cases {
		t.Run(fmt.Sprintf("%s=%v", c.field, c.value), func(t *testing.T) {
			m := baseRequest()
			m[c.field] = c.value
			_, err := ParseRequest(body(t, m))
			var merr *MalformedInputError
			require.True(t, errors.As(err, &merr), "got %v", err)
			assert.Equal(t, c.field, merr.Field)
		})
	}
}

func TestParseRequest_MalformedKilometers(t *testing.T) {
	m := baseRequest()
	m["kilometers"] = "five thousand"
	_, err := ParseRequest(body(t, m))
	var merr *MalformedInputError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, "kilometers", merr.Field)
}

func TestParseRequest_MalformedBody(t *testing.T) {
	for _, b := range []string{"", "null", "[1,2]", "{", `"brand"`} {
		_, err := ParseRequest([]byte(b))
		var merr *MalformedInputError
		require.True(t, errors.As(err, &merr), "body %q: %v", b, err)
		assert.Equal(t, FieldBody, merr.Field)
	}
}

func TestParseRequest_NumericStringsAndBooleans(t *testing.T) {
	m := baseRequest()
	m["brand"] = "9"
	m["kilometers"] = " 5000.5 "
	m["location"] = "-1"
	m["owner_Second Owner"] = true
	m["owner_Third Owner"] = "0"
	m["owner_Unknown"] = "true"
	req, err := ParseRequest(body(t, m))
	require.NoError(t, err)

	assert.Equal(t, 9.0, req.Brand)
	assert.Equal(t, 5000.5, req.Kilometers)
	_, known := req.Location.Code()
	assert.False(t, known)
	assert.True(t, req.OwnerSecond)
	assert.False(t, req.OwnerThird)
	assert.True(t, req.OwnerUnknown)
}

func TestParseRequest_IntegralFloatLocation(t *testing.T) {
	m := baseRequest()
	m["location"] = 55.0
	req, err := ParseRequest(body(t, m))
	require.NoError(t, err)
	code, known := req.Location.Code()
	assert.True(t, known)
	assert.Equal(t, 55.0, code)
	assert.Equal(t, "55", req.Location.String())
	assert.Equal(t, "unspecified", UnspecifiedLocation().String())
}

func TestParseRequest_IgnoresUnknownFields(t *testing.T) {
	m := baseRequest()
	m["colour"] = "red"
	_, err := ParseRequest(body(t, m))
	assert.NoError(t, err)
}
