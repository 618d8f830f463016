package encoder

// VectorLen is the number of features the price model consumes.
const VectorLen = 10

// Positions in a FeatureVector. The order is fixed by the trained model.
const (
	IdxBrand = iota
	IdxModel
	IdxYear
	IdxKilometers
	IdxLocation
	IdxPower
	IdxOwnerFourthOrMore
	IdxOwnerSecond
	IdxOwnerThird
	IdxOwnerUnknown
)

// FeatureNames are the request field names in vector order.
var FeatureNames = [VectorLen]string{
	FieldBrand,
	FieldModel,
	FieldYear,
	FieldKilometers,
	FieldLocation,
	FieldPower,
	FieldOwnerFourthOrMore,
	FieldOwnerSecond,
	FieldOwnerThird,
	FieldOwnerUnknown,
}

// FeatureVector is the model input.
type FeatureVector [VectorLen]float64

// Slice returns the vector as a slice for regressors.
func (v FeatureVector) Slice() []float64 {
	out := make([]float64, VectorLen)
	copy(out, v[:])
	return out
}

// LocationSource provides the value used for an unspecified location.
type LocationSource interface {
	LocationFallback() float64
}

// Encoder turns requests into feature vectors. It holds no mutable state.
type Encoder struct {
	locations LocationSource
}

// New returns an Encoder that imputes unspecified locations from src.
func New(src LocationSource) *Encoder {
	return &Encoder{locations: src}
}

// Encode assembles the feature vector for req. Known location codes are
// passed through without a vocabulary check.
func (e *Encoder) Encode(req PredictionRequest) FeatureVector {
	var v FeatureVector
	v[IdxBrand] = req.Brand
	v[IdxModel] = req.Model
	v[IdxYear] = req.Year
	v[IdxKilometers] = req.Kilometers
	v[IdxLocation] = e.ResolveLocation(req.Location)
	v[IdxPower] = req.Power
	v[IdxOwnerFourthOrMore] = indicator(req.OwnerFourthOrMore)
	v[IdxOwnerSecond] = indicator(req.OwnerSecond)
	v[IdxOwnerThird] = indicator(req.OwnerThird)
	v[IdxOwnerUnknown] = indicator(req.OwnerUnknown)
	return v
}

// EncodeJSON parses body and encodes it.
func (e *Encoder) EncodeJSON(body []byte) (FeatureVector, error) {
	req, err := ParseRequest(body)
	if err != nil {
		return FeatureVector{}, err
	}
	return e.Encode(req), nil
}

// ResolveLocation returns the location feature: the code itself, or the
// fallback mean when unspecified.
func (e *Encoder) ResolveLocation(l Location) float64 {
	if code, ok := l.Code(); ok {
		return code
	}
	return e.locations.LocationFallback()
}

// LocationFallback exposes the imputed location value.
func (e *Encoder) LocationFallback() float64 { return e.locations.LocationFallback() }

func indicator(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
