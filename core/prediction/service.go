package prediction

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/bikeprice/core/encoder"
	"github.com/kilianp07/bikeprice/core/logger"
	"github.com/kilianp07/bikeprice/core/metrics"
	"github.com/kilianp07/bikeprice/core/regressor"
	"github.com/kilianp07/bikeprice/internal/eventbus"
)

// ErrModelUnavailable is returned when the service runs without a model.
var ErrModelUnavailable = errors.New("prediction model is not loaded")

// Result is a successful prediction.
type Result struct {
	ID              string
	Prediction      float64
	Features        encoder.FeatureVector
	LocationImputed bool
	Cached          bool
}

// Service answers prediction requests. It is safe for concurrent use when
// the regressor and cache are.
type Service struct {
	enc    *encoder.Encoder
	model  regressor.Regressor
	cache  Cache
	events *eventbus.TypedBus[metrics.PredictionEvent]
	log    logger.Logger
	now    func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithCache enables price caching.
func WithCache(c Cache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

// WithEvents publishes one PredictionEvent per request on bus.
func WithEvents(bus *eventbus.TypedBus[metrics.PredictionEvent]) Option {
	return func(s *Service) { s.events = bus }
}

// NewService creates a Service. A nil model is allowed; Predict then fails
// with ErrModelUnavailable.
func NewService(enc *encoder.Encoder, model regressor.Regressor, log logger.Logger, opts ...Option) *Service {
	if log == nil {
		log = nopLogger{}
	}
	s := &Service{
		enc:   enc,
		model: model,
		cache: NopCache{},
		log:   log,
		now:   time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Ready reports whether a model is loaded.
func (s *Service) Ready() bool { return s.model != nil }

// Predict scores a raw JSON request body.
func (s *Service) Predict(ctx context.Context, body []byte) (Result, error) {
	start := s.now()
	res, err := s.predict(ctx, body)
	s.publish(res, err, start)
	if err != nil {
		s.log.Debugw("prediction failed", map[string]any{"id": res.ID, "error": err.Error()})
		return res, err
	}
	s.log.Debugw("prediction", map[string]any{
		"id":               res.ID,
		"price":            res.Prediction,
		"location_imputed": res.LocationImputed,
		"cached":           res.Cached,
	})
	return res, nil
}

func (s *Service) predict(ctx context.Context, body []byte) (Result, error) {
	res := Result{ID: uuid.NewString()}
	if s.model == nil {
		return res, ErrModelUnavailable
	}
	req, err := encoder.ParseRequest(body)
	if err != nil {
		return res, err
	}
	res.Features = s.enc.Encode(req)
	_, known := req.Location.Code()
	res.LocationImputed = !known

	key := CacheKey(res.Features)
	if price, ok, err := s.cache.Get(ctx, key); err != nil {
		s.log.Warnf("cache get %s: %v", res.ID, err)
	} else if ok {
		res.Prediction = price
		res.Cached = true
		return res, nil
	}

	price, err := s.model.Predict(ctx, res.Features.Slice())
	if err == nil && (math.IsNaN(price) || math.IsInf(price, 0)) {
		err = fmt.Errorf("non-finite prediction %v", price)
	}
	if err != nil {
		if !errors.Is(err, regressor.ErrInference) {
			err = &regressor.InferenceError{Err: err}
		}
		return res, err
	}
	res.Prediction = price
	if err := s.cache.Set(ctx, key, price); err != nil {
		s.log.Warnf("cache set %s: %v", res.ID, err)
	}
	return res, nil
}

func (s *Service) publish(res Result, err error, start time.Time) {
	if s.events == nil {
		return
	}
	outcome, field := OutcomeOf(err)
	ev := metrics.PredictionEvent{
		ID:              res.ID,
		Outcome:         outcome,
		Field:           field,
		LocationImputed: res.LocationImputed,
		Cached:          res.Cached,
		Latency:         s.now().Sub(start),
		Time:            start,
	}
	if err == nil {
		ev.Prediction = res.Prediction
		ev.Features = res.Features.Slice()
	}
	s.events.Publish(ev)
}

// OutcomeOf classifies a Predict error and returns the offending field for
// client errors.
func OutcomeOf(err error) (metrics.Outcome, string) {
	var (
		missing   *encoder.MissingFieldError
		malformed *encoder.MalformedInputError
	)
	switch {
	case err == nil:
		return metrics.OutcomeSuccess, ""
	case errors.As(err, &missing):
		return metrics.OutcomeMissingField, missing.Field
	case errors.As(err, &malformed):
		return metrics.OutcomeMalformed, malformed.Field
	case errors.Is(err, ErrModelUnavailable):
		return metrics.OutcomeUnavailable, ""
	default:
		return metrics.OutcomeModelError, ""
	}
}

type nopLogger struct{}

func (nopLogger) Debugf(string, ...any)         {}
func (nopLogger) Debugw(string, map[string]any) {}
func (nopLogger) Infof(string, ...any)          {}
func (nopLogger) Infow(string, map[string]any)  {}
func (nopLogger) Warnf(string, ...any)          {}
func (nopLogger) Errorf(string, ...any)         {}
