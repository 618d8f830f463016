package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/bikeprice/core/metrics"
)

// PromSink records prediction events in Prometheus metrics.
type PromSink struct {
	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	prices    prometheus.Histogram
	fallbacks prometheus.Counter
	cacheHits prometheus.Counter
}

// NewPromSink registers prediction metrics on the default Prometheus registerer.
// The Prometheus server should be started separately with StartPromServer.
func NewPromSink() (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "prediction_requests_total",
		Help: "Total number of prediction requests by outcome",
	}, []string{"outcome"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "prediction_latency_seconds",
		Help:    "Time spent encoding and scoring a prediction request",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	prices := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "prediction_price",
		Help:    "Distribution of predicted prices",
		Buckets: prometheus.ExponentialBuckets(5000, 2, 10),
	})
	fallbacks := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "prediction_location_fallback_total",
		Help: "Predictions that used the mean location code",
	})
	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "prediction_cache_hits_total",
		Help: "Predictions served from the cache",
	})

	var err error
	if requests, err = register(reg, requests); err != nil {
		return nil, err
	}
	if latency, err = register(reg, latency); err != nil {
		return nil, err
	}
	if prices, err = register(reg, prices); err != nil {
		return nil, err
	}
	if fallbacks, err = register(reg, fallbacks); err != nil {
		return nil, err
	}
	if cacheHits, err = register(reg, cacheHits); err != nil {
		return nil, err
	}
	return &PromSink{
		requests:  requests,
		latency:   latency,
		prices:    prices,
		fallbacks: fallbacks,
		cacheHits: cacheHits,
	}, nil
}

// register returns the already registered collector when c was registered
// before, so several sinks can share one registry.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		are, ok := err.(prometheus.AlreadyRegisteredError)
		if !ok {
			return c, err
		}
		existing, ok := are.ExistingCollector.(C)
		if !ok {
			return c, err
		}
		return existing, nil
	}
	return c, nil
}

// RecordPrediction updates the counters and histograms for ev.
func (s *PromSink) RecordPrediction(ev coremetrics.PredictionEvent) error {
	outcome := string(ev.Outcome)
	s.requests.WithLabelValues(outcome).Inc()
	s.latency.WithLabelValues(outcome).Observe(ev.Latency.Seconds())
	if ev.Outcome != coremetrics.OutcomeSuccess {
		return nil
	}
	s.prices.Observe(ev.Prediction)
	if ev.LocationImputed {
		s.fallbacks.Inc()
	}
	if ev.Cached {
		s.cacheHits.Inc()
	}
	return nil
}
