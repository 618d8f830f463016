// Package prediction scores used motorbike listings. Service parses and
// encodes a request body, consults an optional price cache, runs the
// regressor and publishes a PredictionEvent for the metrics sinks.
package prediction
