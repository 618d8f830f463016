// Package metrics implements the prediction metrics sinks: Prometheus
// counters and histograms, InfluxDB points and MQTT event messages.
// Importing it registers the sinks with core/metrics. StartEventCollector
// drains the service event bus into a sink in the background.
package metrics
