// Package metrics defines the sink interface used to observe prediction
// requests. Sinks are built from configuration through a factory registry;
// infra/metrics registers the Prometheus, InfluxDB and MQTT sinks. When
// several sinks are configured NewMetricsSink returns a MultiSink.
package metrics
