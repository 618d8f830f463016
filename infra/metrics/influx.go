package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/kilianp07/bikeprice/core/encoder"
	coremetrics "github.com/kilianp07/bikeprice/core/metrics"
	"github.com/kilianp07/bikeprice/infra/logger"
)

// InfluxConfig locates the bucket prediction events are written to.
type InfluxConfig struct {
	URL    string `json:"url"`
	Token  string `json:"token"`
	Org    string `json:"org"`
	Bucket string `json:"bucket"`
}

// InfluxSink writes prediction events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg InfluxConfig) *InfluxSink {
	base := strings.TrimSuffix(cfg.URL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.Token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.Org, cfg.Bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg InfluxConfig) coremetrics.MetricsSink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordPrediction writes ev as a prediction_event point. Successful
// predictions carry the price and the encoded features as fields.
func (s *InfluxSink) RecordPrediction(ev coremetrics.PredictionEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("prediction_event").
		AddTag("outcome", string(ev.Outcome)).
		AddTag("location_imputed", strconv.FormatBool(ev.LocationImputed)).
		AddTag("cached", strconv.FormatBool(ev.Cached)).
		AddTag("component", "prediction_service").
		AddField("request_id", ev.ID).
		AddField("latency_ms", round3(ev.Latency.Seconds()*1000))
	if ev.Field != "" {
		p = p.AddTag("field", ev.Field)
	}
	if ev.Outcome == coremetrics.OutcomeSuccess {
		p = p.AddField("prediction", round3(ev.Prediction))
		for i, f := range ev.Features {
			if i >= encoder.VectorLen {
				break
			}
			p = p.AddField("f_"+fieldKey(encoder.FeatureNames[i]), f)
		}
	}
	p = p.SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the client.
func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}

func fieldKey(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", "_"))
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
