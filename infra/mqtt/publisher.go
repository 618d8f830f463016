package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/kilianp07/bikeprice/core/encoder"
	coremetrics "github.com/kilianp07/bikeprice/core/metrics"
	"github.com/kilianp07/bikeprice/infra/logger"
)

// EventPublisher publishes prediction events as JSON messages. It
// implements metrics.MetricsSink.
type EventPublisher struct {
	cli        pahoClient
	topic      string
	qos        byte
	retain     bool
	maxRetries int
	backoff    time.Duration
	log        logger.Logger
}

// Message is the JSON payload published for each prediction event.
type Message struct {
	ID              string             `json:"id"`
	Outcome         string             `json:"outcome"`
	Field           string             `json:"field,omitempty"`
	Prediction      *float64           `json:"prediction,omitempty"`
	Features        map[string]float64 `json:"features,omitempty"`
	LocationImputed bool               `json:"location_imputed"`
	Cached          bool               `json:"cached"`
	LatencyMS       float64            `json:"latency_ms"`
	Timestamp       int64              `json:"timestamp"`
}

// NewEventPublisher connects to the broker described by cfg.
func NewEventPublisher(cfg Config) (*EventPublisher, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	opts, err := NewClientOptions(cfg)
	if err != nil {
		return nil, err
	}
	log := logger.New("mqtt-publisher")
	opts.OnConnect = func(paho.Client) {
		log.Infof("MQTT connected to %s", cfg.Broker)
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		log.Errorf("connection lost: %v", err)
	}
	opts.OnReconnecting = func(paho.Client, *paho.ClientOptions) {
		log.Warnf("reconnecting to MQTT broker")
	}
	c := newMQTTClient(opts)
	if token := c.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("mqtt connect: %w", token.Error())
	}
	return &EventPublisher{
		cli:        c,
		topic:      cfg.Topic,
		qos:        cfg.QoS,
		retain:     cfg.Retain,
		maxRetries: cfg.MaxRetries,
		backoff:    time.Duration(cfg.BackoffMS) * time.Millisecond,
		log:        log,
	}, nil
}

// NewMessage converts an event to its wire payload.
func NewMessage(ev coremetrics.PredictionEvent) Message {
	msg := Message{
		ID:              ev.ID,
		Outcome:         string(ev.Outcome),
		Field:           ev.Field,
		LocationImputed: ev.LocationImputed,
		Cached:          ev.Cached,
		LatencyMS:       float64(ev.Latency.Microseconds()) / 1000,
		Timestamp:       ev.Time.UnixMilli(),
	}
	if ev.Outcome == coremetrics.OutcomeSuccess {
		p := ev.Prediction
		msg.Prediction = &p
		msg.Features = make(map[string]float64, len(ev.Features))
		for i, f := range ev.Features {
			if i < encoder.VectorLen {
				msg.Features[encoder.FeatureNames[i]] = f
			}
		}
	}
	return msg
}

// RecordPrediction publishes ev, retrying with exponential backoff.
func (p *EventPublisher) RecordPrediction(ev coremetrics.PredictionEvent) error {
	payload, err := json.Marshal(NewMessage(ev))
	if err != nil {
		return err
	}
	var publishErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		token := p.cli.Publish(p.topic, p.qos, p.retain, payload)
		token.Wait()
		publishErr = token.Error()
		if publishErr == nil {
			p.log.Debugf("published prediction %s to %s", ev.ID, p.topic)
			return nil
		}
		p.log.Errorf("publish attempt %d failed: %v", attempt+1, publishErr)
		if attempt < p.maxRetries {
			time.Sleep(p.backoff * time.Duration(1<<attempt))
		}
	}
	return publishErr
}

// Close gracefully closes the MQTT connection.
func (p *EventPublisher) Close() error {
	if p.cli.IsConnected() {
		p.cli.Disconnect(250)
	}
	return nil
}
