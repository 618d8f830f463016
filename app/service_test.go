package app

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/bikeprice/config"
	"github.com/kilianp07/bikeprice/core/factory"
	coremetrics "github.com/kilianp07/bikeprice/core/metrics"
)

const body = `{
	"brand": 9, "model": 36, "year": 2020, "kilometers": 5000, "location": -1,
	"power": 12, "owner_Second Owner": 1, "owner_Third Owner": 0,
	"owner_Fourth Owner Or More": 0, "owner_Unknown": 0
}`

func testConfig(model config.ModelConfig) *config.Config {
	cfg := &config.Config{
		Model:   model,
		Metrics: coremetrics.Config{Sinks: []factory.ModuleConfig{{Type: "nop"}}},
	}
	cfg.Server.Address = "127.0.0.1:0"
	cfg.SetDefaults()
	return cfg
}

func TestService_ServeAndShutdown(t *testing.T) {
	cfg := testConfig(config.ModelConfig{Type: "constant", Conf: map[string]any{"value": 48000}, Serialize: true})
	svc, err := New(cfg)
	require.NoError(t, err)
	defer func() { assert.NoError(t, svc.Close()) }()
	assert.Equal(t, 231.0, svc.Registry.LocationFallback())
	assert.True(t, svc.Predictor.Ready())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- svc.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String()
	resp, err := http.Post(url+"/predict", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	var out map[string]float64
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 48000.0, out["prediction"])

	cancel()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("service did not stop")
	}
}

func TestService_OptionalModel(t *testing.T) {
	cfg := testConfig(config.ModelConfig{Type: "linear", Conf: map[string]any{"path": "missing.json"}, Optional: true})
	svc, err := New(cfg)
	require.NoError(t, err)
	defer svc.Close()
	assert.False(t, svc.Predictor.Ready())

	_, err = New(testConfig(config.ModelConfig{Type: "linear", Conf: map[string]any{"path": "missing.json"}}))
	assert.Error(t, err)
}

func TestNew_Errors(t *testing.T) {
	cfg := testConfig(config.ModelConfig{Type: "constant"})
	cfg.Vocabulary.Path = "missing.yaml"
	_, err := New(cfg)
	assert.ErrorContains(t, err, "vocabulary")

	cfg = testConfig(config.ModelConfig{Type: "constant"})
	cfg.Cache = factory.ModuleConfig{Type: "memcached"}
	_, err = New(cfg)
	assert.ErrorContains(t, err, "cache")

	cfg = testConfig(config.ModelConfig{Type: "constant"})
	cfg.Metrics.Sinks = []factory.ModuleConfig{{Type: "statsd"}}
	_, err = New(cfg)
	assert.ErrorContains(t, err, "metrics")
}
