package scenarios

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kilianp07/bikeprice/api/predict"
	"github.com/kilianp07/bikeprice/core/encoder"
	coremetrics "github.com/kilianp07/bikeprice/core/metrics"
	"github.com/kilianp07/bikeprice/core/prediction"
	"github.com/kilianp07/bikeprice/core/regressor"
	"github.com/kilianp07/bikeprice/core/vocabulary"
	"github.com/kilianp07/bikeprice/infra/logger"
	"github.com/kilianp07/bikeprice/infra/metrics"
	"github.com/kilianp07/bikeprice/internal/eventbus"
)

// RunScenario replays sc against the HTTP API backed by the embedded
// vocabulary, a fixed-price model and a Prometheus sink.
func RunScenario(t *testing.T, sc *Scenario) {
	t.Helper()
	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}
	vocab, err := vocabulary.Default()
	if err != nil {
		t.Fatalf("vocabulary: %v", err)
	}

	var (
		mu   sync.Mutex
		seen []float64
	)
	model := regressor.Func(func(_ context.Context, f []float64) (float64, error) {
		mu.Lock()
		seen = append([]float64(nil), f...)
		mu.Unlock()
		return sc.Price, nil
	})

	bus := eventbus.NewTyped[coremetrics.PredictionEvent](len(sc.Steps) + 1)
	ctx, cancel := context.WithCancel(context.Background())
	done := metrics.StartEventCollector(ctx, bus, sink, logger.NopLogger{})
	svc := prediction.NewService(encoder.New(vocab), model, logger.NopLogger{}, prediction.WithEvents(bus))
	srv := httptest.NewServer(predict.NewRouter(svc, vocab, predict.Options{}, logger.NopLogger{}))
	defer srv.Close()

	for _, step := range sc.Steps {
		mu.Lock()
		seen = nil
		mu.Unlock()

		body, err := step.Body()
		if err != nil {
			t.Fatalf("%s: encode body: %v", step.Name, err)
		}
		resp, err := http.Post(srv.URL+"/predict", "application/json", bytes.NewReader(body))
		if err != nil {
			t.Fatalf("%s: post: %v", step.Name, err)
		}
		var out map[string]any
		_ = json.NewDecoder(resp.Body).Decode(&out)
		resp.Body.Close()

		if resp.StatusCode != step.Expect.Status {
			t.Errorf("%s: status %d, want %d (%v)", step.Name, resp.StatusCode, step.Expect.Status, out)
			continue
		}
		if step.Expect.Field != "" && out["field"] != step.Expect.Field {
			t.Errorf("%s: field %v, want %s", step.Name, out["field"], step.Expect.Field)
		}
		if resp.StatusCode != http.StatusOK {
			continue
		}
		if out["prediction"] != sc.Price {
			t.Errorf("%s: prediction %v, want %v", step.Name, out["prediction"], sc.Price)
		}
		mu.Lock()
		got := seen
		mu.Unlock()
		if loc := step.Expect.Location; loc != nil && got[encoder.IdxLocation] != *loc {
			t.Errorf("%s: location feature %v, want %v", step.Name, got[encoder.IdxLocation], *loc)
		}
		if want := step.Expect.Vector; want != nil && !equal(got, want) {
			t.Errorf("%s: vector %v, want %v", step.Name, got, want)
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop")
	}

	counts := outcomeCounts(t, reg)
	for outcome, want := range sc.Outcomes {
		if got := counts[outcome]; got != want {
			t.Errorf("outcome %s: %d requests, want %d", outcome, got, want)
		}
	}
}

// outcomeCounts reads prediction_requests_total per outcome from reg.
func outcomeCounts(t *testing.T, reg *prometheus.Registry) map[string]int {
	t.Helper()
	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	out := map[string]int{}
	for _, mf := range mfs {
		if mf.GetName() != "prediction_requests_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "outcome" {
					out[lp.GetValue()] = int(m.GetCounter().GetValue())
				}
			}
		}
	}
	return out
}

func equal(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
