package metrics

import (
	"context"

	coremetrics "github.com/kilianp07/bikeprice/core/metrics"
	"github.com/kilianp07/bikeprice/core/monitoring"
	"github.com/kilianp07/bikeprice/infra/logger"
	"github.com/kilianp07/bikeprice/internal/eventbus"
)

// StartEventCollector subscribes to the bus and forwards every prediction
// event to sink, keeping sink I/O off the request path. It stops when ctx
// is canceled or the bus is closed; the returned channel is closed once the
// collector has exited, after draining events already buffered.
func StartEventCollector(ctx context.Context, bus *eventbus.TypedBus[coremetrics.PredictionEvent], sink coremetrics.MetricsSink, log logger.Logger) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	sub := bus.Subscribe()
	record := func(ev coremetrics.PredictionEvent) {
		if err := sink.RecordPrediction(ev); err != nil {
			log.Warnf("record prediction %s: %v", ev.ID, err)
		}
	}
	go func() {
		defer close(done)
		defer monitoring.Recover()
		for {
			select {
			case <-ctx.Done():
				bus.Unsubscribe(sub)
				for ev := range sub {
					record(ev)
				}
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				record(ev)
			}
		}
	}()
	return done
}
