package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/kilianp07/bikeprice/api/predict"
	"github.com/kilianp07/bikeprice/config"
	"github.com/kilianp07/bikeprice/core/encoder"
	coremetrics "github.com/kilianp07/bikeprice/core/metrics"
	coremon "github.com/kilianp07/bikeprice/core/monitoring"
	"github.com/kilianp07/bikeprice/core/prediction"
	"github.com/kilianp07/bikeprice/core/regressor"
	"github.com/kilianp07/bikeprice/core/vocabulary"
	_ "github.com/kilianp07/bikeprice/infra/cache"
	"github.com/kilianp07/bikeprice/infra/logger"
	"github.com/kilianp07/bikeprice/infra/metrics"
	"github.com/kilianp07/bikeprice/infra/monitoring"
	_ "github.com/kilianp07/bikeprice/infra/regressor"
	"github.com/kilianp07/bikeprice/internal/eventbus"
)

// Service wires the vocabulary, the model and the HTTP API.
type Service struct {
	Registry  *vocabulary.Registry
	Predictor *prediction.Service

	server          *http.Server
	model           regressor.Regressor
	cache           prediction.Cache
	sink            coremetrics.MetricsSink
	bus             *eventbus.TypedBus[coremetrics.PredictionEvent]
	promPort        string
	shutdownTimeout time.Duration
	log             logger.Logger
}

// LoadVocabulary loads the configured vocabulary, or the embedded one.
func LoadVocabulary(cfg *config.Config) (*vocabulary.Registry, error) {
	reg, err := vocabulary.Load(cfg.Vocabulary.Path)
	if err != nil {
		return nil, fmt.Errorf("vocabulary: %w", err)
	}
	return reg, nil
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	if err := logger.SetLevel(cfg.Logging.Level); err != nil {
		return nil, err
	}
	logg := logger.New("service")

	monitor, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.Init(monitor)

	reg, err := LoadVocabulary(cfg)
	if err != nil {
		return nil, err
	}
	logg.Infof("vocabulary loaded, location fallback %.1f", reg.LocationFallback())

	model, err := loadModel(cfg.Model, logg)
	if err != nil {
		return nil, err
	}

	cache, err := prediction.NewCache(cfg.Cache)
	if err != nil {
		_ = regressor.Close(model)
		return nil, fmt.Errorf("cache: %w", err)
	}

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		_ = regressor.Close(model)
		_ = prediction.CloseCache(cache)
		return nil, fmt.Errorf("metrics: %w", err)
	}

	bus := eventbus.NewTyped[coremetrics.PredictionEvent](256)
	svc := prediction.NewService(encoder.New(reg), model, logger.New("prediction"),
		prediction.WithCache(cache),
		prediction.WithEvents(bus),
	)
	router := predict.NewRouter(svc, reg, predict.Options{
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		AllowedOrigins: cfg.Server.CORS.AllowedOrigins,
	}, logger.New("http"))

	s := &Service{
		Registry:  reg,
		Predictor: svc,
		server: &http.Server{
			Addr:              cfg.Server.Address,
			Handler:           router,
			ReadHeaderTimeout: 5 * time.Second,
		},
		model:           model,
		cache:           cache,
		sink:            sink,
		bus:             bus,
		shutdownTimeout: cfg.Server.ShutdownTimeout(),
		log:             logg,
	}
	if cfg.Metrics.HasSink("prometheus") {
		s.promPort = cfg.Metrics.PrometheusPort
	}
	return s, nil
}

func loadModel(cfg config.ModelConfig, log logger.Logger) (regressor.Regressor, error) {
	if cfg.Type == "" {
		log.Warnf("no model configured, predictions answer 503")
		return nil, nil
	}
	model, err := regressor.New(cfg.Module())
	if err != nil {
		if cfg.Optional {
			log.Warnf("model %s not loaded: %v", cfg.Type, err)
			return nil, nil
		}
		return nil, fmt.Errorf("model: %w", err)
	}
	log.Infof("model %s loaded", cfg.Type)
	if cfg.Serialize {
		model = regressor.Serialized(model)
	}
	return model, nil
}

// Handler returns the HTTP API handler.
func (s *Service) Handler() http.Handler { return s.server.Handler }

// Run serves HTTP until ctx is cancelled, then drains in-flight requests
// and pending metrics events.
func (s *Service) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.server.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Service) Serve(ctx context.Context, ln net.Listener) error {
	collectorCtx, stopCollector := context.WithCancel(context.Background())
	defer stopCollector()
	done := metrics.StartEventCollector(collectorCtx, s.bus, s.sink, logger.New("collector"))

	if s.promPort != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, s.promPort); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Infof("listening on %s", ln.Addr())
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.shutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		s.log.Errorf("http shutdown: %v", err)
	}
	s.bus.Close()
	<-done
	coremon.Flush(2 * time.Second)
	if dropped := s.bus.Dropped(); dropped > 0 {
		s.log.Warnf("%d metrics events dropped", dropped)
	}
	return serveErr
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	var errs []error
	if err := regressor.Close(s.model); err != nil {
		errs = append(errs, fmt.Errorf("model: %w", err))
	}
	if err := prediction.CloseCache(s.cache); err != nil {
		errs = append(errs, fmt.Errorf("cache: %w", err))
	}
	if c, ok := s.sink.(coremetrics.Closer); ok {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("metrics: %w", err))
		}
	}
	return errors.Join(errs...)
}
