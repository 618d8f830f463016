package predict

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/kilianp07/bikeprice/core/encoder"
	"github.com/kilianp07/bikeprice/core/logger"
	"github.com/kilianp07/bikeprice/core/monitoring"
	"github.com/kilianp07/bikeprice/core/prediction"
	"github.com/kilianp07/bikeprice/core/vocabulary"
	infralogger "github.com/kilianp07/bikeprice/infra/logger"
)

// DefaultMaxBodyBytes bounds a prediction request body.
const DefaultMaxBodyBytes int64 = 1 << 20

// RunningMessage is the body of GET /.
const RunningMessage = "bike price prediction API is running"

const internalErrorMessage = "an error occurred during prediction"

// Predictor scores a raw request body.
type Predictor interface {
	Predict(ctx context.Context, body []byte) (prediction.Result, error)
}

// MappingSource provides the vocabulary shown to clients.
type MappingSource interface {
	Display() vocabulary.DisplayMappings
}

// Options tunes the router.
type Options struct {
	MaxBodyBytes   int64
	AllowedOrigins []string
}

type handler struct {
	predictor Predictor
	mappings  MappingSource
	maxBody   int64
	log       logger.Logger
}

// NewRouter returns the HTTP API: GET /, GET /get_data_mappings and
// POST /predict.
func NewRouter(p Predictor, m MappingSource, opts Options, log logger.Logger) http.Handler {
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	if log == nil {
		log = infralogger.NopLogger{}
	}
	h := &handler{predictor: p, mappings: m, maxBody: opts.MaxBodyBytes, log: log}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.logRequests)
	r.Use(middleware.Recoverer)
	r.Use(reportPanics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/", h.handleRoot)
	r.Get("/get_data_mappings", h.handleMappings)
	r.Post("/predict", h.handlePredict)
	return r
}

func (h *handler) handleRoot(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, RunningMessage)
}

func (h *handler) handleMappings(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, h.mappings.Display())
}

func (h *handler) handlePredict(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, http.StatusRequestEntityTooLarge, "request body too large", encoder.FieldBody)
			return
		}
		respondError(w, http.StatusBadRequest, "could not read request body", encoder.FieldBody)
		return
	}

	res, err := h.predictor.Predict(r.Context(), body)
	if err != nil {
		h.writePredictError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]float64{"prediction": res.Prediction})
}

func (h *handler) writePredictError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		missing   *encoder.MissingFieldError
		malformed *encoder.MalformedInputError
	)
	switch {
	case errors.As(err, &missing):
		respondError(w, http.StatusBadRequest, "missing key in input data: "+missing.Field, missing.Field)
	case errors.As(err, &malformed):
		respondError(w, http.StatusBadRequest, malformed.Error(), malformed.Field)
	case errors.Is(err, prediction.ErrModelUnavailable):
		respondError(w, http.StatusServiceUnavailable, "model not loaded", "")
	default:
		reqID := middleware.GetReqID(r.Context())
		h.log.Errorf("prediction %s failed: %v", reqID, err)
		monitoring.CaptureException(err, map[string]string{"route": "/predict", "request_id": reqID})
		respondError(w, http.StatusInternalServerError, internalErrorMessage, "")
	}
}

func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.log.Debugw("http request", map[string]any{
			"method":      r.Method,
			"path":        r.URL.Path,
			"status":      ww.Status(),
			"bytes":       ww.BytesWritten(),
			"duration_ms": time.Since(start).Milliseconds(),
			"request_id":  middleware.GetReqID(r.Context()),
		})
	})
}

func reportPanics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer monitoring.Recover()
		next.ServeHTTP(w, r)
	})
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message, field string) {
	resp := map[string]string{"error": message}
	if field != "" {
		resp["field"] = field
	}
	respondJSON(w, status, resp)
}
