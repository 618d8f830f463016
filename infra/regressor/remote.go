package regressor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kilianp07/bikeprice/auth"
	"github.com/kilianp07/bikeprice/infra/logger"
)

// RemoteConfig points at an inference server speaking the
// {"instances": [...]} / {"predictions": [...]} JSON protocol.
type RemoteConfig struct {
	URL     string            `json:"url"`
	Timeout time.Duration     `json:"timeout"`
	Headers map[string]string `json:"headers"`
	// Auth enables OAuth2 client-credentials tokens when auth_url is set.
	Auth auth.Conf `json:"auth"`
}

// RemoteModel forwards feature vectors to an inference server.
type RemoteModel struct {
	url     string
	headers map[string]string
	client  *http.Client
	creds   *auth.ClientCred
	log     logger.Logger
}

// NewRemoteModel returns a client for cfg.URL. A zero timeout defaults to
// five seconds.
func NewRemoteModel(cfg RemoteConfig) (*RemoteModel, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("remote model url is required")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	m := &RemoteModel{
		url:     cfg.URL,
		headers: cfg.Headers,
		client:  &http.Client{Timeout: cfg.Timeout},
		log:     logger.New("remote-model"),
	}
	if cfg.Auth.Enabled() {
		m.creds = auth.NewClientCred(cfg.Auth)
	}
	return m, nil
}

type remoteRequest struct {
	Instances [][]float64 `json:"instances"`
}

type remoteResponse struct {
	Predictions []float64 `json:"predictions"`
	Error       string    `json:"error,omitempty"`
}

// Predict posts one instance and returns the first prediction. A 401 with
// OAuth2 enabled refreshes the token and retries once.
func (m *RemoteModel) Predict(ctx context.Context, features []float64) (float64, error) {
	payload, err := json.Marshal(remoteRequest{Instances: [][]float64{features}})
	if err != nil {
		return 0, err
	}
	status, body, err := m.post(ctx, payload)
	if err == nil && status == http.StatusUnauthorized && m.creds != nil {
		if _, err = m.creds.ForceRefresh(ctx); err == nil {
			status, body, err = m.post(ctx, payload)
		}
	}
	if err != nil {
		return 0, err
	}
	var out remoteResponse
	if status != http.StatusOK {
		if json.Unmarshal(body, &out) == nil && out.Error != "" {
			return 0, fmt.Errorf("inference server status %d: %s", status, out.Error)
		}
		return 0, fmt.Errorf("inference server status %d", status)
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return 0, fmt.Errorf("decode inference response: %w", err)
	}
	if len(out.Predictions) == 0 {
		return 0, fmt.Errorf("inference server returned no predictions")
	}
	return out.Predictions[0], nil
}

func (m *RemoteModel) post(ctx context.Context, payload []byte) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.url, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range m.headers {
		req.Header.Set(k, v)
	}
	if m.creds != nil {
		if err := m.creds.SetAuthHeader(req); err != nil {
			return 0, nil, fmt.Errorf("model server auth: %w", err)
		}
	}
	resp, err := m.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("call inference server: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			m.log.Warnf("close response body: %v", cerr)
		}
	}()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return 0, nil, fmt.Errorf("read inference response: %w", err)
	}
	return resp.StatusCode, body, nil
}

// Close releases idle connections.
func (m *RemoteModel) Close() error {
	m.client.CloseIdleConnections()
	return nil
}
