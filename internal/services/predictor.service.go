package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"rigcheck/internal/config"
	"rigcheck/internal/models"
	"rigcheck/internal/observability"

	"github.com/felixgeelhaar/fortify/retry"
	"github.com/felixgeelhaar/fortify/timeout"
)

const maxPredictionBody = 1 << 20

// Predictor is an independent bottleneck opinion used for the agreement flag
type Predictor interface {
	Predict(ctx context.Context, components map[models.ComponentKind]models.CanonicalComponent) (*Prediction, error)
}

type predictRequest struct {
	CPU string `json:"cpu"`
	GPU string `json:"gpu"`
	RAM string `json:"ram"`
}

// RemotePredictor calls an external /predict/ endpoint
type RemotePredictor struct {
	endpoint   string
	httpClient *http.Client
	retryCfg   retry.Config
	timeout    time.Duration
	cache      *TTLCache[*Prediction]
	metrics    *observability.Metrics
}

// NewRemotePredictor returns nil when no URL is configured
func NewRemotePredictor(cfg config.PredictorConfig, metrics *observability.Metrics) *RemotePredictor {
	if cfg.URL == "" {
		return nil
	}
	attempts := cfg.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	callTimeout := cfg.Timeout
	if callTimeout <= 0 {
		callTimeout = 5 * time.Second
	}
	return &RemotePredictor{
		endpoint:   strings.TrimRight(cfg.URL, "/") + "/predict/",
		httpClient: &http.Client{},
		retryCfg: retry.Config{
			MaxAttempts:   attempts,
			InitialDelay:  100 * time.Millisecond,
			BackoffPolicy: retry.BackoffExponential,
		},
		timeout: callTimeout,
		cache:   NewTTLCache[*Prediction](cfg.CacheTTL),
		metrics: metrics,
	}
}

// Predict asks the remote service about already-resolved components.
// Canonical names are sent so the remote sees clean input.
func (p *RemotePredictor) Predict(ctx context.Context, components map[models.ComponentKind]models.CanonicalComponent) (*Prediction, error) {
	key := components[models.KindCPU].CanonicalID + "|" +
		components[models.KindGPU].CanonicalID + "|" +
		components[models.KindRAM].CanonicalID
	if cached, ok := p.cache.Get(key); ok {
		p.count("cached")
		return cached, nil
	}

	body, err := json.Marshal(predictRequest{
		CPU: components[models.KindCPU].Name,
		GPU: components[models.KindGPU].Name,
		RAM: components[models.KindRAM].Name,
	})
	if err != nil {
		return nil, fmt.Errorf("encode predict request: %w", err)
	}

	r := retry.New[[]byte](p.retryCfg)
	t := timeout.New[[]byte](timeout.Config{DefaultTimeout: p.timeout})
	payload, err := t.Execute(ctx, p.timeout, func(ctx context.Context) ([]byte, error) {
		return r.Do(ctx, func(ctx context.Context) ([]byte, error) {
			return p.post(ctx, body)
		})
	})
	if err != nil {
		p.count("error")
		return nil, fmt.Errorf("predictor %s: %w", p.endpoint, err)
	}

	prediction := ParsePrediction(payload)
	if !prediction.Decoded {
		p.count("undecodable")
		return &prediction, nil
	}
	p.count("ok")
	p.cache.Set(key, &prediction)
	return &prediction, nil
}

func (p *RemotePredictor) post(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPredictionBody))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return data, nil
}

func (p *RemotePredictor) count(status string) {
	if p.metrics != nil {
		p.metrics.PredictorRequestsTotal.WithLabelValues(status).Inc()
	}
}
