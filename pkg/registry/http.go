package registry

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// HTTPConfig configures the gateway client.
type HTTPConfig struct {
	BaseURL       string
	APIKey        string
	InstitutionID string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
}

// HTTPAdapter forwards submissions to the registry gateway as JSON.
// The gateway owns the MEBBIS session, credentials and wire protocol.
type HTTPAdapter struct {
	cfg     HTTPConfig
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

type gatewayPayload struct {
	InstitutionID string  `json:"institutionId,omitempty"`
	DryRun        bool    `json:"dryRun"`
	Enrollment    Request `json:"enrollment"`
}

// NewHTTPAdapter constructs the adapter. A zero RatePerSecond disables throttling.
func NewHTTPAdapter(cfg HTTPConfig, logger *zap.Logger) *HTTPAdapter {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	limiter := rate.NewLimiter(rate.Inf, cfg.Burst)
	if cfg.RatePerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst)
	}
	return &HTTPAdapter{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: limiter,
		logger:  logger,
	}
}

// Transfer implements Adapter.
func (a *HTTPAdapter) Transfer(ctx context.Context, req Request, dryRun bool) (Result, error) {
	if err := a.limiter.Wait(ctx); err != nil {
		return Result{}, fmt.Errorf("registry rate limit: %w", err)
	}

	body, err := json.Marshal(gatewayPayload{InstitutionID: a.cfg.InstitutionID, DryRun: dryRun, Enrollment: req})
	if err != nil {
		return Result{}, fmt.Errorf("marshal registry request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.BaseURL+"/transfers", bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("build registry request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	if a.cfg.APIKey != "" {
		httpReq.Header.Set("X-API-Key", a.cfg.APIKey)
	}

	start := time.Now()
	resp, err := a.client.Do(httpReq)
	if err != nil {
		return Result{}, fmt.Errorf("registry request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Result{}, fmt.Errorf("read registry response: %w", err)
	}
	a.logger.Debug("registry response",
		zap.String("enrollment_id", req.EnrollmentID),
		zap.Int("status", resp.StatusCode),
		zap.Duration("latency", time.Since(start)),
	)

	if resp.StatusCode >= http.StatusInternalServerError {
		return Result{}, fmt.Errorf("registry gateway returned %d", resp.StatusCode)
	}

	var result Result
	if err := json.Unmarshal(raw, &result); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			// Proxies in front of the gateway answer with HTML or plain text.
			return Rejected(fmt.Sprintf("HTTP_%d", resp.StatusCode), rejectionText(resp, raw)), nil
		}
		return Result{}, fmt.Errorf("decode registry response (status %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		result.Success = false
		if result.ErrorCode == "" {
			result.ErrorCode = fmt.Sprintf("HTTP_%d", resp.StatusCode)
		}
	}
	if !result.Success && result.ErrorMessage == "" {
		result.ErrorMessage = "registry rejected the enrollment"
	}
	return result, nil
}

func rejectionText(resp *http.Response, raw []byte) string {
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return resp.Status
	}
	if len(text) > 512 {
		text = text[:512]
	}
	return text
}
