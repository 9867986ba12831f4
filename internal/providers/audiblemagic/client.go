package audiblemagic

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bomac1193/Issuance/internal/adapter"
	"github.com/bomac1193/Issuance/internal/logger"
	"github.com/bomac1193/Issuance/internal/rightscheck"
)

// PROVIDER_NAME identifies Audible Magic in audit results and metrics
const PROVIDER_NAME = "audible_magic"

// Config holds Audible Magic client configuration
type Config struct {
	// URL is the identification endpoint. Empty runs the client offline.
	URL     string
	APIKey  string
	Timeout time.Duration
}

// IdentifyRequest is the request body of the identification endpoint
type IdentifyRequest struct {
	Fingerprint string `json:"fingerprint"`
}

// IdentifyResponse is the identification endpoint response
type IdentifyResponse struct {
	Match       bool    `json:"match"`
	Confidence  float64 `json:"confidence"`
	MatchedWork *string `json:"matched_work"`
}

// Client implements rightscheck.Provider against the Audible Magic identification API
type Client struct {
	config     Config
	httpClient adapter.HTTPClient
}

// NewClient creates a new Audible Magic client
func NewClient(cfg Config, httpClient adapter.HTTPClient) *Client {
	return &Client{
		config:     cfg,
		httpClient: httpClient,
	}
}

// Name returns the provider name
func (c *Client) Name() string {
	return PROVIDER_NAME
}

// Check identifies the fingerprint against the Audible Magic catalogue
func (c *Client) Check(ctx context.Context, fingerprint string) (rightscheck.Verdict, error) {
	if c.config.URL == "" {
		logger.DebugCtx(ctx, "Audible Magic offline, reporting no match", zap.String("fingerprint", fingerprint))
		return rightscheck.Verdict{}, nil
	}

	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	headers := map[string]string{}
	if c.config.APIKey != "" {
		headers["Authorization"] = "Bearer " + c.config.APIKey
	}

	var resp IdentifyResponse
	if err := c.httpClient.PostJSON(ctx, c.config.URL, headers, IdentifyRequest{Fingerprint: fingerprint}, &resp); err != nil {
		return rightscheck.Verdict{}, fmt.Errorf("failed to call Audible Magic API: %w", err)
	}

	return rightscheck.Verdict{
		Matched:     resp.Match,
		Confidence:  resp.Confidence,
		MatchedWork: resp.MatchedWork,
	}, nil
}
