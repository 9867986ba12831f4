package pex

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bomac1193/Issuance/internal/adapter"
	"github.com/bomac1193/Issuance/internal/logger"
	"github.com/bomac1193/Issuance/internal/rightscheck"
)

// PROVIDER_NAME identifies Pex in audit results and metrics
const PROVIDER_NAME = "pex"

// Config holds Pex client configuration
type Config struct {
	// URL is the search endpoint. Empty runs the client offline.
	URL     string
	APIKey  string
	Timeout time.Duration
}

// SearchRequest is the request body of the search endpoint
type SearchRequest struct {
	Fingerprint string `json:"fingerprint"`
}

// SearchResponse is the search endpoint response
type SearchResponse struct {
	Match        bool    `json:"match"`
	Confidence   float64 `json:"confidence"`
	MatchedAsset *string `json:"matched_asset"`
}

// Client implements rightscheck.Provider against the Pex search API
type Client struct {
	config     Config
	httpClient adapter.HTTPClient
}

// NewClient creates a new Pex client
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

// Check searches the Pex asset registry for the fingerprint
func (c *Client) Check(ctx context.Context, fingerprint string) (rightscheck.Verdict, error) {
	if c.config.URL == "" {
		logger.DebugCtx(ctx, "Pex offline, reporting no match", zap.String("fingerprint", fingerprint))
		return rightscheck.Verdict{}, nil
	}
	if fingerprint == "" {
		return rightscheck.Verdict{}, fmt.Errorf("fingerprint cannot be empty")
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

	var resp SearchResponse
	if err := c.httpClient.PostJSON(ctx, c.config.URL, headers, SearchRequest{Fingerprint: fingerprint}, &resp); err != nil {
		return rightscheck.Verdict{}, fmt.Errorf("failed to call Pex API: %w", err)
	}

	return rightscheck.Verdict{
		Matched:     resp.Match,
		Confidence:  resp.Confidence,
		MatchedWork: resp.MatchedAsset,
	}, nil
}
