// Package geo resolves a client IP to a coarse location via an external
// lookup service. The lookup is best-effort: callers treat any error as
// "location unknown" and carry on.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/ChengYu2002/juxin-website-backend/internal/config"
)

// Location is the subset of the lookup response the site cares about.
type Location struct {
	Country string
	Region  string
}

// ILookupClient defines the interface for IP geolocation.
type ILookupClient interface {
	Lookup(ctx context.Context, ip string) (*Location, error)
}

// lookupClient implements ILookupClient against an ipapi.co-compatible API.
type lookupClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewLookupClient creates a geo lookup client with the configured timeout.
func NewLookupClient(cfg *config.Config) ILookupClient {
	return &lookupClient{
		baseURL:    strings.TrimRight(cfg.GeoBaseURL, "/"),
		httpClient: &http.Client{Timeout: cfg.GeoTimeout},
	}
}

type lookupResponse struct {
	CountryName string `json:"country_name"`
	Region      string `json:"region"`
}

// Lookup fetches `<base>/<ip>/json/` and extracts country/region.
// Non-2xx responses and malformed bodies are returned as errors.
func (c *lookupClient) Lookup(ctx context.Context, ip string) (*Location, error) {
	if strings.TrimSpace(ip) == "" {
		return nil, fmt.Errorf("empty ip")
	}

	reqURL := fmt.Sprintf("%s/%s/json/", c.baseURL, url.PathEscape(ip))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create geo request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geo lookup failed for %s: %w", ip, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("geo lookup returned status %d for %s", resp.StatusCode, ip)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return nil, fmt.Errorf("failed to read geo response: %w", err)
	}

	var parsed lookupResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("malformed geo response for %s: %w", ip, err)
	}

	return &Location{Country: parsed.CountryName, Region: parsed.Region}, nil
}
