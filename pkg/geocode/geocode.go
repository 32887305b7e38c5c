// Package geocode is the optional enrichment boundary: given an address it
// returns coordinates or nothing. Callers treat every failure as "no
// coordinates" — a slow or broken geocoder must never abort an ingest run.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// Result is a successfully geocoded address.
type Result struct {
	Latitude         float64
	Longitude        float64
	FormattedAddress string
}

// Geocoder resolves an address to coordinates. Returns (nil, nil) when the
// provider has no result for the address.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*Result, error)
}

// Client calls the Google Geocoding API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

var _ Geocoder = (*Client)(nil)

// NewClient creates a geocoding client.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress string `json:"formatted_address"`
		Geometry         struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Geocode resolves one address. A non-OK provider status is not an error,
// just an empty result.
func (c *Client) Geocode(ctx context.Context, address string) (*Result, error) {
	q := url.Values{}
	q.Set("address", address)
	q.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build geocode request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("geocode request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("geocode request returned status %d", resp.StatusCode)
	}

	var body geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode geocode response: %w", err)
	}

	if body.Status != "OK" || len(body.Results) == 0 {
		return nil, nil
	}

	r0 := body.Results[0]
	return &Result{
		Latitude:         r0.Geometry.Location.Lat,
		Longitude:        r0.Geometry.Location.Lng,
		FormattedAddress: r0.FormattedAddress,
	}, nil
}
