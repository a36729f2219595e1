package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/surveyline/spotd/internal/geojson"
	"github.com/surveyline/spotd/internal/spot"
)

// HTTPGateway talks to a spots endpoint: GET fetches the document, PUT
// replaces it. The response may be either shape (flat array or
// FeatureCollection); saves always transmit the flat array, matching the
// browser clients.
type HTTPGateway struct {
	url    string
	client *http.Client
}

// NewHTTP creates an HTTP gateway for the given spots URL.
// A nil client uses a default with a 30 second timeout.
func NewHTTP(url string, client *http.Client) *HTTPGateway {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPGateway{url: url, client: client}
}

// URL returns the endpoint URL.
func (g *HTTPGateway) URL() string { return g.url }

// Load fetches the spot document with a GET request.
func (g *HTTPGateway) Load(ctx context.Context) ([]spot.Spot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch spots: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("spots endpoint returned %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return decodeDocument(body)
}

// Save replaces the spot document with a PUT request. Any 2xx status is a
// success; no structured error body is assumed beyond the HTTP status.
func (g *HTTPGateway) Save(ctx context.Context, spots []spot.Spot) error {
	body, err := json.Marshal(spots)
	if err != nil {
		return fmt.Errorf("failed to marshal spots: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, g.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to put spots: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("spots endpoint returned %s", resp.Status)
	}
	return nil
}

// decodeDocument parses a spot document of either wire shape. The shape is
// sniffed from the JSON structure: a top-level array is the flat form,
// an object is a FeatureCollection.
func decodeDocument(data []byte) ([]spot.Spot, error) {
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '[' {
		var spots []spot.Spot
		if err := json.Unmarshal(trimmed, &spots); err != nil {
			return nil, fmt.Errorf("failed to parse spot document: %w", err)
		}
		return spots, nil
	}

	var fc geojson.FeatureCollection
	if err := json.Unmarshal(trimmed, &fc); err != nil {
		return nil, fmt.Errorf("failed to parse spot document: %w", err)
	}
	return fc.ToSpots(), nil
}
