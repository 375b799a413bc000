package display

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/noah-isme/festival-live-api/internal/models"
	"github.com/noah-isme/festival-live-api/pkg/response"
)

const defaultRequestTimeout = 10 * time.Second

// APIClient reads festival state from the HTTP API.
type APIClient struct {
	baseURL string
	http    *http.Client
}

// NewAPIClient builds a client for baseURL, e.g. http://localhost:8080/api.
func NewAPIClient(baseURL string, httpClient *http.Client) *APIClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultRequestTimeout}
	}
	return &APIClient{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// Leaderboard fetches the current standings.
func (c *APIClient) Leaderboard(ctx context.Context) ([]models.StandingsEntry, error) {
	var body struct {
		Data []models.StandingsEntry `json:"data"`
	}
	if err := c.getJSON(ctx, "/leaderboard", &body); err != nil {
		return nil, err
	}
	return body.Data, nil
}

// Results fetches the most recent results, newest first.
func (c *APIClient) Results(ctx context.Context) ([]models.EnrichedResult, error) {
	var body struct {
		Data []models.EnrichedResult `json:"data"`
	}
	if err := c.getJSON(ctx, "/results", &body); err != nil {
		return nil, err
	}
	return body.Data, nil
}

// Finalized reports whether the festival has been concluded.
func (c *APIClient) Finalized(ctx context.Context) (bool, error) {
	var body models.FinalizeState
	if err := c.getJSON(ctx, "/finalize", &body); err != nil {
		return false, err
	}
	return body.Finalized, nil
}

func (c *APIClient) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Cache-Control", "no-store")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var apiErr response.ErrorBody
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Code != "" {
			return fmt.Errorf("get %s: %d %s: %s", path, resp.StatusCode, apiErr.Code, apiErr.Error)
		}
		return fmt.Errorf("get %s: unexpected status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
