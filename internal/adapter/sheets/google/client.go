// Package google reads spreadsheet tabs through the Google Sheets API v4
// values endpoint, authenticated with an API key.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/heartmarshall/annotext/internal/domain"
)

const (
	DefaultBaseURL = "https://sheets.googleapis.com/v4/spreadsheets"

	// firstSheetRange addresses the first visible tab when no tab name is given.
	firstSheetRange = "A:ZZ"

	// apiKeyHeader carries the API key. The key must not appear in the
	// request URL, which transport errors print.
	apiKeyHeader = "X-goog-api-key"
)

// Client fetches tab values from the Sheets API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient creates a Client for the public Sheets API.
func NewClient(apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	return NewClientWithURL(DefaultBaseURL, apiKey, timeout, logger)
}

// NewClientWithURL creates a Client with a custom base URL (for testing).
func NewClientWithURL(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
		log:        logger.With(slog.String("adapter", "google_sheets")),
	}
}

// FetchSheet returns the formatted cell values of one tab. An empty tabName
// selects the first tab. Unknown sheets and tabs yield a *domain.FetchError
// wrapping domain.ErrSheetNotFound. Requests are not retried.
func (c *Client) FetchSheet(ctx context.Context, sheetID, tabName string) (domain.SheetGrid, error) {
	reqURL := fmt.Sprintf("%s/%s/values/%s",
		c.baseURL,
		url.PathEscape(sheetID),
		url.PathEscape(a1Range(tabName)),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, c.fetchErr(sheetID, tabName, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set(apiKeyHeader, c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.ErrorContext(ctx, "sheets request failed",
			slog.String("sheet_id", sheetID),
			slog.String("tab", tabName),
			slog.String("error", err.Error()),
		)
		return nil, c.fetchErr(sheetID, tabName, fmt.Errorf("request failed: %w", err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.fetchErr(sheetID, tabName, fmt.Errorf("read body: %w", err))
	}

	switch {
	case resp.StatusCode == http.StatusNotFound, resp.StatusCode == http.StatusBadRequest:
		return nil, c.fetchErr(sheetID, tabName, fmt.Errorf("%w: %s", domain.ErrSheetNotFound, apiMessage(body, resp.StatusCode)))
	case resp.StatusCode != http.StatusOK:
		return nil, c.fetchErr(sheetID, tabName, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, apiMessage(body, resp.StatusCode)))
	}

	var vr valueRange
	if err := json.Unmarshal(body, &vr); err != nil {
		return nil, c.fetchErr(sheetID, tabName, fmt.Errorf("decode json: %w", err))
	}
	grid := vr.grid()

	c.log.DebugContext(ctx, "sheets response",
		slog.String("sheet_id", sheetID),
		slog.String("tab", tabName),
		slog.Int("rows", len(grid)),
		slog.Duration("duration", time.Since(start)),
	)
	return grid, nil
}

func (c *Client) fetchErr(sheetID, tab string, err error) error {
	return &domain.FetchError{SheetID: sheetID, Tab: tab, Err: err}
}

// a1Range quotes a tab name for A1 notation.
func a1Range(tabName string) string {
	if tabName == "" {
		return firstSheetRange
	}
	return "'" + strings.ReplaceAll(tabName, "'", "''") + "'"
}
