// Package sheets downloads published spreadsheet tabs as CSV and decodes
// them into the raw 2-D string grid the schedule scanner consumes.
// Quoted fields — embedded delimiters, newlines inside cells, doubled-quote
// escapes — are resolved here, before cells reach the engine.
package sheets

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkondratev/eventprog/internal/domain"
)

// DefaultBaseURL is the public spreadsheet export endpoint.
const DefaultBaseURL = "https://docs.google.com/spreadsheets/d"

// Client fetches CSV exports of one spreadsheet's tabs.
type Client struct {
	// BaseURL is the export endpoint prefix; tests point it at a local server.
	BaseURL string
	// SheetID is the published document id.
	SheetID string

	httpClient *http.Client
}

// NewClient returns a Client for the given document with a bounded-timeout
// HTTP client. The engine itself performs no I/O; this is the single
// transport boundary in front of it.
func NewClient(sheetID string) *Client {
	return &Client{
		BaseURL: DefaultBaseURL,
		SheetID: sheetID,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// FetchGrid downloads one tab (by gid) and decodes it into rows of cells.
// Any transport or HTTP-status failure wraps domain.ErrUnavailable: callers
// report it as "data unavailable" without decomposing further.
func (c *Client) FetchGrid(ctx context.Context, gid string) ([][]string, error) {
	url := fmt.Sprintf("%s/%s/export?format=csv&gid=%s", c.BaseURL, c.SheetID, gid)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("sheets: build request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sheets: fetch gid %s: %v: %w", gid, err, domain.ErrUnavailable)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sheets: fetch gid %s: status %d: %w", gid, resp.StatusCode, domain.ErrUnavailable)
	}

	grid, err := DecodeCSV(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("sheets: decode gid %s: %v: %w", gid, err, domain.ErrUnavailable)
	}
	return grid, nil
}

// FetchMeta downloads the optional key/value meta tab. Each row contributes
// one entry: the first cell (lowercased) is the key, the remaining cells
// joined with "," form the value. Rows without both parts are ignored.
func (c *Client) FetchMeta(ctx context.Context, gid string) (map[string]string, error) {
	grid, err := c.FetchGrid(ctx, gid)
	if err != nil {
		return nil, err
	}

	meta := make(map[string]string)
	for _, row := range grid {
		if len(row) < 2 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(row[0]))
		value := strings.TrimSpace(strings.Join(row[1:], ","))
		if key != "" && value != "" {
			meta[key] = value
		}
	}
	return meta, nil
}

// DecodeCSV reads quoted-field-aware CSV into rows of cells. Rows whose
// cells are all blank are dropped; ragged rows are kept as-is (the scanner
// treats missing trailing cells as empty).
func DecodeCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var rows [][]string
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if !blankRow(record) {
			rows = append(rows, record)
		}
	}
	return rows, nil
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
