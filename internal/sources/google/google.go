// Package google reads transactions from a Google Sheets spreadsheet.
package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"confronto/internal/core"
	"confronto/internal/sources"
)

// Credentials selects the service account used to access the spreadsheet.
// JSON wins over File; with neither set GOOGLE_APPLICATION_CREDENTIALS is
// consulted.
type Credentials struct {
	JSON string
	File string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// sheetName may contain %d, replaced by the year of the rows to read
	// (e.g. "%d Transactions" reads "2024 Transactions").
	sheetName string
}

var _ sources.TransactionSource = (*Client)(nil)

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, spreadsheetID, sheetName string, creds Credentials, timeout time.Duration) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	sheetName = strings.TrimSpace(sheetName)
	if sheetName == "" {
		sheetName = "Transactions"
	}

	svc, err := newSheetsService(ctx, creds, timeout)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName}, nil
}

func newSheetsService(ctx context.Context, creds Credentials, timeout time.Duration) (*gsheet.Service, error) {
	credsJSON := strings.TrimSpace(creds.JSON)
	credsFile := strings.TrimSpace(creds.File)
	if credsJSON == "" && credsFile == "" {
		credsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var raw []byte
	switch {
	case credsJSON != "":
		slog.DebugContext(ctx, "Using inline service account credentials")
		raw = []byte(credsJSON)
	case credsFile != "":
		slog.DebugContext(ctx, "Reading service account credentials", "path", credsFile)
		b, err := os.ReadFile(credsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		raw = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(raw),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope),
		goption.WithHTTPClient(newHTTPClient(timeout)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// newHTTPClient returns a pooled client; the Sheets API is called a few
// times per run against a single host.
func newHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Client{
		Transport: &http.Transport{
			DialContext:           dialer.DialContext,
			MaxIdleConns:          20,
			MaxIdleConnsPerHost:   10,
			IdleConnTimeout:       90 * time.Second,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
			ForceAttemptHTTP2:     true,
		},
		Timeout: timeout,
	}
}

// FetchTransactions reads every sheet covering [start, end] and returns the
// rows dated within the range.
func (c *Client) FetchTransactions(ctx context.Context, start, end core.Date) ([]core.RawTransaction, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}

	var out []core.RawTransaction
	for _, name := range sheetNames(c.sheetName, start, end) {
		rng := fmt.Sprintf("%s!A:H", quoteSheet(name))
		// Amounts arrive as numbers, dates as displayed.
		resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).
			ValueRenderOption("UNFORMATTED_VALUE").
			DateTimeRenderOption("FORMATTED_STRING").
			Context(ctx).Do()
		if err != nil {
			return nil, fmt.Errorf("%w: read %s: %w", core.ErrUpstream, rng, err)
		}
		rows, err := parseTransactions(resp.Values, start, end)
		if err != nil {
			return nil, fmt.Errorf("sheet %q: %w", name, err)
		}
		slog.DebugContext(ctx, "Read transactions from sheet", "sheet", name, "rows", len(resp.Values), "matched", len(rows))
		out = append(out, rows...)
	}
	return out, nil
}

// sheetNames expands a %d pattern into one sheet per year in [start, end].
func sheetNames(pattern string, start, end core.Date) []string {
	if !strings.Contains(pattern, "%d") {
		return []string{pattern}
	}
	var names []string
	for y := start.Year(); y <= end.Year(); y++ {
		names = append(names, fmt.Sprintf(pattern, y))
	}
	return names
}

func quoteSheet(name string) string {
	if strings.ContainsAny(name, " !'") {
		return "'" + strings.ReplaceAll(name, "'", "''") + "'"
	}
	return name
}
