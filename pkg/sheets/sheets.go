package sheets

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"
)

type Config struct {
	CredentialsFile string        `split_words:"true"`
	SpreadsheetID   string        `envconfig:"SPREADSHEET_ID" split_words:"true"`
	Range           string        `split_words:"true" default:"Sheet1!A1"`
	Timeout         time.Duration `split_words:"true" default:"15s"`
}

// Enabled reports whether a service account and a target spreadsheet are configured.
func (c Config) Enabled() bool {
	return strings.TrimSpace(c.CredentialsFile) != "" && strings.TrimSpace(c.SpreadsheetID) != ""
}

// Client appends rows to a single spreadsheet range.
type Client struct {
	srv           *sheetsapi.Service
	spreadsheetID string
	rng           string
	timeout       time.Duration
}

// NewClient authenticates with the service account in cfg.CredentialsFile.
// Extra options are appended after the credentials option, so tests can point
// the service at a local endpoint.
func NewClient(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("spreadsheet id is required")
	}

	clientOpts := make([]option.ClientOption, 0, len(opts)+1)
	if path := strings.TrimSpace(cfg.CredentialsFile); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		jwt, err := google.JWTConfigFromJSON(data, sheetsapi.SpreadsheetsScope, drive.DriveScope)
		if err != nil {
			return nil, fmt.Errorf("parse service account: %w", err)
		}
		clientOpts = append(clientOpts, option.WithHTTPClient(jwt.Client(ctx)))
	}
	clientOpts = append(clientOpts, opts...)
	if len(clientOpts) == 0 {
		return nil, errors.New("sheets credentials are required")
	}

	srv, err := sheetsapi.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	rng := strings.TrimSpace(cfg.Range)
	if rng == "" {
		rng = "Sheet1!A1"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	return &Client{srv: srv, spreadsheetID: spreadsheetID, rng: rng, timeout: timeout}, nil
}

// AppendRow inserts row after the last non-empty row of the configured range.
func (c *Client) AppendRow(ctx context.Context, row []string) error {
	values := make([]interface{}, len(row))
	for i, v := range row {
		values[i] = v
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	_, err := c.srv.Spreadsheets.Values.Append(c.spreadsheetID, c.rng, &sheetsapi.ValueRange{
		Values: [][]interface{}{values},
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(callCtx).Do()
	if err != nil {
		return fmt.Errorf("append row to %s: %w", c.spreadsheetID, err)
	}
	return nil
}
