package google

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"troop-backend/internal/domain"
	"troop-backend/internal/logger"
)

type SheetsClient struct {
	svc        *sheets.Service
	sheetID    string
	queueRange string
	now        func() time.Time
}

func NewSheetsClient(ctx context.Context, apiKey, sheetID, queueRange string, opts ...option.ClientOption) (*SheetsClient, error) {
	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &SheetsClient{svc: svc, sheetID: sheetID, queueRange: queueRange, now: time.Now}, nil
}

// ReadRange reads an A1 range. The first row names the columns; every later
// row becomes a map keyed by those names. Blank header cells are skipped.
func (c *SheetsClient) ReadRange(ctx context.Context, rng string) ([]map[string]string, error) {
	logger.ExternalServiceCall("google-sheets", "values.get", "range", rng)
	resp, err := c.svc.Spreadsheets.Values.Get(c.sheetID, rng).Context(ctx).Do()
	logger.ExternalServiceResult("google-sheets", "values.get", err, "range", rng)
	if err != nil {
		return nil, err
	}

	out := []map[string]string{}
	if len(resp.Values) == 0 {
		return out, nil
	}
	header := make([]string, len(resp.Values[0]))
	for i, cell := range resp.Values[0] {
		header[i] = strings.TrimSpace(fmt.Sprint(cell))
	}
	for _, row := range resp.Values[1:] {
		rec := make(map[string]string, len(header))
		empty := true
		for i, name := range header {
			if name == "" {
				continue
			}
			v := ""
			if i < len(row) {
				v = strings.TrimSpace(fmt.Sprint(row[i]))
			}
			if v != "" {
				empty = false
			}
			rec[name] = v
		}
		if !empty {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (c *SheetsClient) Name() string { return "sheets" }

// Deliver appends the rows to the queue range in the fixed nine-column order
// the Apps Script poller reads.
func (c *SheetsClient) Deliver(ctx context.Context, rows []domain.EmailRow) error {
	at := c.now()
	values := make([][]interface{}, 0, len(rows))
	for _, r := range rows {
		values = append(values, r.SheetValues(at))
	}

	logger.ExternalServiceCall("google-sheets", "values.append", "range", c.queueRange, "rows", len(values))
	_, err := c.svc.Spreadsheets.Values.Append(c.sheetID, c.queueRange, &sheets.ValueRange{Values: values}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	logger.ExternalServiceResult("google-sheets", "values.append", err, "rows", len(values))
	if err != nil {
		return fmt.Errorf("append to %s: %w", c.queueRange, err)
	}
	return nil
}
