// Package sheets is the Google Sheets gateway: it converts between sheet
// value ranges and the row-oriented Dataset the engine works on.
package sheets

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/fairyhunter13/marketplace-price-sync/internal/model"
)

// ErrEmptySheet reports a range with fewer than the two reserved rows
// (column names and the description header).
var ErrEmptySheet = errors.New("sheet range has no data rows")

// Gateway abstracts sheet access so cycles can run against fakes in tests.
type Gateway interface {
	Fetch(ctx context.Context, spreadsheetID, readRange string) (model.Dataset, error)
	Write(ctx context.Context, spreadsheetID, writeRange string, ds model.Dataset) error
}

// Service is the live Google Sheets implementation of Gateway.
type Service struct {
	svc *gsheets.Service
}

// NewService builds a Sheets client from a service-account credentials file.
func NewService(ctx context.Context, credentialsFile string) (*Service, error) {
	svc, err := gsheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(gsheets.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Service{svc: svc}, nil
}

// Fetch reads the range and converts it to a Dataset.
func (s *Service) Fetch(ctx context.Context, spreadsheetID, readRange string) (model.Dataset, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(spreadsheetID, readRange).Context(ctx).Do()
	if err != nil {
		return model.Dataset{}, fmt.Errorf("fetch range %s: %w", readRange, err)
	}
	return DatasetFromValues(resp.Values)
}

// Write pushes the dataset back over the range, header first. USER_ENTERED
// keeps formulas (image cells) working.
func (s *Service) Write(ctx context.Context, spreadsheetID, writeRange string, ds model.Dataset) error {
	vr := &gsheets.ValueRange{Values: ValuesFromDataset(ds)}
	_, err := s.svc.Spreadsheets.Values.Update(spreadsheetID, writeRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write range %s: %w", writeRange, err)
	}
	return nil
}

// DatasetFromValues converts a raw value range. Row 1 carries the column
// names, row 2 the human-readable description header, the rest is data.
// Ragged rows are padded with empty cells.
func DatasetFromValues(values [][]interface{}) (model.Dataset, error) {
	if len(values) < 2 {
		return model.Dataset{}, ErrEmptySheet
	}
	cols := make([]string, len(values[0]))
	for i, v := range values[0] {
		cols[i] = fmt.Sprint(v)
	}
	ds := model.Dataset{
		Columns: cols,
		Header:  rowFromValues(cols, values[1]),
		Rows:    make([]model.Row, 0, len(values)-2),
	}
	for _, raw := range values[2:] {
		ds.Rows = append(ds.Rows, rowFromValues(cols, raw))
	}
	return ds, nil
}

// ValuesFromDataset is the inverse of DatasetFromValues: column names, then
// the header row, then data rows in input order.
func ValuesFromDataset(ds model.Dataset) [][]interface{} {
	out := make([][]interface{}, 0, len(ds.Rows)+2)
	names := make([]interface{}, len(ds.Columns))
	for i, c := range ds.Columns {
		names[i] = c
	}
	out = append(out, names, valuesFromRow(ds.Columns, ds.Header))
	for _, r := range ds.Rows {
		out = append(out, valuesFromRow(ds.Columns, r))
	}
	return out
}

func rowFromValues(cols []string, raw []interface{}) model.Row {
	row := make(model.Row, len(cols))
	for i, c := range cols {
		if i < len(raw) {
			row[c] = fmt.Sprint(raw[i])
		} else {
			row[c] = ""
		}
	}
	return row
}

func valuesFromRow(cols []string, row model.Row) []interface{} {
	out := make([]interface{}, len(cols))
	for i, c := range cols {
		out[i] = row[c]
	}
	return out
}
