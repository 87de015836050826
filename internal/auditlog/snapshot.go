package auditlog

import (
	"context"
	"fmt"
	"strings"

	"github.com/fairyhunter13/marketplace-price-sync/internal/model"
)

// SnapshotTable names the raw-dataset snapshot table for one marketplace
// within a tenant's database.
func SnapshotTable(marketplace, marketName string) string {
	return fmt.Sprintf("product_data_%s_%s", SafeName(strings.ToLower(marketplace)), SafeName(marketName))
}

// SaveSnapshot stores the fetched dataset as-is, keyed by keyCol. Existing
// rows with the same key are replaced, so the table always mirrors the last
// fetch per product. The header row is not data and is not stored.
func (s *Store) SaveSnapshot(ctx context.Context, table string, ds model.Dataset, keyCol string) error {
	if len(ds.Columns) == 0 {
		return nil
	}
	cols := make([]string, len(ds.Columns))
	for i, c := range ds.Columns {
		cols[i] = fmt.Sprintf("'%s' TEXT", SafeName(c))
	}
	create := fmt.Sprintf("CREATE TABLE IF NOT EXISTS '%s' (%s, PRIMARY KEY ('%s'))",
		table, strings.Join(cols, ", "), SafeName(keyCol))
	if _, err := s.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	quoted := make([]string, len(ds.Columns))
	marks := make([]string, len(ds.Columns))
	for i, c := range ds.Columns {
		quoted[i] = fmt.Sprintf("'%s'", SafeName(c))
		marks[i] = "?"
	}
	insert := fmt.Sprintf("INSERT OR REPLACE INTO '%s' (%s) VALUES (%s)",
		table, strings.Join(quoted, ", "), strings.Join(marks, ", "))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer tx.Rollback()
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer stmt.Close()
	for _, row := range ds.Rows {
		args := make([]any, len(ds.Columns))
		for i, c := range ds.Columns {
			args[i] = row[c]
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
