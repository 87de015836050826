// Package auditlog persists reconciliation decisions to a per-tenant,
// per-marketplace SQLite database. The change log is append-only: the store
// exposes no update or delete.
package auditlog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/fairyhunter13/marketplace-price-sync/internal/model"
)

// ErrUnavailable wraps any storage-level failure. A pass that hits it is
// aborted by the engine.
var ErrUnavailable = errors.New("audit storage unavailable")

// LogTable is the append-only change-log table name.
const LogTable = "price_change_log"

const timestampLayout = "2006-01-02 15:04:05"

// Letters, digits, underscore and dash survive; everything else becomes an
// underscore. Unicode-aware so Cyrillic market names keep their spelling.
var unsafeNameChars = regexp.MustCompile(`[^\p{L}\p{N}_-]+`)

// SafeName normalizes a tenant or market name for use in file and table
// names.
func SafeName(s string) string {
	return unsafeNameChars.ReplaceAllString(s, "_")
}

// DBPath returns the database file for one tenant+marketplace namespace.
// Namespace separation is the isolation mechanism: concurrent passes for
// different pairs never share a file.
func DBPath(dataDir, userID, marketName string) string {
	return filepath.Join(dataDir, fmt.Sprintf("%s_data_%s.db", SafeName(userID), SafeName(marketName)))
}

// Store is one open audit namespace.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the database file at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	// The file is owned by a single cycle at a time; one connection keeps
	// writes ordered.
	db.SetMaxOpenConns(1)
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// EnsureSchema creates the append-only change-log table if absent.
// Idempotent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`CREATE TABLE IF NOT EXISTS '%s'
		(timestamp TEXT, id TEXT, product_id TEXT,
		 old_price REAL, new_price REAL,
		 old_discount REAL, new_discount REAL,
		 old_min_price REAL, new_min_price REAL,
		 prim TEXT, change_applied INTEGER)`, LogTable))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Append inserts one entry. Each insert is its own implicit transaction, so
// an entry is recorded whole or not at all.
func (s *Store) Append(ctx context.Context, e model.AuditEntry) error {
	applied := 0
	if e.ChangeApplied {
		applied = 1
	}
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`INSERT INTO '%s'
		(timestamp, id, product_id, old_price, new_price, old_discount, new_discount,
		 old_min_price, new_min_price, prim, change_applied)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, LogTable),
		e.Timestamp.Format(timestampLayout), e.ID, e.ProductID,
		nullFloat(e.OldPrice), nullFloat(e.NewPrice),
		nullFloat(e.OldDiscount), nullFloat(e.NewDiscount),
		nullFloat(e.OldMinPrice), nullFloat(e.NewMinPrice),
		e.Note, applied)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

// Recent returns up to limit entries, newest first. Read-only; used by the
// ops API.
func (s *Store) Recent(ctx context.Context, limit int) ([]model.AuditEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`SELECT timestamp, id, product_id,
		old_price, new_price, old_discount, new_discount, old_min_price, new_min_price,
		prim, change_applied FROM '%s' ORDER BY rowid DESC LIMIT ?`, LogTable), limit)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer rows.Close()

	var out []model.AuditEntry
	for rows.Next() {
		var (
			e       model.AuditEntry
			ts      string
			applied int
			prices  [6]sql.NullFloat64
		)
		if err := rows.Scan(&ts, &e.ID, &e.ProductID,
			&prices[0], &prices[1], &prices[2], &prices[3], &prices[4], &prices[5],
			&e.Note, &applied); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		e.Timestamp, _ = time.Parse(timestampLayout, ts)
		e.ChangeApplied = applied == 1
		e.OldPrice = fromNullFloat(prices[0])
		e.NewPrice = fromNullFloat(prices[1])
		e.OldDiscount = fromNullFloat(prices[2])
		e.NewDiscount = fromNullFloat(prices[3])
		e.OldMinPrice = fromNullFloat(prices[4])
		e.NewMinPrice = fromNullFloat(prices[5])
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return out, nil
}

func nullFloat(d decimal.NullDecimal) any {
	if !d.Valid {
		return nil
	}
	f, _ := d.Decimal.Float64()
	return f
}

func fromNullFloat(f sql.NullFloat64) decimal.NullDecimal {
	if !f.Valid {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: decimal.NewFromFloat(f.Float64), Valid: true}
}
