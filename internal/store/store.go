package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	errx "github.com/bowlmetrics/server/internal/core/error"
	"github.com/bowlmetrics/server/internal/model"
	logx "github.com/bowlmetrics/server/pkg/logger"

	_ "modernc.org/sqlite"
)

// checkout times are stored as text in this layout so date() works in SQL
const timeLayout = "2006-01-02 15:04:05"

// Store persists POS orders and the modifier ledger in SQLite.
type Store struct {
	db     *sql.DB
	dbPath string
}

// Open creates or opens the order database at dbPath.
func Open(ctx context.Context, dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, dbPath: dbPath}
	if err := s.initSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.dbPath
}

func (s *Store) initSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS raw_orders (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source_file TEXT NOT NULL,
		imported_at TEXT NOT NULL,
		invoice_number TEXT,
		order_id TEXT,
		checkout_time TEXT,
		order_source TEXT,
		order_type TEXT,
		discount_amount REAL,
		invoice_amount REAL,
		payment_method TEXT,
		order_status TEXT,
		items_text TEXT,
		UNIQUE(invoice_number, checkout_time)
	);
	CREATE INDEX IF NOT EXISTS idx_raw_orders_checkout ON raw_orders(checkout_time);

	CREATE TABLE IF NOT EXISTS modifier_summary (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		name TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		total_price_change REAL NOT NULL DEFAULT 0.0,
		source_file TEXT NOT NULL,
		imported_at TEXT NOT NULL
	);
	`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// LoadOrders returns every order whose checkout date falls within [start, end]
// (YYYY-MM-DD, inclusive), oldest first. Voided and zero-amount rows are returned
// as-is; filtering is the caller's job.
func (s *Store) LoadOrders(ctx context.Context, start, end string) ([]model.Order, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT COALESCE(invoice_number, ''), COALESCE(order_id, ''), checkout_time,
		       COALESCE(order_source, ''), COALESCE(order_type, ''),
		       COALESCE(discount_amount, 0), COALESCE(invoice_amount, 0),
		       COALESCE(payment_method, ''), COALESCE(order_status, ''), COALESCE(items_text, '')
		FROM raw_orders
		WHERE date(checkout_time) BETWEEN ? AND ?
		ORDER BY checkout_time, id`, start, end)
	if err != nil {
		return nil, errx.WrapStore(err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		var o model.Order
		var checkout string
		if err := rows.Scan(
			&o.InvoiceNumber, &o.OrderID, &checkout,
			&o.OrderSource, &o.OrderType,
			&o.DiscountAmount, &o.InvoiceAmount,
			&o.PaymentMethod, &o.Status, &o.ItemsText,
		); err != nil {
			return nil, errx.WrapStore(err)
		}
		o.CheckoutTime, err = parseCheckout(checkout)
		if err != nil {
			logx.Warn().Err(err).Str("invoice", o.InvoiceNumber).Msg("skipping order with unreadable checkout time")
			continue
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, errx.WrapStore(err)
	}
	return orders, nil
}

// LoadModifiers returns ledger rows whose range overlaps [start, end]. A non-nil
// match keeps only the rows it accepts (typically the protein add-ons).
func (s *Store) LoadModifiers(ctx context.Context, start, end string, match func(name string) bool) ([]model.ModifierRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT start_date, end_date, name, count, total_price_change
		FROM modifier_summary
		WHERE NOT (end_date < ? OR start_date > ?)
		ORDER BY id`, start, end)
	if err != nil {
		return nil, errx.WrapStore(err)
	}
	defer rows.Close()

	var records []model.ModifierRecord
	for rows.Next() {
		var m model.ModifierRecord
		if err := rows.Scan(&m.StartDate, &m.EndDate, &m.Name, &m.Count, &m.TotalPriceChange); err != nil {
			return nil, errx.WrapStore(err)
		}
		if match != nil && !match(m.Name) {
			continue
		}
		records = append(records, m)
	}
	if err := rows.Err(); err != nil {
		return nil, errx.WrapStore(err)
	}
	return records, nil
}

var checkoutLayouts = []string{
	timeLayout,
	"2006-01-02T15:04:05",
	"2006/01/02 15:04:05",
	"2006/01/02 15:04",
	"2006-01-02 15:04",
}

func parseCheckout(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	for _, layout := range checkoutLayouts {
		if t, err := time.ParseInLocation(layout, v, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised checkout time %q", v)
}
