package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	errx "github.com/bowlmetrics/server/internal/core/error"
	logx "github.com/bowlmetrics/server/pkg/logger"
)

// orderColumns maps POS export headers onto raw_orders columns.
var orderColumns = []struct{ header, column string }{
	{"Receipt number", "invoice_number"},
	{"Running Receipt Number", "order_id"},
	{"payment time", "checkout_time"},
	{"Order source", "order_source"},
	{"Order Type", "order_type"},
	{"Discount amount", "discount_amount"},
	{"Invoice Amount", "invoice_amount"},
	{"Payment Module", "payment_method"},
	{"Current Status", "order_status"},
	{"items", "items_text"},
}

var modifierRange = regexp.MustCompile(`(\d{4}-\d{2}-\d{2})~(\d{4}-\d{2}-\d{2})`)

// ImportResult summarises one order import.
type ImportResult struct {
	File     string
	Inserted int
	Skipped  int
}

func (r ImportResult) String() string {
	return fmt.Sprintf("Import finished: inserted=%d, skipped=%d", r.Inserted, r.Skipped)
}

// ImportOrdersCSV loads a POS payment export. Rows already present (same
// invoice number and checkout time) are skipped.
func (s *Store) ImportOrdersCSV(ctx context.Context, path string) (ImportResult, error) {
	res := ImportResult{File: filepath.Base(path)}

	header, records, err := readCSV(path)
	if err != nil {
		return res, err
	}
	idx, err := columnIndex(header, orderColumns)
	if err != nil {
		return res, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return res, errx.WrapStore(err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO raw_orders (
			source_file, imported_at, invoice_number, order_id, checkout_time,
			order_source, order_type, discount_amount, invoice_amount,
			payment_method, order_status, items_text
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return res, errx.WrapStore(err)
	}
	defer stmt.Close()

	importedAt := time.Now().Format("2006-01-02T15:04:05")
	for line, rec := range records {
		field := func(column string) string { return strings.TrimSpace(rec[idx[column]]) }

		checkout, err := parseCheckout(field("checkout_time"))
		if err != nil {
			logx.Warn().Err(err).Int("line", line+2).Str("file", res.File).Msg("skipping row")
			res.Skipped++
			continue
		}

		r, err := stmt.ExecContext(ctx,
			res.File, importedAt,
			field("invoice_number"), field("order_id"), checkout.Format(timeLayout),
			field("order_source"), field("order_type"),
			parseAmount(field("discount_amount")), parseAmount(field("invoice_amount")),
			field("payment_method"), field("order_status"), field("items_text"),
		)
		if err != nil {
			logx.Error().Err(err).Int("line", line+2).Str("file", res.File).Msg("error inserting row")
			res.Skipped++
			continue
		}
		if n, _ := r.RowsAffected(); n == 0 {
			res.Skipped++
		} else {
			res.Inserted++
		}
	}

	if err := tx.Commit(); err != nil {
		return res, errx.WrapStore(err)
	}

	logx.Info().Str("file", res.File).Int("inserted", res.Inserted).Int("skipped", res.Skipped).Msg("order import finished")
	return res, nil
}

// ImportModifiersCSV replaces the ledger for the date range encoded in the
// file name (e.g. modifier-2026-02-22~2026-02-28.csv). Only rows accepted by
// keep are stored. It returns the number of rows inserted.
func (s *Store) ImportModifiersCSV(ctx context.Context, path string, keep func(name string) bool) (int, error) {
	name := filepath.Base(path)
	m := modifierRange.FindStringSubmatch(name)
	if m == nil {
		return 0, errx.InvalidInput("filename %q does not contain a valid date range", name)
	}
	start, end := m[1], m[2]

	header, records, err := readCSV(path)
	if err != nil {
		return 0, err
	}
	idx, err := columnIndex(header, []struct{ header, column string }{
		{"name", "name"},
		{"Count", "count"},
		{"Total price change", "total_price_change"},
	})
	if err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, errx.WrapStore(err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM modifier_summary WHERE NOT (end_date < ? OR start_date > ?)`, start, end); err != nil {
		return 0, errx.WrapStore(err)
	}

	importedAt := time.Now().Format("2006-01-02T15:04:05")
	inserted := 0
	for _, rec := range records {
		modName := strings.TrimSpace(rec[idx["name"]])
		if modName == "" || (keep != nil && !keep(modName)) {
			continue
		}
		count, err := strconv.Atoi(strings.TrimSpace(rec[idx["count"]]))
		if err != nil {
			count = int(parseAmount(rec[idx["count"]]))
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO modifier_summary (
				start_date, end_date, name, count, total_price_change, source_file, imported_at
			) VALUES (?, ?, ?, ?, ?, ?, ?)`,
			start, end, modName, count, parseAmount(rec[idx["total_price_change"]]), name, importedAt,
		); err != nil {
			return 0, errx.WrapStore(err)
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, errx.WrapStore(err)
	}

	logx.Info().Str("file", name).Str("start", start).Str("end", end).Int("rows", inserted).Msg("modifier import finished")
	return inserted, nil
}

func readCSV(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(stripBOM(f))
	r.FieldsPerRecord = -1
	all, err := r.ReadAll()
	if err != nil {
		return nil, nil, errx.New(err, errx.KindInvalidInput, "malformed CSV")
	}
	if len(all) == 0 {
		return nil, nil, errx.InvalidInput("%s is empty", filepath.Base(path))
	}

	header := all[0]
	rows := make([][]string, 0, len(all)-1)
	for _, rec := range all[1:] {
		// pad short rows so column lookups never go out of range
		for len(rec) < len(header) {
			rec = append(rec, "")
		}
		rows = append(rows, rec)
	}
	return header, rows, nil
}

func columnIndex(header []string, want []struct{ header, column string }) (map[string]int, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		pos[strings.TrimSpace(h)] = i
	}
	idx := make(map[string]int, len(want))
	for _, w := range want {
		i, ok := pos[w.header]
		if !ok {
			return nil, errx.InvalidInput("missing column %q", w.header)
		}
		idx[w.column] = i
	}
	return idx, nil
}

// parseAmount reads a currency cell; anything unparseable is 0.
func parseAmount(v string) float64 {
	v = strings.ReplaceAll(strings.TrimSpace(v), ",", "")
	v = strings.TrimPrefix(v, "$")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0
	}
	return f
}

func stripBOM(r io.Reader) io.Reader {
	buf := make([]byte, 3)
	n, _ := io.ReadFull(r, buf)
	if n == 3 && buf[0] == 0xEF && buf[1] == 0xBB && buf[2] == 0xBF {
		return r
	}
	return io.MultiReader(strings.NewReader(string(buf[:n])), r)
}
