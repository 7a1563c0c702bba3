package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/noah-isme/backend-fundraise/internal/migrate"
	"github.com/noah-isme/backend-fundraise/internal/order"
)

// SQLiteOrders records paper vouchers in a local SQLite file.
type SQLiteOrders struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path and applies the schema.
func OpenSQLite(path string) (*SQLiteOrders, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("sqlite orders: path is required")
	}
	dsn := "file:" + filepath.Clean(path) +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if err := migrate.SQLite(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return &SQLiteOrders{db: db}, nil
}

func (s *SQLiteOrders) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteOrders) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("sqlite orders: not open")
	}
	return s.db.PingContext(ctx)
}

func (s *SQLiteOrders) Record(ctx context.Context, o order.Order) (string, error) {
	if s == nil || s.db == nil {
		return "", errors.New("sqlite orders: not open")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("sqlite orders: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO voucher_orders (order_id, buyer, total_minor, created_at) VALUES (?, ?, ?, ?)`,
		o.ID, o.Buyer, int64(o.Total), o.CreatedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return "", fmt.Errorf("sqlite orders: insert order: %w", err)
	}
	recordNo, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("sqlite orders: record number: %w", err)
	}
	for i, it := range o.Items {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO voucher_order_items (order_id, line_no, product_id, quantity) VALUES (?, ?, ?, ?)`,
			o.ID, i+1, it.ProductID, it.Quantity,
		); err != nil {
			return "", fmt.Errorf("sqlite orders: insert item: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("sqlite orders: commit: %w", err)
	}
	return strconv.FormatInt(recordNo, 10), nil
}

// RecordedVolumes sums the recorded quantities per product.
func (s *SQLiteOrders) RecordedVolumes(ctx context.Context) (map[string]int64, error) {
	if s == nil || s.db == nil {
		return nil, errors.New("sqlite orders: not open")
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT product_id, SUM(quantity) FROM voucher_order_items GROUP BY product_id`)
	if err != nil {
		return nil, fmt.Errorf("sqlite orders: volumes: %w", err)
	}
	defer rows.Close()
	out := map[string]int64{}
	for rows.Next() {
		var (
			id  string
			qty int64
		)
		if err := rows.Scan(&id, &qty); err != nil {
			return nil, fmt.Errorf("sqlite orders: volumes: %w", err)
		}
		out[id] = qty
	}
	return out, rows.Err()
}
