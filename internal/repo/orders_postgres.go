// Package repo holds the SQL order stores used as order recorders.
package repo

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/noah-isme/backend-fundraise/internal/order"
)

// PostgresOrders records paper vouchers in Postgres. The stored id is the
// row's record number.
type PostgresOrders struct {
	Pool *pgxpool.Pool
}

func (r *PostgresOrders) Record(ctx context.Context, o order.Order) (string, error) {
	if r == nil || r.Pool == nil {
		return "", errors.New("postgres orders: pool not configured")
	}
	var recordNo int64
	err := pgx.BeginFunc(ctx, r.Pool, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx,
			`INSERT INTO voucher_orders (order_id, buyer, total_minor, created_at)
			 VALUES ($1, $2, $3, $4)
			 RETURNING record_no`,
			o.ID, o.Buyer, int64(o.Total), o.CreatedAt,
		).Scan(&recordNo); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		batch := &pgx.Batch{}
		for i, it := range o.Items {
			batch.Queue(
				`INSERT INTO voucher_order_items (order_id, line_no, product_id, quantity) VALUES ($1, $2, $3, $4)`,
				o.ID, i+1, it.ProductID, it.Quantity,
			)
		}
		br := tx.SendBatch(ctx, batch)
		for range o.Items {
			if _, err := br.Exec(); err != nil {
				_ = br.Close()
				return fmt.Errorf("insert order item: %w", err)
			}
		}
		return br.Close()
	})
	if err != nil {
		return "", fmt.Errorf("postgres orders: %w", err)
	}
	return strconv.FormatInt(recordNo, 10), nil
}

// Ping checks the pool for readiness probes.
func (r *PostgresOrders) Ping(ctx context.Context) error {
	if r == nil || r.Pool == nil {
		return errors.New("postgres orders: pool not configured")
	}
	return r.Pool.Ping(ctx)
}

// RecordedVolumes sums the recorded quantities per product.
func (r *PostgresOrders) RecordedVolumes(ctx context.Context) (map[string]int64, error) {
	if r == nil || r.Pool == nil {
		return nil, errors.New("postgres orders: pool not configured")
	}
	rows, err := r.Pool.Query(ctx, `SELECT product_id, SUM(quantity)::BIGINT FROM voucher_order_items GROUP BY product_id`)
	if err != nil {
		return nil, fmt.Errorf("postgres orders: volumes: %w", err)
	}
	out := map[string]int64{}
	var (
		id  string
		qty int64
	)
	_, err = pgx.ForEachRow(rows, []any{&id, &qty}, func() error {
		out[id] = qty
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("postgres orders: volumes: %w", err)
	}
	return out, nil
}
