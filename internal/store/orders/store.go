// Package orders provides SQLite-backed persistence for the orders log:
// redemption orders and manually logged sales. Balance state lives in the
// Badger ledger; this store is the audit trail admins query and reconcile.
package orders

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/atlantisbot/atlantis-ledger/internal/domain"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// ErrOrderNotFound is returned when an order number does not exist.
var ErrOrderNotFound = errors.New("order not found")

// Store provides SQLite-backed persistence for orders.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open creates the orders store at the given path.
// It configures WAL mode, sets pragmas, and runs schema migrations.
func Open(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", pragma, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("exec schema: %w", err)
	}

	return &Store{db: db, logger: logger}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateOrder inserts a new redemption order.
func (s *Store) CreateOrder(ctx context.Context, o *domain.RedeemOrder) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO orders (order_no, community_id, customer_id, service_id, service_name, cost, status, created_at, fulfilled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		o.OrderNo, o.CommunityID, o.CustomerID, o.ServiceID, o.ServiceName,
		o.Cost, string(o.Status), formatTime(o.CreatedAt), nullTimeString(o.FulfilledAt),
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// GetOrder returns a redemption order by number.
func (s *Store) GetOrder(ctx context.Context, orderNo string) (*domain.RedeemOrder, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT order_no, community_id, customer_id, service_id, service_name, cost, status, created_at, fulfilled_at
		FROM orders WHERE order_no = ?`, orderNo)

	o, err := scanOrder(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	return o, nil
}

// MarkFulfilled flips a pending order to done, recording the fulfillment
// time. Returns false without error if the order was already done, so a
// repeated confirmation is a harmless no-op.
func (s *Store) MarkFulfilled(ctx context.Context, orderNo string, at time.Time) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE orders SET status = ?, fulfilled_at = ?
		WHERE order_no = ? AND status = ?`,
		string(domain.OrderDone), formatTime(at), orderNo, string(domain.OrderPending),
	)
	if err != nil {
		return false, fmt.Errorf("mark fulfilled: %w", err)
	}

	changed, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if changed == 0 {
		// Distinguish "already done" from "no such order".
		if _, err := s.GetOrder(ctx, orderNo); err != nil {
			return false, err
		}
		return false, nil
	}
	return true, nil
}

// ListOrders returns a community's redemption orders, newest first.
func (s *Store) ListOrders(ctx context.Context, communityID string, limit int) ([]*domain.RedeemOrder, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT order_no, community_id, customer_id, service_id, service_name, cost, status, created_at, fulfilled_at
		FROM orders WHERE community_id = ?
		ORDER BY created_at DESC LIMIT ?`, communityID, limit)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	var orders []*domain.RedeemOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order: %w", err)
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// CreateBillOrder inserts a manually logged sale.
func (s *Store) CreateBillOrder(ctx context.Context, b *domain.BillOrder) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO bill_orders (id, community_id, customer_id, product, price, bill_url, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.CommunityID, b.CustomerID, b.Product, b.Price,
		nullString(b.BillURL), string(b.Status), formatTime(b.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert bill order: %w", err)
	}
	return nil
}

// MarkBillDone flips a pending bill order to done. Returns false without
// error if it was already done.
func (s *Store) MarkBillDone(ctx context.Context, id string) (bool, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE bill_orders SET status = ? WHERE id = ? AND status = ?`,
		string(domain.OrderDone), id, string(domain.OrderPending),
	)
	if err != nil {
		return false, fmt.Errorf("mark bill done: %w", err)
	}

	changed, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	if changed == 0 {
		var exists int
		err := s.db.QueryRowContext(ctx, `SELECT 1 FROM bill_orders WHERE id = ?`, id).Scan(&exists)
		if errors.Is(err, sql.ErrNoRows) {
			return false, ErrOrderNotFound
		}
		if err != nil {
			return false, fmt.Errorf("check bill order: %w", err)
		}
		return false, nil
	}
	return true, nil
}

// ListBillOrders returns a community's manually logged sales, newest first.
func (s *Store) ListBillOrders(ctx context.Context, communityID string, limit int) ([]*domain.BillOrder, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, community_id, customer_id, product, price, bill_url, status, created_at
		FROM bill_orders WHERE community_id = ?
		ORDER BY created_at DESC LIMIT ?`, communityID, limit)
	if err != nil {
		return nil, fmt.Errorf("list bill orders: %w", err)
	}
	defer rows.Close()

	var bills []*domain.BillOrder
	for rows.Next() {
		var (
			b         domain.BillOrder
			billURL   sql.NullString
			status    string
			createdAt string
		)
		err := rows.Scan(&b.ID, &b.CommunityID, &b.CustomerID, &b.Product, &b.Price,
			&billURL, &status, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("scan bill order: %w", err)
		}

		b.BillURL = billURL.String
		b.Status = domain.OrderStatus(status)
		if b.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parse bill created_at: %w", err)
		}
		bills = append(bills, &b)
	}
	return bills, rows.Err()
}

// scanner abstracts *sql.Row and *sql.Rows for scanOrder.
type scanner interface {
	Scan(dest ...any) error
}

func scanOrder(row scanner) (*domain.RedeemOrder, error) {
	var (
		o           domain.RedeemOrder
		status      string
		createdAt   string
		fulfilledAt sql.NullString
	)
	err := row.Scan(&o.OrderNo, &o.CommunityID, &o.CustomerID, &o.ServiceID,
		&o.ServiceName, &o.Cost, &status, &createdAt, &fulfilledAt)
	if err != nil {
		return nil, err
	}

	o.Status = domain.OrderStatus(status)
	if o.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if o.FulfilledAt, err = parseNullableTime(fulfilledAt); err != nil {
		return nil, fmt.Errorf("parse fulfilled_at: %w", err)
	}
	return &o, nil
}

// formatTime formats a time.Time to RFC3339Nano for storage.
func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTime parses a RFC3339Nano string back to time.Time.
func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// parseNullableTime parses an optional time string.
func parseNullableTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := parseTime(s.String)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// nullString returns a sql.NullString from a string, empty meaning NULL.
func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// nullTimeString returns a sql.NullString from a *time.Time.
func nullTimeString(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(*t), Valid: true}
}
