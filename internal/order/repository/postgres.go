package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/avelora/storefront-service/internal/model"
	"github.com/avelora/storefront-service/internal/order/dto"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) ext(ext sqlx.ExtContext) sqlx.ExtContext {
	if ext != nil {
		return ext
	}
	return r.DB
}

func (r *PGRepository) Create(ctx context.Context, ext sqlx.ExtContext, o *model.Order) error {
	e := r.ext(ext)

	orderQuery := `
        INSERT INTO orders (
            id, number, status, customer_name, customer_email, customer_phone,
            shipping_address, payment_method, payment_proof_url, total,
            stock_restored, created_at, updated_at
        )
        VALUES (
            :id, :number, :status, :customer_name, :customer_email, :customer_phone,
            :shipping_address, :payment_method, :payment_proof_url, :total,
            :stock_restored, :created_at, :updated_at
        )
    `
	if _, err := sqlx.NamedExecContext(ctx, e, orderQuery, o); err != nil {
		return errors.Wrap(err, "insert order")
	}

	itemQuery := `
        INSERT INTO order_items (id, order_id, product_id, color, size, quantity, unit_price)
        VALUES (:id, :order_id, :product_id, :color, :size, :quantity, :unit_price)
    `
	for i := range o.Items {
		if _, err := sqlx.NamedExecContext(ctx, e, itemQuery, &o.Items[i]); err != nil {
			return errors.Wrap(err, "insert order item")
		}
	}
	return nil
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Order, error) {
	var o model.Order
	err := r.DB.GetContext(ctx, &o, `SELECT * FROM orders WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "find order")
	}

	err = r.DB.SelectContext(ctx, &o.Items, `SELECT * FROM order_items WHERE order_id = $1 ORDER BY product_id, color, size`, id)
	if err != nil {
		return nil, errors.Wrap(err, "find order items")
	}
	return &o, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.OrderFilters) ([]model.Order, int, error) {
	var orders []model.Order
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.Status != "" {
		conditions = append(conditions, "status = :status")
		args["status"] = f.Status
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM orders" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, errors.Wrap(err, "count orders")
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	query := "SELECT * FROM orders" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, errors.Wrap(err, "prepare order query")
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &orders, args)
	return orders, count, err
}

func (r *PGRepository) UpdateStatus(ctx context.Context, id string, status model.OrderStatus) error {
	_, err := r.DB.ExecContext(ctx,
		`UPDATE orders SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	return errors.Wrap(err, "update order status")
}

func (r *PGRepository) MarkCancelled(ctx context.Context, ext sqlx.ExtContext, id string) (int64, error) {
	res, err := r.ext(ext).ExecContext(ctx, `
        UPDATE orders
        SET status = $1, stock_restored = true, updated_at = now()
        WHERE id = $2 AND stock_restored = false
    `, model.OrderStatusCancelled, id)
	if err != nil {
		return 0, errors.Wrap(err, "mark order cancelled")
	}
	n, err := res.RowsAffected()
	return n, errors.Wrap(err, "rows affected")
}
