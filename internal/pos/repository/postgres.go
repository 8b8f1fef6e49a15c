package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/avelora/storefront-service/internal/model"
	"github.com/avelora/storefront-service/internal/pos/dto"
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

func (r *PGRepository) Create(ctx context.Context, ext sqlx.ExtContext, t *model.Transaction) error {
	e := r.ext(ext)

	txQuery := `
        INSERT INTO pos_transactions (
            id, number, cashier_id, terminal_id, customer_name,
            payment_method, total, created_at
        )
        VALUES (
            :id, :number, :cashier_id, :terminal_id, :customer_name,
            :payment_method, :total, :created_at
        )
    `
	if _, err := sqlx.NamedExecContext(ctx, e, txQuery, t); err != nil {
		return errors.Wrap(err, "insert pos transaction")
	}

	itemQuery := `
        INSERT INTO pos_transaction_items (id, transaction_id, product_id, color, size, quantity, unit_price)
        VALUES (:id, :transaction_id, :product_id, :color, :size, :quantity, :unit_price)
    `
	for i := range t.Items {
		if _, err := sqlx.NamedExecContext(ctx, e, itemQuery, &t.Items[i]); err != nil {
			return errors.Wrap(err, "insert pos transaction item")
		}
	}

	// Daily aggregate moves with the sale, in the same transaction.
	dailyQuery := `
        INSERT INTO daily_sales (business_date, total, transaction_count, updated_at)
        VALUES ($1, $2, 1, $3)
        ON CONFLICT (business_date) DO UPDATE SET
            total = daily_sales.total + EXCLUDED.total,
            transaction_count = daily_sales.transaction_count + 1,
            updated_at = EXCLUDED.updated_at
    `
	businessDate := t.CreatedAt.Format("2006-01-02")
	if _, err := e.ExecContext(ctx, dailyQuery, businessDate, t.Total, t.CreatedAt); err != nil {
		return errors.Wrap(err, "update daily sales")
	}
	return nil
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Transaction, error) {
	var t model.Transaction
	err := r.DB.GetContext(ctx, &t, `SELECT * FROM pos_transactions WHERE id = $1 LIMIT 1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "find pos transaction")
	}

	err = r.DB.SelectContext(ctx, &t.Items, `SELECT * FROM pos_transaction_items WHERE transaction_id = $1 ORDER BY product_id, color, size`, id)
	if err != nil {
		return nil, errors.Wrap(err, "find pos transaction items")
	}
	return &t, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.TransactionFilters) ([]model.Transaction, int, error) {
	var items []model.Transaction
	var count int

	whereClause := ""
	args := []interface{}{}
	if f.BusinessDate != "" {
		whereClause = ` WHERE created_at::date = $1`
		args = append(args, f.BusinessDate)
	}

	if err := r.DB.GetContext(ctx, &count, "SELECT count(*) FROM pos_transactions"+whereClause, args...); err != nil {
		return nil, 0, errors.Wrap(err, "count pos transactions")
	}

	query := "SELECT * FROM pos_transactions" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	err := r.DB.SelectContext(ctx, &items, query, args...)
	return items, count, err
}

func (r *PGRepository) GetDailySales(ctx context.Context, businessDate string) (*model.DailySales, error) {
	var d model.DailySales
	err := r.DB.GetContext(ctx, &d, `SELECT * FROM daily_sales WHERE business_date = $1`, businessDate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &model.DailySales{BusinessDate: businessDate, UpdatedAt: time.Now()}, nil
		}
		return nil, errors.Wrap(err, "get daily sales")
	}
	return &d, nil
}
