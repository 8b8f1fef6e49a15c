package repository

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/avelora/storefront-service/internal/model"
	"github.com/avelora/storefront-service/internal/stock"
	"github.com/avelora/storefront-service/internal/stock/dto"
	"github.com/avelora/storefront-service/pkg/database/postgres"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) GetQuantity(ctx context.Context, productID, color, size string) (int64, error) {
	var qty int64
	query := `SELECT quantity FROM product_variants WHERE product_id = $1 AND color = $2 AND size = $3`
	err := r.DB.GetContext(ctx, &qty, query, productID, color, size)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Missing variant reads as zero; only writes distinguish
			// undeclared combinations.
			return 0, nil
		}
		return 0, errors.Wrap(err, "get variant quantity")
	}
	return qty, nil
}

func (r *PGRepository) GetAggregate(ctx context.Context, productID string) (int64, error) {
	var total int64
	query := `SELECT COALESCE(SUM(quantity), 0) FROM product_variants WHERE product_id = $1`
	if err := r.DB.GetContext(ctx, &total, query, productID); err != nil {
		return 0, errors.Wrap(err, "get aggregate quantity")
	}
	return total, nil
}

func (r *PGRepository) ListByProduct(ctx context.Context, productID string) ([]model.Variant, error) {
	var items []model.Variant
	query := `SELECT * FROM product_variants WHERE product_id = $1 ORDER BY color, size`
	if err := r.DB.SelectContext(ctx, &items, query, productID); err != nil {
		return nil, errors.Wrap(err, "list variants")
	}
	return items, nil
}

func (r *PGRepository) DeclareVariants(ctx context.Context, productID string, colors, sizes []string) error {
	return postgres.WithinTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		now := time.Now()
		for _, color := range colors {
			for _, size := range sizes {
				query := `
                    INSERT INTO product_variants (id, product_id, color, size, quantity, updated_at)
                    VALUES ($1, $2, $3, $4, 0, $5)
                    ON CONFLICT (product_id, color, size) DO NOTHING
                `
				if _, err := tx.ExecContext(ctx, query, uuid.New().String(), productID, color, size, now); err != nil {
					return errors.Wrapf(err, "declare variant (%s/%s)", color, size)
				}
			}
		}
		return refreshAggregates(ctx, tx, []string{productID}, now)
	})
}

// ApplyDeltas is the single write path for variant quantities. Row locks are
// taken in ascending variant-key order; any failed check aborts the whole
// transaction before any quantity has been observed by other committers.
func (r *PGRepository) ApplyDeltas(ctx context.Context, deltas []stock.Delta, ref *stock.MovementRef, attach stock.AttachFn) error {
	if len(deltas) == 0 {
		return nil
	}

	sorted := make([]stock.Delta, len(deltas))
	copy(sorted, deltas)
	stock.SortDeltas(sorted)

	return postgres.WithinTx(ctx, r.DB, func(tx *sqlx.Tx) error {
		now := time.Now()
		touched := make(map[string]struct{}, len(sorted))

		for _, d := range sorted {
			var current int64
			lockQuery := `SELECT quantity FROM product_variants WHERE product_id = $1 AND color = $2 AND size = $3 FOR UPDATE`
			err := tx.GetContext(ctx, &current, lockQuery, d.ProductID, d.Color, d.Size)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return &stock.UnknownVariantError{ProductID: d.ProductID, Color: d.Color, Size: d.Size}
				}
				return errors.Wrap(err, "lock variant row")
			}

			next := current + d.Delta
			if next < 0 {
				return &stock.InsufficientStockError{
					ProductID: d.ProductID,
					Color:     d.Color,
					Size:      d.Size,
					Requested: -d.Delta,
					Available: current,
				}
			}

			updateQuery := `UPDATE product_variants SET quantity = $1, updated_at = $2 WHERE product_id = $3 AND color = $4 AND size = $5`
			if _, err := tx.ExecContext(ctx, updateQuery, next, now, d.ProductID, d.Color, d.Size); err != nil {
				return errors.Wrap(err, "update variant quantity")
			}

			if err := insertMovement(ctx, tx, &d, ref, current, next, now); err != nil {
				return err
			}

			touched[d.ProductID] = struct{}{}
		}

		productIDs := make([]string, 0, len(touched))
		for id := range touched {
			productIDs = append(productIDs, id)
		}
		sort.Strings(productIDs)
		if err := refreshAggregates(ctx, tx, productIDs, now); err != nil {
			return err
		}

		if attach != nil {
			if err := attach(ctx, tx); err != nil {
				return err
			}
		}
		return nil
	})
}

// refreshAggregates keeps products.stock_quantity equal to the sum of the
// product's variant rows within the same transaction as the variant writes.
func refreshAggregates(ctx context.Context, tx *sqlx.Tx, productIDs []string, now time.Time) error {
	for _, id := range productIDs {
		query := `
            UPDATE products
            SET stock_quantity = (SELECT COALESCE(SUM(quantity), 0) FROM product_variants WHERE product_id = $1),
                updated_at = $2
            WHERE id = $1
        `
		if _, err := tx.ExecContext(ctx, query, id, now); err != nil {
			return errors.Wrap(err, "refresh product aggregate")
		}
	}
	return nil
}

func insertMovement(ctx context.Context, tx *sqlx.Tx, d *stock.Delta, ref *stock.MovementRef, before, after int64, now time.Time) error {
	m := &model.StockMovement{
		ID:             uuid.New().String(),
		ProductID:      d.ProductID,
		Color:          d.Color,
		Size:           d.Size,
		MovementType:   "adjustment",
		QuantityChange: d.Delta,
		QuantityBefore: before,
		QuantityAfter:  after,
		CreatedAt:      now,
	}
	if ref != nil {
		if ref.Type != "" {
			m.MovementType = ref.Type
		}
		if ref.ReferenceType != "" {
			rt := ref.ReferenceType
			m.ReferenceType = &rt
		}
		if ref.ReferenceID != "" {
			ri := ref.ReferenceID
			m.ReferenceID = &ri
		}
		m.Notes = ref.Notes
		m.CreatedBy = ref.CreatedBy
	}

	query := `
        INSERT INTO stock_movements (
            id, product_id, color, size, movement_type,
            quantity_change, quantity_before, quantity_after,
            reference_type, reference_id, notes, created_by, created_at
        )
        VALUES (
            :id, :product_id, :color, :size, :movement_type,
            :quantity_change, :quantity_before, :quantity_after,
            :reference_type, :reference_id, :notes, :created_by, :created_at
        )
    `
	if _, err := tx.NamedExecContext(ctx, query, m); err != nil {
		return errors.Wrap(err, "log stock movement")
	}
	return nil
}

func (r *PGRepository) ListMovements(ctx context.Context, f *dto.MovementFilters) ([]model.StockMovement, int, error) {
	var items []model.StockMovement
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.ProductID != "" {
		conditions = append(conditions, "product_id = :product_id")
		args["product_id"] = f.ProductID
	}
	if f.MovementType != "" {
		conditions = append(conditions, "movement_type = :movement_type")
		args["movement_type"] = f.MovementType
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM stock_movements" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, errors.Wrap(err, "count stock movements")
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	query := "SELECT * FROM stock_movements" + whereClause + " ORDER BY created_at DESC"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, errors.Wrap(err, "prepare movement query")
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &items, args)
	return items, count, err
}
