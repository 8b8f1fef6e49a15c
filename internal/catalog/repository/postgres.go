package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/avelora/storefront-service/internal/catalog/dto"
	"github.com/avelora/storefront-service/internal/model"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, p *model.Product) error {
	query := `
        INSERT INTO products (
            id, sku, name, description, price, image_url,
            stock_quantity, low_stock_threshold, is_active, created_at, updated_at
        )
        VALUES (
            :id, :sku, :name, :description, :price, :image_url,
            :stock_quantity, :low_stock_threshold, :is_active, :created_at, :updated_at
        )
    `
	_, err := r.DB.NamedExecContext(ctx, query, p)
	return errors.Wrap(err, "insert product")
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	var product model.Product
	query := `SELECT * FROM products WHERE id = $1 LIMIT 1`
	err := r.DB.GetContext(ctx, &product, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "find product")
	}
	return &product, nil
}

func (r *PGRepository) FindByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	if len(ids) == 0 {
		return []model.Product{}, nil
	}

	query, args, err := sqlx.In(`SELECT * FROM products WHERE id IN (?)`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "build product query")
	}
	query = r.DB.Rebind(query)

	var items []model.Product
	err = r.DB.SelectContext(ctx, &items, query, args...)
	return items, errors.Wrap(err, "find products")
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	var products []model.Product
	var count int

	conditions := []string{}
	args := map[string]interface{}{}

	if f.SearchQuery != "" {
		conditions = append(conditions, "(name ILIKE :search OR sku ILIKE :search)")
		args["search"] = "%" + f.SearchQuery + "%"
	}
	if f.ActiveOnly {
		conditions = append(conditions, "is_active = true")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := "SELECT count(*) FROM products" + whereClause
	rows, err := r.DB.NamedQueryContext(ctx, countQuery, args)
	if err != nil {
		return nil, 0, errors.Wrap(err, "count products")
	}
	defer rows.Close()
	if rows.Next() {
		rows.Scan(&count)
	}

	query := "SELECT * FROM products" + whereClause + " ORDER BY name"
	if f.PageSize > 0 {
		offset := (f.Page - 1) * f.PageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, offset)
	}

	nstmt, err := r.DB.PrepareNamedContext(ctx, query)
	if err != nil {
		return nil, 0, errors.Wrap(err, "prepare product query")
	}
	defer nstmt.Close()

	err = nstmt.SelectContext(ctx, &products, args)
	return products, count, err
}

func (r *PGRepository) FindLowStock(ctx context.Context, page, pageSize int) ([]model.Product, int, error) {
	var products []model.Product
	var count int

	whereClause := ` WHERE stock_quantity <= low_stock_threshold AND low_stock_threshold > 0 AND is_active = true`

	if err := r.DB.GetContext(ctx, &count, "SELECT count(*) FROM products"+whereClause); err != nil {
		return nil, 0, errors.Wrap(err, "count low stock products")
	}

	query := "SELECT * FROM products" + whereClause + " ORDER BY stock_quantity ASC"
	if pageSize > 0 {
		offset := (page - 1) * pageSize
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", pageSize, offset)
	}

	err := r.DB.SelectContext(ctx, &products, query)
	return products, count, err
}

func (r *PGRepository) IsSKUUnique(ctx context.Context, sku string) (bool, error) {
	var count int
	if err := r.DB.GetContext(ctx, &count, `SELECT count(*) FROM products WHERE sku = $1`, sku); err != nil {
		return false, errors.Wrap(err, "check sku")
	}
	return count == 0, nil
}
