package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

const productColumns = `id, name, description, sku, price, stock, track_stock, status, category, image_url, created_at, updated_at`

func scanProduct(row interface{ Scan(dest ...any) error }) (Product, error) {
	var p Product
	err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.Sku,
		&p.Price,
		&p.Stock,
		&p.TrackStock,
		&p.Status,
		&p.Category,
		&p.ImageUrl,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	return p, err
}

// CreateProductParams holds the insert values for a catalog record.
type CreateProductParams struct {
	Name        string
	Description pgtype.Text
	Sku         string
	Price       int64
	Stock       int32
	TrackStock  bool
	Status      string
	Category    pgtype.Text
	ImageUrl    pgtype.Text
}

func (q *Queries) CreateProduct(ctx context.Context, arg CreateProductParams) (Product, error) {
	row := q.db.QueryRow(ctx, `
		INSERT INTO products (name, description, sku, price, stock, track_stock, status, category, image_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+productColumns,
		arg.Name,
		arg.Description,
		arg.Sku,
		arg.Price,
		arg.Stock,
		arg.TrackStock,
		arg.Status,
		arg.Category,
		arg.ImageUrl,
	)
	return scanProduct(row)
}

func (q *Queries) GetProductByID(ctx context.Context, id pgtype.UUID) (Product, error) {
	row := q.db.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
	return scanProduct(row)
}

// ListProductsParams filters and pages a catalog listing. Nil/zero fields
// are skipped. SortBy must come from a caller-side allow-list; it is
// interpolated into the statement.
type ListProductsParams struct {
	Status   pgtype.Text
	Category pgtype.Text
	Search   pgtype.Text
	MinPrice *int64
	MaxPrice *int64
	InStock  bool
	SortBy   string
	SortDesc bool
	Limit    int32
	Offset   int32
}

// productWhere builds the WHERE clause shared by ListProducts and
// CountProducts.
func productWhere(arg ListProductsParams) (string, []any) {
	var conds []string
	var args []any

	add := func(cond string, val any) {
		args = append(args, val)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if arg.Status.Valid {
		add("status = $%d", arg.Status)
	}
	if arg.Category.Valid {
		add("category = $%d", arg.Category)
	}
	if arg.Search.Valid {
		add("(name ILIKE '%%' || $%d || '%%' OR description ILIKE '%%' || $%[1]d || '%%')", arg.Search)
	}
	if arg.MinPrice != nil {
		add("price >= $%d", *arg.MinPrice)
	}
	if arg.MaxPrice != nil {
		add("price <= $%d", *arg.MaxPrice)
	}
	if arg.InStock {
		conds = append(conds, "(NOT track_stock OR stock > 0)")
	}

	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (q *Queries) ListProducts(ctx context.Context, arg ListProductsParams) ([]Product, error) {
	where, args := productWhere(arg)

	sortBy := arg.SortBy
	if sortBy == "" {
		sortBy = "created_at"
	}
	dir := "ASC"
	if arg.SortDesc {
		dir = "DESC"
	}

	args = append(args, arg.Limit, arg.Offset)
	query := fmt.Sprintf(
		`SELECT %s FROM products%s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		productColumns, where, sortBy, dir, len(args)-1, len(args),
	)

	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (q *Queries) CountProducts(ctx context.Context, arg ListProductsParams) (int64, error) {
	where, args := productWhere(arg)

	var count int64
	err := q.db.QueryRow(ctx, `SELECT count(*) FROM products`+where, args...).Scan(&count)
	return count, err
}

// UpdateProductParams is a partial catalog update; invalid (null) fields
// keep their current column values.
type UpdateProductParams struct {
	ID          pgtype.UUID
	Name        pgtype.Text
	Description pgtype.Text
	Sku         pgtype.Text
	Price       *int64
	Stock       *int32
	TrackStock  *bool
	Status      pgtype.Text
	Category    pgtype.Text
	ImageUrl    pgtype.Text
}

func (q *Queries) UpdateProduct(ctx context.Context, arg UpdateProductParams) (Product, error) {
	row := q.db.QueryRow(ctx, `
		UPDATE products SET
			name        = COALESCE($2, name),
			description = COALESCE($3, description),
			sku         = COALESCE($4, sku),
			price       = COALESCE($5, price),
			stock       = COALESCE($6, stock),
			track_stock = COALESCE($7, track_stock),
			status      = COALESCE($8, status),
			category    = COALESCE($9, category),
			image_url   = COALESCE($10, image_url),
			updated_at  = now()
		WHERE id = $1
		RETURNING `+productColumns,
		arg.ID,
		arg.Name,
		arg.Description,
		arg.Sku,
		arg.Price,
		arg.Stock,
		arg.TrackStock,
		arg.Status,
		arg.Category,
		arg.ImageUrl,
	)
	return scanProduct(row)
}

// AdjustStockParams names a product and a positive quantity delta.
type AdjustStockParams struct {
	ID       pgtype.UUID
	Quantity int32
}

// DecrementProductStock atomically decrements stock, refusing to commit a
// tracked product below zero. Untracked products clamp at zero instead of
// failing. The WHERE clause is the enforcement point against concurrent
// over-sell: a plain read-then-write check is not.
func (q *Queries) DecrementProductStock(ctx context.Context, arg AdjustStockParams) (int64, error) {
	tag, err := q.db.Exec(ctx, `
		UPDATE products
		SET stock = CASE WHEN track_stock THEN stock - $2 ELSE greatest(stock - $2, 0) END,
		    updated_at = now()
		WHERE id = $1 AND (NOT track_stock OR stock >= $2)`,
		arg.ID, arg.Quantity,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// IncrementProductStock restores stock, e.g. on order cancellation.
func (q *Queries) IncrementProductStock(ctx context.Context, arg AdjustStockParams) error {
	_, err := q.db.Exec(ctx, `
		UPDATE products SET stock = stock + $2, updated_at = now() WHERE id = $1`,
		arg.ID, arg.Quantity,
	)
	return err
}
