package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/flicky/go-storefront/internal/model"
)

// ProductRepository is the read-only catalog used by the storefront and the
// admin console.
type ProductRepository interface {
	List(ctx context.Context, category string) ([]model.Product, error)
	GetBySlug(ctx context.Context, slug string) (*model.Product, error)
	Search(ctx context.Context, q string, limit int) ([]model.Product, error)
	Page(ctx context.Context, q string, limit, offset int) ([]model.Product, int, error)
	Categories(ctx context.Context) ([]model.Category, error)
}

type pgProductRepo struct{ db DBTX }

func NewProductRepository(db DBTX) ProductRepository {
	return &pgProductRepo{db: db}
}

const productColumns = `p.id, p.slug, p.name, p.sku, p.price, p.stock, p.description, p.img1, p.img2,
	ARRAY(SELECT pi.image_url FROM product_images pi WHERE pi.product_id = p.id ORDER BY pi.sort_order) AS images,
	ARRAY(SELECT c.name FROM categories c JOIN product_categories pc ON pc.category_id = c.id
		  WHERE pc.product_id = p.id ORDER BY c.name) AS categories`

func (r *pgProductRepo) List(ctx context.Context, category string) ([]model.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products p
		WHERE $1 = '' OR EXISTS (
			SELECT 1 FROM product_categories pc JOIN categories c ON c.id = pc.category_id
			WHERE pc.product_id = p.id AND c.name = $1)
		ORDER BY p.id`
	rows, err := r.db.Query(ctx, query, category)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return scanProducts(rows)
}

func (r *pgProductRepo) GetBySlug(ctx context.Context, slug string) (*model.Product, error) {
	rows, err := r.db.Query(ctx, `SELECT `+productColumns+` FROM products p WHERE p.slug = $1`, slug)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	products, err := scanProducts(rows)
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, nil
	}
	return &products[0], nil
}

func (r *pgProductRepo) Search(ctx context.Context, q string, limit int) ([]model.Product, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+productColumns+` FROM products p WHERE p.name ILIKE $1 ORDER BY p.id LIMIT $2`,
		"%"+EscapeLike(q)+"%", limit,
	)
	if err != nil {
		return nil, fmt.Errorf("search products: %w", err)
	}
	return scanProducts(rows)
}

func (r *pgProductRepo) Page(ctx context.Context, q string, limit, offset int) ([]model.Product, int, error) {
	like := "%" + EscapeLike(q) + "%"

	var total int
	if err := r.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM products WHERE name ILIKE $1`, like,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+productColumns+` FROM products p WHERE p.name ILIKE $1 ORDER BY p.id DESC LIMIT $2 OFFSET $3`,
		like, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("page products: %w", err)
	}
	products, err := scanProducts(rows)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

func (r *pgProductRepo) Categories(ctx context.Context) ([]model.Category, error) {
	rows, err := r.db.Query(ctx,
		`SELECT c.id, c.slug, c.name, c.image, c.product_count,
				(SELECT COUNT(*) FROM product_categories pc WHERE pc.category_id = c.id) AS actual_count
		 FROM categories c ORDER BY c.name`,
	)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	categories := []model.Category{}
	for rows.Next() {
		var c model.Category
		if err := rows.Scan(&c.ID, &c.Slug, &c.Name, &c.Image, &c.ProductCount, &c.ActualCount); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return categories, nil
}

func scanProducts(rows pgx.Rows) ([]model.Product, error) {
	defer rows.Close()

	products := []model.Product{}
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(
			&p.ID, &p.Slug, &p.Name, &p.SKU, &p.Price, &p.Stock, &p.Description,
			&p.Img1, &p.Img2, &p.Images, &p.Categories,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return products, nil
}
