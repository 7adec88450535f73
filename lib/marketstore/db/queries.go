package db

import (
	"context"
	"database/sql"
)

type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Product struct {
	ID          int64
	Name        string
	Url         sql.NullString
	ReleaseDate sql.NullString
	SkuCode     sql.NullString
}

type Listing struct {
	ID              int64
	ProductID       int64
	Timestamp       string
	ListingCount    sql.NullInt64
	LowestPrice     sql.NullFloat64
	MedianPrice     sql.NullFloat64
	MarketPrice     sql.NullFloat64
	CurrentQuantity sql.NullInt64
	CurrentSellers  sql.NullInt64
	SetName         sql.NullString
	Condition       sql.NullString
	Source          sql.NullString
}

const getProductIdByUrl = `
SELECT id FROM products WHERE url = ? LIMIT 1
`

func (q *Queries) GetProductIdByUrl(ctx context.Context, url string) (int64, error) {
	row := q.db.QueryRowContext(ctx, getProductIdByUrl, url)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const getProductIdByName = `
SELECT id FROM products WHERE name = ? LIMIT 1
`

func (q *Queries) GetProductIdByName(ctx context.Context, name string) (int64, error) {
	row := q.db.QueryRowContext(ctx, getProductIdByName, name)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const createProduct = `
INSERT INTO products (name, url) VALUES (?, ?)
`

type CreateProductParams struct {
	Name string
	Url  string
}

func (q *Queries) CreateProduct(ctx context.Context, arg CreateProductParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, createProduct, arg.Name, arg.Url)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

const createListing = `
INSERT INTO listings (
    product_id, timestamp, listing_count, lowest_price, median_price,
    market_price, current_quantity, current_sellers, set_name, condition, source
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type CreateListingParams struct {
	ProductID       int64
	Timestamp       string
	ListingCount    sql.NullInt64
	LowestPrice     sql.NullFloat64
	MedianPrice     sql.NullFloat64
	MarketPrice     sql.NullFloat64
	CurrentQuantity sql.NullInt64
	CurrentSellers  sql.NullInt64
	SetName         sql.NullString
	Condition       sql.NullString
	Source          sql.NullString
}

func (q *Queries) CreateListing(ctx context.Context, arg CreateListingParams) error {
	_, err := q.db.ExecContext(ctx, createListing,
		arg.ProductID,
		arg.Timestamp,
		arg.ListingCount,
		arg.LowestPrice,
		arg.MedianPrice,
		arg.MarketPrice,
		arg.CurrentQuantity,
		arg.CurrentSellers,
		arg.SetName,
		arg.Condition,
		arg.Source,
	)
	return err
}

const listProducts = `
SELECT id, name, url, release_date, sku_code FROM products ORDER BY id
`

func (q *Queries) ListProducts(ctx context.Context) ([]Product, error) {
	rows, err := q.db.QueryContext(ctx, listProducts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Product
	for rows.Next() {
		var p Product
		err := rows.Scan(&p.ID, &p.Name, &p.Url, &p.ReleaseDate, &p.SkuCode)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

const getListingsForProduct = `
SELECT id, product_id, timestamp, listing_count, lowest_price, median_price,
    market_price, current_quantity, current_sellers, set_name, condition, source
FROM listings WHERE product_id = ? ORDER BY timestamp
`

func (q *Queries) GetListingsForProduct(ctx context.Context, productID int64) ([]Listing, error) {
	rows, err := q.db.QueryContext(ctx, getListingsForProduct, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Listing
	for rows.Next() {
		var l Listing
		err := rows.Scan(
			&l.ID,
			&l.ProductID,
			&l.Timestamp,
			&l.ListingCount,
			&l.LowestPrice,
			&l.MedianPrice,
			&l.MarketPrice,
			&l.CurrentQuantity,
			&l.CurrentSellers,
			&l.SetName,
			&l.Condition,
			&l.Source,
		)
		if err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	return items, rows.Err()
}

const countProducts = `
SELECT COUNT(*) FROM products
`

func (q *Queries) CountProducts(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countProducts)
	var n int64
	err := row.Scan(&n)
	return n, err
}

const countListings = `
SELECT COUNT(*) FROM listings
`

func (q *Queries) CountListings(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countListings)
	var n int64
	err := row.Scan(&n)
	return n, err
}

const getLatestListingForProduct = `
SELECT id, product_id, timestamp, listing_count, lowest_price, median_price,
    market_price, current_quantity, current_sellers, set_name, condition, source
FROM listings WHERE product_id = ? ORDER BY timestamp DESC LIMIT 1
`

func (q *Queries) GetLatestListingForProduct(ctx context.Context, productID int64) (Listing, error) {
	row := q.db.QueryRowContext(ctx, getLatestListingForProduct, productID)
	var l Listing
	err := row.Scan(
		&l.ID,
		&l.ProductID,
		&l.Timestamp,
		&l.ListingCount,
		&l.LowestPrice,
		&l.MedianPrice,
		&l.MarketPrice,
		&l.CurrentQuantity,
		&l.CurrentSellers,
		&l.SetName,
		&l.Condition,
		&l.Source,
	)
	return l, err
}
