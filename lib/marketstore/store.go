// Package marketstore resolves product identities and appends immutable
// market snapshots to sqlite. Products are created once and never
// mutated; snapshots form an append-only time series per product.
package marketstore

import (
	"context"
	"database/sql"
	"time"

	"sealedmarket-backend/lib/extract"
	"sealedmarket-backend/lib/marketstore/db"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

// DefaultSource labels snapshots whose request did not specify a
// marketplace of origin.
const DefaultSource = "TCGplayer"

type Store struct {
	db  *sql.DB
	qry *db.Queries
}

func NewStore(database *sql.DB) Store {
	return Store{
		db:  database,
		qry: db.New(database),
	}
}

// ResolveOrCreateProduct maps a (name, link) pair to a stable product
// id: exact link match first (when the link is non-empty), exact name
// match second, insert only when both miss. Repeated calls with the
// same link always return the same id.
func (s Store) ResolveOrCreateProduct(ctx context.Context, name, url string) (int64, error) {
	return resolveOrCreate(ctx, s.qry, name, url)
}

func resolveOrCreate(ctx context.Context, qry *db.Queries, name, url string) (int64, error) {
	if url != "" {
		id, err := qry.GetProductIdByUrl(ctx, url)
		if err == nil {
			return id, nil
		}
		if err != sql.ErrNoRows {
			return 0, err
		}
	}

	id, err := qry.GetProductIdByName(ctx, name)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, err
	}

	return qry.CreateProduct(ctx, db.CreateProductParams{
		Name: name,
		Url:  url,
	})
}

type SnapshotRequest struct {
	ProductID int64
	Time      time.Time
	Fields    extract.Fields
	Source    string
}

// RecordSnapshot appends one immutable snapshot row. A product id that
// does not exist surfaces as a foreign key error, it is never swallowed.
func (s Store) RecordSnapshot(ctx context.Context, req SnapshotRequest) error {
	return recordSnapshot(ctx, s.qry, req)
}

func recordSnapshot(ctx context.Context, qry *db.Queries, req SnapshotRequest) error {
	source := req.Source
	if source == "" {
		source = DefaultSource
	}
	return qry.CreateListing(ctx, db.CreateListingParams{
		ProductID:       req.ProductID,
		Timestamp:       req.Time.UTC().Format(time.RFC3339),
		ListingCount:    nullInt(req.Fields.ListingCount),
		LowestPrice:     nullFloat(req.Fields.LowestPrice),
		MedianPrice:     nullFloat(req.Fields.ListedMedian),
		MarketPrice:     nullFloat(req.Fields.MarketPrice),
		CurrentQuantity: nullInt(req.Fields.CurrentQuantity),
		CurrentSellers:  nullInt(req.Fields.CurrentSellers),
		SetName:         nullString(req.Fields.SetName),
		Source:          sql.NullString{String: source, Valid: true},
	})
}

// Record resolves the product and appends the snapshot inside one
// transaction, so a half-created product can never be observed without
// its snapshot if writers ever run concurrently.
func (s Store) Record(ctx context.Context, name, url string, fields extract.Fields, source string, at time.Time) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	productId, err := resolveOrCreate(ctx, txqry, name, url)
	if err != nil {
		return 0, err
	}
	err = recordSnapshot(ctx, txqry, SnapshotRequest{
		ProductID: productId,
		Time:      at,
		Fields:    fields,
		Source:    source,
	})
	if err != nil {
		return 0, err
	}

	return productId, tx.Commit()
}

func (s Store) Products(ctx context.Context) ([]db.Product, error) {
	return s.qry.ListProducts(ctx)
}

func (s Store) SnapshotSeries(ctx context.Context, productID int64) ([]db.Listing, error) {
	return s.qry.GetListingsForProduct(ctx, productID)
}

func (s Store) LatestSnapshot(ctx context.Context, productID int64) (db.Listing, error) {
	return s.qry.GetLatestListingForProduct(ctx, productID)
}

func (s Store) Counts(ctx context.Context) (products int64, listings int64, err error) {
	products, err = s.qry.CountProducts(ctx)
	if err != nil {
		return 0, 0, err
	}
	listings, err = s.qry.CountListings(ctx)
	if err != nil {
		return 0, 0, err
	}
	return products, listings, nil
}

func nullInt(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
