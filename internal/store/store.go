package store

import (
	"context"
	"database/sql"
	"fmt"
	"recordwatch/internal/catalog"
	"recordwatch/internal/components/assert"
	"recordwatch/internal/components/chrono"
	"recordwatch/internal/components/db"
	"time"
)

// Store persists catalog entries keyed by title.
type Store struct {
	qry    *db.Queries
	makeTx db.MakeTx
	clock  chrono.API
}

func NewStore(database *sql.DB, clock chrono.API) Store {
	assert.NotNil(database)
	assert.NotNil(clock)
	return Store{
		qry:    db.New(database),
		makeTx: db.NewMakeTx(database),
		clock:  clock,
	}
}

// Record is a stored entry with its bookkeeping timestamps.
type Record struct {
	catalog.Entry
	FirstSeen time.Time
	UpdatedAt time.Time
}

func recordFromRow(row db.ListingEntry) Record {
	return Record{
		Entry: catalog.Entry{
			Title:        row.Title,
			Url:          row.Url,
			Price:        row.Price,
			FullPrice:    row.FullPrice,
			Currency:     row.Currency,
			IsPreOrder:   row.IsPreOrder,
			IsPriceRange: row.IsPriceRange,
			IsSoldOut:    row.IsSoldOut,
			IsVinyl:      row.IsVinyl,
		},
		FirstSeen: time.Unix(row.FirstSeen, 0),
		UpdatedAt: time.Unix(row.UpdatedAt, 0),
	}
}

// Records returns every stored row in the order entries were first seen.
func (s Store) Records(ctx context.Context) ([]Record, error) {
	rows, err := s.qry.GetAllListingEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("get listing entries: %w", err)
	}
	records := make([]Record, len(rows))
	for i, row := range rows {
		records[i] = recordFromRow(row)
	}
	return records, nil
}

// GetAll returns every stored entry for which predicate is true, a nil
// predicate matches everything.
func (s Store) GetAll(ctx context.Context, predicate func(catalog.Entry) bool) ([]catalog.Entry, error) {
	records, err := s.Records(ctx)
	if err != nil {
		return nil, err
	}
	var entries []catalog.Entry
	for _, r := range records {
		if predicate != nil && !predicate(r.Entry) {
			continue
		}
		entries = append(entries, r.Entry)
	}
	return entries, nil
}

func (s Store) upsertParams(e catalog.Entry) db.UpsertListingEntryParams {
	now := s.clock.Now().Unix()
	return db.UpsertListingEntryParams{
		Title:        e.Title,
		Url:          e.Url,
		Price:        e.Price,
		FullPrice:    e.FullPrice,
		Currency:     e.Currency,
		IsPreOrder:   e.IsPreOrder,
		IsPriceRange: e.IsPriceRange,
		IsSoldOut:    e.IsSoldOut,
		IsVinyl:      e.IsVinyl,
		FirstSeen:    now,
		UpdatedAt:    now,
	}
}

// UpsertAll inserts or updates every entry in a single transaction, nothing
// is written when one of them fails. The stored url of an existing entry
// is kept.
func (s Store) UpsertAll(ctx context.Context, entries []catalog.Entry) error {
	tx, discard, commit, err := s.makeTx(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer discard()

	for _, e := range entries {
		err = tx.UpsertListingEntry(ctx, s.upsertParams(e))
		if err != nil {
			return fmt.Errorf("upsert '%s': %w", e.Title, err)
		}
	}
	return commit()
}

func (s Store) DeleteAll(ctx context.Context) error {
	err := s.qry.DeleteAllListingEntries(ctx)
	if err != nil {
		return fmt.Errorf("delete listing entries: %w", err)
	}
	return nil
}

func (s Store) Count(ctx context.Context) (int64, error) {
	return s.qry.CountListingEntries(ctx)
}
