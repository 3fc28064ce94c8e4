package db

import (
	"context"
)

const getAllListingEntries = `-- name: GetAllListingEntries :many
select title, url, price, full_price, currency, is_pre_order, is_price_range, is_sold_out, is_vinyl, first_seen, updated_at
from listing_entry
order by first_seen, title
`

func (q *Queries) GetAllListingEntries(ctx context.Context) ([]ListingEntry, error) {
	rows, err := q.db.QueryContext(ctx, getAllListingEntries)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []ListingEntry
	for rows.Next() {
		var i ListingEntry
		if err := rows.Scan(
			&i.Title,
			&i.Url,
			&i.Price,
			&i.FullPrice,
			&i.Currency,
			&i.IsPreOrder,
			&i.IsPriceRange,
			&i.IsSoldOut,
			&i.IsVinyl,
			&i.FirstSeen,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const upsertListingEntry = `-- name: UpsertListingEntry :exec
insert into listing_entry (
    title, url, price, full_price, currency,
    is_pre_order, is_price_range, is_sold_out, is_vinyl,
    first_seen, updated_at
) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
on conflict (title) do update set
    price = excluded.price,
    full_price = excluded.full_price,
    currency = excluded.currency,
    is_pre_order = excluded.is_pre_order,
    is_price_range = excluded.is_price_range,
    is_sold_out = excluded.is_sold_out,
    is_vinyl = excluded.is_vinyl,
    updated_at = excluded.updated_at
`

type UpsertListingEntryParams struct {
	Title        string
	Url          string
	Price        string
	FullPrice    string
	Currency     string
	IsPreOrder   bool
	IsPriceRange bool
	IsSoldOut    bool
	IsVinyl      bool
	FirstSeen    int64
	UpdatedAt    int64
}

// url and first_seen are only written on insert.
func (q *Queries) UpsertListingEntry(ctx context.Context, arg UpsertListingEntryParams) error {
	_, err := q.db.ExecContext(ctx, upsertListingEntry,
		arg.Title,
		arg.Url,
		arg.Price,
		arg.FullPrice,
		arg.Currency,
		arg.IsPreOrder,
		arg.IsPriceRange,
		arg.IsSoldOut,
		arg.IsVinyl,
		arg.FirstSeen,
		arg.UpdatedAt,
	)
	return err
}

const deleteAllListingEntries = `-- name: DeleteAllListingEntries :exec
delete from listing_entry
`

func (q *Queries) DeleteAllListingEntries(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllListingEntries)
	return err
}

const countListingEntries = `-- name: CountListingEntries :one
select count(*) from listing_entry
`

func (q *Queries) CountListingEntries(ctx context.Context) (int64, error) {
	row := q.db.QueryRowContext(ctx, countListingEntries)
	var count int64
	err := row.Scan(&count)
	return count, err
}
