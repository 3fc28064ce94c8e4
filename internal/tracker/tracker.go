package tracker

import (
	"context"
	"fmt"
	"recordwatch/internal/catalog"
	"recordwatch/internal/components/assert"
	"recordwatch/internal/components/telemetry"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	report_tracker_merge = "tracker.merge"
	report_tracker_load  = "tracker.load"
)

// EntryStore is the persistence the tracker writes through to.
type EntryStore interface {
	GetAll(ctx context.Context, predicate func(catalog.Entry) bool) ([]catalog.Entry, error)
	UpsertAll(ctx context.Context, entries []catalog.Entry) error
	DeleteAll(ctx context.Context) error
}

// Index maps entry titles to the last known state of the entry.
type Index map[string]*catalog.Entry

// Tracker detects new and changed entries against what it has seen before.
// It is not safe for concurrent use, callers serialize passes.
type Tracker struct {
	store    EntryStore
	index    Index
	tel      telemetry.API
	notified metric.Int64Counter
}

func NewTracker(store EntryStore, tel telemetry.API) *Tracker {
	assert.NotNil(store)
	assert.NotNil(tel)
	tel = telemetry.NewScopedAPI("tracker", tel)

	notified, err := otel.Meter("recordwatch/internal/tracker").Int64Counter(
		"tracker.notifications",
		metric.WithDescription("entries reported as new or changed"),
	)
	if err != nil {
		tel.ReportWarning(report_tracker_load, fmt.Errorf("create counter: %w", err))
	}

	return &Tracker{
		store:    store,
		index:    Index{},
		tel:      tel,
		notified: notified,
	}
}

// Load replaces the index with the stored vinyl entries.
func (t *Tracker) Load(ctx context.Context) error {
	entries, err := t.store.GetAll(ctx, func(e catalog.Entry) bool { return e.IsVinyl })
	if err != nil {
		t.tel.ReportBroken(report_tracker_load, err)
		return fmt.Errorf("load index: %w", err)
	}

	index := make(Index, len(entries))
	for _, e := range entries {
		e := e
		index[e.Title] = &e
	}
	t.index = index
	t.tel.ReportCount("index.size", int64(len(index)))
	return nil
}

// Merge records every entry in order and returns the ones that are new or
// whose compared fields changed. A stored entry keeps its original url.
// Merging the same entries again returns nothing. The merge is written in
// one transaction and the index only changes once it is committed.
func (t *Tracker) Merge(ctx context.Context, entries []catalog.Entry) ([]catalog.Entry, error) {
	staged := Index{}
	var order []string
	var notify []catalog.Entry
	var kinds []string

	for _, e := range entries {
		if !e.IsVinyl {
			continue
		}

		current, touched := staged[e.Title]
		if !touched {
			existing, known := t.index[e.Title]
			if !known {
				added := e
				staged[e.Title] = &added
				order = append(order, e.Title)
				notify = append(notify, e)
				kinds = append(kinds, "new")
				continue
			}
			updated := *existing
			current = &updated
			staged[e.Title] = current
			order = append(order, e.Title)
		}

		diff := current.Diff(e)
		if !current.ApplyFrom(e) {
			continue
		}
		t.tel.ReportDebug("entry changed", e.Title, diff)
		notify = append(notify, *current)
		kinds = append(kinds, "changed")
	}

	if len(order) == 0 {
		return notify, nil
	}
	persist := make([]catalog.Entry, len(order))
	for i, title := range order {
		persist[i] = *staged[title]
	}
	err := t.store.UpsertAll(ctx, persist)
	if err != nil {
		t.tel.ReportBroken(report_tracker_merge, err, len(persist))
		return nil, fmt.Errorf("merge: %w", err)
	}

	for title, e := range staged {
		t.index[title] = e
	}
	for _, kind := range kinds {
		t.count(ctx, kind)
	}
	return notify, nil
}

func (t *Tracker) count(ctx context.Context, kind string) {
	if t.notified == nil {
		return
	}
	t.notified.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

// Reset deletes every stored entry and empties the index.
func (t *Tracker) Reset(ctx context.Context) error {
	err := t.store.DeleteAll(ctx)
	if err != nil {
		t.tel.ReportBroken(report_tracker_merge, fmt.Errorf("reset: %w", err))
		return fmt.Errorf("reset: %w", err)
	}
	t.index = Index{}
	return nil
}

// Len is the number of indexed entries.
func (t *Tracker) Len() int {
	return len(t.index)
}

// Lookup returns a copy of the indexed entry with the given title.
func (t *Tracker) Lookup(title string) (catalog.Entry, bool) {
	e, ok := t.index[title]
	if !ok {
		return catalog.Entry{}, false
	}
	return *e, true
}
