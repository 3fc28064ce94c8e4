package tracker

import (
	"context"
	"errors"
	"recordwatch/internal/catalog"
	"recordwatch/internal/components/chrono"
	"recordwatch/internal/components/db"
	"recordwatch/internal/components/telemetry"
	"recordwatch/internal/store"
	"recordwatch/lib/testutil"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func setupTracker(t *testing.T) (*Tracker, store.Store, *telemetry.Recorder) {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "tracker",
		DbSchema: db.Schema,
	})
	t.Cleanup(cleanup)

	s := store.NewStore(res.DB, chrono.FixedImpl{At: time.Unix(1_700_000_000, 0)})
	return NewTracker(s, res.Tel), s, res.Tel
}

func entry(title, price string) catalog.Entry {
	return catalog.Entry{
		Title:     title,
		Url:       "https://shop/products/" + title,
		Price:     price,
		FullPrice: "€" + price,
		Currency:  "€",
		IsVinyl:   true,
	}
}

func titles(entries []catalog.Entry) []string {
	var out []string
	for _, e := range entries {
		out = append(out, e.Title)
	}
	return out
}

func TestMergeNewEntries(t *testing.T) {
	tr, s, _ := setupTracker(t)
	ctx := context.Background()
	require.NoError(t, tr.Load(ctx))

	notify, err := tr.Merge(ctx, []catalog.Entry{
		entry("c", "3,00"),
		entry("a", "1,00"),
		entry("b", "2,00"),
	})
	require.NoError(t, err)
	require.Equal(t, []string{"c", "a", "b"}, titles(notify))
	require.Equal(t, 3, tr.Len())

	stored, err := s.GetAll(ctx, nil)
	require.NoError(t, err)
	require.Len(t, stored, 3)
}

func TestMergeIsIdempotent(t *testing.T) {
	tr, _, _ := setupTracker(t)
	ctx := context.Background()

	entries := []catalog.Entry{entry("a", "1,00"), entry("b", "2,00")}
	_, err := tr.Merge(ctx, entries)
	require.NoError(t, err)

	notify, err := tr.Merge(ctx, entries)
	require.NoError(t, err)
	require.Empty(t, notify)

	require.NoError(t, tr.Load(ctx))
	notify, err = tr.Merge(ctx, entries)
	require.NoError(t, err)
	require.Empty(t, notify)
}

func TestMergeChangedEntries(t *testing.T) {
	tr, s, _ := setupTracker(t)
	ctx := context.Background()

	_, err := tr.Merge(ctx, []catalog.Entry{entry("a", "1,00"), entry("b", "2,00")})
	require.NoError(t, err)

	soldOut := entry("a", "1,00")
	soldOut.IsSoldOut = true
	cheaper := entry("b", "1,50")

	notify, err := tr.Merge(ctx, []catalog.Entry{soldOut, cheaper})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, titles(notify))
	require.True(t, notify[0].IsSoldOut)
	require.Equal(t, "1,50", notify[1].Price)

	stored, err := s.GetAll(ctx, func(e catalog.Entry) bool { return e.Title == "b" })
	require.NoError(t, err)
	require.Equal(t, "1,50", stored[0].Price)
}

func TestMergeIgnoresUrlChanges(t *testing.T) {
	tr, s, _ := setupTracker(t)
	ctx := context.Background()

	_, err := tr.Merge(ctx, []catalog.Entry{entry("a", "1,00")})
	require.NoError(t, err)

	moved := entry("a", "1,00")
	moved.Url = "https://shop/products/somewhere-else"
	notify, err := tr.Merge(ctx, []catalog.Entry{moved})
	require.NoError(t, err)
	require.Empty(t, notify)

	moved.Price = "2,00"
	notify, err = tr.Merge(ctx, []catalog.Entry{moved})
	require.NoError(t, err)
	require.Len(t, notify, 1)
	require.Equal(t, "https://shop/products/a", notify[0].Url)

	indexed, ok := tr.Lookup("a")
	require.True(t, ok)
	require.Equal(t, "https://shop/products/a", indexed.Url)

	stored, err := s.GetAll(ctx, nil)
	require.NoError(t, err)
	require.Equal(t, "https://shop/products/a", stored[0].Url)
}

func TestMergeDuplicatesWithinOnePass(t *testing.T) {
	tr, _, _ := setupTracker(t)
	ctx := context.Background()

	notify, err := tr.Merge(ctx, []catalog.Entry{
		entry("a", "1,00"),
		entry("a", "1,00"),
		entry("a", "2,00"),
	})
	require.NoError(t, err)
	require.Len(t, notify, 2)
	require.Equal(t, "1,00", notify[0].Price)
	require.Equal(t, "2,00", notify[1].Price)
}

func TestMergeSkipsOtherFormats(t *testing.T) {
	tr, _, _ := setupTracker(t)

	cd := entry("cd", "1,00")
	cd.IsVinyl = false
	notify, err := tr.Merge(context.Background(), []catalog.Entry{cd})
	require.NoError(t, err)
	require.Empty(t, notify)
	require.Zero(t, tr.Len())
}

func TestResetMakesEverythingNew(t *testing.T) {
	tr, s, _ := setupTracker(t)
	ctx := context.Background()

	entries := []catalog.Entry{entry("a", "1,00"), entry("b", "2,00")}
	_, err := tr.Merge(ctx, entries)
	require.NoError(t, err)

	require.NoError(t, tr.Reset(ctx))
	require.Zero(t, tr.Len())
	count, err := s.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, count)

	notify, err := tr.Merge(ctx, entries)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, titles(notify))
}

type failingStore struct {
	EntryStore
	err error
}

func (f failingStore) UpsertAll(context.Context, []catalog.Entry) error {
	return f.err
}

func TestMergeStoreFailure(t *testing.T) {
	storeErr := errors.New("disk full")
	tel := telemetry.NewRecorder()
	tr := NewTracker(failingStore{err: storeErr}, tel)

	notify, err := tr.Merge(context.Background(), []catalog.Entry{entry("a", "1,00")})
	require.True(t, errors.Is(err, storeErr))
	require.Nil(t, notify)
	require.Zero(t, tr.Len())
	require.True(t, tel.HasBroken(report_tracker_merge))
}

// flakyStore fails every UpsertAll while broken is set.
type flakyStore struct {
	EntryStore
	broken bool
}

func (f *flakyStore) UpsertAll(ctx context.Context, entries []catalog.Entry) error {
	if f.broken {
		return errors.New("database is locked")
	}
	return f.EntryStore.UpsertAll(ctx, entries)
}

func TestMergeFailureLeavesNoPartialMerge(t *testing.T) {
	res, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name:     "tracker",
		DbSchema: db.Schema,
	})
	t.Cleanup(cleanup)

	s := store.NewStore(res.DB, chrono.FixedImpl{At: time.Unix(1_700_000_000, 0)})
	flaky := &flakyStore{EntryStore: s}
	tr := NewTracker(flaky, res.Tel)
	ctx := context.Background()

	_, err := tr.Merge(ctx, []catalog.Entry{entry("a", "1,00")})
	require.NoError(t, err)

	flaky.broken = true
	_, err = tr.Merge(ctx, []catalog.Entry{entry("a", "2,00"), entry("b", "3,00")})
	require.Error(t, err)

	indexed, ok := tr.Lookup("a")
	require.True(t, ok)
	require.Equal(t, "1,00", indexed.Price)
	_, ok = tr.Lookup("b")
	require.False(t, ok)

	stored, err := s.GetAll(ctx, nil)
	require.NoError(t, err)
	require.Len(t, stored, 1)
	require.Equal(t, "1,00", stored[0].Price)

	flaky.broken = false
	notify, err := tr.Merge(ctx, []catalog.Entry{entry("a", "2,00"), entry("b", "3,00")})
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, titles(notify))
}
