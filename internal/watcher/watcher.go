package watcher

import (
	"context"
	"errors"
	"fmt"
	"recordwatch/internal/catalog"
	"recordwatch/internal/components/assert"
	"recordwatch/internal/components/chrono"
	"recordwatch/internal/components/telemetry"
	"recordwatch/internal/exchange"
	"recordwatch/internal/notify"
	"recordwatch/internal/tracker"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	report_watcher_pass       = "watcher.pass"
	report_watcher_collection = "watcher.collection"
	report_watcher_rate       = "watcher.rate"
	report_watcher_first_page = "watcher.first-page"

	DefaultCronSpec = "@every 30m"
)

// ErrPassInProgress is returned when a pass (or a clear) is requested while
// another one is still running.
var ErrPassInProgress = errors.New("a pass is already in progress")

var tracer = otel.Tracer("recordwatch/internal/watcher")

// CollectionWalker lists the entries of a paginated collection.
type CollectionWalker interface {
	Walk(ctx context.Context, template string) ([]catalog.Entry, error)
	Page(ctx context.Context, template string, page int) ([]catalog.Entry, error)
}

// RateSource provides the conversion rate for notification prices.
type RateSource interface {
	Fetch(ctx context.Context) (exchange.Rate, error)
}

type Options struct {
	// Name is used in user facing replies, ex. "Database cleared for <name>".
	Name string
	// Collections are url templates with a %d page placeholder, walked in order.
	Collections []string
}

type Watcher struct {
	name        string
	collections []string

	walker    CollectionWalker
	rates     RateSource
	tracker   *tracker.Tracker
	formatter notify.Formatter
	sink      notify.Sink
	tel       telemetry.API

	guard sync.Mutex

	rateLock sync.Mutex
	rate     exchange.Rate
}

func NewWatcher(
	opts Options,
	walker CollectionWalker,
	rates RateSource,
	tr *tracker.Tracker,
	formatter notify.Formatter,
	sink notify.Sink,
	tel telemetry.API,
) *Watcher {
	assert.NotEmpty(opts.Collections)
	assert.NotNil(walker)
	assert.NotNil(rates)
	assert.NotNil(tr)
	assert.NotNil(sink)
	assert.NotNil(tel)

	return &Watcher{
		name:        opts.Name,
		collections: opts.Collections,
		walker:      walker,
		rates:       rates,
		tracker:     tr,
		formatter:   formatter,
		sink:        sink,
		tel:         telemetry.NewScopedAPI("watcher", tel),
	}
}

// Rate returns the last successfully fetched rate.
func (w *Watcher) Rate() exchange.Rate {
	w.rateLock.Lock()
	defer w.rateLock.Unlock()
	return w.rate
}

// refreshRate fetches a new rate, keeping the previous one on failure.
func (w *Watcher) refreshRate(ctx context.Context) exchange.Rate {
	rate, err := w.rates.Fetch(ctx)

	w.rateLock.Lock()
	defer w.rateLock.Unlock()
	if err != nil {
		w.tel.ReportWarning(report_watcher_rate, err, w.rate.Value)
		return w.rate
	}
	w.rate = rate
	return rate
}

type CollectionResult struct {
	Template string
	// Entries is the number of entries walked.
	Entries int
	// Notified are the new or changed entries, sold out ones included.
	Notified []catalog.Entry
	// Lines are the notification lines sent for this collection.
	Lines []string
	Err   error
}

type PassResult struct {
	Rate        exchange.Rate
	Collections []CollectionResult
	// Lines are the notification lines sent, in collection order.
	Lines []string
}

// Pass walks every collection, merges what it finds into the tracker and
// sends a line for every new or changed entry that is not sold out. A
// failing collection does not stop the others, its error is part of the
// joined error returned.
func (w *Watcher) Pass(ctx context.Context) (PassResult, error) {
	if !w.guard.TryLock() {
		return PassResult{}, ErrPassInProgress
	}
	defer w.guard.Unlock()

	ctx, span := tracer.Start(ctx, "Pass")
	defer span.End()

	result := PassResult{Rate: w.refreshRate(ctx)}

	err := w.tracker.Load(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load index")
		w.tel.ReportBroken(report_watcher_pass, err)
		return result, err
	}

	var errs []error
	for _, template := range w.collections {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		collection := w.collection(ctx, template, result.Rate)
		result.Collections = append(result.Collections, collection)
		result.Lines = append(result.Lines, collection.Lines...)
		if collection.Err != nil {
			errs = append(errs, collection.Err)
		}
	}

	span.SetAttributes(attribute.Int("lines", len(result.Lines)))
	err = errors.Join(errs...)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "collection failures")
	}
	w.tel.ReportCount("pass.lines", int64(len(result.Lines)))
	return result, err
}

func (w *Watcher) collection(ctx context.Context, template string, rate exchange.Rate) CollectionResult {
	out := CollectionResult{Template: template}

	entries, err := w.walker.Walk(ctx, template)
	if err != nil {
		w.tel.ReportBroken(report_watcher_collection, err, template)
		out.Err = fmt.Errorf("walk '%s': %w", template, err)
		return out
	}
	out.Entries = len(entries)

	changed, err := w.tracker.Merge(ctx, entries)
	if err != nil {
		w.tel.ReportBroken(report_watcher_collection, err, template)
		out.Err = fmt.Errorf("merge '%s': %w", template, err)
		return out
	}
	out.Notified = changed

	lines, formatErr := w.formatter.FormatAll(notify.Available(changed), rate)
	if formatErr != nil {
		w.tel.ReportWarning(report_watcher_collection, formatErr, template)
	}
	if len(lines) > 0 {
		err = w.sink.Send(ctx, lines)
		if err != nil {
			w.tel.ReportBroken(report_watcher_collection, fmt.Errorf("send: %w", err), template)
			out.Err = errors.Join(formatErr, fmt.Errorf("send '%s': %w", template, err))
			return out
		}
		out.Lines = lines
	}
	if formatErr != nil {
		out.Err = fmt.Errorf("format '%s': %w", template, formatErr)
	}
	return out
}

// FirstPage refreshes the rate and sends the first page of the first
// collection as it is now, without recording anything.
func (w *Watcher) FirstPage(ctx context.Context) ([]string, error) {
	ctx, span := tracer.Start(ctx, "FirstPage")
	defer span.End()

	rate := w.refreshRate(ctx)

	template := w.collections[0]
	entries, err := w.walker.Page(ctx, template, 1)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "first page")
		w.tel.ReportBroken(report_watcher_first_page, err, template)
		return nil, err
	}

	lines, formatErr := w.formatter.FormatAll(notify.Available(entries), rate)
	if formatErr != nil {
		w.tel.ReportWarning(report_watcher_first_page, formatErr)
	}
	if len(lines) > 0 {
		err = w.sink.Send(ctx, lines)
		if err != nil {
			w.tel.ReportBroken(report_watcher_first_page, fmt.Errorf("send: %w", err))
			return lines, errors.Join(formatErr, err)
		}
	}
	return lines, formatErr
}

// Clear forgets every entry, the next pass reports everything as new.
// It returns the reply for whoever asked.
func (w *Watcher) Clear(ctx context.Context) (string, error) {
	if !w.guard.TryLock() {
		return "", ErrPassInProgress
	}
	defer w.guard.Unlock()

	err := w.tracker.Reset(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Database cleared for %s", w.name), nil
}

// Schedule runs a pass on every tick of spec (DefaultCronSpec when empty)
// until ctx is done.
func (w *Watcher) Schedule(ctx context.Context, cron chrono.CronAPI, spec string) error {
	if spec == "" {
		spec = DefaultCronSpec
	}
	return cron.Cron(spec, func() {
		if ctx.Err() != nil {
			return
		}
		res, err := w.Pass(ctx)
		if errors.Is(err, ErrPassInProgress) {
			w.tel.ReportWarning(report_watcher_pass, err)
			return
		}
		if err != nil {
			w.tel.ReportWarning(report_watcher_pass, "pass finished with errors", err)
		}
		w.tel.ReportDebug("scheduled pass done", len(res.Lines))
	})
}
