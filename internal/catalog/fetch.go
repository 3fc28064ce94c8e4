package catalog

import (
	"bytes"
	"context"
	"fmt"
	"recordwatch/internal/components/telemetry"
	"recordwatch/lib/restyutil"
	libtelemetry "recordwatch/lib/telemetry"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

const (
	report_fetcher_load = "fetcher.load"
)

const tracerName = "recordwatch/internal/catalog"

var tracer = otel.Tracer(tracerName)

// PageLoader loads and parses a single listing page.
type PageLoader interface {
	Load(ctx context.Context, link string) (*goquery.Document, error)
}

type FetcherOptions struct {
	// RequestsPerSecond bounds how fast pages are requested, 0 means unbounded.
	RequestsPerSecond float64
	Timeout           time.Duration
	UserAgent         string
	// Dump, when set, receives the body of every fetched page.
	Dump restyutil.Output
}

// Fetcher is the PageLoader that talks HTTP.
type Fetcher struct {
	http    *resty.Client
	limiter *rate.Limiter
	tel     telemetry.API
}

func NewFetcher(opts FetcherOptions, tel telemetry.API) Fetcher {
	tel = telemetry.NewScopedAPI("catalog", tel)

	client := resty.New()
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	if opts.UserAgent != "" {
		client.SetHeader("User-Agent", opts.UserAgent)
	}
	telemetry.InstrumentResty(client, tel)
	libtelemetry.TraceResty(client, tracerName)
	restyutil.DumpResponses(client, opts.Dump)

	limiter := rate.NewLimiter(rate.Inf, 1)
	if opts.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	}

	return Fetcher{
		http:    client,
		limiter: limiter,
		tel:     tel,
	}
}

func (f Fetcher) Load(ctx context.Context, link string) (*goquery.Document, error) {
	ctx, span := tracer.Start(ctx, "Load")
	defer span.End()
	span.SetAttributes(attribute.String("url", link))

	err := f.limiter.Wait(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "rate limiter wait")
		return nil, err
	}

	res, err := f.http.R().
		SetContext(ctx).
		Get(link)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch")
		f.tel.ReportBroken(report_fetcher_load, fmt.Errorf("fetch: %w", err), link)
		return nil, err
	}
	if res.IsError() {
		err := fmt.Errorf("fetch '%s': unexpected status %s", link, res.Status())
		span.RecordError(err)
		span.SetStatus(codes.Error, "unexpected status")
		f.tel.ReportBroken(report_fetcher_load, err)
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse html")
		f.tel.ReportBroken(report_fetcher_load, fmt.Errorf("parse html: %w", err), link)
		return nil, err
	}
	return doc, nil
}
