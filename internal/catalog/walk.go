package catalog

import (
	"context"
	"fmt"
	"recordwatch/internal/components/telemetry"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	report_walker_walk = "walker.walk"
	report_walker_page = "walker.page"

	selectorPagination     = "ul.pagination-custom"
	selectorPaginationItem = "li"
)

// PageURL renders a collection template such as
// "https://shop/collections/all?page=%d" for a 1-based page number.
func PageURL(template string, page int) string {
	return fmt.Sprintf(template, page)
}

// Walker walks every page of a paginated collection.
type Walker struct {
	loader    PageLoader
	extractor Extractor
	tel       telemetry.API
}

func NewWalker(loader PageLoader, extractor Extractor, tel telemetry.API) Walker {
	return Walker{
		loader:    loader,
		extractor: extractor,
		tel:       telemetry.NewScopedAPI("catalog", tel),
	}
}

// LastPage returns the highest integer item of the pagination control.
func LastPage(doc *goquery.Document) (int, error) {
	lastPage := 0
	found := false
	doc.Find(selectorPagination).First().
		Find(selectorPaginationItem).
		Each(func(_ int, li *goquery.Selection) {
			n, err := strconv.Atoi(strings.TrimSpace(li.Text()))
			if err != nil {
				return
			}
			if !found || n > lastPage {
				lastPage = n
				found = true
			}
		})
	if !found || lastPage < 1 {
		return 0, ErrNoPagination
	}
	return lastPage, nil
}

// Walk returns the entries of every page of the collection, in page order.
// Any failure discards everything walked so far.
func (w Walker) Walk(ctx context.Context, template string) ([]Entry, error) {
	first := PageURL(template, 1)
	doc, err := w.loader.Load(ctx, first)
	if err != nil {
		w.tel.ReportBroken(report_walker_walk, fmt.Errorf("load: %w", err), first)
		return nil, fmt.Errorf("load '%s': %w", first, err)
	}

	lastPage, err := LastPage(doc)
	if err != nil {
		w.tel.ReportBroken(report_walker_walk, err, template)
		return nil, fmt.Errorf("last page of '%s': %w", template, err)
	}
	w.tel.ReportDebug("walking collection", template, lastPage)

	var result []Entry
	for page := 1; page <= lastPage; page++ {
		if page > 1 {
			link := PageURL(template, page)
			doc, err = w.loader.Load(ctx, link)
			if err != nil {
				w.tel.ReportBroken(report_walker_walk, fmt.Errorf("load: %w", err), link)
				return nil, fmt.Errorf("load '%s': %w", link, err)
			}
		}

		entries, err := w.extractor.Extract(doc)
		if err != nil {
			w.tel.ReportBroken(report_walker_walk, fmt.Errorf("extract: %w", err), template, page)
			return nil, fmt.Errorf("extract page %d of '%s': %w", page, template, err)
		}
		result = append(result, entries...)
	}

	w.tel.ReportCount("walker.entries", int64(len(result)))
	return result, nil
}

// Page returns the entries of a single page without looking at pagination.
func (w Walker) Page(ctx context.Context, template string, page int) ([]Entry, error) {
	link := PageURL(template, page)
	doc, err := w.loader.Load(ctx, link)
	if err != nil {
		w.tel.ReportBroken(report_walker_page, fmt.Errorf("load: %w", err), link)
		return nil, fmt.Errorf("load '%s': %w", link, err)
	}
	entries, err := w.extractor.Extract(doc)
	if err != nil {
		w.tel.ReportBroken(report_walker_page, fmt.Errorf("extract: %w", err), link)
		return nil, fmt.Errorf("extract '%s': %w", link, err)
	}
	return entries, nil
}
