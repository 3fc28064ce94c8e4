package catalog

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
)

const testBaseUrl = "https://blackscreenrecords.com"

type item struct {
	href     string
	title    string
	price    string
	preOrder bool
	soldOut  bool
	image    string
	noMeta   bool
}

func (i item) html() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `<a class="grid-link" href="%s">`, i.href)
	if i.preOrder {
		sb.WriteString(`<div class="badge badge__pre-order">Pre-Order</div>`)
	}
	if i.soldOut {
		sb.WriteString(`<div class="badge"><span class="badge__text">Sold Out</span></div>`)
	}
	image := i.image
	if image == "" {
		image = "//cdn.shopify.com/s/files/vinyl-black.jpg"
	}
	fmt.Fprintf(&sb, `<span class="grid-link__image"><img src="%s"></span>`, image)
	fmt.Fprintf(&sb, `<p class="grid-link__title">%s</p>`, i.title)
	if !i.noMeta {
		fmt.Fprintf(&sb, `<p class="grid-link__meta"><span class="visually-hidden">Regular price</span>%s</p>`, i.price)
	}
	sb.WriteString(`</a>`)
	return sb.String()
}

func pageHTML(pagination []string, items ...item) string {
	var sb strings.Builder
	sb.WriteString(`<html><body><div class="grid-uniform">`)
	for _, i := range items {
		sb.WriteString(`<div class="grid__item">`)
		sb.WriteString(i.html())
		sb.WriteString(`</div>`)
	}
	sb.WriteString(`</div>`)
	if pagination != nil {
		sb.WriteString(`<ul class="pagination-custom">`)
		for _, p := range pagination {
			fmt.Fprintf(&sb, `<li><a href="#">%s</a></li>`, p)
		}
		sb.WriteString(`</ul>`)
	}
	sb.WriteString(`</body></html>`)
	return sb.String()
}

func mustDoc(body string) *goquery.Document {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		panic(err)
	}
	return doc
}

// fakeLoader serves pages from memory and remembers what was asked for.
type fakeLoader struct {
	mu        sync.Mutex
	pages     map[string]string
	requested []string
}

func (f *fakeLoader) Load(_ context.Context, link string) (*goquery.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requested = append(f.requested, link)
	body, ok := f.pages[link]
	if !ok {
		return nil, fmt.Errorf("no page at %s", link)
	}
	return mustDoc(body), nil
}
