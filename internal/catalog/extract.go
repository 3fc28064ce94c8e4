package catalog

import (
	"fmt"
	"net/url"
	"recordwatch/lib/htmlutil"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const (
	selectorItem     = "a.grid-link"
	selectorMeta     = "p.grid-link__meta"
	selectorTitle    = "p.grid-link__title"
	selectorPreOrder = "div.badge__pre-order"
	selectorBadge    = "span.badge__text"
)

// MediaFilter decides whether an item is the physical media we watch for
// (vinyl), by excluding items that look like other formats.
type MediaFilter struct {
	// ExcludeTitleMarkers are substrings of the title that mark an item as
	// another format, ex. "CD]" for titles like "Some Album [CD]".
	ExcludeTitleMarkers []string `json:"exclude_title_markers"`
	// ExcludeImageMarkers are matched case-insensitively against every
	// image source of the item.
	ExcludeImageMarkers []string `json:"exclude_image_markers"`
	// CaseSensitive applies to ExcludeTitleMarkers only.
	CaseSensitive bool `json:"case_sensitive"`
}

func DefaultMediaFilter() MediaFilter {
	return MediaFilter{
		ExcludeTitleMarkers: []string{"CD]"},
		ExcludeImageMarkers: []string{"cassette"},
	}
}

// Match reports whether an item with the given title and image sources is
// of interest.
func (f MediaFilter) Match(title string, imageSources []string) bool {
	for _, marker := range f.ExcludeTitleMarkers {
		if marker == "" {
			continue
		}
		if f.CaseSensitive {
			if strings.Contains(title, marker) {
				return false
			}
			continue
		}
		if strings.Contains(strings.ToLower(title), strings.ToLower(marker)) {
			return false
		}
	}
	for _, src := range imageSources {
		src = strings.ToLower(src)
		for _, marker := range f.ExcludeImageMarkers {
			if marker != "" && strings.Contains(src, strings.ToLower(marker)) {
				return false
			}
		}
	}
	return true
}

// Extractor turns a parsed listing page into entries.
type Extractor struct {
	baseUrl *url.URL
	filter  MediaFilter
}

func NewExtractor(baseUrl string, filter MediaFilter) (Extractor, error) {
	parsed, err := url.Parse(baseUrl)
	if err != nil {
		return Extractor{}, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return Extractor{}, fmt.Errorf("base url '%s' must be absolute", baseUrl)
	}
	return Extractor{baseUrl: parsed, filter: filter}, nil
}

// Extract returns the entries of interest on the page in document order.
// A single malformed item fails the whole page.
func (x Extractor) Extract(doc *goquery.Document) ([]Entry, error) {
	var entries []Entry
	var err error
	doc.Find(selectorItem).EachWithBreak(func(i int, item *goquery.Selection) bool {
		var entry Entry
		entry, err = x.extractItem(item)
		if err != nil {
			err = fmt.Errorf("item %d: %w", i, err)
			return false
		}
		if entry.IsVinyl {
			entries = append(entries, entry)
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (x Extractor) extractItem(item *goquery.Selection) (Entry, error) {
	meta := item.Find(selectorMeta).First()
	if meta.Length() == 0 {
		return Entry{}, fmt.Errorf("%w: %s", ErrMissingField, selectorMeta)
	}
	rawTitle, ok := htmlutil.FirstText(item, selectorTitle)
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrMissingField, selectorTitle)
	}

	fullPrice := htmlutil.LastNonEmptyChildText(meta)
	currency, price, err := ParsePrice(fullPrice)
	if err != nil {
		return Entry{}, err
	}

	preOrder, _ := htmlutil.FirstText(item, selectorPreOrder)
	badge, _ := htmlutil.FirstText(item, selectorBadge)

	var images []string
	item.Find("img").Each(func(_ int, img *goquery.Selection) {
		images = append(images, img.AttrOr("src", ""))
	})

	link, err := htmlutil.AbsoluteURL(x.baseUrl, item.AttrOr("href", ""))
	if err != nil {
		return Entry{}, fmt.Errorf("item url: %w", err)
	}

	title := htmlutil.CleanText(rawTitle)
	return Entry{
		Title:        title,
		Url:          link,
		Price:        price,
		FullPrice:    fullPrice,
		Currency:     currency,
		IsPreOrder:   preOrder != "",
		IsPriceRange: strings.Contains(strings.ToLower(strings.TrimSpace(meta.Text())), "from"),
		IsSoldOut:    strings.Contains(strings.ToLower(badge), "sold out"),
		IsVinyl:      x.filter.Match(title, images),
	}, nil
}

// ParsePrice splits a displayed price like "From €35,50" into its currency
// symbol ("€") and numeric text ("35,50").
func ParsePrice(fullPrice string) (currency, value string, err error) {
	text := strings.TrimSpace(fullPrice)
	if len(text) >= 4 && strings.EqualFold(text[:4], "from") {
		text = strings.TrimSpace(text[4:])
	}
	symbol, size := utf8.DecodeRuneInString(text)
	if symbol == utf8.RuneError || size == len(text) {
		return "", "", fmt.Errorf("%w: '%s'", ErrPriceFormat, fullPrice)
	}
	return string(symbol), strings.TrimSpace(text[size:]), nil
}
