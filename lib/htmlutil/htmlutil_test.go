package htmlutil

import (
	"net/url"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestAbsoluteURL(t *testing.T) {
	base, err := url.Parse("https://blackscreenrecords.com")
	require.NoError(t, err)

	table := []struct {
		href     string
		expected string
	}{
		{href: "/products/some-record", expected: "https://blackscreenrecords.com/products/some-record"},
		{href: " /collections/all-releases/products/x#top ", expected: "https://blackscreenrecords.com/collections/all-releases/products/x"},
		{href: "https://BLACKSCREENRECORDS.com:443/products/y", expected: "https://blackscreenrecords.com/products/y"},
	}

	for _, row := range table {
		result, err := AbsoluteURL(base, row.href)
		require.NoError(t, err)
		require.Equal(t, row.expected, result)
	}
}

func TestLastNonEmptyChildText(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<p class="meta"><span>Regular price</span> from €35,50 <br> </p>`,
	))
	require.NoError(t, err)

	require.Equal(t, "from €35,50", LastNonEmptyChildText(doc.Find("p.meta")))
}

func TestFirstText(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<div><span class="badge"> Sold Out </span><span class="badge">second</span></div>`,
	))
	require.NoError(t, err)

	text, ok := FirstText(doc.Selection, "span.badge")
	require.True(t, ok)
	require.Equal(t, "Sold Out", text)

	_, ok = FirstText(doc.Selection, "div.missing")
	require.False(t, ok)
}

func TestCleanText(t *testing.T) {
	require.Equal(t, "a b", CleanText("\n  a \t\t  b  \n"))
}
