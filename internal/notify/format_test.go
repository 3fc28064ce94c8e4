package notify

import (
	"errors"
	"recordwatch/internal/catalog"
	"recordwatch/internal/exchange"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleEntry() catalog.Entry {
	return catalog.Entry{
		Title:     "Hotline Miami (2xLP)",
		Url:       "https://blackscreenrecords.com/products/hotline-miami",
		Price:     "35,50",
		FullPrice: "€35,50",
		Currency:  "€",
		IsVinyl:   true,
	}
}

func TestFormat(t *testing.T) {
	rate := exchange.Rate{Value: 4.20}

	table := []struct {
		name     string
		msg      MessageFormatter
		mutate   func(e *catalog.Entry)
		expected string
	}{
		{
			name:     "markdown",
			msg:      Markdown{},
			expected: "Hotline Miami (2xLP) - €35,50 (149.10 zł) - <https://blackscreenrecords.com/products/hotline-miami>",
		},
		{
			name:     "markdown pre-order",
			msg:      Markdown{},
			mutate:   func(e *catalog.Entry) { e.IsPreOrder = true },
			expected: "**[PRE-ORDER]** Hotline Miami (2xLP) - €35,50 (149.10 zł) - <https://blackscreenrecords.com/products/hotline-miami>",
		},
		{
			name: "plain price range",
			msg:  Plain{},
			mutate: func(e *catalog.Entry) {
				e.IsPreOrder = true
				e.FullPrice = "From €35,50"
			},
			expected: "[PRE-ORDER] Hotline Miami (2xLP) - From €35,50 (149.10 zł) - https://blackscreenrecords.com/products/hotline-miami",
		},
	}

	for _, row := range table {
		e := sampleEntry()
		if row.mutate != nil {
			row.mutate(&e)
		}
		line, err := NewFormatter(row.msg, "").Format(e, rate)
		require.NoError(t, err, row.name)
		require.Equal(t, row.expected, line, row.name)
	}
}

func TestFormatWithoutRate(t *testing.T) {
	line, err := NewFormatter(Markdown{}, "PLN").Format(sampleEntry(), exchange.Rate{})
	require.NoError(t, err)
	require.Contains(t, line, "(0.00 PLN)")
}

func TestFormatBadPrice(t *testing.T) {
	e := sampleEntry()
	e.Price = "TBA"

	_, err := NewFormatter(nil, "").Format(e, exchange.Rate{Value: 4.2})
	require.True(t, errors.Is(err, catalog.ErrPriceFormat), err)
}

func TestConvertRounds(t *testing.T) {
	table := []struct {
		price    string
		rate     float64
		expected string
	}{
		{price: "35,50", rate: 4.20, expected: "149.10"},
		{price: "19.99", rate: 4.3213, expected: "86.38"},
		{price: "10,25", rate: 4.3, expected: "44.08"},
		{price: "1,005", rate: 1, expected: "1.01"},
		{price: "2,675", rate: 1, expected: "2.68"},
		{price: "0,125", rate: 0.1, expected: "0.01"},
		{price: "12,00", rate: 0, expected: "0.00"},
	}
	for _, row := range table {
		value, err := Convert(row.price, exchange.Rate{Value: row.rate})
		require.NoError(t, err, row.price)
		require.Equal(t, row.expected, value.StringFixed(2), "%s x %v", row.price, row.rate)
	}
}

func TestFormatAll(t *testing.T) {
	good := sampleEntry()
	bad := sampleEntry()
	bad.Title = "Broken"
	bad.Price = ""

	lines, err := NewFormatter(Markdown{}, "").FormatAll([]catalog.Entry{good, bad, good}, exchange.Rate{Value: 1})
	require.Error(t, err)
	require.Contains(t, err.Error(), "Broken")
	require.Len(t, lines, 2)
}

func TestAvailable(t *testing.T) {
	a := sampleEntry()
	b := sampleEntry()
	b.Title = "gone"
	b.IsSoldOut = true
	c := sampleEntry()
	c.Title = "c"

	available := Available([]catalog.Entry{a, b, c})
	require.Len(t, available, 2)
	require.Equal(t, "c", available[1].Title)
	require.Empty(t, Available(nil))
}

func TestMessageFormatterByName(t *testing.T) {
	for name, expected := range map[string]MessageFormatter{
		"":         Markdown{},
		"Markdown": Markdown{},
		"plain":    Plain{},
	} {
		msg, err := MessageFormatterByName(name)
		require.NoError(t, err, name)
		require.Equal(t, expected, msg, name)
	}

	_, err := MessageFormatterByName("html")
	require.Error(t, err)
}
