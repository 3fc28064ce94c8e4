package notify

import (
	"errors"
	"fmt"
	"recordwatch/internal/catalog"
	"recordwatch/internal/exchange"
	"strings"

	"github.com/shopspring/decimal"
)

const DefaultQuoteCurrency = "zł"

// MessageFormatter renders the inline markup of the target channel.
type MessageFormatter interface {
	Bold(text string) string
	// NoEmbed renders a link so that the channel does not unfurl a preview.
	NoEmbed(link string) string
}

// Markdown is the chat convention: **bold** and <link>.
type Markdown struct{}

func (Markdown) Bold(text string) string    { return "**" + text + "**" }
func (Markdown) NoEmbed(link string) string { return "<" + link + ">" }

// Plain renders text without markup, for channels like email.
type Plain struct{}

func (Plain) Bold(text string) string    { return text }
func (Plain) NoEmbed(link string) string { return link }

// MessageFormatterByName returns the formatter for "markdown" (also the
// default for "") or "plain".
func MessageFormatterByName(name string) (MessageFormatter, error) {
	switch strings.ToLower(name) {
	case "", "markdown":
		return Markdown{}, nil
	case "plain":
		return Plain{}, nil
	default:
		return nil, fmt.Errorf("unknown message format '%s'", name)
	}
}

// Formatter turns entries into notification lines.
type Formatter struct {
	msg           MessageFormatter
	quoteCurrency string
}

func NewFormatter(msg MessageFormatter, quoteCurrency string) Formatter {
	if msg == nil {
		msg = Markdown{}
	}
	if quoteCurrency == "" {
		quoteCurrency = DefaultQuoteCurrency
	}
	return Formatter{msg: msg, quoteCurrency: quoteCurrency}
}

// Convert multiplies a displayed price value ("35,50") by the rate,
// rounded half away from zero to cents.
func Convert(price string, rate exchange.Rate) (decimal.Decimal, error) {
	value, err := exchange.ParseDecimal(price)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: '%s'", catalog.ErrPriceFormat, price)
	}
	return value.Mul(decimal.NewFromFloat(rate.Value)).Round(2), nil
}

// Format renders
//
//	[**[PRE-ORDER]** ]<title> - <full price> (<converted> zł) - <link>
func (f Formatter) Format(e catalog.Entry, rate exchange.Rate) (string, error) {
	converted, err := Convert(e.Price, rate)
	if err != nil {
		return "", fmt.Errorf("format '%s': %w", e.Title, err)
	}

	var sb strings.Builder
	if e.IsPreOrder {
		sb.WriteString(f.msg.Bold("[PRE-ORDER]"))
		sb.WriteString(" ")
	}
	fmt.Fprintf(
		&sb,
		"%s - %s (%s %s) - %s",
		e.Title,
		e.FullPrice,
		converted.StringFixed(2),
		f.quoteCurrency,
		f.msg.NoEmbed(e.Url),
	)
	return sb.String(), nil
}

// FormatAll formats every entry in order. Entries that cannot be formatted
// are left out and their errors joined.
func (f Formatter) FormatAll(entries []catalog.Entry, rate exchange.Rate) ([]string, error) {
	var lines []string
	var errs []error
	for _, e := range entries {
		line, err := f.Format(e, rate)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		lines = append(lines, line)
	}
	return lines, errors.Join(errs...)
}

// Available drops sold out entries.
func Available(entries []catalog.Entry) []catalog.Entry {
	var out []catalog.Entry
	for _, e := range entries {
		if e.IsSoldOut {
			continue
		}
		out = append(out, e)
	}
	return out
}
