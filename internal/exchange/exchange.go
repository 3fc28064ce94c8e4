package exchange

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"recordwatch/internal/components/telemetry"
	libtelemetry "recordwatch/lib/telemetry"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

const (
	report_provider_fetch = "provider.fetch"

	DefaultRateUrl = "http://api.nbp.pl/api/exchangerates/rates/A/EUR?format=json"
)

// ErrNoRate means the quote response carried no usable mid rate.
var ErrNoRate = errors.New("no exchange rate in response")

// Rate is a mid quote, ex. PLN per EUR. The zero value means no quote has
// been fetched yet.
type Rate struct {
	Value         float64
	Code          string
	EffectiveDate string
}

// ParseDecimal parses "35,50" and "35.50" alike into an exact decimal.
func ParseDecimal(text string) (decimal.Decimal, error) {
	text = strings.ReplaceAll(strings.TrimSpace(text), ",", ".")
	return decimal.NewFromString(text)
}

type quoteResponse struct {
	Code  string `json:"code"`
	Rates []struct {
		EffectiveDate string          `json:"effectiveDate"`
		Mid           json.RawMessage `json:"mid"`
	} `json:"rates"`
}

// ParseQuote reads the first mid rate of an NBP style table A response.
// The mid may be a JSON number or a string with either decimal separator.
func ParseQuote(body []byte) (Rate, error) {
	var res quoteResponse
	err := json.Unmarshal(body, &res)
	if err != nil {
		return Rate{}, fmt.Errorf("decode quote: %w", err)
	}
	if len(res.Rates) == 0 || len(res.Rates[0].Mid) == 0 {
		return Rate{}, ErrNoRate
	}

	first := res.Rates[0]
	raw := string(bytes.Trim(first.Mid, `"`))
	if raw == "" || raw == "null" {
		return Rate{}, ErrNoRate
	}
	value, err := ParseDecimal(raw)
	if err != nil {
		return Rate{}, fmt.Errorf("%w: mid '%s'", ErrNoRate, raw)
	}
	return Rate{
		Value:         value.InexactFloat64(),
		Code:          res.Code,
		EffectiveDate: first.EffectiveDate,
	}, nil
}

type ProviderOptions struct {
	// Url defaults to DefaultRateUrl.
	Url     string
	Timeout time.Duration
}

// Provider fetches the current quote over HTTP.
type Provider struct {
	http *resty.Client
	url  string
	tel  telemetry.API
}

func NewProvider(opts ProviderOptions, tel telemetry.API) Provider {
	tel = telemetry.NewScopedAPI("exchange", tel)

	client := resty.New()
	client.SetHeader("Accept", "application/json")
	if opts.Timeout > 0 {
		client.SetTimeout(opts.Timeout)
	}
	telemetry.InstrumentResty(client, tel)
	libtelemetry.TraceResty(client, "recordwatch/internal/exchange")

	link := opts.Url
	if link == "" {
		link = DefaultRateUrl
	}
	return Provider{
		http: client,
		url:  link,
		tel:  tel,
	}
}

func (p Provider) Fetch(ctx context.Context) (Rate, error) {
	res, err := p.http.R().
		SetContext(ctx).
		Get(p.url)
	if err != nil {
		p.tel.ReportBroken(report_provider_fetch, err, p.url)
		return Rate{}, fmt.Errorf("fetch rate: %w", err)
	}
	if res.IsError() {
		err = fmt.Errorf("fetch rate: unexpected status %s", res.Status())
		p.tel.ReportBroken(report_provider_fetch, err, p.url)
		return Rate{}, err
	}

	rate, err := ParseQuote(res.Body())
	if err != nil {
		p.tel.ReportBroken(report_provider_fetch, err, p.url)
		return Rate{}, err
	}
	p.tel.ReportDebug("fetched rate", rate.Code, rate.Value, rate.EffectiveDate)
	return rate, nil
}
