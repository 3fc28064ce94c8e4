package commands

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"recordwatch/internal/catalog"
	"recordwatch/internal/exchange"
	"recordwatch/internal/notify"
	"recordwatch/internal/watcher"
	"recordwatch/lib/configutil"
	"strings"
	"time"
)

type Config struct {
	// Name is the shop name used in replies.
	Name    string `json:"name"`
	BaseUrl string `json:"base_url"`
	// Collections are url templates with a %d page placeholder.
	Collections []string `json:"collections"`
	RateUrl     string   `json:"rate_url"`
	DbPath      string   `json:"db_path"`
	Timezone    string   `json:"timezone"`
	CronSpec    string   `json:"cron_spec"`

	RequestsPerSecond float64 `json:"requests_per_second"`
	TimeoutSeconds    int     `json:"timeout_seconds"`
	UserAgent         string  `json:"user_agent"`

	MediaFilter   *catalog.MediaFilter `json:"media_filter"`
	MessageFormat string               `json:"message_format"`
	QuoteCurrency string               `json:"quote_currency"`
	Email         notify.EmailOptions  `json:"email"`
}

func DefaultConfig() Config {
	filter := catalog.DefaultMediaFilter()
	return Config{
		Name:    "Black Screen Records",
		BaseUrl: "https://blackscreenrecords.com",
		Collections: []string{
			"https://blackscreenrecords.com/collections/all-releases?page=%d",
			"https://blackscreenrecords.com/collections/distro?page=%d",
		},
		RateUrl:           exchange.DefaultRateUrl,
		DbPath:            "recordwatch.db",
		Timezone:          "Europe/Warsaw",
		CronSpec:          watcher.DefaultCronSpec,
		RequestsPerSecond: 2,
		TimeoutSeconds:    30,
		UserAgent:         "recordwatch/1.0",
		MediaFilter:       &filter,
		MessageFormat:     "markdown",
		QuoteCurrency:     notify.DefaultQuoteCurrency,
	}
}

func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

func (c Config) Validate() error {
	var errs []error
	if len(c.Collections) == 0 {
		errs = append(errs, fmt.Errorf("no collections configured"))
	}
	for _, template := range c.Collections {
		if strings.Count(template, "%d") != 1 {
			errs = append(errs, fmt.Errorf("collection '%s' must contain exactly one %%d", template))
		}
	}
	if c.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("requests_per_second must not be negative"))
	}
	if c.TimeoutSeconds < 0 {
		errs = append(errs, fmt.Errorf("timeout_seconds must not be negative"))
	}
	if c.Email.Smtp.Server != "" && len(c.Email.To) == 0 {
		errs = append(errs, fmt.Errorf("email.to is empty but an smtp server is configured"))
	}
	_, err := notify.MessageFormatterByName(c.MessageFormat)
	if err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// LoadConfig decodes path (and its .local override) over DefaultConfig and
// validates the result. Keys left out of both files keep their default, an
// explicit empty list or zero is kept as written. A missing file means the
// defaults.
func LoadConfig(path string) (Config, error) {
	cfg, err := configutil.ReadConfigOver(path, DefaultConfig())
	if errors.Is(err, os.ErrNotExist) {
		slog.Info("no config file found, using defaults", "path", path)
		err = nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	err = cfg.Validate()
	if err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
