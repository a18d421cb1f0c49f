package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateLimits(); err != nil {
		return err
	}
	if err := c.validateLibrary(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateCatalog() error {
	parsed, err := url.Parse(c.Catalog.BaseURL)
	if err != nil {
		return fmt.Errorf("catalog.base_url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("catalog.base_url must use http or https, got %q", c.Catalog.BaseURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("catalog.base_url must include a host, got %q", c.Catalog.BaseURL)
	}
	if c.Catalog.RequestsPerSecond < 0 {
		return errors.New("catalog.requests_per_second must not be negative")
	}
	return nil
}

func (c *Config) validateLimits() error {
	return ensurePositiveMap(map[string]int{
		"catalog.timeout_seconds":               c.Catalog.TimeoutSeconds,
		"cache.max_entries":                     c.Cache.MaxEntries,
		"parser.timeout_seconds":                c.Parser.TimeoutSeconds,
		"enrichment.max_workers":                c.Enrichment.MaxWorkers,
		"enrichment.idle_timeout_seconds":       c.Enrichment.IdleTimeoutSeconds,
		"enrichment.failed_lookup_window_hours": c.Enrichment.FailedLookupWindowHours,
		"notifications.request_timeout_seconds": c.Notifications.RequestTimeoutSeconds,
	})
}

func (c *Config) validateLibrary() error {
	for key, spec := range map[string]string{
		"library.rescan_schedule": c.Library.RescanSchedule,
		"library.prune_schedule":  c.Library.PruneSchedule,
	} {
		if spec == "" {
			continue
		}
		if _, err := cron.ParseStandard(spec); err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", strings.TrimSpace(key))
		}
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.NtfyTopic == "" {
		return nil
	}
	parsed, err := url.Parse(c.Notifications.NtfyTopic)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("notifications.ntfy_topic must be an http(s) URL, got %q", c.Notifications.NtfyTopic)
	}
	return nil
}
