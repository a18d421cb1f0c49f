package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCatalog()
	c.normalizeCache()
	c.normalizeParser()
	c.normalizeEnrichment()
	c.normalizeNotifications()
	c.normalizeLibrary()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}

	folders := make([]string, 0, len(c.Paths.SharedFolders))
	seen := make(map[string]struct{}, len(c.Paths.SharedFolders))
	for _, folder := range c.Paths.SharedFolders {
		if strings.TrimSpace(folder) == "" {
			continue
		}
		expanded, err := expandPath(strings.TrimSpace(folder))
		if err != nil {
			return fmt.Errorf("paths.shared_folders: %w", err)
		}
		if _, dup := seen[expanded]; dup {
			continue
		}
		seen[expanded] = struct{}{}
		folders = append(folders, expanded)
	}
	c.Paths.SharedFolders = folders

	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if value, ok := os.LookupEnv("MEDIAHUB_API_TOKEN"); ok {
		c.Paths.APIToken = value
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	return nil
}

func (c *Config) normalizeCatalog() {
	if value, ok := os.LookupEnv("MEDIAHUB_CATALOG_URL"); ok && strings.TrimSpace(value) != "" {
		c.Catalog.BaseURL = value
	}
	c.Catalog.BaseURL = strings.TrimRight(strings.TrimSpace(c.Catalog.BaseURL), "/")
	if c.Catalog.BaseURL == "" {
		c.Catalog.BaseURL = defaultCatalogBaseURL
	}
	if value, ok := os.LookupEnv("MEDIAHUB_LANGUAGE"); ok && strings.TrimSpace(value) != "" {
		c.Catalog.Language = value
	}
	c.Catalog.Language = strings.TrimSpace(c.Catalog.Language)
	if c.Catalog.Language == "" {
		c.Catalog.Language = defaultCatalogLanguage
	}
	c.Catalog.UserAgent = strings.TrimSpace(c.Catalog.UserAgent)
	if c.Catalog.UserAgent == "" {
		c.Catalog.UserAgent = defaultCatalogUserAgent
	}
	if c.Catalog.TimeoutSeconds == 0 {
		c.Catalog.TimeoutSeconds = defaultCatalogTimeoutSeconds
	}
	if c.Catalog.RequestsPerSecond == 0 {
		c.Catalog.RequestsPerSecond = defaultCatalogRequestsPerSecond
	}
}

func (c *Config) normalizeCache() {
	if c.Cache.MaxEntries == 0 {
		c.Cache.MaxEntries = defaultCacheMaxEntries
	}
}

func (c *Config) normalizeParser() {
	c.Parser.FFprobeBinary = strings.TrimSpace(c.Parser.FFprobeBinary)
	if c.Parser.FFprobeBinary == "" {
		c.Parser.FFprobeBinary = defaultFFprobeBinary
	}
	if c.Parser.TimeoutSeconds == 0 {
		c.Parser.TimeoutSeconds = defaultParserTimeoutSeconds
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds == 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNtfyTimeoutSeconds
	}
}

func (c *Config) normalizeEnrichment() {
	if c.Enrichment.MaxWorkers == 0 {
		c.Enrichment.MaxWorkers = defaultEnrichmentWorkers
	}
	if c.Enrichment.IdleTimeoutSeconds == 0 {
		c.Enrichment.IdleTimeoutSeconds = defaultEnrichmentIdleSeconds
	}
	if c.Enrichment.FailedLookupWindowHours == 0 {
		c.Enrichment.FailedLookupWindowHours = defaultFailedLookupWindowHours
	}
}

func (c *Config) normalizeLibrary() {
	c.Library.RescanSchedule = strings.TrimSpace(c.Library.RescanSchedule)
	c.Library.PruneSchedule = strings.TrimSpace(c.Library.PruneSchedule)
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
