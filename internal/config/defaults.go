package config

const (
	defaultConfigPath               = "~/.config/mediahub/config.toml"
	defaultDataDir                  = "~/.local/share/mediahub"
	defaultLogDir                   = "~/.local/share/mediahub/logs"
	defaultAPIBind                  = "127.0.0.1:5002"
	defaultCatalogBaseURL           = "https://api.universalmediaserver.com"
	defaultCatalogLanguage          = "en-US"
	defaultCatalogUserAgent         = "mediahub/dev"
	defaultCatalogTimeoutSeconds    = 30
	defaultCatalogRequestsPerSecond = 4
	defaultCacheMaxEntries          = 4096
	defaultFFprobeBinary            = "ffprobe"
	defaultParserTimeoutSeconds     = 60
	defaultEnrichmentWorkers        = 5
	defaultEnrichmentIdleSeconds    = 30
	defaultFailedLookupWindowHours  = 7 * 24
	defaultRescanSchedule           = "0 4 * * *"
	defaultPruneSchedule            = "@daily"
	defaultLogFormat                = "console"
	defaultLogLevel                 = "info"
	defaultLogRetentionDays         = 30
	defaultNtfyTimeoutSeconds       = 10
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Network: Network{
			ExternalNetwork: true,
		},
		Catalog: Catalog{
			LookupsEnabled:    true,
			BaseURL:           defaultCatalogBaseURL,
			Language:          defaultCatalogLanguage,
			UserAgent:         defaultCatalogUserAgent,
			TimeoutSeconds:    defaultCatalogTimeoutSeconds,
			RequestsPerSecond: defaultCatalogRequestsPerSecond,
		},
		Cache: Cache{
			Enabled:    true,
			MaxEntries: defaultCacheMaxEntries,
		},
		Parser: Parser{
			FFprobeBinary:  defaultFFprobeBinary,
			UseMediaInfo:   true,
			TimeoutSeconds: defaultParserTimeoutSeconds,
		},
		Enrichment: Enrichment{
			MaxWorkers:              defaultEnrichmentWorkers,
			IdleTimeoutSeconds:      defaultEnrichmentIdleSeconds,
			FailedLookupWindowHours: defaultFailedLookupWindowHours,
		},
		Library: Library{
			ScanOnStart:    true,
			RescanSchedule: defaultRescanSchedule,
			PruneSchedule:  defaultPruneSchedule,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
		Notifications: Notifications{
			RequestTimeoutSeconds: defaultNtfyTimeoutSeconds,
		},
		Metrics: Metrics{
			Enabled: true,
		},
	}
}
