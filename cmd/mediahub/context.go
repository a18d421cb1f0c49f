package main

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"mediahub/internal/api"
	"mediahub/internal/config"
	"mediahub/internal/format"
	"mediahub/internal/logging"
	"mediahub/internal/media/probe"
	"mediahub/internal/mediacache"
	"mediahub/internal/resource"
	"mediahub/internal/store"
)

// newProbers builds the primary and secondary media probers. Tests replace it.
var newProbers = func(cfg *config.Config, logger *slog.Logger) (mediacache.Parser, resource.Prober) {
	parser := probe.New(cfg.Parser.FFprobeBinary,
		probe.WithTimeout(time.Duration(cfg.Parser.TimeoutSeconds)*time.Second),
		probe.WithLanguage(cfg.Catalog.Language),
		probe.WithLogger(logger),
	)
	return parser, parser.Secondary()
}

type commandContext struct {
	configFlag *string
	jsonFlag   *bool
	verbose    *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string, jsonFlag, verbose *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		jsonFlag:   jsonFlag,
		verbose:    verbose,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// logger writes warnings, or debug output with --verbose, to stderr.
func (c *commandContext) logger() *slog.Logger {
	level := "warn"
	if c.verbose != nil && *c.verbose {
		level = "debug"
	}
	logger, err := logging.New(logging.Options{Level: level, Format: "console", OutputPaths: []string{"stderr"}})
	if err != nil {
		return logging.NewNop()
	}
	return logger
}

func (c *commandContext) apiClient() (*api.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	client, err := api.NewClient(cfg.Paths.APIBind, cfg.Paths.APIToken)
	if err != nil {
		return nil, fmt.Errorf("daemon API address: %w", err)
	}
	if client == nil {
		return nil, fmt.Errorf("daemon API disabled: set paths.api_bind in %s", displayPath(c.configPath()))
	}
	return client, nil
}

func (c *commandContext) withStore(fn func(*config.Config, *store.Store) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return fmt.Errorf("open media database: %w", err)
	}
	defer st.Close()
	return fn(cfg, st)
}

// resourceDeps wires a standalone resolver. st may be nil when nothing should
// be persisted.
func (c *commandContext) resourceDeps(cfg *config.Config, st *store.Store) (*resource.Deps, error) {
	logger := c.logger()
	primary, secondary := newProbers(cfg, logger)
	var persistent mediacache.Store
	if st != nil && cfg.Cache.Enabled {
		persistent = st
	}
	cache, err := mediacache.New(persistent, primary, logger)
	if err != nil {
		return nil, fmt.Errorf("create media cache: %w", err)
	}
	return &resource.Deps{
		Registry:       format.NewDefaultRegistry(),
		Cache:          cache,
		Secondary:      secondary,
		UseMediaInfo:   true,
		FollowSymlinks: cfg.Parser.FollowSymlinks,
		Logger:         logger,
	}, nil
}

func displayPath(path string) string {
	if path == "" {
		return "the default config file"
	}
	return path
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

func (c *commandContext) wrapAPIError(err error) error {
	if err == nil || !api.IsAPIUnavailable(err) {
		return err
	}
	bind := ""
	if c.config != nil {
		bind = c.config.Paths.APIBind
	}
	return fmt.Errorf("connect to daemon at %s: %w; start it with `mediahub serve`", bind, err)
}
