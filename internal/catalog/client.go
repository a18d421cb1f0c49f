package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"mediahub/internal/logging"
	"mediahub/internal/metrics"
	"mediahub/internal/services"
)

const (
	// DefaultLanguage is not sent to the API; it is the server's default.
	DefaultLanguage = "en-US"
	// NotFoundMessage marks a reply that has no metadata for the query.
	NotFoundMessage = "Metadata not found"

	defaultTimeout  = 30 * time.Second
	maxBodyBytes    = 8 << 20
	maxImageBytes   = 16 << 20
	defaultUA       = "mediahub"
	posterImageSize = "w500"
)

// Status is synthesized for non-2xx replies.
type Status struct {
	StatusCode     int    `json:"statusCode"`
	ServerResponse string `json:"serverResponse"`
}

// IsServerError reports a 5xx status.
func (s *Status) IsServerError() bool {
	return s != nil && s.StatusCode >= 500
}

// Response is the uniform result of an endpoint call. Exactly one of Data,
// Status and NotFound is set.
type Response struct {
	Data     Object
	Status   *Status
	NotFound bool
	Body     string
}

// OK reports whether the reply carried data.
func (r *Response) OK() bool {
	return r != nil && r.Data != nil
}

// Client provides access to the catalog API.
type Client struct {
	baseURL    string
	language   string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua = strings.TrimSpace(ua); ua != "" {
			c.userAgent = ua
		}
	}
}

// WithRateLimit bounds requests per second. Zero or less disables the bound.
func WithRateLimit(perSecond float64) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithMetrics reports request counts and latency.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a catalog client.
func New(baseURL, language string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("catalog base url required")
	}
	if _, err := url.Parse(baseURL); err != nil {
		return nil, fmt.Errorf("parse catalog base url: %w", err)
	}
	client := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		language:   strings.TrimSpace(language),
		userAgent:  defaultUA,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	client.logger = logging.NewComponentLogger(client.logger, "catalog")
	return client, nil
}

// Language returns the configured language tag.
func (c *Client) Language() string {
	return c.language
}

func (c *Client) get(ctx context.Context, name, path string, params url.Values) (*Response, error) {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return nil, fmt.Errorf("parse catalog url: %w", err)
	}
	if len(params) > 0 {
		endpoint.RawQuery = params.Encode()
	}
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, services.Wrap(services.ErrTransient, "catalog", name, "rate limiter wait", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Content-Type", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		c.metrics.CatalogRequest(name, 0, latency)
		marker := services.ErrTransient
		if ctx.Err() == nil && isTimeout(err) {
			marker = services.ErrTimeout
		}
		return nil, services.Wrap(marker, "catalog", name, fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()
	c.metrics.CatalogRequest(name, resp.StatusCode, latency)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "catalog", name, "read response", err)
	}
	text := strings.TrimSpace(string(body))
	c.logger.Debug("catalog request",
		logging.String("endpoint", name),
		logging.String("url", endpoint.String()),
		logging.Int("status", resp.StatusCode),
		logging.Duration("latency", latency),
	)

	if strings.Contains(text, NotFoundMessage) {
		return &Response{NotFound: true, Body: text}, nil
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return &Response{
			Status: &Status{StatusCode: resp.StatusCode, ServerResponse: text},
			Body:   text,
		}, nil
	}

	var data Object
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(&data); err != nil || data == nil {
		if err == nil {
			err = errors.New("response is not a JSON object")
		}
		return nil, services.Wrap(services.ErrTransient, "catalog", name,
			fmt.Sprintf("decode response (status=%d)", resp.StatusCode), err)
	}
	if data.Has("statusCode") {
		status := &Status{ServerResponse: data.String("serverResponse")}
		status.StatusCode, _ = data.Int("statusCode")
		return &Response{Status: status, Body: text}, nil
	}
	return &Response{Data: data, Body: text}, nil
}

func isTimeout(err error) bool {
	var timeout interface{ Timeout() bool }
	return errors.As(err, &timeout) && timeout.Timeout()
}

func (c *Client) addLanguage(params url.Values) {
	if c.language != "" && c.language != DefaultLanguage {
		params.Set("language", c.language)
	}
}

// Subversions fetches the remote metadata schema versions.
func (c *Client) Subversions(ctx context.Context) (*Response, error) {
	return c.get(ctx, "subversions", "/api/subversions", nil)
}

// Configuration fetches client configuration, notably imageBaseURL.
func (c *Client) Configuration(ctx context.Context) (*Response, error) {
	return c.get(ctx, "configuration", "/api/configuration", nil)
}

// VideoQuery identifies a movie or an episode.
type VideoQuery struct {
	Title   string
	Year    int
	Season  int
	Episode string
	IMDbID  string
}

// Video looks up a movie, or an episode when Episode is set.
func (c *Client) Video(ctx context.Context, q VideoQuery) (*Response, error) {
	params := url.Values{}
	if title := strings.TrimSpace(q.Title); title != "" {
		params.Set("title", title)
	}
	if q.Year > 0 {
		params.Set("year", strconv.Itoa(q.Year))
	}
	if q.Episode != "" {
		params.Set("season", strconv.Itoa(q.Season))
		params.Set("episode", q.Episode)
	}
	if q.IMDbID != "" {
		params.Set("imdbID", q.IMDbID)
	}
	c.addLanguage(params)
	return c.get(ctx, "video", "/api/media/video/v2", params)
}

// SeriesQuery identifies a TV series.
type SeriesQuery struct {
	Title     string
	StartYear int
	IMDbID    string
}

// Series looks up a TV series.
func (c *Client) Series(ctx context.Context, q SeriesQuery) (*Response, error) {
	params := url.Values{}
	if title := strings.TrimSpace(q.Title); title != "" {
		params.Set("title", title)
	}
	if q.StartYear > 0 {
		params.Set("year", strconv.Itoa(q.StartYear))
	}
	if q.IMDbID != "" {
		params.Set("imdbID", q.IMDbID)
	}
	c.addLanguage(params)
	return c.get(ctx, "series", "/api/media/series/v2", params)
}

// LocalizeQuery selects a localized record. MediaType is movie, tv or
// tv_episode; Season and Episode are sent only when Episode is set.
type LocalizeQuery struct {
	Language  string
	MediaType string
	IMDbID    string
	TMDbID    int64
	Season    int
	Episode   string
}

// Localize fetches language-specific titles and overviews.
func (c *Client) Localize(ctx context.Context, q LocalizeQuery) (*Response, error) {
	if q.Language == "" || q.MediaType == "" {
		return nil, services.Wrap(services.ErrValidation, "catalog", "localize", "language and media type required", nil)
	}
	if q.IMDbID == "" && q.TMDbID <= 0 {
		return nil, services.Wrap(services.ErrValidation, "catalog", "localize", "imdb or tmdb id required", nil)
	}
	params := url.Values{}
	params.Set("language", q.Language)
	params.Set("mediaType", q.MediaType)
	if q.IMDbID != "" {
		params.Set("imdbID", q.IMDbID)
	}
	if q.TMDbID > 0 {
		params.Set("tmdbId", strconv.FormatInt(q.TMDbID, 10))
	}
	if q.Episode != "" {
		params.Set("season", strconv.Itoa(q.Season))
		params.Set("episode", q.Episode)
	}
	return c.get(ctx, "localize", "/api/media/localize", params)
}

// FetchImage downloads an image and returns its bytes and MIME type.
func (c *Client) FetchImage(ctx context.Context, imageURL string) ([]byte, string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, "", services.Wrap(services.ErrTransient, "catalog", "image", "rate limiter wait", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, "", fmt.Errorf("build image request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		c.metrics.CatalogRequest("image", 0, latency)
		return nil, "", services.Wrap(services.ErrTransient, "catalog", "image", fmt.Sprintf("execute request (latency=%v)", latency), err)
	}
	defer resp.Body.Close()
	c.metrics.CatalogRequest("image", resp.StatusCode, latency)

	if resp.StatusCode != http.StatusOK {
		marker := services.ErrTransient
		if resp.StatusCode == http.StatusNotFound {
			marker = services.ErrNotFound
		}
		return nil, "", services.Wrap(marker, "catalog", "image", fmt.Sprintf("image fetch returned %d", resp.StatusCode), nil)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, "", services.Wrap(services.ErrTransient, "catalog", "image", "read image", err)
	}
	if len(data) == 0 {
		return nil, "", services.Wrap(services.ErrNotFound, "catalog", "image", "empty image", nil)
	}
	mime := resp.Header.Get("Content-Type")
	if mime == "" || !strings.HasPrefix(mime, "image/") {
		mime = http.DetectContentType(data)
	}
	return data, mime, nil
}

// PosterURL resolves a poster reference. A relative path is joined to the
// image base URL at the poster size; otherwise the absolute poster URL is used.
func PosterURL(imageBaseURL, poster, relativePath string) string {
	if relativePath != "" && imageBaseURL != "" {
		return imageBaseURL + posterImageSize + relativePath
	}
	return poster
}
