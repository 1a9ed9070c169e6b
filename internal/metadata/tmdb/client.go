// Package tmdb is a rate-limited client for a TMDB-compatible metadata API.
//
// Every call is GET {base}/{endpoint}?api_key=..&language=..; results are
// normalized into domain records so callers never see the source schema.
package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cineza/cineza-server/internal/domain"
	"github.com/cineza/cineza-server/internal/ratelimit"
)

const (
	defaultBaseURL  = "https://api.themoviedb.org/3"
	defaultImageURL = "https://image.tmdb.org/t/p"
	defaultLanguage = "en-US"
	defaultRPS      = 20.0
	defaultBurst    = 10
	defaultTimeout  = 10 * time.Second

	maxErrorBody = 512
)

// Config configures a Client. Zero values fall back to the public TMDB defaults.
type Config struct {
	BaseURL      string
	ImageBaseURL string
	APIKey       string
	Language     string
	RPS          float64
	Burst        int
	Timeout      time.Duration
}

// Client talks to the metadata source.
type Client struct {
	http      *http.Client
	limiter   *ratelimit.KeyedRateLimiter
	logger    *slog.Logger
	baseURL   string
	imageBase string
	apiKey    string
	language  string
}

// New creates a client.
func New(cfg Config, logger *slog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.ImageBaseURL == "" {
		cfg.ImageBaseURL = defaultImageURL
	}
	if cfg.Language == "" {
		cfg.Language = defaultLanguage
	}
	if cfg.RPS <= 0 {
		cfg.RPS = defaultRPS
	}
	if cfg.Burst <= 0 {
		cfg.Burst = defaultBurst
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		http:      &http.Client{Timeout: cfg.Timeout},
		limiter:   ratelimit.New(cfg.RPS, cfg.Burst),
		logger:    logger,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		imageBase: strings.TrimRight(cfg.ImageBaseURL, "/"),
		apiKey:    cfg.APIKey,
		language:  cfg.Language,
	}
}

// Close releases resources held by the client.
func (c *Client) Close() {
	c.limiter.Stop()
}

// SearchParams narrows a search. An empty Kind searches films and series together.
type SearchParams struct {
	Query  string
	Page   int
	Kind   domain.MediaKind
	Genres []int
}

// Search queries search/multi, or search/movie|tv when a kind is set.
// Genre filtering is only sent upstream for single-kind searches.
func (c *Client) Search(ctx context.Context, p SearchParams) (domain.ListResult, error) {
	endpoint := "search/multi"
	if p.Kind != "" {
		if !p.Kind.Valid() {
			return domain.ListResult{}, wrapError("search", endpoint, ErrInvalidKind)
		}
		endpoint = "search/" + p.Kind.SourceType()
	}

	query := url.Values{}
	query.Set("query", p.Query)
	query.Set("page", strconv.Itoa(max(p.Page, 1)))
	query.Set("include_adult", "false")
	if p.Kind != "" && len(p.Genres) > 0 {
		query.Set("with_genres", joinInts(p.Genres))
	}

	var page rawPage
	if err := c.get(ctx, endpoint, query, &page); err != nil {
		return domain.ListResult{}, wrapError("search", endpoint, err)
	}
	return c.normalizeList(&page, p.Kind), nil
}

// Popular lists popular items of one kind. With genres it goes through
// discover/{type} so the filter is applied upstream.
func (c *Client) Popular(ctx context.Context, kind domain.MediaKind, page int, genres []int) (domain.ListResult, error) {
	if !kind.Valid() {
		return domain.ListResult{}, wrapError("popular", string(kind), ErrInvalidKind)
	}

	endpoint := kind.SourceType() + "/popular"
	query := url.Values{}
	query.Set("page", strconv.Itoa(max(page, 1)))
	if len(genres) > 0 {
		endpoint = "discover/" + kind.SourceType()
		query.Set("sort_by", "popularity.desc")
		query.Set("with_genres", joinInts(genres))
	}

	var raw rawPage
	if err := c.get(ctx, endpoint, query, &raw); err != nil {
		return domain.ListResult{}, wrapError("popular", endpoint, err)
	}
	return c.normalizeList(&raw, kind), nil
}

// Trending lists trending items. An empty kind means both kinds.
func (c *Client) Trending(ctx context.Context, kind domain.MediaKind, window domain.TrendingWindow) ([]domain.ExternalRecord, error) {
	typ := "all"
	if kind != "" {
		if !kind.Valid() {
			return nil, wrapError("trending", string(kind), ErrInvalidKind)
		}
		typ = kind.SourceType()
	}
	if window != domain.WindowDay {
		window = domain.WindowWeek
	}

	endpoint := "trending/" + typ + "/" + string(window)
	var raw rawPage
	if err := c.get(ctx, endpoint, url.Values{}, &raw); err != nil {
		return nil, wrapError("trending", endpoint, err)
	}
	return c.normalizeList(&raw, kind).Items, nil
}

// Details fetches one item with credits, videos and recommendations.
func (c *Client) Details(ctx context.Context, externalID int64, kind domain.MediaKind) (domain.Details, error) {
	if !kind.Valid() {
		return domain.Details{}, wrapError("details", string(kind), ErrInvalidKind)
	}
	endpoint := kind.SourceType() + "/" + strconv.FormatInt(externalID, 10)
	if externalID <= 0 {
		return domain.Details{}, wrapError("details", endpoint, ErrBadRequest)
	}

	query := url.Values{}
	query.Set("append_to_response", "credits,videos,recommendations")

	var raw rawItem
	if err := c.get(ctx, endpoint, query, &raw); err != nil {
		return domain.Details{}, wrapError("details", endpoint, err)
	}
	return c.normalizeDetails(&raw, kind), nil
}

// Genres fetches a kind's genre taxonomy. It satisfies genre.Fetcher.
func (c *Client) Genres(ctx context.Context, kind domain.MediaKind) ([]domain.Genre, error) {
	if !kind.Valid() {
		return nil, wrapError("genres", string(kind), ErrInvalidKind)
	}
	endpoint := "genre/" + kind.SourceType() + "/list"

	var raw struct {
		Genres []rawGenre `json:"genres"`
	}
	if err := c.get(ctx, endpoint, url.Values{}, &raw); err != nil {
		return nil, wrapError("genres", endpoint, err)
	}

	out := make([]domain.Genre, 0, len(raw.Genres))
	for _, g := range raw.Genres {
		out = append(out, domain.Genre{ID: g.ID, Name: g.Name})
	}
	return out, nil
}

// get performs one rate-limited request and decodes the JSON body into dst.
func (c *Client) get(ctx context.Context, endpoint string, query url.Values, dst any) error {
	// One bucket per endpoint family (search, movie, tv, genre, ...).
	family, _, _ := strings.Cut(endpoint, "/")
	if err := c.limiter.Wait(ctx, family); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	query.Set("api_key", c.apiKey)
	query.Set("language", c.language)
	reqURL := c.baseURL + "/" + endpoint + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "Cineza/1.0")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("tmdb request",
		"endpoint", endpoint,
		"status", resp.StatusCode,
		"duration", time.Since(start),
	)

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return ErrRateLimited
	case resp.StatusCode == http.StatusBadRequest:
		return ErrBadRequest
	case resp.StatusCode >= 500:
		return ErrServer
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Status: resp.StatusCode, Body: string(body)}
	}
}

func joinInts(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ",")
}
