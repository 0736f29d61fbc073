package steam

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/steamsync/internal/retry"
)

const (
	// FirstPageCursor is the sentinel Steam expects for the first review page.
	FirstPageCursor = "*"

	defaultBaseURL  = "https://store.steampowered.com"
	defaultPageSize = 100
	userAgent       = "steamsync"

	maxSearchResults = 10
)

// ErrUnsuccessful means Steam answered with a success flag other than 1.
// This usually indicates a malformed request, so it is not retried.
var ErrUnsuccessful = errors.New("steam api returned an unsuccessful status")

// ErrAppNotFound means the storefront has no game for the requested app id.
var ErrAppNotFound = errors.New("steam app not found")

// Config holds the Steam client settings.
type Config struct {
	BaseURL          string `koanf:"base_url"`
	PageSize         int    `koanf:"page_size"`
	RequestsPerMin   int    `koanf:"requests_per_min"`
	RequestTimeoutMS int    `koanf:"request_timeout_ms"`
}

// Client talks to the Steam storefront API. Every request is rate limited
// and, via the retry executor, survives transient network failures.
type Client struct {
	baseURL  string
	pageSize int
	httpc    *http.Client
	limiter  *rate.Limiter
	exec     *retry.Executor
}

func NewClient(cfg Config, exec *retry.Executor) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	pageSize := cfg.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	perMin := cfg.RequestsPerMin
	if perMin <= 0 {
		perMin = 100
	}
	timeout := 30 * time.Second
	if cfg.RequestTimeoutMS > 0 {
		timeout = time.Duration(cfg.RequestTimeoutMS) * time.Millisecond
	}

	return &Client{
		baseURL:  baseURL,
		pageSize: pageSize,
		httpc:    &http.Client{Timeout: timeout},
		limiter:  rate.NewLimiter(rate.Limit(float64(perMin)/60.0), perMin),
		exec:     exec,
	}
}

// PageSize returns the configured page size for review fetches.
func (c *Client) PageSize() int { return c.pageSize }

// FetchReviewPage fetches one page of reviews for appID. Pass
// FirstPageCursor for the first page; an empty NextCursor in the result
// means the feed is exhausted. Termination is the caller's decision.
func (c *Client) FetchReviewPage(ctx context.Context, appID int64, cursor string) (ReviewPage, error) {
	log.Debug().Int64("app_id", appID).Str("cursor", cursor).Msg("Fetching review page")

	params := url.Values{}
	params.Set("json", "1")
	params.Set("filter", "recent")
	params.Set("language", "all")
	params.Set("cursor", cursor)
	params.Set("num_per_page", strconv.Itoa(c.pageSize))

	endpoint := fmt.Sprintf("%s/appreviews/%d?%s", c.baseURL, appID, params.Encode())

	resp, err := retry.Result(ctx, c.exec, func(ctx context.Context) (reviewsResponse, error) {
		var out reviewsResponse
		if err := c.getJSON(ctx, endpoint, &out); err != nil {
			return out, err
		}
		return out, nil
	})
	if err != nil {
		return ReviewPage{}, err
	}

	if resp.Success != 1 {
		return ReviewPage{}, ErrUnsuccessful
	}

	log.Debug().Int("count", len(resp.Reviews)).Msg("Received reviews")

	// An empty or absent cursor in the response means no more pages.
	return ReviewPage{Reviews: resp.Reviews, NextCursor: resp.Cursor}, nil
}

// GetAppDetails looks up storefront metadata for appID. Apps that do not
// exist, report an unsuccessful status, or are not of type "game" come back
// as ErrAppNotFound.
func (c *Client) GetAppDetails(ctx context.Context, appID int64) (AppDetails, error) {
	endpoint := fmt.Sprintf("%s/api/appdetails?appids=%d", c.baseURL, appID)

	resp, err := retry.Result(ctx, c.exec, func(ctx context.Context) (map[string]appDetailsEntry, error) {
		var out map[string]appDetailsEntry
		if err := c.getJSON(ctx, endpoint, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
	if err != nil {
		return AppDetails{}, err
	}

	entry, ok := resp[strconv.FormatInt(appID, 10)]
	if !ok || !entry.Success {
		log.Warn().Int64("app_id", appID).Msg("No storefront data for app id")
		return AppDetails{}, ErrAppNotFound
	}
	if entry.Data.Type != "game" {
		return AppDetails{}, fmt.Errorf("%w: app %d is not a game", ErrAppNotFound, appID)
	}

	return entry.Data, nil
}

// SearchGames queries the storefront search endpoint and returns up to ten
// app-typed matches.
func (c *Client) SearchGames(ctx context.Context, query string) ([]SearchResult, error) {
	params := url.Values{}
	params.Set("term", query)
	params.Set("cc", "us")
	params.Set("l", "en")

	endpoint := fmt.Sprintf("%s/api/storesearch?%s", c.baseURL, params.Encode())

	resp, err := retry.Result(ctx, c.exec, func(ctx context.Context) (storeSearchResponse, error) {
		var out storeSearchResponse
		if err := c.getJSON(ctx, endpoint, &out); err != nil {
			return out, err
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, 0, maxSearchResults)
	for _, item := range resp.Items {
		if item.Type != "app" {
			continue
		}
		results = append(results, SearchResult{AppID: item.ID, Name: item.Name})
		if len(results) == maxSearchResults {
			break
		}
	}
	return results, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("steam api returned status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
