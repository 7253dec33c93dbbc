package gif

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/orochaa/access-logger/cache"
	"github.com/orochaa/access-logger/config"
)

const (
	searchEndpoint = "https://api.giphy.com/v1/gifs/search"
	searchLimit    = 25
	maxOffset      = 25
)

// Client fetches a decorative GIF URL for the report emails. Every failure
// degrades to an empty URL: decoration is never worth failing a run over.
type Client struct {
	apiKey     string
	query      string
	endpoint   string
	httpClient *http.Client
	cache      *cache.Cache
}

// NewClient creates a Giphy search client. The cache is optional; with one
// present, the fetched URL list is reused until its TTL expires.
func NewClient(cfg config.GiphyConfig, cacheClient *cache.Cache) *Client {
	return &Client{
		apiKey:   cfg.APIKey,
		query:    cfg.Query,
		endpoint: searchEndpoint,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.RequestTimeout) * time.Second,
		},
		cache: cacheClient,
	}
}

type searchResponse struct {
	Data []struct {
		Images struct {
			Original struct {
				URL string `json:"url"`
			} `json:"original"`
		} `json:"images"`
	} `json:"data"`
}

// RandomGifURL returns one GIF URL for the configured query, or "" when the
// API is unreachable, returns a non-success status, or yields no results.
func (c *Client) RandomGifURL(ctx context.Context) string {
	urls := c.searchCached(ctx)
	if len(urls) == 0 {
		return ""
	}
	return urls[randomBetween(0, len(urls)-1)]
}

func (c *Client) searchCached(ctx context.Context) []string {
	cacheKey := "giphy:" + c.query

	if c.cache != nil {
		if cached, found := c.cache.Get(cacheKey); found {
			if urls, ok := cached.([]string); ok {
				log.Debug().Str("query", c.query).Msg("Giphy cache hit")
				return urls
			}
		}
	}

	urls := c.search(ctx)
	if len(urls) > 0 && c.cache != nil {
		cost := int64(0)
		for _, u := range urls {
			cost += int64(len(u))
		}
		c.cache.Set(cacheKey, urls, cost)
	}

	return urls
}

func (c *Client) search(ctx context.Context) []string {
	query := url.Values{}
	query.Set("api_key", c.apiKey)
	query.Set("q", c.query)
	query.Set("offset", fmt.Sprint(randomBetween(0, maxOffset)))
	query.Set("limit", fmt.Sprint(searchLimit))
	query.Set("rating", "g")
	query.Set("lang", "en")
	query.Set("bundle", "messaging_non_clips")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+query.Encode(), nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to build Giphy request")
		return nil
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		log.Error().Err(err).Msg("Giphy request failed")
		return nil
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		log.Error().
			Int("status", res.StatusCode).
			Str("body", string(body)).
			Msg("Giphy API error")
		return nil
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		log.Error().Err(err).Msg("Failed to decode Giphy response")
		return nil
	}

	urls := make([]string, 0, len(parsed.Data))
	for _, item := range parsed.Data {
		if item.Images.Original.URL != "" {
			urls = append(urls, item.Images.Original.URL)
		}
	}

	return urls
}

// randomBetween returns a uniform random int in [n1, n2].
func randomBetween(n1, n2 int) int {
	if n2 <= n1 {
		return n1
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(n2-n1+1)))
	if err != nil {
		return n1
	}
	return n1 + int(n.Int64())
}
