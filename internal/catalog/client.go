package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"gamerlink/internal/domain"

	"github.com/tidwall/gjson"
	"golang.org/x/time/rate"
)

const maxResponseBytes = 4 << 20

type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
}

type ClientOpts struct {
	BaseURL    string
	APIKey     string
	RatePerSec float64
	HTTPClient *http.Client
}

func NewClient(opts ClientOpts) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	limit := rate.Inf
	if opts.RatePerSec > 0 {
		limit = rate.Limit(opts.RatePerSec)
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		apiKey:  opts.APIKey,
		http:    hc,
		limiter: rate.NewLimiter(limit, 1),
	}
}

func (c *Client) Search(ctx context.Context, query string, pageSize int) ([]domain.CatalogGame, error) {
	params := url.Values{}
	params.Set("search", query)
	params.Set("page_size", strconv.Itoa(pageSize))

	body, err := c.get(ctx, "/games", params)
	if err != nil {
		return nil, err
	}
	return ParseSearchResults(body)
}

func (c *Client) Get(ctx context.Context, catalogID int64) (domain.CatalogGame, error) {
	body, err := c.get(ctx, "/games/"+strconv.FormatInt(catalogID, 10), url.Values{})
	if err != nil {
		return domain.CatalogGame{}, err
	}
	if !gjson.ValidBytes(body) {
		return domain.CatalogGame{}, domain.ErrCatalogUnavailable
	}
	g, ok := toCatalogGame(gjson.ParseBytes(body))
	if !ok {
		return domain.CatalogGame{}, domain.ErrNotFound
	}
	return g, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}

	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", domain.ErrCatalogUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, domain.ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("%w: status %d", domain.ErrCatalogUnavailable, resp.StatusCode)
	}
	return body, nil
}
