// Package woocommerce reads products and orders from the WooCommerce REST API (wc/v3).
package woocommerce

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// DefaultPageSize is the products page size.
const DefaultPageSize = 50

// maxPageSize is the largest per_page the API accepts.
const maxPageSize = 100

// fetcher is the consumer interface for authenticated JSON access (ISP).
type fetcher interface {
	GetJSON(ctx context.Context, url string, v any) error
}

// Client is a thin typed wrapper over the wc/v3 endpoints. Authentication
// and request spacing are handled by the fetcher.
type Client struct {
	fetch    fetcher
	baseURL  string
	pageSize int
}

// NewClient creates an API client for the shop at siteURL.
func NewClient(f fetcher, siteURL string, pageSize int) *Client {
	if pageSize <= 0 || pageSize > maxPageSize {
		pageSize = DefaultPageSize
	}
	return &Client{fetch: f, baseURL: siteURL + "/wp-json/wc/v3", pageSize: pageSize}
}

// Products returns one page of products; an empty page means the end.
func (c *Client) Products(ctx context.Context, page int) ([]Product, error) {
	q := url.Values{}
	q.Set("per_page", strconv.Itoa(c.pageSize))
	q.Set("page", strconv.Itoa(page))

	var out []Product
	if err := c.fetch.GetJSON(ctx, c.baseURL+"/products?"+q.Encode(), &out); err != nil {
		return nil, fmt.Errorf("products page %d: %w", page, err)
	}
	return out, nil
}

// Variations returns the variations of a variable product.
func (c *Client) Variations(ctx context.Context, productID int64) ([]Variation, error) {
	q := url.Values{}
	q.Set("per_page", strconv.Itoa(maxPageSize))

	var out []Variation
	endpoint := fmt.Sprintf("%s/products/%d/variations?%s", c.baseURL, productID, q.Encode())
	if err := c.fetch.GetJSON(ctx, endpoint, &out); err != nil {
		return nil, fmt.Errorf("variations of %d: %w", productID, err)
	}
	return out, nil
}

// Orders returns all processing and completed orders created after the given time.
func (c *Client) Orders(ctx context.Context, after time.Time) ([]Order, error) {
	var all []Order
	for page := 1; ; page++ {
		q := url.Values{}
		q.Set("after", after.UTC().Format("2006-01-02T15:04:05"))
		q.Set("per_page", strconv.Itoa(maxPageSize))
		q.Set("page", strconv.Itoa(page))
		q.Set("status", "processing,completed")

		var batch []Order
		if err := c.fetch.GetJSON(ctx, c.baseURL+"/orders?"+q.Encode(), &batch); err != nil {
			return nil, fmt.Errorf("orders page %d: %w", page, err)
		}
		all = append(all, batch...)
		if len(batch) < maxPageSize {
			return all, nil
		}
	}
}

// Ping requests a single product.
func (c *Client) Ping(ctx context.Context) error {
	var out []Product
	if err := c.fetch.GetJSON(ctx, c.baseURL+"/products?per_page=1", &out); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}
