package woocommerce

import (
	"context"
	"time"

	"github.com/Autilos/perfun-bot-new/internal/usecase/bestseller"
)

// SalesSource adapts the orders endpoint to bestseller.OrderSource.
type SalesSource struct {
	client *Client
}

var _ bestseller.OrderSource = (*SalesSource)(nil)

// NewSalesSource wraps an API client.
func NewSalesSource(c *Client) *SalesSource {
	return &SalesSource{client: c}
}

// Sales flattens the line items of orders placed after since.
func (s *SalesSource) Sales(ctx context.Context, since time.Time) ([]bestseller.Sale, error) {
	orders, err := s.client.Orders(ctx, since)
	if err != nil {
		return nil, err
	}
	var out []bestseller.Sale
	for _, o := range orders {
		for _, li := range o.LineItems {
			out = append(out, bestseller.Sale{ProductID: li.ProductID, Quantity: li.Quantity})
		}
	}
	return out, nil
}
