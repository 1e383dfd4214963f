package woocommerce

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/net/html"

	"github.com/Autilos/perfun-bot-new/internal/domain"
	"github.com/Autilos/perfun-bot-new/internal/domain/product"
)

// toRaw maps an API product and its variations to a product.Raw.
func toRaw(p Product, variations []Variation) (product.Raw, error) {
	id := strconv.FormatInt(p.ID, 10)
	ref := id
	if p.Permalink != "" {
		ref = p.Permalink
	}

	price, err := parsePrice(p.Price)
	if err != nil {
		return product.Raw{}, domain.NewSkip(ref, "invalid price", err)
	}

	raw := product.Raw{
		Name:       strings.TrimSpace(html.UnescapeString(p.Name)),
		Price:      price,
		InStock:    p.StockStatus == stockInStock,
		ImageURL:   product.Placeholder,
		ProductURL: p.Permalink,
	}
	if p.ID > 0 {
		raw.ExternalID = id
	}
	if len(p.Images) > 0 && p.Images[0].Src != "" {
		raw.ImageURL = p.Images[0].Src
	}

	raw.Description = cleanHTML(p.Description)
	if raw.Description == "" {
		raw.Description = cleanHTML(p.ShortDescription)
	}
	if raw.Description == "" {
		raw.Description = product.NoDescription
	}

	for _, a := range p.Attributes {
		val := strings.Join(a.Options, ", ")
		switch a.Name {
		case "Pojemność":
			raw.Attributes.Capacity = val
		case "Koncentracja":
			raw.Attributes.Concentration = val
		case "Płeć":
			raw.Attributes.Gender = val
		}
		lower := strings.ToLower(a.Name)
		if strings.Contains(lower, "nuty") || strings.Contains(lower, "otwarcie") {
			raw.Notes.Other = append(raw.Notes.Other, a.Name+": "+val)
		}
	}

	for _, v := range variations {
		raw.Variants = append(raw.Variants, variantLine(v))
		if raw.Price.IsZero() {
			if vp, err := parsePrice(v.Price); err == nil {
				raw.Price = vp
			}
		}
	}

	return raw, nil
}

// variantLine renders e.g. "Pojemność: 50ml - 199.00 PLN (Na stanie)".
func variantLine(v Variation) string {
	opts := make([]string, 0, len(v.Attributes))
	for _, a := range v.Attributes {
		opts = append(opts, a.Name+": "+a.Option)
	}
	stock := labelOutStock
	if v.StockStatus == stockInStock {
		stock = labelInStock
	}
	return fmt.Sprintf("%s - %s %s (%s)", strings.Join(opts, ", "), v.Price, currencySuffix, stock)
}

// parsePrice reads an API price; empty means zero.
func parsePrice(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse price %q: %w", s, err)
	}
	return d, nil
}

// cleanHTML replaces every tag with a space and unescapes entities.
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(b.String())
		case html.TextToken:
			b.Write(z.Text())
		default:
			b.WriteByte(' ')
		}
	}
}
