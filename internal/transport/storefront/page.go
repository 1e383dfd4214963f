package storefront

import (
	"bytes"
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/Autilos/perfun-bot-new/internal/domain"
	"github.com/Autilos/perfun-bot-new/internal/domain/product"
)

var nonPriceChars = regexp.MustCompile(`[^\d,]`)

// parsePage extracts a product record from a rendered product page.
func parsePage(body []byte, pageURL string) (product.Raw, error) {
	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return product.Raw{}, domain.NewSkip(pageURL, "invalid html", err)
	}

	raw := product.Raw{
		ExternalID: shortlinkID(doc),
		Name:       product.Placeholder,
		ImageURL:   product.Placeholder,
		ProductURL: pageURL,
	}

	if h1 := find(doc, tagWithClass(atom.H1, "product_title")); h1 != nil {
		raw.Name = text(h1, "")
	}

	if meta := find(doc, func(n *html.Node) bool {
		p, _ := attr(n, "property")
		return n.DataAtom == atom.Meta && p == "og:image"
	}); meta != nil {
		if v, ok := attr(meta, "content"); ok {
			raw.ImageURL = v
		}
	}

	price, err := parsePrice(doc)
	if err != nil {
		return product.Raw{}, domain.NewSkip(pageURL, "invalid price", err)
	}
	raw.Price = price

	raw.Description = product.NoDescription
	if div := find(doc, func(n *html.Node) bool {
		id, _ := attr(n, "id")
		return n.DataAtom == atom.Div && id == "cgkit-tab-description"
	}); div != nil {
		raw.Description = text(div, " ")
	}
	raw.Notes = extractNotes(raw.Description)

	raw.Attributes = parseAttributes(doc)
	raw.InStock = find(doc, tagWithClass(atom.P, "in-stock")) != nil

	return raw, nil
}

// shortlinkID reads the WordPress post id from <link rel="shortlink" href="...?p=123">.
func shortlinkID(doc *html.Node) string {
	link := find(doc, func(n *html.Node) bool {
		rel, _ := attr(n, "rel")
		return n.DataAtom == atom.Link && rel == "shortlink"
	})
	if link == nil {
		return ""
	}
	href, _ := attr(link, "href")
	u, err := url.Parse(href)
	if err != nil {
		return ""
	}
	id := u.Query().Get("p")
	if _, err := strconv.ParseInt(id, 10, 64); err != nil {
		return ""
	}
	return id
}

// parsePrice reads the last amount in the price block, so a sale price wins
// over the struck-through regular price. No price block means zero.
func parsePrice(doc *html.Node) (decimal.Decimal, error) {
	block := find(doc, tagWithClass(atom.P, "price"))
	if block == nil {
		return decimal.Zero, nil
	}
	amounts := findAll(block, tagWithClass(atom.Span, "woocommerce-Price-amount"))
	if len(amounts) == 0 {
		return decimal.Zero, nil
	}

	digits := nonPriceChars.ReplaceAllString(text(amounts[len(amounts)-1], ""), "")
	digits = strings.ReplaceAll(digits, ",", ".")
	price, err := decimal.NewFromString(digits)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse price %q: %w", digits, err)
	}
	return price, nil
}

// parseAttributes scans table rows for the known attribute labels. Later rows win.
func parseAttributes(doc *html.Node) product.Attributes {
	var attrs product.Attributes
	for _, row := range findAll(doc, tag(atom.Tr)) {
		var cells []*html.Node
		for c := row.FirstChild; c != nil; c = c.NextSibling {
			if c.DataAtom == atom.Td || c.DataAtom == atom.Th {
				cells = append(cells, c)
			}
		}
		if len(cells) < 2 {
			continue
		}

		label := strings.ToLower(text(cells[0], ""))
		val := text(cells[1], "")
		switch {
		case strings.Contains(label, "pojemność"):
			attrs.Capacity = val
		case strings.Contains(label, "koncentracja"):
			attrs.Concentration = val
		case strings.Contains(label, "płeć"):
			attrs.Gender = val
		}
	}
	return attrs
}
