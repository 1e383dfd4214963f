// Package product holds shop product records and the merge policy that turns
// them into knowledge base entries.
package product

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Autilos/perfun-bot-new/internal/domain"
)

// Sentinel texts stored when data is missing.
const (
	NoNotes       = "Brak danych"
	NoDescription = "Brak opisu"
	// Placeholder marks a field the source left unfilled. It is treated as absent.
	Placeholder = "N/A"
)

// Raw is one product as read from the shop, before enrichment.
type Raw struct {
	ExternalID  string
	Name        string
	Price       decimal.Decimal
	InStock     bool
	Description string
	ImageURL    string
	ProductURL  string
	Attributes  Attributes
	Notes       Notes
	// Variants are pre-rendered lines such as "Pojemność: 50ml - 199.00 PLN (Na stanie)".
	Variants []string
}

// Attributes are the optional catalog attributes shown on the product page.
type Attributes struct {
	Capacity      string
	Concentration string
	Gender        string
}

// Notes are free-text note fragments found in the shop data.
type Notes struct {
	Top   string
	Heart string
	Base  string
	// Other holds labeled note lines that do not map to a tier, e.g. "Nuty: wanilia".
	Other []string
}

// Validate reports whether the record can be processed at all.
func (r Raw) Validate() error {
	ref := r.ExternalID
	if ref == "" {
		ref = r.ProductURL
	}
	if strings.TrimSpace(r.ExternalID) == "" {
		return domain.NewSkip(ref, "missing external id", nil)
	}
	if !Present(r.Name) {
		return domain.NewSkip(ref, "missing name", nil)
	}
	return nil
}

// Present reports whether a source value carries data.
func Present(v string) bool {
	v = strings.TrimSpace(v)
	return v != "" && v != Placeholder
}
