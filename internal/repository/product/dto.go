package product

import (
	"github.com/shopspring/decimal"

	domprod "github.com/Autilos/perfun-bot-new/internal/domain/product"
)

// productDoc is the stored JSON document. Field names are the knowledge base
// columns the chat assistant reads.
type productDoc struct {
	ExternalID  string          `json:"wp_id"`
	Name        string          `json:"name"`
	Brand       string          `json:"brand"`
	Price       decimal.Decimal `json:"price"`
	InStock     bool            `json:"in_stock"`
	Description string          `json:"description"`
	ScentNotes  string          `json:"scent_notes_combined"`
	ImageURL    string          `json:"image_url"`
	ProductURL  string          `json:"product_url"`
	Embedding   []float32       `json:"embedding,omitempty"`
}

func toDoc(e domprod.Enriched) productDoc {
	return productDoc{
		ExternalID:  e.ExternalID(),
		Name:        e.Name(),
		Brand:       e.Brand(),
		Price:       e.Price(),
		InStock:     e.InStock(),
		Description: e.Description(),
		ScentNotes:  e.ScentNotes(),
		ImageURL:    e.ImageURL(),
		ProductURL:  e.ProductURL(),
		Embedding:   e.Embedding(),
	}
}

func (d productDoc) toDomain() domprod.Enriched {
	return domprod.Reconstruct(
		d.ExternalID, d.Name, d.Brand, d.Price, d.InStock,
		d.Description, d.ScentNotes, d.ImageURL, d.ProductURL, d.Embedding,
	)
}
