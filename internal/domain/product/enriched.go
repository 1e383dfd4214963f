package product

import "github.com/shopspring/decimal"

// Enriched is a knowledge base entry (immutable value object).
type Enriched struct {
	externalID  string
	name        string
	brand       string
	price       decimal.Decimal
	inStock     bool
	description string
	scentNotes  string
	imageURL    string
	productURL  string
	embedding   []float32
}

// Reconstruct creates an Enriched without applying merge rules (storage hydration).
func Reconstruct(
	externalID, name, brand string, price decimal.Decimal, inStock bool,
	description, scentNotes, imageURL, productURL string, embedding []float32,
) Enriched {
	return Enriched{
		externalID:  externalID,
		name:        name,
		brand:       brand,
		price:       price,
		inStock:     inStock,
		description: description,
		scentNotes:  scentNotes,
		imageURL:    imageURL,
		productURL:  productURL,
		embedding:   embedding,
	}
}

// ExternalID returns the shop's product id, the de-duplication key.
func (e Enriched) ExternalID() string { return e.externalID }

// Name returns the display name.
func (e Enriched) Name() string { return e.name }

// Brand returns the brand. Never empty for merged records.
func (e Enriched) Brand() string { return e.brand }

// Price returns the price.
func (e Enriched) Price() decimal.Decimal { return e.price }

// InStock reports availability.
func (e Enriched) InStock() bool { return e.inStock }

// Description returns the composed description.
func (e Enriched) Description() string { return e.description }

// ScentNotes returns the combined notes line.
func (e Enriched) ScentNotes() string { return e.scentNotes }

// ImageURL returns the product image URL.
func (e Enriched) ImageURL() string { return e.imageURL }

// ProductURL returns the product page URL.
func (e Enriched) ProductURL() string { return e.productURL }

// Embedding returns the vector, nil when absent.
func (e Enriched) Embedding() []float32 { return e.embedding }

// HasEmbedding reports whether a vector is attached.
func (e Enriched) HasEmbedding() bool { return len(e.embedding) > 0 }

// WithEmbedding returns a copy carrying the vector.
func (e Enriched) WithEmbedding(v []float32) Enriched {
	e.embedding = v
	return e
}

// WithDescription returns a copy with a replaced description.
func (e Enriched) WithDescription(d string) Enriched {
	e.description = d
	return e
}
