package woocommerce

// Product is the subset of a wc/v3 product the collector reads.
type Product struct {
	ID               int64       `json:"id"`
	Name             string      `json:"name"`
	Type             string      `json:"type"`
	Permalink        string      `json:"permalink"`
	Price            string      `json:"price"`
	StockStatus      string      `json:"stock_status"`
	Description      string      `json:"description"`
	ShortDescription string      `json:"short_description"`
	Images           []Image     `json:"images"`
	Attributes       []Attribute `json:"attributes"`
}

// Image is a product image.
type Image struct {
	Src string `json:"src"`
}

// Attribute is a product attribute with its selectable options.
type Attribute struct {
	Name    string   `json:"name"`
	Options []string `json:"options"`
}

// Variation is one purchasable variant of a variable product.
type Variation struct {
	ID          int64                `json:"id"`
	Price       string               `json:"price"`
	StockStatus string               `json:"stock_status"`
	Attributes  []VariationAttribute `json:"attributes"`
}

// VariationAttribute is the option chosen for one attribute of a variation.
type VariationAttribute struct {
	Name   string `json:"name"`
	Option string `json:"option"`
}

// Order is the subset of a wc/v3 order needed to rank products by sales.
type Order struct {
	ID        int64      `json:"id"`
	LineItems []LineItem `json:"line_items"`
}

// LineItem is one ordered product.
type LineItem struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

const (
	typeVariable   = "variable"
	stockInStock   = "instock"
	labelInStock   = "Na stanie"
	labelOutStock  = "Brak"
	currencySuffix = "PLN"
)
