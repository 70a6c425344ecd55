package models

import "github.com/shopspring/decimal"

// ExportPreference is the per-product override for feed inclusion.
type ExportPreference int

const (
	ExportDefault ExportPreference = iota // follow the shop-wide default
	ExportInclude
	ExportExclude
)

// Dimensions carries the shop-side measurements: centimeters and kilograms.
// The Nalda feed wants millimeters and grams, conversion happens in the feed
// builder.
type Dimensions struct {
	LengthCM decimal.Decimal
	WidthCM  decimal.Decimal
	HeightCM decimal.Decimal
	WeightKG decimal.Decimal
}

// ProductRecord is the read model the commerce backend exposes for feed
// generation. Identifier fields are kept raw; ResolvedGTIN applies the
// priority order.
type ProductRecord struct {
	ID          int64
	GTIN        string
	EAN         string
	Barcode     string
	SKU         string
	Name        string
	Description string
	Brand       string
	Condition   string

	Price        decimal.Decimal // net
	PriceInclTax decimal.Decimal
	Stock        int

	Dimensions Dimensions

	// Images holds up to five URLs, the first one is the main image.
	Images []string

	// Categories is the shop category path from root to leaf.
	Categories     []string
	GoogleCategory string

	Size   string
	Colour string

	// Media attributes, empty for non-book assortment.
	Author    string
	Language  string
	Format    string
	Year      string
	Publisher string

	Preference ExportPreference
}

// ExternalIDFields is the priority order used to resolve a marketplace
// identifier to a product. SKU is the last resort for shops that never
// maintained GTINs.
var ExternalIDFields = []string{"gtin", "ean", "barcode", "sku"}

// ResolvedGTIN returns the identifier Nalda will see for this product:
// the first non-empty field in priority order, or "" if the product has none.
func (p *ProductRecord) ResolvedGTIN() string {
	for _, v := range []string{p.GTIN, p.EAN, p.Barcode, p.SKU} {
		if v != "" {
			return v
		}
	}
	return ""
}

// ExternalID returns the value of one identifier field by name.
func (p *ProductRecord) ExternalID(field string) string {
	switch field {
	case "gtin":
		return p.GTIN
	case "ean":
		return p.EAN
	case "barcode":
		return p.Barcode
	case "sku":
		return p.SKU
	}
	return ""
}
