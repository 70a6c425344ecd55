// Package feed builds the CSV files the Nalda transfer channel expects.
// Column layouts are fixed by the marketplace and must not drift: the
// catalog feed is exactly 36 columns with a header row, the status feed is
// exactly 5.
package feed

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sellbridge/nalda-sync/internal/commerce"
	"github.com/sellbridge/nalda-sync/internal/models"
)

// ProductColumns is the fixed catalog feed schema. Order matters.
var ProductColumns = []string{
	"gtin", "title", "country", "condition", "price", "tax_amount", "currency",
	"delivery_days", "stock", "return_days", "main_image_url", "brand",
	"category", "google_category", "seller_category", "description",
	"length_mm", "width_mm", "height_mm",
	"shipping_length_mm", "shipping_width_mm", "shipping_height_mm",
	"weight_g", "volume", "size", "colour",
	"image_url_2", "image_url_3", "image_url_4", "image_url_5",
	"delete", "author", "language", "format", "year", "publisher",
}

var (
	mmFactor = decimal.NewFromInt(10)   // cm -> mm
	gFactor  = decimal.NewFromInt(1000) // kg -> g
	tagRe    = regexp.MustCompile(`<[^>]*>`)
	spaceRe  = regexp.MustCompile(`\s+`)
)

// BuildProductRow maps one product to its feed row. A returned error is
// row-scoped: the caller downgrades the product to skipped and continues
// with the rest of the batch.
func BuildProductRow(p models.ProductRecord, s commerce.Settings) ([]string, error) {
	gtin := p.ResolvedGTIN()
	if gtin == "" {
		return nil, fmt.Errorf("product %d has no resolvable GTIN", p.ID)
	}
	if strings.TrimSpace(p.Name) == "" {
		return nil, fmt.Errorf("product %d has no title", p.ID)
	}

	tax := p.PriceInclTax.Sub(p.Price)
	if tax.IsNegative() {
		return nil, fmt.Errorf("product %d has negative tax amount (gross %s < net %s)",
			p.ID, p.PriceInclTax.StringFixed(2), p.Price.StringFixed(2))
	}

	stock := p.Stock
	if stock < 0 {
		stock = 0
	}

	lengthMM := p.Dimensions.LengthCM.Mul(mmFactor)
	widthMM := p.Dimensions.WidthCM.Mul(mmFactor)
	heightMM := p.Dimensions.HeightCM.Mul(mmFactor)
	weightG := p.Dimensions.WeightKG.Mul(gFactor)

	// Volume in cubic centimeters, derived from the shop-side dimensions.
	volume := p.Dimensions.LengthCM.Mul(p.Dimensions.WidthCM).Mul(p.Dimensions.HeightCM)

	category := ""
	if len(p.Categories) > 0 {
		category = p.Categories[len(p.Categories)-1]
	}

	row := []string{
		gtin,
		p.Name,
		s.Country,
		p.Condition,
		p.PriceInclTax.StringFixed(2),
		tax.StringFixed(2),
		s.Currency,
		fmt.Sprintf("%d", s.DeliveryDays),
		fmt.Sprintf("%d", stock),
		fmt.Sprintf("%d", s.ReturnDays),
		imageAt(p.Images, 0),
		p.Brand,
		category,
		p.GoogleCategory,
		strings.Join(p.Categories, " > "),
		PlainText(p.Description),
		lengthMM.StringFixed(0),
		widthMM.StringFixed(0),
		heightMM.StringFixed(0),
		// Shipping dimensions are reported identical to the product's.
		lengthMM.StringFixed(0),
		widthMM.StringFixed(0),
		heightMM.StringFixed(0),
		weightG.StringFixed(0),
		volume.StringFixed(0),
		p.Size,
		p.Colour,
		imageAt(p.Images, 1),
		imageAt(p.Images, 2),
		imageAt(p.Images, 3),
		imageAt(p.Images, 4),
		"0",
		p.Author,
		p.Language,
		p.Format,
		p.Year,
		p.Publisher,
	}

	return row, nil
}

// Eligible applies the export invariant: resolvable GTIN, positive price,
// and effective inclusion (explicit include, or default with the shop-wide
// default set to include).
func Eligible(p models.ProductRecord, s commerce.Settings) bool {
	if p.ResolvedGTIN() == "" || !p.Price.IsPositive() {
		return false
	}
	switch p.Preference {
	case models.ExportInclude:
		return true
	case models.ExportExclude:
		return false
	default:
		return s.ExportDefaultInclude
	}
}

// WriteCSV serializes header + rows with the channel's semicolon delimiter.
func WriteCSV(header []string, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	w.Comma = ';'

	if err := w.Write(header); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}

	return buf.Bytes(), nil
}

// PlainText strips markup and collapses whitespace for description fields.
func PlainText(html string) string {
	text := tagRe.ReplaceAllString(html, " ")
	return strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
}

// ProductFilename names a catalog feed upload.
func ProductFilename(now time.Time) string {
	return fmt.Sprintf("products_%s.csv", now.Format("20060102_150405"))
}

func imageAt(images []string, i int) string {
	if i < len(images) {
		return images[i]
	}
	return ""
}
