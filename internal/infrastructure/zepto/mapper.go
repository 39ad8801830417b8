package zepto

import (
	"github.com/storescan/zepto-scraper/internal/domain"
)

// TagTypeSponsored marks a paid placement in an item's meta.tags
const TagTypeSponsored = "SPONSORED"

// paiseExponent shifts minor-unit prices into rupees
const paiseExponent = -2

// sourceShape records which of the two item schemas a product came from
type sourceShape int

const (
	// shapeWrapped items carry the product under item.productResponse
	shapeWrapped sourceShape = iota
	// shapeBare items are the product-bearing object themselves
	shapeBare
)

// productSource is the product-bearing object of one layout item
type productSource struct {
	shape    sourceShape
	item     node
	response node
}

// Flatten converts one search response layout into product rows.
// Products live at layout[n].data.resolver.data.items[m]; widgets without
// that path are skipped. Items without a variant id, or repeating a variant
// already seen in this layout, are dropped. Encounter order is preserved.
func Flatten(layout []domain.Widget, storeName string) []domain.ProductRecord {
	var rows []domain.ProductRecord
	seen := make(map[string]struct{})

	for _, widget := range layout {
		for _, item := range widgetItems(widget) {
			record, ok := mapProductRecord(resolveProductSource(item), storeName)
			if !ok {
				continue
			}
			if _, dup := seen[record.VariantID]; dup {
				continue
			}
			seen[record.VariantID] = struct{}{}
			rows = append(rows, record)
		}
	}

	return rows
}

func widgetItems(widget domain.Widget) []node {
	return newNode(widget).get("data", "resolver", "data", "items").list()
}

func resolveProductSource(item node) productSource {
	if wrapped, ok := item.get("productResponse").object(); ok && len(wrapped) > 0 {
		return productSource{shape: shapeWrapped, item: item, response: newNode(wrapped)}
	}
	return productSource{shape: shapeBare, item: item, response: item}
}

// mapProductRecord builds a row from a resolved product source.
// It reports false when the source has no variant id.
func mapProductRecord(src productSource, storeName string) (domain.ProductRecord, bool) {
	pr := src.response
	product := pr.get("product")
	variant := pr.get("productVariant")

	variantID := variant.get("id").str()
	if variantID == "" {
		return domain.ProductRecord{}, false
	}

	mrp := firstTruthy(variant.get("mrp"), pr.get("mrp"))
	sellingPrice := firstTruthy(pr.get("discountedSellingPrice"), pr.get("sellingPrice"), mrp)
	rating := variant.get("ratingSummary")

	return domain.ProductRecord{
		StoreName:         storeName,
		ProductName:       product.get("name").str(),
		ProductID:         product.get("id").str(),
		VariantID:         variantID,
		Brand:             product.get("brand").str(),
		MRP:               paiseToRupees(mrp),
		SellingPrice:      paiseToRupees(sellingPrice),
		DiscountPercent:   pr.get("discountPercent").float(),
		DiscountAmount:    paiseToRupees(pr.get("discountAmount")),
		AvailableQuantity: pr.get("availableQuantity").int(),
		OutOfStock:        pr.get("outOfStock").boolean(),
		AverageRating:     rating.get("averageRating").float(),
		TotalRatings:      rating.get("totalRatings").int(),
		PackSize:          variant.get("formattedPacksize").str(),
		WeightGrams:       variant.get("weightInGms").int(),
		UnitOfMeasure:     variant.get("unitOfMeasure").str(),
		PrimaryCategory:   pr.get("primaryCategoryName").str(),
		L3Category:        src.item.get("l3_details", "name").str(),
		Description:       firstString(product.get("description")),
		IsCafe:            pr.get("isCafe").boolean(),
		CountryOfOrigin:   product.get("countryOfOrigin").str(),
		Manufacturer:      product.get("manufacturerName").str(),
		ImageURL:          variant.get("images").first().get("path").str(),
		MaxAllowedQty:     variant.get("maxAllowedQuantity").int(),
		IsSponsored:       isSponsored(src),
	}, true
}

// paiseToRupees converts an integer paise amount to rupees rounded to 2 decimals
func paiseToRupees(amount node) float64 {
	return amount.decimal().Shift(paiseExponent).Round(2).InexactFloat64()
}

// firstString returns the first element of a list value, or the value itself when it is a plain string
func firstString(n node) string {
	if n.isList() {
		return n.first().str()
	}
	return n.str()
}

// isSponsored scans meta.tags of the product-bearing object, then of the
// enclosing item for wrapped sources
func isSponsored(src productSource) bool {
	tags := src.response.get("meta", "tags").list()
	if len(tags) == 0 && src.shape == shapeWrapped {
		tags = src.item.get("meta", "tags").list()
	}
	for _, tag := range tags {
		if tag.get("type").str() == TagTypeSponsored {
			return true
		}
	}
	return false
}
