package report

import "github.com/storescan/zepto-scraper/internal/domain"

// column is one report column: its header and how to read it from a record
type column struct {
	header string
	value  func(r *domain.ProductRecord) any
}

// productColumns is the stable column order of every product sheet
var productColumns = []column{
	{"Store Name", func(r *domain.ProductRecord) any { return r.StoreName }},
	{"Product Name", func(r *domain.ProductRecord) any { return r.ProductName }},
	{"Product ID", func(r *domain.ProductRecord) any { return r.ProductID }},
	{"Product Variant ID", func(r *domain.ProductRecord) any { return r.VariantID }},
	{"Brand", func(r *domain.ProductRecord) any { return r.Brand }},
	{"MRP (₹)", func(r *domain.ProductRecord) any { return r.MRP }},
	{"Selling Price (₹)", func(r *domain.ProductRecord) any { return r.SellingPrice }},
	{"Discount %", func(r *domain.ProductRecord) any { return r.DiscountPercent }},
	{"Discount Amount (₹)", func(r *domain.ProductRecord) any { return r.DiscountAmount }},
	{"Available Quantity", func(r *domain.ProductRecord) any { return r.AvailableQuantity }},
	{"Out of Stock", func(r *domain.ProductRecord) any { return r.OutOfStock }},
	{"Average Rating", func(r *domain.ProductRecord) any { return r.AverageRating }},
	{"Total Ratings", func(r *domain.ProductRecord) any { return r.TotalRatings }},
	{"Pack Size", func(r *domain.ProductRecord) any { return r.PackSize }},
	{"Weight (g)", func(r *domain.ProductRecord) any { return r.WeightGrams }},
	{"Unit of Measure", func(r *domain.ProductRecord) any { return r.UnitOfMeasure }},
	{"Primary Category", func(r *domain.ProductRecord) any { return r.PrimaryCategory }},
	{"L3 Category", func(r *domain.ProductRecord) any { return r.L3Category }},
	{"Description", func(r *domain.ProductRecord) any { return r.Description }},
	{"Is Cafe", func(r *domain.ProductRecord) any { return r.IsCafe }},
	{"Country of Origin", func(r *domain.ProductRecord) any { return r.CountryOfOrigin }},
	{"Manufacturer", func(r *domain.ProductRecord) any { return r.Manufacturer }},
	{"Image URL", func(r *domain.ProductRecord) any { return r.ImageURL }},
	{"Max Allowed Qty", func(r *domain.ProductRecord) any { return r.MaxAllowedQty }},
	{"Is Sponsored", func(r *domain.ProductRecord) any { return r.IsSponsored }},
}

// Headers returns the product sheet headers in column order
func Headers() []string {
	headers := make([]string, len(productColumns))
	for i, c := range productColumns {
		headers[i] = c.header
	}
	return headers
}

// summaryHeaders are the Summary sheet columns
var summaryHeaders = []string{
	"Store Name", "Total_Products", "Unique_Products", "In_Stock",
	"Out_of_Stock", "Avg_MRP", "Avg_Discount_Pct", "Avg_Rating",
}
