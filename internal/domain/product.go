package domain

import "time"

// Store identifies one dark store to scrape
type Store struct {
	ID   string `mapstructure:"id"`
	Name string `mapstructure:"name"`
}

// ProductRecord is one flattened product row. Field order is the report column order.
type ProductRecord struct {
	StoreName         string
	ProductName       string
	ProductID         string
	VariantID         string
	Brand             string
	MRP               float64 // rupees
	SellingPrice      float64 // rupees
	DiscountPercent   float64
	DiscountAmount    float64 // rupees
	AvailableQuantity int64
	OutOfStock        bool
	AverageRating     float64
	TotalRatings      int64
	PackSize          string
	WeightGrams       int64
	UnitOfMeasure     string
	PrimaryCategory   string
	L3Category        string
	Description       string
	IsCafe            bool
	CountryOfOrigin   string
	Manufacturer      string
	ImageURL          string
	MaxAllowedQty     int64
	IsSponsored       bool
}

// StoreResult holds the deduplicated records collected for one store
type StoreResult struct {
	Store   Store
	Records []ProductRecord
}

// Report is the output of one run, grouped by store in scrape order
type Report struct {
	GeneratedAt time.Time
	Stores      []StoreResult
}

// Records returns every record of the report in store order
func (r *Report) Records() []ProductRecord {
	if r == nil {
		return nil
	}
	var all []ProductRecord
	for _, s := range r.Stores {
		all = append(all, s.Records...)
	}
	return all
}

// Len returns the total number of records across stores
func (r *Report) Len() int {
	if r == nil {
		return 0
	}
	n := 0
	for _, s := range r.Stores {
		n += len(s.Records)
	}
	return n
}
