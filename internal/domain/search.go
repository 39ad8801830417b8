package domain

// SearchRequest is one page of one keyword search against one store
type SearchRequest struct {
	StoreID    string
	Query      string
	PageNumber int
}

// Widget is one decoded element of a search response layout.
// Its shape varies; see the zepto flattener for the product-bearing path.
type Widget = any

// SearchResponse carries the fields of a search API response the scraper relies on
type SearchResponse struct {
	TotalProductCount int
	HasReachedEnd     bool
	PageProductCount  int
	Layout            []Widget
}
