package report

import (
	"github.com/shopspring/decimal"

	"github.com/storescan/zepto-scraper/internal/domain"
)

// StoreSummary aggregates one store's records for the Summary sheet
type StoreSummary struct {
	StoreName      string
	TotalProducts  int
	UniqueProducts int
	InStock        int
	OutOfStock     int
	AvgMRP         float64
	AvgDiscountPct float64
	AvgRating      float64
}

// Summarize computes one summary row per store that has records, in store order.
// Averages are rounded to 2 decimals; the rating average only counts rated rows.
func Summarize(report *domain.Report) []StoreSummary {
	if report == nil {
		return nil
	}

	var summaries []StoreSummary
	for _, store := range report.Stores {
		if len(store.Records) == 0 {
			continue
		}
		summaries = append(summaries, summarizeStore(store))
	}
	return summaries
}

func summarizeStore(store domain.StoreResult) StoreSummary {
	s := StoreSummary{
		StoreName:     store.Store.Name,
		TotalProducts: len(store.Records),
	}

	products := make(map[string]struct{})
	var mrpSum, discountSum, ratingSum float64
	rated := 0

	for _, r := range store.Records {
		products[r.ProductID] = struct{}{}
		if r.OutOfStock {
			s.OutOfStock++
		} else {
			s.InStock++
		}
		mrpSum += r.MRP
		discountSum += r.DiscountPercent
		if r.AverageRating > 0 {
			ratingSum += r.AverageRating
			rated++
		}
	}

	s.UniqueProducts = len(products)
	s.AvgMRP = mean(mrpSum, s.TotalProducts)
	s.AvgDiscountPct = mean(discountSum, s.TotalProducts)
	s.AvgRating = mean(ratingSum, rated)
	return s
}

func mean(sum float64, n int) float64 {
	if n == 0 {
		return 0
	}
	return decimal.NewFromFloat(sum).Div(decimal.NewFromInt(int64(n))).Round(2).InexactFloat64()
}

func (s StoreSummary) row() []any {
	return []any{
		s.StoreName, s.TotalProducts, s.UniqueProducts, s.InStock,
		s.OutOfStock, s.AvgMRP, s.AvgDiscountPct, s.AvgRating,
	}
}
