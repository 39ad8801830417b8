package usecase

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/storescan/zepto-scraper/internal/domain"
	"github.com/storescan/zepto-scraper/internal/infrastructure/metrics"
	"github.com/storescan/zepto-scraper/internal/infrastructure/zepto"
)

// DefaultMaxPages is the inclusive page index cap per query
const DefaultMaxPages = 50

// AuthHint is logged when the API rejects the session or a run collects nothing
const AuthHint = "refresh x-xsrf-token and request-signature from the browser DevTools search request"

// ScrapeServiceConfig holds configuration for the scrape service
type ScrapeServiceConfig struct {
	Queries  []string
	PageSize int
	MaxPages int

	PagePause  SleepRange
	QueryPause SleepRange
	StorePause SleepRange
}

// ScrapeService drives paginated keyword searches per store and deduplicates the results
type ScrapeService struct {
	client   domain.SearchClient
	pacer    Pacer
	logger   *zap.Logger
	metrics  *metrics.Metrics
	queries  []string
	pageSize int
	maxPages int

	pagePause  SleepRange
	queryPause SleepRange
	storePause SleepRange
}

// NewScrapeService creates a new scrape service with dependencies
func NewScrapeService(
	client domain.SearchClient,
	pacer Pacer,
	logger *zap.Logger,
	m *metrics.Metrics,
	config ScrapeServiceConfig,
) *ScrapeService {
	if logger == nil {
		logger = zap.NewNop()
	}

	maxPages := config.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	return &ScrapeService{
		client:     client,
		pacer:      pacer,
		logger:     logger,
		metrics:    m,
		queries:    NewQueryPreprocessor(logger).Prepare(config.Queries),
		pageSize:   config.PageSize,
		maxPages:   maxPages,
		pagePause:  config.PagePause,
		queryPause: config.QueryPause,
		storePause: config.StorePause,
	}
}

// Run scrapes every store in order, pausing between stores.
// A cancelled context ends the run early with whatever was collected.
func (s *ScrapeService) Run(ctx context.Context, stores []domain.Store) *domain.Report {
	report := &domain.Report{GeneratedAt: time.Now()}

	for i, store := range stores {
		if ctx.Err() != nil {
			s.logger.Warn("run interrupted", zap.Int("stores_done", i), zap.Int("stores_total", len(stores)))
			break
		}
		if i > 0 {
			s.pause(ctx, s.storePause)
		}

		records := s.ScrapeStore(ctx, store)
		report.Stores = append(report.Stores, domain.StoreResult{Store: store, Records: records})
	}

	return report
}

// ScrapeStore runs every query for one store and returns the store's unique products.
// Variant ids are deduplicated across pages and queries; a failing query is
// abandoned without affecting the rest.
func (s *ScrapeService) ScrapeStore(ctx context.Context, store domain.Store) []domain.ProductRecord {
	logger := s.logger.With(zap.String("store", store.Name), zap.String("store_id", store.ID))
	logger.Info("store started", zap.Int("queries", len(s.queries)))

	var records []domain.ProductRecord
	seen := make(map[string]struct{})

	for i, query := range s.queries {
		if ctx.Err() != nil {
			break
		}
		if i > 0 {
			s.pause(ctx, s.queryPause)
		}
		records = s.scrapeQuery(ctx, logger, store, query, seen, records)
	}

	logger.Info("store complete", zap.Int("unique_products", len(records)))
	return records
}

// scrapeQuery paginates one query from page 0 until the end signal, an
// empty page, a fetch failure, or the page cap, appending unseen rows.
func (s *ScrapeService) scrapeQuery(
	ctx context.Context,
	logger *zap.Logger,
	store domain.Store,
	query string,
	seen map[string]struct{},
	records []domain.ProductRecord,
) []domain.ProductRecord {
	logger = logger.With(zap.String("query", query))

	for page := 0; page <= s.maxPages; page++ {
		resp, err := s.client.Search(ctx, domain.SearchRequest{StoreID: store.ID, Query: query, PageNumber: page})
		if err != nil {
			s.logFetchError(logger, page, err)
			return records
		}

		if page == 0 {
			logger.Debug("query results", zap.Int("total_products", resp.TotalProductCount), zap.Int("expected_pages", s.expectedPages(resp.TotalProductCount)))
		}

		rows := zepto.Flatten(resp.Layout, store.Name)
		added := 0
		for _, row := range rows {
			if _, dup := seen[row.VariantID]; dup {
				continue
			}
			seen[row.VariantID] = struct{}{}
			records = append(records, row)
			added++
		}
		s.metrics.ObservePage(store.Name, added, len(rows)-added)

		logger.Info("page scraped",
			zap.Int("page", page),
			zap.Int("page_products", resp.PageProductCount),
			zap.Int("new", added),
			zap.Int("total_this_store", len(records)))

		if resp.HasReachedEnd || resp.PageProductCount == 0 || page == s.maxPages {
			return records
		}
		s.pause(ctx, s.pagePause)
	}

	return records
}

func (s *ScrapeService) logFetchError(logger *zap.Logger, page int, err error) {
	if errors.Is(err, domain.ErrAuthFailure) {
		logger.Error("auth error, query abandoned", zap.Int("page", page), zap.Error(err), zap.String("hint", AuthHint))
		return
	}
	logger.Error("request failed, query abandoned", zap.Int("page", page), zap.Error(err))
}

// expectedPages estimates how many pages a query spans
func (s *ScrapeService) expectedPages(total int) int {
	if s.pageSize <= 0 || total <= 0 {
		return 0
	}
	return (total + s.pageSize - 1) / s.pageSize
}

func (s *ScrapeService) pause(ctx context.Context, r SleepRange) {
	if s.pacer == nil {
		return
	}
	s.pacer.Pause(ctx, r)
}
