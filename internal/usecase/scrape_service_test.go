package usecase

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storescan/zepto-scraper/internal/domain"
	"github.com/storescan/zepto-scraper/internal/infrastructure/metrics"
)

// MockSearchClient is a mock implementation of domain.SearchClient.
// Responses are served by (store, query, page); unknown keys end the query.
type MockSearchClient struct {
	responses map[string]*domain.SearchResponse
	errors    map[string]error
	fallback  func(req domain.SearchRequest) (*domain.SearchResponse, error)
	calls     []domain.SearchRequest
}

func NewMockSearchClient() *MockSearchClient {
	return &MockSearchClient{
		responses: make(map[string]*domain.SearchResponse),
		errors:    make(map[string]error),
	}
}

func mockKey(storeID, query string, page int) string {
	return fmt.Sprintf("%s|%s|%d", storeID, query, page)
}

func (m *MockSearchClient) on(storeID, query string, page int, resp *domain.SearchResponse) {
	m.responses[mockKey(storeID, query, page)] = resp
}

func (m *MockSearchClient) fail(storeID, query string, page int, err error) {
	m.errors[mockKey(storeID, query, page)] = err
}

func (m *MockSearchClient) Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	m.calls = append(m.calls, req)
	key := mockKey(req.StoreID, req.Query, req.PageNumber)
	if err, ok := m.errors[key]; ok {
		return nil, err
	}
	if resp, ok := m.responses[key]; ok {
		return resp, nil
	}
	if m.fallback != nil {
		return m.fallback(req)
	}
	return &domain.SearchResponse{HasReachedEnd: true}, nil
}

func (m *MockSearchClient) callsFor(query string) int {
	n := 0
	for _, c := range m.calls {
		if c.Query == query {
			n++
		}
	}
	return n
}

// RecordingPacer records pauses without sleeping
type RecordingPacer struct {
	pauses []SleepRange
}

func (p *RecordingPacer) Pause(ctx context.Context, r SleepRange) {
	p.pauses = append(p.pauses, r)
}

var (
	testPagePause  = SleepRange{Min: 1 * time.Millisecond, Max: 2 * time.Millisecond}
	testQueryPause = SleepRange{Min: 3 * time.Millisecond, Max: 4 * time.Millisecond}
	testStorePause = SleepRange{Min: 5 * time.Millisecond, Max: 6 * time.Millisecond}
)

// page builds a response whose layout holds one grid widget with the given variant ids
func page(hasReachedEnd bool, variantIDs ...string) *domain.SearchResponse {
	items := make([]any, 0, len(variantIDs))
	for _, id := range variantIDs {
		items = append(items, map[string]any{
			"productResponse": map[string]any{
				"product":        map[string]any{"id": "p-" + id, "name": "Product " + id},
				"productVariant": map[string]any{"id": id},
			},
		})
	}
	return &domain.SearchResponse{
		TotalProductCount: len(variantIDs),
		HasReachedEnd:     hasReachedEnd,
		PageProductCount:  len(variantIDs),
		Layout: []domain.Widget{
			map[string]any{"data": map[string]any{"resolver": map[string]any{"data": map[string]any{"items": items}}}},
		},
	}
}

func variantIDs(records []domain.ProductRecord) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.VariantID
	}
	return ids
}

func newTestService(client domain.SearchClient, pacer Pacer, queries []string, maxPages int) *ScrapeService {
	return NewScrapeService(client, pacer, nil, nil, ScrapeServiceConfig{
		Queries:    queries,
		PageSize:   30,
		MaxPages:   maxPages,
		PagePause:  testPagePause,
		QueryPause: testQueryPause,
		StorePause: testStorePause,
	})
}

var testStore = domain.Store{ID: "store-1", Name: "Koramangala"}

func TestNewScrapeService(t *testing.T) {
	t.Run("applies default page cap", func(t *testing.T) {
		svc := NewScrapeService(NewMockSearchClient(), nil, nil, nil, ScrapeServiceConfig{})
		assert.Equal(t, DefaultMaxPages, svc.maxPages)
		assert.Empty(t, svc.queries)
	})

	t.Run("prepares queries", func(t *testing.T) {
		svc := newTestService(NewMockSearchClient(), nil, []string{" Milk ", "bread", "milk", ""}, 5)
		assert.Equal(t, []string{"milk", "bread"}, svc.queries)
		assert.Equal(t, 5, svc.maxPages)
	})
}

func TestScrapeStore_StopsOnReachedEnd(t *testing.T) {
	client := NewMockSearchClient()
	client.on("store-1", "milk", 0, page(true, "v-1", "v-2"))
	client.on("store-1", "milk", 1, page(true, "v-3"))

	svc := newTestService(client, &RecordingPacer{}, []string{"milk"}, 50)
	records := svc.ScrapeStore(context.Background(), testStore)

	assert.Equal(t, []string{"v-1", "v-2"}, variantIDs(records))
	assert.Len(t, client.calls, 1)
}

func TestScrapeStore_ReachedEndWinsOverPageCount(t *testing.T) {
	client := NewMockSearchClient()
	resp := page(true, "v-1")
	resp.PageProductCount = 30
	client.on("store-1", "milk", 0, resp)

	svc := newTestService(client, &RecordingPacer{}, []string{"milk"}, 50)
	svc.ScrapeStore(context.Background(), testStore)

	assert.Len(t, client.calls, 1)
}

func TestScrapeStore_StopsOnEmptyPage(t *testing.T) {
	client := NewMockSearchClient()
	client.on("store-1", "milk", 0, page(false, "v-1"))
	client.on("store-1", "milk", 1, page(false))
	client.on("store-1", "milk", 2, page(false, "v-9"))

	pacer := &RecordingPacer{}
	svc := newTestService(client, pacer, []string{"milk"}, 50)
	records := svc.ScrapeStore(context.Background(), testStore)

	assert.Equal(t, []string{"v-1"}, variantIDs(records))
	assert.Len(t, client.calls, 2)
	assert.Equal(t, []SleepRange{testPagePause}, pacer.pauses)
}

func TestScrapeStore_SafetyCap(t *testing.T) {
	client := NewMockSearchClient()
	client.fallback = func(req domain.SearchRequest) (*domain.SearchResponse, error) {
		return page(false, fmt.Sprintf("v-%d", req.PageNumber)), nil
	}

	pacer := &RecordingPacer{}
	svc := newTestService(client, pacer, []string{"milk"}, 50)
	records := svc.ScrapeStore(context.Background(), testStore)

	require.Len(t, client.calls, 51)
	assert.Equal(t, 0, client.calls[0].PageNumber)
	assert.Equal(t, 50, client.calls[len(client.calls)-1].PageNumber)
	assert.Len(t, records, 51)
	// no pause after the final page
	assert.Len(t, pacer.pauses, 50)
}

func TestScrapeStore_CrossQueryDedup(t *testing.T) {
	client := NewMockSearchClient()
	client.on("store-1", "milk", 0, page(false, "v-1", "v-2"))
	client.on("store-1", "milk", 1, page(true, "v-2", "v-3"))
	client.on("store-1", "dairy", 0, page(true, "v-1", "v-4"))

	m := metrics.New()
	svc := NewScrapeService(client, &RecordingPacer{}, nil, m, ScrapeServiceConfig{
		Queries:  []string{"milk", "dairy"},
		MaxPages: 50,
	})
	records := svc.ScrapeStore(context.Background(), testStore)

	assert.Equal(t, []string{"v-1", "v-2", "v-3", "v-4"}, variantIDs(records))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.PagesTotal.WithLabelValues("Koramangala")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.ProductsTotal.WithLabelValues("Koramangala")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.DuplicatesTotal.WithLabelValues("Koramangala")))
}

func TestScrapeStore_FailureAbortsOnlyThatQuery(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{name: "auth failure", err: fmt.Errorf("%w: status 401", domain.ErrAuthFailure)},
		{name: "fetch failure", err: fmt.Errorf("%w: status 500", domain.ErrFetchFailure)},
		{name: "malformed response", err: fmt.Errorf("%w: bad body", domain.ErrMalformedResponse)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := NewMockSearchClient()
			client.on("store-1", "milk", 0, page(false, "v-1"))
			client.fail("store-1", "milk", 1, tt.err)
			client.on("store-1", "milk", 2, page(true, "v-never"))
			client.on("store-1", "bread", 0, page(true, "v-2"))

			svc := newTestService(client, &RecordingPacer{}, []string{"milk", "bread"}, 50)
			records := svc.ScrapeStore(context.Background(), testStore)

			assert.Equal(t, []string{"v-1", "v-2"}, variantIDs(records))
			assert.Equal(t, 2, client.callsFor("milk"))
			assert.Equal(t, 1, client.callsFor("bread"))
		})
	}
}

func TestScrapeStore_RecordsCarryStoreName(t *testing.T) {
	client := NewMockSearchClient()
	client.on("store-1", "milk", 0, page(true, "v-1"))

	svc := newTestService(client, nil, []string{"milk"}, 50)
	records := svc.ScrapeStore(context.Background(), testStore)

	require.Len(t, records, 1)
	assert.Equal(t, "Koramangala", records[0].StoreName)
	assert.Equal(t, "p-v-1", records[0].ProductID)
}

func TestScrapeStore_QueryPauses(t *testing.T) {
	client := NewMockSearchClient()
	pacer := &RecordingPacer{}
	svc := newTestService(client, pacer, []string{"milk", "bread", "eggs"}, 50)

	svc.ScrapeStore(context.Background(), testStore)

	assert.Equal(t, []SleepRange{testQueryPause, testQueryPause}, pacer.pauses)
}

func TestRun_PerStoreSeenSets(t *testing.T) {
	client := NewMockSearchClient()
	client.on("store-1", "milk", 0, page(true, "v-1", "v-2"))
	client.on("store-2", "milk", 0, page(true, "v-2", "v-3"))

	pacer := &RecordingPacer{}
	svc := newTestService(client, pacer, []string{"milk"}, 50)
	report := svc.Run(context.Background(), []domain.Store{
		{ID: "store-1", Name: "Koramangala"},
		{ID: "store-2", Name: "Indiranagar"},
	})

	require.Len(t, report.Stores, 2)
	assert.Equal(t, []string{"v-1", "v-2"}, variantIDs(report.Stores[0].Records))
	assert.Equal(t, []string{"v-2", "v-3"}, variantIDs(report.Stores[1].Records))
	assert.Equal(t, "Indiranagar", report.Stores[1].Records[0].StoreName)
	assert.Equal(t, 4, report.Len())
	assert.False(t, report.GeneratedAt.IsZero())
	assert.Equal(t, []SleepRange{testStorePause}, pacer.pauses)
}

func TestRun_NoDuplicateVariantsPerStore(t *testing.T) {
	client := NewMockSearchClient()
	client.fallback = func(req domain.SearchRequest) (*domain.SearchResponse, error) {
		// every query and page overlaps with its neighbours
		base := len(req.Query) + req.PageNumber
		return page(req.PageNumber >= 3, fmt.Sprintf("v-%d", base), fmt.Sprintf("v-%d", base+1)), nil
	}

	svc := newTestService(client, nil, []string{"tea", "milk", "bread", "coffee"}, 50)
	report := svc.Run(context.Background(), []domain.Store{testStore, {ID: "store-2", Name: "HSR"}})

	for _, store := range report.Stores {
		seen := make(map[string]bool)
		for _, r := range store.Records {
			assert.False(t, seen[r.VariantID], "duplicate %s in %s", r.VariantID, store.Store.Name)
			seen[r.VariantID] = true
		}
	}
}

func TestRun_CancelledContext(t *testing.T) {
	client := NewMockSearchClient()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := newTestService(client, nil, []string{"milk"}, 50)
	report := svc.Run(ctx, []domain.Store{testStore})

	assert.Empty(t, report.Stores)
	assert.Empty(t, client.calls)
}

func TestExpectedPages(t *testing.T) {
	svc := newTestService(NewMockSearchClient(), nil, nil, 50)

	assert.Equal(t, 0, svc.expectedPages(0))
	assert.Equal(t, 1, svc.expectedPages(30))
	assert.Equal(t, 2, svc.expectedPages(31))
}
