package fetch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront-gateway/internal/bus"
	"github.com/example/storefront-gateway/internal/catalog"
	"github.com/example/storefront-gateway/internal/remote"
	"github.com/example/storefront-gateway/internal/session"
	"github.com/example/storefront-gateway/internal/state"
)

// fixture wires one Fetchers instance against a counting test server.
type fixture struct {
	fetchers *Fetchers
	store    *state.Store
	caches   *Caches
	changes  *bus.Bus
	sessions *session.MemoryStore
	calls    *atomic.Int64
}

func newFixture(t *testing.T, handler http.HandlerFunc) *fixture {
	t.Helper()

	calls := &atomic.Int64{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		handler(w, r)
	}))
	t.Cleanup(server.Close)

	store := state.NewStore()
	caches := NewCaches()
	changes := bus.New()
	caches.Attach(changes)
	sessions := session.NewMemoryStore()
	client := remote.NewClient(server.URL, remote.StaticToken("test-token"))

	return &fixture{
		fetchers: New(client, store, caches, sessions, "sess-1", changes),
		store:    store,
		caches:   caches,
		changes:  changes,
		sessions: sessions,
		calls:    calls,
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func TestFetchCategories_ConcurrentCallsShareOneRequest(t *testing.T) {
	fx := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		writeJSON(w, []catalog.Category{{ID: "cat-1", Name: "Phones"}})
	})

	start := make(chan struct{})
	results := make([][]catalog.Category, 2)
	errs := make([]error, 2)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			results[i], errs[i] = fx.fetchers.FetchCategories(context.Background())
		}()
	}
	close(start)
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.Equal(t, results[0], results[1])
	assert.Equal(t, int64(1), fx.calls.Load(), "concurrent callers must share one network call")
}

func TestFetchCategories_SecondCallServedFromCache(t *testing.T) {
	fx := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []catalog.Category{{ID: "cat-1", Name: "Phones"}})
	})

	first, err := fx.fetchers.FetchCategories(context.Background())
	require.NoError(t, err)

	second, err := fx.fetchers.FetchCategories(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), fx.calls.Load())
	assert.Equal(t, first, fx.store.Snapshot().Categories)
}

func TestFetchCategories_FailureSurfacesErrorAndReleasesGuard(t *testing.T) {
	var fail atomic.Bool
	fail.Store(true)

	fx := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusInternalServerError)
			writeJSON(w, map[string]string{"message": "upstream boom"})
			return
		}
		writeJSON(w, []catalog.Category{{ID: "cat-1", Name: "Phones"}})
	})

	_, err := fx.fetchers.FetchCategories(context.Background())
	require.Error(t, err)
	assert.Contains(t, fx.store.Snapshot().Error, "upstream boom")
	assert.False(t, fx.store.Snapshot().Loading)

	// Failures must not poison the cache or leave the guard held.
	fail.Store(false)
	categories, err := fx.fetchers.FetchCategories(context.Background())
	require.NoError(t, err)
	assert.Len(t, categories, 1)
	assert.Equal(t, int64(2), fx.calls.Load())
}

func TestSearch_CachedPerQueryCategoryPair(t *testing.T) {
	fx := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		name := r.URL.Query().Get("query")
		if cat := r.URL.Query().Get("category"); cat != "" {
			name = name + "@" + cat
		}
		writeJSON(w, catalog.SearchResults{
			Products: []catalog.Product{{ID: "p-" + name, Name: name}},
		})
	})

	broad, err := fx.fetchers.Search(context.Background(), "phone", "")
	require.NoError(t, err)
	narrow, err := fx.fetchers.Search(context.Background(), "phone", "cat-1")
	require.NoError(t, err)

	assert.NotEqual(t, broad, narrow)
	assert.Equal(t, int64(2), fx.calls.Load())

	// Each pair is its own cache entry.
	_, err = fx.fetchers.Search(context.Background(), "phone", "")
	require.NoError(t, err)
	_, err = fx.fetchers.Search(context.Background(), "phone", "cat-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), fx.calls.Load())

	// Dropping one pair leaves the other untouched.
	fx.caches.Search.Delete("phone-")
	refetched, err := fx.fetchers.Search(context.Background(), "phone", "")
	require.NoError(t, err)
	assert.Equal(t, broad, refetched)
	assert.Equal(t, int64(3), fx.calls.Load())

	cached, ok := fx.caches.Search.Get("phone-cat-1")
	require.True(t, ok)
	assert.Equal(t, narrow, cached)
}

func TestFetchCategoryProducts_StateMapIsTheCache(t *testing.T) {
	fx := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasPrefix(r.URL.Path, "/api/categories/"))
		writeJSON(w, categoryProductsResponse{
			CategoryInfo: catalog.CategoryInfo{ID: "cat-1", Name: "Phones", ProductCount: 1},
			Products:     []catalog.Product{{ID: "p-1", CategoryID: "cat-1", Name: "Handset"}},
		})
	})

	products, err := fx.fetchers.FetchCategoryProducts(context.Background(), "cat-1")
	require.NoError(t, err)
	require.Len(t, products, 1)

	snap := fx.store.Snapshot()
	assert.Equal(t, products, snap.CategoryProducts["cat-1"])
	assert.Equal(t, "Phones", snap.CategoryInfo.Name)

	again, err := fx.fetchers.FetchCategoryProducts(context.Background(), "cat-1")
	require.NoError(t, err)
	assert.Equal(t, products, again)
	assert.Equal(t, int64(1), fx.calls.Load())
}

func TestFetchCategoryProducts_HitRestoresMatchingCategoryInfo(t *testing.T) {
	fx := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/categories/"), "/products")
		writeJSON(w, categoryProductsResponse{
			CategoryInfo: catalog.CategoryInfo{ID: id, Name: "Category " + id},
			Products:     []catalog.Product{{ID: "p-" + id, CategoryID: id}},
		})
	})

	_, err := fx.fetchers.FetchCategoryProducts(context.Background(), "cat-1")
	require.NoError(t, err)
	_, err = fx.fetchers.FetchCategoryProducts(context.Background(), "cat-2")
	require.NoError(t, err)
	require.Equal(t, "cat-2", fx.store.Snapshot().CategoryInfo.ID)

	// Revisiting a cached category must pair its own header with its
	// products, not leave the last-fetched category's header behind.
	products, err := fx.fetchers.FetchCategoryProducts(context.Background(), "cat-1")
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, "p-cat-1", products[0].ID)
	assert.Equal(t, int64(2), fx.calls.Load())

	info := fx.store.Snapshot().CategoryInfo
	require.NotNil(t, info)
	assert.Equal(t, "cat-1", info.ID)
}

func TestFetchItemTypes_CachedAfterFirstCall(t *testing.T) {
	fx := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/item-types", r.URL.Path)
		writeJSON(w, []catalog.ItemType{{ID: "it-1", Name: "Electronics"}})
	})

	first, err := fx.fetchers.FetchItemTypes(context.Background())
	require.NoError(t, err)
	second, err := fx.fetchers.FetchItemTypes(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), fx.calls.Load())
	assert.Equal(t, first, fx.store.Snapshot().ItemTypes)
}

func TestFetchBrands_CachedAfterFirstCall(t *testing.T) {
	fx := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/brands", r.URL.Path)
		writeJSON(w, []catalog.Brand{{ID: "b-1", Name: "Acme"}})
	})

	first, err := fx.fetchers.FetchBrands(context.Background())
	require.NoError(t, err)
	second, err := fx.fetchers.FetchBrands(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int64(1), fx.calls.Load())
	assert.Equal(t, first, fx.store.Snapshot().Brands)
}

func TestFetchProductDetails_AlwaysFetchesFresh(t *testing.T) {
	var version atomic.Int64
	fx := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, productDetailsResponse{
			Product:  catalog.Product{ID: "p-1", Name: "Handset", Stock: int(version.Add(1))},
			Comments: []catalog.Comment{{ID: "c-1", ProductID: "p-1", Text: "good"}},
			Related:  []catalog.Product{{ID: "p-2"}},
		})
	})

	first, err := fx.fetchers.FetchProductDetails(context.Background(), "p-1")
	require.NoError(t, err)
	second, err := fx.fetchers.FetchProductDetails(context.Background(), "p-1")
	require.NoError(t, err)

	assert.Equal(t, int64(2), fx.calls.Load())
	assert.Equal(t, 1, first.Stock)
	assert.Equal(t, 2, second.Stock)

	snap := fx.store.Snapshot()
	require.NotNil(t, snap.CurrentProduct)
	assert.Equal(t, "p-1", snap.CurrentProduct.ID)
	assert.Len(t, snap.ProductComments, 1)
	assert.Len(t, snap.RelatedProducts, 1)
}

func TestFetchAdminReports_GathersAllCountersInParallel(t *testing.T) {
	fx := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/api/admin/reports/")
		writeJSON(w, map[string]int{"count": len(name)})
	})

	reports, err := fx.fetchers.FetchAdminReports(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(4), fx.calls.Load())
	assert.Equal(t, map[string]int{
		"users":    5,
		"products": 8,
		"orders":   6,
		"sales":    5,
	}, reports)

	// Cached afterwards.
	_, err = fx.fetchers.FetchAdminReports(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), fx.calls.Load())
}

func TestFetchCategories_RelativeImagesAbsolutized(t *testing.T) {
	fx := newFixture(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, []catalog.Category{
			{ID: "cat-1", Image: "/uploads/phones.png"},
			{ID: "cat-2", Image: "https://cdn.example.com/laptops.png"},
		})
	})

	categories, err := fx.fetchers.FetchCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 2)

	assert.True(t, strings.HasPrefix(categories[0].Image, "http://127.0.0.1"))
	assert.True(t, strings.HasSuffix(categories[0].Image, "/uploads/phones.png"))
	assert.Equal(t, "https://cdn.example.com/laptops.png", categories[1].Image)
}

func TestCaches_ProductChangeInvalidatesSearchAndPatchesSellerData(t *testing.T) {
	fx := newFixture(t, func(w http.ResponseWriter, r *http.Request) {})

	fx.caches.Search.Set("phone-", catalog.SearchResults{})
	fx.caches.SellerData.Set(singletonKey, catalog.SellerData{
		Products: []catalog.Product{
			{ID: "p-1", Name: "Handset", IsActive: true},
			{ID: "p-2", Name: "Charger", IsActive: true},
		},
	})

	updated := catalog.Product{ID: "p-1", Name: "Handset", IsActive: false}
	fx.changes.Publish(bus.Change{
		Resource: bus.ResourceProducts,
		Op:       bus.OpUpdate,
		ID:       "p-1",
		Data:     bus.MarshalEntity(updated),
	})

	_, ok := fx.caches.Search.Get("phone-")
	assert.False(t, ok, "search partition must be dropped on product change")

	seller, ok := fx.caches.SellerData.Get(singletonKey)
	require.True(t, ok)
	require.Len(t, seller.Products, 2)
	assert.False(t, seller.Products[0].IsActive)
	assert.True(t, seller.Products[1].IsActive, "unrelated products stay untouched")
}

func TestCaches_ProductDeleteRemovesFromSellerData(t *testing.T) {
	fx := newFixture(t, func(w http.ResponseWriter, r *http.Request) {})

	fx.caches.SellerData.Set(singletonKey, catalog.SellerData{
		Products: []catalog.Product{{ID: "p-1"}, {ID: "p-2"}},
	})

	fx.changes.Publish(bus.Change{
		Resource: bus.ResourceProducts,
		Op:       bus.OpDelete,
		ID:       "p-1",
	})

	seller, ok := fx.caches.SellerData.Get(singletonKey)
	require.True(t, ok)
	require.Len(t, seller.Products, 1)
	assert.Equal(t, "p-2", seller.Products[0].ID)
}
