// Package fetch implements the data-synchronization operations: every
// read goes through a cache partition and an in-flight guard before it
// reaches the network, and every result is dispatched into the state
// store so all observers see the same data.
package fetch

import (
	"context"
	"log"
	"net/url"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/example/storefront-gateway/internal/bus"
	"github.com/example/storefront-gateway/internal/catalog"
	"github.com/example/storefront-gateway/internal/remote"
	"github.com/example/storefront-gateway/internal/session"
	"github.com/example/storefront-gateway/internal/state"
)

// reportNames are the admin report endpoints, each returning {count}.
var reportNames = []string{"users", "products", "orders", "sales"}

// Fetchers is the data layer for one UI session: a remote client bound
// to that session's token, the session's state store, and the injected
// cache partitions.
type Fetchers struct {
	client    *remote.Client
	store     *state.Store
	caches    *Caches
	sessions  session.Store
	sessionID string
	changes   *bus.Bus
	flight    singleflight.Group
}

func New(client *remote.Client, store *state.Store, caches *Caches, sessions session.Store, sessionID string, changes *bus.Bus) *Fetchers {
	return &Fetchers{
		client:    client,
		store:     store,
		caches:    caches,
		sessions:  sessions,
		sessionID: sessionID,
		changes:   changes,
	}
}

// doShared funnels concurrent callers of the same key through one
// network call. Waiters receive the executing call's result or error.
func doShared[T any](flight *singleflight.Group, key string, fn func() (T, error)) (T, error) {
	v, err, _ := flight.Do(key, func() (any, error) {
		return fn()
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// fail records a fetch failure: logged for diagnostics, surfaced in
// state.Error, and returned so callers can react contextually.
func (f *Fetchers) fail(op string, err error) error {
	log.Printf("[Fetch] %s: %v", op, err)
	f.store.Dispatch(state.Action{Type: state.ActionSetError, Payload: err.Error()})
	return err
}

func (f *Fetchers) setLoading(loading bool) {
	f.store.Dispatch(state.Action{Type: state.ActionSetLoading, Payload: loading})
}

// FetchCategories returns the category list, hitting the network at
// most once per process lifetime unless the partition is invalidated.
func (f *Fetchers) FetchCategories(ctx context.Context) ([]catalog.Category, error) {
	if cached, ok := f.caches.Categories.Get(singletonKey); ok {
		f.store.Dispatch(state.Action{Type: state.ActionSetCategories, Payload: cached})
		return cached, nil
	}

	f.setLoading(true)
	defer f.setLoading(false)

	categories, err := doShared(&f.flight, "categories", func() ([]catalog.Category, error) {
		var categories []catalog.Category
		if err := f.client.GetJSON(ctx, "/api/categories", nil, &categories); err != nil {
			return nil, err
		}
		f.absolutizeCategories(categories)
		f.caches.Categories.Set(singletonKey, categories)
		return categories, nil
	})
	if err != nil {
		return nil, f.fail("categories", err)
	}

	f.store.Dispatch(state.Action{Type: state.ActionSetCategories, Payload: categories})
	return categories, nil
}

// FetchItemTypes loads the item type reference list.
func (f *Fetchers) FetchItemTypes(ctx context.Context) ([]catalog.ItemType, error) {
	if cached, ok := f.caches.ItemTypes.Get(singletonKey); ok {
		f.store.Dispatch(state.Action{Type: state.ActionSetItemTypes, Payload: cached})
		return cached, nil
	}

	itemTypes, err := doShared(&f.flight, "item-types", func() ([]catalog.ItemType, error) {
		var itemTypes []catalog.ItemType
		if err := f.client.GetJSON(ctx, "/api/item-types", nil, &itemTypes); err != nil {
			return nil, err
		}
		f.caches.ItemTypes.Set(singletonKey, itemTypes)
		return itemTypes, nil
	})
	if err != nil {
		return nil, f.fail("item types", err)
	}

	f.store.Dispatch(state.Action{Type: state.ActionSetItemTypes, Payload: itemTypes})
	return itemTypes, nil
}

// FetchBrands loads the brand reference list.
func (f *Fetchers) FetchBrands(ctx context.Context) ([]catalog.Brand, error) {
	if cached, ok := f.caches.Brands.Get(singletonKey); ok {
		f.store.Dispatch(state.Action{Type: state.ActionSetBrands, Payload: cached})
		return cached, nil
	}

	brands, err := doShared(&f.flight, "brands", func() ([]catalog.Brand, error) {
		var brands []catalog.Brand
		if err := f.client.GetJSON(ctx, "/api/brands", nil, &brands); err != nil {
			return nil, err
		}
		f.caches.Brands.Set(singletonKey, brands)
		return brands, nil
	})
	if err != nil {
		return nil, f.fail("brands", err)
	}

	f.store.Dispatch(state.Action{Type: state.ActionSetBrands, Payload: brands})
	return brands, nil
}

// FetchUserProfile loads the authenticated user's profile.
func (f *Fetchers) FetchUserProfile(ctx context.Context) (catalog.Profile, error) {
	if cached, ok := f.caches.UserProfile.Get(singletonKey); ok {
		f.store.Dispatch(state.Action{Type: state.ActionLoginSuccess, Payload: cached})
		return cached, nil
	}

	profile, err := doShared(&f.flight, "user-profile", func() (catalog.Profile, error) {
		var profile catalog.Profile
		if err := f.client.GetJSON(ctx, "/api/users/profile", nil, &profile); err != nil {
			return catalog.Profile{}, err
		}
		profile.Avatar = f.absoluteURL(profile.Avatar)
		f.caches.UserProfile.Set(singletonKey, profile)
		return profile, nil
	})
	if err != nil {
		return catalog.Profile{}, f.fail("user profile", err)
	}

	f.store.Dispatch(state.Action{Type: state.ActionLoginSuccess, Payload: profile})
	return profile, nil
}

// FetchSellerData loads the seller dashboard: the seller's products and
// the orders containing them.
func (f *Fetchers) FetchSellerData(ctx context.Context) (catalog.SellerData, error) {
	if cached, ok := f.caches.SellerData.Get(singletonKey); ok {
		f.dispatchSellerData(cached)
		return cached, nil
	}

	f.setLoading(true)
	defer f.setLoading(false)

	data, err := doShared(&f.flight, "seller-data", func() (catalog.SellerData, error) {
		var data catalog.SellerData
		if err := f.client.GetJSON(ctx, "/api/seller/dashboard", nil, &data); err != nil {
			return catalog.SellerData{}, err
		}
		for i := range data.Products {
			f.absolutizeProduct(&data.Products[i])
		}
		f.caches.SellerData.Set(singletonKey, data)
		return data, nil
	})
	if err != nil {
		return catalog.SellerData{}, f.fail("seller data", err)
	}

	f.dispatchSellerData(data)
	return data, nil
}

func (f *Fetchers) dispatchSellerData(data catalog.SellerData) {
	f.store.Dispatch(state.Action{Type: state.ActionSetProducts, Payload: data.Products})
	f.store.Dispatch(state.Action{Type: state.ActionSetOrders, Payload: data.Orders})
}

// FetchAdminUsers loads the admin user list.
func (f *Fetchers) FetchAdminUsers(ctx context.Context) ([]catalog.AdminUser, error) {
	if cached, ok := f.caches.AdminUsers.Get(singletonKey); ok {
		return cached, nil
	}

	users, err := doShared(&f.flight, "admin-users", func() ([]catalog.AdminUser, error) {
		var users []catalog.AdminUser
		if err := f.client.GetJSON(ctx, "/api/admin/users", nil, &users); err != nil {
			return nil, err
		}
		f.caches.AdminUsers.Set(singletonKey, users)
		return users, nil
	})
	if err != nil {
		return nil, f.fail("admin users", err)
	}
	return users, nil
}

// FetchAdminReports gathers the admin report counters, one upstream
// call per report name, in parallel.
func (f *Fetchers) FetchAdminReports(ctx context.Context) (map[string]int, error) {
	if cached, ok := f.caches.Reports.Get(singletonKey); ok {
		return cached, nil
	}

	reports, err := doShared(&f.flight, "admin-reports", func() (map[string]int, error) {
		var mu sync.Mutex
		reports := make(map[string]int, len(reportNames))

		g, gctx := errgroup.WithContext(ctx)
		for _, name := range reportNames {
			name := name
			g.Go(func() error {
				var resp struct {
					Count int `json:"count"`
				}
				if err := f.client.GetJSON(gctx, "/api/admin/reports/"+name, nil, &resp); err != nil {
					return err
				}
				mu.Lock()
				reports[name] = resp.Count
				mu.Unlock()
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
		f.caches.Reports.Set(singletonKey, reports)
		return reports, nil
	})
	if err != nil {
		return nil, f.fail("admin reports", err)
	}
	return reports, nil
}

// Search queries products and categories. Results are cached per
// query+category pair, so refetching one pair never disturbs another.
func (f *Fetchers) Search(ctx context.Context, query, categoryID string) (catalog.SearchResults, error) {
	key := query + "-" + categoryID
	if cached, ok := f.caches.Search.Get(key); ok {
		f.store.Dispatch(state.Action{Type: state.ActionSetSearchResults, Payload: cached})
		return cached, nil
	}

	f.setLoading(true)
	defer f.setLoading(false)

	results, err := doShared(&f.flight, "search:"+key, func() (catalog.SearchResults, error) {
		params := url.Values{"query": {query}}
		if categoryID != "" {
			params.Set("category", categoryID)
		}
		var results catalog.SearchResults
		if err := f.client.GetJSON(ctx, "/api/search", params, &results); err != nil {
			return catalog.SearchResults{}, err
		}
		f.absolutizeCategories(results.Categories)
		for i := range results.Products {
			f.absolutizeProduct(&results.Products[i])
		}
		f.caches.Search.Set(key, results)
		return results, nil
	})
	if err != nil {
		return catalog.SearchResults{}, f.fail("search", err)
	}

	f.store.Dispatch(state.Action{Type: state.ActionSetSearchResults, Payload: results})
	return results, nil
}

// categoryProductsResponse is the upstream shape for a category page.
type categoryProductsResponse struct {
	CategoryInfo catalog.CategoryInfo `json:"category_info"`
	Products     []catalog.Product    `json:"products"`
}

// FetchCategoryProducts loads one category's product list. The
// CategoryProducts map inside AppState is itself the cache partition
// for the product lists; the category header is cached per id so a hit
// restores the matching CategoryInfo alongside the products.
func (f *Fetchers) FetchCategoryProducts(ctx context.Context, categoryID string) ([]catalog.Product, error) {
	if cached, ok := f.store.Snapshot().CategoryProducts[categoryID]; ok {
		if info, ok := f.caches.CategoryInfo.Get(categoryID); ok {
			f.store.Dispatch(state.Action{Type: state.ActionSetCategoryInfo, Payload: info})
		}
		return cached, nil
	}

	f.setLoading(true)
	defer f.setLoading(false)

	products, err := doShared(&f.flight, "category-products:"+categoryID, func() ([]catalog.Product, error) {
		var resp categoryProductsResponse
		if err := f.client.GetJSON(ctx, "/api/categories/"+categoryID+"/products", nil, &resp); err != nil {
			return nil, err
		}
		for i := range resp.Products {
			f.absolutizeProduct(&resp.Products[i])
		}
		resp.CategoryInfo.Image = f.absoluteURL(resp.CategoryInfo.Image)
		f.caches.CategoryInfo.Set(categoryID, resp.CategoryInfo)

		f.store.Dispatch(state.Action{Type: state.ActionSetCategoryInfo, Payload: resp.CategoryInfo})
		f.store.Dispatch(state.Action{
			Type: state.ActionSetCategoryProducts,
			Payload: state.CategoryProductsPayload{
				CategoryID: categoryID,
				Products:   resp.Products,
			},
		})
		return resp.Products, nil
	})
	if err != nil {
		return nil, f.fail("category products", err)
	}
	return products, nil
}

// productDetailsResponse is the upstream shape for a product page.
type productDetailsResponse struct {
	Product  catalog.Product   `json:"product"`
	Comments []catalog.Comment `json:"comments"`
	Related  []catalog.Product `json:"related"`
}

// FetchProductDetails loads a product with its comments and related
// products. Details are always fetched fresh; only the in-flight guard
// applies.
func (f *Fetchers) FetchProductDetails(ctx context.Context, productID string) (catalog.Product, error) {
	f.setLoading(true)
	defer f.setLoading(false)

	product, err := doShared(&f.flight, "product:"+productID, func() (catalog.Product, error) {
		var resp productDetailsResponse
		if err := f.client.GetJSON(ctx, "/api/products/"+productID, nil, &resp); err != nil {
			return catalog.Product{}, err
		}
		f.absolutizeProduct(&resp.Product)
		for i := range resp.Comments {
			resp.Comments[i].AuthorImage = f.absoluteURL(resp.Comments[i].AuthorImage)
		}
		for i := range resp.Related {
			f.absolutizeProduct(&resp.Related[i])
		}

		f.store.Dispatch(state.Action{Type: state.ActionSetCurrentProduct, Payload: resp.Product})
		f.store.Dispatch(state.Action{Type: state.ActionSetProductComments, Payload: resp.Comments})
		f.store.Dispatch(state.Action{Type: state.ActionSetRelatedProducts, Payload: resp.Related})
		return resp.Product, nil
	})
	if err != nil {
		return catalog.Product{}, f.fail("product details", err)
	}
	return product, nil
}
