package fetch

import (
	"sync"

	"github.com/example/storefront-gateway/internal/bus"
	"github.com/example/storefront-gateway/internal/catalog"
)

// singletonKey addresses partitions that cache a whole resource rather
// than per-parameter entries.
const singletonKey = ""

// Partition is one named cache table mapping a request key to the last
// successful response for that key. Entries live until invalidated by a
// bus change or until the process exits.
type Partition[T any] struct {
	mu      sync.RWMutex
	entries map[string]T
}

func newPartition[T any]() *Partition[T] {
	return &Partition[T]{entries: make(map[string]T)}
}

func (p *Partition[T]) Get(key string) (T, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	v, ok := p.entries[key]
	return v, ok
}

func (p *Partition[T]) Set(key string, v T) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[key] = v
}

func (p *Partition[T]) Delete(key string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.entries, key)
}

func (p *Partition[T]) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = make(map[string]T)
}

// Patch rewrites the cached value for key in place, reporting whether
// an entry existed.
func (p *Partition[T]) Patch(key string, fn func(T) T) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	current, ok := p.entries[key]
	if !ok {
		return false
	}
	p.entries[key] = fn(current)
	return true
}

// Caches owns every cache partition of one data-layer instance. It is
// constructed and injected by whoever builds the fetchers, never held
// in package-level state, so tests and independent sessions get
// isolated caches.
type Caches struct {
	Categories   *Partition[[]catalog.Category]
	CategoryInfo *Partition[catalog.CategoryInfo]
	ItemTypes    *Partition[[]catalog.ItemType]
	Brands       *Partition[[]catalog.Brand]
	UserProfile  *Partition[catalog.Profile]
	AdminUsers   *Partition[[]catalog.AdminUser]
	Reports      *Partition[map[string]int]
	SellerData   *Partition[catalog.SellerData]
	Search       *Partition[catalog.SearchResults]
}

func NewCaches() *Caches {
	return &Caches{
		Categories:   newPartition[[]catalog.Category](),
		CategoryInfo: newPartition[catalog.CategoryInfo](),
		ItemTypes:    newPartition[[]catalog.ItemType](),
		Brands:       newPartition[[]catalog.Brand](),
		UserProfile:  newPartition[catalog.Profile](),
		AdminUsers:   newPartition[[]catalog.AdminUser](),
		Reports:      newPartition[map[string]int](),
		SellerData:   newPartition[catalog.SellerData](),
		Search:       newPartition[catalog.SearchResults](),
	}
}

// Attach subscribes the partitions to resource changes so mutations
// keep long-lived caches consistent without naming them. Returns the
// combined unsubscribe function.
func (c *Caches) Attach(b *bus.Bus) func() {
	unsubs := []func(){
		b.Subscribe(bus.ResourceProducts, c.onProductChange),
		b.Subscribe(bus.ResourceOrders, c.onOrderChange),
		b.Subscribe(bus.ResourceCategories, func(bus.Change) {
			c.Categories.Clear()
			c.CategoryInfo.Clear()
		}),
		b.Subscribe(bus.ResourceUsers, func(bus.Change) { c.AdminUsers.Clear() }),
		b.Subscribe(bus.ResourceReports, func(bus.Change) { c.Reports.Clear() }),
	}
	return func() {
		for _, unsub := range unsubs {
			unsub()
		}
	}
}

func (c *Caches) onProductChange(ch bus.Change) {
	// Cached search results may reference the product under any number
	// of keys; dropping the partition is the only sound option.
	c.Search.Clear()

	switch ch.Op {
	case bus.OpCreate:
		var product catalog.Product
		if !ch.Entity(&product) {
			c.SellerData.Clear()
			return
		}
		c.SellerData.Patch(singletonKey, func(data catalog.SellerData) catalog.SellerData {
			data.Products = append(append([]catalog.Product{}, data.Products...), product)
			return data
		})
	case bus.OpUpdate:
		var product catalog.Product
		if !ch.Entity(&product) {
			c.SellerData.Clear()
			return
		}
		c.SellerData.Patch(singletonKey, func(data catalog.SellerData) catalog.SellerData {
			products := make([]catalog.Product, len(data.Products))
			for i, p := range data.Products {
				if p.ID == product.ID {
					products[i] = product
				} else {
					products[i] = p
				}
			}
			data.Products = products
			return data
		})
	case bus.OpDelete:
		c.SellerData.Patch(singletonKey, func(data catalog.SellerData) catalog.SellerData {
			products := make([]catalog.Product, 0, len(data.Products))
			for _, p := range data.Products {
				if p.ID != ch.ID {
					products = append(products, p)
				}
			}
			data.Products = products
			return data
		})
	default:
		c.SellerData.Clear()
	}
}

func (c *Caches) onOrderChange(ch bus.Change) {
	var order catalog.Order
	if ch.Op == bus.OpUpdate && ch.Entity(&order) {
		c.SellerData.Patch(singletonKey, func(data catalog.SellerData) catalog.SellerData {
			orders := make([]catalog.Order, len(data.Orders))
			for i, o := range data.Orders {
				if o.ID == order.ID {
					orders[i] = order
				} else {
					orders[i] = o
				}
			}
			data.Orders = orders
			return data
		})
		return
	}
	c.SellerData.Clear()
}
