package state

import "github.com/example/storefront-gateway/internal/catalog"

// CategoryProductsPayload merges one category's product list into the
// CategoryProducts map without touching other keys.
type CategoryProductsPayload struct {
	CategoryID string
	Products   []catalog.Product
}

// CommentReactionPayload patches a comment's reaction counters.
type CommentReactionPayload struct {
	CommentID    string
	LikeCount    int
	DislikeCount int
	IsLiked      bool
}

// CartQuantityPayload sets the quantity of an existing cart line.
type CartQuantityPayload struct {
	ProductID string
	Quantity  int
}

// OrderStatusPayload patches one order's status.
type OrderStatusPayload struct {
	OrderID string
	Status  string
}

// reduce computes the next state from the previous one and an action.
// It is a pure function: it never mutates prev and never fails. Unknown
// tags and mistyped payloads return prev unchanged.
func reduce(prev AppState, a Action) AppState {
	next := prev

	switch a.Type {
	case ActionLoginStart:
		next.Loading = true
		next.Error = ""

	case ActionLoginSuccess:
		profile, ok := a.Payload.(catalog.Profile)
		if !ok {
			return prev
		}
		next.User = &profile
		next.IsAuthenticated = true
		next.Loading = false
		next.Error = ""

	case ActionLoginFailure:
		msg, ok := a.Payload.(string)
		if !ok {
			return prev
		}
		next.Error = msg
		next.Loading = false

	case ActionLogout:
		next.User = nil
		next.IsAuthenticated = false
		next.Cart = []catalog.CartLine{}

	case ActionAuthCheckComplete:
		next.AuthCheckComplete = true
		next.Loading = false

	case ActionSetLoading:
		loading, ok := a.Payload.(bool)
		if !ok {
			return prev
		}
		next.Loading = loading

	case ActionSetError:
		msg, ok := a.Payload.(string)
		if !ok {
			return prev
		}
		next.Error = msg
		next.Loading = false

	case ActionAddToCart:
		line, ok := a.Payload.(catalog.CartLine)
		if !ok {
			return prev
		}
		next.Cart = upsertCartLine(prev.Cart, line)

	case ActionRemoveFromCart:
		productID, ok := a.Payload.(string)
		if !ok {
			return prev
		}
		next.Cart = removeCartLine(prev.Cart, productID)

	case ActionSetCartQuantity:
		payload, ok := a.Payload.(CartQuantityPayload)
		if !ok || payload.Quantity < 1 {
			return prev
		}
		cart := make([]catalog.CartLine, len(prev.Cart))
		copy(cart, prev.Cart)
		for i, line := range cart {
			if line.ProductID == payload.ProductID {
				line.Quantity = payload.Quantity
				cart[i] = line
			}
		}
		next.Cart = cart

	case ActionClearCart:
		next.Cart = []catalog.CartLine{}

	case ActionSetProducts:
		products, ok := a.Payload.([]catalog.Product)
		if !ok {
			return prev
		}
		next.Products = products

	case ActionAddProduct:
		product, ok := a.Payload.(catalog.Product)
		if !ok {
			return prev
		}
		products := make([]catalog.Product, 0, len(prev.Products)+1)
		products = append(products, prev.Products...)
		next.Products = append(products, product)

	case ActionUpdateProduct:
		product, ok := a.Payload.(catalog.Product)
		if !ok {
			return prev
		}
		products := make([]catalog.Product, len(prev.Products))
		for i, p := range prev.Products {
			if p.ID == product.ID {
				products[i] = product
			} else {
				products[i] = p
			}
		}
		next.Products = products
		if prev.CurrentProduct != nil && prev.CurrentProduct.ID == product.ID {
			next.CurrentProduct = &product
		}

	case ActionDeleteProduct:
		productID, ok := a.Payload.(string)
		if !ok {
			return prev
		}
		products := make([]catalog.Product, 0, len(prev.Products))
		for _, p := range prev.Products {
			if p.ID != productID {
				products = append(products, p)
			}
		}
		next.Products = products

	case ActionSetCategories:
		categories, ok := a.Payload.([]catalog.Category)
		if !ok {
			return prev
		}
		next.Categories = categories

	case ActionSetItemTypes:
		itemTypes, ok := a.Payload.([]catalog.ItemType)
		if !ok {
			return prev
		}
		next.ItemTypes = itemTypes

	case ActionSetBrands:
		brands, ok := a.Payload.([]catalog.Brand)
		if !ok {
			return prev
		}
		next.Brands = brands

	case ActionSetOrders:
		orders, ok := a.Payload.([]catalog.Order)
		if !ok {
			return prev
		}
		next.Orders = orders

	case ActionUpdateOrder:
		payload, ok := a.Payload.(OrderStatusPayload)
		if !ok {
			return prev
		}
		orders := make([]catalog.Order, len(prev.Orders))
		for i, o := range prev.Orders {
			if o.ID == payload.OrderID {
				o.Status = payload.Status
			}
			orders[i] = o
		}
		next.Orders = orders

	case ActionSetCategoryProducts:
		payload, ok := a.Payload.(CategoryProductsPayload)
		if !ok {
			return prev
		}
		merged := make(map[string][]catalog.Product, len(prev.CategoryProducts)+1)
		for k, v := range prev.CategoryProducts {
			merged[k] = v
		}
		merged[payload.CategoryID] = payload.Products
		next.CategoryProducts = merged

	case ActionSetCurrentProduct:
		product, ok := a.Payload.(catalog.Product)
		if !ok {
			return prev
		}
		next.CurrentProduct = &product

	case ActionSetProductComments:
		comments, ok := a.Payload.([]catalog.Comment)
		if !ok {
			return prev
		}
		next.ProductComments = comments

	case ActionAddComment:
		comment, ok := a.Payload.(catalog.Comment)
		if !ok {
			return prev
		}
		comments := make([]catalog.Comment, 0, len(prev.ProductComments)+1)
		comments = append(comments, prev.ProductComments...)
		next.ProductComments = append(comments, comment)

	case ActionUpdateComment:
		payload, ok := a.Payload.(CommentReactionPayload)
		if !ok {
			return prev
		}
		comments := make([]catalog.Comment, len(prev.ProductComments))
		for i, c := range prev.ProductComments {
			if c.ID == payload.CommentID {
				c.LikeCount = payload.LikeCount
				c.DislikeCount = payload.DislikeCount
				c.IsLiked = payload.IsLiked
			}
			comments[i] = c
		}
		next.ProductComments = comments

	case ActionSetRelatedProducts:
		products, ok := a.Payload.([]catalog.Product)
		if !ok {
			return prev
		}
		next.RelatedProducts = products

	case ActionSetSearchResults:
		results, ok := a.Payload.(catalog.SearchResults)
		if !ok {
			return prev
		}
		next.SearchResults = results

	case ActionSetCategoryInfo:
		info, ok := a.Payload.(catalog.CategoryInfo)
		if !ok {
			return prev
		}
		next.CategoryInfo = &info

	case ActionSetCategoriesPage:
		page, ok := a.Payload.(int)
		if !ok {
			return prev
		}
		next.CategoriesPage = page
	}

	return next
}

// upsertCartLine merges a line into the cart. A line whose product id is
// already present replaces that entry's quantity; the cart never grows a
// duplicate line for the same product.
func upsertCartLine(cart []catalog.CartLine, line catalog.CartLine) []catalog.CartLine {
	next := make([]catalog.CartLine, len(cart))
	copy(next, cart)
	for i, existing := range next {
		if existing.ProductID == line.ProductID {
			existing.Quantity = line.Quantity
			next[i] = existing
			return next
		}
	}
	return append(next, line)
}

// removeCartLine filters out the line for productID. Removing an absent
// product is a no-op.
func removeCartLine(cart []catalog.CartLine, productID string) []catalog.CartLine {
	next := make([]catalog.CartLine, 0, len(cart))
	for _, line := range cart {
		if line.ProductID != productID {
			next = append(next, line)
		}
	}
	return next
}
