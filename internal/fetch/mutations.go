package fetch

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/example/storefront-gateway/internal/bus"
	"github.com/example/storefront-gateway/internal/catalog"
	"github.com/example/storefront-gateway/internal/remote"
	"github.com/example/storefront-gateway/internal/session"
	"github.com/example/storefront-gateway/internal/state"
)

// loginResponse is the upstream authentication payload.
type loginResponse struct {
	Token    string          `json:"token"`
	UserType string          `json:"userType"`
	UserData catalog.Profile `json:"userData"`
}

// Login authenticates against the upstream API, persists the returned
// session, and publishes the profile into the state store.
func (f *Fetchers) Login(ctx context.Context, email, password string) (catalog.Profile, error) {
	f.store.Dispatch(state.Action{Type: state.ActionLoginStart})

	var resp loginResponse
	err := f.client.PostJSON(ctx, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		f.store.Dispatch(state.Action{Type: state.ActionLoginFailure, Payload: err.Error()})
		return catalog.Profile{}, err
	}

	return f.establishSession(ctx, resp)
}

// Register creates an upstream account and logs the new user in.
func (f *Fetchers) Register(ctx context.Context, email, password, name, role string) (catalog.Profile, error) {
	f.store.Dispatch(state.Action{Type: state.ActionLoginStart})

	var resp loginResponse
	err := f.client.PostJSON(ctx, "/api/auth/register", map[string]string{
		"email":    email,
		"password": password,
		"name":     name,
		"role":     role,
	}, &resp)
	if err != nil {
		f.store.Dispatch(state.Action{Type: state.ActionLoginFailure, Payload: err.Error()})
		return catalog.Profile{}, err
	}

	return f.establishSession(ctx, resp)
}

func (f *Fetchers) establishSession(ctx context.Context, resp loginResponse) (catalog.Profile, error) {
	profile := resp.UserData
	if profile.Role == "" {
		profile.Role = resp.UserType
	}
	profile.Avatar = f.absoluteURL(profile.Avatar)

	sess := &session.Session{
		ID:        f.sessionID,
		Token:     resp.Token,
		UserID:    profile.ID,
		Role:      profile.Role,
		CreatedAt: time.Now(),
	}
	if err := f.sessions.Save(ctx, sess); err != nil {
		err = fmt.Errorf("persist session: %w", err)
		f.store.Dispatch(state.Action{Type: state.ActionLoginFailure, Payload: err.Error()})
		return catalog.Profile{}, err
	}

	f.caches.UserProfile.Set(singletonKey, profile)
	f.store.Dispatch(state.Action{Type: state.ActionLoginSuccess, Payload: profile})
	return profile, nil
}

// Logout drops the persisted session, the per-user caches, and the
// authenticated state.
func (f *Fetchers) Logout(ctx context.Context) error {
	if err := f.sessions.Delete(ctx, f.sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	f.caches.UserProfile.Clear()
	f.caches.SellerData.Clear()
	f.store.Dispatch(state.Action{Type: state.ActionLogout})
	return nil
}

// AddToCart resolves the product and merges a cart line for it. The
// line for an already-carted product keeps its id; only the quantity
// changes.
func (f *Fetchers) AddToCart(ctx context.Context, productID string, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("quantity must be at least 1, got %d", quantity)
	}

	product, ok := f.productFromState(productID)
	if !ok {
		fetched, err := f.FetchProductDetails(ctx, productID)
		if err != nil {
			return err
		}
		product = fetched
	}

	image := ""
	if len(product.Images) > 0 {
		image = product.Images[0]
	}
	f.store.Dispatch(state.Action{Type: state.ActionAddToCart, Payload: catalog.CartLine{
		ID:        uuid.New().String(),
		ProductID: product.ID,
		Name:      product.Name,
		Image:     image,
		Price:     product.Price,
		Discount:  product.Discount,
		Quantity:  quantity,
	}})
	return nil
}

// RemoveFromCart drops the line for productID; absent ids are a no-op.
func (f *Fetchers) RemoveFromCart(productID string) {
	f.store.Dispatch(state.Action{Type: state.ActionRemoveFromCart, Payload: productID})
}

// ClearCart empties the cart in one dispatch.
func (f *Fetchers) ClearCart() {
	f.store.Dispatch(state.Action{Type: state.ActionClearCart})
}

// SetCartQuantity changes the quantity of an existing cart line. Absent
// product ids are a no-op; the line's id never changes.
func (f *Fetchers) SetCartQuantity(productID string, quantity int) error {
	if quantity < 1 {
		return fmt.Errorf("quantity must be at least 1, got %d", quantity)
	}
	f.store.Dispatch(state.Action{Type: state.ActionSetCartQuantity, Payload: state.CartQuantityPayload{
		ProductID: productID,
		Quantity:  quantity,
	}})
	return nil
}

func (f *Fetchers) productFromState(productID string) (catalog.Product, bool) {
	snapshot := f.store.Snapshot()
	if snapshot.CurrentProduct != nil && snapshot.CurrentProduct.ID == productID {
		return *snapshot.CurrentProduct, true
	}
	for _, p := range snapshot.Products {
		if p.ID == productID {
			return p, true
		}
	}
	for _, products := range snapshot.CategoryProducts {
		for _, p := range products {
			if p.ID == productID {
				return p, true
			}
		}
	}
	return catalog.Product{}, false
}

// AddComment posts a review and appends the server-confirmed comment.
func (f *Fetchers) AddComment(ctx context.Context, productID, text string, rating float64) (catalog.Comment, error) {
	var comment catalog.Comment
	err := f.client.PostJSON(ctx, "/api/products/"+productID+"/comments", map[string]any{
		"text":   text,
		"rating": rating,
	}, &comment)
	if err != nil {
		return catalog.Comment{}, f.fail("add comment", err)
	}

	comment.AuthorImage = f.absoluteURL(comment.AuthorImage)
	f.store.Dispatch(state.Action{Type: state.ActionAddComment, Payload: comment})
	return comment, nil
}

// reactionResponse carries the new counters for a comment reaction.
type reactionResponse struct {
	LikeCount    int  `json:"likeCount"`
	DislikeCount int  `json:"dislikeCount"`
	IsLiked      bool `json:"isLiked"`
}

// ReactToComment records a like/dislike and patches the counters.
func (f *Fetchers) ReactToComment(ctx context.Context, commentID, reaction string) error {
	var resp reactionResponse
	err := f.client.PostJSON(ctx, "/api/comments/"+commentID+"/reactions", map[string]string{
		"type": reaction,
	}, &resp)
	if err != nil {
		return f.fail("react to comment", err)
	}

	f.store.Dispatch(state.Action{Type: state.ActionUpdateComment, Payload: state.CommentReactionPayload{
		CommentID:    commentID,
		LikeCount:    resp.LikeCount,
		DislikeCount: resp.DislikeCount,
		IsLiked:      resp.IsLiked,
	}})
	return nil
}

// UpdateOrderStatus changes one order's status upstream, then updates
// state and publishes the change so cached order lists stay current.
func (f *Fetchers) UpdateOrderStatus(ctx context.Context, orderID, status string) error {
	var order catalog.Order
	err := f.client.PatchJSON(ctx, "/api/orders/"+orderID+"/status", map[string]string{
		"status": status,
	}, &order)
	if err != nil {
		return f.fail("update order status", err)
	}

	f.store.Dispatch(state.Action{Type: state.ActionUpdateOrder, Payload: state.OrderStatusPayload{
		OrderID: orderID,
		Status:  order.Status,
	}})
	f.changes.Publish(bus.Change{
		Resource: bus.ResourceOrders,
		Op:       bus.OpUpdate,
		ID:       orderID,
		Data:     bus.MarshalEntity(order),
	})
	return nil
}

// ToggleProductStatus activates or deactivates a product. Only the
// targeted product changes in state; all others are untouched.
func (f *Fetchers) ToggleProductStatus(ctx context.Context, productID string, active bool) error {
	var product catalog.Product
	err := f.client.PatchJSON(ctx, "/api/products/"+productID+"/status", map[string]bool{
		"is_active": active,
	}, &product)
	if err != nil {
		return f.fail("toggle product status", err)
	}

	f.absolutizeProduct(&product)
	f.publishProductUpdate(product)
	return nil
}

// UpdateProduct replaces a product with the server-confirmed version.
func (f *Fetchers) UpdateProduct(ctx context.Context, product catalog.Product) (catalog.Product, error) {
	var updated catalog.Product
	if err := f.client.PutJSON(ctx, "/api/products/"+product.ID, product, &updated); err != nil {
		return catalog.Product{}, f.fail("update product", err)
	}

	f.absolutizeProduct(&updated)
	f.publishProductUpdate(updated)
	return updated, nil
}

func (f *Fetchers) publishProductUpdate(product catalog.Product) {
	f.store.Dispatch(state.Action{Type: state.ActionUpdateProduct, Payload: product})
	f.changes.Publish(bus.Change{
		Resource: bus.ResourceProducts,
		Op:       bus.OpUpdate,
		ID:       product.ID,
		Data:     bus.MarshalEntity(product),
	})
}

// DeleteProduct removes a product upstream and everywhere it is held
// locally.
func (f *Fetchers) DeleteProduct(ctx context.Context, productID string) error {
	if err := f.client.Delete(ctx, "/api/products/"+productID, nil); err != nil {
		return f.fail("delete product", err)
	}

	f.store.Dispatch(state.Action{Type: state.ActionDeleteProduct, Payload: productID})
	f.changes.Publish(bus.Change{
		Resource: bus.ResourceProducts,
		Op:       bus.OpDelete,
		ID:       productID,
	})
	return nil
}

// NewProductForm is the multipart payload for product creation.
type NewProductForm struct {
	Name        string
	Description string
	Brand       string
	CategoryID  string
	Price       float64
	Discount    float64
	Stock       int
	Images      []remote.File
}

// CreateProduct uploads a new product with its images.
func (f *Fetchers) CreateProduct(ctx context.Context, form NewProductForm) (catalog.Product, error) {
	fields := map[string]string{
		"name":        form.Name,
		"description": form.Description,
		"brand":       form.Brand,
		"category_id": form.CategoryID,
		"price":       fmt.Sprintf("%g", form.Price),
		"discount":    fmt.Sprintf("%g", form.Discount),
		"stock":       fmt.Sprintf("%d", form.Stock),
	}

	var product catalog.Product
	if err := f.client.PostMultipart(ctx, "/api/products", fields, form.Images, &product); err != nil {
		return catalog.Product{}, f.fail("create product", err)
	}

	f.absolutizeProduct(&product)
	f.store.Dispatch(state.Action{Type: state.ActionAddProduct, Payload: product})
	f.changes.Publish(bus.Change{
		Resource: bus.ResourceProducts,
		Op:       bus.OpCreate,
		ID:       product.ID,
		Data:     bus.MarshalEntity(product),
	})
	log.Printf("[Fetch] Created product %s", product.ID)
	return product, nil
}
