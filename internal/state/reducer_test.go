package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/storefront-gateway/internal/catalog"
)

func TestReduce_UnknownActionLeavesStateUnchanged(t *testing.T) {
	prev := initialState()
	prev.Error = "preserved"

	next := reduce(prev, Action{Type: "NoSuchAction", Payload: 42})

	assert.Equal(t, prev, next)
}

func TestReduce_MistypedPayloadIsNoOp(t *testing.T) {
	prev := initialState()

	next := reduce(prev, Action{Type: ActionAddToCart, Payload: "not a cart line"})

	assert.Equal(t, prev, next)
}

func TestReduce_LoginLifecycle(t *testing.T) {
	s := reduce(initialState(), Action{Type: ActionLoginStart})
	assert.True(t, s.Loading)
	assert.Empty(t, s.Error)

	profile := catalog.Profile{ID: "u1", Email: "a@b.c", Role: "seller"}
	s = reduce(s, Action{Type: ActionLoginSuccess, Payload: profile})
	require.NotNil(t, s.User)
	assert.Equal(t, "seller", s.User.Role)
	assert.True(t, s.IsAuthenticated)
	assert.False(t, s.Loading)

	s = reduce(s, Action{Type: ActionLoginFailure, Payload: "bad credentials"})
	assert.Equal(t, "bad credentials", s.Error)
	assert.False(t, s.Loading)
}

func TestReduce_LogoutClearsUserAndCart(t *testing.T) {
	s := initialState()
	s.User = &catalog.Profile{ID: "u1"}
	s.IsAuthenticated = true
	s.Cart = []catalog.CartLine{{ID: "l1", ProductID: "p1", Quantity: 2}}

	s = reduce(s, Action{Type: ActionLogout})

	assert.Nil(t, s.User)
	assert.False(t, s.IsAuthenticated)
	assert.Empty(t, s.Cart)
}

func TestReduce_AddToCart_MergesExistingProduct(t *testing.T) {
	s := initialState()
	s = reduce(s, Action{Type: ActionAddToCart, Payload: catalog.CartLine{
		ID: "l1", ProductID: "a", Quantity: 1,
	}})
	require.Len(t, s.Cart, 1)

	s = reduce(s, Action{Type: ActionAddToCart, Payload: catalog.CartLine{
		ID: "l2", ProductID: "a", Quantity: 3,
	}})

	require.Len(t, s.Cart, 1, "adding an existing product must not grow the cart")
	assert.Equal(t, 3, s.Cart[0].Quantity)
	assert.Equal(t, "l1", s.Cart[0].ID, "existing line keeps its id")
}

func TestReduce_AddToCart_AppendsNewProduct(t *testing.T) {
	s := initialState()
	s = reduce(s, Action{Type: ActionAddToCart, Payload: catalog.CartLine{ID: "l1", ProductID: "a", Quantity: 1}})
	s = reduce(s, Action{Type: ActionAddToCart, Payload: catalog.CartLine{ID: "l2", ProductID: "b", Quantity: 2}})

	require.Len(t, s.Cart, 2)
	assert.Equal(t, "a", s.Cart[0].ProductID)
	assert.Equal(t, "b", s.Cart[1].ProductID)
}

func TestReduce_RemoveFromCart_AbsentIDIsNoOp(t *testing.T) {
	s := initialState()
	s = reduce(s, Action{Type: ActionAddToCart, Payload: catalog.CartLine{ID: "l1", ProductID: "a", Quantity: 1}})
	before := s.Cart

	s = reduce(s, Action{Type: ActionRemoveFromCart, Payload: "zzz"})

	assert.Equal(t, before, s.Cart)
}

func TestReduce_RemoveFromCart_DropsMatchingLine(t *testing.T) {
	s := initialState()
	s = reduce(s, Action{Type: ActionAddToCart, Payload: catalog.CartLine{ID: "l1", ProductID: "a", Quantity: 1}})
	s = reduce(s, Action{Type: ActionAddToCart, Payload: catalog.CartLine{ID: "l2", ProductID: "b", Quantity: 1}})

	s = reduce(s, Action{Type: ActionRemoveFromCart, Payload: "a"})

	require.Len(t, s.Cart, 1)
	assert.Equal(t, "b", s.Cart[0].ProductID)
}

func TestReduce_SetCartQuantity_ChangesOnlyMatchingLine(t *testing.T) {
	s := initialState()
	s = reduce(s, Action{Type: ActionAddToCart, Payload: catalog.CartLine{ID: "l1", ProductID: "a", Quantity: 1}})
	s = reduce(s, Action{Type: ActionAddToCart, Payload: catalog.CartLine{ID: "l2", ProductID: "b", Quantity: 2}})

	s = reduce(s, Action{Type: ActionSetCartQuantity, Payload: CartQuantityPayload{ProductID: "a", Quantity: 5}})

	require.Len(t, s.Cart, 2)
	assert.Equal(t, 5, s.Cart[0].Quantity)
	assert.Equal(t, "l1", s.Cart[0].ID)
	assert.Equal(t, 2, s.Cart[1].Quantity)
}

func TestReduce_SetCartQuantity_AbsentOrInvalidIsNoOp(t *testing.T) {
	s := initialState()
	s = reduce(s, Action{Type: ActionAddToCart, Payload: catalog.CartLine{ID: "l1", ProductID: "a", Quantity: 1}})
	before := s.Cart

	s = reduce(s, Action{Type: ActionSetCartQuantity, Payload: CartQuantityPayload{ProductID: "zzz", Quantity: 5}})
	assert.Equal(t, before, s.Cart)

	s = reduce(s, Action{Type: ActionSetCartQuantity, Payload: CartQuantityPayload{ProductID: "a", Quantity: 0}})
	assert.Equal(t, before, s.Cart)
}

func TestReduce_SetCategoryProducts_MergesWithoutReplacing(t *testing.T) {
	s := initialState()
	s = reduce(s, Action{Type: ActionSetCategoryProducts, Payload: CategoryProductsPayload{
		CategoryID: "c1",
		Products:   []catalog.Product{{ID: "p1"}},
	}})
	s = reduce(s, Action{Type: ActionSetCategoryProducts, Payload: CategoryProductsPayload{
		CategoryID: "c2",
		Products:   []catalog.Product{{ID: "p2"}},
	}})

	require.Len(t, s.CategoryProducts, 2, "other keys must be preserved")
	assert.Equal(t, "p1", s.CategoryProducts["c1"][0].ID)
	assert.Equal(t, "p2", s.CategoryProducts["c2"][0].ID)
}

func TestReduce_UpdateProduct_TouchesOnlyMatchingProduct(t *testing.T) {
	first := catalog.Product{ID: "p1", Name: "One", IsActive: true}
	second := catalog.Product{ID: "p2", Name: "Two", IsActive: true}

	s := initialState()
	s = reduce(s, Action{Type: ActionSetProducts, Payload: []catalog.Product{first, second}})

	toggled := first
	toggled.IsActive = false
	s = reduce(s, Action{Type: ActionUpdateProduct, Payload: toggled})

	require.Len(t, s.Products, 2)
	assert.False(t, s.Products[0].IsActive)
	assert.Equal(t, second, s.Products[1], "unrelated products must be untouched")
}

func TestReduce_UpdateProduct_RefreshesCurrentProduct(t *testing.T) {
	product := catalog.Product{ID: "p1", Name: "Old"}
	s := initialState()
	s = reduce(s, Action{Type: ActionSetProducts, Payload: []catalog.Product{product}})
	s = reduce(s, Action{Type: ActionSetCurrentProduct, Payload: product})

	updated := product
	updated.Name = "New"
	s = reduce(s, Action{Type: ActionUpdateProduct, Payload: updated})

	require.NotNil(t, s.CurrentProduct)
	assert.Equal(t, "New", s.CurrentProduct.Name)
}

func TestReduce_DeleteProduct(t *testing.T) {
	s := initialState()
	s = reduce(s, Action{Type: ActionSetProducts, Payload: []catalog.Product{{ID: "p1"}, {ID: "p2"}}})

	s = reduce(s, Action{Type: ActionDeleteProduct, Payload: "p1"})

	require.Len(t, s.Products, 1)
	assert.Equal(t, "p2", s.Products[0].ID)
}

func TestReduce_UpdateComment_PatchesCounters(t *testing.T) {
	s := initialState()
	s = reduce(s, Action{Type: ActionSetProductComments, Payload: []catalog.Comment{
		{ID: "c1", LikeCount: 0},
		{ID: "c2", LikeCount: 5},
	}})

	s = reduce(s, Action{Type: ActionUpdateComment, Payload: CommentReactionPayload{
		CommentID: "c1", LikeCount: 1, DislikeCount: 0, IsLiked: true,
	}})

	assert.Equal(t, 1, s.ProductComments[0].LikeCount)
	assert.True(t, s.ProductComments[0].IsLiked)
	assert.Equal(t, 5, s.ProductComments[1].LikeCount)
}

func TestReduce_UpdateOrderStatus(t *testing.T) {
	s := initialState()
	s = reduce(s, Action{Type: ActionSetOrders, Payload: []catalog.Order{
		{ID: "o1", Status: "pending"},
		{ID: "o2", Status: "pending"},
	}})

	s = reduce(s, Action{Type: ActionUpdateOrder, Payload: OrderStatusPayload{OrderID: "o1", Status: "shipped"}})

	assert.Equal(t, "shipped", s.Orders[0].Status)
	assert.Equal(t, "pending", s.Orders[1].Status)
}

func TestReduce_CopyOnWrite_PreviousStateUntouched(t *testing.T) {
	prev := initialState()
	prev = reduce(prev, Action{Type: ActionAddToCart, Payload: catalog.CartLine{ID: "l1", ProductID: "a", Quantity: 1}})

	_ = reduce(prev, Action{Type: ActionAddToCart, Payload: catalog.CartLine{ID: "l2", ProductID: "a", Quantity: 9}})

	assert.Equal(t, 1, prev.Cart[0].Quantity, "reduce must not mutate its input")
}
