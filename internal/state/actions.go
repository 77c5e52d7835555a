package state

// Action tags. Dispatching an unknown tag leaves the state unchanged.
const (
	ActionLoginStart          = "LoginStart"
	ActionLoginSuccess        = "LoginSuccess"
	ActionLoginFailure        = "LoginFailure"
	ActionLogout              = "Logout"
	ActionAuthCheckComplete   = "AuthCheckComplete"
	ActionSetLoading          = "SetLoading"
	ActionSetError            = "SetError"
	ActionAddToCart           = "AddToCart"
	ActionRemoveFromCart      = "RemoveFromCart"
	ActionSetCartQuantity     = "SetCartQuantity"
	ActionClearCart           = "ClearCart"
	ActionSetProducts         = "SetProducts"
	ActionAddProduct          = "AddProduct"
	ActionUpdateProduct       = "UpdateProduct"
	ActionDeleteProduct       = "DeleteProduct"
	ActionSetCategories       = "SetCategories"
	ActionSetItemTypes        = "SetItemTypes"
	ActionSetBrands           = "SetBrands"
	ActionSetOrders           = "SetOrders"
	ActionUpdateOrder         = "UpdateOrder"
	ActionSetCategoryProducts = "SetCategoryProducts"
	ActionSetCurrentProduct   = "SetCurrentProduct"
	ActionSetProductComments  = "SetProductComments"
	ActionAddComment          = "AddComment"
	ActionUpdateComment       = "UpdateComment"
	ActionSetRelatedProducts  = "SetRelatedProducts"
	ActionSetSearchResults    = "SetSearchResults"
	ActionSetCategoryInfo     = "SetCategoryInfo"
	ActionSetCategoriesPage   = "SetCategoriesPage"
)

// Action is a named state transition with an optional payload. The
// reducer type-asserts the payload per tag; a payload of the wrong
// type is treated like an unknown tag (no-op), never a panic.
type Action struct {
	Type    string
	Payload any
}
