package catalog

import "time"

// Product is the upstream catalog product as consumed by the UI.
type Product struct {
	ID          string    `json:"id"`
	SellerID    string    `json:"seller_id"`
	CategoryID  string    `json:"category_id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Brand       string    `json:"brand"`
	Price       float64   `json:"price"`
	Discount    float64   `json:"discount"`
	Rating      float64   `json:"rating"`
	Stock       int       `json:"stock"`
	Images      []string  `json:"images"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

type Category struct {
	ID          string `json:"id"`
	ParentID    string `json:"parent_id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

type Brand struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ItemType struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Comment is a product review with its reaction counters.
type Comment struct {
	ID           string    `json:"id"`
	ProductID    string    `json:"product_id"`
	UserID       string    `json:"user_id"`
	Author       string    `json:"author"`
	AuthorImage  string    `json:"author_image"`
	Text         string    `json:"text"`
	Rating       float64   `json:"rating"`
	LikeCount    int       `json:"like_count"`
	DislikeCount int       `json:"dislike_count"`
	IsLiked      bool      `json:"is_liked"`
	CreatedAt    time.Time `json:"created_at"`
}

type OrderItem struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

type Order struct {
	ID        string      `json:"id"`
	UserID    string      `json:"user_id"`
	Items     []OrderItem `json:"items"`
	Total     float64     `json:"total"`
	Status    string      `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
}

// Profile is the authenticated user as returned by the upstream
// login and profile endpoints.
type Profile struct {
	ID     string `json:"id"`
	Email  string `json:"email"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	Avatar string `json:"avatar"`
}

// CartLine is one cart entry. At most one line exists per product id.
type CartLine struct {
	ID        string  `json:"id"`
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Image     string  `json:"image"`
	Price     float64 `json:"price"`
	Discount  float64 `json:"discount"`
	Quantity  int     `json:"quantity"`
}

type SearchResults struct {
	Categories []Category `json:"categories"`
	Products   []Product  `json:"products"`
}

type CategoryInfo struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Image        string `json:"image"`
	ProductCount int    `json:"product_count"`
}

// SellerData is the seller dashboard payload: the seller's own products
// and the orders containing them.
type SellerData struct {
	Products []Product `json:"products"`
	Orders   []Order   `json:"orders"`
}

// AdminUser is a user row in the admin user list.
type AdminUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	IsBlocked bool      `json:"is_blocked"`
	CreatedAt time.Time `json:"created_at"`
}
