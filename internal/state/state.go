package state

import "github.com/example/storefront-gateway/internal/catalog"

// AppState is the single root UI-state record. Every dispatch produces a
// new AppState value; the previous one is never mutated in place, so a
// snapshot handed to a consumer stays stable while new actions apply.
type AppState struct {
	User              *catalog.Profile             `json:"user"`
	IsAuthenticated   bool                         `json:"is_authenticated"`
	AuthCheckComplete bool                         `json:"auth_check_complete"`
	Loading           bool                         `json:"loading"`
	Error             string                       `json:"error"`
	Cart              []catalog.CartLine           `json:"cart"`
	Products          []catalog.Product            `json:"products"`
	Categories        []catalog.Category           `json:"categories"`
	ItemTypes         []catalog.ItemType           `json:"item_types"`
	Brands            []catalog.Brand              `json:"brands"`
	Orders            []catalog.Order              `json:"orders"`
	CategoryProducts  map[string][]catalog.Product `json:"category_products"`
	CurrentProduct    *catalog.Product             `json:"current_product"`
	ProductComments   []catalog.Comment            `json:"product_comments"`
	RelatedProducts   []catalog.Product            `json:"related_products"`
	SearchResults     catalog.SearchResults        `json:"search_results"`
	CategoryInfo      *catalog.CategoryInfo        `json:"category_info"`
	CategoriesPage    int                          `json:"categories_page"`
}

// initialState seeds every collection so consumers never observe a
// missing top-level field.
func initialState() AppState {
	return AppState{
		Loading:          true,
		Cart:             []catalog.CartLine{},
		Products:         []catalog.Product{},
		Categories:       []catalog.Category{},
		ItemTypes:        []catalog.ItemType{},
		Brands:           []catalog.Brand{},
		Orders:           []catalog.Order{},
		CategoryProducts: map[string][]catalog.Product{},
		ProductComments:  []catalog.Comment{},
		RelatedProducts:  []catalog.Product{},
		SearchResults: catalog.SearchResults{
			Categories: []catalog.Category{},
			Products:   []catalog.Product{},
		},
		CategoriesPage: 1,
	}
}
