package fetch

import (
	"strings"

	"github.com/example/storefront-gateway/internal/catalog"
)

// absoluteURL rewrites a relative upstream image path into an absolute
// URL against the configured API origin. Paths that are already
// absolute are left alone.
func (f *Fetchers) absoluteURL(path string) string {
	if path == "" || strings.HasPrefix(path, "http") {
		return path
	}
	return f.client.BaseURL() + "/" + strings.TrimPrefix(path, "/")
}

func (f *Fetchers) absolutizeProduct(p *catalog.Product) {
	for i, img := range p.Images {
		p.Images[i] = f.absoluteURL(img)
	}
}

func (f *Fetchers) absolutizeCategories(categories []catalog.Category) {
	for i := range categories {
		categories[i].Image = f.absoluteURL(categories[i].Image)
	}
}
