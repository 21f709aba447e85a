package pos

import (
	"sort"
	"strings"
	"sync"

	"nabilpos/internal/domain"
)

// Catalog is the read-only product snapshot loaded once per session. Lookups
// are synchronous against the cached slice; Replace swaps the whole snapshot
// when a refresh succeeds.
type Catalog struct {
	mu       sync.RWMutex
	products []domain.Product
	cats     []string
}

func NewCatalog(products []domain.Product, categories []domain.Category) *Catalog {
	c := &Catalog{}
	c.Replace(products, categories)
	return c
}

func (c *Catalog) Replace(products []domain.Product, categories []domain.Category) {
	names := make([]string, 0, len(categories)+1)
	names = append(names, "All")
	if len(categories) > 0 {
		for _, cat := range categories {
			names = append(names, cat.Name)
		}
	} else {
		// Derive categories from the products themselves (fallback catalog
		// has no category listing).
		seen := map[string]bool{}
		for _, p := range products {
			if p.Category != "" && !seen[p.Category] {
				seen[p.Category] = true
				names = append(names, p.Category)
			}
		}
		sort.Strings(names[1:])
	}
	c.mu.Lock()
	c.products = products
	c.cats = names
	c.mu.Unlock()
}

func (c *Catalog) ByCode(code string) (domain.Product, bool) {
	if code == "" {
		return domain.Product{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, p := range c.products {
		if p.Code == code {
			return p, true
		}
	}
	return domain.Product{}, false
}

func (c *Catalog) Products() []domain.Product {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Product, len(c.products))
	copy(out, c.products)
	return out
}

func (c *Catalog) Categories() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, len(c.cats))
	copy(out, c.cats)
	return out
}

// CatalogPage is one page of the product browse panel.
type CatalogPage struct {
	Items      []domain.Product `json:"items"`
	Page       int              `json:"page"`
	PerPage    int              `json:"per_page"`
	Total      int              `json:"total"`
	TotalPages int              `json:"total_pages"`
}

// Search filters by name/code substring and category, then paginates.
func (c *Catalog) Search(q, category string, page, perPage int) CatalogPage {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = 12
	}
	q = strings.ToLower(strings.TrimSpace(q))

	c.mu.RLock()
	filtered := make([]domain.Product, 0, len(c.products))
	for _, p := range c.products {
		if q != "" && !strings.Contains(strings.ToLower(p.Name), q) &&
			!strings.Contains(strings.ToLower(p.Code), q) {
			continue
		}
		if category != "" && category != "All" && p.Category != category {
			continue
		}
		filtered = append(filtered, p)
	}
	c.mu.RUnlock()

	total := len(filtered)
	totalPages := (total + perPage - 1) / perPage
	if totalPages == 0 {
		totalPages = 1
	}
	if page > totalPages {
		page = totalPages
	}
	lo := (page - 1) * perPage
	hi := lo + perPage
	if hi > total {
		hi = total
	}
	return CatalogPage{Items: filtered[lo:hi], Page: page, PerPage: perPage, Total: total, TotalPages: totalPages}
}

// FallbackProducts is the built-in demo catalog used when the backend
// catalog fetch fails at startup, so the terminal stays usable.
func FallbackProducts() []domain.Product {
	return []domain.Product{
		{ID: 1, Code: "01", Name: "Burger", Price: 8.99, Category: "Fast Food"},
		{ID: 2, Code: "02", Name: "Pizza", Price: 12.99, Category: "Fast Food"},
		{ID: 3, Code: "03", Name: "Steak", Price: 24.99, Category: "Main Course"},
		{ID: 4, Code: "04", Name: "Caesar Salad", Price: 7.99, Category: "Salad"},
		{ID: 5, Code: "05", Name: "French Fries", Price: 3.99, Category: "Side"},
		{ID: 6, Code: "06", Name: "Cola", Price: 2.49, Category: "Drink"},
		{ID: 7, Code: "07", Name: "Iced Tea", Price: 2.29, Category: "Drink"},
		{ID: 8, Code: "08", Name: "Water", Price: 1.49, Category: "Drink"},
		{ID: 9, Code: "09", Name: "Chicken Wings", Price: 9.99, Category: "Appetizer"},
		{ID: 10, Code: "10", Name: "Pasta", Price: 11.99, Category: "Main Course"},
		{ID: 11, Code: "11", Name: "Chocolate Cake", Price: 6.99, Category: "Dessert"},
		{ID: 12, Code: "12", Name: "Ice Cream", Price: 4.99, Category: "Dessert"},
	}
}
