package pos_test

import (
	"testing"

	"nabilpos/internal/domain"
	"nabilpos/internal/pos"
)

func TestCatalogByCode(t *testing.T) {
	c := pos.NewCatalog(pos.FallbackProducts(), nil)
	p, ok := c.ByCode("01")
	if !ok || p.Name != "Burger" {
		t.Fatalf("want Burger, got %+v ok=%v", p, ok)
	}
	if _, ok := c.ByCode(""); ok {
		t.Fatal("empty code must not match")
	}
	if _, ok := c.ByCode("99"); ok {
		t.Fatal("unknown code must not match")
	}
}

func TestCatalogCategoriesDerivedFromProducts(t *testing.T) {
	c := pos.NewCatalog(pos.FallbackProducts(), nil)
	cats := c.Categories()
	if len(cats) == 0 || cats[0] != "All" {
		t.Fatalf("categories must lead with All, got %v", cats)
	}
	found := false
	for _, name := range cats {
		if name == "Drink" {
			found = true
		}
	}
	if !found {
		t.Fatalf("derived categories missing Drink: %v", cats)
	}
}

func TestCatalogCategoriesFromListing(t *testing.T) {
	c := pos.NewCatalog(pos.FallbackProducts(), []domain.Category{{ID: 1, Name: "Specials"}})
	cats := c.Categories()
	if len(cats) != 2 || cats[0] != "All" || cats[1] != "Specials" {
		t.Fatalf("want [All Specials], got %v", cats)
	}
}

func TestCatalogSearch(t *testing.T) {
	c := pos.NewCatalog(pos.FallbackProducts(), nil)

	page := c.Search("bur", "", 1, 12)
	if page.Total != 1 || page.Items[0].Name != "Burger" {
		t.Fatalf("search bur: %+v", page)
	}

	page = c.Search("", "Drink", 1, 12)
	if page.Total != 3 {
		t.Fatalf("want 3 drinks, got %d", page.Total)
	}

	// code substring matches too
	page = c.Search("12", "", 1, 12)
	if page.Total != 1 || page.Items[0].Name != "Ice Cream" {
		t.Fatalf("search by code: %+v", page)
	}
}

func TestCatalogPagination(t *testing.T) {
	c := pos.NewCatalog(pos.FallbackProducts(), nil)

	page := c.Search("", "", 1, 5)
	if len(page.Items) != 5 || page.TotalPages != 3 || page.Total != 12 {
		t.Fatalf("page 1: %+v", page)
	}
	page = c.Search("", "", 3, 5)
	if len(page.Items) != 2 || page.Page != 3 {
		t.Fatalf("page 3: %+v", page)
	}

	// out-of-range page clamps to the last one
	page = c.Search("", "", 9, 5)
	if page.Page != 3 {
		t.Fatalf("want clamp to page 3, got %d", page.Page)
	}

	// no matches still reports one (empty) page
	page = c.Search("zzzz", "", 1, 5)
	if page.Total != 0 || page.TotalPages != 1 || len(page.Items) != 0 {
		t.Fatalf("empty result: %+v", page)
	}
}
