package receipt_test

import (
	"strings"
	"testing"

	"nabilpos/internal/domain"
	"nabilpos/internal/receipt"
)

func testSale() *domain.Sale {
	return &domain.Sale{
		OrderNumber:   "INV-77",
		TotalAmount:   17.98,
		CreatedAt:     "2025-06-10T14:30:00Z",
		PaymentMethod: "cash",
		User:          &domain.Operator{Name: "Till"},
		Items: []domain.SaleItem{
			{Name: "Burger", Quantity: 2, Price: 8.99, Subtotal: 17.98},
		},
	}
}

func TestRenderContents(t *testing.T) {
	body, err := receipt.Render(testSale())
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{
		"NABIL",
		"HIGHWAY RESTAURANT",
		"Biller: Till",
		"Burger",
		"TK.17.98",
		"CASH",
		"INV-77",
		"THANK YOU",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("receipt missing %q:\n%s", want, body)
		}
	}
}

func TestRenderLineWidth(t *testing.T) {
	body, err := receipt.Render(testSale())
	if err != nil {
		t.Fatal(err)
	}
	for _, line := range strings.Split(strings.TrimRight(body, "\n"), "\n") {
		if len(line) > 42 {
			t.Fatalf("line exceeds roll width (%d): %q", len(line), line)
		}
	}
}

func TestRenderTruncatesLongNames(t *testing.T) {
	sale := testSale()
	sale.Items[0].Name = "Extra Large Double Cheese Burger Meal"
	body, err := receipt.Render(sale)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(body, "Extra Large Double") {
		t.Fatal("item name should truncate to the column width")
	}
	if !strings.Contains(body, "Extra Large Doub") {
		t.Fatalf("truncated name missing:\n%s", body)
	}
}

func TestRenderMissingBiller(t *testing.T) {
	sale := testSale()
	sale.User = nil
	body, err := receipt.Render(sale)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(body, "Biller: N/A") {
		t.Fatalf("want N/A biller:\n%s", body)
	}
}

func TestRenderRejectsEmptySale(t *testing.T) {
	if _, err := receipt.Render(nil); err == nil {
		t.Fatal("nil sale must error")
	}
	if _, err := receipt.Render(&domain.Sale{OrderNumber: "INV-1"}); err == nil {
		t.Fatal("itemless sale must error")
	}
}
