package printing_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"nabilpos/internal/domain"
	"nabilpos/internal/journal"
	"nabilpos/internal/printing"
)

func sampleSale() *domain.Sale {
	return &domain.Sale{
		OrderNumber: "INV-55",
		TotalAmount: 8.99,
		Items:       []domain.SaleItem{{Name: "Burger", Quantity: 1, Price: 8.99, Subtotal: 8.99}},
	}
}

func waitDone(t *testing.T, ch chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(2 * time.Second):
		t.Fatal("print never completed")
		return nil
	}
}

func TestSpoolerWritesReceipt(t *testing.T) {
	dir := t.TempDir()
	s := printing.NewSpooler(dir, time.Second)

	done := make(chan error, 1)
	s.Print(sampleSale(), true, func(err error) { done <- err })
	if err := waitDone(t, done); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("want 1 spool file, got %d", len(entries))
	}
	name := entries[0].Name()
	if !strings.HasPrefix(name, "receipt-INV-55-") {
		t.Fatalf("file name: %q", name)
	}
	body, err := os.ReadFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), "Burger") {
		t.Fatalf("receipt body:\n%s", body)
	}
}

func TestSpoolerHoldsManualJobs(t *testing.T) {
	dir := t.TempDir()
	s := printing.NewSpooler(dir, time.Second)

	done := make(chan error, 1)
	s.Print(sampleSale(), false, func(err error) { done <- err })
	if err := waitDone(t, done); err != nil {
		t.Fatal(err)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 || !strings.HasPrefix(entries[0].Name(), "hold-") {
		t.Fatalf("manual job should spool held, got %v", entries)
	}
}

func TestSpoolerRejectsEmptySale(t *testing.T) {
	s := printing.NewSpooler(t.TempDir(), time.Second)
	done := make(chan error, 1)
	s.Print(&domain.Sale{OrderNumber: "INV-1"}, true, func(err error) { done <- err })
	if err := waitDone(t, done); err == nil {
		t.Fatal("itemless sale should fail to render")
	}
}

func TestJournaledRecordsOutcome(t *testing.T) {
	db, err := journal.OpenDB(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	store := journal.NewStore(db)

	p := &printing.Journaled{
		Next:  printing.NewSpooler(t.TempDir(), time.Second),
		Store: store,
		TxnID: func() string { return "TXN-9-zz" },
	}

	done := make(chan error, 1)
	p.Print(sampleSale(), true, func(err error) { done <- err })
	if err := waitDone(t, done); err != nil {
		t.Fatal(err)
	}

	jobs, err := store.Recent(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(jobs) != 1 {
		t.Fatalf("want 1 journaled job, got %d", len(jobs))
	}
	if jobs[0].Outcome != "printed" || jobs[0].TransactionID != "TXN-9-zz" || jobs[0].OrderNumber != "INV-55" {
		t.Fatalf("job: %+v", jobs[0])
	}
	if !strings.Contains(jobs[0].Body, "Burger") {
		t.Fatal("journal should keep the rendered body")
	}
}
