package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/edoto/marketplace/internal/constants"
	"github.com/edoto/marketplace/internal/models"
	"github.com/edoto/marketplace/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type invoiceFixture struct {
	db    *gorm.DB
	svc   *InvoiceService
	store *memoryBlobStore
}

func setupInvoiceTest(t *testing.T) *invoiceFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:invoice_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Shop{}, &models.Order{}, &models.OrderChild{}, &models.Invoice{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	store := &memoryBlobStore{}
	svc := NewInvoiceService(
		repository.NewOrderRepository(db),
		repository.NewShopRepository(db),
		repository.NewInvoiceRepository(db),
		store,
	)
	return &invoiceFixture{db: db, svc: svc, store: store}
}

func (f *invoiceFixture) seedInvoiceOrder(t *testing.T) *models.Order {
	t.Helper()
	shops := []models.Shop{
		{OwnerID: 1, Name: "Invoice Shop A", Slug: "invoice-shop-a", IsActive: true},
		{OwnerID: 2, Name: "Invoice Shop B", Slug: "invoice-shop-b", IsActive: true},
	}
	for i := range shops {
		if err := f.db.Create(&shops[i]).Error; err != nil {
			t.Fatalf("create shop failed: %v", err)
		}
	}
	order := models.Order{
		TrackingNumber:  "ORD-3-2000",
		CustomerID:      1,
		CustomerContact: "adjoa@example.test",
		Amount:          models.NewMoneyFromInt(5000),
		SalesTax:        models.NewMoneyFromInt(100),
		Total:           models.NewMoneyFromInt(5100),
		Currency:        constants.CurrencyDefault,
		PaymentStatus:   constants.PaymentStatusSuccess,
		OrderStatus:     constants.OrderStatusProcessing,
		Children: []models.OrderChild{
			{ShopID: shops[0].ID, ProductID: 1, ProductName: "Phone", Quantity: 1,
				UnitPrice: models.NewMoneyFromInt(2000), Subtotal: models.NewMoneyFromInt(2000)},
			{ShopID: shops[1].ID, ProductID: 2, ProductName: "Earbuds", Quantity: 2,
				UnitPrice: models.NewMoneyFromInt(1500), Subtotal: models.NewMoneyFromInt(3000)},
		},
	}
	if err := f.db.Create(&order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return &order
}

func TestGenerateForOrderWritesClientAndShopInvoices(t *testing.T) {
	f := setupInvoiceTest(t)
	order := f.seedInvoiceOrder(t)

	if err := f.svc.GenerateForOrder(context.Background(), order.ID); err != nil {
		t.Fatalf("GenerateForOrder failed: %v", err)
	}

	invoices, err := f.svc.ListByOrder(order.ID)
	if err != nil {
		t.Fatalf("ListByOrder failed: %v", err)
	}
	if len(invoices) != 3 {
		t.Fatalf("invoices = %d, want 1 client + 2 shop", len(invoices))
	}

	byNumber := map[string]models.Invoice{}
	for _, inv := range invoices {
		byNumber[inv.InvoiceNumber] = inv
		if inv.Status != constants.InvoiceStatusGenerated {
			t.Fatalf("invoice %s status = %s", inv.InvoiceNumber, inv.Status)
		}
		if inv.GeneratedAt == nil {
			t.Fatalf("invoice %s has no generated_at", inv.InvoiceNumber)
		}
		pdfData, ok := f.store.objects[inv.ObjectKey]
		if !ok {
			t.Fatalf("object %s missing from store", inv.ObjectKey)
		}
		if !bytes.HasPrefix(pdfData, []byte("%PDF")) {
			t.Fatalf("object %s is not a PDF", inv.ObjectKey)
		}
		if inv.PDFURL != "https://blobs.test/"+inv.ObjectKey {
			t.Fatalf("pdf url = %s", inv.PDFURL)
		}
	}

	client, ok := byNumber["INV-ORD-3-2000-CLIENT"]
	if !ok {
		t.Fatalf("no client invoice, got %v", byNumber)
	}
	if client.ShopID != nil {
		t.Fatalf("client invoice carries shop id %d", *client.ShopID)
	}
	if !client.Amount.Decimal.Equal(models.NewMoneyFromInt(5100).Decimal) {
		t.Fatalf("client amount = %s, want order total 5100", client.Amount)
	}

	// Shop invoices cover each shop's subtotal only.
	wantShopAmounts := map[int64]bool{2000: false, 3000: false}
	for _, inv := range invoices {
		if inv.ShopID == nil {
			continue
		}
		v := inv.Amount.Decimal.IntPart()
		seen, known := wantShopAmounts[v]
		if !known || seen {
			t.Fatalf("unexpected shop invoice amount %s", inv.Amount)
		}
		wantShopAmounts[v] = true
	}
}

func TestGenerateForOrderIsIdempotent(t *testing.T) {
	f := setupInvoiceTest(t)
	order := f.seedInvoiceOrder(t)

	if err := f.svc.GenerateForOrder(context.Background(), order.ID); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	if err := f.svc.GenerateForOrder(context.Background(), order.ID); err != nil {
		t.Fatalf("second run failed: %v", err)
	}

	var count int64
	f.db.Model(&models.Invoice{}).Where("order_id = ?", order.ID).Count(&count)
	if count != 3 {
		t.Fatalf("invoices after rerun = %d, want 3", count)
	}
	if len(f.store.objects) != 3 {
		t.Fatalf("stored objects = %d, want 3", len(f.store.objects))
	}
}

func TestGenerateForOrderUploadFailureLeavesRowsMissing(t *testing.T) {
	f := setupInvoiceTest(t)
	order := f.seedInvoiceOrder(t)

	f.store.fail = errors.New("bucket offline")
	err := f.svc.GenerateForOrder(context.Background(), order.ID)
	if !errors.Is(err, ErrInvoiceUploadFailed) {
		t.Fatalf("err = %v, want ErrInvoiceUploadFailed", err)
	}
	var count int64
	f.db.Model(&models.Invoice{}).Count(&count)
	if count != 0 {
		t.Fatalf("invoices after failed upload = %d, want 0", count)
	}

	// The sweeper path: a later run completes the missing set.
	f.store.fail = nil
	if err := f.svc.GenerateForOrder(context.Background(), order.ID); err != nil {
		t.Fatalf("retry run failed: %v", err)
	}
	f.db.Model(&models.Invoice{}).Count(&count)
	if count != 3 {
		t.Fatalf("invoices after retry = %d, want 3", count)
	}
}

func TestGenerateForOrderUnknownOrder(t *testing.T) {
	f := setupInvoiceTest(t)
	if err := f.svc.GenerateForOrder(context.Background(), 9999); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("err = %v, want ErrOrderNotFound", err)
	}
}
