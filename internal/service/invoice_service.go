package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/edoto/marketplace/internal/constants"
	"github.com/edoto/marketplace/internal/logger"
	"github.com/edoto/marketplace/internal/models"
	"github.com/edoto/marketplace/internal/repository"
	"github.com/edoto/marketplace/internal/storage"

	"github.com/go-pdf/fpdf"
)

// InvoiceService renders and stores order invoices. Every settled order gets
// one client invoice for the full total plus one invoice per shop for that
// shop's subtotal.
type InvoiceService struct {
	orderRepo   *repository.GormOrderRepository
	shopRepo    *repository.GormShopRepository
	invoiceRepo *repository.GormInvoiceRepository
	store       storage.BlobStore
}

// NewInvoiceService creates the service.
func NewInvoiceService(orderRepo *repository.GormOrderRepository, shopRepo *repository.GormShopRepository, invoiceRepo *repository.GormInvoiceRepository, store storage.BlobStore) *InvoiceService {
	return &InvoiceService{
		orderRepo:   orderRepo,
		shopRepo:    shopRepo,
		invoiceRepo: invoiceRepo,
		store:       store,
	}
}

// GenerateForOrder writes all missing invoices of an order. Generation is
// idempotent per (order, shop); a partial failure leaves the missing rows
// for the sweeper to pick up.
func (s *InvoiceService) GenerateForOrder(ctx context.Context, orderID uint) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvoiceGenerateFailed, err)
	}
	if order == nil {
		return ErrOrderNotFound
	}

	var firstErr error
	if err := s.generateOne(ctx, order, nil); err != nil {
		firstErr = err
	}

	for _, shopID := range distinctShopIDs(order.Children) {
		id := shopID
		if err := s.generateOne(ctx, order, &id); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (s *InvoiceService) generateOne(ctx context.Context, order *models.Order, shopID *uint) error {
	existing, err := s.invoiceRepo.GetByOrderAndShop(order.ID, shopID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvoiceGenerateFailed, err)
	}
	if existing != nil {
		return nil
	}

	var shop *models.Shop
	amount := order.Total
	if shopID != nil {
		shop, err = s.shopRepo.GetByID(*shopID)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrInvoiceGenerateFailed, err)
		}
		amount = shopSubtotal(order.Children, *shopID)
	}

	number := buildInvoiceNumber(order.TrackingNumber, shopID)
	pdfBytes, err := renderInvoicePDF(order, shop, shopID, number, amount)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvoiceGenerateFailed, err)
	}

	objectKey := fmt.Sprintf("invoices/%d/%s.pdf", order.ID, number)
	url, err := s.store.Put(ctx, objectKey, "application/pdf", bytes.NewReader(pdfBytes), int64(len(pdfBytes)))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvoiceUploadFailed, err)
	}

	now := time.Now()
	invoice := &models.Invoice{
		OrderID:       order.ID,
		ShopID:        shopID,
		InvoiceNumber: number,
		Amount:        amount,
		Currency:      order.Currency,
		PDFURL:        url,
		ObjectKey:     objectKey,
		Status:        constants.InvoiceStatusGenerated,
		GeneratedAt:   &now,
	}
	if err := s.invoiceRepo.Create(invoice); err != nil {
		return fmt.Errorf("%w: %v", ErrInvoiceGenerateFailed, err)
	}

	logger.S().Infow("invoice_generated",
		"order_id", order.ID,
		"invoice_number", number,
		"object_key", objectKey,
	)
	return nil
}

// ListByOrder returns all invoices of an order.
func (s *InvoiceService) ListByOrder(orderID uint) ([]models.Invoice, error) {
	return s.invoiceRepo.ListByOrder(orderID)
}

// List pages through invoices.
func (s *InvoiceService) List(filter repository.InvoiceListFilter) ([]models.Invoice, int64, error) {
	return s.invoiceRepo.List(filter)
}

func distinctShopIDs(children []models.OrderChild) []uint {
	seen := map[uint]bool{}
	var ids []uint
	for _, child := range children {
		if child.ShopID == 0 || seen[child.ShopID] {
			continue
		}
		seen[child.ShopID] = true
		ids = append(ids, child.ShopID)
	}
	return ids
}

func shopSubtotal(children []models.OrderChild, shopID uint) models.Money {
	total := models.NewMoneyFromInt(0)
	for _, child := range children {
		if child.ShopID != shopID {
			continue
		}
		total = models.NewMoneyFromDecimal(total.Decimal.Add(child.Subtotal.Decimal))
	}
	return total
}

func buildInvoiceNumber(trackingNumber string, shopID *uint) string {
	if shopID == nil {
		return fmt.Sprintf("INV-%s-CLIENT", trackingNumber)
	}
	return fmt.Sprintf("INV-%s-S%d", trackingNumber, *shopID)
}

func renderInvoicePDF(order *models.Order, shop *models.Shop, shopID *uint, number string, amount models.Money) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(number, false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "E-Doto Marketplace")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 11)
	pdf.Cell(0, 6, fmt.Sprintf("Invoice: %s", number))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Order: %s", order.TrackingNumber))
	pdf.Ln(6)
	pdf.Cell(0, 6, fmt.Sprintf("Date: %s", time.Now().Format("2006-01-02")))
	pdf.Ln(6)
	if shop != nil {
		pdf.Cell(0, 6, fmt.Sprintf("Shop: %s", shop.Name))
		pdf.Ln(6)
	} else if contact := strings.TrimSpace(order.CustomerContact); contact != "" {
		pdf.Cell(0, 6, fmt.Sprintf("Customer: %s", contact))
		pdf.Ln(6)
	}
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(90, 8, "Item", "1", 0, "L", false, 0, "")
	pdf.CellFormat(20, 8, "Qty", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, "Unit price", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, "Subtotal", "1", 1, "R", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	for _, child := range order.Children {
		if shopID != nil && child.ShopID != *shopID {
			continue
		}
		pdf.CellFormat(90, 8, child.ProductName, "1", 0, "L", false, 0, "")
		pdf.CellFormat(20, 8, fmt.Sprintf("%d", child.Quantity), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, formatXOF(child.UnitPrice, order.Currency), "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, formatXOF(child.Subtotal, order.Currency), "1", 1, "R", false, 0, "")
	}

	if shopID == nil && order.SalesTax.Decimal.Sign() > 0 {
		pdf.SetFont("Helvetica", "", 10)
		pdf.CellFormat(145, 8, "Sales tax", "1", 0, "R", false, 0, "")
		pdf.CellFormat(35, 8, formatXOF(order.SalesTax, order.Currency), "1", 1, "R", false, 0, "")
	}

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(145, 8, "Total", "1", 0, "R", false, 0, "")
	pdf.CellFormat(35, 8, formatXOF(amount, order.Currency), "1", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// formatXOF prints whole amounts for zero-decimal currencies.
func formatXOF(amount models.Money, currency string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "XOF" || currency == "XAF" {
		return fmt.Sprintf("%s %s", amount.Decimal.Round(0).String(), currency)
	}
	return fmt.Sprintf("%s %s", amount.String(), currency)
}
