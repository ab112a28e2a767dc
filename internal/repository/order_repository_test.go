package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/edoto/marketplace/internal/constants"
	"github.com/edoto/marketplace/internal/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func uintPtr(v uint) *uint {
	return &v
}

func setupOrderRepositoryTest(t *testing.T) (*GormOrderRepository, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:order_repo_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Order{}, &models.OrderChild{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	return NewOrderRepository(db), db
}

func TestOrderRepositoryCreateAndFetchWithChildren(t *testing.T) {
	repo, _ := setupOrderRepositoryTest(t)

	order := models.Order{
		TrackingNumber:  "ORD-1-1700000000000",
		CustomerID:      7,
		CustomerContact: "client@example.com",
		PickupPointID:   uintPtr(3),
		Amount:          models.NewMoneyFromInt(5000),
		Total:           models.NewMoneyFromInt(5000),
		Currency:        constants.CurrencyDefault,
		PaymentGateway:  constants.GatewayFlutterwave,
		OrderStatus:     constants.OrderStatusPending,
		PaymentStatus:   constants.PaymentStatusPending,
		Children: []models.OrderChild{
			{ShopID: 1, ProductID: 10, ProductName: "Basket", Quantity: 1,
				UnitPrice: models.NewMoneyFromInt(2000), Subtotal: models.NewMoneyFromInt(2000),
				OrderStatus: constants.OrderStatusPending, PaymentStatus: constants.PaymentStatusPending},
			{ShopID: 2, ProductID: 11, ProductName: "Bowl", Quantity: 3,
				UnitPrice: models.NewMoneyFromInt(1000), Subtotal: models.NewMoneyFromInt(3000),
				OrderStatus: constants.OrderStatusPending, PaymentStatus: constants.PaymentStatusPending},
		},
	}
	if err := repo.Create(&order); err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	got, err := repo.GetByTrackingNumber("ORD-1-1700000000000")
	if err != nil {
		t.Fatalf("get by tracking number failed: %v", err)
	}
	if got == nil {
		t.Fatalf("expected order to be found")
	}
	if len(got.Children) != 2 {
		t.Fatalf("children len want 2 got %d", len(got.Children))
	}

	locked, err := repo.GetByTrackingNumberForUpdate("ORD-1-1700000000000")
	if err != nil {
		t.Fatalf("get for update failed: %v", err)
	}
	if locked == nil || len(locked.Children) != 2 {
		t.Fatalf("locked fetch must include children, got %+v", locked)
	}

	missing, err := repo.GetByTrackingNumber("ORD-unknown")
	if err != nil {
		t.Fatalf("get missing failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown tracking number")
	}
}

func TestOrderRepositoryStatusCascade(t *testing.T) {
	repo, db := setupOrderRepositoryTest(t)

	order := models.Order{
		TrackingNumber: "ORD-2-1700000000001",
		CustomerID:     8,
		OrderStatus:    constants.OrderStatusPending,
		PaymentStatus:  constants.PaymentStatusPending,
		Children: []models.OrderChild{
			{ShopID: 1, ProductID: 10, ProductName: "Basket", Quantity: 1,
				OrderStatus: constants.OrderStatusPending, PaymentStatus: constants.PaymentStatusPending},
			{ShopID: 2, ProductID: 11, ProductName: "Bowl", Quantity: 1,
				OrderStatus: constants.OrderStatusPending, PaymentStatus: constants.PaymentStatusPending},
		},
	}
	if err := repo.Create(&order); err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	if err := repo.UpdateFields(order.ID, map[string]interface{}{
		"order_status":   constants.OrderStatusProcessing,
		"payment_status": constants.PaymentStatusSuccess,
	}); err != nil {
		t.Fatalf("update order fields failed: %v", err)
	}
	if err := repo.UpdateChildrenStatus(order.ID, constants.OrderStatusProcessing, constants.PaymentStatusSuccess); err != nil {
		t.Fatalf("update children status failed: %v", err)
	}

	var children []models.OrderChild
	if err := db.Where("order_id = ?", order.ID).Find(&children).Error; err != nil {
		t.Fatalf("load children failed: %v", err)
	}
	for _, child := range children {
		if child.OrderStatus != constants.OrderStatusProcessing {
			t.Fatalf("child order_status want %s got %s", constants.OrderStatusProcessing, child.OrderStatus)
		}
		if child.PaymentStatus != constants.PaymentStatusSuccess {
			t.Fatalf("child payment_status want %s got %s", constants.PaymentStatusSuccess, child.PaymentStatus)
		}
	}
}

func TestOrderRepositoryListFilters(t *testing.T) {
	repo, _ := setupOrderRepositoryTest(t)

	for i := 1; i <= 3; i++ {
		order := models.Order{
			TrackingNumber: fmt.Sprintf("ORD-%d-170000000000%d", i, i),
			CustomerID:     uint(i),
			PickupPointID:  uintPtr(1),
			OrderStatus:    constants.OrderStatusPending,
			PaymentStatus:  constants.PaymentStatusPending,
			Children: []models.OrderChild{
				{ShopID: uint(i), ProductID: uint(10 + i), ProductName: "Item", Quantity: 1,
					OrderStatus: constants.OrderStatusPending, PaymentStatus: constants.PaymentStatusPending},
			},
		}
		if err := repo.Create(&order); err != nil {
			t.Fatalf("create order %d failed: %v", i, err)
		}
	}

	rows, total, err := repo.List(OrderListFilter{Page: 1, PageSize: 10, ShopID: 2})
	if err != nil {
		t.Fatalf("list by shop failed: %v", err)
	}
	if total != 1 || len(rows) != 1 {
		t.Fatalf("shop filter want 1 row got total=%d len=%d", total, len(rows))
	}
	if rows[0].CustomerID != 2 {
		t.Fatalf("unexpected order for shop filter: %+v", rows[0])
	}

	rows, total, err = repo.List(OrderListFilter{Page: 1, PageSize: 2, OrderBy: "id", SortDirection: "asc"})
	if err != nil {
		t.Fatalf("list paged failed: %v", err)
	}
	if total != 3 {
		t.Fatalf("total want 3 got %d", total)
	}
	if len(rows) != 2 {
		t.Fatalf("page len want 2 got %d", len(rows))
	}
	if rows[0].ID > rows[1].ID {
		t.Fatalf("ascending sort expected, got ids %d,%d", rows[0].ID, rows[1].ID)
	}
}
