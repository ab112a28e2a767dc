package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/edoto/marketplace/internal/config"
	"github.com/edoto/marketplace/internal/constants"
	"github.com/edoto/marketplace/internal/models"
	"github.com/edoto/marketplace/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type orderFixture struct {
	db  *gorm.DB
	svc *OrderService
}

func setupOrderTest(t *testing.T) *orderFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:order_svc_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	svc := NewOrderService(
		db,
		repository.NewOrderRepository(db),
		repository.NewProductRepository(db),
		repository.NewPaymentIntentRepository(db),
		repository.NewPickupPointRepository(db),
		&config.PaymentConfig{Currency: constants.CurrencyDefault},
	)
	return &orderFixture{db: db, svc: svc}
}

func (f *orderFixture) seedCatalog(t *testing.T) (models.User, models.PickupPoint, []models.Product) {
	t.Helper()
	customer := models.User{
		Name: "Kossi", Email: "kossi@example.test", PasswordHash: "x",
		Role: constants.RoleClient, IsActive: true,
	}
	if err := f.db.Create(&customer).Error; err != nil {
		t.Fatalf("create customer failed: %v", err)
	}
	point := models.PickupPoint{Name: "Cotonou Ganhi", City: "Cotonou"}
	if err := f.db.Create(&point).Error; err != nil {
		t.Fatalf("create pickup point failed: %v", err)
	}
	shop := models.Shop{OwnerID: 50, Name: "Shop A", Slug: "shop-a", IsActive: true}
	if err := f.db.Create(&shop).Error; err != nil {
		t.Fatalf("create shop failed: %v", err)
	}
	products := []models.Product{
		{
			ShopID: shop.ID, Name: "Phone", Slug: "phone",
			Price: models.NewMoneyFromInt(2000), Quantity: 5,
			Status: constants.ProductStatusPublished,
		},
		{
			ShopID: shop.ID, Name: "Earbuds", Slug: "earbuds",
			Price: models.NewMoneyFromInt(2000), SalePrice: models.NewMoneyFromInt(1500),
			Quantity: 10, Status: constants.ProductStatusPublished,
		},
	}
	for i := range products {
		if err := f.db.Create(&products[i]).Error; err != nil {
			t.Fatalf("create product failed: %v", err)
		}
	}
	return customer, point, products
}

func TestCreateOrderCash(t *testing.T) {
	f := setupOrderTest(t)
	customer, point, products := f.seedCatalog(t)

	order, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerID:      customer.ID,
		CustomerContact: customer.Email,
		PickupPointID:   &point.ID,
		PaymentGateway:  constants.GatewayCash,
		SalesTax:        models.NewMoneyFromInt(100),
		Items: []OrderItemInput{
			{ProductID: products[0].ID, Quantity: 2},
			{ProductID: products[1].ID, Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	if !strings.HasPrefix(order.TrackingNumber, fmt.Sprintf("ORD-%d-", order.ID)) {
		t.Fatalf("tracking number %q must embed the order id", order.TrackingNumber)
	}
	// 2x2000 plus the 1500 sale price, plus tax.
	if !order.Amount.Decimal.Equal(models.NewMoneyFromInt(5500).Decimal) {
		t.Fatalf("amount want 5500 got %s", order.Amount)
	}
	if !order.Total.Decimal.Equal(models.NewMoneyFromInt(5600).Decimal) {
		t.Fatalf("total want 5600 got %s", order.Total)
	}
	if order.OrderStatus != constants.OrderStatusProcessing || order.PaymentStatus != constants.PaymentStatusCash {
		t.Fatalf("cash order status: %s/%s", order.OrderStatus, order.PaymentStatus)
	}
	if order.Currency != constants.CurrencyDefault {
		t.Fatalf("currency want %s got %s", constants.CurrencyDefault, order.Currency)
	}

	var children []models.OrderChild
	if err := f.db.Where("order_id = ?", order.ID).Order("id").Find(&children).Error; err != nil {
		t.Fatalf("load children failed: %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("children want 2 got %d", len(children))
	}
	if children[0].ProductName != "Phone" || children[0].Quantity != 2 {
		t.Fatalf("child denormalization wrong: %+v", children[0])
	}
	if !children[1].UnitPrice.Decimal.Equal(models.NewMoneyFromInt(1500).Decimal) {
		t.Fatalf("sale price must win, got %s", children[1].UnitPrice)
	}
	for _, child := range children {
		if child.PaymentStatus != constants.PaymentStatusCash {
			t.Fatalf("cash status not cascaded to child: %+v", child)
		}
	}

	// Stock decremented under the same transaction.
	var phone models.Product
	if err := f.db.First(&phone, products[0].ID).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if phone.Quantity != 3 {
		t.Fatalf("stock want 3 got %d", phone.Quantity)
	}
}

func TestCreateOrderOutOfStock(t *testing.T) {
	f := setupOrderTest(t)
	customer, _, products := f.seedCatalog(t)

	_, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerID:     customer.ID,
		PaymentGateway: constants.GatewayCash,
		Items:          []OrderItemInput{{ProductID: products[0].ID, Quantity: 99}},
	})
	if !errors.Is(err, ErrProductOutOfStock) {
		t.Fatalf("want ErrProductOutOfStock got %v", err)
	}

	var count int64
	f.db.Model(&models.Order{}).Count(&count)
	if count != 0 {
		t.Fatalf("failed checkout must not leave orders, count=%d", count)
	}
	var phone models.Product
	f.db.First(&phone, products[0].ID)
	if phone.Quantity != 5 {
		t.Fatalf("stock must be untouched, got %d", phone.Quantity)
	}
}

func TestCreateOrderRejectsDraftProduct(t *testing.T) {
	f := setupOrderTest(t)
	customer, _, products := f.seedCatalog(t)

	if err := f.db.Model(&models.Product{}).Where("id = ?", products[0].ID).
		Update("status", constants.ProductStatusDraft).Error; err != nil {
		t.Fatalf("draft product failed: %v", err)
	}

	_, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerID:     customer.ID,
		PaymentGateway: constants.GatewayCash,
		Items:          []OrderItemInput{{ProductID: products[0].ID, Quantity: 1}},
	})
	if !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("want ErrProductNotFound got %v", err)
	}
}

func TestCreateOrderRejectsUnknownGateway(t *testing.T) {
	f := setupOrderTest(t)
	customer, _, products := f.seedCatalog(t)

	_, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerID:     customer.ID,
		PaymentGateway: "barter",
		Items:          []OrderItemInput{{ProductID: products[0].ID, Quantity: 1}},
	})
	if !errors.Is(err, ErrGatewayNotSupported) {
		t.Fatalf("want ErrGatewayNotSupported got %v", err)
	}
}

func TestCreateOrderRejectsUnknownPickupPoint(t *testing.T) {
	f := setupOrderTest(t)
	customer, _, products := f.seedCatalog(t)

	badPoint := uint(4242)
	_, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerID:     customer.ID,
		PickupPointID:  &badPoint,
		PaymentGateway: constants.GatewayCash,
		Items:          []OrderItemInput{{ProductID: products[0].ID, Quantity: 1}},
	})
	if !errors.Is(err, ErrPickupPointInvalid) {
		t.Fatalf("want ErrPickupPointInvalid got %v", err)
	}
}

func TestGetOrdersScopesClient(t *testing.T) {
	f := setupOrderTest(t)
	customer, _, products := f.seedCatalog(t)
	other := models.User{
		Name: "Ama", Email: "ama@example.test", PasswordHash: "x",
		Role: constants.RoleClient, IsActive: true,
	}
	if err := f.db.Create(&other).Error; err != nil {
		t.Fatalf("create other customer failed: %v", err)
	}

	for _, customerID := range []uint{customer.ID, other.ID} {
		if _, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
			CustomerID:     customerID,
			PaymentGateway: constants.GatewayCash,
			Items:          []OrderItemInput{{ProductID: products[1].ID, Quantity: 1}},
		}); err != nil {
			t.Fatalf("create order for %d failed: %v", customerID, err)
		}
	}

	mine, total, err := f.svc.GetOrders(repository.OrderListFilter{Page: 1, PageSize: 20}, &customer)
	if err != nil {
		t.Fatalf("get orders failed: %v", err)
	}
	if total != 1 || len(mine) != 1 {
		t.Fatalf("client must only see own orders, total=%d len=%d", total, len(mine))
	}
	if mine[0].CustomerID != customer.ID {
		t.Fatalf("scoped list leaked order of customer %d", mine[0].CustomerID)
	}

	all, total, err := f.svc.GetOrders(repository.OrderListFilter{Page: 1, PageSize: 20}, nil)
	if err != nil {
		t.Fatalf("unscoped list failed: %v", err)
	}
	if total != 2 || len(all) != 2 {
		t.Fatalf("unscoped list want 2 got total=%d len=%d", total, len(all))
	}

	// A client cannot read another client's order directly.
	if _, err := f.svc.GetOrder(all[0].ID, &other); err != nil && !errors.Is(err, ErrAuthPermissionDenied) {
		t.Fatalf("unexpected error: %v", err)
	}
	theirs, err := f.svc.GetOrderByTracking(mine[0].TrackingNumber, &other)
	if !errors.Is(err, ErrAuthPermissionDenied) {
		t.Fatalf("cross-client read want ErrAuthPermissionDenied got %v (order=%v)", err, theirs)
	}
}

func TestUpdateOrderStatusCascades(t *testing.T) {
	f := setupOrderTest(t)
	customer, _, products := f.seedCatalog(t)

	order, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerID:     customer.ID,
		PaymentGateway: constants.GatewayCash,
		Items:          []OrderItemInput{{ProductID: products[0].ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	updated, err := f.svc.UpdateOrderStatus(order.ID, constants.OrderStatusAtPickup)
	if err != nil {
		t.Fatalf("update status failed: %v", err)
	}
	if updated.OrderStatus != constants.OrderStatusAtPickup {
		t.Fatalf("order_status want at-pickup got %s", updated.OrderStatus)
	}

	var children []models.OrderChild
	f.db.Where("order_id = ?", order.ID).Find(&children)
	for _, child := range children {
		if child.OrderStatus != constants.OrderStatusAtPickup {
			t.Fatalf("child status not cascaded: %+v", child)
		}
		if child.PaymentStatus != constants.PaymentStatusCash {
			t.Fatalf("payment status must be preserved: %+v", child)
		}
	}

	if _, err := f.svc.UpdateOrderStatus(order.ID, "order-teleported"); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("want ErrOrderStatusInvalid got %v", err)
	}
}
