package service

import (
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

type walletFixture struct {
	db  *gorm.DB
	svc *WalletService
}

func setupWalletTest(t *testing.T) *walletFixture {
	t.Helper()
	dsn := fmt.Sprintf("file:wallet_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Shop{}, &models.Order{}, &models.OrderChild{}, &models.WalletTransaction{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	svc := NewWalletService(repository.NewShopRepository(db), repository.NewWalletRepository(db))
	return &walletFixture{db: db, svc: svc}
}

func (f *walletFixture) seedShop(t *testing.T, slug string, balance int64) *models.Shop {
	t.Helper()
	shop := models.Shop{
		OwnerID:       1,
		Name:          slug,
		Slug:          slug,
		IsActive:      true,
		WalletBalance: models.NewMoneyFromInt(balance),
	}
	if err := f.db.Create(&shop).Error; err != nil {
		t.Fatalf("create shop failed: %v", err)
	}
	return &shop
}

func TestWalletCreditAndDebit(t *testing.T) {
	f := setupWalletTest(t)
	shop := f.seedShop(t, "credit-shop", 1000)

	txn, err := f.svc.Credit(f.db, shop.ID, models.NewMoneyFromInt(2500), "manual top-up")
	if err != nil {
		t.Fatalf("Credit failed: %v", err)
	}
	if !txn.BalanceBefore.Decimal.Equal(models.NewMoneyFromInt(1000).Decimal) {
		t.Fatalf("balance before = %s, want 1000", txn.BalanceBefore)
	}
	if !txn.BalanceAfter.Decimal.Equal(models.NewMoneyFromInt(3500).Decimal) {
		t.Fatalf("balance after = %s, want 3500", txn.BalanceAfter)
	}
	if txn.Type != constants.WalletTxnTypeCredit || txn.Status != constants.WalletTxnStatusSuccess {
		t.Fatalf("unexpected ledger row: type=%s status=%s", txn.Type, txn.Status)
	}

	txn, err = f.svc.Debit(f.db, shop.ID, models.NewMoneyFromInt(500), "payout")
	if err != nil {
		t.Fatalf("Debit failed: %v", err)
	}
	if !txn.BalanceAfter.Decimal.Equal(models.NewMoneyFromInt(3000).Decimal) {
		t.Fatalf("balance after debit = %s, want 3000", txn.BalanceAfter)
	}

	var fresh models.Shop
	if err := f.db.First(&fresh, shop.ID).Error; err != nil {
		t.Fatalf("reload shop failed: %v", err)
	}
	if !fresh.WalletBalance.Decimal.Equal(models.NewMoneyFromInt(3000).Decimal) {
		t.Fatalf("persisted balance = %s, want 3000", fresh.WalletBalance)
	}
}

func TestWalletDebitInsufficientFunds(t *testing.T) {
	f := setupWalletTest(t)
	shop := f.seedShop(t, "poor-shop", 100)

	_, err := f.svc.Debit(f.db, shop.ID, models.NewMoneyFromInt(101), "payout")
	if !errors.Is(err, ErrWalletInsufficientFunds) {
		t.Fatalf("err = %v, want ErrWalletInsufficientFunds", err)
	}

	// Neither the balance nor the ledger may change on a refused debit.
	var fresh models.Shop
	if err := f.db.First(&fresh, shop.ID).Error; err != nil {
		t.Fatalf("reload shop failed: %v", err)
	}
	if !fresh.WalletBalance.Decimal.Equal(models.NewMoneyFromInt(100).Decimal) {
		t.Fatalf("balance = %s, want 100", fresh.WalletBalance)
	}
	var count int64
	f.db.Model(&models.WalletTransaction{}).Count(&count)
	if count != 0 {
		t.Fatalf("ledger rows = %d, want 0", count)
	}
}

func TestWalletRejectsInvalidAmounts(t *testing.T) {
	f := setupWalletTest(t)
	shop := f.seedShop(t, "amount-shop", 100)

	if _, err := f.svc.Credit(f.db, shop.ID, models.NewMoneyFromInt(0), ""); !errors.Is(err, ErrWalletInvalidAmount) {
		t.Fatalf("zero credit err = %v, want ErrWalletInvalidAmount", err)
	}
	if _, err := f.svc.Debit(f.db, shop.ID, models.NewMoneyFromInt(-5), ""); !errors.Is(err, ErrWalletInvalidAmount) {
		t.Fatalf("negative debit err = %v, want ErrWalletInvalidAmount", err)
	}
	if _, err := f.svc.Credit(f.db, 0, models.NewMoneyFromInt(10), ""); !errors.Is(err, ErrWalletShopNotFound) {
		t.Fatalf("zero shop err = %v, want ErrWalletShopNotFound", err)
	}
	if _, err := f.svc.Credit(f.db, 9999, models.NewMoneyFromInt(10), ""); !errors.Is(err, ErrWalletShopNotFound) {
		t.Fatalf("missing shop err = %v, want ErrWalletShopNotFound", err)
	}
}

func TestWalletCreditForOrderStopsAtMissingShop(t *testing.T) {
	f := setupWalletTest(t)
	shop := f.seedShop(t, "real-shop", 0)

	order := models.Order{
		TrackingNumber: "ORD-7-1000",
		CustomerID:     1,
		Amount:         models.NewMoneyFromInt(5000),
		Total:          models.NewMoneyFromInt(5000),
		Currency:       constants.CurrencyDefault,
		Children: []models.OrderChild{
			{ShopID: shop.ID, ProductID: 1, ProductName: "Phone", Quantity: 1,
				UnitPrice: models.NewMoneyFromInt(2000), Subtotal: models.NewMoneyFromInt(2000)},
			{ShopID: 4242, ProductID: 2, ProductName: "Ghost", Quantity: 1,
				UnitPrice: models.NewMoneyFromInt(3000), Subtotal: models.NewMoneyFromInt(3000)},
		},
	}
	if err := f.db.Create(&order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	err := f.db.Transaction(func(tx *gorm.DB) error {
		return f.svc.CreditForOrder(tx, &order)
	})
	var missing *MissingShopError
	if !errors.As(err, &missing) {
		t.Fatalf("err = %v, want MissingShopError", err)
	}
	if missing.ShopID != 4242 {
		t.Fatalf("missing shop id = %d, want 4242", missing.ShopID)
	}
	if !errors.Is(err, ErrWalletShopNotFound) {
		t.Fatalf("MissingShopError must unwrap to ErrWalletShopNotFound, got %v", err)
	}

	// The rollback must undo the first shop's credit too.
	var fresh models.Shop
	if err := f.db.First(&fresh, shop.ID).Error; err != nil {
		t.Fatalf("reload shop failed: %v", err)
	}
	if !fresh.WalletBalance.Decimal.IsZero() {
		t.Fatalf("balance = %s, want 0 after rollback", fresh.WalletBalance)
	}

	if err := f.svc.RecordFailedCredit(order.ID, missing, "missing shop during settlement"); err != nil {
		t.Fatalf("RecordFailedCredit failed: %v", err)
	}
	var failed []models.WalletTransaction
	f.db.Where("status = ?", constants.WalletTxnStatusFailed).Find(&failed)
	if len(failed) != 1 {
		t.Fatalf("failed ledger rows = %d, want 1", len(failed))
	}
	if failed[0].ShopID != 4242 || failed[0].OrderID != order.ID {
		t.Fatalf("failed row points at shop=%d order=%d", failed[0].ShopID, failed[0].OrderID)
	}
}

func TestWalletListTransactionsFilters(t *testing.T) {
	f := setupWalletTest(t)
	shopA := f.seedShop(t, "ledger-a", 0)
	shopB := f.seedShop(t, "ledger-b", 0)

	for i := 0; i < 3; i++ {
		if _, err := f.svc.Credit(f.db, shopA.ID, models.NewMoneyFromInt(100), "a"); err != nil {
			t.Fatalf("credit a failed: %v", err)
		}
	}
	if _, err := f.svc.Credit(f.db, shopB.ID, models.NewMoneyFromInt(100), "b"); err != nil {
		t.Fatalf("credit b failed: %v", err)
	}
	if _, err := f.svc.Debit(f.db, shopA.ID, models.NewMoneyFromInt(50), "a out"); err != nil {
		t.Fatalf("debit a failed: %v", err)
	}

	rows, total, err := f.svc.ListTransactions(repository.WalletTransactionListFilter{ShopID: shopA.ID})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if total != 4 || len(rows) != 4 {
		t.Fatalf("shop A rows = %d (total %d), want 4", len(rows), total)
	}

	rows, total, err = f.svc.ListTransactions(repository.WalletTransactionListFilter{
		ShopID: shopA.ID,
		Type:   constants.WalletTxnTypeDebit,
	})
	if err != nil {
		t.Fatalf("filtered list failed: %v", err)
	}
	if total != 1 || len(rows) != 1 || rows[0].Type != constants.WalletTxnTypeDebit {
		t.Fatalf("debit filter returned %d rows (total %d)", len(rows), total)
	}

	rows, total, err = f.svc.ListTransactions(repository.WalletTransactionListFilter{
		ShopID:   shopA.ID,
		Page:     1,
		PageSize: 2,
	})
	if err != nil {
		t.Fatalf("paged list failed: %v", err)
	}
	if total != 4 || len(rows) != 2 {
		t.Fatalf("page 1 returned %d rows (total %d), want 2 of 4", len(rows), total)
	}
}
