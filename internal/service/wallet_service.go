package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/edoto/marketplace/internal/constants"
	"github.com/edoto/marketplace/internal/models"
	"github.com/edoto/marketplace/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WalletService moves shop wallet balances and keeps the ledger.
type WalletService struct {
	shopRepo   *repository.GormShopRepository
	walletRepo *repository.GormWalletRepository
}

// NewWalletService creates the service.
func NewWalletService(shopRepo *repository.GormShopRepository, walletRepo *repository.GormWalletRepository) *WalletService {
	return &WalletService{
		shopRepo:   shopRepo,
		walletRepo: walletRepo,
	}
}

// MissingShopError aborts an order credit when a child references a shop
// that no longer exists. The caller writes the failed ledger row outside
// the rolled-back transaction.
type MissingShopError struct {
	ShopID       uint
	OrderChildID uint
	Amount       models.Money
}

func (e *MissingShopError) Error() string {
	return fmt.Sprintf("wallet shop not found: shop_id=%d order_child_id=%d", e.ShopID, e.OrderChildID)
}

func (e *MissingShopError) Unwrap() error {
	return ErrWalletShopNotFound
}

// CreditForOrder credits every shop of the order's children inside the
// caller's transaction. All-or-nothing: the first missing shop aborts the
// whole credit with a MissingShopError.
func (s *WalletService) CreditForOrder(tx *gorm.DB, order *models.Order) error {
	if tx == nil || order == nil {
		return ErrWalletCreditFailed
	}
	shopRepo := s.shopRepo.WithTx(tx)
	walletRepo := s.walletRepo.WithTx(tx)

	for i := range order.Children {
		child := &order.Children[i]
		shop, err := shopRepo.GetByIDForUpdate(child.ShopID)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrWalletCreditFailed, err)
		}
		if shop == nil {
			return &MissingShopError{
				ShopID:       child.ShopID,
				OrderChildID: child.ID,
				Amount:       child.Subtotal,
			}
		}

		before := shop.WalletBalance
		after := models.NewMoneyFromDecimal(before.Decimal.Add(child.Subtotal.Decimal).Round(2))
		shop.WalletBalance = after
		shop.OrdersCount++
		if err := shopRepo.Update(shop); err != nil {
			return fmt.Errorf("%w: %v", ErrWalletCreditFailed, err)
		}

		ledger := &models.WalletTransaction{
			ShopID:        shop.ID,
			OrderID:       order.ID,
			OrderChildID:  child.ID,
			Amount:        child.Subtotal,
			BalanceBefore: before,
			BalanceAfter:  after,
			Type:          constants.WalletTxnTypeCredit,
			Status:        constants.WalletTxnStatusSuccess,
			Note:          fmt.Sprintf("order %s settlement", order.TrackingNumber),
		}
		if err := walletRepo.CreateTransaction(ledger); err != nil {
			return fmt.Errorf("%w: %v", ErrWalletCreditFailed, err)
		}
	}
	return nil
}

// RecordFailedCredit writes a failed ledger row. Called with the base DB
// handle after a rollback so the failure survives the aborted transaction.
func (s *WalletService) RecordFailedCredit(orderID uint, missing *MissingShopError, note string) error {
	if missing == nil {
		return nil
	}
	ledger := &models.WalletTransaction{
		ShopID:       missing.ShopID,
		OrderID:      orderID,
		OrderChildID: missing.OrderChildID,
		Amount:       missing.Amount,
		Type:         constants.WalletTxnTypeCredit,
		Status:       constants.WalletTxnStatusFailed,
		Note:         strings.TrimSpace(note),
	}
	return s.walletRepo.CreateTransaction(ledger)
}

// Credit adds funds to a shop wallet outside of settlement.
func (s *WalletService) Credit(db *gorm.DB, shopID uint, amount models.Money, note string) (*models.WalletTransaction, error) {
	return s.move(db, shopID, amount, constants.WalletTxnTypeCredit, note)
}

// Debit removes funds from a shop wallet; insufficient balance is an error.
func (s *WalletService) Debit(db *gorm.DB, shopID uint, amount models.Money, note string) (*models.WalletTransaction, error) {
	return s.move(db, shopID, amount, constants.WalletTxnTypeDebit, note)
}

func (s *WalletService) move(db *gorm.DB, shopID uint, amount models.Money, txnType, note string) (*models.WalletTransaction, error) {
	if shopID == 0 {
		return nil, ErrWalletShopNotFound
	}
	value := amount.Decimal.Round(2)
	if value.LessThanOrEqual(decimal.Zero) {
		return nil, ErrWalletInvalidAmount
	}

	var ledger *models.WalletTransaction
	err := db.Transaction(func(tx *gorm.DB) error {
		shopRepo := s.shopRepo.WithTx(tx)
		walletRepo := s.walletRepo.WithTx(tx)

		shop, err := shopRepo.GetByIDForUpdate(shopID)
		if err != nil {
			return err
		}
		if shop == nil {
			return ErrWalletShopNotFound
		}

		before := shop.WalletBalance
		var after decimal.Decimal
		if txnType == constants.WalletTxnTypeDebit {
			after = before.Decimal.Sub(value).Round(2)
			if after.LessThan(decimal.Zero) {
				return ErrWalletInsufficientFunds
			}
		} else {
			after = before.Decimal.Add(value).Round(2)
		}

		shop.WalletBalance = models.NewMoneyFromDecimal(after)
		shop.UpdatedAt = time.Now()
		if err := shopRepo.Update(shop); err != nil {
			return err
		}

		ledger = &models.WalletTransaction{
			ShopID:        shop.ID,
			Amount:        models.NewMoneyFromDecimal(value),
			BalanceBefore: before,
			BalanceAfter:  models.NewMoneyFromDecimal(after),
			Type:          txnType,
			Status:        constants.WalletTxnStatusSuccess,
			Note:          strings.TrimSpace(note),
		}
		return walletRepo.CreateTransaction(ledger)
	})
	if err != nil {
		return nil, err
	}
	return ledger, nil
}

// ListTransactions pages through the ledger.
func (s *WalletService) ListTransactions(filter repository.WalletTransactionListFilter) ([]models.WalletTransaction, int64, error) {
	return s.walletRepo.ListTransactions(filter)
}
