package service

import (
	"context"
	"time"

	"github.com/edoto/marketplace/internal/constants"
	"github.com/edoto/marketplace/internal/logger"
	"github.com/edoto/marketplace/internal/models"
	"github.com/edoto/marketplace/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// AnalyticsService maintains the revenue snapshots. One global row plus one
// row per shop; settlements increment them and a periodic recompute trues
// them up against the order tables.
type AnalyticsService struct {
	db            *gorm.DB
	analyticsRepo *repository.GormAnalyticsRepository
}

// NewAnalyticsService creates the service.
func NewAnalyticsService(db *gorm.DB, analyticsRepo *repository.GormAnalyticsRepository) *AnalyticsService {
	return &AnalyticsService{
		db:            db,
		analyticsRepo: analyticsRepo,
	}
}

// RecordSettlement increments the global and per-shop snapshots for one
// settled order. Best effort: failures are logged by the caller.
func (s *AnalyticsService) RecordSettlement(order *models.Order) error {
	if order == nil {
		return nil
	}
	now := time.Now()
	return s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.analyticsRepo.WithTx(tx)

		global, err := repo.GetGlobalForUpdate()
		if err != nil {
			return err
		}
		if global == nil {
			global = &models.Analytics{Months: models.NewMonthSeries()}
		}
		applySettlementIncrement(global, order.Total, now)
		if err := repo.Save(global); err != nil {
			return err
		}

		for _, shopID := range distinctShopIDs(order.Children) {
			row, err := repo.GetByShopIDForUpdate(shopID)
			if err != nil {
				return err
			}
			if row == nil {
				id := shopID
				row = &models.Analytics{ShopID: &id, Months: models.NewMonthSeries()}
			}
			applySettlementIncrement(row, shopSubtotal(order.Children, shopID), now)
			if err := repo.Save(row); err != nil {
				return err
			}
		}
		return nil
	})
}

func applySettlementIncrement(row *models.Analytics, amount models.Money, now time.Time) {
	row.TotalRevenue = models.NewMoneyFromDecimal(row.TotalRevenue.Decimal.Add(amount.Decimal).Round(2))
	row.TotalOrders++
	row.TodaysRevenue = models.NewMoneyFromDecimal(row.TodaysRevenue.Decimal.Add(amount.Decimal).Round(2))
	if len(row.Months) != 12 {
		row.Months = models.NewMonthSeries()
	}
	idx := int(now.Month()) - 1
	row.Months[idx].Total = models.NewMoneyFromDecimal(row.Months[idx].Total.Decimal.Add(amount.Decimal).Round(2))
}

// GetGlobal returns the global snapshot, zero-valued if none exists yet.
func (s *AnalyticsService) GetGlobal() (*models.Analytics, error) {
	row, err := s.analyticsRepo.GetGlobal()
	if err != nil {
		return nil, err
	}
	if row == nil {
		row = &models.Analytics{Months: models.NewMonthSeries(), TodayOrderStatus: models.StatusCounts{}}
	}
	return row, nil
}

// GetForShop returns a shop snapshot, zero-valued if none exists yet.
func (s *AnalyticsService) GetForShop(shopID uint) (*models.Analytics, error) {
	row, err := s.analyticsRepo.GetByShopID(shopID)
	if err != nil {
		return nil, err
	}
	if row == nil {
		id := shopID
		row = &models.Analytics{ShopID: &id, Months: models.NewMonthSeries(), TodayOrderStatus: models.StatusCounts{}}
	}
	return row, nil
}

type revenueRow struct {
	Total  decimal.Decimal
	Orders int64
}

type shopRevenueRow struct {
	ShopID uint
	Total  decimal.Decimal
	Orders int64
}

type monthRevenueRow struct {
	Month int
	Total decimal.Decimal
}

type statusCountRow struct {
	OrderStatus string
	Count       int64
}

// RecomputeAll rebuilds every snapshot from the order tables. Runs on a
// worker ticker; increments applied since the last run are absorbed.
func (s *AnalyticsService) RecomputeAll(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	yearStart := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())

	var totals revenueRow
	if err := db.Model(&models.Order{}).
		Select("COALESCE(SUM(total), 0) AS total, COUNT(*) AS orders").
		Where("payment_status = ?", constants.PaymentStatusSuccess).
		Scan(&totals).Error; err != nil {
		return err
	}

	var todays revenueRow
	if err := db.Model(&models.Order{}).
		Select("COALESCE(SUM(total), 0) AS total, COUNT(*) AS orders").
		Where("payment_status = ? AND updated_at >= ?", constants.PaymentStatusSuccess, today).
		Scan(&todays).Error; err != nil {
		return err
	}

	var months []monthRevenueRow
	if err := db.Model(&models.Order{}).
		Select("CAST(strftime('%m', created_at) AS INTEGER) AS month, COALESCE(SUM(total), 0) AS total").
		Where("payment_status = ? AND created_at >= ?", constants.PaymentStatusSuccess, yearStart).
		Group("month").
		Scan(&months).Error; err != nil {
		// Postgres path; sqlite strftime is unavailable there.
		months = months[:0]
		if err := db.Model(&models.Order{}).
			Select("CAST(EXTRACT(MONTH FROM created_at) AS INTEGER) AS month, COALESCE(SUM(total), 0) AS total").
			Where("payment_status = ? AND created_at >= ?", constants.PaymentStatusSuccess, yearStart).
			Group("month").
			Scan(&months).Error; err != nil {
			return err
		}
	}

	var statusCounts []statusCountRow
	if err := db.Model(&models.Order{}).
		Select("order_status, COUNT(*) AS count").
		Where("created_at >= ?", today).
		Group("order_status").
		Scan(&statusCounts).Error; err != nil {
		return err
	}

	var totalShops int64
	if err := db.Model(&models.Shop{}).Count(&totalShops).Error; err != nil {
		return err
	}
	var totalVendors int64
	if err := db.Model(&models.User{}).
		Where("role = ?", constants.RoleStoreOwner).
		Count(&totalVendors).Error; err != nil {
		return err
	}

	var shopRows []shopRevenueRow
	if err := db.Model(&models.OrderChild{}).
		Select("shop_id, COALESCE(SUM(subtotal), 0) AS total, COUNT(DISTINCT order_id) AS orders").
		Where("payment_status = ?", constants.PaymentStatusSuccess).
		Group("shop_id").
		Scan(&shopRows).Error; err != nil {
		return err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		repo := s.analyticsRepo.WithTx(tx)

		global, err := repo.GetGlobalForUpdate()
		if err != nil {
			return err
		}
		if global == nil {
			global = &models.Analytics{}
		}
		global.TotalRevenue = models.NewMoneyFromDecimal(totals.Total.Round(2))
		global.TotalOrders = totals.Orders
		global.TodaysRevenue = models.NewMoneyFromDecimal(todays.Total.Round(2))
		global.TotalShops = totalShops
		global.TotalVendors = totalVendors
		global.Months = buildMonthSeries(months)
		global.TodayOrderStatus = buildStatusCounts(statusCounts)
		if err := repo.Save(global); err != nil {
			return err
		}

		for _, sr := range shopRows {
			row, err := repo.GetByShopIDForUpdate(sr.ShopID)
			if err != nil {
				return err
			}
			if row == nil {
				id := sr.ShopID
				row = &models.Analytics{ShopID: &id}
			}
			row.TotalRevenue = models.NewMoneyFromDecimal(sr.Total.Round(2))
			row.TotalOrders = sr.Orders
			if len(row.Months) != 12 {
				row.Months = models.NewMonthSeries()
			}
			if err := repo.Save(row); err != nil {
				return err
			}
		}

		// True up denormalized shop counters.
		if err := tx.Exec(`UPDATE shops SET products_count = (SELECT COUNT(*) FROM products WHERE products.shop_id = shops.id AND products.deleted_at IS NULL)`).Error; err != nil {
			return err
		}
		return tx.Exec(`UPDATE shops SET orders_count = (SELECT COUNT(DISTINCT order_id) FROM order_children WHERE order_children.shop_id = shops.id)`).Error
	})
	if err != nil {
		return err
	}

	logger.S().Infow("analytics_recompute_done",
		"total_orders", totals.Orders,
		"total_shops", totalShops,
	)
	return nil
}

func buildMonthSeries(rows []monthRevenueRow) models.MonthSeries {
	series := models.NewMonthSeries()
	for _, row := range rows {
		if row.Month < 1 || row.Month > 12 {
			continue
		}
		series[row.Month-1].Total = models.NewMoneyFromDecimal(row.Total.Round(2))
	}
	return series
}

func buildStatusCounts(rows []statusCountRow) models.StatusCounts {
	counts := models.StatusCounts{}
	for _, row := range rows {
		if row.OrderStatus == "" {
			continue
		}
		counts[row.OrderStatus] = row.Count
	}
	return counts
}
