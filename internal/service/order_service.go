package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/edoto/marketplace/internal/config"
	"github.com/edoto/marketplace/internal/constants"
	"github.com/edoto/marketplace/internal/logger"
	"github.com/edoto/marketplace/internal/models"
	"github.com/edoto/marketplace/internal/payment/flutterwave"
	"github.com/edoto/marketplace/internal/payment/paystack"
	"github.com/edoto/marketplace/internal/payment/stripe"
	"github.com/edoto/marketplace/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderService owns checkout: order creation, gateway initialization and
// order reads.
type OrderService struct {
	db          *gorm.DB
	orderRepo   *repository.GormOrderRepository
	productRepo *repository.GormProductRepository
	intentRepo  *repository.GormPaymentIntentRepository
	pickupRepo  *repository.GormPickupPointRepository
	paymentCfg  *config.PaymentConfig
}

// NewOrderService creates the service.
func NewOrderService(
	db *gorm.DB,
	orderRepo *repository.GormOrderRepository,
	productRepo *repository.GormProductRepository,
	intentRepo *repository.GormPaymentIntentRepository,
	pickupRepo *repository.GormPickupPointRepository,
	paymentCfg *config.PaymentConfig,
) *OrderService {
	return &OrderService{
		db:          db,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		intentRepo:  intentRepo,
		pickupRepo:  pickupRepo,
		paymentCfg:  paymentCfg,
	}
}

// OrderItemInput is one line of the checkout cart.
type OrderItemInput struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// CreateOrderInput is the checkout request.
type CreateOrderInput struct {
	CustomerID      uint
	CustomerContact string
	CustomerName    string
	PickupPointID   *uint
	PaymentGateway  string
	SalesTax        models.Money
	Items           []OrderItemInput
}

var supportedGateways = map[string]bool{
	constants.GatewayFlutterwave: true,
	constants.GatewayFeexpay:     true,
	constants.GatewayPaystack:    true,
	constants.GatewayStripe:      true,
	constants.GatewayCash:        true,
}

// CreateOrder builds the order with one child per cart line, decrements
// stock under lock, then runs the selected gateway's initialization.
func (s *OrderService) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	gateway := strings.ToLower(strings.TrimSpace(input.PaymentGateway))
	if input.CustomerID == 0 || len(input.Items) == 0 {
		return nil, ErrOrderInvalid
	}
	if !supportedGateways[gateway] {
		return nil, fmt.Errorf("%w: %s", ErrGatewayNotSupported, gateway)
	}
	if input.SalesTax.Decimal.Sign() < 0 {
		return nil, ErrOrderInvalid
	}
	if input.PickupPointID != nil {
		point, err := s.pickupRepo.GetByID(*input.PickupPointID)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrOrderCreateFailed, err)
		}
		if point == nil {
			return nil, ErrPickupPointInvalid
		}
	}

	currency := s.currency()
	var order *models.Order

	err := s.db.Transaction(func(tx *gorm.DB) error {
		productRepo := s.productRepo.WithTx(tx)
		orderRepo := s.orderRepo.WithTx(tx)

		amount := decimal.Zero
		children := make([]models.OrderChild, 0, len(input.Items))
		for _, item := range input.Items {
			if item.Quantity <= 0 {
				return ErrOrderInvalid
			}
			product, err := productRepo.GetByIDForUpdate(item.ProductID)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrOrderCreateFailed, err)
			}
			if product == nil || product.Status != constants.ProductStatusPublished {
				return fmt.Errorf("%w: product %d", ErrProductNotFound, item.ProductID)
			}
			if product.Quantity < item.Quantity {
				return fmt.Errorf("%w: product %d", ErrProductOutOfStock, item.ProductID)
			}

			unitPrice := product.Price
			if product.SalePrice.Decimal.Sign() > 0 {
				unitPrice = product.SalePrice
			}
			subtotal := unitPrice.Decimal.Mul(decimal.NewFromInt(int64(item.Quantity)))
			amount = amount.Add(subtotal)

			product.Quantity -= item.Quantity
			if err := productRepo.Update(product); err != nil {
				return fmt.Errorf("%w: %v", ErrOrderCreateFailed, err)
			}

			children = append(children, models.OrderChild{
				ShopID:        product.ShopID,
				ProductID:     product.ID,
				ProductName:   product.Name,
				Quantity:      item.Quantity,
				UnitPrice:     unitPrice,
				Subtotal:      models.NewMoneyFromDecimal(subtotal),
				OrderStatus:   constants.OrderStatusPending,
				PaymentStatus: constants.PaymentStatusPending,
			})
		}

		order = &models.Order{
			CustomerID:      input.CustomerID,
			CustomerContact: strings.TrimSpace(input.CustomerContact),
			PickupPointID:   input.PickupPointID,
			Amount:          models.NewMoneyFromDecimal(amount),
			SalesTax:        input.SalesTax,
			Total:           models.NewMoneyFromDecimal(amount.Add(input.SalesTax.Decimal)),
			Currency:        currency,
			PaymentGateway:  gateway,
			OrderStatus:     constants.OrderStatusPending,
			PaymentStatus:   constants.PaymentStatusPending,
			TrackingNumber:  fmt.Sprintf("ORD-TMP-%d-%d", input.CustomerID, time.Now().UnixNano()),
			Children:        children,
		}
		if err := orderRepo.Create(order); err != nil {
			return fmt.Errorf("%w: %v", ErrOrderCreateFailed, err)
		}

		// The real tracking number needs the autoincrement id.
		tracking := fmt.Sprintf("ORD-%d-%d", order.ID, time.Now().UnixMilli())
		fields := map[string]interface{}{"tracking_number": tracking}
		if gateway == constants.GatewayCash {
			fields["order_status"] = constants.OrderStatusProcessing
			fields["payment_status"] = constants.PaymentStatusCash
		}
		if err := orderRepo.UpdateFields(order.ID, fields); err != nil {
			return fmt.Errorf("%w: %v", ErrOrderCreateFailed, err)
		}
		order.TrackingNumber = tracking
		if gateway == constants.GatewayCash {
			if err := orderRepo.UpdateChildrenStatus(order.ID, constants.OrderStatusProcessing, constants.PaymentStatusCash); err != nil {
				return fmt.Errorf("%w: %v", ErrOrderCreateFailed, err)
			}
			order.OrderStatus = constants.OrderStatusProcessing
			order.PaymentStatus = constants.PaymentStatusCash
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if gateway != constants.GatewayCash {
		if err := s.initializeGatewayPayment(ctx, order, input); err != nil {
			// The order stays pending; checkout can be retried against it.
			logger.S().Warnw("order_payment_init_failed",
				"tracking_number", order.TrackingNumber,
				"gateway", gateway,
				"error", err,
			)
			return order, err
		}
	}

	logger.S().Infow("order_created",
		"tracking_number", order.TrackingNumber,
		"order_id", order.ID,
		"customer_id", order.CustomerID,
		"gateway", gateway,
		"total", order.Total.String(),
	)
	return order, nil
}

// initializeGatewayPayment runs the provider handshake and records the
// pending intent plus the client-facing redirect info.
func (s *OrderService) initializeGatewayPayment(ctx context.Context, order *models.Order, input CreateOrderInput) error {
	email := strings.TrimSpace(input.CustomerContact)
	info := models.PaymentIntentInfo{Gateway: order.PaymentGateway}
	transactionRef := order.TrackingNumber

	switch order.PaymentGateway {
	case constants.GatewayFlutterwave:
		cfg := s.paymentCfg.Flutterwave
		result, err := flutterwave.Initialize(ctx, &flutterwave.Config{
			BaseURL:     cfg.BaseURL,
			SecretKey:   cfg.SecretKey,
			CallbackURL: cfg.CallbackURL,
		}, flutterwave.InitializeInput{
			TxRef:         order.TrackingNumber,
			Amount:        order.Total.Decimal,
			Currency:      order.Currency,
			CustomerEmail: email,
			CustomerName:  input.CustomerName,
			RedirectURL:   cfg.CallbackURL,
		})
		if err != nil {
			return mapGatewayError(err, flutterwave.ErrConfigInvalid, flutterwave.ErrRequestFailed, flutterwave.ErrResponseInvalid)
		}
		info.RedirectURL = result.PaymentLink
		info.Reference = order.TrackingNumber
	case constants.GatewayPaystack:
		cfg := s.paymentCfg.Paystack
		result, err := paystack.Initialize(ctx, &paystack.Config{
			BaseURL:   cfg.BaseURL,
			SecretKey: cfg.SecretKey,
		}, paystack.InitializeInput{
			Reference:     order.TrackingNumber,
			Amount:        order.Total.Decimal,
			Currency:      order.Currency,
			CustomerEmail: email,
			CallbackURL:   cfg.CallbackURL,
		})
		if err != nil {
			return mapGatewayError(err, paystack.ErrConfigInvalid, paystack.ErrRequestFailed, paystack.ErrResponseInvalid)
		}
		info.RedirectURL = result.AuthorizationURL
		info.Reference = result.Reference
	case constants.GatewayStripe:
		cfg := s.paymentCfg.Stripe
		result, err := stripe.Initialize(ctx, &stripe.Config{
			SecretKey: cfg.SecretKey,
		}, stripe.InitializeInput{
			TxRef:         order.TrackingNumber,
			Amount:        order.Total.Decimal,
			Currency:      order.Currency,
			CustomerEmail: email,
			Description:   fmt.Sprintf("order %s", order.TrackingNumber),
		})
		if err != nil {
			return mapGatewayError(err, stripe.ErrConfigInvalid, stripe.ErrRequestFailed, stripe.ErrResponseInvalid)
		}
		info.ClientSecret = result.ClientSecret
		info.Reference = result.IntentID
		transactionRef = result.IntentID
	case constants.GatewayFeexpay:
		// Feexpay runs client side through the SDK; the completion endpoint
		// verifies and settles.
		info.Reference = order.TrackingNumber
	default:
		return fmt.Errorf("%w: %s", ErrGatewayNotSupported, order.PaymentGateway)
	}

	intent := &models.PaymentIntent{
		OrderID:        order.ID,
		TrackingNumber: order.TrackingNumber,
		PaymentGateway: order.PaymentGateway,
		TransactionRef: transactionRef,
		Amount:         order.Total,
		Currency:       order.Currency,
		Status:         constants.PaymentIntentStatusPending,
		ClientSecret:   info.ClientSecret,
		RedirectURL:    info.RedirectURL,
	}
	if err := s.intentRepo.Create(intent); err != nil {
		return fmt.Errorf("%w: %v", ErrPaymentIntentCreateError, err)
	}

	info.TxRef = transactionRef
	if err := s.orderRepo.UpdateFields(order.ID, map[string]interface{}{
		"payment_intent_info": info,
	}); err != nil {
		return fmt.Errorf("%w: %v", ErrOrderUpdateFailed, err)
	}
	order.PaymentInfo = info
	return nil
}

// GetOrder loads one order by id, enforcing visibility for the actor.
func (s *OrderService) GetOrder(orderID uint, actor *models.User) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOrderFetchFailed, err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if err := s.authorizeOrderRead(order, actor); err != nil {
		return nil, err
	}
	return order, nil
}

// GetOrderByTracking loads one order by tracking number.
func (s *OrderService) GetOrderByTracking(trackingNumber string, actor *models.User) (*models.Order, error) {
	order, err := s.orderRepo.GetByTrackingNumber(strings.TrimSpace(trackingNumber))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOrderFetchFailed, err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if err := s.authorizeOrderRead(order, actor); err != nil {
		return nil, err
	}
	return order, nil
}

// GetOrders lists orders scoped to what the actor may see.
func (s *OrderService) GetOrders(filter repository.OrderListFilter, actor *models.User) ([]models.Order, int64, error) {
	if actor != nil {
		switch actor.Role {
		case constants.RoleClient:
			filter.CustomerID = actor.ID
		case constants.RolePickupPoint:
			if actor.PickupPointID == nil {
				return nil, 0, ErrAuthPermissionDenied
			}
			filter.PickupPointID = *actor.PickupPointID
		}
	}
	orders, total, err := s.orderRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrOrderFetchFailed, err)
	}
	return orders, total, nil
}

var validOrderStatuses = map[string]bool{
	constants.OrderStatusPending:    true,
	constants.OrderStatusProcessing: true,
	constants.OrderStatusAtPickup:   true,
	constants.OrderStatusCompleted:  true,
	constants.OrderStatusCancelled:  true,
}

// UpdateOrderStatus moves the parent and all children to the given status.
func (s *OrderService) UpdateOrderStatus(orderID uint, status string) (*models.Order, error) {
	if !validOrderStatuses[status] {
		return nil, ErrOrderStatusInvalid
	}

	var updated *models.Order
	err := s.db.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		order, err := orderRepo.GetByID(orderID)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrOrderFetchFailed, err)
		}
		if order == nil {
			return ErrOrderNotFound
		}
		if err := orderRepo.UpdateFields(order.ID, map[string]interface{}{
			"order_status": status,
		}); err != nil {
			return fmt.Errorf("%w: %v", ErrOrderUpdateFailed, err)
		}
		if err := orderRepo.UpdateChildrenStatus(order.ID, status, order.PaymentStatus); err != nil {
			return fmt.Errorf("%w: %v", ErrOrderUpdateFailed, err)
		}
		order.OrderStatus = status
		updated = order
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *OrderService) authorizeOrderRead(order *models.Order, actor *models.User) error {
	if actor == nil {
		return nil
	}
	switch actor.Role {
	case constants.RoleSuperAdmin, constants.RoleStoreOwner:
		return nil
	case constants.RolePickupPoint:
		if actor.PickupPointID != nil && order.PickupPointID != nil && *actor.PickupPointID == *order.PickupPointID {
			return nil
		}
		return ErrAuthPermissionDenied
	default:
		if order.CustomerID == actor.ID {
			return nil
		}
		return ErrAuthPermissionDenied
	}
}

func (s *OrderService) currency() string {
	if s.paymentCfg != nil && strings.TrimSpace(s.paymentCfg.Currency) != "" {
		return strings.ToUpper(strings.TrimSpace(s.paymentCfg.Currency))
	}
	return constants.CurrencyDefault
}
