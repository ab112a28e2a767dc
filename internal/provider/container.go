package provider

import (
	"github.com/edoto/marketplace/internal/cache"
	"github.com/edoto/marketplace/internal/config"
	"github.com/edoto/marketplace/internal/events"
	"github.com/edoto/marketplace/internal/logger"
	"github.com/edoto/marketplace/internal/queue"
	"github.com/edoto/marketplace/internal/repository"
	"github.com/edoto/marketplace/internal/service"
	"github.com/edoto/marketplace/internal/storage"

	"gorm.io/gorm"
)

// Container wires repositories and services around one injected DB pool.
type Container struct {
	Config      *config.Config
	DB          *gorm.DB
	QueueClient *queue.Client
	BlobStore   storage.BlobStore
	Publisher   *events.Publisher

	// Repositories
	UserRepo           *repository.GormUserRepository
	ShopRepo           *repository.GormShopRepository
	ProductRepo        *repository.GormProductRepository
	OrderRepo          *repository.GormOrderRepository
	PendingPaymentRepo *repository.GormPendingPaymentRepository
	PaymentIntentRepo  *repository.GormPaymentIntentRepository
	WalletRepo         *repository.GormWalletRepository
	InvoiceRepo        *repository.GormInvoiceRepository
	AnalyticsRepo      *repository.GormAnalyticsRepository
	CampaignRepo       *repository.GormCampaignRepository
	CategoryRepo       *repository.GormCategoryRepository
	PickupPointRepo    *repository.GormPickupPointRepository

	// Services
	EmailService      *service.EmailService
	AuthService       *service.AuthService
	ShopService       *service.ShopService
	ProductService    *service.ProductService
	WalletService     *service.WalletService
	InvoiceService    *service.InvoiceService
	AnalyticsService  *service.AnalyticsService
	SettlementService *service.SettlementService
	OrderService      *service.OrderService
	CampaignService   *service.CampaignService
	SweeperService    *service.SweeperService
}

// NewContainer builds the dependency graph.
func NewContainer(cfg *config.Config, db *gorm.DB) *Container {
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	store, err := storage.New(cfg.Storage)
	if err != nil {
		logger.Errorw("provider_init_storage_failed", "error", err)
	}

	c := &Container{
		Config:      cfg,
		DB:          db,
		QueueClient: queueClient,
		BlobStore:   store,
		Publisher:   events.NewPublisher(cfg.Events),
	}

	c.initRepositories()
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := c.DB
	c.UserRepo = repository.NewUserRepository(db)
	c.ShopRepo = repository.NewShopRepository(db)
	c.ProductRepo = repository.NewProductRepository(db)
	c.OrderRepo = repository.NewOrderRepository(db)
	c.PendingPaymentRepo = repository.NewPendingPaymentRepository(db)
	c.PaymentIntentRepo = repository.NewPaymentIntentRepository(db)
	c.WalletRepo = repository.NewWalletRepository(db)
	c.InvoiceRepo = repository.NewInvoiceRepository(db)
	c.AnalyticsRepo = repository.NewAnalyticsRepository(db)
	c.CampaignRepo = repository.NewCampaignRepository(db)
	c.CategoryRepo = repository.NewCategoryRepository(db)
	c.PickupPointRepo = repository.NewPickupPointRepository(db)
}

func (c *Container) initServices() {
	c.EmailService = service.NewEmailService(&c.Config.Email)
	c.AuthService = service.NewAuthService(c.Config, c.UserRepo)
	c.ShopService = service.NewShopService(c.ShopRepo, c.UserRepo)
	c.ProductService = service.NewProductService(c.DB, c.ProductRepo, c.ShopRepo, c.ShopService)
	c.WalletService = service.NewWalletService(c.ShopRepo, c.WalletRepo)
	c.InvoiceService = service.NewInvoiceService(c.OrderRepo, c.ShopRepo, c.InvoiceRepo, c.BlobStore)
	c.AnalyticsService = service.NewAnalyticsService(c.DB, c.AnalyticsRepo)
	c.SettlementService = service.NewSettlementService(
		c.DB,
		c.OrderRepo,
		c.PaymentIntentRepo,
		c.PendingPaymentRepo,
		c.UserRepo,
		c.PickupPointRepo,
		c.WalletService,
		c.EmailService,
		c.InvoiceService,
		c.AnalyticsService,
		c.Publisher,
		&c.Config.Payment,
		c.Config.Settlement,
	)
	c.OrderService = service.NewOrderService(
		c.DB,
		c.OrderRepo,
		c.ProductRepo,
		c.PaymentIntentRepo,
		c.PickupPointRepo,
		&c.Config.Payment,
	)
	c.CampaignService = service.NewCampaignService(c.DB, c.CampaignRepo, c.EmailService, c.QueueClient)
	c.SweeperService = service.NewSweeperService(c.PendingPaymentRepo, c.PaymentIntentRepo, c.QueueClient, c.Config.Settlement)
}
