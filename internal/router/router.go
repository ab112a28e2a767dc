package router

import (
	"fmt"
	"strings"

	"github.com/edoto/marketplace/internal/cache"
	"github.com/edoto/marketplace/internal/config"
	"github.com/edoto/marketplace/internal/constants"
	adminhandlers "github.com/edoto/marketplace/internal/http/handlers/admin"
	publichandlers "github.com/edoto/marketplace/internal/http/handlers/public"
	"github.com/edoto/marketplace/internal/logger"
	"github.com/edoto/marketplace/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter wires the HTTP surface.
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	publicHandler := publichandlers.New(c)
	adminHandler := adminhandlers.New(c)

	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = constants.RedisPrefixDefault
	}
	redisClient := cache.Client()
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxAttempts,
	}
	otpRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:otp", redisPrefix),
		WindowSeconds: cfg.Security.OTPRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.OTPRateLimit.MaxAttempts,
	}

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	// Generated invoice PDFs when the local blob store is active.
	r.Static("/invoices", "./storage/invoices")

	authRequired := JWTAuthMiddleware(cfg.JWT.SecretKey, c.UserRepo)

	apiV1 := r.Group("/api/v1")
	{
		// Catalog, no auth required.
		public := apiV1.Group("/public")
		{
			public.GET("/products", publicHandler.ListProducts)
			public.GET("/shops", publicHandler.ListShops)
			public.GET("/campaigns", publicHandler.ListCampaigns)
			public.POST("/campaigns/register", RateLimitMiddleware(redisClient, otpRule, KeyByIPAndJSONField("phone")), publicHandler.CampaignRegister)
			public.POST("/campaigns/verify-kit-otp", RateLimitMiddleware(redisClient, otpRule, KeyByIPAndJSONField("phone")), publicHandler.CampaignVerifyKitOTP)
		}

		auth := apiV1.Group("/auth")
		{
			auth.POST("/register", publicHandler.Register)
			auth.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("email")), publicHandler.Login)
		}

		// Gateway callbacks authenticate through signatures, not sessions.
		webhooks := apiV1.Group("/webhooks")
		{
			webhooks.POST("/flutterwave", publicHandler.FlutterwaveWebhook)
			webhooks.POST("/paystack", publicHandler.PaystackWebhook)
			webhooks.POST("/stripe", publicHandler.StripeWebhook)
		}

		user := apiV1.Group("")
		user.Use(authRequired)
		{
			user.POST("/orders", publicHandler.CreateOrder)
			user.GET("/orders", publicHandler.MyOrders)
			user.GET("/orders/:id", publicHandler.GetOrder)
			user.POST("/payments/confirm", publicHandler.ConfirmPayment)
			user.POST("/payments/feexpay/complete", publicHandler.FeexpayComplete)
		}

		pickup := apiV1.Group("/pickup")
		pickup.Use(authRequired, RequireRoles(constants.RolePickupPoint))
		{
			pickup.POST("/orders/verify-otp", RateLimitMiddleware(redisClient, otpRule, KeyByIP), publicHandler.VerifyPickupOTP)
		}

		admin := apiV1.Group("/admin")
		admin.Use(authRequired)
		{
			// Store owners manage their own shops and products.
			owner := admin.Group("")
			owner.Use(RequireRoles(constants.RoleSuperAdmin, constants.RoleStoreOwner))
			{
				owner.GET("/shops/:id/analytics", adminHandler.GetShopAnalytics)
				owner.POST("/products", adminHandler.CreateProduct)
			}

			authorized := admin.Group("")
			authorized.Use(RequireRoles(constants.RoleSuperAdmin))
			{
				authorized.GET("/analytics", adminHandler.GetAnalytics)

				authorized.GET("/orders", adminHandler.ListOrders)
				authorized.PUT("/orders/:id/status", adminHandler.UpdateOrderStatus)

				authorized.POST("/shops", adminHandler.CreateShop)
				authorized.GET("/shops", adminHandler.ListShops)
				authorized.GET("/shops/:id/wallet", adminHandler.ListWalletTransactions)

				authorized.POST("/campaigns", adminHandler.CreateCampaign)
				authorized.PUT("/campaigns/:id", adminHandler.UpdateCampaign)
				authorized.GET("/campaigns", adminHandler.ListCampaigns)

				authorized.GET("/pending-payments", adminHandler.ListPendingPayments)
				authorized.POST("/sweeps/pending-payments", adminHandler.TriggerPendingSweep)
				authorized.POST("/sweeps/invoices", adminHandler.TriggerInvoiceSweep)
				authorized.POST("/sweeps/analytics", adminHandler.TriggerAnalyticsRefresh)
			}
		}
	}

	return r
}
