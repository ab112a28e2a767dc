package main

import (
	"os"

	"github.com/edoto/marketplace/internal/config"
	"github.com/edoto/marketplace/internal/constants"
	"github.com/edoto/marketplace/internal/logger"
	"github.com/edoto/marketplace/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	db, err := models.Open(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	})
	if err != nil {
		stdLog.Fatalf("failed to connect database: %v", err)
	}

	if err := models.AutoMigrate(db); err != nil {
		stdLog.Fatalf("failed to migrate database: %v", err)
	}

	adminPassword := os.Getenv("EDOTO_ADMIN_PASSWORD")
	if adminPassword == "" {
		adminPassword = "change-me-now"
		stdLog.Printf("EDOTO_ADMIN_PASSWORD not set, using placeholder password")
	}

	admin := seedUser(db, stdLog, models.User{
		Name:  "Platform Admin",
		Email: "admin@edoto.local",
		Role:  constants.RoleSuperAdmin,
	}, adminPassword)

	pickupPoints := []models.PickupPoint{
		{Name: "Cotonou Ganhi", City: "Cotonou", Address: "Boulevard Saint Michel, Ganhi", Phone: "+22990000001"},
		{Name: "Porto-Novo Centre", City: "Porto-Novo", Address: "Avenue Victor Ballot", Phone: "+22990000002"},
	}
	for i := range pickupPoints {
		var existing models.PickupPoint
		if err := db.Where("name = ?", pickupPoints[i].Name).First(&existing).Error; err == nil {
			pickupPoints[i] = existing
			stdLog.Printf("pickup point already exists: %s", existing.Name)
			continue
		}
		if err := db.Create(&pickupPoints[i]).Error; err != nil {
			stdLog.Fatalf("failed to create pickup point %s: %v", pickupPoints[i].Name, err)
		}
		stdLog.Printf("created pickup point: %s", pickupPoints[i].Name)
	}

	operator := seedUser(db, stdLog, models.User{
		Name:          "Ganhi Operator",
		Email:         "operator.ganhi@edoto.local",
		Role:          constants.RolePickupPoint,
		PickupPointID: &pickupPoints[0].ID,
	}, adminPassword)
	_ = operator

	owner := seedUser(db, stdLog, models.User{
		Name:  "Awa Traore",
		Email: "awa@edoto.local",
		Role:  constants.RoleStoreOwner,
		Phone: "+22991000001",
	}, adminPassword)

	categories := []models.Category{
		{Name: "Electronics", Slug: "electronics"},
		{Name: "Fashion", Slug: "fashion"},
		{Name: "Home", Slug: "home"},
	}
	categoryIDs := map[string]uint{}
	for i := range categories {
		var existing models.Category
		if err := db.Where("slug = ?", categories[i].Slug).First(&existing).Error; err == nil {
			categoryIDs[existing.Slug] = existing.ID
			stdLog.Printf("category already exists: %s", existing.Slug)
			continue
		}
		if err := db.Create(&categories[i]).Error; err != nil {
			stdLog.Fatalf("failed to create category %s: %v", categories[i].Slug, err)
		}
		categoryIDs[categories[i].Slug] = categories[i].ID
		stdLog.Printf("created category: %s", categories[i].Slug)
	}

	shop := models.Shop{
		OwnerID:     owner.ID,
		Name:        "Awa Electronics",
		Slug:        "awa-electronics",
		Description: "Phones and accessories, Cotonou",
		IsActive:    true,
	}
	var existingShop models.Shop
	if err := db.Where("slug = ?", shop.Slug).First(&existingShop).Error; err == nil {
		shop = existingShop
		stdLog.Printf("shop already exists: %s", shop.Slug)
	} else if err := db.Create(&shop).Error; err != nil {
		stdLog.Fatalf("failed to create shop %s: %v", shop.Slug, err)
	} else {
		stdLog.Printf("created shop: %s", shop.Slug)
	}

	electronicsID := categoryIDs["electronics"]
	products := []models.Product{
		{
			ShopID:     shop.ID,
			CategoryID: &electronicsID,
			Name:       "Android Smartphone 128GB",
			Slug:       "android-smartphone-128gb",
			Price:      models.NewMoneyFromDecimal(decimal.NewFromInt(85000)),
			Quantity:   25,
			Status:     constants.ProductStatusPublished,
		},
		{
			ShopID:     shop.ID,
			CategoryID: &electronicsID,
			Name:       "Wireless Earbuds",
			Slug:       "wireless-earbuds",
			Price:      models.NewMoneyFromDecimal(decimal.NewFromInt(15000)),
			SalePrice:  models.NewMoneyFromDecimal(decimal.NewFromInt(12000)),
			Quantity:   60,
			Status:     constants.ProductStatusPublished,
		},
	}
	created := int64(0)
	for i := range products {
		var existing models.Product
		if err := db.Where("slug = ?", products[i].Slug).First(&existing).Error; err == nil {
			stdLog.Printf("product already exists: %s", existing.Slug)
			continue
		}
		if err := db.Create(&products[i]).Error; err != nil {
			stdLog.Fatalf("failed to create product %s: %v", products[i].Slug, err)
		}
		created++
		stdLog.Printf("created product: %s", products[i].Slug)
	}
	if created > 0 {
		if err := db.Model(&models.Shop{}).Where("id = ?", shop.ID).
			UpdateColumn("products_count", gorm.Expr("products_count + ?", created)).Error; err != nil {
			stdLog.Printf("failed to bump products_count: %v", err)
		}
	}

	stdLog.Printf("seed complete, admin user id=%d", admin.ID)
}

func seedUser(db *gorm.DB, stdLog interface{ Printf(string, ...interface{}) }, user models.User, password string) models.User {
	var existing models.User
	if err := db.Where("email = ?", user.Email).First(&existing).Error; err == nil {
		stdLog.Printf("user already exists: %s", existing.Email)
		return existing
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		stdLog.Printf("failed to hash password for %s: %v", user.Email, err)
		return user
	}
	user.PasswordHash = string(hash)
	user.IsActive = true
	if err := db.Create(&user).Error; err != nil {
		stdLog.Printf("failed to create user %s: %v", user.Email, err)
		return user
	}
	stdLog.Printf("created user: %s (%s)", user.Email, user.Role)
	return user
}
