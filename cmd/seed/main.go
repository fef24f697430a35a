package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/storefront-next/internal/config"
	"github.com/storefront-next/internal/logger"
	"github.com/storefront-next/internal/models"
)

func main() {
	// 连接数据库
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("Failed to connect database: %v", err)
	}

	// 自动迁移
	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("Failed to migrate database: %v", err)
	}

	// 默认管理员
	if err := models.InitDefaultAdmin(cfg.Seed.AdminUsername, cfg.Seed.AdminPassword); err != nil {
		stdLog.Printf("Failed to init default admin: %v", err)
	}

	// 添加商品
	products := []models.Product{
		{
			Title:       "Wireless Bluetooth Earphones",
			Description: "High quality sound, long battery life, comfortable to wear",
			Category:    "electronics",
			Image:       "https://images.unsplash.com/photo-1590658268037-6bf12165a8df?w=800",
			Price:       models.NewMoneyFromFloat(99.99),
			RatingRate:  4.5,
			RatingCount: 321,
			IsActive:    true,
			SortOrder:   400,
		},
		{
			Title:       "Smart Watch",
			Description: "Health monitoring, fitness tracking, message notifications",
			Category:    "electronics",
			Image:       "https://images.unsplash.com/photo-1579586337278-3befd40fd17a?w=800",
			Price:       models.NewMoneyFromFloat(199.99),
			RatingRate:  4.2,
			RatingCount: 188,
			IsActive:    true,
			SortOrder:   390,
		},
		{
			Title:       "Portable Power Bank",
			Description: "High capacity, fast charging, multi-device compatible",
			Category:    "accessories",
			Image:       "https://images.unsplash.com/photo-1609091839311-d5365f9ff1c5?w=800",
			Price:       models.NewMoneyFromFloat(49.99),
			RatingRate:  4.7,
			RatingCount: 502,
			IsActive:    true,
			SortOrder:   380,
		},
		{
			Title:       "Multi-function Backpack",
			Description: "Large capacity, waterproof and anti-theft, USB charging port",
			Category:    "lifestyle",
			Image:       "https://images.unsplash.com/photo-1553062407-98eeb64c6a62?w=800",
			Price:       models.NewMoneyFromFloat(79.99),
			RatingRate:  4.4,
			RatingCount: 264,
			IsActive:    true,
			SortOrder:   370,
		},
		{
			Title:        "Retro Film Camera",
			Description:  "Discontinued collector model, no longer for sale",
			Category:     "electronics",
			Image:        "https://images.unsplash.com/photo-1495707902641-75cac588d2e9?w=800",
			Price:        models.NewMoneyFromFloat(149.99),
			RatingRate:   4.9,
			RatingCount:  77,
			IsActive:     false,
			Discontinued: true,
			SortOrder:    100,
		},
	}

	for _, prod := range products {
		var existing models.Product
		if err := models.DB.Where("title = ?", prod.Title).First(&existing).Error; err != nil {
			if err := models.DB.Create(&prod).Error; err != nil {
				stdLog.Printf("Failed to create product %s: %v", prod.Title, err)
			} else {
				stdLog.Printf("Created product: %s", prod.Title)
			}
		} else {
			stdLog.Printf("Product already exists: %s", prod.Title)
		}
	}

	// 添加优惠券
	expiry := time.Now().AddDate(0, 3, 0)
	pastExpiry := time.Now().AddDate(0, -1, 0)
	coupons := []models.Coupon{
		{
			Code:     "BLACKFRIDAY",
			Type:     models.CouponTypePercent,
			Value:    models.NewMoneyFromFloat(20),
			IsActive: false,
		},
		{
			Code:      "CYBERMONDAY",
			Type:      models.CouponTypePercent,
			Value:     models.NewMoneyFromFloat(25),
			ExpiresAt: &pastExpiry,
			IsActive:  true,
		},
		{
			Code:           "SUMMERSALE",
			Type:           models.CouponTypeFixed,
			Value:          models.NewMoneyFromFloat(15),
			MinPurchase:    models.NewMoneyFromFloat(50),
			MinPurchaseSet: true,
			ExpiresAt:      &expiry,
			IsActive:       true,
		},
		{
			Code:      "WINTERSALE",
			Type:      models.CouponTypePercent,
			Value:     models.NewMoneyFromFloat(30),
			ExpiresAt: &expiry,
			IsActive:  true,
		},
		{
			Code:     "CODINGTEMPLE",
			Type:     models.CouponTypePercent,
			Value:    models.NewMoneyFromFloat(99.99),
			IsActive: true,
		},
	}

	for _, coupon := range coupons {
		var existing models.Coupon
		if err := models.DB.Where("code = ?", coupon.Code).First(&existing).Error; err != nil {
			if err := models.DB.Create(&coupon).Error; err != nil {
				stdLog.Printf("Failed to create coupon %s: %v", coupon.Code, err)
			} else {
				stdLog.Printf("Created coupon: %s", coupon.Code)
			}
		} else {
			stdLog.Printf("Coupon already exists: %s", coupon.Code)
		}
	}

	// 从文件导入优惠券文档（兼容历史字段拼写）
	imported := 0
	if cfg.Seed.CouponFile != "" {
		raw, err := os.ReadFile(cfg.Seed.CouponFile)
		if err != nil {
			stdLog.Printf("Failed to read coupon file %s: %v", cfg.Seed.CouponFile, err)
		} else {
			var documents []models.CouponDocument
			if err := json.Unmarshal(raw, &documents); err != nil {
				stdLog.Printf("Failed to parse coupon file %s: %v", cfg.Seed.CouponFile, err)
			} else {
				for _, doc := range documents {
					coupon := doc.ToCoupon()
					var existing models.Coupon
					if err := models.DB.Where("code = ?", coupon.Code).First(&existing).Error; err == nil {
						continue
					}
					if err := models.DB.Create(&coupon).Error; err != nil {
						stdLog.Printf("Failed to import coupon %s: %v", coupon.Code, err)
						continue
					}
					imported++
				}
				stdLog.Printf("Imported %d coupons from %s", imported, cfg.Seed.CouponFile)
			}
		}
	}

	fmt.Println("\n✅ Seed data created successfully!")
	fmt.Println("Summary:")
	fmt.Printf("- %d Products\n", len(products))
	fmt.Printf("- %d Coupons", len(coupons))
	if imported > 0 {
		fmt.Printf(" (+%d imported)", imported)
	}
	fmt.Println()
}
