package main

import (
	"time"

	"github.com/facturis-next/internal/config"
	"github.com/facturis-next/internal/crypto"
	"github.com/facturis-next/internal/logger"
	"github.com/facturis-next/internal/models"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// 开发环境演示数据：一个已配好 Trendyol/SmartBill 凭据的租户和几条开票记录。
func main() {
	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()

	if err := cfg.Validate(); err != nil {
		stdLog.Fatalf("配置校验失败: %v", err)
	}

	if err := models.InitDB(cfg.Database.Driver, cfg.Database.DSN, models.DBPoolConfig{
		MaxOpenConns:           cfg.Database.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Database.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Database.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Database.Pool.ConnMaxIdleTimeSeconds,
	}); err != nil {
		stdLog.Fatalf("数据库初始化失败: %v", err)
	}

	if err := models.AutoMigrate(); err != nil {
		stdLog.Fatalf("数据库迁移失败: %v", err)
	}

	cipher, err := crypto.NewCipher(cfg.Security.EncryptionKey)
	if err != nil {
		stdLog.Fatalf("加密密钥无效: %v", err)
	}

	var existing int64
	models.DB.Model(&models.User{}).Where("username = ?", "demo_seller").Count(&existing)
	if existing > 0 {
		stdLog.Println("演示租户已存在，跳过")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte("Demo12345"), bcrypt.DefaultCost)
	if err != nil {
		stdLog.Fatalf("密码哈希失败: %v", err)
	}

	user := models.User{
		Username:           "demo_seller",
		PasswordHash:       string(hash),
		Role:               "user",
		Status:             1,
		TrendyolSupplierID: mustEncrypt(cipher, "100200", stdLog.Fatalf),
		TrendyolAPIKey:     mustEncrypt(cipher, "demo-api-key", stdLog.Fatalf),
		TrendyolAPISecret:  mustEncrypt(cipher, "demo-api-secret", stdLog.Fatalf),
		SmartBillEmail:     mustEncrypt(cipher, "demo@example.ro", stdLog.Fatalf),
		SmartBillToken:     mustEncrypt(cipher, "demo-token", stdLog.Fatalf),
		SmartBillCIF:       mustEncrypt(cipher, "RO123456", stdLog.Fatalf),
		SmartBillSeries:    "FACT",
		Gestiune:           "Depozit",
	}
	if err := models.DB.Create(&user).Error; err != nil {
		stdLog.Fatalf("创建演示租户失败: %v", err)
	}

	now := time.Now()
	uploadedAt := now.Add(-24 * time.Hour)
	records := []models.InvoiceRecord{
		{
			UserID:        user.ID,
			OrderID:       "TY-1001",
			PackageID:     900001,
			CustomerName:  "Ion Popescu",
			InvoiceSeries: "FACT",
			InvoiceNumber: "0001",
			Status:        "uploaded",
			Amount:        models.NewMoneyFromDecimal(decimal.NewFromFloat(149.90)),
			Currency:      "RON",
			UploadedAt:    &uploadedAt,
		},
		{
			UserID:        user.ID,
			OrderID:       "TY-1002",
			PackageID:     900002,
			CustomerName:  "Maria Ionescu",
			InvoiceSeries: "FACT",
			InvoiceNumber: "0002",
			Status:        "generated",
			Amount:        models.NewMoneyFromDecimal(decimal.NewFromFloat(89.50)),
			Currency:      "RON",
		},
	}
	for i := range records {
		if err := models.DB.Create(&records[i]).Error; err != nil {
			stdLog.Fatalf("创建演示开票记录失败: %v", err)
		}
	}

	stdLog.Printf("演示数据已写入: 租户 demo_seller（密码 Demo12345），开票记录 %d 条", len(records))
}

func mustEncrypt(cipher *crypto.Cipher, plaintext string, fatalf func(string, ...interface{})) string {
	out, err := cipher.Encrypt(plaintext)
	if err != nil {
		fatalf("凭据加密失败: %v", err)
	}
	return out
}
