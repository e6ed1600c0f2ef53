package main

import (
	"log/slog"
	"os"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/gateway"
	"app/internal/handler"
	"app/internal/infra/db"
	infraRepo "app/internal/infra/repository"
	"app/internal/notifier"
	"app/internal/server"
	"app/internal/usecase"

	"github.com/joho/godotenv"
)

func main() {
	//.envは無くてもよい（本番は環境変数で渡す）
	_ = godotenv.Load("../.env")

	//JSONの構造化ログをデフォルトにする
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		slog.Error("db connect failed", "error", err)
		os.Exit(1)
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Order{},
		&model.OrderItem{},
		&model.StatusHistory{},
		&model.AuditLog{},
	); err != nil {
		slog.Error("db migrate failed", "error", err)
		os.Exit(1)
	}

	//Repository（GORM実装）生成
	tx := infraRepo.NewTxManagerGorm(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)

	//外部コラボレータ
	gw := gateway.NewHostedGateway(cfg.GatewayBaseURL, cfg.GatewayAPIKey)

	var n notifier.Notifier = notifier.Noop{}
	if cfg.RedisAddr != "" {
		n = notifier.NewRedisNotifier(cfg.RedisAddr)
	}

	//Usecase生成
	orderUC := usecase.NewOrderUsecase(tx, gw)
	lifecycleUC := usecase.NewLifecycleUsecase(tx, n)
	paymentUC := usecase.NewPaymentUsecase(tx, gw, n, usecase.DefaultRetryPolicy())
	refundUC := usecase.NewRefundUsecase(tx)
	adminUC := usecase.NewAdminOrderUsecase(tx, auditRepo)

	//Handler生成
	h := server.Handlers{
		Orders:         handler.NewOrderHandler(orderUC, lifecycleUC, paymentUC),
		AdminOrders:    handler.NewAdminOrderHandler(adminUC, lifecycleUC, refundUC),
		DeliveryOrders: handler.NewDeliveryOrderHandler(orderUC, lifecycleUC, paymentUC),
	}

	//Server起動
	slog.Info("starting api", "port", cfg.Port, "env", cfg.GoEnv)
	if err := server.Start(cfg, h); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
