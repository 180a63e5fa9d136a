package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/kapiree/billing-portal/internal/config"
	"github.com/kapiree/billing-portal/internal/database"
	"github.com/kapiree/billing-portal/internal/handler"
	"github.com/kapiree/billing-portal/internal/queue"
	"github.com/kapiree/billing-portal/internal/repository"
	"github.com/kapiree/billing-portal/internal/router"
	"github.com/kapiree/billing-portal/internal/token"
)

func main() {
	_ = godotenv.Load() // optional .env for local development

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	if cfg.ApplySchema {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := database.ApplySchema(ctx, db, "schema.sql"); err != nil {
			cancel()
			log.Fatalf("apply schema: %v", err)
		}
		cancel()
		log.Println("schema applied")
	}

	rdb := config.NewRedisClient() // nil when Redis is unreachable; limiter and cache degrade off

	tokens := token.NewService(cfg.JWTSecret, time.Duration(cfg.TokenTTLMin)*time.Minute)

	users := repository.NewUserRepo(db)
	roles := repository.NewRoleRepo(db)
	tenants := repository.NewTenantRepo(db)
	plans := repository.NewPlanRepo(db)
	subs := repository.NewSubscriptionRepo(db)
	packs := repository.NewCreditPackRepo(db)
	addOns := repository.NewAddOnRepo(db)
	transactions := repository.NewTransactionRepo(db)
	resetTokens := repository.NewResetTokenRepo(db)

	deps := router.Deps{
		Tokens:        tokens,
		Auth:          handler.NewAuthHandler(cfg, users, roles, tenants, tokens),
		Password:      handler.NewPasswordHandler(cfg, users, resetTokens),
		Users:         handler.NewUserAdminHandler(users, roles),
		Roles:         handler.NewRoleAdminHandler(roles),
		Tenants:       handler.NewTenantHandler(tenants),
		Subscriptions: handler.NewSubscriptionHandler(subs, users, packs, addOns, transactions),
		Purchases:     handler.NewPurchaseHandler(users, packs, addOns, transactions),
		Catalog:       handler.NewCatalogHandler(plans, packs, addOns),
		Redis:         rdb,
		RateLimitConf: config.LoadRateLimitConfig(),
		CacheConf:     config.LoadCacheConfig(),
	}

	// Audit consumer runs for the process lifetime, reconnecting on its own.
	go func() {
		if err := queue.StartBillingConsumer(); err != nil {
			log.Printf("billing consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	router.RegisterRoutes(e)
	router.RegisterAPI(e, deps)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
