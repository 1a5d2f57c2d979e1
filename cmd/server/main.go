package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/freshmart/storefront/internal/config"
	"github.com/freshmart/storefront/internal/es"
	"github.com/freshmart/storefront/internal/gateway"
	"github.com/freshmart/storefront/internal/httpserver"
	"github.com/freshmart/storefront/internal/identity"
	"github.com/freshmart/storefront/internal/models"
	"github.com/freshmart/storefront/internal/mykafka"
	"github.com/freshmart/storefront/internal/repo"
	"github.com/freshmart/storefront/internal/service"
	"github.com/freshmart/storefront/internal/service/search"
	pkgdb "github.com/freshmart/storefront/pkg/db"
	"github.com/freshmart/storefront/pkg/logging"
	loggingmw "github.com/freshmart/storefront/pkg/middleware/logging"
)

func main() {
	cfg := config.Load()
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.Order{}, &models.OrderItem{}); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	var producer service.Publisher
	var kafkaProducer *mykafka.Producer
	if len(cfg.KafkaBrokers) > 0 {
		kafkaProducer, err = mykafka.NewProducer(cfg.KafkaBrokers)
		if err != nil {
			log.Fatalf("kafka producer: %v", err)
		}
		producer = kafkaProducer
	} else {
		logger.Warn("kafka disabled, no brokers configured")
	}

	var orderIndex *search.OrderIndex
	var indexer service.OrderIndexer
	if cfg.ESURL != "" {
		esClient, err := es.NewClient(cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			log.Fatalf("elasticsearch client: %v", err)
		}
		orderIndex = &search.OrderIndex{ES: esClient, Index: cfg.ESOrderIndex}
		indexer = orderIndex
	} else {
		logger.Warn("order search disabled, ES_URL not configured")
	}

	pg := gateway.NewStripe(cfg.StripeSecretKey, cfg.StripeWebhookSecret)
	if !pg.WebhookEnabled() {
		logger.Warn("stripe webhook reconciliation disabled, relying on verify polling")
	}

	gormRepo := &repo.GormRepo{DB: db}
	resolver := &identity.Resolver{JWTSecret: cfg.JWTAccessSecret}

	orderSvc := &service.OrderService{
		Repo:     gormRepo,
		Producer: producer,
		Index:    indexer,
		Topic:    cfg.OrderEventsTopic,
	}
	paymentSvc := &service.PaymentService{
		Repo:     gormRepo,
		Gateway:  pg,
		Currency: cfg.PaymentCurrency,
		Producer: producer,
		Index:    indexer,
		Topic:    cfg.OrderEventsTopic,
	}

	e := echo.New()
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())

	httpserver.Register(e, &httpserver.Deps{
		OrderHandler:   &httpserver.OrderHTTP{Svc: orderSvc, Identity: resolver, Search: orderIndex},
		PaymentHandler: &httpserver.PaymentHTTP{Svc: paymentSvc, Identity: resolver},
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		log.Printf("storefront listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	if kafkaProducer != nil {
		if err := kafkaProducer.Close(); err != nil {
			log.Printf("kafka close error: %v", err)
		}
	}

	log.Println("storefront stopped")
}
