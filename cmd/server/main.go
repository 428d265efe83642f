package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vogiaan1904/ticketbottle-checkout/config"
	httpDelivery "github.com/vogiaan1904/ticketbottle-checkout/internal/delivery/http"
	"github.com/vogiaan1904/ticketbottle-checkout/internal/delivery/kafka/producer"
	infraPg "github.com/vogiaan1904/ticketbottle-checkout/internal/infra/postgres"
	infraRedis "github.com/vogiaan1904/ticketbottle-checkout/internal/infra/redis"
	"github.com/vogiaan1904/ticketbottle-checkout/internal/payment"
	pgRepo "github.com/vogiaan1904/ticketbottle-checkout/internal/repository/postgres"
	redisRepo "github.com/vogiaan1904/ticketbottle-checkout/internal/repository/redis"
	"github.com/vogiaan1904/ticketbottle-checkout/internal/service"
	pkgKafka "github.com/vogiaan1904/ticketbottle-checkout/pkg/kafka"
	pkgLog "github.com/vogiaan1904/ticketbottle-checkout/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	l := pkgLog.InitializeZapLogger(pkgLog.ZapConfig{
		Level:    cfg.Log.Level,
		Mode:     cfg.Log.Mode,
		Encoding: cfg.Log.Encoding,
	})

	pgPool, err := infraPg.Connect(ctx, cfg.Postgres)
	if err != nil {
		l.Fatalf(ctx, "Failed to connect to Postgres: %v", err)
	}
	defer infraPg.Disconnect(pgPool)

	if err := pgRepo.Migrate(ctx, pgPool); err != nil {
		l.Fatalf(ctx, "Failed to bootstrap schema: %v", err)
	}

	redisCli, err := infraRedis.Connect(ctx, cfg.Redis)
	if err != nil {
		l.Fatalf(ctx, "Failed to connect to Redis: %v", err)
	}
	defer infraRedis.Disconnect(redisCli)

	// Repositories
	eRepo := pgRepo.NewEventRepository(pgPool, l)
	oRepo := pgRepo.NewOrderRepository(pgPool, l)
	tRepo := pgRepo.NewTicketRepository(pgPool, l)
	otpRepo := redisRepo.NewRedisOTPRepository(redisCli, l)
	rlRepo := redisRepo.NewRedisRateLimitRepository(redisCli, l)

	// Kafka producer
	prod := producer.NewNopProducer()
	if cfg.Kafka.Enabled {
		kafkaSyncProd, err := pkgKafka.NewProducer(pkgKafka.ProducerConfig{
			Brokers:      cfg.Kafka.Brokers,
			RetryMax:     cfg.Kafka.ProducerRetryMax,
			RequiredAcks: cfg.Kafka.ProducerRequiredAcks,
		})
		if err != nil {
			l.Fatalf(ctx, "Failed to initialize Kafka producer: %v", err)
		}
		prod = producer.NewProducer(kafkaSyncProd, l)
	}
	defer prod.Close()

	payCli := payment.NewClient(cfg.Payment, l)

	// Services
	checkoutSvc := service.NewCheckoutService(eRepo, oRepo, tRepo, payCli, cfg.Checkout, l)
	fulfillSvc := service.NewFulfillmentService(oRepo, prod, l)
	ticketSvc := service.NewTicketService(tRepo, eRepo, prod, cfg.Checkout, l)
	otpSvc := service.NewOTPService(otpRepo, cfg.OTP, l)
	tokenSvc := service.NewTokenService(cfg.JWT)

	h := httpDelivery.NewHandler(
		checkoutSvc, fulfillSvc, ticketSvc, otpSvc, tokenSvc, rlRepo,
		cfg.Payment, cfg.RateLimit, pgPool, redisCli, l,
	)
	authH := httpDelivery.NewAuthHandler(h, prod)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.HTTPPort),
		Handler:      httpDelivery.NewRouter(h, authH),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		l.Infof(ctx, "HTTP server is listening on port: %d", cfg.Server.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			l.Fatalf(ctx, "Failed to serve HTTP: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	l.Infof(ctx, "Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		l.Errorf(ctx, "HTTP server shutdown: %v", err)
	}
}
