package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	api "motorent-backend/internal/api/grpc"
	"motorent-backend/internal/api/grpc/interceptor"
	httpapi "motorent-backend/internal/api/http"
	"motorent-backend/internal/config"
	"motorent-backend/internal/logger"
	"motorent-backend/internal/notify"
	"motorent-backend/internal/repository/postgres"
	"motorent-backend/internal/security"
	"motorent-backend/internal/service"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config/config.dev.yaml", "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	if cfg.Log.File != "" {
		logFile := logger.NewFileWriter(logger.FileOptions{
			Path:       cfg.Log.File,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
		})
		defer logFile.Close()
		logger.Initialize(cfg.Log.Level, cfg.Log.Format, logFile)
	} else {
		logger.Initialize(cfg.Log.Level, cfg.Log.Format)
	}
	logger.Info("Starting MotoRent Backend...", "log_level", cfg.Log.Level, "log_format", cfg.Log.Format)
	logger.Info("Server configuration", "grpc_address", cfg.GetServerAddress(), "http_address", cfg.GetHTTPAddress())
	logger.Info("Database configuration", "host", cfg.Database.Host, "port", cfg.Database.Port, "database", cfg.Database.Database, "user", cfg.Database.User)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Tracing
	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.AlwaysSample())))
	otel.SetTracerProvider(tp)
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			logger.Error("Failed to shut down tracer provider", "error", err)
		}
	}()

	// Initialize Database
	db, err := postgres.Open(ctx, cfg.GetDatabaseConnectionString(), cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	if cfg.Database.AutoMigrate {
		if err := postgres.Migrate(db); err != nil {
			logger.Error("Failed to run migrations", "error", err)
			log.Fatalf("Failed to run migrations: %v", err)
		}
	}

	// Initialize Repositories
	store := postgres.NewStore(db)

	// Initialize Security
	tokenManager := security.NewTokenManager(cfg.JWT.Secret, time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute)
	authInterceptor := interceptor.NewAuthInterceptor(tokenManager)

	// Live notification transports
	var (
		publishers []notify.Publisher
		subscriber notify.Subscriber
	)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Warn("Redis unreachable, live notifications may be delayed", "addr", cfg.Redis.Addr, "error", err)
		}
		publishers = append(publishers, notify.NewRedisPublisher(rdb))
		subscriber = notify.NewRedisSubscriber(rdb)
		logger.Info("Redis notification channel enabled", "addr", cfg.Redis.Addr)
	}
	if cfg.Firebase.Enabled() {
		fcm, err := notify.NewFCMPublisher(ctx, cfg.Firebase.ProjectID, cfg.Firebase.CredentialsFile)
		if err != nil {
			logger.Error("Failed to initialize FCM, push disabled", "error", err)
		} else {
			publishers = append(publishers, fcm)
			logger.Info("FCM push enabled", "project_id", cfg.Firebase.ProjectID)
		}
	}
	publisher := notify.NewFanout(cfg.Lifecycle.StoreTimeout(), publishers...)

	// Initialize Services
	emailSvc := service.NewEmailService(cfg.Email.SendGridAPIKey, cfg.Email.FromAddress, cfg.Email.FromName)
	opts := service.LifecycleOptions{
		DepositBasisPoints: cfg.Lifecycle.DepositBasisPoints,
		Currency:           cfg.Lifecycle.Currency,
		StoreTimeout:       cfg.Lifecycle.StoreTimeout(),
	}
	availabilitySvc := service.NewAvailabilityService(store.UnitRepository, store.ReservationRepository, opts.StoreTimeout)
	paymentSvc := service.NewPaymentService(store.ReservationRepository, store.TransactionRepository, store.PaymentRepository, opts)
	noteSvc := service.NewNotificationService(store.NotificationRepository, publisher, emailSvc, opts.StoreTimeout)
	licenses := service.NewLicenseVerifier(store.RenterRepository, cfg.Lifecycle.LicenseCacheTTL())
	reservationSvc := service.NewReservationService(store.ReservationRepository, availabilitySvc, paymentSvc, noteSvc, licenses, opts)
	reconcileSvc := service.NewReconcileService(store.ReservationRepository, availabilitySvc, paymentSvc, opts.StoreTimeout)

	// Set up gRPC server
	lis, err := net.Listen("tcp", cfg.GetServerAddress())
	if err != nil {
		logger.Error("Failed to listen", "error", err, "address", cfg.GetServerAddress())
		log.Fatalf("Failed to listen: %v", err)
	}

	s := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(interceptor.Logging(), authInterceptor.Unary()),
	)

	api.RegisterServices(s, &api.Handlers{
		Reservation:  api.NewReservationHandler(reservationSvc, reconcileSvc),
		Unit:         api.NewUnitHandler(availabilitySvc),
		Payment:      api.NewPaymentHandler(paymentSvc, reservationSvc),
		Notification: api.NewNotificationHandler(noteSvc),
	})

	healthSrv := health.NewServer()
	healthpb.RegisterHealthServer(s, healthSrv)
	healthSrv.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	// Register reflection service for grpcurl
	reflection.Register(s)

	// HTTP server for the health probe and the notification stream
	router := mux.NewRouter()
	httpapi.RegisterRoutes(router, db, tokenManager, subscriber)
	httpSrv := &http.Server{
		Addr:              cfg.GetHTTPAddress(),
		Handler:           otelhttp.NewHandler(router, "motorent-http"),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.Info("HTTP server listening", "address", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		logger.Info("Shutting down...")
		healthSrv.Shutdown()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", "error", err)
		}
		s.GracefulStop()
	}()

	logger.Info("gRPC server listening", "address", cfg.GetServerAddress())
	if err := s.Serve(lis); err != nil {
		logger.Error("Failed to serve gRPC", "error", err)
		log.Fatalf("Failed to serve: %v", err)
	}
	logger.Info("Server stopped")
}
