package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	"rollwise/attendance/internal/checkin"
	"rollwise/attendance/internal/config"
	"rollwise/attendance/internal/db"
	"rollwise/attendance/internal/db/sqlite"
	attendancegrpc "rollwise/attendance/internal/grpc"
	internalhttp "rollwise/attendance/internal/http"
	"rollwise/attendance/internal/logger"
	"rollwise/attendance/internal/registrar"
)

func main() {
	cfg := config.Load()

	zapLogger, err := logger.New(cfg.Environment)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer func() { _ = zapLogger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		zapLogger.Fatal("storage init failed", zap.Error(err))
	}
	defer closeStore()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			cancel()
			zapLogger.Fatal("redis ping failed", zap.Error(err))
		}
		cancel()
		defer func() {
			if err := redisClient.Close(); err != nil {
				zapLogger.Warn("redis close error", zap.Error(err))
			}
		}()
	} else {
		zapLogger.Info("REDIS_ADDR not set, check-in codes disabled")
	}

	reg := registrar.New(store, zapLogger.Named("registrar"))
	codes := checkin.New(redisClient, cfg.CheckinCodeTTL, cfg.PublicBaseURL)
	server := internalhttp.NewServer(cfg, reg, codes, zapLogger.Named("http"))
	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	var grpcServer *grpc.Server
	if cfg.ServiceAuthToken != "" {
		serviceAuthInterceptor, err := attendancegrpc.NewServiceAuthUnaryInterceptor(cfg.ServiceAuthToken)
		if err != nil {
			zapLogger.Fatal("grpc service auth init failed", zap.Error(err))
		}
		grpcServer = grpc.NewServer(grpc.UnaryInterceptor(serviceAuthInterceptor))
		attendancegrpc.RegisterRegistrarServer(grpcServer, attendancegrpc.NewRegistrarServer(reg, zapLogger.Named("grpc")))
	} else {
		zapLogger.Info("SERVICE_AUTH_TOKEN not set, grpc listener disabled")
	}

	go func() {
		zapLogger.Info("rollwise http listening", zap.String("addr", cfg.HTTPAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	if grpcServer != nil {
		go func() {
			listener, err := net.Listen("tcp", cfg.GRPCAddr)
			if err != nil {
				zapLogger.Fatal("grpc listen error", zap.Error(err))
			}
			zapLogger.Info("rollwise grpc listening", zap.String("addr", cfg.GRPCAddr))
			if err := grpcServer.Serve(listener); err != nil {
				zapLogger.Fatal("grpc server error", zap.Error(err))
			}
		}()
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		zapLogger.Warn("shutdown error", zap.Error(err))
	}
	if grpcServer != nil {
		grpcServer.GracefulStop()
	}
}

func openStore(ctx context.Context, cfg config.Config) (registrar.Store, func(), error) {
	if cfg.UseSQLite() {
		store, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	if err := db.CreateSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	return db.NewStore(pool), pool.Close, nil
}
