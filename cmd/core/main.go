package main

import (
	"context"
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"

	grpc_adapter "github.com/JoeShih716/go-blood-ledger/internal/app/core/adapter/in/grpc"
	memory_adapter "github.com/JoeShih716/go-blood-ledger/internal/app/core/adapter/out/memory"
	redis_adapter "github.com/JoeShih716/go-blood-ledger/internal/app/core/adapter/out/redis"
	"github.com/JoeShih716/go-blood-ledger/internal/app/core/adapter/out/sqlstore"
	"github.com/JoeShih716/go-blood-ledger/internal/app/core/usecase"
	"github.com/JoeShih716/go-blood-ledger/internal/config"
	"github.com/JoeShih716/go-blood-ledger/pkg/database"
	"github.com/JoeShih716/go-blood-ledger/pkg/logger"
	"github.com/JoeShih716/go-blood-ledger/pkg/wal"
)

// backend 組合完成的儲存層
type backend struct {
	store usecase.Store
	auth  usecase.Authenticator
	close func()
}

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to config file")
	flag.Parse()

	// 1. 載入設定
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	zl, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zl.Sync()

	ctx := context.Background()

	// 2. 初始化儲存層
	be, err := openBackend(ctx, cfg, zl)
	if err != nil {
		zl.Fatal("failed to open store", zap.String("driver", cfg.Store.Driver), zap.Error(err))
	}
	defer be.close()
	zl.Info("store ready", zap.String("driver", cfg.Store.Driver))

	// 3. 初始化 UseCase
	opts := []usecase.Option{usecase.WithLogger(zl)}
	if cfg.Redis.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			// 仍可依賴資料庫 unique index
			zl.Warn("redis unavailable, idempotency guard disabled", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		} else {
			opts = append(opts, usecase.WithIdempotencyGuard(redis_adapter.NewIdempotencyGuard(rdb, cfg.Redis.KeyTTL)))
			zl.Info("connected to redis", zap.String("addr", cfg.Redis.Addr))
		}
	}
	coreUseCase := usecase.NewCoreUseCase(be.store, be.auth, opts...)

	// 4. 初始化 gRPC Adapter (Driving Adapter)
	grpcServer := grpc_adapter.NewGrpcServer(coreUseCase, zl)

	// 5. 啟動 gRPC Server
	lis, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		zl.Fatal("failed to listen", zap.String("addr", cfg.Server.Addr), zap.Error(err))
	}

	s := grpc.NewServer(grpc.UnaryInterceptor(grpc_adapter.UnaryLoggingInterceptor(zl)))
	grpc_adapter.RegisterBloodBankServer(s, grpcServer)

	// Graceful Shutdown
	go func() {
		zl.Info("starting gRPC server", zap.String("addr", cfg.Server.Addr))
		if err := s.Serve(lis); err != nil {
			zl.Fatal("failed to serve", zap.Error(err))
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zl.Info("shutting down server")

	stopped := make(chan struct{})
	go func() {
		s.GracefulStop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(cfg.Server.ShutdownTimeout):
		zl.Warn("graceful stop timed out, forcing")
		s.Stop()
	}
	zl.Info("server exited")
}

// openBackend 依 store.driver 建立儲存層並寫入管理員帳號
func openBackend(ctx context.Context, cfg *config.Config, zl *zap.Logger) (*backend, error) {
	switch cfg.Store.Driver {
	case config.StoreMemory:
		var w *wal.WAL
		if cfg.Store.WALPath != "" {
			var err error
			w, err = wal.Open(cfg.Store.WALPath)
			if err != nil {
				return nil, err
			}
		}
		store, err := memory_adapter.NewStore(w)
		if err != nil {
			if w != nil {
				_ = w.Close()
			}
			return nil, err
		}
		for _, admin := range cfg.Admins {
			store.SetAdmin(admin.Username, admin.Password)
		}
		return &backend{
			store: store,
			auth:  store,
			close: func() {
				if w != nil {
					_ = w.Close()
				}
			},
		}, nil

	default:
		client, err := database.NewClient(cfg.Database, zl)
		if err != nil {
			return nil, err
		}
		store := sqlstore.NewStore(client)
		if err := store.Migrate(ctx); err != nil {
			_ = client.Close()
			return nil, err
		}
		for _, admin := range cfg.Admins {
			if err := store.SeedAdmin(ctx, admin.Username, admin.Password); err != nil {
				_ = client.Close()
				return nil, err
			}
		}
		return &backend{
			store: store,
			auth:  store,
			close: func() { _ = client.Close() },
		}, nil
	}
}
