package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	cartapp "eco-rewards/internal/application/cart"
	ecoproofapp "eco-rewards/internal/application/ecoproof"
	rewardsapp "eco-rewards/internal/application/rewards"
	tripapp "eco-rewards/internal/application/trip"
	"eco-rewards/internal/domain/cart"
	"eco-rewards/internal/domain/ledger"
	"eco-rewards/internal/infrastructure/catalogfile"
	"eco-rewards/internal/infrastructure/config"
	otelinfra "eco-rewards/internal/infrastructure/observability/otel"
	"eco-rewards/internal/infrastructure/persistence/boltdb"
	"eco-rewards/internal/infrastructure/persistence/mysql"
	"eco-rewards/internal/infrastructure/realtime"
	"eco-rewards/internal/infrastructure/verifier"
	grpcserver "eco-rewards/internal/presentation/grpc"
	"eco-rewards/internal/presentation/rest"

	"golang.org/x/sync/errgroup"
)

// storage 台帳・カートの保存先
type storage struct {
	ledgers ledger.LedgerRepository
	carts   cart.CartRepository
	health  rest.HealthCheckFunc
	close   func() error
}

// openStorage 設定に応じて保存先を開く
func openStorage(ctx context.Context, cfg *config.Config) (*storage, error) {
	switch cfg.Storage.Driver {
	case config.StorageDriverBolt:
		store, err := boltdb.Open(cfg.Storage.BoltPath)
		if err != nil {
			return nil, err
		}
		return &storage{
			ledgers: boltdb.NewLedgerRepository(store),
			carts:   boltdb.NewCartRepository(store),
			health:  store.HealthCheck,
			close:   store.Close,
		}, nil
	default:
		db, err := mysql.NewDB(&cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &storage{
			ledgers: mysql.NewLedgerRepository(db),
			carts:   mysql.NewCartRepository(db),
			health:  db.HealthCheck,
			close:   db.Close,
		}, nil
	}
}

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// OpenTelemetryの初期化
	tracerShutdown, err := otelinfra.InitTracer(&cfg.OpenTelemetry)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	meterShutdown, err := otelinfra.InitMeter(&cfg.OpenTelemetry)
	if err != nil {
		log.Fatalf("Failed to initialize meter: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := otelinfra.JoinShutdown(tracerShutdown, meterShutdown)(ctx); err != nil {
			log.Printf("Failed to shutdown telemetry: %v", err)
		}
	}()

	// ロガーとメトリクスの初期化
	logWriter := otelinfra.NewLogWriter(&cfg.Log)
	defer logWriter.Close()

	logger := otelinfra.NewLogger(otelinfra.Tracer("eco-rewards"), otelinfra.WithOutput(logWriter))
	metrics, err := otelinfra.NewMetrics("eco-rewards")
	if err != nil {
		log.Fatalf("Failed to create metrics: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 保存先の初期化
	store, err := openStorage(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open storage: %v", err)
	}
	defer func() {
		if err := store.close(); err != nil {
			log.Printf("Failed to close storage: %v", err)
		}
	}()

	// カタログの読み込み
	cat, err := catalogfile.Load(cfg.Catalog.Path)
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}

	// 外部検証サービスのクライアント
	tripVerifier, err := verifier.NewTripClient(cfg.Verification.TripVerifierURL, cfg.Verification.Timeout)
	if err != nil {
		log.Fatalf("Failed to create trip verifier client: %v", err)
	}
	photoVerifier, err := verifier.NewPhotoClient(cfg.Verification.PhotoVerifierURL, cfg.Verification.Timeout)
	if err != nil {
		log.Fatalf("Failed to create photo verifier client: %v", err)
	}

	hub := realtime.NewHub(logger, realtime.WithAllowedOrigins(cfg.Server.AllowedOrigins...))

	// アプリケーションサービスの初期化
	rewardsService := rewardsapp.NewRewardsApplicationService(store.ledgers, cat, hub, logger, metrics)

	tripService := tripapp.NewTripApplicationService(tripVerifier, rewardsService, logger, metrics)
	defer tripService.Close()

	ecoProofService := ecoproofapp.NewEcoProofApplicationService(
		photoVerifier,
		rewardsService,
		cfg.Verification.FallbackPolicy,
		logger,
		metrics,
	)

	cartService := cartapp.NewCartApplicationService(store.carts, hub, cfg.Cart.ReminderDelay, logger, metrics)
	defer cartService.Close()

	// REST APIルーターの初期化
	router, err := rest.NewRouter(cfg, logger, metrics, rest.Services{
		Rewards:  rewardsService,
		Trip:     tripService,
		EcoProof: ecoProofService,
		Cart:     cartService,
		Events:   hub,
		Health:   store.health,
	})
	if err != nil {
		log.Fatalf("Failed to create router: %v", err)
	}

	// gRPCサーバーの初期化
	grpcSrv, err := grpcserver.NewServer(cfg, logger, rewardsService)
	if err != nil {
		log.Fatalf("Failed to create gRPC server: %v", err)
	}

	address := fmt.Sprintf(":%d", cfg.Server.Port)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		logger.Info(gctx, "REST API server starting", map[string]interface{}{
			"address": address,
			"storage": cfg.Storage.Driver,
		})
		if err := router.Start(address); err != nil {
			return fmt.Errorf("REST API server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		if err := grpcSrv.Start(); err != nil {
			return fmt.Errorf("gRPC server: %w", err)
		}
		return nil
	})

	// シグナルまたはサーバーの異常終了でシャットダウン
	g.Go(func() error {
		<-gctx.Done()
		logger.Info(context.Background(), "Shutting down servers", nil)

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		var errs []error
		if err := router.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("REST API shutdown: %w", err))
		}
		if err := grpcSrv.Stop(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("gRPC shutdown: %w", err))
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		logger.Error(context.Background(), "Server stopped with error", err, nil)
		return
	}
	logger.Info(context.Background(), "Servers stopped", nil)
}
