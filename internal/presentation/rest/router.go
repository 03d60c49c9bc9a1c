package rest

import (
	"context"
	"errors"
	"net"
	"net/http"

	cartapp "eco-rewards/internal/application/cart"
	ecoproofapp "eco-rewards/internal/application/ecoproof"
	rewardsapp "eco-rewards/internal/application/rewards"
	tripapp "eco-rewards/internal/application/trip"
	"eco-rewards/internal/infrastructure/config"
	otelinfra "eco-rewards/internal/infrastructure/observability/otel"
	"eco-rewards/internal/presentation/rest/handler"
	restmiddleware "eco-rewards/internal/presentation/rest/middleware"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// HealthCheckFunc 保存先などの疎通確認
type HealthCheckFunc func(ctx context.Context) error

// Services ルーターが公開するアプリケーションサービス
type Services struct {
	Rewards  *rewardsapp.RewardsApplicationService
	Trip     *tripapp.TripApplicationService
	EcoProof *ecoproofapp.EcoProofApplicationService
	Cart     *cartapp.CartApplicationService
	Events   handler.EventStream
	Health   HealthCheckFunc
}

// Router REST APIルーター
type Router struct {
	echo            *echo.Echo
	rewardsHandler  *handler.RewardsHandler
	catalogHandler  *handler.CatalogHandler
	tripHandler     *handler.TripHandler
	ecoProofHandler *handler.EcoProofHandler
	cartHandler     *handler.CartHandler
	eventsHandler   *handler.EventsHandler
}

// NewRouter 新しいRouterを作成
func NewRouter(
	cfg *config.Config,
	logger *otelinfra.Logger,
	metrics *otelinfra.Metrics,
	services Services,
) (*Router, error) {
	if services.Rewards == nil || services.Trip == nil || services.EcoProof == nil || services.Cart == nil {
		return nil, errors.New("rest: all application services are required")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout
	e.Server.IdleTimeout = cfg.Server.IdleTimeout

	// Echoのデフォルトエラーハンドラーを無効化（カスタムエラーハンドラーを使用）
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		// エラーハンドリングミドルウェアで処理される
	}

	// ミドルウェアの設定
	setupMiddleware(e, cfg, logger, metrics)

	// ハンドラーの作成
	r := &Router{
		echo:            e,
		rewardsHandler:  handler.NewRewardsHandler(services.Rewards),
		catalogHandler:  handler.NewCatalogHandler(services.Rewards.Catalog()),
		tripHandler:     handler.NewTripHandler(services.Trip),
		ecoProofHandler: handler.NewEcoProofHandler(services.EcoProof),
		cartHandler:     handler.NewCartHandler(services.Cart),
	}
	if services.Events != nil {
		r.eventsHandler = handler.NewEventsHandler(services.Events, logger)
	}

	// ルーティングの設定
	r.setupRoutes(cfg, logger, services.Health)

	return r, nil
}

// setupMiddleware ミドルウェアを設定
func setupMiddleware(e *echo.Echo, cfg *config.Config, logger *otelinfra.Logger, metrics *otelinfra.Metrics) {
	// リカバリーミドルウェア
	e.Use(middleware.Recover())

	// CORS設定
	allowOrigins := cfg.Server.AllowedOrigins
	if len(allowOrigins) == 0 {
		allowOrigins = []string{"*"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: allowOrigins,
		AllowMethods: []string{echo.GET, echo.POST, echo.DELETE, echo.OPTIONS},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	// リクエストIDの設定
	e.Use(middleware.RequestID())

	e.Use(restmiddleware.SecurityHeadersMiddleware())

	// トレーシングミドルウェア
	e.Use(restmiddleware.TracingMiddleware())

	e.Use(restmiddleware.MetricsMiddleware(metrics))

	// ログミドルウェア
	e.Use(restmiddleware.LoggingMiddleware(logger))

	// エラーハンドリングミドルウェア
	e.Use(restmiddleware.ErrorHandlerMiddleware(logger))
}

// setupRoutes ルーティングを設定
func (r *Router) setupRoutes(cfg *config.Config, logger *otelinfra.Logger, health HealthCheckFunc) {
	e := r.echo

	// API v1グループ
	api := e.Group("/api/v1")

	// カタログは認証不要
	api.GET("/catalog", r.catalogHandler.GetCatalog)

	// 認証が必要なエンドポイント
	me := api.Group("/me", restmiddleware.AuthMiddleware(&cfg.JWT, logger))

	// 報酬
	me.GET("/rewards", r.rewardsHandler.GetSummary)
	me.GET("/rewards/history", r.rewardsHandler.GetHistory)
	me.GET("/rewards/tier", r.rewardsHandler.GetTierProgress)
	me.GET("/rewards/achievements", r.rewardsHandler.ListAchievements)
	me.POST("/rewards/award", r.rewardsHandler.AwardCredits)
	me.POST("/rewards/co2", r.rewardsHandler.AddCO2Savings)
	me.POST("/rewards/stats", r.rewardsHandler.UpdateStats)
	me.POST("/rewards/redeem", r.rewardsHandler.Redeem)
	me.POST("/rewards/redemptions/:id/use", r.rewardsHandler.UseRedemption)
	me.POST("/rewards/cart-potential", r.rewardsHandler.CalculateCartPotential)

	// トリップ。位置情報の送信はユーザーごとにレート制限する
	limiter := restmiddleware.NewRateLimiter(&cfg.RateLimit)
	me.POST("/trips", r.tripHandler.StartTrip)
	me.POST("/trips/:trip_id/fixes", r.tripHandler.SubmitFix, restmiddleware.RateLimitMiddleware(limiter, logger))
	me.GET("/trips/:trip_id", r.tripHandler.GetTrip)
	me.POST("/trips/:trip_id/end", r.tripHandler.EndTrip)

	// 写真証明
	me.POST("/eco-proof", r.ecoProofHandler.VerifyEcoProof)

	// カート
	me.GET("/cart", r.cartHandler.GetCart)
	me.POST("/cart/items", r.cartHandler.AddItem)
	me.POST("/cart/items/:item_id/decrement", r.cartHandler.DecrementItem)
	me.DELETE("/cart/items/:item_id", r.cartHandler.DeleteItem)
	me.DELETE("/cart", r.cartHandler.ClearCart)

	// リアルタイム通知
	if r.eventsHandler != nil {
		me.GET("/events", r.eventsHandler.Subscribe)
	}

	// ヘルスチェックエンドポイント（認証不要）
	e.GET("/health", func(c echo.Context) error {
		if health != nil {
			if err := health(c.Request().Context()); err != nil {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			}
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
}

// ServeHTTP http.Handler を実装
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.echo.ServeHTTP(w, req)
}

// Start サーバーを起動
// Shutdown による停止は正常終了として nil を返す
func (r *Router) Start(address string) error {
	if err := r.echo.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Serve 既存のリスナーでサーバーを起動
func (r *Router) Serve(lis net.Listener) error {
	r.echo.Listener = lis
	return r.Start("")
}

// Shutdown 処理中のリクエストを待ってサーバーを停止
func (r *Router) Shutdown(ctx context.Context) error {
	return r.echo.Shutdown(ctx)
}
