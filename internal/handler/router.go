package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mask-shakill/jabotio-dashboard/internal/metrics"
	"github.com/mask-shakill/jabotio-dashboard/internal/middleware"
	"github.com/prometheus/client_golang/prometheus"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	SessionVerifier   middleware.SessionVerifier
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	Logger            *slog.Logger

	// メトリクス
	Collector metrics.MetricsCollector
	Gatherer  prometheus.Gatherer

	// 認証とプロフィール
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig
	UserService UserServiceInterface

	// 商品カタログとレビュー
	ProductService ProductServiceInterface
	ReviewService  ReviewServiceInterface

	// 静的ファイル配信
	UploadDir string
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Logging → Metrics → RateLimit(General) → Gate
//
// 認証ゲートは全ルートに適用され、許可リストのパスのみ素通りする。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewMetricsMiddleware(deps.Collector))
	r.Use(deps.RateLimiter.GeneralMiddleware())
	r.Use(middleware.NewGateMiddleware(deps.SessionVerifier))

	authHandler := NewAuthHandler(deps.AuthService, deps.AuthConfig, deps.Collector)
	userHandler := NewUserHandler(deps.UserService, deps.Collector)
	productHandler := NewProductHandler(deps.ProductService, deps.Collector)
	reviewHandler := NewReviewHandler(deps.ReviewService)

	// --- 許可リストのルート（認証不要） ---

	r.Get("/health", handleHealth)
	r.Handle("/metrics", metrics.Handler(deps.Gatherer))

	// アップロード済み画像の配信
	fileServer := http.StripPrefix("/static/uploads/", http.FileServer(http.Dir(deps.UploadDir)))
	r.Get("/static/uploads/*", fileServer.ServeHTTP)

	// --- 認証 ---

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/login", authHandler.Login)
		r.Post("/logout", authHandler.Logout)

		// ゲート通過後のみ到達できるルート
		r.Get("/user-me", authHandler.Me)
		r.With(deps.RateLimiter.UploadMiddleware()).Patch("/update", userHandler.UpdateProfile)
	})

	// --- 商品カタログとレビュー ---
	// パスはダッシュボードのフロントエンドが呼ぶ形に合わせている

	r.Route("/api/products", func(r chi.Router) {
		r.Get("/all", productHandler.List)
		// 画像アップロードを伴う更新系には専用レート制限を追加
		r.With(deps.RateLimiter.UploadMiddleware()).Post("/create", productHandler.Create)
		r.With(deps.RateLimiter.UploadMiddleware()).Patch("/update/{id}", productHandler.Update)
		r.Delete("/delete/{id}", productHandler.Delete)

		r.Get("/review-rating", reviewHandler.ListByProduct)
		r.Post("/review-rating/create", reviewHandler.Create)

		r.Get("/{id}", productHandler.Get)
	})

	return r
}

// handleHealth はロードバランサー向けのヘルスチェックレスポンスを返す。
// GET /health
func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
	})
}
