package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/mockboard/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenFinder       middleware.TokenFinder
	CORSAllowedOrigin string
	Logger            *slog.Logger
	HTTPMetrics       middleware.HTTPMetricsRecorder // nilの場合は記録しない

	// 認証
	AuthService AuthServiceInterface

	// 掲示板
	Store     BoardStore
	Sanitizer ContentSanitizer // nilの場合は保存されたテキストをそのまま返す

	// システム
	Sessions       SessionCounter
	Resetter       Resetter
	MetricsHandler http.Handler // nilの場合は/metricsを公開しない
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Logging → Metrics → Recovery → SecurityHeaders → CORS → BearerAuth（認証が必要なルートのみ）
//
// panicはRecoveryで500に変換されるため、ログとメトリクスにも500として残る。
//
// 閲覧系のルートは認証不要。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r.Use(middleware.NewLoggingMiddleware(logger))
	if deps.HTTPMetrics != nil {
		r.Use(middleware.NewMetricsMiddleware(deps.HTTPMetrics))
	}
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService)
	board := deps.Store
	if deps.Sanitizer != nil {
		board = newSanitizingStore(deps.Store, deps.Sanitizer)
	}

	postHandler := NewPostHandler(board)
	commentHandler := NewCommentHandler(board)
	userHandler := NewUserHandler(board)
	systemHandler := NewSystemHandler(deps.Store, deps.Sessions, deps.Resetter)

	requireAuth := middleware.NewBearerAuthMiddleware(deps.TokenFinder)

	r.Route("/api", func(r chi.Router) {
		// 認証
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.With(requireAuth).Get("/me", authHandler.Me)
		})

		// 投稿
		r.Route("/posts", func(r chi.Router) {
			r.Get("/", postHandler.ListPosts)
			r.With(requireAuth).Post("/", postHandler.CreatePost)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", postHandler.GetPost)
				r.Get("/comments", commentHandler.ListComments)

				r.Group(func(r chi.Router) {
					r.Use(requireAuth)
					r.Delete("/", postHandler.DeletePost)
					r.Post("/vote", postHandler.VotePost)
					r.Post("/comments", commentHandler.CreateComment)
				})
			})
		})

		// コメント
		r.Route("/comments/{id}", func(r chi.Router) {
			r.Use(requireAuth)
			r.Delete("/", commentHandler.DeleteComment)
			r.Post("/vote", commentHandler.VoteComment)
		})

		// ユーザー
		r.Route("/users/{id}", func(r chi.Router) {
			r.Get("/", userHandler.GetUser)
			r.Get("/posts", userHandler.ListUserPosts)
			r.Get("/comments", userHandler.ListUserComments)
		})

		// システム
		r.Get("/health", systemHandler.Health)
		r.Post("/reset", systemHandler.Reset)
	})

	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	return r
}
