package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/bbeditor/internal/form"
	"github.com/hitoshi/bbeditor/internal/middleware"
	"github.com/hitoshi/bbeditor/internal/model"
)

// HealthChecker はヘルスチェックで疎通を確認する依存先。*sql.DBが満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	HealthChecker  HealthChecker
	SessionFinder  middleware.SessionFinder
	RateLimiter    *middleware.RateLimiter
	CSRFConfig     middleware.CSRFConfig
	MetricsHandler http.Handler
	Renderer       Renderer
	Logger         *slog.Logger

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// エンティティ
	EntityService EntityServiceInterface
}

// NewRouter は全エンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → Logging → CSRF → Session → RateLimit(General)
//
// /health と /metrics はミドルウェアチェーンの外に配置する。
// 送信系のPOSTには送信専用のレート制限を追加する。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())

	r.Get("/health", healthHandler(deps.HealthChecker))
	if deps.MetricsHandler != nil {
		r.Handle("/metrics", deps.MetricsHandler)
	}

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	authHandler := NewAuthHandler(deps.AuthService, deps.Renderer, deps.AuthConfig)
	entityHandler := NewEntityHandler(deps.EntityService, deps.Renderer)
	submitLimit := deps.RateLimiter.SubmitMiddleware()

	r.Group(func(r chi.Router) {
		r.Use(middleware.NewSecurityHeadersMiddleware())
		r.Use(middleware.NewLoggingMiddleware(logger))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		r.Use(middleware.NewSessionMiddleware(deps.SessionFinder))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, form.CreateURL(model.EntityKindCreator), http.StatusSeeOther)
		})

		// 認証
		r.Get(middleware.LoginPath, authHandler.LoginForm)
		r.With(submitLimit).Post(middleware.LoginPath, authHandler.Login)
		r.Post("/logout", authHandler.Logout)

		for _, kind := range model.EntityKinds {
			r.Route("/"+string(kind), func(r chi.Router) {
				// 閲覧は認証不要
				r.Get("/{bbid}", entityHandler.View(kind))
				r.Get("/{bbid}/revisions", entityHandler.Revisions(kind))

				// フォームページ（未認証はログインページへリダイレクト）
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequirePageSession())
					r.Get("/create", entityHandler.CreateForm(kind))
					r.With(submitLimit).Post("/create", entityHandler.FormAction(kind))
					r.Get("/{bbid}/edit", entityHandler.EditForm(kind))
					r.With(submitLimit).Post("/{bbid}/edit", entityHandler.FormAction(kind))
				})

				// JSON送信（未認証はエンティティ参照のない応答）
				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireAPISession(), submitLimit)
					r.Post("/create/handler", entityHandler.SubmitCreate(kind))
					r.Post("/{bbid}/edit/handler", entityHandler.SubmitEdit(kind))
				})
			})
		}
	})

	return r
}

// healthHandler はDBへの疎通を確認する。
// GET /health
func healthHandler(checker HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if checker != nil {
			if err := checker.PingContext(r.Context()); err != nil {
				http.Error(w, "unhealthy", http.StatusServiceUnavailable)
				return
			}
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("ok"))
	}
}
