// Package hustlersync собирает HTTP-приложение маркетплейса: зависимости, маршруты и сервер.
package hustlersync

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/hustler-sync/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/hustler-sync/internal/http/handlers/auth/password"
	"github.com/magabrotheeeer/hustler-sync/internal/http/handlers/auth/register"
	"github.com/magabrotheeeer/hustler-sync/internal/http/handlers/billing/account"
	"github.com/magabrotheeeer/hustler-sync/internal/http/handlers/billing/checkout"
	"github.com/magabrotheeeer/hustler-sync/internal/http/handlers/catalog/category"
	"github.com/magabrotheeeer/hustler-sync/internal/http/handlers/catalog/hustler"
	"github.com/magabrotheeeer/hustler-sync/internal/http/handlers/catalog/plan"
	"github.com/magabrotheeeer/hustler-sync/internal/http/handlers/info"
	"github.com/magabrotheeeer/hustler-sync/internal/http/handlers/jobpost"
	"github.com/magabrotheeeer/hustler-sync/internal/http/handlers/profile"
	"github.com/magabrotheeeer/hustler-sync/internal/http/handlers/support"
	"github.com/magabrotheeeer/hustler-sync/internal/http/middlewarectx"
	"github.com/magabrotheeeer/hustler-sync/internal/metrics"
	"github.com/magabrotheeeer/hustler-sync/internal/models"
	authservice "github.com/magabrotheeeer/hustler-sync/internal/services/auth"
	billingservice "github.com/magabrotheeeer/hustler-sync/internal/services/billing"
	catalogservice "github.com/magabrotheeeer/hustler-sync/internal/services/catalog"
	jobpostservice "github.com/magabrotheeeer/hustler-sync/internal/services/jobpost"
	supportservice "github.com/magabrotheeeer/hustler-sync/internal/services/support"
)

// Uploader сохраняет изображения из multipart-форм.
type Uploader interface {
	register.Uploader
}

// Deps зависимости, из которых строятся обработчики.
type Deps struct {
	Env       string
	StartedAt time.Time
	Auth      *authservice.AuthService
	Catalog   *catalogservice.CatalogService
	Billing   *billingservice.BillingService
	JobPosts  *jobpostservice.JobPostService
	Support   *supportservice.SupportService
	Uploader  Uploader
	Limiter   *middlewarectx.IPRateLimiter
	Gatherer  prometheus.Gatherer
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, d Deps) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	registerHandler := register.New(logger, d.Auth, d.Uploader)
	passwordHandler := password.New(logger, d.Auth)
	profileHandler := profile.New(logger, d.Auth, d.Uploader)
	categoryHandler := category.New(logger, d.Catalog)
	planHandler := plan.New(logger, d.Catalog)
	hustlerHandler := hustler.New(logger, d.Catalog, d.Uploader)
	checkoutHandler := checkout.New(logger, d.Billing)
	accountHandler := account.New(logger, d.Billing)
	jobpostHandler := jobpost.New(logger, d.JobPosts, d.Uploader)
	supportHandler := support.New(logger, d.Support, d.Uploader)

	r.Route("/api", func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(d.Limiter, logger))

		// Открытые конечные точки
		r.Get("/", info.New("hustler-sync", d.Env, d.StartedAt).ServeHTTP)

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register-client", registerHandler.Client)
			r.Post("/register-hustler", registerHandler.Hustler)
			r.Post("/login", login.New(logger, d.Auth).ServeHTTP)
			r.Post("/forgot-password", passwordHandler.Forgot)
			r.Post("/reset-password/{token}", passwordHandler.Reset)
		})

		r.Post("/service-categories", categoryHandler.Create)
		r.Get("/service-categories", categoryHandler.List)
		r.Get("/service-categories/{id}", categoryHandler.Get)

		r.Post("/subscription-plans", planHandler.Create)
		r.Get("/subscription-plans/hustler", planHandler.ListFor(models.RoleHustler))
		r.Get("/subscription-plans/client", planHandler.ListFor(models.RoleClient))
		r.Get("/subscription-plans/{id}", planHandler.Get)

		// Возврат со страницы оплаты приходит без токена.
		r.Get("/payment/subscription-plan/success", checkoutHandler.Success)
		r.Get("/payment/subscription-plan/cancel", checkoutHandler.Cancel)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(d.Auth, logger))

			r.Get("/profile", profileHandler.Get)
			r.Put("/profile", profileHandler.Update)
			r.Put("/profile/password", profileHandler.ChangePassword)
			r.Put("/profile/phone", profileHandler.ChangePhone)

			r.Post("/payments/subscription-plan/create-session", checkoutHandler.CreateSession)
			r.Get("/current-subscription-plan", accountHandler.CurrentPlan)
			r.Get("/billing-history", accountHandler.History)

			r.Get("/hustlers", hustlerHandler.List)
			r.Get("/hustlers/{id}", hustlerHandler.Get)
			r.Get("/hustlers/hustler-services/{id}", hustlerHandler.GetService)
			r.With(middlewarectx.RequireRole(models.RoleHustler, logger)).
				Post("/hustlers/hustler-services", hustlerHandler.AddService)
			r.Get("/service-provider-by-category", hustlerHandler.ByCategory)
			r.Get("/hustlers-search-by-service-name", hustlerHandler.Search)

			r.Post("/hustler-finding-posts", jobpostHandler.Create)
			r.Get("/hustler-finding-posts", jobpostHandler.List)
			r.Get("/hustler-finding-posts/{id}", jobpostHandler.Get)

			r.Post("/support-messages", supportHandler.Create)
			r.Get("/support-messages", supportHandler.List)
			r.Get("/support-messages/{id}", supportHandler.Get)
		})
	})

	r.Handle("/metrics", metrics.Handler(d.Gatherer))
	// Swagger docs endpoint
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
