package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/common-repository/vatomi/internal/http/handlers"
	"github.com/common-repository/vatomi/internal/http/middleware"
	"github.com/common-repository/vatomi/internal/http/session"
	"github.com/common-repository/vatomi/internal/service"
)

// Options — параметры сборки HTTP-роутера.
type Options struct {
	Logger  *slog.Logger
	Timeout time.Duration
	// CallbackURL — redirect_uri, зарегистрированный в приложении маркетплейса.
	CallbackURL string
	// RateLimitRPM/RateLimitBurst — бюджет REST-фасада на IP; 0 отключает лимит.
	RateLimitRPM   int
	RateLimitBurst int
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc *service.Service, sm *session.Manager, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.Recover(),
		middleware.RequestID(), // до логирования, чтобы id попал в логгер
		middleware.Logging(opts.Logger),
		middleware.RequestMeta(),
		middleware.Actor(sm, svc.Actor),
	)

	if opts.Timeout > 0 {
		root.Use(middleware.Timeout(opts.Timeout))
	}

	h := handlers.New(svc, sm, opts.CallbackURL)
	limiter := middleware.NewRateLimiter(opts.RateLimitRPM, opts.RateLimitBurst)

	registerRoutes(root, h, limiter)

	return root
}

// registerRoutes — единая точка регистрации всех эндпойнтов.
func registerRoutes(r chi.Router, h *handlers.Handlers, limiter *middleware.RateLimiter) {
	// REST-фасад
	r.Route("/v1/envato", func(r chi.Router) {
		r.Use(limiter.Middleware())

		r.Get("/item_url", h.ItemURL)
		r.Get("/item_url/{id}", h.ItemURL)
		r.Get("/item_wp_url", h.ItemWPURL)
		r.Get("/item_wp_url/{id}", h.ItemWPURL)
		r.Get("/item_version", h.ItemVersion)
		r.Get("/item_version/{id}", h.ItemVersion)
		r.Get("/check_license", h.CheckLicense)
		r.Get("/check_license/{license}", h.CheckLicense)
	})

	// oauth
	r.Get("/oauth/start", h.OAuthStart)
	r.Get("/oauth/callback", h.OAuthCallback)

	// embeds
	r.Get("/embed/login-button", h.LoginButton)
	r.Get("/embed/licenses", h.Licenses)
	r.Get("/licenses/activation", h.Activation)

	// licenses
	r.Get("/licenses/action", h.LicenseAction)
	r.With(middleware.RequireActor()).Post("/licenses/refresh", h.RefreshData)

	// support
	r.Get("/support/products", h.SupportProducts)
	r.Post("/support/tickets/validate", h.ValidateTicket)

	// session
	r.Post("/session/login", h.Login)
	r.Post("/session/logout", h.Logout)
	r.Get("/session/alerts", h.Alerts)

	// admin
	r.Route("/admin", func(r chi.Router) {
		r.Use(middleware.RequireAdmin())

		r.Get("/settings", h.AdminSettings)
		r.Put("/settings", h.AdminSaveSettings)
		r.Get("/licenses", h.AdminLicenses)
		r.Get("/licenses/{id}", h.AdminLicense)
		r.Get("/audit", h.AdminAudit)
		r.Get("/gates", h.AdminGates)
		r.Patch("/gates/{id}", h.AdminUpdateGate)
		r.Get("/import", h.AdminImportCandidates)
		r.Post("/import", h.AdminImport)
	})
}
