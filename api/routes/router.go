package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tallyops/reportdesk-backend/api/controllers"
	"github.com/tallyops/reportdesk-backend/api/middleware"
	"github.com/tallyops/reportdesk-backend/internal/activation"
	"github.com/tallyops/reportdesk-backend/internal/clock"
	"github.com/tallyops/reportdesk-backend/internal/orders"
	"github.com/tallyops/reportdesk-backend/internal/settings"
	"github.com/tallyops/reportdesk-backend/pkg/config"
	"github.com/tallyops/reportdesk-backend/pkg/db"
	"github.com/tallyops/reportdesk-backend/pkg/logger"
	"github.com/tallyops/reportdesk-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	settingsRepo settings.Repository,
	clockService *clock.Service,
	activationService *activation.Service,
	orderService *orders.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbClient, redisClient))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.CreateOrder(orderService, logg))
			r.Get("/", controllers.ListOrders(orderService, logg, cfg.Review))
			r.Get("/pending", controllers.PendingOrders(orderService, logg))
			r.Get("/{orderId}", controllers.OrderDetail(orderService, logg))
			r.Post("/{orderId}/approve", controllers.ApproveOrder(orderService, logg))
			r.Post("/{orderId}/reject", controllers.RejectOrder(orderService, logg))
			r.Post("/{orderId}/modify-approve", controllers.ModifyApproveOrder(orderService, logg))
		})

		r.Route("/activation-codes", func(r chi.Router) {
			r.Post("/", controllers.IssueActivationCode(activationService, logg))
			r.Get("/", controllers.ListActivationCodes(activationService, logg))
			r.Post("/consume", controllers.ConsumeActivationCode(activationService, logg))
			r.Delete("/expired", controllers.PurgeActivationCodes(activationService, logg))
		})

		r.Route("/admin-groups", func(r chi.Router) {
			r.Get("/", controllers.ListAdminGroups(activationService, logg))
			r.Post("/activate", controllers.ActivateAdminGroup(activationService, logg))
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/timezone", controllers.GetTimezone(clockService, logg))
			r.Put("/timezone", controllers.SetTimezone(settingsRepo, clockService, logg))
			r.Put("/admin-group-code", controllers.SetAdminGroupCode(activationService, logg))
		})
	})

	return r
}
