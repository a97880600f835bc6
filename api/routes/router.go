package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rvillegas/onboardtrack-backend/api/controllers"
	"github.com/rvillegas/onboardtrack-backend/api/middleware"
	"github.com/rvillegas/onboardtrack-backend/internal/assignments"
	"github.com/rvillegas/onboardtrack-backend/internal/catalog"
	"github.com/rvillegas/onboardtrack-backend/internal/comments"
	"github.com/rvillegas/onboardtrack-backend/internal/steps"
	"github.com/rvillegas/onboardtrack-backend/internal/watch"
	"github.com/rvillegas/onboardtrack-backend/pkg/config"
	"github.com/rvillegas/onboardtrack-backend/pkg/logger"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config         *config.Config
	Logger         *logger.Logger
	DBPinger       controllers.Pinger
	RedisPinger    controllers.Pinger
	Catalog        catalog.Service
	Assignments    assignments.Service
	Steps          steps.Service
	Comments       comments.Service
	Watch          watch.Service
	StatsCollector *watch.StatsCollector
}

// NewRouter assembles the HTTP surface.
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DBPinger, deps.RedisPinger))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Route("/plans", func(r chi.Router) {
			r.Get("/", controllers.ListPlans(deps.Catalog, logg))
			r.Post("/", controllers.CreatePlan(deps.Catalog, logg))
			r.Route("/{planId}", func(r chi.Router) {
				r.Get("/", controllers.GetPlan(deps.Catalog, logg))
				r.Patch("/", controllers.UpdatePlan(deps.Catalog, logg))
				r.Delete("/", controllers.DeletePlan(deps.Catalog, logg))
				r.Post("/steps", controllers.AddPlanStep(deps.Catalog, logg))
				r.Patch("/steps/{stepNumber}", controllers.UpdatePlanStep(deps.Catalog, logg))
				r.Delete("/steps/{stepNumber}", controllers.DeletePlanStep(deps.Catalog, logg))
			})
		})

		r.Route("/subjects/{subjectType}/{subjectId}", func(r chi.Router) {
			r.Route("/assignments", func(r chi.Router) {
				r.Get("/", controllers.ListAssignments(deps.Assignments, logg))
				r.Post("/", controllers.AssignPlan(deps.Assignments, logg))
				r.Delete("/{planId}", controllers.RemoveAssignment(deps.Assignments, logg))
			})
			r.Route("/steps/{stepId}", func(r chi.Router) {
				r.Post("/status", controllers.SetStepStatus(deps.Steps, logg))
				r.Post("/client-pending", controllers.SetClientPending(deps.Steps, logg))
				r.Put("/client-pending-note", controllers.UpsertClientPendingNote(deps.Steps, logg))
				r.Delete("/client-pending-note", controllers.ClearClientPendingNote(deps.Steps, logg))
				r.Put("/description", controllers.UpdateCustomDescription(deps.Steps, logg))
				r.Put("/image", controllers.AttachStepImage(deps.Steps, logg))
				r.Delete("/image", controllers.RemoveStepImage(deps.Steps, logg))
			})
		})

		r.Route("/comments", func(r chi.Router) {
			r.Get("/", controllers.ListComments(deps.Comments, logg))
			r.Post("/", controllers.AddComment(deps.Comments, logg))
		})

		r.Post("/changes/poll", controllers.PollChanges(deps.Watch, logg))
		r.Get("/stats", controllers.DashboardStats(deps.StatsCollector, logg))

		r.Route("/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(deps.Watch, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(deps.Watch, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.Watch, logg))
		})
	})

	return r
}
