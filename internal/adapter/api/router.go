// Package api wires the HTTP surface of the coverage service.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/jmorand/scenepulse/internal/adapter/api/handler"
	"github.com/jmorand/scenepulse/internal/adapter/api/middleware"
	"github.com/jmorand/scenepulse/internal/adapter/realtime"
	"github.com/jmorand/scenepulse/internal/domain"
)

// RouterDeps carries everything the router mounts.
type RouterDeps struct {
	Events        domain.EventStore
	Rules         domain.RuleStore
	Alerts        domain.AlertStore
	Subscriptions domain.SubscriptionStore
	Markers       domain.MarkerStore
	Runner        handler.PipelineRunner
	SSE           *realtime.SSEBroker
	WorkspaceID   string
}

// NewRouter creates and configures the main HTTP router.
func NewRouter(deps RouterDeps, logger *slog.Logger) http.Handler {
	feedHandler := handler.NewFeedHandler(deps.Events, deps.Subscriptions, deps.Markers, logger)
	trendsHandler := handler.NewTrendsHandler(deps.Events, logger)
	alertHandler := handler.NewAlertHandler(deps.Alerts, logger)
	ruleHandler := handler.NewRuleHandler(deps.Rules, logger)
	pipelineHandler := handler.NewPipelineHandler(deps.Runner, deps.WorkspaceID, logger)

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.Logging(logger))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/feed/{userID}", func(r chi.Router) {
			r.Get("/", feedHandler.GetFeed)
			r.Get("/subscription", feedHandler.GetSubscription)
			r.Put("/subscription", feedHandler.PutSubscription)
			r.Delete("/subscription", feedHandler.DeleteSubscription)
		})

		r.Get("/trends", trendsHandler.GetTrends)

		r.Route("/alerts", func(r chi.Router) {
			r.Get("/", alertHandler.ListAlerts)
			r.Post("/{alertID}/ack", alertHandler.AcknowledgeAlert)
			r.Delete("/{alertID}", alertHandler.DeleteAlert)
		})

		r.Route("/workspaces/{workspaceID}/rules", func(r chi.Router) {
			r.Get("/", ruleHandler.ListRules)
			r.Post("/", ruleHandler.CreateRule)
			r.Put("/{ruleID}", ruleHandler.UpdateRule)
			r.Delete("/{ruleID}", ruleHandler.DeleteRule)
		})

		r.Post("/pipeline/run", pipelineHandler.RunPipeline)

		if deps.SSE != nil {
			r.Get("/events/stream", deps.SSE.ServeHTTP)
		}
	})

	return r
}
