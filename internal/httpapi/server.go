// Package httpapi wires every domain component into the chi-routed HTTP
// surface.
package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ginkoai/ginko/internal/activity"
	"github.com/ginkoai/ginko/internal/agent"
	"github.com/ginkoai/ginko/internal/billing"
	"github.com/ginkoai/ginko/internal/cache"
	"github.com/ginkoai/ginko/internal/checkpoint"
	"github.com/ginkoai/ginko/internal/decompose"
	"github.com/ginkoai/ginko/internal/document"
	"github.com/ginkoai/ginko/internal/epic"
	"github.com/ginkoai/ginko/internal/event"
	gg "github.com/ginkoai/ginko/internal/graph"
	"github.com/ginkoai/ginko/internal/graphns"
	"github.com/ginkoai/ginko/internal/httpmw"
	"github.com/ginkoai/ginko/internal/identity"
	"github.com/ginkoai/ginko/internal/logging"
	"github.com/ginkoai/ginko/internal/metrics"
	"github.com/ginkoai/ginko/internal/sprint"
	"github.com/ginkoai/ginko/internal/task"
	"github.com/ginkoai/ginko/internal/team"
)

// Server holds every component the HTTP surface dispatches into.
type Server struct {
	Log     *logging.Logger
	Metrics *metrics.Metrics

	Graph *gg.Manager

	Identity *identity.Resolver
	Gate     *identity.AccessGate
	Caps     *cache.CapabilityCache

	GraphNS     *graphns.Store
	Events      *event.Store
	Tasks       *task.Store
	Epics       *epic.Store
	Sprints     *sprint.Store
	Team        *team.Service
	Billing     *billing.Reconciler
	Activities  *activity.Store
	Checkpoints *checkpoint.Store
	Agents      *agent.Store
	Decompose   *decompose.Client
	Documents   *document.Store

	LongPollMaxWait  time.Duration
	SSEHeartbeat     time.Duration
	SSEMaxLifetime   time.Duration
	AuditLog         *httpmw.AuditLog
}

// Router builds the full chi mux: ambient middleware, health/metrics probes,
// and the versioned API surface.
func (s *Server) Router(health *httpmw.HealthChecker, rateLimiter *httpmw.RateLimiter) http.Handler {
	r := chi.NewRouter()

	r.Use(httpmw.Recovery(s.Log))
	r.Use(httpmw.Tracing)
	r.Use(httpmw.SecurityHeaders)
	r.Use(httpmw.CORS(httpmw.CORSConfig{AllowedOrigins: []string{"*"}}))
	r.Use(httpmw.BodyLimit(4 << 20))
	r.Use(httpmw.RequestLogging(s.Log))
	if s.Metrics != nil {
		r.Use(httpmw.Instrumentation("ginko-api", s.Metrics))
	}
	if s.AuditLog != nil {
		r.Use(httpmw.Audit(s.AuditLog))
	}

	r.Get("/healthz", httpmw.LiveHandler)
	r.Get("/readyz", health.ReadyHandler())
	if s.Metrics != nil {
		r.Handle("/metrics", s.Metrics.Handler())
	}

	r.Route("/api/v1", func(api chi.Router) {
		if rateLimiter != nil {
			api.Use(rateLimiter.Handler)
		}
		api.Use(s.authenticate)

		// Streaming endpoints run with no fixed request timeout; their own
		// poll loop bounds latency instead.
		api.Get("/events/stream", s.requireCapability(identity.CapRead, s.handleEventsLongPoll))
		api.Get("/events/sse", s.requireCapability(identity.CapRead, s.handleEventsSSE))

		api.Group(func(std chi.Router) {
			std.Use(httpmw.Timeout(30 * time.Second))

			std.Post("/graph/init", s.handleGraphInit)
			std.Get("/user/graph", s.handleUserGraph)
			std.Post("/graph/membership/sync", s.requireCapability(identity.CapWrite, s.handleMembershipSync))

			std.Get("/events", s.requireCapability(identity.CapRead, s.handleEventsBackward))
			std.Post("/events", s.requireCapability(identity.CapWrite, s.handleEventAppend))
			std.Get("/context/initial-load", s.requireCapability(identity.CapRead, s.handleInitialLoad))

			std.Post("/epic/check", s.requireCapability(identity.CapRead, s.handleEpicCheck))
			std.Post("/epic/decompose", s.requireCapability(identity.CapWrite, s.handleEpicDecompose))
			std.Post("/epic", s.requireCapability(identity.CapWrite, s.handleEpicCreate))
			std.Patch("/epic/{id}/status", s.requireCapability(identity.CapWrite, s.handleEpicStatus))

			std.Post("/sprint", s.requireCapability(identity.CapWrite, s.handleSprintCreate))
			std.Patch("/sprint/{id}/status", s.requireCapability(identity.CapWrite, s.handleSprintStatus))

			std.Patch("/task/{id}/status", s.requireCapability(identity.CapWrite, s.handleTaskStatus))
			std.Post("/task/{id}/claim", s.requireCapability(identity.CapWrite, s.handleTaskClaim))
			std.Post("/task/{id}/release", s.requireCapability(identity.CapWrite, s.handleTaskRelease))
			std.Get("/task/{id}/activity", s.requireCapability(identity.CapRead, s.handleTaskActivity))
			std.Post("/task/{id}/checkpoint", s.requireCapability(identity.CapWrite, s.handleCheckpointCreate))

			std.Post("/user/activity", s.requireCapability(identity.CapWrite, s.handleUserActivityUpsert))

			std.Post("/team/join", s.handleTeamJoinAccept)
			std.Get("/team/join", s.handleTeamJoinPreview)
			std.Get("/team/activity", s.requireCapability(identity.CapRead, s.handleTeamActivity))
			std.Post("/teams/{teamId}/invitations", s.handleTeamInvite)
			std.Get("/teams/{teamId}/members", s.handleTeamMembersList)
			std.Delete("/teams/{teamId}/members/{userId}", s.handleTeamMemberRemove)

			std.Get("/admin/audit", s.requireCapability(identity.CapAdmin, s.handleAdminAudit))
		})
	})

	r.Post("/webhooks/stripe", s.handleStripeWebhook)

	return r
}
