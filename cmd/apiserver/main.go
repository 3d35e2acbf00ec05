// Command apiserver is the Ginko API server composition root: it wires every
// domain component into an httpapi.Server, registers background sweeps, and
// serves the chi mux until signalled to shut down.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/ginkoai/ginko/internal/activity"
	"github.com/ginkoai/ginko/internal/agent"
	"github.com/ginkoai/ginko/internal/billing"
	"github.com/ginkoai/ginko/internal/cache"
	"github.com/ginkoai/ginko/internal/checkpoint"
	"github.com/ginkoai/ginko/internal/config"
	"github.com/ginkoai/ginko/internal/decompose"
	"github.com/ginkoai/ginko/internal/document"
	"github.com/ginkoai/ginko/internal/epic"
	"github.com/ginkoai/ginko/internal/event"
	gg "github.com/ginkoai/ginko/internal/graph"
	"github.com/ginkoai/ginko/internal/graphns"
	"github.com/ginkoai/ginko/internal/httpapi"
	"github.com/ginkoai/ginko/internal/httpmw"
	"github.com/ginkoai/ginko/internal/identity"
	"github.com/ginkoai/ginko/internal/logging"
	"github.com/ginkoai/ginko/internal/metrics"
	"github.com/ginkoai/ginko/internal/relational"
	"github.com/ginkoai/ginko/internal/sprint"
	"github.com/ginkoai/ginko/internal/statuschange"
	"github.com/ginkoai/ginko/internal/streambus"
	"github.com/ginkoai/ginko/internal/task"
	"github.com/ginkoai/ginko/internal/team"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := logging.New("ginko-api", cfg.LogLevel, cfg.LogFormat)
	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New("ginko-api")
	}

	rootCtx := context.Background()

	graphManager, err := gg.NewManager(rootCtx, cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
	if err != nil {
		log.Fatalf("connect neo4j: %v", err)
	}
	defer graphManager.Close(rootCtx)
	if err := graphManager.Bootstrap(rootCtx); err != nil {
		log.Fatalf("bootstrap graph schema: %v", err)
	}

	relClient := relational.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey)
	repo := relational.NewRepository(relClient)
	memberships := relational.NewMembershipAdapter(repo)

	sessions := identity.NewSupabaseSessionVerifier(cfg.SupabaseJWTSecret)
	resolver := identity.NewResolver([]byte(cfg.APIKeySecret), sessions)

	graphStore := graphns.NewStore(graphManager)
	gate := identity.NewAccessGate(graphStore, memberships)
	caps := cache.NewCapabilityCache(gate, 30*time.Second)

	bus := streambus.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	defer bus.Close()

	events := event.NewStore(graphManager).WithBus(bus)
	statusChg := statuschange.NewEmitter(graphManager, events)
	activities := activity.NewStore(graphManager)
	tasks := task.NewStore(graphManager, statusChg, activities)
	epics := epic.NewStore(graphManager, statusChg)
	sprints := sprint.NewStore(graphManager, statusChg)
	checkpoints := checkpoint.NewStore(graphManager)
	documents := document.NewStore(graphManager)

	agents := agent.NewStore(graphManager)
	reaper := agent.NewReaper(agents, cfg.StaleAgentGrace(), logger, func(ctx context.Context, taskID, graphID, agentID string) error {
		_, err := tasks.Release(ctx, taskID, graphID, agentID)
		return err
	})

	billingReconciler := billing.NewReconciler(repo, cfg.StripeWebhookSecret, cfg.StripeSecretKey, logger)
	teamService := team.NewService(repo, billingReconciler)

	decomposeClient := decompose.NewClient(cfg.AnthropicAPIKey)

	auditLog := httpmw.NewAuditLog(1000)

	server := &httpapi.Server{
		Log:     logger,
		Metrics: m,

		Graph: graphManager,

		Identity: resolver,
		Gate:     gate,
		Caps:     caps,

		GraphNS:     graphStore,
		Events:      events,
		Tasks:       tasks,
		Epics:       epics,
		Sprints:     sprints,
		Team:        teamService,
		Billing:     billingReconciler,
		Activities:  activities,
		Checkpoints: checkpoints,
		Agents:      agents,
		Decompose:   decomposeClient,
		Documents:   documents,

		LongPollMaxWait: cfg.LongPollMaxWait(),
		SSEHeartbeat:    cfg.SSEHeartbeat(),
		SSEMaxLifetime:  cfg.SSEMaxLifetime(),
		AuditLog:        auditLog,
	}

	health := httpmw.NewHealthChecker()
	health.RegisterCheck("graph", func() error { return graphManager.Ping(rootCtx) })
	health.RegisterCheck("relational", func() error { return relClient.Ping(rootCtx) })
	health.RegisterCheck("streambus", func() error { return bus.Ping(rootCtx) })

	rateLimiter := httpmw.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, logger)

	sched := cron.New()
	if _, err := sched.AddFunc("@every 1m", func() {
		reaper.Sweep(rootCtx)
	}); err != nil {
		log.Fatalf("schedule stale-agent sweep: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server.Router(health, rateLimiter),
	}

	go func() {
		logger.WithFields(map[string]interface{}{"port": cfg.Port}).Info("ginko-api listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("graceful shutdown: %v", err)
	}
}
