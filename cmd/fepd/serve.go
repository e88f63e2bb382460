package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/technosupport/fep/internal/admission"
	"github.com/technosupport/fep/internal/api"
	"github.com/technosupport/fep/internal/artifact"
	"github.com/technosupport/fep/internal/audit"
	"github.com/technosupport/fep/internal/clock"
	"github.com/technosupport/fep/internal/config"
	"github.com/technosupport/fep/internal/configwatch"
	"github.com/technosupport/fep/internal/cooldown"
	"github.com/technosupport/fep/internal/health"
	"github.com/technosupport/fep/internal/ingress"
	"github.com/technosupport/fep/internal/metrics"
	"github.com/technosupport/fep/internal/platform/paths"
	"github.com/technosupport/fep/internal/publish"
	"github.com/technosupport/fep/internal/ratelimit"
	"github.com/technosupport/fep/internal/stationary"
	"github.com/technosupport/fep/internal/telemetry"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run fepd: subscribe, evaluate, and republish alerts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to configuration file (default: "+paths.DefaultConfigRoot+"/fep.yaml)")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string) error {
	resolvedPath := paths.ResolveConfigPath(configPath)
	cfg, err := config.Load(resolvedPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := paths.EnsureDirs(); err != nil {
		return fmt.Errorf("ensure data dirs: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	nc, err := nats.Connect(fmt.Sprintf("nats://%s:%d", cfg.MQTTHost, cfg.MQTTPort), nats.Name("fepd"))
	if err != nil {
		return fmt.Errorf("connect to MQ: %w", err)
	}
	defer nc.Close()

	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer redisClient.Close()
	}

	auditDir := paths.ResolveAuditDir()
	sink, err := audit.NewSink(auditDir)
	if err != nil {
		return fmt.Errorf("open audit sink: %w", err)
	}
	defer sink.Close()

	collector := metrics.NewCollector()

	tracer, err := telemetry.NewTracer("fepd")
	if err != nil {
		return fmt.Errorf("init tracer: %w", err)
	}

	prober := artifact.NewHTTPProber(cfg.FrigateHost, cfg.FrigatePort, cfg.FrigateSSL, 5*time.Second)
	var probeSource artifact.Prober = prober
	if redisClient != nil {
		cache := artifact.NewProbeCache(redisClient, 2*time.Second)
		probeSource = artifact.NewCachingProber(prober, cache)
	}
	gate := artifact.NewGate(probeSource, cfg.ConfirmArtifactViaHTTP)

	ledger := cooldown.New()
	maxCooldown := cfg.RuleSet().Thresholds.CooldownCamera
	if cfg.RuleSet().Thresholds.CooldownLabel > maxCooldown {
		maxCooldown = cfg.RuleSet().Thresholds.CooldownLabel
	}
	for _, cam := range cfg.RuleSet().Cameras {
		if cam.Cooldown > maxCooldown {
			maxCooldown = cam.Cooldown
		}
	}
	pruner := cooldown.NewPruner(ledger, maxCooldown, time.Minute)
	pruner.Start()
	defer pruner.Stop()

	natsPublisher := publish.NewNATSPublisher(nc, cfg.AlertTopic, 3, 5*time.Second)
	tail := api.NewAlertTail(natsPublisher)

	engine := admission.New(admission.Config{
		Clock:     clock.New(),
		Ledger:    ledger,
		Tracker:   stationary.New(stationary.Config{Enabled: cfg.RuleSet().Tracking.Enabled, Threshold: cfg.RuleSet().Tracking.Threshold}),
		Gate:      gate,
		Publisher: tail,
		Audit:     sink,
		Metrics:   collector,
		Tracer:    tracer,
		RuleSet:   cfg.RuleSet(),
	})

	sub := ingress.NewSubscriber(nc, cfg.ListenTopic, cfg.ListenQueueGroup, engine.Dispatch)
	if err := sub.Start(); err != nil {
		return fmt.Errorf("subscribe to %s: %w", cfg.ListenTopic, err)
	}
	defer sub.Stop()

	frigateURL := fmt.Sprintf("%s://%s:%d/api/version", schemeFor(cfg.FrigateSSL), cfg.FrigateHost, cfg.FrigatePort)
	healthSvc := health.NewService(30*time.Second,
		natsProber{nc},
		health.NewHTTPProber("frigate", frigateURL, nil),
	).WithAlerting(sink, 5*time.Minute)
	go healthSvc.Run(ctx)

	reload := func() error {
		fresh, err := config.Load(resolvedPath)
		if err != nil {
			return err
		}
		engine.SetRuleSet(fresh.RuleSet())
		return nil
	}

	watcher, err := configwatch.New(resolvedPath, reload)
	if err != nil {
		return fmt.Errorf("start config watcher: %w", err)
	}
	defer watcher.Stop()

	go engine.Run(ctx)

	var limiter *ratelimit.Limiter
	if redisClient != nil {
		limiter = ratelimit.NewLimiter(redisClient, cfg.AdminTokenHash)
	}

	router := api.NewRouter(api.Dependencies{
		Engine:         engine,
		Health:         healthSvc,
		Metrics:        collector,
		Tail:           tail,
		Reload:         reload,
		AdminTokenHash: cfg.AdminTokenHash,
		Limiter:        limiter,
		RateLimit:      ratelimit.LimitConfig{Rate: cfg.AdminRateLimit, Window: time.Minute},
	})

	srv := &http.Server{Addr: cfg.AdminAddr, Handler: router}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fmt.Fprintf(cmd.ErrOrStderr(), "admin server error: %v\n", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func schemeFor(ssl bool) string {
	if ssl {
		return "https"
	}
	return "http"
}

type natsProber struct {
	conn *nats.Conn
}

func (p natsProber) Name() string { return "mq" }

func (p natsProber) Probe(ctx context.Context) error {
	if !p.conn.IsConnected() {
		return fmt.Errorf("not connected")
	}
	return nil
}
