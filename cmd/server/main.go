package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"

	"github.com/technosupport/arena-watch/internal/analysis"
	"github.com/technosupport/arena-watch/internal/api"
	"github.com/technosupport/arena-watch/internal/auth"
	"github.com/technosupport/arena-watch/internal/config"
	"github.com/technosupport/arena-watch/internal/history"
	"github.com/technosupport/arena-watch/internal/media"
	"github.com/technosupport/arena-watch/internal/middleware"
	"github.com/technosupport/arena-watch/internal/publish"
	"github.com/technosupport/arena-watch/internal/ratelimit"
	"github.com/technosupport/arena-watch/internal/settings"
	"github.com/technosupport/arena-watch/internal/simulator"
	"github.com/technosupport/arena-watch/internal/stream"
	"github.com/technosupport/arena-watch/internal/tokens"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// 1. Config
	cfgPath := config.Path()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("Config error: %v", err)
	}

	// 2. Optional backends
	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, DB: cfg.Redis.DB})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("Redis ping error: %v", err)
		}
		defer rdb.Close()
		log.Printf("Redis connected at %s", cfg.Redis.Addr)
	}

	var nc *nats.Conn
	if cfg.NATS.URL != "" {
		nc, err = nats.Connect(cfg.NATS.URL,
			nats.Name(cfg.NATS.Name),
			nats.MaxReconnects(-1),
			nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
				log.Printf("[NATS] Disconnected: %v", err)
			}),
			nats.ReconnectHandler(func(c *nats.Conn) {
				log.Printf("[NATS] Reconnected to %s", c.ConnectedUrl())
			}),
		)
		if err != nil {
			log.Printf("[NATS] Connect failed: %v (publishing disabled)", err)
			nc = nil
		} else {
			defer nc.Drain()
			log.Printf("[NATS] Connected to %s", cfg.NATS.URL)
		}
	}

	// 3. Stores
	var settingsStore settings.Store = settings.NewMemoryStore()
	var historyStore history.Store = history.NewMemoryStore(cfg.History.Cap)
	if rdb != nil {
		settingsStore = settings.NewRedisStore(rdb, "")
		historyStore = history.NewRedisStore(rdb, cfg.History.Key, cfg.History.Cap)
		if cfg.History.SpoolDir != "" {
			spooled, err := history.NewSpoolingStore(historyStore, cfg.History.SpoolDir,
				cfg.History.SpoolMaxBytes(), cfg.History.ReplayInterval())
			if err != nil {
				log.Fatalf("History spool error: %v", err)
			}
			spooled.StartReplayer(ctx)
			historyStore = spooled
		}
	}

	settingsSvc, err := settings.NewService(ctx, settingsStore)
	if err != nil {
		log.Fatalf("Settings load error: %v", err)
	}
	if cfg.History.Seed {
		if err := history.Seed(ctx, historyStore, history.SeedItems(time.Now())); err != nil {
			log.Printf("[ERROR] History seed failed: %v", err)
		}
	}

	// 4. Stream
	gen := simulator.NewGenerator(cfg.GeneratorConfig(), nil, nil)
	sinks := []stream.Sink{history.NewRecorder(historyStore)}
	if nc != nil {
		sinks = append(sinks, publish.NewNATSPublisher(nc, cfg.NATS.EventPrefix, cfg.NATS.PublishRetryMax))
	}
	live := stream.New(cfg.StreamConfig(), gen,
		stream.WithSinks(sinks...),
		stream.WithEscalation(settingsSvc))

	// 5. Analysis
	mock := analysis.NewMockAnalyzer(gen, cfg.Analysis.Latency())
	var analyzer analysis.Analyzer = mock
	if cfg.NATS.RemoteAnalysis {
		if nc == nil {
			log.Fatalf("Remote analysis needs NATS (nats.url)")
		}
		analyzer = analysis.NewNATSAnalyzer(nc, cfg.NATS.AnalysisSubject)
		log.Printf("[Analysis] Using remote analyzer on %s", cfg.NATS.AnalysisSubject)
	}

	uploads, err := analysis.NewService(analyzer, media.NewValidator(cfg.Analysis.MaxUploadBytes),
		analysis.ServiceConfig{Timeout: cfg.Analysis.Timeout(), MaxUploads: cfg.Analysis.MaxUploads},
		analysis.WithCompletion(func(ctx context.Context, u analysis.Upload) {
			ev, ok := u.Event()
			if !ok {
				return
			}
			if _, err := live.Record(ctx, ev); err != nil {
				log.Printf("[ERROR] Record analysis %s: %v", u.ID, err)
			}
		}))
	if err != nil {
		log.Fatalf("Analysis init error: %v", err)
	}

	// 6. Live config
	config.NewWatcher(cfgPath, func(next config.Config) {
		mock.SetLatency(next.Analysis.Latency())
		log.Printf("[Config] Analysis latency now %v", next.Analysis.Latency())
	}).Start(ctx)

	// 7. Routing
	tokenMgr := tokens.NewManager(cfg.Auth.SigningKey, cfg.Auth.TokenTTL())
	if !tokenMgr.Enabled() {
		log.Printf("[Auth] No signing key configured, settings are read-only")
	}

	var revoked auth.Revocations = auth.NewMemoryRevocations()
	var lockout auth.Lockout = auth.NewMemoryLockout(cfg.Auth.LockoutThreshold, cfg.Auth.LockoutTTL())
	if rdb != nil {
		revoked = auth.NewRedisRevocations(rdb)
		lockout = auth.NewRedisLockout(rdb, cfg.Auth.LockoutThreshold, cfg.Auth.LockoutTTL())
	}
	login := auth.NewAuthenticator(cfg.Auth.OperatorPasswordHash, tokenMgr, auth.WithLockout(lockout))
	if tokenMgr.Enabled() && login.Enabled() {
		log.Printf("[Auth] Operator login enabled")
	}

	routerCfg := api.RouterConfig{
		CORSOrigins:     cfg.Server.CORSOrigins,
		RequestTimeout:  cfg.Server.RequestTimeout(),
		MaxUploadBytes:  cfg.Analysis.MaxUploadBytes,
		Auth:            middleware.NewJWTAuth(tokenMgr, revoked, tokens.Operator),
		Login:           login,
		Revocations:     revoked,
		UploadRateLimit: cfg.Server.UploadRateLimit,
		LoginRateLimit:  cfg.Server.LoginRateLimit,
	}
	if rdb != nil {
		routerCfg.Limiter = ratelimit.NewLimiter(rdb, "arena-watch")
	}

	handler := api.NewRouter(&api.Handler{
		Stream:   live,
		Uploads:  uploads,
		History:  historyStore,
		Settings: settingsSvc,
	}, routerCfg)

	// 8. Start
	if err := live.Start(ctx); err != nil {
		log.Fatalf("Stream start error: %v", err)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: handler,
	}
	go func() {
		log.Printf("arena-watch listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[ERROR] HTTP server error: %v", err)
			cancel()
		}
	}()

	<-ctx.Done()
	log.Printf("Shutting down")

	// 9. Graceful shutdown
	shutdownCtx, done := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
	defer done()

	live.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[ERROR] Graceful shutdown error: %v", err)
	}
	uploads.Close()
	log.Printf("Server stopped gracefully")
}
