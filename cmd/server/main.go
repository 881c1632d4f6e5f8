package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/playperu/roadrisk/internal/config"
	"github.com/playperu/roadrisk/internal/database"
	"github.com/playperu/roadrisk/internal/game"
	"github.com/playperu/roadrisk/internal/handler/health"
	"github.com/playperu/roadrisk/internal/leaderboard"
	"github.com/playperu/roadrisk/internal/migrations"
	"github.com/playperu/roadrisk/internal/oracle"
	"github.com/playperu/roadrisk/internal/roadrisk"
	"github.com/playperu/roadrisk/internal/server"
	"github.com/playperu/roadrisk/internal/telemetry"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// healthScenario is a known-valid scenario used to check the oracle answers.
var healthScenario = roadrisk.Scenario{
	RoadType:   roadrisk.RoadUrban,
	NumLanes:   2,
	Curvature:  0.3,
	SpeedLimit: 35,
	Lighting:   roadrisk.LightingDaylight,
	Weather:    roadrisk.WeatherClear,
	PublicRoad: true,
	TimeOfDay:  roadrisk.TimeMorning,
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// --- Tracing ---
	shutdownTracing, err := telemetry.Setup(ctx, cfg.OTELEndpoint, "roadrisk", version)
	if err != nil {
		return fmt.Errorf("setting up tracing: %w", err)
	}
	defer shutdownTracing(context.Background())

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(ctx, db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)

	checks := map[string]health.Checker{
		"sqlite": database.Checker{DB: db},
	}

	// --- Redis ---
	mem := oracle.NewMemoryCache(cfg.CacheTTL)
	var cache oracle.Cache = mem
	if cfg.RedisURL != "" {
		rdb, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()
		logger.Info("connected to redis")

		cache = oracle.NewRedisCache(rdb, cfg.CacheTTL)
		mem = nil
		checks["redis"] = redisChecker{rdb}
	}

	// --- Oracle ---
	base, source, modelVersion, err := buildOracle(cfg)
	if err != nil {
		return fmt.Errorf("building risk oracle: %w", err)
	}
	logger.Info("risk oracle ready", "source", source, "model_version", modelVersion)

	checks["oracle"] = health.CheckerFunc(func(ctx context.Context) error {
		_, err := base.Predict(ctx, healthScenario)
		return err
	})
	// Remote predictions get three attempts plus backoff.
	cached := oracle.NewCached(base, cache, modelVersion, logger, oracle.WithFlightTimeout(4*cfg.OracleTimeout))
	risk := oracle.NewInstrumented(cached, source)

	// --- Sessions ---
	sessions := game.NewRegistry(risk, cfg.SessionTTL)

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, server.Deps{
		Logger:            logger,
		Oracle:            risk,
		OracleSource:      source,
		ModelVersion:      modelVersion,
		Sessions:          sessions,
		Leaderboard:       leaderboard.NewSQLiteStore(db),
		Health:            checks,
		DefaultDifficulty: cfg.DefaultDifficulty,
		SPADir:            cfg.SPADir,
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr, "version", version)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		return sessions.Run(gctx, time.Minute)
	})

	if mem != nil {
		g.Go(func() error {
			return mem.Run(gctx, time.Minute)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

// buildOracle picks the prediction source: a remote instance when
// configured, else a model file, else the embedded baseline.
func buildOracle(cfg *config.Config) (o oracle.Oracle, source, modelVersion string, err error) {
	switch {
	case cfg.RemoteOracleURL != "":
		return oracle.NewRemote(cfg.RemoteOracleURL, cfg.OracleTimeout), "remote", "remote:" + cfg.RemoteOracleURL, nil
	case cfg.ModelPath != "":
		m, err := oracle.LoadModel(cfg.ModelPath)
		if err != nil {
			return nil, "", "", err
		}
		return m, "model", m.Version, nil
	default:
		m := oracle.DefaultModel()
		return m, "model", m.Version, nil
	}
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}

// redisChecker adapts *redis.Client to health.Checker.
type redisChecker struct{ client *redis.Client }

func (r redisChecker) Check(ctx context.Context) error { return r.client.Ping(ctx).Err() }
