package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"

	"openmod/internal/cache"
	"openmod/internal/content/reddit"
	"openmod/internal/dedup"
	"openmod/internal/disclosure"
	"openmod/internal/enforcement"
	"openmod/internal/events"
	"openmod/internal/extract"
	"openmod/internal/install"
	"openmod/internal/platform/config"
	"openmod/internal/platform/httpserver"
	"openmod/internal/platform/kafka"
	"openmod/internal/platform/kafka/consumer"
	"openmod/internal/platform/kv"
	"openmod/internal/platform/logger"
	"openmod/internal/platform/metrics"
	redisclient "openmod/internal/platform/redis"
	"openmod/internal/scheduler"
	"openmod/internal/tracking"
)

const shutdownTimeout = 10 * time.Second

type app struct {
	cfg         config.Config
	logger      *slog.Logger
	redis       *redisclient.Client
	reddit      *reddit.Client
	jobs        *scheduler.Store
	runner      *scheduler.Runner
	enforcement *enforcement.Service
	events      *events.Handler
}

func newApp(ctx context.Context, c *cli.Command) (*app, error) {
	log, err := logger.New(c.String(logLevel.Name), os.Stdout)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(log)

	cfg := config.FromEnv()
	m := metrics.New()

	rc, err := redisclient.New(ctx, cfg.Redis)
	if err != nil {
		return nil, err
	}
	store := kv.NewRedis(rc.Client)

	provider, err := reddit.New(cfg.Reddit, reddit.WithLogger(log))
	if err != nil {
		rc.Close()
		return nil, err
	}

	a := &app{cfg: cfg, logger: log, redis: rc, reddit: provider}
	if err := a.wire(store, m); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) wire(store kv.Store, m *metrics.Metrics) error {
	things, err := cache.New(store, a.reddit, cache.WithMetrics(m), cache.WithLogger(a.logger))
	if err != nil {
		return err
	}
	trackingStore, err := tracking.New(store)
	if err != nil {
		return err
	}
	extracts, err := extract.NewRepository(store, things, a.reddit, extract.WithLogger(a.logger))
	if err != nil {
		return err
	}
	discloser, err := disclosure.New(a.cfg.Settings, things, trackingStore, extracts, a.reddit,
		disclosure.WithLogger(a.logger),
		disclosure.WithMetrics(m),
		disclosure.WithCheckInterval(a.cfg.Sweep.CheckInterval),
	)
	if err != nil {
		return err
	}

	a.jobs, err = scheduler.NewStore(store)
	if err != nil {
		return err
	}
	a.enforcement, err = enforcement.New(trackingStore, things, extracts, discloser, a.reddit, a.jobs,
		enforcement.WithLogger(a.logger),
		enforcement.WithMetrics(m),
		enforcement.WithBatchSize(a.cfg.Sweep.BatchSize),
		enforcement.WithCheckInterval(a.cfg.Sweep.CheckInterval),
		enforcement.WithFollowUpDelay(a.cfg.Sweep.FollowUpDelay),
	)
	if err != nil {
		return err
	}

	a.runner, err = scheduler.NewRunner(a.jobs, scheduler.WithLogger(a.logger), scheduler.WithMetrics(m))
	if err != nil {
		return err
	}
	a.runner.Handle(enforcement.SweepJob, func(ctx context.Context, _ scheduler.Job) error {
		return a.enforcement.Sweep(ctx)
	})

	guard, err := dedup.New(store)
	if err != nil {
		return err
	}
	a.events, err = events.New(a.cfg.Settings, guard, things, discloser, a.enforcement,
		events.WithLogger(a.logger),
		events.WithMetrics(m),
	)
	return err
}

func (a *app) Close() {
	if a.reddit != nil {
		_ = a.reddit.Close()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}

func run(ctx context.Context, c *cli.Command, fn func(ctx context.Context, a *app) error) error {
	a, err := newApp(ctx, c)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func serveCmd(ctx context.Context, c *cli.Command) error {
	return run(ctx, c, func(ctx context.Context, a *app) error {
		if !a.cfg.Settings.IsMinimallyConfigured() {
			a.logger.Warn("target community or moderation actions not configured, events will be skipped")
		}

		g, ctx := errgroup.WithContext(ctx)

		g.Go(func() error {
			a.runner.Start(ctx, a.cfg.Scheduler.Tick)
			return nil
		})

		if a.cfg.Kafka.Enabled() {
			router := events.NewRouter(a.logger)
			a.events.Routes(router, a.cfg.Kafka.ModActionTopic, a.cfg.Kafka.ContentTopic)
			cons, err := consumer.New(consumer.Config{
				Brokers: a.cfg.Kafka.Brokers,
				Group:   a.cfg.Kafka.Group,
				Topics:  router.Topics(),
			}, router, a.logger)
			if err != nil {
				return err
			}
			defer cons.Close()
			g.Go(func() error {
				if err := cons.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					return fmt.Errorf("event consumer: %w", err)
				}
				return nil
			})
		} else {
			a.logger.Warn("no kafka brokers configured, event consumption disabled")
		}

		srv := httpserver.New(a.cfg.Server.Addr, httpserver.NewRouter(a.logger, map[string]httpserver.HealthCheck{
			"redis":  a.redis.Health,
			"reddit": a.reddit.Health,
		}))
		g.Go(func() error {
			a.logger.Info("serving ops endpoints", "addr", a.cfg.Server.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})

		return g.Wait()
	})
}

func installCmd(ctx context.Context, c *cli.Command) error {
	return run(ctx, c, func(ctx context.Context, a *app) error {
		opts := []install.Option{install.WithLogger(a.logger)}
		if c.Bool(withTopics.Name) {
			if !a.cfg.Kafka.Enabled() {
				return errors.New("--kafka-topics needs KAFKA_BROKERS")
			}
			k := a.cfg.Kafka
			opts = append(opts, install.WithTopics(func(ctx context.Context) ([]string, error) {
				return kafka.EnsureTopics(ctx, k.Brokers, k.Partitions, k.Replication, k.ModActionTopic, k.ContentTopic)
			}))
		}

		installer, err := install.New(a.jobs, a.cfg.Sweep.Cron, opts...)
		if err != nil {
			return err
		}
		_, err = installer.Reset(ctx)
		return err
	})
}

func sweepCmd(ctx context.Context, c *cli.Command) error {
	return run(ctx, c, func(ctx context.Context, a *app) error {
		return a.enforcement.Sweep(ctx)
	})
}

func reconcileCmd(ctx context.Context, c *cli.Command) error {
	return run(ctx, c, func(ctx context.Context, a *app) error {
		n, err := a.enforcement.Reconcile(ctx)
		if err != nil {
			return err
		}
		a.logger.Info("reconcile finished", "requeued", n)
		return nil
	})
}
