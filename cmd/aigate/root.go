package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mentorbridge/aigate/cache"
	"github.com/mentorbridge/aigate/config"
	"github.com/mentorbridge/aigate/gateway"
	"github.com/mentorbridge/aigate/observe"
	"github.com/mentorbridge/aigate/resilience"
	"github.com/mentorbridge/aigate/transport"
)

type rootFlags struct {
	configPath string
	baseURL    string
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "aigate",
		Short:         "Call the AI backend through the resilient gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.configPath, "config", "", "path to YAML config file")
	root.PersistentFlags().StringVar(&flags.baseURL, "base-url", "", "backend base URL (overrides config)")

	root.AddCommand(
		newHealthCmd(flags),
		newSummaryCmd(flags),
		newTopicsCmd(flags),
		newModerateCmd(flags),
	)
	return root
}

func newHealthCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Probe the backend health endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, flags, func(ctx context.Context, client *gateway.Client) gateway.Result {
				return client.Health(ctx)
			})
		},
	}
}

func newSummaryCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "summary <text>",
		Short: "Summarize a piece of text",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, flags, func(ctx context.Context, client *gateway.Client) gateway.Result {
				return client.Summary(ctx, args[0])
			})
		},
	}
}

func newTopicsCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "topics <interest>...",
		Short: "Suggest discussion topics for a set of interests",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, flags, func(ctx context.Context, client *gateway.Client) gateway.Result {
				return client.SuggestTopics(ctx, args)
			})
		},
	}
}

func newModerateCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "moderate <text>",
		Short: "Run a moderation check (never cached)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, flags, func(ctx context.Context, client *gateway.Client) gateway.Result {
				return client.Moderate(ctx, args[0])
			})
		},
	}
}

// run builds the dependency graph from config, executes one call and
// prints the Result as indented JSON on stdout.
func run(cmd *cobra.Command, flags *rootFlags, call func(context.Context, *gateway.Client) gateway.Result) error {
	cfg, err := loadConfig(flags)
	if err != nil {
		return err
	}

	logger := observe.NewLogrusLogger(cfg.LogLevel, os.Stderr)

	store, closeStore, err := buildCache(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()

	client, err := buildClient(cfg, store, logger)
	if err != nil {
		return err
	}

	result := call(cmd.Context(), client)

	out, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))

	if !result.OK {
		return fmt.Errorf("call failed: %s", result.Err.Message)
	}
	return nil
}

func loadConfig(flags *rootFlags) (config.Config, error) {
	// The flag feeds through the same env channel viper reads, so it
	// participates in expansion and validation like any other source.
	if flags.baseURL != "" {
		if err := os.Setenv("AIGATE_BASE_URL", flags.baseURL); err != nil {
			return config.Config{}, err
		}
	}
	return config.Load(flags.configPath)
}

// buildCache selects the configured backend and wraps it so storage
// failures degrade to uncached operation instead of failing calls.
func buildCache(cfg config.Config, logger observe.Logger) (cache.Cache, func(), error) {
	noClose := func() {}

	switch cfg.CacheBackend {
	case config.BackendNone:
		return cache.NopCache{}, noClose, nil
	case config.BackendMemory:
		return cache.NewMemoryCache(0), noClose, nil
	case config.BackendSQLite:
		sq, err := cache.NewSQLiteCache(cfg.SQLitePath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite cache: %w", err)
		}
		degrading := cache.NewDegrading(sq, cacheErrorHook(logger))
		return degrading, func() { _ = sq.Close() }, nil
	case config.BackendRedis:
		rd, err := cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("connect redis cache: %w", err)
		}
		return cache.NewDegrading(rd, cacheErrorHook(logger)), func() { _ = rd.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
}

func cacheErrorHook(logger observe.Logger) func(error) {
	return func(err error) {
		logger.Warn(context.Background(), "cache degraded, serving uncached responses",
			observe.Error(err))
	}
}

func buildClient(cfg config.Config, store cache.Cache, logger observe.Logger) (*gateway.Client, error) {
	policy := transport.Policy{
		Timeout:      cfg.Timeout(),
		MaxRetries:   cfg.MaxRetries,
		InitialDelay: cfg.InitialDelay(),
	}
	tr := transport.New(cfg.BaseURL,
		transport.WithPolicy(policy),
		transport.WithLogger(logger),
	)

	ttl := cache.MergedTTLPolicy(cfg.TTLs())

	var limiter *resilience.Limiter
	if cfg.RateLimit.RPS > 0 {
		limiter = resilience.NewLimiter(resilience.LimiterConfig{
			RPS:         cfg.RateLimit.RPS,
			Burst:       cfg.RateLimit.Burst,
			WaitOnLimit: true,
		})
	}

	return gateway.New(gateway.Options{
		Transport: tr,
		Cache:     store,
		Keyer:     cache.NewKeyer(cfg.CachePrefix),
		TTL:       ttl,
		Notifier:  loggingNotifier(logger),
		Logger:    logger,
		Limiter:   limiter,
	})
}

// loggingNotifier forwards gateway events to the structured log.
func loggingNotifier(logger observe.Logger) gateway.Notifier {
	return gateway.NotifierFunc(func(ctx context.Context, ev gateway.Event) {
		fields := []observe.Field{
			observe.String("endpoint", ev.Endpoint),
			observe.String("event", ev.Kind.String()),
		}
		if ev.Message != "" {
			fields = append(fields, observe.String("message", ev.Message))
		}
		switch ev.Kind {
		case gateway.EventSuccess:
			logger.Info(ctx, "call succeeded", fields...)
		case gateway.EventRateLimited:
			logger.Warn(ctx, "backend rate limited the call", fields...)
		default:
			logger.Error(ctx, "call failed", fields...)
		}
	})
}
