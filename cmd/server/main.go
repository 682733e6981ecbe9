// Command server runs the relais LLM provider gateway.
//
// Configuration is layered: built-in defaults, a YAML config file
// (--config, GATEWAY_CONFIG, ./config.yaml, /etc/llm-gateway/config.yaml),
// then environment variables:
//
//	OPENAI_API_KEY      - OpenAI API key
//	GROQ_API_KEY        - Groq API key (GORQ_API_KEY is a legacy alias)
//	FIREWORKS_API_KEY   - Fireworks API key
//	PERPLEXITY_API_KEY  - Perplexity API key
//	GATEWAY_PORT        - Listen port (default: 8080)
//
// A .env file in the working directory is loaded before config resolution.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rhuss/relais/pkg/config"
	"github.com/rhuss/relais/pkg/debug"
	"github.com/rhuss/relais/pkg/engine"
	"github.com/rhuss/relais/pkg/executor"
	"github.com/rhuss/relais/pkg/provider/fireworks"
	"github.com/rhuss/relais/pkg/provider/groq"
	"github.com/rhuss/relais/pkg/provider/openai"
	"github.com/rhuss/relais/pkg/provider/perplexity"
	"github.com/rhuss/relais/pkg/tools"
	transporthttp "github.com/rhuss/relais/pkg/transport/http"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:          "relais",
		Short:        "Stateless gateway forwarding chat requests to LLM providers",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(configPath)
		},
	}
	root.Flags().StringVar(&configPath, "config", "", "path to the YAML config file")

	if err := root.Execute(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	// A missing .env file is not an error; env vars may come from anywhere.
	godotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	// Sets the default slog handler; GATEWAY_DEBUG and GATEWAY_LOG_LEVEL
	// control category dumps and verbosity.
	debug.Init("", "")
	logger := slog.Default()

	exec := executor.New(executor.Policy{
		MaxAttempts: cfg.Retry.MaxAttempts,
		BackoffStep: cfg.Retry.BackoffStep,
	}, logger)

	eng := engine.New(exec, logger)
	eng.Register(openai.New(openai.Config{
		APIKey:    cfg.Providers.OpenAI.APIKey,
		Endpoint:  cfg.Providers.OpenAI.Endpoint,
		Deadline:  cfg.Providers.OpenAI.Deadline,
		MaxTokens: cfg.Providers.OpenAI.MaxTokens,
	}))
	eng.Register(groq.New(groq.Config{
		APIKey:    cfg.Providers.Groq.APIKey,
		Endpoint:  cfg.Providers.Groq.Endpoint,
		Deadline:  cfg.Providers.Groq.Deadline,
		MaxTokens: cfg.Providers.Groq.MaxTokens,
	}))
	eng.Register(fireworks.New(fireworks.Config{
		APIKey:    cfg.Providers.Fireworks.APIKey,
		Endpoint:  cfg.Providers.Fireworks.Endpoint,
		Deadline:  cfg.Providers.Fireworks.Deadline,
		MaxTokens: cfg.Providers.Fireworks.MaxTokens,
	}))
	eng.Register(perplexity.New(perplexity.Config{
		APIKey:    cfg.Providers.Perplexity.APIKey,
		Endpoint:  cfg.Providers.Perplexity.Endpoint,
		Deadline:  cfg.Providers.Perplexity.Deadline,
		MaxTokens: cfg.Providers.Perplexity.MaxTokens,
	}))

	adapterCfg := transporthttp.Config{
		Addr:        fmt.Sprintf(":%d", cfg.Server.Port),
		MaxBodySize: cfg.Server.MaxBodySize,
	}
	adapter := transporthttp.NewAdapter(eng, tools.Default(), adapterCfg, logger)

	if cfg.Observability.Metrics.Enabled {
		adapter.Handle("GET "+cfg.Observability.Metrics.Path, promhttp.Handler())
	}

	srv := transporthttp.NewServer(adapter,
		transporthttp.WithAddr(adapterCfg.Addr),
		transporthttp.WithMaxBodySize(cfg.Server.MaxBodySize),
		transporthttp.WithShutdownTimeout(cfg.Server.ShutdownTimeout),
		transporthttp.WithLogger(logger),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("gateway starting",
			"port", cfg.Server.Port,
			"providers", eng.Providers(),
		)
		return srv.ListenAndServe(ctx)
	})
	return g.Wait()
}
