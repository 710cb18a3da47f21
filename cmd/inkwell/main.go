// inkwell serves the essay, poem and chat pipelines over HTTP.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/matiasleandrokruk/inkwell/internal/api"
	"github.com/matiasleandrokruk/inkwell/internal/api/handlers"
	"github.com/matiasleandrokruk/inkwell/internal/domain/pipeline"
	"github.com/matiasleandrokruk/inkwell/internal/infra/config"
	"github.com/matiasleandrokruk/inkwell/internal/infra/eventbus"
	"github.com/matiasleandrokruk/inkwell/internal/infra/llm"
	"github.com/matiasleandrokruk/inkwell/internal/server"
	"github.com/matiasleandrokruk/inkwell/internal/version"
)

const shutdownTimeout = 10 * time.Second

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, out io.Writer) int {
	fs := flag.NewFlagSet("inkwell", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	showVersion := fs.Bool("version", false, "Show version information")
	showHelp := fs.Bool("help", false, "Show help")
	host := fs.String("host", "", "Listen host (overrides INKWELL_HOST)")
	port := fs.Int("port", 0, "Listen port (overrides INKWELL_PORT)")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *showVersion {
		fmt.Fprintln(out, version.String()) //nolint:errcheck
		return 0
	}

	if *showHelp {
		printHelp(out)
		return 0
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(out, err) //nolint:errcheck
		return 1
	}
	if *host != "" {
		cfg.Host = *host
	}
	if *port != 0 {
		cfg.Port = *port
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(out, err) //nolint:errcheck
		return 1
	}

	logger := newLogger(os.Stderr, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg, logger); err != nil {
		logger.Error("server stopped with error", "error", err)
		return 1
	}
	return 0
}

// serve runs the gateway until ctx is cancelled, then drains in-flight
// requests for up to shutdownTimeout. With tracing on, every pipeline run is
// logged from a separate goroutine.
func serve(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	runBus := eventbus.New[handlers.RunEvent]()
	var runs handlers.RunSink
	var events <-chan handlers.RunEvent
	if cfg.TracingEnabled {
		runs = runBus
		events = runBus.Subscribe()
	}

	handler, err := buildHandler(ctx, cfg, logger, runs)
	if err != nil {
		runBus.Close()
		return err
	}

	srvCfg := server.DefaultConfig()
	srvCfg.Host = cfg.Host
	srvCfg.Port = cfg.Port
	srv := server.NewServer(handler, srvCfg, logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Start(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		defer runBus.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if events != nil {
		g.Go(func() error {
			logRuns(events, logger)
			return nil
		})
	}

	err = g.Wait()
	if n := runBus.Dropped(); n > 0 {
		logger.Warn("run events dropped", "count", n)
	}
	return err
}

// logRuns writes one line per finished pipeline run until events is closed.
func logRuns(events <-chan handlers.RunEvent, logger *slog.Logger) {
	for e := range events {
		attrs := []any{"run_id", e.RunID, "path", e.Path, "duration_ms", e.Duration.Milliseconds()}
		if e.Err != nil {
			logger.Warn("pipeline run failed", append(attrs, "error", e.Err)...)
			continue
		}
		logger.Info("pipeline run", attrs...)
	}
}

// buildHandler loads the catalog, builds the providers and mounts every
// pipeline that registers. Registration failures are logged, never fatal.
func buildHandler(ctx context.Context, cfg config.Config, logger *slog.Logger, runs handlers.RunSink) (http.Handler, error) {
	for _, w := range cfg.Warnings() {
		logger.Warn(w)
	}
	logger.Info("configuration loaded",
		"addr", cfg.Addr(),
		"tracing", cfg.TracingEnabled,
		"groq_model", cfg.GroqModel,
		"ollama_url", cfg.OllamaBaseURL,
		"ollama_model", cfg.OllamaModel,
	)

	defs, err := pipeline.LoadCatalog(cfg.PipelinesFile)
	if err != nil {
		return nil, err
	}

	providers := newProviderRouter(cfg)
	built, failed := pipeline.Register(pipeline.Routes(ctx, defs, providers))
	for _, f := range failed {
		logger.Error("pipeline registration failed", "path", f.Path, "error", f.Err)
	}
	for _, p := range built {
		info := p.Info()
		logger.Info("pipeline mounted", "path", info.Path, "provider", info.Provider, "model", info.Model, "kind", info.Kind)
	}

	return api.NewRouter(api.Deps{
		Pipelines:        built,
		Providers:        providers,
		BatchConcurrency: cfg.BatchConcurrency,
		Runs:             runs,
		Logger:           logger,
	}), nil
}

// newProviderRouter builds every known provider. A provider whose
// constructor fails is recorded as unavailable so the pipelines bound to it
// fail registration with that cause.
func newProviderRouter(cfg config.Config) *llm.Router {
	router := llm.NewRouter(map[string]llm.LLMProvider{
		"ollama": llm.NewOllamaProvider(cfg.OllamaBaseURL, cfg.OllamaModel),
	}, "ollama")

	groq, err := llm.NewGroqProvider(cfg.GroqBaseURL, cfg.GroqAPIKey, cfg.GroqModel)
	if err != nil {
		router.MarkUnavailable("groq", err)
	} else {
		router.Register("groq", groq)
	}
	return router
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

func printHelp(out io.Writer) {
	helpText := `inkwell - essay and poem generation gateway

Usage:
  inkwell [options]

Options:
  -host string   Listen host (default from INKWELL_HOST, else localhost)
  -port int      Listen port (default from INKWELL_PORT, else 8000)
  -version       Show version information
  -help          Show this help message

Environment:
  GROQ_API_KEY            Groq credential; /chat/groq and /essay need it
  LANGCHAIN_API_KEY       Tracing credential (warning only)
  OLLAMA_BASE_URL         Ollama server for /poem (default http://localhost:11434)
  INKWELL_PIPELINES_FILE  YAML catalog replacing the built-in pipelines

Examples:
  inkwell
  inkwell -port 9000
  inkwell -version`
	fmt.Fprintln(out, helpText) //nolint:errcheck
}
