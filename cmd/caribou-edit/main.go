package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/goliatone/go-editors/internal/config"
	"github.com/goliatone/go-editors/internal/contentserver"
	"github.com/goliatone/go-editors/internal/logging"
	"github.com/goliatone/go-editors/internal/metrics"
	"github.com/goliatone/go-editors/internal/tui"
	"github.com/goliatone/go-editors/pkg/api"
	"github.com/goliatone/go-editors/pkg/asset"
	"github.com/goliatone/go-editors/pkg/dom"
	"github.com/goliatone/go-editors/pkg/editor"
	"github.com/goliatone/go-editors/pkg/loop"
	"github.com/goliatone/go-editors/pkg/model"
	"github.com/goliatone/go-editors/pkg/page"
	"github.com/goliatone/go-editors/pkg/schema"
	"github.com/goliatone/go-editors/pkg/widgets"
)

func main() {
	configPath := flag.String("config", "editors.yaml", "configuration file (YAML or TOML)")
	schemaPath := flag.String("schema", "openapi.yaml", "OpenAPI document path or URL")
	modelSlug := flag.String("model", "", "model to edit")
	serve := flag.Bool("serve", false, "run the reference content server in process")
	output := flag.String("output", "", "output file for the collected record (stdout if empty)")
	flag.Parse()

	if strings.TrimSpace(*modelSlug) == "" {
		log.Fatal("--model is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, *configPath, *schemaPath, *modelSlug, *serve, *output); err != nil {
		if errors.Is(err, tui.ErrAborted) {
			os.Exit(130)
		}
		log.Fatalf("caribou-edit: %v", err)
	}
}

func run(ctx context.Context, configPath, schemaPath, slug string, serve bool, output string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Development)
	if err != nil {
		return err
	}
	defer logger.Sync()

	registry := prometheus.NewRegistry()
	collectors := metrics.New(registry)

	models, err := loadModels(ctx, schemaPath)
	if err != nil {
		return err
	}
	m, ok := schema.Find(models, slug)
	if !ok {
		return fmt.Errorf("model %q not found in %s", slug, schemaPath)
	}

	routes := cfg.RouteTable()
	if serve {
		baseURL, shutdown, err := startServer(cfg, logger, registry, models)
		if err != nil {
			return err
		}
		defer shutdown()
		routes.BaseURL = baseURL
	}
	if routes.BaseURL == "" {
		return errors.New("base_url is not configured; set it or pass --serve")
	}

	l := loop.New()
	client := api.NewClient(l,
		api.WithRoutes(routes),
		api.WithModels(models...),
		api.WithTransport(api.NewHTTPTransport(nil, 30*time.Second)),
		api.WithLogger(logger.Named("api")),
		api.WithObserver(collectors),
	)

	markup, err := contentserver.NewEngine(nil).Form(m, nil)
	if err != nil {
		return err
	}
	doc, err := dom.Parse(markup)
	if err != nil {
		return err
	}

	stack := editor.NewStack(doc,
		editor.WithLogger(logger.Named("stack")),
		editor.WithObserver(collectors),
	)
	editors := editor.DefaultRegistry()
	if err := asset.Register(editors,
		asset.WithPageSize(cfg.Assets.PageSize),
		asset.WithRefreshObserver(collectors),
	); err != nil {
		return err
	}
	controller, err := page.New(m, doc, editors,
		page.WithAPI(client),
		page.WithStack(stack),
		page.WithWidgets(widgets.NewRegistry(cfg.Widgets())),
		page.WithLogger(logger.Named("page")),
	)
	if err != nil {
		return err
	}
	if err := controller.Attach(); err != nil {
		return err
	}

	session := tui.NewSession(tui.NewSurveyDriver(), controller, doc, stack, l, tui.WithLogger(logger.Named("tui")))
	record, err := session.Run(ctx)
	if err != nil {
		return err
	}
	logger.Info("record collected", zap.String("model", m.Slug), zap.Strings("dirty", controller.Dirty()))
	return writeRecord(record, output)
}

func loadModels(ctx context.Context, location string) ([]model.Model, error) {
	src, err := schema.SourceFor(location)
	if err != nil {
		return nil, err
	}
	document, err := schema.Load(ctx, src, &http.Client{Timeout: 30 * time.Second})
	if err != nil {
		return nil, err
	}
	return schema.Models(ctx, document.Raw())
}

// startServer serves the content endpoints and /metrics on cfg.Server.Addr
// and returns the base URL editors should call.
func startServer(cfg *config.Config, logger *zap.Logger, registry *prometheus.Registry, models []model.Model) (string, func(), error) {
	content := contentserver.New(contentserver.NewStore(),
		contentserver.WithLogger(logger.Named("contentserver")),
		contentserver.WithModels(models...),
		contentserver.WithPageSize(cfg.Assets.PageSize),
	)
	router := chi.NewRouter()
	router.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	router.Mount("/", content.Handler())

	listener, err := net.Listen("tcp", cfg.Server.Addr)
	if err != nil {
		return "", nil, fmt.Errorf("listen %s: %w", cfg.Server.Addr, err)
	}
	server := &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("content server stopped", zap.Error(err))
		}
	}()
	logger.Info("content server listening", zap.String("addr", listener.Addr().String()))

	shutdown := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	}
	return "http://" + listener.Addr().String(), shutdown, nil
}

func writeRecord(record model.Record, output string) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if output == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Record written to %s\n", output)
	return nil
}
