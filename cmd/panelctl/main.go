package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/chzyer/readline"
	"github.com/google/uuid"

	"github.com/noah-isme/records-panel/internal/cli"
	"github.com/noah-isme/records-panel/internal/repository"
	"github.com/noah-isme/records-panel/internal/service"
	"github.com/noah-isme/records-panel/pkg/cache"
	"github.com/noah-isme/records-panel/pkg/config"
	"github.com/noah-isme/records-panel/pkg/database"
	"github.com/noah-isme/records-panel/pkg/events"
	"github.com/noah-isme/records-panel/pkg/jobs"
	"github.com/noah-isme/records-panel/pkg/logger"
	"github.com/noah-isme/records-panel/pkg/storage"
)

const prompt = "panel> "

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	// keep the console readable; structured logs go to stderr at warn and above
	cfg.Log.Format = "console"
	if cfg.Log.Level == "" || cfg.Log.Level == "info" || cfg.Log.Level == "debug" {
		cfg.Log.Level = "warn"
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	files, err := storage.NewLocalStorage(cfg.CLI.ExportDir)
	if err != nil {
		log.Fatalf("failed to prepare export directory: %v", err)
	}

	backend := repository.NewBackendClient(cfg.Backend, nil, logr)

	var cacheSvc *service.CacheService
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, taxonomy will not be cached", "error", err)
	} else if redisClient != nil {
		defer redisClient.Close() //nolint:errcheck
		cacheSvc = service.NewCacheService(repository.NewCacheRepository(redisClient, logr), nil, cfg.Taxonomy.CacheTTL, logr, true)
	}

	var (
		audit       service.AuditWriter
		auditReader cli.AuditReader
	)
	if cfg.Audit.Enabled {
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			log.Fatalf("postgres unavailable: %v", err)
		}
		defer db.Close() //nolint:errcheck
		repo := repository.NewAuditRepository(db)
		audit, auditReader = repo, repo
	}

	var publisher service.EventPublisher
	if cfg.Events.Enabled {
		producer, err := events.NewProducer(cfg.Events)
		if err != nil {
			log.Fatalf("kafka producer misconfigured: %v", err)
		}
		defer producer.Close() //nolint:errcheck
		publisher = producer
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dispatcher := service.NewMutationDispatcher(audit, publisher, nil, jobs.QueueConfig{
		Workers:    cfg.Jobs.Workers,
		MaxRetries: cfg.Jobs.MaxRetries,
		RetryDelay: cfg.Jobs.RetryDelay,
	}, logr)
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     cfg.CLI.HistoryFile,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		log.Fatalf("failed to initialize readline: %v", err)
	}
	defer rl.Close()

	panel := service.NewPanel("cli-"+uuid.NewString(), cli.NewTerminalSurface(rl.Stdout()), service.PanelDeps{
		Backend:             backend,
		Taxonomy:            service.NewTaxonomyService(backend, cacheSvc, cfg.Taxonomy.CacheTTL, logr),
		Recorder:            dispatcher,
		SearchDebounce:      cfg.Panel.SearchDebounce,
		TeacherOptionsLimit: cfg.Backend.TeacherOptionsLimit,
		ChartLimit:          cfg.Backend.ChartLimit,
		Logger:              logr,
	})
	defer panel.Close()

	fmt.Fprintf(rl.Stdout(), "records panel on %s. Use 'help' for the list of commands.\n", cfg.Backend.BaseURL)
	panel.Load(ctx)

	console := cli.NewConsole(panel, rl.Stdout(), cli.ReadlinePrompter{RL: rl, Prompt: prompt}, files, auditReader)
	if err := console.Run(ctx, rl); err != nil {
		fmt.Fprintf(os.Stderr, "panelctl: %v\n", err)
		os.Exit(1)
	}
}
