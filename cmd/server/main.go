package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/subosito/gotenv"
	"go.uber.org/zap"

	"github.com/procureflow/invoiceflow/internal/application/dispatcher"
	"github.com/procureflow/invoiceflow/internal/application/service"
	"github.com/procureflow/invoiceflow/internal/config"
	"github.com/procureflow/invoiceflow/internal/domain/event"
	openaiext "github.com/procureflow/invoiceflow/internal/infrastructure/external/openai"
	"github.com/procureflow/invoiceflow/internal/infrastructure/persistence/repository"
	"github.com/procureflow/invoiceflow/internal/infrastructure/persistence/sqlite"
	"github.com/procureflow/invoiceflow/internal/infrastructure/worker"
	httpserver "github.com/procureflow/invoiceflow/internal/interfaces/http"
	"github.com/procureflow/invoiceflow/pkg/database"
	"github.com/procureflow/invoiceflow/pkg/utils"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "path to configuration file")
	flag.Parse()

	// Local development credentials live in .env; absence is fine.
	_ = gotenv.Load()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: cfg.Logger.OutputPath,
		Format:     cfg.Logger.Format,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting invoice approval service",
		zap.String("version", "1.0.0"),
		zap.Int("port", cfg.Server.Port))

	sqlDB, err := database.Open(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer sqlDB.Close()

	migrator := database.NewMigrator(sqlDB, logger)
	if err := migrator.RunMigrationsDir(cfg.Database.MigrationsDir); err != nil {
		logger.Fatal("Failed to run database migrations", zap.Error(err))
	}

	db := sqlite.NewDB(sqlDB, logger)

	invoiceRepo := repository.NewInvoiceRepository(db, logger)
	poRepo := repository.NewPurchaseOrderRepository(db, logger)
	grRepo := repository.NewGoodsReceiptRepository(db, logger)
	vendorRepo := repository.NewVendorRepository(db, logger)
	auditRepo := repository.NewAuditRepository(db, logger)

	prompts := openaiext.DefaultPrompts()
	if cfg.OpenAI.PromptsPath != "" {
		prompts, err = openaiext.LoadPrompts(cfg.OpenAI.PromptsPath)
		if err != nil {
			logger.Fatal("Failed to load prompts", zap.Error(err))
		}
	}
	assessor := openaiext.NewAssessor(cfg.OpenAI.APIKey, cfg.OpenAI.Model, prompts, logger)

	kv := utils.NewKVLogger(logger)

	events := dispatcher.NewDispatcher(dispatcher.WithLogger(kv))
	defer events.Close()
	subscribeNotifications(events, kv)

	invoiceService := service.NewInvoiceService(
		invoiceRepo, vendorRepo, auditRepo, assessor, db, events, cfg.OpenAI.Timeout, kv)
	defer invoiceService.Close()

	reviewService := service.NewReviewService(invoiceRepo, auditRepo, db, events, kv)
	matchService := service.NewMatchService(invoiceRepo, poRepo, grRepo,
		cfg.Matching.ToMatchConfig(), cfg.Policy.ToThresholds(), kv)
	auditService := service.NewAuditService(auditRepo, kv)
	vendorService := service.NewVendorService(vendorRepo, auditRepo, db, events, kv)

	server := httpserver.NewServer(
		httpserver.ServerConfig{
			Host:         cfg.Server.Host,
			Port:         cfg.Server.Port,
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		},
		invoiceService, reviewService, matchService, auditService, vendorService, kv,
	)

	workers := worker.NewWorkerManager(logger)
	workers.Register(worker.NewRiskWorker(
		worker.RiskWorkerConfig{
			PollInterval:  cfg.Worker.RiskPollInterval,
			BatchSize:     cfg.Worker.RiskBatchSize,
			AssessTimeout: cfg.OpenAI.Timeout,
		},
		invoiceRepo, invoiceService, logger,
	))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := workers.StartAll(ctx); err != nil {
		logger.Fatal("Failed to start workers", zap.Error(err))
	}
	defer func() {
		if err := workers.StopAll(); err != nil {
			logger.Error("Worker shutdown incomplete", zap.Error(err))
		}
	}()

	if err := server.Start(ctx); err != nil {
		logger.Fatal("HTTP server failed", zap.Error(err))
	}

	logger.Info("Shutdown complete")
}

// subscribeNotifications wires the notification delivery boundary. The
// log sink stands in for whatever channel ops points at it later.
func subscribeNotifications(events dispatcher.Dispatcher, logger *utils.KVLogger) {
	for _, eventType := range []event.Type{
		event.TypeInvoiceCreated,
		event.TypeInvoiceTransitioned,
		event.TypeRiskAssessed,
		event.TypeVendorCreated,
	} {
		events.SubscribeNamed(eventType, "notification-log", func(ctx context.Context, evt *event.Event) error {
			logger.Info("Domain event",
				"type", evt.Type.String(),
				"entity_id", evt.EntityID)
			return nil
		})
	}
}
