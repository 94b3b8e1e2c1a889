package core

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/DevN0mad/OpenProjectTools/internal/config"
	"github.com/DevN0mad/OpenProjectTools/internal/server"
	"github.com/DevN0mad/OpenProjectTools/internal/services"
	"github.com/DevN0mad/OpenProjectTools/internal/storage"
)

// App представляет основное приложение, управляющее сервисами.
type App struct {
	logger  *slog.Logger
	rootCtx context.Context

	mu             sync.Mutex
	tg             *services.TelegramBotService
	opSrv          *services.OpenProjectService
	dailyJob       *services.DailyJobService
	reportSrv      *services.ReportService
	toolSrv        *server.ToolServer
	store          *storage.Storage
	servicesCancel context.CancelFunc
}

// NewApp создает новый экземпляр приложения с заданным логгером и корневым контекстом.
func NewApp(ctx context.Context, logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return &App{
		logger:  logger,
		rootCtx: ctx,
	}
}

// ApplyConfig применяет конфигурацию к приложению, инициализируя/переинициализируя сервисы.
func (a *App) ApplyConfig(cfg config.Config) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.servicesCancel != nil {
		a.logger.Info("Stopping previous services")
		a.servicesCancel()
		a.servicesCancel = nil
	}

	ctx, cancel := context.WithCancel(a.rootCtx)

	store, err := storage.NewStorage(cfg.Storage.Path, a.logger)
	if err != nil {
		cancel()
		return fmt.Errorf("init storage: %w", err)
	}

	opSrv := services.Init(cfg.OpenProject, a.logger)

	tg, err := services.NewTelegramBot(cfg.TelegramBot, store, a.logger)
	if err != nil {
		cancel()
		return fmt.Errorf("init telegram bot: %w", err)
	}

	reportSrv, err := services.NewReportService(cfg.Report, opSrv, a.logger)
	if err != nil {
		cancel()
		return fmt.Errorf("init report service: %w", err)
	}

	dailyJob, err := services.NewDailyJobService(tg, opSrv, reportSrv, cfg.DailyJob, a.logger)
	if err != nil {
		cancel()
		return fmt.Errorf("init daily job: %w", err)
	}

	toolSrv := server.NewToolServer(a.logger, opSrv, store, &cfg.HttpServer)

	go tg.Start(ctx)
	go dailyJob.Start(ctx)
	go func() {
		if err := toolSrv.Start(ctx); err != nil {
			a.logger.Error("Tool server exited with error", "error", err)
		}
	}()

	a.tg = tg
	a.dailyJob = dailyJob
	a.reportSrv = reportSrv
	a.opSrv = opSrv
	a.toolSrv = toolSrv
	a.store = store
	a.servicesCancel = cancel

	a.logger.Info("Services reinitialized successfully with configuration")
	return nil
}

// Shutdown останавливает все запущенные сервисы приложения.
func (a *App) Shutdown() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.servicesCancel != nil {
		a.logger.Info("Stopping services on shutdown")
		a.servicesCancel()
		a.servicesCancel = nil
	}
}
