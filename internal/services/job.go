package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DailyJobOpts параметры необходимые для работы сервиса.
type DailyJobOpts struct {
	Hour       int  `yaml:"hour" validate:"min=0,max=23"`
	Minute     int  `yaml:"minute" validate:"min=0,max=59"`
	SendReport bool `yaml:"send_report"`
}

// DailyJobService каждый день в заданное время рассылает сводку по задачам
// и, при включённой опции, Excel-отчёт.
type DailyJobService struct {
	botServ    *TelegramBotService
	opSrv      *OpenProjectService
	reportSrv  *ReportService
	hour       int
	minute     int
	sendReport bool
	timezone   *time.Location
	logger     *slog.Logger
}

// NewDailyJobService создаёт сервис ежедневной рассылки.
func NewDailyJobService(
	botServ *TelegramBotService,
	opSrv *OpenProjectService,
	reportSrv *ReportService,
	opts DailyJobOpts,
	logger *slog.Logger,
) (*DailyJobService, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if botServ == nil {
		return nil, fmt.Errorf("bot service is required")
	}
	if opSrv == nil {
		return nil, fmt.Errorf("open project service is required")
	}
	if opts.SendReport && reportSrv == nil {
		return nil, fmt.Errorf("report service is required when send_report is enabled")
	}

	logger.Info("Daily job configured",
		"hour", opts.Hour,
		"minute", opts.Minute,
		"timezone", time.Local.String(),
		"send_report", opts.SendReport)

	return &DailyJobService{
		botServ:    botServ,
		opSrv:      opSrv,
		reportSrv:  reportSrv,
		hour:       opts.Hour,
		minute:     opts.Minute,
		sendReport: opts.SendReport,
		timezone:   time.Local,
		logger:     logger,
	}, nil
}

// Start запускает цикл рассылки.
func (d *DailyJobService) Start(ctx context.Context) {
	nextRun := d.nextRunTime()
	timer := time.NewTimer(time.Until(nextRun))
	d.logger.Info("Next run scheduled", "at", nextRun.Format(time.RFC3339))

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Shutdown requested")
			timer.Stop()
			return
		case <-timer.C:
			if err := d.run(ctx); err != nil {
				d.logger.Error("Daily summary failed", "error", err)
			} else {
				d.logger.Info("Daily summary sent successfully")
			}

			nextRun = d.nextRunTime()
			timer.Reset(time.Until(nextRun))
			d.logger.Info("Next run scheduled", "at", nextRun.Format(time.RFC3339))
		}
	}
}

// run собирает сводку и рассылает её по зарегистрированным чатам.
func (d *DailyJobService) run(ctx context.Context) error {
	workPackages, err := d.opSrv.GetAllWorkPackages(ctx)
	if err != nil {
		return fmt.Errorf("get work packages: %w", err)
	}

	statuses, err := d.opSrv.GetWorkPackageStatuses(ctx, true)
	if err != nil {
		return fmt.Errorf("get statuses: %w", err)
	}

	summary := FormatSummary(BuildAssigneeStats(workPackages, statuses))
	if err := d.botServ.Broadcast(ctx, summary); err != nil {
		return fmt.Errorf("broadcast summary: %w", err)
	}

	if d.sendReport {
		path, err := d.reportSrv.GenerateReport(ctx)
		if err != nil {
			return fmt.Errorf("generate report: %w", err)
		}
		if err := d.botServ.SendFile(ctx, path, "Daily work package report"); err != nil {
			return fmt.Errorf("send report: %w", err)
		}
	}

	return nil
}

// nextRunTime вычисляет ближайшее время
func (d *DailyJobService) nextRunTime() time.Time {
	now := time.Now().In(d.timezone)
	today := time.Date(now.Year(), now.Month(), now.Day(), d.hour, d.minute, 0, 0, d.timezone)

	if now.After(today) {
		return today.Add(24 * time.Hour)
	}
	return today
}
