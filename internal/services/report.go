package services

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/DevN0mad/OpenProjectTools/internal/models"
)

// ReportOpts параметры сервиса отчётов.
type ReportOpts struct {
	SaveDir string `yaml:"saveDir" validate:"required"`
}

// ReportService строит Excel-отчёт по задачам сконфигурированных проектов.
type ReportService struct {
	opts   ReportOpts
	opSrv  *OpenProjectService
	logger *slog.Logger
}

// NewReportService создаёт сервис отчётов.
func NewReportService(opts ReportOpts, opSrv *OpenProjectService, logger *slog.Logger) (*ReportService, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opSrv == nil {
		return nil, fmt.Errorf("open project service is required")
	}

	return &ReportService{
		opts:   opts,
		opSrv:  opSrv,
		logger: logger,
	}, nil
}

// GenerateReport выгружает задачи, считает сводку и сохраняет Excel файл.
// Возвращает путь к сохранённому файлу.
func (s *ReportService) GenerateReport(ctx context.Context) (string, error) {
	workPackages, err := s.opSrv.GetAllWorkPackages(ctx)
	if err != nil {
		return "", fmt.Errorf("get work packages: %w", err)
	}

	statuses, err := s.opSrv.GetWorkPackageStatuses(ctx, true)
	if err != nil {
		return "", fmt.Errorf("get statuses: %w", err)
	}

	stats := BuildAssigneeStats(workPackages, statuses)

	s.logger.Info("Creating Excel file",
		"total_tasks", len(workPackages),
		"assignees", len(stats))

	path := filepath.Join(s.opts.SaveDir,
		fmt.Sprintf("work_packages_%s.xlsx", time.Now().Format("2006-01-02")))

	if err := s.createExcelFile(path, workPackages, stats); err != nil {
		return "", err
	}

	s.logger.Info("✅ Excel report successfully created", "file", path)
	return path, nil
}

// createExcelFile создает Excel файл с двумя листами
func (s *ReportService) createExcelFile(filePath string, workPackages []models.WorkPackage, stats []models.AssigneeStats) error {
	f := excelize.NewFile()

	wpSheetIndex, err := f.NewSheet("Work Packages")
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	f.DeleteSheet("Sheet1")

	headers := []string{
		"ID", "Subject", "Type", "Status", "Assignee",
		"Responsible", "Project", "Start date", "Due date", "Done %",
	}

	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue("Work Packages", cell, header)
	}

	for row, wp := range workPackages {
		rec := wp.Flatten()
		rowNum := row + 2

		f.SetCellValue("Work Packages", fmt.Sprintf("A%d", rowNum), rec.ID)
		f.SetCellValue("Work Packages", fmt.Sprintf("B%d", rowNum), rec.Subject)
		f.SetCellValue("Work Packages", fmt.Sprintf("C%d", rowNum), deref(rec.Type))
		f.SetCellValue("Work Packages", fmt.Sprintf("D%d", rowNum), deref(rec.Status))
		f.SetCellValue("Work Packages", fmt.Sprintf("E%d", rowNum), deref(rec.Assignee))
		f.SetCellValue("Work Packages", fmt.Sprintf("F%d", rowNum), deref(rec.Responsible))
		f.SetCellValue("Work Packages", fmt.Sprintf("G%d", rowNum), deref(rec.ProjectName))
		f.SetCellValue("Work Packages", fmt.Sprintf("H%d", rowNum), deref(rec.StartDate))
		f.SetCellValue("Work Packages", fmt.Sprintf("I%d", rowNum), deref(rec.DueDate))
		f.SetCellValue("Work Packages", fmt.Sprintf("J%d", rowNum), rec.DoneRatio)
	}

	for i := range headers {
		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth("Work Packages", colName, colName, 20)
	}

	if _, err := f.NewSheet("Assignees"); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	statsHeaders := []string{"Assignee", "Total", "Open", "Closed", "Overdue"}
	for i, header := range statsHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue("Assignees", cell, header)
	}

	for row, stat := range stats {
		rowNum := row + 2

		f.SetCellValue("Assignees", fmt.Sprintf("A%d", rowNum), stat.Name)
		f.SetCellValue("Assignees", fmt.Sprintf("B%d", rowNum), stat.Total)
		f.SetCellValue("Assignees", fmt.Sprintf("C%d", rowNum), stat.Open)
		f.SetCellValue("Assignees", fmt.Sprintf("D%d", rowNum), stat.Closed)
		f.SetCellValue("Assignees", fmt.Sprintf("E%d", rowNum), stat.Overdue)
	}

	for i := range statsHeaders {
		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth("Assignees", colName, colName, 25)
	}

	f.SetActiveSheet(wpSheetIndex)

	s.logger.Info("Saving Excel file", "path", filePath)
	return f.SaveAs(filePath)
}

func deref[T any](v *T) T {
	var zero T
	if v == nil {
		return zero
	}
	return *v
}
