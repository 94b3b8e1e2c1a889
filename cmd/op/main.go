package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/DevN0mad/OpenProjectTools/internal/models"
	"github.com/DevN0mad/OpenProjectTools/internal/services"
)

// op утилита для разовых обращений к OpenProject из консоли.

var (
	baseURL  string
	apiToken string
	verbose  bool
)

func main() {
	root := &cobra.Command{
		Use:           "op",
		Short:         "Консольный клиент OpenProject",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&baseURL, "base-url", os.Getenv("OPENPROJECT_URL"), "Адрес инстанса OpenProject")
	root.PersistentFlags().StringVar(&apiToken, "token", os.Getenv("OPENPROJECT_API_TOKEN"), "API токен")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Подробный вывод")

	root.AddCommand(projectsCmd(), workPackagesCmd(), statusesCmd(), typesCmd(), usersCmd(), reportCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newService строит клиент OpenProject из флагов и окружения.
func newService() (*services.OpenProjectService, error) {
	if baseURL == "" || apiToken == "" {
		return nil, fmt.Errorf("base URL and API token are required (flags or OPENPROJECT_URL / OPENPROJECT_API_TOKEN)")
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	return services.Init(services.OpenProjectOpts{
		BaseURL:  baseURL,
		ApiToken: apiToken,
	}, logger), nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func projectsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "projects",
		Short: "Список проектов",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := newService()
			if err != nil {
				return err
			}
			projects, err := srv.GetProjects(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(projects)
		},
	}
}

func workPackagesCmd() *cobra.Command {
	var projectID int

	cmd := &cobra.Command{
		Use:   "work-packages",
		Short: "Операции с задачами",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "Список задач проекта",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := newService()
			if err != nil {
				return err
			}
			workPackages, err := srv.GetWorkPackages(cmd.Context(), projectID)
			if err != nil {
				return err
			}
			records := make([]models.WorkPackageRecord, 0, len(workPackages))
			for _, wp := range workPackages {
				records = append(records, wp.Flatten())
			}
			return printJSON(records)
		},
	}
	list.Flags().IntVar(&projectID, "project", 0, "ID проекта (0 — все проекты)")

	get := &cobra.Command{
		Use:   "get <id>",
		Short: "Одна задача по ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("work package ID must be a positive integer")
			}
			srv, err := newService()
			if err != nil {
				return err
			}
			rec, err := srv.GetWorkPackageByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			return printJSON(rec)
		},
	}

	var (
		subject string
		status  string
		dueDate string
	)
	update := &cobra.Command{
		Use:   "update <id>",
		Short: "Обновить задачу",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("work package ID must be a positive integer")
			}
			srv, err := newService()
			if err != nil {
				return err
			}

			statusInput := models.StatusInputByName(status)
			if statusID, convErr := strconv.Atoi(status); convErr == nil {
				statusInput = models.StatusInputByID(statusID)
			}

			req := &models.WorkPackageUpdateRequest{
				WorkPackageID: id,
				Status:        statusInput,
			}
			if subject != "" {
				req.Subject = &subject
			}
			if dueDate != "" {
				req.DueDate = &dueDate
			}

			rec, err := srv.UpdateWorkPackage(cmd.Context(), req)
			if err != nil {
				return err
			}
			return printJSON(rec)
		},
	}
	update.Flags().StringVar(&subject, "subject", "", "Новая тема")
	update.Flags().StringVar(&status, "status", "", "Новый статус (имя или ID)")
	update.Flags().StringVar(&dueDate, "due-date", "", "Новый срок (YYYY-MM-DD)")

	cmd.AddCommand(list, get, update)
	return cmd
}

func statusesCmd() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "statuses",
		Short: "Список статусов задач",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := newService()
			if err != nil {
				return err
			}
			statuses, err := srv.GetWorkPackageStatuses(cmd.Context(), !noCache)
			if err != nil {
				return err
			}
			return printJSON(statuses)
		},
	}
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Обойти кэш справочников")
	return cmd
}

func typesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "Список типов задач",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := newService()
			if err != nil {
				return err
			}
			types, err := srv.GetWorkPackageTypes(cmd.Context(), true)
			if err != nil {
				return err
			}
			return printJSON(types)
		},
	}
}

func usersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "Список пользователей",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := newService()
			if err != nil {
				return err
			}
			users, err := srv.GetUsers(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(users)
		},
	}
}

func reportCmd() *cobra.Command {
	var saveDir string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Сформировать Excel отчёт по задачам",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv, err := newService()
			if err != nil {
				return err
			}

			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
			reportSrv, err := services.NewReportService(services.ReportOpts{SaveDir: saveDir}, srv, logger)
			if err != nil {
				return err
			}

			path, err := reportSrv.GenerateReport(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Println(path)
			return nil
		},
	}
	cmd.Flags().StringVar(&saveDir, "dir", ".", "Каталог для сохранения отчёта")
	return cmd
}
