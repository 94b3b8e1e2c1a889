package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/DevN0mad/OpenProjectTools/internal/models"
)

// apiPrefix префикс версионированного API OpenProject.
const apiPrefix = "/api/v3"

// OpenProjectOpts параметры подключения к OpenProject.
type OpenProjectOpts struct {
	BaseURL        string `yaml:"baseURL" validate:"required"`
	ApiToken       string `yaml:"apiToken" validate:"required"`
	ProjectIDs     []int  `yaml:"projectIDs"`
	PageSize       int    `yaml:"pageSize" validate:"min=0"`
	TimeoutSeconds int    `yaml:"timeout_seconds" validate:"min=0"`
}

// OpenProjectService основной сервис для работы с OpenProject
type OpenProjectService struct {
	opts   OpenProjectOpts
	logger *slog.Logger
	client *http.Client
	cache  *referenceCache
}

// Init инициализирует сервис с API токеном
func Init(opts OpenProjectOpts, logger *slog.Logger) *OpenProjectService {
	if logger == nil {
		logger = slog.Default()
	}

	timeout := 30 * time.Second
	if opts.TimeoutSeconds > 0 {
		timeout = time.Duration(opts.TimeoutSeconds) * time.Second
	}

	return &OpenProjectService{
		opts:   opts,
		logger: logger,
		client: &http.Client{Timeout: timeout},
		cache:  newReferenceCache(),
	}
}

// SetHTTPClient подменяет HTTP-клиент, используется в тестах.
func (s *OpenProjectService) SetHTTPClient(client *http.Client) {
	s.client = client
}

// Request выполняет один HTTP-запрос к API и возвращает разобранный JSON.
// Любой не-2xx статус превращается в APIError; ошибки транспорта
// (включая таймауты) идут тем же каналом.
func (s *OpenProjectService) Request(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	fullURL := strings.TrimRight(s.opts.BaseURL, "/") + apiPrefix + path

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	auth := "apikey:" + s.opts.ApiToken
	req.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(auth)))
	req.Header.Set("Content-Type", "application/json")

	s.logger.Debug("API request", "method", method, "path", path)

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Error("❌ API request failed", "method", method, "path", path, "error", err)
		return nil, NewTransportError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, NewTransportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := NewAPIError(resp.StatusCode, respBody)
		s.logger.Warn("API request rejected",
			"method", method,
			"path", path,
			"status", resp.StatusCode,
			"message", apiErr.Message)
		return nil, apiErr
	}

	if len(respBody) == 0 {
		return nil, nil
	}

	return respBody, nil
}

// GetProjects возвращает все проекты.
func (s *OpenProjectService) GetProjects(ctx context.Context) ([]models.Project, error) {
	elements, err := s.getPaginated(ctx, "/projects", nil)
	if err != nil {
		return nil, err
	}
	return decodeElements[models.Project](elements)
}

// GetWorkPackages получает все задачи проекта. Нулевой projectID
// означает задачи всех проектов.
func (s *OpenProjectService) GetWorkPackages(ctx context.Context, projectID int) ([]models.WorkPackage, error) {
	path := "/work_packages"
	if projectID > 0 {
		path = fmt.Sprintf("/projects/%d/work_packages", projectID)
	}

	elements, err := s.getPaginated(ctx, path, nil)
	if err != nil {
		return nil, err
	}
	return decodeElements[models.WorkPackage](elements)
}

// GetAllWorkPackages получает задачи всех проектов из конфигурации.
func (s *OpenProjectService) GetAllWorkPackages(ctx context.Context) ([]models.WorkPackage, error) {
	if len(s.opts.ProjectIDs) == 0 {
		return s.GetWorkPackages(ctx, 0)
	}

	var all []models.WorkPackage
	s.logger.Info("Starting tasks export", "projects_count", len(s.opts.ProjectIDs))

	for i, projectID := range s.opts.ProjectIDs {
		s.logger.Info("Processing project", "current", i+1, "total", len(s.opts.ProjectIDs), "project_id", projectID)

		workPackages, err := s.GetWorkPackages(ctx, projectID)
		if err != nil {
			s.logger.Error("❌ Failed to get tasks for project", "project_id", projectID, "error", err)
			return nil, fmt.Errorf("get work packages for project %d: %w", projectID, err)
		}

		all = append(all, workPackages...)
		s.logger.Info("✅ Project tasks added", "project_id", projectID, "added", len(workPackages), "total", len(all))
	}

	return all, nil
}

// GetWorkPackageByID получает одну задачу и возвращает её плоскую запись.
func (s *OpenProjectService) GetWorkPackageByID(ctx context.Context, id int) (*models.WorkPackageRecord, error) {
	if id <= 0 {
		return nil, &models.ValidationError{Field: "work_package_id", Message: "Work package ID must be a positive integer"}
	}

	raw, err := s.Request(ctx, http.MethodGet, fmt.Sprintf("/work_packages/%d", id), nil)
	if err != nil {
		return nil, err
	}

	var wp models.WorkPackage
	if err := json.Unmarshal(raw, &wp); err != nil {
		return nil, NewTransportError(fmt.Errorf("decode work package: %w", err))
	}

	rec := wp.Flatten()
	return &rec, nil
}

// CreateWorkPackage создаёт задачу в проекте из проверенного запроса.
func (s *OpenProjectService) CreateWorkPackage(ctx context.Context, req *models.WorkPackageCreateRequest) (*models.WorkPackageRecord, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	payload := BuildCreatePayload(req)
	raw, err := s.Request(ctx, http.MethodPost, fmt.Sprintf("/projects/%d/work_packages", req.ProjectID), payload)
	if err != nil {
		return nil, err
	}

	var wp models.WorkPackage
	if err := json.Unmarshal(raw, &wp); err != nil {
		return nil, NewTransportError(fmt.Errorf("decode work package: %w", err))
	}

	s.logger.Info("✅ Work package created", "id", wp.ID, "project_id", req.ProjectID)

	rec := wp.Flatten()
	return &rec, nil
}

// UpdateWorkPackage обновляет задачу. Статус, если он указан, сначала
// разрешается по живому списку статусов; нераспознанный статус даёт
// ошибку с перечислением допустимых имён.
func (s *OpenProjectService) UpdateWorkPackage(ctx context.Context, req *models.WorkPackageUpdateRequest) (*models.WorkPackageRecord, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	resolved, err := s.ResolveStatus(ctx, req.Status)
	if err != nil {
		return nil, err
	}
	if resolved == nil && !req.Status.IsUnset() {
		statuses, err := s.GetWorkPackageStatuses(ctx, true)
		if err != nil {
			return nil, err
		}
		return nil, &InvalidStatusError{Input: req.Status.String(), Available: statusNames(statuses)}
	}

	payload := BuildUpdatePayload(req, resolved)
	raw, err := s.Request(ctx, http.MethodPatch, fmt.Sprintf("/work_packages/%d", req.WorkPackageID), payload)
	if err != nil {
		return nil, err
	}

	var wp models.WorkPackage
	if err := json.Unmarshal(raw, &wp); err != nil {
		return nil, NewTransportError(fmt.Errorf("decode work package: %w", err))
	}

	rec := wp.Flatten()
	if resolved != nil {
		isClosed := resolved.IsClosed
		rec.IsClosed = &isClosed
	}

	s.logger.Info("✅ Work package updated", "id", req.WorkPackageID)
	return &rec, nil
}

// CreateWorkPackageRelation создаёт отношение между двумя задачами.
func (s *OpenProjectService) CreateWorkPackageRelation(ctx context.Context, req *models.WorkPackageRelationCreateRequest) (*models.Relation, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	payload := BuildRelationPayload(req)
	raw, err := s.Request(ctx, http.MethodPost, fmt.Sprintf("/work_packages/%d/relations", req.FromWorkPackageID), payload)
	if err != nil {
		return nil, err
	}

	var relation models.Relation
	if err := json.Unmarshal(raw, &relation); err != nil {
		return nil, NewTransportError(fmt.Errorf("decode relation: %w", err))
	}

	s.logger.Info("✅ Relation created",
		"from", req.FromWorkPackageID,
		"to", req.ToWorkPackageID,
		"type", req.RelationType)
	return &relation, nil
}

// GetUsers возвращает всех пользователей.
func (s *OpenProjectService) GetUsers(ctx context.Context) ([]models.User, error) {
	elements, err := s.getPaginated(ctx, "/users", nil)
	if err != nil {
		return nil, err
	}
	return decodeElements[models.User](elements)
}

// GetUserByEmail ищет пользователя по адресу почты.
func (s *OpenProjectService) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, &models.ValidationError{Field: "email", Message: "Email cannot be empty"}
	}

	users, err := s.GetUsers(ctx)
	if err != nil {
		return nil, err
	}

	for _, user := range users {
		if strings.EqualFold(user.Email, email) {
			u := user
			return &u, nil
		}
	}

	return nil, &APIError{
		StatusCode: http.StatusNotFound,
		Message:    fmt.Sprintf("User not found: %s", email),
	}
}

// GetUserByID возвращает пользователя по идентификатору.
func (s *OpenProjectService) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	if id <= 0 {
		return nil, &models.ValidationError{Field: "user_id", Message: "User ID must be a positive integer"}
	}

	raw, err := s.Request(ctx, http.MethodGet, fmt.Sprintf("/users/%d", id), nil)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := json.Unmarshal(raw, &user); err != nil {
		return nil, NewTransportError(fmt.Errorf("decode user: %w", err))
	}
	return &user, nil
}

// GetWorkPackageStatuses возвращает статусы задач через кэш справочников.
func (s *OpenProjectService) GetWorkPackageStatuses(ctx context.Context, useCache bool) ([]models.Status, error) {
	elements, err := s.referenceElements(ctx, "statuses", "/statuses", useCache)
	if err != nil {
		return nil, err
	}
	return decodeElements[models.Status](elements)
}

// GetWorkPackageTypes возвращает типы задач через кэш справочников.
func (s *OpenProjectService) GetWorkPackageTypes(ctx context.Context, useCache bool) ([]models.Type, error) {
	elements, err := s.referenceElements(ctx, "types", "/types", useCache)
	if err != nil {
		return nil, err
	}
	return decodeElements[models.Type](elements)
}

// referenceElements отдаёт элементы справочника из кэша или с сервера.
// useCache=false всегда идёт на сервер и перезаписывает запись кэша.
func (s *OpenProjectService) referenceElements(ctx context.Context, kind, path string, useCache bool) ([]json.RawMessage, error) {
	if useCache {
		if cached, ok := s.cache.get(kind); ok {
			return cached, nil
		}
	}

	elements, err := s.getPaginated(ctx, path, nil)
	if err != nil {
		return nil, err
	}

	s.cache.put(kind, elements)
	s.logger.Debug("Reference data refreshed", "kind", kind, "count", len(elements))
	return elements, nil
}

// decodeElements разбирает элементы коллекции в типизированные записи.
func decodeElements[T any](elements []json.RawMessage) ([]T, error) {
	out := make([]T, 0, len(elements))
	for _, raw := range elements {
		var item T
		if err := json.Unmarshal(raw, &item); err != nil {
			return nil, NewTransportError(fmt.Errorf("decode collection element: %w", err))
		}
		out = append(out, item)
	}
	return out, nil
}

// withQuery добавляет параметры запроса к пути.
func withQuery(path string, query url.Values) string {
	if len(query) == 0 {
		return path
	}
	return path + "?" + query.Encode()
}
