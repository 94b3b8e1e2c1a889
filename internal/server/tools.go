package server

import (
	"context"
	"fmt"

	"github.com/DevN0mad/OpenProjectTools/internal/models"
	"github.com/DevN0mad/OpenProjectTools/internal/services"
)

// tool один инструмент: обработчик и текст для ответа "не найдено".
type tool struct {
	call     func(ctx context.Context, args map[string]any) (map[string]any, error)
	notFound string
}

// registerTools собирает реестр инструментов поверх типизированных
// операций клиента OpenProject.
func (h *ToolServer) registerTools() map[string]tool {
	return map[string]tool{
		"get_work_package": {
			notFound: "Work package not found",
			call: func(ctx context.Context, args map[string]any) (map[string]any, error) {
				id, err := intArg(args, "work_package_id")
				if err != nil {
					return nil, err
				}
				rec, err := h.opSrv.GetWorkPackageByID(ctx, id)
				if err != nil {
					return nil, err
				}
				return map[string]any{"work_package": rec}, nil
			},
		},
		"list_work_packages": {
			notFound: "Project not found",
			call: func(ctx context.Context, args map[string]any) (map[string]any, error) {
				projectID, err := intArg(args, "project_id")
				if err != nil {
					return nil, err
				}
				workPackages, err := h.opSrv.GetWorkPackages(ctx, projectID)
				if err != nil {
					return nil, err
				}
				records := make([]models.WorkPackageRecord, 0, len(workPackages))
				for _, wp := range workPackages {
					records = append(records, wp.Flatten())
				}
				return map[string]any{"work_packages": records, "count": len(records)}, nil
			},
		},
		"create_work_package": {
			notFound: "Project not found",
			call: func(ctx context.Context, args map[string]any) (map[string]any, error) {
				req := &models.WorkPackageCreateRequest{}
				var err error
				if req.ProjectID, err = intArg(args, "project_id"); err != nil {
					return nil, err
				}
				req.Subject, _ = stringArg(args, "subject")
				if req.TypeID, err = optIntArg(args, "type_id"); err != nil {
					return nil, err
				}
				if req.AssigneeID, err = optIntArg(args, "assignee_id"); err != nil {
					return nil, err
				}
				req.Description = optStringArg(args, "description")
				req.StartDate = optStringArg(args, "start_date")
				req.DueDate = optStringArg(args, "due_date")
				if req.EstimatedHours, err = optFloatArg(args, "estimated_hours"); err != nil {
					return nil, err
				}

				rec, err := h.opSrv.CreateWorkPackage(ctx, req)
				if err != nil {
					return nil, err
				}
				return map[string]any{"work_package": rec}, nil
			},
		},
		"update_work_package": {
			notFound: "Work package not found",
			call: func(ctx context.Context, args map[string]any) (map[string]any, error) {
				req := &models.WorkPackageUpdateRequest{}
				var err error
				if req.WorkPackageID, err = intArg(args, "work_package_id"); err != nil {
					return nil, err
				}
				req.Subject = optStringArg(args, "subject")
				req.Description = optStringArg(args, "description")
				req.StartDate = optStringArg(args, "start_date")
				req.DueDate = optStringArg(args, "due_date")
				if req.EstimatedHours, err = optFloatArg(args, "estimated_hours"); err != nil {
					return nil, err
				}
				if req.DoneRatio, err = optIntArg(args, "done_ratio"); err != nil {
					return nil, err
				}
				if req.LockVersion, err = optIntArg(args, "lock_version"); err != nil {
					return nil, err
				}
				if req.Status, err = models.StatusInputFromJSON(args["status"]); err != nil {
					return nil, err
				}

				rec, err := h.opSrv.UpdateWorkPackage(ctx, req)
				if err != nil {
					return nil, err
				}
				return map[string]any{"work_package": rec}, nil
			},
		},
		"create_work_package_relation": {
			notFound: "Work package not found",
			call: func(ctx context.Context, args map[string]any) (map[string]any, error) {
				req := &models.WorkPackageRelationCreateRequest{}
				var err error
				if req.FromWorkPackageID, err = intArg(args, "from_work_package_id"); err != nil {
					return nil, err
				}
				if req.ToWorkPackageID, err = intArg(args, "to_work_package_id"); err != nil {
					return nil, err
				}
				req.RelationType, _ = stringArg(args, "relation_type")
				if req.Lag, err = intArg(args, "lag"); err != nil {
					return nil, err
				}
				req.Description, _ = stringArg(args, "description")

				relation, err := h.opSrv.CreateWorkPackageRelation(ctx, req)
				if err != nil {
					return nil, err
				}
				return map[string]any{"relation": relation}, nil
			},
		},
		"list_projects": {
			call: func(ctx context.Context, args map[string]any) (map[string]any, error) {
				projects, err := h.opSrv.GetProjects(ctx)
				if err != nil {
					return nil, err
				}
				return map[string]any{"projects": projects, "count": len(projects)}, nil
			},
		},
		"list_statuses": {
			call: func(ctx context.Context, args map[string]any) (map[string]any, error) {
				statuses, err := h.opSrv.GetWorkPackageStatuses(ctx, useCacheArg(args))
				if err != nil {
					return nil, err
				}
				return map[string]any{"statuses": statuses, "count": len(statuses)}, nil
			},
		},
		"list_types": {
			call: func(ctx context.Context, args map[string]any) (map[string]any, error) {
				types, err := h.opSrv.GetWorkPackageTypes(ctx, useCacheArg(args))
				if err != nil {
					return nil, err
				}
				return map[string]any{"types": types, "count": len(types)}, nil
			},
		},
		"list_users": {
			call: func(ctx context.Context, args map[string]any) (map[string]any, error) {
				users, err := h.opSrv.GetUsers(ctx)
				if err != nil {
					return nil, err
				}
				return map[string]any{"users": users, "count": len(users)}, nil
			},
		},
		"get_user": {
			notFound: "User not found",
			call: func(ctx context.Context, args map[string]any) (map[string]any, error) {
				if email, ok := stringArg(args, "email"); ok && email != "" {
					user, err := h.opSrv.GetUserByEmail(ctx, email)
					if err != nil {
						return nil, err
					}
					return map[string]any{"user": user}, nil
				}

				id, err := intArg(args, "user_id")
				if err != nil {
					return nil, err
				}
				user, err := h.opSrv.GetUserByID(ctx, id)
				if err != nil {
					return nil, err
				}
				return map[string]any{"user": user}, nil
			},
		},
	}
}

// failure строит конверт отказа.
func failure(message string) map[string]any {
	return map[string]any{"success": false, "error": message}
}

// toolErrorMessage подбирает текст ошибки для конверта: 404 от сервера
// превращается в понятное "не найдено" конкретного инструмента.
func toolErrorMessage(t tool, err error) string {
	if services.IsNotFound(err) && t.notFound != "" {
		return t.notFound
	}
	return err.Error()
}

// Аргументы приходят из разобранного JSON, поэтому числа имеют тип float64.

func intArg(args map[string]any, key string) (int, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return 0, nil
	}
	switch n := v.(type) {
	case float64:
		return int(n), nil
	case int:
		return n, nil
	default:
		return 0, &models.ValidationError{Field: key, Message: fmt.Sprintf("must be an integer, got %T", v)}
	}
}

func optIntArg(args map[string]any, key string) (*int, error) {
	if v, ok := args[key]; !ok || v == nil {
		return nil, nil
	}
	n, err := intArg(args, key)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func optFloatArg(args map[string]any, key string) (*float64, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch n := v.(type) {
	case float64:
		return &n, nil
	case int:
		f := float64(n)
		return &f, nil
	default:
		return nil, &models.ValidationError{Field: key, Message: fmt.Sprintf("must be a number, got %T", v)}
	}
}

func stringArg(args map[string]any, key string) (string, bool) {
	v, ok := args[key].(string)
	return v, ok
}

func optStringArg(args map[string]any, key string) *string {
	if v, ok := args[key].(string); ok {
		return &v
	}
	return nil
}

func useCacheArg(args map[string]any) bool {
	if v, ok := args["use_cache"].(bool); ok {
		return v
	}
	return true
}
