package services

import (
	"fmt"
	"strconv"

	"github.com/DevN0mad/OpenProjectTools/internal/models"
)

// BuildUpdatePayload строит тело PATCH-запроса из проверенного запроса
// на обновление и разрешённого статуса (nil означает, что статус не меняется).
// Запрос не модифицируется; каждый вызов возвращает свежую карту.
// Отсутствие статуса не добавляет ссылку вовсе: частичное обновление
// никогда не сбрасывает статус умолчанием.
func BuildUpdatePayload(req *models.WorkPackageUpdateRequest, status *models.Status) map[string]any {
	payload := map[string]any{}

	if req.Subject != nil {
		payload["subject"] = *req.Subject
	}
	if req.Description != nil {
		payload["description"] = map[string]any{
			"format": "markdown",
			"raw":    *req.Description,
		}
	}
	if req.StartDate != nil {
		payload["startDate"] = *req.StartDate
	}
	if req.DueDate != nil {
		payload["dueDate"] = *req.DueDate
	}
	if req.EstimatedHours != nil {
		payload["estimatedTime"] = formatISOHours(*req.EstimatedHours)
	}
	if req.DoneRatio != nil {
		payload["percentageDone"] = *req.DoneRatio
	}
	if req.LockVersion != nil {
		payload["lockVersion"] = *req.LockVersion
	}

	if status != nil {
		payload["_links"] = map[string]any{
			"status": map[string]any{
				"href": fmt.Sprintf("%s/statuses/%d", apiPrefix, status.ID),
			},
		}
	}

	return payload
}

// BuildCreatePayload строит тело POST-запроса на создание задачи.
func BuildCreatePayload(req *models.WorkPackageCreateRequest) map[string]any {
	payload := map[string]any{
		"subject": req.Subject,
	}

	if req.Description != nil {
		payload["description"] = map[string]any{
			"format": "markdown",
			"raw":    *req.Description,
		}
	}
	if req.StartDate != nil {
		payload["startDate"] = *req.StartDate
	}
	if req.DueDate != nil {
		payload["dueDate"] = *req.DueDate
	}
	if req.EstimatedHours != nil {
		payload["estimatedTime"] = formatISOHours(*req.EstimatedHours)
	}

	links := map[string]any{}
	if req.TypeID != nil {
		links["type"] = map[string]any{
			"href": fmt.Sprintf("%s/types/%d", apiPrefix, *req.TypeID),
		}
	}
	if req.AssigneeID != nil {
		links["assignee"] = map[string]any{
			"href": fmt.Sprintf("%s/users/%d", apiPrefix, *req.AssigneeID),
		}
	}
	if len(links) > 0 {
		payload["_links"] = links
	}

	return payload
}

// BuildRelationPayload строит тело POST-запроса на создание отношения.
func BuildRelationPayload(req *models.WorkPackageRelationCreateRequest) map[string]any {
	payload := map[string]any{
		"type": req.RelationType,
		"lag":  req.Lag,
		"_links": map[string]any{
			"from": map[string]any{
				"href": fmt.Sprintf("%s/work_packages/%d", apiPrefix, req.FromWorkPackageID),
			},
			"to": map[string]any{
				"href": fmt.Sprintf("%s/work_packages/%d", apiPrefix, req.ToWorkPackageID),
			},
		},
	}

	if req.Description != "" {
		payload["description"] = req.Description
	}

	return payload
}

// formatISOHours форматирует часы в ISO-8601 длительность вида "PT8H".
func formatISOHours(hours float64) string {
	return "PT" + strconv.FormatFloat(hours, 'f', -1, 64) + "H"
}
