package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/DevN0mad/OpenProjectTools/internal/models"
)

// InvalidStatusError непустой ввод статуса не совпал ни с одним статусом
// сервера. Сообщение перечисляет все допустимые имена, чтобы вызывающая
// сторона могла исправиться без второго обращения.
type InvalidStatusError struct {
	Input     string
	Available []string
}

func (e *InvalidStatusError) Error() string {
	return fmt.Sprintf("Invalid status %q. Available statuses: %s",
		e.Input, strings.Join(e.Available, ", "))
}

// ResolveStatus разрешает ввод статуса по живому списку статусов.
// Незаданный ввод означает "без изменений" и возвращает nil без ошибки.
// Несовпавший ввод тоже возвращает nil: превращать его в ошибку
// решает вызывающий слой.
func (s *OpenProjectService) ResolveStatus(ctx context.Context, input models.StatusInput) (*models.Status, error) {
	if input.IsUnset() {
		return nil, nil
	}

	statuses, err := s.GetWorkPackageStatuses(ctx, true)
	if err != nil {
		return nil, err
	}

	switch input.Kind() {
	case models.StatusByID:
		for _, status := range statuses {
			if status.ID == input.ID() {
				st := status
				return &st, nil
			}
		}
	case models.StatusByName:
		// Имена статусов уникальны в пределах инстанса; при дублях
		// детерминированно побеждает первый в порядке position.
		name := strings.TrimSpace(input.Name())
		for _, status := range statuses {
			if strings.EqualFold(status.Name, name) {
				st := status
				return &st, nil
			}
		}
	}

	return nil, nil
}

// statusNames возвращает имена статусов в порядке списка сервера.
func statusNames(statuses []models.Status) []string {
	names := make([]string, 0, len(statuses))
	for _, status := range statuses {
		names = append(names, status.Name)
	}
	return names
}
