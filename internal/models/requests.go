package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ValidationError ошибка локальной проверки входных данных.
// Возникает до любого сетевого вызова.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// RelationTypes фиксированный набор допустимых типов отношений между задачами.
var RelationTypes = []string{
	"follows", "precedes", "blocks", "blocked_by",
	"relates", "duplicates", "duplicated_by", "includes", "partof",
}

var dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ValidateDate проверяет, что дата задана в строгом формате YYYY-MM-DD.
func ValidateDate(field, value string) error {
	if !dateRe.MatchString(value) {
		return &ValidationError{Field: field, Message: "Date must be in YYYY-MM-DD format"}
	}
	if _, err := time.Parse("2006-01-02", value); err != nil {
		return &ValidationError{Field: field, Message: "Date must be in YYYY-MM-DD format"}
	}
	return nil
}

// WorkPackageCreateRequest намерение создать задачу.
type WorkPackageCreateRequest struct {
	ProjectID      int      `json:"project_id"`
	Subject        string   `json:"subject"`
	TypeID         *int     `json:"type_id,omitempty"`
	Description    *string  `json:"description,omitempty"`
	StartDate      *string  `json:"start_date,omitempty"`
	DueDate        *string  `json:"due_date,omitempty"`
	EstimatedHours *float64 `json:"estimated_hours,omitempty"`
	AssigneeID     *int     `json:"assignee_id,omitempty"`
}

// Validate проверяет инварианты запроса на создание задачи.
func (r *WorkPackageCreateRequest) Validate() error {
	if r.ProjectID <= 0 {
		return &ValidationError{Field: "project_id", Message: "Project ID must be a positive integer"}
	}
	if strings.TrimSpace(r.Subject) == "" {
		return &ValidationError{Field: "subject", Message: "Subject cannot be empty"}
	}
	if r.TypeID != nil && *r.TypeID <= 0 {
		return &ValidationError{Field: "type_id", Message: "Type ID must be a positive integer"}
	}
	if r.AssigneeID != nil && *r.AssigneeID <= 0 {
		return &ValidationError{Field: "assignee_id", Message: "Assignee ID must be a positive integer"}
	}
	if err := validateDates(r.StartDate, r.DueDate); err != nil {
		return err
	}
	if r.EstimatedHours != nil && *r.EstimatedHours <= 0 {
		return &ValidationError{Field: "estimated_hours", Message: "Estimated hours must be positive"}
	}
	return nil
}

// WorkPackageUpdateRequest намерение изменить задачу. Поля-указатели,
// равные nil, не затрагиваются обновлением.
type WorkPackageUpdateRequest struct {
	WorkPackageID  int         `json:"work_package_id"`
	Subject        *string     `json:"subject,omitempty"`
	Description    *string     `json:"description,omitempty"`
	StartDate      *string     `json:"start_date,omitempty"`
	DueDate        *string     `json:"due_date,omitempty"`
	EstimatedHours *float64    `json:"estimated_hours,omitempty"`
	DoneRatio      *int        `json:"done_ratio,omitempty"`
	Status         StatusInput `json:"-"`
	LockVersion    *int        `json:"lock_version,omitempty"`
}

// Validate проверяет инварианты запроса на обновление задачи.
func (r *WorkPackageUpdateRequest) Validate() error {
	if r.WorkPackageID <= 0 {
		return &ValidationError{Field: "work_package_id", Message: "Work package ID must be a positive integer"}
	}
	if r.Subject != nil && strings.TrimSpace(*r.Subject) == "" {
		return &ValidationError{Field: "subject", Message: "Subject cannot be empty"}
	}
	if err := validateDates(r.StartDate, r.DueDate); err != nil {
		return err
	}
	if r.EstimatedHours != nil && *r.EstimatedHours < 0 {
		return &ValidationError{Field: "estimated_hours", Message: "Estimated hours must be positive"}
	}
	if r.DoneRatio != nil && (*r.DoneRatio < 0 || *r.DoneRatio > 100) {
		return &ValidationError{Field: "done_ratio", Message: "Done ratio must be between 0 and 100"}
	}
	return nil
}

// WorkPackageRelationCreateRequest намерение связать две задачи.
type WorkPackageRelationCreateRequest struct {
	FromWorkPackageID int    `json:"from_work_package_id"`
	ToWorkPackageID   int    `json:"to_work_package_id"`
	RelationType      string `json:"relation_type"`
	Lag               int    `json:"lag"`
	Description       string `json:"description,omitempty"`
}

// Validate проверяет инварианты запроса на создание отношения.
func (r *WorkPackageRelationCreateRequest) Validate() error {
	if r.FromWorkPackageID <= 0 {
		return &ValidationError{Field: "from_work_package_id", Message: "Work package ID must be a positive integer"}
	}
	if r.ToWorkPackageID <= 0 {
		return &ValidationError{Field: "to_work_package_id", Message: "Work package ID must be a positive integer"}
	}
	if r.FromWorkPackageID == r.ToWorkPackageID {
		return &ValidationError{Field: "to_work_package_id", Message: "Work package cannot have a relation with itself"}
	}
	if r.RelationType == "" {
		r.RelationType = "relates"
	}
	if !isRelationType(r.RelationType) {
		return &ValidationError{
			Field: "relation_type",
			Message: fmt.Sprintf("Invalid relation type %q. Valid types: %s",
				r.RelationType, strings.Join(RelationTypes, ", ")),
		}
	}
	if r.Lag < 0 {
		return &ValidationError{Field: "lag", Message: "Lag must be zero or positive"}
	}
	return nil
}

func isRelationType(t string) bool {
	for _, rt := range RelationTypes {
		if rt == t {
			return true
		}
	}
	return false
}

func validateDates(start, due *string) error {
	if start != nil {
		if err := ValidateDate("start_date", *start); err != nil {
			return err
		}
	}
	if due != nil {
		if err := ValidateDate("due_date", *due); err != nil {
			return err
		}
	}
	if start != nil && due != nil && *due < *start {
		return &ValidationError{Field: "due_date", Message: "Due date must be after start date"}
	}
	return nil
}
