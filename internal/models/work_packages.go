package models

import (
	"regexp"
	"strconv"
	"strings"
)

// Link представляет гиперссылку HAL+JSON из секции _links.
type Link struct {
	Href  string `json:"href"`
	Title string `json:"title"`
}

// Formattable представляет форматируемое текстовое поле OpenProject.
type Formattable struct {
	Format string `json:"format,omitempty"`
	Raw    string `json:"raw"`
	HTML   string `json:"html,omitempty"`
}

// WorkPackageLinks связанные ресурсы задачи.
type WorkPackageLinks struct {
	Type        *Link `json:"type"`
	Status      *Link `json:"status"`
	Priority    *Link `json:"priority"`
	Assignee    *Link `json:"assignee"`
	Responsible *Link `json:"responsible"`
	Project     *Link `json:"project"`
}

// WorkPackage представляет задачу в OpenProject как её отдаёт API.
type WorkPackage struct {
	ID             int              `json:"id"`
	Subject        string           `json:"subject"`
	Description    *Formattable     `json:"description"`
	StartDate      *string          `json:"startDate"`
	DueDate        *string          `json:"dueDate"`
	EstimatedTime  *string          `json:"estimatedTime"`
	PercentageDone int              `json:"percentageDone"`
	LockVersion    int              `json:"lockVersion"`
	CreatedAt      string           `json:"createdAt"`
	UpdatedAt      string           `json:"updatedAt"`
	Links          WorkPackageLinks `json:"_links"`
}

// WorkPackageRecord плоское представление задачи для вызывающей стороны.
// Необязательные поля остаются nil и не сериализуются: отсутствие ключа
// означает "не задано", а не пустое значение.
type WorkPackageRecord struct {
	ID             int      `json:"id"`
	Subject        string   `json:"subject"`
	Description    *string  `json:"description,omitempty"`
	StartDate      *string  `json:"start_date,omitempty"`
	DueDate        *string  `json:"due_date,omitempty"`
	EstimatedHours *float64 `json:"estimated_hours,omitempty"`
	DoneRatio      int      `json:"done_ratio"`
	CreatedAt      string   `json:"created_at,omitempty"`
	UpdatedAt      string   `json:"updated_at,omitempty"`
	Status         *string  `json:"status,omitempty"`
	Type           *string  `json:"type,omitempty"`
	Priority       *string  `json:"priority,omitempty"`
	Assignee       *string  `json:"assignee,omitempty"`
	Responsible    *string  `json:"responsible,omitempty"`
	ProjectID      *int     `json:"project_id,omitempty"`
	ProjectName    *string  `json:"project_name,omitempty"`
	IsClosed       *bool    `json:"is_closed,omitempty"`
}

// Сервер отдаёт длительности только в часах, вида "PT16H".
var isoHoursRe = regexp.MustCompile(`^PT(\d+(?:\.\d+)?)H$`)

// ParseISOHours разбирает ISO-8601 длительность в часы.
func ParseISOHours(duration string) (float64, bool) {
	m := isoHoursRe.FindStringSubmatch(duration)
	if m == nil {
		return 0, false
	}
	hours, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return hours, true
}

// IDFromHref извлекает числовой идентификатор из последнего сегмента href.
func IDFromHref(href string) (int, bool) {
	parts := strings.Split(strings.TrimRight(href, "/"), "/")
	if len(parts) == 0 {
		return 0, false
	}
	id, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil {
		return 0, false
	}
	return id, true
}

// Flatten преобразует HAL-представление задачи в плоскую запись.
func (wp WorkPackage) Flatten() WorkPackageRecord {
	rec := WorkPackageRecord{
		ID:        wp.ID,
		Subject:   wp.Subject,
		DoneRatio: wp.PercentageDone,
		CreatedAt: wp.CreatedAt,
		UpdatedAt: wp.UpdatedAt,
		StartDate: wp.StartDate,
		DueDate:   wp.DueDate,
	}

	if wp.Description != nil && wp.Description.Raw != "" {
		raw := wp.Description.Raw
		rec.Description = &raw
	}

	if wp.EstimatedTime != nil {
		if hours, ok := ParseISOHours(*wp.EstimatedTime); ok {
			rec.EstimatedHours = &hours
		}
	}

	rec.Status = linkTitle(wp.Links.Status)
	rec.Type = linkTitle(wp.Links.Type)
	rec.Priority = linkTitle(wp.Links.Priority)
	rec.Assignee = linkTitle(wp.Links.Assignee)
	rec.Responsible = linkTitle(wp.Links.Responsible)

	if wp.Links.Project != nil {
		rec.ProjectName = linkTitle(wp.Links.Project)
		if id, ok := IDFromHref(wp.Links.Project.Href); ok {
			rec.ProjectID = &id
		}
	}

	return rec
}

func linkTitle(l *Link) *string {
	if l == nil || l.Title == "" {
		return nil
	}
	title := l.Title
	return &title
}
