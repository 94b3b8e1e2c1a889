package services

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/DevN0mad/OpenProjectTools/internal/models"
)

// BuildAssigneeStats рассчитывает сводку задач по исполнителям.
// Закрытость определяется по справочнику статусов сервера.
func BuildAssigneeStats(workPackages []models.WorkPackage, statuses []models.Status) []models.AssigneeStats {
	closedByName := make(map[string]bool, len(statuses))
	for _, status := range statuses {
		closedByName[strings.ToLower(status.Name)] = status.IsClosed
	}

	today := time.Now().Format("2006-01-02")
	statsMap := make(map[string]*models.AssigneeStats)

	for _, wp := range workPackages {
		if wp.Links.Assignee == nil || wp.Links.Assignee.Title == "" {
			continue
		}
		assignee := wp.Links.Assignee.Title

		if _, exists := statsMap[assignee]; !exists {
			statsMap[assignee] = &models.AssigneeStats{Name: assignee}
		}
		stats := statsMap[assignee]
		stats.Total++

		closed := false
		if wp.Links.Status != nil {
			closed = closedByName[strings.ToLower(wp.Links.Status.Title)]
		}

		if closed {
			stats.Closed++
			continue
		}

		stats.Open++
		if wp.DueDate != nil && *wp.DueDate < today {
			stats.Overdue++
		}
	}

	stats := make([]models.AssigneeStats, 0, len(statsMap))
	for _, stat := range statsMap {
		stats = append(stats, *stat)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Name < stats[j].Name })

	return stats
}

// FormatSummary форматирует сводку в текст для рассылки.
func FormatSummary(stats []models.AssigneeStats) string {
	if len(stats) == 0 {
		return "No assigned work packages found."
	}

	var b strings.Builder
	b.WriteString("Work package summary:\n")
	for _, stat := range stats {
		b.WriteString(fmt.Sprintf("%s: open %d, closed %d, overdue %d\n",
			stat.Name, stat.Open, stat.Closed, stat.Overdue))
	}
	return b.String()
}
