package models

// AssigneeStats представляет сводку задач по исполнителю
type AssigneeStats struct {
	Name    string
	Total   int
	Open    int
	Closed  int
	Overdue int
}
