package models

import "time"

// ToolInvocation запись журнала вызовов инструментов.
type ToolInvocation struct {
	ID         uint      `gorm:"column:id;primaryKey" db:"id"`
	Tool       string    `gorm:"column:tool;index;not null" db:"tool"`
	Success    bool      `gorm:"column:success;not null" db:"success"`
	Error      string    `gorm:"column:error" db:"error"`
	DurationMS int64     `gorm:"column:duration_ms" db:"duration_ms"`
	CalledAt   time.Time `gorm:"column:called_at;autoCreateTime" db:"called_at"`
}

func (ToolInvocation) TableName() string {
	return "tool_invocations"
}
