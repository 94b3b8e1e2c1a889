package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/DevN0mad/OpenProjectTools/internal/models"
)

// Storage постоянное хранилище: реестр чатов для рассылки и журнал
// вызовов инструментов.
type Storage struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewStorage(dbPath string, logger *slog.Logger) (*Storage, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		logger.Error("failed to create db dir", "dir", dir, "error", err)
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		logger.Error("failed to open sqlite db", "path", dbPath, "error", err)
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := db.AutoMigrate(&models.Chat{}, &models.ToolInvocation{}); err != nil {
		logger.Error("failed to auto-migrate models", "error", err)
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	logger.Info("sqlite storage initialized", "path", dbPath)

	return &Storage{db: db, logger: logger}, nil
}

func (s *Storage) SaveChat(ctx context.Context, chatID int64, title string) error {
	db := s.db.WithContext(ctx)

	var chat models.Chat
	if err := db.Where("chat_id = ?", chatID).First(&chat).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			chat = models.Chat{
				ChatID:  chatID,
				Title:   title,
				AddedAt: time.Now(),
			}
			if err := db.Create(&chat).Error; err != nil {
				s.logger.Error("failed to create chat", "chat_id", chatID, "title", title, "error", err)
				return fmt.Errorf("create chat: %w", err)
			}
			s.logger.Info("chat created", "chat_id", chatID, "title", title)
			return nil
		}

		s.logger.Error("failed to load chat", "chat_id", chatID, "error", err)
		return err
	}

	chat.Title = title
	chat.AddedAt = time.Now()
	if err := db.Save(&chat).Error; err != nil {
		s.logger.Error("failed to update chat", "chat_id", chatID, "title", title, "error", err)
		return err
	}

	s.logger.Info("chat updated", "chat_id", chatID, "title", title)
	return nil
}

func (s *Storage) RemoveChat(ctx context.Context, chatID int64) error {
	db := s.db.WithContext(ctx)

	if err := db.Where("chat_id = ?", chatID).Delete(&models.Chat{}).Error; err != nil {
		s.logger.Error("failed to remove chat", "chat_id", chatID, "error", err)
		return err
	}

	s.logger.Info("chat removed", "chat_id", chatID)
	return nil
}

func (s *Storage) ListChats(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := s.db.WithContext(ctx).Model(&models.Chat{}).Pluck("chat_id", &ids).Error; err != nil {
		s.logger.Error("failed to list chats", "error", err)
		return nil, err
	}
	return ids, nil
}

// RecordInvocation записывает результат вызова инструмента в журнал.
func (s *Storage) RecordInvocation(ctx context.Context, tool string, success bool, errText string, duration time.Duration) error {
	db := s.db.WithContext(ctx)

	invocation := models.ToolInvocation{
		Tool:       tool,
		Success:    success,
		Error:      errText,
		DurationMS: duration.Milliseconds(),
		CalledAt:   time.Now(),
	}

	if err := db.Create(&invocation).Error; err != nil {
		s.logger.Error("failed to record invocation", "tool", tool, "error", err)
		return err
	}

	s.logger.Debug("invocation recorded",
		"tool", tool,
		"success", success,
		"duration_ms", invocation.DurationMS)

	return nil
}

// RecentInvocations возвращает последние записи журнала вызовов.
func (s *Storage) RecentInvocations(ctx context.Context, limit int) ([]models.ToolInvocation, error) {
	if limit <= 0 {
		limit = 50
	}

	var invocations []models.ToolInvocation
	err := s.db.WithContext(ctx).
		Order("called_at DESC").
		Limit(limit).
		Find(&invocations).Error
	if err != nil {
		s.logger.Error("failed to select invocations", "error", err)
		return nil, err
	}

	return invocations, nil
}
