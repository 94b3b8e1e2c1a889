package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/DevN0mad/OpenProjectTools/internal/storage"
)

// TelegramOpts параметры необходимые для инициализации сервиса TelegramBotService.
type TelegramOpts struct {
	Token string `yaml:"token" validate:"required"`
}

// TelegramBotService сервис предназначенный для взаимодействия с telegram.
// Чаты для рассылки регистрируются командами /start и /stop и хранятся
// в постоянном хранилище.
type TelegramBotService struct {
	opts    TelegramOpts
	logger  *slog.Logger
	bot     *tgbotapi.BotAPI
	storage *storage.Storage
}

// NewTelegramBot создает экземпляр сервиса для работы с telegram ботом.
func NewTelegramBot(opts TelegramOpts, store *storage.Storage, logger *slog.Logger) (*TelegramBotService, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if opts.Token == "" {
		return nil, fmt.Errorf("telegram bot token is required")
	}

	if store == nil {
		return nil, fmt.Errorf("storage is required")
	}

	bot, err := tgbotapi.NewBotAPI(opts.Token)
	if err != nil {
		logger.Error("Failed to create Telegram bot", "error", err)
		return nil, fmt.Errorf("create Telegram bot: %w", err)
	}

	logger.Info("Telegram bot created successfully", "bot_user", bot.Self.UserName)
	return &TelegramBotService{
		opts:    opts,
		logger:  logger,
		bot:     bot,
		storage: store,
	}, nil
}

// Start запускает цикл обработки обновлений: регистрацию и удаление чатов.
func (s *TelegramBotService) Start(ctx context.Context) {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 30

	updates := s.bot.GetUpdatesChan(updateConfig)
	s.logger.Info("Telegram update loop started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Telegram update loop stopped")
			s.bot.StopReceivingUpdates()
			return
		case update := <-updates:
			if update.Message == nil {
				continue
			}
			s.handleMessage(ctx, update.Message)
		}
	}
}

// handleMessage обрабатывает команды управления подпиской чата.
func (s *TelegramBotService) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		if err := s.storage.SaveChat(ctx, msg.Chat.ID, msg.Chat.Title); err != nil {
			s.logger.Error("Failed to register chat", "chat_id", msg.Chat.ID, "error", err)
			return
		}
		s.reply(msg.Chat.ID, "Subscribed to work package summaries.")
	case "stop":
		if err := s.storage.RemoveChat(ctx, msg.Chat.ID); err != nil {
			s.logger.Error("Failed to remove chat", "chat_id", msg.Chat.ID, "error", err)
			return
		}
		s.reply(msg.Chat.ID, "Unsubscribed.")
	}
}

func (s *TelegramBotService) reply(chatID int64, text string) {
	if _, err := s.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		s.logger.Error("Failed to send reply", "chat_id", chatID, "error", err)
	}
}

// Broadcast отправляет текст во все зарегистрированные чаты.
func (s *TelegramBotService) Broadcast(ctx context.Context, text string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	chatIDs, err := s.storage.ListChats(ctx)
	if err != nil {
		return fmt.Errorf("list chats: %w", err)
	}

	for _, chatID := range chatIDs {
		if _, err := s.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
			s.logger.Error("Failed to send message", "chat_id", chatID, "error", err)
			continue
		}
	}

	s.logger.Info("Broadcast sent", "chats", len(chatIDs))
	return nil
}

// SendFile отправляет файл по переданному пути во все зарегистрированные чаты.
func (s *TelegramBotService) SendFile(ctx context.Context, path, caption string) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			s.logger.Error("File not found", "path", path, "error", err)
			return fmt.Errorf("file not found at %q: %w", path, err)
		}
		s.logger.Error("Failed to access file", "path", path, "error", err)
		return fmt.Errorf("access file at %q: %w", path, err)
	}

	chatIDs, err := s.storage.ListChats(ctx)
	if err != nil {
		return fmt.Errorf("list chats: %w", err)
	}

	for _, chatID := range chatIDs {
		msg := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(path))
		msg.Caption = caption

		if _, err := s.bot.Send(msg); err != nil {
			s.logger.Error("Failed to send file",
				"path", path,
				"chat_id", chatID,
				"error", err)
			continue
		}
	}

	s.logger.Info("File sent successfully", "path", path, "chats", len(chatIDs))
	return nil
}
