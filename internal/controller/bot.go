package controller

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/school_timetable/internal/controller/handlers"
)

// BotController - просмотр расписания одной школы, только чтение
type BotController struct {
	bot      *bot.Bot
	handlers *handlers.Handlers
	logger   *zap.Logger
}

func NewBotController(
	botInstance *bot.Bot,
	timetables handlers.TimetableReader,
	schoolID uuid.UUID,
	logger *zap.Logger,
) *BotController {
	return &BotController{
		bot:      botInstance,
		handlers: handlers.NewHandlers(timetables, schoolID, logger),
		logger:   logger,
	}
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, c.handlers.HandleStart)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.handlers.HandleHelp)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/classes", bot.MatchTypeExact, c.handlers.HandleClasses)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/teacher", bot.MatchTypePrefix, c.handlers.HandleTeacher)

	// Обработчик нажатий на кнопки классов
	c.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, handlers.TimetableCallbackPrefix, bot.MatchTypePrefix, c.handlers.HandleTimetableCallback)

	return c.setCommands(ctx)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "start", Description: "🚀 Начать работу с ботом"},
		{Command: "help", Description: "❓ Справка по командам"},
		{Command: "classes", Description: "🏫 Расписание классов"},
		{Command: "teacher", Description: "👤 Нагрузка учителя: /teacher <id>"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})
	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("✅ Bot commands menu set")
	return nil
}

// Start запускает бота и блокируется до отмены ctx
func (c *BotController) Start(ctx context.Context) {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
	c.logger.Info("Bot stopped")
}
