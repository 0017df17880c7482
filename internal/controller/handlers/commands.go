package handlers

import (
	"context"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const helpText = "📅 Бот расписания школы\n\n" +
	"Доступные команды:\n" +
	"/classes - Список классов и их расписание\n" +
	"/teacher <id> - Нагрузка учителя по дням\n" +
	"/help - Справка"

// HandleStart обрабатывает команду /start
func (h *Handlers) HandleStart(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}

	name := ""
	if update.Message.From != nil {
		name = update.Message.From.FirstName
	}

	h.send(ctx, b, update.Message.Chat.ID, greeting(name)+"\n\n"+helpText, nil)
}

// HandleHelp обрабатывает команду /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.send(ctx, b, update.Message.Chat.ID, helpText, nil)
}

// HandleClasses показывает классы школы кнопками
func (h *Handlers) HandleClasses(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	classrooms, err := h.timetables.Classrooms(ctx, h.schoolID)
	if err != nil {
		h.logger.Error("Failed to list classrooms", zap.Error(err))
		h.sendError(ctx, b, chatID, "❌ Не удалось загрузить список классов. Попробуйте позже.")
		return
	}
	if len(classrooms) == 0 {
		h.send(ctx, b, chatID, "📭 В школе пока нет классов.", nil)
		return
	}

	h.send(ctx, b, chatID, "🏫 Выберите класс:", classroomsKeyboard(classrooms))
}

// HandleTeacher обрабатывает /teacher <id>
func (h *Handlers) HandleTeacher(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	teacherID := strings.TrimSpace(strings.TrimPrefix(update.Message.Text, "/teacher"))
	if teacherID == "" {
		h.sendError(ctx, b, chatID, "❌ Укажите id учителя: /teacher <id>")
		return
	}

	slots, err := h.timetables.TeacherTimetable(ctx, h.schoolID, teacherID)
	if err != nil {
		h.logger.Error("Failed to load teacher timetable",
			zap.String("teacher_id", teacherID),
			zap.Error(err))
		h.sendError(ctx, b, chatID, "❌ Не удалось загрузить расписание. Попробуйте позже.")
		return
	}

	name := teacherID
	if teachers, err := h.timetables.AssignableTeachers(ctx, h.schoolID); err == nil {
		for _, t := range teachers {
			if t.ID == teacherID && t.Name() != "" {
				name = t.Name()
				break
			}
		}
	}

	h.send(ctx, b, chatID, FormatTeacherLoad(name, slots), nil)
}

func (h *Handlers) send(ctx context.Context, b *bot.Bot, chatID int64, text string, markup models.ReplyMarkup) {
	params := &bot.SendMessageParams{
		ChatID:    chatID,
		Text:      text,
		ParseMode: models.ParseModeHTML,
	}
	if markup != nil {
		params.ReplyMarkup = markup
	}
	if _, err := b.SendMessage(ctx, params); err != nil {
		h.logger.Error("Failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func greeting(name string) string {
	if name == "" {
		return "👋 Привет!"
	}
	return "👋 Привет, " + escapeHTML(name) + "!"
}
