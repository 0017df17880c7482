package handlers

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/school_timetable/internal/export"
)

// TimetableCallbackPrefix - префикс callback data кнопок классов
const TimetableCallbackPrefix = "timetable:"

// HandleTimetableCallback присылает PNG расписания выбранного класса
func (h *Handlers) HandleTimetableCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	query := update.CallbackQuery
	if query == nil {
		return
	}

	// Отвечаем сразу, чтобы убрать "часики" на кнопке
	if _, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: query.ID,
	}); err != nil {
		h.logger.Warn("Failed to answer callback query", zap.Error(err))
	}

	if query.Message.Message == nil {
		return
	}
	chatID := query.Message.Message.Chat.ID

	classroomID, ok := parseTimetableCallback(query.Data)
	if !ok {
		h.logger.Warn("Malformed timetable callback", zap.String("data", query.Data))
		return
	}

	view, err := h.timetables.View(ctx, classroomID)
	if err != nil || view.Classroom.SchoolID != h.schoolID {
		h.logger.Warn("Classroom not available for bot",
			zap.String("classroom_id", classroomID.String()),
			zap.Error(err))
		h.sendError(ctx, b, chatID, "❌ Класс не найден.")
		return
	}

	teachers, err := h.timetables.AssignableTeachers(ctx, h.schoolID)
	if err != nil {
		h.logger.Warn("Failed to load teachers, ids will be shown", zap.Error(err))
	}

	img, err := export.RenderPNG(&export.Timetable{
		Title:        view.Classroom.Name,
		Structure:    view.Structure,
		Schedule:     view.Schedule,
		TeacherNames: export.TeacherNames(teachers),
	})
	if err != nil {
		h.logger.Error("Failed to render timetable", zap.Error(err))
		h.sendError(ctx, b, chatID, "❌ Не удалось построить расписание.")
		return
	}

	_, err = b.SendPhoto(ctx, &bot.SendPhotoParams{
		ChatID: chatID,
		Photo: &models.InputFileUpload{
			Filename: fmt.Sprintf("timetable-%s.png", classroomID),
			Data:     bytes.NewReader(img),
		},
		Caption: "🗓 " + view.Classroom.Name,
	})
	if err != nil {
		h.logger.Error("Failed to send timetable image",
			zap.Int64("chat_id", chatID),
			zap.Error(err))
	}
}

func timetableCallback(id uuid.UUID) string {
	return TimetableCallbackPrefix + id.String()
}

func parseTimetableCallback(data string) (uuid.UUID, bool) {
	raw, ok := strings.CutPrefix(data, TimetableCallbackPrefix)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
