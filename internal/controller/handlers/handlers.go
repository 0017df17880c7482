package handlers

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/school_timetable/internal/model"
	"github.com/Freeeeeet/school_timetable/internal/service"
)

// TimetableReader - сторона чтения координатора, нужная боту
type TimetableReader interface {
	Classrooms(ctx context.Context, schoolID uuid.UUID) ([]*model.Classroom, error)
	View(ctx context.Context, classroomID uuid.UUID) (*service.ScheduleView, error)
	TeacherTimetable(ctx context.Context, schoolID uuid.UUID, teacherID string) ([]model.TeacherSlot, error)
	AssignableTeachers(ctx context.Context, schoolID uuid.UUID) ([]*model.Teacher, error)
}

// Handlers отвечает на команды просмотра расписания одной школы
type Handlers struct {
	timetables TimetableReader
	schoolID   uuid.UUID
	logger     *zap.Logger
}

func NewHandlers(timetables TimetableReader, schoolID uuid.UUID, logger *zap.Logger) *Handlers {
	return &Handlers{
		timetables: timetables,
		schoolID:   schoolID,
		logger:     logger,
	}
}

// sendError отправляет сообщение об ошибке и логирует если не удалось
func (h *Handlers) sendError(ctx context.Context, b *bot.Bot, chatID int64, text string) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID,
		Text:   text,
	})
	if err != nil {
		h.logger.Error("Failed to send error message",
			zap.Int64("chat_id", chatID),
			zap.String("text", text),
			zap.Error(err))
	}
}
