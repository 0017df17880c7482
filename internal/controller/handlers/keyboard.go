package handlers

import (
	"github.com/go-telegram/bot/models"

	"github.com/Freeeeeet/school_timetable/internal/model"
)

// кнопок классов в одном ряду
const classesPerRow = 2

// Builder упрощает создание inline клавиатур
type Builder struct {
	rows [][]models.InlineKeyboardButton
}

func NewBuilder() *Builder {
	return &Builder{
		rows: make([][]models.InlineKeyboardButton, 0),
	}
}

// Row добавляет новый ряд кнопок
func (b *Builder) Row(buttons ...models.InlineKeyboardButton) *Builder {
	if len(buttons) > 0 {
		b.rows = append(b.rows, buttons)
	}
	return b
}

// Button создаёт кнопку
func Button(text, callbackData string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{
		Text:         text,
		CallbackData: callbackData,
	}
}

// Build создаёт финальную клавиатуру
func (b *Builder) Build() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: b.rows,
	}
}

func classroomsKeyboard(classrooms []*model.Classroom) *models.InlineKeyboardMarkup {
	kb := NewBuilder()
	row := make([]models.InlineKeyboardButton, 0, classesPerRow)
	for _, c := range classrooms {
		label := c.Name
		if c.TimetableStructureID == nil {
			label += " ∅"
		}
		row = append(row, Button(label, timetableCallback(c.ID)))
		if len(row) == classesPerRow {
			kb.Row(row...)
			row = make([]models.InlineKeyboardButton, 0, classesPerRow)
		}
	}
	kb.Row(row...)
	return kb.Build()
}
