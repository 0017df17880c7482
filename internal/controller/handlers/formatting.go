package handlers

import (
	"fmt"
	"html"
	"strings"

	"github.com/Freeeeeet/school_timetable/internal/model"
)

var dayNames = map[model.DayName]string{
	model.Monday:    "Понедельник",
	model.Tuesday:   "Вторник",
	model.Wednesday: "Среда",
	model.Thursday:  "Четверг",
	model.Friday:    "Пятница",
	model.Saturday:  "Суббота",
	model.Sunday:    "Воскресенье",
}

// DayName возвращает название дня недели на русском
func DayName(d model.DayName) string {
	if name, ok := dayNames[d]; ok {
		return name
	}
	return string(d)
}

// PluralizeLessons возвращает правильное склонение слова "урок"
func PluralizeLessons(count int) string {
	if count%10 == 1 && count%100 != 11 {
		return "урок"
	}
	if count%10 >= 2 && count%10 <= 4 && (count%100 < 10 || count%100 >= 20) {
		return "урока"
	}
	return "уроков"
}

// FormatTeacherLoad группирует уроки учителя по дням. slots ожидаются уже отсортированными.
func FormatTeacherLoad(teacherName string, slots []model.TeacherSlot) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("👤 <b>%s</b>\n", escapeHTML(teacherName)))

	if len(slots) == 0 {
		sb.WriteString("\n📭 Уроков в расписании нет.")
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("📊 %d %s в неделю\n", len(slots), PluralizeLessons(len(slots))))

	var current model.DayName
	for _, s := range slots {
		if s.Day != current {
			current = s.Day
			sb.WriteString(fmt.Sprintf("\n📅 <b>%s</b>\n", DayName(s.Day)))
		}
		subject := s.Subject
		if subject == "" {
			subject = "без предмета"
		}
		sb.WriteString(fmt.Sprintf("  %s-%s %s · %s\n",
			s.StartTime, s.EndTime, escapeHTML(subject), escapeHTML(s.ClassroomName)))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func escapeHTML(s string) string {
	return html.EscapeString(s)
}
