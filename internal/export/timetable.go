package export

import (
	"strings"

	"github.com/Freeeeeet/school_timetable/internal/model"
)

// Timetable - то, что рисуют рендеры: сетка одного класса по его структуре
type Timetable struct {
	Title     string
	Structure *model.Structure
	Schedule  *model.Schedule
	// id учителя -> имя; неизвестные id показываем как есть
	TeacherNames map[string]string
}

// Cell - текст одной ячейки
type Cell struct {
	Subject string
	Teacher string
	Break   bool
}

func (t *Timetable) days() []model.DayName {
	if t.Structure == nil {
		return nil
	}
	return t.Structure.WorkingDays
}

func (t *Timetable) periods() []model.Period {
	if t.Structure == nil {
		return nil
	}
	return t.Structure.Periods
}

func (t *Timetable) cell(day model.DayName, p model.Period) Cell {
	if p.IsBreak() {
		return Cell{Subject: p.Name, Break: true}
	}
	if t.Schedule == nil {
		return Cell{}
	}
	a := t.Schedule.Slot(day, p.ID)
	return Cell{Subject: a.Subject, Teacher: t.teacherName(a.TeacherID)}
}

func (t *Timetable) teacherName(id string) string {
	if id == "" {
		return ""
	}
	if name, ok := t.TeacherNames[id]; ok && strings.TrimSpace(name) != "" {
		return name
	}
	return id
}

// TeacherNames строит карту id -> имя для рендеров
func TeacherNames(teachers []*model.Teacher) map[string]string {
	names := make(map[string]string, len(teachers))
	for _, t := range teachers {
		names[t.ID] = t.Name()
	}
	return names
}

// названия дней для заголовков
var dayLabels = map[model.DayName]string{
	model.Monday:    "Monday",
	model.Tuesday:   "Tuesday",
	model.Wednesday: "Wednesday",
	model.Thursday:  "Thursday",
	model.Friday:    "Friday",
	model.Saturday:  "Saturday",
	model.Sunday:    "Sunday",
}

func dayLabel(d model.DayName) string {
	if l, ok := dayLabels[d]; ok {
		return l
	}
	return string(d)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
