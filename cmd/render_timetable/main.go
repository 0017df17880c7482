package main

import (
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/Freeeeeet/school_timetable/internal/export"
	"github.com/Freeeeeet/school_timetable/internal/model"
)

func main() {
	// Создаем тестовую структуру: 5 дней, 6 уроков и две перемены
	st := &model.Structure{
		ID:   uuid.New(),
		Name: "Primary Timings",
		Periods: []model.Period{
			{ID: "P1", Name: "Period 1", StartTime: "08:30", EndTime: "09:15", Kind: model.PeriodKindClass},
			{ID: "P2", Name: "Period 2", StartTime: "09:25", EndTime: "10:10", Kind: model.PeriodKindClass},
			{ID: "B1", Name: "Long break", StartTime: "10:10", EndTime: "10:30", Kind: model.PeriodKindBreak},
			{ID: "P3", Name: "Period 3", StartTime: "10:30", EndTime: "11:15", Kind: model.PeriodKindClass},
			{ID: "P4", Name: "Period 4", StartTime: "11:25", EndTime: "12:10", Kind: model.PeriodKindClass},
			{ID: "B2", Name: "Lunch", StartTime: "12:10", EndTime: "12:50", Kind: model.PeriodKindBreak},
			{ID: "P5", Name: "Period 5", StartTime: "12:50", EndTime: "13:35", Kind: model.PeriodKindClass},
			{ID: "P6", Name: "Period 6", StartTime: "13:45", EndTime: "14:30", Kind: model.PeriodKindClass},
		},
		WorkingDays: []model.DayName{model.Monday, model.Tuesday, model.Wednesday, model.Thursday, model.Friday},
	}

	teachers := []*model.Teacher{
		{ID: "t-ivanova", FirstName: "Anna", LastName: "Ivanova"},
		{ID: "t-petrov", FirstName: "Oleg", LastName: "Petrov"},
		{ID: "t-smith", FirstName: "Jane", LastName: "Smith"},
	}

	// Заполняем сетку по кругу
	lessons := []model.SlotAssignment{
		{Subject: "Math", TeacherID: "t-ivanova"},
		{Subject: "History", TeacherID: "t-petrov"},
		{Subject: "English", TeacherID: "t-smith"},
		{Subject: "Physics", TeacherID: "t-ivanova"},
		{Subject: "Art"},
	}
	grid := model.NewGrid(st.WorkingDays)
	i := 0
	for d, day := range st.WorkingDays {
		for _, p := range st.Periods {
			if p.IsBreak() {
				continue
			}
			// оставляем пару пустых ячеек
			if (d+i)%7 == 6 {
				i++
				continue
			}
			grid[day][p.ID] = lessons[i%len(lessons)]
			i++
		}
	}

	tt := &export.Timetable{
		Title:        "Grade 1A",
		Structure:    st,
		Schedule:     &model.Schedule{ClassroomName: "Grade 1A", StructureID: &st.ID, Grid: grid},
		TeacherNames: export.TeacherNames(teachers),
	}

	png, err := export.RenderPNG(tt)
	if err != nil {
		fmt.Printf("Error rendering image: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile("test_timetable.png", png, 0644); err != nil {
		fmt.Printf("Error saving image: %v\n", err)
		os.Exit(1)
	}

	xlsx, err := export.RenderXLSX(tt)
	if err != nil {
		fmt.Printf("Error rendering workbook: %v\n", err)
		os.Exit(1)
	}
	if err := os.WriteFile("test_timetable.xlsx", xlsx, 0644); err != nil {
		fmt.Printf("Error saving workbook: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("✅ Timetable saved to test_timetable.png and test_timetable.xlsx")
}
