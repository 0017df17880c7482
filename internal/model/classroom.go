package model

import (
	"github.com/google/uuid"
)

// SlotAssignment is the content of one grid cell. Both fields empty means unassigned.
type SlotAssignment struct {
	Subject   string `json:"subject"`
	TeacherID string `json:"teacherId"`
}

// IsEmpty checks if the cell is unassigned
func (a SlotAssignment) IsEmpty() bool {
	return a.Subject == "" && a.TeacherID == ""
}

// Grid maps day -> period id -> assignment.
type Grid map[DayName]map[string]SlotAssignment

// NewGrid returns an empty grid keyed by days.
func NewGrid(days []DayName) Grid {
	g := make(Grid, len(days))
	for _, d := range days {
		g[d] = make(map[string]SlotAssignment)
	}
	return g
}

// Get returns the assignment at (day, periodID); missing cells read as empty.
func (g Grid) Get(day DayName, periodID string) SlotAssignment {
	if row, ok := g[day]; ok {
		return row[periodID]
	}
	return SlotAssignment{}
}

// Clone returns a deep copy.
func (g Grid) Clone() Grid {
	if g == nil {
		return nil
	}
	out := make(Grid, len(g))
	for day, row := range g {
		r := make(map[string]SlotAssignment, len(row))
		for id, a := range row {
			r[id] = a
		}
		out[day] = r
	}
	return out
}

// Project drops every key that is meaningless under s: days that are not working days,
// periods that no longer exist, BREAK periods and empty cells.
// A nil structure projects to an empty grid.
func (g Grid) Project(s *Structure) Grid {
	if s == nil {
		return Grid{}
	}
	out := NewGrid(s.WorkingDays)
	for _, day := range s.WorkingDays {
		for id, a := range g[day] {
			p, ok := s.Period(id)
			if !ok || p.IsBreak() || a.IsEmpty() {
				continue
			}
			out[day][id] = a
		}
	}
	return out
}

// Equal compares two grids cell by cell, including the set of day keys.
func (g Grid) Equal(other Grid) bool {
	if len(g) != len(other) {
		return false
	}
	for day, row := range g {
		orow, ok := other[day]
		if !ok || len(row) != len(orow) {
			return false
		}
		for id, a := range row {
			if b, ok := orow[id]; !ok || a != b {
				return false
			}
		}
	}
	return true
}

// Classroom is the external classroom entity plus the timetable columns this module owns.
type Classroom struct {
	ID                   uuid.UUID  `json:"id"`
	SchoolID             uuid.UUID  `json:"schoolId"`
	Name                 string     `json:"name"`
	TimetableStructureID *uuid.UUID `json:"timetableStructureId"`
	Timetable            Grid       `json:"timetable"`
	TimetableVersion     int64      `json:"timetableVersion"`
}

// Schedule is the read model of a classroom grid.
type Schedule struct {
	ClassroomID   uuid.UUID  `json:"classroomId"`
	ClassroomName string     `json:"classroomName"`
	StructureID   *uuid.UUID `json:"structureId"`
	Version       int64      `json:"version"`
	Grid          Grid       `json:"grid"`
}

// Slot returns the assignment at (day, periodID); missing cells read as empty.
func (s *Schedule) Slot(day DayName, periodID string) SlotAssignment {
	return s.Grid.Get(day, periodID)
}

// Availability is the result of a conflict check.
type Availability struct {
	Available                bool       `json:"available"`
	ConflictingClassroomID   *uuid.UUID `json:"conflictingClassroomId,omitempty"`
	ConflictingClassroomName string     `json:"conflictingClassroomName,omitempty"`
}

// TeacherSlot is one cell a teacher holds, used for teacher-facing timetables.
type TeacherSlot struct {
	ClassroomID   uuid.UUID `json:"classroomId"`
	ClassroomName string    `json:"classroomName"`
	Day           DayName   `json:"day"`
	PeriodID      string    `json:"periodId"`
	PeriodName    string    `json:"periodName"`
	StartTime     string    `json:"startTime"`
	EndTime       string    `json:"endTime"`
	Subject       string    `json:"subject"`
}
