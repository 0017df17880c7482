package model

import (
	"time"

	"github.com/google/uuid"
)

type PeriodKind string

const (
	PeriodKindClass PeriodKind = "CLASS" // lesson
	PeriodKindBreak PeriodKind = "BREAK" // recess, never scheduled
)

// Period is a named time span inside a structure.
// ID is unique only within the structure that defines it.
type Period struct {
	ID        string     `json:"id"`
	Name      string     `json:"name" validate:"required"`
	StartTime string     `json:"startTime" validate:"required,hhmm"`
	EndTime   string     `json:"endTime" validate:"required,hhmm"`
	Kind      PeriodKind `json:"kind" validate:"omitempty,oneof=CLASS BREAK"`
}

// IsBreak checks if the period cannot carry assignments
func (p Period) IsBreak() bool {
	return p.Kind == PeriodKindBreak
}

// Structure is a reusable template of periods and working days owned by a school.
type Structure struct {
	ID          uuid.UUID `json:"id"`
	SchoolID    uuid.UUID `json:"schoolId"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Periods     []Period  `json:"periods"`
	WorkingDays []DayName `json:"workingDays"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// Period looks up a period by id.
func (s *Structure) Period(id string) (Period, bool) {
	for _, p := range s.Periods {
		if p.ID == id {
			return p, true
		}
	}
	return Period{}, false
}

// HasDay checks if day is one of the structure's working days.
func (s *Structure) HasDay(day DayName) bool {
	for _, d := range s.WorkingDays {
		if d == day {
			return true
		}
	}
	return false
}

// Config returns the persisted document form of the structure.
func (s *Structure) Config() StructureConfig {
	return StructureConfig{
		SchemaVersion: CurrentSchemaVersion,
		Periods:       s.Periods,
		WorkingDays:   s.WorkingDays,
	}
}

// StructureInput is the payload of create/update.
type StructureInput struct {
	Name        string    `json:"name" validate:"required"`
	Description string    `json:"description"`
	Periods     []Period  `json:"periods" validate:"dive"`
	WorkingDays []DayName `json:"workingDays" validate:"dive,dayname"`
}

// StructureSummary adds read-only projections to a structure for listings.
type StructureSummary struct {
	Structure
	PeriodCount            int `json:"periodCount"`
	AssignedClassroomCount int `json:"assignedClassroomCount"`
}

// DeleteImpact reports what deleting a structure does (or did) to classrooms.
type DeleteImpact struct {
	StructureID        uuid.UUID `json:"structureId"`
	AffectedClassrooms int       `json:"affectedClassrooms"`
	ClassroomNames     []string  `json:"classroomNames"`
	Deleted            bool      `json:"deleted"`
}
