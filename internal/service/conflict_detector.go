package service

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/Freeeeeet/school_timetable/internal/model"
)

// ConflictDetector answers whether a teacher is free at (day, periodID).
//
// Period ids are compared directly. Two structures that define the same wall-clock
// span under different ids are not correlated.
type ConflictDetector struct {
	store *ScheduleStore
}

func NewConflictDetector(store *ScheduleStore) *ConflictDetector {
	return &ConflictDetector{store: store}
}

// Check scans every other scheduled classroom of the school. The first classroom that
// holds teacherID at (day, periodID) is reported.
func (d *ConflictDetector) Check(ctx context.Context, schoolID uuid.UUID, teacherID string, day model.DayName, periodID string, excludeClassroomID uuid.UUID) (*model.Availability, error) {
	if teacherID == "" {
		return &model.Availability{Available: true}, nil
	}

	classrooms, err := d.store.Classrooms(ctx, schoolID)
	if err != nil {
		return nil, err
	}

	structures := make(structureCache)
	for _, c := range classrooms {
		if c.ID == excludeClassroomID || c.TimetableStructureID == nil {
			continue
		}
		st, err := structures.get(ctx, d.store, c)
		if err != nil {
			return nil, err
		}
		if st == nil {
			continue
		}
		if c.Timetable.Project(st).Get(day, periodID).TeacherID == teacherID {
			id := c.ID
			return &model.Availability{
				Available:                false,
				ConflictingClassroomID:   &id,
				ConflictingClassroomName: c.Name,
			}, nil
		}
	}
	return &model.Availability{Available: true}, nil
}

// TeacherSlots lists every cell the teacher holds across the school, ordered by day,
// start time and classroom name.
func (d *ConflictDetector) TeacherSlots(ctx context.Context, schoolID uuid.UUID, teacherID string) ([]model.TeacherSlot, error) {
	classrooms, err := d.store.Classrooms(ctx, schoolID)
	if err != nil {
		return nil, err
	}

	structures := make(structureCache)
	slots := make([]model.TeacherSlot, 0)
	for _, c := range classrooms {
		st, err := structures.get(ctx, d.store, c)
		if err != nil {
			return nil, err
		}
		if st == nil {
			continue
		}
		grid := c.Timetable.Project(st)
		for _, day := range st.WorkingDays {
			for _, p := range st.Periods {
				a := grid.Get(day, p.ID)
				if a.TeacherID != teacherID {
					continue
				}
				slots = append(slots, model.TeacherSlot{
					ClassroomID:   c.ID,
					ClassroomName: c.Name,
					Day:           day,
					PeriodID:      p.ID,
					PeriodName:    p.Name,
					StartTime:     p.StartTime,
					EndTime:       p.EndTime,
					Subject:       a.Subject,
				})
			}
		}
	}

	sort.SliceStable(slots, func(i, j int) bool {
		a, b := slots[i], slots[j]
		if a.Day != b.Day {
			return a.Day.Index() < b.Day.Index()
		}
		if a.StartTime != b.StartTime {
			return a.StartTime < b.StartTime
		}
		return a.ClassroomName < b.ClassroomName
	})
	return slots, nil
}

// structureCache avoids reloading a structure shared by many classrooms within one scan.
type structureCache map[uuid.UUID]*model.Structure

func (sc structureCache) get(ctx context.Context, store *ScheduleStore, c *model.Classroom) (*model.Structure, error) {
	if c.TimetableStructureID == nil {
		return nil, nil
	}
	if st, ok := sc[*c.TimetableStructureID]; ok {
		return st, nil
	}
	st, err := store.StructureOf(ctx, c)
	if err != nil {
		return nil, err
	}
	sc[*c.TimetableStructureID] = st
	return st, nil
}
