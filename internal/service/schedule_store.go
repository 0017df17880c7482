package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/Freeeeeet/school_timetable/internal/model"
)

// ScheduleStore owns classroom grids and their link to a structure.
// Only AssignmentCoordinator writes through it.
type ScheduleStore struct {
	classrooms ClassroomStore
	structures StructureStore
}

func NewScheduleStore(classrooms ClassroomStore, structures StructureStore) *ScheduleStore {
	return &ScheduleStore{
		classrooms: classrooms,
		structures: structures,
	}
}

// Classroom loads a classroom or returns *model.NotFoundError.
func (s *ScheduleStore) Classroom(ctx context.Context, id uuid.UUID) (*model.Classroom, error) {
	c, err := s.classrooms.GetByID(ctx, id)
	if err != nil {
		return nil, model.Persistence("get classroom", err)
	}
	if c == nil {
		return nil, model.NewNotFound("classroom", id)
	}
	return c, nil
}

// Classrooms lists every classroom of the school.
func (s *ScheduleStore) Classrooms(ctx context.Context, schoolID uuid.UUID) ([]*model.Classroom, error) {
	list, err := s.classrooms.ListBySchool(ctx, schoolID)
	if err != nil {
		return nil, model.Persistence("list classrooms", err)
	}
	return list, nil
}

// StructureOf resolves the classroom's assigned structure. nil means unassigned.
// A dangling reference also resolves to nil.
func (s *ScheduleStore) StructureOf(ctx context.Context, c *model.Classroom) (*model.Structure, error) {
	if c.TimetableStructureID == nil {
		return nil, nil
	}
	st, err := s.structures.GetByID(ctx, *c.TimetableStructureID)
	if err != nil {
		return nil, model.Persistence("get structure", err)
	}
	return st, nil
}

// Schedule builds the read model of c under st: orphaned keys are dropped and every
// working day is present.
func (s *ScheduleStore) Schedule(c *model.Classroom, st *model.Structure) *model.Schedule {
	return &model.Schedule{
		ClassroomID:   c.ID,
		ClassroomName: c.Name,
		StructureID:   c.TimetableStructureID,
		Version:       c.TimetableVersion,
		Grid:          c.Timetable.Project(st),
	}
}

// Initialize points c at st (nil detaches) with an empty grid keyed by st's working days.
func (s *ScheduleStore) Initialize(ctx context.Context, c *model.Classroom, st *model.Structure) (*model.Schedule, error) {
	var structureID *uuid.UUID
	grid := model.Grid{}
	if st != nil {
		id := st.ID
		structureID = &id
		grid = model.NewGrid(st.WorkingDays)
	}
	return s.replace(ctx, c, st, structureID, grid)
}

// Prune rewrites c's document without keys that are meaningless under st.
// It returns the number of removed cells; 0 means nothing was written.
func (s *ScheduleStore) Prune(ctx context.Context, c *model.Classroom, st *model.Structure) (int, error) {
	projected := c.Timetable.Project(st)
	if projected.Equal(c.Timetable) {
		return 0, nil
	}
	removed := countCells(c.Timetable) - countCells(projected)
	if _, err := s.replace(ctx, c, st, c.TimetableStructureID, projected); err != nil {
		return 0, err
	}
	return removed, nil
}

func (s *ScheduleStore) replace(ctx context.Context, c *model.Classroom, st *model.Structure, structureID *uuid.UUID, grid model.Grid) (*model.Schedule, error) {
	version, err := s.classrooms.ReplaceTimetable(ctx, c.ID, structureID, grid, c.TimetableVersion)
	if err != nil {
		return nil, err
	}
	updated := *c
	updated.TimetableStructureID = structureID
	updated.Timetable = grid
	updated.TimetableVersion = version
	return s.Schedule(&updated, st), nil
}

// WriteSlot stores one cell with a compare-and-swap against c.TimetableVersion.
// An empty assignment removes the cell. Store errors are returned as is so the
// caller can tell model.ErrVersionMismatch apart.
func (s *ScheduleStore) WriteSlot(ctx context.Context, c *model.Classroom, st *model.Structure, day model.DayName, periodID string, a model.SlotAssignment) (*model.Schedule, error) {
	version, err := s.classrooms.PutSlot(ctx, c.ID, day, periodID, a, c.TimetableVersion)
	if err != nil {
		return nil, err
	}

	updated := *c
	updated.Timetable = c.Timetable.Clone()
	if updated.Timetable == nil {
		updated.Timetable = model.Grid{}
	}
	row, ok := updated.Timetable[day]
	if !ok {
		row = make(map[string]model.SlotAssignment)
		updated.Timetable[day] = row
	}
	if a.IsEmpty() {
		delete(row, periodID)
	} else {
		row[periodID] = a
	}
	updated.TimetableVersion = version
	return s.Schedule(&updated, st), nil
}

func countCells(g model.Grid) int {
	n := 0
	for _, row := range g {
		n += len(row)
	}
	return n
}
