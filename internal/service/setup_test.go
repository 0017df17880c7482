package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Freeeeeet/school_timetable/internal/lock"
	"github.com/Freeeeeet/school_timetable/internal/model"
	"github.com/Freeeeeet/school_timetable/internal/repository/memory"
	"github.com/Freeeeeet/school_timetable/internal/service"
)

type env struct {
	db          *memory.DB
	school      uuid.UUID
	registry    *service.StructureRegistry
	coordinator *service.AssignmentCoordinator
}

type setupOpts struct {
	classrooms service.ClassroomStore
	directory  bool
}

func setup(t *testing.T, opts ...func(*setupOpts)) *env {
	t.Helper()

	db := memory.Open()
	o := setupOpts{classrooms: memory.NewClassroomRepository(db)}
	for _, fn := range opts {
		fn(&o)
	}

	logger := zaptest.NewLogger(t)
	structures := memory.NewStructureRepository(db)
	store := service.NewScheduleStore(o.classrooms, structures)
	detector := service.NewConflictDetector(store)

	var directory service.Directory
	if o.directory {
		directory = memory.NewDirectory(db)
	}

	return &env{
		db:       db,
		school:   uuid.New(),
		registry: service.NewStructureRegistry(structures, o.classrooms, logger),
		coordinator: service.NewAssignmentCoordinator(
			store, detector, structures, lock.NewLocalLocker(time.Second), directory, 3, logger,
		),
	}
}

func withClassroomStore(wrap func(service.ClassroomStore) service.ClassroomStore) func(*setupOpts) {
	return func(o *setupOpts) { o.classrooms = wrap(o.classrooms) }
}

func withDirectory(o *setupOpts) { o.directory = true }

func (e *env) classroom(t *testing.T, name string) uuid.UUID {
	t.Helper()
	return e.db.AddClassroom(model.Classroom{SchoolID: e.school, Name: name}).ID
}

// primaryTimings is the structure used across scenarios: P1, BRK (break), P2 on Mon..Fri.
func primaryTimings() model.StructureInput {
	return model.StructureInput{
		Name: "Primary Timings",
		Periods: []model.Period{
			{ID: "P1", Name: "Period 1", StartTime: "09:00", EndTime: "09:45", Kind: model.PeriodKindClass},
			{ID: "BRK", Name: "Break", StartTime: "09:45", EndTime: "10:00", Kind: model.PeriodKindBreak},
			{ID: "P2", Name: "Period 2", StartTime: "10:00", EndTime: "10:45", Kind: model.PeriodKindClass},
		},
		WorkingDays: []model.DayName{model.Monday, model.Tuesday, model.Wednesday, model.Thursday, model.Friday},
	}
}

func (e *env) structure(t *testing.T, in model.StructureInput) *model.Structure {
	t.Helper()
	s, err := e.registry.Create(context.Background(), e.school, in)
	require.NoError(t, err)
	return s
}

func (e *env) assign(t *testing.T, classroomID uuid.UUID, s *model.Structure) *model.Schedule {
	t.Helper()
	var id *uuid.UUID
	if s != nil {
		sid := s.ID
		id = &sid
	}
	sched, err := e.coordinator.AssignStructure(context.Background(), classroomID, id)
	require.NoError(t, err)
	return sched
}
