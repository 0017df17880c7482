package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/Freeeeeet/school_timetable/internal/model"
)

// StructureStore persists timetable structures.
// GetByID returns nil, nil when the structure does not exist.
type StructureStore interface {
	Create(ctx context.Context, s *model.Structure) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Structure, error)
	ListBySchool(ctx context.Context, schoolID uuid.UUID) ([]*model.Structure, error)
	ListAll(ctx context.Context) ([]*model.Structure, error)
	// Update returns *model.NotFoundError when the row is gone.
	Update(ctx context.Context, s *model.Structure) error
	// DeleteCascade detaches and clears every referencing classroom and deletes the
	// structure atomically. It returns the names of the detached classrooms.
	DeleteCascade(ctx context.Context, id uuid.UUID) ([]string, error)
}

// ClassroomStore reads the external classroom directory and owns the timetable columns.
// Writes are compare-and-swap on TimetableVersion: a stale expectedVersion yields
// model.ErrVersionMismatch, a missing classroom yields *model.NotFoundError.
type ClassroomStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Classroom, error)
	ListBySchool(ctx context.Context, schoolID uuid.UUID) ([]*model.Classroom, error)
	ListByStructure(ctx context.Context, structureID uuid.UUID) ([]*model.Classroom, error)
	CountByStructure(ctx context.Context, schoolID uuid.UUID) (map[uuid.UUID]int, error)
	ReplaceTimetable(ctx context.Context, id uuid.UUID, structureID *uuid.UUID, grid model.Grid, expectedVersion int64) (int64, error)
	// PutSlot writes a single cell. An empty assignment removes the key.
	PutSlot(ctx context.Context, id uuid.UUID, day model.DayName, periodID string, a model.SlotAssignment, expectedVersion int64) (int64, error)
}

// Directory is the read-only staff and subject reference data.
// Teacher returns nil, nil for unknown ids.
type Directory interface {
	Teacher(ctx context.Context, schoolID uuid.UUID, id string) (*model.Teacher, error)
	Teachers(ctx context.Context, schoolID uuid.UUID) ([]*model.Teacher, error)
	Subjects(ctx context.Context, schoolID uuid.UUID) ([]*model.Subject, error)
}

// Locker serializes check-then-write sequences on one key.
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}
