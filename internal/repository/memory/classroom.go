package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/Freeeeeet/school_timetable/internal/model"
	"github.com/Freeeeeet/school_timetable/internal/service"
)

type ClassroomRepository struct {
	db *DB
}

var _ service.ClassroomStore = (*ClassroomRepository)(nil)

func NewClassroomRepository(db *DB) *ClassroomRepository {
	return &ClassroomRepository{db: db}
}

func (r *ClassroomRepository) GetByID(_ context.Context, id uuid.UUID) (*model.Classroom, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	c, ok := r.db.classrooms[id]
	if !ok {
		return nil, nil
	}
	return cloneClassroom(c), nil
}

func (r *ClassroomRepository) ListBySchool(_ context.Context, schoolID uuid.UUID) ([]*model.Classroom, error) {
	r.db.RLock()
	defer r.db.RUnlock()
	return r.query(func(c *model.Classroom) bool { return c.SchoolID == schoolID }), nil
}

func (r *ClassroomRepository) ListByStructure(_ context.Context, structureID uuid.UUID) ([]*model.Classroom, error) {
	r.db.RLock()
	defer r.db.RUnlock()
	return r.query(func(c *model.Classroom) bool {
		return c.TimetableStructureID != nil && *c.TimetableStructureID == structureID
	}), nil
}

// query must be called with the lock held. Results are ordered by name.
func (r *ClassroomRepository) query(match func(*model.Classroom) bool) []*model.Classroom {
	out := make([]*model.Classroom, 0)
	for _, c := range r.db.classrooms {
		if match(c) {
			out = append(out, cloneClassroom(c))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func (r *ClassroomRepository) CountByStructure(_ context.Context, schoolID uuid.UUID) (map[uuid.UUID]int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	counts := make(map[uuid.UUID]int)
	for _, c := range r.db.classrooms {
		if c.SchoolID == schoolID && c.TimetableStructureID != nil {
			counts[*c.TimetableStructureID]++
		}
	}
	return counts, nil
}

func (r *ClassroomRepository) ReplaceTimetable(_ context.Context, id uuid.UUID, structureID *uuid.UUID, grid model.Grid, expectedVersion int64) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	c, err := r.lockedForWrite(id, expectedVersion)
	if err != nil {
		return 0, err
	}
	if structureID != nil {
		sid := *structureID
		c.TimetableStructureID = &sid
	} else {
		c.TimetableStructureID = nil
	}
	c.Timetable = grid.Clone()
	if c.Timetable == nil {
		c.Timetable = model.Grid{}
	}
	c.TimetableVersion++
	return c.TimetableVersion, nil
}

func (r *ClassroomRepository) PutSlot(_ context.Context, id uuid.UUID, day model.DayName, periodID string, a model.SlotAssignment, expectedVersion int64) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	c, err := r.lockedForWrite(id, expectedVersion)
	if err != nil {
		return 0, err
	}
	if c.Timetable == nil {
		c.Timetable = model.Grid{}
	}
	row, ok := c.Timetable[day]
	if !ok {
		row = make(map[string]model.SlotAssignment)
		c.Timetable[day] = row
	}
	if a.IsEmpty() {
		delete(row, periodID)
	} else {
		row[periodID] = a
	}
	c.TimetableVersion++
	return c.TimetableVersion, nil
}

func (r *ClassroomRepository) lockedForWrite(id uuid.UUID, expectedVersion int64) (*model.Classroom, error) {
	c, ok := r.db.classrooms[id]
	if !ok {
		return nil, model.NewNotFound("classroom", id)
	}
	if c.TimetableVersion != expectedVersion {
		return nil, model.ErrVersionMismatch
	}
	return c, nil
}
