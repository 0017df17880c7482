package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/Freeeeeet/school_timetable/internal/model"
	"github.com/Freeeeeet/school_timetable/internal/service"
)

type StructureRepository struct {
	db *DB
}

var _ service.StructureStore = (*StructureRepository)(nil)

func NewStructureRepository(db *DB) *StructureRepository {
	return &StructureRepository{db: db}
}

func (r *StructureRepository) Create(_ context.Context, s *model.Structure) error {
	r.db.Lock()
	defer r.db.Unlock()

	now := r.db.now()
	s.CreatedAt = now
	s.UpdatedAt = now
	r.db.structures[s.ID] = cloneStructure(s)
	return nil
}

func (r *StructureRepository) GetByID(_ context.Context, id uuid.UUID) (*model.Structure, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	s, ok := r.db.structures[id]
	if !ok {
		return nil, nil
	}
	return cloneStructure(s), nil
}

func (r *StructureRepository) ListBySchool(_ context.Context, schoolID uuid.UUID) ([]*model.Structure, error) {
	r.db.RLock()
	defer r.db.RUnlock()
	return r.query(func(s *model.Structure) bool { return s.SchoolID == schoolID }), nil
}

func (r *StructureRepository) ListAll(_ context.Context) ([]*model.Structure, error) {
	r.db.RLock()
	defer r.db.RUnlock()
	return r.query(func(*model.Structure) bool { return true }), nil
}

// query must be called with the lock held. Results are ordered by name.
func (r *StructureRepository) query(match func(*model.Structure) bool) []*model.Structure {
	out := make([]*model.Structure, 0, len(r.db.structures))
	for _, s := range r.db.structures {
		if match(s) {
			out = append(out, cloneStructure(s))
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

func (r *StructureRepository) Update(_ context.Context, s *model.Structure) error {
	r.db.Lock()
	defer r.db.Unlock()

	existing, ok := r.db.structures[s.ID]
	if !ok {
		return model.NewNotFound("structure", s.ID)
	}
	s.CreatedAt = existing.CreatedAt
	s.UpdatedAt = r.db.now()
	r.db.structures[s.ID] = cloneStructure(s)
	return nil
}

func (r *StructureRepository) DeleteCascade(_ context.Context, id uuid.UUID) ([]string, error) {
	r.db.Lock()
	defer r.db.Unlock()

	if _, ok := r.db.structures[id]; !ok {
		return nil, model.NewNotFound("structure", id)
	}

	names := make([]string, 0)
	for _, c := range r.db.classrooms {
		if c.TimetableStructureID == nil || *c.TimetableStructureID != id {
			continue
		}
		c.TimetableStructureID = nil
		c.Timetable = model.Grid{}
		c.TimetableVersion++
		names = append(names, c.Name)
	}
	delete(r.db.structures, id)

	sort.Strings(names)
	return names, nil
}
