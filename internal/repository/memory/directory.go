package memory

import (
	"context"

	"github.com/google/uuid"

	"github.com/Freeeeeet/school_timetable/internal/model"
	"github.com/Freeeeeet/school_timetable/internal/service"
)

type Directory struct {
	db *DB
}

var _ service.Directory = (*Directory)(nil)

func NewDirectory(db *DB) *Directory {
	return &Directory{db: db}
}

func (d *Directory) Teacher(_ context.Context, schoolID uuid.UUID, id string) (*model.Teacher, error) {
	d.db.RLock()
	defer d.db.RUnlock()

	for _, t := range d.db.teachers[schoolID] {
		if t.ID == id {
			out := *t
			return &out, nil
		}
	}
	return nil, nil
}

func (d *Directory) Teachers(_ context.Context, schoolID uuid.UUID) ([]*model.Teacher, error) {
	d.db.RLock()
	defer d.db.RUnlock()

	out := make([]*model.Teacher, 0, len(d.db.teachers[schoolID]))
	for _, t := range d.db.teachers[schoolID] {
		c := *t
		out = append(out, &c)
	}
	return out, nil
}

func (d *Directory) Subjects(_ context.Context, schoolID uuid.UUID) ([]*model.Subject, error) {
	d.db.RLock()
	defer d.db.RUnlock()

	out := make([]*model.Subject, 0, len(d.db.subjects[schoolID]))
	for _, s := range d.db.subjects[schoolID] {
		c := *s
		out = append(out, &c)
	}
	return out, nil
}
