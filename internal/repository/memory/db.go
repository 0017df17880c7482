package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Freeeeeet/school_timetable/internal/model"
)

// DB is a process-local store. One mutex guards every table so the structure cascade
// delete is atomic.
type DB struct {
	sync.RWMutex
	structures map[uuid.UUID]*model.Structure
	classrooms map[uuid.UUID]*model.Classroom
	teachers   map[uuid.UUID][]*model.Teacher
	subjects   map[uuid.UUID][]*model.Subject
	now        func() time.Time
}

func Open() *DB {
	return &DB{
		structures: make(map[uuid.UUID]*model.Structure),
		classrooms: make(map[uuid.UUID]*model.Classroom),
		teachers:   make(map[uuid.UUID][]*model.Teacher),
		subjects:   make(map[uuid.UUID][]*model.Subject),
		now:        time.Now,
	}
}

// AddClassroom inserts an entry of the external classroom directory.
func (db *DB) AddClassroom(c model.Classroom) *model.Classroom {
	db.Lock()
	defer db.Unlock()

	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.Timetable == nil {
		c.Timetable = model.Grid{}
	}
	stored := cloneClassroom(&c)
	db.classrooms[c.ID] = stored
	return cloneClassroom(stored)
}

// AddTeacher inserts a staff directory entry.
func (db *DB) AddTeacher(schoolID uuid.UUID, t model.Teacher) {
	db.Lock()
	defer db.Unlock()
	t.Subjects = append([]string(nil), t.Subjects...)
	db.teachers[schoolID] = append(db.teachers[schoolID], &t)
}

// AddSubject inserts a subject master list entry.
func (db *DB) AddSubject(schoolID uuid.UUID, s model.Subject) {
	db.Lock()
	defer db.Unlock()
	db.subjects[schoolID] = append(db.subjects[schoolID], &s)
}

func cloneStructure(s *model.Structure) *model.Structure {
	out := *s
	out.Periods = append([]model.Period(nil), s.Periods...)
	out.WorkingDays = append([]model.DayName(nil), s.WorkingDays...)
	return &out
}

func cloneClassroom(c *model.Classroom) *model.Classroom {
	out := *c
	if c.TimetableStructureID != nil {
		id := *c.TimetableStructureID
		out.TimetableStructureID = &id
	}
	out.Timetable = c.Timetable.Clone()
	return &out
}
