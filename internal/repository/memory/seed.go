package memory

import (
	"github.com/google/uuid"

	"github.com/Freeeeeet/school_timetable/internal/model"
)

// SeedIfEmpty fills an empty school with demo classrooms, staff and subjects.
// It reports whether anything was added.
func SeedIfEmpty(db *DB, schoolID uuid.UUID) bool {
	db.RLock()
	for _, c := range db.classrooms {
		if c.SchoolID == schoolID {
			db.RUnlock()
			return false
		}
	}
	db.RUnlock()

	for _, name := range []string{"Grade 1A", "Grade 1B", "Grade 2A", "Grade 2B"} {
		db.AddClassroom(model.Classroom{SchoolID: schoolID, Name: name})
	}

	db.AddTeacher(schoolID, model.Teacher{ID: "t-ivanova", FirstName: "Anna", LastName: "Ivanova", Designation: "Senior teacher", Subjects: []string{"Math", "Physics"}})
	db.AddTeacher(schoolID, model.Teacher{ID: "t-petrov", FirstName: "Oleg", LastName: "Petrov", Designation: "Teacher", Subjects: []string{"History"}})
	db.AddTeacher(schoolID, model.Teacher{ID: "t-smith", FirstName: "Jane", LastName: "Smith", Designation: "Teacher", Subjects: []string{"English", "Literature"}})

	for i, name := range []string{"Math", "Physics", "History", "English", "Literature", "Art"} {
		db.AddSubject(schoolID, model.Subject{ID: "s-" + string(rune('a'+i)), Name: name})
	}
	return true
}
