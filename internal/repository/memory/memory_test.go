package memory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/school_timetable/internal/model"
)

func TestClassroomRepository_PutSlotCAS(t *testing.T) {
	db := Open()
	repo := NewClassroomRepository(db)
	ctx := context.Background()
	c := db.AddClassroom(model.Classroom{SchoolID: uuid.New(), Name: "Grade 1A"})

	v, err := repo.PutSlot(ctx, c.ID, model.Monday, "P1", model.SlotAssignment{Subject: "Math", TeacherID: "t1"}, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	_, err = repo.PutSlot(ctx, c.ID, model.Monday, "P2", model.SlotAssignment{Subject: "Art"}, 0)
	assert.ErrorIs(t, err, model.ErrVersionMismatch)

	v, err = repo.PutSlot(ctx, c.ID, model.Monday, "P1", model.SlotAssignment{}, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Timetable[model.Monday])

	_, err = repo.PutSlot(ctx, uuid.New(), model.Monday, "P1", model.SlotAssignment{Subject: "x"}, 0)
	assert.True(t, model.IsNotFound(err))
}

func TestClassroomRepository_ReturnsCopies(t *testing.T) {
	db := Open()
	repo := NewClassroomRepository(db)
	ctx := context.Background()
	c := db.AddClassroom(model.Classroom{SchoolID: uuid.New(), Name: "Grade 1A", Timetable: model.Grid{model.Monday: {"P1": {Subject: "Math"}}}})

	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	got.Timetable[model.Monday]["P1"] = model.SlotAssignment{Subject: "Changed"}

	again, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Math", again.Timetable.Get(model.Monday, "P1").Subject)
}

func TestStructureRepository_DeleteCascade(t *testing.T) {
	db := Open()
	structures := NewStructureRepository(db)
	classrooms := NewClassroomRepository(db)
	ctx := context.Background()
	school := uuid.New()

	s := &model.Structure{ID: uuid.New(), SchoolID: school, Name: "Z", WorkingDays: []model.DayName{model.Monday}}
	require.NoError(t, structures.Create(ctx, s))
	assert.False(t, s.CreatedAt.IsZero())

	sid := s.ID
	a := db.AddClassroom(model.Classroom{SchoolID: school, Name: "B", TimetableStructureID: &sid, Timetable: model.Grid{model.Monday: {"P1": {Subject: "Math"}}}})
	db.AddClassroom(model.Classroom{SchoolID: school, Name: "A", TimetableStructureID: &sid})
	db.AddClassroom(model.Classroom{SchoolID: school, Name: "Other"})

	counts, err := classrooms.CountByStructure(ctx, school)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[sid])

	names, err := structures.DeleteCascade(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, names)

	got, err := classrooms.GetByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Nil(t, got.TimetableStructureID)
	assert.Empty(t, got.Timetable)
	assert.Equal(t, int64(1), got.TimetableVersion)

	gone, err := structures.GetByID(ctx, sid)
	require.NoError(t, err)
	assert.Nil(t, gone)

	_, err = structures.DeleteCascade(ctx, sid)
	assert.True(t, model.IsNotFound(err))
}

func TestSeedIfEmpty(t *testing.T) {
	db := Open()
	school := uuid.New()

	assert.True(t, SeedIfEmpty(db, school))
	assert.False(t, SeedIfEmpty(db, school))

	list, err := NewClassroomRepository(db).ListBySchool(context.Background(), school)
	require.NoError(t, err)
	assert.Len(t, list, 4)
	assert.Equal(t, "Grade 1A", list[0].Name)

	teacher, err := NewDirectory(db).Teacher(context.Background(), school, "t-ivanova")
	require.NoError(t, err)
	require.NotNil(t, teacher)
	assert.Equal(t, "Math", teacher.SuggestedSubject())
}
