package repository

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/school_timetable/internal/model"
)

// Тесты ходят в настоящий Postgres; без TEST_DATABASE_DSN пропускаются.
// Каждый тест работает в своей школе и удаляет её строки в конце.
func testPool(t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN is not set")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, goose.SetDialect("postgres"))
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	require.NoError(t, goose.UpContext(ctx, db, "../../migrations"))

	return pool
}

func newSchool(t *testing.T, pool *pgxpool.Pool) uuid.UUID {
	t.Helper()
	school := uuid.New()
	t.Cleanup(func() {
		ctx := context.Background()
		_, _ = pool.Exec(ctx, `DELETE FROM classrooms WHERE school_id = $1`, school)
		_, _ = pool.Exec(ctx, `DELETE FROM timetable_structures WHERE school_id = $1`, school)
		_, _ = pool.Exec(ctx, `DELETE FROM staff WHERE school_id = $1`, school)
		_, _ = pool.Exec(ctx, `DELETE FROM subjects WHERE school_id = $1`, school)
	})
	return school
}

func insertClassroom(t *testing.T, pool *pgxpool.Pool, school uuid.UUID, name, timetable string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	_, err := pool.Exec(context.Background(),
		`INSERT INTO classrooms (id, school_id, name, timetable) VALUES ($1, $2, $3, $4::jsonb)`,
		id, school, name, timetable)
	require.NoError(t, err)
	return id
}

func TestPostgres_PutSlotCAS(t *testing.T) {
	pool := testPool(t)
	school := newSchool(t, pool)
	repo := NewClassroomRepository(pool)
	ctx := context.Background()
	id := insertClassroom(t, pool, school, "Grade 1A", `{"schemaVersion":1,"grid":{}}`)

	v, err := repo.PutSlot(ctx, id, model.Monday, "P1", model.SlotAssignment{Subject: "Math", TeacherID: "t-1"}, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	v, err = repo.PutSlot(ctx, id, model.Monday, "P2", model.SlotAssignment{Subject: "Art"}, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	_, err = repo.PutSlot(ctx, id, model.Tuesday, "P1", model.SlotAssignment{Subject: "History"}, 1)
	assert.ErrorIs(t, err, model.ErrVersionMismatch)

	_, err = repo.PutSlot(ctx, uuid.New(), model.Monday, "P1", model.SlotAssignment{Subject: "x"}, 0)
	assert.True(t, model.IsNotFound(err))

	// очистка удаляет только свою ячейку
	v, err = repo.PutSlot(ctx, id, model.Monday, "P1", model.SlotAssignment{}, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Timetable.Get(model.Monday, "P1").IsEmpty())
	assert.Equal(t, "Art", got.Timetable.Get(model.Monday, "P2").Subject)
	assert.Equal(t, int64(3), got.TimetableVersion)
}

func TestPostgres_PutSlotUpgradesLegacyDocument(t *testing.T) {
	pool := testPool(t)
	school := newSchool(t, pool)
	repo := NewClassroomRepository(pool)
	ctx := context.Background()
	id := insertClassroom(t, pool, school, "Grade 1A", `{"Mon":{"P1":{"subject":"Art","teacherId":""}}}`)

	_, err := repo.PutSlot(ctx, id, model.Tuesday, "P2", model.SlotAssignment{Subject: "Math", TeacherID: "t-1"}, 0)
	require.NoError(t, err)

	var versioned bool
	require.NoError(t, pool.QueryRow(ctx, `SELECT timetable ? 'schemaVersion' FROM classrooms WHERE id = $1`, id).Scan(&versioned))
	assert.True(t, versioned)

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Art", got.Timetable.Get(model.Monday, "P1").Subject)
	assert.Equal(t, model.SlotAssignment{Subject: "Math", TeacherID: "t-1"}, got.Timetable.Get(model.Tuesday, "P2"))
}

func TestPostgres_StructureLifecycle(t *testing.T) {
	pool := testPool(t)
	school := newSchool(t, pool)
	structures := NewStructureRepository(pool)
	classrooms := NewClassroomRepository(pool)
	ctx := context.Background()

	s := &model.Structure{
		ID:       uuid.New(),
		SchoolID: school,
		Name:     "Primary Timings",
		Periods: []model.Period{
			{ID: "P1", Name: "Period 1", StartTime: "09:00", EndTime: "09:45", Kind: model.PeriodKindClass},
		},
		WorkingDays: []model.DayName{model.Monday},
	}
	require.NoError(t, structures.Create(ctx, s))
	assert.False(t, s.CreatedAt.IsZero())

	s.Name = "Renamed"
	s.WorkingDays = []model.DayName{model.Monday, model.Tuesday}
	require.NoError(t, structures.Update(ctx, s))

	got, err := structures.GetByID(ctx, s.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Renamed", got.Name)
	assert.Equal(t, s.WorkingDays, got.WorkingDays)
	assert.Equal(t, s.Periods, got.Periods)

	b := insertClassroom(t, pool, school, "B", `{"schemaVersion":1,"grid":{}}`)
	a := insertClassroom(t, pool, school, "A", `{"schemaVersion":1,"grid":{}}`)
	insertClassroom(t, pool, school, "Other", `{"schemaVersion":1,"grid":{}}`)
	grid := model.Grid{model.Monday: {"P1": {Subject: "Math"}}}
	_, err = classrooms.ReplaceTimetable(ctx, a, &s.ID, grid, 0)
	require.NoError(t, err)
	_, err = classrooms.ReplaceTimetable(ctx, b, &s.ID, model.Grid{}, 0)
	require.NoError(t, err)

	counts, err := classrooms.CountByStructure(ctx, school)
	require.NoError(t, err)
	assert.Equal(t, 2, counts[s.ID])

	names, err := structures.DeleteCascade(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, names)

	detached, err := classrooms.GetByID(ctx, a)
	require.NoError(t, err)
	assert.Nil(t, detached.TimetableStructureID)
	assert.Empty(t, detached.Timetable)
	assert.Equal(t, int64(2), detached.TimetableVersion)

	gone, err := structures.GetByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	_, err = structures.DeleteCascade(ctx, s.ID)
	assert.True(t, model.IsNotFound(err))

	missing := &model.Structure{ID: uuid.New(), Name: "x"}
	assert.True(t, model.IsNotFound(structures.Update(ctx, missing)))
}

func TestPostgres_Directory(t *testing.T) {
	pool := testPool(t)
	school := newSchool(t, pool)
	dir := NewDirectoryRepository(pool)
	ctx := context.Background()

	_, err := pool.Exec(ctx, `
		INSERT INTO staff (school_id, id, first_name, last_name, subjects)
		VALUES ($1, 't-1', 'Anna', 'Ivanova', ARRAY['Math', 'Physics'])
	`, school)
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `INSERT INTO subjects (school_id, id, name) VALUES ($1, 's-1', 'Math')`, school)
	require.NoError(t, err)

	teacher, err := dir.Teacher(ctx, school, "t-1")
	require.NoError(t, err)
	require.NotNil(t, teacher)
	assert.Equal(t, []string{"Math", "Physics"}, teacher.Subjects)

	unknown, err := dir.Teacher(ctx, school, "t-404")
	require.NoError(t, err)
	assert.Nil(t, unknown)

	teachers, err := dir.Teachers(ctx, school)
	require.NoError(t, err)
	assert.Len(t, teachers, 1)

	subjects, err := dir.Subjects(ctx, school)
	require.NoError(t, err)
	require.Len(t, subjects, 1)
	assert.Equal(t, "Math", subjects[0].Name)
}
