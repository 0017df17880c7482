package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Freeeeeet/school_timetable/internal/model"
	"github.com/Freeeeeet/school_timetable/internal/repository/base"
)

// ClassroomRepository читает справочник классов и пишет колонки расписания.
// Каждая запись - compare-and-swap по timetable_version.
type ClassroomRepository struct {
	*base.Repository
}

func NewClassroomRepository(pool *pgxpool.Pool) *ClassroomRepository {
	return &ClassroomRepository{Repository: base.NewRepository(pool)}
}

const classroomColumns = `id, school_id, name, timetable_structure_id, timetable, timetable_version`

// timetableDoc поднимает старую голую сетку до версионированного документа,
// чтобы точечные jsonb-обновления всегда шли в timetable->'grid'.
const timetableDoc = `(CASE WHEN timetable ? 'schemaVersion'
	THEN timetable
	ELSE jsonb_build_object('schemaVersion', 1, 'grid', COALESCE(timetable, '{}'::jsonb))
END)`

// GetByID получает класс по ID
func (r *ClassroomRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Classroom, error) {
	query := `SELECT ` + classroomColumns + ` FROM classrooms WHERE id = $1`

	c, err := scanClassroom(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get classroom by id: %w", err)
	}

	return c, nil
}

// ListBySchool получает все классы школы
func (r *ClassroomRepository) ListBySchool(ctx context.Context, schoolID uuid.UUID) ([]*model.Classroom, error) {
	query := `
		SELECT ` + classroomColumns + `
		FROM classrooms
		WHERE school_id = $1
		ORDER BY name, id
	`
	return r.list(ctx, query, schoolID)
}

// ListByStructure получает классы, которым назначена структура
func (r *ClassroomRepository) ListByStructure(ctx context.Context, structureID uuid.UUID) ([]*model.Classroom, error) {
	query := `
		SELECT ` + classroomColumns + `
		FROM classrooms
		WHERE timetable_structure_id = $1
		ORDER BY name, id
	`
	return r.list(ctx, query, structureID)
}

func (r *ClassroomRepository) list(ctx context.Context, query string, args ...any) ([]*model.Classroom, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list classrooms: %w", err)
	}
	defer rows.Close()

	classrooms := make([]*model.Classroom, 0)
	for rows.Next() {
		c, err := scanClassroom(rows)
		if err != nil {
			return nil, fmt.Errorf("scan classroom: %w", err)
		}
		classrooms = append(classrooms, c)
	}

	return classrooms, rows.Err()
}

// CountByStructure считает классы школы по назначенным структурам
func (r *ClassroomRepository) CountByStructure(ctx context.Context, schoolID uuid.UUID) (map[uuid.UUID]int, error) {
	query := `
		SELECT timetable_structure_id, COUNT(*)
		FROM classrooms
		WHERE school_id = $1 AND timetable_structure_id IS NOT NULL
		GROUP BY timetable_structure_id
	`

	rows, err := r.Query(ctx, query, schoolID)
	if err != nil {
		return nil, fmt.Errorf("count classrooms by structure: %w", err)
	}
	defer rows.Close()

	counts := make(map[uuid.UUID]int)
	for rows.Next() {
		var (
			id    uuid.UUID
			count int
		)
		if err := rows.Scan(&id, &count); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[id] = count
	}

	return counts, rows.Err()
}

// ReplaceTimetable перезаписывает документ целиком (назначение структуры, очистка)
func (r *ClassroomRepository) ReplaceTimetable(ctx context.Context, id uuid.UUID, structureID *uuid.UUID, grid model.Grid, expectedVersion int64) (int64, error) {
	doc, err := model.EncodeTimetable(grid)
	if err != nil {
		return 0, err
	}

	query := `
		UPDATE classrooms
		SET timetable_structure_id = $2,
		    timetable = $3,
		    timetable_version = timetable_version + 1
		WHERE id = $1 AND timetable_version = $4
		RETURNING timetable_version
	`

	var version int64
	err = r.QueryRow(ctx, query, id, structureID, doc, expectedVersion).Scan(&version)
	if err != nil {
		return 0, r.casError(ctx, "replace timetable", id, err)
	}

	return version, nil
}

// PutSlot обновляет одну ячейку без перезаписи остальной сетки
func (r *ClassroomRepository) PutSlot(ctx context.Context, id uuid.UUID, day model.DayName, periodID string, a model.SlotAssignment, expectedVersion int64) (int64, error) {
	var (
		query string
		args  []any
	)

	if a.IsEmpty() {
		query = `
			UPDATE classrooms
			SET timetable = ` + timetableDoc + ` #- ARRAY['grid', $2::text, $3::text],
			    timetable_version = timetable_version + 1
			WHERE id = $1 AND timetable_version = $4
			RETURNING timetable_version
		`
		args = []any{id, string(day), periodID, expectedVersion}
	} else {
		cell, err := json.Marshal(a)
		if err != nil {
			return 0, fmt.Errorf("encode slot: %w", err)
		}
		query = `
			UPDATE classrooms
			SET timetable = jsonb_set(
			        jsonb_set(` + timetableDoc + `, ARRAY['grid', $2::text],
			            COALESCE(` + timetableDoc + `->'grid'->$2::text, '{}'::jsonb), true),
			        ARRAY['grid', $2::text, $3::text], $5::jsonb, true),
			    timetable_version = timetable_version + 1
			WHERE id = $1 AND timetable_version = $4
			RETURNING timetable_version
		`
		args = []any{id, string(day), periodID, expectedVersion, cell}
	}

	var version int64
	if err := r.QueryRow(ctx, query, args...).Scan(&version); err != nil {
		return 0, r.casError(ctx, "put slot", id, err)
	}

	return version, nil
}

// casError отличает проигранный compare-and-swap от отсутствующей строки
func (r *ClassroomRepository) casError(ctx context.Context, op string, id uuid.UUID, err error) error {
	if !base.IsNotFound(err) {
		return fmt.Errorf("%s: %w", op, err)
	}

	var exists bool
	if err := r.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM classrooms WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("%s: check classroom: %w", op, err)
	}
	if !exists {
		return model.NewNotFound("classroom", id)
	}
	return model.ErrVersionMismatch
}

func scanClassroom(row pgx.Row) (*model.Classroom, error) {
	var (
		c   model.Classroom
		doc []byte
	)
	err := row.Scan(
		&c.ID,
		&c.SchoolID,
		&c.Name,
		&c.TimetableStructureID,
		&doc,
		&c.TimetableVersion,
	)
	if err != nil {
		return nil, err
	}

	c.Timetable, err = model.DecodeTimetable(doc)
	if err != nil {
		return nil, err
	}

	return &c, nil
}
