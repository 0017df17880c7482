package repository

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Freeeeeet/school_timetable/internal/model"
	"github.com/Freeeeeet/school_timetable/internal/repository/base"
)

type StructureRepository struct {
	*base.Repository
}

func NewStructureRepository(pool *pgxpool.Pool) *StructureRepository {
	return &StructureRepository{Repository: base.NewRepository(pool)}
}

const structureColumns = `id, school_id, name, description, config, created_at, updated_at`

// Create сохраняет новую структуру
func (r *StructureRepository) Create(ctx context.Context, s *model.Structure) error {
	config, err := model.EncodeStructureConfig(s)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO timetable_structures (id, school_id, name, description, config)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`

	err = r.QueryRow(ctx, query, s.ID, s.SchoolID, s.Name, s.Description, config).
		Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create structure: %w", err)
	}

	return nil
}

// GetByID получает структуру по ID
func (r *StructureRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Structure, error) {
	query := `SELECT ` + structureColumns + ` FROM timetable_structures WHERE id = $1`

	s, err := scanStructure(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get structure by id: %w", err)
	}

	return s, nil
}

// ListBySchool получает все структуры школы
func (r *StructureRepository) ListBySchool(ctx context.Context, schoolID uuid.UUID) ([]*model.Structure, error) {
	query := `
		SELECT ` + structureColumns + `
		FROM timetable_structures
		WHERE school_id = $1
		ORDER BY name, id
	`
	return r.list(ctx, query, schoolID)
}

// ListAll получает структуры всех школ
func (r *StructureRepository) ListAll(ctx context.Context) ([]*model.Structure, error) {
	query := `SELECT ` + structureColumns + ` FROM timetable_structures ORDER BY school_id, name`
	return r.list(ctx, query)
}

func (r *StructureRepository) list(ctx context.Context, query string, args ...any) ([]*model.Structure, error) {
	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list structures: %w", err)
	}
	defer rows.Close()

	structures := make([]*model.Structure, 0)
	for rows.Next() {
		s, err := scanStructure(rows)
		if err != nil {
			return nil, fmt.Errorf("scan structure: %w", err)
		}
		structures = append(structures, s)
	}

	return structures, rows.Err()
}

// Update заменяет название, описание и конфигурацию структуры
func (r *StructureRepository) Update(ctx context.Context, s *model.Structure) error {
	config, err := model.EncodeStructureConfig(s)
	if err != nil {
		return err
	}

	query := `
		UPDATE timetable_structures
		SET name = $2, description = $3, config = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at
	`

	err = r.QueryRow(ctx, query, s.ID, s.Name, s.Description, config).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if base.IsNotFound(err) {
			return model.NewNotFound("structure", s.ID)
		}
		return fmt.Errorf("update structure: %w", err)
	}

	return nil
}

// DeleteCascade отвязывает классы и удаляет структуру в одной транзакции
func (r *StructureRepository) DeleteCascade(ctx context.Context, id uuid.UUID) ([]string, error) {
	emptyDoc, err := model.EncodeTimetable(model.Grid{})
	if err != nil {
		return nil, err
	}

	names := make([]string, 0)
	err = r.InTx(ctx, func(tx pgx.Tx) error {
		var locked uuid.UUID
		err := tx.QueryRow(ctx, `SELECT id FROM timetable_structures WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
		if err != nil {
			if base.IsNotFound(err) {
				return model.NewNotFound("structure", id)
			}
			return fmt.Errorf("lock structure: %w", err)
		}

		rows, err := tx.Query(ctx, `
			UPDATE classrooms
			SET timetable_structure_id = NULL,
			    timetable = $2,
			    timetable_version = timetable_version + 1
			WHERE timetable_structure_id = $1
			RETURNING name
		`, id, emptyDoc)
		if err != nil {
			return fmt.Errorf("detach classrooms: %w", err)
		}
		for rows.Next() {
			var name string
			if err := rows.Scan(&name); err != nil {
				rows.Close()
				return fmt.Errorf("scan classroom name: %w", err)
			}
			names = append(names, name)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return fmt.Errorf("detach classrooms: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM timetable_structures WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete structure: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(names)
	return names, nil
}

func scanStructure(row pgx.Row) (*model.Structure, error) {
	var (
		s      model.Structure
		config []byte
	)
	err := row.Scan(
		&s.ID,
		&s.SchoolID,
		&s.Name,
		&s.Description,
		&config,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	cfg, err := model.DecodeStructureConfig(config)
	if err != nil {
		return nil, err
	}
	s.Periods = cfg.Periods
	s.WorkingDays = cfg.WorkingDays

	return &s, nil
}
