package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Freeeeeet/school_timetable/internal/model"
	"github.com/Freeeeeet/school_timetable/internal/repository/base"
)

// DirectoryRepository читает справочник сотрудников и предметов
type DirectoryRepository struct {
	*base.Repository
}

func NewDirectoryRepository(pool *pgxpool.Pool) *DirectoryRepository {
	return &DirectoryRepository{Repository: base.NewRepository(pool)}
}

// Teacher получает сотрудника по ID
func (r *DirectoryRepository) Teacher(ctx context.Context, schoolID uuid.UUID, id string) (*model.Teacher, error) {
	query := `
		SELECT id, first_name, last_name, designation, subjects
		FROM staff
		WHERE school_id = $1 AND id = $2
	`

	var t model.Teacher
	err := r.QueryRow(ctx, query, schoolID, id).Scan(&t.ID, &t.FirstName, &t.LastName, &t.Designation, &t.Subjects)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get teacher: %w", err)
	}

	return &t, nil
}

// Teachers получает всех сотрудников школы
func (r *DirectoryRepository) Teachers(ctx context.Context, schoolID uuid.UUID) ([]*model.Teacher, error) {
	query := `
		SELECT id, first_name, last_name, designation, subjects
		FROM staff
		WHERE school_id = $1
		ORDER BY last_name, first_name
	`

	rows, err := r.Query(ctx, query, schoolID)
	if err != nil {
		return nil, fmt.Errorf("list teachers: %w", err)
	}
	defer rows.Close()

	teachers := make([]*model.Teacher, 0)
	for rows.Next() {
		var t model.Teacher
		if err := rows.Scan(&t.ID, &t.FirstName, &t.LastName, &t.Designation, &t.Subjects); err != nil {
			return nil, fmt.Errorf("scan teacher: %w", err)
		}
		teachers = append(teachers, &t)
	}

	return teachers, rows.Err()
}

// Subjects получает справочник предметов школы
func (r *DirectoryRepository) Subjects(ctx context.Context, schoolID uuid.UUID) ([]*model.Subject, error) {
	rows, err := r.Query(ctx, `SELECT id, name FROM subjects WHERE school_id = $1 ORDER BY name`, schoolID)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	defer rows.Close()

	subjects := make([]*model.Subject, 0)
	for rows.Next() {
		var s model.Subject
		if err := rows.Scan(&s.ID, &s.Name); err != nil {
			return nil, fmt.Errorf("scan subject: %w", err)
		}
		subjects = append(subjects, &s)
	}

	return subjects, rows.Err()
}
