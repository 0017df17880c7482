package service

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/school_timetable/internal/model"
	"github.com/Freeeeeet/school_timetable/internal/validation"
)

// StructureRegistry owns timetable structure definitions.
type StructureRegistry struct {
	structures StructureStore
	classrooms ClassroomStore
	logger     *zap.Logger
}

func NewStructureRegistry(structures StructureStore, classrooms ClassroomStore, logger *zap.Logger) *StructureRegistry {
	return &StructureRegistry{
		structures: structures,
		classrooms: classrooms,
		logger:     logger,
	}
}

// Create validates and stores a new structure.
func (r *StructureRegistry) Create(ctx context.Context, schoolID uuid.UUID, input model.StructureInput) (*model.Structure, error) {
	if err := validation.StructureInput(&input); err != nil {
		return nil, err
	}

	s := &model.Structure{
		ID:          uuid.New(),
		SchoolID:    schoolID,
		Name:        input.Name,
		Description: input.Description,
		Periods:     input.Periods,
		WorkingDays: input.WorkingDays,
	}
	if err := r.structures.Create(ctx, s); err != nil {
		r.logger.Error("Failed to create structure",
			zap.String("school_id", schoolID.String()),
			zap.String("name", s.Name),
			zap.Error(err))
		return nil, model.Persistence("create structure", err)
	}

	r.logger.Info("Structure created",
		zap.String("structure_id", s.ID.String()),
		zap.String("school_id", schoolID.String()),
		zap.String("name", s.Name),
		zap.Int("periods", len(s.Periods)),
		zap.Int("working_days", len(s.WorkingDays)))

	return s, nil
}

// Get returns the structure if it belongs to the school.
func (r *StructureRegistry) Get(ctx context.Context, schoolID, id uuid.UUID) (*model.Structure, error) {
	s, err := r.structures.GetByID(ctx, id)
	if err != nil {
		return nil, model.Persistence("get structure", err)
	}
	if s == nil || s.SchoolID != schoolID {
		return nil, model.NewNotFound("structure", id)
	}
	return s, nil
}

// Update replaces periods and working days wholesale. Classroom schedules are not
// touched; stale keys are dropped on read and pruned by ReconcileStructure.
func (r *StructureRegistry) Update(ctx context.Context, schoolID, id uuid.UUID, input model.StructureInput) (*model.Structure, error) {
	if err := validation.StructureInput(&input); err != nil {
		return nil, err
	}

	s, err := r.Get(ctx, schoolID, id)
	if err != nil {
		return nil, err
	}

	s.Name = input.Name
	s.Description = input.Description
	s.Periods = input.Periods
	s.WorkingDays = input.WorkingDays

	if err := r.structures.Update(ctx, s); err != nil {
		r.logger.Error("Failed to update structure",
			zap.String("structure_id", id.String()),
			zap.Error(err))
		return nil, model.Persistence("update structure", err)
	}

	r.logger.Info("Structure updated",
		zap.String("structure_id", id.String()),
		zap.Int("periods", len(s.Periods)),
		zap.Int("working_days", len(s.WorkingDays)))

	return s, nil
}

// List returns the school's structures with period and classroom counts.
func (r *StructureRegistry) List(ctx context.Context, schoolID uuid.UUID) ([]model.StructureSummary, error) {
	structures, err := r.structures.ListBySchool(ctx, schoolID)
	if err != nil {
		return nil, model.Persistence("list structures", err)
	}
	counts, err := r.classrooms.CountByStructure(ctx, schoolID)
	if err != nil {
		return nil, model.Persistence("count classrooms", err)
	}

	out := make([]model.StructureSummary, 0, len(structures))
	for _, s := range structures {
		out = append(out, model.StructureSummary{
			Structure:              *s,
			PeriodCount:            len(s.Periods),
			AssignedClassroomCount: counts[s.ID],
		})
	}
	return out, nil
}

// PlanDelete reports which classrooms a delete would detach. Nothing is changed.
func (r *StructureRegistry) PlanDelete(ctx context.Context, schoolID, id uuid.UUID) (*model.DeleteImpact, error) {
	if _, err := r.Get(ctx, schoolID, id); err != nil {
		return nil, err
	}

	classrooms, err := r.classrooms.ListByStructure(ctx, id)
	if err != nil {
		return nil, model.Persistence("list classrooms by structure", err)
	}

	names := make([]string, 0, len(classrooms))
	for _, c := range classrooms {
		names = append(names, c.Name)
	}
	return &model.DeleteImpact{
		StructureID:        id,
		AffectedClassrooms: len(names),
		ClassroomNames:     names,
	}, nil
}

// CommitDelete detaches every referencing classroom and deletes the structure in one step.
func (r *StructureRegistry) CommitDelete(ctx context.Context, schoolID, id uuid.UUID) (*model.DeleteImpact, error) {
	if _, err := r.Get(ctx, schoolID, id); err != nil {
		return nil, err
	}

	names, err := r.structures.DeleteCascade(ctx, id)
	if err != nil {
		r.logger.Error("Failed to delete structure",
			zap.String("structure_id", id.String()),
			zap.Error(err))
		return nil, model.Persistence("delete structure", err)
	}
	if names == nil {
		names = []string{}
	}

	r.logger.Info("Structure deleted",
		zap.String("structure_id", id.String()),
		zap.String("school_id", schoolID.String()),
		zap.Int("detached_classrooms", len(names)))

	return &model.DeleteImpact{
		StructureID:        id,
		AffectedClassrooms: len(names),
		ClassroomNames:     names,
		Deleted:            true,
	}, nil
}

// Delete is PlanDelete until confirmed.
func (r *StructureRegistry) Delete(ctx context.Context, schoolID, id uuid.UUID, confirmed bool) (*model.DeleteImpact, error) {
	if !confirmed {
		return r.PlanDelete(ctx, schoolID, id)
	}
	return r.CommitDelete(ctx, schoolID, id)
}
