package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Freeeeeet/school_timetable/internal/model"
)

const DefaultMaxWriteAttempts = 3

// AssignmentCoordinator is the entry point for every schedule mutation.
type AssignmentCoordinator struct {
	store       *ScheduleStore
	detector    *ConflictDetector
	structures  StructureStore
	locker      Locker
	directory   Directory
	maxAttempts int
	logger      *zap.Logger
}

// NewAssignmentCoordinator wires the coordinator. directory may be nil, in which case
// teacher ids are not checked against the staff list.
func NewAssignmentCoordinator(
	store *ScheduleStore,
	detector *ConflictDetector,
	structures StructureStore,
	locker Locker,
	directory Directory,
	maxAttempts int,
	logger *zap.Logger,
) *AssignmentCoordinator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxWriteAttempts
	}
	return &AssignmentCoordinator{
		store:       store,
		detector:    detector,
		structures:  structures,
		locker:      locker,
		directory:   directory,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// AssignStructure links the classroom to a structure. Re-assigning the current structure
// keeps the grid; any other change starts from an empty grid. nil detaches.
func (c *AssignmentCoordinator) AssignStructure(ctx context.Context, classroomID uuid.UUID, structureID *uuid.UUID) (*model.Schedule, error) {
	for attempt := 1; ; attempt++ {
		classroom, err := c.store.Classroom(ctx, classroomID)
		if err != nil {
			return nil, err
		}

		var structure *model.Structure
		if structureID != nil {
			structure, err = c.structures.GetByID(ctx, *structureID)
			if err != nil {
				return nil, model.Persistence("get structure", err)
			}
			if structure == nil || structure.SchoolID != classroom.SchoolID {
				return nil, model.NewNotFound("structure", *structureID)
			}
		}

		if sameStructure(classroom.TimetableStructureID, structureID) {
			st, err := c.store.StructureOf(ctx, classroom)
			if err != nil {
				return nil, err
			}
			return c.store.Schedule(classroom, st), nil
		}

		schedule, err := c.store.Initialize(ctx, classroom, structure)
		if errors.Is(err, model.ErrVersionMismatch) && attempt < c.maxAttempts {
			continue
		}
		if err != nil {
			c.logger.Error("Failed to assign structure",
				zap.String("classroom_id", classroomID.String()),
				zap.Error(err))
			return nil, model.Persistence("assign structure", err)
		}

		c.logger.Info("Structure assigned",
			zap.String("classroom_id", classroomID.String()),
			zap.Stringp("previous_structure_id", uuidString(classroom.TimetableStructureID)),
			zap.Stringp("structure_id", uuidString(structureID)))
		return schedule, nil
	}
}

// GetSchedule returns the classroom grid projected onto its current structure.
func (c *AssignmentCoordinator) GetSchedule(ctx context.Context, classroomID uuid.UUID) (*model.Schedule, error) {
	view, err := c.View(ctx, classroomID)
	if err != nil {
		return nil, err
	}
	return view.Schedule, nil
}

// ScheduleView is everything a reader needs to lay a classroom grid out.
type ScheduleView struct {
	Classroom *model.Classroom
	Structure *model.Structure // nil when unassigned
	Schedule  *model.Schedule
}

// View loads the classroom together with its structure and projected grid.
func (c *AssignmentCoordinator) View(ctx context.Context, classroomID uuid.UUID) (*ScheduleView, error) {
	classroom, err := c.store.Classroom(ctx, classroomID)
	if err != nil {
		return nil, err
	}
	st, err := c.store.StructureOf(ctx, classroom)
	if err != nil {
		return nil, err
	}
	return &ScheduleView{
		Classroom: classroom,
		Structure: st,
		Schedule:  c.store.Schedule(classroom, st),
	}, nil
}

// Classrooms lists the school's classrooms, the scope of every conflict check.
func (c *AssignmentCoordinator) Classrooms(ctx context.Context, schoolID uuid.UUID) ([]*model.Classroom, error) {
	return c.store.Classrooms(ctx, schoolID)
}

// SetSlot validates and writes one cell. When a teacher is given the check and the
// write run under the (school, day, period) lock, and a lost compare-and-swap
// re-runs validation and the conflict check.
func (c *AssignmentCoordinator) SetSlot(ctx context.Context, classroomID uuid.UUID, day model.DayName, periodID, subject, teacherID string) (*model.Schedule, error) {
	periodID = strings.TrimSpace(periodID)
	assignment := model.SlotAssignment{
		Subject:   strings.TrimSpace(subject),
		TeacherID: strings.TrimSpace(teacherID),
	}

	classroom, err := c.store.Classroom(ctx, classroomID)
	if err != nil {
		return nil, err
	}
	structure, err := c.store.StructureOf(ctx, classroom)
	if err != nil {
		return nil, err
	}
	if err := validateSlot(structure, day, periodID); err != nil {
		return nil, err
	}
	if err := c.validateTeacher(ctx, classroom.SchoolID, assignment.TeacherID); err != nil {
		return nil, err
	}

	if assignment.TeacherID != "" {
		release, err := c.locker.Acquire(ctx, SlotLockKey(classroom.SchoolID, day, periodID))
		if err != nil {
			c.logger.Warn("Failed to acquire slot lock",
				zap.String("classroom_id", classroomID.String()),
				zap.String("day", string(day)),
				zap.String("period_id", periodID),
				zap.Error(err))
			return nil, model.Persistence("acquire slot lock", err)
		}
		defer release()
	}

	for attempt := 1; ; attempt++ {
		if attempt > 1 {
			if classroom, err = c.store.Classroom(ctx, classroomID); err != nil {
				return nil, err
			}
			if structure, err = c.store.StructureOf(ctx, classroom); err != nil {
				return nil, err
			}
			if err := validateSlot(structure, day, periodID); err != nil {
				return nil, err
			}
		}

		if assignment.TeacherID != "" {
			avail, err := c.detector.Check(ctx, classroom.SchoolID, assignment.TeacherID, day, periodID, classroom.ID)
			if err != nil {
				return nil, err
			}
			if !avail.Available {
				c.logger.Warn("Slot write rejected, teacher busy",
					zap.String("classroom_id", classroomID.String()),
					zap.String("teacher_id", assignment.TeacherID),
					zap.String("day", string(day)),
					zap.String("period_id", periodID),
					zap.String("conflicting_classroom", avail.ConflictingClassroomName))
				conflict := &model.ConflictError{
					TeacherID:                assignment.TeacherID,
					Day:                      day,
					PeriodID:                 periodID,
					ConflictingClassroomName: avail.ConflictingClassroomName,
				}
				if avail.ConflictingClassroomID != nil {
					conflict.ConflictingClassroomID = *avail.ConflictingClassroomID
				}
				return nil, conflict
			}
		}

		schedule, err := c.store.WriteSlot(ctx, classroom, structure, day, periodID, assignment)
		if errors.Is(err, model.ErrVersionMismatch) && attempt < c.maxAttempts {
			c.logger.Debug("Timetable changed concurrently, retrying",
				zap.String("classroom_id", classroomID.String()),
				zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			c.logger.Error("Failed to write slot",
				zap.String("classroom_id", classroomID.String()),
				zap.String("day", string(day)),
				zap.String("period_id", periodID),
				zap.Int("attempt", attempt),
				zap.Error(err))
			return nil, model.Persistence("write slot", err)
		}

		c.logger.Info("Slot updated",
			zap.String("classroom_id", classroomID.String()),
			zap.String("day", string(day)),
			zap.String("period_id", periodID),
			zap.String("subject", assignment.Subject),
			zap.String("teacher_id", assignment.TeacherID),
			zap.Int64("version", schedule.Version))
		return schedule, nil
	}
}

// ClearSlot empties one cell.
func (c *AssignmentCoordinator) ClearSlot(ctx context.Context, classroomID uuid.UUID, day model.DayName, periodID string) (*model.Schedule, error) {
	return c.SetSlot(ctx, classroomID, day, periodID, "", "")
}

// CheckAvailability is the read-only conflict check.
func (c *AssignmentCoordinator) CheckAvailability(ctx context.Context, schoolID uuid.UUID, teacherID string, day model.DayName, periodID string, excludeClassroomID uuid.UUID) (*model.Availability, error) {
	return c.detector.Check(ctx, schoolID, strings.TrimSpace(teacherID), day, strings.TrimSpace(periodID), excludeClassroomID)
}

// TeacherTimetable lists the cells the teacher holds across the school.
func (c *AssignmentCoordinator) TeacherTimetable(ctx context.Context, schoolID uuid.UUID, teacherID string) ([]model.TeacherSlot, error) {
	return c.detector.TeacherSlots(ctx, schoolID, strings.TrimSpace(teacherID))
}

// SuggestSubject returns the teacher's first declared subject, or "" if there is none.
func (c *AssignmentCoordinator) SuggestSubject(ctx context.Context, schoolID uuid.UUID, teacherID string) (string, error) {
	if c.directory == nil {
		return "", nil
	}
	t, err := c.directory.Teacher(ctx, schoolID, teacherID)
	if err != nil {
		return "", model.Persistence("get teacher", err)
	}
	if t == nil {
		return "", &model.NotFoundError{Entity: "teacher", ID: teacherID}
	}
	return t.SuggestedSubject(), nil
}

// AssignableTeachers lists the staff directory.
func (c *AssignmentCoordinator) AssignableTeachers(ctx context.Context, schoolID uuid.UUID) ([]*model.Teacher, error) {
	if c.directory == nil {
		return []*model.Teacher{}, nil
	}
	teachers, err := c.directory.Teachers(ctx, schoolID)
	if err != nil {
		return nil, model.Persistence("list teachers", err)
	}
	return teachers, nil
}

// AssignableSubjects lists the subject master list. Free-text subjects are still accepted by SetSlot.
func (c *AssignmentCoordinator) AssignableSubjects(ctx context.Context, schoolID uuid.UUID) ([]*model.Subject, error) {
	if c.directory == nil {
		return []*model.Subject{}, nil
	}
	subjects, err := c.directory.Subjects(ctx, schoolID)
	if err != nil {
		return nil, model.Persistence("list subjects", err)
	}
	return subjects, nil
}

// ReconcileStructure prunes keys that became meaningless after a structure update from
// every classroom that references it.
func (c *AssignmentCoordinator) ReconcileStructure(ctx context.Context, structureID uuid.UUID) (int, error) {
	st, err := c.structures.GetByID(ctx, structureID)
	if err != nil {
		return 0, model.Persistence("get structure", err)
	}
	if st == nil {
		return 0, model.NewNotFound("structure", structureID)
	}

	classrooms, err := c.store.classrooms.ListByStructure(ctx, structureID)
	if err != nil {
		return 0, model.Persistence("list classrooms by structure", err)
	}

	pruned := 0
	for _, classroom := range classrooms {
		n, err := c.pruneClassroom(ctx, classroom, st)
		if err != nil {
			return pruned, err
		}
		pruned += n
	}

	if pruned > 0 {
		c.logger.Info("Orphaned timetable cells pruned",
			zap.String("structure_id", structureID.String()),
			zap.Int("cells", pruned))
	}
	return pruned, nil
}

// pruneClassroom re-reads the classroom and retries while it is being written
// concurrently. After maxAttempts the classroom is left to the next run.
func (c *AssignmentCoordinator) pruneClassroom(ctx context.Context, classroom *model.Classroom, st *model.Structure) (int, error) {
	for attempt := 1; ; attempt++ {
		n, err := c.store.Prune(ctx, classroom, st)
		if err == nil {
			return n, nil
		}
		if !errors.Is(err, model.ErrVersionMismatch) {
			return 0, model.Persistence("prune timetable", err)
		}
		if attempt >= c.maxAttempts {
			c.logger.Debug("Skipping classroom changed during reconcile",
				zap.String("classroom_id", classroom.ID.String()),
				zap.Int("attempts", attempt))
			return 0, nil
		}

		classroom, err = c.store.Classroom(ctx, classroom.ID)
		if model.IsNotFound(err) {
			return 0, nil
		}
		if err != nil {
			return 0, err
		}
		// reassigned meanwhile: the grid no longer belongs to this structure
		if !sameStructure(classroom.TimetableStructureID, &st.ID) {
			return 0, nil
		}
	}
}

// ReconcileAll runs ReconcileStructure for every structure of every school.
func (c *AssignmentCoordinator) ReconcileAll(ctx context.Context) (int, error) {
	structures, err := c.structures.ListAll(ctx)
	if err != nil {
		return 0, model.Persistence("list structures", err)
	}

	total := 0
	for _, st := range structures {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := c.ReconcileStructure(ctx, st.ID)
		if model.IsNotFound(err) {
			continue
		}
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}

func (c *AssignmentCoordinator) validateTeacher(ctx context.Context, schoolID uuid.UUID, teacherID string) error {
	if teacherID == "" || c.directory == nil {
		return nil
	}
	t, err := c.directory.Teacher(ctx, schoolID, teacherID)
	if err != nil {
		return model.Persistence("get teacher", err)
	}
	if t == nil {
		return model.NewFieldError("teacherId", "unknown teacher")
	}
	return nil
}

// validateSlot checks (day, periodID) against the structure's keyspace.
func validateSlot(st *model.Structure, day model.DayName, periodID string) error {
	if st == nil {
		return model.NewFieldError("classroomId", "no timetable structure assigned")
	}
	if !st.HasDay(day) {
		return model.NewFieldError("day", fmt.Sprintf("%q is not a working day of %s", day, st.Name))
	}
	p, ok := st.Period(periodID)
	if !ok {
		return model.NewFieldError("periodId", fmt.Sprintf("unknown period %q", periodID))
	}
	if p.IsBreak() {
		return model.NewFieldError("periodId", fmt.Sprintf("%s is a break", p.Name))
	}
	return nil
}

// SlotLockKey is the lock key for one (school, day, period) coordinate.
func SlotLockKey(schoolID uuid.UUID, day model.DayName, periodID string) string {
	return fmt.Sprintf("timetable:lock:%s:%s:%s", schoolID, day, periodID)
}

func sameStructure(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func uuidString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
