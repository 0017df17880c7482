package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/Freeeeeet/school_timetable/internal/model"
)

// StructureInput cleans in (trims strings, generates missing period ids, defaults
// kind to CLASS) and validates it. The returned error is always *model.ValidationError.
func StructureInput(in *model.StructureInput) error {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	for i := range in.Periods {
		p := &in.Periods[i]
		p.ID = strings.TrimSpace(p.ID)
		p.Name = strings.TrimSpace(p.Name)
		p.StartTime = strings.TrimSpace(p.StartTime)
		p.EndTime = strings.TrimSpace(p.EndTime)
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if p.Kind == "" {
			p.Kind = model.PeriodKindClass
		}
	}

	var fields []model.FieldError
	if err := Struct(in); err != nil {
		var ve *model.ValidationError
		if !errors.As(err, &ve) {
			return err
		}
		fields = append(fields, ve.Fields...)
	}

	seen := make(map[string]int, len(in.Periods))
	for i, p := range in.Periods {
		if j, dup := seen[p.ID]; dup {
			fields = append(fields, model.FieldError{
				Field: fmt.Sprintf("periods[%d].id", i),
				Error: fmt.Sprintf("duplicates periods[%d].id", j),
			})
			continue
		}
		seen[p.ID] = i
	}

	days := make(map[model.DayName]struct{}, len(in.WorkingDays))
	for i, d := range in.WorkingDays {
		if _, dup := days[d]; dup {
			fields = append(fields, model.FieldError{
				Field: fmt.Sprintf("workingDays[%d]", i),
				Error: "duplicate working day",
			})
		}
		days[d] = struct{}{}
	}

	if len(fields) == 0 {
		return nil
	}
	return &model.ValidationError{
		Err:    fmt.Errorf("%s: %s", fields[0].Field, fields[0].Error),
		Fields: fields,
	}
}
