package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/Freeeeeet/school_timetable/internal/model"
)

var (
	Validate   *validator.Validate
	Translator ut.Translator

	// custom validation tags
	hhmmTag     = "hhmm"
	dayNameTag  = "dayname"
	afterTag    = "after_start"
	requiredTag = "required"

	hhmmRegex = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
)

func init() {
	Validate = validator.New()

	_en := en.New()
	uni := ut.New(_en, _en)
	Translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(Validate, Translator)

	// Use JSON tag names for errors instead of Go struct names.
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = Validate.RegisterValidation(hhmmTag, hhmmValidation)
	_ = Validate.RegisterValidation(dayNameTag, dayNameValidation)
	Validate.RegisterStructValidation(periodStructValidation, model.Period{})

	registerCustomTranslation(hhmmTag, "must be a time in HH:MM format", false)
	registerCustomTranslation(dayNameTag, "must be one of Mon, Tue, Wed, Thu, Fri, Sat or Sun", false)
	registerCustomTranslation(afterTag, "must be later than startTime", false)
	registerCustomTranslation(requiredTag, "this field is required", true)
}

func registerCustomTranslation(tag, text string, override bool) {
	_ = Validate.RegisterTranslation(
		tag, Translator,
		func(t ut.Translator) error { return t.Add(tag, text, override) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

func hhmmValidation(fl validator.FieldLevel) bool {
	return hhmmRegex.MatchString(fl.Field().String())
}

func dayNameValidation(fl validator.FieldLevel) bool {
	return model.DayName(fl.Field().String()).IsValid()
}

// periodStructValidation: endTime must be after startTime when both are well formed.
// HH:MM strings compare correctly as text.
func periodStructValidation(sl validator.StructLevel) {
	p, ok := sl.Current().Interface().(model.Period)
	if !ok {
		return
	}
	if !hhmmRegex.MatchString(p.StartTime) || !hhmmRegex.MatchString(p.EndTime) {
		return
	}
	if p.EndTime <= p.StartTime {
		sl.ReportError(p.EndTime, "endTime", "EndTime", afterTag, "")
	}
}

// Struct validates s and converts validator errors into *model.ValidationError.
func Struct(s any) error {
	err := Validate.Struct(s)
	if err == nil {
		return nil
	}
	var vErrs validator.ValidationErrors
	if !errors.As(err, &vErrs) {
		return err
	}
	return FromValidator(vErrs)
}

// FromValidator converts validator errors. Field names are namespaces without the
// top-level struct, e.g. "periods[1].startTime".
func FromValidator(vErrs validator.ValidationErrors) *model.ValidationError {
	ve := &model.ValidationError{Err: errors.New("invalid input")}
	for _, fe := range vErrs {
		ve.Fields = append(ve.Fields, model.FieldError{
			Field: fieldPath(fe.Namespace()),
			Error: fe.Translate(Translator),
		})
	}
	if len(ve.Fields) > 0 {
		ve.Err = errors.New(ve.Fields[0].Field + ": " + ve.Fields[0].Error)
	}
	return ve
}

func fieldPath(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}
