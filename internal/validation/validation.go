package validation

import (
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	appErrors "github.com/edudir/student-directory/pkg/errors"
)

// Input is the raw decoded request body for create and update calls. Values
// arrive untyped: clients post studyStart as a number and birthday as an ISO string.
type Input map[string]interface{}

// Draft is a normalized candidate record: the six business fields, trimmed and
// stringified, not yet checked. Date parseability of Birthday and numeric-ness
// of StudyStart are deliberately left to query-time derivation.
type Draft struct {
	Name       string `validate:"required"`
	Surname    string `validate:"required"`
	Lastname   string `validate:"required"`
	Birthday   string `validate:"required"`
	StudyStart string `validate:"required"`
	Faculty    string `validate:"required"`
}

var fieldMessages = map[string]appErrors.FieldError{
	"Name":       {Field: "name", Message: "name is required"},
	"Surname":    {Field: "surname", Message: "surname is required"},
	"Lastname":   {Field: "lastname", Message: "lastname is required"},
	"Birthday":   {Field: "birthday", Message: "birthday is required"},
	"StudyStart": {Field: "studyStart", Message: "studyStart is required"},
	"Faculty":    {Field: "faculty", Message: "faculty is required"},
}

// Validator normalizes raw input into drafts and reports the complete set of
// field-level problems in one pass.
type Validator struct {
	validate *validator.Validate
}

// New constructs a Validator.
func New() *Validator {
	return &Validator{validate: validator.New()}
}

// Normalize coerces the six business fields of raw input into trimmed strings.
// Missing or non-string values are stringified the same way regardless of the
// JSON type the client chose.
func Normalize(in Input) Draft {
	return Draft{
		Name:       asString(in["name"]),
		Surname:    asString(in["surname"]),
		Lastname:   asString(in["lastname"]),
		Birthday:   asString(in["birthday"]),
		StudyStart: asString(in["studyStart"]),
		Faculty:    asString(in["faculty"]),
	}
}

// ValidateDraft checks that every business field is non-empty. All failures are
// collected and returned together as a single validation error so the caller
// can report the complete set.
func (v *Validator) ValidateDraft(d Draft) error {
	err := v.validate.Struct(d)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}
	details := make([]appErrors.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		if msg, found := fieldMessages[fe.StructField()]; found {
			details = append(details, msg)
			continue
		}
		details = append(details, appErrors.FieldError{Field: fe.Field(), Message: "invalid value"})
	}
	return appErrors.Validation(details)
}

func asString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case float64:
		// JSON numbers decode as float64; years must round-trip without a fraction.
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}
