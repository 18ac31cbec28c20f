package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/legacy-registry/profile-api/internal/domain"
	"github.com/legacy-registry/profile-api/internal/ports/out/clock"
)

// MinYear is the earliest year accepted by any year field.
const MinYear = 1800

// ValidationError reports every invalid field, keyed by JSON path (e.g. "timeline[0].year").
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "invalid content: " + strings.Join(parts, "; ")
}

type Validator struct {
	v     *validator.Validate
	clock clock.Clock
}

func NewValidator(clk clock.Clock) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	cv := &Validator{v: v, clock: clk}
	// Registration only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("year", func(fl validator.FieldLevel) bool {
		y := fl.Field().Int()
		return y >= MinYear && y <= int64(cv.currentYear())
	})
	return cv
}

func (v *Validator) currentYear() int {
	return v.clock.Now().UTC().Year()
}

// Validate decodes raw, normalizes it and checks every field. Unknown keys are dropped.
// On success the returned Content has section defaults and auto-hide applied.
func (v *Validator) Validate(raw json.RawMessage) (Content, error) {
	if len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
		return Content{}, &ValidationError{Fields: map[string]string{"content": "is required"}}
	}

	var c Content
	if err := json.Unmarshal(raw, &c); err != nil {
		return Content{}, decodeError(err)
	}
	normalize(&c)

	if err := v.Check(c); err != nil {
		return Content{}, err
	}

	ApplyAutoHide(&c)
	return c, nil
}

// Check validates an already decoded Content without transforming it.
func (v *Validator) Check(c Content) error {
	err := v.v.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate content: %w", err)
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		path := fieldPath(fe.Namespace())
		if _, seen := fields[path]; seen {
			continue
		}
		fields[path] = v.message(fe)
	}
	return &ValidationError{Fields: fields}
}

// fieldPath drops the root struct name from a validator namespace.
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

func (v *Validator) message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "year":
		return fmt.Sprintf("must be between %d and %d", MinYear, v.currentYear())
	case "min", "max":
		bound := "at least"
		if fe.Tag() == "max" {
			bound = "at most"
		}
		switch fe.Kind() {
		case reflect.String:
			return fmt.Sprintf("must be %s %s characters", bound, fe.Param())
		case reflect.Slice, reflect.Map:
			return fmt.Sprintf("must contain %s %s items", bound, fe.Param())
		default:
			return fmt.Sprintf("must be %s %s", bound, fe.Param())
		}
	default:
		return "is invalid"
	}
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return &ValidationError{Fields: map[string]string{
			typeErr.Field: fmt.Sprintf("must be a %s", jsonKind(typeErr.Type)),
		}}
	}
	return &ValidationError{Fields: map[string]string{"content": "must be a JSON object"}}
}

func jsonKind(t reflect.Type) string {
	if t == nil {
		return "value"
	}
	switch t.Kind() {
	case reflect.String:
		return "string"
	case reflect.Bool:
		return "boolean"
	case reflect.Int, reflect.Int64, reflect.Int32, reflect.Float64:
		return "number"
	case reflect.Slice:
		return "list"
	case reflect.Map, reflect.Struct:
		return "object"
	default:
		return "value"
	}
}

func normalize(c *Content) {
	c.Name = domain.NormalizeHumanName(c.Name)
	c.Tagline = strings.TrimSpace(c.Tagline)
	c.Bio = strings.TrimSpace(c.Bio)
	c.HeroImage = strings.TrimSpace(c.HeroImage)
	c.Location = strings.TrimSpace(c.Location)
	c.Profession = strings.TrimSpace(c.Profession)
	c.LegacyStatement = strings.TrimSpace(c.LegacyStatement)

	for s := range c.Sections {
		if !knownSection(s) {
			delete(c.Sections, s)
		}
	}
	c.Media = NormalizeMediaOrder(c.Media)
}
