package storage

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
			_, err := time.Parse("2006-01-02", fl.Field().String())
			return err == nil
		})
	})
	return validate
}

// ValidateActivity checks field formats and the endDate >= startDate rule.
func ValidateActivity(a Activity) error {
	if err := validateStruct("activity", a); err != nil {
		return err
	}
	if a.EndDate < a.StartDate {
		return fmt.Errorf("activity %q: endDate %s is before startDate %s", a.Title, a.EndDate, a.StartDate)
	}
	return nil
}

// ValidateCategory checks that a category has a name and a hex colour.
func ValidateCategory(c Category) error {
	return validateStruct("category", c)
}

// ValidateDayStyle checks date formats and the range order of a style.
func ValidateDayStyle(d DayStyle) error {
	if err := validateStruct("day style", d); err != nil {
		return err
	}
	if d.EndDate != "" && d.EndDate < d.StartDate {
		return fmt.Errorf("day style %s: endDate %s is before startDate %s", d.ID, d.EndDate, d.StartDate)
	}
	return nil
}

func validateStruct(kind string, v any) error {
	err := getValidator().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validate %s: %w", kind, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("invalid %s: %s", kind, strings.Join(msgs, ", "))
}
