package service

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/go-playground/validator/v10"
)

var academicYearPattern = regexp.MustCompile(`^(\d{4})-(\d{2})$`)

// validAcademicYear accepts "2024-25" style years where the suffix follows the start year.
func validAcademicYear(raw string) bool {
	m := academicYearPattern.FindStringSubmatch(raw)
	if m == nil {
		return false
	}
	start, _ := strconv.Atoi(m[1])
	end, _ := strconv.Atoi(m[2])
	return (start+1)%100 == end
}

func newValidator(v *validator.Validate) *validator.Validate {
	if v == nil {
		v = validator.New()
	}
	mustRegister(v, "academic_year", func(fl validator.FieldLevel) bool {
		return validAcademicYear(fl.Field().String())
	})
	return v
}

// mustRegister panics when a rule cannot be registered; it only runs while wiring services.
func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %q validation: %v", tag, err))
	}
}
