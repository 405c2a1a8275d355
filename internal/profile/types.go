package profile

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Field names as they appear in the intake form and its persisted JSON.
const (
	FieldProvince      = "province"
	FieldCMA           = "cma"
	FieldAge           = "age"
	FieldGender        = "gender"
	FieldMaritalStatus = "maritalStatus"
	FieldEducation     = "education"
	FieldImmigration   = "immigration"
)

// Fields lists the seven required fields in form order.
var Fields = []string{
	FieldProvince,
	FieldCMA,
	FieldAge,
	FieldGender,
	FieldMaritalStatus,
	FieldEducation,
	FieldImmigration,
}

const (
	MinAge = 15
	MaxAge = 120
)

var (
	Provinces = []string{
		"Alberta",
		"British Columbia",
		"Manitoba",
		"New Brunswick",
		"Newfoundland and Labrador",
		"Nova Scotia",
		"Ontario",
		"Prince Edward Island",
		"Quebec",
		"Saskatchewan",
	}
	CMAs = []string{
		"Toronto",
		"Montreal",
		"Vancouver",
		"Calgary",
		"Edmonton",
		"Ottawa-Gatineau",
		"Winnipeg",
		"Quebec City",
		"Hamilton",
		"Halifax",
	}
	Genders         = []string{"Male", "Female"}
	MaritalStatuses = []string{"Single", "Married", "Common-law", "Divorced", "Separated", "Widowed"}
	// EducationLevels is ordered from least to most schooling.
	EducationLevels = []string{
		"0 to 8 years",
		"Some high school",
		"High school graduate",
		"Some postsecondary",
		"Postsecondary certificate or diploma",
		"Bachelor's degree",
		"Above bachelor's degree",
	}
	ImmigrationStatuses = []string{
		"Immigrant, landed 10 or less years earlier",
		"Immigrant, landed more than 10 years earlier",
		"Non-immigrant",
	}
)

// Options returns the allowed values for every enumerated field.
func Options() map[string][]string {
	return map[string][]string{
		FieldProvince:      slices.Clone(Provinces),
		FieldCMA:           slices.Clone(CMAs),
		FieldGender:        slices.Clone(Genders),
		FieldMaritalStatus: slices.Clone(MaritalStatuses),
		FieldEducation:     slices.Clone(EducationLevels),
		FieldImmigration:   slices.Clone(ImmigrationStatuses),
	}
}

// Profile is a submitted, validated set of intake answers. Values are
// immutable once produced by Form.Submit.
type Profile struct {
	Province      string `json:"province"`
	CMA           string `json:"cma"`
	Age           int    `json:"age"`
	Gender        string `json:"gender"`
	MaritalStatus string `json:"maritalStatus"`
	Education     string `json:"education"`
	Immigration   string `json:"immigration"`
}

// Draft is the in-progress form buffer. Every value is kept as entered.
type Draft struct {
	Province      string `json:"province"`
	CMA           string `json:"cma"`
	Age           string `json:"age"`
	Gender        string `json:"gender"`
	MaritalStatus string `json:"maritalStatus"`
	Education     string `json:"education"`
	Immigration   string `json:"immigration"`
}

var (
	// ErrIncomplete is returned when a draft cannot be submitted.
	ErrIncomplete = errors.New("profile incomplete")
	// ErrUnknownField is returned when setting a field the form does not have.
	ErrUnknownField = errors.New("unknown field")
)

// Set assigns value to the named field.
func (d *Draft) Set(field, value string) error {
	switch field {
	case FieldProvince:
		d.Province = value
	case FieldCMA:
		d.CMA = value
	case FieldAge:
		d.Age = value
	case FieldGender:
		d.Gender = value
	case FieldMaritalStatus:
		d.MaritalStatus = value
	case FieldEducation:
		d.Education = value
	case FieldImmigration:
		d.Immigration = value
	default:
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	return nil
}

// Get returns the value of the named field.
func (d Draft) Get(field string) (string, error) {
	switch field {
	case FieldProvince:
		return d.Province, nil
	case FieldCMA:
		return d.CMA, nil
	case FieldAge:
		return d.Age, nil
	case FieldGender:
		return d.Gender, nil
	case FieldMaritalStatus:
		return d.MaritalStatus, nil
	case FieldEducation:
		return d.Education, nil
	case FieldImmigration:
		return d.Immigration, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, field)
}

// IsEmpty reports whether no field has been filled in.
func (d Draft) IsEmpty() bool {
	return d == Draft{}
}

// Validate converts the draft into a Profile. Every field must be filled,
// enumerated fields must hold one of their options and age must be an
// integer within [MinAge, MaxAge]. The returned error wraps ErrIncomplete
// and names each offending field.
func (d Draft) Validate() (Profile, error) {
	var problems []string

	check := func(field, value string, allowed []string) {
		switch {
		case strings.TrimSpace(value) == "":
			problems = append(problems, field+" is required")
		case !slices.Contains(allowed, value):
			problems = append(problems, fmt.Sprintf("%s %q is not a valid option", field, value))
		}
	}

	check(FieldProvince, d.Province, Provinces)
	check(FieldCMA, d.CMA, CMAs)

	age := 0
	if strings.TrimSpace(d.Age) == "" {
		problems = append(problems, FieldAge+" is required")
	} else if n, err := strconv.Atoi(strings.TrimSpace(d.Age)); err != nil {
		problems = append(problems, fmt.Sprintf("age %q is not a whole number", d.Age))
	} else if n < MinAge || n > MaxAge {
		problems = append(problems, fmt.Sprintf("age must be between %d and %d", MinAge, MaxAge))
	} else {
		age = n
	}

	check(FieldGender, d.Gender, Genders)
	check(FieldMaritalStatus, d.MaritalStatus, MaritalStatuses)
	check(FieldEducation, d.Education, EducationLevels)
	check(FieldImmigration, d.Immigration, ImmigrationStatuses)

	if len(problems) > 0 {
		return Profile{}, fmt.Errorf("%w: %s", ErrIncomplete, strings.Join(problems, "; "))
	}

	return Profile{
		Province:      d.Province,
		CMA:           d.CMA,
		Age:           age,
		Gender:        d.Gender,
		MaritalStatus: d.MaritalStatus,
		Education:     d.Education,
		Immigration:   d.Immigration,
	}, nil
}

// Validate applies the form's rules to an already built Profile, such as one
// read back from storage.
func (p Profile) Validate() error {
	_, err := Draft{
		Province:      p.Province,
		CMA:           p.CMA,
		Age:           strconv.Itoa(p.Age),
		Gender:        p.Gender,
		MaritalStatus: p.MaritalStatus,
		Education:     p.Education,
		Immigration:   p.Immigration,
	}.Validate()
	return err
}
