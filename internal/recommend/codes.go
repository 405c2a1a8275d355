package recommend

import "github.com/apexathon/careerdash/internal/profile"

// PredictRequest is the integer-coded demographic payload the prediction
// endpoint expects. Codes follow the Labour Force Survey public-use file the
// prediction model is trained on.
type PredictRequest struct {
	Prov    int `json:"prov"`
	CMA     int `json:"cma"`
	Age12   int `json:"age_12"`
	Gender  int `json:"gender"`
	Marstat int `json:"marstat"`
	Educ    int `json:"educ"`
}

// StubRequest is the fixed payload sent when the live profile is not used.
func StubRequest() PredictRequest {
	return PredictRequest{Prov: 1, CMA: 2, Age12: 3, Gender: 1, Marstat: 2, Educ: 3}
}

var provinceCodes = map[string]int{
	"Newfoundland and Labrador": 10,
	"Prince Edward Island":      11,
	"Nova Scotia":               12,
	"New Brunswick":             13,
	"Quebec":                    24,
	"Ontario":                   35,
	"Manitoba":                  46,
	"Saskatchewan":              47,
	"Alberta":                   48,
	"British Columbia":          59,
}

// CMAs outside the survey's published list (Halifax) are coded 0.
var cmaCodes = map[string]int{
	"Quebec City":     1,
	"Montreal":        2,
	"Ottawa-Gatineau": 3,
	"Toronto":         4,
	"Hamilton":        5,
	"Winnipeg":        6,
	"Calgary":         7,
	"Edmonton":        8,
	"Vancouver":       9,
}

var genderCodes = map[string]int{
	"Male":   1,
	"Female": 2,
}

var marstatCodes = map[string]int{
	"Married":    1,
	"Common-law": 2,
	"Widowed":    3,
	"Separated":  4,
	"Divorced":   5,
	"Single":     6,
}

// AgeGroup returns the 12-bucket age code: 15-19 is 1, each following
// five-year band adds one, 70 and over is 12.
func AgeGroup(age int) int {
	if age < profile.MinAge {
		return 1
	}
	g := (age-profile.MinAge)/5 + 1
	if g > 12 {
		return 12
	}
	return g
}

// RequestFromProfile encodes a submitted profile. Education is coded by its
// position in the ordered education levels (0 to 6).
func RequestFromProfile(p profile.Profile) PredictRequest {
	educ := 0
	for i, e := range profile.EducationLevels {
		if e == p.Education {
			educ = i
			break
		}
	}
	return PredictRequest{
		Prov:    provinceCodes[p.Province],
		CMA:     cmaCodes[p.CMA],
		Age12:   AgeGroup(p.Age),
		Gender:  genderCodes[p.Gender],
		Marstat: marstatCodes[p.MaritalStatus],
		Educ:    educ,
	}
}
