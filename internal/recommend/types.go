package recommend

// Recommendation is a ranked job-title suggestion. ID is the 1-based rank
// within one fetch batch.
type Recommendation struct {
	ID             int    `json:"id"`
	Title          string `json:"title"`
	RelevanceScore int    `json:"relevanceScore"`
}

// Band is the display color band for a relevance score.
type Band string

const (
	BandGreen  Band = "green"
	BandBlue   Band = "blue"
	BandYellow Band = "yellow"
	BandRed    Band = "red"
)

// BandFor maps a relevance score to its display band.
func BandFor(score int) Band {
	switch {
	case score >= 80:
		return BandGreen
	case score >= 60:
		return BandBlue
	case score >= 40:
		return BandYellow
	default:
		return BandRed
	}
}

// Band returns the display band of r.
func (r Recommendation) Band() Band { return BandFor(r.RelevanceScore) }

// Fallback returns the fixed list used when the prediction endpoint cannot
// be reached or answers with something unusable.
func Fallback() []Recommendation {
	return []Recommendation{
		{ID: 1, Title: "Software Developer", RelevanceScore: 85},
		{ID: 2, Title: "Data Analyst", RelevanceScore: 80},
		{ID: 3, Title: "Project Manager", RelevanceScore: 75},
	}
}

// FromTitles ranks titles in order: element i becomes ID i+1 with score
// 90 - 5*i. No floor is applied to the score.
func FromTitles(titles []string) []Recommendation {
	recs := make([]Recommendation, len(titles))
	for i, t := range titles {
		recs[i] = Recommendation{ID: i + 1, Title: t, RelevanceScore: 90 - 5*i}
	}
	return recs
}
