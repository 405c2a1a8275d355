package overlay

import "fmt"

// Course is a suggested course for a job title. Course data is synthesized
// locally; nothing is fetched.
type Course struct {
	Title    string `json:"title"`
	Provider string `json:"provider"`
	Duration string `json:"duration"`
	Level    string `json:"level"`
}

// Listing is a mock job posting.
type Listing struct {
	Company  string `json:"company"`
	Location string `json:"location"`
	Salary   string `json:"salary"`
	Posted   string `json:"posted"`
}

var courseTemplates = []Course{
	{Title: "Introduction to %s", Provider: "Coursera", Duration: "8 weeks", Level: "Beginner"},
	{Title: "Advanced %s Techniques", Provider: "Udemy", Duration: "12 weeks", Level: "Intermediate"},
	{Title: "%s Certification", Provider: "LinkedIn Learning", Duration: "16 weeks", Level: "Advanced"},
	{Title: "Industry Best Practices for %s", Provider: "edX", Duration: "6 weeks", Level: "All Levels"},
	{Title: "Specialized %s Skills", Provider: "Pluralsight", Duration: "10 weeks", Level: "Intermediate"},
}

var listings = []Listing{
	{Company: "TechCorp", Location: "Toronto, ON", Salary: "$80,000 - $100,000", Posted: "2 days ago"},
	{Company: "InnovateCo", Location: "Vancouver, BC", Salary: "$85,000 - $110,000", Posted: "1 week ago"},
	{Company: "DataFlow", Location: "Montreal, QC", Salary: "$75,000 - $95,000", Posted: "3 days ago"},
	{Company: "DesignHub", Location: "Calgary, AB", Salary: "$70,000 - $90,000", Posted: "5 days ago"},
	{Company: "MarketPro", Location: "Ottawa, ON", Salary: "$65,000 - $85,000", Posted: "1 day ago"},
}

// Courses returns the five course suggestions for a job title.
func Courses(title string) []Course {
	out := make([]Course, len(courseTemplates))
	for i, tmpl := range courseTemplates {
		out[i] = tmpl
		out[i].Title = fmt.Sprintf(tmpl.Title, title)
	}
	return out
}

// Listings returns the job listings shown for any recommendation.
func Listings() []Listing {
	out := make([]Listing, len(listings))
	copy(out, listings)
	return out
}
