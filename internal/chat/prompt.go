package chat

import (
	"strings"

	"github.com/apexathon/careerdash/internal/profile"
)

const notProvided = "Not provided"

// PromptContext is the profile context interpolated into every question.
// Name, Skills and Experience are not collected by the intake form and stay
// empty unless a caller fills them.
type PromptContext struct {
	Name        string
	Education   string
	Immigration string
	Skills      string
	Experience  string
}

// ContextFromProfile extracts prompt context from a submitted profile.
func ContextFromProfile(p profile.Profile) PromptContext {
	return PromptContext{
		Education:   p.Education,
		Immigration: p.Immigration,
	}
}

// BuildPrompt renders the enriched prompt sent to the completion endpoint.
func BuildPrompt(pc PromptContext, question string) string {
	var sb strings.Builder
	sb.WriteString("\nUser Profile:\n")
	writeField(&sb, "Name", pc.Name)
	writeField(&sb, "Education", pc.Education)
	writeField(&sb, "Immigration Status", pc.Immigration)
	writeField(&sb, "Skills", pc.Skills)
	writeField(&sb, "Experience", pc.Experience)
	sb.WriteString("\nUser Question: ")
	sb.WriteString(question)
	sb.WriteString("\n")
	return sb.String()
}

func writeField(sb *strings.Builder, label, value string) {
	if value == "" {
		value = notProvided
	}
	sb.WriteString("- ")
	sb.WriteString(label)
	sb.WriteString(": ")
	sb.WriteString(value)
	sb.WriteString("\n")
}
