package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/apexathon/careerdash/internal/chat"
	"github.com/apexathon/careerdash/internal/overlay"
	"github.com/apexathon/careerdash/internal/profile"
	"github.com/apexathon/careerdash/internal/recommend"
)

// MCPRecommender abstracts the recommendation and chat sources for the MCP
// layer. Implemented by dashboard.Manager.
type MCPRecommender interface {
	Recommend(ctx context.Context) []recommend.Recommendation
	NewChat() *chat.Session
}

// MCPProfiles reads the current submitted profile.
type MCPProfiles interface {
	Current() (profile.Profile, bool, error)
}

// MCPDeps holds dependencies for the MCP server.
type MCPDeps struct {
	Recommender MCPRecommender
	Profiles    MCPProfiles
	Version     string
}

// NewMCPServer creates an MCP server with all careerdash tools and resources
// registered.
func NewMCPServer(deps MCPDeps) *server.MCPServer {
	version := deps.Version
	if version == "" {
		version = "dev"
	}
	s := server.NewMCPServer(
		"careerdash",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("careerdash: job recommendations, course suggestions and career advice based on the submitted profile."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("recommend_jobs",
			mcp.WithDescription("Return ranked job recommendations for the submitted profile."),
		),
		mcpRecommendJobs(deps),
	)

	s.AddTool(
		mcp.NewTool("career_question",
			mcp.WithDescription("Ask a career or job search question. The submitted profile is added as context."),
			mcp.WithString("question", mcp.Description("The question to ask"), mcp.Required()),
		),
		mcpCareerQuestion(deps),
	)

	s.AddTool(
		mcp.NewTool("course_suggestions",
			mcp.WithDescription("List suggested courses for a job title."),
			mcp.WithString("title", mcp.Description("Job title, e.g. Data Analyst"), mcp.Required()),
		),
		mcpCourseSuggestions(),
	)

	s.AddResource(
		mcp.NewResource(
			"user://profile",
			"User Profile",
			mcp.WithResourceDescription("Current submitted profile as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceProfile(deps),
	)

	return s
}

func mcpRecommendJobs(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		type result struct {
			recommend.Recommendation
			Band recommend.Band `json:"band"`
		}

		recs := deps.Recommender.Recommend(ctx)
		results := make([]result, len(recs))
		for i, r := range recs {
			results[i] = result{Recommendation: r, Band: r.Band()}
		}

		b, err := json.Marshal(results)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal recommendations: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpCareerQuestion(deps MCPDeps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := req.RequireString("question")
		if err != nil {
			return mcpError("question is required"), nil
		}

		session := deps.Recommender.NewChat()
		if err := session.Send(ctx, question); err != nil {
			return mcpError(fmt.Sprintf("chat failed: %v", err)), nil
		}
		tr := session.Transcript()
		last := tr[len(tr)-1]
		if last.Role != chat.RoleAssistant || len(tr) == 1 {
			return mcpError("question is empty"), nil
		}
		if last.Content == chat.Apology {
			return mcpError(last.Content), nil
		}
		return mcpText(last.Content), nil
	}
}

func mcpCourseSuggestions() server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		title, err := req.RequireString("title")
		if err != nil || title == "" {
			return mcpError("title is required"), nil
		}

		b, err := json.Marshal(overlay.Courses(title))
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal courses: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceProfile(deps MCPDeps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		p, ok, err := deps.Profiles.Current()
		if err != nil {
			return nil, fmt.Errorf("failed to get profile: %w", err)
		}

		text := "null"
		if ok {
			b, err := json.Marshal(p)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal profile: %w", err)
			}
			text = string(b)
		}

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     text,
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}
