package llm

import (
	"fmt"
	"strings"
)

const maxTitleChars = 120

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func cleanJSONResponse(content string) string {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	// Some model responses include extra prose around JSON.
	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start >= 0 && end > start {
		content = content[start : end+1]
	}
	return content
}

func buildSummaryPrompt(input SectionSummaryInput) string {
	var sb strings.Builder
	sb.WriteString("Write two brief summaries (50-100 words each) for a daily report:\n\n")
	sb.WriteString(fmt.Sprintf("1. AI on Reddit (%d top posts found): summarize themes, trending topics, communities\n", input.AIRedditCount))
	for _, title := range input.AIRedditTitles {
		sb.WriteString(fmt.Sprintf("   - %s\n", truncate(title, maxTitleChars)))
	}
	sb.WriteString(fmt.Sprintf("2. Company Reddit Watch (%d posts across %d companies): summarize which companies are getting mentions, what topics dominate\n",
		input.CompanyPostCount, len(input.CompanyNames)))
	if len(input.CompanyNames) > 0 {
		sb.WriteString(fmt.Sprintf("   Companies: %s\n", strings.Join(input.CompanyNames, ", ")))
	}
	sb.WriteString("\nReturn JSON with keys: \"ai_reddit_summary\", \"company_watch_summary\"\n")
	sb.WriteString("Return ONLY the JSON object. No markdown.")
	return sb.String()
}

func buildClassifyPrompt(title, snippet string, taxonomy []string) string {
	var sb strings.Builder
	sb.WriteString("Classify this news item into exactly one of the allowed tags.\n\n")
	sb.WriteString(fmt.Sprintf("Headline: %s\n", title))
	if snippet != "" {
		sb.WriteString(fmt.Sprintf("Snippet: %s\n", truncate(snippet, 200)))
	}
	sb.WriteString(fmt.Sprintf("\nAllowed tags: %s\n", strings.Join(taxonomy, ", ")))
	sb.WriteString("\nReturn JSON only: {\"tag\": \"<one allowed tag>\"}")
	return sb.String()
}
