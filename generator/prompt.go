package generator

import (
	"fmt"
	"strings"
)

// BuildPostPrompt asks for one structured social media post as a JSON
// object. The style falls back to the master default when the account
// has none of its own.
func BuildPostPrompt(topic, style string, settings Settings) Prompt {
	if style == "" {
		style = settings.DefaultStyle
	}

	var sb strings.Builder
	sb.WriteString("Create structured social media content.\n")
	sb.WriteString(fmt.Sprintf("Topic: %s\n", topic))
	sb.WriteString(fmt.Sprintf("Style: %s\n\n", style))
	sb.WriteString("Return JSON with keys:\n")
	if settings.MaxTitleLength > 0 {
		sb.WriteString(fmt.Sprintf("- title (max %d chars)\n", settings.MaxTitleLength))
	} else {
		sb.WriteString("- title\n")
	}
	sb.WriteString("- description\n")
	sb.WriteString("- hashtags (list)\n")

	return Prompt{
		System: "You write social media content. Respond with a single JSON object and nothing else.",
		User:   sb.String(),
	}
}
