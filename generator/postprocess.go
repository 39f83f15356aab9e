package generator

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ParsePost validates and normalizes the model's raw JSON output.
// Anything unparsable counts as a generation failure so the caller
// leaves the topic eligible.
func ParsePost(raw string, settings Settings) (Post, error) {
	cleaned := stripCodeFence(strings.TrimSpace(raw))
	if cleaned == "" {
		return Post{}, errors.New("model returned empty output")
	}

	var post Post
	if err := json.Unmarshal([]byte(cleaned), &post); err != nil {
		return Post{}, fmt.Errorf("model output is not valid JSON: %w", err)
	}

	post.Title = strings.TrimSpace(post.Title)
	if post.Title == "" {
		return Post{}, errors.New("model output has no title")
	}
	if settings.MaxTitleLength > 0 {
		post.Title = truncate(post.Title, settings.MaxTitleLength)
	}
	post.Description = strings.TrimSpace(post.Description)
	post.Hashtags = NormalizeHashtags(post.Hashtags)
	return post, nil
}

// NormalizeHashtags prefixes each tag with '#' when absent, preserving
// order and dropping empties. Already-prefixed tags pass through
// unchanged, so the normalization is idempotent.
func NormalizeHashtags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		if normalized := NormalizeHashtag(tag); normalized != "" {
			out = append(out, normalized)
		}
	}
	return out
}

// NormalizeHashtag trims whitespace and ensures a single leading '#'.
func NormalizeHashtag(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" || tag == "#" {
		return ""
	}
	if strings.HasPrefix(tag, "#") {
		return tag
	}
	return "#" + tag
}

// stripCodeFence unwraps a ```json ... ``` block when the model ignores
// the plain-JSON instruction.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if idx := strings.Index(s, "\n"); idx >= 0 {
		s = s[idx+1:]
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
