package generator

import (
	"context"
	"encoding/json"
	"strings"
)

// MockLLM is a placeholder client for local runs and tests; it never
// calls an external model.
type MockLLM struct{}

func (m MockLLM) Complete(_ context.Context, prompt Prompt) (string, error) {
	topic := "your topic"
	for _, line := range strings.Split(prompt.User, "\n") {
		if strings.HasPrefix(line, "Topic: ") {
			topic = strings.TrimPrefix(line, "Topic: ")
			break
		}
	}
	out, err := json.Marshal(Post{
		Title:       "Quick thoughts on " + topic,
		Description: "A mock description about " + topic + ", generated without calling a model.",
		Hashtags:    []string{"mock", "#placeholder"},
	})
	if err != nil {
		return "", err
	}
	return string(out), nil
}
