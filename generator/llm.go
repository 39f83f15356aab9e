package generator

import "context"

// LLMClient abstracts the text model so it can be swapped or mocked.
type LLMClient interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// Prompt is the message pair sent to the model.
type Prompt struct {
	System string
	User   string
}

// LLMSettings is the base configuration handed to concrete clients.
type LLMSettings struct {
	Model   string
	APIKey  string
	BaseURL string
}
