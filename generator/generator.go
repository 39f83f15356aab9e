package generator

import (
	"context"
	"errors"
)

// Generator turns a topic and style into a finished Post.
type Generator struct {
	llm      LLMClient
	settings Settings
}

func New(llm LLMClient, settings Settings) (*Generator, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	return &Generator{llm: llm, settings: settings}, nil
}

// Generate builds the prompt, runs the model and post-processes the
// output. Any failure, network or malformed payload alike, comes back
// as a single error.
func (g *Generator) Generate(ctx context.Context, topic, style string) (Post, error) {
	prompt := BuildPostPrompt(topic, style, g.settings)
	raw, err := g.llm.Complete(ctx, prompt)
	if err != nil {
		return Post{}, err
	}
	return ParsePost(raw, g.settings)
}
