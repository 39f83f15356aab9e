package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"

	"auto_pinterest_content_engine/generator"
)

const defaultModel = "gpt-image-1"

// Config for the image generator. OutputDir is the same base the local
// queue writes into, so image and post land side by side.
type Config struct {
	Model     string
	APIKey    string
	BaseURL   string
	OutputDir string
}

// Generator renders one vertical 2:3 image per post via the OpenAI
// Images API and saves it next to the queued post.
type Generator struct {
	model   string
	opts    []option.RequestOption
	fs      afs.Service
	baseURL string
	now     func() time.Time
}

func New(cfg Config) (*Generator, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai api key missing; set OPENAI_API_KEY")
	}
	if cfg.Model == "" {
		cfg.Model = defaultModel
	}
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Generator{
		model:   cfg.Model,
		opts:    opts,
		fs:      afs.New(),
		baseURL: cfg.OutputDir,
		now:     time.Now,
	}, nil
}

// GenerateImage renders and saves the image, returning its path. The
// caller treats any error as "post without image"; nothing here is
// fatal to the post.
func (g *Generator) GenerateImage(ctx context.Context, account, topic string, post generator.Post, style string) (string, error) {
	client := openai.NewClient(g.opts...)

	resp, err := client.Images.Generate(ctx, openai.ImageGenerateParams{
		Model:  openai.ImageModel(g.model),
		Prompt: buildImagePrompt(topic, post, style),
		// vertical 2:3, the shape Pinterest favors
		Size: openai.ImageGenerateParamsSize1024x1536,
		N:    openai.Int(1),
	})
	if err != nil {
		return "", fmt.Errorf("generate image: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return "", errors.New("image response has no payload")
	}
	img, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return "", fmt.Errorf("decode image payload: %w", err)
	}

	now := g.now()
	dir := url.Join(g.baseURL, account, now.Format("2006-01-02"))
	if exists, _ := g.fs.Exists(ctx, dir); !exists {
		if err := g.fs.Create(ctx, dir, file.DefaultDirOsMode, true); err != nil {
			return "", fmt.Errorf("create image dir %s: %w", dir, err)
		}
	}
	path := url.Join(dir, now.Format("150405")+"_image.png")
	if err := g.fs.Upload(ctx, path, file.DefaultFileOsMode, bytes.NewReader(img)); err != nil {
		return "", fmt.Errorf("save image %s: %w", path, err)
	}
	return path, nil
}

func buildImagePrompt(topic string, post generator.Post, style string) string {
	if style == "" {
		style = "simple, clean, country / outdoors aesthetic"
	}
	title := post.Title
	if title == "" {
		title = topic
	}
	summary := post.Description
	if len(summary) > 200 {
		summary = summary[:200]
	}

	var sb strings.Builder
	sb.WriteString("Create a high-quality vertical 2:3 ratio image for Pinterest.\n")
	sb.WriteString(fmt.Sprintf("Style: %s.\n", style))
	sb.WriteString("This is for a social media post.\n\n")
	sb.WriteString(fmt.Sprintf("Post title: %q\n", title))
	sb.WriteString(fmt.Sprintf("Topic: %q\n", topic))
	sb.WriteString(fmt.Sprintf("Description summary: %q\n\n", summary))
	sb.WriteString("Do NOT include any text on the image. Just a nice background / scene\n")
	sb.WriteString("that matches the vibe of the title.")
	return sb.String()
}
