package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"auto_pinterest_content_engine/engine"
)

const defaultAPIBaseURL = "https://api.pinterest.com/v5"

// Config holds the Pinterest credentials and target board.
type Config struct {
	AccessToken string
	BoardID     string
	BaseURL     string
}

// PostSource provides the posts awaiting publication and records the
// outcome. The Airtable client satisfies it.
type PostSource interface {
	NextReadyPost(ctx context.Context) (*engine.PostRecord, error)
	MarkPostPosted(ctx context.Context, recordID string) error
}

type pinMediaSource struct {
	SourceType string `json:"source_type"`
	URL        string `json:"url"`
}

type createPinPayload struct {
	BoardID     string         `json:"board_id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	MediaSource pinMediaSource `json:"media_source"`
}

type createPinResp struct {
	ID string `json:"id"`
}

// Publisher posts ready content to a Pinterest board.
type Publisher struct {
	cfg    Config
	source PostSource
	client *http.Client
	log    *logrus.Logger
}

func New(cfg Config, source PostSource, client *http.Client, logger *logrus.Logger) (*Publisher, error) {
	if cfg.AccessToken == "" || cfg.BoardID == "" {
		return nil, errors.New("config must include access token and board id")
	}
	if source == nil {
		return nil, errors.New("post source is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultAPIBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Publisher{cfg: cfg, source: source, client: client, log: logger}, nil
}

// PublishNext takes the first ready post, creates a pin for it and
// marks the record posted. No ready post is a clean no-op.
func (p *Publisher) PublishNext(ctx context.Context) (string, error) {
	post, err := p.source.NextReadyPost(ctx)
	if err != nil {
		return "", fmt.Errorf("fetch ready post: %w", err)
	}
	if post == nil {
		p.log.Info("No ready posts found.")
		return "", nil
	}

	title := post.Title
	if title == "" {
		title = "Untitled Post"
	}
	description := post.Description
	if post.Hashtags != "" {
		description = description + "\n\n" + post.Hashtags
	}

	// TODO: serve the generated image from the queue instead of the
	// placeholder once the queue has a public URL.
	imageURL := "https://picsum.photos/800/600"

	p.log.Infof("Preparing to post: %s", title)
	pinID, err := p.createPin(ctx, title, description, imageURL)
	if err != nil {
		return "", err
	}
	p.log.Infof("✅ Successfully created pin for: %s", title)

	if err := p.source.MarkPostPosted(ctx, post.ID); err != nil {
		// The pin exists; without the status flip the next pass would
		// publish it again, so this failure must be loud.
		return pinID, fmt.Errorf("pin %s created but post %s not marked posted: %w", pinID, post.ID, err)
	}
	p.log.Infof("Marked as posted in the store: %s", title)
	return pinID, nil
}

func (p *Publisher) createPin(ctx context.Context, title, description, imageURL string) (string, error) {
	payload := createPinPayload{
		BoardID:     p.cfg.BoardID,
		Title:       title,
		Description: description,
		MediaSource: pinMediaSource{SourceType: "image_url", URL: imageURL},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.BaseURL+"/pins", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		data, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("failed to create pin: %d %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var data createPinResp
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", err
	}
	if data.ID == "" {
		return "", errors.New("pin response has no id")
	}
	return data.ID, nil
}
