package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Env holds every credential and identifier read from the process
// environment. It is parsed once in main and handed to the clients at
// construction time; nothing reads os.Getenv after startup.
type Env struct {
	AirtableAPIKey string `env:"AIRTABLE_API_KEY"`
	AirtableBaseID string `env:"AIRTABLE_BASE_ID"`

	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`

	PinterestAccessToken string `env:"PINTEREST_ACCESS_TOKEN"`
	PinterestBoardID     string `env:"PINTEREST_BOARD_ID"`
	PinterestAppID       string `env:"PINTEREST_APP_ID"`
	PinterestAppSecret   string `env:"PINTEREST_APP_SECRET"`
}

// LoadEnv overlays local .env files onto the process environment, then
// parses the Env struct. Missing files are fine; scheduled runs usually
// carry the variables directly.
func LoadEnv(logger *logrus.Logger) (Env, error) {
	var loaded []string
	for _, name := range []string{".env", ".env.dev"} {
		if _, err := os.Stat(name); err != nil {
			continue
		}
		if err := godotenv.Overload(name); err != nil {
			if logger != nil {
				logger.WithError(err).Warnf("Failed to load %s", name)
			}
			continue
		}
		loaded = append(loaded, name)
	}
	if logger != nil && len(loaded) > 0 {
		logger.Debugf("Loaded env files: %s", strings.Join(loaded, ", "))
	}

	var cfg Env
	if err := env.Parse(&cfg); err != nil {
		return Env{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// MasterSettings is config/master_settings.json: run-wide generation
// defaults shared by every account.
type MasterSettings struct {
	OpenAIModel    string `json:"openai_model"`
	ImageModel     string `json:"image_model"`
	DefaultStyle   string `json:"default_style"`
	MaxTitleLength int    `json:"max_title_length"`
	AccountsDir    string `json:"accounts_dir"`
	OutputDir      string `json:"output_dir"`
	FFmpegPath     string `json:"ffmpeg_path"`
	ReserveTopics  bool   `json:"reserve_topics"`
	MarkUsedPolicy string `json:"mark_used_policy"`
}

// LoadMasterSettings reads the settings file and fills defaults for
// anything left unset.
func LoadMasterSettings(path string) (MasterSettings, error) {
	settings := MasterSettings{
		OpenAIModel:    "gpt-4.1-mini",
		ImageModel:     "gpt-image-1",
		DefaultStyle:   "simple, clean, country / outdoors aesthetic",
		MaxTitleLength: 100,
		AccountsDir:    "accounts",
		OutputDir:      "generated",
		MarkUsedPolicy: "always",
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return MasterSettings{}, err
	}
	if err := json.Unmarshal(data, &settings); err != nil {
		return MasterSettings{}, fmt.Errorf("parse %s: %w", path, err)
	}
	return settings, nil
}
