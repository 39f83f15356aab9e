package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/viant/afs"

	"auto_pinterest_content_engine/airtable"
	"auto_pinterest_content_engine/config"
	"auto_pinterest_content_engine/engine"
	"auto_pinterest_content_engine/generator"
	"auto_pinterest_content_engine/imagegen"
	"auto_pinterest_content_engine/logging"
	"auto_pinterest_content_engine/publisher"
	"auto_pinterest_content_engine/queue"
	"auto_pinterest_content_engine/server"
	"auto_pinterest_content_engine/videogen"
)

func main() {
	configPath := flag.String("config", "config/master_settings.json", "path to master settings")
	accountsDir := flag.String("accounts-dir", "", "accounts directory (overrides settings)")
	outDir := flag.String("out-dir", "", "generated content directory (overrides settings)")
	mockLLM := flag.Bool("mock-llm", false, "use the mock text model, skip image/video generation")
	noMedia := flag.Bool("no-media", false, "skip image and video generation")
	serve := flag.Bool("serve", false, "serve the content dashboard")
	addr := flag.String("addr", ":8080", "http listen address for -serve / -authorize")
	publish := flag.Bool("publish", false, "run one Pinterest publishing pass")
	authorize := flag.Bool("authorize", false, "run the Pinterest OAuth helper")
	provision := flag.Bool("provision", false, "create a new account from TEMPLATE_ACCOUNT")
	name := flag.String("name", "", "account folder name for -provision")
	niche := flag.String("niche", "", "account niche for -provision")
	style := flag.String("style", "default", "style key for -provision")
	daily := flag.Int("daily", 1, "daily posts for -provision")
	flag.Parse()

	logger := logging.New()

	envCfg, err := config.LoadEnv(logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to load environment")
	}
	settings, err := config.LoadMasterSettings(*configPath)
	if err != nil {
		logger.WithError(err).Fatalf("Failed to load %s", *configPath)
	}
	if *accountsDir != "" {
		settings.AccountsDir = *accountsDir
	}
	if *outDir != "" {
		settings.OutputDir = *outDir
	}

	ctx := context.Background()

	switch {
	case *serve:
		runServe(logger, settings, *addr)
	case *publish:
		runPublish(ctx, logger, envCfg)
	case *authorize:
		runAuthorize(ctx, logger, envCfg, *addr)
	case *provision:
		runProvision(ctx, logger, envCfg, settings, *name, *niche, *style, *daily)
	default:
		runEngine(ctx, logger, envCfg, settings, *mockLLM, *noMedia)
	}
}

// runEngine executes one full generation pass. Partial failures are
// log lines, never a non-zero exit: a cron trigger must not be marked
// failed because one account had nothing to do or one upstream call
// broke.
func runEngine(ctx context.Context, logger *logrus.Logger, envCfg config.Env, settings config.MasterSettings, mockLLM, noMedia bool) {
	logger.Info("Starting multi-account engine...")

	store, err := airtable.New(airtable.Config{APIKey: envCfg.AirtableAPIKey, BaseID: envCfg.AirtableBaseID}, nil)
	if err != nil {
		logger.WithError(err).Fatal("Airtable client")
	}

	var llm generator.LLMClient
	if mockLLM {
		llm = generator.MockLLM{}
	} else {
		llm, err = generator.NewOpenAILLMFromConfig(&generator.LLMSettings{
			Model:   settings.OpenAIModel,
			APIKey:  envCfg.OpenAIAPIKey,
			BaseURL: envCfg.OpenAIBaseURL,
		})
		if err != nil {
			logger.WithError(err).Fatal("LLM client")
		}
	}
	textGen, err := generator.New(llm, generator.Settings{
		Model:          settings.OpenAIModel,
		DefaultStyle:   settings.DefaultStyle,
		MaxTitleLength: settings.MaxTitleLength,
	})
	if err != nil {
		logger.WithError(err).Fatal("Text generator")
	}

	var imageGen engine.ImageGenerator
	var videoGen engine.VideoGenerator
	if !mockLLM && !noMedia {
		img, err := imagegen.New(imagegen.Config{
			Model:     settings.ImageModel,
			APIKey:    envCfg.OpenAIAPIKey,
			BaseURL:   envCfg.OpenAIBaseURL,
			OutputDir: settings.OutputDir,
		})
		if err != nil {
			logger.WithError(err).Warn("Image generation disabled")
		} else {
			imageGen = img
		}
		vid, err := videogen.New(settings.FFmpegPath)
		if err != nil {
			logger.WithError(err).Warn("Video generation disabled")
		} else {
			videoGen = vid
		}
	}

	coordinator, err := engine.NewCoordinator(
		engine.CoordinatorConfig{
			AccountsDir:    settings.AccountsDir,
			ReserveTopics:  settings.ReserveTopics,
			MarkUsedPolicy: engine.MarkUsedPolicy(settings.MarkUsedPolicy),
		},
		store,
		engine.NewAllocator(store),
		textGen,
		imageGen,
		videoGen,
		queue.New(settings.OutputDir),
		logger,
	)
	if err != nil {
		logger.WithError(err).Fatal("Coordinator")
	}

	results := coordinator.RunAll(ctx)

	logger.Info("----- SUMMARY FOR THIS RUN -----")
	for _, result := range results {
		entry := logger.WithField("account", result.Account)
		entry.Infof("Topic: %s", result.Topic)
		entry.Infof("Title: %s", result.Post.Title)
		if result.QueuePath != "" {
			entry.Infof("Queue: %s", result.QueuePath)
		}
		if result.ImagePath != "" {
			entry.Infof("Image: %s", result.ImagePath)
		}
		if result.VideoPath != "" {
			entry.Infof("Video: %s", result.VideoPath)
		}
		logger.Info("---")
	}
	logger.Infof("Engine finished. %d post(s) generated.", len(results))
}

func runServe(logger *logrus.Logger, settings config.MasterSettings, addr string) {
	srv, err := server.New(queue.New(settings.OutputDir), logger)
	if err != nil {
		logger.WithError(err).Fatal("Dashboard server")
	}
	logger.Infof("Serving content dashboard on %s", addr)
	if err := http.ListenAndServe(addr, srv.Routes()); err != nil {
		logger.WithError(err).Fatal("Dashboard server stopped")
	}
}

func runPublish(ctx context.Context, logger *logrus.Logger, envCfg config.Env) {
	store, err := airtable.New(airtable.Config{APIKey: envCfg.AirtableAPIKey, BaseID: envCfg.AirtableBaseID}, nil)
	if err != nil {
		logger.WithError(err).Fatal("Airtable client")
	}
	pub, err := publisher.New(publisher.Config{
		AccessToken: envCfg.PinterestAccessToken,
		BoardID:     envCfg.PinterestBoardID,
	}, store, nil, logger)
	if err != nil {
		logger.WithError(err).Fatal("Pinterest publisher")
	}
	if _, err := pub.PublishNext(ctx); err != nil {
		logger.WithError(err).Error("Publishing pass failed")
	}
}

func runAuthorize(ctx context.Context, logger *logrus.Logger, envCfg config.Env, addr string) {
	cfg := publisher.OAuthConfig{
		ClientID:     envCfg.PinterestAppID,
		ClientSecret: envCfg.PinterestAppSecret,
	}
	if err := publisher.RunAuthFlow(ctx, cfg, addr, logger); err != nil {
		logger.WithError(err).Fatal("OAuth flow failed")
	}
}

// runProvision copies TEMPLATE_ACCOUNT into a new account folder,
// rewrites its settings and creates the matching Accounts record.
func runProvision(ctx context.Context, logger *logrus.Logger, envCfg config.Env, settings config.MasterSettings, name, niche, style string, daily int) {
	if name == "" {
		logger.Fatal("-provision requires -name")
	}
	templateDir := filepath.Join(settings.AccountsDir, engine.TemplateAccountDir)
	if _, err := os.Stat(templateDir); err != nil {
		logger.Fatalf("%s folder not found", templateDir)
	}
	newDir := filepath.Join(settings.AccountsDir, name)
	if _, err := os.Stat(newDir); err == nil {
		logger.Fatalf("Account folder %s already exists", newDir)
	} else if !errors.Is(err, os.ErrNotExist) {
		logger.WithError(err).Fatal("Checking account folder")
	}

	if err := afs.New().Copy(ctx, templateDir, newDir); err != nil {
		logger.WithError(err).Fatal("Copying template account")
	}

	accountSettings := engine.AccountSettings{
		AccountName: name,
		Niche:       niche,
		StyleKey:    style,
		DailyPosts:  daily,
	}
	data, err := json.MarshalIndent(accountSettings, "", "  ")
	if err != nil {
		logger.WithError(err).Fatal("Encoding settings")
	}
	if err := os.WriteFile(filepath.Join(newDir, "settings.json"), data, 0o644); err != nil {
		logger.WithError(err).Fatal("Writing settings.json")
	}
	logger.Infof("Created folder for account: %s", name)

	store, err := airtable.New(airtable.Config{APIKey: envCfg.AirtableAPIKey, BaseID: envCfg.AirtableBaseID}, nil)
	if err != nil {
		logger.WithError(err).Fatal("Airtable client")
	}
	_, err = store.Create(ctx, "Accounts", map[string]any{
		"Name":        name,
		"Niche":       niche,
		"Style":       style,
		"Daily Posts": daily,
	})
	if err != nil {
		logger.WithError(err).Fatal("Creating Accounts record")
	}
	logger.Info("Created Accounts record. You can now add Topics linked to this account.")
	fmt.Println(name)
}
