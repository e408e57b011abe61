package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Benjamin-4O4/Hi-Ben/pkg/attachments"
	"github.com/Benjamin-4O4/Hi-Ben/pkg/channels"
	"github.com/Benjamin-4O4/Hi-Ben/pkg/config"
	"github.com/Benjamin-4O4/Hi-Ben/pkg/dida"
	"github.com/Benjamin-4O4/Hi-Ben/pkg/llm"
	"github.com/Benjamin-4O4/Hi-Ben/pkg/logger"
	"github.com/Benjamin-4O4/Hi-Ben/pkg/message"
	"github.com/Benjamin-4O4/Hi-Ben/pkg/notion"
	"github.com/Benjamin-4O4/Hi-Ben/pkg/pipeline"
	"github.com/Benjamin-4O4/Hi-Ben/pkg/status"
	"github.com/Benjamin-4O4/Hi-Ben/pkg/workflow"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.LoadConfig(configPath())
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	if cfg.Logging.Debug {
		logger.SetLevel(logger.DEBUG)
	}
	if cfg.Logging.FileEnabled && cfg.Logging.FilePath != "" {
		if err := logger.EnableFileLogging(cfg.Logging.FilePath); err != nil {
			logger.WarnCF("main", "File logging disabled", map[string]interface{}{
				"path":  cfg.Logging.FilePath,
				"error": err.Error(),
			})
		}
	}

	if cfg.Telegram.Token == "" {
		log.Fatal("telegram token is not configured")
	}

	workspace := cfg.WorkspacePath()
	users := config.NewUserStore(filepath.Join(workspace, "users"))
	attachmentStore := attachments.NewStore(workspace)

	channel, err := channels.NewTelegramChannel(cfg.Telegram, attachmentStore)
	if err != nil {
		log.Fatalf("create telegram channel: %v", err)
	}

	llmClient := llm.NewClient(cfg.LLM)
	notionClient := notion.NewClient()
	didaClient := dida.NewClient(dida.OAuthConfig(cfg.Dida, ""), users)

	engine := workflow.NewEngine(workflow.Deps{
		Classifier: llmClient,
		Formatter:  llmClient,
		Extractor:  llmClient,
		Notes:      notion.NewStore(notionClient, users),
		Tasks:      didaClient,
		Projects:   didaClient,
		Users:      users,
		Status:     status.NewChannel(channel),
	})

	notify := func(ctx context.Context, raw message.Inbound, err error) {
		text := "❌ " + workflow.InnermostError(err)
		if sendErr := channel.SendText(ctx, raw.Metadata.ChatID, text); sendErr != nil {
			logger.WarnCF("main", "Failed to deliver failure notice", map[string]interface{}{
				"chat_id": raw.Metadata.ChatID,
				"error":   sendErr.Error(),
			})
		}
	}

	pipe := pipeline.New(cfg.Pipeline.Workers, engine, pipeline.NewNormalizer(llmClient, llmClient), notify)
	channel.SetPipeline(pipe)
	pipe.Start(ctx)

	// The retention sweep only runs when a schedule is configured.
	if cfg.Notion.ArchiveCron != "" {
		archiver, err := notion.NewArchiver(notionClient, users, cfg.Notion.ArchiveCron)
		if err != nil {
			log.Fatalf("create archiver: %v", err)
		}
		go archiver.Run(ctx)
	}

	if err := channel.Start(ctx); err != nil {
		log.Fatalf("start telegram channel: %v", err)
	}

	logger.InfoCF("main", "Hi-Ben is running", map[string]interface{}{
		"workers":   cfg.Pipeline.Workers,
		"workspace": workspace,
	})

	<-ctx.Done()

	logger.InfoC("main", "Shutting down...")
	_ = channel.Stop(context.Background())
	pipe.Wait()
}

func configPath() string {
	if path := os.Getenv("HIBEN_CONFIG"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.json"
	}
	return filepath.Join(home, ".hiben", "config.json")
}
