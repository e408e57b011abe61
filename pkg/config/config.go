package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
)

// FlexibleStringSlice is a []string that also accepts JSON numbers,
// so allow_from can contain both "123" and 123.
type FlexibleStringSlice []string

func (f *FlexibleStringSlice) UnmarshalJSON(data []byte) error {
	var ss []string
	if err := json.Unmarshal(data, &ss); err == nil {
		*f = ss
		return nil
	}

	var raw []interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	result := make([]string, 0, len(raw))
	for _, v := range raw {
		switch val := v.(type) {
		case string:
			result = append(result, val)
		case float64:
			result = append(result, fmt.Sprintf("%.0f", val))
		default:
			result = append(result, fmt.Sprintf("%v", val))
		}
	}
	*f = result
	return nil
}

type Config struct {
	Workspace string         `json:"workspace" env:"HIBEN_WORKSPACE"`
	Telegram  TelegramConfig `json:"telegram"`
	Pipeline  PipelineConfig `json:"pipeline"`
	LLM       LLMConfig      `json:"llm"`
	Notion    NotionConfig   `json:"notion"`
	Dida      DidaConfig     `json:"dida"`
	Logging   LoggingConfig  `json:"logging"`
}

type TelegramConfig struct {
	Token     string              `json:"token" env:"HIBEN_TELEGRAM_TOKEN"`
	AllowFrom FlexibleStringSlice `json:"allow_from" env:"HIBEN_TELEGRAM_ALLOW_FROM"`
}

type PipelineConfig struct {
	Workers int `json:"workers" env:"HIBEN_PIPELINE_WORKERS"`
}

type LLMConfig struct {
	APIKey             string `json:"api_key" env:"HIBEN_LLM_API_KEY"`
	APIBase            string `json:"api_base" env:"HIBEN_LLM_API_BASE"`
	Model              string `json:"model" env:"HIBEN_LLM_MODEL"`
	TranscriptionModel string `json:"transcription_model" env:"HIBEN_LLM_TRANSCRIPTION_MODEL"`
}

type NotionConfig struct {
	// ArchiveCron schedules the retention sweep that moves old note
	// pages into the Notion archive. Empty (the default) disables the
	// sweep entirely; notes are kept forever unless the operator opts
	// in. Example: "5 0 * * *" sweeps nightly.
	ArchiveCron string `json:"archive_cron" env:"HIBEN_NOTION_ARCHIVE_CRON"`
}

type DidaConfig struct {
	ClientID     string `json:"client_id" env:"HIBEN_DIDA_CLIENT_ID"`
	ClientSecret string `json:"client_secret" env:"HIBEN_DIDA_CLIENT_SECRET"`
}

type LoggingConfig struct {
	FileEnabled bool   `json:"file_enabled" env:"HIBEN_LOGGING_FILE_ENABLED"`
	FilePath    string `json:"file_path" env:"HIBEN_LOGGING_FILE_PATH"`
	Debug       bool   `json:"debug" env:"HIBEN_LOGGING_DEBUG"`
}

func DefaultConfig() *Config {
	return &Config{
		Workspace: "~/.hiben",
		Telegram: TelegramConfig{
			AllowFrom: FlexibleStringSlice{},
		},
		Pipeline: PipelineConfig{
			Workers: 10,
		},
		LLM: LLMConfig{
			Model:              "gpt-4o-mini",
			TranscriptionModel: "whisper-1",
		},
		Logging: LoggingConfig{
			FileEnabled: true,
			FilePath:    "~/.hiben/hiben.log",
		},
	}
}

// LoadConfig reads the JSON config at path (missing file means pure
// defaults) and applies HIBEN_* environment overrides on top.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if cfg.Pipeline.Workers <= 0 {
		cfg.Pipeline.Workers = 10
	}

	return cfg, nil
}

func SaveConfig(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) WorkspacePath() string {
	return expandHome(c.Workspace)
}

func expandHome(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		if len(path) > 1 && path[1] == '/' {
			return home + path[1:]
		}
		return home
	}
	return path
}
