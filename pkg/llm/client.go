// Package llm implements the language-model collaborators of the
// workflow: content precheck, formatting, task extraction, voice
// transcription and image description, all over a single
// OpenAI-compatible endpoint.
package llm

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/Benjamin-4O4/Hi-Ben/pkg/config"
	"github.com/Benjamin-4O4/Hi-Ben/pkg/logger"
)

type Client struct {
	api                openai.Client
	model              string
	transcriptionModel string
}

func NewClient(cfg config.LLMConfig) *Client {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.APIBase != "" {
		opts = append(opts, option.WithBaseURL(cfg.APIBase))
	}

	model := cfg.Model
	if model == "" {
		model = "gpt-4o-mini"
	}
	transcriptionModel := cfg.TranscriptionModel
	if transcriptionModel == "" {
		transcriptionModel = "whisper-1"
	}

	return &Client{
		api:                openai.NewClient(opts...),
		model:              model,
		transcriptionModel: transcriptionModel,
	}
}

// chat sends one system+user exchange and returns the raw assistant text.
func (c *Client) chat(ctx context.Context, system, user string) (string, error) {
	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion: empty response")
	}

	logger.DebugCF("llm", "Chat completion finished", map[string]interface{}{
		"model":  c.model,
		"tokens": resp.Usage.TotalTokens,
	})
	return resp.Choices[0].Message.Content, nil
}

// DescribeImage analyzes a downloaded photo and returns a textual
// description suitable for the note body. The caption, when present,
// steers the analysis.
func (c *Client) DescribeImage(ctx context.Context, imagePath, caption string) (string, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("read image file: %w", err)
	}
	dataURL := fmt.Sprintf("data:%s;base64,%s", imageMIMEType(imagePath), base64.StdEncoding.EncodeToString(data))

	prompt := "Describe this image."
	if caption != "" {
		prompt = fmt.Sprintf("Caption from the user: %s\n\nDescribe this image.", caption)
	}

	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(describeSystemPrompt),
			openai.UserMessage([]openai.ChatCompletionContentPartUnionParam{
				openai.TextContentPart(prompt),
				openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}),
			}),
		},
	})
	if err != nil {
		return "", fmt.Errorf("describe image: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("describe image: empty response")
	}
	return resp.Choices[0].Message.Content, nil
}

func imageMIMEType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	default:
		return "image/jpeg"
	}
}

// Transcribe converts a downloaded audio clip to text using the speech
// model.
func (c *Client) Transcribe(ctx context.Context, audioPath string) (string, error) {
	f, err := os.Open(audioPath)
	if err != nil {
		return "", fmt.Errorf("open audio file: %w", err)
	}
	defer f.Close()

	resp, err := c.api.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		Model: openai.AudioModel(c.transcriptionModel),
		File:  f,
	})
	if err != nil {
		return "", fmt.Errorf("transcribe audio: %w", err)
	}
	return resp.Text, nil
}
