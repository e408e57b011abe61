package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/Benjamin-4O4/Hi-Ben/pkg/logger"
	"github.com/Benjamin-4O4/Hi-Ben/pkg/message"
)

// Transcriber turns a downloaded audio clip into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// Describer turns a downloaded image into a textual description, using
// the caption (if any) as context.
type Describer interface {
	DescribeImage(ctx context.Context, imagePath, caption string) (string, error)
}

// Normalizer converts raw transport units into canonical messages.
// Voice clips are transcribed and photos described here, on the worker,
// so the transport's receive loop never waits on a model.
type Normalizer struct {
	transcriber Transcriber
	describer   Describer
}

func NewNormalizer(transcriber Transcriber, describer Describer) *Normalizer {
	return &Normalizer{transcriber: transcriber, describer: describer}
}

func (n *Normalizer) Normalize(ctx context.Context, raw message.Inbound) (message.Message, error) {
	msg := message.Message{
		Kind:     raw.Kind,
		Text:     raw.Text,
		Metadata: raw.Metadata,
		Files:    raw.Files,
		ReplyTo:  raw.ReplyTo,
	}

	if raw.VoicePath != "" {
		if n.transcriber == nil {
			return message.Message{}, fmt.Errorf("voice message received but no transcriber configured")
		}

		transcript, err := n.transcriber.Transcribe(ctx, raw.VoicePath)
		if err != nil {
			return message.Message{}, fmt.Errorf("transcribe voice message: %w", err)
		}

		logger.InfoCF("pipeline", "Voice message transcribed", map[string]interface{}{
			"path":  raw.VoicePath,
			"chars": len(transcript),
		})

		// A caption sent with the clip stays in front of the transcript.
		if msg.Text != "" {
			msg.Text = strings.TrimSpace(msg.Text + "\n" + transcript)
		} else {
			msg.Text = transcript
		}
	}

	if photo := firstPhoto(raw.Files); photo != nil {
		text, err := n.describePhoto(ctx, *photo, msg.Text)
		if err != nil {
			return message.Message{}, err
		}
		msg.Text = text
	}

	return msg, nil
}

// describePhoto appends an image description to the message text. A
// captioned photo survives a description failure (the caption carries
// the content); a bare photo does not, since the run would otherwise
// reach the workflow with nothing to say.
func (n *Normalizer) describePhoto(ctx context.Context, photo message.Attachment, text string) (string, error) {
	if n.describer == nil {
		if text == "" {
			return "", fmt.Errorf("photo received but no image describer configured")
		}
		return text, nil
	}

	description, err := n.describer.DescribeImage(ctx, photo.StoredPath, text)
	if err != nil {
		if text == "" {
			return "", fmt.Errorf("describe image: %w", err)
		}
		logger.WarnCF("pipeline", "Image description failed, keeping caption only", map[string]interface{}{
			"path":  photo.StoredPath,
			"error": err.Error(),
		})
		return text, nil
	}

	logger.InfoCF("pipeline", "Image described", map[string]interface{}{
		"path":  photo.StoredPath,
		"chars": len(description),
	})

	if text != "" {
		return strings.TrimSpace(text + "\n" + description), nil
	}
	return description, nil
}

func firstPhoto(files []message.Attachment) *message.Attachment {
	for i := range files {
		if files[i].Kind == "photo" {
			return &files[i]
		}
	}
	return nil
}
