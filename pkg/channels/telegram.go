// Package channels adapts chat platforms to the ingestion pipeline.
// The Telegram adapter receives updates by long polling, normalizes
// them into raw inbound units, and doubles as the status sink the
// workflow narrates progress through.
package channels

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/Benjamin-4O4/Hi-Ben/pkg/attachments"
	"github.com/Benjamin-4O4/Hi-Ben/pkg/config"
	"github.com/Benjamin-4O4/Hi-Ben/pkg/logger"
	"github.com/Benjamin-4O4/Hi-Ben/pkg/message"
	"github.com/Benjamin-4O4/Hi-Ben/pkg/utils"
)

// Submitter is the pipeline side of the channel.
type Submitter interface {
	Submit(raw message.Inbound)
}

type TelegramChannel struct {
	bot      *telego.Bot
	config   config.TelegramConfig
	pipeline Submitter
	store    *attachments.Store
	running  atomic.Bool
}

func NewTelegramChannel(cfg config.TelegramConfig, store *attachments.Store) (*TelegramChannel, error) {
	bot, err := telego.NewBot(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return &TelegramChannel{
		bot:    bot,
		config: cfg,
		store:  store,
	}, nil
}

// SetPipeline binds the ingestion pipeline. Must be called before Start;
// the channel is constructed first because the pipeline's status sink
// is the channel itself.
func (c *TelegramChannel) SetPipeline(pipeline Submitter) {
	c.pipeline = pipeline
}

func (c *TelegramChannel) Start(ctx context.Context) error {
	logger.InfoC("telegram", "Starting Telegram bot (polling mode)...")

	updates, err := c.bot.UpdatesViaLongPolling(ctx, &telego.GetUpdatesParams{
		Timeout: 30,
	})
	if err != nil {
		return fmt.Errorf("failed to start long polling: %w", err)
	}

	c.running.Store(true)
	logger.InfoCF("telegram", "Telegram bot connected", map[string]interface{}{
		"username": c.bot.Username(),
	})

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					logger.InfoC("telegram", "Updates channel closed")
					return
				}
				if update.Message != nil {
					c.handleMessage(ctx, update)
				}
			}
		}
	}()

	return nil
}

func (c *TelegramChannel) Stop(ctx context.Context) error {
	logger.InfoC("telegram", "Stopping Telegram bot...")
	c.running.Store(false)
	return nil
}

// isAllowed checks the sender against the allowlist. An empty list
// allows everyone.
func (c *TelegramChannel) isAllowed(userID, username string) bool {
	if len(c.config.AllowFrom) == 0 {
		return true
	}
	for _, allowed := range c.config.AllowFrom {
		if allowed == userID || (username != "" && allowed == username) {
			return true
		}
	}
	return false
}

func (c *TelegramChannel) handleMessage(ctx context.Context, update telego.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}

	user := msg.From
	userID := fmt.Sprintf("%d", user.ID)
	chatID := fmt.Sprintf("%d", msg.Chat.ID)

	if !c.isAllowed(userID, user.Username) {
		logger.DebugCF("telegram", "Message rejected by allowlist", map[string]interface{}{
			"user_id":  userID,
			"username": user.Username,
		})
		return
	}

	raw := message.Inbound{
		Kind: message.KindText,
		Metadata: message.Metadata{
			MessageID: fmt.Sprintf("%d", msg.MessageID),
			Platform:  "telegram",
			ChatID:    chatID,
			UserID:    userID,
			Timestamp: time.Unix(msg.Date, 0),
			Source:    message.SourceUser,
		},
	}

	text := msg.Text
	if msg.Caption != "" {
		if text != "" {
			text += "\n"
		}
		text += msg.Caption
	}
	raw.Text = text

	saveAttachment := func(localPath, name, mimeType, kind string) string {
		rec, err := c.store.Save("telegram", chatID, userID, raw.Metadata.MessageID, name, mimeType, kind, localPath)
		if err != nil {
			logger.ErrorCF("telegram", "Failed to persist attachment", map[string]interface{}{
				"path":  localPath,
				"name":  name,
				"error": err.Error(),
			})
			return ""
		}
		raw.Files = append(raw.Files, rec.Attachment())
		return rec.StoredPath
	}

	if len(msg.Photo) > 0 {
		photo := msg.Photo[len(msg.Photo)-1]
		if photoPath := c.downloadFile(ctx, photo.FileID, ".jpg"); photoPath != "" {
			saveAttachment(photoPath, fmt.Sprintf("photo_%s.jpg", photo.FileID), "image/jpeg", "photo")
			raw.Kind = message.KindImage
		}
	}

	if msg.Voice != nil {
		if voicePath := c.downloadFile(ctx, msg.Voice.FileID, ".ogg"); voicePath != "" {
			stored := saveAttachment(voicePath, fmt.Sprintf("voice_%s.ogg", msg.Voice.FileID), "audio/ogg", "voice")
			if stored != "" {
				// The worker transcribes from the stored copy; the temp
				// download may be gone by the time a worker picks it up.
				raw.VoicePath = stored
			}
			raw.Kind = message.KindVoice
		}
	}

	if msg.Audio != nil {
		if audioPath := c.downloadFile(ctx, msg.Audio.FileID, ".mp3"); audioPath != "" {
			name := msg.Audio.FileName
			if name == "" {
				name = fmt.Sprintf("audio_%s.mp3", msg.Audio.FileID)
			}
			saveAttachment(audioPath, name, msg.Audio.MimeType, "audio")
			raw.Kind = message.KindAudio
		}
	}

	if msg.Document != nil {
		if docPath := c.downloadFile(ctx, msg.Document.FileID, ""); docPath != "" {
			name := msg.Document.FileName
			if name == "" {
				name = fmt.Sprintf("document_%s", msg.Document.FileID)
			}
			saveAttachment(docPath, name, msg.Document.MimeType, "document")
			raw.Kind = message.KindFile
		}
	}

	if raw.Text == "" && raw.VoicePath == "" && len(raw.Files) == 0 {
		logger.DebugCF("telegram", "Ignoring empty message", map[string]interface{}{
			"chat_id": chatID,
		})
		return
	}

	logger.DebugCF("telegram", "Received message", map[string]interface{}{
		"user_id": userID,
		"chat_id": chatID,
		"kind":    string(raw.Kind),
		"preview": utils.Truncate(raw.Text, 50),
	})

	if err := c.bot.SendChatAction(ctx, tu.ChatAction(tu.ID(msg.Chat.ID), telego.ChatActionTyping)); err != nil {
		logger.DebugCF("telegram", "Failed to send chat action", map[string]interface{}{
			"error": err.Error(),
		})
	}

	if c.pipeline == nil {
		logger.ErrorC("telegram", "No pipeline bound, dropping message")
		return
	}
	c.pipeline.Submit(raw)
}

func (c *TelegramChannel) downloadFile(ctx context.Context, fileID, ext string) string {
	file, err := c.bot.GetFile(ctx, &telego.GetFileParams{FileID: fileID})
	if err != nil {
		logger.ErrorCF("telegram", "Failed to get file", map[string]interface{}{
			"error": err.Error(),
		})
		return ""
	}
	if file.FilePath == "" {
		return ""
	}

	url := c.bot.FileDownloadURL(file.FilePath)

	filename := file.FilePath
	if !strings.Contains(filename, ".") {
		filename += ext
	}
	return utils.DownloadFile(url, filename, utils.DownloadOptions{
		LoggerPrefix: "telegram",
	})
}

// IsRunning reports whether the polling loop has been started and not
// yet stopped.
func (c *TelegramChannel) IsRunning() bool {
	return c.running.Load()
}

// CreateStatus sends a new status message as a reply to the user's
// message and returns its id. Part of the status sink.
func (c *TelegramChannel) CreateStatus(ctx context.Context, chatID, text, replyToMessageID string) (string, error) {
	if !c.IsRunning() {
		return "", fmt.Errorf("telegram bot not running")
	}

	id, err := parseID(chatID)
	if err != nil {
		return "", fmt.Errorf("invalid chat ID: %w", err)
	}

	params := tu.Message(tu.ID(id), text)
	if replyID, err := parseID(replyToMessageID); err == nil {
		params.ReplyParameters = &telego.ReplyParameters{MessageID: int(replyID)}
	}

	sent, err := c.bot.SendMessage(ctx, params)
	if err != nil {
		return "", fmt.Errorf("send status message: %w", err)
	}
	return strconv.Itoa(sent.MessageID), nil
}

// EditStatus replaces the text of an earlier status message in place.
func (c *TelegramChannel) EditStatus(ctx context.Context, chatID, messageID, text string) error {
	id, err := parseID(chatID)
	if err != nil {
		return fmt.Errorf("invalid chat ID: %w", err)
	}
	msgID, err := parseID(messageID)
	if err != nil {
		return fmt.Errorf("invalid message ID: %w", err)
	}

	_, err = c.bot.EditMessageText(ctx, tu.EditMessageText(tu.ID(id), int(msgID), text))
	if err != nil {
		return fmt.Errorf("edit status message: %w", err)
	}
	return nil
}

// SendText sends a free-standing message, used for failure notices that
// happen outside a run's status channel.
func (c *TelegramChannel) SendText(ctx context.Context, chatID, text string) error {
	id, err := parseID(chatID)
	if err != nil {
		return fmt.Errorf("invalid chat ID: %w", err)
	}
	if _, err := c.bot.SendMessage(ctx, tu.Message(tu.ID(id), text)); err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	return nil
}

func parseID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}
