package message

import "time"

// Kind identifies what a message payload carries.
type Kind string

const (
	KindText       Kind = "text"
	KindVoice      Kind = "voice"
	KindAudio      Kind = "audio"
	KindImage      Kind = "image"
	KindFile       Kind = "file"
	KindMediaGroup Kind = "media_group"
	KindUnknown    Kind = "unknown"
)

// Source identifies who produced a message.
type Source string

const (
	SourceUser   Source = "user"
	SourceBot    Source = "bot"
	SourceSystem Source = "system"
)

// Attachment describes one file carried by a message. The file itself
// has already been downloaded to StoredPath by the transport adapter.
type Attachment struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	MIMEType   string `json:"mime_type"`
	Kind       string `json:"kind"` // photo, voice, audio, document
	StoredPath string `json:"stored_path"`
	SizeBytes  int64  `json:"size_bytes"`
}

// Metadata carries the transport-level identity of a message.
type Metadata struct {
	MessageID string    `json:"message_id"`
	Platform  string    `json:"platform"`
	ChatID    string    `json:"chat_id"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
	Source    Source    `json:"source"`
	ReplyTo   string    `json:"reply_to,omitempty"`
}

// Message is the canonical unit of work. It is immutable after
// construction and owned by the single workflow run processing it.
type Message struct {
	Kind     Kind         `json:"kind"`
	Text     string       `json:"text"`
	Metadata Metadata     `json:"metadata"`
	Files    []Attachment `json:"files,omitempty"`
	ReplyTo  *Message     `json:"reply_to,omitempty"`
}

// Inbound is a raw unit handed to the pipeline by a transport adapter,
// before normalization. VoicePath points at a downloaded voice clip
// that still needs transcription.
type Inbound struct {
	Kind      Kind
	Text      string
	VoicePath string
	Metadata  Metadata
	Files     []Attachment
	ReplyTo   *Message
}
