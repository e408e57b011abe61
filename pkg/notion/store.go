package notion

import (
	"context"
	"errors"
	"fmt"

	"github.com/Benjamin-4O4/Hi-Ben/pkg/config"
	"github.com/Benjamin-4O4/Hi-Ben/pkg/logger"
	"github.com/Benjamin-4O4/Hi-Ben/pkg/workflow"
)

// Notion caps one rich text fragment at 2000 characters.
const richTextLimit = 2000

// Store persists workflow notes into each user's configured database.
type Store struct {
	client *Client
	users  *config.UserStore
}

func NewStore(client *Client, users *config.UserStore) *Store {
	return &Store{client: client, users: users}
}

// CreateNote writes one note page: the structured fields as database
// properties and the full composite body as paragraph blocks.
func (s *Store) CreateNote(ctx context.Context, params workflow.NoteParams) (*workflow.PageRef, error) {
	apiKey, databaseID, err := s.credentials(params.UserID)
	if err != nil {
		return nil, err
	}

	title := params.Title
	if title == "" {
		title = truncateRunes(params.RawContent, 60)
	}

	properties := map[string]interface{}{
		"Title":   titleProperty(title),
		"Type":    selectProperty(params.ContentType),
		"Source":  selectProperty(sourceName(params.Source)),
		"Content": richTextProperty(truncateRunes(params.RawContent, richTextLimit)),
	}
	if params.Summary != "" {
		properties["Summary"] = richTextProperty(truncateRunes(params.Summary, richTextLimit))
	}
	if len(params.Tags) > 0 {
		properties["Tags"] = multiSelectProperty(params.Tags)
	}
	if len(params.Files) > 0 {
		properties["HasAttachment"] = map[string]interface{}{"checkbox": true}
	}

	children := paragraphBlocks(params.Content)

	p, err := s.client.createPage(ctx, apiKey, databaseID, properties, children)
	if err != nil {
		return nil, err
	}

	logger.InfoCF("notion", "Note page created", map[string]interface{}{
		"user_id": params.UserID,
		"page_id": p.ID,
		"title":   title,
	})
	return &workflow.PageRef{ID: p.ID, URL: p.URL}, nil
}

func (s *Store) credentials(userID string) (apiKey, databaseID string, err error) {
	uc, err := s.users.Get(userID)
	if err != nil {
		return "", "", fmt.Errorf("load user config: %w", err)
	}
	if uc.NotionAPIKey == "" {
		return "", "", errors.New("Notion API key not configured")
	}
	if uc.NotionDatabaseID == "" {
		return "", "", errors.New("Notion database not configured")
	}
	return uc.NotionAPIKey, uc.NotionDatabaseID, nil
}

// InitDatabase adds the note properties the database is missing. Called
// once when a user binds a database; existing select options are kept
// untouched so user-curated tags survive.
func (s *Store) InitDatabase(ctx context.Context, userID string) error {
	apiKey, databaseID, err := s.credentials(userID)
	if err != nil {
		return err
	}

	db, err := s.client.getDatabase(ctx, apiKey, databaseID)
	if err != nil {
		return err
	}

	required := map[string]interface{}{
		"Title": map[string]interface{}{"title": map[string]interface{}{}},
		"Type": map[string]interface{}{"select": map[string]interface{}{
			"options": selectOptions("Diary", "Thought", "Note", "Favorite", "Uncategorized"),
		}},
		"Source": map[string]interface{}{"select": map[string]interface{}{
			"options": selectOptions("Telegram", "Manual"),
		}},
		"Tags": map[string]interface{}{"multi_select": map[string]interface{}{
			"options": selectOptions("Work", "Study", "Idea", "Life", "Voice"),
		}},
		"Content":       map[string]interface{}{"rich_text": map[string]interface{}{}},
		"Summary":       map[string]interface{}{"rich_text": map[string]interface{}{}},
		"HasAttachment": map[string]interface{}{"checkbox": map[string]interface{}{}},
	}

	missing := map[string]interface{}{}
	for name, prop := range required {
		if _, ok := db.Properties[name]; !ok {
			missing[name] = prop
		}
	}
	if len(missing) == 0 {
		logger.DebugC("notion", "Database schema already complete")
		return nil
	}

	if err := s.client.updateDatabase(ctx, apiKey, databaseID, missing); err != nil {
		return err
	}
	logger.InfoCF("notion", "Database schema updated", map[string]interface{}{
		"user_id": userID,
		"added":   len(missing),
	})
	return nil
}

func sourceName(platform string) string {
	switch platform {
	case "telegram":
		return "Telegram"
	case "":
		return "Manual"
	default:
		return platform
	}
}

func titleProperty(text string) map[string]interface{} {
	return map[string]interface{}{
		"title": []map[string]interface{}{textFragment(text)},
	}
}

func richTextProperty(text string) map[string]interface{} {
	return map[string]interface{}{
		"rich_text": []map[string]interface{}{textFragment(text)},
	}
}

func selectProperty(name string) map[string]interface{} {
	return map[string]interface{}{
		"select": map[string]interface{}{"name": name},
	}
}

func multiSelectProperty(names []string) map[string]interface{} {
	options := make([]map[string]interface{}, 0, len(names))
	for _, name := range names {
		options = append(options, map[string]interface{}{"name": name})
	}
	return map[string]interface{}{"multi_select": options}
}

func selectOptions(names ...string) []map[string]interface{} {
	options := make([]map[string]interface{}, 0, len(names))
	for _, name := range names {
		options = append(options, map[string]interface{}{"name": name})
	}
	return options
}

func textFragment(text string) map[string]interface{} {
	return map[string]interface{}{
		"type": "text",
		"text": map[string]interface{}{"content": text},
	}
}

// paragraphBlocks splits the body into paragraph blocks small enough
// for the rich text fragment limit.
func paragraphBlocks(content string) []map[string]interface{} {
	var blocks []map[string]interface{}
	for _, chunk := range chunkRunes(content, richTextLimit) {
		blocks = append(blocks, map[string]interface{}{
			"object": "block",
			"type":   "paragraph",
			"paragraph": map[string]interface{}{
				"rich_text": []map[string]interface{}{textFragment(chunk)},
			},
		})
	}
	return blocks
}

func chunkRunes(s string, size int) []string {
	if s == "" {
		return nil
	}
	runes := []rune(s)
	var chunks []string
	for len(runes) > size {
		chunks = append(chunks, string(runes[:size]))
		runes = runes[size:]
	}
	return append(chunks, string(runes))
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
