package notion

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"github.com/Benjamin-4O4/Hi-Ben/pkg/config"
	"github.com/Benjamin-4O4/Hi-Ben/pkg/logger"
)

// Notes older than this are swept into the archive.
const archiveRetention = 30 * 24 * time.Hour

// Archiver periodically archives stale note pages for every configured
// user. The schedule is a cron expression checked once a minute. The
// sweep is strictly opt-in: it only exists when the operator has set a
// schedule, and an empty expression is rejected here rather than
// defaulted.
type Archiver struct {
	client *Client
	users  *config.UserStore
	cron   string
	gron   *gronx.Gronx
}

func NewArchiver(client *Client, users *config.UserStore, cron string) (*Archiver, error) {
	if cron == "" {
		return nil, fmt.Errorf("archive sweep requires a cron expression")
	}
	g := gronx.New()
	if !g.IsValid(cron) {
		return nil, fmt.Errorf("invalid archive cron expression: %q", cron)
	}
	return &Archiver{client: client, users: users, cron: cron, gron: g}, nil
}

// Run blocks until ctx is cancelled, sweeping whenever the cron fires.
func (a *Archiver) Run(ctx context.Context) {
	logger.InfoCF("notion", "Archiver started", map[string]interface{}{
		"cron": a.cron,
	})

	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.InfoC("notion", "Archiver stopped")
			return
		case now := <-ticker.C:
			due, err := a.gron.IsDue(a.cron, now)
			if err != nil {
				logger.ErrorCF("notion", "Cron evaluation failed", map[string]interface{}{
					"cron":  a.cron,
					"error": err.Error(),
				})
				continue
			}
			if due {
				a.Sweep(ctx)
			}
		}
	}
}

// Sweep archives stale pages for every user that has a database bound.
// Per-user failures are logged and do not stop the sweep.
func (a *Archiver) Sweep(ctx context.Context) {
	ids, err := a.users.ListUsers()
	if err != nil {
		logger.ErrorCF("notion", "Failed to list users for archive sweep", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	cutoff := time.Now().Add(-archiveRetention)
	for _, userID := range ids {
		n, err := a.sweepUser(ctx, userID, cutoff)
		if err != nil {
			logger.WarnCF("notion", "Archive sweep failed for user", map[string]interface{}{
				"user_id": userID,
				"error":   err.Error(),
			})
			continue
		}
		if n > 0 {
			logger.InfoCF("notion", "Archived stale notes", map[string]interface{}{
				"user_id":  userID,
				"archived": n,
			})
		}
	}
}

func (a *Archiver) sweepUser(ctx context.Context, userID string, cutoff time.Time) (int, error) {
	uc, err := a.users.Get(userID)
	if err != nil {
		return 0, err
	}
	if uc.NotionAPIKey == "" || uc.NotionDatabaseID == "" {
		return 0, nil
	}

	filter := map[string]interface{}{
		"timestamp": "created_time",
		"created_time": map[string]interface{}{
			"before": cutoff.Format(time.RFC3339),
		},
	}

	pages, err := a.client.queryDatabase(ctx, uc.NotionAPIKey, uc.NotionDatabaseID, filter)
	if err != nil {
		return 0, err
	}

	archived := 0
	for _, p := range pages {
		if p.Archived {
			continue
		}
		if err := a.client.archivePage(ctx, uc.NotionAPIKey, p.ID); err != nil {
			logger.WarnCF("notion", "Failed to archive page", map[string]interface{}{
				"page_id": p.ID,
				"error":   err.Error(),
			})
			continue
		}
		archived++
	}
	return archived, nil
}
