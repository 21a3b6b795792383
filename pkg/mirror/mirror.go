package mirror

import (
	"fmt"

	"klaus/pkg/logger"

	"github.com/supabase-community/supabase-go"
	"go.uber.org/zap"
)

// Client mirrors selected records to a secondary store for redundancy.
// Mirror writes are best effort: they are queued behind the primary write
// and a failure never surfaces to the caller.
type Client struct {
	sb      *supabase.Client
	enabled bool
}

// New creates a mirror client. When enabled is false every call is a no-op,
// which keeps the call sites free of nil checks.
func New(url, key string, enabled bool) (*Client, error) {
	if !enabled {
		return &Client{enabled: false}, nil
	}

	sb, err := supabase.NewClient(url, key, nil)
	if err != nil {
		return nil, fmt.Errorf("creating mirror client: %w", err)
	}
	return &Client{sb: sb, enabled: true}, nil
}

// Enabled reports whether mirror writes are active.
func (c *Client) Enabled() bool {
	return c.enabled
}

// UpsertProfile mirrors a user profile row.
func (c *Client) UpsertProfile(row map[string]interface{}) error {
	return c.upsert("profiles", row, "id")
}

// UpsertKeepsake mirrors a saved keepsake row.
func (c *Client) UpsertKeepsake(row map[string]interface{}) error {
	return c.upsert("keepsakes", row, "user_id,item_id")
}

// DeleteKeepsake removes a mirrored keepsake row.
func (c *Client) DeleteKeepsake(userID, itemID string) error {
	if !c.enabled {
		return nil
	}

	_, _, err := c.sb.From("keepsakes").
		Delete("", "").
		Eq("user_id", userID).
		Eq("item_id", itemID).
		Execute()
	if err != nil {
		logger.Warn("mirror delete failed",
			zap.String("table", "keepsakes"),
			zap.String("item_id", itemID),
			zap.Error(err),
		)
		return fmt.Errorf("mirror delete: %w", err)
	}
	return nil
}

func (c *Client) upsert(table string, row map[string]interface{}, onConflict string) error {
	if !c.enabled {
		return nil
	}

	_, _, err := c.sb.From(table).
		Upsert(row, onConflict, "", "").
		Execute()
	if err != nil {
		logger.Warn("mirror upsert failed",
			zap.String("table", table),
			zap.Error(err),
		)
		return fmt.Errorf("mirror upsert: %w", err)
	}
	return nil
}
