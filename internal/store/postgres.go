package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/lib/pq"

	"github.com/simosa/fyp/internal/content"
	"github.com/simosa/fyp/internal/tracing"
)

const videoColumns = `id, user_id, created_at, views_count, likes_count, comments_count, hashtags`

// Postgres is a Backend reading from the users, videos, user_behavior,
// follows and likes tables.
type Postgres struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPostgres creates a Postgres backend over an open database handle.
func NewPostgres(db *sql.DB, logger *slog.Logger) *Postgres {
	if logger == nil {
		logger = slog.Default()
	}
	return &Postgres{db: db, logger: logger}
}

// Behavior returns up to limit behavior rows for the user, newest first.
func (p *Postgres) Behavior(ctx context.Context, userID string, limit int) (rows []content.Behavior, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "user_behavior", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	query := `SELECT user_id, video_id, action_type, watch_time, created_at
	          FROM user_behavior
	          WHERE user_id = $1
	          ORDER BY created_at DESC
	          LIMIT $2`
	result, err := p.db.QueryContext(ctx, query, userID, max(limit, 0))
	if err != nil {
		return nil, fmt.Errorf("failed to query behavior: %w", err)
	}
	defer result.Close()

	rows = make([]content.Behavior, 0)
	for result.Next() {
		var b content.Behavior
		var action string
		if err := result.Scan(&b.UserID, &b.ItemID, &action, &b.WatchTime, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan behavior: %w", err)
		}
		b.Action = content.ActionType(action)
		rows = append(rows, b)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate behavior: %w", err)
	}
	return rows, nil
}

// Follows returns the ids of creators the user follows.
func (p *Postgres) Follows(ctx context.Context, userID string) (ids []string, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "follows", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	ids, err = p.queryIDs(ctx,
		`SELECT following_id FROM follows WHERE follower_id = $1 ORDER BY created_at ASC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query follows: %w", err)
	}
	return ids, nil
}

// Likes returns the ids of items the user liked, newest first.
func (p *Postgres) Likes(ctx context.Context, userID string) (ids []string, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "likes", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	ids, err = p.queryIDs(ctx,
		`SELECT video_id FROM likes WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query likes: %w", err)
	}
	return ids, nil
}

// ContentByCreators returns up to limit items by any of the creators, newest first.
func (p *Postgres) ContentByCreators(ctx context.Context, creatorIDs []string, limit int) (items []content.Item, err error) {
	if len(creatorIDs) == 0 {
		return []content.Item{}, nil
	}
	ctx, endSpan := tracing.StartDBSpan(ctx, "videos", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	query := `SELECT ` + videoColumns + `
	          FROM videos
	          WHERE user_id = ANY($1)
	          ORDER BY created_at DESC, id ASC
	          LIMIT $2`
	items, err = p.queryItems(ctx, query, pq.Array(creatorIDs), max(limit, 0))
	if err != nil {
		return nil, fmt.Errorf("failed to query content by creators: %w", err)
	}
	return items, nil
}

// ContentNewest returns up to limit items, newest first.
func (p *Postgres) ContentNewest(ctx context.Context, limit int) (items []content.Item, err error) {
	ctx, endSpan := tracing.StartDBSpan(ctx, "videos", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	query := `SELECT ` + videoColumns + `
	          FROM videos
	          ORDER BY created_at DESC, id ASC
	          LIMIT $1`
	items, err = p.queryItems(ctx, query, max(limit, 0))
	if err != nil {
		return nil, fmt.Errorf("failed to query newest content: %w", err)
	}
	return items, nil
}

// ContentByTags returns up to limit items whose hashtags overlap tags, newest first.
func (p *Postgres) ContentByTags(ctx context.Context, tags []string, limit int) (items []content.Item, err error) {
	if len(tags) == 0 {
		return []content.Item{}, nil
	}
	ctx, endSpan := tracing.StartDBSpan(ctx, "videos", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	query := `SELECT ` + videoColumns + `
	          FROM videos
	          WHERE hashtags && $1
	          ORDER BY created_at DESC, id ASC
	          LIMIT $2`
	items, err = p.queryItems(ctx, query, pq.Array(tags), max(limit, 0))
	if err != nil {
		return nil, fmt.Errorf("failed to query content by tags: %w", err)
	}
	return items, nil
}

// ContentByIDs returns the known items among ids, in the order of ids.
func (p *Postgres) ContentByIDs(ctx context.Context, ids []string) (items []content.Item, err error) {
	if len(ids) == 0 {
		return []content.Item{}, nil
	}
	ctx, endSpan := tracing.StartDBSpan(ctx, "videos", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	query := `SELECT ` + videoColumns + `
	          FROM videos
	          WHERE id = ANY($1::text[])
	          ORDER BY array_position($1::text[], id)`
	items, err = p.queryItems(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query content by ids: %w", err)
	}
	return items, nil
}

// CreatorsByIDs returns creator profiles keyed by id.
func (p *Postgres) CreatorsByIDs(ctx context.Context, ids []string) (creators map[string]content.Creator, err error) {
	creators = make(map[string]content.Creator, len(ids))
	if len(ids) == 0 {
		return creators, nil
	}
	ctx, endSpan := tracing.StartDBSpan(ctx, "users", tracing.DBOperationQuery)
	defer func() { endSpan(err) }()

	query := `SELECT id, username, full_name, avatar_url, is_verified
	          FROM users
	          WHERE id = ANY($1)`
	rows, err := p.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("failed to query creators: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var c content.Creator
		if err := rows.Scan(&c.ID, &c.Username, &c.FullName, &c.AvatarURL, &c.Verified); err != nil {
			return nil, fmt.Errorf("failed to scan creator: %w", err)
		}
		creators[c.ID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate creators: %w", err)
	}
	return creators, nil
}

func (p *Postgres) queryIDs(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (p *Postgres) queryItems(ctx context.Context, query string, args ...any) ([]content.Item, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]content.Item, 0)
	for rows.Next() {
		var item content.Item
		var tags pq.StringArray
		if err := rows.Scan(&item.ID, &item.CreatorID, &item.CreatedAt,
			&item.Views, &item.Likes, &item.Comments, &tags); err != nil {
			return nil, err
		}
		item.Tags = []string(tags)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	p.logger.Debug("loaded content rows", slog.Int("count", len(items)))
	return items, nil
}
