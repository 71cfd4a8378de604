//go:build integration

package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// setupPostgres starts a disposable PostgreSQL container, applies the
// migrations and seeds a small graph.
func setupPostgres(t *testing.T) *sql.DB {
	t.Helper()
	ctx := context.Background()

	ctr, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("fyp"),
		postgres.WithUsername("fyp"),
		postgres.WithPassword("fyp"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}
	t.Cleanup(func() {
		if err := testcontainers.TerminateContainer(ctr); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}
	if err := RunMigrations(dsn); err != nil {
		t.Fatalf("RunMigrations() error = %v", err)
	}
	// Second run must be a no-op.
	if err := RunMigrations(dsn); err != nil {
		t.Fatalf("RunMigrations() second run error = %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	seed := []string{
		`INSERT INTO users (id, username, full_name, is_verified) VALUES
		   ('u1', 'viewer', 'Viewer', false),
		   ('c1', 'alice', 'Alice A', true),
		   ('c2', 'bob', 'Bob B', false)`,
		`INSERT INTO videos (id, user_id, views_count, likes_count, comments_count, hashtags, created_at) VALUES
		   ('v1', 'c1', 100, 10, 1, '{dance}',         NOW() - INTERVAL '3 hours'),
		   ('v2', 'c2', 500, 50, 5, '{viral,music}',   NOW() - INTERVAL '2 hours'),
		   ('v3', 'c1', 10,  1,  0, '{}',              NOW() - INTERVAL '1 hour')`,
		`INSERT INTO follows (follower_id, following_id) VALUES ('u1', 'c1')`,
		`INSERT INTO likes (user_id, video_id, created_at) VALUES
		   ('u1', 'v1', NOW() - INTERVAL '10 minutes'),
		   ('u1', 'v2', NOW() - INTERVAL '5 minutes')`,
		`INSERT INTO user_behavior (user_id, video_id, action_type, watch_time, created_at) VALUES
		   ('u1', 'v1', 'view', 12, NOW() - INTERVAL '30 minutes'),
		   ('u1', 'v2', 'like', 0,  NOW() - INTERVAL '20 minutes'),
		   ('u1', 'v3', 'view', 40, NOW() - INTERVAL '10 minutes')`,
	}
	for _, q := range seed {
		if _, err := db.ExecContext(ctx, q); err != nil {
			t.Fatalf("failed to seed: %v", err)
		}
	}
	return db
}

func TestPostgres_Queries(t *testing.T) {
	db := setupPostgres(t)
	p := NewPostgres(db, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	t.Run("behavior newest first", func(t *testing.T) {
		rows, err := p.Behavior(ctx, "u1", BehaviorFetchLimit)
		if err != nil {
			t.Fatalf("Behavior() error = %v", err)
		}
		if len(rows) != 3 || rows[0].ItemID != "v3" || rows[2].ItemID != "v1" {
			t.Errorf("unexpected behavior rows: %+v", rows)
		}
	})

	t.Run("follows", func(t *testing.T) {
		follows, err := p.Follows(ctx, "u1")
		if err != nil {
			t.Fatalf("Follows() error = %v", err)
		}
		if !equalStrings(follows, []string{"c1"}) {
			t.Errorf("Follows() = %v", follows)
		}
	})

	t.Run("likes newest first", func(t *testing.T) {
		likes, err := p.Likes(ctx, "u1")
		if err != nil {
			t.Fatalf("Likes() error = %v", err)
		}
		if !equalStrings(likes, []string{"v2", "v1"}) {
			t.Errorf("Likes() = %v", likes)
		}
	})

	t.Run("newest", func(t *testing.T) {
		items, err := p.ContentNewest(ctx, 2)
		if err != nil {
			t.Fatalf("ContentNewest() error = %v", err)
		}
		if got := ids(items); !equalStrings(got, []string{"v3", "v2"}) {
			t.Errorf("ContentNewest() = %v", got)
		}
	})

	t.Run("by creators", func(t *testing.T) {
		items, err := p.ContentByCreators(ctx, []string{"c1"}, 10)
		if err != nil {
			t.Fatalf("ContentByCreators() error = %v", err)
		}
		if got := ids(items); !equalStrings(got, []string{"v3", "v1"}) {
			t.Errorf("ContentByCreators() = %v", got)
		}
	})

	t.Run("by tags", func(t *testing.T) {
		items, err := p.ContentByTags(ctx, []string{"viral", "trending"}, 10)
		if err != nil {
			t.Fatalf("ContentByTags() error = %v", err)
		}
		if got := ids(items); !equalStrings(got, []string{"v2"}) {
			t.Errorf("ContentByTags() = %v", got)
		}
		if items[0].Views != 500 || items[0].Likes != 50 || len(items[0].Tags) != 2 {
			t.Errorf("unexpected item fields: %+v", items[0])
		}
	})

	t.Run("by ids keeps order", func(t *testing.T) {
		items, err := p.ContentByIDs(ctx, []string{"v3", "missing", "v1"})
		if err != nil {
			t.Fatalf("ContentByIDs() error = %v", err)
		}
		if got := ids(items); !equalStrings(got, []string{"v3", "v1"}) {
			t.Errorf("ContentByIDs() = %v", got)
		}
	})

	t.Run("creators", func(t *testing.T) {
		creators, err := p.CreatorsByIDs(ctx, []string{"c1", "c2", "nobody"})
		if err != nil {
			t.Fatalf("CreatorsByIDs() error = %v", err)
		}
		if len(creators) != 2 || !creators["c1"].Verified || creators["c2"].FullName != "Bob B" {
			t.Errorf("unexpected creators: %+v", creators)
		}
	})
}
