// Package history persists published posts so operators can review recent
// activity with the /recent command. The store is optional: when the
// database is disabled the bot runs without it.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"wallpostbot/core/logger"
	"wallpostbot/core/telegram/format"
)

// Post is one published wall post.
type Post struct {
	ID         int64      `db:"id"`
	ChatID     int64      `db:"chat_id"`
	Caption    string     `db:"caption"`
	Attachment string     `db:"attachment"`
	PostID     int64      `db:"post_id"`
	URL        string     `db:"url"`
	PublishAt  *time.Time `db:"publish_at"`
	CreatedAt  time.Time  `db:"created_at"`
}

// Store reads and writes the posts table.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store { return &Store{db: db} }

// Record inserts one published post.
func (s *Store) Record(ctx context.Context, p Post) error {
	const q = `
		INSERT INTO posts (chat_id, caption, attachment, post_id, url, publish_at)
		VALUES ($1, $2, $3, $4, $5, $6)`
	if _, err := s.db.ExecContext(ctx, q,
		p.ChatID, p.Caption, p.Attachment, p.PostID, p.URL, p.PublishAt,
	); err != nil {
		return fmt.Errorf("insert post: %w", err)
	}
	logger.HIST.Debug("post recorded",
		slog.String("event", "record"),
		slog.Int64("chat_id", p.ChatID),
		slog.Int64("post_id", p.PostID),
	)
	return nil
}

// Recent returns the latest posts, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Post, error) {
	const q = `
		SELECT id, chat_id, caption, attachment, post_id, url, publish_at, created_at
		FROM posts
		ORDER BY created_at DESC
		LIMIT $1`
	var posts []Post
	if err := s.db.SelectContext(ctx, &posts, q, limit); err != nil {
		return nil, fmt.Errorf("select recent posts: %w", err)
	}
	return posts, nil
}

// FormatList renders posts as a Markdown message for Telegram.
func FormatList(posts []Post) string {
	if len(posts) == 0 {
		return "No posts recorded yet."
	}
	var b strings.Builder
	b.WriteString("*Recent posts*\n")
	for _, p := range posts {
		caption := p.Caption
		if r := []rune(caption); len(r) > 48 {
			caption = string(r[:48]) + "…"
		}
		escaped, err := format.EscapeMarkdown(caption, format.MarkdownV1)
		if err != nil {
			escaped = caption
		}
		when := p.CreatedAt.Format("2006-01-02 15:04")
		if p.PublishAt != nil {
			when = "scheduled " + p.PublishAt.Format("2006-01-02 15:04")
		}
		fmt.Fprintf(&b, "%s: %s\n%s\n", when, escaped, p.URL)
	}
	return b.String()
}
