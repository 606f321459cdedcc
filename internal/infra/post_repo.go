package infra

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/Vovarama1992/voice_posts/internal/apperr"
	"github.com/Vovarama1992/voice_posts/internal/ports"
)

// CommentEventsChannel: канал pg_notify триггера comments_notify
const CommentEventsChannel = "comment_events"

//go:embed schema.sql
var schemaSQL string

// EnsureSchema создаёт таблицы и триггер, если их ещё нет
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		return apperr.Store("ensure schema", err)
	}
	return nil
}

type postRepo struct {
	db *sql.DB
}

func NewPostRepo(db *sql.DB) ports.PostRepo {
	return &postRepo{db: db}
}

const postColumns = `owner_id, post_id, text, audio_url, comment_count, time`

// buildSortedPostsQuery: аналог collection-group запроса по всем users/*/posts
func buildSortedPostsQuery(after *time.Time) (string, []any) {
	var (
		b    strings.Builder
		args []any
	)
	b.WriteString("SELECT " + postColumns + " FROM posts")
	if after != nil {
		// Postgres хранит микросекунды и округляет параметр; усечение сохраняет строгое time > T
		args = append(args, after.UTC().Truncate(time.Microsecond))
		fmt.Fprintf(&b, " WHERE time > $%d", len(args))
	}
	b.WriteString(" ORDER BY time DESC")
	return b.String(), args
}

func (r *postRepo) ListSortedByTime(ctx context.Context, after *time.Time) ([]ports.Post, error) {
	query, args := buildSortedPostsQuery(after)
	posts, err := r.queryPosts(ctx, query, args...)
	return posts, apperr.Store("list posts", err)
}

func (r *postRepo) ListByOwner(ctx context.Context, ownerID string) ([]ports.Post, error) {
	posts, err := r.queryPosts(ctx, `
		SELECT `+postColumns+`
		FROM posts
		WHERE owner_id = $1
		ORDER BY time DESC
	`, ownerID)
	return posts, apperr.Store("list posts by owner", err)
}

func (r *postRepo) queryPosts(ctx context.Context, query string, args ...any) ([]ports.Post, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []ports.Post{}
	for rows.Next() {
		var p ports.Post
		if err := rows.Scan(
			&p.OwnerID,
			&p.PostID,
			&p.Text,
			&p.AudioURL,
			&p.CommentCount,
			&p.Time,
		); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *postRepo) CreatePost(ctx context.Context, p ports.Post) error {
	if p.Time.IsZero() {
		p.Time = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO posts (owner_id, post_id, text, audio_url, time)
		VALUES ($1, $2, $3, $4, $5)
	`, p.OwnerID, p.PostID, p.Text, p.AudioURL, p.Time)
	return apperr.Store("create post", err)
}

func (r *postRepo) CreateComment(ctx context.Context, c ports.Comment) error {
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO comments (owner_id, post_id, comment_id, author_id, text, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, c.OwnerID, c.PostID, c.CommentID, c.AuthorID, c.Text, c.CreatedAt)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23503" {
		return apperr.Store("create comment", apperr.NotFound(fmt.Sprintf("post %s/%s", c.OwnerID, c.PostID)))
	}
	return apperr.Store("create comment", err)
}

func (r *postRepo) DeleteComment(ctx context.Context, ownerID, postID, commentID string) error {
	res, err := r.db.ExecContext(ctx, `
		DELETE FROM comments
		WHERE owner_id = $1 AND post_id = $2 AND comment_id = $3
	`, ownerID, postID, commentID)
	if err != nil {
		return apperr.Store("delete comment", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return apperr.Store("delete comment", err)
	}
	if n == 0 {
		return apperr.Store("delete comment", apperr.NotFound(fmt.Sprintf("comment %s/%s/%s", ownerID, postID, commentID)))
	}
	return nil
}

// IncrementCommentCount: одно UPDATE, атомарно на стороне Postgres
func (r *postRepo) IncrementCommentCount(ctx context.Context, ownerID, postID string, delta int64) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE posts
		SET comment_count = comment_count + $1
		WHERE owner_id = $2 AND post_id = $3
	`, delta, ownerID, postID)
	return apperr.Store("increment comment count", err)
}
