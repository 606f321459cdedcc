package ports

import (
	"context"
	"time"
)

// Пост пользователя: users/{owner_id}/posts/{post_id}
type Post struct {
	OwnerID      string    `json:"ownerId"`
	PostID       string    `json:"postId"`
	Text         string    `json:"text"`
	AudioURL     string    `json:"audioUrl,omitempty"`
	CommentCount int64     `json:"commentCount"`
	Time         time.Time `json:"time"`
}

type Comment struct {
	OwnerID   string    `json:"ownerId"`
	PostID    string    `json:"postId"`
	CommentID string    `json:"commentId"`
	AuthorID  string    `json:"authorId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// Timestamp в том виде, как его присылает клиент: {seconds, nanoseconds}
type Timestamp struct {
	Seconds     int64 `json:"seconds"`
	Nanoseconds int64 `json:"nanoseconds"`
}

func (t Timestamp) Time() time.Time {
	return time.Unix(t.Seconds, t.Nanoseconds).UTC()
}

const (
	CommentCreated = "created"
	CommentDeleted = "deleted"
)

// CommentEvent приходит из pg_notify('comment_events', ...)
type CommentEvent struct {
	Op        string `json:"op"`
	OwnerID   string `json:"owner_id"`
	PostID    string `json:"post_id"`
	CommentID string `json:"comment_id"`
}

// Репозиторий Postgres
type PostRepo interface {
	// все посты всех пользователей, time DESC; after != nil → только time > after
	ListSortedByTime(ctx context.Context, after *time.Time) ([]Post, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Post, error)
	CreatePost(ctx context.Context, p Post) error

	CreateComment(ctx context.Context, c Comment) error
	DeleteComment(ctx context.Context, ownerID, postID, commentID string) error

	// атомарно: comment_count = comment_count + delta
	IncrementCommentCount(ctx context.Context, ownerID, postID string, delta int64) error
}

type PostService interface {
	GetAllPostsSortedByTime(ctx context.Context, after *Timestamp) ([]Post, error)
	GetPostsByUser(ctx context.Context, uid string) ([]Post, error)
	CreatePost(ctx context.Context, ownerID, text, audioURL string) (*Post, error)
	AddComment(ctx context.Context, ownerID, postID, authorID, text string) (string, error)
	DeleteComment(ctx context.Context, ownerID, postID, commentID string) error
}

type CommentEventHandler interface {
	OnCreated(ctx context.Context, ev CommentEvent) error
	OnDeleted(ctx context.Context, ev CommentEvent) error
}
