package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Vovarama1992/voice_posts/internal/apperr"
	"github.com/Vovarama1992/voice_posts/internal/error_notificator"
	"github.com/Vovarama1992/voice_posts/internal/ports"
)

type postService struct {
	repo     ports.PostRepo
	notifier error_notificator.Notificator
}

func NewPostService(repo ports.PostRepo, n error_notificator.Notificator) ports.PostService {
	return &postService{
		repo:     repo,
		notifier: n,
	}
}

func (s *postService) GetAllPostsSortedByTime(ctx context.Context, after *ports.Timestamp) ([]ports.Post, error) {
	var bound *time.Time
	if after != nil {
		if after.Nanoseconds < 0 || after.Nanoseconds >= int64(time.Second) {
			return nil, apperr.Invalid("afterTimestamp", "nanoseconds out of range")
		}
		t := after.Time()
		bound = &t
	}

	posts, err := s.repo.ListSortedByTime(ctx, bound)
	if err != nil {
		s.notify(ctx, "posts", err, "getAllPostsSortedByTime")
		return nil, err
	}
	return posts, nil
}

func (s *postService) GetPostsByUser(ctx context.Context, uid string) ([]ports.Post, error) {
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return nil, apperr.Invalid("uid", "is required")
	}

	posts, err := s.repo.ListByOwner(ctx, uid)
	if err != nil {
		s.notify(ctx, "posts", err, "getPostsByUser uid="+uid)
		return nil, err
	}
	return posts, nil
}

func (s *postService) CreatePost(ctx context.Context, ownerID, text, audioURL string) (*ports.Post, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, apperr.Invalid("owner_id", "is required")
	}
	if strings.TrimSpace(text) == "" && audioURL == "" {
		return nil, apperr.Invalid("text", "text or audioUrl is required")
	}

	p := ports.Post{
		OwnerID:  ownerID,
		PostID:   uuid.NewString(),
		Text:     text,
		AudioURL: audioURL,
		Time:     time.Now().UTC(),
	}
	if err := s.repo.CreatePost(ctx, p); err != nil {
		s.notify(ctx, "posts", err, "create post owner="+ownerID)
		return nil, err
	}
	return &p, nil
}

// AddComment пишет комментарий; счётчик поста поднимет триггер
func (s *postService) AddComment(ctx context.Context, ownerID, postID, authorID, text string) (string, error) {
	if ownerID == "" || postID == "" {
		return "", apperr.Invalid("post", "owner_id and post_id are required")
	}
	if strings.TrimSpace(authorID) == "" {
		return "", apperr.Invalid("author_id", "is required")
	}
	if strings.TrimSpace(text) == "" {
		return "", apperr.Invalid("text", "is required")
	}

	c := ports.Comment{
		OwnerID:   ownerID,
		PostID:    postID,
		CommentID: uuid.NewString(),
		AuthorID:  authorID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.CreateComment(ctx, c); err != nil {
		s.notify(ctx, "comments", err, fmt.Sprintf("create comment on %s/%s", ownerID, postID))
		return "", err
	}
	return c.CommentID, nil
}

func (s *postService) DeleteComment(ctx context.Context, ownerID, postID, commentID string) error {
	if ownerID == "" || postID == "" || commentID == "" {
		return apperr.Invalid("comment", "owner_id, post_id and comment_id are required")
	}
	if err := s.repo.DeleteComment(ctx, ownerID, postID, commentID); err != nil {
		s.notify(ctx, "comments", err, fmt.Sprintf("delete comment %s/%s/%s", ownerID, postID, commentID))
		return err
	}
	return nil
}

// notify: админу уходят только сбои сервиса, ошибки клиента нет
func (s *postService) notify(ctx context.Context, source string, err error, details string) {
	if apperr.IsClient(err) {
		return
	}
	_ = s.notifier.Notify(ctx, source, err, details)
}
