package domain

import (
	"context"
	"fmt"

	"github.com/Vovarama1992/go-utils/logger"

	"github.com/Vovarama1992/voice_posts/internal/error_notificator"
	"github.com/Vovarama1992/voice_posts/internal/ports"
)

// CommentCounter держит posts.comment_count: +1 на создание, -1 на удаление.
// Без клампа в 0 и без локальных блокировок, атомарность даёт UPDATE.
type CommentCounter struct {
	repo     ports.PostRepo
	notifier error_notificator.Notificator
	log      *logger.ZapLogger
}

func NewCommentCounter(repo ports.PostRepo, n error_notificator.Notificator, log *logger.ZapLogger) *CommentCounter {
	return &CommentCounter{repo: repo, notifier: n, log: log}
}

func (c *CommentCounter) OnCreated(ctx context.Context, ev ports.CommentEvent) error {
	return c.apply(ctx, ev, 1)
}

func (c *CommentCounter) OnDeleted(ctx context.Context, ev ports.CommentEvent) error {
	return c.apply(ctx, ev, -1)
}

func (c *CommentCounter) apply(ctx context.Context, ev ports.CommentEvent, delta int64) error {
	if err := c.repo.IncrementCommentCount(ctx, ev.OwnerID, ev.PostID, delta); err != nil {
		_ = c.notifier.Notify(ctx, "comments/"+ev.Op, err,
			fmt.Sprintf("post %s/%s comment %s delta %+d", ev.OwnerID, ev.PostID, ev.CommentID, delta))
		return err
	}

	c.log.Log(logger.LogEntry{
		Level:   "info",
		Message: fmt.Sprintf("[comments] %s %s/%s %+d", ev.Op, ev.OwnerID, ev.PostID, delta),
		Service: "comments",
	})
	return nil
}
