package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
	"github.com/lib/pq"

	"github.com/Vovarama1992/voice_posts/internal/ports"
)

const (
	listenerMinReconnect = 2 * time.Second
	listenerMaxReconnect = time.Minute
	listenerPingInterval = 90 * time.Second
	listenerDrainIdle    = time.Second
	listenerDrainTimeout = 10 * time.Second
)

// CommentListener слушает comment_events и раздаёт события обработчику.
// Переподключение делает сам pq.Listener.
type CommentListener struct {
	dsn       string
	handler   ports.CommentEventHandler
	log       *logger.ZapLogger
	drainIdle time.Duration
}

func NewCommentListener(dsn string, handler ports.CommentEventHandler, log *logger.ZapLogger) *CommentListener {
	return &CommentListener{dsn: dsn, handler: handler, log: log, drainIdle: listenerDrainIdle}
}

// Run блокирует до отмены ctx. ready закрывается, когда LISTEN подтверждён сервером.
// Отменять ctx нужно после остановки HTTP-сервера: уведомления от последних коммитов ещё дочитываются.
func (l *CommentListener) Run(ctx context.Context, ready chan<- struct{}) error {
	pl := pq.NewListener(l.dsn, listenerMinReconnect, listenerMaxReconnect, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			l.log.Log(logger.LogEntry{Level: "warn", Message: fmt.Sprintf("[comments] listener event %d", ev), Error: err, Service: "comments"})
		}
	})
	defer pl.Close()

	// Listen ждёт соединения; отмена ctx до подключения закрывает listener
	stopClose := context.AfterFunc(ctx, func() { _ = pl.Close() })
	err := pl.Listen(CommentEventsChannel)
	stopClose()
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("listen %s: %w", CommentEventsChannel, err)
	}
	l.log.Log(logger.LogEntry{Level: "info", Message: "[comments] listening on " + CommentEventsChannel, Service: "comments"})
	if ready != nil {
		close(ready)
	}

	return l.consume(ctx, pl.Notify, pl.Ping)
}

func (l *CommentListener) consume(ctx context.Context, notify <-chan *pq.Notification, ping func() error) error {
	ticker := time.NewTicker(listenerPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return l.drain(notify)
		case n, ok := <-notify:
			if !ok {
				return nil
			}
			// nil приходит после переподключения: события за разрыв потеряны
			if n == nil {
				l.log.Log(logger.LogEntry{Level: "warn", Message: "[comments] listener reconnected", Service: "comments"})
				continue
			}
			if err := l.handleNotification(ctx, n); err != nil {
				l.log.Log(logger.LogEntry{Level: "error", Message: "[comments] event failed: " + n.Extra, Error: err, Service: "comments"})
			}
		case <-ticker.C:
			if err := ping(); err != nil {
				l.log.Log(logger.LogEntry{Level: "warn", Message: "[comments] ping failed", Error: err, Service: "comments"})
			}
		}
	}
}

// drain дочитывает уведомления, пока канал не затихнет на drainIdle
func (l *CommentListener) drain(notify <-chan *pq.Notification) error {
	ctx, cancel := context.WithTimeout(context.Background(), listenerDrainTimeout)
	defer cancel()

	idle := time.NewTimer(l.drainIdle)
	defer idle.Stop()

	drained := 0
	for {
		select {
		case n, ok := <-notify:
			if !ok {
				return nil
			}
			if n != nil {
				if err := l.handleNotification(ctx, n); err != nil {
					l.log.Log(logger.LogEntry{Level: "error", Message: "[comments] event failed: " + n.Extra, Error: err, Service: "comments"})
				}
				drained++
			}
			idle.Reset(l.drainIdle)
		case <-idle.C:
			l.log.Log(logger.LogEntry{Level: "info", Message: fmt.Sprintf("[comments] stopped, %d events drained", drained), Service: "comments"})
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (l *CommentListener) handleNotification(ctx context.Context, n *pq.Notification) error {
	var ev ports.CommentEvent
	if err := json.Unmarshal([]byte(n.Extra), &ev); err != nil {
		return fmt.Errorf("decode comment event: %w", err)
	}
	if ev.OwnerID == "" || ev.PostID == "" {
		return fmt.Errorf("comment event without post reference: %q", n.Extra)
	}

	switch ev.Op {
	case ports.CommentCreated:
		return l.handler.OnCreated(ctx, ev)
	case ports.CommentDeleted:
		return l.handler.OnDeleted(ctx, ev)
	default:
		return fmt.Errorf("unknown comment event op %q", ev.Op)
	}
}
