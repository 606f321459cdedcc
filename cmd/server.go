package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/Vovarama1992/go-utils/logger"
)

type backgroundListener interface {
	Run(ctx context.Context, ready chan<- struct{}) error
}

// serve: слушатель комментариев стартует до приёма запросов и останавливается после
// того, как Shutdown дождался всех запросов в полёте
func serve(
	ctx context.Context,
	srv *http.Server,
	ln net.Listener,
	bg backgroundListener,
	shutdownTimeout time.Duration,
	zl *logger.ZapLogger,
) error {
	bgCtx, stopBg := context.WithCancel(context.Background())
	defer stopBg()

	ready := make(chan struct{})
	bgDone := make(chan error, 1)
	go func() { bgDone <- bg.Run(bgCtx, ready) }()

	select {
	case <-ready:
	case err := <-bgDone:
		_ = ln.Close()
		return fmt.Errorf("comment listener: %w", err)
	case <-ctx.Done():
		_ = ln.Close()
		stopBg()
		return <-bgDone
	}

	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ln) }()

	zl.Log(logger.LogEntry{Level: "info", Message: "listening at " + ln.Addr().String(), Service: service})

	var err error
	select {
	case <-ctx.Done():
	case err = <-serveErr:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if sErr := srv.Shutdown(shutdownCtx); sErr != nil && err == nil {
		err = fmt.Errorf("shutdown: %w", sErr)
	}

	stopBg()
	if bgErr := <-bgDone; bgErr != nil {
		zl.Log(logger.LogEntry{Level: "error", Message: "comment listener stopped", Error: bgErr, Service: service})
	}

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}
