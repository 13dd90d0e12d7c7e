package wm

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.i3wm.org/i3/v4"

	"hotdock/internal/logging"
)

const initialReconnectDelay = time.Second

type eventStream interface {
	Next() bool
	Event() i3.Event
	Close() error
}

// WorkspaceHandler is invoked once per workspace event.
type WorkspaceHandler func(ctx context.Context, change string)

// Listener keeps an i3 event subscription open and forwards workspace events.
type Listener struct {
	logger       *slog.Logger
	handler      WorkspaceHandler
	maxBackoff   time.Duration
	subscribe    func() eventStream
	sleep        func(ctx context.Context, d time.Duration) bool
	onDisconnect func(attempt int, delay time.Duration)
}

// NewListener returns a listener subscribed to workspace and window events.
func NewListener(handler WorkspaceHandler, maxBackoff time.Duration, logger *slog.Logger) *Listener {
	if maxBackoff < initialReconnectDelay {
		maxBackoff = initialReconnectDelay
	}
	return &Listener{
		logger:     logging.NewComponentLogger(logger, "wm-listener"),
		handler:    handler,
		maxBackoff: maxBackoff,
		subscribe: func() eventStream {
			return i3.Subscribe(i3.WorkspaceEventType, i3.WindowEventType)
		},
		sleep: sleepContext,
	}
}

// Run blocks until ctx is cancelled.
func (l *Listener) Run(ctx context.Context) error {
	delay := initialReconnectDelay
	attempt := 0
	for {
		delivered, err := l.consume(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if delivered > 0 {
			delay = initialReconnectDelay
			attempt = 0
		}
		attempt++
		logging.WarnWithContext(l.logger, "i3 event stream ended; reconnecting", "wm_stream_lost",
			logging.Int("attempt", attempt),
			logging.Duration("retry_in", delay),
			logging.Int("events", delivered),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that i3 is running and the IPC socket is reachable"),
			logging.String(logging.FieldImpact, "manual workspace moves are not tracked until reconnect"),
		)
		if l.onDisconnect != nil {
			l.onDisconnect(attempt, delay)
		}
		if !l.sleep(ctx, delay) {
			return nil
		}
		delay *= 2
		if delay > l.maxBackoff {
			delay = l.maxBackoff
		}
	}
}

func (l *Listener) consume(ctx context.Context) (int, error) {
	stream := l.subscribe()
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = stream.Close()
		case <-done:
		}
	}()
	defer stream.Close()

	delivered := 0
	for stream.Next() {
		delivered++
		switch ev := stream.Event().(type) {
		case *i3.WorkspaceEvent:
			l.logger.Debug("workspace event", logging.String("change", ev.Change))
			if l.handler != nil {
				l.handler(ctx, ev.Change)
			}
		case *i3.WindowEvent:
			// Subscribed for parity with i3 tooling; no reconciliation needed.
		}
	}
	if errer, ok := stream.(interface{ Err() error }); ok {
		if err := errer.Err(); err != nil {
			return delivered, err
		}
	}
	return delivered, errors.New("event stream closed")
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
