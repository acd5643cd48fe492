package events

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Handler consumes committed domain events. Implementations must tolerate
// redelivery-free, at-most-once semantics: the dispatcher never retries.
type Handler interface {
	Handle(ctx context.Context, env Envelope) error
}

// Publisher is the narrow interface services depend on.
type Publisher interface {
	Publish(evt Event)
}

const handlerTimeout = 10 * time.Second

// Dispatcher fans committed events out to its handlers on a background
// goroutine. Handler failures are logged and swallowed: a notification
// problem must never surface as an auction failure or trigger a rollback,
// since the state change has already committed.
type Dispatcher struct {
	mu       sync.RWMutex
	handlers []Handler
	logger   *slog.Logger
}

func NewDispatcher(logger *slog.Logger) *Dispatcher {
	return &Dispatcher{logger: logger}
}

func (d *Dispatcher) Register(h Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.handlers = append(d.handlers, h)
}

func (d *Dispatcher) Publish(evt Event) {
	env := newEnvelope(evt)

	d.mu.RLock()
	handlers := make([]Handler, len(d.handlers))
	copy(handlers, d.handlers)
	d.mu.RUnlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		defer cancel()

		for _, h := range handlers {
			if err := h.Handle(ctx, env); err != nil {
				d.logger.Error("event handler failed",
					slog.String("event", env.Name),
					slog.String("event_id", env.ID.String()),
					slog.Int("tournament_id", env.TournamentID),
					slog.Any("error", err),
				)
			}
		}
	}()
}
