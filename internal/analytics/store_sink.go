package analytics

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"
)

// EventWriter persists one telemetry event.
type EventWriter interface {
	InsertEvent(ctx context.Context, name string, payload []byte, recordedAt time.Time) error
}

// DefaultStoreQueueSize bounds events waiting to be written.
const DefaultStoreQueueSize = 1024

type storedEvent struct {
	name       string
	payload    []byte
	recordedAt time.Time
}

// StoreSink writes events to an EventWriter from a background goroutine.
// Record never waits on the database. Events recorded while the queue is
// full are dropped and logged.
type StoreSink struct {
	writer  EventWriter
	logger  *slog.Logger
	timeout time.Duration
	queue   chan storedEvent

	once sync.Once
	done chan struct{}
}

// NewStoreSink creates a sink with a queue of queueSize events. Call Run to
// start writing.
func NewStoreSink(writer EventWriter, logger *slog.Logger, queueSize int) *StoreSink {
	if queueSize <= 0 {
		queueSize = DefaultStoreQueueSize
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StoreSink{
		writer:  writer,
		logger:  logger,
		timeout: 5 * time.Second,
		queue:   make(chan storedEvent, queueSize),
		done:    make(chan struct{}),
	}
}

// Record enqueues the event without blocking.
func (s *StoreSink) Record(ctx context.Context, name string, payload Payload) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		s.logger.WarnContext(ctx, "dropping telemetry event with unencodable payload",
			slog.String("event", name), slog.Any("error", err))
		return
	}

	select {
	case s.queue <- storedEvent{name: name, payload: encoded, recordedAt: time.Now().UTC()}:
	default:
		s.logger.WarnContext(ctx, "telemetry queue full, dropping event", slog.String("event", name))
	}
}

// Run writes queued events until ctx is done, then drains what is already
// queued and returns.
func (s *StoreSink) Run(ctx context.Context) error {
	defer s.once.Do(func() { close(s.done) })

	for {
		select {
		case ev := <-s.queue:
			s.write(ev)
		case <-ctx.Done():
			for {
				select {
				case ev := <-s.queue:
					s.write(ev)
				default:
					return nil
				}
			}
		}
	}
}

// Done is closed once Run has returned.
func (s *StoreSink) Done() <-chan struct{} {
	return s.done
}

func (s *StoreSink) write(ev storedEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if err := s.writer.InsertEvent(ctx, ev.name, ev.payload, ev.recordedAt); err != nil {
		s.logger.Error("failed to store telemetry event",
			slog.String("event", ev.name), slog.Any("error", err))
	}
}
