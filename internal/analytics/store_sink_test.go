package analytics

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	mu     sync.Mutex
	names  []string
	bodies []string
	err    error
}

func (w *fakeWriter) InsertEvent(_ context.Context, name string, payload []byte, _ time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.names = append(w.names, name)
	w.bodies = append(w.bodies, string(payload))
	return w.err
}

func (w *fakeWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.names)
}

func TestStoreSink_WritesQueuedEvents(t *testing.T) {
	writer := &fakeWriter{}
	sink := NewStoreSink(writer, nil, 8)

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = sink.Run(ctx) }()

	client := NewClient(sink)
	client.TrackScrollDepth(ctx, 25)
	client.TrackLinkClick(ctx, "GitHub", "https://github.com/janedoe")

	require.Eventually(t, func() bool { return writer.count() == 2 }, time.Second, 5*time.Millisecond)
	cancel()
	<-sink.Done()

	assert.Equal(t, []string{EventScrollDepth, EventLinkClick}, writer.names)
	assert.JSONEq(t, `{"depth": 25}`, writer.bodies[0])
	assert.JSONEq(t, `{"name": "GitHub", "url": "https://github.com/janedoe"}`, writer.bodies[1])
}

func TestStoreSink_DropsWhenFull(t *testing.T) {
	writer := &fakeWriter{}
	sink := NewStoreSink(writer, nil, 1)

	sink.Record(context.Background(), EventScrollDepth, Payload{"depth": 25})
	sink.Record(context.Background(), EventScrollDepth, Payload{"depth": 50})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, sink.Run(ctx))

	assert.Equal(t, 1, writer.count())
}

func TestStoreSink_WriteErrorsAreSwallowed(t *testing.T) {
	writer := &fakeWriter{err: errors.New("connection refused")}
	sink := NewStoreSink(writer, nil, 4)

	sink.Record(context.Background(), EventScrollDepth, Payload{"depth": 25})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, sink.Run(ctx))
	assert.Equal(t, 1, writer.count())
}

func TestStoreSink_UnencodablePayloadDropped(t *testing.T) {
	writer := &fakeWriter{}
	sink := NewStoreSink(writer, nil, 4)

	sink.Record(context.Background(), "bad", Payload{"ch": make(chan int)})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, sink.Run(ctx))
	assert.Equal(t, 0, writer.count())
}
