package consumer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/md-rashed-zaman/queuedesk/libs/kafkax"
	"github.com/md-rashed-zaman/queuedesk/services/scheduling-service/internal/inbox"
)

type fakeReader struct {
	mu        sync.Mutex
	msgs      []kafka.Message
	committed []kafka.Message
	drained   chan struct{}
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.msgs) > 0 {
		m := r.msgs[0]
		r.msgs = r.msgs[1:]
		r.mu.Unlock()
		return m, nil
	}
	r.mu.Unlock()
	select {
	case r.drained <- struct{}{}:
	default:
	}
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.committed = append(r.committed, msgs...)
	return nil
}

func (r *fakeReader) Close() error { return nil }

type failingInbox struct{}

func (failingInbox) Record(context.Context, string, string) (bool, error) {
	return false, errors.New("db down")
}

func message(id string) kafka.Message {
	return kafka.Message{Topic: "scheduling.queue.enqueued.v1", Headers: kafkax.MetaHeaders(kafkax.EventMeta{EventID: id})}
}

func runUntilDrained(t *testing.T, c *Consumer, r *fakeReader) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.Run(ctx)
		close(done)
	}()
	select {
	case <-r.drained:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not drain messages")
	}
	cancel()
	<-done
}

func TestConsumer_DedupesAndCommits(t *testing.T) {
	r := &fakeReader{msgs: []kafka.Message{message("e1"), message("e1"), message("e2")}, drained: make(chan struct{}, 1)}
	var handled []string
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	c := New(logger, r, inbox.NewMemory(), func(_ context.Context, msg kafka.Message) error {
		handled = append(handled, kafkax.ExtractEventMeta(msg).EventID)
		return nil
	})
	runUntilDrained(t, c, r)

	assert.Equal(t, []string{"e1", "e2"}, handled)
	require.Len(t, r.committed, 3)
}

func TestConsumer_InboxFailureSkipsCommit(t *testing.T) {
	r := &fakeReader{msgs: []kafka.Message{message("e1")}, drained: make(chan struct{}, 1)}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	called := false
	c := New(logger, r, failingInbox{}, func(context.Context, kafka.Message) error {
		called = true
		return nil
	})
	runUntilDrained(t, c, r)

	assert.False(t, called, "handler must not run")
	assert.Empty(t, r.committed)
}
