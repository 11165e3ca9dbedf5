//go:build integration

package push_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"discrescue/internal/notification"
	"discrescue/internal/notification/push"
	id "discrescue/pkg/domain"
	"discrescue/pkg/testutil/containers"
)

type captureSender struct {
	got chan push.Message
}

func (s *captureSender) Send(_ context.Context, msg push.Message) error {
	s.got <- msg
	return nil
}

func TestRedisPushRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	rc := containers.NewRedisContainer(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	const channel = "discrescue:push:test"
	sender := &captureSender{got: make(chan push.Message, 1)}
	relay := push.NewRelay(rc.Client, channel, sender, logger)

	relayCtx, stopRelay := context.WithCancel(ctx)
	defer stopRelay()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = relay.Run(relayCtx)
	}()

	// Give the subscription a moment to establish before publishing.
	time.Sleep(200 * time.Millisecond)

	target := id.NewUserID()
	n := notification.Compose(notification.KindDiscFound, target, id.NewRecoveryEventID(), nil, time.Now())
	publisher := push.NewRedisPublisher(rc.Client, channel)
	require.NoError(t, publisher.Push(ctx, n))

	select {
	case msg := <-sender.got:
		assert.Equal(t, target.String(), msg.UserID)
		assert.Equal(t, n.Title, msg.Title)
		assert.Equal(t, notification.KindDiscFound, msg.Payload.Kind)
	case <-ctx.Done():
		t.Fatal("push message never reached the relay")
	}

	stopRelay()
	<-done
}
