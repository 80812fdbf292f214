package transport

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestHub_HandleConnection_JoinThenLeaveEvictsRoom(t *testing.T) {
	reg := newFakeRegistry()
	hub := newTestHub(reg)

	blocked := make(chan struct{})
	conn := &mockConnection{
		ReadMessageFunc: func() (int, []byte, error) {
			<-blocked
			return 0, nil, io.EOF
		},
	}

	hub.HandleConnection(context.Background(), conn, "room-1")

	reg.mu.Lock()
	peers := reg.peers["room-1"]
	reg.mu.Unlock()
	assert.Equal(t, 1, peers)

	close(blocked)

	require.Eventually(t, func() bool {
		reg.mu.Lock()
		defer reg.mu.Unlock()
		return len(reg.evicted) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestHub_TopicFor_ReusesSameTopicPerRoom(t *testing.T) {
	reg := newFakeRegistry()
	hub := newTestHub(reg)

	a := hub.topicFor("room-1")
	b := hub.topicFor("room-1")
	assert.Same(t, a, b)

	c := hub.topicFor("room-2")
	assert.NotSame(t, a, c)
}

func TestHub_ReleaseTopic_RemovesEntry(t *testing.T) {
	reg := newFakeRegistry()
	hub := newTestHub(reg)

	first := hub.topicFor("room-1")
	hub.releaseTopic("room-1")

	second := hub.topicFor("room-1")
	assert.NotSame(t, first, second)
}
