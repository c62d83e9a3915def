package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recvEvent(t *testing.T, ch chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func assertNoEvent(t *testing.T, ch chan Event) {
	t.Helper()
	select {
	case ev := <-ch:
		t.Fatalf("unexpected event: %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestTopicMatches(t *testing.T) {
	ev := Event{Table: TableReplies, Action: ActionInsert, RowID: "r1", Filter: "discussion_id=d1"}

	assert.True(t, Topic{Table: TableReplies}.Matches(ev))
	assert.True(t, Topic{Table: TableReplies, Filter: "discussion_id=d1"}.Matches(ev))
	assert.False(t, Topic{Table: TableReplies, Filter: "discussion_id=d2"}.Matches(ev))
	assert.False(t, Topic{Table: TableDiscussions}.Matches(ev))
}

func TestHubFanout(t *testing.T) {
	bus := NewMemoryBus()
	hub := NewHub(bus, "rt", 8)

	all, err := hub.Subscribe(Topic{Table: TableReplies})
	require.NoError(t, err)
	defer all.Close()

	filtered, err := hub.Subscribe(Topic{Table: TableReplies, Filter: "discussion_id=d1"})
	require.NoError(t, err)
	defer filtered.Close()

	other, err := hub.Subscribe(Topic{Table: TableReplies, Filter: "discussion_id=d2"})
	require.NoError(t, err)
	defer other.Close()

	ev := Event{Table: TableReplies, Action: ActionInsert, RowID: "r1", Filter: "discussion_id=d1"}
	require.NoError(t, hub.PublishSync(context.Background(), ev))

	assert.Equal(t, ev, recvEvent(t, all.C))
	assert.Equal(t, ev, recvEvent(t, filtered.C))
	assertNoEvent(t, other.C)
}

func TestHubSharesOneBusSubscriptionPerTable(t *testing.T) {
	bus := NewMemoryBus()
	hub := NewHub(bus, "rt", 8)

	s1, err := hub.Subscribe(Topic{Table: TableMessages, Filter: "chat_id=c1"})
	require.NoError(t, err)
	s2, err := hub.Subscribe(Topic{Table: TableMessages, Filter: "chat_id=c2"})
	require.NoError(t, err)

	bus.mu.Lock()
	assert.Len(t, bus.subs["rt:"+TableMessages], 1)
	bus.mu.Unlock()

	s1.Close()
	bus.mu.Lock()
	assert.Len(t, bus.subs["rt:"+TableMessages], 1)
	bus.mu.Unlock()

	// 最后一个订阅者退订后总线连接应当释放
	s2.Close()
	bus.mu.Lock()
	assert.Len(t, bus.subs["rt:"+TableMessages], 0)
	bus.mu.Unlock()
}

func TestSubscriptionCloseIsIdempotent(t *testing.T) {
	bus := NewMemoryBus()
	hub := NewHub(bus, "rt", 8)

	sub, err := hub.Subscribe(Topic{Table: TableChats})
	require.NoError(t, err)

	sub.Close()
	assert.NotPanics(t, func() { sub.Close() })
}

func TestHubDropsWhenSubscriberQueueFull(t *testing.T) {
	bus := NewMemoryBus()
	hub := NewHub(bus, "rt", 1)

	sub, err := hub.Subscribe(Topic{Table: TableLikes})
	require.NoError(t, err)
	defer sub.Close()

	first := Event{Table: TableLikes, Action: ActionInsert, RowID: "l1"}
	require.NoError(t, hub.PublishSync(context.Background(), first))
	assert.Equal(t, first, recvEvent(t, sub.C))

	// 队列容量 1：塞满后继续发布不得阻塞
	require.NoError(t, hub.PublishSync(context.Background(), Event{Table: TableLikes, Action: ActionInsert, RowID: "l2"}))
	require.NoError(t, hub.PublishSync(context.Background(), Event{Table: TableLikes, Action: ActionInsert, RowID: "l3"}))

	got := recvEvent(t, sub.C)
	assert.Equal(t, "l2", got.RowID)
}
