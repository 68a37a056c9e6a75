package realtime

import (
	"sync"
	"testing"
	"time"

	"github.com/fleetpulse/connect/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collector, teslim edilen event'leri thread-safe toplar.
type collector struct {
	mu     sync.Mutex
	events []Event
}

func (c *collector) handle(ev Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *collector) snapshot() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Event(nil), c.events...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met within deadline")
}

func TestPollingTwoSubscribersExactlyOnce(t *testing.T) {
	eventLog := NewEventLog()
	// iki syncer = iki cihaz, aynı log
	devA := NewPollingSyncer(eventLog, 10*time.Millisecond)
	devB := NewPollingSyncer(eventLog, 10*time.Millisecond)
	defer devA.Close()
	defer devB.Close()

	var colA, colB collector
	subA, err := devA.Subscribe("ch-1", 1, colA.handle)
	require.NoError(t, err)
	defer subA.Unsubscribe()
	subB, err := devB.Subscribe("ch-1", 1, colB.handle)
	require.NoError(t, err)
	defer subB.Unsubscribe()

	msg := models.Message{ID: "m-1", ChannelID: "ch-1", UserID: "u-1", Content: "hello"}
	require.NoError(t, devA.PublishMessage(msg))

	waitFor(t, func() bool { return len(colA.snapshot()) >= 1 && len(colB.snapshot()) >= 1 })

	// birkaç poll turu daha geçsin — duplicate teslim olmamalı
	time.Sleep(50 * time.Millisecond)

	for _, col := range []*collector{&colA, &colB} {
		events := col.snapshot()
		require.Len(t, events, 1)
		assert.Equal(t, OpMessageCreate, events[0].Op)
		require.NotNil(t, events[0].Message)
		assert.Equal(t, "m-1", events[0].Message.ID)
	}
}

func TestPollingChannelFilter(t *testing.T) {
	eventLog := NewEventLog()
	syncer := NewPollingSyncer(eventLog, 10*time.Millisecond)
	defer syncer.Close()

	var col collector
	sub, err := syncer.Subscribe("ch-1", 1, col.handle)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	require.NoError(t, syncer.PublishMessage(models.Message{ID: "m-other", ChannelID: "ch-2", UserID: "u-1", Content: "x"}))
	require.NoError(t, syncer.PublishMessage(models.Message{ID: "m-mine", ChannelID: "ch-1", UserID: "u-1", Content: "y"}))

	waitFor(t, func() bool { return len(col.snapshot()) >= 1 })
	time.Sleep(30 * time.Millisecond)

	events := col.snapshot()
	require.Len(t, events, 1)
	assert.Equal(t, "m-mine", events[0].Message.ID)
}

func TestPollingNoHistoricReplay(t *testing.T) {
	eventLog := NewEventLog()
	syncer := NewPollingSyncer(eventLog, 10*time.Millisecond)
	defer syncer.Close()

	require.NoError(t, syncer.PublishMessage(models.Message{ID: "m-old", ChannelID: "ch-1", UserID: "u-1", Content: "before subscribe"}))

	var col collector
	sub, err := syncer.Subscribe("ch-1", 1, col.handle)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, col.snapshot(), "events published before subscribe are not replayed")
}

func TestPollingUnsubscribeStopsDelivery(t *testing.T) {
	eventLog := NewEventLog()
	syncer := NewPollingSyncer(eventLog, 10*time.Millisecond)
	defer syncer.Close()

	var col collector
	sub, err := syncer.Subscribe("ch-1", 1, col.handle)
	require.NoError(t, err)

	sub.Unsubscribe()
	assert.False(t, sub.Active())

	require.NoError(t, syncer.PublishMessage(models.Message{ID: "m-1", ChannelID: "ch-1", UserID: "u-1", Content: "after"}))
	time.Sleep(50 * time.Millisecond)

	assert.Empty(t, col.snapshot(), "no delivery after Unsubscribe returns")
}

func TestPollingTypingOps(t *testing.T) {
	eventLog := NewEventLog()
	syncer := NewPollingSyncer(eventLog, 10*time.Millisecond)
	defer syncer.Close()

	var col collector
	sub, err := syncer.Subscribe("ch-1", 1, col.handle)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	require.NoError(t, syncer.PublishTyping("ch-1", "u-2", true))
	require.NoError(t, syncer.PublishTyping("ch-1", "u-2", false))

	waitFor(t, func() bool { return len(col.snapshot()) >= 2 })

	events := col.snapshot()
	require.Len(t, events, 2)
	// kanal içi FIFO
	assert.Equal(t, OpTypingStart, events[0].Op)
	assert.Equal(t, OpTypingStop, events[1].Op)
	assert.Equal(t, "u-2", events[0].UserID)
}

func TestPollingSubscribeAfterClose(t *testing.T) {
	syncer := NewPollingSyncer(NewEventLog(), 10*time.Millisecond)
	require.NoError(t, syncer.Close())

	_, err := syncer.Subscribe("ch-1", 1, func(Event) {})
	assert.ErrorIs(t, err, ErrSyncerClosed)
}

func TestSubscriptionCarriesEpoch(t *testing.T) {
	syncer := NewPollingSyncer(NewEventLog(), 10*time.Millisecond)
	defer syncer.Close()

	sub, err := syncer.Subscribe("ch-1", 7, func(Event) {})
	require.NoError(t, err)
	defer sub.Unsubscribe()

	assert.Equal(t, uint64(7), sub.Epoch)
	assert.Equal(t, "ch-1", sub.ChannelID)
}
