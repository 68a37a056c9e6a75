package realtime

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fleetpulse/connect/models"
	"github.com/fleetpulse/connect/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTables, Tables sözleşmesinin in-memory implementasyonu.
type fakeTables struct {
	mu       sync.Mutex
	messages map[string]models.Message
	typing   map[string]time.Time // "channelID/userID" → yazılma anı
}

func newFakeTables() *fakeTables {
	return &fakeTables{
		messages: make(map[string]models.Message),
		typing:   make(map[string]time.Time),
	}
}

func (f *fakeTables) InsertMessage(_ context.Context, msg *models.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[msg.ID] = *msg
	return nil
}

func (f *fakeTables) GetMessage(_ context.Context, id string) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.messages[id]
	if !ok {
		return nil, pkg.ErrNotFound
	}
	return &msg, nil
}

func (f *fakeTables) UpsertTyping(_ context.Context, channelID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typing[channelID+"/"+userID] = time.Now()
	return nil
}

func (f *fakeTables) DeleteTyping(_ context.Context, channelID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.typing, channelID+"/"+userID)
	return nil
}

func (f *fakeTables) ListTypingUsers(_ context.Context, channelID string, since time.Time) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var users []string
	prefix := channelID + "/"
	for key, at := range f.typing {
		if len(key) > len(prefix) && key[:len(prefix)] == prefix && at.After(since) {
			users = append(users, key[len(prefix):])
		}
	}
	return users, nil
}

func newManagedPair(t *testing.T) (*ManagedSyncer, *ManagedSyncer, *fakeTables) {
	t.Helper()
	tables := newFakeTables()
	notifier := NewLocalNotifier()
	devA := NewManagedSyncer(tables, notifier, time.Second, 10*time.Millisecond)
	devB := NewManagedSyncer(tables, notifier, time.Second, 10*time.Millisecond)
	t.Cleanup(func() { _ = devA.Close(); _ = devB.Close() })
	return devA, devB, tables
}

func TestManagedRefetchOnInsert(t *testing.T) {
	devA, devB, tables := newManagedPair(t)

	var col collector
	sub, err := devB.Subscribe("ch-1", 1, col.handle)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	msg := models.Message{
		ID: "m-1", ChannelID: "ch-1", UserID: "u-1",
		Content: "full row", Kind: models.MessageKindText,
		Timestamp: time.Now(), Status: models.MessageStatusDelivered,
	}
	require.NoError(t, devA.PublishMessage(msg))

	waitFor(t, func() bool { return len(col.snapshot()) >= 1 })

	events := col.snapshot()
	require.Len(t, events, 1)
	assert.Equal(t, OpMessageCreate, events[0].Op)
	// bildirim adres taşır, içerik tablodan refetch edilir
	require.NotNil(t, events[0].Message)
	assert.Equal(t, "full row", events[0].Message.Content)

	// satır gerçekten tabloda
	stored, err := tables.GetMessage(context.Background(), "m-1")
	require.NoError(t, err)
	assert.Equal(t, "ch-1", stored.ChannelID)
}

func TestManagedChannelFilter(t *testing.T) {
	devA, devB, _ := newManagedPair(t)

	var col collector
	sub, err := devB.Subscribe("ch-1", 1, col.handle)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	require.NoError(t, devA.PublishMessage(models.Message{ID: "m-2", ChannelID: "ch-2", UserID: "u-1", Content: "elsewhere"}))
	time.Sleep(50 * time.Millisecond)

	assert.Empty(t, col.snapshot(), "insert in another channel is filtered out")
}

func TestManagedTypingStartStop(t *testing.T) {
	devA, devB, _ := newManagedPair(t)

	var col collector
	sub, err := devB.Subscribe("ch-1", 1, col.handle)
	require.NoError(t, err)
	defer sub.Unsubscribe()

	require.NoError(t, devA.PublishTyping("ch-1", "u-2", true))
	waitFor(t, func() bool {
		for _, ev := range col.snapshot() {
			if ev.Op == OpTypingStart && ev.UserID == "u-2" {
				return true
			}
		}
		return false
	})

	require.NoError(t, devA.PublishTyping("ch-1", "u-2", false))
	waitFor(t, func() bool {
		for _, ev := range col.snapshot() {
			if ev.Op == OpTypingStop && ev.UserID == "u-2" {
				return true
			}
		}
		return false
	})

	// poll diff'i geçişleri bir kez üretir, her turda tekrar etmez
	startCount := 0
	for _, ev := range col.snapshot() {
		if ev.Op == OpTypingStart {
			startCount++
		}
	}
	assert.Equal(t, 1, startCount)
}

func TestManagedUnsubscribeStopsDelivery(t *testing.T) {
	devA, devB, _ := newManagedPair(t)

	var col collector
	sub, err := devB.Subscribe("ch-1", 1, col.handle)
	require.NoError(t, err)

	sub.Unsubscribe()

	require.NoError(t, devA.PublishMessage(models.Message{ID: "m-3", ChannelID: "ch-1", UserID: "u-1", Content: "late"}))
	time.Sleep(50 * time.Millisecond)

	assert.Empty(t, col.snapshot())
}

func TestManagedPublishAfterTablesError(t *testing.T) {
	syncer := NewManagedSyncer(newFakeTables(), NewLocalNotifier(), time.Second, 10*time.Millisecond)
	require.NoError(t, syncer.Close())

	_, err := syncer.Subscribe("ch-1", 1, func(Event) {})
	assert.ErrorIs(t, err, pkg.ErrSyncTransport)
}
