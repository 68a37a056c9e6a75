package store

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/fleetpulse/connect/models"
	"github.com/fleetpulse/connect/pkg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMessage(t *testing.T, s *MessageStore, channelID, userID, content string) *models.Message {
	t.Helper()
	msg, err := s.Append(channelID, userID, &models.CreateMessageRequest{Content: content})
	require.NoError(t, err)
	return msg
}

func TestAppendOrdering(t *testing.T) {
	s := New()

	m1 := newMessage(t, s, "ch-1", "u-1", "first")
	m2 := newMessage(t, s, "ch-1", "u-2", "second")
	m3 := newMessage(t, s, "ch-1", "u-1", "third")
	newMessage(t, s, "ch-2", "u-1", "elsewhere")

	list := s.ListVisible("ch-1")
	require.Len(t, list, 3)
	assert.Equal(t, m1.ID, list[0].ID)
	assert.Equal(t, m2.ID, list[1].ID)
	assert.Equal(t, m3.ID, list[2].ID)

	for i := 1; i < len(list); i++ {
		assert.False(t, list[i].Timestamp.Before(list[i-1].Timestamp))
	}
}

func TestAppendValidation(t *testing.T) {
	s := New()

	_, err := s.Append("ch-1", "u-1", &models.CreateMessageRequest{Content: "   "})
	require.Error(t, err)
	assert.ErrorIs(t, err, pkg.ErrValidation)
	assert.Empty(t, s.ListVisible("ch-1"))
}

func TestApplyRemoteIdempotent(t *testing.T) {
	s := New()

	remote := models.Message{
		ID:        "remote-1",
		ChannelID: "ch-1",
		UserID:    "u-2",
		Content:   "from another device",
		Kind:      models.MessageKindText,
		Timestamp: time.Now(),
		Status:    models.MessageStatusDelivered,
	}

	assert.True(t, s.ApplyRemote(remote))
	assert.False(t, s.ApplyRemote(remote), "duplicate delivery must be a no-op")
	assert.False(t, s.ApplyRemote(remote))

	list := s.ListVisible("ch-1")
	require.Len(t, list, 1)
	assert.Equal(t, "remote-1", list[0].ID)
	assert.NotNil(t, list[0].Reactions)
	assert.NotNil(t, list[0].ReadBy)
}

func TestEdit(t *testing.T) {
	s := New()
	orig := newMessage(t, s, "ch-1", "u-1", "typo here")

	edited, err := s.Edit(orig.ID, &models.UpdateMessageRequest{Content: "fixed"})
	require.NoError(t, err)
	assert.Equal(t, "fixed", edited.Content)
	require.NotNil(t, edited.EditedAt)

	// id, yazar, kanal ve timestamp değişmemeli
	assert.Equal(t, orig.ID, edited.ID)
	assert.Equal(t, orig.UserID, edited.UserID)
	assert.Equal(t, orig.ChannelID, edited.ChannelID)
	assert.True(t, orig.Timestamp.Equal(edited.Timestamp))

	_, err = s.Edit("no-such-id", &models.UpdateMessageRequest{Content: "x"})
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestEditDeletedMessage(t *testing.T) {
	s := New()
	msg := newMessage(t, s, "ch-1", "u-1", "soon gone")

	require.NoError(t, s.SoftDelete(msg.ID))
	_, err := s.Edit(msg.ID, &models.UpdateMessageRequest{Content: "x"})
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestSoftDeleteIdempotent(t *testing.T) {
	s := New()
	msg := newMessage(t, s, "ch-1", "u-1", "bye")
	newMessage(t, s, "ch-1", "u-1", "stays")

	require.NoError(t, s.SoftDelete(msg.ID))
	require.NoError(t, s.SoftDelete(msg.ID), "second delete is a no-op")

	list := s.ListVisible("ch-1")
	require.Len(t, list, 1)
	assert.Equal(t, "stays", list[0].Content)

	// kayıt fiziksel silinmez, ID rezerve kalır
	got, ok := s.Get(msg.ID)
	require.True(t, ok)
	assert.True(t, got.IsDeleted)

	assert.ErrorIs(t, s.SoftDelete("no-such-id"), pkg.ErrNotFound)
}

func TestMarkReadIdempotent(t *testing.T) {
	s := New()
	msg := newMessage(t, s, "ch-1", "u-1", "read me")

	require.NoError(t, s.MarkRead(msg.ID, "u-2"))
	require.NoError(t, s.MarkRead(msg.ID, "u-2"))
	require.NoError(t, s.MarkRead(msg.ID, "u-3"))

	got, ok := s.Get(msg.ID)
	require.True(t, ok)
	assert.Equal(t, []string{"u-2", "u-3"}, got.ReadBy)
	assert.Equal(t, models.MessageStatusRead, got.Status)

	// izleyici bazlı kesin durum
	assert.Equal(t, models.MessageStatusRead, got.StatusFor("u-2"))
	assert.Equal(t, models.MessageStatusDelivered, got.StatusFor("u-4"))
}

func TestMarkChannelRead(t *testing.T) {
	s := New()
	m1 := newMessage(t, s, "ch-1", "u-1", "one")
	m2 := newMessage(t, s, "ch-1", "u-1", "two")
	deleted := newMessage(t, s, "ch-1", "u-1", "gone")
	require.NoError(t, s.SoftDelete(deleted.ID))
	require.NoError(t, s.MarkRead(m1.ID, "u-9"))

	s.MarkChannelRead("ch-1", "u-2")

	g1, _ := s.Get(m1.ID)
	g2, _ := s.Get(m2.ID)
	// mevcut readBy girdileri kaybolmaz, yeni kullanıcı eklenir
	assert.ElementsMatch(t, []string{"u-9", "u-2"}, g1.ReadBy)
	assert.Equal(t, []string{"u-2"}, g2.ReadBy)

	gd, _ := s.Get(deleted.ID)
	assert.Empty(t, gd.ReadBy, "soft-deleted messages are skipped")
}

func TestTogglePin(t *testing.T) {
	s := New()
	msg := newMessage(t, s, "ch-1", "u-1", "important")

	pinned, err := s.TogglePin(msg.ID)
	require.NoError(t, err)
	assert.True(t, pinned)

	pinned, err = s.TogglePin(msg.ID)
	require.NoError(t, err)
	assert.False(t, pinned)

	_, err = s.TogglePin("no-such-id")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestToggleReaction(t *testing.T) {
	s := New()
	msg := newMessage(t, s, "ch-1", "u-1", "react")

	require.NoError(t, s.ToggleReaction(msg.ID, "u-2", "👍"))
	require.NoError(t, s.ToggleReaction(msg.ID, "u-3", "👍"))

	got, _ := s.Get(msg.ID)
	require.Len(t, got.Reactions, 2)
	assert.Equal(t, "u-2", got.Reactions[0].UserID)

	// aynı kullanıcı + emoji tekrar → kaldırılır
	require.NoError(t, s.ToggleReaction(msg.ID, "u-2", "👍"))
	got, _ = s.Get(msg.ID)
	require.Len(t, got.Reactions, 1)
	assert.Equal(t, "u-3", got.Reactions[0].UserID)
}

func TestCopiesNormalizeEmptySlices(t *testing.T) {
	s := New()
	msg := newMessage(t, s, "ch-1", "u-1", "fresh")

	// Append/Get/ListVisible'dan çıkan kopyalarda boş slice'lar nil'e
	// düşmemeli — wire shape "reactions":[] bekler, null değil
	assert.NotNil(t, msg.Reactions)
	assert.NotNil(t, msg.ReadBy)

	got, ok := s.Get(msg.ID)
	require.True(t, ok)
	assert.NotNil(t, got.Reactions)
	assert.NotNil(t, got.ReadBy)

	list := s.ListVisible("ch-1")
	require.Len(t, list, 1)
	data, err := json.Marshal(list[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), `"reactions":[]`)
	assert.Contains(t, string(data), `"read_by":[]`)
	assert.NotContains(t, string(data), `"reactions":null`)
}

func TestListVisibleReturnsCopies(t *testing.T) {
	s := New()
	msg := newMessage(t, s, "ch-1", "u-1", "original")

	list := s.ListVisible("ch-1")
	require.Len(t, list, 1)
	list[0].Content = "tampered"
	list[0].ReadBy = append(list[0].ReadBy, "u-x")

	got, _ := s.Get(msg.ID)
	assert.Equal(t, "original", got.Content)
	assert.Empty(t, got.ReadBy)
}

func TestClear(t *testing.T) {
	s := New()
	newMessage(t, s, "ch-1", "u-1", "a")
	newMessage(t, s, "ch-2", "u-1", "b")

	s.Clear()
	assert.Empty(t, s.ListVisible("ch-1"))
	assert.Empty(t, s.ListVisible("ch-2"))
}
