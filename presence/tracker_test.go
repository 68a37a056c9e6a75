package presence

import (
	"testing"
	"time"

	"github.com/fleetpulse/connect/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypingExcludesViewer(t *testing.T) {
	tr := NewTracker()
	defer tr.Close()

	tr.SetTyping("ch-1", "u-1", true)
	tr.SetTyping("ch-1", "u-2", true)
	tr.SetTyping("ch-2", "u-3", true)

	users := tr.TypingUsers("ch-1", "u-1")
	assert.ElementsMatch(t, []string{"u-2"}, users, "viewer and other channels excluded")

	users = tr.TypingUsers("ch-1", "u-9")
	assert.ElementsMatch(t, []string{"u-1", "u-2"}, users)
}

func TestTypingExplicitStop(t *testing.T) {
	tr := NewTracker()
	defer tr.Close()

	tr.SetTyping("ch-1", "u-1", true)
	tr.SetTyping("ch-1", "u-1", false)

	assert.Empty(t, tr.TypingUsers("ch-1", "u-9"))
}

func TestTypingExpiresWithoutStop(t *testing.T) {
	tr := NewTrackerWithTTL(30 * time.Millisecond)
	defer tr.Close()

	tr.SetTyping("ch-1", "u-1", true)
	require.NotEmpty(t, tr.TypingUsers("ch-1", "u-9"))

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, tr.TypingUsers("ch-1", "u-9"), "entry expires even without explicit stop")
}

func TestTypingRefresh(t *testing.T) {
	tr := NewTrackerWithTTL(60 * time.Millisecond)
	defer tr.Close()

	tr.SetTyping("ch-1", "u-1", true)
	time.Sleep(40 * time.Millisecond)
	tr.SetTyping("ch-1", "u-1", true) // TTL baştan başlar
	time.Sleep(40 * time.Millisecond)

	assert.NotEmpty(t, tr.TypingUsers("ch-1", "u-9"), "refresh restarts the TTL")
}

func TestClearUser(t *testing.T) {
	tr := NewTracker()
	defer tr.Close()

	tr.SetTyping("ch-1", "u-1", true)
	tr.SetTyping("ch-2", "u-1", true)
	tr.SetTyping("ch-1", "u-2", true)

	tr.ClearUser("u-1")

	assert.Empty(t, tr.TypingUsers("ch-2", "u-9"))
	assert.ElementsMatch(t, []string{"u-2"}, tr.TypingUsers("ch-1", "u-9"))
}

func TestPresence(t *testing.T) {
	tr := NewTracker()
	defer tr.Close()

	tr.MarkOnline(models.User{ID: "u-1", Username: "ayse", Role: models.RoleDriver})
	tr.MarkOnline(models.User{ID: "u-2", Username: "mehmet", Role: models.RoleManager})

	assert.True(t, tr.IsOnline("u-1"))
	require.Len(t, tr.OnlineUsers(), 2)

	for _, u := range tr.OnlineUsers() {
		assert.Equal(t, models.UserStatusOnline, u.Status)
		assert.False(t, u.LastSeen.IsZero())
	}

	tr.MarkOffline("u-1")
	assert.False(t, tr.IsOnline("u-1"))
	assert.Len(t, tr.OnlineUsers(), 1)
}

func TestClear(t *testing.T) {
	tr := NewTracker()
	defer tr.Close()

	tr.SetTyping("ch-1", "u-1", true)
	tr.MarkOnline(models.User{ID: "u-1"})

	tr.Clear()

	assert.Empty(t, tr.TypingUsers("ch-1", "u-9"))
	assert.Empty(t, tr.OnlineUsers())
}
