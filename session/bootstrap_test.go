package session

import (
	"testing"
	"time"

	"github.com/fleetpulse/connect/config"
	"github.com/fleetpulse/connect/models"
	"github.com/fleetpulse/connect/realtime"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPollingSessionsShareLog(t *testing.T) {
	eventLog := realtime.NewEventLog()

	a := NewPolling(fixtureAuth(), fixtureCatalog(), eventLog, 10*time.Millisecond)
	b := NewPolling(fixtureAuth(), fixtureCatalog(), eventLog, 10*time.Millisecond)
	t.Cleanup(func() {
		a.Close()
		b.Close()
	})

	signIn(t, a, "driver@fleetpulse.io")
	signIn(t, b, "admin@fleetpulse.io")

	require.NoError(t, a.OpenChannel("ch-scheduling"))
	require.NoError(t, b.OpenChannel("ch-scheduling"))

	_, err := a.SendMessage("ch-scheduling", &models.CreateMessageRequest{Content: "shift swap?"})
	require.NoError(t, err)

	waitFor(t, func() bool {
		msgs, err := b.MessagesForChannel("ch-scheduling")
		return err == nil && len(msgs) == 1
	})

	msgs, err := b.MessagesForChannel("ch-scheduling")
	require.NoError(t, err)
	assert.Equal(t, "shift swap?", msgs[0].Content)
}

func TestNewFromConfigSelectsStrategy(t *testing.T) {
	cfg := config.SyncConfig{Strategy: config.SyncStrategyPolling, PollIntervalMS: 10}

	sess, err := NewFromConfig(cfg, fixtureAuth(), fixtureCatalog(), Collaborators{EventLog: realtime.NewEventLog()})
	require.NoError(t, err)
	t.Cleanup(sess.Close)

	signIn(t, sess, "driver@fleetpulse.io")
	_, err = sess.SendMessage("ch-scheduling", &models.CreateMessageRequest{Content: "hello"})
	require.NoError(t, err)

	// polling stratejisi EventLog ister
	_, err = NewFromConfig(cfg, fixtureAuth(), fixtureCatalog(), Collaborators{})
	assert.Error(t, err)

	_, err = NewFromConfig(config.SyncConfig{Strategy: "carrier-pigeon"}, fixtureAuth(), fixtureCatalog(), Collaborators{})
	assert.Error(t, err)
}
