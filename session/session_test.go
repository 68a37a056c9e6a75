package session

import (
	"context"
	"testing"
	"time"

	"github.com/fleetpulse/connect/models"
	"github.com/fleetpulse/connect/pkg"
	"github.com/fleetpulse/connect/realtime"
	"github.com/fleetpulse/connect/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeAuth, Authenticator sözleşmesinin in-memory implementasyonu.
type fakeAuth struct {
	users map[string]models.User // email → user
}

func (f *fakeAuth) SignIn(_ context.Context, req *models.SignInRequest) (*services.AuthResult, error) {
	user, ok := f.users[req.Email]
	if !ok || req.Password != "password" {
		return nil, pkg.ErrAuth
	}
	return &services.AuthResult{
		AccessToken: "test-token",
		ExpiresAt:   time.Now().Add(time.Hour),
		User:        user,
	}, nil
}

func (f *fakeAuth) SignOut(context.Context, string) error { return nil }

// fakeChannels, ChannelSource sözleşmesinin in-memory implementasyonu.
type fakeChannels struct {
	channels []models.Channel
}

func (f *fakeChannels) List(context.Context) ([]models.Channel, error) {
	return f.channels, nil
}

var (
	allRoles  = models.RoleSet{models.RoleDriver, models.RoleManager, models.RoleAdmin}
	mgmtRoles = models.RoleSet{models.RoleManager, models.RoleAdmin}
)

func fixtureAuth() *fakeAuth {
	return &fakeAuth{users: map[string]models.User{
		"driver@fleetpulse.io": {ID: "u-driver", Username: "murat", Email: "driver@fleetpulse.io", Role: models.RoleDriver},
		"admin@fleetpulse.io":  {ID: "u-admin", Username: "gokhan", Email: "admin@fleetpulse.io", Role: models.RoleAdmin},
	}}
}

func fixtureCatalog() *fakeChannels {
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	return &fakeChannels{channels: []models.Channel{
		{
			ID: "ch-scheduling", Name: "scheduling", Kind: models.ChannelKindText,
			Category:    "Operations",
			Permissions: models.ChannelPermissions{Read: allRoles, Write: allRoles, Admin: mgmtRoles},
			CreatedAt:   base,
		},
		{
			ID: "ch-alerts", Name: "fleetio-alerts", Kind: models.ChannelKindAnnouncement,
			Category:    "Operations",
			Permissions: models.ChannelPermissions{Read: allRoles, Write: models.RoleSet{models.RoleAdmin}, Admin: models.RoleSet{models.RoleAdmin}},
			CreatedAt:   base.Add(time.Minute),
		},
		{
			ID: "ch-leadership", Name: "adp-leadership", Kind: models.ChannelKindText,
			Category:    "Management",
			Permissions: models.ChannelPermissions{Read: mgmtRoles, Write: mgmtRoles, Admin: models.RoleSet{models.RoleAdmin}},
			CreatedAt:   base.Add(2 * time.Minute),
		},
	}}
}

func newTestSession(t *testing.T, eventLog *realtime.EventLog) *Session {
	t.Helper()
	syncer := realtime.NewPollingSyncer(eventLog, 10*time.Millisecond)
	sess := New(fixtureAuth(), fixtureCatalog(), syncer)
	t.Cleanup(func() {
		_ = syncer.Close()
		sess.Close()
	})
	return sess
}

func signIn(t *testing.T, sess *Session, email string) *models.User {
	t.Helper()
	user, err := sess.SignIn(context.Background(), email, "password")
	require.NoError(t, err)
	return user
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

func TestSignInLoadsState(t *testing.T) {
	sess := newTestSession(t, realtime.NewEventLog())
	user := signIn(t, sess, "driver@fleetpulse.io")

	assert.Equal(t, "u-driver", user.ID)

	current, ok := sess.CurrentUser()
	require.True(t, ok)
	assert.Equal(t, "u-driver", current.ID)

	channels, err := sess.ChannelsForUser()
	require.NoError(t, err)
	// management kanalı sürücüye görünmez
	require.Len(t, channels, 2)

	settings := sess.NotificationSettings()
	assert.True(t, settings.Mentions)
	assert.False(t, settings.AllMessages)
}

func TestOperationsRequireSignIn(t *testing.T) {
	sess := newTestSession(t, realtime.NewEventLog())

	_, err := sess.SendMessage("ch-scheduling", &models.CreateMessageRequest{Content: "hi"})
	assert.ErrorIs(t, err, pkg.ErrAuth)

	_, err = sess.ChannelsForUser()
	assert.ErrorIs(t, err, pkg.ErrAuth)

	assert.ErrorIs(t, sess.SetTyping("ch-scheduling", true), pkg.ErrAuth)
}

func TestDriverBlockedFromAdminChannel(t *testing.T) {
	sess := newTestSession(t, realtime.NewEventLog())
	signIn(t, sess, "driver@fleetpulse.io")

	// announcement kanalı: okunur ama sadece admin yazar
	_, err := sess.SendMessage("ch-alerts", &models.CreateMessageRequest{Content: "not allowed"})
	require.ErrorIs(t, err, pkg.ErrPermission)

	// engellenen gönderim log'a hiçbir şey eklemez
	msgs, err := sess.MessagesForChannel("ch-alerts")
	require.NoError(t, err)
	assert.Empty(t, msgs)

	// görünmeyen kanal hem açılamaz hem okunamaz
	assert.ErrorIs(t, sess.OpenChannel("ch-leadership"), pkg.ErrPermission)
	_, err = sess.MessagesForChannel("ch-leadership")
	assert.ErrorIs(t, err, pkg.ErrPermission)
}

func TestSendPublishesToOtherDevice(t *testing.T) {
	eventLog := realtime.NewEventLog()
	devA := newTestSession(t, eventLog)
	devB := newTestSession(t, eventLog)

	signIn(t, devA, "driver@fleetpulse.io")
	signIn(t, devB, "admin@fleetpulse.io")
	require.NoError(t, devB.OpenChannel("ch-scheduling"))

	sent, err := devA.SendMessage("ch-scheduling", &models.CreateMessageRequest{Content: "shift swap?"})
	require.NoError(t, err)

	waitFor(t, func() bool {
		msgs, err := devB.MessagesForChannel("ch-scheduling")
		return err == nil && len(msgs) == 1
	})

	msgs, err := devB.MessagesForChannel("ch-scheduling")
	require.NoError(t, err)
	assert.Equal(t, sent.ID, msgs[0].ID)
	assert.Equal(t, "shift swap?", msgs[0].Content)
}

func TestTypingPropagatesAndExcludesSelf(t *testing.T) {
	eventLog := realtime.NewEventLog()
	devA := newTestSession(t, eventLog)
	devB := newTestSession(t, eventLog)

	signIn(t, devA, "driver@fleetpulse.io")
	signIn(t, devB, "admin@fleetpulse.io")
	require.NoError(t, devB.OpenChannel("ch-scheduling"))

	require.NoError(t, devA.SetTyping("ch-scheduling", true))

	waitFor(t, func() bool {
		users, err := devB.TypingUsers("ch-scheduling")
		return err == nil && len(users) == 1
	})

	// gönderen kendi typing indicator'ını görmez
	own, err := devA.TypingUsers("ch-scheduling")
	require.NoError(t, err)
	assert.Empty(t, own)
}

func TestEditRequiresAuthorship(t *testing.T) {
	eventLog := realtime.NewEventLog()
	devA := newTestSession(t, eventLog)
	devB := newTestSession(t, eventLog)

	signIn(t, devA, "driver@fleetpulse.io")
	signIn(t, devB, "admin@fleetpulse.io")
	require.NoError(t, devB.OpenChannel("ch-scheduling"))

	sent, err := devA.SendMessage("ch-scheduling", &models.CreateMessageRequest{Content: "typo"})
	require.NoError(t, err)

	waitFor(t, func() bool {
		msgs, _ := devB.MessagesForChannel("ch-scheduling")
		return len(msgs) == 1
	})

	// admin bile olsa başkasının mesajını düzenleyemez
	_, err = devB.EditMessage(sent.ID, &models.UpdateMessageRequest{Content: "hijack"})
	assert.ErrorIs(t, err, pkg.ErrPermission)

	edited, err := devA.EditMessage(sent.ID, &models.UpdateMessageRequest{Content: "fixed"})
	require.NoError(t, err)
	assert.Equal(t, "fixed", edited.Content)
}

func TestDeleteByAuthorOrChannelAdmin(t *testing.T) {
	eventLog := realtime.NewEventLog()
	devA := newTestSession(t, eventLog)
	devB := newTestSession(t, eventLog)

	signIn(t, devA, "driver@fleetpulse.io")
	signIn(t, devB, "admin@fleetpulse.io")
	require.NoError(t, devB.OpenChannel("ch-scheduling"))

	sent, err := devA.SendMessage("ch-scheduling", &models.CreateMessageRequest{Content: "to be moderated"})
	require.NoError(t, err)

	waitFor(t, func() bool {
		msgs, _ := devB.MessagesForChannel("ch-scheduling")
		return len(msgs) == 1
	})

	// admin rolü kanalın admin kümesinde → başkasının mesajını silebilir
	require.NoError(t, devB.DeleteMessage(sent.ID))

	msgs, err := devB.MessagesForChannel("ch-scheduling")
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestPinToggleByChannelMember(t *testing.T) {
	sess := newTestSession(t, realtime.NewEventLog())
	signIn(t, sess, "driver@fleetpulse.io")

	sent, err := sess.SendMessage("ch-scheduling", &models.CreateMessageRequest{Content: "pin me"})
	require.NoError(t, err)

	// Kanalı görebilen her üye pin'leyebilir — admin yetkisi gerekmez
	pinned, err := sess.TogglePinMessage(sent.ID)
	require.NoError(t, err)
	assert.True(t, pinned)

	pinned, err = sess.TogglePinMessage(sent.ID)
	require.NoError(t, err)
	assert.False(t, pinned)
}

func TestMarkChannelAsReadAndViewerStatus(t *testing.T) {
	eventLog := realtime.NewEventLog()
	devA := newTestSession(t, eventLog)
	devB := newTestSession(t, eventLog)

	signIn(t, devA, "driver@fleetpulse.io")
	signIn(t, devB, "admin@fleetpulse.io")
	require.NoError(t, devB.OpenChannel("ch-scheduling"))

	_, err := devA.SendMessage("ch-scheduling", &models.CreateMessageRequest{Content: "read me"})
	require.NoError(t, err)

	waitFor(t, func() bool {
		msgs, _ := devB.MessagesForChannel("ch-scheduling")
		return len(msgs) == 1
	})

	// okumadan önce izleyici için delivered
	msgs, err := devB.MessagesForChannel("ch-scheduling")
	require.NoError(t, err)
	assert.Equal(t, models.MessageStatusDelivered, msgs[0].Status)

	require.NoError(t, devB.MarkChannelAsRead("ch-scheduling"))

	msgs, err = devB.MessagesForChannel("ch-scheduling")
	require.NoError(t, err)
	assert.Equal(t, models.MessageStatusRead, msgs[0].Status)
}

func TestSignOutTeardown(t *testing.T) {
	eventLog := realtime.NewEventLog()
	devA := newTestSession(t, eventLog)
	devB := newTestSession(t, eventLog)

	signIn(t, devA, "driver@fleetpulse.io")
	signIn(t, devB, "admin@fleetpulse.io")
	require.NoError(t, devB.OpenChannel("ch-scheduling"))

	require.NoError(t, devB.SignOut(context.Background()))

	// state temizlendi
	_, ok := devB.CurrentUser()
	assert.False(t, ok)
	_, err := devB.ChannelsForUser()
	assert.ErrorIs(t, err, pkg.ErrAuth)

	// sign-out sonrası yayınlanan event eski oturuma uygulanmaz
	_, err = devA.SendMessage("ch-scheduling", &models.CreateMessageRequest{Content: "after sign-out"})
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)

	// yeniden giriş temiz state ile başlar
	signIn(t, devB, "admin@fleetpulse.io")
	msgs, err := devB.MessagesForChannel("ch-scheduling")
	require.NoError(t, err)
	assert.Empty(t, msgs, "events from the torn-down subscription never land")
}

func TestUpdateNotificationSettings(t *testing.T) {
	sess := newTestSession(t, realtime.NewEventLog())
	signIn(t, sess, "driver@fleetpulse.io")

	settings := sess.NotificationSettings()
	settings.AllMessages = true
	settings.SoundEnabled = false
	require.NoError(t, sess.UpdateNotificationSettings(settings))

	got := sess.NotificationSettings()
	assert.True(t, got.AllMessages)
	assert.False(t, got.SoundEnabled)

	// sign-out → varsayılana döner
	require.NoError(t, sess.SignOut(context.Background()))
	signIn(t, sess, "driver@fleetpulse.io")
	assert.False(t, sess.NotificationSettings().AllMessages)
}
