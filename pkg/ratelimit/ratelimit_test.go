package ratelimit

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignInLimiterWindowOverflow(t *testing.T) {
	rl := NewSignInRateLimiter(3, time.Minute)
	defer rl.Close()

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.0.0.1"))
	}
	assert.False(t, rl.Allow("10.0.0.1"))

	// başka IP'ler etkilenmez
	assert.True(t, rl.Allow("10.0.0.2"))
}

func TestSignInLimiterResetClearsCounter(t *testing.T) {
	rl := NewSignInRateLimiter(2, time.Minute)
	defer rl.Close()

	require.True(t, rl.Allow("10.0.0.1"))
	require.True(t, rl.Allow("10.0.0.1"))
	require.False(t, rl.Allow("10.0.0.1"))

	// başarılı giriş sayacı siler — paylaşılan depo IP'si kilitli kalmaz
	rl.Reset("10.0.0.1")
	assert.True(t, rl.Allow("10.0.0.1"))
}

func TestSignInLimiterWindowExpiry(t *testing.T) {
	rl := NewSignInRateLimiter(1, 30*time.Millisecond)
	defer rl.Close()

	require.True(t, rl.Allow("10.0.0.1"))
	require.False(t, rl.Allow("10.0.0.1"))

	time.Sleep(50 * time.Millisecond)
	assert.True(t, rl.Allow("10.0.0.1"))
}

func TestSignInLimiterRetryAfter(t *testing.T) {
	rl := NewSignInRateLimiter(1, time.Minute)
	defer rl.Close()

	assert.Zero(t, rl.RetryAfterSeconds("10.0.0.1"), "bucket yokken 0")

	rl.Allow("10.0.0.1")
	secs := rl.RetryAfterSeconds("10.0.0.1")
	assert.Greater(t, secs, 0)
	assert.LessOrEqual(t, secs, 61)
}

func TestExtractIPPriority(t *testing.T) {
	r := httptest.NewRequest("POST", "/api/auth/signin", nil)
	r.RemoteAddr = "192.168.1.50:41234"

	assert.Equal(t, "192.168.1.50", ExtractIP(r))

	r.Header.Set("X-Real-IP", "172.16.0.9")
	assert.Equal(t, "172.16.0.9", ExtractIP(r))

	// XFF kazanır, ilk girdi client'tır
	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", ExtractIP(r))
}

func TestFormatRetryMessage(t *testing.T) {
	assert.Equal(t, "45 second(s)", FormatRetryMessage(45))
	assert.Equal(t, "2 minute(s)", FormatRetryMessage(120))
}

func TestMessageLimiterCooldown(t *testing.T) {
	rl := NewMessageRateLimiter(2, time.Minute, 40*time.Millisecond)
	defer rl.Close()

	require.True(t, rl.Allow("usr-driver-1"))
	require.True(t, rl.Allow("usr-driver-1"))

	// pencere taştı → cooldown başlar
	require.False(t, rl.Allow("usr-driver-1"))
	assert.Greater(t, rl.CooldownSeconds("usr-driver-1"), 0)

	// cooldown içinde retry işe yaramaz
	require.False(t, rl.Allow("usr-driver-1"))

	time.Sleep(60 * time.Millisecond)
	assert.True(t, rl.Allow("usr-driver-1"), "cooldown bitince temiz pencere")
	assert.Zero(t, rl.CooldownSeconds("usr-driver-1"))
}

func TestMessageLimiterPerUser(t *testing.T) {
	rl := NewMessageRateLimiter(1, time.Minute, time.Minute)
	defer rl.Close()

	require.True(t, rl.Allow("usr-driver-1"))
	require.False(t, rl.Allow("usr-driver-1"))

	// bir kullanıcının cooldown'ı diğerini etkilemez
	assert.True(t, rl.Allow("usr-manager-1"))
}
