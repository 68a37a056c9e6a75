package ratelimit

import (
	"sync"
	"time"
)

// floodBucket, bir kullanıcının mesaj penceresi ve varsa aktif cooldown'ı.
type floodBucket struct {
	count         int
	windowStart   time.Time
	cooldownUntil time.Time
}

// MessageRateLimiter, kanal mesajları için kullanıcı bazlı flood koruması.
//
// Sign-in limiter'dan farklı olarak pencere taşınca sadece reddetmez,
// kullanıcıyı bir cooldown'a sokar: takılı kalmış bir tabletin retry
// döngüsü pencere her açıldığında tekrar taşırmasın. Cooldown süresince
// her Allow çağrısı false döner, pencere dolmuş olsa bile.
type MessageRateLimiter struct {
	mu          sync.RWMutex
	buckets     map[string]*floodBucket
	maxMessages int
	window      time.Duration
	cooldown    time.Duration
	stop        chan struct{}
}

// NewMessageRateLimiter, limiter'ı oluşturur ve janitor'ı başlatır.
func NewMessageRateLimiter(maxMessages int, window, cooldown time.Duration) *MessageRateLimiter {
	rl := &MessageRateLimiter{
		buckets:     make(map[string]*floodBucket),
		maxMessages: maxMessages,
		window:      window,
		cooldown:    cooldown,
		stop:        make(chan struct{}),
	}
	go rl.janitor()
	return rl
}

// Allow, kullanıcının yeni bir mesaj göndermesine izin verilip
// verilmediğini döner. Pencere taşarsa cooldown başlar.
func (rl *MessageRateLimiter) Allow(userID string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[userID]
	if !ok {
		rl.buckets[userID] = &floodBucket{count: 1, windowStart: now}
		return true
	}

	if now.Before(b.cooldownUntil) {
		return false
	}

	// cooldown bitti ya da pencere kapandı → temiz pencere
	if !b.cooldownUntil.IsZero() || now.Sub(b.windowStart) > rl.window {
		b.count = 1
		b.windowStart = now
		b.cooldownUntil = time.Time{}
		return true
	}

	b.count++
	if b.count > rl.maxMessages {
		b.cooldownUntil = now.Add(rl.cooldown)
		return false
	}
	return true
}

// CooldownSeconds, kullanıcının cooldown'ından kalan süreyi saniye
// cinsinden döner — 429 yanıtındaki bekleme mesajı için. Cooldown yoksa 0.
func (rl *MessageRateLimiter) CooldownSeconds(userID string) int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	b, ok := rl.buckets[userID]
	if !ok {
		return 0
	}

	remaining := time.Until(b.cooldownUntil)
	if remaining <= 0 {
		return 0
	}
	return int(remaining.Seconds()) + 1
}

// Close, janitor goroutine'ini durdurur.
func (rl *MessageRateLimiter) Close() {
	close(rl.stop)
}

// janitor, hem penceresi hem cooldown'ı geçmiş bucket'ları süpürür.
// Cooldown'daki bir bucket silinirse kullanıcı cezasından erken çıkar,
// o yüzden iki koşul birden aranır.
func (rl *MessageRateLimiter) janitor() {
	ticker := time.NewTicker(rl.window + rl.cooldown)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			rl.mu.Lock()
			for userID, b := range rl.buckets {
				if now.Sub(b.windowStart) > rl.window && now.After(b.cooldownUntil) {
					delete(rl.buckets, userID)
				}
			}
			rl.mu.Unlock()
		case <-rl.stop:
			return
		}
	}
}
