// Package ratelimit, backend'in iki istismar yüzeyini in-memory sayaçlarla
// sınırlar: sign-in brute-force denemeleri (IP bazlı, SignInRateLimiter)
// ve mesaj spam'i (kullanıcı bazlı, MessageRateLimiter).
//
// Sayaçlar bilinçli olarak process içindedir: backend tek instance çalışır,
// her deneme için SQLite'a yazmak gereksiz contention yaratır ve sayaçların
// restart'ta sıfırlanması kabul edilebilir bir kayıptır. Paket hiçbir proje
// içi pakete bağımlı değildir — handlers hem middleware hem bu paketi
// import edebilir, cycle oluşmaz.
package ratelimit

import (
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"
)

// attemptBucket, bir IP'nin pencere içindeki sign-in deneme sayacı.
type attemptBucket struct {
	count       int
	windowStart time.Time
}

// SignInRateLimiter, /api/auth/signin için IP bazlı sliding-window limiter.
//
// Saha tabletleri çoğunlukla depo Wi-Fi'ının tek çıkış IP'sini paylaşır —
// pencere o IP'nin TOPLAM deneme sayısını sınırlar, bu yüzden başarılı
// girişte Reset çağrılır ki meşru bir sürücünün girişi yanındaki meslektaşını
// kilitlemesin.
type SignInRateLimiter struct {
	mu          sync.RWMutex
	buckets     map[string]*attemptBucket
	maxAttempts int
	window      time.Duration
	stop        chan struct{}
}

// NewSignInRateLimiter, limiter'ı oluşturur ve eski bucket'ları süpüren
// janitor goroutine'ini başlatır.
func NewSignInRateLimiter(maxAttempts int, window time.Duration) *SignInRateLimiter {
	rl := &SignInRateLimiter{
		buckets:     make(map[string]*attemptBucket),
		maxAttempts: maxAttempts,
		window:      window,
		stop:        make(chan struct{}),
	}
	go rl.janitor()
	return rl
}

// Allow, IP'nin yeni bir sign-in denemesine izin verilip verilmediğini döner.
// false dönerse caller 429 dönmelidir. Her çağrı sayacı artırır — deneme
// başarısız da olsa pencereye sayılır.
func (rl *SignInRateLimiter) Allow(ip string) bool {
	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	b, ok := rl.buckets[ip]
	if !ok {
		rl.buckets[ip] = &attemptBucket{count: 1, windowStart: now}
		return true
	}

	if now.Sub(b.windowStart) > rl.window {
		b.count = 1
		b.windowStart = now
		return true
	}

	b.count++
	return b.count <= rl.maxAttempts
}

// Reset, başarılı sign-in sonrası IP'nin sayacını siler.
// Paylaşılan depo IP'lerinde bu çağrı atlanırsa bir kişinin başarılı girişi
// aynı ağdaki diğerlerini pencere bitene kadar bloke eder.
func (rl *SignInRateLimiter) Reset(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	delete(rl.buckets, ip)
}

// RetryAfterSeconds, pencere dolana kadar kalan süreyi saniye cinsinden
// döner — 429 yanıtındaki bekleme mesajı için. Bucket yoksa 0.
func (rl *SignInRateLimiter) RetryAfterSeconds(ip string) int {
	rl.mu.RLock()
	defer rl.mu.RUnlock()

	b, ok := rl.buckets[ip]
	if !ok {
		return 0
	}

	remaining := rl.window - time.Since(b.windowStart)
	if remaining < 0 {
		return 0
	}
	// yukarı yuvarla — client tam süreyi beklesin
	return int(remaining.Seconds()) + 1
}

// Close, janitor goroutine'ini durdurur.
func (rl *SignInRateLimiter) Close() {
	close(rl.stop)
}

// janitor, pencere süresi geçmiş bucket'ları periyodik siler.
// Tarama aralığı pencere süresine bağlıdır — daha sık taramanın faydası yok.
func (rl *SignInRateLimiter) janitor() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := time.Now()
			rl.mu.Lock()
			for ip, b := range rl.buckets {
				if now.Sub(b.windowStart) > rl.window {
					delete(rl.buckets, ip)
				}
			}
			rl.mu.Unlock()
		case <-rl.stop:
			return
		}
	}
}

// ExtractIP, request'ten client IP'sini çıkarır: X-Forwarded-For'un ilk
// girdisi, yoksa X-Real-IP, yoksa RemoteAddr'ın host kısmı. Backend
// üretimde bir reverse proxy arkasındadır — RemoteAddr orada her zaman
// proxy'nin adresidir.
func ExtractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for i := 0; i < len(xff); i++ {
			if xff[i] == ',' {
				return xff[:i]
			}
		}
		return xff
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// FormatRetryMessage, kalan saniyeyi kullanıcıya okunur hale getirir.
func FormatRetryMessage(seconds int) string {
	if seconds >= 60 {
		return fmt.Sprintf("%d minute(s)", seconds/60)
	}
	return fmt.Sprintf("%d second(s)", seconds)
}
