// Package presence, typing indicator'ları ve kullanıcıların çevrimiçi
// durumunu izler.
//
// Typing state ephemeral'dir: hiçbir yerde persist edilmez, her kayıt
// 5 saniyelik TTL taşır. Kullanıcı yazmaya devam ettikçe kayıt yenilenir;
// explicit stop gelmese bile TTL düşürür — süre kontrolü okuma anında
// yapıldığı için arka plan timer'ına gerek yoktur, cleanup goroutine'i
// sadece map'i fiziksel olarak küçültür.
package presence

import (
	"sync"
	"time"

	"github.com/fleetpulse/connect/models"
	"github.com/fleetpulse/connect/pkg/cache"
)

// TypingTTL, bir typing kaydının yenilenmeden yaşayacağı süre.
const TypingTTL = 5 * time.Second

// cleanupInterval, süresi dolan kayıtların map'ten fiziksel silinme sıklığı.
const cleanupInterval = 10 * time.Second

// typingKey, typing state'in anahtarı — (kanal, kullanıcı) çifti.
type typingKey struct {
	channelID string
	userID    string
}

// Tracker, typing indicator'ları ve çevrimiçi kullanıcı kümesini tutar.
type Tracker struct {
	typing *cache.TTLCache[typingKey, time.Time]

	mu     sync.RWMutex
	online map[string]*models.User // userID → snapshot
}

// NewTracker, varsayılan 5s TTL ile bir Tracker oluşturur.
func NewTracker() *Tracker {
	return NewTrackerWithTTL(TypingTTL)
}

// NewTrackerWithTTL, verilen TTL ile bir Tracker oluşturur.
// Testler kısa TTL ile expiry davranışını doğrular.
func NewTrackerWithTTL(ttl time.Duration) *Tracker {
	return &Tracker{
		typing: cache.New[typingKey, time.Time](ttl, cleanupInterval),
		online: make(map[string]*models.User),
	}
}

// SetTyping, kullanıcının kanaldaki typing durumunu kaydeder.
// typing=true kayıt ekler veya TTL'i yeniler; typing=false kaydı
// anında düşürür (explicit stop).
func (t *Tracker) SetTyping(channelID, userID string, typing bool) {
	key := typingKey{channelID: channelID, userID: userID}
	if typing {
		t.typing.Set(key, time.Now())
		return
	}
	t.typing.Delete(key)
}

// TypingUsers, kanalda şu anda yazmakta olan kullanıcı ID'lerini döner.
// viewerID her zaman hariç tutulur — kullanıcı kendi typing indicator'ını
// görmez. Süresi dolan kayıtlar okuma anında elenir.
func (t *Tracker) TypingUsers(channelID, viewerID string) []string {
	keys := t.typing.Keys(func(key typingKey) bool {
		return key.channelID == channelID && key.userID != viewerID
	})

	users := make([]string, 0, len(keys))
	for _, key := range keys {
		users = append(users, key.userID)
	}
	return users
}

// ClearUser, kullanıcının tüm kanallardaki typing kayıtlarını düşürür.
// Sign-out teardown'ında kullanılır.
func (t *Tracker) ClearUser(userID string) {
	t.typing.DeleteFunc(func(key typingKey) bool {
		return key.userID == userID
	})
}

// MarkOnline, kullanıcıyı çevrimiçi kümesine ekler ve last_seen'i günceller.
func (t *Tracker) MarkOnline(user models.User) {
	t.mu.Lock()
	defer t.mu.Unlock()

	user.Status = models.UserStatusOnline
	user.LastSeen = time.Now()
	t.online[user.ID] = &user
}

// MarkOffline, kullanıcıyı çevrimiçi kümesinden çıkarır.
func (t *Tracker) MarkOffline(userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	delete(t.online, userID)
}

// Touch, kullanıcı aktivitesinde last_seen'i ileri alır.
func (t *Tracker) Touch(userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if u, ok := t.online[userID]; ok {
		u.LastSeen = time.Now()
	}
}

// OnlineUsers, çevrimiçi kullanıcıların snapshot listesini döner.
func (t *Tracker) OnlineUsers() []models.User {
	t.mu.RLock()
	defer t.mu.RUnlock()

	users := make([]models.User, 0, len(t.online))
	for _, u := range t.online {
		users = append(users, *u)
	}
	return users
}

// IsOnline, kullanıcının çevrimiçi olup olmadığını döner.
func (t *Tracker) IsOnline(userID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()

	_, ok := t.online[userID]
	return ok
}

// Clear, tüm typing ve presence state'ini boşaltır.
func (t *Tracker) Clear() {
	t.typing.Clear()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.online = make(map[string]*models.User)
}

// Close, alttaki cache'in cleanup goroutine'ini durdurur.
func (t *Tracker) Close() {
	t.typing.Close()
}
