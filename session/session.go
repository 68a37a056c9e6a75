// Package session, Connect çekirdeğinin UI'a açılan tek yüzeyidir.
//
// Session, oturum state aggregate'ini (kullanıcı, kanal kataloğu, mesaj
// log'ları, presence/typing, bildirim tercihleri) sahiplenir ve tüm
// command/query operasyonlarını tek noktadan sunar. Hata çevirisi de
// burada biter: alt katmanlardan çıkan her hata pkg taksonomisindeki bir
// sentinel'e sarılı döner, UI errors.Is ile ayırt eder.
//
// Geç kalan callback'lere karşı jenerasyon sayacı kullanılır: her
// subscription açılırken o anki jenerasyonu taşır, SignOut jenerasyonu
// artırdıktan SONRA state'i temizler — eski oturumun event'i yeni state'e
// asla uygulanmaz.
package session

import (
	"context"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fleetpulse/connect/directory"
	"github.com/fleetpulse/connect/models"
	"github.com/fleetpulse/connect/pkg"
	"github.com/fleetpulse/connect/presence"
	"github.com/fleetpulse/connect/realtime"
	"github.com/fleetpulse/connect/services"
	"github.com/fleetpulse/connect/store"
)

// publishRetries / publishBackoff: transport hatasında yayın yeniden
// denenir, hata UI'a asla taşınmaz.
const (
	publishRetries = 3
	publishBackoff = 200 * time.Millisecond
)

// Authenticator, kimlik doğrulama collaborator'ının facade'a görünen yüzü.
// services.AuthService implicit karşılar; polling-only kurulumlar ve
// testler in-memory fake geçer.
type Authenticator interface {
	SignIn(ctx context.Context, req *models.SignInRequest) (*services.AuthResult, error)
	SignOut(ctx context.Context, userID string) error
}

// ChannelSource, kanal kataloğunun yüklendiği kaynak.
// repository.ChannelRepository implicit karşılar.
type ChannelSource interface {
	List(ctx context.Context) ([]models.Channel, error)
}

// Session, oturum facade'ı.
type Session struct {
	auth     Authenticator
	channels ChannelSource
	syncer   realtime.Syncer

	store   *store.MessageStore
	dir     *directory.Directory
	tracker *presence.Tracker

	generation atomic.Uint64

	mu       sync.RWMutex
	user     *models.User
	settings models.NotificationSettings
	subs     map[string]*realtime.Subscription // channelID → aktif abonelik
}

// New, verilen collaborator'larla bir Session oluşturur.
func New(auth Authenticator, channels ChannelSource, syncer realtime.Syncer) *Session {
	return &Session{
		auth:     auth,
		channels: channels,
		syncer:   syncer,
		store:    store.New(),
		dir:      directory.New(),
		tracker:  presence.NewTracker(),
		settings: models.DefaultNotificationSettings(),
		subs:     make(map[string]*realtime.Subscription),
	}
}

// ─── Oturum yaşam döngüsü ───

// SignIn, kullanıcıyı doğrular ve oturum state'ini kurar: kanal kataloğu
// yüklenir, kullanıcı çevrimiçi işaretlenir, bildirim tercihleri
// varsayılana döner.
func (s *Session) SignIn(ctx context.Context, email, password string) (*models.User, error) {
	result, err := s.auth.SignIn(ctx, &models.SignInRequest{Email: email, Password: password})
	if err != nil {
		return nil, err // auth collaborator zaten pkg sentinel'leri ile döner
	}

	catalog, err := s.channels.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load channel catalog: %v", pkg.ErrSyncTransport, err)
	}

	s.mu.Lock()
	user := result.User
	s.user = &user
	s.settings = models.DefaultNotificationSettings()
	s.mu.Unlock()

	s.dir.Replace(catalog)
	s.tracker.MarkOnline(user)

	// Görünür her kanal için senkronizasyon aboneliği açılır. Abonelik
	// hatası oturumu düşürmez — gerçek zamanlı akış bozulsa da temel
	// send/read çalışmaya devam eder.
	opened := 0
	for _, ch := range s.dir.ChannelsVisibleTo(&user) {
		if err := s.OpenChannel(ch.ID); err != nil {
			log.Printf("[session] subscribe failed for channel %s: %v", ch.ID, err)
			continue
		}
		opened++
	}

	log.Printf("[session] signed in: user=%s role=%s channels=%d subscribed=%d", user.ID, user.Role, len(catalog), opened)
	return &user, nil
}

// SignOut, oturumu kapatır.
//
// Sıra önemlidir: önce jenerasyon artar (geç kalan callback'ler düşer),
// sonra abonelikler senkron sökülür, EN SON state temizlenir. Böylece
// hiçbir sync callback'i yarı temizlenmiş state'e dokunamaz.
func (s *Session) SignOut(ctx context.Context) error {
	s.generation.Add(1)

	s.mu.Lock()
	subs := make([]*realtime.Subscription, 0, len(s.subs))
	for _, sub := range s.subs {
		subs = append(subs, sub)
	}
	s.subs = make(map[string]*realtime.Subscription)
	user := s.user
	s.user = nil
	s.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}

	if user != nil {
		s.tracker.ClearUser(user.ID)
		s.tracker.MarkOffline(user.ID)
		if err := s.auth.SignOut(ctx, user.ID); err != nil {
			log.Printf("[session] sign-out collaborator error: %v", err)
		}
		log.Printf("[session] signed out: user=%s", user.ID)
	}

	s.store.Clear()
	s.tracker.Clear()
	s.dir.Replace(nil)
	return nil
}

// CurrentUser, oturum açmış kullanıcıyı döner.
func (s *Session) CurrentUser() (*models.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.user == nil {
		return nil, false
	}
	u := *s.user
	return &u, true
}

// requireUser, oturum kontrolü yapan iç yardımcı.
func (s *Session) requireUser() (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.user == nil {
		return nil, fmt.Errorf("%w: not signed in", pkg.ErrAuth)
	}
	u := *s.user
	return &u, nil
}

// ─── Kanal aç/kapat (senkronizasyon abonelikleri) ───

// OpenChannel, kanalın senkronizasyon aboneliğini başlatır. Kullanıcının
// kanalı görme yetkisi yoksa ErrPermission döner.
//
// Handler her event'te jenerasyonu kontrol eder — abonelik açıldıktan
// sonra oturum kapanıp yeniden açılmışsa eski event'ler sessizce düşer.
func (s *Session) OpenChannel(channelID string) error {
	user, err := s.requireUser()
	if err != nil {
		return err
	}

	ch, ok := s.dir.Get(channelID)
	if !ok {
		return pkg.ErrNotFound
	}
	if !s.dir.CanRead(user, &ch) {
		return fmt.Errorf("%w: no read access to channel %s", pkg.ErrPermission, channelID)
	}

	s.mu.Lock()
	if _, exists := s.subs[channelID]; exists {
		s.mu.Unlock()
		return nil // zaten açık
	}
	s.mu.Unlock()

	epoch := s.generation.Load()
	sub, err := s.syncer.Subscribe(channelID, epoch, func(ev realtime.Event) {
		s.applyEvent(epoch, ev)
	})
	if err != nil {
		return fmt.Errorf("%w: subscribe channel %s: %v", pkg.ErrSyncTransport, channelID, err)
	}

	s.mu.Lock()
	s.subs[channelID] = sub
	s.mu.Unlock()
	return nil
}

// CloseChannel, kanalın aboneliğini senkron sonlandırır.
func (s *Session) CloseChannel(channelID string) {
	s.mu.Lock()
	sub, ok := s.subs[channelID]
	delete(s.subs, channelID)
	s.mu.Unlock()

	if ok {
		sub.Unsubscribe()
	}
}

// applyEvent, senkronizasyon katmanından gelen event'i state'e uygular.
// epoch, event'in ait olduğu oturum jenerasyonudur.
func (s *Session) applyEvent(epoch uint64, ev realtime.Event) {
	if epoch != s.generation.Load() {
		return // geç kalan callback — eski oturuma ait
	}

	switch ev.Op {
	case realtime.OpMessageCreate:
		if ev.Message != nil {
			s.store.ApplyRemote(*ev.Message)
		}
	case realtime.OpTypingStart:
		s.tracker.SetTyping(ev.ChannelID, ev.UserID, true)
	case realtime.OpTypingStop:
		s.tracker.SetTyping(ev.ChannelID, ev.UserID, false)
	case realtime.OpPresenceUpdate:
		// presence snapshot'ları şimdilik sadece tracker'dan okunur
	}
}

// ─── Mesaj komutları ───

// SendMessage, mesajı lokal log'a ekler ve diğer cihazlara yayınlar.
// Yazma yetkisi yoksa ErrPermission döner ve log'a HİÇBİR ŞEY eklenmez.
func (s *Session) SendMessage(channelID string, req *models.CreateMessageRequest) (*models.Message, error) {
	user, err := s.requireUser()
	if err != nil {
		return nil, err
	}

	ch, ok := s.dir.Get(channelID)
	if !ok {
		return nil, pkg.ErrNotFound
	}
	if !s.dir.CanWrite(user, &ch) {
		return nil, fmt.Errorf("%w: no write access to channel %s", pkg.ErrPermission, channelID)
	}

	msg, err := s.store.Append(channelID, user.ID, req)
	if err != nil {
		return nil, err
	}

	s.publishMessage(*msg)
	return msg, nil
}

// publishMessage, yayını transport hatalarında backoff ile yeniden dener.
// Transport hatası UI'a taşınmaz — mesaj lokalde zaten görünür.
func (s *Session) publishMessage(msg models.Message) {
	go func() {
		for attempt := 1; attempt <= publishRetries; attempt++ {
			err := s.syncer.PublishMessage(msg)
			if err == nil {
				return
			}
			log.Printf("[session] publish failed (attempt %d/%d): %v", attempt, publishRetries, err)
			time.Sleep(publishBackoff * time.Duration(attempt))
		}
		log.Printf("[session] publish gave up for message %s", msg.ID)
	}()
}

// EditMessage, mesaj içeriğini değiştirir. Sadece yazar düzenleyebilir.
func (s *Session) EditMessage(messageID string, req *models.UpdateMessageRequest) (*models.Message, error) {
	user, err := s.requireUser()
	if err != nil {
		return nil, err
	}

	msg, ok := s.store.Get(messageID)
	if !ok || msg.IsDeleted {
		return nil, pkg.ErrNotFound
	}
	if msg.UserID != user.ID {
		return nil, fmt.Errorf("%w: only the author can edit a message", pkg.ErrPermission)
	}

	return s.store.Edit(messageID, req)
}

// DeleteMessage, mesajı soft-delete eder. Yazar veya kanalın admin
// rolündeki bir kullanıcı silebilir.
func (s *Session) DeleteMessage(messageID string) error {
	user, err := s.requireUser()
	if err != nil {
		return err
	}

	msg, ok := s.store.Get(messageID)
	if !ok {
		return pkg.ErrNotFound
	}
	if msg.IsDeleted {
		return nil // idempotent
	}

	if msg.UserID != user.ID {
		ch, chOk := s.dir.Get(msg.ChannelID)
		if !chOk || !s.dir.CanAdminister(user, &ch) {
			return fmt.Errorf("%w: only the author or a channel admin can delete", pkg.ErrPermission)
		}
	}

	return s.store.SoftDelete(messageID)
}

// TogglePinMessage, mesajın pin durumunu değiştirir. Kanalı görebilen
// her üye pin'leyebilir — pin, moderasyon değil işaretleme aracıdır.
func (s *Session) TogglePinMessage(messageID string) (bool, error) {
	user, err := s.requireUser()
	if err != nil {
		return false, err
	}

	msg, ok := s.store.Get(messageID)
	if !ok || msg.IsDeleted {
		return false, pkg.ErrNotFound
	}

	ch, chOk := s.dir.Get(msg.ChannelID)
	if !chOk || !s.dir.CanRead(user, &ch) {
		return false, fmt.Errorf("%w: pinning requires channel access", pkg.ErrPermission)
	}

	return s.store.TogglePin(messageID)
}

// ToggleReaction, kullanıcının mesajdaki emoji tepkisini ekler/kaldırır.
func (s *Session) ToggleReaction(messageID, emoji string) error {
	user, err := s.requireUser()
	if err != nil {
		return err
	}
	return s.store.ToggleReaction(messageID, user.ID, emoji)
}

// MarkMessageAsRead, mesaja kullanıcının read receipt'ini ekler.
func (s *Session) MarkMessageAsRead(messageID string) error {
	user, err := s.requireUser()
	if err != nil {
		return err
	}
	return s.store.MarkRead(messageID, user.ID)
}

// MarkChannelAsRead, kanaldaki tüm görünür mesajları okundu işaretler.
func (s *Session) MarkChannelAsRead(channelID string) error {
	user, err := s.requireUser()
	if err != nil {
		return err
	}
	s.store.MarkChannelRead(channelID, user.ID)
	return nil
}

// ─── Typing ───

// SetTyping, kullanıcının kanaldaki typing durumunu kaydeder ve yayınlar.
// Otomatik durdurma UI'ın debounce sorumluluğudur — facade sadece
// geçişleri kaydeder; TTL güvenlik ağıdır.
func (s *Session) SetTyping(channelID string, typing bool) error {
	user, err := s.requireUser()
	if err != nil {
		return err
	}

	s.tracker.SetTyping(channelID, user.ID, typing)

	if err := s.syncer.PublishTyping(channelID, user.ID, typing); err != nil {
		// transport hatası typing için sessizce yutulur — bir sonraki
		// geçiş veya TTL durumu düzeltir
		log.Printf("[session] typing publish failed: %v", err)
	}
	return nil
}

// ─── Türetilmiş sorgular ───

// ChannelsForUser, oturum kullanıcısının görebildiği kanalları döner.
func (s *Session) ChannelsForUser() ([]models.Channel, error) {
	user, err := s.requireUser()
	if err != nil {
		return nil, err
	}
	return s.dir.ChannelsVisibleTo(user), nil
}

// ChannelGroups, sidebar için kategori gruplarını döner.
func (s *Session) ChannelGroups() ([]directory.CategoryGroup, error) {
	user, err := s.requireUser()
	if err != nil {
		return nil, err
	}
	return s.dir.GroupByCategory(user), nil
}

// MessagesForChannel, kanalın görünür mesajlarını sıralı döner. Her
// mesajın Status alanı izleyiciye göre hesaplanır.
func (s *Session) MessagesForChannel(channelID string) ([]models.Message, error) {
	user, err := s.requireUser()
	if err != nil {
		return nil, err
	}

	ch, ok := s.dir.Get(channelID)
	if !ok {
		return nil, pkg.ErrNotFound
	}
	if !s.dir.CanRead(user, &ch) {
		return nil, fmt.Errorf("%w: no read access to channel %s", pkg.ErrPermission, channelID)
	}

	msgs := s.store.ListVisible(channelID)
	for i := range msgs {
		msgs[i].Status = msgs[i].StatusFor(user.ID)
	}
	return msgs, nil
}

// TypingUsers, kanalda yazmakta olan diğer kullanıcıları döner.
func (s *Session) TypingUsers(channelID string) ([]string, error) {
	user, err := s.requireUser()
	if err != nil {
		return nil, err
	}
	return s.tracker.TypingUsers(channelID, user.ID), nil
}

// OnlineUsers, çevrimiçi kullanıcı snapshot'larını döner.
func (s *Session) OnlineUsers() []models.User {
	return s.tracker.OnlineUsers()
}

// NotificationSettings, oturumun bildirim tercihlerini döner.
func (s *Session) NotificationSettings() models.NotificationSettings {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.settings
}

// UpdateNotificationSettings, bildirim tercihlerini günceller.
// Tercihler oturum state'idir — teslimat mekanizması çekirdeğin dışındadır.
func (s *Session) UpdateNotificationSettings(settings models.NotificationSettings) error {
	if _, err := s.requireUser(); err != nil {
		return err
	}

	s.mu.Lock()
	s.settings = settings
	s.mu.Unlock()
	return nil
}

// Close, facade'ın sahip olduğu kaynakları bırakır.
func (s *Session) Close() {
	s.tracker.Close()
}
