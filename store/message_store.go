// Package store, kanal başına sıralı mesaj log'unu yöneten Message Store'u
// barındırır.
//
// Store append-only'dir: iki client "aynı anda" gönderdiğinde kayıtlar
// asla pozisyonla değiştirilmez, her zaman eklenir — last-write-wins
// sadece AYNI mesaj ID'sinin edit'lerine uygulanır, iki bağımsız send'e
// asla uygulanmaz. Silme soft-delete'tir (flag), kayıt fiziksel
// kaldırılmaz; ID'ler rezerve kalır.
//
// Senkronizasyon katmanı at-least-once teslim eder — ApplyRemote ID
// bazında idempotent'tir, duplicate teslimler sessizce yutulur.
package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/fleetpulse/connect/models"
	"github.com/fleetpulse/connect/pkg"
	"github.com/google/uuid"
)

// record, store içi mesaj kaydı. seq, kanal içi ekleme sırasıdır —
// timestamp eşitliğinde sıralamayı belirler.
type record struct {
	msg *models.Message
	seq int
}

// MessageStore, kanal başına append-only mesaj log'u.
// Session facade'ın UI'a sunduğu authoritative in-memory projection budur.
type MessageStore struct {
	mu        sync.RWMutex
	byChannel map[string][]*record
	byID      map[string]*record
	nextSeq   int
}

// New, boş bir MessageStore oluşturur.
func New() *MessageStore {
	return &MessageStore{
		byChannel: make(map[string][]*record),
		byID:      make(map[string]*record),
	}
}

// Append, yeni bir mesaj oluşturup kanalın log'una ekler.
//
// İçerik trim sonrası boş ise ErrValidation döner — UI engellemiş olsa
// bile çekirdek re-validate eder. Yeni mesaj delivered status ve boş
// readBy ile doğar (yazma tarafında modellenecek bir network RTT yok).
func (s *MessageStore) Append(channelID, authorID string, req *models.CreateMessageRequest) (*models.Message, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrValidation, err.Error())
	}

	msg := &models.Message{
		ID:        uuid.NewString(),
		ChannelID: channelID,
		UserID:    authorID,
		Content:   req.Content,
		Kind:      models.MessageKind(req.Kind),
		Timestamp: time.Now(),
		ReplyTo:   req.ReplyTo,
		Reactions: []models.Reaction{},
		Status:    models.MessageStatusDelivered,
		ReadBy:    []string{},
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.insert(msg)

	return copyMessage(msg), nil
}

// ApplyRemote, senkronizasyon katmanından gelen bir mesajı log'a uygular.
// ID zaten biliniyorsa no-op'tur ve false döner — at-least-once teslimin
// duplicate'leri burada yutulur.
func (s *MessageStore) ApplyRemote(msg models.Message) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[msg.ID]; ok {
		return false
	}
	if msg.Reactions == nil {
		msg.Reactions = []models.Reaction{}
	}
	if msg.ReadBy == nil {
		msg.ReadBy = []string{}
	}
	s.insert(&msg)
	return true
}

// insert, kaydı kanal log'unun sonuna ekler. Çağıran lock tutar.
func (s *MessageStore) insert(msg *models.Message) {
	rec := &record{msg: msg, seq: s.nextSeq}
	s.nextSeq++
	s.byChannel[msg.ChannelID] = append(s.byChannel[msg.ChannelID], rec)
	s.byID[msg.ID] = rec
}

// Edit, mesaj içeriğini değiştirir ve edited_at damgasını basar.
// ID bilinmiyorsa veya mesaj soft-delete edilmişse ErrNotFound döner.
// ID, yazar, kanal ve timestamp değişmez.
func (s *MessageStore) Edit(messageID string, req *models.UpdateMessageRequest) (*models.Message, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrValidation, err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[messageID]
	if !ok || rec.msg.IsDeleted {
		return nil, pkg.ErrNotFound
	}

	now := time.Now()
	rec.msg.Content = req.Content
	rec.msg.EditedAt = &now

	return copyMessage(rec.msg), nil
}

// SoftDelete, mesajı silinmiş olarak işaretler. Kayıt fiziksel olarak
// kaldırılmaz — ID'si rezerve kalır. İdempotent: zaten silinmiş bir
// mesaj için no-op.
func (s *MessageStore) SoftDelete(messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[messageID]
	if !ok {
		return pkg.ErrNotFound
	}
	rec.msg.IsDeleted = true
	return nil
}

// MarkRead, kullanıcıyı mesajın readBy kümesine ekler. İdempotent:
// kullanıcı zaten kümede ise no-op. readBy sadece büyür; küme boş
// olmaktan çıktığında status read olur (kaynaktan miras basitleştirme —
// izleyici bazlı kesin durum Message.StatusFor ile hesaplanır).
func (s *MessageStore) MarkRead(messageID, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[messageID]
	if !ok || rec.msg.IsDeleted {
		return pkg.ErrNotFound
	}
	s.markRead(rec.msg, userID)
	return nil
}

// markRead, lock tutulurken tek mesaja read receipt uygular.
func (s *MessageStore) markRead(msg *models.Message, userID string) {
	if msg.ReadByUser(userID) {
		return
	}
	msg.ReadBy = append(msg.ReadBy, userID)
	msg.Status = models.MessageStatusRead
}

// MarkChannelRead, kanaldaki tüm silinmemiş mesajlara MarkRead uygular.
// Mevcut readBy girdileri asla kaybolmaz.
func (s *MessageStore) MarkChannelRead(channelID, userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, rec := range s.byChannel[channelID] {
		if rec.msg.IsDeleted {
			continue
		}
		s.markRead(rec.msg, userID)
	}
}

// TogglePin, mesajın pin durumunu tersine çevirir ve yeni durumu döner.
func (s *MessageStore) TogglePin(messageID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[messageID]
	if !ok || rec.msg.IsDeleted {
		return false, pkg.ErrNotFound
	}
	rec.msg.IsPinned = !rec.msg.IsPinned
	return rec.msg.IsPinned, nil
}

// ToggleReaction, kullanıcının mesajdaki emoji tepkisini ekler/kaldırır.
func (s *MessageStore) ToggleReaction(messageID, userID, emoji string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.byID[messageID]
	if !ok || rec.msg.IsDeleted {
		return pkg.ErrNotFound
	}

	for i, r := range rec.msg.Reactions {
		if r.UserID == userID && r.Emoji == emoji {
			rec.msg.Reactions = append(rec.msg.Reactions[:i], rec.msg.Reactions[i+1:]...)
			return nil
		}
	}
	rec.msg.Reactions = append(rec.msg.Reactions, models.Reaction{
		Emoji:     emoji,
		UserID:    userID,
		Timestamp: time.Now(),
	})
	return nil
}

// ListVisible, kanalın soft-delete edilmemiş mesajlarını timestamp'e göre
// (eşitlikte ekleme sırasına göre) sıralı döner. Dönen slice kopyadır —
// çağıran store state'ini mutate edemez.
func (s *MessageStore) ListVisible(channelID string) []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()

	recs := s.byChannel[channelID]
	visible := make([]*record, 0, len(recs))
	for _, rec := range recs {
		if !rec.msg.IsDeleted {
			visible = append(visible, rec)
		}
	}

	sort.SliceStable(visible, func(i, j int) bool {
		if visible[i].msg.Timestamp.Equal(visible[j].msg.Timestamp) {
			return visible[i].seq < visible[j].seq
		}
		return visible[i].msg.Timestamp.Before(visible[j].msg.Timestamp)
	})

	out := make([]models.Message, 0, len(visible))
	for _, rec := range visible {
		out = append(out, *copyMessage(rec.msg))
	}
	return out
}

// Get, ID ile tek bir mesaj döner (soft-delete edilmişler dahil —
// senkronizasyon katmanı silinmiş ID'leri de referans alabilir).
func (s *MessageStore) Get(messageID string) (models.Message, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[messageID]
	if !ok {
		return models.Message{}, false
	}
	return *copyMessage(rec.msg), true
}

// Clear, tüm log'u boşaltır. Sign-out teardown'ında kullanılır.
func (s *MessageStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.byChannel = make(map[string][]*record)
	s.byID = make(map[string]*record)
	s.nextSeq = 0
}

// copyMessage, mesajın slice alanlarıyla birlikte derin kopyasını döner.
// Store dışına asla iç pointer sızmaz — okuyucular partially-updated
// composite göremez.
//
// Reactions ve ReadBy boş literalden başlar: kaynak slice boşken bile
// kopya nil değil []'dir — wire shape'te "reactions":[] bekleniyor,
// null değil.
func copyMessage(m *models.Message) *models.Message {
	cp := *m
	cp.Reactions = append([]models.Reaction{}, m.Reactions...)
	cp.ReadBy = append([]string{}, m.ReadBy...)
	if m.Attachments != nil {
		cp.Attachments = append([]models.Attachment(nil), m.Attachments...)
	}
	if m.EditedAt != nil {
		t := *m.EditedAt
		cp.EditedAt = &t
	}
	if m.ReplyTo != nil {
		r := *m.ReplyTo
		cp.ReplyTo = &r
	}
	return &cp
}
