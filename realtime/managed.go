package realtime

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/fleetpulse/connect/models"
	"github.com/fleetpulse/connect/pkg"
)

// DefaultTypingPollInterval, managed stratejinin typing tablosunu tarama
// aralığı. Typing için push kanalı yoktur — kısa aralıkla poll edilir.
const DefaultTypingPollInterval = 300 * time.Millisecond

// Tables, managed backend'in relational tablo yüzeyidir.
// repository katmanı bu interface'i sqlite üzerinde implemente eder;
// testler in-memory fake kullanır.
type Tables interface {
	// InsertMessage, mesaj satırını messages tablosuna yazar.
	InsertMessage(ctx context.Context, msg *models.Message) error

	// GetMessage, tam mesaj satırını ID ile çeker. Push bildirimi satırın
	// tamamını taşımaz — bildirim üzerine refetch yapılır.
	GetMessage(ctx context.Context, id string) (*models.Message, error)

	// UpsertTyping, (kanal, kullanıcı) typing satırını yazar/yeniler.
	UpsertTyping(ctx context.Context, channelID, userID string) error

	// DeleteTyping, typing satırını düşürür.
	DeleteTyping(ctx context.Context, channelID, userID string) error

	// ListTypingUsers, kanalda since'ten yeni typing satırı olan
	// kullanıcı ID'lerini döner.
	ListTypingUsers(ctx context.Context, channelID string, since time.Time) ([]string, error)
}

// InsertNotification, push collaborator'dan gelen satır-insert bildirimi.
// Sadece adresleme taşır; satır içeriği Tables'tan yeniden çekilir.
type InsertNotification struct {
	Table     string `json:"table"`
	ChannelID string `json:"channel_id"`
	RowID     string `json:"row_id"`
}

// Notifier, satır-insert bildirimlerinin push kanalıdır.
// channel_id eşitlik filtresiyle abone olunur. ws.Hub bunu server
// tarafında, RemoteNotifier websocket client tarafında implemente eder;
// LocalNotifier tek process içi kestirmedir.
type Notifier interface {
	// SubscribeInserts, verilen kanalın insert bildirimlerine abone olur.
	// Dönen fonksiyon aboneliği düşürür.
	SubscribeInserts(channelID string, h func(InsertNotification)) (func(), error)

	// NotifyInsert, bildirimi abonelere dağıtır.
	NotifyInsert(n InsertNotification) error
}

// ManagedSyncer, managed backend üzerinden senkronize eden Syncer
// implementasyonudur.
//
// Mesajlar: tabloya insert + push bildirimi; bildirimi alan taraf tam
// satırı refetch eder. Typing: tabloya upsert/delete + kısa aralıklı
// poll; poll sonuçları bir önceki kümeyle diff'lenerek start/stop
// event'lerine çevrilir.
type ManagedSyncer struct {
	tables       Tables
	notifier     Notifier
	typingWindow time.Duration
	pollInterval time.Duration

	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
}

// NewManagedSyncer, verilen collaborator'larla bir ManagedSyncer oluşturur.
// typingWindow, bir typing satırının "hala yazıyor" sayılacağı yaş sınırıdır.
func NewManagedSyncer(tables Tables, notifier Notifier, typingWindow, pollInterval time.Duration) *ManagedSyncer {
	if typingWindow <= 0 {
		typingWindow = 5 * time.Second
	}
	if pollInterval <= 0 {
		pollInterval = DefaultTypingPollInterval
	}
	return &ManagedSyncer{
		tables:       tables,
		notifier:     notifier,
		typingWindow: typingWindow,
		pollInterval: pollInterval,
		subs:         make(map[*Subscription]struct{}),
	}
}

// Subscribe, kanalın insert bildirimlerine abone olur ve typing poll
// döngüsünü başlatır.
func (m *ManagedSyncer) Subscribe(channelID string, epoch uint64, h Handler) (*Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, ErrSyncerClosed
	}

	done := make(chan struct{})
	sub := &Subscription{
		ChannelID: channelID,
		Epoch:     epoch,
	}

	unsubscribe, err := m.notifier.SubscribeInserts(channelID, func(n InsertNotification) {
		if n.Table != "messages" {
			return
		}
		// bildirim satırın tamamını taşımaz — tam satırı çek
		msg, err := m.tables.GetMessage(context.Background(), n.RowID)
		if err != nil {
			log.Printf("[sync] refetch failed for message %s: %v", n.RowID, err)
			return
		}
		sub.deliver(h, Event{
			Op:        OpMessageCreate,
			ChannelID: msg.ChannelID,
			UserID:    msg.UserID,
			Message:   msg,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: subscribe inserts: %v", pkg.ErrSyncTransport, err)
	}

	sub.stop = func() {
		unsubscribe()
		close(done)
	}
	m.subs[sub] = struct{}{}

	go m.pollTyping(sub, h, done)

	return sub, nil
}

// pollTyping, typing tablosunu tarar ve küme değişimlerini
// typing_start/typing_stop event'lerine çevirir.
func (m *ManagedSyncer) pollTyping(sub *Subscription, h Handler, done <-chan struct{}) {
	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()

	prev := make(map[string]struct{})

	for {
		select {
		case <-ticker.C:
			users, err := m.tables.ListTypingUsers(context.Background(), sub.ChannelID, time.Now().Add(-m.typingWindow))
			if err != nil {
				log.Printf("[sync] typing poll failed for channel %s: %v", sub.ChannelID, err)
				continue
			}

			next := make(map[string]struct{}, len(users))
			for _, u := range users {
				next[u] = struct{}{}
				if _, ok := prev[u]; !ok {
					sub.deliver(h, Event{Op: OpTypingStart, ChannelID: sub.ChannelID, UserID: u})
				}
			}

			stopped := make([]string, 0)
			for u := range prev {
				if _, ok := next[u]; !ok {
					stopped = append(stopped, u)
				}
			}
			sort.Strings(stopped) // deterministik teslim sırası
			for _, u := range stopped {
				sub.deliver(h, Event{Op: OpTypingStop, ChannelID: sub.ChannelID, UserID: u})
			}

			prev = next
		case <-done:
			m.dropSub(sub)
			return
		}
	}
}

func (m *ManagedSyncer) dropSub(sub *Subscription) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.subs, sub)
}

// PublishMessage, mesajı tabloya yazar ve insert bildirimini yayınlar.
func (m *ManagedSyncer) PublishMessage(msg models.Message) error {
	if err := m.tables.InsertMessage(context.Background(), &msg); err != nil {
		return fmt.Errorf("%w: insert message: %v", pkg.ErrSyncTransport, err)
	}
	if err := m.notifier.NotifyInsert(InsertNotification{
		Table:     "messages",
		ChannelID: msg.ChannelID,
		RowID:     msg.ID,
	}); err != nil {
		return fmt.Errorf("%w: notify insert: %v", pkg.ErrSyncTransport, err)
	}
	return nil
}

// PublishTyping, typing satırını yazar/düşürür. Teslim poll tarafında olur.
func (m *ManagedSyncer) PublishTyping(channelID, userID string, typing bool) error {
	var err error
	if typing {
		err = m.tables.UpsertTyping(context.Background(), channelID, userID)
	} else {
		err = m.tables.DeleteTyping(context.Background(), channelID, userID)
	}
	if err != nil {
		return fmt.Errorf("%w: publish typing: %v", pkg.ErrSyncTransport, err)
	}
	return nil
}

// Close, tüm subscription'ları senkron düşürür.
func (m *ManagedSyncer) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	subs := make([]*Subscription, 0, len(m.subs))
	for sub := range m.subs {
		subs = append(subs, sub)
	}
	m.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
	log.Printf("[sync] managed syncer closed (%d subscriptions dropped)", len(subs))
	return nil
}
