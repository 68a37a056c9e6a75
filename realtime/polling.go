package realtime

import (
	"log"
	"sync"
	"time"

	"github.com/fleetpulse/connect/models"
)

// DefaultPollInterval, polling stratejisinin log tarama aralığı.
const DefaultPollInterval = 500 * time.Millisecond

// PollingSyncer, paylaşılan bir EventLog'u sabit aralıkla tarayan
// Syncer implementasyonudur.
//
// Her subscription kendi watermark'ını (son görülen Seq) tutar ve kendi
// goroutine'inde tick'ler. Watermark subscribe anındaki LastSeq'ten
// başlar — geçmiş event'ler teslim edilmez. Aynı log'u paylaşan iki
// syncer, iki ayrı cihazın senkronizasyonunu modeller.
type PollingSyncer struct {
	log      *EventLog
	interval time.Duration

	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	closed bool
}

// NewPollingSyncer, verilen log ve tarama aralığıyla bir PollingSyncer
// oluşturur. interval <= 0 ise DefaultPollInterval kullanılır.
func NewPollingSyncer(eventLog *EventLog, interval time.Duration) *PollingSyncer {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &PollingSyncer{
		log:      eventLog,
		interval: interval,
		subs:     make(map[*Subscription]struct{}),
	}
}

// Subscribe, kanala abone olur ve poll döngüsünü başlatır.
func (p *PollingSyncer) Subscribe(channelID string, epoch uint64, h Handler) (*Subscription, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrSyncerClosed
	}

	done := make(chan struct{})
	sub := &Subscription{
		ChannelID: channelID,
		Epoch:     epoch,
		stop:      func() { close(done) },
	}
	p.subs[sub] = struct{}{}

	watermark := p.log.LastSeq()

	go func() {
		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				for _, ev := range p.log.Since(watermark) {
					if ev.Seq > watermark {
						watermark = ev.Seq
					}
					if ev.ChannelID != channelID {
						continue
					}
					sub.deliver(h, ev)
				}
			case <-done:
				p.dropSub(sub)
				return
			}
		}
	}()

	return sub, nil
}

func (p *PollingSyncer) dropSub(sub *Subscription) {
	p.mu.Lock()
	defer p.mu.Unlock()

	delete(p.subs, sub)
}

// PublishMessage, mesajı paylaşılan log'a yazar. Lokal cihaz mesajı
// zaten store'una eklemiştir; log'daki kopyayı diğer subscriber'lar
// (ve duplicate teslimde idempotent apply) tüketir.
func (p *PollingSyncer) PublishMessage(msg models.Message) error {
	p.log.Append(Event{
		Op:        OpMessageCreate,
		ChannelID: msg.ChannelID,
		UserID:    msg.UserID,
		Message:   &msg,
	})
	return nil
}

// PublishTyping, typing geçişini paylaşılan log'a yazar.
func (p *PollingSyncer) PublishTyping(channelID, userID string, typing bool) error {
	op := OpTypingStart
	if !typing {
		op = OpTypingStop
	}
	p.log.Append(Event{
		Op:        op,
		ChannelID: channelID,
		UserID:    userID,
	})
	return nil
}

// Close, tüm subscription'ları senkron düşürür.
func (p *PollingSyncer) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	subs := make([]*Subscription, 0, len(p.subs))
	for sub := range p.subs {
		subs = append(subs, sub)
	}
	p.mu.Unlock()

	for _, sub := range subs {
		sub.Unsubscribe()
	}
	log.Printf("[sync] polling syncer closed (%d subscriptions dropped)", len(subs))
	return nil
}
