package realtime

import (
	"fmt"
	"sync"

	"github.com/fleetpulse/connect/models"
	"github.com/fleetpulse/connect/pkg"
)

// ErrSyncerClosed, kapatılmış bir syncer üzerinde Subscribe/Publish
// denendiğinde döner. Transport hatasıdır — facade retry politikası uygular.
var ErrSyncerClosed = fmt.Errorf("%w: syncer closed", pkg.ErrSyncTransport)

// Syncer, senkronizasyon katmanının tek sözleşmesidir.
// Session facade yalnızca bu interface'i görür; polling ve managed
// implementasyonlar bunun arkasında değiştirilebilir.
type Syncer interface {
	// Subscribe, kanala abone olur. epoch, çağıranın oturum jenerasyonudur:
	// subscription üzerinde taşınır ve facade geç kalan callback'leri
	// bununla eler. Teslim, handler'a subscriber başına FIFO yapılır.
	Subscribe(channelID string, epoch uint64, h Handler) (*Subscription, error)

	// PublishMessage, yeni oluşturulan mesajı diğer cihazlara yayınlar.
	PublishMessage(msg models.Message) error

	// PublishTyping, typing geçişini yayınlar.
	PublishTyping(channelID, userID string, typing bool) error

	// Close, tüm subscription'ları düşürür ve kaynakları bırakır.
	Close() error
}

// Subscription, tek bir kanal aboneliğini temsil eder.
//
// Unsubscribe senkron durdurur: döndüğünde handler ne çalışıyordur ne de
// bir daha çalışır. Bunun için handler çağrısı ile kapanış aynı mutex'i
// paylaşır.
type Subscription struct {
	ChannelID string
	Epoch     uint64

	mu     sync.Mutex
	closed bool
	stop   func() // implementasyonun teardown'ı; bir kez çağrılır
}

// deliver, handler'ı kapanışa karşı korumalı çağırır.
// Kapanmış subscription'a teslim no-op'tur.
func (s *Subscription) deliver(h Handler, ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}
	h(ev)
}

// Unsubscribe, aboneliği senkron olarak sonlandırır. İdempotent.
func (s *Subscription) Unsubscribe() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	stop := s.stop
	s.mu.Unlock()

	if stop != nil {
		stop()
	}
}

// Active, aboneliğin hala canlı olup olmadığını döner.
func (s *Subscription) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return !s.closed
}
