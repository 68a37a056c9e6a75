package realtime

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/fleetpulse/connect/pkg"
	"github.com/gorilla/websocket"
)

// Frame, RemoteNotifier ile push backend arasındaki websocket wire
// formatıdır. ws paketi server tarafında aynı frame'leri konuşur.
type Frame struct {
	Type      string              `json:"type"` // subscribe | unsubscribe | insert
	ChannelID string              `json:"channel_id,omitempty"`
	Insert    *InsertNotification `json:"insert,omitempty"`
}

const (
	FrameSubscribe   = "subscribe"
	FrameUnsubscribe = "unsubscribe"
	FrameInsert      = "insert"
)

// RemoteNotifier, push backend'e websocket ile bağlanan Notifier
// implementasyonudur. Uzak cihaz, managed stratejide insert
// bildirimlerini bu kanaldan alır ve yayınlar.
//
// Bağlantı koptuğunda exponential backoff ile yeniden bağlanır ve aktif
// abonelikleri yeniden gönderir. Kopukluk sırasında kaçan bildirimler
// kayıptır — managed strateji zaten at-least-once + refetch üzerine
// kuruludur, eksikler bir sonraki kanal açılışındaki tam yüklemede kapanır.
type RemoteNotifier struct {
	url    string
	header map[string][]string

	mu       sync.Mutex
	conn     *websocket.Conn
	handlers map[string]map[int]func(InsertNotification)
	next     int
	closed   bool
}

// NewRemoteNotifier, verilen websocket URL'ine bağlanan bir
// RemoteNotifier oluşturur ve okuma/yeniden bağlanma döngüsünü başlatır.
// token boş değilse Authorization header'ı olarak gönderilir.
func NewRemoteNotifier(url, token string) *RemoteNotifier {
	header := map[string][]string{}
	if token != "" {
		header["Authorization"] = []string{"Bearer " + token}
	}
	n := &RemoteNotifier{
		url:      url,
		header:   header,
		handlers: make(map[string]map[int]func(InsertNotification)),
	}
	go n.run()
	return n
}

// run, bağlantıyı kurar, düşerse backoff ile yeniler.
func (n *RemoteNotifier) run() {
	backoff := time.Second

	for {
		n.mu.Lock()
		if n.closed {
			n.mu.Unlock()
			return
		}
		n.mu.Unlock()

		conn, _, err := websocket.DefaultDialer.Dial(n.url, n.header)
		if err != nil {
			log.Printf("[sync] notifier dial failed: %v (retrying in %s)", err, backoff)
			time.Sleep(backoff)
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		n.mu.Lock()
		n.conn = conn
		// aktif abonelikleri yeni bağlantıda yeniden bildir
		for channelID := range n.handlers {
			if len(n.handlers[channelID]) == 0 {
				continue
			}
			_ = conn.WriteJSON(Frame{Type: FrameSubscribe, ChannelID: channelID})
		}
		n.mu.Unlock()

		n.readLoop(conn)

		n.mu.Lock()
		n.conn = nil
		n.mu.Unlock()
	}
}

// readLoop, gelen insert frame'lerini abone handler'larına dağıtır.
// Bağlantı hatasında döner, run yeniden bağlanır.
func (n *RemoteNotifier) readLoop(conn *websocket.Conn) {
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			n.mu.Lock()
			closed := n.closed
			n.mu.Unlock()
			if !closed {
				log.Printf("[sync] notifier connection lost: %v", err)
			}
			return
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			log.Printf("[sync] notifier bad frame: %v", err)
			continue
		}
		if frame.Type != FrameInsert || frame.Insert == nil {
			continue
		}

		n.mu.Lock()
		handlers := make([]func(InsertNotification), 0, len(n.handlers[frame.Insert.ChannelID]))
		for _, h := range n.handlers[frame.Insert.ChannelID] {
			handlers = append(handlers, h)
		}
		n.mu.Unlock()

		for _, h := range handlers {
			h(*frame.Insert)
		}
	}
}

// SubscribeInserts, kanal bildirimlerine abone olur ve backend'e
// subscribe frame'i gönderir.
func (n *RemoteNotifier) SubscribeInserts(channelID string, h func(InsertNotification)) (func(), error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return nil, ErrSyncerClosed
	}

	if n.handlers[channelID] == nil {
		n.handlers[channelID] = make(map[int]func(InsertNotification))
	}
	id := n.next
	n.next++
	n.handlers[channelID][id] = h

	if n.conn != nil {
		_ = n.conn.WriteJSON(Frame{Type: FrameSubscribe, ChannelID: channelID})
	}

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.handlers[channelID], id)
		if len(n.handlers[channelID]) == 0 && n.conn != nil {
			_ = n.conn.WriteJSON(Frame{Type: FrameUnsubscribe, ChannelID: channelID})
		}
	}, nil
}

// NotifyInsert, bildirimi backend üzerinden diğer cihazlara yayınlar.
func (n *RemoteNotifier) NotifyInsert(notif InsertNotification) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.conn == nil {
		return fmt.Errorf("%w: notifier not connected", pkg.ErrSyncTransport)
	}
	if err := n.conn.WriteJSON(Frame{Type: FrameInsert, ChannelID: notif.ChannelID, Insert: &notif}); err != nil {
		return fmt.Errorf("%w: write insert frame: %v", pkg.ErrSyncTransport, err)
	}
	return nil
}

// Close, bağlantıyı ve yeniden bağlanma döngüsünü durdurur.
func (n *RemoteNotifier) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.closed {
		return nil
	}
	n.closed = true
	if n.conn != nil {
		_ = n.conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		_ = n.conn.Close()
	}
	return nil
}
