package ws

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/fleetpulse/connect/realtime"
)

// Hub, push collaborator'ın server tarafıdır: satır-insert bildirimlerini
// kanal aboneliklerine göre bağlı cihazlara dağıtır.
//
// Hub aynı zamanda realtime.Notifier'ı implemente eder — aynı process'te
// çalışan bir ManagedSyncer, ağ üzerinden gelen cihazlarla aynı bildirim
// akışını in-process handler'larla tüketebilir.
//
// register/unregister channel'ları Run goroutine'inde tüketilir; clients
// map'i RWMutex ile korunur — bildirim dağıtımı okuma ağırlıklıdır.
type Hub struct {
	// clients: userID → bağlantı kümesi (bir kullanıcının birden fazla
	// cihazı olabilir). Go'da set yoktur, map[*Client]bool kullanılır.
	clients map[string]map[*Client]bool
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client

	// local: in-process aboneler (realtime.Notifier tarafı).
	// channelID → subID → handler.
	local   map[string]map[int]func(realtime.InsertNotification)
	localMu sync.RWMutex
	nextSub int
}

// NewHub, yeni bir Hub oluşturur.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		local:      make(map[string]map[int]func(realtime.InsertNotification)),
	}
}

// Run, Hub'ın ana event loop'udur. main.go'da `go hub.Run()` ile başlatılır.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.addClient(client)

		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.userID]; !ok {
		h.clients[client.userID] = make(map[*Client]bool)
	}
	h.clients[client.userID][client] = true

	log.Printf("[ws] client connected: user=%s (connections for user: %d)",
		client.userID, len(h.clients[client.userID]))
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.userID]; ok {
		if _, exists := clients[client]; exists {
			delete(clients, client)
			close(client.send)

			if len(clients) == 0 {
				delete(h.clients, client.userID)
				log.Printf("[ws] user fully disconnected: %s", client.userID)
			}
		}
	}
}

// SubscribeInserts, in-process bir aboneyi kanala bağlar
// (realtime.Notifier). Dönen fonksiyon aboneliği düşürür.
func (h *Hub) SubscribeInserts(channelID string, handler func(realtime.InsertNotification)) (func(), error) {
	h.localMu.Lock()
	defer h.localMu.Unlock()

	if h.local[channelID] == nil {
		h.local[channelID] = make(map[int]func(realtime.InsertNotification))
	}
	id := h.nextSub
	h.nextSub++
	h.local[channelID][id] = handler

	return func() {
		h.localMu.Lock()
		defer h.localMu.Unlock()
		delete(h.local[channelID], id)
	}, nil
}

// NotifyInsert, bildirimi hem in-process abonelere hem bağlı cihazlara
// dağıtır (realtime.Notifier).
func (h *Hub) NotifyInsert(n realtime.InsertNotification) error {
	h.broadcastInsert(n, nil)
	return nil
}

// broadcastInsert, insert bildirimini kanala abone tüm client'lara
// (exclude hariç) ve in-process handler'lara dağıtır. Bildirim satır
// içeriği taşımaz — alan taraf refetch eder.
func (h *Hub) broadcastInsert(n realtime.InsertNotification, exclude *Client) {
	data, err := json.Marshal(realtime.Frame{
		Type:      realtime.FrameInsert,
		ChannelID: n.ChannelID,
		Insert:    &n,
	})
	if err != nil {
		log.Printf("[ws] failed to marshal insert frame: %v", err)
		return
	}

	h.mu.RLock()
	for _, clients := range h.clients {
		for client := range clients {
			if client == exclude || !client.subscribedTo(n.ChannelID) {
				continue
			}
			select {
			case client.send <- data:
			default:
				// buffer dolu — bu client yavaş, bağlantıyı düşür
				go func(c *Client) { h.unregister <- c }(client)
			}
		}
	}
	h.mu.RUnlock()

	h.localMu.RLock()
	handlers := make([]func(realtime.InsertNotification), 0, len(h.local[n.ChannelID]))
	for _, handler := range h.local[n.ChannelID] {
		handlers = append(handlers, handler)
	}
	h.localMu.RUnlock()

	for _, handler := range handlers {
		handler(n)
	}
}

// OnlineUserIDs, bağlı olan tüm kullanıcı ID'lerini döner.
func (h *Hub) OnlineUserIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.clients))
	for userID := range h.clients {
		ids = append(ids, userID)
	}
	return ids
}

// Shutdown, tüm client bağlantılarını kapatır (graceful shutdown).
func (h *Hub) Shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.clients {
		for client := range clients {
			close(client.send)
		}
	}
	h.clients = make(map[string]map[*Client]bool)
	log.Println("[ws] hub shut down, all connections closed")
}
