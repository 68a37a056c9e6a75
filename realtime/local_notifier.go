package realtime

import "sync"

// LocalNotifier, tek process içinde çalışan Notifier implementasyonudur.
// Aynı process'teki iki ManagedSyncer'ı (iki cihaz simülasyonu) birbirine
// bağlar; testlerin ana seam'idir. Ağ üzerinden push için RemoteNotifier,
// server tarafı için ws.Hub kullanılır.
type LocalNotifier struct {
	mu   sync.RWMutex
	subs map[string]map[int]func(InsertNotification) // channelID → subID → handler
	next int
}

// NewLocalNotifier, boş bir LocalNotifier oluşturur.
func NewLocalNotifier() *LocalNotifier {
	return &LocalNotifier{
		subs: make(map[string]map[int]func(InsertNotification)),
	}
}

// SubscribeInserts, kanalın insert bildirimlerine abone olur.
func (n *LocalNotifier) SubscribeInserts(channelID string, h func(InsertNotification)) (func(), error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.subs[channelID] == nil {
		n.subs[channelID] = make(map[int]func(InsertNotification))
	}
	id := n.next
	n.next++
	n.subs[channelID][id] = h

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		delete(n.subs[channelID], id)
	}, nil
}

// NotifyInsert, bildirimi kanalın tüm abonelerine senkron dağıtır.
func (n *LocalNotifier) NotifyInsert(notif InsertNotification) error {
	n.mu.RLock()
	handlers := make([]func(InsertNotification), 0, len(n.subs[notif.ChannelID]))
	for _, h := range n.subs[notif.ChannelID] {
		handlers = append(handlers, h)
	}
	n.mu.RUnlock()

	for _, h := range handlers {
		h(notif)
	}
	return nil
}
