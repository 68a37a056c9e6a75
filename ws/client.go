package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/fleetpulse/connect/realtime"
	"github.com/gorilla/websocket"
)

// WebSocket bağlantı sabitleri
const (
	// writeWait: Bir mesajı yazmak için maksimum bekleme süresi.
	writeWait = 10 * time.Second

	// pongWait: Client'ın heartbeat göndermesi için beklenen maksimum süre.
	// 3 heartbeat kaçırma = 30s × 3 = 90s.
	pongWait = 90 * time.Second

	// maxMessageSize: Client'ın gönderebileceği maksimum frame boyutu (byte).
	// Frame'ler sadece adresleme taşır, satır içeriği HTTP'den çekilir.
	maxMessageSize = 4096

	// sendBufferSize: Her client'ın send channel'ının buffer boyutu.
	sendBufferSize = 256
)

// Client, tek bir cihazın WebSocket bağlantısını temsil eder.
//
// Her bağlantı için iki goroutine çalışır:
// - ReadPump: cihazdan gelen frame'leri okur (subscribe/unsubscribe/insert)
// - WritePump: hub'dan gelen frame'leri cihaza yazar
//
// gorilla/websocket aynı anda tek okuma ve tek yazma destekler — iki ayrı
// goroutine okuma ve yazmanın birbirini bloklamasını önler.
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string

	// send: cihaza gidecek frame'lerin buffer'landığı channel.
	// Hub `client.send <- data` yazar, WritePump okur.
	send chan []byte

	// channels: bu bağlantının abone olduğu kanal ID'leri.
	// Bildirimler channel_id eşitlik filtresiyle dağıtılır.
	channels map[string]bool
	chanMu   sync.RWMutex

	writeMu sync.Mutex // conn.WriteMessage çağrılarını korur
}

// subscribedTo, bağlantının kanala abone olup olmadığını döner.
func (c *Client) subscribedTo(channelID string) bool {
	c.chanMu.RLock()
	defer c.chanMu.RUnlock()

	return c.channels[channelID]
}

// ReadPump, bağlantıdan gelen frame'leri okur ve işler.
// Bağlantı kapanana kadar bloklar; kapandığında client'ı hub'dan çıkarır.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("[ws] failed to set read deadline for user %s: %v", c.userID, err)
		return
	}

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] unexpected close for user %s: %v", c.userID, err)
			}
			return
		}

		var frame realtime.Frame
		if err := json.Unmarshal(raw, &frame); err != nil {
			log.Printf("[ws] invalid frame from user %s: %v", c.userID, err)
			continue
		}

		c.handleFrame(frame)
	}
}

// handleFrame, cihazdan gelen frame'i türüne göre işler.
func (c *Client) handleFrame(frame realtime.Frame) {
	switch frame.Type {
	case OpHeartbeat:
		// Heartbeat geldi — deadline'ı yenile ve ack gönder.
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			log.Printf("[ws] failed to set read deadline for user %s: %v", c.userID, err)
			return
		}
		c.sendFrame(realtime.Frame{Type: OpHeartbeatAck})

	case realtime.FrameSubscribe:
		if frame.ChannelID == "" {
			return
		}
		c.chanMu.Lock()
		c.channels[frame.ChannelID] = true
		c.chanMu.Unlock()

	case realtime.FrameUnsubscribe:
		if frame.ChannelID == "" {
			return
		}
		c.chanMu.Lock()
		delete(c.channels, frame.ChannelID)
		c.chanMu.Unlock()

	case realtime.FrameInsert:
		// Cihazın yayınladığı insert bildirimi — göndericiye geri
		// yansıtılmadan dağıtılır.
		if frame.Insert == nil || frame.Insert.ChannelID == "" {
			return
		}
		c.hub.broadcastInsert(*frame.Insert, c)

	default:
		log.Printf("[ws] unknown frame type from user %s: %s", c.userID, frame.Type)
	}
}

// sendFrame, client'a tek bir frame gönderir.
func (c *Client) sendFrame(frame realtime.Frame) {
	data, err := json.Marshal(frame)
	if err != nil {
		log.Printf("[ws] failed to marshal frame for user %s: %v", c.userID, err)
		return
	}

	select {
	case c.send <- data:
	default:
		log.Printf("[ws] send buffer full for user %s, dropping connection", c.userID)
		c.hub.unregister <- c
	}
}

// WritePump, hub'dan gelen frame'leri bağlantıya yazar.
func (c *Client) WritePump() {
	defer c.conn.Close()

	for {
		message, ok := <-c.send
		if !ok {
			// Channel kapatıldı — hub client'ı çıkardı
			c.writeMessage(websocket.CloseMessage, nil)
			return
		}

		if err := c.writeMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}

// writeMessage, bağlantıya mesaj yazar. gorilla/websocket conn'a aynı anda
// birden fazla yazma yasak — mutex ile korunur.
func (c *Client) writeMessage(messageType int, data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return c.conn.WriteMessage(messageType, data)
}
