package ws

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/fleetpulse/connect/models"
)

// TokenValidator, WebSocket handler'ın JWT doğrulaması için kullandığı
// interface.
//
// services.AuthService'in tamamı yerine küçük, odaklı bir interface:
// ws paketi services'e bağımlı olsaydı services → ws → services döngüsü
// oluşurdu. main.go'da authService bu interface'i implicit karşılar.
type TokenValidator interface {
	ValidateAccessToken(tokenString string) (*models.TokenClaims, error)
}

// upgrader, HTTP bağlantısını WebSocket bağlantısına yükseltir.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// CheckOrigin: Production'da domain kontrolü yapılmalı.
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler, WebSocket bağlantı isteklerini işleyen HTTP handler'ı.
type Handler struct {
	hub            *Hub
	tokenValidator TokenValidator
}

// NewHandler, yeni bir WebSocket handler oluşturur.
func NewHandler(hub *Hub, tokenValidator TokenValidator) *Handler {
	return &Handler{
		hub:            hub,
		tokenValidator: tokenValidator,
	}
}

// HandleConnection, HTTP bağlantısını WebSocket'e yükseltir ve client'ı
// hub'a kaydeder.
//
// Token, query parameter veya Authorization header ile gelir:
//
//	ws://server/ws?token=JWT_TOKEN
//
// RemoteNotifier header kullanır; tarayıcı client'ları query parametresine
// düşer (tarayıcıda WS header göndermek kısıtlıdır).
func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		auth := r.Header.Get("Authorization")
		if len(auth) > 7 && auth[:7] == "Bearer " {
			token = auth[7:]
		}
	}
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return
	}

	claims, err := h.tokenValidator.ValidateAccessToken(token)
	if err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed for user %s: %v", claims.UserID, err)
		return
	}

	client := &Client{
		hub:      h.hub,
		conn:     conn,
		userID:   claims.UserID,
		send:     make(chan []byte, sendBufferSize),
		channels: make(map[string]bool),
	}

	h.hub.register <- client

	// WritePump ayrı goroutine'de; ReadPump bağlantı kapanana kadar bloklar.
	go client.WritePump()
	client.ReadPump()
}
