package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MessageKind, mesajın türünü temsil eder.
type MessageKind string

const (
	MessageKindText   MessageKind = "text"
	MessageKindImage  MessageKind = "image"
	MessageKindFile   MessageKind = "file"
	MessageKindSystem MessageKind = "system"
)

// MessageStatus, mesajın teslim durumunu temsil eder.
// sending → delivered → read yönünde ilerler, geri dönmez.
type MessageStatus string

const (
	MessageStatusSending   MessageStatus = "sending"
	MessageStatusDelivered MessageStatus = "delivered"
	MessageStatusRead      MessageStatus = "read"
)

// Reaction, bir kullanıcının bir mesaja verdiği tek bir emoji tepkisi.
// Sıralı liste olarak tutulur — ekleme sırası korunur.
type Reaction struct {
	Emoji     string    `json:"emoji"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

// AttachmentKind, ek dosyanın türü.
type AttachmentKind string

const (
	AttachmentKindImage    AttachmentKind = "image"
	AttachmentKindFile     AttachmentKind = "file"
	AttachmentKindDocument AttachmentKind = "document"
)

// Attachment, bir mesaja eklenmiş dosyayı temsil eder.
// Dosya içeriğinin saklanması çekirdek kapsamı dışıdır — sadece
// metadata taşınır.
type Attachment struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Kind       AttachmentKind `json:"kind"`
	URL        string         `json:"url"`
	Size       int64          `json:"size"`
	UploadedAt time.Time      `json:"uploaded_at"`
}

// Message, bir kanal mesajını temsil eder.
//
// Invariant'lar:
//   - Kanal içinde mesajlar timestamp'e göre total order'dadır; eşitlikte
//     ekleme sırası belirler.
//   - Soft-delete edilmiş mesaj hiçbir okuma view'ında görünmez ama ID'si
//     rezerve kalır (reuse yok) — eşzamanlı client'lar ID'yi referans
//     alabildiği için kayıt fiziksel silinmez.
//   - ReadBy sadece büyür (monotonic).
type Message struct {
	ID          string        `json:"id"`
	ChannelID   string        `json:"channel_id"`
	UserID      string        `json:"user_id"`
	Content     string        `json:"content"`
	Kind        MessageKind   `json:"kind"`
	Timestamp   time.Time     `json:"created_at"`
	EditedAt    *time.Time    `json:"edited_at"`
	ReplyTo     *string       `json:"reply_to"`
	Reactions   []Reaction    `json:"reactions"`
	Attachments []Attachment  `json:"attachments,omitempty"`
	IsPinned    bool          `json:"is_pinned"`
	IsDeleted   bool          `json:"is_deleted"`
	Status      MessageStatus `json:"status"`
	ReadBy      []string      `json:"read_by"`
}

// ReadByUser, verilen kullanıcının mesajı okuyup okumadığını döner.
func (m *Message) ReadByUser(userID string) bool {
	for _, id := range m.ReadBy {
		if id == userID {
			return true
		}
	}
	return false
}

// StatusFor, mesajın belirli bir izleyici için teslim durumunu döner.
// Mesajın kayıtlı Status alanı "readBy boş değil → read" basitleştirmesini
// taşır; izleyici bazlı kesin durum bu metodla hesaplanır: mesaj ancak
// izleyicinin kendisi ReadBy'da ise "read"dir.
func (m *Message) StatusFor(viewerID string) MessageStatus {
	if m.ReadByUser(viewerID) {
		return MessageStatusRead
	}
	if m.Status == MessageStatusRead {
		return MessageStatusDelivered
	}
	return m.Status
}

// CreateMessageRequest, yeni mesaj gönderme isteği.
type CreateMessageRequest struct {
	Content string  `json:"content"`
	Kind    string  `json:"kind"`
	ReplyTo *string `json:"reply_to"`
}

// Validate, CreateMessageRequest'in geçerli olup olmadığını kontrol eder.
// İçerik trim sonrası boş olamaz, 1-2000 karakter arası olmalı.
// UI send aksiyonunu çekirdeğe ulaşmadan bloklamalıdır ama çekirdek
// yine de re-validate eder.
func (r *CreateMessageRequest) Validate() error {
	r.Content = strings.TrimSpace(r.Content)
	contentLen := utf8.RuneCountInString(r.Content)
	if contentLen < 1 {
		return fmt.Errorf("message content is required")
	}
	if contentLen > 2000 {
		return fmt.Errorf("message content must be at most 2000 characters")
	}
	if r.Kind == "" {
		r.Kind = string(MessageKindText)
	}
	switch MessageKind(r.Kind) {
	case MessageKindText, MessageKindImage, MessageKindFile, MessageKindSystem:
	default:
		return fmt.Errorf("invalid message kind: %s", r.Kind)
	}
	return nil
}

// UpdateMessageRequest, mesaj düzenleme isteği.
type UpdateMessageRequest struct {
	Content string `json:"content"`
}

// Validate, UpdateMessageRequest'in geçerli olup olmadığını kontrol eder.
func (r *UpdateMessageRequest) Validate() error {
	r.Content = strings.TrimSpace(r.Content)
	contentLen := utf8.RuneCountInString(r.Content)
	if contentLen < 1 {
		return fmt.Errorf("message content is required")
	}
	if contentLen > 2000 {
		return fmt.Errorf("message content must be at most 2000 characters")
	}
	return nil
}
