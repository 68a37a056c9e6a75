// Package realtime, cihazlar arası mesaj ve typing senkronizasyonunu
// sağlar.
//
// Tek bir Syncer sözleşmesi, iki implementasyon:
//
//   - PollingSyncer — paylaşılan, inject edilen bir EventLog'u sabit
//     aralıkla tarar. Sıfır dış bağımlılık; watermark takibi subscriber
//     başınadır.
//   - ManagedSyncer — relational tablolar (Tables) + satır-insert push
//     bildirimleri (Notifier) üzerinden çalışır. Bildirim geldiğinde tam
//     mesaj satırını yeniden çeker; typing'i kısa aralıkla poll eder.
//
// Hangi implementasyonun kullanılacağını config seçer; session facade
// sadece Syncer interface'ini görür.
//
// Teslim garantisi her iki tarafta da at-least-once'tır: aynı event bir
// subscriber'a birden fazla teslim edilebilir, kanal içi sıra (FIFO)
// korunur. Duplicate'ler store'un ID bazlı idempotent apply'ında yutulur.
package realtime

import "github.com/fleetpulse/connect/models"

// Op, senkronizasyon event'inin türünü temsil eder.
type Op string

const (
	OpMessageCreate  Op = "message_create"
	OpTypingStart    Op = "typing_start"
	OpTypingStop     Op = "typing_stop"
	OpPresenceUpdate Op = "presence_update"
)

// Event, senkronizasyon katmanından geçen tek bir olaydır.
//
// Mutasyonların çoğu (edit, delete, pin, read) lokal store işlemidir —
// katmandan yalnızca mesaj oluşturma ve typing geçişleri geçer.
type Event struct {
	Op        Op              `json:"op"`
	ChannelID string          `json:"channel_id"`
	UserID    string          `json:"user_id,omitempty"`
	Message   *models.Message `json:"message,omitempty"`
	Seq       int64           `json:"seq"`
}

// Handler, teslim edilen her event için çağrılan callback.
// Syncer implementasyonları handler'ı kendi delivery goroutine'lerinden
// çağırır; handler bloklamamalıdır.
type Handler func(Event)
