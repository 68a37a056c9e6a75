package models

import "time"

// TypingIndicator, bir kullanıcının bir kanalda yazmakta olduğunu gösteren
// geçici (ephemeral) kayıt.
//
// Invariant: StartedAt'i TTL'den eski olan bir indicator süresi dolmuş
// sayılır ve henüz sweep edilmemiş olsa bile typing listelerinde görünmez.
// Kalıcılığı yoktur — in-memory, O(aktif yazar) state'tir.
type TypingIndicator struct {
	ChannelID string    `json:"channel_id"`
	UserID    string    `json:"user_id"`
	StartedAt time.Time `json:"started_at"`
}

// NotificationSettings, kullanıcının bildirim tercihleri.
// Çekirdek sadece taşır — push teslimi kapsam dışıdır.
type NotificationSettings struct {
	Mentions       bool `json:"mentions"`
	AllMessages    bool `json:"all_messages"`
	ChannelUpdates bool `json:"channel_updates"`
	DirectMessages bool `json:"direct_messages"`
	SoundEnabled   bool `json:"sound_enabled"`
}

// DefaultNotificationSettings, yeni oturumların başlangıç tercihleri.
func DefaultNotificationSettings() NotificationSettings {
	return NotificationSettings{
		Mentions:       true,
		AllMessages:    false,
		ChannelUpdates: true,
		DirectMessages: true,
		SoundEnabled:   true,
	}
}
