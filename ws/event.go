// Package ws, managed stratejinin push collaborator'ının server tarafıdır:
// satır-insert bildirimlerini kanal aboneliklerine göre bağlı cihazlara
// dağıtan websocket hub'ı.
//
// Wire formatı realtime.Frame'dir — client tarafındaki
// realtime.RemoteNotifier ile aynı frame'leri konuşur.
package ws

// Heartbeat frame türleri. subscribe/unsubscribe/insert türleri
// realtime.Frame* sabitlerinde tanımlıdır.
const (
	OpHeartbeat    = "heartbeat"
	OpHeartbeatAck = "heartbeat_ack"
)
