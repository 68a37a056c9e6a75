package realtime

import (
	"sync"
)

// EventLog, PollingSyncer'ların taradığı paylaşılan append-only event
// log'udur.
//
// Log başlangıçta oluşturulur ve her PollingSyncer'a explicit olarak
// inject edilir — modül seviyesi global state YOKTUR. Aynı process'teki
// iki syncer aynı log'u paylaşarak cihazlar arası senkronizasyonu simüle
// eder; testler de aynı seam'i kullanır.
type EventLog struct {
	mu     sync.RWMutex
	events []Event
	seq    int64
}

// NewEventLog, boş bir EventLog oluşturur.
func NewEventLog() *EventLog {
	return &EventLog{}
}

// Append, event'e monoton artan bir Seq atar ve log'a ekler.
// Atanan Seq ile birlikte event'in kopyası döner.
//
// Seq ataması ve append aynı kritik bölgededir: iki eşzamanlı publisher
// Seq sırasını bozamaz. Atama lock dışında yapılsaydı, düşük Seq'i
// rezerve edip preempt edilen bir publisher'ın event'i, watermark'ı
// çoktan ilerletmiş bir subscriber'a hiç teslim edilmeyebilirdi.
func (l *EventLog) Append(ev Event) Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.seq++
	ev.Seq = l.seq
	l.events = append(l.events, ev)
	return ev
}

// Since, Seq değeri after'dan büyük tüm event'leri Seq sırasıyla döner.
// Poll döngüsünün watermark taraması budur.
func (l *EventLog) Since(after int64) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	// events Seq sırasında append edilir — binary search yerine
	// sondan tarama yeterli olurdu ama log kısa yaşar, lineer geçiyoruz
	var out []Event
	for _, ev := range l.events {
		if ev.Seq > after {
			out = append(out, ev)
		}
	}
	return out
}

// LastSeq, log'daki en büyük Seq değerini döner (boş log → 0).
// Yeni subscriber'lar watermark'larını buradan başlatır: geçmiş
// event'ler yeniden teslim edilmez.
func (l *EventLog) LastSeq() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return l.seq
}

// Len, log'daki toplam event sayısını döner.
func (l *EventLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return len(l.events)
}
