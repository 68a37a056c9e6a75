package session

import (
	"fmt"
	"time"

	"github.com/fleetpulse/connect/config"
	"github.com/fleetpulse/connect/presence"
	"github.com/fleetpulse/connect/realtime"
	"github.com/fleetpulse/connect/repository"
)

// Bu dosya, iki sync stratejisi için hazır kurulum fonksiyonlarını içerir.
// Session'ın kendisi stratejiden habersizdir — realtime.Syncer interface'i
// üzerinden çalışır; strateji seçimi burada, kurulum anında yapılır.

// Collaborators, NewFromConfig'in strateji başına ihtiyaç duyduğu
// bağımlılıklar. Polling için EventLog; managed için Messages + Typing
// (+ opsiyonel Notifier, boşsa process içi LocalNotifier kurulur).
type Collaborators struct {
	EventLog *realtime.EventLog
	Messages repository.MessageRepository
	Typing   repository.TypingRepository
	Notifier realtime.Notifier
}

// NewFromConfig, SYNC_STRATEGY konfigürasyonuna göre Session kurar.
func NewFromConfig(cfg config.SyncConfig, auth Authenticator, channels ChannelSource, c Collaborators) (*Session, error) {
	switch cfg.Strategy {
	case config.SyncStrategyPolling:
		if c.EventLog == nil {
			return nil, fmt.Errorf("polling strategy requires a shared event log")
		}
		return NewPolling(auth, channels, c.EventLog, time.Duration(cfg.PollIntervalMS)*time.Millisecond), nil
	case config.SyncStrategyManaged:
		if c.Messages == nil || c.Typing == nil {
			return nil, fmt.Errorf("managed strategy requires message and typing repositories")
		}
		notifier := c.Notifier
		if notifier == nil {
			notifier = realtime.NewLocalNotifier()
		}
		tables := repository.NewSyncTables(c.Messages, c.Typing)
		syncer := realtime.NewManagedSyncer(tables, notifier, presence.TypingTTL, time.Duration(cfg.TypingPollMS)*time.Millisecond)
		return New(auth, channels, syncer), nil
	default:
		return nil, fmt.Errorf("unknown sync strategy: %q", cfg.Strategy)
	}
}

// NewPolling, paylaşılan bir event log üzerinde polling stratejisiyle
// çalışan bir Session kurar. Aynı log'u paylaşan tüm session'lar
// birbirinin yayınlarını görür — tek process'te çoklu oturum senaryosu
// (ve testler) için yeterlidir.
func NewPolling(auth Authenticator, channels ChannelSource, eventLog *realtime.EventLog, pollInterval time.Duration) *Session {
	return New(auth, channels, realtime.NewPollingSyncer(eventLog, pollInterval))
}

// NewManagedLocal, managed stratejiyi process içi bildirimlerle kurar:
// mesajlar repository'lere yazılır, insert bildirimleri LocalNotifier
// üzerinden aynı process'teki diğer session'lara dağıtılır. Backend ile
// aynı process'te çalışan oturumlar için kullanılır.
func NewManagedLocal(auth Authenticator, channels ChannelSource, messages repository.MessageRepository, typing repository.TypingRepository, notifier realtime.Notifier) *Session {
	if notifier == nil {
		notifier = realtime.NewLocalNotifier()
	}
	tables := repository.NewSyncTables(messages, typing)
	syncer := realtime.NewManagedSyncer(tables, notifier, presence.TypingTTL, realtime.DefaultTypingPollInterval)
	return New(auth, channels, syncer)
}

// NewManagedRemote, managed stratejiyi uzak bir backend'e bağlar:
// bildirimler backend'in /ws endpoint'inden websocket ile gelir, kopan
// bağlantı backoff ile yeniden kurulur ve abonelikler tekrar gönderilir.
//
// wsURL ör: "ws://localhost:9090/ws"; token, sign-in'den dönen access token.
func NewManagedRemote(auth Authenticator, channels ChannelSource, messages repository.MessageRepository, typing repository.TypingRepository, wsURL, token string) *Session {
	notifier := realtime.NewRemoteNotifier(wsURL, token)
	tables := repository.NewSyncTables(messages, typing)
	syncer := realtime.NewManagedSyncer(tables, notifier, presence.TypingTTL, realtime.DefaultTypingPollInterval)
	return New(auth, channels, syncer)
}
