package realtime

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventLogConcurrentAppendKeepsSeqOrder(t *testing.T) {
	l := NewEventLog()

	const workers = 8
	const perWorker = 200

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				l.Append(Event{Op: OpMessageCreate, ChannelID: "ch-1"})
			}
		}()
	}
	wg.Wait()

	total := workers * perWorker
	require.Equal(t, total, l.Len())
	assert.Equal(t, int64(total), l.LastSeq())

	// Seq'ler 1..N, boşluksuz ve append sırasıyla — watermark taraması
	// hiçbir event'i atlayamaz
	events := l.Since(0)
	require.Len(t, events, total)
	for i, ev := range events {
		assert.Equal(t, int64(i+1), ev.Seq)
	}
}

func TestEventLogSinceWatermark(t *testing.T) {
	l := NewEventLog()
	for i := 0; i < 5; i++ {
		l.Append(Event{Op: OpMessageCreate, ChannelID: "ch-1"})
	}

	tail := l.Since(3)
	require.Len(t, tail, 2)
	assert.Equal(t, int64(4), tail[0].Seq)
	assert.Equal(t, int64(5), tail[1].Seq)

	assert.Empty(t, l.Since(l.LastSeq()))
}
