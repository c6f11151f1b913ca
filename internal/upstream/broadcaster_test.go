package upstream

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcasterLateSubscriberReceivesLastState(t *testing.T) {
	b := NewBroadcaster()
	b.Publish(State{Open: true, LastError: &RemoteError{Code: CodeCircuitOpen, Status: 503}})

	ch, cancel := b.Subscribe()
	defer cancel()

	select {
	case state := <-ch:
		assert.True(t, state.Open)
		require.NotNil(t, state.LastError)
		assert.Equal(t, CodeCircuitOpen, state.LastError.Code)
	case <-time.After(time.Second):
		t.Fatal("expected retained state immediately after subscribing")
	}
}

func TestBroadcasterDeliversEveryChange(t *testing.T) {
	b := NewBroadcaster()
	ch, cancel := b.Subscribe()
	defer cancel()

	b.Publish(State{Open: true})
	state := <-ch
	assert.True(t, state.Open)

	b.Publish(State{Open: false})
	state = <-ch
	assert.False(t, state.Open)
}

func TestBroadcasterCoalescesWhenSubscriberLags(t *testing.T) {
	b := NewBroadcaster()
	ch, cancel := b.Subscribe()
	defer cancel()

	b.Publish(State{Open: true, LastError: &RemoteError{Code: CodeTimeout}})
	b.Publish(State{Open: false})

	// The lagging subscriber sees the newest state, not the overwritten one.
	state := <-ch
	assert.False(t, state.Open)

	select {
	case extra := <-ch:
		t.Fatalf("unexpected extra delivery: %+v", extra)
	default:
	}
}

func TestBroadcasterUnsubscribeStopsDelivery(t *testing.T) {
	b := NewBroadcaster()
	ch, cancel := b.Subscribe()
	cancel()

	b.Publish(State{Open: true})

	_, open := <-ch
	assert.False(t, open, "channel must be closed after unsubscribe")
}

func TestBroadcasterConcurrentSubscribeAndPublish(t *testing.T) {
	b := NewBroadcaster()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch, cancel := b.Subscribe()
			<-ch
			cancel()
		}()
	}
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(open bool) {
			defer wg.Done()
			b.Publish(State{Open: open})
		}(i%2 == 0)
	}
	wg.Wait()

	_, ok := b.Snapshot()
	assert.True(t, ok)
}

func TestBroadcasterSnapshotEmpty(t *testing.T) {
	b := NewBroadcaster()
	_, ok := b.Snapshot()
	assert.False(t, ok)
}
