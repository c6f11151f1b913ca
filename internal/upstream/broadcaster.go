package upstream

import (
	"sync"
	"time"
)

// State is the last known upstream health, pushed to observers on every
// classified failure and every recovery.
type State struct {
	Open      bool         `json:"open"`
	LastError *RemoteError `json:"last_error,omitempty"`
	ChangedAt time.Time    `json:"changed_at"`
}

// Broadcaster fans the circuit state out to any number of subscribers. It
// retains the most recent state so a subscriber attaching after a failure
// was classified still sees it immediately instead of a stale default.
//
// Construct one at the composition root and pass it by reference; there is
// no package-level instance.
type Broadcaster struct {
	mu     sync.Mutex
	subs   map[int]chan State
	nextID int
	last   *State
}

// NewBroadcaster constructs an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subs: make(map[int]chan State)}
}

// Publish records the new state and delivers it to every subscriber. A slow
// subscriber is coalesced to the latest state rather than blocking the
// publisher or dropping the channel.
func (b *Broadcaster) Publish(state State) {
	if state.ChangedAt.IsZero() {
		state.ChangedAt = time.Now().UTC()
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	retained := state
	b.last = &retained

	for _, ch := range b.subs {
		select {
		case ch <- state:
		default:
			// Buffer full: replace the pending state with the newest one.
			select {
			case <-ch:
			default:
			}
			ch <- state
		}
	}
}

// Subscribe registers a new observer. The returned channel immediately
// carries the last published state, if any. The cancel function removes the
// subscription and closes the channel; it is safe to call concurrently with
// Publish and with other subscriptions.
func (b *Broadcaster) Subscribe() (<-chan State, func()) {
	ch := make(chan State, 1)

	b.mu.Lock()
	id := b.nextID
	b.nextID++
	b.subs[id] = ch
	if b.last != nil {
		ch <- *b.last
	}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if existing, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(existing)
		}
	}
	return ch, cancel
}

// Snapshot returns the last published state, if any.
func (b *Broadcaster) Snapshot() (State, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.last == nil {
		return State{}, false
	}
	return *b.last, true
}
