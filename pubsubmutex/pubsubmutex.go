package pubsubmutex

import (
	"sync"

	"github.com/cskr/pubsub"
)

// PubSub wraps cskr/pubsub so publishing and subscribing after Shutdown are
// safe no-ops instead of panics. The http layer fans encoded frame payloads
// out through topics here; client handlers unsubscribe on their own schedule
// and must not care whether the server shut down first.
type PubSub struct {
	pubsub   *pubsub.PubSub
	capacity int
	running  bool
	guard    sync.RWMutex
}

// New creates a new PubSub. Capacity is the subscriber channel buffer;
// TryPub drops the payload for a subscriber whose buffer is full.
func New(capacity int) *PubSub {
	return &PubSub{
		capacity: capacity,
	}
}

// Start makes the PubSub usable, replacing any previous instance
func (p *PubSub) Start() {
	p.guard.Lock()
	defer p.guard.Unlock()
	p.shutdown()
	p.pubsub = pubsub.New(p.capacity)
	p.running = true
}

// Sub returns a channel receiving payloads published to topics. After
// Shutdown the returned channel is already closed, so subscribers drain
// immediately instead of blocking forever.
func (p *PubSub) Sub(topics ...string) chan interface{} {
	p.guard.RLock()
	defer p.guard.RUnlock()
	if !p.running {
		ch := make(chan interface{})
		close(ch)
		return ch
	}
	return p.pubsub.Sub(topics...)
}

// Unsub removes ch from topics, or from all its topics when none are given
func (p *PubSub) Unsub(ch chan interface{}, topics ...string) {
	p.guard.RLock()
	defer p.guard.RUnlock()
	if !p.running || ch == nil {
		return
	}
	p.pubsub.Unsub(ch, topics...)
}

// TryPub publishes msg to topics without blocking: subscribers whose buffer
// is full simply miss it. Keeps slow stream clients from backing anything up.
func (p *PubSub) TryPub(msg interface{}, topics ...string) {
	p.guard.RLock()
	defer p.guard.RUnlock()
	if !p.running {
		return
	}
	p.pubsub.TryPub(msg, topics...)
}

// Shutdown closes all subscriber channels and disables the PubSub
func (p *PubSub) Shutdown() {
	p.guard.Lock()
	defer p.guard.Unlock()
	p.shutdown()
}

func (p *PubSub) shutdown() {
	if p.pubsub != nil && p.running {
		p.pubsub.Shutdown()
		p.running = false
	}
	p.pubsub = nil
}
