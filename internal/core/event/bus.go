package event

// Bus is a synchronous named-topic dispatcher. Publish runs handlers on
// the caller's goroutine, in subscription order, before returning.
// Accessed only from the game loop goroutine — no locks.
//
// The bus keeps handler references until they are unsubscribed. It never
// retains payloads, so the only way to leak through the bus is to walk
// away from a live Subscription; callers own teardown.

// Handler receives the topic it fired on and the publisher's payload.
type Handler func(topic string, payload any)

type subscriber struct {
	id uint64
	fn Handler
}

// Bus routes payloads from publishers to topic subscribers.
type Bus struct {
	topics map[string][]subscriber
	nextID uint64
}

// Subscription identifies one handler registration on one topic.
// The zero value is inert; Close on it is a no-op.
type Subscription struct {
	bus   *Bus
	topic string
	id    uint64
}

func NewBus() *Bus {
	return &Bus{topics: make(map[string][]subscriber)}
}

// Subscribe registers fn for topic and returns the handle that detaches it.
func (b *Bus) Subscribe(topic string, fn Handler) Subscription {
	b.nextID++
	b.topics[topic] = append(b.topics[topic], subscriber{id: b.nextID, fn: fn})
	return Subscription{bus: b, topic: topic, id: b.nextID}
}

// Publish invokes every handler subscribed to topic, in subscription
// order. The handler list is snapshotted first so handlers may subscribe
// or unsubscribe freely mid-dispatch: a handler removed earlier in the
// same dispatch is skipped, a handler added during dispatch first fires
// on the next publish.
func (b *Bus) Publish(topic string, payload any) {
	subs := b.topics[topic]
	if len(subs) == 0 {
		return
	}
	snap := append([]subscriber(nil), subs...)
	for _, s := range snap {
		if !b.subscribed(topic, s.id) {
			continue
		}
		s.fn(topic, payload)
	}
}

func (b *Bus) subscribed(topic string, id uint64) bool {
	for _, s := range b.topics[topic] {
		if s.id == id {
			return true
		}
	}
	return false
}

// Off removes the subscription. Unknown or already-closed handles no-op.
func (b *Bus) Off(sub Subscription) {
	subs := b.topics[sub.topic]
	for i, s := range subs {
		if s.id == sub.id {
			b.topics[sub.topic] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(b.topics[sub.topic]) == 0 {
		delete(b.topics, sub.topic)
	}
}

// Clear drops every subscriber on one topic.
func (b *Bus) Clear(topic string) {
	delete(b.topics, topic)
}

// Reset drops every subscriber on every topic.
func (b *Bus) Reset() {
	clear(b.topics)
}

// SubscriberCount returns the number of live subscriptions on topic.
func (b *Bus) SubscriberCount(topic string) int {
	return len(b.topics[topic])
}

// Close detaches the subscription from its bus. Safe to call twice.
func (s Subscription) Close() {
	if s.bus != nil {
		s.bus.Off(s)
	}
}

// Topic returns the topic this subscription listens on.
func (s Subscription) Topic() string { return s.topic }
