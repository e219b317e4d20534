package eventbus

import (
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/chathub-dev/chathub/pkg/serrors"
)

// Topic names a category of events. Packages that publish declare their
// topics as typed constants instead of passing raw strings around.
type Topic string

// Handler receives every event published on the topic it is subscribed to.
// Delivery is synchronous and in registration order.
type Handler func(event any)

// Subscription identifies a registered handler so it can be removed later.
// Handlers are funcs and cannot be compared, so removal goes by handle.
type Subscription struct {
	topic Topic
	id    uint64
}

func (s *Subscription) Topic() Topic {
	return s.topic
}

var ErrNoSubscribers = serrors.NewError("EVENTBUS_NO_SUBSCRIBERS", "no subscribers registered for topic", "")

type EventBus interface {
	Subscribe(topic Topic, handler Handler) *Subscription
	Unsubscribe(sub *Subscription)
	Publish(topic Topic, event any)
	Clear(topics ...Topic)
	SubscribersCount(topic Topic) int
}

type entry struct {
	id      uint64
	handler Handler
}

type publisherImpl struct {
	log    *logrus.Logger
	mu     sync.RWMutex
	nextID uint64
	topics map[Topic][]entry
}

func NewEventPublisher(log *logrus.Logger) EventBus {
	return &publisherImpl{
		log:    log,
		topics: make(map[Topic][]entry),
	}
}

func (p *publisherImpl) Subscribe(topic Topic, handler Handler) *Subscription {
	if handler == nil {
		panic("eventbus: handler must not be nil")
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nextID++
	p.topics[topic] = append(p.topics[topic], entry{id: p.nextID, handler: handler})
	return &Subscription{topic: topic, id: p.nextID}
}

func (p *publisherImpl) Unsubscribe(sub *Subscription) {
	if sub == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	entries := p.topics[sub.topic]
	for i, e := range entries {
		if e.id == sub.id {
			p.topics[sub.topic] = append(entries[:i], entries[i+1:]...)
			break
		}
	}
	if len(p.topics[sub.topic]) == 0 {
		delete(p.topics, sub.topic)
	}
}

// Publish delivers the event to every handler registered for the topic at
// call time, in registration order. A panicking handler is logged and does
// not stop delivery to the handlers after it. Events with no subscribers are
// dropped; nothing is buffered.
func (p *publisherImpl) Publish(topic Topic, event any) {
	p.mu.RLock()
	entries := make([]entry, len(p.topics[topic]))
	copy(entries, p.topics[topic])
	p.mu.RUnlock()

	if len(entries) == 0 {
		if p.log != nil {
			p.log.Warnf("eventbus.Publish: no subscribers for topic %q", topic)
		}
		return
	}

	for _, e := range entries {
		p.dispatch(topic, e, event)
	}
}

func (p *publisherImpl) dispatch(topic Topic, e entry, event any) {
	defer func() {
		if r := recover(); r != nil {
			if p.log != nil {
				p.log.Errorf("eventbus: handler for topic %q panicked with event %v: %v", topic, event, r)
			}
		}
	}()
	e.handler(event)
}

// Clear removes the named topics, or every subscription when called with no
// arguments.
func (p *publisherImpl) Clear(topics ...Topic) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(topics) == 0 {
		p.topics = make(map[Topic][]entry)
		return
	}
	for _, t := range topics {
		delete(p.topics, t)
	}
}

func (p *publisherImpl) SubscribersCount(topic Topic) int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.topics[topic])
}
