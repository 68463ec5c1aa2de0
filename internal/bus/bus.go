// Package bus is a topic-based publish/subscribe fabric for pushing
// ride-lifecycle updates (driver matched, trip started, driver location)
// to whatever is listening for them: WebSocket fan-out, the notification
// writer, test harnesses. It is backed by Redis Pub/Sub so publishers and
// subscribers can live in different processes, with each local
// subscription multiplexed over one Redis connection per topic.
package bus

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"

	"ride-engine/internal/apperr"
)

// Handler receives the raw JSON payload published to a topic.
type Handler func(ctx context.Context, payload []byte)

// Unsubscribe removes a previously registered handler.
type Unsubscribe func()

// Bus publishes typed events to named topics and fans them out to every
// local subscriber, regardless of which process published them.
type Bus struct {
	client *redis.Client

	mu     sync.Mutex
	topics map[string]*topic
}

type topic struct {
	pubsub   *redis.PubSub
	cancel   context.CancelFunc
	mu       sync.Mutex
	handlers map[int]Handler
	nextID   int
}

// New creates a Bus over an existing Redis client.
func New(client *redis.Client) *Bus {
	return &Bus{client: client, topics: make(map[string]*topic)}
}

// Publish marshals payload as JSON and broadcasts it on topic.
func (b *Bus) Publish(ctx context.Context, topicName string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return apperr.Wrap(apperr.Internal, "marshal bus payload", err)
	}
	if err := b.client.Publish(ctx, topicName, data).Err(); err != nil {
		return apperr.Wrap(apperr.Dependency, "publish "+topicName, err)
	}
	return nil
}

// Subscribe registers handler to be invoked for every message published to
// topicName, from any process, including this one. The first subscriber to
// a topic opens the underlying Redis subscription; the last one to
// unsubscribe closes it.
func (b *Bus) Subscribe(ctx context.Context, topicName string, handler Handler) Unsubscribe {
	b.mu.Lock()
	t, ok := b.topics[topicName]
	if !ok {
		subCtx, cancel := context.WithCancel(context.Background())
		t = &topic{
			pubsub:   b.client.Subscribe(subCtx, topicName),
			cancel:   cancel,
			handlers: make(map[int]Handler),
		}
		b.topics[topicName] = t
		go t.pump(subCtx)
	}
	id := t.nextID
	t.nextID++
	t.mu.Lock()
	t.handlers[id] = handler
	t.mu.Unlock()
	b.mu.Unlock()

	return func() {
		b.unsubscribe(topicName, id)
	}
}

func (t *topic) pump(ctx context.Context) {
	ch := t.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			t.mu.Lock()
			handlers := make([]Handler, 0, len(t.handlers))
			for _, h := range t.handlers {
				handlers = append(handlers, h)
			}
			t.mu.Unlock()
			for _, h := range handlers {
				callHandler(ctx, h, []byte(msg.Payload))
			}
		}
	}
}

// callHandler invokes h and recovers from any panic so one broken
// subscriber can't stop delivery to the rest of the topic's handlers or
// kill the pump goroutine.
func callHandler(ctx context.Context, h Handler, payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("bus: subscriber handler panicked: %v", r)
		}
	}()
	h(ctx, payload)
}

func (b *Bus) unsubscribe(topicName string, id int) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.topics[topicName]
	if !ok {
		return
	}
	t.mu.Lock()
	delete(t.handlers, id)
	empty := len(t.handlers) == 0
	t.mu.Unlock()

	if empty {
		t.cancel()
		t.pubsub.Close()
		delete(b.topics, topicName)
	}
}

// Close tears down every open topic subscription.
func (b *Bus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for name, t := range b.topics {
		t.cancel()
		t.pubsub.Close()
		delete(b.topics, name)
	}
	return nil
}
