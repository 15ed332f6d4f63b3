package websocket

import (
	"context"
	"log"
	"sync"

	"github.com/go-redis/redis/v8"
)

// PubSubProvider fans events out between service instances
type PubSubProvider interface {
	// Publish sends message to every subscriber of channel
	Publish(ctx context.Context, channel string, message []byte) error

	// Subscribe returns a channel of messages that is closed when ctx is done
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)

	// Close releases all subscriptions
	Close() error
}

// ClusterMessage wraps an event travelling between instances.
type ClusterMessage struct {
	InstanceID string    `json:"instance_id"`
	Event      GameEvent `json:"event"`
}

// NoOpPubSub is used when the service runs as a single instance.
type NoOpPubSub struct{}

// Publish does nothing
func (p *NoOpPubSub) Publish(ctx context.Context, channel string, message []byte) error {
	return nil
}

// Subscribe returns a channel that never receives and closes with ctx
func (p *NoOpPubSub) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	msgCh := make(chan []byte)
	go func() {
		<-ctx.Done()
		close(msgCh)
	}()
	return msgCh, nil
}

// Close does nothing
func (p *NoOpPubSub) Close() error {
	return nil
}

// RedisPubSub implements PubSubProvider with Redis PUBLISH/SUBSCRIBE.
type RedisPubSub struct {
	client redis.UniversalClient

	mu   sync.Mutex
	subs []*redis.PubSub
}

// NewRedisPubSub creates a provider on top of an existing client
func NewRedisPubSub(client redis.UniversalClient) *RedisPubSub {
	return &RedisPubSub{client: client}
}

// Publish sends message to channel
func (p *RedisPubSub) Publish(ctx context.Context, channel string, message []byte) error {
	return p.client.Publish(ctx, channel, message).Err()
}

// Subscribe waits for the subscription to be confirmed and then forwards payloads
func (p *RedisPubSub) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	sub := p.client.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, err
	}

	p.mu.Lock()
	p.subs = append(p.subs, sub)
	p.mu.Unlock()

	out := make(chan []byte, 64)
	go func() {
		defer close(out)
		defer sub.Close()
		in := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-in:
				if !ok {
					return
				}
				select {
				case out <- []byte(msg.Payload):
				default:
					log.Printf("[PubSub] Subscriber of %s is not keeping up, dropping message", channel)
				}
			}
		}
	}()
	return out, nil
}

// Close closes every subscription opened through this provider
func (p *RedisPubSub) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var firstErr error
	for _, sub := range p.subs {
		if err := sub.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	p.subs = nil
	return firstErr
}
