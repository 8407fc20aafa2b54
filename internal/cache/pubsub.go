package cache

import (
	"context"
)

// Listen subscribes to channel and relays payloads until ctx is done or the
// returned close func is called. The subscription is confirmed before
// Listen returns.
func (c *Cache) Listen(ctx context.Context, channel string) (<-chan string, func() error, error) {
	sub := c.Subscribe(ctx, channel)
	if _, err := sub.Receive(ctx); err != nil {
		sub.Close()
		return nil, nil, err
	}

	msgs := sub.Channel()
	out := make(chan string)
	go func() {
		defer close(out)
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				select {
				case out <- msg.Payload:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return out, sub.Close, nil
}
