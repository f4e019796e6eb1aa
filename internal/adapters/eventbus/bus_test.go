package eventbus

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func TestNewSubscriberValidation(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { _ = client.Close() })
	handler := func(context.Context, []byte) error { return nil }

	_, err := NewSubscriber(SubscriberOptions{Channel: "apphub:events", Handler: handler})
	require.Error(t, err)

	_, err = NewSubscriber(SubscriberOptions{Client: client, Handler: handler})
	require.Error(t, err)

	_, err = NewSubscriber(SubscriberOptions{Client: client, Channel: "apphub:events"})
	require.Error(t, err)

	_, err = NewSubscriber(SubscriberOptions{Client: client, Channel: "apphub:events", Handler: handler})
	require.NoError(t, err)
}
