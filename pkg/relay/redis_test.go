package relay

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keelwork/keel/pkg/core"
)

type redisCodec struct{}

func (redisCodec) Encode(a core.Action) ([]byte, error) {
	return json.Marshal(map[string]string{"kind": a.Kind()})
}

func (redisCodec) Decode(kind string, _ []byte) (core.Action, error) {
	return hubAction{kind: kind}, nil
}

func TestRedis_PublishesEnvelope(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	r := NewRedisFromClient(client, redisCodec{}, WithChannel("keel:test"))
	defer r.Close()

	sub := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	defer sub.Close()
	ps := sub.Subscribe(context.Background(), "keel:test")
	defer ps.Close()
	_, err = ps.Receive(context.Background()) // subscription confirmation
	require.NoError(t, err)

	da := core.DispatchedAction{
		Seq:    7,
		Origin: core.OriginEffect,
		At:     time.Now().UTC(),
		Action: hubAction{kind: "token"},
	}
	require.NoError(t, r.Publish(context.Background(), da))

	msg, err := ps.ReceiveMessage(context.Background())
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal([]byte(msg.Payload), &env))
	assert.Equal(t, uint64(7), env.Seq)
	assert.Equal(t, "token", env.Kind)
	assert.Equal(t, "effect", env.Origin)
	assert.JSONEq(t, `{"kind":"token"}`, string(env.Payload))
}

func TestRedis_PublishErrorSurfaced(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	r := NewRedisFromClient(client, redisCodec{})
	defer r.Close()

	mr.Close() // server gone
	err = r.Publish(context.Background(), core.DispatchedAction{
		Seq: 1, Origin: core.OriginExternal, At: time.Now().UTC(), Action: hubAction{kind: "x"},
	})
	assert.Error(t, err)
}
