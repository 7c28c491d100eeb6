package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	backend "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/keelwork/keel/pkg/core"
)

// Envelope is the JSON shape published to the Redis channel.
type Envelope struct {
	Seq     uint64          `json:"seq"`
	Kind    string          `json:"kind"`
	Origin  string          `json:"origin"`
	At      time.Time       `json:"at"`
	Payload json.RawMessage `json:"payload"`
}

// Redis publishes encoded action envelopes to a Redis channel, fire and
// forget. It implements core.Sink.
type Redis struct {
	client  *backend.Client
	codec   core.ActionCodec
	channel string
	logger  *zap.Logger
}

// RedisOption configures a Redis relay.
type RedisOption func(*Redis)

// WithChannel sets the Redis channel name.
func WithChannel(name string) RedisOption {
	return func(r *Redis) {
		if name != "" {
			r.channel = name
		}
	}
}

// WithRedisLogger sets the logger used for publish failures.
func WithRedisLogger(l *zap.Logger) RedisOption {
	return func(r *Redis) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRedis creates a relay publishing to the given address.
func NewRedis(address, password string, db int, codec core.ActionCodec, opts ...RedisOption) *Redis {
	client := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewRedisFromClient(client, codec, opts...)
}

// NewRedisFromClient creates a relay from an existing client.
func NewRedisFromClient(client *backend.Client, codec core.ActionCodec, opts ...RedisOption) *Redis {
	r := &Redis{
		client:  client,
		codec:   codec,
		channel: "keel:actions",
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Publish implements core.Sink.
func (r *Redis) Publish(ctx context.Context, da core.DispatchedAction) error {
	payload, err := r.codec.Encode(da.Action)
	if err != nil {
		return fmt.Errorf("encode %s: %w", da.Action.Kind(), err)
	}
	msg, err := json.Marshal(Envelope{
		Seq:     da.Seq,
		Kind:    da.Action.Kind(),
		Origin:  string(da.Origin),
		At:      da.At,
		Payload: payload,
	})
	if err != nil {
		return err
	}
	if err := r.client.Publish(ctx, r.channel, msg).Err(); err != nil {
		r.logger.Warn("redis publish failed",
			zap.Uint64("seq", da.Seq),
			zap.String("channel", r.channel),
			zap.Error(err))
		return fmt.Errorf("publish seq %d: %w", da.Seq, err)
	}
	return nil
}

// Close releases the underlying client.
func (r *Redis) Close() error { return r.client.Close() }
