package events

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Publisher is an out-of-process event sink.
type Publisher interface {
	Publish(ctx context.Context, evt string) error
}

// Bus emits every event to the in-process hub and, when configured, to a
// remote publisher. Remote failures are logged and never block the caller.
type Bus struct {
	Hub    *Hub
	Remote Publisher
	Log    *zap.Logger
}

const remoteTimeout = 2 * time.Second

// Emit builds the envelope and publishes it. A nil Bus is a no-op.
func (b *Bus) Emit(ctx context.Context, reqID, typ string, data any) {
	if b == nil {
		return
	}
	evt := MakeEvent(reqID, typ, 1, data)
	if b.Hub != nil {
		if n := b.Hub.Publish(evt); n > 0 && b.Log != nil {
			b.Log.Debug("slow subscribers missed an event", zap.String("type", typ), zap.Int("dropped", n))
		}
	}
	if b.Remote == nil {
		return
	}

	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), remoteTimeout)
	defer cancel()
	if err := b.Remote.Publish(rctx, evt); err != nil && b.Log != nil {
		b.Log.Warn("publish event failed", zap.String("type", typ), zap.Error(err))
	}
}
