package sink

import (
	"context"
	"log/slog"
	"time"

	"meetsync/protocol"
)

// ConnSink buffers frames for one connection's write pump.
//
// Delivery is best-effort: if the buffer stays full for longer than the
// delivery timeout the frame is dropped, never retried. A slow reader
// must not stall the relay or other meeting participants.
type ConnSink struct {
	Outbound chan protocol.ServerMessage

	log             *slog.Logger
	deliveryTimeout time.Duration
	onDrop          func()
}

func NewConnSink(log *slog.Logger, bufferSize int, deliveryTimeout time.Duration) *ConnSink {
	return &ConnSink{
		Outbound:        make(chan protocol.ServerMessage, bufferSize),
		log:             log,
		deliveryTimeout: deliveryTimeout,
	}
}

// WithDropCallback registers a hook fired once per dropped frame.
func (s *ConnSink) WithDropCallback(fn func()) *ConnSink {
	s.onDrop = fn
	return s
}

// Consume is called by the registry during fan-out. It redirects the
// frame to the owning connection's write pump.
func (s *ConnSink) Consume(ctx context.Context, msg protocol.ServerMessage) error {
	select {
	case s.Outbound <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.deliveryTimeout):
		s.log.Debug("Outbound buffer full, dropping frame")
		if s.onDrop != nil {
			s.onDrop()
		}
		return nil
	}
}
