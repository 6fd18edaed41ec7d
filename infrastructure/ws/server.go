// Package ws exposes the sync relay over websocket connections carrying
// JSON text frames.
package ws

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"meetsync/contract"
	"meetsync/observability"
	"meetsync/protocol"
	"meetsync/services"
	"meetsync/sink"
)

const writeTimeout = 10 * time.Second

type Handler struct {
	log             *slog.Logger
	sync            services.ISyncService
	monitor         *observability.Monitor
	bufferSize      int
	deliveryTimeout time.Duration
	upgrader        websocket.Upgrader
}

func NewHandler(log *slog.Logger, syncService services.ISyncService,
	monitor *observability.Monitor, bufferSize int, deliveryTimeout time.Duration) *Handler {
	return &Handler{
		log:             log,
		sync:            syncService,
		monitor:         monitor,
		bufferSize:      bufferSize,
		deliveryTimeout: deliveryTimeout,
		upgrader: websocket.Upgrader{
			// The page and the relay are served from the same origin in
			// production; the terminal client has no origin at all.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// ServeHTTP upgrades the request and runs the connection until the
// client goes away. One goroutine reads (so a connection's messages are
// processed strictly in send order), one goroutine writes (gorilla
// allows a single writer); everything the relay wants to push goes
// through the connection's sink.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("Websocket upgrade failed", "error", err)
		return
	}

	connID := contract.ConnID(uuid.NewString())
	h.monitor.IncrConnectionsOpened()
	h.log.Debug("Connection opened", "conn_id", connID)

	outbound := sink.NewConnSink(h.log, h.bufferSize, h.deliveryTimeout).
		WithDropCallback(h.monitor.IncrFramesDropped)

	ctx, cancel := context.WithCancel(r.Context())
	defer func() {
		cancel()
		h.sync.Disconnect(connID)
		h.monitor.IncrConnectionsClosed()
		_ = conn.Close()
		h.log.Debug("Connection closed", "conn_id", connID)
	}()

	go h.writePump(ctx, cancel, conn, outbound)
	h.readLoop(ctx, conn, connID, outbound)
}

func (h *Handler) readLoop(ctx context.Context, conn *websocket.Conn,
	connID contract.ConnID, outbound *sink.ConnSink) {
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			// Transport-level disconnect or error; cleanup happens in
			// the deferred block of ServeHTTP.
			return
		}

		msg, err := protocol.DecodeClient(raw)
		if err != nil {
			h.log.Debug("Ignoring malformed frame", "conn_id", connID, "error", err)
			continue
		}
		if msg == nil {
			// Unknown type, ignored without an error reply.
			continue
		}

		switch m := msg.(type) {
		case protocol.Auth:
			h.reply(ctx, outbound, h.sync.HandleAuth(ctx, connID, m, outbound))
		case protocol.Update:
			h.reply(ctx, outbound, h.sync.HandleUpdate(ctx, connID, m))
		}
	}
}

func (h *Handler) reply(ctx context.Context, outbound *sink.ConnSink, msg protocol.ServerMessage) {
	if msg == nil {
		return
	}
	if err := outbound.Consume(ctx, msg); err != nil {
		h.log.Debug("Reply delivery failed", "error", err)
	}
}

func (h *Handler) writePump(ctx context.Context, cancel context.CancelFunc,
	conn *websocket.Conn, outbound *sink.ConnSink) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-outbound.Outbound:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteJSON(msg); err != nil {
				h.log.Debug("Write failed, dropping connection", "error", err)
				// Closing unblocks the read loop, which owns cleanup.
				cancel()
				_ = conn.Close()
				return
			}
		}
	}
}
