package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/skycourt-league/auction-backend/internal/auction"
	"github.com/skycourt-league/auction-backend/internal/hub"
	"github.com/skycourt-league/auction-backend/pkg/types"
)

// Handler upgrades a viewer connection, registers it with the hub, and
// writes envelopes until the client goes away. The first envelope is always
// a full snapshot; live events the client already saw (seq at or below the
// snapshot's) are its job to drop.
func Handler(coord *auction.Coordinator, h *hub.Hub, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan types.Envelope, 16)
		subID := uuid.NewString()
		h.Inbox() <- hub.Subscribe{ID: subID, Outbox: out}
		defer func() { h.Inbox() <- hub.Unsubscribe{ID: subID} }()

		snap, err := coord.Snapshot(r.Context())
		if err != nil {
			return
		}
		if err := write(r.Context(), conn, types.Envelope{
			Type: types.TypeSnapshot,
			Data: snap,
			Seq:  snap.Seq,
		}); err != nil {
			return
		}

		// Reader goroutine only to detect disconnects; viewers don't send.
		readDone := make(chan struct{})
		go func() {
			defer close(readDone)
			for {
				if _, _, err := conn.Read(r.Context()); err != nil {
					return
				}
			}
		}()

		for {
			select {
			case env, ok := <-out:
				if !ok {
					// Dropped by the hub as too slow; the client resyncs
					// via snapshot on reconnect.
					log.Debug("subscriber outbox closed", zap.String("subscriber", subID))
					return
				}
				if err := write(r.Context(), conn, env); err != nil {
					return
				}
			case <-readDone:
				return
			case <-r.Context().Done():
				return
			}
		}
	}
}

func write(parent context.Context, conn *websocket.Conn, env types.Envelope) error {
	payload, err := json.Marshal(env)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(parent, 3*time.Second)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, payload)
}
