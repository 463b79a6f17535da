package hub

import (
	"context"

	"go.uber.org/zap"

	"github.com/skycourt-league/auction-backend/pkg/types"
)

type HubMsg interface{ isHubMsg() }

type Subscribe struct {
	ID     string
	Outbox chan types.Envelope
}

type Unsubscribe struct{ ID string }

type Publish struct {
	Envelopes []types.Envelope
}

type Count struct {
	Reply chan int
}

type ShutdownHub struct{}

func (Subscribe) isHubMsg()   {}
func (Unsubscribe) isHubMsg() {}
func (Publish) isHubMsg()     {}
func (Count) isHubMsg()       {}
func (ShutdownHub) isHubMsg() {}

// Hub fans out auction envelopes to every open subscriber. Delivery is in
// order per subscriber; a subscriber whose outbox is full is dropped and
// must resynchronize via the snapshot endpoint. Publishing never blocks.
type Hub struct {
	inbox  chan HubMsg
	subs   map[string]chan types.Envelope
	log    *zap.Logger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewHub(parent context.Context, log *zap.Logger) *Hub {
	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:  make(chan HubMsg, 64),
		subs:   make(map[string]chan types.Envelope),
		log:    log,
		ctx:    ctx,
		cancel: cancel,
	}
	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

func (h *Hub) loop() {
	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case m := <-h.inbox:
			switch msg := m.(type) {
			case Subscribe:
				h.subs[msg.ID] = msg.Outbox

			case Unsubscribe:
				if ch, ok := h.subs[msg.ID]; ok {
					close(ch)
					delete(h.subs, msg.ID)
				}

			case Publish:
				for _, env := range msg.Envelopes {
					h.broadcast(env)
				}

			case Count:
				msg.Reply <- len(h.subs)

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) broadcast(env types.Envelope) {
	for id, ch := range h.subs {
		select {
		case ch <- env:
		default:
			// Slow or broken subscriber; it resyncs via snapshot.
			h.log.Warn("dropping slow subscriber", zap.String("subscriber", id))
			close(ch)
			delete(h.subs, id)
		}
	}
}

func (h *Hub) shutdown() {
	for id, ch := range h.subs {
		close(ch)
		delete(h.subs, id)
	}
	h.cancel()
}
