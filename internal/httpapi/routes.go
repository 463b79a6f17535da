package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/skycourt-league/auction-backend/internal/auction"
	"github.com/skycourt-league/auction-backend/internal/auth"
	"github.com/skycourt-league/auction-backend/internal/hub"
	"github.com/skycourt-league/auction-backend/internal/store"
	"github.com/skycourt-league/auction-backend/internal/ws"
)

func SetupRoutes(coord *auction.Coordinator, st *store.Store, h *hub.Hub, verifier *auth.Verifier, log *zap.Logger) http.Handler {
	a := &api{coord: coord, store: st, log: log}

	r := chi.NewRouter()
	r.Use(auth.Middleware(verifier))

	r.Get("/healthz", healthz)

	r.Route("/auction", func(r chi.Router) {
		// Public reads and the push channel.
		r.Get("/current", a.getCurrent)
		r.Get("/history/{playerID}", a.history)
		r.Get("/ws", ws.Handler(coord, h, log))

		// Mutations are admin-only.
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAdmin)
			r.Post("/start", a.start)
			r.Post("/bid", a.placeBid)
			r.Post("/sold", a.markSold)
			r.Post("/unsold", a.markUnsold)
			r.Put("/edit-last-bid", a.editLastBid)
			r.Post("/next-random", a.nextRandom)
			r.Post("/reset", a.reset)
			r.Post("/set-order", a.setOrder)
		})
	})
	return r
}
