package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"
)

type RouterDeps struct {
	Sessions       *SessionRegistry
	Verifier       *TokenVerifier
	Placer         OrderPlacer
	Orders         OrderCanceller
	RequestTimeout time.Duration
	Log            logrus.FieldLogger
}

func NewRouter(d RouterDeps) http.Handler {
	cartHandler := NewCartHandler(d.RequestTimeout)
	sessionHandler := NewSessionHandler(d.Verifier, d.RequestTimeout, d.Log)
	checkoutHandler := NewCheckoutHandler(d.Placer, d.RequestTimeout, d.Log)
	ordersHandler := NewOrdersHandler(d.Orders, d.RequestTimeout, d.Log)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger(d.Log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(d.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(SessionMiddleware(d.Sessions))

		r.Route("/session", func(r chi.Router) {
			r.Get("/", sessionHandler.Current)
			r.Post("/login", sessionHandler.Login)
			r.Post("/logout", sessionHandler.Logout)
		})
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", cartHandler.GetCart)
			r.Delete("/", cartHandler.ClearCart)
			r.Post("/items", cartHandler.AddItem)
			r.Put("/items/{line_id}", cartHandler.UpdateQuantity)
			r.Delete("/items/{line_id}", cartHandler.RemoveItem)
		})
		r.Post("/saved/{product_id}/toggle", cartHandler.ToggleSaved)
		r.Route("/checkout", func(r chi.Router) {
			r.Post("/validate", checkoutHandler.Validate)
			r.Post("/", checkoutHandler.PlaceOrder)
		})
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordersHandler.ListOrders)
			r.Post("/{order_id}/cancel", ordersHandler.CancelOrder)
		})
	})

	return r
}
