package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	custommiddleware "github.com/mmeshcher/doormarket/internal/middleware"
)

// SetupRouter настраивает HTTP-маршруты и middleware сервиса doormarket.
func (h *Handler) SetupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(custommiddleware.RequestID)
	r.Use(custommiddleware.Logger(h.logger))
	r.Use(chimiddleware.Recoverer)
	r.Use(custommiddleware.GzipMiddleware)

	r.Route("/api/user", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
	})

	r.Group(func(r chi.Router) {
		r.Use(h.authMiddleware.Middleware)

		r.Route("/api/basket", func(r chi.Router) {
			r.Get("/", h.GetBasket)
			r.Delete("/", h.ClearBasket)

			r.Post("/items", h.AddItem)
			r.Patch("/items/{lineID}", h.UpdateLine)
			r.Delete("/items/{lineID}", h.RemoveLine)

			r.Group(func(r chi.Router) {
				if h.checkoutLimiter != nil {
					r.Use(h.checkoutLimiter.Middleware)
				}
				r.Post("/checkout", h.Checkout)
			})
		})

		r.Route("/api/orders", func(r chi.Router) {
			r.Get("/", h.GetOrders)
			r.Get("/{orderID}", h.GetOrder)
			r.Post("/{orderID}/cancel", h.CancelOrder)
		})

		r.Put("/api/admin/orders/{orderID}/status", h.AdvanceOrderStatus)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
	})

	return r
}
