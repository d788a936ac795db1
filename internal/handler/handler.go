package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"fsanano/checkout/internal/metrics"
	"fsanano/checkout/internal/service"
)

type Handler struct {
	router   *chi.Mux
	auth     *service.AuthService
	checks   *service.CheckService
	hostURL  string
	validate *validator.Validate
}

// NewHandler builds the HTTP API. hostURL is the base of every check's public_url.
func NewHandler(authSvc *service.AuthService, checkSvc *service.CheckService, hostURL string) *Handler {
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)
	router.Use(metrics.Instrument)

	h := &Handler{
		router:   router,
		auth:     authSvc,
		checks:   checkSvc,
		hostURL:  hostURL,
		validate: newValidator(),
	}

	h.registerRoutes()
	return h
}

func (h *Handler) registerRoutes() {
	h.router.Get("/health", h.HealthCheck)
	h.router.Method(http.MethodGet, "/metrics", metrics.Handler())

	h.router.Route("/users", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
	})

	h.router.Route("/checks", func(r chi.Router) {
		r.With(compress).Get("/{checkID}/view", h.ViewCheck)

		r.Group(func(r chi.Router) {
			r.Use(h.requireUser)
			r.Post("/", h.CreateCheck)
			r.Get("/", h.ListChecks)
			r.Get("/{checkID}", h.GetCheck)
		})
	})
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}
