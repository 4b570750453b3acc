package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/secmon-lab/contactbook/pkg/usecase"
)

type Server struct {
	router      *chi.Mux
	uc          *usecase.UseCases
	authUC      AuthUseCase
	corsOrigins []string
}

type Options func(*Server)

// WithAuth overrides the authenticator taken from the use cases
func WithAuth(authUC AuthUseCase) Options {
	return func(s *Server) {
		s.authUC = authUC
	}
}

// WithCORS allows browser clients served from origins
func WithCORS(origins []string) Options {
	return func(s *Server) {
		s.corsOrigins = origins
	}
}

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		uc:     uc,
		authUC: uc.Auth,
	}
	for _, opt := range opts {
		opt(s)
	}

	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)
	if len(s.corsOrigins) > 0 {
		r.Use(corsMiddleware(s.corsOrigins))
	}

	r.Get("/health", healthHandler)

	r.Route("/api", func(r chi.Router) {
		// Help center surfaces are public
		r.Route("/knowledge", func(r chi.Router) {
			r.Get("/categories", categoriesHandler(uc.Knowledge))
			r.Get("/categories/{category}", categoryEntriesHandler(uc.Knowledge))
			r.Get("/entries/{key}", knowledgeEntryHandler(uc.Knowledge))
			r.Get("/top", topKnowledgeHandler(uc.Knowledge))
			r.Get("/search", searchKnowledgeHandler(uc.Knowledge))
		})
		r.Post("/ask", askHandler(uc.Knowledge))
		r.Post("/ask/stream", askStreamHandler(uc.Knowledge))

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware(s.authUC))

			r.Get("/me", authMeHandler(s.authUC))

			r.Route("/reminders", func(r chi.Router) {
				r.Post("/", createReminderHandler(uc.Reminder))
				r.Get("/", listRemindersHandler(uc.Reminder))
				r.Post("/scan", triggerScanHandler(uc.Scanner))
				r.Get("/{id}", getReminderHandler(uc.Reminder))
				r.Post("/{id}/status", updateReminderStatusHandler(uc.Reminder))
			})

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", listNotificationsHandler(uc.Notification))
				r.Get("/unread-count", unreadCountHandler(uc.Notification))
				r.Post("/{id}/status", updateNotificationStatusHandler(uc.Notification))
			})
		})
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(r.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
}
