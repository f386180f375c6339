// Package router wires the HTTP surface: public scheduling endpoints, the
// voice tool bridge, and JWT-protected facility administration.
package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/opencourt/receptionist/internal/booking"
	"github.com/opencourt/receptionist/internal/facility"
	"github.com/opencourt/receptionist/internal/http/handlers"
	httpmiddleware "github.com/opencourt/receptionist/internal/http/middleware"
	"github.com/opencourt/receptionist/internal/voice"
	"github.com/opencourt/receptionist/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger          *logging.Logger
	BookingHandler  *booking.Handler
	FacilityHandler *facility.Handler
	VoiceWebhook    *handlers.VoiceWebhookHandler
	VoiceSessions   *voice.SessionHandler
	MetricsHandler  http.Handler

	AdminAuthSecret    string
	CORSAllowedOrigins []string
	RateLimitPerSec    int
	RateLimitBurst     int
}

// New creates the chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	if cfg.RateLimitPerSec > 0 {
		r.Use(httpmiddleware.RateLimit(float64(cfg.RateLimitPerSec), cfg.RateLimitBurst))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.BookingHandler != nil {
			public.Post("/availability", cfg.BookingHandler.CheckAvailability)
			public.Post("/bookings", cfg.BookingHandler.CreateBooking)
		}
		if cfg.VoiceWebhook != nil {
			public.Post("/webhooks/voice/tool-call", cfg.VoiceWebhook.HandleToolCall)
		}
		if cfg.VoiceSessions != nil {
			public.Get("/voice/stream", cfg.VoiceSessions.HandleStream)
		}
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Admin routes, protected by HMAC JWT.
	if cfg.AdminAuthSecret != "" && cfg.FacilityHandler != nil {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			admin.Post("/facilities", cfg.FacilityHandler.CreateFacility)
			admin.Route("/facilities/{facilityID}", func(fac chi.Router) {
				fac.Get("/config", cfg.FacilityHandler.GetConfig)
				fac.Put("/config", cfg.FacilityHandler.UpdateConfig)
			})
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
