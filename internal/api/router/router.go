package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rbertolino-dev/flow-sub011/internal/budgets"
	"github.com/rbertolino-dev/flow-sub011/internal/contracts"
	httpmiddleware "github.com/rbertolino-dev/flow-sub011/internal/http/middleware"
	"github.com/rbertolino-dev/flow-sub011/internal/leads"
	"github.com/rbertolino-dev/flow-sub011/internal/messaging"
	"github.com/rbertolino-dev/flow-sub011/internal/realtime"
	"github.com/rbertolino-dev/flow-sub011/internal/worker/broadcast"
	"github.com/rbertolino-dev/flow-sub011/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger           *logging.Logger
	LeadsHandler     *leads.Handler
	ContractsHandler *contracts.Handler
	BudgetsHandler   *budgets.Handler
	MessagingHandler *messaging.Handler
	BroadcastHandler *broadcast.Handler
	RealtimeHub      *realtime.Hub
	MetricsHandler   http.Handler

	AdminAuthSecret    string
	CORSAllowedOrigins []string

	// WebhookRateLimit caps inbound webhook requests per second per IP.
	// Zero disables the limiter.
	WebhookRateLimit float64
	WebhookBurst     int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
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

	// Public endpoints (health, metrics, webhooks, signing flow)
	r.Group(func(public chi.Router) {
		public.Get("/health", healthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
		if cfg.MessagingHandler != nil {
			webhook := public
			if cfg.WebhookRateLimit > 0 {
				webhook = public.With(httpmiddleware.RateLimit(cfg.WebhookRateLimit, cfg.WebhookBurst))
			}
			webhook.Post("/webhooks/evolution", cfg.MessagingHandler.Webhook)
		}
		if cfg.RealtimeHub != nil {
			public.Get("/realtime", cfg.RealtimeHub.HandleWebSocket)
		}
		// Client-facing signing flow; the token is the credential.
		if cfg.ContractsHandler != nil {
			public.Route("/sign/{token}", func(sign chi.Router) {
				sign.Get("/", cfg.ContractsHandler.GetByToken)
				sign.Get("/placements", cfg.ContractsHandler.Placements)
				sign.Post("/signatures", cfg.ContractsHandler.CaptureSignature)
			})
		}
	})

	// Admin routes (protected by HMAC JWT)
	if cfg.AdminAuthSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))

			if cfg.LeadsHandler != nil {
				admin.Route("/leads", func(r chi.Router) {
					r.Post("/", cfg.LeadsHandler.Create)
					r.Get("/", cfg.LeadsHandler.List)
					r.Get("/{leadID}", cfg.LeadsHandler.Get)
					r.Patch("/{leadID}/stage", cfg.LeadsHandler.MoveStage)
				})
			}
			if cfg.ContractsHandler != nil {
				admin.Route("/contracts", func(r chi.Router) {
					r.Post("/", cfg.ContractsHandler.Create)
					r.Get("/", cfg.ContractsHandler.List)
					r.Post("/{contractID}/send", cfg.ContractsHandler.Send)
					r.Get("/{contractID}/audit", cfg.ContractsHandler.AuditEvents)
				})
			}
			if cfg.BudgetsHandler != nil {
				admin.Route("/budgets", func(r chi.Router) {
					r.Post("/", cfg.BudgetsHandler.Create)
					r.Get("/", cfg.BudgetsHandler.List)
					r.Get("/{budgetID}", cfg.BudgetsHandler.Get)
					r.Patch("/{budgetID}/status", cfg.BudgetsHandler.UpdateStatus)
				})
			}
			admin.Route("/messaging", func(r chi.Router) {
				if cfg.MessagingHandler != nil {
					r.Post("/send", cfg.MessagingHandler.Send)
					r.Get("/status", cfg.MessagingHandler.Status)
					r.Get("/history", cfg.MessagingHandler.History)
				}
				if cfg.BroadcastHandler != nil {
					r.Post("/broadcast", cfg.BroadcastHandler.Enqueue)
				}
			})
		})
	}

	return r
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
