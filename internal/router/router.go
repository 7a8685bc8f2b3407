package router

import (
	"log"
	"net/http"

	"github.com/elpijiku/api/internal/config"
	"github.com/elpijiku/api/internal/database"
	"github.com/elpijiku/api/internal/enum"
	"github.com/elpijiku/api/internal/handler"
	mw "github.com/elpijiku/api/internal/middleware"
	"github.com/elpijiku/api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
)

// New creates a Chi router with all application routes wired up. The HTTP
// layer is the caller of the planning engine: it authenticates and performs
// the role check before any mutating operation reaches a service.
func New(cfg *config.Config, queries *database.Queries, pool *pgxpool.Pool) chi.Router {
	r := chi.NewRouter()

	// Standard middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS configuration
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{
			"http://localhost:5173",            // SvelteKit dev server
			"https://admin.elpijiku.co.id",     // Production admin
			"https://stg-admin.elpijiku.co.id", // Staging admin
		},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // 5 minutes
	}))

	// Public routes
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","version":"1.0.0"}`))
	})

	// Auth routes (public)
	authHandler := handler.NewAuthHandler(queries, cfg.JWTSecret)
	authHandler.RegisterRoutes(r)

	// Shared services
	recapSvc := service.NewRecapService(queries)
	bulkSvc := service.NewBulkService(pool, func(db database.DBTX) service.BulkStore {
		return database.New(db)
	})
	generateSvc := service.NewGenerateService(pool, func(db database.DBTX) service.GenerateStore {
		return database.New(db)
	}, nil)

	// Protected routes (require authentication)
	r.Group(func(r chi.Router) {
		r.Use(mw.Authenticate(cfg.JWTSecret))

		// Outlet lookup (read-only, any authenticated role)
		outletHandler := handler.NewOutletHandler(queries)
		r.Route("/outlets", outletHandler.RegisterRoutes)

		// One route tree per ledger; mutations are gated on role.
		mountLedger := func(r chi.Router, ledger database.Ledger) {
			recordsHandler := handler.NewRecordsHandler(queries, ledger)
			recapHandler := handler.NewRecapHandler(recapSvc, ledger)
			bulkHandler := handler.NewBulkHandler(bulkSvc, ledger)

			r.Get("/", recordsHandler.List)
			r.Get("/recap", recapHandler.Recap)

			r.Group(func(r chi.Router) {
				r.Use(mw.RequireRole(enum.UserRoleAdmin, enum.UserRoleOperator))
				r.Post("/", recordsHandler.Create)
				r.Put("/{id}", recordsHandler.Update)
				r.Delete("/{id}", recordsHandler.Delete)
				r.Post("/bulk", bulkHandler.Apply)
			})
		}

		r.Route("/distributions", func(r chi.Router) {
			mountLedger(r, database.LedgerDISTRIBUTION)
		})

		r.Route("/plans", func(r chi.Router) {
			mountLedger(r, database.LedgerPLAN)

			// Regenerating a whole month is admin-only.
			generateHandler := handler.NewGenerateHandler(generateSvc)
			r.With(mw.RequireRole(enum.UserRoleAdmin)).Post("/generate", generateHandler.Generate)
		})
	})

	log.Println("Router initialized with all handlers")
	return r
}
