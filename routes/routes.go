package routes

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/Dosada05/volley-tournament/docs" // Swagger docs
	"github.com/Dosada05/volley-tournament/handlers"
	"github.com/Dosada05/volley-tournament/middleware"
)

func SetupRoutes(
	router *chi.Mux,
	logger *slog.Logger,
	allowedOrigins []string,
	tournamentHandler *handlers.TournamentHandler,
	ratingHandler *handlers.RatingHandler,
	settingsHandler *handlers.SettingsHandler,
	dataHandler *handlers.DataHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(middleware.RequestLogger(logger))
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))

	// Зрители подключаются только на чтение
	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)

	router.Route("/api", func(r chi.Router) {
		r.Route("/tournament", func(r chi.Router) {
			r.Get("/", tournamentHandler.GetStateHandler)
			r.Post("/", tournamentHandler.StartHandler)
			r.Delete("/", tournamentHandler.ClearHandler)
			r.Get("/standings", tournamentHandler.StandingsHandler)

			r.Post("/rounds/{round}/start", tournamentHandler.StartRoundHandler)
			r.Post("/rounds/{round}/reset", tournamentHandler.ResetRoundHandler)

			r.Route("/match", func(r chi.Router) {
				r.Get("/", tournamentHandler.CurrentMatchHandler)
				r.Get("/prediction", tournamentHandler.PredictionHandler)
				r.Post("/points", tournamentHandler.AddPointHandler)
				r.Post("/points/undo", tournamentHandler.RemovePointHandler)
				r.Put("/score", tournamentHandler.SetScoreHandler)
				r.Put("/teams", tournamentHandler.RecomposeHandler)
				r.Post("/finish", tournamentHandler.FinishHandler)
			})
		})

		r.Route("/history", func(r chi.Router) {
			r.Get("/", tournamentHandler.ListHistoryHandler)
			r.Get("/{tournamentID}", tournamentHandler.GetHistoryHandler)
			r.Post("/{tournamentID}/ratings", ratingHandler.ApplyHandler)
		})

		r.Route("/players", func(r chi.Router) {
			r.Get("/", ratingHandler.ListHandler)
			r.Get("/{name}", ratingHandler.GetHandler)
		})

		r.Route("/settings", func(r chi.Router) {
			r.Get("/", settingsHandler.GetHandler)
			r.Put("/", settingsHandler.UpdateHandler)
			r.Post("/reset", settingsHandler.ResetHandler)
		})

		r.Route("/data", func(r chi.Router) {
			r.Get("/export", dataHandler.ExportHandler)
			r.Post("/import", dataHandler.ImportHandler)
			r.Post("/archive", dataHandler.ArchiveHandler)
			r.Post("/archive/restore", dataHandler.RestoreHandler)
		})
	})
}
