package routes

import (
	"net/http"

	"github.com/Dosada05/tournament-forecast/handlers"
	"github.com/Dosada05/tournament-forecast/middleware"
	"github.com/Dosada05/tournament-forecast/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"
)

func SetupRoutes(
	router *chi.Mux,
	forecastHandler *handlers.ForecastHandler,
	previewHandler *handlers.PreviewHandler,
	datasetHandler *handlers.DatasetHandler,
	webSocketHandler *handlers.WebSocketHandler,
	jwtSecret string,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	authenticate := middleware.Authenticate(jwtSecret)

	router.Route("/forecasts", func(r chi.Router) {
		// Публичные маршруты для просмотра прогонов
		r.Get("/{forecastID}", forecastHandler.GetForecast)
		r.Get("/{forecastID}/results", forecastHandler.ListResults)

		// Запуск прогона только для аналитиков и администраторов
		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.RequireRole(models.RoleAnalyst, models.RoleAdmin))
			r.Post("/", forecastHandler.StartForecast)
		})
	})

	router.Route("/fixtures", func(r chi.Router) {
		r.Get("/previews", previewHandler.ListFixturePreviews)

		r.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(middleware.RequireRole(models.RoleAdmin))
			r.Put("/", datasetHandler.ImportFixtures)
			r.Put("/groups", datasetHandler.ImportGroups)
		})
	})

	router.Group(func(r chi.Router) {
		r.Use(authenticate)
		r.Use(middleware.RequireRole(models.RoleAdmin))
		r.Put("/rate-params", datasetHandler.ImportRateParams)
	})

	router.Get("/matches/preview", previewHandler.GetMatchPreview)

	// WebSocket для прогресса прогона
	router.Get("/ws/forecasts/{forecastID}", webSocketHandler.ServeForecastWs)
}
