package handlers

import (
	"net/http"

	"github.com/Dosada05/tournament-forecast/middleware"
	"github.com/Dosada05/tournament-forecast/services"
)

type ForecastHandler struct {
	forecastService services.ForecastService
}

func NewForecastHandler(fs services.ForecastService) *ForecastHandler {
	return &ForecastHandler{forecastService: fs}
}

// StartForecast godoc
// @Summary Запустить прогон прогноза
// @Description Проверяет конфигурацию и запускает Monte Carlo прогон в фоне. Тело запроса необязательно.
// @Tags forecasts
// @Accept json
// @Produce json
// @Param overrides body services.ForecastOverrides false "Переопределение trials, seed, workers"
// @Success 202 {object} models.ForecastRun
// @Failure 400 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /forecasts [post]
func (h *ForecastHandler) StartForecast(w http.ResponseWriter, r *http.Request) {
	var input services.ForecastOverrides
	if err := readJSON(w, r, &input, true); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var userID *int
	if id, err := middleware.GetUserIDFromContext(r.Context()); err == nil {
		userID = &id
	}

	run, err := h.forecastService.StartForecast(r.Context(), input, userID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusAccepted, jsonResponse{"forecast": run}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetForecast godoc
// @Summary Получить прогон по ID
// @Tags forecasts
// @Produce json
// @Param forecastID path int true "ID прогона"
// @Success 200 {object} models.ForecastRun
// @Failure 404 {object} map[string]string
// @Router /forecasts/{forecastID} [get]
func (h *ForecastHandler) GetForecast(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "forecastID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	run, err := h.forecastService.GetForecast(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"forecast": run}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListResults godoc
// @Summary Результаты завершённого прогона
// @Description Строки отсортированы по вероятности чемпионства, финала, полуфинала и четвертьфинала.
// @Tags forecasts
// @Produce json
// @Param forecastID path int true "ID прогона"
// @Success 200 {array} models.CompetitorForecast
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /forecasts/{forecastID}/results [get]
func (h *ForecastHandler) ListResults(w http.ResponseWriter, r *http.Request) {
	id, err := getIDFromURL(r, "forecastID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	rows, err := h.forecastService.ListResults(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"results": rows}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
