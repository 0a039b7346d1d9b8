package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/Dosada05/tournament-forecast/services"
)

// maxUploadBytes ограничивает размер загружаемых CSV/YAML файлов.
const maxUploadBytes = 4 << 20

type DatasetHandler struct {
	datasetService services.DatasetService
}

func NewDatasetHandler(ds services.DatasetService) *DatasetHandler {
	return &DatasetHandler{datasetService: ds}
}

type importFunc func(ctx context.Context, r io.Reader) (int, error)

func (h *DatasetHandler) importBody(w http.ResponseWriter, r *http.Request, fn importFunc, key string) {
	body := http.MaxBytesReader(w, r.Body, maxUploadBytes)
	defer body.Close()

	count, err := fn(r.Context(), body)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{key: count}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ImportFixtures godoc
// @Summary Заменить фикстуры группового этапа
// @Description Тело запроса: CSV с колонками date, group, home_team, away_team, neutral.
// @Tags datasets
// @Accept text/csv
// @Produce json
// @Success 200 {object} map[string]int
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /fixtures [put]
func (h *DatasetHandler) ImportFixtures(w http.ResponseWriter, r *http.Request) {
	h.importBody(w, r, h.datasetService.ImportFixtures, "fixtures")
}

// ImportGroups godoc
// @Summary Сгенерировать фикстуры по составам групп
// @Description Тело запроса: YAML с ключами start, legs, neutral, groups.
// @Tags datasets
// @Accept application/x-yaml
// @Produce json
// @Success 200 {object} map[string]int
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /fixtures/groups [put]
func (h *DatasetHandler) ImportGroups(w http.ResponseWriter, r *http.Request) {
	h.importBody(w, r, h.datasetService.ImportGroups, "fixtures")
}

// ImportRateParams godoc
// @Summary Заменить параметры модели
// @Description Тело запроса: CSV с колонками team, attack, defence, intercept, home_advantage.
// @Tags datasets
// @Accept text/csv
// @Produce json
// @Success 200 {object} map[string]int
// @Failure 422 {object} map[string]string
// @Security BearerAuth
// @Router /rate-params [put]
func (h *DatasetHandler) ImportRateParams(w http.ResponseWriter, r *http.Request) {
	h.importBody(w, r, h.datasetService.ImportRateParams, "teams")
}
