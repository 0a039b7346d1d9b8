package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/Dosada05/tournament-forecast/services"
)

type PreviewHandler struct {
	previewService services.PreviewService
}

func NewPreviewHandler(ps services.PreviewService) *PreviewHandler {
	return &PreviewHandler{previewService: ps}
}

// ListFixturePreviews godoc
// @Summary Вероятности исходов всех матчей группового этапа
// @Tags previews
// @Produce json
// @Success 200 {array} models.MatchPreview
// @Failure 422 {object} map[string]string
// @Router /fixtures/previews [get]
func (h *PreviewHandler) ListFixturePreviews(w http.ResponseWriter, r *http.Request) {
	previews, err := h.previewService.FixturePreviews(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"previews": previews}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetMatchPreview godoc
// @Summary Вероятности исходов произвольной пары
// @Tags previews
// @Produce json
// @Param home query string true "Хозяева"
// @Param away query string true "Гости"
// @Param neutral query bool false "Нейтральное поле (по умолчанию true)"
// @Success 200 {object} models.MatchPreview
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /matches/preview [get]
func (h *PreviewHandler) GetMatchPreview(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	home := query.Get("home")
	away := query.Get("away")
	if home == "" || away == "" {
		badRequestResponse(w, r, fmt.Errorf("query parameters 'home' and 'away' are required"))
		return
	}

	neutral := true
	if raw := query.Get("neutral"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			badRequestResponse(w, r, fmt.Errorf("invalid 'neutral' parameter: %q", raw))
			return
		}
		neutral = v
	}

	preview, err := h.previewService.MatchPreview(r.Context(), home, away, neutral)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"preview": preview}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
