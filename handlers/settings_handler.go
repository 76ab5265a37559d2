package handlers

import (
	"net/http"

	"github.com/Dosada05/volley-tournament/services"
)

type SettingsHandler struct {
	settingsService services.SettingsService
}

func NewSettingsHandler(ss services.SettingsService) *SettingsHandler {
	return &SettingsHandler{settingsService: ss}
}

func (h *SettingsHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settingsService.GetSettings(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"settings": settings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// UpdateHandler godoc
// @Summary Обновить настройки турнира
// @Tags settings
// @Accept json
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 422 {object} map[string]string "Ошибки валидации по полям"
// @Router /settings [put]
func (h *SettingsHandler) UpdateHandler(w http.ResponseWriter, r *http.Request) {
	// Незаданные поля берутся из текущих настроек
	current, err := h.settingsService.GetSettings(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	input := current
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	updated, err := h.settingsService.UpdateSettings(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"settings": updated}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *SettingsHandler) ResetHandler(w http.ResponseWriter, r *http.Request) {
	settings, err := h.settingsService.ResetSettings(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"settings": settings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
