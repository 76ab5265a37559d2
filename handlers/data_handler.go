package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Dosada05/volley-tournament/models"
	"github.com/Dosada05/volley-tournament/services"
)

const importMaxBytes = 32 << 20

type DataHandler struct {
	dataService services.DataService
}

func NewDataHandler(ds services.DataService) *DataHandler {
	return &DataHandler{dataService: ds}
}

// ExportHandler отдаёт весь набор данных одним JSON-документом.
func (h *DataHandler) ExportHandler(w http.ResponseWriter, r *http.Request) {
	doc, err := h.dataService.Export(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	filename := fmt.Sprintf("volley-export-%s.json", doc.ExportedAt.Format("2006-01-02"))
	headers := make(http.Header)
	headers.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	if err := writeJSON(w, http.StatusOK, doc, headers); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ImportHandler godoc
// @Summary Импорт данных
// @Tags data
// @Description Полностью заменяет рейтинги, историю, настройки и текущий турнир.
// @Accept json
// @Produce json
// @Success 204
// @Failure 400 {object} map[string]string "Некорректный документ"
// @Router /data/import [post]
func (h *DataHandler) ImportHandler(w http.ResponseWriter, r *http.Request) {
	var doc models.DataExport
	if err := readJSONLimit(w, r, &doc, importMaxBytes); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.dataService.Import(r.Context(), &doc); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *DataHandler) ArchiveHandler(w http.ResponseWriter, r *http.Request) {
	result, err := h.dataService.Archive(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"archive": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *DataHandler) RestoreHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Key string `json:"key"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	input.Key = strings.TrimSpace(input.Key)
	if input.Key == "" {
		badRequestResponse(w, r, errors.New("key is required"))
		return
	}

	if err := h.dataService.RestoreArchive(r.Context(), input.Key); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
