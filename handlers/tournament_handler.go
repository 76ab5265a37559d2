package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/volley-tournament/services"
)

type TournamentHandler struct {
	tournamentService services.TournamentService
}

func NewTournamentHandler(ts services.TournamentService) *TournamentHandler {
	return &TournamentHandler{
		tournamentService: ts,
	}
}

// StartHandler godoc
// @Summary Начать турнир
// @Tags tournament
// @Description Формирует команды, выбирает формат по числу игроков и строит расписание.
// @Accept json
// @Produce json
// @Param input body services.StartTournamentInput true "Игроки и параметры"
// @Success 201 {object} map[string]interface{} "Турнир создан"
// @Failure 400 {object} map[string]string "Неверный список игроков"
// @Failure 409 {object} map[string]string "Турнир уже идёт"
// @Router /tournament [post]
func (h *TournamentHandler) StartHandler(w http.ResponseWriter, r *http.Request) {
	var input services.StartTournamentInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	state, err := h.tournamentService.StartTournament(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"tournament": state}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetStateHandler godoc
// @Summary Текущее состояние турнира
// @Tags tournament
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]string "Нет активного турнира"
// @Router /tournament [get]
func (h *TournamentHandler) GetStateHandler(w http.ResponseWriter, r *http.Request) {
	state, err := h.tournamentService.GetCurrentState(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": state}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) ClearHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.tournamentService.ClearTournament(r.Context()); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TournamentHandler) StandingsHandler(w http.ResponseWriter, r *http.Request) {
	standings, err := h.tournamentService.GetStandings(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": standings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListHistoryHandler godoc
// @Summary История завершённых турниров
// @Tags history
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /history [get]
func (h *TournamentHandler) ListHistoryHandler(w http.ResponseWriter, r *http.Request) {
	history, err := h.tournamentService.ListHistory(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournaments": history}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) GetHistoryHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "tournamentID")

	record, err := h.tournamentService.GetHistory(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"tournament": record}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
