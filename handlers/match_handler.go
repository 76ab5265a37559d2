package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Dosada05/volley-tournament/services"
)

type sideInput struct {
	Side int `json:"side"`
}

type scoreInput struct {
	Score1 *int `json:"score1"`
	Score2 *int `json:"score2"`
}

type recomposeInput struct {
	Side1 []string `json:"side1"`
	Side2 []string `json:"side2"`
}

func (h *TournamentHandler) CurrentMatchHandler(w http.ResponseWriter, r *http.Request) {
	view, err := h.tournamentService.GetCurrentMatch(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeMatch(w, r, view)
}

// StartRoundHandler godoc
// @Summary Начать раунд
// @Tags match
// @Produce json
// @Param round path int true "Номер раунда, с 1"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Раунд вне диапазона или не по порядку"
// @Failure 409 {object} map[string]string "Раунд уже сыгран"
// @Router /tournament/rounds/{round}/start [post]
func (h *TournamentHandler) StartRoundHandler(w http.ResponseWriter, r *http.Request) {
	round, err := getRoundFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	view, err := h.tournamentService.StartRound(r.Context(), round)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeMatch(w, r, view)
}

func (h *TournamentHandler) ResetRoundHandler(w http.ResponseWriter, r *http.Request) {
	round, err := getRoundFromURL(r)
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	view, err := h.tournamentService.ResetMatch(r.Context(), round)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeMatch(w, r, view)
}

func (h *TournamentHandler) AddPointHandler(w http.ResponseWriter, r *http.Request) {
	var input sideInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	view, err := h.tournamentService.AddPoint(r.Context(), input.Side)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeMatch(w, r, view)
}

func (h *TournamentHandler) RemovePointHandler(w http.ResponseWriter, r *http.Request) {
	var input sideInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	view, err := h.tournamentService.RemovePoint(r.Context(), input.Side)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeMatch(w, r, view)
}

// SetScoreHandler - ручная правка счёта, допускается в любом состоянии матча.
func (h *TournamentHandler) SetScoreHandler(w http.ResponseWriter, r *http.Request) {
	var input scoreInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	if input.Score1 == nil || input.Score2 == nil {
		failedValidationResponse(w, r, map[string]string{"score": "score1 and score2 are required"})
		return
	}

	view, err := h.tournamentService.SetScore(r.Context(), *input.Score1, *input.Score2)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeMatch(w, r, view)
}

// FinishHandler godoc
// @Summary Завершить текущий матч
// @Tags match
// @Produce json
// @Param force query bool false "Завершить досрочно (по времени)"
// @Success 200 {object} map[string]interface{}
// @Failure 409 {object} map[string]string "Раунд не начат"
// @Failure 422 {object} map[string]string "Матч ещё не может быть завершён или ничья"
// @Router /tournament/match/finish [post]
func (h *TournamentHandler) FinishHandler(w http.ResponseWriter, r *http.Request) {
	force := false
	if forceStr := r.URL.Query().Get("force"); forceStr != "" {
		parsed, err := strconv.ParseBool(forceStr)
		if err != nil {
			badRequestResponse(w, r, errors.New("invalid force query parameter"))
			return
		}
		force = parsed
	}

	result, err := h.tournamentService.FinishMatch(r.Context(), force)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"result": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) RecomposeHandler(w http.ResponseWriter, r *http.Request) {
	var input recomposeInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	view, err := h.tournamentService.RecomposeCurrentMatch(r.Context(), input.Side1, input.Side2)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	h.writeMatch(w, r, view)
}

func (h *TournamentHandler) PredictionHandler(w http.ResponseWriter, r *http.Request) {
	prediction, err := h.tournamentService.PredictCurrentMatch(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"prediction": prediction}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *TournamentHandler) writeMatch(w http.ResponseWriter, r *http.Request, view *services.CurrentMatchView) {
	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": view}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
