package handlers

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/volley-tournament/services"
)

type RatingHandler struct {
	ratingService services.RatingService
}

func NewRatingHandler(rs services.RatingService) *RatingHandler {
	return &RatingHandler{ratingService: rs}
}

// ListHandler godoc
// @Summary Рейтинг игроков
// @Tags players
// @Produce json
// @Param search query string false "Поиск по имени"
// @Param sort query string false "rating, name, total_games, total_wins, win_rate, total_points, average_score_per_game, last_active"
// @Param order query string false "asc или desc"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]string "Неверный фильтр"
// @Router /players [get]
func (h *RatingHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := services.ListRatingsFilter{
		Search: query.Get("search"),
		SortBy: services.RatingSortField(query.Get("sort")),
	}

	switch order := query.Get("order"); order {
	case "":
	case "asc", "desc":
		ascending := order == "asc"
		filter.Ascending = &ascending
	default:
		badRequestResponse(w, r, fmt.Errorf("invalid order query parameter %q", order))
		return
	}

	players, err := h.ratingService.ListRatings(r.Context(), filter)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"players": players}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *RatingHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	name, err := url.PathUnescape(chi.URLParam(r, "name"))
	if err != nil {
		badRequestResponse(w, r, fmt.Errorf("invalid player name: %w", err))
		return
	}

	player, err := h.ratingService.GetPlayer(r.Context(), name)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"player": player}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ApplyHandler повторно применяет пакет рейтингов турнира из истории.
// Повторный вызов для уже применённого турнира ничего не меняет.
func (h *RatingHandler) ApplyHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "tournamentID")

	result, err := h.ratingService.ApplyTournament(r.Context(), id)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"ratings": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
