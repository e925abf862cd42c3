package match

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/Zarux/tictactable/internal/logger"
	"github.com/Zarux/tictactable/pkg/ai"
	"github.com/Zarux/tictactable/pkg/game"
	"github.com/Zarux/tictactable/pkg/tictactoe"
)

type httpHandler struct {
	svc *Service
}

func HTTPHandler(s *Service) http.Handler {
	h := &httpHandler{
		svc: s,
	}
	mux := http.NewServeMux()

	mux.HandleFunc("POST /{gameID}/moves/", h.HandleNewMove)
	mux.HandleFunc("GET /{gameID}", h.HandleGetGame)
	mux.HandleFunc("POST /{$}", h.HandleNewGame)

	return mux
}

type moveRequest struct {
	X *int `json:"x"`
	Y *int `json:"y"`
}

type newGameRequest struct {
	Player int `json:"player"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *httpHandler) HandleNewMove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	var req moveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.X == nil || req.Y == nil {
		writeError(w, http.StatusBadRequest, "body must be {\"x\": int, \"y\": int}")
		return
	}

	snap, err := h.svc.NewMove(ctx, r.PathValue("gameID"), tictactoe.Move{X: *req.X, Y: *req.Y})
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			log.Error("move failed", "error", err)
		}

		writeError(w, status, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

func (h *httpHandler) HandleNewGame(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	req := newGameRequest{Player: int(game.TeamA)}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "body must be {\"player\": 1|2}")
			return
		}
	}

	snap, err := h.svc.NewGame(ctx, game.Team(req.Player))
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			log.Error("new game failed", "error", err)
		}

		writeError(w, status, err.Error())
		return
	}

	w.Header().Set("Location", gameLocation(r, snap.ID))
	writeJSON(w, http.StatusCreated, snap)
}

func (h *httpHandler) HandleGetGame(w http.ResponseWriter, r *http.Request) {
	snap, err := h.svc.Game(r.Context(), r.PathValue("gameID"))
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, snap)
}

// gameLocation resolves id against the path the client posted to, so the
// mount prefix removed by http.StripPrefix is kept.
func gameLocation(r *http.Request, id string) string {
	base := r.URL.Path
	if u, err := url.ParseRequestURI(r.RequestURI); err == nil {
		base = u.Path
	}

	return strings.TrimSuffix(base, "/") + "/" + url.PathEscape(id)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, tictactoe.ErrOutOfRange), errors.Is(err, ErrInvalidTeam):
		return http.StatusBadRequest
	case errors.Is(err, tictactoe.ErrOccupiedCell),
		errors.Is(err, ErrGameOver),
		errors.Is(err, ErrNotYourTurn),
		errors.Is(err, ai.ErrNoLegalMove):
		return http.StatusConflict
	}

	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
