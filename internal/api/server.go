package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"fintechfootball/internal/config"
	"fintechfootball/internal/feed"
	"fintechfootball/internal/game"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
)

// Recorder stores finished games. It is optional; without one history is
// always empty.
type Recorder interface {
	RecordGame(ctx context.Context, res game.Result) error
	RecentResults(ctx context.Context, limit int) ([]game.Result, error)
}

// Feed pushes table updates to live subscribers.
type Feed interface {
	Publish(msg feed.Message)
	ServeWS(w http.ResponseWriter, r *http.Request, initial *feed.Message)
}

const replayCacheSize = 256

type Server struct {
	cfg     config.APIConfig
	log     *slog.Logger
	archive Recorder
	feed    Feed
	mux     *chi.Mux

	// mu serialises every intent against the single table.
	mu      sync.Mutex
	game    *game.Session
	replays map[string]replay
	order   []string
}

type replay struct {
	status int
	body   any
}

func New(cfg config.APIConfig, logger *slog.Logger, session *game.Session, archive Recorder, hub Feed) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		cfg:     cfg,
		log:     logger,
		archive: archive,
		feed:    hub,
		mux:     chi.NewRouter(),
		game:    session,
		replays: make(map[string]replay),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Get("/feed", s.handleFeed)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))
			r.Get("/state", s.handleState)
			r.Get("/standings", s.handleStandings)
			r.Get("/history", s.handleHistory)
			r.Get("/projects", s.handleProjects)
			r.Get("/projects/{id}/analysis", s.handleAnalysis)

			r.Post("/game/start", s.handleStart)
			r.Post("/game/reset", s.handleReset)
			r.Post("/game/end", s.handleEnd)
			r.Post("/turn/roll", s.handleRoll)
			r.Post("/turn/advance", s.handleAdvance)
			r.Post("/projects/{id}/invest", s.handleInvest)
			r.Post("/market/shock", s.handleShock)
			r.Post("/auction/offer", s.handleOffer)
			r.Post("/auction/bids", s.handleBid)
			r.Post("/auction/resolve", s.handleResolve)
		})
	})
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	st := s.game.Snapshot()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleStandings(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := s.game.Standings()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"standings": out})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeJSON(w, http.StatusOK, map[string]any{"results": []game.Result{}})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	out, err := s.archive.RecentResults(r.Context(), limit)
	if err != nil {
		s.log.Error("history query failed", "err", err)
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	if out == nil {
		out = []game.Result{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": out})
}

func (s *Server) handleProjects(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := s.game.Projects()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{"projects": out})
}

func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	out, err := s.game.AnalyzeProject(chi.URLParam(r, "id"))
	s.mu.Unlock()
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Names []string `json:"names"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.apply(w, r, "start", http.StatusCreated, func() (string, any, error) {
		if err := s.game.StartGame(in.Names); err != nil {
			return "", nil, err
		}
		return "game_id", s.game.GameID(), nil
	})
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, "reset", http.StatusOK, func() (string, any, error) {
		s.game.ResetGame()
		return "", nil, nil
	})
}

func (s *Server) handleEnd(w http.ResponseWriter, r *http.Request) {
	var res *game.Result
	s.apply(w, r, "end", http.StatusOK, func() (string, any, error) {
		out, err := s.game.EndGame()
		if err != nil {
			return "", nil, err
		}
		res = &out
		return "result", out, nil
	})
	s.record(r.Context(), res)
}

func (s *Server) handleRoll(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, "roll", http.StatusOK, func() (string, any, error) {
		out, err := s.game.RollDice()
		return "roll", out, err
	})
}

func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	var res *game.Result
	s.apply(w, r, "advance", http.StatusOK, func() (string, any, error) {
		out, err := s.game.AdvanceTurn()
		if err == nil && out.GameEnded {
			res = out.Result
		}
		return "turn", out, err
	})
	s.record(r.Context(), res)
}

func (s *Server) handleInvest(w http.ResponseWriter, r *http.Request) {
	var in struct {
		PlayerID string `json:"player_id"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(in.PlayerID) == "" {
		writeError(w, http.StatusBadRequest, "player_id is required")
		return
	}
	projectID := chi.URLParam(r, "id")
	s.apply(w, r, "invest", http.StatusOK, func() (string, any, error) {
		out, err := s.game.Invest(strings.TrimSpace(in.PlayerID), projectID)
		return "player", out, err
	})
}

func (s *Server) handleShock(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, "shock", http.StatusOK, func() (string, any, error) {
		out, err := s.game.TriggerMarketEvent()
		return "event", out, err
	})
}

func (s *Server) handleOffer(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, "offer", http.StatusOK, func() (string, any, error) {
		out, err := s.game.OfferProjectForAuction()
		return "auction", out, err
	})
}

func (s *Server) handleBid(w http.ResponseWriter, r *http.Request) {
	var in struct {
		PlayerID string          `json:"player_id"`
		Amount   json.RawMessage `json:"amount"`
	}
	if err := decodeJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	amount := coerceBid(in.Amount)
	s.apply(w, r, "bid", http.StatusOK, func() (string, any, error) {
		if err := s.game.PlaceBid(strings.TrimSpace(in.PlayerID), amount); err != nil {
			return "", nil, err
		}
		return "bid", game.BidView{PlayerID: strings.TrimSpace(in.PlayerID), Placed: true, Amount: &amount}, nil
	})
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, "resolve", http.StatusOK, func() (string, any, error) {
		out, err := s.game.ResolveAuction()
		return "outcome", out, err
	})
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	if s.feed == nil {
		writeError(w, http.StatusNotFound, "feed disabled")
		return
	}
	s.mu.Lock()
	initial := &feed.Message{Type: "state", State: s.game.Snapshot()}
	s.mu.Unlock()
	s.feed.ServeWS(w, r, initial)
}

// apply runs one intent under the table lock and answers with the intent's
// result under key plus the new table state. Retried requests carrying the
// same Idempotency-Key get the first answer back without re-running.
func (s *Server) apply(w http.ResponseWriter, r *http.Request, intent string, status int, fn func() (string, any, error)) {
	key := idempotencyKey(r)

	s.mu.Lock()
	if prev, ok := s.replays[key]; ok {
		s.mu.Unlock()
		writeJSON(w, prev.status, prev.body)
		return
	}
	name, out, err := fn()
	if err != nil {
		s.mu.Unlock()
		s.log.Debug("intent rejected", "intent", intent, "request_id", middleware.GetReqID(r.Context()), "err", err)
		writeDomainError(w, err)
		return
	}
	st := s.game.Snapshot()
	body := map[string]any{"state": st}
	if name != "" {
		body[name] = out
	}
	s.remember(key, replay{status: status, body: body})
	// Published under the lock so subscribers see states in commit order.
	if s.feed != nil {
		s.feed.Publish(feed.Message{Type: "update", Intent: intent, State: st})
	}
	s.mu.Unlock()

	writeJSON(w, status, body)
}

func (s *Server) remember(key string, rp replay) {
	s.replays[key] = rp
	s.order = append(s.order, key)
	if len(s.order) > replayCacheSize {
		delete(s.replays, s.order[0])
		s.order = s.order[1:]
	}
}

func (s *Server) record(ctx context.Context, res *game.Result) {
	if res == nil || s.archive == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := s.archive.RecordGame(ctx, *res); err != nil {
		s.log.Error("archive game failed", "game_id", res.GameID, "err", err)
	}
}

// coerceBid accepts a JSON number or string; anything unparseable is a zero
// bid.
func coerceBid(raw json.RawMessage) int64 {
	text := strings.TrimSpace(string(raw))
	if strings.HasPrefix(text, `"`) {
		var str string
		if err := json.Unmarshal(raw, &str); err != nil {
			return 0
		}
		text = str
	}
	return game.ParseBid(text)
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrInsufficientFunds), errors.Is(err, game.ErrInvalidSetup):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, game.ErrNotEligible):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, game.ErrPlayerNotFound), errors.Is(err, game.ErrProjectNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, game.ErrAuctionNotOpen),
		errors.Is(err, game.ErrShockAlreadyUsed),
		errors.Is(err, game.ErrNotReady),
		errors.Is(err, game.ErrAuctionUnresolved),
		errors.Is(err, game.ErrAlreadyRolled),
		errors.Is(err, game.ErrGameEnded),
		errors.Is(err, game.ErrGameNotStarted):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func decodeJSON(r *http.Request, out any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}

// idempotencyKey scopes the client's key to the route so a reused key
// cannot replay another intent's answer.
func idempotencyKey(r *http.Request) string {
	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key == "" {
		key = uuid.NewString()
	}
	return r.Method + " " + r.URL.Path + " " + key
}
