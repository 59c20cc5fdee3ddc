package game

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Session is one table of Fintech Football. It is not safe for concurrent
// use; callers serialise intents.
type Session struct {
	log     *slog.Logger
	rng     RandomSource
	catalog []Project
	events  []MarketEvent
	now     func() time.Time

	gameID  string
	phase   Phase
	players []*Player
	turn    turnState
	bank    int64
	result  *Result
}

type turnState struct {
	round          int
	playerIndex    int
	stage          Stage
	dice           int
	shockAvailable bool
	lastEvent      *EventOutcome
	auction        auctionState
}

type Option func(*Session)

func WithCatalog(projects []Project) Option {
	return func(s *Session) {
		s.catalog = append([]Project(nil), projects...)
	}
}

func WithMarketEvents(events []MarketEvent) Option {
	return func(s *Session) {
		s.events = append([]MarketEvent(nil), events...)
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Session) {
		s.now = now
	}
}

func NewSession(rng RandomSource, logger *slog.Logger, opts ...Option) (*Session, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if rng == nil {
		rng = NewRandomSource(0)
	}
	s := &Session{
		log:     logger,
		rng:     rng,
		catalog: DefaultCatalog(),
		events:  DefaultMarketEvents(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := ValidateCatalog(s.catalog); err != nil {
		return nil, err
	}
	if len(s.events) == 0 {
		return nil, fmt.Errorf("%w: market event catalog is empty", ErrInvalidSetup)
	}
	return s, nil
}

func (s *Session) StartGame(names []string) error {
	if s.phase == PhasePlaying {
		return fmt.Errorf("%w: game already in progress, reset first", ErrInvalidSetup)
	}
	if len(names) != NumPlayers {
		return fmt.Errorf("%w: need %d player names, got %d", ErrInvalidSetup, NumPlayers, len(names))
	}
	players := make([]*Player, 0, NumPlayers)
	for i, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("Player %d", i+1)
		}
		players = append(players, &Player{
			ID:       uuid.NewString(),
			Name:     name,
			ClubName: defaultClubNames[i],
			Cash:     StartingCash,
			NetWorth: StartingNetWorth,
		})
	}

	s.gameID = uuid.NewString()
	s.phase = PhasePlaying
	s.players = players
	s.result = nil
	s.turn = turnState{round: 1, shockAvailable: true}
	s.log.Info("game started", "game_id", s.gameID, "players", len(players))
	return nil
}

// ResetGame discards the roster and round state. The bank belongs to the
// process and is kept.
func (s *Session) ResetGame() {
	s.log.Info("game reset", "game_id", s.gameID)
	s.gameID = ""
	s.phase = PhaseSetup
	s.players = nil
	s.result = nil
	s.turn = turnState{}
}

func (s *Session) EndGame() (Result, error) {
	switch s.phase {
	case PhaseSetup:
		return Result{}, ErrGameNotStarted
	case PhaseEnded:
		return *s.result, nil
	}
	return s.finish(), nil
}

func (s *Session) finish() Result {
	standings := s.Standings()
	result := Result{
		GameID:    s.gameID,
		EndedAt:   s.now().UTC(),
		Rounds:    s.turn.round,
		Winner:    standings[0],
		Standings: standings,
	}
	s.phase = PhaseEnded
	s.result = &result
	s.log.Info("game ended", "game_id", s.gameID, "winner", result.Winner.Name, "cumulative_npv", result.Winner.CumulativeNPVEarned)
	return result
}

// Standings ranks players by cumulative NPV earned, then net worth. Equal
// players keep roster order.
func (s *Session) Standings() []Standing {
	ranked := make([]*Player, len(s.players))
	copy(ranked, s.players)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].CumulativeNPVEarned != ranked[j].CumulativeNPVEarned {
			return ranked[i].CumulativeNPVEarned > ranked[j].CumulativeNPVEarned
		}
		return ranked[i].NetWorth > ranked[j].NetWorth
	})
	out := make([]Standing, 0, len(ranked))
	for i, p := range ranked {
		out = append(out, Standing{Rank: i + 1, PlayerSnapshot: p.snapshot()})
	}
	return out
}

func (s *Session) GameID() string {
	return s.gameID
}

func (s *Session) Phase() Phase {
	return s.phase
}

func (s *Session) Bank() int64 {
	return s.bank
}

// Projects lists the catalog in die-face order with each project's NPV.
func (s *Session) Projects() []ProjectView {
	out := make([]ProjectView, 0, len(s.catalog))
	for _, p := range s.catalog {
		out = append(out, p.view())
	}
	return out
}

// AnalyzeProject recomputes a project's NPV. It never changes game state.
func (s *Session) AnalyzeProject(projectID string) (ProjectView, error) {
	p, err := s.project(projectID)
	if err != nil {
		return ProjectView{}, err
	}
	return p.view(), nil
}

func (s *Session) Player(playerID string) (PlayerSnapshot, error) {
	p, _, err := s.player(playerID)
	if err != nil {
		return PlayerSnapshot{}, err
	}
	return p.snapshot(), nil
}

func (s *Session) Snapshot() State {
	st := State{
		GameID:          s.gameID,
		Phase:           s.phase,
		Round:           s.turn.round,
		MaxRounds:       MaxRounds,
		Stage:           s.turn.stage,
		Dice:            s.turn.dice,
		ShockAvailable:  s.phase == PhasePlaying && s.turn.shockAvailable,
		BankTotalAssets: s.bank,
		Players:         make([]PlayerSnapshot, 0, len(s.players)),
	}
	for _, p := range s.players {
		st.Players = append(st.Players, p.snapshot())
	}
	if s.phase == PhasePlaying {
		st.CurrentPlayerID = s.currentPlayer().ID
		st.CurrentActorID = s.CurrentActor()
		if p, ok := s.eligibleProject(); ok {
			v := p.view()
			st.AvailableProject = &v
		}
	}
	if s.turn.lastEvent != nil {
		ev := *s.turn.lastEvent
		st.LastEvent = &ev
	}
	st.Auction = s.auctionView()
	if s.result != nil {
		w := s.result.Winner
		st.Winner = &w
	}
	return st
}

func (s *Session) requirePlaying() error {
	switch s.phase {
	case PhaseSetup:
		return ErrGameNotStarted
	case PhaseEnded:
		return ErrGameEnded
	}
	return nil
}

func (s *Session) currentPlayer() *Player {
	return s.players[s.turn.playerIndex]
}

func (s *Session) player(playerID string) (*Player, int, error) {
	for i, p := range s.players {
		if p.ID == playerID {
			return p, i, nil
		}
	}
	return nil, -1, fmt.Errorf("%w: %s", ErrPlayerNotFound, playerID)
}

func (s *Session) project(projectID string) (Project, error) {
	for _, p := range s.catalog {
		if p.ID == projectID {
			return p, nil
		}
	}
	return Project{}, fmt.Errorf("%w: %s", ErrProjectNotFound, projectID)
}

func (s *Session) reject(intent string, err error) error {
	if !errors.Is(err, ErrGameNotStarted) {
		s.log.Debug("intent rejected", "game_id", s.gameID, "intent", intent, "err", err)
	}
	return err
}
