package game

import "fmt"

// CurrentActor is the player allowed to invest right now: the trade winner
// after a successful auction, otherwise whoever's turn it is. It is empty
// when no game is running.
func (s *Session) CurrentActor() string {
	if s.phase != PhasePlaying {
		return ""
	}
	if s.turn.stage == StageTradeResolved && s.turn.auction.winnerID != "" {
		return s.turn.auction.winnerID
	}
	return s.currentPlayer().ID
}

// eligibleProject is the project CurrentActor may invest in, if any.
func (s *Session) eligibleProject() (Project, bool) {
	switch s.turn.stage {
	case StageRolled:
		return s.catalog[s.turn.dice-1], true
	case StageTradeResolved:
		if s.turn.auction.winnerID != "" && s.turn.auction.project != nil {
			return *s.turn.auction.project, true
		}
	}
	return Project{}, false
}

// RollDice rolls for the current player. A first roll of six starts the
// trade-off and the next call is the second roll.
func (s *Session) RollDice() (RollOutcome, error) {
	if err := s.requirePlaying(); err != nil {
		return RollOutcome{}, s.reject("roll", err)
	}
	stage := s.turn.stage
	if stage != StageAwaitingRoll && stage != StageAwaitingSecondRoll {
		return RollOutcome{}, s.reject("roll", fmt.Errorf("%w: stage %s", ErrAlreadyRolled, stage))
	}

	roll := s.rng.IntN(DieFaces) + 1
	out := RollOutcome{Roll: roll, Second: stage == StageAwaitingSecondRoll}
	s.turn.dice = roll

	switch {
	case stage == StageAwaitingRoll && roll == DieFaces:
		s.turn.stage = StageAwaitingSecondRoll
	case stage == StageAwaitingRoll:
		s.turn.stage = StageRolled
		v := s.catalog[roll-1].view()
		out.Project = &v
	case roll == DieFaces:
		s.turn.stage = StageForfeited
	default:
		project := s.catalog[roll-1]
		s.turn.auction.project = &project
		s.turn.stage = StageTradeOffered
		v := project.view()
		out.Project = &v
	}
	out.Stage = s.turn.stage

	s.log.Info("dice rolled",
		"game_id", s.gameID,
		"player", s.currentPlayer().Name,
		"roll", roll,
		"second", out.Second,
		"stage", out.Stage.String(),
	)
	return out, nil
}

// AdvanceTurn hands play to the next player, rolling into a new round or
// ending the game after the last player of the final round.
func (s *Session) AdvanceTurn() (TurnOutcome, error) {
	if err := s.requirePlaying(); err != nil {
		return TurnOutcome{}, s.reject("advance", err)
	}
	switch stage := s.turn.stage; {
	case stage == StageAwaitingRoll:
		return TurnOutcome{}, s.reject("advance", fmt.Errorf("%w: roll the dice first", ErrNotReady))
	case stage.auctionInFlight():
		return TurnOutcome{}, s.reject("advance", fmt.Errorf("%w: stage %s", ErrAuctionUnresolved, stage))
	}

	next := (s.turn.playerIndex + 1) % len(s.players)
	if next == 0 && s.turn.round >= MaxRounds {
		s.clearTransient()
		result := s.finish()
		return TurnOutcome{Round: s.turn.round, GameEnded: true, Result: &result}, nil
	}

	out := TurnOutcome{}
	if next == 0 {
		s.turn.round++
		s.turn.shockAvailable = true
		out.NewRound = true
	}
	s.turn.playerIndex = next
	s.clearTransient()

	out.Round = s.turn.round
	out.CurrentPlayerID = s.currentPlayer().ID
	s.log.Info("turn advanced",
		"game_id", s.gameID,
		"round", s.turn.round,
		"player", s.currentPlayer().Name,
		"new_round", out.NewRound,
	)
	return out, nil
}

func (s *Session) clearTransient() {
	s.turn.stage = StageAwaitingRoll
	s.turn.dice = 0
	s.turn.lastEvent = nil
	s.turn.auction = auctionState{}
}
