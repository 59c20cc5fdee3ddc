package game

import "fmt"

// Invest buys the project for the player if it is the one they are entitled
// to this turn. Only a positive NPV is credited to net worth and score; a
// losing project costs cash and nothing else.
func (s *Session) Invest(playerID, projectID string) (PlayerSnapshot, error) {
	if err := s.requirePlaying(); err != nil {
		return PlayerSnapshot{}, s.reject("invest", err)
	}
	p, _, err := s.player(playerID)
	if err != nil {
		return PlayerSnapshot{}, s.reject("invest", err)
	}
	project, ok := s.eligibleProject()
	if !ok || s.CurrentActor() != p.ID || project.ID != projectID {
		return PlayerSnapshot{}, s.reject("invest", fmt.Errorf("%w: %s may not invest in %s now", ErrNotEligible, p.Name, projectID))
	}
	if p.Cash < project.Cost {
		return PlayerSnapshot{}, s.reject("invest", fmt.Errorf("%w: %s costs %s, %s has %s",
			ErrInsufficientFunds, project.Name, FormatMoney(project.Cost), p.Name, FormatMoney(p.Cash)))
	}

	npv := roundFloat(project.NPV())
	p.Cash -= project.Cost
	if npv > 0 {
		p.NetWorth += npv
		p.CumulativeNPVEarned += npv
	}

	if s.turn.stage == StageTradeResolved {
		s.turn.auction.winnerID = ""
		s.turn.auction.project = nil
	}
	s.turn.stage = StageInvested

	s.log.Info("investment made",
		"game_id", s.gameID,
		"player", p.Name,
		"project", project.ID,
		"cost", project.Cost,
		"npv", npv,
	)
	return p.snapshot(), nil
}
