package game

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type EventOutcome struct {
	EventID        string   `json:"event_id"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Severity       Severity `json:"severity"`
	Round          int      `json:"round"`
	PlayerID       string   `json:"player_id"`
	PlayerName     string   `json:"player_name"`
	CashChange     int64    `json:"cash_change"`
	NetWorthChange int64    `json:"net_worth_change"`
	Message        string   `json:"message"`
}

// TriggerMarketEvent applies this round's shock to one random player.
func (s *Session) TriggerMarketEvent() (EventOutcome, error) {
	if err := s.requirePlaying(); err != nil {
		return EventOutcome{}, s.reject("shock", err)
	}
	if !s.turn.shockAvailable {
		return EventOutcome{}, s.reject("shock", fmt.Errorf("%w: round %d", ErrShockAlreadyUsed, s.turn.round))
	}

	out := resolveMarketEvent(s.players, s.events, s.rng)
	out.Round = s.turn.round
	s.turn.shockAvailable = false
	s.turn.lastEvent = &out

	s.log.Info("market event applied",
		"game_id", s.gameID,
		"event", out.EventID,
		"player", out.PlayerName,
		"cash_change", out.CashChange,
		"net_worth_change", out.NetWorthChange,
	)
	return out, nil
}

// resolveMarketEvent picks an event and then a target, both uniformly, and
// applies the event to that target only. Cash is floored at zero and the
// reported cash change is what was actually applied; net worth is not floored.
func resolveMarketEvent(players []*Player, events []MarketEvent, rng RandomSource) EventOutcome {
	event := events[rng.IntN(len(events))]
	target := players[rng.IntN(len(players))]

	cashDelta := roundUnits(decimal.NewFromInt(event.Impact.CashChange).
		Add(decimal.NewFromInt(target.Cash).Mul(decimal.NewFromFloat(event.Impact.CashPercentageChange))))
	netWorthDelta := roundUnits(decimal.NewFromInt(event.Impact.NetWorthChange).
		Add(decimal.NewFromInt(target.NetWorth).Mul(decimal.NewFromFloat(event.Impact.NetWorthPercentageChange))))

	cash := target.Cash + cashDelta
	if cash < 0 {
		cash = 0
	}
	applied := cash - target.Cash
	target.Cash = cash
	target.NetWorth += netWorthDelta

	return EventOutcome{
		EventID:        event.ID,
		Title:          event.Title,
		Description:    event.Description,
		Severity:       event.Severity,
		PlayerID:       target.ID,
		PlayerName:     target.Name,
		CashChange:     applied,
		NetWorthChange: netWorthDelta,
		Message:        event.message(target.Name, applied, netWorthDelta),
	}
}
