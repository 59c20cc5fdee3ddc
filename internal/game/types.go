package game

import (
	"fmt"
	"time"
)

type Phase int

const (
	PhaseSetup Phase = iota
	PhasePlaying
	PhaseEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseSetup:
		return "setup"
	case PhasePlaying:
		return "playing"
	case PhaseEnded:
		return "ended"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(b []byte) error {
	for _, v := range []Phase{PhaseSetup, PhasePlaying, PhaseEnded} {
		if v.String() == string(b) {
			*p = v
			return nil
		}
	}
	return fmt.Errorf("unknown phase %q", string(b))
}

// Stage is where the current player's turn stands.
type Stage int

const (
	StageAwaitingRoll Stage = iota
	StageRolled
	StageAwaitingSecondRoll
	StageTradeOffered
	StageBiddingOpen
	StageTradeResolved
	StageForfeited
	StageInvested
)

var stageNames = map[Stage]string{
	StageAwaitingRoll:       "awaiting_roll",
	StageRolled:             "rolled",
	StageAwaitingSecondRoll: "awaiting_second_roll",
	StageTradeOffered:       "trade_offered",
	StageBiddingOpen:        "bidding_open",
	StageTradeResolved:      "trade_resolved",
	StageForfeited:          "forfeited",
	StageInvested:           "invested",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Stage) UnmarshalText(b []byte) error {
	for k, v := range stageNames {
		if v == string(b) {
			*s = k
			return nil
		}
	}
	return fmt.Errorf("unknown stage %q", string(b))
}

// auctionInFlight reports whether the double-six trade-off still needs input.
func (s Stage) auctionInFlight() bool {
	return s == StageAwaitingSecondRoll || s == StageTradeOffered || s == StageBiddingOpen
}

type Player struct {
	ID                  string
	Name                string
	ClubName            string
	Cash                int64
	NetWorth            int64
	CumulativeNPVEarned int64
}

func (p *Player) snapshot() PlayerSnapshot {
	return PlayerSnapshot{
		ID:                  p.ID,
		Name:                p.Name,
		ClubName:            p.ClubName,
		Cash:                p.Cash,
		NetWorth:            p.NetWorth,
		CumulativeNPVEarned: p.CumulativeNPVEarned,
	}
}

type PlayerSnapshot struct {
	ID                  string `json:"id"`
	Name                string `json:"name"`
	ClubName            string `json:"club_name"`
	Cash                int64  `json:"cash"`
	NetWorth            int64  `json:"net_worth"`
	CumulativeNPVEarned int64  `json:"cumulative_npv_earned"`
}

type ProjectView struct {
	Project
	NPV float64 `json:"npv"`
}

type RollOutcome struct {
	Roll    int          `json:"roll"`
	Second  bool         `json:"second"`
	Stage   Stage        `json:"stage"`
	Project *ProjectView `json:"project,omitempty"`
}

type TurnOutcome struct {
	Round           int     `json:"round"`
	CurrentPlayerID string  `json:"current_player_id,omitempty"`
	NewRound        bool    `json:"new_round"`
	GameEnded       bool    `json:"game_ended"`
	Result          *Result `json:"result,omitempty"`
}

// BidView reports a sealed bid. Amount stays nil until the auction is
// resolved; before that Placed only says whether the bidder has acted.
type BidView struct {
	PlayerID string `json:"player_id"`
	Placed   bool   `json:"placed"`
	Amount   *int64 `json:"amount,omitempty"`
}

type AuctionView struct {
	SellerID string          `json:"seller_id"`
	Project  *ProjectView    `json:"project,omitempty"`
	Bids     []BidView       `json:"bids,omitempty"`
	WinnerID string          `json:"winner_id,omitempty"`
	Outcome  *AuctionOutcome `json:"outcome,omitempty"`
}

type Standing struct {
	Rank int `json:"rank"`
	PlayerSnapshot
}

type Result struct {
	GameID    string     `json:"game_id"`
	EndedAt   time.Time  `json:"ended_at"`
	Rounds    int        `json:"rounds"`
	Winner    Standing   `json:"winner"`
	Standings []Standing `json:"standings"`
}

// State is the read model handed to UI collaborators.
type State struct {
	GameID           string           `json:"game_id,omitempty"`
	Phase            Phase            `json:"phase"`
	Round            int              `json:"round"`
	MaxRounds        int              `json:"max_rounds"`
	CurrentPlayerID  string           `json:"current_player_id,omitempty"`
	CurrentActorID   string           `json:"current_actor_id,omitempty"`
	Stage            Stage            `json:"stage"`
	Dice             int              `json:"dice,omitempty"`
	AvailableProject *ProjectView     `json:"available_project,omitempty"`
	ShockAvailable   bool             `json:"shock_available"`
	LastEvent        *EventOutcome    `json:"last_event,omitempty"`
	Auction          *AuctionView     `json:"auction,omitempty"`
	BankTotalAssets  int64            `json:"bank_total_assets"`
	Players          []PlayerSnapshot `json:"players"`
	Winner           *Standing        `json:"winner,omitempty"`
}
