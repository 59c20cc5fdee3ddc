package game

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type AuctionStatus string

const (
	AuctionSold               AuctionStatus = "sold"
	AuctionNoBids             AuctionStatus = "no_bids"
	AuctionWinnerShortOfFunds AuctionStatus = "winner_short_of_funds"
)

type AuctionOutcome struct {
	Status         AuctionStatus `json:"status"`
	ProjectID      string        `json:"project_id"`
	SellerID       string        `json:"seller_id"`
	WinnerID       string        `json:"winner_id,omitempty"`
	Bid            int64         `json:"bid"`
	SellerProceeds int64         `json:"seller_proceeds"`
	BankCut        int64         `json:"bank_cut"`
}

func (o AuctionOutcome) Sold() bool {
	return o.Status == AuctionSold
}

type auctionState struct {
	project  *Project
	bids     map[string]int64
	placed   map[string]bool
	winnerID string
	outcome  *AuctionOutcome
}

// OfferProjectForAuction opens sealed bidding on the rerolled project. Every
// player except the seller starts with a zero bid.
func (s *Session) OfferProjectForAuction() (AuctionView, error) {
	if err := s.requirePlaying(); err != nil {
		return AuctionView{}, s.reject("offer", err)
	}
	if s.turn.stage != StageTradeOffered {
		return AuctionView{}, s.reject("offer", fmt.Errorf("%w: stage %s", ErrAuctionNotOpen, s.turn.stage))
	}
	seller := s.currentPlayer()
	bids := make(map[string]int64, len(s.players)-1)
	for _, p := range s.players {
		if p.ID != seller.ID {
			bids[p.ID] = 0
		}
	}
	s.turn.auction.bids = bids
	s.turn.auction.placed = make(map[string]bool, len(bids))
	s.turn.stage = StageBiddingOpen
	s.log.Info("auction opened", "game_id", s.gameID, "seller", seller.Name, "project", s.turn.auction.project.ID)
	return *s.auctionView(), nil
}

// PlaceBid sets or replaces a bidder's sealed bid. Negative amounts count as
// zero. Bids are only checked against cash when the auction resolves.
func (s *Session) PlaceBid(playerID string, amount int64) error {
	if err := s.requirePlaying(); err != nil {
		return s.reject("bid", err)
	}
	if s.turn.stage != StageBiddingOpen {
		return s.reject("bid", fmt.Errorf("%w: stage %s", ErrAuctionNotOpen, s.turn.stage))
	}
	p, _, err := s.player(playerID)
	if err != nil {
		return s.reject("bid", err)
	}
	if p.ID == s.currentPlayer().ID {
		return s.reject("bid", fmt.Errorf("%w: seller cannot bid on own project", ErrNotEligible))
	}
	if amount < 0 {
		amount = 0
	}
	s.turn.auction.bids[p.ID] = amount
	s.turn.auction.placed[p.ID] = true
	s.log.Debug("bid placed", "game_id", s.gameID, "player", p.Name)
	return nil
}

// ResolveAuction settles the bidding. The highest bid wins with ties going to
// the earlier seat. A zero top bid or a winner who cannot cover the bid
// forfeits the project for everyone.
func (s *Session) ResolveAuction() (AuctionOutcome, error) {
	if err := s.requirePlaying(); err != nil {
		return AuctionOutcome{}, s.reject("resolve", err)
	}
	if s.turn.stage != StageBiddingOpen {
		return AuctionOutcome{}, s.reject("resolve", fmt.Errorf("%w: stage %s", ErrAuctionNotOpen, s.turn.stage))
	}

	seller := s.currentPlayer()
	out := AuctionOutcome{ProjectID: s.turn.auction.project.ID, SellerID: seller.ID}

	var winner *Player
	for i, p := range s.players {
		if i == s.turn.playerIndex {
			continue
		}
		if bid := s.turn.auction.bids[p.ID]; bid > out.Bid {
			out.Bid = bid
			winner = p
		}
	}

	switch {
	case winner == nil:
		out.Status = AuctionNoBids
	case winner.Cash < out.Bid:
		out.Status = AuctionWinnerShortOfFunds
		out.WinnerID = winner.ID
	default:
		proceeds := roundUnits(decimal.NewFromInt(out.Bid).Mul(sellerShare))
		out.Status = AuctionSold
		out.WinnerID = winner.ID
		out.SellerProceeds = proceeds
		out.BankCut = out.Bid - proceeds

		winner.Cash -= out.Bid
		seller.Cash += proceeds
		s.bank += out.BankCut
		s.turn.auction.winnerID = winner.ID
	}

	if !out.Sold() {
		s.turn.dice = 0
		s.turn.auction.project = nil
	}
	s.turn.auction.outcome = &out
	s.turn.stage = StageTradeResolved

	s.log.Info("auction resolved",
		"game_id", s.gameID,
		"status", string(out.Status),
		"project", out.ProjectID,
		"bid", out.Bid,
		"bank_cut", out.BankCut,
	)
	return out, nil
}

func (s *Session) auctionView() *AuctionView {
	a := s.turn.auction
	if a.project == nil && a.outcome == nil {
		return nil
	}
	v := &AuctionView{SellerID: s.currentPlayer().ID, WinnerID: a.winnerID}
	if a.project != nil {
		pv := a.project.view()
		v.Project = &pv
	}
	for _, p := range s.players {
		amount, ok := a.bids[p.ID]
		if !ok {
			continue
		}
		b := BidView{PlayerID: p.ID, Placed: a.placed[p.ID]}
		if a.outcome != nil {
			b.Amount = &amount
		}
		v.Bids = append(v.Bids, b)
	}
	if a.outcome != nil {
		o := *a.outcome
		v.Outcome = &o
	}
	return v
}
