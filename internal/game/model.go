package game

import (
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

const (
	NumPlayers = 3
	MaxRounds  = 3
	DieFaces   = 6

	StartingCash     = int64(1_500_000)
	StartingNetWorth = int64(2_500_000)
)

// Seller keeps 80% of a winning bid; the remainder goes to the bank.
var sellerShare = decimal.RequireFromString("0.80")

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotEligible       = errors.New("not eligible")
	ErrShockAlreadyUsed  = errors.New("market shock already used this round")
	ErrGameEnded         = errors.New("game has ended")
	ErrGameNotStarted    = errors.New("game has not started")
	ErrNotReady          = errors.New("turn not ready to advance")
	ErrAuctionUnresolved = errors.New("auction still in progress")
	ErrAlreadyRolled     = errors.New("dice already rolled this turn")
	ErrAuctionNotOpen    = errors.New("auction action not available")
	ErrInvalidSetup      = errors.New("invalid game setup")
	ErrPlayerNotFound    = errors.New("player not found")
	ErrProjectNotFound   = errors.New("project not found")
)

var defaultClubNames = [NumPlayers]string{"Quantum FC", "Momentum United", "Dynamo Capital"}

// ParseBid turns free-form bid input into an amount. Anything that is not a
// non-negative whole number counts as zero.
func ParseBid(raw string) int64 {
	raw = strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if raw == "" {
		return 0
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return 0
	}
	return v
}

func roundUnits(v decimal.Decimal) int64 {
	return v.Round(0).IntPart()
}

func roundFloat(v float64) int64 {
	return roundUnits(decimal.NewFromFloat(v))
}

// FormatMoney renders whole currency units as "$1,234,567".
func FormatMoney(v int64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return sign + "$" + comma(v)
}

// SignedMoney is FormatMoney with an explicit plus sign for gains.
func SignedMoney(v int64) string {
	if v > 0 {
		return "+" + FormatMoney(v)
	}
	return FormatMoney(v)
}

func comma(v int64) string {
	s := strconv.FormatInt(v, 10)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	pre := len(s) % 3
	if pre > 0 {
		b.WriteString(s[:pre])
		b.WriteByte(',')
	}
	for i := pre; i < len(s); i += 3 {
		b.WriteString(s[i : i+3])
		if i+3 < len(s) {
			b.WriteByte(',')
		}
	}
	return b.String()
}
