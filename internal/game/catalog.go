package game

import (
	"fmt"

	"fintechfootball/internal/valuation"
)

// Project is an immutable investment catalog entry. Its position in the
// catalog is the die face that unlocks it.
type Project struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	Description    string  `json:"description"`
	Cost           int64   `json:"cost"`
	AnnualCashFlow int64   `json:"annual_cash_flow"`
	DurationYears  int     `json:"duration_years"`
	DiscountRate   float64 `json:"discount_rate"`
}

func (p Project) NPV() float64 {
	return valuation.NPV(float64(p.AnnualCashFlow), p.DiscountRate, p.DurationYears, float64(p.Cost))
}

func (p Project) view() ProjectView {
	return ProjectView{Project: p, NPV: p.NPV()}
}

func DefaultCatalog() []Project {
	return []Project{
		{ID: "inv1", Name: "Youth Academy Upgrade", Description: "Boost talent development for long-term gains.", Cost: 500_000, AnnualCashFlow: 100_000, DurationYears: 7, DiscountRate: 0.12},
		{ID: "inv2", Name: "Stadium Expansion", Description: "Increase matchday revenue with more seats.", Cost: 1_200_000, AnnualCashFlow: 200_000, DurationYears: 10, DiscountRate: 0.10},
		{ID: "inv3", Name: "Digital Fan Platform", Description: "Monetize global fanbase through new tech.", Cost: 300_000, AnnualCashFlow: 70_000, DurationYears: 5, DiscountRate: 0.15},
		{ID: "inv4", Name: "Merchandise Line Overhaul", Description: "Refresh club shop & online store for higher sales.", Cost: 200_000, AnnualCashFlow: 50_000, DurationYears: 4, DiscountRate: 0.13},
		{ID: "inv5", Name: "Training Ground Modernisation", Description: "Sports science facilities that cut injury time.", Cost: 435_895, AnnualCashFlow: 120_000, DurationYears: 7, DiscountRate: 0.10},
		{ID: "inv6", Name: "Women's Team Launch", Description: "Grow a second squad backed by league funding.", Cost: 400_000, AnnualCashFlow: 90_000, DurationYears: 5, DiscountRate: 0},
	}
}

// ValidateCatalog checks that there is one project per die face and that
// every entry can be valued.
func ValidateCatalog(projects []Project) error {
	if len(projects) != DieFaces {
		return fmt.Errorf("%w: catalog needs %d projects, got %d", ErrInvalidSetup, DieFaces, len(projects))
	}
	seen := make(map[string]struct{}, len(projects))
	for i, p := range projects {
		switch {
		case p.ID == "":
			return fmt.Errorf("%w: project %d has no id", ErrInvalidSetup, i+1)
		case p.Cost <= 0:
			return fmt.Errorf("%w: project %s cost must be > 0", ErrInvalidSetup, p.ID)
		case p.DurationYears < 0:
			return fmt.Errorf("%w: project %s duration must be >= 0", ErrInvalidSetup, p.ID)
		case p.DiscountRate < 0:
			return fmt.Errorf("%w: project %s discount rate must be >= 0", ErrInvalidSetup, p.ID)
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("%w: duplicate project id %s", ErrInvalidSetup, p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	return nil
}

type Severity string

const (
	SeverityNeutral Severity = "neutral"
	SeverityAdverse Severity = "adverse"
)

// MarketImpact holds the deltas a shock applies. Percentages are fractions of
// the target's current value (0.1 is +10%).
type MarketImpact struct {
	CashChange               int64
	NetWorthChange           int64
	CashPercentageChange     float64
	NetWorthPercentageChange float64
}

type MarketEvent struct {
	ID          string
	Title       string
	Description string
	Impact      MarketImpact
	Severity    Severity
	// Message describes what happened to the target once the deltas are known.
	Message func(playerName string, cashChange, netWorthChange int64) string
}

func (e MarketEvent) message(playerName string, cashChange, netWorthChange int64) string {
	if e.Message != nil {
		return e.Message(playerName, cashChange, netWorthChange)
	}
	return fmt.Sprintf("%s: cash %s, net worth %s.", playerName, SignedMoney(cashChange), SignedMoney(netWorthChange))
}

func DefaultMarketEvents() []MarketEvent {
	return []MarketEvent{
		{
			ID:          "event1",
			Title:       "Economic Boom!",
			Description: "Increased sponsorship revenue lifts club coffers.",
			Impact:      MarketImpact{CashPercentageChange: 0.10},
			Severity:    SeverityNeutral,
			Message: func(name string, cash, _ int64) string {
				return fmt.Sprintf("%s banks %s in new sponsorship money.", name, SignedMoney(cash))
			},
		},
		{
			ID:          "event2",
			Title:       "Transfer Market Frenzy",
			Description: "Player valuations skyrocket unexpectedly.",
			Impact:      MarketImpact{NetWorthPercentageChange: 0.08},
			Severity:    SeverityNeutral,
			Message: func(name string, _, netWorth int64) string {
				return fmt.Sprintf("%s's squad is revalued: net worth %s.", name, SignedMoney(netWorth))
			},
		},
		{
			ID:          "event3",
			Title:       "Major Sponsor Pulls Out",
			Description: "A club loses a key sponsorship deal.",
			Impact:      MarketImpact{CashChange: -200_000},
			Severity:    SeverityAdverse,
			Message: func(name string, cash, _ int64) string {
				return fmt.Sprintf("%s loses a sponsor: cash %s.", name, SignedMoney(cash))
			},
		},
		{
			ID:          "event4",
			Title:       "Regulatory Changes",
			Description: "New league rules impact club finances.",
			Impact:      MarketImpact{CashChange: -100_000, NetWorthChange: -150_000},
			Severity:    SeverityAdverse,
			Message: func(name string, cash, netWorth int64) string {
				return fmt.Sprintf("%s pays compliance costs: cash %s, net worth %s.", name, SignedMoney(cash), SignedMoney(netWorth))
			},
		},
		{
			ID:          "event5",
			Title:       "TV Rights Windfall",
			Description: "A new broadcast deal pays out early.",
			Impact:      MarketImpact{CashChange: 250_000, NetWorthChange: 100_000},
			Severity:    SeverityNeutral,
		},
		{
			ID:          "event6",
			Title:       "Stadium Safety Fine",
			Description: "Inspectors fine a club for crowd-control failures.",
			Impact:      MarketImpact{CashPercentageChange: -0.05},
			Severity:    SeverityAdverse,
			Message: func(name string, cash, _ int64) string {
				return fmt.Sprintf("%s is fined %s.", name, FormatMoney(-cash))
			},
		},
	}
}
