package game

import (
	"errors"
	"strings"
	"testing"
)

func TestMarketEventHitsOnlyTarget(t *testing.T) {
	s, rng := newTestSession(t)
	rng.draws(3, 2) // event4, Cai

	out, err := s.TriggerMarketEvent()
	if err != nil {
		t.Fatal(err)
	}
	if out.EventID != "event4" || out.PlayerID != s.players[2].ID || out.Round != 1 {
		t.Fatalf("outcome %+v", out)
	}
	if out.CashChange != -100_000 || out.NetWorthChange != -150_000 {
		t.Fatalf("deltas %+v", out)
	}
	if !strings.Contains(out.Message, "Cai") {
		t.Fatalf("message %q", out.Message)
	}

	st := s.Snapshot()
	for i, p := range st.Players {
		if i == 2 {
			if p.Cash != StartingCash-100_000 || p.NetWorth != StartingNetWorth-150_000 {
				t.Fatalf("target balances %+v", p)
			}
			continue
		}
		if p.Cash != StartingCash || p.NetWorth != StartingNetWorth {
			t.Fatalf("bystander %s changed: %+v", p.Name, p)
		}
	}
	if st.ShockAvailable || st.LastEvent == nil || st.LastEvent.EventID != "event4" {
		t.Fatalf("snapshot %+v", st)
	}
}

func TestMarketEventOncePerRound(t *testing.T) {
	s, rng := newTestSession(t)
	rng.draws(0, 0)
	if _, err := s.TriggerMarketEvent(); err != nil {
		t.Fatal(err)
	}
	before := s.Snapshot()
	if _, err := s.TriggerMarketEvent(); !errors.Is(err, ErrShockAlreadyUsed) {
		t.Fatalf("expected shock already used, got %v", err)
	}
	if after := s.Snapshot(); after.Players[0].Cash != before.Players[0].Cash {
		t.Fatalf("rejected shock moved cash")
	}
}

func TestMarketEventPercentages(t *testing.T) {
	s, rng := newTestSession(t)
	rng.draws(0, 1) // +10% cash to Ben
	out, err := s.TriggerMarketEvent()
	if err != nil {
		t.Fatal(err)
	}
	if out.CashChange != 150_000 || s.players[1].Cash != 1_650_000 {
		t.Fatalf("cash boost %+v cash=%d", out, s.players[1].Cash)
	}
	if out.NetWorthChange != 0 || s.players[1].NetWorth != StartingNetWorth {
		t.Fatalf("net worth should be untouched")
	}

	// Percentage deltas round to whole units.
	s2, rng2 := newTestSession(t)
	s2.players[0].NetWorth = 1_000_006
	rng2.draws(1, 0) // +8% net worth
	out, err = s2.TriggerMarketEvent()
	if err != nil {
		t.Fatal(err)
	}
	if out.NetWorthChange != 80_000 {
		t.Fatalf("got %d want 80000", out.NetWorthChange)
	}
}

func TestMarketEventFloorsCashOnly(t *testing.T) {
	crash := MarketEvent{
		ID:       "crash",
		Title:    "Market Crash",
		Impact:   MarketImpact{CashChange: -2_000_000, NetWorthChange: -3_000_000},
		Severity: SeverityAdverse,
	}
	s, rng := newTestSession(t, WithMarketEvents([]MarketEvent{crash}))
	rng.draws(0, 0)

	out, err := s.TriggerMarketEvent()
	if err != nil {
		t.Fatal(err)
	}
	p := s.players[0]
	if p.Cash != 0 {
		t.Fatalf("cash should floor at zero, got %d", p.Cash)
	}
	if out.CashChange != -StartingCash {
		t.Fatalf("reported cash change %d want %d", out.CashChange, -StartingCash)
	}
	if p.NetWorth != StartingNetWorth-3_000_000 {
		t.Fatalf("net worth should go negative, got %d", p.NetWorth)
	}
	if !strings.Contains(out.Message, "-$1,500,000") {
		t.Fatalf("default message %q", out.Message)
	}
}

func TestMarketEventDoesNotTouchTurn(t *testing.T) {
	s, rng := newTestSession(t)
	rng.rolls(2)
	mustRoll(t, s)
	rng.draws(4, 0)
	if _, err := s.TriggerMarketEvent(); err != nil {
		t.Fatal(err)
	}
	st := s.Snapshot()
	if st.Stage != StageRolled || st.AvailableProject == nil || st.AvailableProject.ID != "inv2" {
		t.Fatalf("turn state disturbed: %+v", st)
	}
	if s.Bank() != 0 {
		t.Fatalf("shocks never touch the bank")
	}
}
