package game

import (
	"errors"
	"reflect"
	"testing"
	"time"
)

func TestStartGame(t *testing.T) {
	s, _ := newTestSession(t)
	st := s.Snapshot()

	if st.Phase != PhasePlaying || st.Round != 1 || !st.ShockAvailable {
		t.Fatalf("unexpected start state: phase=%s round=%d shock=%t", st.Phase, st.Round, st.ShockAvailable)
	}
	if st.Stage != StageAwaitingRoll || st.Dice != 0 || st.Auction != nil || st.LastEvent != nil {
		t.Fatalf("transient state not clear: %+v", st)
	}
	if len(st.Players) != NumPlayers {
		t.Fatalf("got %d players", len(st.Players))
	}
	for i, p := range st.Players {
		if p.Cash != StartingCash || p.NetWorth != StartingNetWorth || p.CumulativeNPVEarned != 0 {
			t.Fatalf("player %d has wrong opening balances: %+v", i, p)
		}
		if p.ClubName != defaultClubNames[i] {
			t.Fatalf("player %d club %q", i, p.ClubName)
		}
	}
	if st.CurrentPlayerID != st.Players[0].ID || st.CurrentActorID != st.Players[0].ID {
		t.Fatalf("first player should act first")
	}
}

func TestStartGameValidation(t *testing.T) {
	s, err := NewSession(&scriptedRand{t: t}, discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.StartGame([]string{"Ana", "Ben"}); !errors.Is(err, ErrInvalidSetup) {
		t.Fatalf("expected invalid setup, got %v", err)
	}
	if err := s.StartGame([]string{"Ana", "  ", "Cai"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if got := s.Snapshot().Players[1].Name; got != "Player 2" {
		t.Fatalf("blank name got %q", got)
	}
	if err := s.StartGame([]string{"A", "B", "C"}); !errors.Is(err, ErrInvalidSetup) {
		t.Fatalf("expected restart to be refused mid-game, got %v", err)
	}
}

func TestIntentsBeforeStart(t *testing.T) {
	s, err := NewSession(&scriptedRand{t: t}, discardLogger())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.RollDice(); !errors.Is(err, ErrGameNotStarted) {
		t.Fatalf("roll: %v", err)
	}
	if _, err := s.AdvanceTurn(); !errors.Is(err, ErrGameNotStarted) {
		t.Fatalf("advance: %v", err)
	}
	if _, err := s.EndGame(); !errors.Is(err, ErrGameNotStarted) {
		t.Fatalf("end: %v", err)
	}
	if s.CurrentActor() != "" {
		t.Fatalf("no actor expected before start")
	}
	if st := s.Snapshot(); st.Phase != PhaseSetup || len(st.Players) != 0 {
		t.Fatalf("unexpected snapshot %+v", st)
	}
}

func TestAnalyzeProjectDoesNotMutate(t *testing.T) {
	s, rng := newTestSession(t)
	rng.rolls(5)
	if _, err := s.RollDice(); err != nil {
		t.Fatal(err)
	}
	before := s.Snapshot()
	for i := 0; i < 5; i++ {
		v, err := s.AnalyzeProject("inv5")
		if err != nil {
			t.Fatal(err)
		}
		if v.NPV < 148_315 || v.NPV > 148_316 {
			t.Fatalf("inv5 npv %.2f", v.NPV)
		}
	}
	if after := s.Snapshot(); !reflect.DeepEqual(before, after) {
		t.Fatalf("analyze mutated state")
	}
	if _, err := s.AnalyzeProject("nope"); !errors.Is(err, ErrProjectNotFound) {
		t.Fatalf("expected project not found, got %v", err)
	}
}

func TestStandingsTieBreaks(t *testing.T) {
	s, _ := newTestSession(t)
	s.players[0].CumulativeNPVEarned = 100
	s.players[1].CumulativeNPVEarned = 100
	s.players[1].NetWorth = s.players[0].NetWorth + 1
	s.players[2].CumulativeNPVEarned = 50

	got := s.Standings()
	order := []string{got[0].ID, got[1].ID, got[2].ID}
	want := []string{s.players[1].ID, s.players[0].ID, s.players[2].ID}
	if !reflect.DeepEqual(order, want) {
		t.Fatalf("order %v want %v", order, want)
	}
	for i, st := range got {
		if st.Rank != i+1 {
			t.Fatalf("rank %d at position %d", st.Rank, i)
		}
	}

	s2, _ := newTestSession(t)
	even := s2.Standings()
	if even[0].ID != s2.players[0].ID || even[2].ID != s2.players[2].ID {
		t.Fatalf("full ties should keep roster order")
	}
}

func TestEndGameIsTerminalAndStable(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s, _ := newTestSession(t, WithClock(func() time.Time { return fixed }))
	s.players[2].CumulativeNPVEarned = 10

	res, err := s.EndGame()
	if err != nil {
		t.Fatal(err)
	}
	if res.Winner.ID != s.players[2].ID || !res.EndedAt.Equal(fixed) {
		t.Fatalf("unexpected result %+v", res)
	}
	again, err := s.EndGame()
	if err != nil || !reflect.DeepEqual(res, again) {
		t.Fatalf("second EndGame changed result: %v", err)
	}
	if _, err := s.RollDice(); !errors.Is(err, ErrGameEnded) {
		t.Fatalf("roll after end: %v", err)
	}
	if st := s.Snapshot(); st.Winner == nil || st.Winner.ID != res.Winner.ID || st.CurrentActorID != "" {
		t.Fatalf("snapshot after end %+v", st)
	}
}

func TestResetKeepsBank(t *testing.T) {
	s, rng := newTestSession(t)
	rng.rolls(6, 1)
	mustRoll(t, s)
	mustRoll(t, s)
	if _, err := s.OfferProjectForAuction(); err != nil {
		t.Fatal(err)
	}
	if err := s.PlaceBid(s.players[1].ID, 100_000); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ResolveAuction(); err != nil {
		t.Fatal(err)
	}
	if s.Bank() != 20_000 {
		t.Fatalf("bank %d", s.Bank())
	}

	s.ResetGame()
	st := s.Snapshot()
	if st.Phase != PhaseSetup || len(st.Players) != 0 || st.Round != 0 || st.GameID != "" {
		t.Fatalf("reset left state behind: %+v", st)
	}
	if st.BankTotalAssets != 20_000 {
		t.Fatalf("bank lost on reset: %d", st.BankTotalAssets)
	}
	if err := s.StartGame([]string{"D", "E", "F"}); err != nil {
		t.Fatalf("restart: %v", err)
	}
}

func mustRoll(t *testing.T, s *Session) RollOutcome {
	t.Helper()
	out, err := s.RollDice()
	if err != nil {
		t.Fatalf("roll: %v", err)
	}
	return out
}

func mustAdvance(t *testing.T, s *Session) TurnOutcome {
	t.Helper()
	out, err := s.AdvanceTurn()
	if err != nil {
		t.Fatalf("advance: %v", err)
	}
	return out
}
