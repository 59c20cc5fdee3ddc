package archive

import (
	"context"
	"os"
	"testing"
	"time"

	"fintechfootball/internal/db"
	"fintechfootball/internal/game"

	"github.com/google/uuid"
)

func TestClampLimit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{in: 0, want: defaultHistoryLimit},
		{in: -3, want: defaultHistoryLimit},
		{in: 5, want: 5},
		{in: 1_000, want: maxHistoryLimit},
	}
	for _, tc := range tests {
		if got := clampLimit(tc.in); got != tc.want {
			t.Fatalf("clampLimit(%d) got=%d want=%d", tc.in, got, tc.want)
		}
	}
}

func TestAppendStandingGroupsByGame(t *testing.T) {
	var out []game.Result
	a := game.Result{GameID: "a", Rounds: 3}
	b := game.Result{GameID: "b", Rounds: 3}
	out = appendStanding(out, a, standing(1, "ana"))
	out = appendStanding(out, a, standing(2, "ben"))
	out = appendStanding(out, a, standing(3, "cai"))
	out = appendStanding(out, b, standing(1, "dee"))

	if len(out) != 2 {
		t.Fatalf("got %d results", len(out))
	}
	if len(out[0].Standings) != 3 || out[0].Winner.ID != "ana" {
		t.Fatalf("first game %+v", out[0])
	}
	if len(out[1].Standings) != 1 || out[1].Winner.ID != "dee" {
		t.Fatalf("second game %+v", out[1])
	}
}

func standing(rank int, id string) game.Standing {
	return game.Standing{Rank: rank, PlayerSnapshot: game.PlayerSnapshot{ID: id, Name: id}}
}

// TestStoreRoundTrip needs a scratch Postgres; set FFB_TEST_DATABASE_URL to run it.
func TestStoreRoundTrip(t *testing.T) {
	url := os.Getenv("FFB_TEST_DATABASE_URL")
	if url == "" {
		t.Skip("FFB_TEST_DATABASE_URL not set")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := db.Connect(ctx, url)
	if err != nil {
		t.Fatal(err)
	}
	defer pool.Close()
	if err := db.EnsureSchema(ctx, pool); err != nil {
		t.Fatal(err)
	}

	store := NewStore(pool, nil)
	res := game.Result{
		GameID:  uuid.NewString(),
		EndedAt: time.Now().UTC().Add(time.Hour).Truncate(time.Microsecond),
		Rounds:  game.MaxRounds,
	}
	for i, name := range []string{"Ana", "Ben", "Cai"} {
		res.Standings = append(res.Standings, game.Standing{
			Rank: i + 1,
			PlayerSnapshot: game.PlayerSnapshot{
				ID:                  uuid.NewString(),
				Name:                name,
				ClubName:            "Club " + name,
				Cash:                int64(1_000_000 - i),
				NetWorth:            int64(2_000_000 - i),
				CumulativeNPVEarned: int64(300 - i),
			},
		})
	}
	res.Winner = res.Standings[0]

	if err := store.RecordGame(ctx, res); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := store.RecordGame(ctx, res); err != nil {
		t.Fatalf("second record should be a no-op: %v", err)
	}

	got, err := store.RecentResults(ctx, 1)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 1 || got[0].GameID != res.GameID {
		t.Fatalf("recent results %+v", got)
	}
	if len(got[0].Standings) != 3 || got[0].Winner.ID != res.Winner.ID {
		t.Fatalf("standings %+v", got[0].Standings)
	}
	if !got[0].EndedAt.Equal(res.EndedAt) {
		t.Fatalf("ended_at %v want %v", got[0].EndedAt, res.EndedAt)
	}

	if _, err := pool.Exec(ctx, `DELETE FROM ffb.games WHERE game_id = $1`, res.GameID); err != nil {
		t.Fatalf("cleanup: %v", err)
	}
}
