package archive

import (
	"context"
	"fmt"
	"log/slog"

	"fintechfootball/internal/game"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	defaultHistoryLimit = 10
	maxHistoryLimit     = 100
)

// Store keeps the final standings of finished games. It never holds a game
// in progress.
type Store struct {
	db  *pgxpool.Pool
	log *slog.Logger
}

func NewStore(db *pgxpool.Pool, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{db: db, log: logger}
}

// RecordGame writes a result once; recording the same game again is a no-op.
func (s *Store) RecordGame(ctx context.Context, res game.Result) error {
	if len(res.Standings) == 0 {
		return fmt.Errorf("record game %s: no standings", res.GameID)
	}
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		INSERT INTO ffb.games (game_id, ended_at, rounds, winner_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (game_id) DO NOTHING
	`, res.GameID, res.EndedAt, res.Rounds, res.Winner.ID)
	if err != nil {
		return fmt.Errorf("insert game: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil
	}

	for _, st := range res.Standings {
		if _, err := tx.Exec(ctx, `
			INSERT INTO ffb.game_standings
				(game_id, rank, player_id, player_name, club_name, cash, net_worth, cumulative_npv_earned)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, res.GameID, st.Rank, st.ID, st.Name, st.ClubName, st.Cash, st.NetWorth, st.CumulativeNPVEarned); err != nil {
			return fmt.Errorf("insert standing %d: %w", st.Rank, err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return err
	}
	s.log.Info("game archived", "game_id", res.GameID, "winner", res.Winner.Name)
	return nil
}

// RecentResults returns the latest finished games, newest first.
func (s *Store) RecentResults(ctx context.Context, limit int) ([]game.Result, error) {
	limit = clampLimit(limit)
	rows, err := s.db.Query(ctx, `
		SELECT g.game_id::text, g.ended_at, g.rounds,
		       st.rank, st.player_id::text, st.player_name, st.club_name,
		       st.cash, st.net_worth, st.cumulative_npv_earned
		FROM (
			SELECT game_id, ended_at, rounds
			FROM ffb.games
			ORDER BY ended_at DESC
			LIMIT $1
		) g
		JOIN ffb.game_standings st ON st.game_id = g.game_id
		ORDER BY g.ended_at DESC, g.game_id, st.rank
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []game.Result
	for rows.Next() {
		var (
			res game.Result
			st  game.Standing
		)
		if err := rows.Scan(&res.GameID, &res.EndedAt, &res.Rounds,
			&st.Rank, &st.ID, &st.Name, &st.ClubName,
			&st.Cash, &st.NetWorth, &st.CumulativeNPVEarned); err != nil {
			return nil, err
		}
		out = appendStanding(out, res, st)
	}
	return out, rows.Err()
}

// appendStanding folds a joined row into out, starting a new result when the
// game changes. Rows arrive grouped by game and ordered by rank.
func appendStanding(out []game.Result, res game.Result, st game.Standing) []game.Result {
	if n := len(out); n > 0 && out[n-1].GameID == res.GameID {
		out[n-1].Standings = append(out[n-1].Standings, st)
		return out
	}
	res.Standings = []game.Standing{st}
	res.Winner = st
	return append(out, res)
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return defaultHistoryLimit
	case limit > maxHistoryLimit:
		return maxHistoryLimit
	}
	return limit
}
