package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"fintechfootball/internal/archive"
	"fintechfootball/internal/config"
	"fintechfootball/internal/db"
	"fintechfootball/internal/game"

	"github.com/spf13/cobra"
)

var tableActions = []string{"roll", "analyze", "invest", "auction", "shock", "standings", "projects", "next", "end", "quit"}

func newPlayCmd(cfg *config.CLIConfig) *cobra.Command {
	var seed int64
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a hot-seat game for three players in this terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("seed") {
				seed = cfg.Seed
			}
			logger := newLogger(cfg.LogLevel)
			session, err := game.NewSession(game.NewRandomSource(seed), logger)
			if err != nil {
				return err
			}

			names := make([]string, game.NumPlayers)
			for i := range names {
				name, err := promptOptional(fmt.Sprintf("Player %d name (blank for Player %d)", i+1, i+1))
				if err != nil {
					return err
				}
				names[i] = name
			}
			if err := session.StartGame(names); err != nil {
				return err
			}
			printSuccess("Kick-off! Highest NPV earned after three rounds wins.")

			res, finished, err := runTable(session)
			if err != nil || !finished {
				return err
			}
			renderResult(res)
			archiveResult(cmd.Context(), cfg.DatabaseURL, logger, res)
			return nil
		},
	}
	cmd.Flags().Int64Var(&seed, "seed", 0, "dice seed for a repeatable game (0 = random)")
	return cmd
}

// runTable drives the session until the game ends or the players quit.
func runTable(s *game.Session) (game.Result, bool, error) {
	for s.Phase() == game.PhasePlaying {
		st := s.Snapshot()
		renderTable(st)
		action, err := promptChoice("Action", tableActions, defaultAction(st))
		if err != nil {
			return game.Result{}, false, err
		}
		switch action {
		case "quit":
			printInfo("Table closed without a result.")
			return game.Result{}, false, nil
		case "end":
			res, err := s.EndGame()
			return res, err == nil, err
		}
		if err := step(s, action); err != nil {
			printError(explain(err))
		}
	}
	res, err := s.EndGame()
	return res, err == nil, err
}

func step(s *game.Session, action string) error {
	switch action {
	case "roll":
		out, err := s.RollDice()
		if err != nil {
			return err
		}
		renderRoll(s.Snapshot(), out)
	case "analyze":
		return analyze(s)
	case "invest":
		return invest(s)
	case "auction":
		return runAuction(s)
	case "shock":
		ev, err := s.TriggerMarketEvent()
		if err != nil {
			return err
		}
		renderEvent(ev)
	case "standings":
		renderStandings(s.Standings(), "Standings")
	case "projects":
		renderProjects(s.Projects())
	case "next":
		out, err := s.AdvanceTurn()
		if err != nil {
			return err
		}
		if out.NewRound {
			accent.Printf("Round %d begins. A new market shock is available.\n", out.Round)
		}
	}
	return nil
}

func analyze(s *game.Session) error {
	st := s.Snapshot()
	id := ""
	if st.AvailableProject != nil {
		id = st.AvailableProject.ID
	} else {
		ids := make([]string, 0, game.DieFaces)
		for _, p := range s.Projects() {
			ids = append(ids, p.ID)
		}
		choice, err := promptChoice("Project", ids, ids[0])
		if err != nil {
			return err
		}
		id = choice
	}
	view, err := s.AnalyzeProject(id)
	if err != nil {
		return err
	}
	renderProject(view)
	return nil
}

func invest(s *game.Session) error {
	st := s.Snapshot()
	if st.AvailableProject == nil {
		printWarn("There is no project to invest in right now.")
		return nil
	}
	p := st.AvailableProject
	confirm, err := promptChoice(fmt.Sprintf("%s: invest %s in %s?", playerName(st, st.CurrentActorID), game.FormatMoney(p.Cost), p.Name), []string{"yes", "no"}, "yes")
	if err != nil || confirm != "yes" {
		return err
	}
	snap, err := s.Invest(st.CurrentActorID, p.ID)
	if err != nil {
		return err
	}
	printSuccess(fmt.Sprintf("%s now has %s cash and %s net worth.", snap.Name, game.FormatMoney(snap.Cash), game.FormatMoney(snap.NetWorth)))
	return nil
}

func runAuction(s *game.Session) error {
	view, err := s.OfferProjectForAuction()
	if err != nil {
		return err
	}
	st := s.Snapshot()
	accent.Printf("%s puts a project up for sealed bids:\n", playerName(st, view.SellerID))
	renderProject(*view.Project)
	for _, b := range view.Bids {
		raw, err := promptOptional(fmt.Sprintf("%s's sealed bid (blank for none)", playerName(st, b.PlayerID)))
		if err != nil {
			return err
		}
		if err := s.PlaceBid(b.PlayerID, game.ParseBid(raw)); err != nil {
			return err
		}
	}
	out, err := s.ResolveAuction()
	if err != nil {
		return err
	}
	renderAuctionOutcome(s.Snapshot(), out)
	return nil
}

func defaultAction(st game.State) string {
	switch st.Stage {
	case game.StageAwaitingRoll, game.StageAwaitingSecondRoll:
		return "roll"
	case game.StageRolled:
		return "analyze"
	case game.StageTradeOffered:
		return "auction"
	case game.StageTradeResolved:
		if st.AvailableProject != nil {
			return "analyze"
		}
	}
	return "next"
}

func explain(err error) string {
	switch {
	case errors.Is(err, game.ErrNotReady):
		return "Roll the dice before passing the turn."
	case errors.Is(err, game.ErrAuctionUnresolved):
		return "Finish the reroll and auction before passing the turn."
	case errors.Is(err, game.ErrShockAlreadyUsed):
		return "The market shock has already been used this round."
	case errors.Is(err, game.ErrAlreadyRolled):
		return "You have already rolled this turn."
	}
	return err.Error()
}

func archiveResult(ctx context.Context, databaseURL string, logger *slog.Logger, res game.Result) {
	if databaseURL == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	pool, err := db.Connect(ctx, databaseURL)
	if err != nil {
		printWarn(fmt.Sprintf("Result not archived: %v", err))
		return
	}
	defer pool.Close()
	if err := db.EnsureSchema(ctx, pool); err != nil {
		printWarn(fmt.Sprintf("Result not archived: %v", err))
		return
	}
	if err := archive.NewStore(pool, logger).RecordGame(ctx, res); err != nil {
		printWarn(fmt.Sprintf("Result not archived: %v", err))
		return
	}
	printInfo("Result archived.")
}
