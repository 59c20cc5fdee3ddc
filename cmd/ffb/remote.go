package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	cl "fintechfootball/internal/cli"
	"fintechfootball/internal/game"

	"github.com/spf13/cobra"
)

func newRemoteCmd(apiBase *string) *cobra.Command {
	remote := &cobra.Command{
		Use:   "remote",
		Short: "Drive a shared table hosted by ffb-api",
	}

	remote.AddCommand(
		&cobra.Command{
			Use:   "state",
			Short: "Show the table",
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
				defer cancel()
				st, err := newClient(apiBase).State(ctx)
				if err != nil {
					return err
				}
				renderRemoteState(st)
				return nil
			},
		},
		&cobra.Command{
			Use:   "start [name name name]",
			Short: "Start a game for three players",
			Args:  cobra.MaximumNArgs(game.NumPlayers),
			RunE: func(cmd *cobra.Command, args []string) error {
				names := make([]string, game.NumPlayers)
				copy(names, args)
				for i := len(args); i < game.NumPlayers; i++ {
					name, err := promptOptional(fmt.Sprintf("Player %d name", i+1))
					if err != nil {
						return err
					}
					names[i] = name
				}
				return remoteIntent(cmd, apiBase, func(ctx context.Context, c *cl.Client) (cl.IntentResponse, error) {
					return c.Start(ctx, names)
				})
			},
		},
		simpleRemoteCmd(apiBase, "roll", "Roll the dice for the current player", (*cl.Client).Roll),
		simpleRemoteCmd(apiBase, "shock", "Trigger this round's market shock", (*cl.Client).Shock),
		simpleRemoteCmd(apiBase, "offer", "Open sealed bidding on the rerolled project", (*cl.Client).Offer),
		simpleRemoteCmd(apiBase, "resolve", "Close the auction and settle the winning bid", (*cl.Client).Resolve),
		simpleRemoteCmd(apiBase, "advance", "Pass the turn to the next player", (*cl.Client).Advance),
		simpleRemoteCmd(apiBase, "end", "End the game now and show the result", (*cl.Client).End),
		simpleRemoteCmd(apiBase, "reset", "Clear the table for a new game", (*cl.Client).Reset),
		&cobra.Command{
			Use:   "invest <player> <project-id>",
			Short: "Invest in the project the player is entitled to",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return remoteIntent(cmd, apiBase, func(ctx context.Context, c *cl.Client) (cl.IntentResponse, error) {
					playerID, err := resolvePlayer(ctx, c, args[0])
					if err != nil {
						return cl.IntentResponse{}, err
					}
					return c.Invest(ctx, playerID, strings.TrimSpace(args[1]))
				})
			},
		},
		&cobra.Command{
			Use:   "bid <player> <amount>",
			Short: "Place or replace a sealed bid",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return remoteIntent(cmd, apiBase, func(ctx context.Context, c *cl.Client) (cl.IntentResponse, error) {
					playerID, err := resolvePlayer(ctx, c, args[0])
					if err != nil {
						return cl.IntentResponse{}, err
					}
					return c.Bid(ctx, playerID, args[1])
				})
			},
		},
		&cobra.Command{
			Use:   "standings",
			Short: "Show the current leaderboard",
			RunE: func(cmd *cobra.Command, args []string) error {
				ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
				defer cancel()
				out, err := newClient(apiBase).Standings(ctx)
				if err != nil {
					return err
				}
				renderStandings(out, "Standings")
				return nil
			},
		},
	)
	return remote
}

func simpleRemoteCmd(apiBase *string, use, short string, call func(*cl.Client, context.Context) (cl.IntentResponse, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return remoteIntent(cmd, apiBase, func(ctx context.Context, c *cl.Client) (cl.IntentResponse, error) {
				return call(c, ctx)
			})
		},
	}
}

func remoteIntent(cmd *cobra.Command, apiBase *string, fn func(context.Context, *cl.Client) (cl.IntentResponse, error)) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()
	out, err := fn(ctx, newClient(apiBase))
	if err != nil {
		return err
	}
	renderIntent(out)
	return nil
}

// resolvePlayer accepts a player id or a case-insensitive name.
func resolvePlayer(ctx context.Context, c *cl.Client, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	st, err := c.State(ctx)
	if err != nil {
		return "", err
	}
	for _, p := range st.Players {
		if p.ID == ref || strings.EqualFold(p.Name, ref) {
			return p.ID, nil
		}
	}
	return "", fmt.Errorf("no player %q at the table", ref)
}

func renderIntent(out cl.IntentResponse) {
	st := out.State
	switch {
	case out.Roll != nil:
		renderRoll(st, *out.Roll)
	case out.Event != nil:
		renderEvent(*out.Event)
	case out.Outcome != nil:
		renderAuctionOutcome(st, *out.Outcome)
	case out.Auction != nil && out.Auction.Project != nil:
		accent.Printf("Bidding open on %s.\n", out.Auction.Project.Name)
	case out.Bid != nil:
		printSuccess(fmt.Sprintf("Sealed bid recorded for %s.", playerName(st, out.Bid.PlayerID)))
	case out.Player != nil:
		printSuccess(fmt.Sprintf("%s invested. Cash %s, net worth %s.", out.Player.Name, game.FormatMoney(out.Player.Cash), game.FormatMoney(out.Player.NetWorth)))
	case out.Result != nil:
		renderResult(*out.Result)
		return
	case out.Turn != nil && out.Turn.GameEnded && out.Turn.Result != nil:
		renderResult(*out.Turn.Result)
		return
	}
	renderRemoteState(st)
}

func renderRemoteState(st game.State) {
	switch st.Phase {
	case game.PhaseSetup:
		printInfo("No game running. Start one with `ffb remote start`.")
	case game.PhaseEnded:
		if st.Winner != nil {
			success.Printf("Game over. %s won.\n", st.Winner.Name)
		}
	default:
		renderTable(st)
	}
}
