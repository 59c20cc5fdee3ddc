package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"fintechfootball/internal/game"

	"github.com/fatih/color"
)

var (
	stdinReader = bufio.NewReader(os.Stdin)
	accent      = color.New(color.FgCyan, color.Bold)
	success     = color.New(color.FgGreen, color.Bold)
	warn        = color.New(color.FgYellow, color.Bold)
	danger      = color.New(color.FgRed, color.Bold)
	neutral     = color.New(color.FgHiWhite)
)

func printSuccess(msg string) {
	success.Println(msg)
}

func printWarn(msg string) {
	warn.Println(msg)
}

func printError(msg string) {
	danger.Println(msg)
}

func printInfo(msg string) {
	neutral.Println(msg)
}

func promptRequired(label string) (string, error) {
	for {
		fmt.Printf("%s: ", label)
		text, err := stdinReader.ReadString('\n')
		if err != nil {
			return "", err
		}
		text = strings.TrimSpace(text)
		if text != "" {
			return text, nil
		}
		printWarn(label + " is required.")
	}
}

func promptOptional(label string) (string, error) {
	fmt.Printf("%s: ", label)
	text, err := stdinReader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

func promptChoice(label string, options []string, defaultValue string) (string, error) {
	normalized := make(map[string]struct{}, len(options))
	for _, opt := range options {
		normalized[strings.ToLower(strings.TrimSpace(opt))] = struct{}{}
	}
	for {
		fmt.Printf("%s (%s) [%s]: ", label, strings.Join(options, "/"), defaultValue)
		text, err := stdinReader.ReadString('\n')
		if err != nil {
			return "", err
		}
		text = strings.ToLower(strings.TrimSpace(text))
		if text == "" {
			text = strings.ToLower(strings.TrimSpace(defaultValue))
		}
		if _, ok := normalized[text]; ok {
			return text, nil
		}
		printWarn("Invalid option. Please pick one of the listed values.")
	}
}

func renderTable(st game.State) {
	accent.Printf("\n== ROUND %d/%d ==\n", st.Round, st.MaxRounds)
	fmt.Printf("%-3s %-16s %-18s %14s %14s %12s\n", "", "PLAYER", "CLUB", "CASH", "NET WORTH", "NPV EARNED")
	for _, p := range st.Players {
		marker := ""
		if p.ID == st.CurrentPlayerID {
			marker = ">"
		}
		fmt.Printf("%-3s %-16s %-18s %14s %14s %12s\n",
			marker,
			truncate(p.Name, 16),
			truncate(p.ClubName, 18),
			game.FormatMoney(p.Cash),
			game.FormatMoney(p.NetWorth),
			colorizeMoney(p.CumulativeNPVEarned),
		)
	}
	fmt.Printf("Bank: %s   Market shock: %s\n", game.FormatMoney(st.BankTotalAssets), availability(st.ShockAvailable))
	if st.Dice > 0 {
		fmt.Printf("Dice: %d   Stage: %s\n", st.Dice, st.Stage)
	} else {
		fmt.Printf("Stage: %s\n", st.Stage)
	}
	if st.AvailableProject != nil {
		fmt.Printf("%s may invest in %s\n", playerName(st, st.CurrentActorID), st.AvailableProject.Name)
	}
}

func availability(ok bool) string {
	if ok {
		return success.Sprint("available")
	}
	return neutral.Sprint("used")
}

func renderRoll(st game.State, out game.RollOutcome) {
	label := "Rolled"
	if out.Second {
		label = "Second roll"
	}
	accent.Printf("%s: %d\n", label, out.Roll)
	switch out.Stage {
	case game.StageAwaitingSecondRoll:
		printWarn("A six! Roll again to see which project goes to auction.")
	case game.StageForfeited:
		printError("Another six. No project this turn.")
	case game.StageTradeOffered:
		printInfo(fmt.Sprintf("%s can put %s up for auction.", playerName(st, st.CurrentPlayerID), out.Project.Name))
	case game.StageRolled:
		renderProject(*out.Project)
	}
}

func renderProject(p game.ProjectView) {
	fmt.Printf("%s (%s)\n", accent.Sprint(p.Name), p.ID)
	if p.Description != "" {
		fmt.Printf("  %s\n", p.Description)
	}
	fmt.Printf("  cost %s, %s/yr for %d yrs at %.0f%%, NPV %s\n",
		game.FormatMoney(p.Cost),
		game.FormatMoney(p.AnnualCashFlow),
		p.DurationYears,
		p.DiscountRate*100,
		colorizeNPV(p.NPV),
	)
}

func renderProjects(projects []game.ProjectView) {
	accent.Println("\n== PROJECTS ==")
	fmt.Printf("%-4s %-6s %-30s %12s %12s %5s %6s %14s\n", "DIE", "ID", "NAME", "COST", "CASH/YR", "YRS", "RATE", "NPV")
	for i, p := range projects {
		fmt.Printf("%-4d %-6s %-30s %12s %12s %5d %5.1f%% %14s\n",
			i+1,
			p.ID,
			truncate(p.Name, 30),
			game.FormatMoney(p.Cost),
			game.FormatMoney(p.AnnualCashFlow),
			p.DurationYears,
			p.DiscountRate*100,
			colorizeNPV(p.NPV),
		)
	}
	fmt.Println()
}

func renderEvent(ev game.EventOutcome) {
	printer := warn
	if ev.Severity == game.SeverityAdverse {
		printer = danger
	}
	printer.Printf("MARKET SHOCK: %s\n", ev.Title)
	if ev.Description != "" {
		fmt.Printf("  %s\n", ev.Description)
	}
	fmt.Printf("  %s\n", ev.Message)
}

func renderAuctionOutcome(st game.State, out game.AuctionOutcome) {
	switch out.Status {
	case game.AuctionSold:
		printSuccess(fmt.Sprintf("%s wins the auction with %s. %s receives %s, the bank keeps %s.",
			playerName(st, out.WinnerID),
			game.FormatMoney(out.Bid),
			playerName(st, out.SellerID),
			game.FormatMoney(out.SellerProceeds),
			game.FormatMoney(out.BankCut),
		))
	case game.AuctionWinnerShortOfFunds:
		printError(fmt.Sprintf("%s bid %s but cannot pay. The project is lost.", playerName(st, out.WinnerID), game.FormatMoney(out.Bid)))
	default:
		printWarn("No bids. The project is lost.")
	}
}

func renderStandings(standings []game.Standing, title string) {
	accent.Printf("\n== %s ==\n", strings.ToUpper(title))
	if len(standings) == 0 {
		printInfo("No players yet.")
		return
	}
	fmt.Printf("%-6s %-16s %-18s %12s %14s\n", "RANK", "PLAYER", "CLUB", "NPV EARNED", "NET WORTH")
	for _, row := range standings {
		fmt.Printf("%-6d %-16s %-18s %12s %14s\n",
			row.Rank,
			truncate(row.Name, 16),
			truncate(row.ClubName, 18),
			colorizeMoney(row.CumulativeNPVEarned),
			game.FormatMoney(row.NetWorth),
		)
	}
	fmt.Println()
}

func renderResult(res game.Result) {
	success.Printf("\n%s (%s) wins with %s of NPV earned!\n", res.Winner.Name, res.Winner.ClubName, game.FormatMoney(res.Winner.CumulativeNPVEarned))
	renderStandings(res.Standings, "Final standings")
}

func renderHistory(results []game.Result) {
	accent.Println("\n== RECENT GAMES ==")
	if len(results) == 0 {
		printInfo("No finished games archived yet.")
		return
	}
	fmt.Printf("%-20s %-16s %12s %s\n", "ENDED", "WINNER", "NPV EARNED", "GAME")
	for _, res := range results {
		fmt.Printf("%-20s %-16s %12s %s\n",
			res.EndedAt.Local().Format("2006-01-02 15:04"),
			truncate(res.Winner.Name, 16),
			game.FormatMoney(res.Winner.CumulativeNPVEarned),
			res.GameID,
		)
	}
	fmt.Println()
}

func playerName(st game.State, id string) string {
	for _, p := range st.Players {
		if p.ID == id {
			return p.Name
		}
	}
	return id
}

func colorizeMoney(v int64) string {
	text := game.SignedMoney(v)
	switch {
	case v > 0:
		return success.Sprint(text)
	case v < 0:
		return danger.Sprint(text)
	default:
		return neutral.Sprint(text)
	}
}

func colorizeNPV(v float64) string {
	text := fmt.Sprintf("%.2f", v)
	switch {
	case v > 0:
		return success.Sprint("+" + text)
	case v < 0:
		return danger.Sprint(text)
	default:
		return neutral.Sprint(text)
	}
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
