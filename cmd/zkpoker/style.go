package main

import (
	"fmt"
	"strings"

	"github.com/luca-patrignani/zkpoker/domain/poker"
	"github.com/pterm/pterm"
)

// chipUnit is one whole chip in base units.
const chipUnit = 10_000_000

// formatChips renders base units with their seven decimals, trailing zeros
// trimmed.
func formatChips(v int64) string {
	sign := ""
	if v < 0 {
		sign, v = "-", -v
	}
	whole, frac := v/chipUnit, v%chipUnit
	if frac == 0 {
		return fmt.Sprintf("%s%d", sign, whole)
	}
	return strings.TrimRight(fmt.Sprintf("%s%d.%07d", sign, whole, frac), "0")
}

func actionPanel(player string, a poker.Action) pterm.Panel {
	pbox := pterm.DefaultBox.WithHorizontalPadding(4).WithTopPadding(1).WithBottomPadding(1)
	var s string
	if a.Type.Wagers() {
		s = pterm.Sprintfln("%s %s %s", player, a.Type, formatChips(a.Amount))
	} else {
		s = pterm.Sprintfln("%s %s", player, a.Type)
	}
	return pterm.Panel{Data: pbox.WithTitle(pterm.LightYellow("|LAST ACTION|")).WithTitleTopCenter().Sprint(s)}
}

func winnerPanel(g *poker.GameState, descriptions [2]string) pterm.Panel {
	pbox := pterm.DefaultBox.WithHorizontalPadding(4).WithTopPadding(1).WithBottomPadding(1)
	var s string
	switch g.Winner {
	case poker.OutcomePlayer1, poker.OutcomePlayer2:
		seat := 0
		if g.Winner == poker.OutcomePlayer2 {
			seat = 1
		}
		if g.EndReason == poker.EndShowdown {
			s = pterm.Sprintfln("%s won %s with %s", pterm.LightCyan(g.Seats[seat].Address), formatChips(g.SettledPot), descriptions[seat])
		} else {
			s = pterm.Sprintfln("%s won %s by %s", pterm.LightCyan(g.Seats[seat].Address), formatChips(g.SettledPot), g.EndReason)
		}
	default:
		s = pterm.Sprintfln("Split pot of %s, both with %s", formatChips(g.SettledPot), descriptions[0])
	}
	return pterm.Panel{Data: pbox.WithTitle(pterm.LightGreen("|SHOWDOWN|")).WithTitleTopCenter().Sprint(s)}
}

// renderState draws both seats and the board. hole holds the cards the
// viewer may see.
func renderState(g *poker.GameState, hole [2][2]poker.Card, extra ...pterm.Panel) {
	seats := make([]pterm.Panel, 2)
	for i := range g.Seats {
		seats[i] = pterm.Panel{Data: seatInfo(g, i, hole[i])}
	}
	board := pterm.Panel{Data: boardInfo(g)}
	_ = pterm.DefaultPanel.WithPanels([][]pterm.Panel{
		seats,
		{board},
		extra,
	}).Render()
}

func seatInfo(g *poker.GameState, seat int, hole [2]poker.Card) string {
	s := g.Seats[seat]
	pbox := pterm.DefaultBox.WithHorizontalPadding(4).WithTopPadding(1).WithBottomPadding(1)
	var status string
	switch {
	case s.Folded:
		status = pterm.LightRed("Folded")
	case g.Phase.IsBetting() && g.CurrentActor == seat:
		status = pterm.LightYellow("To act")
	default:
		status = pterm.LightGreen("Active")
	}
	title := s.Address
	if int(g.DealerButton) == seat {
		title += " (D)"
	}
	cards := pterm.BgGreen.Sprintf("%s - %s", hole[0], hole[1])
	return pbox.WithTitle(title).WithTitleTopLeft().
		Sprintf("%s\nCurrent Bet: %s\nStack: %s\n%s\n", status, formatChips(s.Bet), formatChips(s.Stack), cards)
}

func boardInfo(g *poker.GameState) string {
	cards := make([]string, 5)
	for i := range cards {
		cards[i] = poker.FaceDown
		if i < len(g.Community) {
			cards[i] = g.Community[i].String()
		}
	}
	return pterm.BgGreen.Sprint("\n " + strings.Join(cards, " - ") + " | Pot: " + formatChips(g.Pot) + " | " + string(g.Phase) + " \n")
}
