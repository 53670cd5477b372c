package main

import (
	"strings"

	"github.com/luca-patrignani/zkpoker/domain/poker"
	"github.com/pkg/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newEvalCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "eval <cards...>",
		Short:   "Rank the best five-card hand of seven cards",
		Example: "  zkpoker eval Ah Kh Qh Jh Th 2c 3d",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			v, desc, err := evaluate(strings.Join(args, " "))
			if err != nil {
				return err
			}
			pterm.DefaultBox.WithTitle(pterm.LightYellow("|HAND|")).WithTitleTopCenter().
				WithHorizontalPadding(4).
				Println(pterm.Sprintfln("%s\n%s\nscore %d", v.Ranking, desc, v.Score()))
			return nil
		},
	}
}

// evaluate ranks seven cards given in two-letter notation.
func evaluate(s string) (poker.HandValue, string, error) {
	cards, err := poker.ParseCards(s)
	if err != nil {
		return poker.HandValue{}, "", err
	}
	if len(cards) != 7 {
		return poker.HandValue{}, "", errors.Errorf("need 7 cards, got %d", len(cards))
	}
	v, err := poker.Evaluate([7]poker.Card(cards))
	if err != nil {
		return poker.HandValue{}, "", err
	}
	desc, err := poker.Describe(cards)
	if err != nil {
		return poker.HandValue{}, "", err
	}
	return v, desc, nil
}
