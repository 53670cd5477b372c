package main

import (
	"context"
	"math/rand/v2"
	"os"
	"strconv"

	"github.com/luca-patrignani/zkpoker/application"
	"github.com/luca-patrignani/zkpoker/circuit"
	"github.com/luca-patrignani/zkpoker/config"
	"github.com/luca-patrignani/zkpoker/domain/poker"
	"github.com/luca-patrignani/zkpoker/logging"
	"github.com/luca-patrignani/zkpoker/store"
	"github.com/luca-patrignani/zkpoker/zk"
	"github.com/pkg/errors"
	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

type demoOptions struct {
	players [2]string
	session uint32
	// raise is the preflop raise in small blinds; zero limps.
	raise int64
	fold  bool
	// buyIn is in small blinds.
	buyIn   int64
	verbose bool
}

func newDemoCmd(root *rootOptions) *cobra.Command {
	opts := demoOptions{players: [2]string{"alice", "bob"}}
	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Play one proven hand between two local players",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.load()
			if err != nil {
				return err
			}
			pterm.DefaultBigText.WithLetters(
				putils.LettersFromStringWithStyle("ZK", pterm.FgRed.ToStyle()),
				putils.LettersFromStringWithStyle("Poker", pterm.FgDarkGray.ToStyle()),
			).Render()
			spinner, _ := pterm.DefaultSpinner.Start("Running the Groth16 setup of every circuit...")
			suite, err := circuit.SetupAll()
			if err != nil {
				spinner.Fail()
				return err
			}
			spinner.Success("Circuits ready")
			_, err = runDemo(cmd.Context(), cfg, suite, opts)
			return err
		},
	}
	cmd.Flags().StringVar(&opts.players[0], "player1", opts.players[0], "address of player 1")
	cmd.Flags().StringVar(&opts.players[1], "player2", opts.players[1], "address of player 2")
	cmd.Flags().Uint32Var(&opts.session, "session", 1, "session id")
	cmd.Flags().Int64Var(&opts.raise, "raise", 4, "preflop raise in small blinds, 0 to call")
	cmd.Flags().BoolVar(&opts.fold, "fold", false, "fold preflop instead of playing to showdown")
	cmd.Flags().Int64Var(&opts.buyIn, "buy-in", 100, "buy-in of each player in small blinds")
	cmd.Flags().BoolVarP(&opts.verbose, "verbose", "v", false, "log every transition")
	return cmd
}

type demo struct {
	ctx     context.Context
	e       *application.Engine
	hand    *circuit.Hand
	players [2]string
	g       *poker.GameState
	hole    [2][2]poker.Card
}

// runDemo plays a full hand through an in-memory engine and returns the
// final state.
func runDemo(ctx context.Context, cfg *config.Config, suite circuit.Suite, opts demoOptions) (*poker.GameState, error) {
	if opts.players[0] == opts.players[1] {
		return nil, errors.New("the two players need different addresses")
	}
	log := logging.Nop()
	if opts.verbose {
		log = logging.GetZeroLogger("demo", os.Stderr, true)
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	st, err := store.OpenBadger(store.BadgerOptions{Logger: log})
	if err != nil {
		return nil, err
	}
	defer st.Close()
	reg := zk.NewRegistry()
	if err := suite.Install(reg); err != nil {
		return nil, err
	}
	e, err := application.New(ctx, application.Options{Rules: cfg.Game.Rules(), Store: st, Registry: reg, Logger: log})
	if err != nil {
		return nil, err
	}
	defer e.Close()
	if err := e.Bus().Subscribe(application.TopicGameCompleted, func(ev application.GameCompleted) {
		pterm.Info.Printfln("Session %d completed: %s by %s", ev.Session, ev.Winner, ev.Reason)
	}); err != nil {
		return nil, err
	}

	hand, err := circuit.NewHand(suite, opts.session, [2]uint64{rand.Uint64N(1 << 32), rand.Uint64N(1 << 32)})
	if err != nil {
		return nil, err
	}
	d := &demo{ctx: ctx, e: e, hand: hand, players: opts.players}
	sb := e.Rules().SmallBlind
	if err := d.setup([2]int64{opts.buyIn * sb, opts.buyIn * sb}); err != nil {
		return nil, err
	}

	if opts.fold {
		if err := d.act(poker.Fold()); err != nil {
			return nil, err
		}
		return d.finish([2]string{})
	}
	if opts.raise > 0 {
		if err := d.act(poker.Raise(opts.raise * sb)); err != nil {
			return nil, err
		}
	}
	if err := d.act(poker.Call()); err != nil {
		return nil, err
	}
	if d.g.Phase == poker.PhasePreflop {
		// The big blind closes a limped pot.
		if err := d.act(poker.Check()); err != nil {
			return nil, err
		}
	}
	for street := 0; street < 3; street++ {
		if err := d.reveal(street); err != nil {
			return nil, err
		}
		for _, a := range []poker.Action{poker.Check(), poker.Check()} {
			if err := d.act(a); err != nil {
				return nil, err
			}
		}
	}
	return d.showdown()
}

// prove runs fn under a spinner.
func prove(what string, fn func() (poker.ProofBundle, error)) (poker.ProofBundle, error) {
	spinner, _ := pterm.DefaultSpinner.Start("Proving " + what + "...")
	b, err := fn()
	if err != nil {
		spinner.Fail()
		return b, err
	}
	spinner.Success(what + " proven")
	return b, nil
}

func (d *demo) setup(buyIns [2]int64) error {
	req, err := d.hand.Start(d.players, buyIns)
	if err != nil {
		return err
	}
	if d.g, err = d.e.Start(d.ctx, req); err != nil {
		return err
	}
	pterm.Info.Printfln("Session %d opened, %s holds the button", d.g.Session, d.players[d.g.DealerButton])
	if d.g, err = d.e.PostBlinds(d.ctx, d.g.Session, d.players[0]); err != nil {
		return err
	}
	for seat, p := range d.players {
		b, err := prove(p+"'s shuffle", func() (poker.ProofBundle, error) { return d.hand.ShuffleProof(seat) })
		if err != nil {
			return err
		}
		if d.g, err = d.e.CommitShuffle(d.ctx, d.g.Session, p, b); err != nil {
			return err
		}
	}
	b, err := prove("the deal", d.hand.DealProof)
	if err != nil {
		return err
	}
	if d.g, err = d.e.Deal(d.ctx, d.g.Session, d.players[0], b); err != nil {
		return err
	}
	for seat, hole := range d.hand.Holes() {
		for i, id := range hole {
			if d.hole[seat][i], err = poker.CardFromID(id); err != nil {
				return err
			}
		}
	}
	renderState(d.g, d.hole)
	return nil
}

func (d *demo) act(a poker.Action) error {
	actor := d.g.Actor()
	var b *poker.ProofBundle
	if a.Type.Wagers() {
		bundle, err := prove(actor+"'s "+string(a.Type), func() (poker.ProofBundle, error) {
			return d.hand.BetProof(d.g, d.e.Rules(), d.g.CurrentActor, a)
		})
		if err != nil {
			return err
		}
		b = &bundle
	}
	g, err := d.e.Act(d.ctx, d.g.Session, actor, a, b)
	if err != nil {
		return err
	}
	d.g = g
	renderState(d.g, d.hole, actionPanel(actor, a))
	return nil
}

func (d *demo) reveal(street int) error {
	b, err := prove("street "+strconv.Itoa(street+1), func() (poker.ProofBundle, error) { return d.hand.RevealProof(street) })
	if err != nil {
		return err
	}
	d.g, err = d.e.RevealCommunity(d.ctx, d.g.Session, d.players[0], b)
	return err
}

func (d *demo) showdown() (*poker.GameState, error) {
	b, err := prove("the showdown", d.hand.ShowdownProof)
	if err != nil {
		return nil, err
	}
	if d.g, err = d.e.RevealWinner(d.ctx, d.g.Session, d.players[0], b); err != nil {
		return nil, err
	}
	var descriptions [2]string
	for seat := range descriptions {
		cards := append(d.hole[seat][:], d.g.Community...)
		if descriptions[seat], err = poker.Describe(cards); err != nil {
			return nil, err
		}
	}
	return d.finish(descriptions)
}

// finish shows the result, pays both seats and checks the journal.
func (d *demo) finish(descriptions [2]string) (*poker.GameState, error) {
	renderState(d.g, d.hole, winnerPanel(d.g, descriptions))
	for _, p := range d.players {
		g, amount, err := d.e.ClaimPot(d.ctx, d.g.Session, p)
		if err != nil {
			return nil, err
		}
		d.g = g
		pterm.Success.Printfln("%s withdrew %s", p, formatChips(amount))
	}

	j, err := d.e.Journal(d.ctx, d.g.Session)
	if err != nil {
		return nil, err
	}
	rows := pterm.TableData{{"#", "Transition", "Actor", "Phase", "State"}}
	for _, b := range j.Blocks() {
		rows = append(rows, []string{strconv.Itoa(b.Index), b.Entry.Transition, b.Entry.Actor, b.Entry.Phase, short(b.Entry.State)})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithData(rows).Render(); err != nil {
		return nil, err
	}
	if err := j.Verify(d.e.PublicKey()); err != nil {
		return nil, err
	}
	pterm.Success.Printfln("Journal of %d blocks verified", j.Len())
	return d.g, nil
}

func short(s string) string {
	if len(s) > 12 {
		return s[:12]
	}
	return s
}
