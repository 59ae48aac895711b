package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/gosuda/werewolf/werewolf/engine"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Play a game on the terminal, answering for every player",
	RunE:  runSimulate,
}

var (
	flagDeckFile string
	flagSimSeed  int64
)

func init() {
	flags := simulateCmd.Flags()
	flags.StringVar(&flagDeckFile, "deck", "", "YAML file listing the players and their roles or a deck")
	flags.Int64Var(&flagSimSeed, "seed", 0, "dealing seed; overrides the file")
	_ = simulateCmd.MarkFlagRequired("deck")
}

// simulation is the YAML description of a terminal game. Players either
// carry a role each, or the deck is dealt among them.
type simulation struct {
	Seed    int64       `yaml:"seed"`
	Players []simPlayer `yaml:"players"`
	Deck    Deck        `yaml:"deck"`
}

type simPlayer struct {
	Name string          `yaml:"name"`
	Role engine.RoleKind `yaml:"role"`
}

func loadSimulation(r io.Reader) (simulation, error) {
	var sim simulation
	if err := yaml.NewDecoder(r).Decode(&sim); err != nil {
		return simulation{}, fmt.Errorf("decode simulation: %w", err)
	}
	if len(sim.Players) == 0 {
		return simulation{}, fmt.Errorf("%w: no players", engine.ErrValidationFailed)
	}
	return sim, nil
}

// setup seats the players and hands out their roles.
func (s simulation) setup(g *engine.Game) error {
	dealt := len(s.Deck) > 0
	for _, sp := range s.Players {
		p, err := g.AddParticipant(sp.Name)
		if err != nil {
			return err
		}
		if dealt {
			continue
		}
		if err := g.AssignRole(p, sp.Role); err != nil {
			return fmt.Errorf("player %s: %w", sp.Name, err)
		}
	}
	if !dealt {
		return nil
	}
	kinds, err := s.Deck.Kinds()
	if err != nil {
		return err
	}
	return g.Deal(kinds)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	f, err := os.Open(flagDeckFile)
	if err != nil {
		return err
	}
	defer f.Close()
	sim, err := loadSimulation(f)
	if err != nil {
		return err
	}
	if flagSimSeed != 0 {
		sim.Seed = flagSimSeed
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := []engine.Option{engine.WithID("console")}
	if sim.Seed != 0 {
		opts = append(opts, engine.WithSeed(sim.Seed))
	}
	g := engine.New(newConsoleDriver(cmd.InOrStdin(), cmd.OutOrStdout()), opts...)
	if err := sim.setup(g); err != nil {
		return err
	}

	outcome, err := g.Run(ctx)
	if errors.Is(err, io.EOF) {
		log.Info().Msg("[werewolf] input closed, game abandoned")
		return nil
	}
	if err != nil {
		return err
	}
	if outcome.AllDead {
		fmt.Fprintln(cmd.OutOrStdout(), "Regular end: everybody died.")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Regular end: %s won.\n", outcome.Title)
	return nil
}
