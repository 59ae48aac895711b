// Package engine runs werewolf games: participants, role cards, the night
// scheduler, vote tallies and win conditions. Every decision the game needs
// from a player is raised as a Request and answered by a Driver.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Game owns the participants and runs the day/night loop. Setup methods
// may be called from any goroutine until Run starts; afterwards all
// mutation happens on the goroutine calling Run.
type Game struct {
	id     string
	driver Driver
	logger zerolog.Logger
	rng    *rand.Rand

	mu           sync.Mutex
	started      bool
	participants []*Participant
	byName       map[string]*Participant

	hitlist []*Participant
	night   bool
	day     int
}

// Option configures a Game.
type Option func(*Game)

// WithID labels the game in logs.
func WithID(id string) Option {
	return func(g *Game) { g.id = id }
}

// WithLogger overrides the global zerolog logger.
func WithLogger(l zerolog.Logger) Option {
	return func(g *Game) { g.logger = l }
}

// WithSeed makes role dealing reproducible.
func WithSeed(seed int64) Option {
	return func(g *Game) { g.rng = rand.New(rand.NewSource(seed)) }
}

// New creates an empty game answered by driver.
func New(driver Driver, opts ...Option) *Game {
	g := &Game{
		driver: driver,
		logger: log.Logger,
		rng:    rand.New(rand.NewSource(time.Now().UnixNano())),
		byName: make(map[string]*Participant),
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = g.logger.With().Str("game", g.id).Logger()
	return g
}

// Day is the number of the current or last day, zero before the first dawn.
func (g *Game) Day() int { return g.day }

// Started reports whether Run has begun.
func (g *Game) Started() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.started
}

// AddParticipant admits a named player before play starts.
func (g *Game) AddParticipant(name string) (*Participant, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.started {
		return nil, ErrGameStarted
	}
	if _, ok := g.byName[name]; ok {
		return nil, fmt.Errorf("%w: %q", ErrNameCollision, name)
	}
	p := &Participant{name: name, seat: len(g.participants), alive: true}
	g.participants = append(g.participants, p)
	g.byName[name] = p
	g.logger.Debug().Str("participant", name).Msg("participant joined")
	return p, nil
}

// Participant looks up a participant by name.
func (g *Game) Participant(name string) (*Participant, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.byName[name]
	return p, ok
}

// Participants returns every participant in seat order.
func (g *Game) Participants() []*Participant {
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.participants)
}

// Alive returns the living participants in seat order.
func (g *Game) Alive() []*Participant {
	var out []*Participant
	for _, p := range g.participants {
		if p.alive {
			out = append(out, p)
		}
	}
	return out
}

// AssignRole gives p a fresh role of the given kind.
func (g *Game) AssignRole(p *Participant, kind RoleKind) error {
	spec, err := LookupRole(kind)
	if err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.started {
		return ErrGameStarted
	}
	if g.byName[p.name] != p {
		return fmt.Errorf("%w: %s is not seated in this game", ErrValidationFailed, p.name)
	}
	p.role = spec.New(spec, p)
	return nil
}

// Deal shuffles one role kind per participant and assigns them.
func (g *Game) Deal(kinds []RoleKind) error {
	specs := make([]*RoleSpec, 0, len(kinds))
	for _, kind := range kinds {
		spec, err := LookupRole(kind)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrValidationFailed, err)
		}
		specs = append(specs, spec)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.started {
		return ErrGameStarted
	}
	if len(specs) != len(g.participants) {
		return fmt.Errorf("%w: %d cards for %d participants", ErrValidationFailed, len(specs), len(g.participants))
	}
	g.rng.Shuffle(len(specs), func(i, j int) { specs[i], specs[j] = specs[j], specs[i] })
	for i, p := range g.participants {
		p.role = specs[i].New(specs[i], p)
	}
	return nil
}

// Validate checks that the configured game can be played.
func (g *Game) Validate() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.validateLocked()
}

func (g *Game) validateLocked() error {
	if len(g.participants) == 0 {
		return fmt.Errorf("%w: no participants", ErrValidationFailed)
	}
	roles := make([]Role, 0, len(g.participants))
	for _, p := range g.participants {
		if p.role == nil {
			return fmt.Errorf("%w: %s has no role", ErrValidationFailed, p.name)
		}
		if spec := p.role.Spec(); len(g.participants) < spec.MinParticipants {
			return fmt.Errorf("%w: %s needs at least %d participants", ErrValidationFailed, spec.Title, spec.MinParticipants)
		}
		roles = append(roles, p.role)
	}
	for _, s := range subgroups {
		if err := s.Validate(g); err != nil {
			return err
		}
	}
	if _, err := Waves(roles); err != nil {
		return err
	}
	return nil
}

// Run validates the game and plays it until an outcome is reached.
// Play starts at most once; later calls fail with ErrGameStarted.
func (g *Game) Run(ctx context.Context) (Outcome, error) {
	g.mu.Lock()
	if g.started {
		g.mu.Unlock()
		return Outcome{}, ErrGameStarted
	}
	if err := g.validateLocked(); err != nil {
		g.mu.Unlock()
		return Outcome{}, err
	}
	g.started = true
	g.mu.Unlock()

	g.logger.Info().Int("participants", len(g.participants)).Msg("game started")
	err := g.play(ctx)
	var end *gameEnd
	if errors.As(err, &end) {
		g.logger.Info().Bool("all_dead", end.outcome.AllDead).Str("winner", string(end.outcome.Subgroup)).
			Strs("winners", names(end.outcome.Winners)).Int("day", g.day).Msg("game ended")
		return end.outcome, nil
	}
	return Outcome{}, err
}

// Announce delivers an informational request.
func (g *Game) Announce(ctx context.Context, req Request) error {
	_, err := g.driver.Handle(ctx, req)
	return err
}

// Ask delivers a request and returns its checked reply.
func (g *Game) Ask(ctx context.Context, req Request) (Reply, error) {
	if err := ctx.Err(); err != nil {
		return Reply{}, err
	}
	reply, err := g.driver.Handle(ctx, req)
	if err != nil {
		return Reply{}, err
	}
	if err := req.Check(reply); err != nil {
		return Reply{}, err
	}
	return reply, nil
}

// Select asks for a selection request and returns the chosen participants.
func (g *Game) Select(ctx context.Context, req Request) ([]*Participant, error) {
	reply, err := g.Ask(ctx, req)
	if err != nil {
		return nil, err
	}
	return reply.Selected, nil
}

// SelectOne asks to to pick one of the candidates.
func (g *Game) SelectOne(ctx context.Context, to *Participant, prompt string, candidates []*Participant) (*Participant, error) {
	selected, err := g.Select(ctx, Select1(to, prompt, candidates))
	if err != nil {
		return nil, err
	}
	return selected[0], nil
}

// Confirm asks to a yes/no question.
func (g *Game) Confirm(ctx context.Context, to *Participant, prompt string, players ...*Participant) (bool, error) {
	reply, err := g.Ask(ctx, YesNo(to, prompt, players...))
	if err != nil {
		return false, err
	}
	return reply.Yes, nil
}

// Hitlist returns a copy of tonight's pending deaths.
func (g *Game) Hitlist() []*Participant {
	return slices.Clone(g.hitlist)
}

// OnHitlist reports whether p is marked to die at dawn.
func (g *Game) OnHitlist(p *Participant) bool {
	return slices.Contains(g.hitlist, p)
}

// AddToHitlist marks a living participant to die at dawn.
func (g *Game) AddToHitlist(p *Participant) error {
	if !g.night {
		return ErrNoNight
	}
	if !p.alive {
		return fmt.Errorf("hitlist %s: %w", p.name, ErrAlreadyDead)
	}
	if !g.OnHitlist(p) {
		g.hitlist = append(g.hitlist, p)
	}
	return nil
}

// RemoveFromHitlist spares p tonight.
func (g *Game) RemoveFromHitlist(p *Participant) error {
	if !g.night {
		return ErrNoNight
	}
	g.hitlist = slices.DeleteFunc(g.hitlist, func(q *Participant) bool { return q == p })
	return nil
}

// Kill runs the death protocol for p and reports whether p died. A
// protector role may absorb the attempt. Killing a dead participant fails
// with ErrAlreadyDead.
func (g *Game) Kill(ctx context.Context, p *Participant) (bool, error) {
	if !p.alive {
		return false, fmt.Errorf("kill %s: %w", p.name, ErrAlreadyDead)
	}
	if prot, ok := p.role.(Protector); ok && prot.AbsorbKill() {
		g.logger.Debug().Str("participant", p.name).Msg("kill absorbed")
		return false, nil
	}
	p.alive = false
	g.hitlist = slices.DeleteFunc(g.hitlist, func(q *Participant) bool { return q == p })
	g.logger.Info().Str("participant", p.name).Str("role", p.RoleTitle()).Int("day", g.day).Msg("participant died")

	if err := g.Announce(ctx, Info("This player died:", p)); err != nil {
		return true, err
	}
	if err := g.Announce(ctx, Request{Kind: KindInfo, Prompt: fmt.Sprintf("The role was %s.", p.RoleTitle()), Fast: true}); err != nil {
		return true, err
	}
	for _, trigger := range p.triggers {
		if err := trigger(ctx, g); err != nil {
			return true, err
		}
	}
	if h, ok := p.role.(DeathHandler); ok {
		if err := h.AfterDeath(ctx, g); err != nil {
			return true, err
		}
	}
	return true, g.Announce(ctx, Tell(p, "You have died."))
}
