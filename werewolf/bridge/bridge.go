// Package bridge maps the engine's blocking decision points onto
// independent per-participant pipes. A request addressed to one
// participant blocks until that participant's pipe yields a valid answer;
// a village-wide poll is delivered to every voter concurrently and waits
// for all of them. No timeout is imposed here.
package bridge

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/gosuda/werewolf/werewolf/engine"
)

const (
	AskInfo            = string(engine.KindInfo)
	AskYesNo           = string(engine.KindYesNo)
	AskSelect          = string(engine.KindSelect)
	AskEverybodySelect = string(engine.KindEverybodySelect)

	defaultBufferSize = 16
)

// Bridge implements engine.Driver over pipes.
type Bridge struct {
	logger zerolog.Logger
	size   int
	nextID atomic.Uint64

	public *Pipe

	mu    sync.Mutex
	seats map[string]*Pipe
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger overrides the global zerolog logger.
func WithLogger(l zerolog.Logger) Option {
	return func(b *Bridge) { b.logger = l }
}

// WithBufferSize sets the buffer of every pipe created by the bridge.
func WithBufferSize(n int) Option {
	return func(b *Bridge) {
		if n > 0 {
			b.size = n
		}
	}
}

// New creates a bridge with an empty seat table.
func New(opts ...Option) *Bridge {
	b := &Bridge{
		logger: log.Logger,
		size:   defaultBufferSize,
		seats:  make(map[string]*Pipe),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.public = NewPipe(b.size)
	return b
}

// Public is the pipe of the shared game-master screen. It receives every
// announcement without an addressee and is never asked for answers.
func (b *Bridge) Public() *Pipe {
	return b.public
}

// Seat returns the pipe of the named participant, creating it on first use.
func (b *Bridge) Seat(name string) *Pipe {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.seats[name]
	if !ok {
		p = NewPipe(b.size)
		b.seats[name] = p
	}
	return p
}

// Handle delivers req and waits for the reply it requires.
func (b *Bridge) Handle(ctx context.Context, req engine.Request) (engine.Reply, error) {
	switch req.Kind {
	case engine.KindInfo:
		pr := b.prompt(req)
		if req.To == nil {
			return engine.Reply{}, b.public.send(ctx, pr)
		}
		return engine.Reply{}, b.Seat(req.To.Name()).send(ctx, pr)
	case engine.KindYesNo:
		pipe := b.Seat(req.To.Name())
		pr := b.prompt(req)
		if err := pipe.send(ctx, pr); err != nil {
			return engine.Reply{}, err
		}
		a, err := pipe.await(ctx, pr.ID)
		if err != nil {
			return engine.Reply{}, err
		}
		return engine.Reply{Yes: a.Yes}, nil
	case engine.KindSelect:
		selected, err := b.collect(ctx, req, req.To)
		if err != nil {
			return engine.Reply{}, err
		}
		return engine.Reply{Selected: selected}, nil
	case engine.KindEverybodySelect:
		return b.poll(ctx, req)
	}
	return engine.Reply{}, fmt.Errorf("bridge: unsupported request kind %q", req.Kind)
}

// collect prompts one participant until the selection fits the request.
// Rejected answers are reported back on the same pipe before asking again.
func (b *Bridge) collect(ctx context.Context, req engine.Request, to *engine.Participant) ([]*engine.Participant, error) {
	pipe := b.Seat(to.Name())
	for {
		pr := b.prompt(req)
		pr.To = to.Name()
		if err := pipe.send(ctx, pr); err != nil {
			return nil, err
		}
		a, err := pipe.await(ctx, pr.ID)
		if err != nil {
			return nil, err
		}
		selected, err := resolve(req, a.Selected)
		if err == nil {
			err = req.CheckSelection(selected)
		}
		if err == nil {
			return selected, nil
		}
		b.logger.Debug().Err(err).Str("participant", to.Name()).Strs("selected", a.Selected).Msg("rejected reply")
		notice := Prompt{
			ID:     b.nextID.Add(1),
			Ask:    AskInfo,
			To:     to.Name(),
			Prompt: "Please select the correct amount of players.",
			Error:  err.Error(),
		}
		if err := pipe.send(ctx, notice); err != nil {
			return nil, err
		}
	}
}

// poll fans a village-wide request out to every voter and combines the
// answers once all of them arrived.
func (b *Bridge) poll(ctx context.Context, req engine.Request) (engine.Reply, error) {
	targets := make([]*engine.Participant, len(req.Voters))
	eg, ctx := errgroup.WithContext(ctx)
	for i, voter := range req.Voters {
		eg.Go(func() error {
			selected, err := b.collect(ctx, req, voter)
			if err != nil {
				return err
			}
			targets[i] = selected[0]
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return engine.Reply{}, err
	}
	votes := make(map[*engine.Participant]*engine.Participant, len(req.Voters))
	for i, voter := range req.Voters {
		votes[voter] = targets[i]
	}
	return engine.Reply{Votes: votes}, nil
}

func (b *Bridge) prompt(req engine.Request) Prompt {
	pr := Prompt{
		ID:         b.nextID.Add(1),
		Ask:        string(req.Kind),
		Prompt:     req.Prompt,
		N:          req.N,
		Candidates: participantNames(req.Candidates),
		Players:    participantNames(req.Players),
		Fast:       req.Fast,
	}
	if req.To != nil {
		pr.To = req.To.Name()
	}
	if len(req.Vote) > 0 {
		pr.Vote = make(map[string]string, len(req.Vote))
		for voter, target := range req.Vote {
			pr.Vote[voter.Name()] = target.Name()
		}
	}
	return pr
}

func resolve(req engine.Request, selected []string) ([]*engine.Participant, error) {
	out := make([]*engine.Participant, 0, len(selected))
	for _, name := range selected {
		p, ok := req.Candidate(name)
		if !ok {
			return nil, fmt.Errorf("%w: unknown player %q", engine.ErrMalformedReply, name)
		}
		out = append(out, p)
	}
	return out, nil
}

func participantNames(ps []*engine.Participant) []string {
	if len(ps) == 0 {
		return nil
	}
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.Name())
	}
	return out
}
