package engine

import (
	"context"
	"fmt"
)

// RequestKind tags the shape of a decision point.
type RequestKind string

const (
	KindInfo            RequestKind = "info"
	KindYesNo           RequestKind = "yes_no"
	KindSelect          RequestKind = "select"
	KindEverybodySelect RequestKind = "everybody_select"
)

// Request describes one decision point raised by the engine. Requests are
// built on the driving goroutine and never mutated afterwards, so drivers
// may hand them to other goroutines.
type Request struct {
	Kind RequestKind
	// To is the addressed participant. Nil means the whole village: the
	// game-master screen for info, every voter for everybody_select.
	To     *Participant
	Prompt string
	// N is the exact number of participants a select reply must name.
	N int
	// Candidates lists who may be selected.
	Candidates []*Participant
	// Voters lists who must answer an everybody_select request.
	Voters []*Participant
	// Players are the participants an info or yes/no request refers to.
	Players []*Participant
	// Vote carries a finished poll for display.
	Vote map[*Participant]*Participant
	Fast bool
}

// Reply is the typed answer to a Request.
type Reply struct {
	Selected []*Participant
	Yes      bool
	Votes    map[*Participant]*Participant
}

// Driver answers the requests of a running game. Handle blocks until the
// addressed participants have replied; info requests return immediately
// after delivery.
type Driver interface {
	Handle(ctx context.Context, req Request) (Reply, error)
}

// DriverFunc adapts a function to the Driver interface.
type DriverFunc func(ctx context.Context, req Request) (Reply, error)

func (f DriverFunc) Handle(ctx context.Context, req Request) (Reply, error) {
	return f(ctx, req)
}

// ExpectsReply reports whether the request suspends the engine until answered.
func (r Request) ExpectsReply() bool {
	return r.Kind != KindInfo
}

// Candidate returns the candidate with the given name.
func (r Request) Candidate(name string) (*Participant, bool) {
	for _, p := range r.Candidates {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

// CheckSelection validates one participant's selection against the request:
// exactly N distinct candidates for select, exactly one for everybody_select.
func (r Request) CheckSelection(selected []*Participant) error {
	want := r.N
	if r.Kind == KindEverybodySelect {
		want = 1
	}
	if len(selected) != want {
		return fmt.Errorf("%w: select exactly %d, got %d", ErrMalformedReply, want, len(selected))
	}
	seen := make(map[*Participant]struct{}, len(selected))
	for _, p := range selected {
		if p == nil {
			return fmt.Errorf("%w: empty selection", ErrMalformedReply)
		}
		if _, dup := seen[p]; dup {
			return fmt.Errorf("%w: %s selected twice", ErrMalformedReply, p.Name())
		}
		seen[p] = struct{}{}
		if _, ok := r.Candidate(p.Name()); !ok {
			return fmt.Errorf("%w: %s is not a candidate", ErrMalformedReply, p.Name())
		}
	}
	return nil
}

// Check validates a complete reply against the request shape.
func (r Request) Check(reply Reply) error {
	switch r.Kind {
	case KindSelect:
		return r.CheckSelection(reply.Selected)
	case KindEverybodySelect:
		if len(reply.Votes) != len(r.Voters) {
			return fmt.Errorf("%w: %d votes for %d voters", ErrMalformedReply, len(reply.Votes), len(r.Voters))
		}
		for _, voter := range r.Voters {
			target, ok := reply.Votes[voter]
			if !ok {
				return fmt.Errorf("%w: missing vote of %s", ErrMalformedReply, voter.Name())
			}
			if err := r.CheckSelection([]*Participant{target}); err != nil {
				return err
			}
		}
	}
	return nil
}

// Info builds a public announcement.
func Info(msg string, players ...*Participant) Request {
	return Request{Kind: KindInfo, Prompt: msg, Players: players}
}

// Tell builds an announcement for a single participant.
func Tell(to *Participant, msg string, players ...*Participant) Request {
	return Request{Kind: KindInfo, To: to, Prompt: msg, Players: players}
}

// YesNo asks one participant a yes/no question.
func YesNo(to *Participant, prompt string, players ...*Participant) Request {
	return Request{Kind: KindYesNo, To: to, Prompt: prompt, Players: players}
}

// SelectN asks one participant to pick exactly n of the candidates.
func SelectN(to *Participant, n int, prompt string, candidates []*Participant) Request {
	return Request{Kind: KindSelect, To: to, N: n, Prompt: prompt, Candidates: candidates}
}

// Select1 asks one participant to pick one of the candidates.
func Select1(to *Participant, prompt string, candidates []*Participant) Request {
	return SelectN(to, 1, prompt, candidates)
}

// EverybodySelect1 asks every voter to pick one of the candidates.
func EverybodySelect1(prompt string, voters, candidates []*Participant) Request {
	return Request{Kind: KindEverybodySelect, N: 1, Prompt: prompt, Voters: voters, Candidates: candidates}
}
