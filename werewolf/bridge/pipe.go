package bridge

import "context"

// Prompt is the wire form of an engine request for one receiver.
type Prompt struct {
	ID         uint64            `json:"id"`
	Ask        string            `json:"ask"`
	To         string            `json:"to,omitempty"`
	Prompt     string            `json:"prompt"`
	N          int               `json:"n,omitempty"`
	Candidates []string          `json:"candidates,omitempty"`
	Players    []string          `json:"players,omitempty"`
	Vote       map[string]string `json:"vote,omitempty"`
	Error      string            `json:"error,omitempty"`
	Fast       bool              `json:"fast,omitempty"`
}

// ExpectsAnswer reports whether the receiver must answer the prompt.
func (p Prompt) ExpectsAnswer() bool {
	return p.Ask != AskInfo
}

// Answer is a receiver's raw reply to a prompt, matched by ID.
type Answer struct {
	ID       uint64   `json:"id"`
	Selected []string `json:"selected,omitempty"`
	Yes      bool     `json:"yes,omitempty"`
}

// Pipe is one participant's duplex channel pair: prompts flow out to the
// transport, answers flow back in.
type Pipe struct {
	prompts chan Prompt
	answers chan Answer
}

// NewPipe creates a pipe buffering up to size values in each direction.
func NewPipe(size int) *Pipe {
	return &Pipe{
		prompts: make(chan Prompt, size),
		answers: make(chan Answer, size),
	}
}

// Prompts is read by the transport serving this participant.
func (p *Pipe) Prompts() <-chan Prompt {
	return p.prompts
}

// Offer hands an answer to the engine without blocking. It reports false
// when the answer buffer is full.
func (p *Pipe) Offer(a Answer) bool {
	select {
	case p.answers <- a:
		return true
	default:
		return false
	}
}

// Reply hands an answer to the engine, blocking until there is room.
func (p *Pipe) Reply(ctx context.Context, a Answer) error {
	select {
	case p.answers <- a:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Pipe) send(ctx context.Context, pr Prompt) error {
	select {
	case p.prompts <- pr:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// await returns the next answer carrying id, dropping stale ones.
func (p *Pipe) await(ctx context.Context, id uint64) (Answer, error) {
	for {
		select {
		case a := <-p.answers:
			if a.ID == id {
				return a, nil
			}
		case <-ctx.Done():
			return Answer{}, ctx.Err()
		}
	}
}
