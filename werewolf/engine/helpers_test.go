package engine

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

// scripted records every request and answers the ones expecting a reply
// through answer.
type scripted struct {
	mu     sync.Mutex
	log    []Request
	answer func(req Request) Reply
}

func (s *scripted) Handle(ctx context.Context, req Request) (Reply, error) {
	if err := ctx.Err(); err != nil {
		return Reply{}, err
	}
	s.mu.Lock()
	s.log = append(s.log, req)
	s.mu.Unlock()
	if !req.ExpectsReply() || s.answer == nil {
		return Reply{}, nil
	}
	return s.answer(req), nil
}

func (s *scripted) prompts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.log))
	for _, req := range s.log {
		out = append(out, req.Prompt)
	}
	return out
}

func (s *scripted) count(prompt string) int {
	n := 0
	for _, p := range s.prompts() {
		if p == prompt {
			n++
		}
	}
	return n
}

// seated builds a game with one participant per "name:kind" entry.
func seated(t *testing.T, d Driver, seats ...string) (*Game, map[string]*Participant) {
	t.Helper()
	g := New(d, WithID("test"), WithSeed(1))
	byName := make(map[string]*Participant, len(seats))
	for _, seat := range seats {
		name, kind, ok := strings.Cut(seat, ":")
		require.True(t, ok, seat)
		p, err := g.AddParticipant(name)
		require.NoError(t, err)
		require.NoError(t, g.AssignRole(p, RoleKind(kind)))
		byName[name] = p
	}
	return g, byName
}

func pick(ps ...*Participant) Reply {
	return Reply{Selected: ps}
}
