package bridge

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/werewolf/werewolf/engine"
)

type handled struct {
	reply engine.Reply
	err   error
}

func recv(t *testing.T, p *Pipe) Prompt {
	t.Helper()
	select {
	case pr := <-p.Prompts():
		return pr
	case <-time.After(2 * time.Second):
		t.Fatal("no prompt delivered")
		return Prompt{}
	}
}

func wait(t *testing.T, done <-chan handled) handled {
	t.Helper()
	select {
	case h := <-done:
		return h
	case <-time.After(2 * time.Second):
		t.Fatal("handle did not return")
		return handled{}
	}
}

func players(t *testing.T, names ...string) []*engine.Participant {
	t.Helper()
	g := engine.New(nil)
	out := make([]*engine.Participant, 0, len(names))
	for _, name := range names {
		p, err := g.AddParticipant(name)
		require.NoError(t, err)
		out = append(out, p)
	}
	return out
}

func handle(ctx context.Context, b *Bridge, req engine.Request) <-chan handled {
	done := make(chan handled, 1)
	go func() {
		reply, err := b.Handle(ctx, req)
		done <- handled{reply, err}
	}()
	return done
}

func TestInfoRouting(t *testing.T) {
	b := New()
	ps := players(t, "alice", "bob")
	ctx := context.Background()

	_, err := b.Handle(ctx, engine.Info("The night begins!", ps[1]))
	require.NoError(t, err)
	pr := recv(t, b.Public())
	assert.Equal(t, AskInfo, pr.Ask)
	assert.Empty(t, pr.To)
	assert.Equal(t, []string{"bob"}, pr.Players)
	assert.False(t, pr.ExpectsAnswer())

	_, err = b.Handle(ctx, engine.Tell(ps[0], "You have died."))
	require.NoError(t, err)
	pr = recv(t, b.Seat("alice"))
	assert.Equal(t, "alice", pr.To)
	assert.Equal(t, "You have died.", pr.Prompt)
}

func TestVoteDisplay(t *testing.T) {
	b := New()
	ps := players(t, "alice", "bob")
	vote := map[*engine.Participant]*engine.Participant{ps[0]: ps[1], ps[1]: ps[1]}

	_, err := b.Handle(context.Background(), engine.Request{Kind: engine.KindInfo, Prompt: "And the vote cast was:", Vote: vote})
	require.NoError(t, err)
	pr := recv(t, b.Public())
	assert.Equal(t, map[string]string{"alice": "bob", "bob": "bob"}, pr.Vote)
}

func TestSelectRetriesMalformedReply(t *testing.T) {
	b := New()
	ps := players(t, "alice", "bob", "carol")
	ctx := context.Background()
	done := handle(ctx, b, engine.Select1(ps[0], "Who?", ps[1:]))
	pipe := b.Seat("alice")

	first := recv(t, pipe)
	assert.Equal(t, AskSelect, first.Ask)
	assert.Equal(t, 1, first.N)
	assert.Equal(t, []string{"bob", "carol"}, first.Candidates)
	assert.True(t, first.ExpectsAnswer())

	require.NoError(t, pipe.Reply(ctx, Answer{ID: first.ID, Selected: []string{"bob", "carol"}}))
	notice := recv(t, pipe)
	assert.Equal(t, AskInfo, notice.Ask)
	assert.Equal(t, "Please select the correct amount of players.", notice.Prompt)
	assert.Contains(t, notice.Error, engine.ErrMalformedReply.Error())

	second := recv(t, pipe)
	require.NoError(t, pipe.Reply(ctx, Answer{ID: second.ID, Selected: []string{"mallory"}}))
	notice = recv(t, pipe)
	assert.Contains(t, notice.Error, "mallory")

	third := recv(t, pipe)
	assert.NotEqual(t, second.ID, third.ID)
	// answers to an earlier prompt are dropped
	require.NoError(t, pipe.Reply(ctx, Answer{ID: first.ID, Selected: []string{"bob"}}))
	require.NoError(t, pipe.Reply(ctx, Answer{ID: third.ID, Selected: []string{"carol"}}))

	h := wait(t, done)
	require.NoError(t, h.err)
	assert.Equal(t, []*engine.Participant{ps[2]}, h.reply.Selected)
}

func TestYesNo(t *testing.T) {
	b := New()
	ps := players(t, "alice")
	ctx := context.Background()
	done := handle(ctx, b, engine.YesNo(ps[0], "Heal?"))

	pr := recv(t, b.Seat("alice"))
	assert.Equal(t, AskYesNo, pr.Ask)
	require.NoError(t, b.Seat("alice").Reply(ctx, Answer{ID: pr.ID, Yes: true}))

	h := wait(t, done)
	require.NoError(t, h.err)
	assert.True(t, h.reply.Yes)
}

func TestEverybodySelectCollectsAll(t *testing.T) {
	b := New()
	ps := players(t, "alice", "bob", "carol")
	ctx := context.Background()
	done := handle(ctx, b, engine.EverybodySelect1("Who should the village kill?", ps, ps))

	choices := map[string]string{"alice": "bob", "bob": "carol", "carol": "bob"}
	// answer in reverse seat order; the poll waits for all of them
	for _, name := range []string{"carol", "bob", "alice"} {
		pipe := b.Seat(name)
		pr := recv(t, pipe)
		assert.Equal(t, AskEverybodySelect, pr.Ask)
		assert.Equal(t, name, pr.To)
		require.NoError(t, pipe.Reply(ctx, Answer{ID: pr.ID, Selected: []string{choices[name]}}))
	}

	h := wait(t, done)
	require.NoError(t, h.err)
	assert.Equal(t, map[*engine.Participant]*engine.Participant{
		ps[0]: ps[1],
		ps[1]: ps[2],
		ps[2]: ps[1],
	}, h.reply.Votes)
}

func TestHandleCanceled(t *testing.T) {
	b := New()
	ps := players(t, "alice", "bob")
	ctx, cancel := context.WithCancel(context.Background())
	done := handle(ctx, b, engine.EverybodySelect1("Vote", ps, ps))

	recv(t, b.Seat("alice"))
	recv(t, b.Seat("bob"))
	cancel()

	h := wait(t, done)
	require.ErrorIs(t, h.err, context.Canceled)
}

func TestPipeOffer(t *testing.T) {
	p := NewPipe(1)
	assert.True(t, p.Offer(Answer{ID: 1}))
	assert.False(t, p.Offer(Answer{ID: 2}))
}

func TestRunOverBridge(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	b := New(WithBufferSize(4))
	g := engine.New(b, engine.WithSeed(3))
	for _, name := range []string{"wolf", "sheep"} {
		_, err := g.AddParticipant(name)
		require.NoError(t, err)
	}
	wolf, _ := g.Participant("wolf")
	sheep, _ := g.Participant("sheep")
	require.NoError(t, g.AssignRole(wolf, engine.RoleWerewolf))
	require.NoError(t, g.AssignRole(sheep, engine.RoleCitizen))

	go func() {
		for {
			select {
			case <-b.Public().Prompts():
			case <-ctx.Done():
				return
			}
		}
	}()
	for _, name := range []string{"wolf", "sheep"} {
		pipe := b.Seat(name)
		go func() {
			for {
				select {
				case pr := <-pipe.Prompts():
					if pr.ExpectsAnswer() {
						_ = pipe.Reply(ctx, Answer{ID: pr.ID, Selected: []string{"sheep"}})
					}
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	outcome, err := g.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, engine.SubgroupWerewolves, outcome.Subgroup)
	assert.Equal(t, []*engine.Participant{wolf}, outcome.Winners)
}
