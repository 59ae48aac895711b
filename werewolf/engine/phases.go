package engine

import (
	"context"
	"fmt"
)

// eyesKey groups the roles that open their eyes together.
type eyesKey struct {
	role     Role
	subgroup SubgroupID
	setup    bool
}

func (k eyesKey) title() string {
	if k.role != nil {
		return k.role.Spec().Title
	}
	if s, ok := LookupSubgroup(k.subgroup); ok {
		return s.Title
	}
	return string(k.subgroup)
}

func (g *Game) play(ctx context.Context) error {
	for _, p := range g.participants {
		if err := g.Announce(ctx, Tell(p, fmt.Sprintf("Your role is %s.", p.RoleTitle()))); err != nil {
			return err
		}
	}
	if err := g.Announce(ctx, Request{Kind: KindInfo, Prompt: "Welcome to Werewolves!", Fast: true}); err != nil {
		return err
	}
	for night := 0; ; night++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := g.playNight(ctx, night == 0); err != nil {
			return err
		}
		g.day++
		if err := g.playDay(ctx); err != nil {
			return err
		}
	}
}

func (g *Game) aliveRoles() []Role {
	var roles []Role
	for _, p := range g.Alive() {
		roles = append(roles, p.role)
	}
	return roles
}

func (g *Game) playNight(ctx context.Context, first bool) error {
	g.hitlist = []*Participant{}
	g.night = true
	g.logger.Debug().Int("night", g.day+1).Msg("night begins")
	if err := g.Announce(ctx, Info("The night begins! Everybody closes their eyes.")); err != nil {
		return err
	}
	waves, err := Waves(g.aliveRoles())
	if err != nil {
		return err
	}
	for _, wave := range waves {
		if err := g.playWave(ctx, wave, first); err != nil {
			return err
		}
	}
	return g.Announce(ctx, Info("Everybody opens their eyes again."))
}

func (g *Game) playWave(ctx context.Context, wave []Role, first bool) error {
	var keys []eyesKey
	groups := make(map[eyesKey][]Role)
	add := func(k eyesKey, r Role) {
		if _, ok := groups[k]; !ok {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], r)
	}
	for _, r := range wave {
		if _, ok := r.(Preparer); ok && first {
			add(eyesKey{role: r, setup: true}, r)
		}
		switch r.Spec().EyesOpen {
		case GroupIndividual:
			add(eyesKey{role: r}, r)
		case GroupSubgroup:
			add(eyesKey{subgroup: primarySubgroup(r)}, r)
		}
	}

	acted := make(map[Role]bool)
	contributors := make(map[eyesKey][]Role)
	for _, k := range keys {
		if err := g.Announce(ctx, Info(fmt.Sprintf("%s opens their eyes.", k.title()))); err != nil {
			return err
		}
		for _, r := range groups[k] {
			if acted[r] || !r.Owner().Alive() {
				continue
			}
			acted[r] = true
			if prep, ok := r.(Preparer); ok && first {
				if err := prep.Prepare(ctx, g); err != nil {
					return err
				}
			}
			contributes, err := r.Night(ctx, g)
			if err != nil {
				return err
			}
			if contributes {
				contributors[k] = append(contributors[k], r)
			}
		}
		if err := g.Announce(ctx, Info(fmt.Sprintf("%s closes their eyes again.", k.title()))); err != nil {
			return err
		}
	}

	for _, k := range keys {
		pack := contributors[k]
		if len(pack) == 0 {
			continue
		}
		if red, ok := pack[0].(Reducer); ok {
			if err := red.Reduce(ctx, g, pack); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *Game) playDay(ctx context.Context) error {
	if err := g.Announce(ctx, Request{Kind: KindInfo, Prompt: fmt.Sprintf("Day %d begins!", g.day), Fast: true}); err != nil {
		return err
	}
	pending := g.hitlist
	g.hitlist, g.night = nil, false

	died := false
	for _, p := range pending {
		// a death trigger earlier in the list may already have taken p
		if !p.Alive() {
			continue
		}
		ok, err := g.Kill(ctx, p)
		if err != nil {
			return err
		}
		died = died || ok
	}
	if !died {
		if err := g.Announce(ctx, Info("Last night, nobody died.")); err != nil {
			return err
		}
	}
	if err := g.checkWin(ctx); err != nil {
		return err
	}

	for {
		if err := g.Announce(ctx, Info("Discuss, dear village.")); err != nil {
			return err
		}
		alive := g.Alive()
		reply, err := g.Ask(ctx, EverybodySelect1("Who should the village kill?", alive, alive))
		if err != nil {
			return err
		}
		if err := g.Announce(ctx, Request{Kind: KindInfo, Prompt: "And the vote cast was:", Vote: reply.Votes}); err != nil {
			return err
		}
		victim, ok := Tally(len(alive), reply.Votes)
		if !ok {
			if err := g.Announce(ctx, Info("No conclusive vote was cast.")); err != nil {
				return err
			}
			continue
		}
		died, err := g.Kill(ctx, victim)
		if err != nil {
			return err
		}
		if !died {
			if err := g.Announce(ctx, Info("The person did not die!")); err != nil {
				return err
			}
		}
		break
	}
	return g.checkWin(ctx)
}

func (g *Game) checkWin(ctx context.Context) error {
	outcome, decided := g.Winner()
	if !decided {
		return nil
	}
	if outcome.AllDead {
		if err := g.Announce(ctx, Info("The game has ended, all are dead.")); err != nil {
			return err
		}
		return &gameEnd{outcome: outcome}
	}
	msg := fmt.Sprintf("The game has ended. The winners are: %s.", outcome.Title)
	if err := g.Announce(ctx, Info(msg, outcome.Winners...)); err != nil {
		return err
	}
	for _, p := range outcome.Winners {
		if err := g.Announce(ctx, Tell(p, "You have won!")); err != nil {
			return err
		}
	}
	return &gameEnd{outcome: outcome}
}
