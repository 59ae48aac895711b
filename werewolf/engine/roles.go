package engine

import (
	"context"
	"fmt"
)

type citizen struct{ card }

type lynchee struct{ card }

type werewolf struct {
	card
	target *Participant
}

func (w *werewolf) Night(ctx context.Context, g *Game) (bool, error) {
	w.target = nil
	target, err := g.SelectOne(ctx, w.owner, "Who do you want to kill, werewolf? The majority vote will win.", g.Alive())
	if err != nil {
		return false, err
	}
	w.target = target
	return true, nil
}

// Reduce tallies the pack's choices. The quorum is half of the living
// village, not half of the pack.
func (w *werewolf) Reduce(ctx context.Context, g *Game, pack []Role) error {
	poll := make(map[Role]*Participant, len(pack))
	for _, r := range pack {
		if wolf, ok := r.(*werewolf); ok && wolf.target != nil {
			poll[r] = wolf.target
		}
	}
	victim, ok := Tally(len(g.Alive()), poll)
	for _, r := range pack {
		msg := Tell(r.Owner(), "You werewolves could not agree on a victim.")
		if ok {
			msg = Tell(r.Owner(), "You werewolves chose to kill this player:", victim)
		}
		if err := g.Announce(ctx, msg); err != nil {
			return err
		}
	}
	if !ok {
		return nil
	}
	return g.AddToHitlist(victim)
}

type witch struct {
	card
	healing bool
	killing bool
}

func (w *witch) Night(ctx context.Context, g *Game) (bool, error) {
	if hitlist := g.Hitlist(); w.healing && len(hitlist) > 0 {
		heal, err := g.Confirm(ctx, w.owner, "Do you want to use your healing potion?", hitlist...)
		if err != nil {
			return false, err
		}
		if heal {
			saved := hitlist[0]
			if len(hitlist) > 1 {
				if saved, err = g.SelectOne(ctx, w.owner, "Who do you want to heal?", hitlist); err != nil {
					return false, err
				}
			}
			if err := g.RemoveFromHitlist(saved); err != nil {
				return false, err
			}
			w.healing = false
		}
	}
	if w.killing {
		poison, err := g.Confirm(ctx, w.owner, "Do you want to use your killing potion?")
		if err != nil {
			return false, err
		}
		if poison {
			victim, err := g.SelectOne(ctx, w.owner, "Who do you want to kill?", g.Alive())
			if err != nil {
				return false, err
			}
			if err := g.AddToHitlist(victim); err != nil {
				return false, err
			}
			w.killing = false
		}
	}
	return false, nil
}

type hunter struct{ card }

func (h *hunter) AfterDeath(ctx context.Context, g *Game) error {
	alive := g.Alive()
	if len(alive) == 0 {
		return nil
	}
	if err := g.Announce(ctx, Info("And the hunter produced a shot ...")); err != nil {
		return err
	}
	target, err := g.SelectOne(ctx, h.owner, "Who do you want to shoot?", alive)
	if err != nil {
		return err
	}
	_, err = g.Kill(ctx, target)
	return err
}

type cupid struct{ card }

func (c *cupid) Prepare(ctx context.Context, g *Game) error {
	couple, err := g.Select(ctx, SelectN(c.owner, 2, "Who should fall in love?", g.Alive()))
	if err != nil {
		return err
	}
	pairs := [][2]*Participant{{couple[0], couple[1]}, {couple[1], couple[0]}}
	for _, pair := range pairs {
		lover, partner := pair[0], pair[1]
		lover.FallInLove()
		lover.OnDeath(func(ctx context.Context, g *Game) error {
			if !partner.Alive() {
				return nil
			}
			if err := g.Announce(ctx, Info("Thus with a kiss you die!")); err != nil {
				return err
			}
			_, err := g.Kill(ctx, partner)
			return err
		})
		if err := g.Announce(ctx, Tell(lover, "You fell in love with this player. Be sure to survive both!", partner)); err != nil {
			return err
		}
	}
	return nil
}

type seer struct{ card }

func (s *seer) Night(ctx context.Context, g *Game) (bool, error) {
	target, err := g.SelectOne(ctx, s.owner, "Whose role do you want to inquire?", g.Alive())
	if err != nil {
		return false, err
	}
	msg := fmt.Sprintf("This player has the role '%s'.", target.RoleTitle())
	return false, g.Announce(ctx, Tell(s.owner, msg, target))
}

type prince struct {
	card
	attempted bool
}

func (p *prince) AbsorbKill() bool {
	if p.attempted {
		return false
	}
	p.attempted = true
	return true
}
