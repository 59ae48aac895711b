package engine

import "context"

// DeathTrigger runs on the driving goroutine when its owner dies.
type DeathTrigger func(ctx context.Context, g *Game) error

// Participant is a player's seat in one game.
type Participant struct {
	name     string
	seat     int
	role     Role
	alive    bool
	inLove   bool
	triggers []DeathTrigger
}

func (p *Participant) Name() string { return p.name }
func (p *Participant) Seat() int    { return p.seat }
func (p *Participant) Role() Role   { return p.role }
func (p *Participant) Alive() bool  { return p.alive }
func (p *Participant) InLove() bool { return p.inLove }

// FallInLove marks the participant as a member of the loving couple.
func (p *Participant) FallInLove() { p.inLove = true }

// OnDeath registers a trigger fired, in registration order, when p dies.
func (p *Participant) OnDeath(t DeathTrigger) {
	p.triggers = append(p.triggers, t)
}

// RoleTitle returns the title of the assigned role, or an empty string.
func (p *Participant) RoleTitle() string {
	if p.role == nil {
		return ""
	}
	return p.role.Spec().Title
}

func names(ps []*Participant) []string {
	out := make([]string, 0, len(ps))
	for _, p := range ps {
		out = append(out, p.name)
	}
	return out
}
