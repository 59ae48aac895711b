package engine

import (
	"fmt"
	"slices"
)

// SubgroupID names a team used for win conditions.
type SubgroupID string

const (
	SubgroupCitizens   SubgroupID = "citizens"
	SubgroupWerewolves SubgroupID = "werewolves"
	SubgroupLovers     SubgroupID = "lovers"
	SubgroupLynchee    SubgroupID = "lynchee"
)

// Subgroup is a membership predicate over participants. Without a Member
// predicate membership is structural, read from the role's spec.
type Subgroup struct {
	ID    SubgroupID
	Title string
	// Singleton subgroups have at most one member and win once it is dead.
	Singleton bool
	Member    func(p *Participant) bool
}

var subgroups = []Subgroup{
	{ID: SubgroupCitizens, Title: "The team of citizens"},
	{ID: SubgroupWerewolves, Title: "The team of werewolves"},
	{ID: SubgroupLovers, Title: "The loving couple", Member: (*Participant).InLove},
	{ID: SubgroupLynchee, Title: "The lynchee", Singleton: true},
}

// Subgroups returns every subgroup in win-check order.
func Subgroups() []Subgroup {
	return slices.Clone(subgroups)
}

// LookupSubgroup finds a subgroup by id.
func LookupSubgroup(id SubgroupID) (Subgroup, bool) {
	for _, s := range subgroups {
		if s.ID == id {
			return s, true
		}
	}
	return Subgroup{}, false
}

// Contains reports whether p belongs to the subgroup.
func (s Subgroup) Contains(p *Participant) bool {
	if s.Member != nil {
		return s.Member(p)
	}
	if p.role == nil {
		return false
	}
	return slices.Contains(p.role.Spec().Subgroups, s.ID)
}

// Members lists every participant of the subgroup, dead or alive.
func (s Subgroup) Members(g *Game) []*Participant {
	var out []*Participant
	for _, p := range g.participants {
		if s.Contains(p) {
			out = append(out, p)
		}
	}
	return out
}

// HasWon reports whether every living participant belongs to the subgroup,
// or for a singleton, whether its member is dead.
func (s Subgroup) HasWon(g *Game) bool {
	if s.Singleton {
		members := s.Members(g)
		return len(members) == 1 && !members[0].Alive()
	}
	for _, p := range g.Alive() {
		if !s.Contains(p) {
			return false
		}
	}
	return true
}

// Winners materializes the winning participants.
func (s Subgroup) Winners(g *Game) []*Participant {
	if s.Singleton {
		return s.Members(g)
	}
	var out []*Participant
	for _, p := range g.Alive() {
		if s.Contains(p) {
			out = append(out, p)
		}
	}
	return out
}

// Validate checks the subgroup constraints before play starts.
func (s Subgroup) Validate(g *Game) error {
	if s.Singleton {
		if n := len(s.Members(g)); n > 1 {
			return fmt.Errorf("%w: too many cards of singleton type %s (%d)", ErrValidationFailed, s.Title, n)
		}
	}
	return nil
}

// Outcome is how a game ended.
type Outcome struct {
	AllDead  bool
	Subgroup SubgroupID
	Title    string
	Winners  []*Participant
}

// Winner evaluates the win conditions. The second result is false while
// the game goes on.
func (g *Game) Winner() (Outcome, bool) {
	if len(g.Alive()) == 0 {
		return Outcome{AllDead: true}, true
	}
	for _, s := range subgroups {
		if s.HasWon(g) {
			return Outcome{Subgroup: s.ID, Title: s.Title, Winners: s.Winners(g)}, true
		}
	}
	return Outcome{}, false
}
