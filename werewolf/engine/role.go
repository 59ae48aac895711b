package engine

import (
	"context"
	"fmt"
)

// RoleKind identifies a role variant in the catalog.
type RoleKind string

const (
	RoleCitizen  RoleKind = "citizen"
	RoleWerewolf RoleKind = "werewolf"
	RoleWitch    RoleKind = "witch"
	RoleHunter   RoleKind = "hunter"
	RoleLynchee  RoleKind = "lynchee"
	RoleCupid    RoleKind = "cupid"
	RoleSeer     RoleKind = "seer"
	RolePrince   RoleKind = "prince"
)

// Tag is a capability other roles may declare to run after.
type Tag string

const (
	TagKillsAtNight Tag = "kills-at-night"
)

// Grouping selects the eyes-open key a role acts under at night.
type Grouping int

const (
	GroupNone Grouping = iota
	GroupIndividual
	GroupSubgroup
)

// RoleSpec is the class-level description of a role variant.
type RoleSpec struct {
	Kind        RoleKind
	Title       string
	Description string
	// Subgroups lists static team membership, most specific first.
	Subgroups []SubgroupID
	Tags      []Tag
	RunsAfter []Tag
	EyesOpen  Grouping
	// MinParticipants is the smallest table the card can be played at.
	MinParticipants int
	New             func(spec *RoleSpec, owner *Participant) Role
}

// Role is the behavior owned by one participant.
type Role interface {
	Spec() *RoleSpec
	Owner() *Participant
	// Night runs the nightly action. A true result means the role
	// contributes to the reduction of its eyes-open group.
	Night(ctx context.Context, g *Game) (bool, error)
}

// Preparer roles run a setup hook on the first night, before any role
// without one acts.
type Preparer interface {
	Prepare(ctx context.Context, g *Game) error
}

// Reducer combines the provisional choices of every contributing role
// sharing an eyes-open key into a single effect.
type Reducer interface {
	Reduce(ctx context.Context, g *Game, contributors []Role) error
}

// Protector roles may absorb a kill attempt. AbsorbKill is consulted
// before the death protocol and returns true when the attempt is absorbed.
type Protector interface {
	AbsorbKill() bool
}

// DeathHandler roles act after their owner died and its triggers fired.
type DeathHandler interface {
	AfterDeath(ctx context.Context, g *Game) error
}

// card carries what every role variant shares.
type card struct {
	spec  *RoleSpec
	owner *Participant
}

func (c *card) Spec() *RoleSpec     { return c.spec }
func (c *card) Owner() *Participant { return c.owner }

func (c *card) Night(context.Context, *Game) (bool, error) { return false, nil }

// primarySubgroup is the most specific static subgroup of r.
func primarySubgroup(r Role) SubgroupID {
	if subs := r.Spec().Subgroups; len(subs) > 0 {
		return subs[0]
	}
	return ""
}

var catalog = []*RoleSpec{
	{
		Kind:        RoleCitizen,
		Title:       "The citizen",
		Description: "Has no ability but a vote during the day.",
		Subgroups:   []SubgroupID{SubgroupCitizens},
		New:         func(s *RoleSpec, p *Participant) Role { return &citizen{card{s, p}} },
	},
	{
		Kind:        RoleWerewolf,
		Title:       "The werewolf",
		Description: "Chooses a victim together with the other werewolves every night.",
		Subgroups:   []SubgroupID{SubgroupWerewolves},
		Tags:        []Tag{TagKillsAtNight},
		EyesOpen:    GroupSubgroup,
		New:         func(s *RoleSpec, p *Participant) Role { return &werewolf{card: card{s, p}} },
	},
	{
		Kind:        RoleWitch,
		Title:       "The witch",
		Description: "Owns one healing and one killing potion.",
		Subgroups:   []SubgroupID{SubgroupCitizens},
		Tags:        []Tag{TagKillsAtNight},
		RunsAfter:   []Tag{TagKillsAtNight},
		EyesOpen:    GroupIndividual,
		New: func(s *RoleSpec, p *Participant) Role {
			return &witch{card: card{s, p}, healing: true, killing: true}
		},
	},
	{
		Kind:        RoleHunter,
		Title:       "The hunter",
		Description: "Takes someone along when dying.",
		Subgroups:   []SubgroupID{SubgroupCitizens},
		New:         func(s *RoleSpec, p *Participant) Role { return &hunter{card{s, p}} },
	},
	{
		Kind:        RoleLynchee,
		Title:       "The lynchee",
		Description: "Wins alone by getting killed.",
		Subgroups:   []SubgroupID{SubgroupLynchee},
		New:         func(s *RoleSpec, p *Participant) Role { return &lynchee{card{s, p}} },
	},
	{
		Kind:            RoleCupid,
		Title:           "The cupid",
		Description:     "Makes two players fall in love during the first night.",
		Subgroups:       []SubgroupID{SubgroupCitizens},
		MinParticipants: 2,
		New:             func(s *RoleSpec, p *Participant) Role { return &cupid{card{s, p}} },
	},
	{
		Kind:        RoleSeer,
		Title:       "The seer",
		Description: "Learns the role of one player every night.",
		Subgroups:   []SubgroupID{SubgroupCitizens},
		EyesOpen:    GroupIndividual,
		New:         func(s *RoleSpec, p *Participant) Role { return &seer{card{s, p}} },
	},
	{
		Kind:        RolePrince,
		Title:       "The prince",
		Description: "Survives the first attempt to kill them.",
		Subgroups:   []SubgroupID{SubgroupCitizens},
		New:         func(s *RoleSpec, p *Participant) Role { return &prince{card: card{s, p}} },
	},
}

// Catalog returns every known role variant in registration order.
func Catalog() []*RoleSpec {
	out := make([]*RoleSpec, len(catalog))
	copy(out, catalog)
	return out
}

// LookupRole finds a role variant by kind.
func LookupRole(kind RoleKind) (*RoleSpec, error) {
	for _, spec := range catalog {
		if spec.Kind == kind {
			return spec, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownRole, kind)
}
