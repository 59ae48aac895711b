package engine

import "errors"

var (
	// ErrValidationFailed reports a game configuration that cannot be played.
	ErrValidationFailed = errors.New("validation failed")
	// ErrNameCollision is returned when a participant name is already taken.
	ErrNameCollision = errors.New("name already taken")
	// ErrGameStarted is returned for setup mutations after play has started.
	ErrGameStarted = errors.New("game already started")
	// ErrCircularDependency indicates role types declaring a cyclic run order.
	ErrCircularDependency = errors.New("circular dependency between roles")
	// ErrMalformedReply is returned when a reply does not match its request shape.
	ErrMalformedReply = errors.New("malformed reply")
	// ErrAlreadyDead is returned when killing a participant that is not alive.
	ErrAlreadyDead = errors.New("participant already dead")
	// ErrNoNight is returned when the hitlist is touched outside of a night.
	ErrNoNight = errors.New("no night in progress")
	// ErrUnknownRole is returned for role kinds missing from the catalog.
	ErrUnknownRole = errors.New("unknown role")
)

// gameEnd unwinds the running phase once an outcome is decided.
type gameEnd struct {
	outcome Outcome
}

func (e *gameEnd) Error() string {
	if e.outcome.AllDead {
		return "game ended: all dead"
	}
	return "game ended: " + string(e.outcome.Subgroup) + " won"
}
