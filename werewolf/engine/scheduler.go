package engine

import (
	"fmt"
	"strings"
)

// Waves orders roles into waves honoring their runs-after tags. Roles
// without a setup hook additionally wait for every role that has one.
// Within a wave roles keep their input order.
func Waves(roles []Role) ([][]Role, error) {
	byTag := make(map[Tag][]Role)
	var withSetup []Role
	for _, r := range roles {
		for _, tag := range r.Spec().Tags {
			byTag[tag] = append(byTag[tag], r)
		}
		if _, ok := r.(Preparer); ok {
			withSetup = append(withSetup, r)
		}
	}

	deps := make(map[Role]map[Role]struct{}, len(roles))
	for _, r := range roles {
		set := make(map[Role]struct{})
		for _, tag := range r.Spec().RunsAfter {
			for _, dep := range byTag[tag] {
				set[dep] = struct{}{}
			}
		}
		if _, ok := r.(Preparer); !ok {
			for _, dep := range withSetup {
				set[dep] = struct{}{}
			}
		}
		delete(set, r)
		deps[r] = set
	}

	var waves [][]Role
	pending := roles
	for len(pending) > 0 {
		var wave, rest []Role
		for _, r := range pending {
			if len(deps[r]) == 0 {
				wave = append(wave, r)
			} else {
				rest = append(rest, r)
			}
		}
		if len(wave) == 0 {
			return waves, fmt.Errorf("%w: %s", ErrCircularDependency, describe(rest))
		}
		for _, r := range rest {
			for _, done := range wave {
				delete(deps[r], done)
			}
		}
		waves = append(waves, wave)
		pending = rest
	}
	return waves, nil
}

func describe(roles []Role) string {
	parts := make([]string, 0, len(roles))
	for _, r := range roles {
		label := r.Spec().Title
		if owner := r.Owner(); owner != nil {
			label += " (" + owner.Name() + ")"
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, ", ")
}
