package main

import (
	"fmt"
	"strings"

	"github.com/gosuda/werewolf/werewolf/engine"
)

// Deck is a role composition: how many cards of each kind are dealt.
type Deck map[engine.RoleKind]int

// Size is the number of cards in the deck.
func (d Deck) Size() int {
	n := 0
	for _, count := range d {
		n += count
	}
	return n
}

// Kinds expands the deck into one entry per card, in catalog order.
func (d Deck) Kinds() ([]engine.RoleKind, error) {
	for kind, count := range d {
		if _, err := engine.LookupRole(kind); err != nil {
			return nil, fmt.Errorf("%w: %w", engine.ErrValidationFailed, err)
		}
		if count < 0 {
			return nil, fmt.Errorf("%w: negative count for %s", engine.ErrValidationFailed, kind)
		}
	}
	kinds := make([]engine.RoleKind, 0, d.Size())
	for _, spec := range engine.Catalog() {
		for range d[spec.Kind] {
			kinds = append(kinds, spec.Kind)
		}
	}
	return kinds, nil
}

func (d Deck) String() string {
	parts := make([]string, 0, len(d))
	for _, spec := range engine.Catalog() {
		if n := d[spec.Kind]; n > 0 {
			parts = append(parts, fmt.Sprintf("%dx %s", n, spec.Kind))
		}
	}
	return strings.Join(parts, ", ")
}
