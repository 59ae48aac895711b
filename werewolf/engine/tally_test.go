package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTally(t *testing.T) {
	a := &Participant{name: "a"}
	b := &Participant{name: "b"}
	c := &Participant{name: "c"}

	tests := []struct {
		name     string
		eligible int
		poll     map[string]*Participant
		want     *Participant
	}{
		{"unanimous", 3, map[string]*Participant{"x": a, "y": a, "z": a}, a},
		{"single voter", 1, map[string]*Participant{"x": b}, b},
		{"only target named", 5, map[string]*Participant{"x": c}, c},
		{"three of four", 4, map[string]*Participant{"w": a, "x": a, "y": a, "z": b}, a},
		{"two of three", 3, map[string]*Participant{"x": b, "y": b, "z": a}, b},
		{"half with lead", 4, map[string]*Participant{"w": a, "x": a, "y": b, "z": c}, a},
		{"even split", 4, map[string]*Participant{"w": a, "x": a, "y": b, "z": b}, nil},
		{"all different", 3, map[string]*Participant{"x": a, "y": b, "z": c}, nil},
		{"below half", 5, map[string]*Participant{"v": a, "w": a, "x": b, "y": c}, nil},
		{"empty", 3, map[string]*Participant{}, nil},
		{"nil targets ignored", 2, map[string]*Participant{"x": nil, "y": c}, c},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Tally(tt.eligible, tt.poll)
			if tt.want == nil {
				assert.False(t, ok)
				assert.Nil(t, got)
				return
			}
			assert.True(t, ok)
			assert.Same(t, tt.want, got)
		})
	}
}
