package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func role(t *testing.T, kind RoleKind, name string) Role {
	t.Helper()
	spec, err := LookupRole(kind)
	require.NoError(t, err)
	return spec.New(spec, &Participant{name: name, alive: true})
}

func TestWavesRunsAfter(t *testing.T) {
	witch := role(t, RoleWitch, "x")
	wolf := role(t, RoleWerewolf, "w")
	citizen := role(t, RoleCitizen, "c")

	waves, err := Waves([]Role{witch, wolf, citizen})
	require.NoError(t, err)
	assert.Equal(t, [][]Role{{wolf, citizen}, {witch}}, waves)
}

func TestWavesSetupFirst(t *testing.T) {
	wolf := role(t, RoleWerewolf, "w")
	seer := role(t, RoleSeer, "s")
	cupid := role(t, RoleCupid, "k")

	waves, err := Waves([]Role{wolf, seer, cupid})
	require.NoError(t, err)
	assert.Equal(t, [][]Role{{cupid}, {wolf, seer}}, waves)
}

func TestWavesSelfTagIsNotADependency(t *testing.T) {
	witch := role(t, RoleWitch, "x")

	waves, err := Waves([]Role{witch})
	require.NoError(t, err)
	assert.Equal(t, [][]Role{{witch}}, waves)
}

func TestWavesCycle(t *testing.T) {
	// each witch kills at night and runs after every role that does
	a := role(t, RoleWitch, "a")
	b := role(t, RoleWitch, "b")
	c := role(t, RoleCitizen, "c")

	waves, err := Waves([]Role{a, b, c})
	require.ErrorIs(t, err, ErrCircularDependency)
	assert.Contains(t, err.Error(), "The witch (a)")
	assert.Equal(t, [][]Role{{c}}, waves)
}

func TestWavesEmpty(t *testing.T) {
	waves, err := Waves(nil)
	require.NoError(t, err)
	assert.Empty(t, waves)
}
