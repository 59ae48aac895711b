package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/werewolf/werewolf/engine"
)

func TestDeckKinds(t *testing.T) {
	d := Deck{engine.RoleSeer: 1, engine.RoleCitizen: 2, engine.RoleWerewolf: 1, engine.RoleWitch: 0}

	kinds, err := d.Kinds()
	require.NoError(t, err)
	assert.Equal(t, []engine.RoleKind{engine.RoleCitizen, engine.RoleCitizen, engine.RoleWerewolf, engine.RoleSeer}, kinds)
	assert.Equal(t, 4, d.Size())
	assert.Equal(t, "2x citizen, 1x werewolf, 1x seer", d.String())
}

func TestDeckKindsRejects(t *testing.T) {
	_, err := Deck{"jester": 1}.Kinds()
	require.ErrorIs(t, err, engine.ErrValidationFailed)
	require.ErrorIs(t, err, engine.ErrUnknownRole)

	_, err = Deck{engine.RoleCitizen: -1}.Kinds()
	require.ErrorIs(t, err, engine.ErrValidationFailed)
}

func TestDeckStore(t *testing.T) {
	s, err := openDeckStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { require.NoError(t, s.Close()) })

	classic := Deck{engine.RoleWerewolf: 2, engine.RoleCitizen: 3, engine.RoleWitch: 1}
	require.NoError(t, s.Save("classic", classic))
	require.NoError(t, s.Save("amor", Deck{engine.RoleCupid: 1, engine.RoleWerewolf: 1}))

	got, err := s.Load("classic")
	require.NoError(t, err)
	assert.Equal(t, classic, got)

	names, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"amor", "classic"}, names)

	_, err = s.Load("missing")
	require.ErrorIs(t, err, errDeckNotFound)

	require.ErrorIs(t, s.Save("broken", Deck{"jester": 1}), engine.ErrValidationFailed)
	require.Error(t, s.Save("", classic))
}

func TestDisabledDeckStore(t *testing.T) {
	s, err := openDeckStore("")
	require.NoError(t, err)
	require.Nil(t, s)

	require.ErrorIs(t, s.Save("classic", Deck{}), errNoStore)
	_, err = s.Load("classic")
	require.ErrorIs(t, err, errNoStore)
	names, err := s.List()
	require.NoError(t, err)
	assert.Empty(t, names)
	require.NoError(t, s.Close())
}
