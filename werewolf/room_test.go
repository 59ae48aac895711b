package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/werewolf/werewolf/bridge"
	"github.com/gosuda/werewolf/werewolf/engine"
)

func newTestRoom(t *testing.T) *Room {
	t.Helper()
	mgr := NewRoomManager(nil, roomOptions{seed: 1, bufferSize: 4})
	t.Cleanup(mgr.Close)
	room, token, err := mgr.Create()
	require.NoError(t, err)
	require.NotEmpty(t, token)
	return room
}

// call runs fn on the room loop and waits for it.
func call(r *Room, fn func(*Room)) {
	done := make(chan struct{})
	r.enqueue(func(r *Room) {
		fn(r)
		close(done)
	})
	<-done
}

func next(t *testing.T, c *Client, typ string) ServerEvent {
	t.Helper()
	timeout := time.After(2 * time.Second)
	for {
		select {
		case ev := <-c.send:
			if ev.Type == typ {
				return ev
			}
		case <-timeout:
			t.Fatalf("no %s event", typ)
			return ServerEvent{}
		}
	}
}

func joinAs(t *testing.T, r *Room, c *Client, name string) SessionState {
	t.Helper()
	call(r, func(r *Room) { r.handleMessage(c, ClientMessage{Type: MsgJoin, Name: name}) })
	sess := next(t, c, EventTypeSession).State.(SessionState)
	drain(c)
	return sess
}

// drain discards the events already queued for c.
func drain(c *Client) {
	for {
		select {
		case <-c.send:
		default:
			return
		}
	}
}

func TestRoomJoin(t *testing.T) {
	room := newTestRoom(t)
	alice := NewClient(room, nil, false)
	sess := joinAs(t, room, alice, " <b>alice</b> ")
	assert.Equal(t, "alice", sess.Name)
	assert.NotEmpty(t, sess.Session)

	twin := NewClient(room, nil, false)
	call(room, func(r *Room) { r.handleMessage(twin, ClientMessage{Type: MsgJoin, Name: "alice"}) })
	assert.Equal(t, "This name is already taken.", next(t, twin, EventTypeLog).Body)

	call(room, func(r *Room) { r.handleMessage(twin, ClientMessage{Type: MsgJoin, Name: "<i></i>"}) })
	assert.Equal(t, "Please choose a name.", next(t, twin, EventTypeLog).Body)

	var roster RosterState
	call(room, func(r *Room) { roster = r.roster() })
	assert.Equal(t, []string{"alice"}, roster.Players)
	assert.Equal(t, []string{"alice"}, roster.Connected)
}

func TestRoomMasterOnly(t *testing.T) {
	room := newTestRoom(t)
	seat := NewClient(room, nil, false)
	joinAs(t, room, seat, "bob")

	call(room, func(r *Room) { r.handleMessage(seat, ClientMessage{Type: MsgStart}) })
	assert.Equal(t, "Only the master screen can start the game.", next(t, seat, EventTypeLog).Body)

	master := NewClient(room, nil, true)
	call(room, func(r *Room) { r.attachMaster(master) })
	call(room, func(r *Room) { r.handleMessage(master, ClientMessage{Type: MsgJoin, Name: "boss"}) })
	assert.Equal(t, "The master screen cannot take a seat.", next(t, master, EventTypeLog).Body)
}

func TestRoomStartValidation(t *testing.T) {
	room := newTestRoom(t)
	master := NewClient(room, nil, true)
	call(room, func(r *Room) { r.attachMaster(master) })
	for _, name := range []string{"a", "b"} {
		joinAs(t, room, NewClient(room, nil, false), name)
	}
	drain(master)

	call(room, func(r *Room) {
		r.handleMessage(master, ClientMessage{Type: MsgStart, Cards: Deck{engine.RoleWerewolf: 1}})
	})
	assert.Contains(t, next(t, master, EventTypeLog).Body, "Validation failed")

	call(room, func(r *Room) {
		r.handleMessage(master, ClientMessage{Type: MsgStart, Cards: Deck{engine.RoleLynchee: 2}})
	})
	assert.Contains(t, next(t, master, EventTypeLog).Body, "too many cards of singleton type")

	var phase RoomPhase
	call(room, func(r *Room) { phase = r.phase })
	assert.Equal(t, PhaseLobby, phase)
}

func TestRoomReconnectRedeliversPrompt(t *testing.T) {
	room := newTestRoom(t)
	first := NewClient(room, nil, false)
	sess := joinAs(t, room, first, "carol")

	pending := bridge.Prompt{ID: 42, Ask: bridge.AskSelect, To: "carol", Prompt: "Who?", N: 1, Candidates: []string{"carol"}}
	call(room, func(r *Room) { r.deliver("carol", pending) })
	assert.Equal(t, uint64(42), next(t, first, EventTypePrompt).Prompt.ID)

	call(room, func(r *Room) { r.detach(first) })

	second := NewClient(room, nil, false)
	call(room, func(r *Room) { r.handleMessage(second, ClientMessage{Type: MsgJoin, Session: sess.Session}) })
	assert.Equal(t, "carol", next(t, second, EventTypeSession).State.(SessionState).Name)
	ev := next(t, second, EventTypePrompt)
	assert.Equal(t, pending, *ev.Prompt)

	stranger := NewClient(room, nil, false)
	call(room, func(r *Room) { r.handleMessage(stranger, ClientMessage{Type: MsgJoin, Session: "nope"}) })
	assert.Equal(t, "Unknown session.", next(t, stranger, EventTypeLog).Body)
}

func TestRoomAnswerOutsideGame(t *testing.T) {
	room := newTestRoom(t)
	seat := NewClient(room, nil, false)

	call(room, func(r *Room) { r.handleMessage(seat, ClientMessage{Type: MsgAnswer, ID: 1}) })
	assert.Equal(t, "Join the game first.", next(t, seat, EventTypeLog).Body)

	joinAs(t, room, seat, "dave")
	call(room, func(r *Room) { r.handleMessage(seat, ClientMessage{Type: MsgAnswer, ID: 1}) })
	assert.Equal(t, "There is no question to answer.", next(t, seat, EventTypeLog).Body)
}

func TestRoomDecksWithoutStore(t *testing.T) {
	room := newTestRoom(t)
	master := NewClient(room, nil, true)
	call(room, func(r *Room) { r.attachMaster(master) })

	call(room, func(r *Room) { r.handleMessage(master, ClientMessage{Type: MsgSaveDeck, Deck: "classic"}) })
	assert.Contains(t, next(t, master, EventTypeLog).Body, errNoStore.Error())
}

func TestRoomDecks(t *testing.T) {
	decks, err := openDeckStore(t.TempDir())
	require.NoError(t, err)
	mgr := NewRoomManager(decks, roomOptions{bufferSize: 4})
	t.Cleanup(func() {
		mgr.Close()
		require.NoError(t, decks.Close())
	})
	room, _, err := mgr.Create()
	require.NoError(t, err)
	master := NewClient(room, nil, true)
	call(room, func(r *Room) { r.attachMaster(master) })

	classic := Deck{engine.RoleWerewolf: 1, engine.RoleCitizen: 2}
	call(room, func(r *Room) {
		r.handleMessage(master, ClientMessage{Type: MsgSaveDeck, Deck: "classic", Cards: classic})
	})
	assert.Equal(t, `Saved deck "classic".`, next(t, master, EventTypeLog).Body)

	call(room, func(r *Room) { r.deck = Deck{} })
	call(room, func(r *Room) { r.handleMessage(master, ClientMessage{Type: MsgLoadDeck, Deck: "classic"}) })
	assert.Contains(t, next(t, master, EventTypeLog).Body, "Loaded deck")
	st := next(t, master, EventTypeState).State.(RoomState)
	assert.Equal(t, classic, st.Deck)
	assert.Equal(t, []string{"classic"}, st.Decks)
}

func TestGameCode(t *testing.T) {
	code, err := newGameCode()
	require.NoError(t, err)
	assert.Len(t, code, codeLength)
	for _, ch := range code {
		assert.Contains(t, codeAlphabet, string(ch))
	}
	assert.Equal(t, "ABCDE", normalizeCode(" abcde "))
}

func TestRoomManagerLookup(t *testing.T) {
	mgr := NewRoomManager(nil, roomOptions{})
	t.Cleanup(mgr.Close)
	room, _, err := mgr.Create()
	require.NoError(t, err)

	got, err := mgr.Lookup(" " + room.code + " ")
	require.NoError(t, err)
	assert.Same(t, room, got)

	_, err = mgr.Lookup("ZZZZZZ")
	require.ErrorIs(t, err, errUnknownGame)

	mgr.removeRoom(room.code, room)
	assert.Empty(t, mgr.Codes())
	room.close()
}
