package main

import "github.com/gosuda/werewolf/werewolf/bridge"

// Client → server message types.
const (
	MsgJoin     = "join"
	MsgAnswer   = "answer"
	MsgStart    = "start"
	MsgSaveDeck = "save_deck"
	MsgLoadDeck = "load_deck"
	MsgSync     = "sync"
)

// Server → client event types.
const (
	EventTypeLog     = "log"
	EventTypePrompt  = "prompt"
	EventTypeSession = "session"
	EventTypeRoster  = "roster"
	EventTypeState   = "state"
	EventTypeOutcome = "outcome"
)

// ClientMessage is the envelope received from websocket clients.
type ClientMessage struct {
	Type     string   `json:"type"`
	Name     string   `json:"name,omitempty"`
	Session  string   `json:"session,omitempty"`
	ID       uint64   `json:"id,omitempty"`
	Selected []string `json:"selected,omitempty"`
	Yes      bool     `json:"yes,omitempty"`
	Cards    Deck     `json:"cards,omitempty"`
	Deck     string   `json:"deck,omitempty"`
}

// ServerEvent is pushed to clients for any room update.
type ServerEvent struct {
	Type   string         `json:"type"`
	Body   string         `json:"body,omitempty"`
	Room   string         `json:"room,omitempty"`
	Prompt *bridge.Prompt `json:"prompt,omitempty"`
	State  any            `json:"state,omitempty"`
}

// SessionState tells a seat which token reclaims it after a reconnect.
type SessionState struct {
	Name    string `json:"name"`
	Session string `json:"session"`
}

// RosterState lists the seats of a room in joining order.
type RosterState struct {
	Players   []string `json:"players"`
	Connected []string `json:"connected"`
	Master    bool     `json:"master"`
}

// RoomState is the lobby snapshot sent on sync and phase changes.
type RoomState struct {
	Phase   string   `json:"phase"`
	Players []string `json:"players"`
	Deck    Deck     `json:"deck,omitempty"`
	Decks   []string `json:"decks,omitempty"`
}

// OutcomeState is broadcast once the game ended.
type OutcomeState struct {
	AllDead  bool     `json:"all_dead"`
	Subgroup string   `json:"subgroup,omitempty"`
	Title    string   `json:"title,omitempty"`
	Winners  []string `json:"winners,omitempty"`
	Error    string   `json:"error,omitempty"`
}
