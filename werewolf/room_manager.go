package main

import (
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	codeAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ"
	codeLength   = 5
)

var (
	errUnknownGame  = errors.New("unknown game code")
	errMasterDenied = errors.New("invalid master token")
)

// RoomManager keeps the registry of running games by code.
type RoomManager struct {
	mu    sync.RWMutex
	rooms map[string]*Room
	decks *deckStore
	opts  roomOptions
}

func NewRoomManager(decks *deckStore, opts roomOptions) *RoomManager {
	return &RoomManager{
		rooms: make(map[string]*Room),
		decks: decks,
		opts:  opts,
	}
}

// Create opens a room under a fresh code and returns it with the token
// that authorizes its master screen.
func (m *RoomManager) Create() (*Room, string, error) {
	token := uuid.NewString()
	m.mu.Lock()
	defer m.mu.Unlock()
	for {
		code, err := newGameCode()
		if err != nil {
			return nil, "", err
		}
		if _, taken := m.rooms[code]; taken {
			continue
		}
		room := NewRoom(code, token, m)
		m.rooms[code] = room
		log.Info().Str("room", code).Msg("[werewolf] game created")
		return room, token, nil
	}
}

// Lookup finds a room by code, ignoring case and surrounding space.
func (m *RoomManager) Lookup(code string) (*Room, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	room, ok := m.rooms[normalizeCode(code)]
	if !ok {
		return nil, errUnknownGame
	}
	return room, nil
}

// Codes lists the open games.
func (m *RoomManager) Codes() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	codes := make([]string, 0, len(m.rooms))
	for code := range m.rooms {
		codes = append(codes, code)
	}
	return codes
}

func (m *RoomManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for code, room := range m.rooms {
		room.close()
		delete(m.rooms, code)
	}
}

func (m *RoomManager) removeRoom(code string, room *Room) {
	m.mu.Lock()
	if current, ok := m.rooms[code]; ok && current == room {
		delete(m.rooms, code)
		log.Info().Str("room", code).Msg("[werewolf] game removed")
	}
	m.mu.Unlock()
}

func newGameCode() (string, error) {
	var b strings.Builder
	limit := big.NewInt(int64(len(codeAlphabet)))
	for range codeLength {
		n, err := rand.Int(rand.Reader, limit)
		if err != nil {
			return "", err
		}
		b.WriteByte(codeAlphabet[n.Int64()])
	}
	return b.String(), nil
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
