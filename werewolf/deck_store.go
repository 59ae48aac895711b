package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cockroachdb/pebble/v2"
)

const deckPrefix = "deck/"

var (
	errNoStore      = errors.New("deck store disabled")
	errDeckNotFound = errors.New("deck not found")
)

// deckStore persists named decks in a PebbleDB key-value store. Keys are
// "deck/<name>", values the JSON encoded deck. A nil store is disabled.
type deckStore struct {
	db *pebble.DB
}

func openDeckStore(dir string) (*deckStore, error) {
	if dir == "" {
		return nil, nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := pebble.Open(filepath.Clean(dir), &pebble.Options{})
	if err != nil {
		return nil, err
	}
	return &deckStore{db: db}, nil
}

func deckKey(name string) []byte {
	return []byte(deckPrefix + name)
}

func (s *deckStore) Save(name string, d Deck) error {
	if s == nil || s.db == nil {
		return errNoStore
	}
	if name == "" {
		return fmt.Errorf("save deck: empty name")
	}
	if _, err := d.Kinds(); err != nil {
		return err
	}
	val, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return s.db.Set(deckKey(name), val, pebble.Sync)
}

func (s *deckStore) Load(name string) (Deck, error) {
	if s == nil || s.db == nil {
		return nil, errNoStore
	}
	val, closer, err := s.db.Get(deckKey(name))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, fmt.Errorf("%w: %q", errDeckNotFound, name)
	}
	if err != nil {
		return nil, err
	}
	defer func() { _ = closer.Close() }()
	var d Deck
	if err := json.Unmarshal(val, &d); err != nil {
		return nil, fmt.Errorf("decode deck %q: %w", name, err)
	}
	return d, nil
}

// List returns the stored deck names in key order.
func (s *deckStore) List() ([]string, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	it, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: []byte(deckPrefix),
		UpperBound: []byte("deck0"), // '0' follows '/'
	})
	if err != nil {
		return nil, err
	}
	defer func() { _ = it.Close() }()
	names := make([]string, 0, 16)
	for it.First(); it.Valid(); it.Next() {
		names = append(names, strings.TrimPrefix(string(it.Key()), deckPrefix))
	}
	return names, nil
}

func (s *deckStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
