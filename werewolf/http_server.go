package main

import (
	"encoding/json"
	"errors"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/werewolf/werewolf/engine"
)

// HTTPServer wires HTTP routes to the room manager.
type HTTPServer struct {
	mgr      *RoomManager
	decks    *deckStore
	upgrader websocket.Upgrader
}

// NewHTTPServer constructs an HTTPServer with sane defaults.
func NewHTTPServer(mgr *RoomManager, decks *deckStore) *HTTPServer {
	return &HTTPServer{
		mgr:   mgr,
		decks: decks,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

type roleView struct {
	Kind        engine.RoleKind     `json:"kind"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Subgroups   []engine.SubgroupID `json:"subgroups"`
}

type subgroupView struct {
	ID        engine.SubgroupID `json:"id"`
	Title     string            `json:"title"`
	Singleton bool              `json:"singleton,omitempty"`
	Dynamic   bool              `json:"dynamic,omitempty"`
}

type gameView struct {
	Code        string `json:"code"`
	MasterToken string `json:"master_token,omitempty"`
}

// Router exposes the HTTP mux used for both Portal relay and optional local serve.
func (s *HTTPServer) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/roles", s.handleRoles)
	r.Get("/subgroups", s.handleSubgroups)
	r.Route("/decks", func(r chi.Router) {
		r.Get("/", s.handleListDecks)
		r.Get("/{name}", s.handleGetDeck)
	})
	r.Route("/games", func(r chi.Router) {
		r.Get("/", s.handleListGames)
		r.Post("/", s.handleCreateGame)
	})
	r.Get("/ws/master", s.handleMasterSocket)
	r.Get("/ws/player", s.handlePlayerSocket)
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("write response")
	}
}

func (s *HTTPServer) handleRoles(w http.ResponseWriter, _ *http.Request) {
	catalog := engine.Catalog()
	out := make([]roleView, 0, len(catalog))
	for _, spec := range catalog {
		out = append(out, roleView{Kind: spec.Kind, Title: spec.Title, Description: spec.Description, Subgroups: spec.Subgroups})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *HTTPServer) handleSubgroups(w http.ResponseWriter, _ *http.Request) {
	subgroups := engine.Subgroups()
	out := make([]subgroupView, 0, len(subgroups))
	for _, sg := range subgroups {
		out = append(out, subgroupView{ID: sg.ID, Title: sg.Title, Singleton: sg.Singleton, Dynamic: sg.Member != nil})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *HTTPServer) handleListDecks(w http.ResponseWriter, _ *http.Request) {
	names, err := s.decks.List()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if names == nil {
		names = []string{}
	}
	writeJSON(w, http.StatusOK, names)
}

func (s *HTTPServer) handleGetDeck(w http.ResponseWriter, r *http.Request) {
	deck, err := s.decks.Load(chi.URLParam(r, "name"))
	switch {
	case errors.Is(err, errDeckNotFound), errors.Is(err, errNoStore):
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, deck)
}

func (s *HTTPServer) handleListGames(w http.ResponseWriter, _ *http.Request) {
	codes := s.mgr.Codes()
	sort.Strings(codes)
	out := make([]gameView, 0, len(codes))
	for _, code := range codes {
		out = append(out, gameView{Code: code})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *HTTPServer) handleCreateGame(w http.ResponseWriter, _ *http.Request) {
	room, token, err := s.mgr.Create()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, gameView{Code: room.code, MasterToken: token})
}

func (s *HTTPServer) lookup(w http.ResponseWriter, r *http.Request) (*Room, bool) {
	code := r.URL.Query().Get("game")
	if code == "" {
		http.Error(w, "missing game", http.StatusBadRequest)
		return nil, false
	}
	room, err := s.mgr.Lookup(code)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return nil, false
	}
	return room, true
}

func (s *HTTPServer) handleMasterSocket(w http.ResponseWriter, r *http.Request) {
	room, ok := s.lookup(w, r)
	if !ok {
		return
	}
	if r.URL.Query().Get("token") != room.masterToken {
		http.Error(w, errMasterDenied.Error(), http.StatusForbidden)
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("upgrade websocket")
		return
	}
	client := NewClient(room, conn, true)
	room.enqueue(func(r *Room) {
		r.attachMaster(client)
	})
	go client.writeLoop()
	client.readLoop()
}

func (s *HTTPServer) handlePlayerSocket(w http.ResponseWriter, r *http.Request) {
	room, ok := s.lookup(w, r)
	if !ok {
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("upgrade websocket")
		return
	}
	client := NewClient(room, conn, false)
	room.enqueue(func(r *Room) {
		r.greet(client)
	})
	go client.writeLoop()
	client.readLoop()
}
