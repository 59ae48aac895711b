package main

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/werewolf/werewolf/bridge"
	"github.com/gosuda/werewolf/werewolf/engine"
)

type roomOptions struct {
	seed        int64
	bufferSize  int
	idleTimeout time.Duration
}

type RoomPhase string

const (
	PhaseLobby    RoomPhase = "lobby"
	PhasePlaying  RoomPhase = "playing"
	PhaseFinished RoomPhase = "finished"
)

// seat binds a participant to its session token and current connection.
type seat struct {
	name    string
	session string
	client  *Client
	// last question not answered yet, redelivered on reconnect
	pending *bridge.Prompt
}

// Room runs one game. All fields are owned by the loop goroutine; other
// goroutines talk to it through enqueue.
type Room struct {
	code        string
	masterToken string
	manager     *RoomManager
	logger      zerolog.Logger

	game   *engine.Game
	bridge *bridge.Bridge
	ctx    context.Context
	cancel context.CancelFunc

	master   *Client
	seats    map[string]*seat
	sessions map[string]*seat
	order    []string
	deck     Deck
	phase    RoomPhase
	outcome  *OutcomeState

	commands  chan func(*Room)
	closing   chan struct{}
	closeOnce sync.Once
	idleTimer *time.Timer
}

func NewRoom(code, masterToken string, mgr *RoomManager) *Room {
	logger := log.With().Str("room", code).Logger()
	ctx, cancel := context.WithCancel(context.Background())
	b := bridge.New(bridge.WithLogger(logger), bridge.WithBufferSize(mgr.opts.bufferSize))
	opts := []engine.Option{engine.WithID(code), engine.WithLogger(logger)}
	if mgr.opts.seed != 0 {
		opts = append(opts, engine.WithSeed(mgr.opts.seed))
	}
	r := &Room{
		code:        code,
		masterToken: masterToken,
		manager:     mgr,
		logger:      logger,
		game:        engine.New(b, opts...),
		bridge:      b,
		ctx:         ctx,
		cancel:      cancel,
		seats:       make(map[string]*seat),
		sessions:    make(map[string]*seat),
		deck:        Deck{},
		phase:       PhaseLobby,
		commands:    make(chan func(*Room), 256),
		closing:     make(chan struct{}),
	}
	r.startIdle()
	go r.loop()
	go r.pump("", b.Public())
	return r
}

func (r *Room) loop() {
	for {
		select {
		case fn := <-r.commands:
			fn(r)
		case <-r.closing:
			if r.idleTimer != nil {
				r.idleTimer.Stop()
			}
			if r.master != nil {
				r.master.close()
			}
			for _, s := range r.seats {
				if s.client != nil {
					s.client.close()
				}
			}
			return
		}
	}
}

// enqueue hands fn to the room loop. It blocks while the queue is full and
// drops fn once the room is closed.
func (r *Room) enqueue(fn func(*Room)) {
	select {
	case r.commands <- fn:
	case <-r.closing:
	}
}

func (r *Room) close() {
	r.closeOnce.Do(func() {
		r.cancel()
		close(r.closing)
	})
}

// pump forwards the prompts of one pipe into the room loop. An empty name
// is the public pipe of the master screen.
func (r *Room) pump(name string, pipe *bridge.Pipe) {
	for {
		select {
		case pr := <-pipe.Prompts():
			r.enqueue(func(r *Room) {
				r.deliver(name, pr)
			})
		case <-r.ctx.Done():
			return
		}
	}
}

func (r *Room) deliver(name string, pr bridge.Prompt) {
	ev := ServerEvent{Type: EventTypePrompt, Room: r.code, Prompt: &pr}
	if name == "" {
		if r.master != nil {
			r.master.push(ev)
		}
		return
	}
	s := r.seats[name]
	if s == nil {
		return
	}
	if pr.ExpectsAnswer() {
		s.pending = &pr
	}
	if s.client != nil {
		s.client.push(ev)
	}
}

func (r *Room) attachMaster(c *Client) {
	if old := r.master; old != nil && old != c {
		old.pushSystem("Another master screen took over.")
		go old.close()
	}
	r.master = c
	r.stopIdle()
	r.logger.Info().Msg("[werewolf] master attached")
	r.sync(c)
	r.pushRoster()
}

func (r *Room) greet(c *Client) {
	r.stopIdle()
	c.push(ServerEvent{Type: EventTypeState, Room: r.code, State: r.state(false)})
}

func (r *Room) detach(c *Client) {
	if r.master == c {
		r.master = nil
		r.logger.Info().Msg("[werewolf] master detached")
	}
	if s := r.seats[c.name]; s != nil && s.client == c {
		s.client = nil
		r.logger.Debug().Str("participant", s.name).Msg("seat disconnected")
	}
	r.pushRoster()
	if r.empty() {
		r.startIdle()
	}
}

func (r *Room) handleMessage(c *Client, msg ClientMessage) {
	switch msg.Type {
	case MsgJoin:
		if c.master {
			c.pushSystem("The master screen cannot take a seat.")
			return
		}
		r.join(c, msg)
	case MsgAnswer:
		r.answer(c, msg)
	case MsgStart:
		if !c.master {
			c.pushSystem("Only the master screen can start the game.")
			return
		}
		r.start(c, msg)
	case MsgSaveDeck:
		if !c.master {
			c.pushSystem("Only the master screen can save decks.")
			return
		}
		r.saveDeck(c, msg)
	case MsgLoadDeck:
		if !c.master {
			c.pushSystem("Only the master screen can load decks.")
			return
		}
		r.loadDeck(c, msg)
	case MsgSync:
		r.sync(c)
	default:
		c.pushSystem("Unknown message type.")
	}
}

func (r *Room) join(c *Client, msg ClientMessage) {
	if c.name != "" {
		c.pushSystem("You already have a seat.")
		return
	}
	if msg.Session != "" {
		s, ok := r.sessions[msg.Session]
		if !ok {
			c.pushSystem("Unknown session.")
			return
		}
		if old := s.client; old != nil && old != c {
			go old.close()
		}
		s.client = c
		c.name = s.name
		r.stopIdle()
		r.logger.Debug().Str("participant", s.name).Msg("seat reconnected")
		c.push(ServerEvent{Type: EventTypeSession, Room: r.code, State: SessionState{Name: s.name, Session: s.session}})
		r.sync(c)
		r.pushRoster()
		return
	}
	if r.phase != PhaseLobby {
		c.pushSystem("The game has already started.")
		return
	}
	name := SanitizeName(msg.Name)
	if name == "" {
		c.pushSystem("Please choose a name.")
		return
	}
	if _, err := r.game.AddParticipant(name); err != nil {
		if errors.Is(err, engine.ErrNameCollision) {
			c.pushSystem("This name is already taken.")
			return
		}
		c.pushSystem(err.Error())
		return
	}
	s := &seat{name: name, session: uuid.NewString(), client: c}
	r.seats[name] = s
	r.sessions[s.session] = s
	r.order = append(r.order, name)
	c.name = name
	r.stopIdle()
	go r.pump(name, r.bridge.Seat(name))

	c.push(ServerEvent{Type: EventTypeSession, Room: r.code, State: SessionState{Name: name, Session: s.session}})
	r.broadcast(ServerEvent{Type: EventTypeLog, Room: r.code, Body: fmt.Sprintf("%s joined the game. (%d players)", name, len(r.order))})
	r.pushRoster()
}

func (r *Room) answer(c *Client, msg ClientMessage) {
	s := r.seats[c.name]
	if s == nil || s.client != c {
		c.pushSystem("Join the game first.")
		return
	}
	if r.phase != PhasePlaying {
		c.pushSystem("There is no question to answer.")
		return
	}
	a := bridge.Answer{ID: msg.ID, Selected: msg.Selected, Yes: msg.Yes}
	if !r.bridge.Seat(s.name).Offer(a) {
		c.pushSystem("Too many answers at once, try again.")
		return
	}
	if s.pending != nil && s.pending.ID == msg.ID {
		s.pending = nil
	}
}

func (r *Room) start(c *Client, msg ClientMessage) {
	if r.phase != PhaseLobby {
		c.pushSystem("The game has already started.")
		return
	}
	deck := r.deck
	if len(msg.Cards) > 0 {
		deck = msg.Cards
	}
	kinds, err := deck.Kinds()
	if err == nil {
		err = r.game.Deal(kinds)
	}
	if err == nil {
		err = r.game.Validate()
	}
	if err != nil {
		r.logger.Debug().Err(err).Str("deck", deck.String()).Msg("start rejected")
		c.pushSystem(fmt.Sprintf("Validation failed: %v", err))
		return
	}
	r.deck = deck
	r.phase = PhasePlaying
	r.logger.Info().Str("deck", deck.String()).Int("players", len(r.order)).Msg("[werewolf] game starting")
	r.broadcastState()

	go func() {
		outcome, err := r.game.Run(r.ctx)
		r.enqueue(func(r *Room) {
			r.finish(outcome, err)
		})
	}()
}

func (r *Room) finish(outcome engine.Outcome, err error) {
	r.phase = PhaseFinished
	state := OutcomeState{
		AllDead:  outcome.AllDead,
		Subgroup: string(outcome.Subgroup),
		Title:    outcome.Title,
	}
	for _, p := range outcome.Winners {
		state.Winners = append(state.Winners, p.Name())
	}
	if err != nil {
		r.logger.Error().Err(err).Msg("[werewolf] game aborted")
		state.Error = err.Error()
	}
	for _, s := range r.seats {
		s.pending = nil
	}
	r.outcome = &state
	r.broadcast(ServerEvent{Type: EventTypeOutcome, Room: r.code, State: state})
	r.broadcastState()
}

func (r *Room) saveDeck(c *Client, msg ClientMessage) {
	name := SanitizeName(msg.Deck)
	deck := r.deck
	if len(msg.Cards) > 0 {
		deck = msg.Cards
	}
	if err := r.manager.decks.Save(name, deck); err != nil {
		c.pushSystem(fmt.Sprintf("Could not save deck: %v", err))
		return
	}
	r.deck = deck
	c.pushSystem(fmt.Sprintf("Saved deck %q.", name))
	c.push(ServerEvent{Type: EventTypeState, Room: r.code, State: r.state(true)})
}

func (r *Room) loadDeck(c *Client, msg ClientMessage) {
	name := SanitizeName(msg.Deck)
	deck, err := r.manager.decks.Load(name)
	if err != nil {
		c.pushSystem(fmt.Sprintf("Could not load deck: %v", err))
		return
	}
	r.deck = deck
	c.pushSystem(fmt.Sprintf("Loaded deck %q: %s.", name, deck))
	c.push(ServerEvent{Type: EventTypeState, Room: r.code, State: r.state(true)})
}

// sync resends everything a reconnecting client needs.
func (r *Room) sync(c *Client) {
	c.push(ServerEvent{Type: EventTypeState, Room: r.code, State: r.state(c.master)})
	c.push(ServerEvent{Type: EventTypeRoster, Room: r.code, State: r.roster()})
	if s := r.seats[c.name]; s != nil && s.client == c && s.pending != nil {
		pr := *s.pending
		c.push(ServerEvent{Type: EventTypePrompt, Room: r.code, Prompt: &pr})
	}
	if r.outcome != nil {
		c.push(ServerEvent{Type: EventTypeOutcome, Room: r.code, State: *r.outcome})
	}
}

func (r *Room) state(master bool) RoomState {
	st := RoomState{
		Phase:   string(r.phase),
		Players: append([]string(nil), r.order...),
	}
	if master {
		st.Deck = r.deck
		names, err := r.manager.decks.List()
		if err != nil {
			r.logger.Warn().Err(err).Msg("list decks")
		}
		st.Decks = names
	}
	return st
}

func (r *Room) roster() RosterState {
	st := RosterState{Players: append([]string(nil), r.order...), Master: r.master != nil}
	for _, name := range r.order {
		if r.seats[name].client != nil {
			st.Connected = append(st.Connected, name)
		}
	}
	return st
}

func (r *Room) pushRoster() {
	r.broadcast(ServerEvent{Type: EventTypeRoster, Room: r.code, State: r.roster()})
}

func (r *Room) broadcastState() {
	if r.master != nil {
		r.master.push(ServerEvent{Type: EventTypeState, Room: r.code, State: r.state(true)})
	}
	ev := ServerEvent{Type: EventTypeState, Room: r.code, State: r.state(false)}
	for _, name := range r.order {
		if cl := r.seats[name].client; cl != nil {
			cl.push(ev)
		}
	}
}

func (r *Room) broadcast(ev ServerEvent) {
	if r.master != nil {
		r.master.push(ev)
	}
	for _, name := range r.order {
		if cl := r.seats[name].client; cl != nil {
			cl.push(ev)
		}
	}
}

func (r *Room) empty() bool {
	if r.master != nil {
		return false
	}
	for _, s := range r.seats {
		if s.client != nil {
			return false
		}
	}
	return true
}

// startIdle schedules the removal of a room nobody is connected to.
func (r *Room) startIdle() {
	if r.idleTimer != nil || r.manager.opts.idleTimeout <= 0 {
		return
	}
	r.idleTimer = time.AfterFunc(r.manager.opts.idleTimeout, func() {
		r.enqueue(func(r *Room) {
			r.idleTimer = nil
			if !r.empty() {
				return
			}
			r.logger.Info().Msg("[werewolf] closing idle game")
			r.manager.removeRoom(r.code, r)
			r.close()
		})
	})
}

func (r *Room) stopIdle() {
	if r.idleTimer != nil {
		r.idleTimer.Stop()
		r.idleTimer = nil
	}
}
