// internal/room/registry.go
package room

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/auth"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/sirupsen/logrus"
)

// Notifier receives every committed room together with the events the action
// produced. Publish must not block.
type Notifier interface {
	Publish(r *models.Room, events []game.Event)
}

type nopNotifier struct{}

func (nopNotifier) Publish(*models.Room, []game.Event) {}

// Options are the defaults applied to new rooms.
type Options struct {
	MaxPlayers int
	Rules      models.HouseRules
	// TimerUnit is the wall time of one second in HouseRules timers.
	TimerUnit time.Duration
}

// DefaultOptions returns the standard room defaults.
func DefaultOptions() Options {
	return Options{
		MaxPlayers: models.MaxPlayersCap,
		Rules:      models.DefaultHouseRules(),
		TimerUnit:  time.Second,
	}
}

// Registry owns the set of live rooms and routes every mutation through the
// room's actor.
type Registry struct {
	store    Store
	notifier Notifier
	opts     Options
	log      *logrus.Entry

	mu     sync.Mutex
	actors map[uuid.UUID]*actor
	closed bool
}

// NewRegistry creates an empty registry on top of store.
func NewRegistry(store Store, notifier Notifier, logger *logrus.Logger, opts Options) *Registry {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if opts.TimerUnit <= 0 {
		opts.TimerUnit = time.Second
	}
	if opts.MaxPlayers == 0 {
		opts.MaxPlayers = models.MaxPlayersCap
	}
	return &Registry{
		store:    store,
		notifier: notifier,
		opts:     opts,
		log:      logger.WithField("component", "registry"),
		actors:   make(map[uuid.UUID]*actor),
	}
}

type CreateRoomRequest struct {
	HostName   string                 `json:"hostName"`
	Password   string                 `json:"password,omitempty"`
	MaxPlayers int                    `json:"maxPlayers,omitempty"`
	Rules      map[string]interface{} `json:"rules,omitempty"`
}

type CreateRoomResult struct {
	RoomID   uuid.UUID `json:"roomId"`
	JoinCode string    `json:"joinCode"`
	HostID   uuid.UUID `json:"hostId"`
}

type JoinRoomRequest struct {
	JoinCode string `json:"joinCode"`
	Nickname string `json:"nickname"`
	Password string `json:"password,omitempty"`
}

type JoinRoomResult struct {
	RoomID      uuid.UUID `json:"roomId"`
	PlayerID    uuid.UUID `json:"playerId"`
	AsSpectator bool      `json:"asSpectator"`
}

// CreateRoom opens a waiting room with the requester seated as host.
func (reg *Registry) CreateRoom(ctx context.Context, req CreateRoomRequest) (*CreateRoomResult, error) {
	name, err := cleanName(req.HostName)
	if err != nil {
		return nil, err
	}
	maxPlayers := req.MaxPlayers
	if maxPlayers == 0 {
		maxPlayers = reg.opts.MaxPlayers
	}
	if maxPlayers < 2 || maxPlayers > models.MaxPlayersCap {
		return nil, game.ErrInvalidRules.Withf("maxPlayers must be between 2 and %d", models.MaxPlayersCap)
	}
	rules := reg.opts.Rules
	if req.Rules != nil {
		if err := rules.Update(req.Rules); err != nil {
			return nil, game.ErrInvalidRules.Withf("%v", err)
		}
	}

	var hash string
	if req.Password != "" {
		if hash, err = auth.HashPassword(req.Password); err != nil {
			return nil, fmt.Errorf("hash room password: %w", err)
		}
	}

	now := time.Now().UTC()
	seat := 0
	host := &models.Player{
		ID:        uuid.New(),
		Nickname:  name,
		Position:  &seat,
		Connected: true,
		JoinedAt:  now,
	}
	r := &models.Room{
		ID:           uuid.New(),
		HostID:       host.ID,
		Status:       models.StatusWaiting,
		Direction:    models.Clockwise,
		MaxPlayers:   maxPlayers,
		Rules:        rules,
		Players:      []*models.Player{host},
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	host.RoomID = r.ID
	r.AppendMessage(models.GameMessage{Type: models.MessageSystem, Text: name + " created the room", At: now})

	for attempt := 0; attempt < 5; attempt++ {
		code, err := generateCode()
		if err != nil {
			return nil, err
		}
		r.JoinCode = code
		err = reg.store.Create(ctx, r)
		if errors.Is(err, game.ErrJoinCodeTaken) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("create room: %w", err)
		}
		if _, err := reg.spawn(r.ID); err != nil {
			return nil, err
		}
		reg.log.WithFields(logrus.Fields{"room": r.ID, "code": code, "host": host.ID}).Info("room created")
		return &CreateRoomResult{RoomID: r.ID, JoinCode: code, HostID: host.ID}, nil
	}
	return nil, fmt.Errorf("allocate join code: %w", game.ErrJoinCodeTaken)
}

// JoinRoom adds a player by join code. Players arriving after the game has
// started are admitted as spectators.
func (reg *Registry) JoinRoom(ctx context.Context, req JoinRoomRequest) (*JoinRoomResult, error) {
	name, err := cleanName(req.Nickname)
	if err != nil {
		return nil, err
	}
	code := strings.ToUpper(strings.TrimSpace(req.JoinCode))
	id, err := reg.store.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}
	existing, err := reg.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing.PasswordHash != "" {
		ok, err := auth.VerifyPassword(req.Password, existing.PasswordHash)
		if err != nil {
			return nil, fmt.Errorf("verify room password: %w", err)
		}
		if !ok {
			return nil, game.ErrUnauthorized.Withf("wrong room password")
		}
	}

	a, err := reg.actorFor(ctx, id)
	if err != nil {
		return nil, err
	}
	var res JoinRoomResult
	err = a.submit(ctx, func(g *game.Game) error {
		r := g.Room
		now := time.Now().UTC()
		p := &models.Player{
			ID:        uuid.New(),
			Nickname:  name,
			RoomID:    r.ID,
			Connected: true,
			JoinedAt:  now,
		}
		switch r.Status {
		case models.StatusFinished:
			return game.ErrInvalidState.Withf("game already finished")
		case models.StatusWaiting:
			if r.SeatedCount() >= r.MaxPlayers {
				return game.ErrRoomFull
			}
			seat := nextSeat(r)
			p.Position = &seat
		default:
			p.IsSpectator = true
		}
		r.Players = append(r.Players, p)
		text := name + " joined"
		if p.IsSpectator {
			text = name + " is watching"
		}
		r.AppendMessage(models.GameMessage{Type: models.MessageSystem, Text: text, At: now})
		res = JoinRoomResult{RoomID: r.ID, PlayerID: p.ID, AsSpectator: p.IsSpectator}
		return nil
	})
	if err != nil {
		return nil, err
	}
	reg.log.WithFields(logrus.Fields{"room": id, "player": res.PlayerID, "spectator": res.AsSpectator}).Info("player joined")
	return &res, nil
}

// StartGame deals the first hand. Only the host may start a waiting room.
func (reg *Registry) StartGame(ctx context.Context, roomID, requesterID uuid.UUID) error {
	return reg.apply(ctx, roomID, func(g *game.Game) error {
		if g.Room.HostID != requesterID {
			return game.ErrUnauthorized.Withf("only the host can start the game")
		}
		return g.Start()
	})
}

// LeaveRoom marks the player as gone. Their record stays in the room.
func (reg *Registry) LeaveRoom(ctx context.Context, roomID, playerID uuid.UUID) error {
	a, err := reg.actorFor(ctx, roomID)
	if err != nil {
		return err
	}
	return a.submit(ctx, func(g *game.Game) error {
		a.cancelGrace(playerID)
		return g.Leave(playerID)
	})
}

// UpdateRules changes house rules before the game starts.
func (reg *Registry) UpdateRules(ctx context.Context, roomID, requesterID uuid.UUID, changes map[string]interface{}) (models.HouseRules, error) {
	var out models.HouseRules
	err := reg.apply(ctx, roomID, func(g *game.Game) error {
		r := g.Room
		if r.HostID != requesterID {
			return game.ErrUnauthorized.Withf("only the host can change rules")
		}
		if r.Status != models.StatusWaiting {
			return game.ErrInvalidState.Withf("rules are fixed once the game starts")
		}
		rules := r.Rules
		if err := rules.Update(changes); err != nil {
			return game.ErrInvalidRules.Withf("%v", err)
		}
		r.Rules = rules
		out = rules
		return nil
	})
	return out, err
}

// GetRoomState returns the room as seen by viewerID.
func (reg *Registry) GetRoomState(ctx context.Context, roomID, viewerID uuid.UUID) (*game.Snapshot, error) {
	r, err := reg.store.Get(ctx, roomID)
	if err != nil {
		return nil, err
	}
	return game.BuildSnapshot(r, viewerID), nil
}

// Room returns a copy of the stored room.
func (reg *Registry) Room(ctx context.Context, roomID uuid.UUID) (*models.Room, error) {
	return reg.store.Get(ctx, roomID)
}

func (reg *Registry) PlayCard(ctx context.Context, roomID, playerID uuid.UUID, cardIndex int, chosenColor models.Color) error {
	return reg.apply(ctx, roomID, func(g *game.Game) error {
		return g.PlayCard(playerID, cardIndex, chosenColor)
	})
}

// DrawCard draws the owed cards, or one, and passes the turn.
func (reg *Registry) DrawCard(ctx context.Context, roomID, playerID uuid.UUID) error {
	return reg.apply(ctx, roomID, func(g *game.Game) error {
		return g.DrawAndPass(playerID)
	})
}

func (reg *Registry) CallUno(ctx context.Context, roomID, playerID uuid.UUID) error {
	return reg.apply(ctx, roomID, func(g *game.Game) error {
		return g.CallUno(playerID)
	})
}

func (reg *Registry) CatchUno(ctx context.Context, roomID, catcherID, targetID uuid.UUID) error {
	return reg.apply(ctx, roomID, func(g *game.Game) error {
		return g.CatchUno(catcherID, targetID)
	})
}

func (reg *Registry) ChooseColor(ctx context.Context, roomID, playerID uuid.UUID, color models.Color) error {
	return reg.apply(ctx, roomID, func(g *game.Game) error {
		return g.ChooseColor(playerID, color)
	})
}

// Connect records that connID is now the player's live connection, cancelling
// any pending disconnect.
func (reg *Registry) Connect(ctx context.Context, roomID, playerID, connID uuid.UUID) error {
	a, err := reg.actorFor(ctx, roomID)
	if err != nil {
		return err
	}
	return a.submit(ctx, func(g *game.Game) error {
		a.cancelGrace(playerID)
		a.conns[playerID] = connID
		return g.SetConnected(playerID, true)
	})
}

// Disconnect starts the grace period after connection connID closed. It is a
// no-op once a newer connection has connected for the player. Game state only
// changes if they have not reconnected when the grace period runs out.
func (reg *Registry) Disconnect(ctx context.Context, roomID, playerID, connID uuid.UUID) error {
	a, err := reg.actorFor(ctx, roomID)
	if err != nil {
		return err
	}
	return a.do(ctx, func() error {
		if cur, ok := a.conns[playerID]; ok && cur != connID {
			return nil
		}
		delete(a.conns, playerID)
		r, err := reg.store.Get(ctx, roomID)
		if err != nil {
			return err
		}
		p := r.Player(playerID)
		if p == nil || p.HasLeft || !p.Connected {
			return nil
		}
		grace := time.Duration(r.Rules.DisconnectGraceSec) * reg.opts.TimerUnit
		a.armGrace(playerID, grace)
		return nil
	})
}

// Dispose stops the room's actor and deletes it from the store.
func (reg *Registry) Dispose(ctx context.Context, roomID uuid.UUID) error {
	reg.mu.Lock()
	a := reg.actors[roomID]
	delete(reg.actors, roomID)
	reg.mu.Unlock()
	if a != nil {
		a.stop()
	}
	if err := reg.store.Delete(ctx, roomID); err != nil {
		return fmt.Errorf("delete room %s: %w", roomID, err)
	}
	reg.log.WithField("room", roomID).Info("room disposed")
	return nil
}

// Restore starts actors for every unfinished stored room and rearms their timers.
func (reg *Registry) Restore(ctx context.Context) (int, error) {
	rooms, err := reg.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list rooms: %w", err)
	}
	restored := 0
	for _, r := range rooms {
		if r.Status == models.StatusFinished {
			continue
		}
		a, err := reg.spawn(r.ID)
		if err != nil {
			return restored, err
		}
		r := r
		if err := a.do(ctx, func() error { a.schedule(r); return nil }); err != nil {
			return restored, err
		}
		restored++
	}
	reg.log.WithField("rooms", restored).Info("restored rooms")
	return restored, nil
}

// CleanupLoop disposes rooms without activity for maxAge, checking every
// interval until ctx is done.
func (reg *Registry) CleanupLoop(ctx context.Context, interval, maxAge time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n, err := reg.Sweep(ctx, maxAge); err != nil {
				reg.log.WithError(err).Warn("room cleanup failed")
			} else if n > 0 {
				reg.log.WithField("rooms", n).Info("disposed idle rooms")
			}
		}
	}
}

// Sweep disposes rooms whose last update is older than maxAge. Games in
// progress survive as long as someone is still connected.
func (reg *Registry) Sweep(ctx context.Context, maxAge time.Duration) (int, error) {
	rooms, err := reg.store.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list rooms: %w", err)
	}
	cutoff := time.Now().Add(-maxAge)
	n := 0
	for _, r := range rooms {
		if r.UpdatedAt.After(cutoff) || !abandoned(r) {
			continue
		}
		if err := reg.Dispose(ctx, r.ID); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Close stops every actor. Stored rooms are left in place for Restore.
func (reg *Registry) Close() {
	reg.mu.Lock()
	actors := reg.actors
	reg.actors = make(map[uuid.UUID]*actor)
	reg.closed = true
	reg.mu.Unlock()
	for _, a := range actors {
		a.stop()
	}
}

func (reg *Registry) apply(ctx context.Context, roomID uuid.UUID, fn func(g *game.Game) error) error {
	a, err := reg.actorFor(ctx, roomID)
	if err != nil {
		return err
	}
	return a.submit(ctx, fn)
}

// actorFor returns the room's actor, starting one if the room exists in the
// store but has none yet.
func (reg *Registry) actorFor(ctx context.Context, roomID uuid.UUID) (*actor, error) {
	reg.mu.Lock()
	a, ok := reg.actors[roomID]
	reg.mu.Unlock()
	if ok {
		return a, nil
	}
	if _, err := reg.store.Get(ctx, roomID); err != nil {
		return nil, err
	}
	return reg.spawn(roomID)
}

func (reg *Registry) spawn(roomID uuid.UUID) (*actor, error) {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	if reg.closed {
		return nil, fmt.Errorf("registry closed")
	}
	if a, ok := reg.actors[roomID]; ok {
		return a, nil
	}
	a := newActor(reg, roomID)
	reg.actors[roomID] = a
	go a.run()
	return a, nil
}

// abandoned reports whether r is finished, never started, or has no connected
// player left in it.
func abandoned(r *models.Room) bool {
	if r.Status == models.StatusFinished || r.Status == models.StatusWaiting {
		return true
	}
	for _, p := range r.Players {
		if !p.HasLeft && p.Connected {
			return false
		}
	}
	return true
}

func nextSeat(r *models.Room) int {
	seat := 0
	for _, p := range r.Players {
		if p.Position != nil && *p.Position >= seat {
			seat = *p.Position + 1
		}
	}
	return seat
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > 32 {
		return "", game.ErrInvalidName
	}
	return name, nil
}
