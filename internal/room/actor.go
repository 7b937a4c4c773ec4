// internal/room/actor.go
package room

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/game"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/sirupsen/logrus"
)

// command is one unit of work on a room. apply runs inside Store.Update;
// local runs on the actor goroutine without touching the store.
type command struct {
	ctx   context.Context
	apply func(g *game.Game) error
	local func() error
	reply chan error
}

// actor owns one room. Every command for the room runs on its goroutine, one
// at a time, in arrival order.
type actor struct {
	id    uuid.UUID
	reg   *Registry
	inbox chan command
	quit  chan struct{}
	done  chan struct{}
	once  sync.Once
	rng   *rand.Rand
	log   *logrus.Entry

	// Fields below are only touched on the actor goroutine.
	turnTimer   *time.Timer
	armedTurn   int
	armedColor  uuid.UUID
	graceTimers map[uuid.UUID]*time.Timer
	graceGen    map[uuid.UUID]int
	conns       map[uuid.UUID]uuid.UUID // player -> latest connected conn
}

func newActor(reg *Registry, id uuid.UUID) *actor {
	return &actor{
		id:          id,
		reg:         reg,
		inbox:       make(chan command, 64),
		quit:        make(chan struct{}),
		done:        make(chan struct{}),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		log:         reg.log.WithField("room", id),
		armedTurn:   -1,
		graceTimers: make(map[uuid.UUID]*time.Timer),
		graceGen:    make(map[uuid.UUID]int),
		conns:       make(map[uuid.UUID]uuid.UUID),
	}
}

func (a *actor) run() {
	defer close(a.done)
	for {
		select {
		case cmd := <-a.inbox:
			err := a.exec(cmd)
			if cmd.reply != nil {
				cmd.reply <- err
			}
		case <-a.quit:
			a.stopTimers()
			return
		}
	}
}

func (a *actor) stop() {
	a.once.Do(func() { close(a.quit) })
	<-a.done
}

// submit enqueues an engine action and waits for its result.
func (a *actor) submit(ctx context.Context, apply func(g *game.Game) error) error {
	return a.send(ctx, command{ctx: ctx, apply: apply, reply: make(chan error, 1)})
}

// do runs fn on the actor goroutine and waits for it.
func (a *actor) do(ctx context.Context, fn func() error) error {
	return a.send(ctx, command{ctx: ctx, local: fn, reply: make(chan error, 1)})
}

func (a *actor) send(ctx context.Context, cmd command) error {
	select {
	case a.inbox <- cmd:
	case <-a.quit:
		return game.ErrRoomNotFound
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-cmd.reply:
		return err
	case <-a.done:
		return game.ErrRoomNotFound
	case <-ctx.Done():
		return ctx.Err()
	}
}

// post enqueues an action without waiting. Timers use it.
func (a *actor) post(apply func(g *game.Game) error) {
	select {
	case a.inbox <- command{ctx: context.Background(), apply: apply}:
	case <-a.quit:
	}
}

func (a *actor) exec(cmd command) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			a.log.WithField("panic", rec).Error("room command panicked")
			err = game.ErrInternal
		}
	}()

	if cmd.local != nil {
		return cmd.local()
	}

	var events []game.Event
	room, err := a.reg.store.Update(cmd.ctx, a.id, func(r *models.Room) error {
		g := game.New(r, a.rng, a.log)
		if err := cmd.apply(g); err != nil {
			return err
		}
		r.UpdatedAt = time.Now().UTC()
		events = g.Events()
		return nil
	})
	if err != nil {
		if errors.Is(err, game.ErrNoChange) {
			return nil
		}
		var ge *game.Error
		if !errors.As(err, &ge) {
			a.log.WithError(err).Error("room update failed")
		}
		return err
	}

	a.schedule(room)
	a.reg.notifier.Publish(room, events)
	return nil
}

// schedule arms the turn or color choice timer for the committed room. A
// timer is only rearmed when the turn or the pending request changes.
func (a *actor) schedule(r *models.Room) {
	if r.Status != models.StatusPlaying {
		a.stopTurnTimer()
		a.armedTurn = -1
		a.armedColor = uuid.Nil
		return
	}

	unit := a.reg.opts.TimerUnit
	if pc := r.PendingColor; pc != nil {
		if a.armedColor == pc.RequestID {
			return
		}
		a.stopTurnTimer()
		a.armedColor = pc.RequestID
		if secs := r.Rules.ColorChoiceTimeoutSec; secs > 0 {
			req := pc.RequestID
			a.turnTimer = time.AfterFunc(time.Duration(secs)*unit, func() {
				a.post(func(g *game.Game) error { return g.ColorTimeout(req) })
			})
		}
		return
	}

	if a.armedColor == uuid.Nil && a.armedTurn == r.TurnID {
		return
	}
	a.stopTurnTimer()
	a.armedColor = uuid.Nil
	a.armedTurn = r.TurnID
	if secs := r.Rules.TurnTimeoutSec; secs > 0 {
		turn := r.TurnID
		a.turnTimer = time.AfterFunc(time.Duration(secs)*unit, func() {
			a.post(func(g *game.Game) error { return g.TurnTimeout(turn) })
		})
	}
}

func (a *actor) stopTurnTimer() {
	if a.turnTimer != nil {
		a.turnTimer.Stop()
		a.turnTimer = nil
	}
}

// armGrace marks the player absent once d passes without a reconnect.
func (a *actor) armGrace(playerID uuid.UUID, d time.Duration) {
	a.cancelGrace(playerID)
	gen := a.graceGen[playerID]
	a.graceTimers[playerID] = time.AfterFunc(d, func() {
		a.post(func(g *game.Game) error {
			if a.graceGen[playerID] != gen {
				return game.ErrNoChange
			}
			delete(a.graceTimers, playerID)
			return g.SetConnected(playerID, false)
		})
	})
}

func (a *actor) cancelGrace(playerID uuid.UUID) {
	if t, ok := a.graceTimers[playerID]; ok {
		t.Stop()
		delete(a.graceTimers, playerID)
	}
	a.graceGen[playerID]++
}

func (a *actor) stopTimers() {
	a.stopTurnTimer()
	for id, t := range a.graceTimers {
		t.Stop()
		delete(a.graceTimers, id)
	}
}
