// internal/game/game.go
package game

import (
	"fmt"
	"io"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/uno/internal/models"
	"github.com/sirupsen/logrus"
)

// EventType names a one-shot outbound event.
type EventType string

const (
	EventRoomState          EventType = "room_state"
	EventColorChoiceRequest EventType = "color_choice_request"
	EventUnoPenalty         EventType = "uno_penalty"
	EventDeckReshuffled     EventType = "deck_reshuffled"
	EventGameEnd            EventType = "game_end"
)

// Ranking is one row of the terminal ranking broadcast.
type Ranking struct {
	PlayerID       uuid.UUID `json:"playerId"`
	Nickname       string    `json:"nickname"`
	FinishPosition int       `json:"finishPosition"`
}

// Event is emitted by an action and delivered after the action commits.
type Event struct {
	Type           EventType  `json:"type"`
	PlayerID       *uuid.UUID `json:"playerId,omitempty"`
	TargetPlayerID *uuid.UUID `json:"targetPlayerId,omitempty"`
	RequestID      *uuid.UUID `json:"requestId,omitempty"`
	Count          int        `json:"count,omitempty"`
	Rankings       []Ranking  `json:"rankings,omitempty"`
	State          *Snapshot  `json:"state,omitempty"`

	// Recipient limits delivery to one player. uuid.Nil means the whole room.
	Recipient uuid.UUID `json:"-"`
}

// Game applies actions to a single room. It is not safe for concurrent use;
// callers serialize access per room.
type Game struct {
	Room   *models.Room
	rng    *rand.Rand
	now    func() time.Time
	log    *logrus.Entry
	events []Event
}

// New wraps room for mutation. rng drives shuffles; a nil logger discards output.
func New(room *models.Room, rng *rand.Rand, logger *logrus.Entry) *Game {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = logrus.NewEntry(l)
	}
	return &Game{
		Room: room,
		rng:  rng,
		now:  time.Now,
		log:  logger.WithField("room", room.ID),
	}
}

// Events returns the events fired so far and clears the buffer.
func (g *Game) Events() []Event {
	evs := g.events
	g.events = nil
	return evs
}

func (g *Game) fireEvent(ev Event) {
	g.events = append(g.events, ev)
}

// Start deals a fresh game for every seated player. The host starts unless
// they can no longer take turns.
func (g *Game) Start() error {
	r := g.Room
	if r.Status != models.StatusWaiting {
		return ErrInvalidState
	}
	if r.SeatedCount() < 2 {
		return ErrInsufficientPlayers
	}
	seat := 0
	for _, p := range r.Players {
		if p.IsSpectator || p.HasLeft {
			p.Position = nil
			continue
		}
		pos := seat
		p.Position = &pos
		seat++
	}
	if err := g.deal(); err != nil {
		return err
	}

	r.Status = models.StatusPlaying
	r.Direction = models.Clockwise
	r.PendingDrawCount = 0
	r.PendingColor = nil
	r.LastColorChoice = nil
	r.CurrentPlayerIndex = 0
	if cur := r.CurrentPlayer(); cur == nil || !cur.Active() {
		r.CurrentPlayerIndex, _ = g.nextActive(0)
	}
	r.TurnID++
	g.systemMessage("Game started")
	g.log.WithField("players", r.SeatedCount()).Info("game started")

	g.refreshPause()
	return nil
}

func (g *Game) systemMessage(format string, args ...interface{}) {
	g.Room.AppendMessage(models.GameMessage{
		Type: models.MessageSystem,
		Text: fmt.Sprintf(format, args...),
		At:   g.now(),
	})
}
