package room

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andriy1717/mastercity/internal/protocol"
	"github.com/andriy1717/mastercity/internal/sim/ai"
	"github.com/andriy1717/mastercity/internal/sim/catalogs"
	"github.com/andriy1717/mastercity/internal/sim/economy"
	"github.com/andriy1717/mastercity/internal/sim/state"
	"github.com/andriy1717/mastercity/internal/sim/tasks"
	"github.com/andriy1717/mastercity/internal/sim/tuning"
)

const (
	defaultInboxSize       = 256
	defaultTickInterval    = 100 * time.Millisecond
	defaultAITurnsPerDrive = 8

	chatCap      = 50
	chatMaxLen   = 200
	chatShown    = 6
	snapshotLogN = 20
)

type RoomConfig struct {
	Code               string
	Seed               int64
	MaxAITurnsPerDrive int
	AdminCommands      bool
	InboxSize          int
	TickInterval       time.Duration
}

// Command is one inbound command; PlayerID always comes from the session.
type Command struct {
	PlayerID string
	Msg      protocol.CommandMsg
	// Out attaches the player's session on createRoom/joinRoom.
	Out chan []byte
}

type DetachRequest struct {
	PlayerID string
	Out      chan []byte
}

type Result struct {
	OK      bool
	Code    string
	Message string
}

func success() Result { return Result{OK: true} }

func fail(code, msg string) Result { return Result{Code: code, Message: msg} }

// Envelope is one outbound message addressed to a player. The session is
// resolved when the message is queued, so a kicked player still receives
// the notice sent right before removal.
type Envelope struct {
	To  string
	Msg any
	out chan []byte
}

// Info is the lock-free summary other goroutines may read.
type Info struct {
	Code     string `json:"code"`
	Players  int    `json:"players"`
	Humans   int    `json:"humans"`
	Active   bool   `json:"active"`
	Finished bool   `json:"finished"`
	TurnOf   string `json:"turnOf,omitempty"`
	Digest   string `json:"digest"`
}

type AuditLogger interface {
	WriteAudit(entry AuditEntry) error
}

type GameRecorder interface {
	RecordGame(rec GameRecord) error
}

var ErrClosed = errors.New("room closed")

// Room is a single-threaded authoritative game room.
// All state must be accessed only from the room loop goroutine.
type Room struct {
	cfg    RoomConfig
	cats   *catalogs.Catalogs
	tune   *tuning.Tuning
	econ   *economy.Model
	policy *ai.Engine
	rng    *rand.Rand
	q      *tasks.Queue
	logger *log.Logger
	now    func() time.Time

	inbox    chan Command
	detach   chan DetachRequest
	stop     chan struct{}
	stopOnce sync.Once
	info     atomic.Pointer[Info]

	// Optional sinks (may be nil). Implemented in internal/persistence/*.
	auditLogger AuditLogger
	games       GameRecorder
	onClose     func(code string)

	players  map[string]*state.Player
	order    []string
	sessions map[string]chan []byte
	host     string
	active   bool
	finished bool
	closed   bool
	turnOf   string
	// turnSeq changes every time the turn moves, so callers can tell whether
	// an action already ended the turn.
	turnSeq       int
	totalTurns    int
	firstTurnDone bool

	cal               Calendar
	seasonMults       map[state.Season]map[state.Resource]float64
	lastSeason        state.Season
	seasonsElapsed    int
	event             seasonEvent
	visitorThisSeason bool
	raidedThisSeason  bool
	mercHired         map[string]bool
	pendingMerc       *state.MercenaryRaid

	offers  map[string]*state.TradeOffer
	visits  map[string]*state.Visit
	gameLog []state.LogEntry
	chat    []protocol.ChatLine
	attacks []AttackRecord
	summary *protocol.SeasonSummary

	winner    string
	startedAt int64
	endedAt   int64
	nextID    int

	outbox      []Envelope
	aiQueue     []string
	driving     bool
	aiScheduled bool
}

func New(cfg RoomConfig, cats *catalogs.Catalogs, tune *tuning.Tuning) (*Room, error) {
	if cats == nil || tune == nil {
		return nil, errors.New("room: catalogs and tuning are required")
	}
	cfg.Code = strings.ToUpper(strings.TrimSpace(cfg.Code))
	if cfg.Code == "" {
		return nil, errors.New("room: empty code")
	}
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = defaultInboxSize
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = defaultTickInterval
	}
	if cfg.MaxAITurnsPerDrive <= 0 {
		cfg.MaxAITurnsPerDrive = defaultAITurnsPerDrive
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	econ := economy.New(&cats.Buildings, tune)
	r := &Room{
		cfg:      cfg,
		cats:     cats,
		tune:     tune,
		econ:     econ,
		policy:   ai.NewEngine(),
		rng:      rng,
		q:        tasks.NewQueue(),
		logger:   log.Default(),
		now:      time.Now,
		inbox:    make(chan Command, cfg.InboxSize),
		detach:   make(chan DetachRequest, 64),
		stop:     make(chan struct{}),
		players:  map[string]*state.Player{},
		sessions: map[string]chan []byte{},
		offers:   map[string]*state.TradeOffer{},
		visits:   map[string]*state.Visit{},
	}
	r.resetCalendar()
	r.publishInfo()
	return r, nil
}

func (r *Room) SetLogger(l *log.Logger) {
	if l != nil {
		r.logger = l
	}
}
func (r *Room) SetAuditLogger(l AuditLogger) { r.auditLogger = l }
func (r *Room) SetGameRecorder(g GameRecorder) { r.games = g }
func (r *Room) SetOnClose(fn func(code string)) { r.onClose = fn }
func (r *Room) Code() string { return r.cfg.Code }
func (r *Room) Detach() chan<- DetachRequest { return r.detach }
func (r *Room) Info() Info { return *r.info.Load() }
func (r *Room) Stop() { r.stopOnce.Do(func() { close(r.stop) }) }

// Submit queues cmd without blocking; false means the inbox is full.
func (r *Room) Submit(cmd Command) bool {
	select {
	case r.inbox <- cmd:
		return true
	default:
		return false
	}
}

func (r *Room) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.cfg.TickInterval)
	defer ticker.Stop()
	last := r.now()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-r.stop:
			return nil
		case cmd := <-r.inbox:
			r.handle(cmd)
		case req := <-r.detach:
			r.handleDetach(req)
		case <-ticker.C:
			now := r.now()
			r.advance(now.Sub(last))
			last = now
		}
		r.flush()
		if r.closed {
			if r.onClose != nil {
				r.onClose(r.cfg.Code)
			}
			return ErrClosed
		}
	}
}

// handle fully processes one command, including any AI turns it hands over to.
func (r *Room) handle(cmd Command) Result {
	res := r.apply(cmd)
	r.driveAI()
	r.publishInfo()
	return res
}

// advance moves the room's virtual clock and runs due tasks.
func (r *Room) advance(d time.Duration) {
	r.q.Advance(d)
	r.driveAI()
	r.publishInfo()
}

func (r *Room) handleDetach(req DetachRequest) {
	if cur, ok := r.sessions[req.PlayerID]; ok && cur == req.Out {
		delete(r.sessions, req.PlayerID)
	}
}

func (r *Room) flush() {
	for _, env := range r.outbox {
		if env.out == nil {
			continue
		}
		b, err := json.Marshal(env.Msg)
		if err != nil {
			r.logger.Printf("room %s: marshal %T: %v", r.cfg.Code, env.Msg, err)
			continue
		}
		sendLatest(env.out, b)
	}
	r.outbox = r.outbox[:0]
}

// drain returns and clears queued envelopes without delivering them.
func (r *Room) drain() []Envelope {
	out := append([]Envelope(nil), r.outbox...)
	r.outbox = r.outbox[:0]
	return out
}

func (r *Room) publishInfo() {
	in := &Info{
		Code:     r.cfg.Code,
		Players:  len(r.order),
		Active:   r.active,
		Finished: r.finished,
		TurnOf:   r.turnOf,
		Digest:   r.StateDigest(),
	}
	for _, id := range r.order {
		if p := r.players[id]; p != nil && !p.IsAI {
			in.Humans++
		}
	}
	r.info.Store(in)
}

func sendLatest(ch chan []byte, b []byte) {
	select {
	case ch <- b:
		return
	default:
	}
	// Drop one.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- b:
	default:
	}
}

func (r *Room) nowMs() int64 { return r.now().UnixMilli() }

func (r *Room) newID(prefix string) string {
	r.nextID++
	return prefix + strconv.Itoa(r.nextID)
}

func (r *Room) humanIDs() []string {
	out := make([]string, 0, len(r.order))
	for _, id := range r.order {
		if p := r.players[id]; p != nil && !p.IsAI {
			out = append(out, id)
		}
	}
	return out
}
