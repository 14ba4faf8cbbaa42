// Package lobby is the room registry: it creates rooms, runs their loops and
// routes commands to them by code.
package lobby

import (
	"context"
	"errors"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/andriy1717/mastercity/internal/protocol"
	"github.com/andriy1717/mastercity/internal/sim/catalogs"
	"github.com/andriy1717/mastercity/internal/sim/room"
	"github.com/andriy1717/mastercity/internal/sim/tuning"
)

// Error carries a protocol error code back to the transport.
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Code + ": " + e.Message }

// CodeOf returns the protocol code of err, or E_INTERNAL.
func CodeOf(err error) string {
	var le *Error
	if errors.As(err, &le) {
		return le.Code
	}
	return protocol.ErrInternal
}

type Options struct {
	Config   Config
	Catalogs *catalogs.Catalogs
	Tuning   *tuning.Tuning
	Logger   *log.Logger
	Audit    room.AuditLogger
	Games    room.GameRecorder
	// Seed fixes room seeds (seed, seed+1, ...) for reproducible runs; 0
	// seeds from the clock.
	Seed int64
}

type entry struct {
	room   *room.Room
	cancel context.CancelFunc
}

type Manager struct {
	mu    sync.RWMutex
	rooms map[string]*entry

	opts   Options
	logger *log.Logger
	ctx    context.Context
	stop   context.CancelFunc
	wg     sync.WaitGroup
	seq    int64
}

func NewManager(ctx context.Context, opts Options) (*Manager, error) {
	if opts.Catalogs == nil || opts.Tuning == nil {
		return nil, errors.New("lobby: catalogs and tuning are required")
	}
	opts.Config.Normalize()
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	ctx, stop := context.WithCancel(ctx)
	return &Manager{
		rooms:  map[string]*entry{},
		opts:   opts,
		logger: logger,
		ctx:    ctx,
		stop:   stop,
	}, nil
}

// Config returns the normalized server config.
func (m *Manager) Config() Config { return m.opts.Config }

// NormalizeCode upper-cases s, keeps letters and digits and truncates it to
// the configured length.
func (m *Manager) NormalizeCode(s string) string {
	var b strings.Builder
	for _, r := range strings.ToUpper(strings.TrimSpace(s)) {
		if (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
		if b.Len() >= m.opts.Config.CodeLength {
			break
		}
	}
	return b.String()
}

func (m *Manager) generateCode() string {
	raw := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return raw[:m.opts.Config.CodeLength]
}

// Create registers and starts a room. An empty code picks a fresh one.
func (m *Manager) Create(code string) (*room.Room, error) {
	code = m.NormalizeCode(code)
	generated := code == ""

	m.mu.Lock()
	defer m.mu.Unlock()
	if limit := m.opts.Config.MaxRooms; limit > 0 && len(m.rooms) >= limit {
		return nil, &Error{Code: protocol.ErrRoomFull, Message: "The server has no free rooms."}
	}
	if generated {
		for code == "" || m.rooms[code] != nil {
			code = m.generateCode()
		}
	} else if m.rooms[code] != nil {
		return nil, &Error{Code: protocol.ErrConflict, Message: "Room " + code + " already exists."}
	}

	m.seq++
	seed := time.Now().UnixNano()
	if m.opts.Seed != 0 {
		seed = m.opts.Seed + m.seq
	}
	cfg := m.opts.Config
	r, err := room.New(room.RoomConfig{
		Code:               code,
		Seed:               seed,
		MaxAITurnsPerDrive: cfg.MaxAITurnsPerDrive,
		AdminCommands:      cfg.AdminCommands,
		InboxSize:          cfg.InboxSize,
		TickInterval:       time.Duration(cfg.TickMs) * time.Millisecond,
	}, m.opts.Catalogs, m.opts.Tuning)
	if err != nil {
		return nil, err
	}
	r.SetLogger(m.logger)
	if m.opts.Audit != nil {
		r.SetAuditLogger(m.opts.Audit)
	}
	if m.opts.Games != nil {
		r.SetGameRecorder(m.opts.Games)
	}

	ctx, cancel := context.WithCancel(m.ctx)
	e := &entry{room: r, cancel: cancel}
	m.rooms[code] = e
	m.wg.Add(1)
	go m.run(ctx, code, e)
	m.logger.Printf("lobby: room %s created (seed %d)", code, seed)
	return r, nil
}

func (m *Manager) run(ctx context.Context, code string, e *entry) {
	defer m.wg.Done()
	err := e.room.Run(ctx)
	m.mu.Lock()
	if m.rooms[code] == e {
		delete(m.rooms, code)
	}
	m.mu.Unlock()
	e.cancel()
	if err != nil && !errors.Is(err, room.ErrClosed) && !errors.Is(err, context.Canceled) {
		m.logger.Printf("lobby: room %s stopped: %v", code, err)
		return
	}
	m.logger.Printf("lobby: room %s removed", code)
}

func (m *Manager) Get(code string) *room.Room {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if e := m.rooms[m.NormalizeCode(code)]; e != nil {
		return e.room
	}
	return nil
}

// Submit routes cmd to the room's inbox without blocking.
func (m *Manager) Submit(code string, cmd room.Command) error {
	r := m.Get(code)
	if r == nil {
		return &Error{Code: protocol.ErrNotFound, Message: "No room with code " + strings.ToUpper(code) + "."}
	}
	if !r.Submit(cmd) {
		return &Error{Code: protocol.ErrRoomBusy, Message: "The room is busy, try again."}
	}
	return nil
}

// Remove stops the room under code and frees the code at once. It reports
// whether a room was registered.
func (m *Manager) Remove(code string) bool {
	code = m.NormalizeCode(code)
	m.mu.Lock()
	e := m.rooms[code]
	delete(m.rooms, code)
	m.mu.Unlock()
	if e == nil {
		return false
	}
	e.room.Stop()
	e.cancel()
	return true
}

// Detach drops a session without removing the player's seat.
func (m *Manager) Detach(code, playerID string, out chan []byte) {
	r := m.Get(code)
	if r == nil {
		return
	}
	select {
	case r.Detach() <- room.DetachRequest{PlayerID: playerID, Out: out}:
	default:
	}
}

// Rooms lists every live room, sorted by code.
func (m *Manager) Rooms() []room.Info {
	m.mu.RLock()
	out := make([]room.Info, 0, len(m.rooms))
	for _, e := range m.rooms {
		out = append(out, e.room.Info())
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Close stops every room and waits for the loops to exit.
func (m *Manager) Close() {
	m.stop()
	m.wg.Wait()
}
