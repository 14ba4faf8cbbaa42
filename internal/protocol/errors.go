package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Room routing/state.
	ErrRoomBusy = "E_ROOM_BUSY"
	ErrRoomFull = "E_ROOM_FULL"
	ErrNotFound = "E_NOT_FOUND"
	ErrInactive = "E_INACTIVE"

	// Rule/action layer.
	ErrBadRequest    = "E_BAD_REQUEST"
	ErrNotYourTurn   = "E_NOT_YOUR_TURN"
	ErrNoPermission  = "E_NO_PERMISSION"
	ErrNoResource    = "E_NO_RESOURCE"
	ErrNoMoves       = "E_NO_MOVES"
	ErrInvalidTarget = "E_INVALID_TARGET"
	ErrCooldown      = "E_COOLDOWN"
	ErrRateLimit     = "E_RATE_LIMIT"
	ErrConflict      = "E_CONFLICT"
	ErrBlocked       = "E_BLOCKED"
	ErrInternal      = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrRoomBusy:        {},
	ErrRoomFull:        {},
	ErrNotFound:        {},
	ErrInactive:        {},
	ErrBadRequest:      {},
	ErrNotYourTurn:     {},
	ErrNoPermission:    {},
	ErrNoResource:      {},
	ErrNoMoves:         {},
	ErrInvalidTarget:   {},
	ErrCooldown:        {},
	ErrRateLimit:       {},
	ErrConflict:        {},
	ErrBlocked:         {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
