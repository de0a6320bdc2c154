package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"
	ErrSchema          = "E_SCHEMA"
	ErrVersion         = "E_VERSION"

	// Turn ownership.
	ErrNotYourTurn   = "E_NOT_YOUR_TURN"
	ErrUnknownEntity = "E_UNKNOWN_ENTITY"

	// Path ruling.
	ErrBadRequest     = "E_BAD_REQUEST"
	ErrReplayMismatch = "E_REPLAY_MISMATCH"
	ErrIllegalPath    = "E_ILLEGAL_PATH"
	ErrInvalidTarget  = "E_INVALID_TARGET"
	ErrStale          = "E_STALE"
	ErrInternal       = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrSchema:          {},
	ErrVersion:         {},
	ErrNotYourTurn:     {},
	ErrUnknownEntity:   {},
	ErrBadRequest:      {},
	ErrReplayMismatch:  {},
	ErrIllegalPath:     {},
	ErrInvalidTarget:   {},
	ErrStale:           {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
