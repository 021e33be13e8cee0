// Package gameerr is the error-kind catalogue shared by the wire codec,
// match manager, session and registry. Mirrors original_source's
// thiserror taxonomy (src/utils/errors.rs) and the teacher's grouped
// sentinel style (runtime/dto/errors.go), translated to a single typed
// error carrying an optional numeric code so it can be rendered
// straight into an Error packet body.
package gameerr

import "fmt"

type Kind int

const (
	PacketParsingFailed Kind = iota
	TileParsingFailed
	GameActionParsingFailed
	ConnectionNeeded
	ConnectionFailed
	ReconnectionFailed
	AuthenticationFailed
	NoAvailableSeats
	MatchAlreadyFull
	MatchStartFailed
	DrawFailed
	DiscardFailed
	NextPlayerFailed
	GameActionFailed
	SerializationFailed
	OperationFailed
	InternalError
	InitializationFailed
)

// Error is the core's single error type. Code is the numeric detail
// used by several kinds (e.g. DrawFailed(163)); zero when the kind
// carries no code.
type Error struct {
	Kind Kind
	Code int
}

func (e *Error) Error() string {
	switch e.Kind {
	case PacketParsingFailed:
		return fmt.Sprintf("could not parse received packet (%d)", e.Code)
	case TileParsingFailed:
		return "request error: failed to parse target tile"
	case GameActionParsingFailed:
		return fmt.Sprintf("request error: failed to parse game action packet (%d)", e.Code)
	case ConnectionNeeded:
		return "CLIENT ERROR (56)"
	case ConnectionFailed:
		return fmt.Sprintf("network error: failed to authenticate client (%d)", e.Code)
	case ReconnectionFailed:
		return fmt.Sprintf("CLIENT ERROR (%d)", e.Code)
	case AuthenticationFailed:
		return fmt.Sprintf("authentication failed (%d)", e.Code)
	case NoAvailableSeats:
		return "request error: failed to join match"
	case MatchAlreadyFull:
		return "request error: failed to join match"
	case MatchStartFailed:
		return fmt.Sprintf("game error: could not start match (%d)", e.Code)
	case DrawFailed:
		return fmt.Sprintf("game error: unable to draw a tile (%d)", e.Code)
	case DiscardFailed:
		return fmt.Sprintf("game error: could not discard tile (%d)", e.Code)
	case NextPlayerFailed:
		return "game error: could not get next player"
	case GameActionFailed:
		return "game error: action not permitted"
	case SerializationFailed:
		return fmt.Sprintf("SERVER ERROR: (%d)", e.Code)
	case OperationFailed:
		return fmt.Sprintf("CLIENT ERROR (%d)", e.Code)
	case InternalError:
		return "internal error"
	case InitializationFailed:
		return fmt.Sprintf("initialization failed (%d)", e.Code)
	default:
		return "unknown error"
	}
}

func New(kind Kind, code int) *Error { return &Error{Kind: kind, Code: code} }

// Well-known codes used throughout the core, lifted from
// original_source/src/game/match_manager.rs and client_manager.rs.
const (
	CodePacketTooShort     = 101
	CodePacketUnknownKind  = 102
	CodeMatchStartEastFree = 151
	CodeMatchStartSouth    = 152
	CodeMatchStartWest     = 153
	CodeMatchStartNorth    = 154
	CodeMatchStartNotReady = 155
	CodeDrawHandFull       = 161
	CodeDrawWallEmpty      = 162
	CodeDrawNotYourTurn    = 163
	CodeDiscardTileMissing = 164
	CodeDiscardNotYourTurn = 165
	CodeReconnectionFailed = 55
	CodeOperationNotAllowed = 57
)
