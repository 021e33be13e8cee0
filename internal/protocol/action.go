package protocol

import (
	"encoding/binary"

	"github.com/fxamacker/cbor/v2"

	"mahjongcore/internal/gameerr"
	"mahjongcore/internal/tile"
)

// ActionOp is the operation code carried by an Action packet's body.
type ActionOp uint32

const (
	ActionDraw    ActionOp = 1
	ActionDiscard ActionOp = 2
	ActionCall    ActionOp = 3
	ActionTsumo   ActionOp = 6
)

// ParseActionOp mirrors ParseSetupOp for the Action packet family.
func ParseActionOp(body []byte) (ActionOp, []byte, error) {
	if len(body) < 4 {
		return 0, nil, gameerr.New(gameerr.GameActionParsingFailed, 0)
	}
	op := ActionOp(binary.LittleEndian.Uint32(body[0:4]))
	switch op {
	case ActionDraw, ActionDiscard, ActionCall, ActionTsumo:
		return op, body[4:], nil
	default:
		return 0, nil, gameerr.New(gameerr.GameActionParsingFailed, 0)
	}
}

// DiscardRequest is the hand-packed body of an Action.Discard: the two
// raw tile bytes the wire format already uses everywhere else, kept
// off CBOR since it is a fixed two-byte shape.
type DiscardRequest struct {
	Kind byte
	Copy byte
}

func ParseDiscardRequest(body []byte) (DiscardRequest, error) {
	if len(body) < 2 {
		return DiscardRequest{}, gameerr.New(gameerr.GameActionParsingFailed, 0)
	}
	return DiscardRequest{Kind: body[0], Copy: body[1]}, nil
}

// CallRequest is the hand-packed body of an Action.Call: a single byte
// selecting CallPass/Chi/Pon/Kan/Ron.
type CallRequest struct {
	Action byte
}

func ParseCallRequest(body []byte) (CallRequest, error) {
	if len(body) < 1 {
		return CallRequest{}, gameerr.New(gameerr.GameActionParsingFailed, 0)
	}
	return CallRequest{Action: body[0]}, nil
}

// The CBOR-encoded broadcast and setup payloads. These are the only
// bodies rich enough (variable-length hands, melds) to warrant a
// schema-driven codec instead of hand-packed bytes, per spec.md §6.

type wireTile struct {
	Kind byte `cbor:"kind"`
	Copy byte `cbor:"copy"`
}

func toWireTiles(tiles []tile.Tile) []wireTile {
	out := make([]wireTile, len(tiles))
	for i, t := range tiles {
		out[i] = wireTile{Kind: byte(t.Kind), Copy: t.Copy}
	}
	return out
}

// MeldOffer describes one locked meld for the initial view and for
// broadcast after a call resolves.
type MeldOffer struct {
	Type     int        `cbor:"type"`
	Tiles    []wireTile `cbor:"tiles"`
	FromSeat int        `cbor:"from_seat"`
}

// InitialPlayerView is the Setup.Initialization response body: a seat's
// full private view of the match at join time.
type InitialPlayerView struct {
	Seat        int         `cbor:"seat"`
	IsFirst     bool        `cbor:"is_first"`
	Hand        []wireTile  `cbor:"hand"`
	Melds       []MeldOffer `cbor:"melds"`
	CurrentSeat int         `cbor:"current_seat"`
	TurnNumber  int         `cbor:"turn_number"`
}

func EncodeInitialPlayerView(v InitialPlayerView) ([]byte, error) {
	return cbor.Marshal(v)
}

// DiscardEvent is broadcast to every seat after a discard is accepted
// and (if applicable) after a call window resolves with no claim.
type DiscardEvent struct {
	Seat       int `cbor:"seat"`
	Kind       byte `cbor:"kind"`
	Copy       byte `cbor:"copy"`
	NextSeat   int `cbor:"next_seat"`
	TurnNumber int `cbor:"turn_number"`
}

func EncodeDiscardEvent(e DiscardEvent) ([]byte, error) {
	return cbor.Marshal(e)
}

// DrawPrivate is sent only to the drawing seat; other seats see a
// DrawEvent (just the seat + remaining wall count, no tile identity).
type DrawPrivate struct {
	Kind byte `cbor:"kind"`
	Copy byte `cbor:"copy"`
}

func EncodeDrawPrivate(d DrawPrivate) ([]byte, error) {
	return cbor.Marshal(d)
}

// DrawEvent is the public broadcast of a draw: who drew and how much
// wall remains, with no tile identity.
type DrawEvent struct {
	Seat      int `cbor:"seat"`
	Remaining int `cbor:"remaining"`
}

func EncodeDrawEvent(e DrawEvent) ([]byte, error) {
	return cbor.Marshal(e)
}

// CallResolvedEvent broadcasts the outcome of a call window: a winning
// claim (meld awarded, turn transferred), a multi-ron finish, or a
// plain no-call pass-through to the next turn.
type CallResolvedEvent struct {
	NoCall        bool       `cbor:"no_call"`
	TripleRonDraw bool       `cbor:"triple_ron_draw"`
	RonWinners    []int      `cbor:"ron_winners,omitempty"`
	CallWinner    int        `cbor:"call_winner,omitempty"`
	CallType      int        `cbor:"call_type,omitempty"`
	Meld          *MeldOffer `cbor:"meld,omitempty"`
	NextSeat      int        `cbor:"next_seat"`
	TurnNumber    int        `cbor:"turn_number"`
}

func EncodeCallResolvedEvent(e CallResolvedEvent) ([]byte, error) {
	return cbor.Marshal(e)
}

// WinnerEvent broadcasts a self-draw (Tsumo) win: the winning seat and
// the tile that completed the hand.
type WinnerEvent struct {
	Seat int  `cbor:"seat"`
	Kind byte `cbor:"kind"`
	Copy byte `cbor:"copy"`
}

func EncodeWinnerEvent(e WinnerEvent) ([]byte, error) {
	return cbor.Marshal(e)
}

func MeldToWire(meldType int, tiles []tile.Tile, fromSeat int) MeldOffer {
	return MeldOffer{Type: meldType, Tiles: toWireTiles(tiles), FromSeat: fromSeat}
}

// HandToWire exposes toWireTiles for callers outside the package (the
// router, building an InitialPlayerView from a player's hand).
func HandToWire(tiles []tile.Tile) []wireTile {
	return toWireTiles(tiles)
}
