package protocol

import (
	"encoding/binary"

	"mahjongcore/internal/gameerr"
)

// SetupOp is the operation code carried by a Setup packet's body.
// Grounded on original_source/src/network/setup.rs.
type SetupOp uint32

const (
	SetupConnection     SetupOp = 1
	SetupReconnection   SetupOp = 2
	SetupInitialization SetupOp = 3
	SetupReady          SetupOp = 4
)

// ParseSetupOp reads the 4-byte LE op code prefixed to every Setup body
// and returns the remaining bytes.
func ParseSetupOp(body []byte) (SetupOp, []byte, error) {
	if len(body) < 4 {
		return 0, nil, gameerr.New(gameerr.GameActionParsingFailed, 0)
	}
	op := SetupOp(binary.LittleEndian.Uint32(body[0:4]))
	switch op {
	case SetupConnection, SetupReconnection, SetupInitialization, SetupReady:
		return op, body[4:], nil
	default:
		return 0, nil, gameerr.New(gameerr.GameActionParsingFailed, 0)
	}
}

// JoinRequest is the hand-packed (not CBOR) body of Setup.Connection and
// Setup.Reconnection, after the op code and one reserved byte: 8 bytes
// LE player_id followed by a UTF-8 alias tail.
type JoinRequest struct {
	ID    uint64
	Alias string
}

// ParseJoinRequest expects rest to start with the 1 reserved byte
// Setup.Connection/Reconnection carry after the op code.
func ParseJoinRequest(rest []byte) (JoinRequest, error) {
	if len(rest) < 1+8 {
		return JoinRequest{}, gameerr.New(gameerr.GameActionParsingFailed, 0)
	}
	body := rest[1:] // skip the reserved byte
	id := binary.LittleEndian.Uint64(body[0:8])
	alias := string(body[8:])
	return JoinRequest{ID: id, Alias: alias}, nil
}

// EncodeSetupAck builds a Setup response body: the echoed op code plus
// a payload (CBOR for Initialization, a single 0x00 byte for Ready).
func EncodeSetupAck(op SetupOp, payload []byte) []byte {
	out := make([]byte, 4+len(payload))
	binary.LittleEndian.PutUint32(out[0:4], uint32(op))
	copy(out[4:], payload)
	return out
}
