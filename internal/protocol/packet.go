// Package protocol implements the length-delimited binary frame used by
// every connection. Grounded on original_source/src/protocol/packet.rs
// (Packet, PacketKind, the from_bytes/to_bytes layout): a 12-byte
// header, the body, and a 2-byte reserved trailer, so the shortest
// valid frame is 14 bytes.
package protocol

import (
	"encoding/binary"
	"io"

	"mahjongcore/internal/gameerr"
)

// Kind is the packet's message family.
type Kind uint32

const (
	Setup     Kind = 1
	Action    Kind = 2
	Broadcast Kind = 3
	Error     Kind = 255
)

func (k Kind) valid() bool {
	switch k {
	case Setup, Action, Broadcast, Error:
		return true
	default:
		return false
	}
}

const (
	headerSize  = 12
	trailerSize = 2
	minFrame    = headerSize + trailerSize
)

// Packet is one decoded frame.
type Packet struct {
	ID   uint32
	Kind Kind
	Body []byte
}

// Decode parses a raw frame. Mirrors Packet::from_bytes.
func Decode(b []byte) (Packet, error) {
	if len(b) < minFrame {
		return Packet{}, gameerr.New(gameerr.PacketParsingFailed, gameerr.CodePacketTooShort)
	}
	kindVal := binary.LittleEndian.Uint32(b[4:8])
	kind := Kind(kindVal)
	if !kind.valid() {
		return Packet{}, gameerr.New(gameerr.PacketParsingFailed, gameerr.CodePacketUnknownKind)
	}
	id := binary.LittleEndian.Uint32(b[0:4])
	totalSize := binary.LittleEndian.Uint32(b[8:12])
	if int(totalSize) != len(b) {
		return Packet{}, gameerr.New(gameerr.PacketParsingFailed, gameerr.CodePacketTooShort)
	}
	body := b[headerSize : len(b)-trailerSize]
	return Packet{ID: id, Kind: kind, Body: body}, nil
}

// Encode serializes a packet back to wire bytes. encode(decode(bytes)) == bytes
// for any well-formed frame per spec.md §8 invariant 7.
func Encode(p Packet) []byte {
	total := headerSize + len(p.Body) + trailerSize
	out := make([]byte, total)
	binary.LittleEndian.PutUint32(out[0:4], p.ID)
	binary.LittleEndian.PutUint32(out[4:8], uint32(p.Kind))
	binary.LittleEndian.PutUint32(out[8:12], uint32(total))
	copy(out[headerSize:], p.Body)
	// trailer stays zeroed, reserved per spec.md §4.1
	return out
}

// ReadFrame reads one length-delimited frame off r: the 12-byte header
// first (to learn total_size), then the remaining body+trailer bytes,
// then decodes the whole thing. Returns io.EOF unchanged so callers can
// tell a clean disconnect from a parsing failure.
func ReadFrame(r io.Reader) (Packet, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return Packet{}, err
	}
	totalSize := binary.LittleEndian.Uint32(header[8:12])
	if int(totalSize) < minFrame {
		return Packet{}, gameerr.New(gameerr.PacketParsingFailed, gameerr.CodePacketTooShort)
	}
	rest := make([]byte, int(totalSize)-headerSize)
	if _, err := io.ReadFull(r, rest); err != nil {
		return Packet{}, err
	}
	frame := append(header, rest...)
	return Decode(frame)
}

// ErrorPacket builds an Error-kind reply correlated to the originating
// packet id, carrying the error's display string as its body.
func ErrorPacket(id uint32, err error) Packet {
	return Packet{ID: id, Kind: Error, Body: []byte(err.Error())}
}
