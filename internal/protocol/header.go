// Package protocol implements the UDP wire format of spec.md §4.6/§6:
// a 12-byte header, a message-specific payload, and a CRC32 trailer, all
// big-endian.
package protocol

import (
	"encoding/binary"
	"hash/crc32"

	"github.com/pkg/errors"
)

// HeaderSize is the fixed header length in bytes, before payload and the
// CRC32 trailer.
const HeaderSize = 12

// TrailerSize is the CRC32 trailer length in bytes.
const TrailerSize = 4

// MessageType enumerates every wire message spec.md §4.6 names.
type MessageType uint8

const (
	ClientHello MessageType = iota + 1
	ClientJoin
	ClientReady
	ClientInput
	ClientPing
	ClientChecksum
	ServerHello
	ServerJoinAccept
	ServerJoinDeny
	AllReady
	CountdownTick
	GameStart
	LevelInit
	LevelEvent
	Snapshot
	SnapshotDelta
	ServerPong
)

// PacketCategory groups message types for coarse dispatch (the header's
// packetType byte), independent of the specific MessageType.
type PacketCategory uint8

const (
	CategoryControl PacketCategory = iota + 1
	CategoryInput
	CategoryReplication
)

// CategoryOf returns the packet category a message type belongs to.
func CategoryOf(mt MessageType) PacketCategory {
	switch mt {
	case ClientInput:
		return CategoryInput
	case Snapshot, SnapshotDelta:
		return CategoryReplication
	default:
		return CategoryControl
	}
}

// Header is the 12-byte fixed header preceding every packet's payload.
type Header struct {
	PacketType  PacketCategory
	MessageType MessageType
	SequenceID  uint16
	TickID      uint32
	PayloadSize uint16
	Reserved    uint16
}

var (
	// ErrShortPacket means the buffer is too small to hold a header+trailer.
	ErrShortPacket = errors.New("protocol: packet shorter than header+trailer")
	// ErrCRCMismatch means the trailing CRC32 does not match the
	// header+payload bytes.
	ErrCRCMismatch = errors.New("protocol: crc32 mismatch")
	// ErrSizeMismatch means payloadSize disagrees with the actual payload
	// length.
	ErrSizeMismatch = errors.New("protocol: payloadSize does not match buffer")
	// ErrUnknownMessageType means messageType is not one this codec knows.
	ErrUnknownMessageType = errors.New("protocol: unknown message type")
)

func isKnownMessageType(mt MessageType) bool {
	return mt >= ClientHello && mt <= ServerPong
}

// Encode assembles header||payload||crc32(header||payload). PayloadSize
// and PacketType are derived from payload and MessageType respectively;
// the caller need not set them.
func Encode(h Header, payload []byte) []byte {
	h.PacketType = CategoryOf(h.MessageType)
	h.PayloadSize = uint16(len(payload))

	buf := make([]byte, HeaderSize+len(payload)+TrailerSize)
	buf[0] = byte(h.PacketType)
	buf[1] = byte(h.MessageType)
	binary.BigEndian.PutUint16(buf[2:4], h.SequenceID)
	binary.BigEndian.PutUint32(buf[4:8], h.TickID)
	binary.BigEndian.PutUint16(buf[8:10], h.PayloadSize)
	binary.BigEndian.PutUint16(buf[10:12], h.Reserved)
	copy(buf[HeaderSize:], payload)

	sum := crc32.ChecksumIEEE(buf[:HeaderSize+len(payload)])
	binary.BigEndian.PutUint32(buf[HeaderSize+len(payload):], sum)
	return buf
}

// Decode validates the CRC32 trailer and size, and splits buf into a
// Header and its payload slice (a view into buf, not a copy).
func Decode(buf []byte) (Header, []byte, error) {
	if len(buf) < HeaderSize+TrailerSize {
		return Header{}, nil, ErrShortPacket
	}

	body := buf[:len(buf)-TrailerSize]
	wantSum := binary.BigEndian.Uint32(buf[len(buf)-TrailerSize:])
	if crc32.ChecksumIEEE(body) != wantSum {
		return Header{}, nil, ErrCRCMismatch
	}

	h := Header{
		PacketType:  PacketCategory(buf[0]),
		MessageType: MessageType(buf[1]),
		SequenceID:  binary.BigEndian.Uint16(buf[2:4]),
		TickID:      binary.BigEndian.Uint32(buf[4:8]),
		PayloadSize: binary.BigEndian.Uint16(buf[8:10]),
		Reserved:    binary.BigEndian.Uint16(buf[10:12]),
	}
	if !isKnownMessageType(h.MessageType) {
		return Header{}, nil, ErrUnknownMessageType
	}
	payload := body[HeaderSize:]
	if int(h.PayloadSize) != len(payload) {
		return Header{}, nil, ErrSizeMismatch
	}
	return h, payload, nil
}
