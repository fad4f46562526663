package protocol

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

// ErrStringTooLong means a string exceeds the u8 length prefix's range.
var ErrStringTooLong = errors.New("protocol: string exceeds 255 bytes")

func appendString(buf []byte, s string) ([]byte, error) {
	if len(s) > math.MaxUint8 {
		return nil, ErrStringTooLong
	}
	buf = append(buf, byte(len(s)))
	return append(buf, s...), nil
}

func readString(buf []byte) (string, []byte, error) {
	if len(buf) < 1 {
		return "", nil, ErrTruncatedControl
	}
	n := int(buf[0])
	if len(buf) < 1+n {
		return "", nil, ErrTruncatedControl
	}
	return string(buf[1 : 1+n]), buf[1+n:], nil
}

// ErrTruncatedControl means a control payload ends before its declared
// fields are fully present.
var ErrTruncatedControl = errors.New("protocol: truncated control payload")

// ArchetypeEntry is one archetype table row of a LevelInit payload.
type ArchetypeEntry struct {
	TypeID   uint16
	SpriteID string
	AnimID   string
	Layer    int32
}

// BossEntry is one boss table row of a LevelInit payload.
type BossEntry struct {
	BossID string
	Health float64
}

// LevelInitPacket is the server -> client payload emitted once per game
// start, per spec.md §4.6.
type LevelInitPacket struct {
	LevelID      uint32
	Seed         uint64
	BackgroundID string
	MusicID      string
	Archetypes   []ArchetypeEntry
	Bosses       []BossEntry
}

// EncodeLevelInit serializes a LevelInitPacket's payload.
func EncodeLevelInit(p LevelInitPacket) ([]byte, error) {
	buf := make([]byte, 0, 64)
	var head [12]byte
	binary.BigEndian.PutUint32(head[0:4], p.LevelID)
	binary.BigEndian.PutUint64(head[4:12], p.Seed)
	buf = append(buf, head[:]...)

	var err error
	if buf, err = appendString(buf, p.BackgroundID); err != nil {
		return nil, err
	}
	if buf, err = appendString(buf, p.MusicID); err != nil {
		return nil, err
	}

	var countBuf [2]byte
	binary.BigEndian.PutUint16(countBuf[:], uint16(len(p.Archetypes)))
	buf = append(buf, countBuf[:]...)
	for _, a := range p.Archetypes {
		var row [2 + 4]byte
		binary.BigEndian.PutUint16(row[0:2], a.TypeID)
		binary.BigEndian.PutUint32(row[2:6], uint32(a.Layer))
		buf = append(buf, row[:]...)
		if buf, err = appendString(buf, a.SpriteID); err != nil {
			return nil, err
		}
		if buf, err = appendString(buf, a.AnimID); err != nil {
			return nil, err
		}
	}

	binary.BigEndian.PutUint16(countBuf[:], uint16(len(p.Bosses)))
	buf = append(buf, countBuf[:]...)
	for _, b := range p.Bosses {
		if buf, err = appendString(buf, b.BossID); err != nil {
			return nil, err
		}
		buf = appendF32(buf, b.Health)
	}
	return buf, nil
}

// DecodeLevelInit parses a LevelInitPacket payload.
func DecodeLevelInit(payload []byte) (LevelInitPacket, error) {
	if len(payload) < 12 {
		return LevelInitPacket{}, ErrTruncatedControl
	}
	p := LevelInitPacket{
		LevelID: binary.BigEndian.Uint32(payload[0:4]),
		Seed:    binary.BigEndian.Uint64(payload[4:12]),
	}
	rest := payload[12:]

	var err error
	if p.BackgroundID, rest, err = readString(rest); err != nil {
		return LevelInitPacket{}, err
	}
	if p.MusicID, rest, err = readString(rest); err != nil {
		return LevelInitPacket{}, err
	}

	if len(rest) < 2 {
		return LevelInitPacket{}, ErrTruncatedControl
	}
	archCount := int(binary.BigEndian.Uint16(rest[:2]))
	rest = rest[2:]
	for i := 0; i < archCount; i++ {
		if len(rest) < 6 {
			return LevelInitPacket{}, ErrTruncatedControl
		}
		entry := ArchetypeEntry{
			TypeID: binary.BigEndian.Uint16(rest[0:2]),
			Layer:  int32(binary.BigEndian.Uint32(rest[2:6])),
		}
		rest = rest[6:]
		if entry.SpriteID, rest, err = readString(rest); err != nil {
			return LevelInitPacket{}, err
		}
		if entry.AnimID, rest, err = readString(rest); err != nil {
			return LevelInitPacket{}, err
		}
		p.Archetypes = append(p.Archetypes, entry)
	}

	if len(rest) < 2 {
		return LevelInitPacket{}, ErrTruncatedControl
	}
	bossCount := int(binary.BigEndian.Uint16(rest[:2]))
	rest = rest[2:]
	for i := 0; i < bossCount; i++ {
		var entry BossEntry
		if entry.BossID, rest, err = readString(rest); err != nil {
			return LevelInitPacket{}, err
		}
		if len(rest) < 4 {
			return LevelInitPacket{}, ErrTruncatedControl
		}
		entry.Health = readF32(rest)
		rest = rest[4:]
		p.Bosses = append(p.Bosses, entry)
	}

	return p, nil
}
