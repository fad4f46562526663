package protocol

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

// FieldMask selects which optional fields an EntityState carries on the
// wire. Bit positions are fixed across delta and full snapshots per
// spec.md §4.6.
type FieldMask uint16

const (
	FieldPosition FieldMask = 1 << iota // x, y: f32 f32
	FieldVelocity                       // vx, vy: f32 f32
	FieldRotation                       // rotation: f32
	FieldScale                          // scaleX, scaleY: f32 f32
	FieldHealth                         // current: f32
	FieldTag                            // bits: u32
	FieldOwner                          // ownerId: u32
	FieldDespawned                      // no fields; entity left the world this tick
)

// EntityState is one entity's replicated fields for a single snapshot
// entry. Only fields selected by Mask are meaningful.
type EntityState struct {
	EntityID uint32
	Mask     FieldMask
	Kind     uint8 // low byte of the entity's archetype typeId

	X, Y           float64
	VX, VY         float64
	Rotation       float64
	ScaleX, ScaleY float64
	Health         float64
	Tag            uint32
	OwnerID        uint32
}

func fieldSize(mask FieldMask) int {
	n := 0
	if mask&FieldPosition != 0 {
		n += 8
	}
	if mask&FieldVelocity != 0 {
		n += 8
	}
	if mask&FieldRotation != 0 {
		n += 4
	}
	if mask&FieldScale != 0 {
		n += 8
	}
	if mask&FieldHealth != 0 {
		n += 4
	}
	if mask&FieldTag != 0 {
		n += 4
	}
	if mask&FieldOwner != 0 {
		n += 4
	}
	return n
}

// entryHeaderSize is entityId(4) + mask(2) + type(1).
const entryHeaderSize = 4 + 2 + 1

// EncodeSnapshot serializes a list of entity states into a single
// snapshot payload. The caller splits states across multiple packets to
// respect the MTU budget; see replication.Manager.BuildTick.
func EncodeSnapshot(states []EntityState) []byte {
	size := 0
	for _, s := range states {
		size += entryHeaderSize + fieldSize(s.Mask)
	}
	buf := make([]byte, 0, size)
	for _, s := range states {
		buf = appendEntity(buf, s)
	}
	return buf
}

func appendEntity(buf []byte, s EntityState) []byte {
	var head [entryHeaderSize]byte
	binary.BigEndian.PutUint32(head[0:4], s.EntityID)
	binary.BigEndian.PutUint16(head[4:6], uint16(s.Mask))
	head[6] = s.Kind
	buf = append(buf, head[:]...)

	if s.Mask&FieldPosition != 0 {
		buf = appendF32(buf, s.X)
		buf = appendF32(buf, s.Y)
	}
	if s.Mask&FieldVelocity != 0 {
		buf = appendF32(buf, s.VX)
		buf = appendF32(buf, s.VY)
	}
	if s.Mask&FieldRotation != 0 {
		buf = appendF32(buf, s.Rotation)
	}
	if s.Mask&FieldScale != 0 {
		buf = appendF32(buf, s.ScaleX)
		buf = appendF32(buf, s.ScaleY)
	}
	if s.Mask&FieldHealth != 0 {
		buf = appendF32(buf, s.Health)
	}
	if s.Mask&FieldTag != 0 {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], s.Tag)
		buf = append(buf, b[:]...)
	}
	if s.Mask&FieldOwner != 0 {
		var b [4]byte
		binary.BigEndian.PutUint32(b[:], s.OwnerID)
		buf = append(buf, b[:]...)
	}
	return buf
}

func appendF32(buf []byte, v float64) []byte {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], math.Float32bits(float32(v)))
	return append(buf, b[:]...)
}

func readF32(buf []byte) float64 {
	return float64(math.Float32frombits(binary.BigEndian.Uint32(buf)))
}

// ErrTruncatedSnapshot means a snapshot payload ends mid-entry.
var ErrTruncatedSnapshot = errors.New("protocol: truncated snapshot payload")

// DecodeSnapshot parses every entity entry in a snapshot payload.
func DecodeSnapshot(payload []byte) ([]EntityState, error) {
	var states []EntityState
	off := 0
	for off < len(payload) {
		if off+entryHeaderSize > len(payload) {
			return nil, ErrTruncatedSnapshot
		}
		s := EntityState{
			EntityID: binary.BigEndian.Uint32(payload[off : off+4]),
			Mask:     FieldMask(binary.BigEndian.Uint16(payload[off+4 : off+6])),
			Kind:     payload[off+6],
		}
		off += entryHeaderSize
		need := fieldSize(s.Mask)
		if off+need > len(payload) {
			return nil, ErrTruncatedSnapshot
		}

		if s.Mask&FieldPosition != 0 {
			s.X, s.Y = readF32(payload[off:]), readF32(payload[off+4:])
			off += 8
		}
		if s.Mask&FieldVelocity != 0 {
			s.VX, s.VY = readF32(payload[off:]), readF32(payload[off+4:])
			off += 8
		}
		if s.Mask&FieldRotation != 0 {
			s.Rotation = readF32(payload[off:])
			off += 4
		}
		if s.Mask&FieldScale != 0 {
			s.ScaleX, s.ScaleY = readF32(payload[off:]), readF32(payload[off+4:])
			off += 8
		}
		if s.Mask&FieldHealth != 0 {
			s.Health = readF32(payload[off:])
			off += 4
		}
		if s.Mask&FieldTag != 0 {
			s.Tag = binary.BigEndian.Uint32(payload[off:])
			off += 4
		}
		if s.Mask&FieldOwner != 0 {
			s.OwnerID = binary.BigEndian.Uint32(payload[off:])
			off += 4
		}
		states = append(states, s)
	}
	return states, nil
}
