package protocol

import (
	"encoding/binary"
	"math"

	"github.com/pkg/errors"

	"github.com/nebulaforge/shootercore/internal/components"
)

// InputPacketSize is the fixed encoded length of an InputPacket payload:
// playerId(4) + flags(2) + x(4) + y(4) + angle(4).
const InputPacketSize = 4 + 2 + 4 + 4 + 4

// knownInputFlags is the bitwise OR of every flag this protocol accepts;
// any other bit set rejects the packet per spec.md §4.6.
const knownInputFlags = components.InputMoveUp | components.InputMoveDown |
	components.InputMoveLeft | components.InputMoveRight |
	components.InputFire | components.InputReady | components.InputSecondaryFire

// ErrUnknownFlagBits is returned when an input packet sets a bit outside
// knownInputFlags.
var ErrUnknownFlagBits = errors.New("protocol: unknown input flag bits")

// ErrNonFiniteField is returned when a float field is NaN or infinite.
var ErrNonFiniteField = errors.New("protocol: non-finite float field")

// InputPacket is the decoded client -> server ClientInput payload.
type InputPacket struct {
	PlayerID uint32
	Flags    components.InputFlag
	X, Y     float64
	Angle    float64
}

// EncodeInput serializes an InputPacket's payload (the caller wraps it
// with Encode using MessageType=ClientInput).
func EncodeInput(p InputPacket) []byte {
	buf := make([]byte, InputPacketSize)
	binary.BigEndian.PutUint32(buf[0:4], p.PlayerID)
	binary.BigEndian.PutUint16(buf[4:6], uint16(p.Flags))
	binary.BigEndian.PutUint32(buf[6:10], math.Float32bits(float32(p.X)))
	binary.BigEndian.PutUint32(buf[10:14], math.Float32bits(float32(p.Y)))
	binary.BigEndian.PutUint32(buf[14:18], math.Float32bits(float32(p.Angle)))
	return buf
}

// DecodeInput validates and parses an input packet payload. Unknown flag
// bits and non-finite floats are rejected per spec.md §4.6's "drop
// silently" protocol error policy — the caller decides whether to drop.
func DecodeInput(payload []byte) (InputPacket, error) {
	if len(payload) != InputPacketSize {
		return InputPacket{}, ErrSizeMismatch
	}
	flags := components.InputFlag(binary.BigEndian.Uint16(payload[4:6]))
	if flags&^knownInputFlags != 0 {
		return InputPacket{}, ErrUnknownFlagBits
	}

	x := float64(math.Float32frombits(binary.BigEndian.Uint32(payload[6:10])))
	y := float64(math.Float32frombits(binary.BigEndian.Uint32(payload[10:14])))
	angle := float64(math.Float32frombits(binary.BigEndian.Uint32(payload[14:18])))
	if !finite(x) || !finite(y) || !finite(angle) {
		return InputPacket{}, ErrNonFiniteField
	}

	return InputPacket{
		PlayerID: binary.BigEndian.Uint32(payload[0:4]),
		Flags:    flags,
		X:        x, Y: y, Angle: angle,
	}, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
