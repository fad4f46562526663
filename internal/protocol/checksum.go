package protocol

import "encoding/binary"

// ChecksumPacketSize is the fixed encoded length of a ClientChecksum
// payload: checksum(4). The tick the checksum applies to travels in the
// packet header's TickID field, not the payload.
const ChecksumPacketSize = 4

// EncodeChecksum serializes a ClientChecksum payload (the caller wraps it
// with Encode using MessageType=ClientChecksum and Header.TickID set to
// the tick the checksum was computed for).
func EncodeChecksum(checksum uint32) []byte {
	buf := make([]byte, ChecksumPacketSize)
	binary.BigEndian.PutUint32(buf, checksum)
	return buf
}

// DecodeChecksum parses a ClientChecksum payload.
func DecodeChecksum(payload []byte) (uint32, error) {
	if len(payload) != ChecksumPacketSize {
		return 0, ErrSizeMismatch
	}
	return binary.BigEndian.Uint32(payload), nil
}
