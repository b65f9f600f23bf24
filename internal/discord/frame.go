package discord

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Opcode is the first header word of an IPC frame.
type Opcode uint32

// IPC opcodes.
const (
	OpHandshake Opcode = 0
	OpFrame     Opcode = 1
	OpClose     Opcode = 2
	OpPing      Opcode = 3
	OpPong      Opcode = 4
)

const (
	// frameHeaderSize covers the little-endian opcode and payload length.
	frameHeaderSize = 8

	// MaxPayloadSize caps a frame payload at 1 MiB.
	MaxPayloadSize = 1 << 20

	// maxIPCSlots is the number of socket slots (0-9) Discord may listen on.
	maxIPCSlots = 10
)

// ErrPayloadTooLarge is returned for payloads over MaxPayloadSize.
var ErrPayloadTooLarge = errors.New("payload too large")

// ErrIPCNotAvailable is returned when no Discord IPC socket answers.
var ErrIPCNotAvailable = errors.New("discord IPC not available")

// EncodeFrame returns opcode, payload length and payload as one frame.
func EncodeFrame(opcode Opcode, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadSize {
		return nil, fmt.Errorf("%w: %d bytes (max %d)", ErrPayloadTooLarge, len(payload), MaxPayloadSize)
	}
	frame := make([]byte, frameHeaderSize+len(payload))
	binary.LittleEndian.PutUint32(frame[0:4], uint32(opcode))
	binary.LittleEndian.PutUint32(frame[4:8], uint32(len(payload)))
	copy(frame[frameHeaderSize:], payload)
	return frame, nil
}

// WriteFrame encodes a frame and writes it to w in one call.
func WriteFrame(w io.Writer, opcode Opcode, payload []byte) error {
	frame, err := EncodeFrame(opcode, payload)
	if err != nil {
		return err
	}
	_, err = w.Write(frame)
	return err
}

// DecodeFrame reads exactly one frame from r.
func DecodeFrame(r io.Reader) (opcode Opcode, payload []byte, err error) {
	var header [frameHeaderSize]byte
	if _, err = io.ReadFull(r, header[:]); err != nil {
		return 0, nil, fmt.Errorf("reading frame header: %w", err)
	}
	opcode = Opcode(binary.LittleEndian.Uint32(header[0:4]))
	length := binary.LittleEndian.Uint32(header[4:8])
	if length > MaxPayloadSize {
		return 0, nil, fmt.Errorf("%w: %d bytes (max %d)", ErrPayloadTooLarge, length, MaxPayloadSize)
	}
	payload = make([]byte, length)
	if _, err = io.ReadFull(r, payload); err != nil {
		return 0, nil, fmt.Errorf("reading frame payload: %w", err)
	}
	return opcode, payload, nil
}
