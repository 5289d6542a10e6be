package net

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	headerLen = 4

	// MaxFrame is the largest packet the server writes. A spectator's
	// tick-state carries the whole world, so it is far above any inbound size.
	MaxFrame = 1 << 24

	// maxInbound bounds what a client may send on either transport.
	maxInbound = 1 << 16
)

// ReadFrame reads one TCP frame from r, refusing packets above limit.
// Wire format: [4 bytes LE: total length including header][opcode][body].
// Returns the packet bytes (without the length header).
func ReadFrame(r io.Reader, limit int) ([]byte, error) {
	var header [headerLen]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, fmt.Errorf("read frame header: %w", err)
	}

	totalLen := int64(binary.LittleEndian.Uint32(header[:]))
	payloadLen := totalLen - headerLen
	if payloadLen <= 0 || payloadLen > int64(limit) {
		return nil, fmt.Errorf("invalid frame length: %d", totalLen)
	}

	payload := make([]byte, payloadLen)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, fmt.Errorf("read frame payload (%d bytes): %w", payloadLen, err)
	}
	return payload, nil
}

// WriteFrame writes one TCP frame to w in a single Write call.
func WriteFrame(w io.Writer, data []byte) error {
	if len(data) == 0 || len(data) > MaxFrame {
		return fmt.Errorf("invalid frame size: %d", len(data))
	}
	buf := make([]byte, headerLen+len(data))
	binary.LittleEndian.PutUint32(buf[:headerLen], uint32(len(data)+headerLen))
	copy(buf[headerLen:], data)
	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("write frame: %w", err)
	}
	return nil
}
