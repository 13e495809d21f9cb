// Package frame implements packing and demultiplexing of vchan frames.
//
// A frame is a channel identifier followed by a one byte opcode. Message
// frames carry a payload that runs to the end of the frame, so frames are
// never length prefixed at this layer.
package frame

import (
	"bytes"
	"fmt"
	"io"
)

var (
	// Debug can be set to get frames as they're packed and decoded
	Debug io.Writer
)

// Frame is a decoded frame addressed to a known identifier.
type Frame struct {
	Op      Opcode
	Payload []byte
}

func (f Frame) String() string {
	if f.Op == OpMessage {
		return fmt.Sprintf("{%s Length:%d}", f.Op, len(f.Payload))
	}
	return fmt.Sprintf("{%s}", f.Op)
}

// Pack builds the wire form of a frame. The payload is only appended for
// OpMessage frames.
func Pack(id Identifier, op Opcode, payload []byte) []byte {
	size := IdentifierSize + 1
	if op == OpMessage {
		size += len(payload)
	}
	buf := make([]byte, IdentifierSize+1, size)
	copy(buf, id[:])
	buf[IdentifierSize] = byte(op)
	if op == OpMessage {
		buf = append(buf, payload...)
	}
	if Debug != nil {
		fmt.Fprintln(Debug, "<<PACK", id, Frame{Op: op, Payload: payload})
	}
	return buf
}

// TryExtract returns the bytes following id in b, or false if b is not
// addressed to id.
func TryExtract(id Identifier, b []byte) ([]byte, bool) {
	if len(b) < IdentifierSize {
		return nil, false
	}
	if !bytes.Equal(id[:], b[:IdentifierSize]) {
		return nil, false
	}
	return b[IdentifierSize:], true
}

// Decode extracts and splits a frame addressed to id. It returns false for
// frames meant for another identifier, frames without an opcode and frames
// with an opcode outside the known set.
func Decode(id Identifier, b []byte) (Frame, bool) {
	rest, ok := TryExtract(id, b)
	if !ok || len(rest) == 0 {
		return Frame{}, false
	}
	op := Opcode(rest[0])
	if !op.Valid() {
		return Frame{}, false
	}
	f := Frame{Op: op}
	if op == OpMessage {
		f.Payload = rest[1:]
	}
	if Debug != nil {
		fmt.Fprintln(Debug, ">>DECODE", id, f)
	}
	return f, true
}
