package frame

import "fmt"

// Opcode tells the receiver how to interpret a frame.
type Opcode uint8

const (
	OpInitiateHandshake Opcode = iota
	OpResolveHandshake
	OpMessage
	OpClose
)

// Valid reports whether op is one of the known opcodes.
func (op Opcode) Valid() bool {
	return op <= OpClose
}

func (op Opcode) String() string {
	switch op {
	case OpInitiateHandshake:
		return "InitiateHandshake"
	case OpResolveHandshake:
		return "ResolveHandshake"
	case OpMessage:
		return "Message"
	case OpClose:
		return "Close"
	default:
		return fmt.Sprintf("Opcode(%d)", uint8(op))
	}
}
