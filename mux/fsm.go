package mux

import (
	"fmt"

	"github.com/vchan-go/vchan/frame"
)

// State is the handshake state of a Channel.
type State uint8

const (
	StateUnknown State = iota
	StateOpening
	StateHandshaking
	StateOpened
	StateClosed
	numStates
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "Unknown"
	case StateOpening:
		return "Opening"
	case StateHandshaking:
		return "Handshaking"
	case StateOpened:
		return "Opened"
	case StateClosed:
		return "Closed"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// event is an input of the handshake machine: a frame received on the
// channel or a change of the shared connection.
type event uint8

const (
	evInitiate event = iota
	evResolve
	evMessage
	evRemoteClose
	evConnOpen
	evConnClose
	numEvents
)

func (e event) String() string {
	switch e {
	case evInitiate:
		return "InitiateHandshake"
	case evResolve:
		return "ResolveHandshake"
	case evMessage:
		return "Message"
	case evRemoteClose:
		return "Close"
	case evConnOpen:
		return "ConnectionOpen"
	case evConnClose:
		return "ConnectionClose"
	default:
		return fmt.Sprintf("event(%d)", uint8(e))
	}
}

// eventFor maps a received opcode to its machine input.
func eventFor(op frame.Opcode) (event, bool) {
	switch op {
	case frame.OpInitiateHandshake:
		return evInitiate, true
	case frame.OpResolveHandshake:
		return evResolve, true
	case frame.OpMessage:
		return evMessage, true
	case frame.OpClose:
		return evRemoteClose, true
	default:
		return 0, false
	}
}

// effect is a set of side effects performed by a transition.
type effect uint8

const (
	effSendInitiate effect = 1 << iota
	effSendResolve
	effRaiseOpen
	effDeliver
	effRaiseClose

	// effNeedsConn makes the transition fall back to StateOpening with no
	// other effect when the connection is not opened.
	effNeedsConn
)

func (e effect) has(f effect) bool {
	return e&f != 0
}

type transition struct {
	next    State
	effects effect
}

func stay(s State) transition {
	return transition{next: s}
}

// transitions is indexed by current state and input. Unknown and Closed
// channels are not subscribed to their connection, so their rows only
// matter for frames racing an unsubscribe.
var transitions = [numStates][numEvents]transition{
	StateUnknown: {
		evInitiate:    stay(StateUnknown),
		evResolve:     stay(StateUnknown),
		evMessage:     stay(StateUnknown),
		evRemoteClose: stay(StateUnknown),
		evConnOpen:    stay(StateUnknown),
		evConnClose:   stay(StateUnknown),
	},
	StateOpening: {
		evInitiate:    {StateOpened, effSendResolve | effRaiseOpen},
		evResolve:     stay(StateOpening),
		evMessage:     stay(StateOpening),
		evRemoteClose: {StateOpening, effRaiseClose},
		evConnOpen:    {StateHandshaking, effSendInitiate},
		evConnClose:   {StateOpening, effRaiseClose},
	},
	StateHandshaking: {
		evInitiate:    {StateOpened, effSendResolve | effRaiseOpen},
		evResolve:     {StateOpened, effRaiseOpen | effNeedsConn},
		evMessage:     stay(StateHandshaking),
		evRemoteClose: {StateOpening, effRaiseClose},
		evConnOpen:    stay(StateHandshaking),
		evConnClose:   {StateOpening, effRaiseClose},
	},
	StateOpened: {
		evInitiate:    {StateOpened, effSendResolve},
		evResolve:     stay(StateOpened),
		evMessage:     {StateOpened, effDeliver},
		evRemoteClose: {StateOpening, effRaiseClose},
		evConnOpen:    stay(StateOpened),
		evConnClose:   {StateOpening, effRaiseClose},
	},
	StateClosed: {
		evInitiate:    stay(StateClosed),
		evResolve:     stay(StateClosed),
		evMessage:     stay(StateClosed),
		evRemoteClose: stay(StateClosed),
		evConnOpen:    stay(StateClosed),
		evConnClose:   stay(StateClosed),
	},
}

// step returns the transition for input ev in state s. connOpened reports
// whether the shared connection is currently opened.
func step(s State, ev event, connOpened bool) transition {
	if s >= numStates || ev >= numEvents {
		return stay(s)
	}
	t := transitions[s][ev]
	if t.effects.has(effNeedsConn) && !connOpened {
		return stay(StateOpening)
	}
	return t
}
