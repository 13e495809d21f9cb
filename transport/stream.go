package transport

import (
	"encoding/binary"
	"fmt"
	"io"
	"sync"
)

var (
	// MaxFrameSize bounds a single message read from a stream socket.
	MaxFrameSize uint32 = 16 << 20
)

// streamSocket frames messages over a byte stream using a four byte big
// endian length prefix.
type streamSocket struct {
	rwc io.ReadWriteCloser

	// wmu keeps prefix and body of one message together on the wire.
	wmu sync.Mutex
	rmu sync.Mutex
}

// NewStreamSocket wraps a byte stream as a Socket.
func NewStreamSocket(rwc io.ReadWriteCloser) Socket {
	return &streamSocket{rwc: rwc}
}

func (s *streamSocket) Send(msg []byte) error {
	if uint32(len(msg)) > MaxFrameSize {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, len(msg))
	}
	buf := make([]byte, 4+len(msg))
	binary.BigEndian.PutUint32(buf, uint32(len(msg)))
	copy(buf[4:], msg)

	s.wmu.Lock()
	defer s.wmu.Unlock()
	_, err := s.rwc.Write(buf)
	return err
}

func (s *streamSocket) Receive() ([]byte, error) {
	s.rmu.Lock()
	defer s.rmu.Unlock()

	prefix := make([]byte, 4)
	if _, err := io.ReadFull(s.rwc, prefix); err != nil {
		return nil, err
	}
	size := binary.BigEndian.Uint32(prefix)
	if size > MaxFrameSize {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, size)
	}
	buf := make([]byte, size)
	if _, err := io.ReadFull(s.rwc, buf); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return buf, nil
}

func (s *streamSocket) Close() error {
	return s.rwc.Close()
}
