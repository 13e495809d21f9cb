package transport

import (
	"context"
	"io"
	"os"
	"sync"
)

type ioduplex struct {
	io.WriteCloser
	io.ReadCloser
}

func (d *ioduplex) Close() error {
	if err := d.WriteCloser.Close(); err != nil {
		return err
	}
	if err := d.ReadCloser.Close(); err != nil {
		return err
	}
	return nil
}

// IOSocket returns a Socket using a separate WriteCloser and ReadCloser.
func IOSocket(out io.WriteCloser, in io.ReadCloser) Socket {
	return NewStreamSocket(&ioduplex{out, in})
}

// DialIO returns a Dialer handing out a Socket over out and in. Pipes
// cannot be re-established, so every dial after the first fails with
// io.ErrClosedPipe.
func DialIO(out io.WriteCloser, in io.ReadCloser) Dialer {
	var once sync.Once
	return DialerFunc(func(ctx context.Context) (Socket, error) {
		var sock Socket
		once.Do(func() {
			sock = IOSocket(out, in)
		})
		if sock == nil {
			return nil, io.ErrClosedPipe
		}
		return sock, nil
	})
}

// DialStdio is a convenience for calling DialIO with Stdout and Stdin.
func DialStdio() Dialer {
	return DialIO(os.Stdout, os.Stdin)
}
