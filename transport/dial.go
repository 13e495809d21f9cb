package transport

import (
	"fmt"
	"io"
	"os"
)

// A DialFunc builds a Dialer for an address.
type DialFunc func(addr string) Dialer

// A ListenFunc serves sockets accepted on addr with h until closed.
type ListenFunc func(addr string, h *Host) (io.Closer, error)

// Dialers is map of transport schemes to DialFuncs
// and includes all builtin transports
var Dialers map[string]DialFunc

// Listeners is map of transport schemes to ListenFuncs
// and includes all builtin transports
var Listeners map[string]ListenFunc

func init() {
	Dialers = map[string]DialFunc{
		"tcp":  DialTCP,
		"unix": DialUnix,
		"ws":   DialWS,
		"quic": func(addr string) Dialer {
			return DialQUIC(addr, nil)
		},
		"stdio": func(_ string) Dialer {
			return DialStdio()
		},
	}
	Listeners = map[string]ListenFunc{
		"tcp": func(addr string, h *Host) (io.Closer, error) {
			return ListenTCP(addr, h)
		},
		"unix": func(addr string, h *Host) (io.Closer, error) {
			return ListenUnix(addr, h)
		},
		"ws": func(addr string, h *Host) (io.Closer, error) {
			return ListenWS(addr, h)
		},
		"quic": func(addr string, h *Host) (io.Closer, error) {
			return ListenQUIC(addr, nil, h)
		},
		"stdio": func(_ string, h *Host) (io.Closer, error) {
			sock := IOSocket(os.Stdout, os.Stdin)
			go h.Serve(sock)
			return sock, nil
		},
	}
}

// Dial returns a Dialer for addr using a registered transport.
// Available transports are "tcp", "unix", "ws", "quic" and "stdio". In the
// case of "stdio", the addr can be left an empty string.
func Dial(scheme, addr string) (Dialer, error) {
	d, ok := Dialers[scheme]
	if !ok {
		return nil, fmt.Errorf("transport '%s' not in available in Dialers", scheme)
	}
	return d(addr), nil
}

// Listen serves sockets accepted on addr with h using a registered transport.
func Listen(scheme, addr string, h *Host) (io.Closer, error) {
	l, ok := Listeners[scheme]
	if !ok {
		return nil, fmt.Errorf("transport '%s' not in available in Listeners", scheme)
	}
	return l(addr, h)
}
