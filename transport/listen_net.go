package transport

import (
	"net"

	"go.uber.org/zap"
)

func listenNet(proto, addr string, h *Host) (net.Listener, error) {
	l, err := net.Listen(proto, addr)
	if err != nil {
		return nil, err
	}
	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				h.log.Debug("accept stopped", zap.String("addr", addr), zap.Error(err))
				return
			}
			go h.Serve(NewStreamSocket(conn))
		}
	}()
	return l, nil
}

// ListenTCP serves length prefixed sockets accepted at the given address.
func ListenTCP(addr string, h *Host) (net.Listener, error) {
	return listenNet("tcp", addr, h)
}

// ListenUnix serves length prefixed sockets accepted at the given path.
func ListenUnix(path string, h *Host) (net.Listener, error) {
	return listenNet("unix", path, h)
}
