package transport

import (
	"context"
	"net"
)

func dialNet(proto, addr string) Dialer {
	return DialerFunc(func(ctx context.Context) (Socket, error) {
		var d net.Dialer
		conn, err := d.DialContext(ctx, proto, addr)
		if err != nil {
			return nil, err
		}
		return NewStreamSocket(conn), nil
	})
}

// DialTCP returns a Dialer for length prefixed sockets over TCP.
func DialTCP(addr string) Dialer {
	return dialNet("tcp", addr)
}

// DialUnix returns a Dialer for length prefixed sockets over a Unix domain socket.
func DialUnix(path string) Dialer {
	return dialNet("unix", path)
}
