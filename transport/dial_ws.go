package transport

import (
	"context"
	"fmt"

	"golang.org/x/net/websocket"
)

// wsSocket sends every message as one binary WebSocket frame.
type wsSocket struct {
	ws *websocket.Conn
}

func newWSSocket(ws *websocket.Conn) *wsSocket {
	ws.PayloadType = websocket.BinaryFrame
	return &wsSocket{ws: ws}
}

func (s *wsSocket) Send(msg []byte) error {
	return websocket.Message.Send(s.ws, msg)
}

func (s *wsSocket) Receive() ([]byte, error) {
	var msg []byte
	if err := websocket.Message.Receive(s.ws, &msg); err != nil {
		return nil, err
	}
	return msg, nil
}

func (s *wsSocket) Close() error {
	return s.ws.Close()
}

// DialWS returns a Dialer for WebSocket connections.
// The address must be a host and port. Opening a WebSocket
// connection at a particular path is not supported.
func DialWS(addr string) Dialer {
	return DialerFunc(func(ctx context.Context) (Socket, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ws, err := websocket.Dial(fmt.Sprintf("ws://%s/", addr), "", fmt.Sprintf("http://%s/", addr))
		if err != nil {
			return nil, err
		}
		return newWSSocket(ws), nil
	})
}
