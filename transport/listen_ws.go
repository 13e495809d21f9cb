package transport

import (
	"net"
	"net/http"

	"golang.org/x/net/websocket"
)

// HandleWS returns a handler serving every WebSocket connection on h until it
// closes. Origins are not checked.
func (h *Host) HandleWS() http.Handler {
	return websocket.Server{
		Handler: func(ws *websocket.Conn) {
			h.Serve(newWSSocket(ws))
		},
	}
}

// ListenWS takes a TCP address and serves WebSocket connections on h from
// an HTTP server listening on the given address.
func ListenWS(addr string, h *Host) (net.Listener, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	s := &http.Server{
		Addr:    addr,
		Handler: h.HandleWS(),
	}
	go s.Serve(l)
	return l, nil
}
