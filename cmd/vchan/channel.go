package main

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"strings"

	"go.uber.org/zap"

	"github.com/vchan-go/vchan/mux"
	"github.com/vchan-go/vchan/transport"
)

// parseChannelURL splits scheme://addr/channel.
func parseChannelURL(s string) (scheme, addr, name string, err error) {
	u, err := url.Parse(s)
	if err != nil {
		return "", "", "", err
	}
	name = strings.TrimPrefix(u.Path, "/")
	if u.Scheme == "" || name == "" {
		return "", "", "", fmt.Errorf("expected scheme://addr/channel, got %q", s)
	}
	return u.Scheme, u.Host, name, nil
}

// session is one consumer channel with its events funneled to Go channels.
type session struct {
	conn     *mux.Connection
	ch       *mux.Channel
	opened   chan struct{}
	messages chan []byte
}

func openSession(ctx context.Context, d transport.Dialer, name string) (*session, error) {
	s := &session{
		conn:     mux.NewConnection(d, mux.WithReconnectDelay(cfg.ReconnectDelay), mux.WithLogger(logger)),
		opened:   make(chan struct{}, 1),
		messages: make(chan []byte, 1024),
	}
	if err := s.attach(ctx, name); err != nil {
		s.conn.Close()
		return nil, err
	}
	return s, nil
}

// attach connects a new channel named name on the session connection and
// waits for it to open.
func (s *session) attach(ctx context.Context, name string) error {
	s.ch = s.conn.Channel(name)
	s.ch.Subscribe(&mux.ListenerFuncs{
		Open: func() {
			select {
			case s.opened <- struct{}{}:
			default:
			}
		},
		Close: func(reason string) {
			logger.Info("channel closed", zap.String("channel", name), zap.String("reason", reason))
		},
		Message: func(msg []byte) {
			s.messages <- msg
		},
		Error: func(err error) {
			logger.Warn("connection error", zap.Error(err))
		},
	})
	if err := s.ch.Connect(); err != nil {
		return err
	}
	return s.waitOpen(ctx)
}

func (s *session) waitOpen(ctx context.Context) error {
	select {
	case <-s.opened:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *session) receive(ctx context.Context) ([]byte, error) {
	select {
	case msg := <-s.messages:
		return msg, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (s *session) Close() {
	s.ch.Close()
	s.conn.Close()
}

// dialSubprocess runs a shell command, or this executable serving over
// stdio when command is empty, and returns a Dialer over its stdio. The
// returned func stops the process.
func dialSubprocess(command, channel string) (transport.Dialer, func(), error) {
	var cmd *exec.Cmd
	if command == "" {
		path, err := os.Executable()
		if err != nil {
			return nil, nil, err
		}
		cmd = exec.Command(path, "serve", "stdio:///"+channel)
	} else {
		path, err := exec.LookPath("sh")
		if err != nil {
			return nil, nil, err
		}
		cmd = exec.Command(path, "-c", command)
	}
	cmd.Stderr = os.Stderr
	wc, err := cmd.StdinPipe()
	if err != nil {
		return nil, nil, err
	}
	rc, err := cmd.StdoutPipe()
	if err != nil {
		return nil, nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, nil, err
	}
	stop := func() {
		cmd.Process.Signal(os.Interrupt)
		cmd.Wait()
	}
	return transport.DialIO(wc, rc), stop, nil
}
