package main

import (
	"context"

	"go.uber.org/zap"

	"github.com/vchan-go/vchan/cmd/vchan/cli"
	"github.com/vchan-go/vchan/codec"
	"github.com/vchan-go/vchan/peer"
	"github.com/vchan-go/vchan/transport"
)

var serveCmd = &cli.Command{
	Usage: "serve <scheme://addr/channel>",
	Short: "offer a channel and echo what peers send",
	Long: `Serve listens on addr with the given transport (tcp, unix, ws, quic or
stdio) and offers the named channel to every connecting peer. Messages are
logged, decoded with the configured codec when possible, and echoed back.`,
	Args: cli.ExactArgs(1),
	Run: func(ctx context.Context, args []string) {
		scheme, addr, name, err := parseChannelURL(args[0])
		fatal(err)
		c, err := codec.ByName(cfg.Codec)
		fatal(err)

		h := transport.NewHost(transport.WithLogger(logger))
		defer h.Shutdown()
		l, err := transport.Listen(scheme, addr, h)
		fatal(err)
		defer l.Close()

		store := peer.NewStore(h, peer.WithLogger(logger))
		store.Get(name, &peer.RegistryFuncs{Incoming: func(cl *peer.Client) {
			echo(cl, c)
		}})
		defer store.Release(name)

		logger.Info("serving", zap.String("scheme", scheme), zap.String("addr", addr), zap.String("channel", name))
		<-ctx.Done()
	},
}

func echo(cl *peer.Client, c codec.Codec) {
	log := logger.With(zap.String("peer", cl.ID()))
	log.Info("peer joined")
	cl.Subscribe(&peer.ClientFuncs{
		Message: func(payload []byte) {
			var v any
			if err := codec.Unmarshal(c, payload, &v); err != nil {
				log.Debug("message", zap.Int("bytes", len(payload)))
			} else {
				log.Info("message", zap.Any("value", v))
			}
			if err := cl.Send(payload); err != nil {
				log.Warn("echo failed", zap.Error(err))
			}
		},
		Close: func() {
			log.Info("peer left")
		},
	})
}
